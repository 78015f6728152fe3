/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/excnames"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// loadLangThrowable registers the constructor/getMessage bindings every
// synthesized exception class shares (bootstrap.go's default case seeds the
// same three native stubs -- one "message" field, two <init> overloads, and
// a reader -- for any class name not matched by an earlier case).
func loadLangThrowable(r *Registry) {
	for _, cls := range excnames.BootstrapClasses {
		if isBuiltinNonThrowable(cls) {
			continue
		}
		r.register(Key(cls, "<init>", "()V"), GMeth{GFunction: throwableInitEmpty})
		r.register(Key(cls, "<init>", "(Ljava/lang/String;)V"), GMeth{GFunction: throwableInitMessage})
		r.register(Key(cls, "getMessage", "()Ljava/lang/String;"), GMeth{GFunction: throwableGetMessage})
	}
}

// isBuiltinNonThrowable excludes the bootstrap classes that carry their own
// dedicated native bindings rather than the generic exception-hierarchy ones.
func isBuiltinNonThrowable(name string) bool {
	switch name {
	case "java/lang/String", "java/lang/StringBuffer", "java/lang/StringBuilder",
		"java/lang/Thread", "java/io/InputStream":
		return true
	}
	return false
}

func throwableInitEmpty(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "Throwable.<init> on null receiver"}
	}
	inst.SetField(classloader.FieldKey("message", "Ljava/lang/String;"), types.NullRef())
	return types.Value{}, nil
}

func throwableInitMessage(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "Throwable.<init> on null receiver"}
	}
	inst.SetField(classloader.FieldKey("message", "Ljava/lang/String;"), params[1])
	return types.Value{}, nil
}

func throwableGetMessage(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.NullRef(), nil
	}
	v, ok := inst.GetField(classloader.FieldKey("message", "Ljava/lang/String;"))
	if !ok {
		return types.NullRef(), nil
	}
	return v, nil
}
