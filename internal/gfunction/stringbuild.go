/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"unicode/utf16"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/object"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// loadLangStringBuildAppend registers the StringBuffer/StringBuilder
// bindings the two bootstrap classes share, since both are synthesised
// with an identical value/count field layout.
func loadLangStringBuildAppend(r *Registry) {
	for _, cls := range []string{"java/lang/StringBuffer", "java/lang/StringBuilder"} {
		r.register(Key(cls, "<init>", "()V"),
			GMeth{GFunction: builderInit})
		r.register(Key(cls, "append", "(Ljava/lang/String;)L"+cls+";"),
			GMeth{GFunction: builderAppend})
		r.register(Key(cls, "toString", "()Ljava/lang/String;"),
			GMeth{GFunction: builderToString})
	}
}

// "<init>()V" only sets the receiver's count to 0 and allocates no backing
// array; append allocates a fresh one on first use.
func builderInit(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "StringBuilder.<init> on null receiver"}
	}
	inst.SetField(classloader.FieldKey("count", "I"), types.Int(0))
	return types.Value{}, nil
}

func builderAppend(ctx *Context, params []types.Value) (types.Value, error) {
	selfHandle := params[0].Ref
	inst := ctx.Heap.Get(selfHandle)
	if inst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "append on null receiver"}
	}

	existing := builderContents(ctx, inst)
	appended := existing + JavaStringValue(ctx, params[1].Ref)
	units := utf16.Encode([]rune(appended))

	arrHandle, arr := ctx.Heap.AllocateArray(len(units), types.KInt)
	for i, u := range units {
		arr.Slots[i] = types.Int(int32(u))
	}
	inst.SetField(classloader.FieldKey("value", "[C"), types.Ref(arrHandle))
	inst.SetField(classloader.FieldKey("count", "I"), types.Int(int32(len(units))))

	return types.Ref(selfHandle), nil
}

func builderToString(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return NewJavaString(ctx, "")
	}
	return NewJavaString(ctx, builderContents(ctx, inst))
}

func builderContents(ctx *Context, inst *object.Instance) string {
	countV, ok := inst.GetField(classloader.FieldKey("count", "I"))
	if !ok {
		return ""
	}
	arrV, ok := inst.GetField(classloader.FieldKey("value", "[C"))
	if !ok || arrV.IsNull() {
		return ""
	}
	arr := ctx.Heap.Get(arrV.Ref)
	if arr == nil {
		return ""
	}
	n := int(countV.I)
	if n > len(arr.Slots) {
		n = len(arr.Slots)
	}
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = uint16(arr.Slots[i].I)
	}
	return string(utf16.Decode(units))
}
