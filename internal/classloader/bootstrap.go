/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "github.com/jacobin-style/cldcvm/internal/excnames"

// synthesizeBootstrapClass builds the fixed list of classes whose field
// layout and methods are dictated by native code rather than any archive
// entry. Returns nil if name is not one of excnames.BootstrapClasses.
func (r *Registry) synthesizeBootstrapClass(name string) *LinkedClass {
	known := false
	for _, n := range excnames.BootstrapClasses {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return nil
	}

	lc := newLinkedClass(name)
	lc.State = Initialized
	if root, err := r.Resolve(RootClassName); err == nil && name != RootClassName {
		lc.Super = root
	}

	switch name {
	case "java/lang/String":
		r.seedInstanceField(lc, "value", "[C")
		r.seedInstanceField(lc, "count", "I")
		r.seedNativeStub(lc, "<init>", "()V")
		r.seedNativeStub(lc, "<init>", "([C)V")
		r.seedNativeStub(lc, "charAt", "(I)C")
		r.seedNativeStub(lc, "length", "()I")
		r.seedNativeStub(lc, "equals", "(Ljava/lang/Object;)Z")
		r.seedNativeStub(lc, "concat", "(Ljava/lang/String;)Ljava/lang/String;")

	case "java/lang/StringBuffer", "java/lang/StringBuilder":
		r.seedInstanceField(lc, "value", "[C")
		r.seedInstanceField(lc, "count", "I")
		r.seedNativeStub(lc, "<init>", "()V")
		r.seedNativeStub(lc, "append", "(Ljava/lang/String;)L"+name+";")
		r.seedNativeStub(lc, "toString", "()Ljava/lang/String;")

	case "java/lang/Thread":
		r.seedInstanceField(lc, "handle", "I")
		r.seedNativeStub(lc, "<init>", "()V")
		r.seedNativeStub(lc, "start", "()V")
		r.seedNativeStub(lc, "sleep", "(J)V")
		r.seedNativeStub(lc, "run", "()V")

	case "java/io/InputStream":
		r.seedInstanceField(lc, "handle", "I")
		r.seedNativeStub(lc, "read", "()I")
		r.seedNativeStub(lc, "close", "()V")

	default:
		// the exception hierarchy: a single "message" field and the two
		// constructor overloads every caught/thrown exception needs
		r.seedInstanceField(lc, "message", "Ljava/lang/String;")
		r.seedNativeStub(lc, "<init>", "()V")
		r.seedNativeStub(lc, "<init>", "(Ljava/lang/String;)V")
		r.seedNativeStub(lc, "getMessage", "()Ljava/lang/String;")
	}

	return lc
}

func (r *Registry) seedInstanceField(lc *LinkedClass, name, descriptor string) {
	key := FieldKey(name, descriptor)
	lc.fieldOffsets[key] = lc.slotCount
	lc.fieldDescs[key] = descriptor
	lc.slotCount++
}

func (r *Registry) seedNativeStub(lc *LinkedClass, name, descriptor string) {
	key := MethodAndDescriptorKey(name, descriptor)
	lc.Methods[key] = &MethodRef{
		Name: name, Descriptor: descriptor,
		Native:        true,
		DefiningClass: lc,
	}
}
