/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jacobin-style/cldcvm/internal/classfile"
	"github.com/jacobin-style/cldcvm/internal/trace"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
)

// RootClassName is the designated root class: java/lang/Object, whose
// resolution is synthesised as a zero-field class when nothing in either
// archive provides one.
const RootClassName = "java/lang/Object"

// ClassNotFound is returned when none of Resolve's lookup steps succeed.
type ClassNotFound struct {
	Name string
}

func (e *ClassNotFound) Error() string { return "class not found: " + e.Name }

// InvalidClassName is returned when resolve() is asked to resolve a
// descriptor (leading '(' or "L...;" form) rather than a bare class name.
type InvalidClassName struct {
	Name string
}

func (e *InvalidClassName) Error() string { return "invalid class name: " + e.Name }

// Registry is the class registry / linker: Resolve is idempotent, the
// first call triggers decode+link, subsequent calls return the same
// *LinkedClass.
type Registry struct {
	mu      sync.Mutex
	classes map[string]*LinkedClass

	appArchive  vmhost.ArchiveReader
	bootArchive vmhost.ArchiveReader
}

// NewRegistry creates a registry over the given application and bootstrap
// archives. Either may be nil (e.g. the bootstrap registry built for unit
// tests that only register() classes directly).
func NewRegistry(appArchive, bootArchive vmhost.ArchiveReader) *Registry {
	return &Registry{
		classes:     make(map[string]*LinkedClass),
		appArchive:  appArchive,
		bootArchive: bootArchive,
	}
}

// Register installs a host-synthesised class, used to pre-seed bootstrap
// classes whose field layout is known only to native code.
func (r *Registry) Register(name string, lc *LinkedClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = lc
}

// Resolve looks up name through, in order: the resolution cache, the
// application archive, the bootstrap archive, the designated root class,
// array-descriptor synthesis, and finally the fixed bootstrap-class list.
// Resolution stops at the first step that produces a class.
func (r *Registry) Resolve(name string) (*LinkedClass, error) {
	if types.IsDescriptorNotClassName(name) {
		return nil, &InvalidClassName{Name: name}
	}

	r.mu.Lock()
	if lc, ok := r.classes[name]; ok {
		r.mu.Unlock()
		return lc, nil
	}
	r.mu.Unlock()

	// step 2/3: application then bootstrap archive
	if data, ok, err := r.readFromArchives(name); err != nil {
		return nil, err
	} else if ok {
		return r.decodeAndLink(name, data)
	}

	// step 4: the designated root class
	if name == RootClassName {
		lc := newLinkedClass(name)
		lc.State = Initialized
		r.Register(name, lc)
		return lc, nil
	}

	// step 5: array classes, no declared fields
	if types.IsArrayDescriptor(name) {
		lc := newLinkedClass(name)
		lc.IsArray = true
		lc.State = Initialized
		root, err := r.Resolve(RootClassName)
		if err == nil {
			lc.Super = root
		}
		r.Register(name, lc)
		return lc, nil
	}

	// step 6: fixed bootstrap classes synthesised with native stubs
	if lc := r.synthesizeBootstrapClass(name); lc != nil {
		r.Register(name, lc)
		return lc, nil
	}

	return nil, &ClassNotFound{Name: name}
}

func (r *Registry) readFromArchives(name string) ([]byte, bool, error) {
	path := name + ".class"
	if r.appArchive != nil {
		if data, ok, err := r.appArchive.ReadEntry(path); err != nil {
			return nil, false, err
		} else if ok {
			return data, true, nil
		}
	}
	if r.bootArchive != nil {
		if data, ok, err := r.bootArchive.ReadEntry(path); err != nil {
			return nil, false, err
		} else if ok {
			return data, true, nil
		}
	}
	return nil, false, nil
}

func (r *Registry) decodeAndLink(name string, data []byte) (*LinkedClass, error) {
	cf, err := classfile.Decode(data)
	if err != nil {
		trace.Error(fmt.Sprintf("decodeAndLink: %s: %v", name, err))
		return nil, err
	}

	var super *LinkedClass
	if superName := cf.SuperclassName(); superName != "" {
		super, err = r.Resolve(superName)
		if err != nil {
			return nil, err
		}
	}

	var ifaces []*LinkedClass
	for _, idx := range cf.Interfaces {
		ifaceName := cf.ClassName(idx)
		iface, err := r.Resolve(ifaceName)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, iface)
	}

	lc := link(cf, super, ifaces)
	r.Register(name, lc)
	trace.Trace("decodeAndLink: linked class " + name)
	return lc, nil
}

// link computes the field-offset table and method table of a decoded
// class, given its (already-linked) superclass and interfaces: copy the
// superclass's field-offset table, then assign the next monotonically
// increasing slot index to each declared non-static field.
func link(cf *classfile.ClassFile, super *LinkedClass, ifaces []*LinkedClass) *LinkedClass {
	lc := newLinkedClass(cf.ClassNameSelf())
	lc.File = cf
	lc.Super = super
	lc.Interfaces = ifaces

	nextSlot := 0
	if super != nil {
		for k, v := range super.fieldOffsets {
			lc.fieldOffsets[k] = v
			lc.fieldDescs[k] = super.fieldDescs[k]
			if v+1 > nextSlot {
				nextSlot = v + 1
			}
		}
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		name := cf.Utf8(f.NameIndex)
		desc := cf.Utf8(f.DescriptorIndex)
		key := name + "|" + desc
		if f.IsStatic() {
			zero := zeroValue(types.FieldType(desc))
			lc.Statics[key] = &zero
			lc.staticDescriptors[key] = desc
			continue
		}
		lc.fieldOffsets[key] = nextSlot
		lc.fieldDescs[key] = desc
		nextSlot++
	}
	lc.slotCount = nextSlot

	for i := range cf.Methods {
		m := &cf.Methods[i]
		name := cf.Utf8(m.NameIndex)
		desc := cf.Utf8(m.DescriptorIndex)
		key := name + "|" + desc
		lc.Methods[key] = &MethodRef{
			Name: name, Descriptor: desc,
			AccessFlags:   m.AccessFlags,
			Native:        m.IsNative(),
			DefiningClass: lc,
			OwnerFile:     cf,
			Info:          m,
		}
	}

	if lc.Methods["<clinit>|()V"] == nil {
		lc.State = Uninitialized
	}
	return lc
}

func zeroValue(k types.Kind) types.Value {
	switch k {
	case types.KLong:
		return types.Long(0)
	case types.KFloat:
		return types.Float(0)
	case types.KDouble:
		return types.Double(0)
	case types.KRef:
		return types.NullRef()
	default:
		return types.Int(0)
	}
}

// MethodAndDescriptorKey builds the "name|descriptor" key used throughout
// this package and the interpreter.
func MethodAndDescriptorKey(name, descriptor string) string { return name + "|" + descriptor }

// FieldKey builds the "name|descriptor" key for field-offset/static lookup.
func FieldKey(name, descriptor string) string { return name + "|" + descriptor }

// StripArrayBrackets trims leading '[' from an array class name, returning
// the element type descriptor, used when NEWARRAY/ANEWARRAY need the
// element's own class for reference-typed arrays.
func StripArrayBrackets(name string) string { return strings.TrimLeft(name, "[") }
