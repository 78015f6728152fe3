/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader is the class registry and linker: it resolves a
// class name to a linked class object by driving the
// classfile decoder and assigning field slots, caches results, and
// synthesises mock classes for entries not present in any archive.
//
// Grounded on artipop-jacobin's Classloader/Klass/ClData split
// (classloader.go): a lightweight status record backing a heavier,
// lazily-populated data record, with a JVM-wide method area cache keyed
// by class name.
package classloader

import (
	"sync"

	"github.com/jacobin-style/cldcvm/internal/classfile"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// InitState is a linked class's initialisation state.
type InitState int

const (
	Uninitialized InitState = iota
	Initializing
	Initialized
	Erroneous
)

// MethodRef is a linked, directly-callable method: either backed by a real
// decoded method (OwnerFile/Info set, Code demand-parsed through
// OwnerFile.ParseCode) or a native stub synthesised for a bootstrap class
// (Native true, OwnerFile nil).
type MethodRef struct {
	Name            string
	Descriptor      string
	AccessFlags     uint16
	Native          bool
	DefiningClass   *LinkedClass
	OwnerFile       *classfile.ClassFile
	Info            *classfile.MethodInfo
}

func (m *MethodRef) IsStatic() bool { return m.AccessFlags&0x0008 != 0 }

// Code returns the method's parsed bytecode body, or nil for a native or
// abstract method.
func (m *MethodRef) Code() (*classfile.CodeAttribute, error) {
	if m.Native || m.OwnerFile == nil || m.Info == nil {
		return nil, nil
	}
	return m.OwnerFile.ParseCode(m.Info)
}

// LinkedClass binds a decoded class file to runtime linking data. It
// implements object.Class.
type LinkedClass struct {
	Name       string
	File       *classfile.ClassFile // nil for synthesised mock/array/bootstrap classes
	Super      *LinkedClass
	Interfaces []*LinkedClass
	IsArray    bool

	fieldOffsets map[string]int // "name|descriptor" -> slot index
	fieldDescs   map[string]string
	slotCount    int

	mu                sync.Mutex
	Statics           map[string]*types.Value
	staticDescriptors map[string]string
	State             InitState
	InitThread        int64

	Methods map[string]*MethodRef // "name|descriptor" -> method

	// virtualCache memoises virtual/interface dispatch for this class:
	// (name|descriptor) -> resolved method on this exact runtime class,
	// validated by re-walking the chain before reuse.
	virtualCache map[string]*MethodRef
}

func newLinkedClass(name string) *LinkedClass {
	return &LinkedClass{
		Name:              name,
		fieldOffsets:      make(map[string]int),
		fieldDescs:        make(map[string]string),
		Statics:           make(map[string]*types.Value),
		staticDescriptors: make(map[string]string),
		Methods:           make(map[string]*MethodRef),
		virtualCache:      make(map[string]*MethodRef),
	}
}

// object.Class implementation -------------------------------------------

func (l *LinkedClass) ClassName() string { return l.Name }
func (l *LinkedClass) SlotCount() int    { return l.slotCount }
func (l *LinkedClass) FieldOffset(key string) (int, bool) {
	idx, ok := l.fieldOffsets[key]
	return idx, ok
}

// FieldDescriptor returns the descriptor recorded for the instance field
// keyed "name|descriptor". Static fields are not covered; they live in
// Statics.
func (l *LinkedClass) FieldDescriptor(key string) (string, bool) {
	d, ok := l.fieldDescs[key]
	return d, ok
}

// IsAssignableFrom reports whether sub is l or a (transitive) subclass /
// implementor of l -- the walk backing INSTANCEOF, CHECKCAST, and
// exception-handler catch-type matching.
func (l *LinkedClass) IsAssignableFrom(sub *LinkedClass) bool {
	return IsAssignable(sub, l)
}

// IsAssignable recurses superclass + each interface; java/lang/Object is
// an ancestor of every non-null reference.
func IsAssignable(sub, target *LinkedClass) bool {
	if sub == nil || target == nil {
		return false
	}
	if target.Name == "java/lang/Object" {
		return true
	}
	for c := sub; c != nil; c = c.Super {
		if c.Name == target.Name {
			return true
		}
		for _, iface := range c.Interfaces {
			if IsAssignable(iface, target) {
				return true
			}
		}
	}
	return false
}

// FindMethod walks the superclass chain looking for name|descriptor,
// returning the defining class's MethodRef. Used by virtual/interface
// dispatch; interfaces do not change dispatch here.
func (l *LinkedClass) FindMethod(nameAndDescriptor string) *MethodRef {
	for c := l; c != nil; c = c.Super {
		if m, ok := c.Methods[nameAndDescriptor]; ok {
			return m
		}
	}
	return nil
}

// CachedVirtualMethod returns the memoised name|descriptor -> method
// binding for this runtime class, validated by
// confirming the cached defining class is still an ancestor.
func (l *LinkedClass) CachedVirtualMethod(key string) *MethodRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.virtualCache[key]
	if !ok {
		return nil
	}
	if !IsAssignable(l, m.DefiningClass) {
		delete(l.virtualCache, key)
		return nil
	}
	return m
}

func (l *LinkedClass) CacheVirtualMethod(key string, m *MethodRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.virtualCache[key] = m
}
