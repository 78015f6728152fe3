/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object is the heap: object/array allocation with fixed-width
// slot storage, addressed by opaque integer handles rather than the
// teacher's raw pointers, so the heap can be inspected and moved without
// chasing live Go pointers. The core performs no reclamation between
// invocations.
package object

import (
	"io"
	"sync"

	"github.com/jacobin-style/cldcvm/internal/types"
)

// Class is the minimal view of a linked class the heap needs; the
// classloader's LinkedClass implements it, so object never imports the
// classloader package.
type Class interface {
	ClassName() string
	SlotCount() int
	FieldOffset(nameAndDescriptor string) (int, bool)
}

// Instance is a heap object or array. Arrays have a nil Klass and store
// their elements directly in Slots; objects have a non-nil Klass and index
// Slots through the class's field-offset table.
type Instance struct {
	Klass Class
	Slots []types.Value

	// ElementKind is set only for arrays, recording the element Kind the
	// slots were zero-initialised with (byte, char, short and boolean
	// arrays all record KInt).
	ElementKind types.Kind
	IsArray     bool
}

// Length reports the number of elements for an array instance, or the slot
// count for an object instance.
func (o *Instance) Length() int { return len(o.Slots) }

// GetField reads the field keyed by "name|descriptor" via the class's
// offset table. Returns the zero Value and false if the class declares no
// such field.
func (o *Instance) GetField(key string) (types.Value, bool) {
	if o.Klass == nil {
		return types.Value{}, false
	}
	idx, ok := o.Klass.FieldOffset(key)
	if !ok || idx < 0 || idx >= len(o.Slots) {
		return types.Value{}, false
	}
	return o.Slots[idx], true
}

// SetField writes the field keyed by "name|descriptor".
func (o *Instance) SetField(key string, v types.Value) bool {
	if o.Klass == nil {
		return false
	}
	idx, ok := o.Klass.FieldOffset(key)
	if !ok || idx < 0 || idx >= len(o.Slots) {
		return false
	}
	o.Slots[idx] = v
	return true
}

// Heap owns every live object/array instance and native stream handle for
// the VM's lifetime. The core never reclaims between invocations; the host
// may clear the heap wholesale at shutdown.
type Heap struct {
	mu      sync.Mutex
	objects []*Instance // 1-indexed; index 0 is reserved for "null"

	streams       map[int32]io.Reader
	nextStreamID  int32
}

// NewHeap creates an empty heap with handle 0 reserved for null.
func NewHeap() *Heap {
	return &Heap{
		objects: make([]*Instance, 1, 64),
		streams: make(map[int32]io.Reader),
	}
}

// AllocateObject allocates an instance bound to klass with slotCount
// zero-initialised slots, returning a stable handle.
func (h *Heap) AllocateObject(klass Class, slotCount int) (int32, *Instance) {
	inst := &Instance{Klass: klass, Slots: make([]types.Value, slotCount)}
	return h.insert(inst), inst
}

// AllocateArray allocates an array of length elements of the given
// primitive/reference kind, zero-initialised.
func (h *Heap) AllocateArray(length int, elemKind types.Kind) (int32, *Instance) {
	slots := make([]types.Value, length)
	zero := zeroOf(elemKind)
	for i := range slots {
		slots[i] = zero
	}
	inst := &Instance{Slots: slots, ElementKind: elemKind, IsArray: true}
	return h.insert(inst), inst
}

func zeroOf(k types.Kind) types.Value {
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

func (h *Heap) insert(inst *Instance) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects = append(h.objects, inst)
	return int32(len(h.objects) - 1)
}

// Get dereferences a handle. Returns nil for the null handle or an unknown
// handle.
func (h *Heap) Get(handle int32) *Instance {
	if handle <= 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(handle) >= len(h.objects) {
		return nil
	}
	return h.objects[handle]
}

// AllocateStream vends a monotonic positive stream id for a native-managed
// byte-stream reader; ids are never reused within a VM lifetime.
func (h *Heap) AllocateStream(r io.Reader) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextStreamID++
	id := h.nextStreamID
	h.streams[id] = r
	return id
}

// GetStream returns the stream reader for id, or nil if absent/removed.
func (h *Heap) GetStream(id int32) io.Reader {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.streams[id]
}

// RemoveStream detaches the stream at id.
func (h *Heap) RemoveStream(id int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.streams, id)
}
