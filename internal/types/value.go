/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types defines the tagged value representation shared by the
// frame, object and interpreter packages, plus the JVM descriptor grammar
// used to size method arguments and field slots.
package types

// Kind tags a Value with its computational category.
type Kind uint8

const (
	KInt Kind = iota
	KLong
	KFloat
	KDouble
	KRef
)

// Null is the reference handle value meaning "no object".
const Null int32 = 0

// Value is a tagged 64-bit-ish slot. Only the field matching Kind is
// meaningful; the rest are zero. References are heap handles (see
// internal/object.Heap), not raw pointers, per the spec's "raw-pointer
// interior" design note.
type Value struct {
	Kind Kind
	I    int32
	L    int64
	F    float32
	D    float64
	Ref  int32

	// StringLiteral marks a reference value produced by
	// gfunction.NewJavaString: LDC string constants and every string a
	// native builds. No code in this module interns strings by it.
	StringLiteral bool
}

// Category returns 1 or 2: long and double are category-2 values and
// occupy two local-variable slots (one stack slot, with a width tag).
func (v Value) Category() int {
	if v.Kind == KLong || v.Kind == KDouble {
		return 2
	}
	return 1
}

func Int(i int32) Value     { return Value{Kind: KInt, I: i} }
func Long(l int64) Value    { return Value{Kind: KLong, L: l} }
func Float(f float32) Value { return Value{Kind: KFloat, F: f} }
func Double(d float64) Value { return Value{Kind: KDouble, D: d} }
func Ref(handle int32) Value { return Value{Kind: KRef, Ref: handle} }
func NullRef() Value         { return Value{Kind: KRef, Ref: Null} }
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// IsNull reports whether this is a null reference.
func (v Value) IsNull() bool { return v.Kind == KRef && v.Ref == Null }

// AsSlot reinterprets a Value into a raw 64-bit slot encoding (fields,
// locals and array elements themselves hold tagged Values): floats are bit-punned
// into the low 32 bits, doubles occupy the full 64 bits, references carry
// their handle, and everything else is sign/zero extended as documented at
// the call site.
func (v Value) AsSlot() uint64 {
	switch v.Kind {
	case KInt:
		return uint64(uint32(v.I))
	case KLong:
		return uint64(v.L)
	case KFloat:
		return uint64(Float32bits(v.F))
	case KDouble:
		return Float64bits(v.D)
	case KRef:
		return uint64(uint32(v.Ref))
	}
	return 0
}
