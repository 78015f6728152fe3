/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"unicode/utf16"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// NewJavaString allocates a java/lang/String instance whose backing store
// is a [C array of UTF-16 code units plus a count: string literals
// materialise a char-array-backed instance, not a host Go string wrapper.
func NewJavaString(ctx *Context, s string) (types.Value, error) {
	lc, err := ctx.Registry.Resolve("java/lang/String")
	if err != nil {
		return types.Value{}, err
	}
	units := utf16.Encode([]rune(s))
	arrHandle, arr := ctx.Heap.AllocateArray(len(units), types.KInt)
	for i, u := range units {
		arr.Slots[i] = types.Int(int32(u))
	}

	objHandle, inst := ctx.Heap.AllocateObject(lc, lc.SlotCount())
	inst.SetField(classloader.FieldKey("value", "[C"), types.Ref(arrHandle))
	inst.SetField(classloader.FieldKey("count", "I"), types.Int(int32(len(units))))

	v := types.Ref(objHandle)
	v.StringLiteral = true
	return v, nil
}

// JavaStringValue reads back the Go string held by a java/lang/String
// instance's char array.
func JavaStringValue(ctx *Context, handle int32) string {
	inst := ctx.Heap.Get(handle)
	if inst == nil {
		return ""
	}
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

func loadLangObject(r *Registry) {
	r.register(Key("java/lang/Object", "registerNatives", "()V"), GMeth{GFunction: justReturn})
	r.register(Key("java/lang/Object", "hashCode", "()I"), GMeth{GFunction: objectHashCode})
}

// "java/lang/Object.hashCode()I" -- identity hash is the heap handle
// itself, which is stable for the object's lifetime and unique within one
// VM run.
func objectHashCode(_ *Context, params []types.Value) (types.Value, error) {
	return types.Int(params[0].Ref), nil
}

func loadLangString(r *Registry) {
	r.register(Key("java/lang/String", "<init>", "()V"), GMeth{GFunction: stringInitEmpty})
	r.register(Key("java/lang/String", "<init>", "([C)V"), GMeth{GFunction: stringInitFromChars})
	r.register(Key("java/lang/String", "length", "()I"), GMeth{GFunction: stringLength})
	r.register(Key("java/lang/String", "charAt", "(I)C"), GMeth{GFunction: stringCharAt})
	r.register(Key("java/lang/String", "equals", "(Ljava/lang/Object;)Z"), GMeth{GFunction: stringEquals})
	r.register(Key("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;"), GMeth{GFunction: stringConcat})
}

// "java/lang/String.<init>()V" leaves a freshly allocated instance with an
// empty backing array, mirroring the no-args constructor's observable state.
func stringInitEmpty(ctx *Context, params []types.Value) (types.Value, error) {
	return initStringInstance(ctx, params[0].Ref, nil)
}

// "java/lang/String.<init>([C)V" copies the given char array's contents,
// per the constructor's defined copy-not-alias semantics.
func stringInitFromChars(ctx *Context, params []types.Value) (types.Value, error) {
	srcArr := ctx.Heap.Get(params[1].Ref)
	if srcArr == nil {
		return initStringInstance(ctx, params[0].Ref, nil)
	}
	units := make([]uint16, len(srcArr.Slots))
	for i, v := range srcArr.Slots {
		units[i] = uint16(v.I)
	}
	return initStringInstance(ctx, params[0].Ref, units)
}

func initStringInstance(ctx *Context, selfHandle int32, units []uint16) (types.Value, error) {
	inst := ctx.Heap.Get(selfHandle)
	if inst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "String.<init> on null receiver"}
	}
	arrHandle, arr := ctx.Heap.AllocateArray(len(units), types.KInt)
	for i, u := range units {
		arr.Slots[i] = types.Int(int32(u))
	}
	inst.SetField(classloader.FieldKey("value", "[C"), types.Ref(arrHandle))
	inst.SetField(classloader.FieldKey("count", "I"), types.Int(int32(len(units))))
	return types.Value{}, nil
}

func stringLength(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Int(0), nil
	}
	v, _ := inst.GetField(classloader.FieldKey("count", "I"))
	return v, nil
}

func stringCharAt(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	idx := params[1].I
	arrV, _ := inst.GetField(classloader.FieldKey("value", "[C"))
	arr := ctx.Heap.Get(arrV.Ref)
	if arr == nil || idx < 0 || int(idx) >= len(arr.Slots) {
		return types.Int(0), &UnsatisfiedLinkError{Key: "charAt index out of range"}
	}
	return arr.Slots[idx], nil
}

func stringEquals(ctx *Context, params []types.Value) (types.Value, error) {
	other := params[1]
	if other.IsNull() {
		return types.Bool(false), nil
	}
	a := JavaStringValue(ctx, params[0].Ref)
	b := JavaStringValue(ctx, other.Ref)
	return types.Bool(a == b), nil
}

func stringConcat(ctx *Context, params []types.Value) (types.Value, error) {
	a := JavaStringValue(ctx, params[0].Ref)
	b := JavaStringValue(ctx, params[1].Ref)
	return NewJavaString(ctx, a+b)
}
