/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execIndexedLoad handles ILOAD/LLOAD/FLOAD/DLOAD/ALOAD with an explicit
// 1-byte local index.
func (vm *Interpreter) execIndexedLoad(f *frame.Frame, op byte) error {
	idx := int(f.Code[f.PC])
	f.PC++
	f.Push(f.Locals[idx])
	return nil
}

// execIndexedStore handles ISTORE/LSTORE/FSTORE/DSTORE/ASTORE.
func (vm *Interpreter) execIndexedStore(f *frame.Frame, op byte) error {
	idx := int(f.Code[f.PC])
	f.PC++
	f.Locals[idx] = f.Pop()
	return nil
}

// execImplicitLoad handles the *LOAD_0..*LOAD_3 family (0x1A-0x2D), whose
// local index is embedded in the opcode.
func (vm *Interpreter) execImplicitLoad(f *frame.Frame, op byte) error {
	switch {
	case op >= opILoad0 && op <= opILoad3:
		f.Push(f.Locals[int(op-opILoad0)])
	case op >= opLLoad0 && op <= opLLoad3:
		f.Push(f.Locals[int(op-opLLoad0)])
	case op >= opFLoad0 && op <= opFLoad3:
		f.Push(f.Locals[int(op-opFLoad0)])
	case op >= opDLoad0 && op <= opDLoad3:
		f.Push(f.Locals[int(op-opDLoad0)])
	case op >= opALoad0 && op <= opALoad3:
		f.Push(f.Locals[int(op-opALoad0)])
	}
	return nil
}

// execImplicitStore handles the *STORE_0..*STORE_3 family (0x3B-0x4E).
func (vm *Interpreter) execImplicitStore(f *frame.Frame, op byte) error {
	switch {
	case op >= opIStore0 && op <= opIStore3:
		f.Locals[int(op-opIStore0)] = f.Pop()
	case op >= opLStore0 && op <= opLStore3:
		f.Locals[int(op-opLStore0)] = f.Pop()
	case op >= opFStore0 && op <= opFStore3:
		f.Locals[int(op-opFStore0)] = f.Pop()
	case op >= opDStore0 && op <= opDStore3:
		f.Locals[int(op-opDStore0)] = f.Pop()
	case op >= opAStore0 && op <= opAStore3:
		f.Locals[int(op-opAStore0)] = f.Pop()
	}
	return nil
}

// execArrayLoad handles IALOAD/LALOAD/FALOAD/DALOAD/AALOAD/BALOAD/CALOAD/
// SALOAD: bounds-checked element read with sign/zero extension by element
// kind.
func (vm *Interpreter) execArrayLoad(t *vmthread.Thread, f *frame.Frame, op byte) error {
	idx := f.Pop().I
	arrRef := f.Pop()
	if arrRef.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "array load on null")
	}
	arr := vm.Heap.Get(arrRef.Ref)
	if arr == nil || idx < 0 || int(idx) >= len(arr.Slots) {
		return vm.throwNew(t, f, arrayIndexOutOfBoundsException, "array index out of range")
	}
	v := arr.Slots[idx]
	switch op {
	case opBALoad:
		f.Push(types.Int(int32(int8(v.I))))
	case opCALoad:
		f.Push(types.Int(int32(uint16(v.I))))
	case opSALoad:
		f.Push(types.Int(int32(int16(v.I))))
	default:
		f.Push(v)
	}
	return nil
}

// execArrayStore handles IASTORE/LASTORE/FASTORE/DASTORE/AASTORE/BASTORE/
// CASTORE/SASTORE.
func (vm *Interpreter) execArrayStore(t *vmthread.Thread, f *frame.Frame, op byte) error {
	value := f.Pop()
	idx := f.Pop().I
	arrRef := f.Pop()
	if arrRef.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "array store on null")
	}
	arr := vm.Heap.Get(arrRef.Ref)
	if arr == nil || idx < 0 || int(idx) >= len(arr.Slots) {
		return vm.throwNew(t, f, arrayIndexOutOfBoundsException, "array index out of range")
	}
	switch op {
	case opBAStore:
		arr.Slots[idx] = types.Int(int32(int8(value.I)))
	case opCAStore:
		arr.Slots[idx] = types.Int(int32(uint16(value.I)))
	case opSAStore:
		arr.Slots[idx] = types.Int(int32(int16(value.I)))
	default:
		arr.Slots[idx] = value
	}
	return nil
}

func (vm *Interpreter) execArrayLength(t *vmthread.Thread, f *frame.Frame) error {
	arrRef := f.Pop()
	if arrRef.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "arraylength on null")
	}
	arr := vm.Heap.Get(arrRef.Ref)
	if arr == nil {
		return vm.throwNew(t, f, nullPointerException, "arraylength on null")
	}
	f.Push(types.Int(int32(arr.Length())))
	return nil
}
