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

// execNew handles NEW: resolve and initialise the named class, then
// allocate zero-filled storage for it. A <clinit> detour rewinds pc to the
// instruction start exactly like GETSTATIC/INVOKESTATIC.
func (vm *Interpreter) execNew(t *vmthread.Thread, f *frame.Frame, start int) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	className := f.File.ClassName(idx)

	lc, pushed, err := vm.resolveClassForInit(t, className)
	if err != nil {
		return err
	}
	if pushed {
		f.PC = start
		return nil
	}
	handle := vm.newInstance(lc)
	f.Push(types.Ref(handle))
	return nil
}

// execNewArray handles NEWARRAY: a single-dimension primitive array sized
// by a popped count, negative counts raising NegativeArraySizeException.
func (vm *Interpreter) execNewArray(t *vmthread.Thread, f *frame.Frame) error {
	atype := f.Code[f.PC]
	f.PC++
	count := f.Pop().I
	if count < 0 {
		return vm.throwNew(t, f, negativeArraySizeException, "")
	}
	handle, _ := vm.Heap.AllocateArray(int(count), kindForAtype(atype))
	f.Push(types.Ref(handle))
	return nil
}

func kindForAtype(atype byte) types.Kind {
	switch atype {
	case aFloat:
		return types.KFloat
	case aDouble:
		return types.KDouble
	case aLong:
		return types.KLong
	default: // boolean, char, byte, short: stored widened to int
		return types.KInt
	}
}

// execANewArray handles ANEWARRAY: a single-dimension reference-typed
// array. The element class name from the constant pool is only used to
// size the instruction; elements themselves carry their own runtime class
// through their Ref value, so no per-array element-class record is kept.
func (vm *Interpreter) execANewArray(t *vmthread.Thread, f *frame.Frame) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	_ = f.File.ClassName(idx)
	count := f.Pop().I
	if count < 0 {
		return vm.throwNew(t, f, negativeArraySizeException, "")
	}
	handle, _ := vm.Heap.AllocateArray(int(count), types.KRef)
	f.Push(types.Ref(handle))
	return nil
}

// execMultiANewArray handles MULTIANEWARRAY: dims dimension counts are
// popped (outermost first on the stack, so popped last), then the nested
// arrays are built recursively, outermost dimension first.
func (vm *Interpreter) execMultiANewArray(t *vmthread.Thread, f *frame.Frame) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	dims := int(f.Code[f.PC])
	f.PC++
	className := f.File.ClassName(idx)

	sizes := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		sizes[i] = f.Pop().I
	}
	for _, n := range sizes {
		if n < 0 {
			return vm.throwNew(t, f, negativeArraySizeException, "")
		}
	}

	elemDescriptor := stripLeadingBrackets(className)
	handle := vm.buildMultiArray(sizes, elemDescriptor)
	f.Push(types.Ref(handle))
	return nil
}

func stripLeadingBrackets(name string) string {
	i := 0
	for i < len(name) && name[i] == '[' {
		i++
	}
	return name[i:]
}

func (vm *Interpreter) buildMultiArray(sizes []int32, elemDescriptor string) int32 {
	n := int(sizes[0])
	if len(sizes) == 1 {
		handle, _ := vm.Heap.AllocateArray(n, types.FieldType(elemDescriptor))
		return handle
	}
	handle, arr := vm.Heap.AllocateArray(n, types.KRef)
	for i := 0; i < n; i++ {
		sub := vm.buildMultiArray(sizes[1:], elemDescriptor)
		arr.Slots[i] = types.Ref(sub)
	}
	return handle
}
