/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execCheckCast handles CHECKCAST: null casts to anything cleanly; a
// non-null reference that is not assignable to the target raises
// ClassCastException. The reference is left on the stack either way.
func (vm *Interpreter) execCheckCast(t *vmthread.Thread, f *frame.Frame) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	ref := f.Peek()
	if ref.IsNull() {
		return nil
	}
	className := f.File.ClassName(idx)
	target, err := vm.Registry.Resolve(className)
	if err != nil {
		return err
	}
	inst := vm.Heap.Get(ref.Ref)
	if inst == nil || inst.Klass == nil {
		return nil
	}
	runtime, ok := inst.Klass.(*classloader.LinkedClass)
	if !ok || !classloader.IsAssignable(runtime, target) {
		return vm.throwNew(t, f, classCastException, "cannot cast to "+className)
	}
	return nil
}

// execInstanceOf handles INSTANCEOF: pushes 0 for null, otherwise 1 or 0
// depending on assignability, never throwing.
func (vm *Interpreter) execInstanceOf(t *vmthread.Thread, f *frame.Frame) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	ref := f.Pop()
	if ref.IsNull() {
		f.Push(types.Int(0))
		return nil
	}
	className := f.File.ClassName(idx)
	target, err := vm.Registry.Resolve(className)
	if err != nil {
		return err
	}
	inst := vm.Heap.Get(ref.Ref)
	if inst == nil || inst.Klass == nil {
		f.Push(types.Int(0))
		return nil
	}
	runtime, ok := inst.Klass.(*classloader.LinkedClass)
	if !ok {
		f.Push(types.Int(0))
		return nil
	}
	f.Push(types.Bool(classloader.IsAssignable(runtime, target)))
	return nil
}
