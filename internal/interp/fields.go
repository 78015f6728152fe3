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

// execStaticField handles GETSTATIC/PUTSTATIC: both resolve the owning
// class and drive its initialisation detour first. When
// the detour pushes a <clinit> frame, this instruction must re-run once
// that frame returns, so the pc is rewound to start and the outer loop
// simply re-enters with the new top frame.
func (vm *Interpreter) execStaticField(t *vmthread.Thread, f *frame.Frame, op byte, start int) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	className, fieldName, descriptor := f.File.FieldRef(idx)

	lc, pushed, err := vm.resolveClassForInit(t, className)
	if err != nil {
		return err
	}
	if pushed {
		f.PC = start
		return nil
	}

	key := classloader.FieldKey(fieldName, descriptor)
	owner := lc
	for owner != nil {
		if _, ok := owner.Statics[key]; ok {
			break
		}
		owner = owner.Super
	}
	if owner == nil {
		owner = lc
	}

	if op == opGetStatic {
		v, ok := owner.Statics[key]
		if !ok {
			zero := zeroForDescriptor(descriptor)
			owner.Statics[key] = &zero
			v = owner.Statics[key]
		}
		f.Push(*v)
		return nil
	}

	val := f.Pop()
	owner.Statics[key] = &val
	return nil
}

func zeroForDescriptor(descriptor string) types.Value {
	switch types.FieldType(descriptor) {
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

// execInstanceField handles GETFIELD/PUTFIELD: null-checks the receiver,
// then reads/writes the typed Value directly through the instance's
// field-offset table (no raw-slot bit-punning needed since Instance already
// stores tagged Values).
func (vm *Interpreter) execInstanceField(t *vmthread.Thread, f *frame.Frame, op byte) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	_, fieldName, descriptor := f.File.FieldRef(idx)
	key := classloader.FieldKey(fieldName, descriptor)

	if op == opGetField {
		ref := f.Pop()
		if ref.IsNull() {
			return vm.throwNew(t, f, nullPointerException, "getfield on null")
		}
		inst := vm.Heap.Get(ref.Ref)
		if inst == nil {
			return vm.throwNew(t, f, nullPointerException, "getfield on null")
		}
		v, ok := inst.GetField(key)
		if !ok {
			v = zeroForDescriptor(descriptor)
		}
		f.Push(v)
		return nil
	}

	val := f.Pop()
	ref := f.Pop()
	if ref.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "putfield on null")
	}
	inst := vm.Heap.Get(ref.Ref)
	if inst == nil {
		return vm.throwNew(t, f, nullPointerException, "putfield on null")
	}
	inst.SetField(key, val)
	return nil
}
