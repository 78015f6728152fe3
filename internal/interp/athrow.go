/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"fmt"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execAThrow handles ATHROW: throwing a null reference itself raises
// NullPointerException.
func (vm *Interpreter) execAThrow(t *vmthread.Thread, f *frame.Frame) error {
	ref := f.Pop()
	if ref.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "throw null")
	}
	inst := vm.Heap.Get(ref.Ref)
	if inst == nil || inst.Klass == nil {
		return vm.throwNew(t, f, nullPointerException, "throw null")
	}
	excClass, ok := inst.Klass.(*classloader.LinkedClass)
	if !ok {
		return fmt.Errorf("thrown object is not a linked class instance")
	}
	return vm.unwind(t, f, ref.Ref, excClass)
}
