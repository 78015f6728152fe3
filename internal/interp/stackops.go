/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import "github.com/jacobin-style/cldcvm/internal/frame"

// execStackOp handles POP/POP2/DUP family/SWAP, treating category-2 values
// as occupying two computational slots.
func (vm *Interpreter) execStackOp(f *frame.Frame, op byte) error {
	switch op {
	case opPop:
		f.Pop()
	case opPop2:
		v1 := f.Pop()
		if v1.Category() == 1 {
			f.Pop()
		}
	case opDup:
		v := f.Pop()
		f.Push(v)
		f.Push(v)
	case opDupX1:
		v1 := f.Pop()
		v2 := f.Pop()
		f.Push(v1)
		f.Push(v2)
		f.Push(v1)
	case opDupX2:
		v1 := f.Pop()
		v2 := f.Pop()
		if v2.Category() == 2 {
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else {
			v3 := f.Pop()
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		}
	case opDup2:
		v1 := f.Pop()
		if v1.Category() == 2 {
			f.Push(v1)
			f.Push(v1)
		} else {
			v2 := f.Pop()
			f.Push(v2)
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		}
	case opDup2X1:
		v1 := f.Pop()
		if v1.Category() == 2 {
			v2 := f.Pop()
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else {
			v2 := f.Pop()
			v3 := f.Pop()
			f.Push(v2)
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		}
	case opDup2X2:
		v1 := f.Pop()
		v2 := f.Pop()
		if v1.Category() == 2 && v2.Category() == 2 {
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else if v1.Category() == 1 && v2.Category() == 1 {
			v3 := f.Pop()
			if v3.Category() == 2 {
				f.Push(v2)
				f.Push(v1)
				f.Push(v3)
				f.Push(v2)
				f.Push(v1)
			} else {
				v4 := f.Pop()
				f.Push(v2)
				f.Push(v1)
				f.Push(v4)
				f.Push(v3)
				f.Push(v2)
				f.Push(v1)
			}
		} else {
			// v1 category 2, v2 category 1: form2 dup2_x2
			v3 := f.Pop()
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		}
	case opSwap:
		v1 := f.Pop()
		v2 := f.Pop()
		f.Push(v1)
		f.Push(v2)
	}
	return nil
}
