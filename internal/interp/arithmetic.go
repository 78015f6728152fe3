/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"math"

	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execArithmetic handles IADD..LXOR: integer and long
// add/sub/mul/div/rem/neg/shifts/bitwise ops, and float/double
// add/sub/mul/div/rem/neg. Division by zero on the integer family raises
// ArithmeticException; shift counts are masked to 5 bits for int, 6 for
// long; IUSHR/LUSHR are unsigned shifts.
func (vm *Interpreter) execArithmetic(t *vmthread.Thread, f *frame.Frame, op byte) error {
	switch op {
	case opIAdd:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a + b))
	case opLAdd:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a + b))
	case opFAdd:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Float(a + b))
	case opDAdd:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Double(a + b))
	case opISub:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a - b))
	case opLSub:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a - b))
	case opFSub:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Float(a - b))
	case opDSub:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Double(a - b))
	case opIMul:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a * b))
	case opLMul:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a * b))
	case opFMul:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Float(a * b))
	case opDMul:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Double(a * b))
	case opIDiv:
		b, a := f.Pop().I, f.Pop().I
		if b == 0 {
			return vm.throwNew(t, f, arithmeticException, "/ by zero")
		}
		f.Push(types.Int(a / b))
	case opLDiv:
		b, a := f.Pop().L, f.Pop().L
		if b == 0 {
			return vm.throwNew(t, f, arithmeticException, "/ by zero")
		}
		f.Push(types.Long(a / b))
	case opFDiv:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Float(a / b))
	case opDDiv:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Double(a / b))
	case opIRem:
		b, a := f.Pop().I, f.Pop().I
		if b == 0 {
			return vm.throwNew(t, f, arithmeticException, "/ by zero")
		}
		f.Push(types.Int(a % b))
	case opLRem:
		b, a := f.Pop().L, f.Pop().L
		if b == 0 {
			return vm.throwNew(t, f, arithmeticException, "/ by zero")
		}
		f.Push(types.Long(a % b))
	case opFRem:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Float(float32(math.Mod(float64(a), float64(b)))))
	case opDRem:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Double(math.Mod(a, b)))
	case opINeg:
		f.Push(types.Int(-f.Pop().I))
	case opLNeg:
		f.Push(types.Long(-f.Pop().L))
	case opFNeg:
		f.Push(types.Float(-f.Pop().F))
	case opDNeg:
		f.Push(types.Double(-f.Pop().D))
	case opIShl:
		s, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a << (uint32(s) & 0x1F)))
	case opLShl:
		s, a := f.Pop().I, f.Pop().L
		f.Push(types.Long(a << (uint32(s) & 0x3F)))
	case opIShr:
		s, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a >> (uint32(s) & 0x1F)))
	case opLShr:
		s, a := f.Pop().I, f.Pop().L
		f.Push(types.Long(a >> (uint32(s) & 0x3F)))
	case opIUshr:
		s, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(int32(uint32(a) >> (uint32(s) & 0x1F))))
	case opLUshr:
		s, a := f.Pop().I, f.Pop().L
		f.Push(types.Long(int64(uint64(a) >> (uint32(s) & 0x3F))))
	case opIAnd:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a & b))
	case opLAnd:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a & b))
	case opIOr:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a | b))
	case opLOr:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a | b))
	case opIXor:
		b, a := f.Pop().I, f.Pop().I
		f.Push(types.Int(a ^ b))
	case opLXor:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Long(a ^ b))
	}
	return nil
}

// execIInc increments a local int variable in place by a signed byte
// immediate, without touching the operand stack.
func (vm *Interpreter) execIInc(f *frame.Frame) error {
	idx := int(f.Code[f.PC])
	f.PC++
	delta := int8(f.Code[f.PC])
	f.PC++
	f.Locals[idx] = types.Int(f.Locals[idx].I + int32(delta))
	return nil
}

// execConversion handles I2L..I2S: widening is value-preserving, narrowing
// truncates, float/double-to-int rounds toward zero.
func (vm *Interpreter) execConversion(f *frame.Frame, op byte) error {
	switch op {
	case opI2L:
		f.Push(types.Long(int64(f.Pop().I)))
	case opI2F:
		f.Push(types.Float(float32(f.Pop().I)))
	case opI2D:
		f.Push(types.Double(float64(f.Pop().I)))
	case opL2I:
		f.Push(types.Int(int32(f.Pop().L)))
	case opL2F:
		f.Push(types.Float(float32(f.Pop().L)))
	case opL2D:
		f.Push(types.Double(float64(f.Pop().L)))
	case opF2I:
		f.Push(types.Int(truncToInt32(float64(f.Pop().F))))
	case opF2L:
		f.Push(types.Long(truncToInt64(float64(f.Pop().F))))
	case opF2D:
		f.Push(types.Double(float64(f.Pop().F)))
	case opD2I:
		f.Push(types.Int(truncToInt32(f.Pop().D)))
	case opD2L:
		f.Push(types.Long(truncToInt64(f.Pop().D)))
	case opD2F:
		f.Push(types.Float(float32(f.Pop().D)))
	case opI2B:
		f.Push(types.Int(int32(int8(f.Pop().I))))
	case opI2C:
		f.Push(types.Int(int32(uint16(f.Pop().I))))
	case opI2S:
		f.Push(types.Int(int32(int16(f.Pop().I))))
	}
	return nil
}

func truncToInt32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

func truncToInt64(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}

// execCompare handles LCMP/FCMPL/FCMPG/DCMPL/DCMPG: LCMP returns -1/0/+1;
// the float/double variants differ only in which value (-1 or +1) a NaN
// operand produces.
func (vm *Interpreter) execCompare(f *frame.Frame, op byte) error {
	switch op {
	case opLCmp:
		b, a := f.Pop().L, f.Pop().L
		f.Push(types.Int(compareInt64(a, b)))
	case opFCmpL, opFCmpG:
		b, a := f.Pop().F, f.Pop().F
		f.Push(types.Int(compareFloat(float64(a), float64(b), op == opFCmpG)))
	case opDCmpL, opDCmpG:
		b, a := f.Pop().D, f.Pop().D
		f.Push(types.Int(compareFloat(a, b, op == opDCmpG)))
	}
	return nil
}

func compareInt64(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64, nanIsPositive bool) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsPositive {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
