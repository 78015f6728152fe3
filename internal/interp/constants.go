/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"fmt"

	"github.com/jacobin-style/cldcvm/internal/classfile"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/gfunction"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execConstants handles the fixed-immediate push opcodes 0x01-0x0F.
func (vm *Interpreter) execConstants(f *frame.Frame, op byte) error {
	switch op {
	case opAConstNull:
		f.Push(types.NullRef())
	case opIConstM1:
		f.Push(types.Int(-1))
	case opIConst0:
		f.Push(types.Int(0))
	case opIConst1:
		f.Push(types.Int(1))
	case opIConst2:
		f.Push(types.Int(2))
	case opIConst3:
		f.Push(types.Int(3))
	case opIConst4:
		f.Push(types.Int(4))
	case opIConst5:
		f.Push(types.Int(5))
	case opLConst0:
		f.Push(types.Long(0))
	case opLConst1:
		f.Push(types.Long(1))
	case opFConst0:
		f.Push(types.Float(0))
	case opFConst1:
		f.Push(types.Float(1))
	case opFConst2:
		f.Push(types.Float(2))
	case opDConst0:
		f.Push(types.Double(0))
	case opDConst1:
		f.Push(types.Double(1))
	}
	return nil
}

// execLoadConstants handles BIPUSH/SIPUSH/LDC/LDC_W/LDC2_W.
func (vm *Interpreter) execLoadConstants(t *vmthread.Thread, f *frame.Frame, op byte) error {
	switch op {
	case opBipush:
		b := int8(f.Code[f.PC])
		f.PC++
		f.Push(types.Int(int32(b)))
		return nil
	case opSipush:
		v := s2At(f.Code, f.PC)
		f.PC += 2
		f.Push(types.Int(int32(v)))
		return nil
	case opLdc:
		idx := int(f.Code[f.PC])
		f.PC++
		return vm.pushConstant(t, f, uint16(idx))
	case opLdcW:
		idx := u2At(f.Code, f.PC)
		f.PC += 2
		return vm.pushConstant(t, f, uint16(idx))
	case opLdc2W:
		idx := u2At(f.Code, f.PC)
		f.PC += 2
		return vm.pushConstant(t, f, uint16(idx))
	}
	return nil
}

// pushConstant materialises the constant-pool entry at idx onto f's
// operand stack. String constants allocate a java/lang/String instance
// backed by a freshly-allocated 16-bit code-unit array rather than a host
// Go string wrapper.
func (vm *Interpreter) pushConstant(t *vmthread.Thread, f *frame.Frame, idx uint16) error {
	if int(idx) <= 0 || int(idx) >= len(f.File.ConstantPool) {
		return errBadConstantIndex(f, idx)
	}
	entry := f.File.ConstantPool[idx]
	switch entry.Tag {
	case classfile.CPInteger:
		f.Push(types.Int(entry.IntVal))
	case classfile.CPFloat:
		f.Push(types.Float(entry.FloatVal))
	case classfile.CPLong:
		f.Push(types.Long(entry.LongVal))
	case classfile.CPDouble:
		f.Push(types.Double(entry.DoubleVal))
	case classfile.CPString:
		s := decodeModifiedUTF8([]byte(f.File.Utf8(entry.StringIndex)))
		v, err := gfunction.NewJavaString(vm.nativeContext(t), s)
		if err != nil {
			return err
		}
		f.Push(v)
	case classfile.CPClass:
		// a class literal: push a reference-kinded placeholder handle
		// of 0, since java/lang/Class modelling is out of scope here;
		// code that merely pushes and discards it (common in CLDC
		// bytecode that never reaches reflection) still behaves.
		f.Push(types.NullRef())
	default:
		return errBadConstantIndex(f, idx)
	}
	return nil
}

// decodeModifiedUTF8 decodes the class file's modified-UTF-8 constant-pool
// encoding into a string of Unicode code points: an embedded NUL is
// written as the two-byte overlong sequence 0xC0 0x80 instead of a single
// 0x00, and code points above U+FFFF are written as a 6-byte surrogate
// pair instead of a native 4-byte UTF-8 sequence. Both forms must be
// unpacked by hand since []rune(raw)/utf8.DecodeRune assume standard UTF-8.
func decodeModifiedUTF8(raw []byte) string {
	var out []rune
	for i := 0; i < len(raw); {
		b0 := raw[i]
		switch {
		case b0&0x80 == 0: // 0xxxxxxx
			out = append(out, rune(b0))
			i++
		case b0&0xE0 == 0xC0 && i+1 < len(raw): // 110xxxxx 10xxxxxx
			b1 := raw[i+1]
			r := (rune(b0&0x1F) << 6) | rune(b1&0x3F)
			out = append(out, r)
			i += 2
		case b0&0xF0 == 0xE0 && i+2 < len(raw): // 1110xxxx 10xxxxxx 10xxxxxx
			b1, b2 := raw[i+1], raw[i+2]
			r := (rune(b0&0x0F) << 12) | (rune(b1&0x3F) << 6) | rune(b2&0x3F)
			if isHighSurrogate(r) && i+5 < len(raw) && raw[i+3] == 0xED {
				b4, b5 := raw[i+4], raw[i+5]
				low := 0xDC00 | (rune(b4&0x0F) << 6) | rune(b5&0x3F)
				if isLowSurrogate(low) {
					r = 0x10000 + (r-0xD800)<<10 + (low - 0xDC00)
					out = append(out, r)
					i += 6
					continue
				}
			}
			out = append(out, r)
			i += 3
		default:
			// malformed byte: skip it rather than corrupt the rest of the
			// decode.
			i++
		}
	}
	return string(out)
}

func isHighSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDBFF }
func isLowSurrogate(r rune) bool  { return r >= 0xDC00 && r <= 0xDFFF }

// errBadConstantIndex reports an LDC/LDC_W/LDC2_W referencing a
// non-loadable or out-of-range constant-pool entry.
func errBadConstantIndex(f *frame.Frame, idx uint16) error {
	return fmt.Errorf("bad constant pool index %d in %s.%s", idx, f.ClassName, f.MethodName)
}
