/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"encoding/binary"
	"math"
)

// reader is a minimal big-endian byte cursor. All multi-byte integers in a
// class file are big-endian.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) u1() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, badClass("truncated input at offset %d", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, badClass("truncated input at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, badClass("truncated input at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, badClass("truncated input at offset %d", r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Decode parses one class file image: fixed prelude, constant pool, access
// flags, self/super/interfaces, fields, methods, class attributes.
// Field/method attribute bodies are captured as raw bytes; CodeAttribute
// bodies are demand-parsed on first execution by ParseCode.
func Decode(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}
	cf := &ClassFile{}

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, badClass("bad magic 0x%08X", magic)
	}
	cf.Magic = magic

	if cf.MinorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.u2(); err != nil {
		return nil, err
	}

	if err := decodeConstantPool(r, cf); err != nil {
		return nil, err
	}

	if cf.AccessFlags, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		cf.Interfaces = append(cf.Interfaces, idx)
	}

	if cf.Fields, err = decodeFields(r); err != nil {
		return nil, err
	}
	if cf.Methods, err = decodeMethods(r); err != nil {
		return nil, err
	}
	if cf.Attributes, err = decodeAttributes(r); err != nil {
		return nil, err
	}

	return cf, nil
}

func decodeConstantPool(r *reader, cf *ClassFile) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	cf.ConstantPool = make([]CPInfo, count) // index 0 unused
	for i := 1; i < int(count); i++ {
		tagByte, err := r.u1()
		if err != nil {
			return err
		}
		entry := CPInfo{Tag: CPTag(tagByte)}
		switch entry.Tag {
		case CPUtf8:
			length, err := r.u2()
			if err != nil {
				return err
			}
			b, err := r.bytes(int(length))
			if err != nil {
				return err
			}
			entry.Utf8 = append([]byte(nil), b...)
		case CPInteger:
			v, err := r.u4()
			if err != nil {
				return err
			}
			entry.IntVal = int32(v)
		case CPFloat:
			v, err := r.u4()
			if err != nil {
				return err
			}
			entry.FloatVal = float32frombits(v)
		case CPLong:
			hi, err := r.u4()
			if err != nil {
				return err
			}
			lo, err := r.u4()
			if err != nil {
				return err
			}
			entry.LongVal = int64(uint64(hi)<<32 | uint64(lo))
			cf.ConstantPool[i] = entry
			i++ // long/double entries consume two pool slots; the second is an unused sentinel
			if i < int(count) {
				cf.ConstantPool[i] = CPInfo{Tag: cpUnusedSlot}
			}
			continue
		case CPDouble:
			hi, err := r.u4()
			if err != nil {
				return err
			}
			lo, err := r.u4()
			if err != nil {
				return err
			}
			entry.DoubleVal = float64frombits(uint64(hi)<<32 | uint64(lo))
			cf.ConstantPool[i] = entry
			i++
			if i < int(count) {
				cf.ConstantPool[i] = CPInfo{Tag: cpUnusedSlot}
			}
			continue
		case CPClass:
			if entry.NameIndex, err = r.u2(); err != nil {
				return err
			}
		case CPString:
			if entry.StringIndex, err = r.u2(); err != nil {
				return err
			}
		case CPFieldref, CPMethodref, CPInterfaceMethodref:
			if entry.ClassIndex, err = r.u2(); err != nil {
				return err
			}
			if entry.NameAndTypeIdx, err = r.u2(); err != nil {
				return err
			}
		case CPNameAndType:
			if entry.NameIndex, err = r.u2(); err != nil {
				return err
			}
			if entry.DescriptorIndex, err = r.u2(); err != nil {
				return err
			}
		case CPMethodHandle:
			rk, err := r.u1()
			if err != nil {
				return err
			}
			entry.RefKind = uint16(rk)
			if entry.RefIndex, err = r.u2(); err != nil {
				return err
			}
		case CPMethodType:
			if entry.DescriptorIndex, err = r.u2(); err != nil {
				return err
			}
		case CPDynamic, CPInvokeDynamic:
			if entry.BootstrapMethodAttrIndex, err = r.u2(); err != nil {
				return err
			}
			if entry.NatNameAndTypeIndex, err = r.u2(); err != nil {
				return err
			}
		case CPModule, CPPackage:
			if entry.NameIndex, err = r.u2(); err != nil {
				return err
			}
		default:
			return badClass("unrecognised constant pool tag %d at entry %d", tagByte, i)
		}
		cf.ConstantPool[i] = entry
	}
	return nil
}

func decodeFields(r *reader) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, 0, count)
	for i := 0; i < int(count); i++ {
		var f FieldInfo
		if f.AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if f.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if f.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if f.Attributes, err = decodeAttributes(r); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeMethods(r *reader) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, 0, count)
	for i := 0; i < int(count); i++ {
		var m MethodInfo
		if m.AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if m.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if m.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if m.Attributes, err = decodeAttributes(r); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func decodeAttributes(r *reader) ([]AttributeInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	attrs := make([]AttributeInfo, 0, count)
	for i := 0; i < int(count); i++ {
		var a AttributeInfo
		if a.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		a.Info = append([]byte(nil), b...)
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func float32frombits(b uint32) float32 {
	return math.Float32frombits(b)
}

func float64frombits(b uint64) float64 {
	return math.Float64frombits(b)
}
