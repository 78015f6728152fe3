/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

// ParseCode demand-parses the Code attribute of m on first execution and
// caches the result. Returns nil if m has no Code attribute (native or
// abstract methods).
func (c *ClassFile) ParseCode(m *MethodInfo) (*CodeAttribute, error) {
	if m.code != nil {
		return m.code, nil
	}
	for _, a := range m.Attributes {
		if c.Utf8(a.NameIndex) != "Code" {
			continue
		}
		code, err := decodeCodeAttribute(c, a.Info)
		if err != nil {
			return nil, err
		}
		m.code = code
		return code, nil
	}
	return nil, nil
}

func decodeCodeAttribute(c *ClassFile, info []byte) (*CodeAttribute, error) {
	r := &reader{buf: info}
	maxStack, err := r.u2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}

	exceptionCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	ca := &CodeAttribute{
		MaxStack:  int(maxStack),
		MaxLocals: int(maxLocals),
		Code:      append([]byte(nil), code...),
	}
	for i := 0; i < int(exceptionCount); i++ {
		startPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		endPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		catchType, err := r.u2()
		if err != nil {
			return nil, err
		}
		ca.ExceptionTable = append(ca.ExceptionTable, ExceptionTableEntry{
			StartPC: int(startPC), EndPC: int(endPC),
			HandlerPC: int(handlerPC), CatchType: catchType,
		})
	}

	attrs, err := decodeAttributes(r)
	if err != nil {
		return nil, err
	}
	ca.Attributes = attrs
	for _, a := range attrs {
		if c.Utf8(a.NameIndex) == "LineNumberTable" {
			ca.LineNumbers = decodeLineNumberTable(a.Info)
		}
	}
	return ca, nil
}

func decodeLineNumberTable(info []byte) []LineNumberEntry {
	r := &reader{buf: info}
	count, err := r.u2()
	if err != nil {
		return nil
	}
	lines := make([]LineNumberEntry, 0, count)
	for i := 0; i < int(count); i++ {
		startPC, err := r.u2()
		if err != nil {
			break
		}
		line, err := r.u2()
		if err != nil {
			break
		}
		lines = append(lines, LineNumberEntry{StartPC: int(startPC), Line: int(line)})
	}
	return lines
}
