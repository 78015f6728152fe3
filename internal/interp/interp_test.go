package interp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jacobin-style/cldcvm/internal/classfile"
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/gfunction"
	"github.com/jacobin-style/cldcvm/internal/object"
	"github.com/jacobin-style/cldcvm/internal/scheduler"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) NowMillis() int64 { return c.now }

// memArchive is a minimal in-memory vmhost.ArchiveReader for interp tests.
type memArchive struct{ entries map[string][]byte }

func (a *memArchive) ReadEntry(path string) ([]byte, bool, error) {
	data, ok := a.entries[path]
	return data, ok, nil
}
func (a *memArchive) Close() error { return nil }

// cfBuilder assembles full class-file byte images, fields and methods
// included, for tests that need to drive real invocation/linking paths
// rather than bare frames.
type cfBuilder struct {
	pool       [][]byte
	codeNameIx uint16
}

func (b *cfBuilder) addUtf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPUtf8))
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cfBuilder) addClass(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPClass))
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cfBuilder) addNameAndType(nameIdx, descIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPNameAndType))
	binary.Write(&e, binary.BigEndian, nameIdx)
	binary.Write(&e, binary.BigEndian, descIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cfBuilder) addMethodref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPMethodref))
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cfBuilder) addFieldref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPFieldref))
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cfBuilder) codeName() uint16 {
	if b.codeNameIx == 0 {
		b.codeNameIx = b.addUtf8("Code")
	}
	return b.codeNameIx
}

type fieldSpec struct {
	name, desc string
	static     bool
}

type methodSpec struct {
	name, desc           string
	static               bool
	code                 []byte
	maxStack, maxLocals  int
	exceptions           []classfile.ExceptionTableEntry
}

func (b *cfBuilder) build(thisClass, superClass uint16, fields []fieldSpec, fieldIdxs [][2]uint16, methods []methodSpec, methodIdxs [][2]uint16) []byte {
	if len(methods) > 0 {
		b.codeName() // must exist in the pool before the header below is written
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))

	binary.Write(&out, binary.BigEndian, uint16(len(b.pool)+1))
	for _, e := range b.pool {
		out.Write(e)
	}

	binary.Write(&out, binary.BigEndian, uint16(0x0021))
	binary.Write(&out, binary.BigEndian, thisClass)
	binary.Write(&out, binary.BigEndian, superClass)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces

	binary.Write(&out, binary.BigEndian, uint16(len(fields)))
	for i, f := range fields {
		var flags uint16
		if f.static {
			flags = 0x0008
		}
		binary.Write(&out, binary.BigEndian, flags)
		binary.Write(&out, binary.BigEndian, fieldIdxs[i][0])
		binary.Write(&out, binary.BigEndian, fieldIdxs[i][1])
		binary.Write(&out, binary.BigEndian, uint16(0))
	}

	binary.Write(&out, binary.BigEndian, uint16(len(methods)))
	for i, m := range methods {
		flags := uint16(0x0001)
		if m.static {
			flags |= 0x0008
		}
		binary.Write(&out, binary.BigEndian, flags)
		binary.Write(&out, binary.BigEndian, methodIdxs[i][0])
		binary.Write(&out, binary.BigEndian, methodIdxs[i][1])
		binary.Write(&out, binary.BigEndian, uint16(1)) // one attribute: Code

		var info bytes.Buffer
		binary.Write(&info, binary.BigEndian, uint16(m.maxStack))
		binary.Write(&info, binary.BigEndian, uint16(m.maxLocals))
		binary.Write(&info, binary.BigEndian, uint32(len(m.code)))
		info.Write(m.code)
		binary.Write(&info, binary.BigEndian, uint16(len(m.exceptions)))
		for _, exc := range m.exceptions {
			binary.Write(&info, binary.BigEndian, uint16(exc.StartPC))
			binary.Write(&info, binary.BigEndian, uint16(exc.EndPC))
			binary.Write(&info, binary.BigEndian, uint16(exc.HandlerPC))
			binary.Write(&info, binary.BigEndian, exc.CatchType)
		}
		binary.Write(&info, binary.BigEndian, uint16(0)) // no nested attributes

		binary.Write(&out, binary.BigEndian, b.codeName())
		binary.Write(&out, binary.BigEndian, uint32(info.Len()))
		out.Write(info.Bytes())
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes
	return out.Bytes()
}

func newTestInterpreter(reg *classloader.Registry, heap *object.Heap) *Interpreter {
	return New(reg, heap, gfunction.NewRegistry(), scheduler.New(&fakeClock{now: 1000}), &fakeClock{now: 1000})
}

// TestSumLoopScenario exercises a plain counted loop summing 1..9 with
// IF_ICMPGE/GOTO/IINC, the arithmetic/branch core of running bytecode.
func TestSumLoopScenario(t *testing.T) {
	var code []byte
	emit := func(b ...byte) { code = append(code, b...) }
	u16 := func(v int16) (byte, byte) { return byte(uint16(v) >> 8), byte(uint16(v)) }

	emit(opIConst0, opIStore1) // sum = 0
	emit(opIConst1, opIStore0) // i = 1
	loopStart := len(code)
	emit(opILoad0)
	emit(opSipush)
	hi, lo := u16(10)
	emit(hi, lo)
	ifPos := len(code)
	emit(opIfICmpGe, 0, 0) // patched below
	emit(opILoad1, opILoad0, opIAdd, opIStore1)
	emit(opIInc, 0, 1)
	gotoPos := len(code)
	emit(opGoto, 0, 0) // patched below
	endPos := len(code)
	emit(opILoad1, opIReturn)

	hi, lo = u16(int16(endPos - ifPos))
	code[ifPos+1], code[ifPos+2] = hi, lo
	hi, lo = u16(int16(loopStart - gotoPos))
	code[gotoPos+1], code[gotoPos+2] = hi, lo

	callee := frame.New("Sample", "sum", "()I", nil, &classfile.CodeAttribute{
		MaxStack: 4, MaxLocals: 2, Code: code,
	})
	caller := frame.New("Sample", "caller", "()V", nil, &classfile.CodeAttribute{
		MaxStack: 1, MaxLocals: 0, Code: nil,
	})

	th := vmthread.New(1)
	th.PushFrame(caller)
	th.PushFrame(callee)

	reg := classloader.NewRegistry(nil, nil)
	heap := object.NewHeap()
	vmi := newTestInterpreter(reg, heap)

	for th.CurrentFrame() == callee {
		if err := vmi.step(th, th.CurrentFrame()); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if got := caller.Peek().I; got != 45 {
		t.Fatalf("sum 1..9 = %d, want 45", got)
	}
}

// TestIDivByZeroUncaught exercises the exception-unwind path hitting the
// bottom of the frame stack with no handler in scope.
func TestIDivByZeroUncaught(t *testing.T) {
	code := []byte{opIConst1, opIConst0, opIDiv}
	f := frame.New("Sample", "run", "()V", nil, &classfile.CodeAttribute{
		MaxStack: 2, MaxLocals: 0, Code: code,
	})
	th := vmthread.New(1)
	th.PushFrame(f)

	reg := classloader.NewRegistry(nil, nil)
	heap := object.NewHeap()
	vmi := newTestInterpreter(reg, heap)

	var lastErr error
	for i := 0; i < 3; i++ {
		lastErr = vmi.step(th, th.CurrentFrame())
		if lastErr != nil {
			break
		}
	}
	uc, ok := lastErr.(*UncaughtException)
	if !ok {
		t.Fatalf("expected *UncaughtException, got %T (%v)", lastErr, lastErr)
	}
	if uc.ClassName != arithmeticException {
		t.Errorf("ClassName = %q, want %q", uc.ClassName, arithmeticException)
	}
}

// TestIDivByZeroCaughtByHandler exercises ATHROW's other path: a handler in
// the same frame's exception table matches the thrown class and the frame
// resumes at the handler pc with only the exception reference on the stack.
func TestIDivByZeroCaughtByHandler(t *testing.T) {
	b := &cfBuilder{}
	excName := b.addUtf8(arithmeticException)
	excClass := b.addClass(excName)

	cf, err := classfile.Decode(b.build(0, 0, nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("building catch-type class file: %v", err)
	}

	code := []byte{opIConst1, opIConst0, opIDiv}
	f := frame.New("Sample", "run", "()V", cf, &classfile.CodeAttribute{
		MaxStack: 2, MaxLocals: 0, Code: code,
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 3, HandlerPC: 3, CatchType: excClass},
		},
	})
	th := vmthread.New(1)
	th.PushFrame(f)

	reg := classloader.NewRegistry(nil, nil)
	heap := object.NewHeap()
	vmi := newTestInterpreter(reg, heap)

	for i := 0; i < 3; i++ {
		if err := vmi.step(th, th.CurrentFrame()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if f.PC != 3 {
		t.Fatalf("PC after catch = %d, want the handler pc 3", f.PC)
	}
	excRef := f.Peek()
	inst := heap.Get(excRef.Ref)
	if inst == nil {
		t.Fatal("caught exception reference does not resolve on the heap")
	}
	if lc, ok := inst.Klass.(*classloader.LinkedClass); !ok || lc.Name != arithmeticException {
		t.Errorf("caught exception class = %v, want %s", inst.Klass, arithmeticException)
	}
}

// TestVirtualDispatchPicksOverride builds a two-class hierarchy where the
// subclass overrides a method, invokes it through a methodref that names
// the superclass, and checks runtime-class dispatch picks the override.
func TestVirtualDispatchPicksOverride(t *testing.T) {
	baseB := &cfBuilder{}
	baseSelfName := baseB.addUtf8("widgets/Base")
	baseSelf := baseB.addClass(baseSelfName)
	greetName := baseB.addUtf8("greet")
	greetDesc := baseB.addUtf8("()I")
	baseBytes := baseB.build(baseSelf, 0, nil, nil, []methodSpec{
		{name: "greet", desc: "()I", code: []byte{opIConst1, opIReturn}, maxStack: 1, maxLocals: 1},
	}, [][2]uint16{{greetName, greetDesc}})

	subB := &cfBuilder{}
	subSelfName := subB.addUtf8("widgets/Sub")
	subSelf := subB.addClass(subSelfName)
	subSuperName := subB.addUtf8("widgets/Base")
	subSuper := subB.addClass(subSuperName)
	subGreetName := subB.addUtf8("greet")
	subGreetDesc := subB.addUtf8("()I")
	subBytes := subB.build(subSelf, subSuper, nil, nil, []methodSpec{
		{name: "greet", desc: "()I", code: []byte{opIConst2, opIReturn}, maxStack: 1, maxLocals: 1},
	}, [][2]uint16{{subGreetName, subGreetDesc}})

	archive := &memArchive{entries: map[string][]byte{
		"widgets/Base.class": baseBytes,
		"widgets/Sub.class":  subBytes,
	}}
	reg := classloader.NewRegistry(archive, nil)
	subLC, err := reg.Resolve("widgets/Sub")
	if err != nil {
		t.Fatalf("Resolve(widgets/Sub): %v", err)
	}

	heap := object.NewHeap()
	handle, _ := heap.AllocateObject(subLC, subLC.SlotCount())

	callerB := &cfBuilder{}
	callerBaseName := callerB.addUtf8("widgets/Base")
	callerBaseClass := callerB.addClass(callerBaseName)
	callerGreetName := callerB.addUtf8("greet")
	callerGreetDesc := callerB.addUtf8("()I")
	callerNat := callerB.addNameAndType(callerGreetName, callerGreetDesc)
	callerMethodref := callerB.addMethodref(callerBaseClass, callerNat)
	callerCF, err := classfile.Decode(callerB.build(0, 0, nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("building caller class file: %v", err)
	}

	hi, lo := byte(callerMethodref>>8), byte(callerMethodref)
	callerCode := []byte{opALoad0, opInvokeVirtual, hi, lo, opIReturn}
	caller := frame.New("Caller", "run", "()V", callerCF, &classfile.CodeAttribute{
		MaxStack: 2, MaxLocals: 1, Code: callerCode,
	})
	caller.Locals[0] = types.Ref(handle)

	th := vmthread.New(1)
	th.PushFrame(caller)
	vmi := newTestInterpreter(reg, heap)

	if err := vmi.step(th, th.CurrentFrame()); err != nil { // ALOAD_0
		t.Fatalf("aload_0: %v", err)
	}
	if err := vmi.step(th, th.CurrentFrame()); err != nil { // INVOKEVIRTUAL
		t.Fatalf("invokevirtual: %v", err)
	}
	for th.StackDepth() > 1 {
		if err := vmi.step(th, th.CurrentFrame()); err != nil {
			t.Fatalf("running greet(): %v", err)
		}
	}

	if got := caller.Peek().I; got != 2 {
		t.Fatalf("greet() dispatched result = %d, want 2 (the subclass override)", got)
	}
}

// TestClassInitDetourRunsClinitBeforeGetstatic exercises the transparent
// detour: a GETSTATIC on a not-yet-initialised class pushes a <clinit>
// frame and rewinds the triggering pc, resuming once <clinit> returns.
func TestClassInitDetourRunsClinitBeforeGetstatic(t *testing.T) {
	b := &cfBuilder{}
	selfName := b.addUtf8("widgets/Counter")
	self := b.addClass(selfName)
	fieldName := b.addUtf8("counter")
	fieldDesc := b.addUtf8("I")
	nat := b.addNameAndType(fieldName, fieldDesc)
	fieldref := b.addFieldref(self, nat)

	fhi, flo := byte(fieldref>>8), byte(fieldref)
	clinitCode := []byte{opBipush, 7, opPutStatic, fhi, flo, opReturn}

	classBytes := b.build(self, 0,
		[]fieldSpec{{name: "counter", desc: "I", static: true}},
		[][2]uint16{{fieldName, fieldDesc}},
		[]methodSpec{
			{name: "<clinit>", desc: "()V", static: true, code: clinitCode, maxStack: 2, maxLocals: 0},
		},
		[][2]uint16{{b.addUtf8("<clinit>"), b.addUtf8("()V")}},
	)

	archive := &memArchive{entries: map[string][]byte{"widgets/Counter.class": classBytes}}
	reg := classloader.NewRegistry(archive, nil)
	heap := object.NewHeap()
	vmi := newTestInterpreter(reg, heap)

	runnerCode := []byte{opGetStatic, fhi, flo, opIReturn}
	lc, err := reg.Resolve("widgets/Counter")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	runner := frame.New("widgets/Counter", "run", "()I", lc.File, &classfile.CodeAttribute{
		MaxStack: 1, MaxLocals: 0, Code: runnerCode,
	})

	th := vmthread.New(1)
	th.PushFrame(runner)

	for i := 0; i < 5; i++ {
		if err := vmi.step(th, th.CurrentFrame()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	final := th.CurrentFrame()
	if final != runner {
		t.Fatalf("expected control back on the GETSTATIC frame after <clinit> returns")
	}
	if got := final.Peek().I; got != 7 {
		t.Fatalf("static field after <clinit> = %d, want 7", got)
	}
	if lc.State != classloader.Initialized {
		t.Errorf("class state after <clinit> returns = %v, want Initialized", lc.State)
	}
}

// TestLdcStringLiteral exercises LDC materialising a CPString entry into a
// heap-backed java/lang/String instance.
func TestLdcStringLiteral(t *testing.T) {
	b := &cfBuilder{}
	textIdx := b.addUtf8("hi")
	var e bytes.Buffer
	e.WriteByte(byte(classfile.CPString))
	binary.Write(&e, binary.BigEndian, textIdx)
	b.pool = append(b.pool, e.Bytes())
	strIdx := uint16(len(b.pool))

	cf, err := classfile.Decode(b.build(0, 0, nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("building class file: %v", err)
	}

	code := []byte{opLdc, byte(strIdx)}
	f := frame.New("Sample", "run", "()V", cf, &classfile.CodeAttribute{
		MaxStack: 1, MaxLocals: 0, Code: code,
	})
	th := vmthread.New(1)
	th.PushFrame(f)

	reg := classloader.NewRegistry(nil, nil)
	heap := object.NewHeap()
	vmi := newTestInterpreter(reg, heap)

	if err := vmi.step(th, th.CurrentFrame()); err != nil {
		t.Fatalf("step: %v", err)
	}
	ref := f.Peek()
	if got := gfunction.JavaStringValue(vmi.nativeContext(th), ref.Ref); got != "hi" {
		t.Errorf("LDC string contents = %q, want %q", got, "hi")
	}
}
