/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"encoding/binary"
	"fmt"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/excnames"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/gfunction"
	"github.com/jacobin-style/cldcvm/internal/object"
	"github.com/jacobin-style/cldcvm/internal/scheduler"
	"github.com/jacobin-style/cldcvm/internal/trace"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// Result is the outcome of running a bounded quantum on one thread.
type Result int

const (
	Normal Result = iota
	Suspended
	Terminated
)

// UncaughtException is returned by Execute when an exception unwinds off
// the bottom of the thread's frame stack. The thread is left terminated.
type UncaughtException struct {
	ClassName string
	Message   string
}

func (e *UncaughtException) Error() string {
	return "uncaught exception: " + e.ClassName + ": " + e.Message
}

// Interpreter executes bytecode against threads drawn from a shared VM
// context: an explicit object threaded through every call rather than
// reached for via package globals.
type Interpreter struct {
	Registry  *classloader.Registry
	Heap      *object.Heap
	Natives   *gfunction.Registry
	Scheduler *scheduler.Scheduler
	Clock     vmhost.Clock

	// nctx is the single Context instance threaded through every native
	// call this interpreter makes. It is reused (only Thread is swapped
	// per call) rather than rebuilt, so state a native sets on it --
	// System.exit's ExitRequested/ExitCode -- is still visible to the
	// driver loop after the call returns.
	nctx *gfunction.Context
}

// New builds an interpreter over the given shared components.
func New(reg *classloader.Registry, heap *object.Heap, natives *gfunction.Registry, sched *scheduler.Scheduler, clock vmhost.Clock) *Interpreter {
	return &Interpreter{
		Registry: reg, Heap: heap, Natives: natives, Scheduler: sched, Clock: clock,
		nctx: &gfunction.Context{Heap: heap, Registry: reg, Scheduler: sched, Clock: clock},
	}
}

func (vm *Interpreter) nativeContext(t *vmthread.Thread) *gfunction.Context {
	vm.nctx.Thread = t
	return vm.nctx
}

// ExitRequested reports whether a native System.exit call has set the
// interpreter's shared context into a requested-exit state, and the code it
// requested.
func (vm *Interpreter) ExitRequested() (bool, int32) {
	return vm.nctx.ExitRequested, vm.nctx.ExitCode
}

// Execute runs up to quantum instructions on thread t's current top frame.
// A handler that pushes/pops frames or suspends the thread still counts as
// one instruction toward the quantum.
func (vm *Interpreter) Execute(t *vmthread.Thread, quantum int) (Result, error) {
	for i := 0; i < quantum; i++ {
		if t.State != vmthread.Runnable {
			return Suspended, nil
		}
		f := t.CurrentFrame()
		if f == nil {
			t.State = vmthread.Terminated
			return Terminated, nil
		}
		if err := vm.step(t, f); err != nil {
			if _, uncaught := err.(*UncaughtException); uncaught {
				t.State = vmthread.Terminated
				return Terminated, err
			}
			return Terminated, err
		}
		if t.Finished() {
			t.State = vmthread.Terminated
			return Terminated, nil
		}
	}
	return Normal, nil
}

// step executes exactly one instruction against f, the current top frame
// of t. Most opcodes mutate f directly; invoke/new/return and the
// class-init detour push or pop frames on t.
func (vm *Interpreter) step(t *vmthread.Thread, f *frame.Frame) error {
	if f.PC >= len(f.Code) {
		return fmt.Errorf("pc %d past end of code in %s.%s", f.PC, f.ClassName, f.MethodName)
	}
	op := f.Code[f.PC]
	start := f.PC
	f.PC++

	switch {
	case op == opNop:
		return nil
	case op >= opAConstNull && op <= opDConst1:
		return vm.execConstants(f, op)
	case op == opBipush || op == opSipush || op == opLdc || op == opLdcW || op == opLdc2W:
		return vm.execLoadConstants(t, f, op)
	case op >= opILoad && op <= opALoad:
		return vm.execIndexedLoad(f, op)
	case op >= opILoad0 && op <= opALoad3:
		return vm.execImplicitLoad(f, op)
	case op >= opIStore && op <= opAStore:
		return vm.execIndexedStore(f, op)
	case op >= opIStore0 && op <= opAStore3:
		return vm.execImplicitStore(f, op)
	case op >= opPop && op <= opSwap:
		return vm.execStackOp(f, op)
	case op >= opIAdd && op <= opLXor:
		return vm.execArithmetic(t, f, op)
	case op == opIInc:
		return vm.execIInc(f)
	case op >= opI2L && op <= opI2S:
		return vm.execConversion(f, op)
	case op >= opLCmp && op <= opDCmpG:
		return vm.execCompare(f, op)
	case op >= opIfEq && op <= opIfACmpNe:
		return vm.execIf(f, op, start)
	case op == opGoto || op == opGotoW:
		return vm.execGoto(f, op, start)
	case op == opJsr || op == opJsrW:
		return vm.execJsr(f, op, start)
	case op == opRet:
		return vm.execRet(f)
	case op == opTableSwitch:
		return vm.execTableSwitch(f, start)
	case op == opLookupSwitch:
		return vm.execLookupSwitch(f, start)
	case op >= opIReturn && op <= opReturn:
		return vm.execReturn(t, f, op)
	case op == opGetStatic || op == opPutStatic:
		return vm.execStaticField(t, f, op, start)
	case op == opGetField || op == opPutField:
		return vm.execInstanceField(t, f, op)
	case op == opInvokeVirtual || op == opInvokeSpecial || op == opInvokeStatic || op == opInvokeInterface:
		return vm.execInvoke(t, f, op, start)
	case op == opNew:
		return vm.execNew(t, f, start)
	case op == opNewArray:
		return vm.execNewArray(t, f)
	case op == opANewArray:
		return vm.execANewArray(t, f)
	case op == opMultiANewArray:
		return vm.execMultiANewArray(t, f)
	case op == opArrayLength:
		return vm.execArrayLength(t, f)
	case op >= opIALoad && op <= opSALoad:
		return vm.execArrayLoad(t, f, op)
	case op >= opIAStore && op <= opSAStore:
		return vm.execArrayStore(t, f, op)
	case op == opAThrow:
		return vm.execAThrow(t, f)
	case op == opCheckCast:
		return vm.execCheckCast(t, f)
	case op == opInstanceOf:
		return vm.execInstanceOf(t, f)
	case op == opMonitorEnter || op == opMonitorExit:
		f.Pop()
		return nil
	case op == opIfNull || op == opIfNonNull:
		return vm.execIfNull(f, op, start)
	default:
		return fmt.Errorf("unimplemented opcode 0x%02X at %s.%s pc=%d", op, f.ClassName, f.MethodName, start)
	}
}

func u2At(code []byte, pc int) int {
	return int(binary.BigEndian.Uint16(code[pc:]))
}

func s2At(code []byte, pc int) int {
	return int(int16(binary.BigEndian.Uint16(code[pc:])))
}

// ensureInitialized drives the class-initialisation detour: if lc needs
// running its <clinit>, it recursively initialises the superclass first,
// then pushes a <clinit>
// frame on t and returns pushed=true so the caller rewinds its pc and lets
// the outer dispatch loop continue with the new top frame.
func (vm *Interpreter) ensureInitialized(t *vmthread.Thread, lc *classloader.LinkedClass) (pushed bool, err error) {
	switch lc.State {
	case classloader.Initialized:
		return false, nil
	case classloader.Erroneous:
		return false, fmt.Errorf("class %s is in an erroneous initialisation state", lc.Name)
	case classloader.Initializing:
		if lc.InitThread == t.ID {
			return false, nil
		}
		// Cooperative single-executor model: another thread cannot
		// truly be mid-initialisation concurrently with this one, so
		// in practice this path is only reached by a quantum boundary
		// landing mid-<clinit>; treat the class as not yet ready and
		// let the caller's instruction simply retry next quantum.
		return false, nil
	}

	if lc.Super != nil {
		if pushed, err := vm.ensureInitialized(t, lc.Super); err != nil || pushed {
			return pushed, err
		}
	}

	lc.State = classloader.Initializing
	lc.InitThread = t.ID

	clinit := lc.Methods["<clinit>|()V"]
	if clinit == nil || clinit.Native {
		lc.State = classloader.Initialized
		return false, nil
	}
	code, err := clinit.Code()
	if err != nil {
		lc.State = classloader.Erroneous
		return false, err
	}
	nf := frame.New(lc.Name, "<clinit>", "()V", clinit.OwnerFile, code)
	t.PushFrame(nf)
	trace.Trace("ensureInitialized: pushed <clinit> for " + lc.Name)
	return true, nil
}

// finishClinitIfNeeded transitions a class's state to Initialized once its
// <clinit> frame returns normally, re-resolving the owning LinkedClass by
// name (a cache hit through the registry).
func (vm *Interpreter) finishClinitIfNeeded(f *frame.Frame) {
	if f.MethodName != "<clinit>" {
		return
	}
	if lc, err := vm.Registry.Resolve(f.ClassName); err == nil {
		lc.State = classloader.Initialized
	}
}

// markErroneousIfClinit marks a class Erroneous when its <clinit> frame is
// being popped because of an uncaught-in-frame exception: the exception
// propagates to the caller, but the class is left permanently unusable.
func (vm *Interpreter) markErroneousIfClinit(f *frame.Frame) {
	if f.MethodName != "<clinit>" {
		return
	}
	if lc, err := vm.Registry.Resolve(f.ClassName); err == nil {
		lc.State = classloader.Erroneous
	}
}

// resolveClassForInit resolves name and drives its initialisation detour,
// used by GETSTATIC/PUTSTATIC/INVOKESTATIC/NEW.
func (vm *Interpreter) resolveClassForInit(t *vmthread.Thread, name string) (lc *classloader.LinkedClass, pushed bool, err error) {
	lc, err = vm.Registry.Resolve(name)
	if err != nil {
		return nil, false, err
	}
	pushed, err = vm.ensureInitialized(t, lc)
	return lc, pushed, err
}

// newInstance allocates zero-initialised storage for lc without running
// any constructor (NEW only allocates; <init> is invoked separately by a
// following INVOKESPECIAL per standard bytecode shape).
func (vm *Interpreter) newInstance(lc *classloader.LinkedClass) int32 {
	handle, _ := vm.Heap.AllocateObject(lc, lc.SlotCount())
	return handle
}

// throwNew constructs and throws a bootstrap exception by class name and
// message, the path every built-in runtime check and native-dispatch
// failure uses.
func (vm *Interpreter) throwNew(t *vmthread.Thread, f *frame.Frame, className, message string) error {
	lc, err := vm.Registry.Resolve(className)
	if err != nil {
		return err
	}
	handle, inst := vm.Heap.AllocateObject(lc, lc.SlotCount())
	if message != "" {
		ctx := vm.nativeContext(t)
		if sv, err := gfunction.NewJavaString(ctx, message); err == nil {
			inst.SetField(classloader.FieldKey("message", "Ljava/lang/String;"), sv)
		}
	}
	return vm.unwind(t, f, handle, lc)
}

// unwind implements ATHROW's propagation: search the current frame's
// exception table for a matching handler; on no match, pop the frame and
// retry in the caller; surface as UncaughtException if the frame stack
// empties out.
func (vm *Interpreter) unwind(t *vmthread.Thread, f *frame.Frame, excHandle int32, excClass *classloader.LinkedClass) error {
	cur := f
	for {
		if handlerPC, ok := vm.findHandler(cur, excClass); ok {
			cur.ClearStack()
			cur.Push(types.Ref(excHandle))
			cur.PC = handlerPC
			return nil
		}
		vm.markErroneousIfClinit(cur)
		t.PopFrame()
		cur = t.CurrentFrame()
		if cur == nil {
			return &UncaughtException{ClassName: excClass.Name}
		}
	}
}

// findHandler searches f's exception table for an entry whose range
// contains the currently-executing pc (the instruction just before f.PC,
// since f.PC has already advanced past the opcode) and whose catch type
// is "any" or an ancestor of excClass.
func (vm *Interpreter) findHandler(f *frame.Frame, excClass *classloader.LinkedClass) (int, bool) {
	throwPC := f.PC - 1
	for _, e := range f.ExceptionTable {
		if throwPC < e.StartPC || throwPC >= e.EndPC {
			continue
		}
		if e.CatchType == 0 {
			return e.HandlerPC, true
		}
		catchName := f.File.ClassName(e.CatchType)
		if catchName == "" {
			continue
		}
		catchLC, err := vm.Registry.Resolve(catchName)
		if err != nil {
			continue
		}
		if classloader.IsAssignable(excClass, catchLC) {
			return e.HandlerPC, true
		}
	}
	return 0, false
}
