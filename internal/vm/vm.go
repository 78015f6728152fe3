/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vm aggregates the registry, heap, scheduler, native registry and
// interpreter into one VM context and drives the pump loop: grant each
// runnable thread a bounded instruction quantum, poll the host event
// source, and stop once every thread has terminated or a native has
// requested System.exit.
//
// Grounded on artipop-jacobin's top-level jvm.go/JVMrun shape (one struct
// owning every subsystem and a single run loop driving them), adapted for
// a cooperative quantum scheduler instead of OS threads.
package vm

import (
	"fmt"
	"time"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/gfunction"
	"github.com/jacobin-style/cldcvm/internal/interp"
	"github.com/jacobin-style/cldcvm/internal/object"
	"github.com/jacobin-style/cldcvm/internal/scheduler"
	"github.com/jacobin-style/cldcvm/internal/trace"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// Config configures a new VM instance.
type Config struct {
	// Quantum is the number of instructions granted to a thread per
	// scheduling turn.
	Quantum int

	AppArchive  vmhost.ArchiveReader
	BootArchive vmhost.ArchiveReader

	// Clock defaults to vmhost.SystemClock if nil.
	Clock vmhost.Clock

	// Events is optional; a nil source means the VM never polls for host
	// input and only stops when every thread terminates or exit is
	// requested.
	Events vmhost.EventSource
}

// VM is one running virtual machine instance: every subsystem the
// interpreter touches, built once and threaded through its whole
// lifetime rather than reached for via package globals.
type VM struct {
	Registry  *classloader.Registry
	Heap      *object.Heap
	Natives   *gfunction.Registry
	Scheduler *scheduler.Scheduler
	Clock     vmhost.Clock
	Interp    *interp.Interpreter

	quantum int
	events  vmhost.EventSource
}

// New builds a VM over the given configuration.
func New(cfg Config) *VM {
	clock := cfg.Clock
	if clock == nil {
		clock = vmhost.SystemClock{}
	}
	quantum := cfg.Quantum
	if quantum <= 0 {
		quantum = 1000
	}

	reg := classloader.NewRegistry(cfg.AppArchive, cfg.BootArchive)
	heap := object.NewHeap()
	natives := gfunction.NewRegistry()
	sched := scheduler.New(clock)
	it := interp.New(reg, heap, natives, sched, clock)

	return &VM{
		Registry: reg, Heap: heap, Natives: natives, Scheduler: sched, Clock: clock, Interp: it,
		quantum: quantum, events: cfg.Events,
	}
}

// NoSuchMainMethod is returned by StartMain when mainClass has no static
// void main(String[]) method.
type NoSuchMainMethod struct {
	ClassName string
}

func (e *NoSuchMainMethod) Error() string {
	return "no main method in " + e.ClassName
}

// StartMain resolves mainClass, locates its static main([Ljava/lang/String;)V
// method, and spawns a thread positioned at its first instruction with args
// materialised as a java/lang/String[] local.
func (v *VM) StartMain(mainClass string, args []string) (*vmthread.Thread, error) {
	lc, err := v.Registry.Resolve(mainClass)
	if err != nil {
		return nil, err
	}
	method := lc.FindMethod(classloader.MethodAndDescriptorKey("main", "([Ljava/lang/String;)V"))
	if method == nil || !method.IsStatic() {
		return nil, &NoSuchMainMethod{ClassName: mainClass}
	}
	code, err := method.Code()
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, &NoSuchMainMethod{ClassName: mainClass}
	}

	t := vmthread.New(1)
	f := frame.New(mainClass, "main", "([Ljava/lang/String;)V", method.OwnerFile, code)
	f.Locals[0] = types.Ref(v.buildArgsArray(args))
	t.PushFrame(f)
	v.Scheduler.Spawn(t)
	return t, nil
}

func (v *VM) buildArgsArray(args []string) int32 {
	handle, arr := v.Heap.AllocateArray(len(args), types.KRef)
	ctx := &gfunction.Context{Heap: v.Heap, Registry: v.Registry, Scheduler: v.Scheduler, Clock: v.Clock}
	for i, a := range args {
		sv, err := gfunction.NewJavaString(ctx, a)
		if err != nil {
			trace.Error(fmt.Sprintf("buildArgsArray: %v", err))
			continue
		}
		arr.Slots[i] = sv
	}
	return handle
}

// SpawnThread registers an already-prepared thread with the VM's scheduler,
// for host code that drives a frame directly without going through
// StartMain.
func (v *VM) SpawnThread(t *vmthread.Thread) {
	v.Scheduler.Spawn(t)
}

// Run drives the pump loop until every spawned thread has terminated, a
// native System.exit call is observed, or the host event source requests
// quit. An uncaught exception terminates only the thread it unwound off
// of; other threads keep running.
func (v *VM) Run() (exitCode int32, err error) {
	for {
		if v.events != nil {
			v.events.PollEvents()
			if v.events.QuitRequested() {
				return 0, nil
			}
		}
		if requested, code := v.Interp.ExitRequested(); requested {
			return code, nil
		}
		if v.Scheduler.AllTerminated() {
			return 0, nil
		}

		t := v.Scheduler.Next()
		if t == nil {
			// Every live thread is TimedWaiting/Waiting; nothing to run
			// this turn. The next promoteTimedWaiting pass (inside Next)
			// will pick them back up once their wake time elapses. Yield
			// briefly so this doesn't busy-spin a core while every thread
			// is asleep.
			time.Sleep(time.Millisecond)
			continue
		}

		_, runErr := v.Interp.Execute(t, v.quantum)
		if runErr != nil {
			if uncaught, ok := runErr.(*interp.UncaughtException); ok {
				trace.Error("uncaught exception on thread " + fmt.Sprint(t.ID) + ": " + uncaught.Error())
				continue
			}
			return 1, runErr
		}
	}
}
