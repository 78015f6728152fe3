/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/excnames"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// loadLangThread registers java/lang/Thread's natives, grounded directly on
// artipop-jacobin's gfunction/javaLangThread.go Load_Lang_Thread
// (registerNatives as a no-op, sleep(J)V taking one long-valued param).
func loadLangThread(r *Registry) {
	r.register(Key("java/lang/Thread", "<init>", "()V"), GMeth{GFunction: justReturn})
	r.register(Key("java/lang/Thread", "registerNatives", "()V"), GMeth{GFunction: justReturn})
	r.register(Key("java/lang/Thread", "sleep", "(J)V"), GMeth{GFunction: threadSleep})
	r.register(Key("java/lang/Thread", "start", "()V"), GMeth{GFunction: threadStart})
	r.register(Key("java/lang/Thread", "run", "()V"), GMeth{GFunction: justReturn})
}

// "java/lang/Thread.sleep(J)V" suspends the calling thread cooperatively:
// unlike a time.Sleep-blocking implementation, this hands control to the
// scheduler so other threads keep running.
func threadSleep(ctx *Context, params []types.Value) (types.Value, error) {
	ms := params[0].L
	if ms < 0 {
		return types.Value{}, &UnsatisfiedLinkError{Key: excnames.IllegalStateException}
	}
	ctx.Scheduler.Sleep(ctx.Thread, ms)
	return types.Value{}, nil
}

// "java/lang/Thread.start()V" spawns a new cooperatively-scheduled green
// thread positioned at the receiver's run()V method: unlike a
// dedicated-OS-thread start, the scheduler runs it as just another entry
// in the round-robin ready list. A receiver with no
// overridden run() (or a native one) is left as a no-op, matching the
// no-op Thread.run() default.
func threadStart(ctx *Context, params []types.Value) (types.Value, error) {
	this := params[0]
	if this.IsNull() {
		return types.Value{}, nil
	}
	inst := ctx.Heap.Get(this.Ref)
	if inst == nil || inst.Klass == nil {
		return types.Value{}, nil
	}
	runtime, ok := inst.Klass.(*classloader.LinkedClass)
	if !ok {
		return types.Value{}, nil
	}
	method := runtime.FindMethod(classloader.MethodAndDescriptorKey("run", "()V"))
	if method == nil || method.Native {
		return types.Value{}, nil
	}
	code, err := method.Code()
	if err != nil || code == nil {
		return types.Value{}, err
	}

	nt := vmthread.New(ctx.Scheduler.NewThreadID())
	nt.SelfHandle = this.Ref
	nf := frame.New(runtime.Name, "run", "()V", method.OwnerFile, code)
	nf.Locals[0] = this
	nt.PushFrame(nf)
	ctx.Scheduler.Spawn(nt)
	return types.Value{}, nil
}
