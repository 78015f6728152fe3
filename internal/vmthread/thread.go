/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmthread is a cooperative green thread: a call stack of frames
// plus the scheduling state the round-robin scheduler inspects and mutates.
//
// Grounded on artipop-jacobin's Thread/stack-of-frames shape (a frame
// stack per thread, threads own their own call stack and nothing else)
// and thanhhungg97-jvm's runtime.Thread push/pop/current frame API,
// generalised here with run/wait/sleep states so a thread can be parked
// and woken without unwinding its call stack.
package vmthread

import "github.com/jacobin-style/cldcvm/internal/frame"

// State is a thread's scheduling state.
type State int

const (
	Runnable State = iota
	TimedWaiting
	Waiting
	Terminated
)

// Thread is one cooperatively-scheduled green thread.
type Thread struct {
	ID    int64
	State State

	stack []*frame.Frame

	// WakeAtMillis is the clock time at which a TimedWaiting thread
	// becomes Runnable again (sleep(ms), wait(timeout)).
	WakeAtMillis int64

	// MonitorObject is the heap handle of the object this thread is
	// waiting/notified on, or 0 if not applicable.
	MonitorObject int32

	// SelfHandle is the heap handle of this thread's java/lang/Thread
	// instance, letting native code map back from a Thread object to its
	// scheduler entry.
	SelfHandle int32

	// PendingException is the heap handle of an in-flight thrown object
	// the unwind loop is propagating up the call stack, or 0 when nothing
	// is being unwound.
	PendingException int32
}

// New creates a runnable thread with an empty call stack.
func New(id int64) *Thread {
	return &Thread{ID: id, State: Runnable, stack: make([]*frame.Frame, 0, 16)}
}

// PushFrame pushes a new activation record onto the call stack.
func (t *Thread) PushFrame(f *frame.Frame) { t.stack = append(t.stack, f) }

// PopFrame removes and returns the top activation record, or nil if the
// stack is empty (the thread has returned from its entry method).
func (t *Thread) PopFrame() *frame.Frame {
	if len(t.stack) == 0 {
		return nil
	}
	f := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return f
}

// CurrentFrame returns the top activation record, or nil if the call stack
// is empty.
func (t *Thread) CurrentFrame() *frame.Frame {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// StackDepth reports the number of active frames.
func (t *Thread) StackDepth() int { return len(t.stack) }

// Finished reports whether this thread has returned from its entry method
// and should be dropped from the scheduler's ready list.
func (t *Thread) Finished() bool { return t.State == Terminated || len(t.stack) == 0 }
