/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package scheduler is the cooperative thread scheduler: round-robin over
// runnable threads, instruction-count quanta instead of wall-clock
// preemption, and promotion of timed-waiting threads back to runnable once
// their wake time elapses.
//
// Grounded on artipop-jacobin's single-threaded-interpreter-loop-plus-
// thread-table shape, generalised with thanhhungg97-jvm's explicit Thread
// type and a vmhost.Clock collaborator so wake-time comparisons can be
// driven by a fake clock in tests.
package scheduler

import (
	"github.com/jacobin-style/cldcvm/internal/trace"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// Scheduler owns every thread created during a VM run and decides which one
// runs next.
type Scheduler struct {
	clock   vmhost.Clock
	threads []*vmthread.Thread
	current int   // index into threads of the thread that ran last
	nextID  int64 // monotonic id source for threads spawned via java/lang/Thread.start()
}

// New creates a scheduler driven by clock (the host's wall clock, or a
// fake one in tests).
func New(clock vmhost.Clock) *Scheduler {
	return &Scheduler{clock: clock, current: -1, nextID: 1}
}

// Spawn registers a new thread with the scheduler.
func (s *Scheduler) Spawn(t *vmthread.Thread) {
	s.threads = append(s.threads, t)
}

// NewThreadID vends a monotonically increasing id for a thread created by
// java/lang/Thread.start(), distinct from the id the driver assigns its
// initial main thread.
func (s *Scheduler) NewThreadID() int64 {
	s.nextID++
	return s.nextID
}

// Threads returns the live thread table, for diagnostics and native
// Thread.currentThread-style lookups.
func (s *Scheduler) Threads() []*vmthread.Thread { return s.threads }

// promoteTimedWaiting moves any TimedWaiting thread whose wake time has
// elapsed back to Runnable.
func (s *Scheduler) promoteTimedWaiting() {
	now := s.clock.NowMillis()
	for _, t := range s.threads {
		if t.State == vmthread.TimedWaiting && now >= t.WakeAtMillis {
			t.State = vmthread.Runnable
		}
	}
}

// reapFinished drops terminated threads from the table.
func (s *Scheduler) reapFinished() {
	live := s.threads[:0]
	for _, t := range s.threads {
		if t.State != vmthread.Terminated {
			live = append(live, t)
		}
	}
	s.threads = live
}

// Next selects the next runnable thread in round-robin order, starting just
// after the one that ran last. Returns nil if no thread is runnable (every
// live thread is waiting/timed-waiting, or the table is empty).
func (s *Scheduler) Next() *vmthread.Thread {
	s.reapFinished()
	s.promoteTimedWaiting()
	n := len(s.threads)
	if n == 0 {
		return nil
	}
	for i := 1; i <= n; i++ {
		idx := (s.current + i) % n
		if s.threads[idx].State == vmthread.Runnable {
			s.current = idx
			return s.threads[idx]
		}
	}
	return nil
}

// AllTerminated reports whether every thread has terminated, the scheduler's
// loop-exit condition.
func (s *Scheduler) AllTerminated() bool {
	for _, t := range s.threads {
		if t.State != vmthread.Terminated {
			return false
		}
	}
	return true
}

// Notify wakes one waiting thread blocked on monitorHandle; which one is
// unspecified beyond "some thread waiting on this monitor", so the first
// match in thread-table order is used.
func (s *Scheduler) Notify(monitorHandle int32) {
	for _, t := range s.threads {
		if t.State == vmthread.Waiting && t.MonitorObject == monitorHandle {
			t.State = vmthread.Runnable
			trace.Trace("scheduler: notify woke thread")
			return
		}
	}
}

// NotifyAll wakes every thread waiting on monitorHandle.
func (s *Scheduler) NotifyAll(monitorHandle int32) {
	for _, t := range s.threads {
		if t.State == vmthread.Waiting && t.MonitorObject == monitorHandle {
			t.State = vmthread.Runnable
		}
	}
}

// Sleep puts the current thread into TimedWaiting until durationMillis from
// now.
func (s *Scheduler) Sleep(t *vmthread.Thread, durationMillis int64) {
	t.State = vmthread.TimedWaiting
	t.WakeAtMillis = s.clock.NowMillis() + durationMillis
}

// Wait suspends t on monitorHandle indefinitely, until a matching Notify.
func (s *Scheduler) Wait(t *vmthread.Thread, monitorHandle int32) {
	t.State = vmthread.Waiting
	t.MonitorObject = monitorHandle
}
