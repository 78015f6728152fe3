package scheduler

import (
	"testing"

	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// fakeClock gives scheduler tests a controllable wall clock instead of
// depending on wall-clock timing, since wake-time comparisons need to be
// deterministic to test.
type fakeClock struct{ now int64 }

func (c *fakeClock) NowMillis() int64 { return c.now }

func TestNextRoundRobin(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	b := vmthread.New(2)
	c := vmthread.New(3)
	s.Spawn(a)
	s.Spawn(b)
	s.Spawn(c)

	first := s.Next()
	second := s.Next()
	third := s.Next()
	fourth := s.Next()
	if first != a || second != b || third != c {
		t.Fatalf("expected round-robin order a,b,c; got %v,%v,%v", first.ID, second.ID, third.ID)
	}
	if fourth != a {
		t.Fatalf("round-robin should wrap back to the first thread, got id %d", fourth.ID)
	}
}

func TestNextSkipsNonRunnable(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	b := vmthread.New(2)
	b.State = vmthread.Waiting
	s.Spawn(a)
	s.Spawn(b)

	for i := 0; i < 3; i++ {
		if got := s.Next(); got != a {
			t.Fatalf("iteration %d: Next() = %v, want thread a (b is waiting)", i, got)
		}
	}
}

func TestNextReturnsNilWhenNoneRunnable(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	a.State = vmthread.Waiting
	s.Spawn(a)
	if got := s.Next(); got != nil {
		t.Fatalf("Next() = %v, want nil when every thread is waiting", got)
	}
}

func TestSleepAndPromotion(t *testing.T) {
	clock := &fakeClock{now: 1000}
	s := New(clock)
	a := vmthread.New(1)
	s.Spawn(a)

	s.Sleep(a, 50)
	if a.State != vmthread.TimedWaiting {
		t.Fatalf("State after Sleep = %v, want TimedWaiting", a.State)
	}
	if s.Next() != nil {
		t.Fatal("Next() should return nil while the only thread is still sleeping")
	}

	clock.now = 1049
	if s.Next() != nil {
		t.Fatal("thread should still be asleep one millisecond before its wake time")
	}
	clock.now = 1050
	if got := s.Next(); got != a {
		t.Fatal("thread should be promoted back to Runnable once its wake time elapses")
	}
}

func TestNotifyWakesOneWaiter(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	b := vmthread.New(2)
	s.Spawn(a)
	s.Spawn(b)
	s.Wait(a, 42)
	s.Wait(b, 42)

	s.Notify(42)
	woken := 0
	for _, th := range []*vmthread.Thread{a, b} {
		if th.State == vmthread.Runnable {
			woken++
		}
	}
	if woken != 1 {
		t.Fatalf("Notify should wake exactly one waiter, woke %d", woken)
	}
}

func TestNotifyAllWakesEveryWaiter(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	b := vmthread.New(2)
	s.Spawn(a)
	s.Spawn(b)
	s.Wait(a, 7)
	s.Wait(b, 7)

	s.NotifyAll(7)
	if a.State != vmthread.Runnable || b.State != vmthread.Runnable {
		t.Fatal("NotifyAll should wake every thread waiting on the monitor")
	}
}

func TestAllTerminated(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	s.Spawn(a)
	if s.AllTerminated() {
		t.Fatal("AllTerminated() should be false while a thread is still runnable")
	}
	a.State = vmthread.Terminated
	if !s.AllTerminated() {
		t.Fatal("AllTerminated() should be true once every thread is terminated")
	}
}

func TestReapFinishedDropsTerminatedThreads(t *testing.T) {
	s := New(&fakeClock{})
	a := vmthread.New(1)
	b := vmthread.New(2)
	s.Spawn(a)
	s.Spawn(b)
	a.State = vmthread.Terminated

	s.Next() // triggers reapFinished as a side effect
	if len(s.Threads()) != 1 || s.Threads()[0] != b {
		t.Fatalf("expected only thread b to remain, got %v", s.Threads())
	}
}

func TestNewThreadIDDistinctFromMainThread(t *testing.T) {
	s := New(&fakeClock{})
	id := s.NewThreadID()
	if id == 1 {
		t.Fatal("NewThreadID must never collide with the hardcoded main-thread id 1")
	}
	if second := s.NewThreadID(); second == id {
		t.Fatal("NewThreadID should vend distinct ids on each call")
	}
}
