package frame

import (
	"testing"

	"github.com/jacobin-style/cldcvm/internal/classfile"
	"github.com/jacobin-style/cldcvm/internal/types"
)

func newTestFrame(maxStack, maxLocals int) *Frame {
	code := &classfile.CodeAttribute{MaxStack: maxStack, MaxLocals: maxLocals, Code: []byte{0}}
	return New("Sample", "run", "()V", nil, code)
}

func TestPushPopOrder(t *testing.T) {
	f := newTestFrame(4, 0)
	f.Push(types.Int(1))
	f.Push(types.Int(2))
	f.Push(types.Int(3))
	if got := f.Pop().I; got != 3 {
		t.Errorf("Pop() = %d, want 3 (LIFO order)", got)
	}
	if got := f.Pop().I; got != 2 {
		t.Errorf("Pop() = %d, want 2", got)
	}
	if f.StackDepth() != 1 {
		t.Errorf("StackDepth() = %d, want 1", f.StackDepth())
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	f := newTestFrame(2, 0)
	f.Push(types.Int(9))
	if got := f.Peek().I; got != 9 {
		t.Errorf("Peek() = %d, want 9", got)
	}
	if f.StackDepth() != 1 {
		t.Error("Peek() must not change stack depth")
	}
}

func TestClearStack(t *testing.T) {
	f := newTestFrame(4, 0)
	f.Push(types.Int(1))
	f.Push(types.Int(2))
	f.ClearStack()
	if f.StackDepth() != 0 {
		t.Fatalf("StackDepth() after ClearStack() = %d, want 0", f.StackDepth())
	}
	f.Push(types.Ref(5))
	if got := f.Pop().Ref; got != 5 {
		t.Errorf("push after ClearStack should behave normally, got %d", got)
	}
}

func TestPopUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Pop on an empty stack should panic")
		}
	}()
	f := newTestFrame(2, 0)
	f.Pop()
}

func TestLocalsSizedFromCode(t *testing.T) {
	f := newTestFrame(1, 3)
	if len(f.Locals) != 3 {
		t.Fatalf("len(Locals) = %d, want 3", len(f.Locals))
	}
	f.Locals[2] = types.Long(100)
	if f.Locals[2].L != 100 {
		t.Error("local slot did not retain the stored value")
	}
}
