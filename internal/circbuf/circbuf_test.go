package circbuf

import "testing"

func TestEmptyInitially(t *testing.T) {
	cb := New(4)
	if !cb.Empty() {
		t.Fatal("expected new buffer empty")
	}
	if _, ok := cb.Pop(); ok {
		t.Fatal("pop on empty buffer should fail")
	}
}

func TestPushPopOrder(t *testing.T) {
	cb := New(4)
	cb.Push('a')
	cb.Push('b')
	if b, _ := cb.Pop(); b != 'a' {
		t.Fatalf("expected 'a', got %q", b)
	}
	if b, _ := cb.Pop(); b != 'b' {
		t.Fatalf("expected 'b', got %q", b)
	}
	if !cb.Empty() {
		t.Fatal("expected empty after draining")
	}
}

func TestFullDropsPush(t *testing.T) {
	cb := New(2)
	cb.Push('a')
	cb.Push('b')
	if !cb.Full() {
		t.Fatal("expected full at capacity")
	}
	cb.Push('c') // dropped
	b, _ := cb.Pop()
	if b != 'a' {
		t.Fatalf("expected 'a' survived, got %q", b)
	}
	b, _ = cb.Pop()
	if b != 'b' {
		t.Fatalf("expected 'b' survived, got %q", b)
	}
}

func TestWraparound(t *testing.T) {
	cb := New(3)
	cb.Push(1)
	cb.Push(2)
	cb.Pop()
	cb.Push(3)
	cb.Push(4)
	want := []byte{2, 3, 4}
	for _, w := range want {
		b, ok := cb.Pop()
		if !ok || b != w {
			t.Fatalf("expected %d, got %d (ok=%v)", w, b, ok)
		}
	}
}
