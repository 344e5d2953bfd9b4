package keyboard

import (
	"testing"

	"github.com/RyanStan/ConiferOS/internal/circbuf"
)

func TestPushScancodeDecodesMakeCode(t *testing.T) {
	buf := circbuf.New(8)
	PushScancode(buf, 0x1e) // 'a' make code
	b, ok := buf.Pop()
	if !ok || b != 'a' {
		t.Fatalf("expected 'a', got %q (ok=%v)", b, ok)
	}
}

func TestPushScancodeIgnoresReleaseCode(t *testing.T) {
	buf := circbuf.New(8)
	PushScancode(buf, 0x1e|releaseBit)
	if !buf.Empty() {
		t.Fatal("expected release code to be ignored")
	}
}

func TestPushScancodeIgnoresUnmapped(t *testing.T) {
	buf := circbuf.New(8)
	PushScancode(buf, 0xff)
	if !buf.Empty() {
		t.Fatal("expected unmapped scancode to be ignored")
	}
}
