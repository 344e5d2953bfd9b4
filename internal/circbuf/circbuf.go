// Package circbuf implements the fixed-capacity ring buffer behind the
// keyboard driver (spec.md §4.4, "keyboard buffer"). It is grounded in
// the teacher's circbuf.Circbuf_t -- the same head/tail-modulo-capacity
// indexing and Full/Empty predicates -- simplified to a single statically
// sized byte-array buffer (no lazy page allocation, no Page_i indirection)
// since this kernel's keyboard buffer is fixed size and always present.
package circbuf

import "github.com/RyanStan/ConiferOS/internal/klog"

// Circbuf_t is a single-producer/single-consumer ring buffer. It is not
// safe for concurrent use.
type Circbuf_t struct {
	buf  []byte
	head int
	tail int
}

// New allocates a ring buffer with the given capacity.
func New(capacity int) *Circbuf_t {
	return &Circbuf_t{buf: make([]byte, capacity)}
}

// Full reports whether the buffer cannot accept more data.
func (cb *Circbuf_t) Full() bool {
	return cb.head-cb.tail == len(cb.buf)
}

// Empty reports whether the buffer holds no data. head==tail always means
// empty, never full -- Full is detected by the head/tail distance
// reaching capacity, not by index equality.
func (cb *Circbuf_t) Empty() bool {
	return cb.head == cb.tail
}

// Used returns the number of bytes currently buffered.
func (cb *Circbuf_t) Used() int {
	return cb.head - cb.tail
}

// Push enqueues b. A push against a full buffer is dropped and logged
// rather than blocking, matching the keyboard ISR's discipline of never
// blocking (spec.md §5 "the push is dropped with a logged error").
func (cb *Circbuf_t) Push(b byte) {
	if cb.Full() {
		klog.Default().Warn("circbuf: push dropped, buffer full", "capacity", len(cb.buf))
		return
	}
	cb.buf[cb.head%len(cb.buf)] = b
	cb.head++
}

// Pop dequeues the oldest byte. ok is false if the buffer was empty.
func (cb *Circbuf_t) Pop() (b byte, ok bool) {
	if cb.Empty() {
		return 0, false
	}
	b = cb.buf[cb.tail%len(cb.buf)]
	cb.tail++
	return b, true
}
