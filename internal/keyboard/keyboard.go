// Package keyboard decodes PS/2 scancodes into ASCII and enqueues them
// into the current process's ring buffer (spec.md §1, "PS/2 keyboard
// ISR ... exposes push_scancode(u8) which decodes to ASCII and enqueues
// into the current process's key buffer"). The ISR itself is an external
// collaborator; this package is the decode+enqueue half the kernel
// owns, kept free of any terminal or OS dependency -- only
// cmd/coniferos wires a real input source (golang.org/x/term) to it.
package keyboard

import "github.com/RyanStan/ConiferOS/internal/circbuf"

// scancodeSet1 is a minimal US-QWERTY set-1 make-code table covering
// the keys needed to type shell commands; unmapped codes decode to 0
// and are not enqueued.
var scancodeSet1 = map[byte]byte{
	0x1e: 'a', 0x30: 'b', 0x2e: 'c', 0x20: 'd', 0x12: 'e',
	0x21: 'f', 0x22: 'g', 0x23: 'h', 0x17: 'i', 0x24: 'j',
	0x25: 'k', 0x26: 'l', 0x32: 'm', 0x31: 'n', 0x18: 'o',
	0x19: 'p', 0x10: 'q', 0x13: 'r', 0x1f: 's', 0x14: 't',
	0x16: 'u', 0x2f: 'v', 0x11: 'w', 0x2d: 'x', 0x15: 'y',
	0x2c: 'z', 0x39: ' ', 0x1c: '\n', 0x0e: 0x08,
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0a: '9', 0x0b: '0',
}

const releaseBit = 0x80

// Decode maps a scancode to its ASCII value. ok is false for key-release
// codes (high bit set) and unmapped make codes.
func Decode(scancode byte) (ch byte, ok bool) {
	if scancode&releaseBit != 0 {
		return 0, false
	}
	ch, known := scancodeSet1[scancode]
	return ch, known
}

// PushScancode decodes scancode and, if it maps to a printable key or
// control code, pushes it onto buf. buf is the current process's
// keyboard buffer; the caller is responsible for routing to whichever
// process is current.
func PushScancode(buf *circbuf.Circbuf_t, scancode byte) {
	ch, ok := Decode(scancode)
	if !ok {
		return
	}
	buf.Push(ch)
}
