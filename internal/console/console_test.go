package console

import "testing"

func TestWriteStringAdvancesCursor(t *testing.T) {
	c := New()
	c.WriteString("OK\n")
	if string(rune(c.Cell(0, 0)&0xff)) != "O" {
		t.Fatalf("expected 'O' at (0,0), got %q", byte(c.Cell(0, 0)&0xff))
	}
	if byte(c.Cell(0, 1)&0xff) != 'K' {
		t.Fatalf("expected 'K' at (0,1)")
	}
	if c.row != 1 || c.col != 0 {
		t.Fatalf("expected cursor at row 1 col 0 after newline, got (%d,%d)", c.row, c.col)
	}
}

func TestBackspaceOverwritesWithSpace(t *testing.T) {
	c := New()
	c.WriteString("ab")
	c.WriteChar(0x08)
	if c.col != 1 {
		t.Fatalf("expected col 1 after backspace, got %d", c.col)
	}
	if byte(c.Cell(0, 1)&0xff) != ' ' {
		t.Fatalf("expected space at (0,1) after backspace")
	}
}

func TestWrapAtColumnLimit(t *testing.T) {
	c := New()
	for i := 0; i < Cols; i++ {
		c.WriteChar('x')
	}
	if c.row != 1 || c.col != 0 {
		t.Fatalf("expected wrap to next row, got (%d,%d)", c.row, c.col)
	}
}
