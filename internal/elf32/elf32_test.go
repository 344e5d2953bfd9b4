package elf32

import (
	"encoding/binary"
	"testing"
)

func buildELF(entry, phoff uint32, phdrs []ProgramHeader_t) []byte {
	buf := make([]byte, ehdrSize)
	buf[0], buf[1], buf[2], buf[3] = magic0, 'E', 'L', 'F'
	buf[identClass] = class32
	buf[identData] = data2LSB
	binary.LittleEndian.PutUint16(buf[16:18], etExec)
	binary.LittleEndian.PutUint32(buf[24:28], entry)
	binary.LittleEndian.PutUint32(buf[28:32], phoff)
	binary.LittleEndian.PutUint16(buf[42:44], phdrSize)
	binary.LittleEndian.PutUint16(buf[44:46], uint16(len(phdrs)))

	for len(buf) < int(phoff) {
		buf = append(buf, 0)
	}
	for _, p := range phdrs {
		ph := make([]byte, phdrSize)
		binary.LittleEndian.PutUint32(ph[0:4], p.Type)
		binary.LittleEndian.PutUint32(ph[4:8], p.Offset)
		binary.LittleEndian.PutUint32(ph[8:12], p.Vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], p.Paddr)
		binary.LittleEndian.PutUint32(ph[16:20], p.Filesz)
		binary.LittleEndian.PutUint32(ph[20:24], p.Memsz)
		binary.LittleEndian.PutUint32(ph[24:28], p.Flags)
		binary.LittleEndian.PutUint32(ph[28:32], p.Align)
		buf = append(buf, ph...)
	}
	return buf
}

func TestParseRejectsNonELF(t *testing.T) {
	if Looks([]byte("not an elf")) {
		t.Fatal("expected Looks to reject plain text")
	}
	if _, err := Parse([]byte("not an elf")); err == 0 {
		t.Fatal("expected parse failure on non-ELF input")
	}
}

func TestParseAcceptsExecWithLoad(t *testing.T) {
	buf := buildELF(0x400000, ehdrSize, []ProgramHeader_t{
		{Type: ptLoad, Offset: 0, Vaddr: 0x400000, Filesz: 0x100, Memsz: 0x100, Flags: PF_R | PF_X},
		{Type: 2 /* PT_DYNAMIC, ignored */, Vaddr: 0x500000},
	})
	f, err := Parse(buf)
	if err != 0 {
		t.Fatalf("Parse: %v", err)
	}
	if f.Entry != 0x400000 {
		t.Fatalf("expected entry 0x400000, got %#x", f.Entry)
	}
	load := f.Loadable()
	if len(load) != 1 {
		t.Fatalf("expected 1 PT_LOAD segment, got %d", len(load))
	}
	base, end := f.VirtRange()
	if base != 0x400000 || end != 0x400100 {
		t.Fatalf("unexpected virt range [%#x,%#x)", base, end)
	}
}

func TestParseRejectsZeroPhoff(t *testing.T) {
	buf := buildELF(0x400000, 0, nil)
	if _, err := Parse(buf); err == 0 {
		t.Fatal("expected failure on zero program header offset")
	}
}

func TestParseRejectsNonExecType(t *testing.T) {
	buf := buildELF(0x400000, ehdrSize, nil)
	binary.LittleEndian.PutUint16(buf[16:18], 3) // ET_DYN
	if _, err := Parse(buf); err == 0 {
		t.Fatal("expected failure on non-ET_EXEC type")
	}
}
