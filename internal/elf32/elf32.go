// Package elf32 classifies and parses the 32-bit ELF executables this
// kernel can load (spec.md §4.3 step 1-2). It is grounded in the
// teacher's chentry.go, which also parses ELF headers by hand at boot
// rather than through the host toolchain's debug/elf (that package
// assumes a runnable host binary and a seekable file, neither of which
// fits a kernel reading an in-memory disk buffer), reading fixed-offset
// fields directly with encoding/binary the way chentry.go does.
package elf32

import (
	"encoding/binary"

	"github.com/RyanStan/ConiferOS/internal/defs"
)

const (
	classNone  = 0
	class32    = 1
	dataNone   = 0
	data2LSB   = 1
	etExec     = 2
	ptLoad     = 1
	magic0     = 0x7f
	ehdrSize   = 52
	phdrSize   = 32
	identClass = 4
	identData  = 5
)

// ProgramHeader_t mirrors Elf32_Phdr.
type ProgramHeader_t struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

const (
	PF_X uint32 = 1 << 0
	PF_W uint32 = 1 << 1
	PF_R uint32 = 1 << 2
)

// File_t is a classified, parsed ELF32 executable.
type File_t struct {
	Entry    uint32
	Programs []ProgramHeader_t
}

// Looks reports whether buf opens with the ELF magic bytes, the cheap
// first check process_load uses to decide whether to attempt a full
// parse before falling back to BINARY.
func Looks(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == magic0 && buf[1] == 'E' && buf[2] == 'L' && buf[3] == 'F'
}

// Parse validates and parses buf as an ELF32 ET_EXEC executable,
// rejecting anything that does not match the closed set of formats
// spec.md §4.3 accepts: ELFCLASS32 (or NONE), ELFDATA2LSB (or NONE),
// ET_EXEC, with a non-zero program header offset.
func Parse(buf []byte) (*File_t, defs.Err_t) {
	if !Looks(buf) || len(buf) < ehdrSize {
		return nil, defs.EINVALFORMAT
	}
	class := buf[identClass]
	if class != classNone && class != class32 {
		return nil, defs.EINVALFORMAT
	}
	data := buf[identData]
	if data != dataNone && data != data2LSB {
		return nil, defs.EINVALFORMAT
	}
	etype := binary.LittleEndian.Uint16(buf[16:18])
	if etype != etExec {
		return nil, defs.EINVALFORMAT
	}
	phoff := binary.LittleEndian.Uint32(buf[28:32])
	if phoff == 0 {
		return nil, defs.EINVALFORMAT
	}
	entry := binary.LittleEndian.Uint32(buf[24:28])
	phentsize := binary.LittleEndian.Uint16(buf[42:44])
	phnum := binary.LittleEndian.Uint16(buf[44:46])
	if phentsize == 0 {
		phentsize = phdrSize
	}

	f := &File_t{Entry: entry}
	for i := 0; i < int(phnum); i++ {
		start := int(phoff) + i*int(phentsize)
		if start+phdrSize > len(buf) {
			return nil, defs.EINVALFORMAT
		}
		ph := buf[start : start+phdrSize]
		f.Programs = append(f.Programs, ProgramHeader_t{
			Type:   binary.LittleEndian.Uint32(ph[0:4]),
			Offset: binary.LittleEndian.Uint32(ph[4:8]),
			Vaddr:  binary.LittleEndian.Uint32(ph[8:12]),
			Paddr:  binary.LittleEndian.Uint32(ph[12:16]),
			Filesz: binary.LittleEndian.Uint32(ph[16:20]),
			Memsz:  binary.LittleEndian.Uint32(ph[20:24]),
			Flags:  binary.LittleEndian.Uint32(ph[24:28]),
			Align:  binary.LittleEndian.Uint32(ph[28:32]),
		})
	}
	return f, 0
}

// Loadable returns only the PT_LOAD segments, the only ones
// process_load honors.
func (f *File_t) Loadable() []ProgramHeader_t {
	var out []ProgramHeader_t
	for _, p := range f.Programs {
		if p.Type == ptLoad {
			out = append(out, p)
		}
	}
	return out
}

// VirtRange returns the covering [virt_base, virt_end) range across all
// PT_LOAD segments.
func (f *File_t) VirtRange() (base, end uint32) {
	first := true
	for _, p := range f.Loadable() {
		if first {
			base = p.Vaddr
			end = p.Vaddr + p.Memsz
			first = false
			continue
		}
		if p.Vaddr < base {
			base = p.Vaddr
		}
		if p.Vaddr+p.Memsz > end {
			end = p.Vaddr + p.Memsz
		}
	}
	return base, end
}
