// Package mem models the kernel's view of physical memory: a flat,
// byte-addressable slab standing in for RAM, plus the page-size and PTE
// flag constants the VM manager and heap allocator share. It mirrors the
// teacher's mem package (Pa_t physical addresses, PTE_* flag constants,
// Dmap-style translation) simplified to this kernel's 32-bit, two-level,
// non-paged-out design: no reference counting, no copy-on-write.
package mem

import "github.com/RyanStan/ConiferOS/internal/util"

// Pa_t is a physical address. The teacher uses the same narrow type to
// keep physical and virtual addresses from being mixed up by accident.
type Pa_t uint32

const (
	PGSHIFT  uint  = 12
	PGSIZE   int   = 1 << PGSHIFT
	PGOFFSET Pa_t  = 0xfff
	PGMASK   Pa_t  = ^PGOFFSET
	PTEADDR  Pa_t  = PGMASK
)

// Page table entry flag bits, low 12 bits of every PDE/PTE (spec.md §3).
const (
	PTE_P   Pa_t = 1 << 0 // present
	PTE_RW  Pa_t = 1 << 1 // read/write
	PTE_US  Pa_t = 1 << 2 // user/supervisor
	PTE_PWT Pa_t = 1 << 3 // page write-through
	PTE_PCD Pa_t = 1 << 4 // cache-disable
	PTE_A   Pa_t = 1 << 5 // accessed
	PTE_D   Pa_t = 1 << 6 // dirty
)

// Aligned reports whether addr is 4 KiB aligned. Every public VM
// operation requires aligned inputs (spec.md §4.1).
func Aligned(addr uint32) bool {
	return addr%uint32(PGSIZE) == 0
}

// Roundup4k rounds v up to the next page boundary.
func Roundup4k(v int) int {
	return util.Roundup(v, PGSIZE)
}

// Rounddown4k rounds v down to the previous page boundary.
func Rounddown4k(v int) int {
	return util.Rounddown(v, PGSIZE)
}

// Physmem_t is the kernel's simulated physical RAM: a single contiguous
// byte slab addressed by Pa_t. The heap allocator carves blocks out of
// it; the VM manager's page directories and tables live inside it too,
// just like the teacher's page tables are ordinary heap-backed memory
// viewed through Pmap_t.
type Physmem_t struct {
	Bytes []byte
	Base  Pa_t // physical address the slab's byte 0 corresponds to
}

// NewPhysmem allocates a simulated RAM slab of size bytes starting at
// physical address base.
func NewPhysmem(base Pa_t, size int) *Physmem_t {
	return &Physmem_t{Bytes: make([]byte, size), Base: base}
}

// Slice returns the byte slice backing the n-byte region starting at
// physical address pa. It panics if the region is out of range, matching the
// teacher's Dmap, which also panics ("direct map not large enough") on
// out-of-range translation rather than returning an error -- physical
// addresses handed around the kernel are always ones it allocated
// itself.
func (p *Physmem_t) Slice(pa Pa_t, n int) []byte {
	off := int(pa - p.Base)
	if off < 0 || off+n > len(p.Bytes) {
		panic("physmem: address out of range")
	}
	return p.Bytes[off : off+n]
}

// Contains reports whether pa lies within the simulated slab.
func (p *Physmem_t) Contains(pa Pa_t) bool {
	off := int64(pa) - int64(p.Base)
	return off >= 0 && off < int64(len(p.Bytes))
}

// End returns the physical address one past the end of the slab.
func (p *Physmem_t) End() Pa_t {
	return p.Base + Pa_t(len(p.Bytes))
}
