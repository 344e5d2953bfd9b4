// Package heap implements the kernel's block-bitmap allocator: the sole
// dynamic allocator backing page tables, process structures, and (per
// spec.md §5/§9) user malloc/free. Grounded in
// original_source/src/memory/heap/heap.c, carried over algorithm for
// algorithm: first-fit scan over a byte-per-block bitmap.
package heap

import (
	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/mem"
)

// Entry bit layout (spec.md §3): low nibble is FREE/TAKEN, high bits
// mark IS_FIRST and HAS_NEXT.
const (
	entryFree  byte = 0x00
	entryTaken byte = 0x01

	entryTypeMask byte = 0x0f

	IsFirst byte = 0b01000000
	HasNext byte = 0b10000000
)

// Heap_t is a contiguous region of physical memory plus a one-byte-per-block
// bitmap table describing which 4 KiB blocks are taken.
type Heap_t struct {
	phys    *mem.Physmem_t
	start   mem.Pa_t
	entries []byte
}

// New carves a heap out of phys starting at addr, sized size bytes.
// addr and size must be block (4 KiB) aligned, otherwise New fails with
// EINVARG; size must exactly divide into HeapBlockSize multiples,
// matching heap_valid_alignment/heap_valid_table in the source.
func New(phys *mem.Physmem_t, addr mem.Pa_t, size int) (*Heap_t, defs.Err_t) {
	if uint32(addr)%uint32(mem.PGSIZE) != 0 || size%mem.PGSIZE != 0 {
		return nil, defs.EINVARG
	}
	totalBlocks := size / mem.PGSIZE
	h := &Heap_t{
		phys:    phys,
		start:   addr,
		entries: make([]byte, totalBlocks),
	}
	for i := range h.entries {
		h.entries[i] = entryFree
	}
	return h, 0
}

// TotalBlocks returns the number of 4 KiB blocks the heap manages.
func (h *Heap_t) TotalBlocks() int {
	return len(h.entries)
}

func entryType(e byte) byte {
	return e & entryTypeMask
}

// blockToAddr computes the start address of block i.
func (h *Heap_t) blockToAddr(i int) mem.Pa_t {
	return h.start + mem.Pa_t(i*mem.PGSIZE)
}

// addrToBlock computes the block index containing addr.
func (h *Heap_t) addrToBlock(addr mem.Pa_t) int {
	return int(addr-h.start) / mem.PGSIZE
}

// startBlockIndex scans the bitmap for the first free run of
// totalBlocks contiguous blocks (first-fit), mirroring
// heap_get_start_block_index.
func (h *Heap_t) startBlockIndex(totalBlocks int) int {
	bs := -1
	bc := 0
	for i, e := range h.entries {
		if entryType(e) != entryFree {
			bc = 0
			bs = -1
			continue
		}
		if bs == -1 {
			bs = i
		}
		bc++
		if bc == totalBlocks {
			return bs
		}
	}
	return -1
}

func (h *Heap_t) markTaken(start, total int) {
	end := start + total - 1
	entry := entryTaken | IsFirst
	if total > 1 {
		entry |= HasNext
	}
	for i := start; i <= end; i++ {
		h.entries[i] = entry
		entry = entryTaken
		if i != end-1 {
			entry |= HasNext
		}
	}
}

func (h *Heap_t) markFree(start int) {
	for i := start; i < len(h.entries); i++ {
		entry := h.entries[i]
		h.entries[i] = entryFree
		if entry&HasNext == 0 {
			break
		}
	}
}

// Alloc reserves a contiguous run of blocks covering at least nbytes
// and returns the physical address of the first block. It fails with
// ENOMEM if no run of that size is free.
func (h *Heap_t) Alloc(nbytes int) (mem.Pa_t, defs.Err_t) {
	if nbytes <= 0 {
		return 0, defs.EINVARG
	}
	totalBlocks := mem.Roundup4k(nbytes) / mem.PGSIZE
	start := h.startBlockIndex(totalBlocks)
	if start < 0 {
		return 0, defs.ENOMEM
	}
	h.markTaken(start, totalBlocks)
	return h.blockToAddr(start), 0
}

// ZeroAlloc allocates nbytes and zeroes the resulting range.
func (h *Heap_t) ZeroAlloc(nbytes int) (mem.Pa_t, defs.Err_t) {
	addr, err := h.Alloc(nbytes)
	if err != 0 {
		return 0, err
	}
	totalBlocks := mem.Roundup4k(nbytes) / mem.PGSIZE
	buf := h.phys.Slice(addr, totalBlocks*mem.PGSIZE)
	for i := range buf {
		buf[i] = 0
	}
	return addr, 0
}

// Free releases the allocation starting at ptr. Freeing an address that
// is not the first block of a live allocation is undefined, same as the
// source (it simply walks forward clearing HAS_NEXT-linked entries).
func (h *Heap_t) Free(ptr mem.Pa_t) {
	h.markFree(h.addrToBlock(ptr))
}

// BlockTaken reports whether block i is currently allocated, used by
// tests asserting the bitmap invariants in spec.md §8.
func (h *Heap_t) BlockTaken(i int) bool {
	return entryType(h.entries[i]) == entryTaken
}

// EntryFlags exposes the raw bitmap entry for block i for invariant
// checks (IsFirst/HasNext bits).
func (h *Heap_t) EntryFlags(i int) byte {
	return h.entries[i]
}

// SnapshotBitmap returns a copy of the bitmap table, used by tests that
// assert alloc+free round-trips restore byte-identical state
// (spec.md §8 invariant 2).
func (h *Heap_t) SnapshotBitmap() []byte {
	cp := make([]byte, len(h.entries))
	copy(cp, h.entries)
	return cp
}
