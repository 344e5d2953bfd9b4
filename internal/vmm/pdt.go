// Package vmm implements the two-level x86 page table manager described
// in spec.md §4.1: address-space construction, page mapping, and the
// kernel/user page-directory switch. It is grounded in the teacher's
// vm.Vm_t (Pa_t-typed addresses, the address space as an owned object)
// simplified to this kernel's single-CPU, lock-free, flat,
// identity-mapped, non-demand-paged design -- there is no COW, no
// per-page reference counting, and no Vmregion_t: every address space
// owns a full, eagerly built two-level table, exactly as
// original_source/src/memory/paging/paging.c builds it.
package vmm

import (
	"encoding/binary"

	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/mem"
)

const entriesPerTable = 1024

// AddressSpace_t owns one page directory and all 1024 page tables it
// references. Destroying it frees every page table, then the directory
// (spec.md §3).
type AddressSpace_t struct {
	heap *heap.Heap_t
	phys *mem.Physmem_t
	dir  mem.Pa_t
}

func readPTE(phys *mem.Physmem_t, addr mem.Pa_t) mem.Pa_t {
	return mem.Pa_t(binary.LittleEndian.Uint32(phys.Slice(addr, 4)))
}

func writePTE(phys *mem.Physmem_t, addr mem.Pa_t, val mem.Pa_t) {
	binary.LittleEndian.PutUint32(phys.Slice(addr, 4), uint32(val))
}

// New allocates a directory and all 1024 page tables from h, identity-
// mapping the full 4 GiB address range: every PTE carries flags as
// given, and every directory entry carries flags|PTE_RW, matching
// init_page_tables in the source.
func New(h *heap.Heap_t, phys *mem.Physmem_t, flags mem.Pa_t) (*AddressSpace_t, defs.Err_t) {
	dirAddr, err := h.ZeroAlloc(mem.PGSIZE)
	if err != 0 {
		return nil, err
	}
	as := &AddressSpace_t{heap: h, phys: phys, dir: dirAddr}

	offset := uint64(0)
	for i := 0; i < entriesPerTable; i++ {
		tblAddr, err := h.ZeroAlloc(mem.PGSIZE)
		if err != 0 {
			as.Destroy()
			return nil, err
		}
		for b := 0; b < entriesPerTable; b++ {
			pte := mem.Pa_t(offset+uint64(b)*uint64(mem.PGSIZE)) | flags
			writePTE(phys, tblAddr+mem.Pa_t(b*4), pte)
		}
		offset += entriesPerTable * uint64(mem.PGSIZE)
		pde := tblAddr | flags | mem.PTE_RW
		writePTE(phys, dirAddr+mem.Pa_t(i*4), pde)
	}
	return as, 0
}

// DirPaddr returns the physical address of the page directory -- what
// would be loaded into cr3 on activation.
func (as *AddressSpace_t) DirPaddr() mem.Pa_t {
	return as.dir
}

// Phys returns the physical memory this address space's mappings
// resolve into, used by callers translating a virtual address into
// bytes they can read or write.
func (as *AddressSpace_t) Phys() *mem.Physmem_t {
	return as.phys
}

func indexes(vaddr uint32) (dirIdx, tblIdx int, ok bool) {
	if !mem.Aligned(vaddr) {
		return 0, 0, false
	}
	dirIdx = int(vaddr / (entriesPerTable * uint32(mem.PGSIZE)))
	tblIdx = int(vaddr % (entriesPerTable * uint32(mem.PGSIZE)) / uint32(mem.PGSIZE))
	return dirIdx, tblIdx, true
}

func (as *AddressSpace_t) tableAddr(dirIdx int) mem.Pa_t {
	pde := readPTE(as.phys, as.dir+mem.Pa_t(dirIdx*4))
	return pde & mem.PTEADDR
}

// MapPage sets the page-table entry mapping vaddr to paddr|flags. Both
// addresses must be 4 KiB aligned.
func (as *AddressSpace_t) MapPage(vaddr, paddr uint32, flags mem.Pa_t) defs.Err_t {
	if !mem.Aligned(paddr) {
		return defs.EINVARG
	}
	dirIdx, tblIdx, ok := indexes(vaddr)
	if !ok {
		return defs.EINVARG
	}
	tbl := as.tableAddr(dirIdx)
	writePTE(as.phys, tbl+mem.Pa_t(tblIdx*4), mem.Pa_t(paddr)|flags)
	return 0
}

// MapRange repeats MapPage over n contiguous pages.
func (as *AddressSpace_t) MapRange(vaddr, paddr uint32, npages int, flags mem.Pa_t) defs.Err_t {
	for i := 0; i < npages; i++ {
		off := uint32(i * mem.PGSIZE)
		if err := as.MapPage(vaddr+off, paddr+off, flags); err != 0 {
			return err
		}
	}
	return 0
}

// MapPhysicalRange maps the physical range [paddrStart, paddrEnd) at
// vaddr. paddrEnd may be unaligned (rounded up); paddrStart and vaddr
// must be aligned.
func (as *AddressSpace_t) MapPhysicalRange(vaddr, paddrStart, paddrEnd uint32, flags mem.Pa_t) defs.Err_t {
	if !mem.Aligned(paddrStart) {
		return defs.EINVARG
	}
	total := paddrEnd - paddrStart
	npages := (int(total) + mem.PGSIZE - 1) / mem.PGSIZE
	return as.MapRange(vaddr, paddrStart, npages, flags)
}

// ReadPTE returns the raw PTE mapping vaddr. vaddr must be page aligned.
func (as *AddressSpace_t) ReadPTE(vaddr uint32) (uint32, defs.Err_t) {
	dirIdx, tblIdx, ok := indexes(vaddr)
	if !ok {
		return 0, defs.EINVARG
	}
	tbl := as.tableAddr(dirIdx)
	return uint32(readPTE(as.phys, tbl+mem.Pa_t(tblIdx*4))), 0
}

// WritePTERaw installs val verbatim as the PTE mapping vaddr, with no
// alignment check on val and no flags added.
func (as *AddressSpace_t) WritePTERaw(vaddr uint32, val uint32) defs.Err_t {
	dirIdx, tblIdx, ok := indexes(vaddr)
	if !ok {
		return defs.EINVARG
	}
	tbl := as.tableAddr(dirIdx)
	writePTE(as.phys, tbl+mem.Pa_t(tblIdx*4), mem.Pa_t(val))
	return 0
}

// Translate resolves vaddr to a physical address through this address
// space's page tables, failing if the page is not present. vaddr need not
// be page aligned: its offset within the page is carried through.
func (as *AddressSpace_t) Translate(vaddr uint32) (mem.Pa_t, defs.Err_t) {
	raw, err := as.ReadPTE(vaddr &^ uint32(mem.PGOFFSET))
	if err != 0 {
		return 0, err
	}
	pte := mem.Pa_t(raw)
	if pte&mem.PTE_P == 0 {
		return 0, defs.EINVARG
	}
	return (pte & mem.PTEADDR) | mem.Pa_t(vaddr)&mem.PGOFFSET, 0
}

// Destroy frees every page table, then the directory.
func (as *AddressSpace_t) Destroy() {
	for i := 0; i < entriesPerTable; i++ {
		tbl := as.tableAddr(i)
		if tbl != 0 {
			as.heap.Free(tbl)
		}
	}
	as.heap.Free(as.dir)
}

// CPU_t tracks which address space is currently active -- the
// simulation's stand-in for the cr3 register. Activate is the only
// operation that crosses between address spaces (spec.md §4.1).
type CPU_t struct {
	Current *AddressSpace_t
}

// Activate installs as as the current address space.
func (c *CPU_t) Activate(as *AddressSpace_t) {
	c.Current = as
}
