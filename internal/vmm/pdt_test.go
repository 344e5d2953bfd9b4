package vmm

import (
	"testing"

	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/mem"
)

func newTestSpace(t *testing.T) (*AddressSpace_t, *heap.Heap_t, *mem.Physmem_t) {
	t.Helper()
	// one page directory + 1024 page tables = 1025 pages per address
	// space; room for two of them (TestActivateTracksCurrent builds a
	// second) plus headroom for the small allocations the tests make on
	// top.
	size := (2*1025 + 16) * mem.PGSIZE
	phys := mem.NewPhysmem(0, size)
	h, err := heap.New(phys, 0, size)
	if err != 0 {
		t.Fatalf("heap.New: %v", err)
	}
	as, err := New(h, phys, mem.PTE_P|mem.PTE_RW)
	if err != 0 {
		t.Fatalf("New: %v", err)
	}
	return as, h, phys
}

func TestIdentityMapReadPTE(t *testing.T) {
	as, _, _ := newTestSpace(t)
	raw, err := as.ReadPTE(0x2000)
	if err != 0 {
		t.Fatalf("ReadPTE: %v", err)
	}
	if mem.Pa_t(raw)&mem.PTEADDR != 0x2000 {
		t.Fatalf("expected identity map, got %#x", raw)
	}
	if mem.Pa_t(raw)&mem.PTE_P == 0 {
		t.Fatal("expected present bit set")
	}
}

// TestMapPageReadPTERoundTrip covers spec.md §8 invariant 3: mapping a
// page and reading it back yields the same physical address and flags.
func TestMapPageReadPTERoundTrip(t *testing.T) {
	as, h, _ := newTestSpace(t)
	target, err := h.ZeroAlloc(mem.PGSIZE)
	if err != 0 {
		t.Fatalf("ZeroAlloc: %v", err)
	}
	vaddr := uint32(0x400000)
	flags := mem.PTE_P | mem.PTE_RW | mem.PTE_US
	if err := as.MapPage(vaddr, uint32(target), flags); err != 0 {
		t.Fatalf("MapPage: %v", err)
	}
	raw, err := as.ReadPTE(vaddr)
	if err != 0 {
		t.Fatalf("ReadPTE: %v", err)
	}
	if mem.Pa_t(raw)&mem.PTEADDR != target {
		t.Fatalf("expected paddr %#x, got %#x", target, mem.Pa_t(raw)&mem.PTEADDR)
	}
	if mem.Pa_t(raw)&(mem.PTE_P|mem.PTE_RW|mem.PTE_US) != flags {
		t.Fatalf("flags lost, got %#x", raw)
	}
}

func TestMapRangeAndTranslate(t *testing.T) {
	as, h, _ := newTestSpace(t)
	target, err := h.ZeroAlloc(3 * mem.PGSIZE)
	if err != 0 {
		t.Fatalf("ZeroAlloc: %v", err)
	}
	vaddr := uint32(0x800000)
	flags := mem.PTE_P | mem.PTE_RW
	if err := as.MapRange(vaddr, uint32(target), 3, flags); err != 0 {
		t.Fatalf("MapRange: %v", err)
	}
	pa, err := as.Translate(vaddr + uint32(mem.PGSIZE) + 0x10)
	if err != 0 {
		t.Fatalf("Translate: %v", err)
	}
	if pa != target+mem.Pa_t(mem.PGSIZE)+0x10 {
		t.Fatalf("expected %#x, got %#x", target+mem.Pa_t(mem.PGSIZE)+0x10, pa)
	}
}

func TestTranslateNotPresent(t *testing.T) {
	as, _, _ := newTestSpace(t)
	if err := as.WritePTERaw(0x1000, 0); err != 0 {
		t.Fatalf("WritePTERaw: %v", err)
	}
	if _, err := as.Translate(0x1000); err == 0 {
		t.Fatal("expected failure translating a not-present page")
	}
}

func TestMapPageRejectsUnaligned(t *testing.T) {
	as, _, _ := newTestSpace(t)
	if err := as.MapPage(0x1001, 0x2000, mem.PTE_P); err == 0 {
		t.Fatal("expected EINVARG for unaligned vaddr")
	}
	if err := as.MapPage(0x1000, 0x2001, mem.PTE_P); err == 0 {
		t.Fatal("expected EINVARG for unaligned paddr")
	}
}

func TestActivateTracksCurrent(t *testing.T) {
	as1, h, phys := newTestSpace(t)
	as2, err := New(h, phys, mem.PTE_P|mem.PTE_RW)
	if err != 0 {
		t.Fatalf("New as2: %v", err)
	}
	var cpu CPU_t
	cpu.Activate(as1)
	if cpu.Current != as1 {
		t.Fatal("expected as1 active")
	}
	cpu.Activate(as2)
	if cpu.Current != as2 {
		t.Fatal("expected as2 active")
	}
}
