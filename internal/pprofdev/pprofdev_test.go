package pprofdev

import (
	"testing"

	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/mem"
)

func TestSnapshotReportsLiveAllocations(t *testing.T) {
	phys := mem.NewPhysmem(0, 8*mem.PGSIZE)
	h, err := heap.New(phys, 0, 8*mem.PGSIZE)
	if err != 0 {
		t.Fatalf("heap.New: %v", err)
	}
	if _, err := h.Alloc(mem.PGSIZE * 2); err != 0 {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := h.Alloc(mem.PGSIZE); err != 0 {
		t.Fatalf("Alloc: %v", err)
	}

	p := Snapshot(h)
	if len(p.Sample) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(p.Sample))
	}
	if p.Sample[0].Value[0] != int64(2*mem.PGSIZE) {
		t.Fatalf("expected first sample to cover 2 blocks, got %d", p.Sample[0].Value[0])
	}
	if p.Sample[1].Value[0] != int64(mem.PGSIZE) {
		t.Fatalf("expected second sample to cover 1 block, got %d", p.Sample[1].Value[0])
	}
}

func TestSnapshotSkipsFreeBlocks(t *testing.T) {
	phys := mem.NewPhysmem(0, 4*mem.PGSIZE)
	h, err := heap.New(phys, 0, 4*mem.PGSIZE)
	if err != 0 {
		t.Fatalf("heap.New: %v", err)
	}
	p := Snapshot(h)
	if len(p.Sample) != 0 {
		t.Fatalf("expected no samples on an empty heap, got %d", len(p.Sample))
	}
}

func TestServeProducesNonEmptyPayload(t *testing.T) {
	phys := mem.NewPhysmem(0, 4*mem.PGSIZE)
	h, err := heap.New(phys, 0, 4*mem.PGSIZE)
	if err != 0 {
		t.Fatalf("heap.New: %v", err)
	}
	if _, err := h.Alloc(mem.PGSIZE); err != 0 {
		t.Fatalf("Alloc: %v", err)
	}
	payload, werr := Serve(h)
	if werr != nil {
		t.Fatalf("Serve: %v", werr)
	}
	if len(payload) == 0 {
		t.Fatal("expected non-empty gzip'd profile payload")
	}
}
