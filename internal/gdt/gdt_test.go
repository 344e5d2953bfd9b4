package gdt

import "testing"

func TestNewSetsTSSKernelStack(t *testing.T) {
	table := New(0x90000)
	if table.TSS.Esp0 != 0x90000 {
		t.Fatalf("expected esp0 0x90000, got %#x", table.TSS.Esp0)
	}
	if table.TSS.Ss0 != 0x10 {
		t.Fatalf("expected ss0 0x10 (kernel data selector), got %#x", table.TSS.Ss0)
	}
}

func TestDescriptorCount(t *testing.T) {
	table := New(0)
	if len(table.Descriptors) != 6 {
		t.Fatalf("expected 6 descriptors, got %d", len(table.Descriptors))
	}
}

func TestEncodeRawPageGranular(t *testing.T) {
	raw := EncodeRaw(Descriptor_t{Base: 0, Limit: limit4GiB, Type: accessKernelCode, Page: true})
	if raw[5] != accessKernelCode {
		t.Fatalf("expected access byte preserved, got %#x", raw[5])
	}
	if raw[6]&0xc0 != 0xc0 {
		t.Fatalf("expected G=1 D/B=1 in high flags, got %#x", raw[6])
	}
}
