// Package gdt builds the kernel's flat GDT and TSS (spec.md §6). It is
// grounded in original_source/src/gdt/gdt.{h,c} for the descriptor field
// layout (base/limit/access byte, encoded to a packed raw form) and
// src/task/tss.h for the TSS field list, simplified to the fields this
// design actually loads (esp0/ss0; everything else stays zero, as
// spec.md §6 requires).
package gdt

import "github.com/RyanStan/ConiferOS/internal/defs"

// Descriptor_t mirrors struct segment_descriptor: a byte-granular
// base/limit plus the raw access-byte type.
type Descriptor_t struct {
	Base  uint32
	Limit uint32
	Type  byte // access byte, encoded exactly as the CPU expects it
	Page  bool // true if Limit is in 4 KiB units rather than bytes
}

// Access byte bit patterns for the six descriptors this kernel needs,
// named after their P|DPL|S|Type fields.
const (
	accessKernelCode = 0x9a // P=1 DPL=0 S=1 code, exec/read
	accessKernelData = 0x92 // P=1 DPL=0 S=1 data, read/write
	accessUserCode   = 0xfa // P=1 DPL=3 S=1 code, exec/read
	accessUserData   = 0xf2 // P=1 DPL=3 S=1 data, read/write
	accessTSS        = 0x89 // P=1 DPL=0 S=0 32-bit TSS (available)
)

const limit4GiB = 0xfffff // page-granular: 0xFFFFF * 4 KiB = 4 GiB

// TSS_t mirrors struct tss, trimmed to the fields spec.md §6 requires be
// non-zero: ss0 and esp0. Every other field is carried (zeroed) for
// layout fidelity with the source, since a real task switch instruction
// would read them.
type TSS_t struct {
	PrevTaskLink uint32
	Esp0         uint32
	Ss0          uint32
	Esp1, Ss1    uint32
	Esp2, Ss2    uint32
	Cr3          uint32
	Eip          uint32
	Eflags       uint32
	Eax, Ecx, Edx, Ebx uint32
	Esp, Ebp           uint32
	Esi, Edi           uint32
	Es, Cs, Ss, Ds, Fs, Gs uint32
	LdtSegSelector   uint32
	IOMapBaseAddr    uint32
}

// Table_t is the six-descriptor flat GDT this kernel installs: null,
// kernel code, kernel data, user code, user data, TSS.
type Table_t struct {
	Descriptors [6]Descriptor_t
	TSS         TSS_t
}

// New builds the flat GDT and a TSS carrying the kernel stack parameters
// esp0/ss0 (spec.md §6). The TSS descriptor's limit is the TSS size; its
// base is 0, not the address of the TSS.
func New(esp0 uint32) *Table_t {
	t := &Table_t{}
	t.TSS.Ss0 = defs.KernelDataSelector
	t.TSS.Esp0 = esp0

	t.Descriptors = [6]Descriptor_t{
		{}, // null descriptor
		{Base: 0, Limit: limit4GiB, Type: accessKernelCode, Page: true},
		{Base: 0, Limit: limit4GiB, Type: accessKernelData, Page: true},
		{Base: 0, Limit: limit4GiB, Type: accessUserCode, Page: true},
		{Base: 0, Limit: limit4GiB, Type: accessUserData, Page: true},
		{Base: 0, Limit: uint32(tssSize), Type: accessTSS},
	}
	return t
}

const tssSize = 104 // sizeof(struct tss) packed, 26 uint32 fields

// EncodeRaw packs a descriptor into its 8-byte CPU-facing form, mirroring
// encodeSegmentDescriptor's byte layout (limit low 16, base low 24,
// access byte, high flags nibble + limit high nibble, base high 8).
func EncodeRaw(d Descriptor_t) [8]byte {
	limit := d.Limit
	highFlags := byte(0x40) // G=0, D/B=1
	if d.Page {
		highFlags = 0xc0 // G=1, D/B=1
	}
	if limit > 0xfffff {
		panic("gdt: limit exceeds 20 bits")
	}
	var raw [8]byte
	raw[0] = byte(limit)
	raw[1] = byte(limit >> 8)
	raw[2] = byte(d.Base)
	raw[3] = byte(d.Base >> 8)
	raw[4] = byte(d.Base >> 16)
	raw[5] = d.Type
	raw[6] = highFlags | byte(limit>>16)&0x0f
	raw[7] = byte(d.Base >> 24)
	return raw
}
