// Package config collects the layout constants the original C kernel
// defined in config.h, named once instead of scattered per package.
package config

const (
	// KernelHeapSize is the size in bytes of the kernel heap (100 MiB,
	// matching original_source/src/config.h).
	KernelHeapSize = 104857600

	// HeapBlockSize is the allocation granularity of the heap bitmap
	// allocator: one page.
	HeapBlockSize = 4096

	// MaxFilePathChars bounds an absolute path, including the drive
	// prefix.
	MaxFilePathChars = 128

	// MaxFilesystems bounds the number of registered filesystem
	// drivers.
	MaxFilesystems = 12

	// MaxOpenFiles bounds the flat open-file-descriptor table.
	MaxOpenFiles = 512

	// TotalGDTSegments is the number of descriptors in the flat GDT.
	TotalGDTSegments = 6

	// TaskLoadVirtualAddress is the virtual address BINARY payloads
	// (and the required ELF entry point) are loaded at.
	TaskLoadVirtualAddress = 0x400000

	// TaskStackSize is the fixed size of a user stack.
	TaskStackSize = 1024 * 16

	// TaskStackVirtAddr is the default (high) address of a new
	// process's stack; the stack grows down from here.
	TaskStackVirtAddr = 0x3FF000

	// TaskStackVirtAddrEnd is the low end of the stack region.
	TaskStackVirtAddrEnd = TaskStackVirtAddr - TaskStackSize

	// TaskArgvVirtAddr is the fixed virtual address the argument
	// block is mapped at. Chosen just below the stack region, lowered by
	// the page-rounded size of the whole block (MaxNumArgs pointer slots
	// plus MaxNumArgs*MaxCmmdArgLen string bytes), so it does not collide
	// with either the stack or the loaded image.
	TaskArgvVirtAddr = TaskStackVirtAddrEnd - (MaxNumArgs*4+MaxNumArgs*MaxCmmdArgLen+0xfff)&^0xfff

	// MaxNumArgs bounds argc for process_load's argument block.
	MaxNumArgs = 64

	// MaxCmmdArgLen bounds the length of a single argv string,
	// including the terminating NUL.
	MaxCmmdArgLen = 128

	// ProcessMaxAllocations bounds the mem_allocs table tracked per
	// process for syscall 4/5 (malloc/free).
	ProcessMaxAllocations = 1024

	// MaxProcesses bounds the process table.
	MaxProcesses = 12

	// MaxISR80HCommands bounds registered syscall command IDs;
	// valid IDs are [0, MaxISR80HCommands).
	MaxISR80HCommands = 1024

	// KeyboardBufferSize is the capacity of a process's keyboard ring
	// buffer.
	KeyboardBufferSize = 1024

	// EflagsIF is the saved eflags value seeded for a freshly loaded
	// task: interrupts enabled once it's iret'd into.
	EflagsIF = 0x202

	// KernelStackTop is the ring-0 stack pointer the TSS's esp0 loads on
	// a privilege-level switch into the kernel, distinct from any
	// user task's TaskStackVirtAddr.
	KernelStackTop = 0x200000
)
