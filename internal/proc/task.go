// Package proc implements the process/task model: address-space backed
// processes, their single task each, and the circular task list the
// kernel switches between (spec.md §3 "Process"/"Task", §4.3). Grounded
// in original_source/src/task/process.h and task.h for field layout, and
// in the teacher's proc package for the Go idiom of process ownership
// (a process exclusively owns its task; the task holds a non-owning
// back-reference).
package proc

import (
	"github.com/RyanStan/ConiferOS/internal/circbuf"
	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/elf32"
	"github.com/RyanStan/ConiferOS/internal/vmm"
)

// Format_t tags which kind of payload a process was loaded from.
type Format_t int

const (
	Binary Format_t = iota
	ELF
)

// MemAlloc_t records one outstanding syscall-driven heap allocation
// (ptr, size), so process_terminate (or a later free) can reclaim it.
type MemAlloc_t struct {
	Ptr  uint32
	Size int
}

// Task_t owns a saved trap frame and an address-space handle, and is
// linked into the kernel's circular task list.
type Task_t struct {
	Frame   Frame_t
	AS      *vmm.AddressSpace_t
	Process *Process_t

	next, prev *Task_t
}

// Process_t is the unit the loader creates: a PID, its executable
// payload, a fixed user stack, an argument block, tracked allocations,
// a keyboard ring buffer, and exactly one task.
type Process_t struct {
	PID      int
	Filename string
	Format   Format_t

	// Payload is a discriminated union over {BINARY(buffer), ELF(file)}.
	// Exactly one of Binary/Elf is populated, selected by Format.
	Binary []byte
	Elf    *elf32.File_t
	ElfBuf []byte // the raw ELF file contents backing Elf's PT_LOAD ranges

	StackAddr   uint32
	ArgvAddr    uint32
	MemAllocs   []MemAlloc_t
	Keyboard    *circbuf.Circbuf_t
	Task        *Task_t
}

// List_t is the kernel's circular doubly-linked task list. It owns its
// nodes; tasks hold prev/next pointers but the list is the only thing
// that may mutate them, keeping removal structural rather than shared-
// ownership based (spec.md §9 "Cyclic & intrusive lists").
type List_t struct {
	head *Task_t
}

// Insert adds t to the list, making it the new head if the list was
// empty.
func (l *List_t) Insert(t *Task_t) {
	if l.head == nil {
		t.next, t.prev = t, t
		l.head = t
		return
	}
	tail := l.head.prev
	t.next = l.head
	t.prev = tail
	tail.next = t
	l.head.prev = t
}

// Remove unlinks t from the list.
func (l *List_t) Remove(t *Task_t) {
	if t.next == t {
		l.head = nil
		t.next, t.prev = nil, nil
		return
	}
	t.prev.next = t.next
	t.next.prev = t.prev
	if l.head == t {
		l.head = t.next
	}
	t.next, t.prev = nil, nil
}

// Head returns the list's head task, or nil if empty.
func (l *List_t) Head() *Task_t {
	return l.head
}

// MakeHead promotes t to be the list's head, the way task_exec makes t
// the current task. t must already be linked into l.
func (l *List_t) MakeHead(t *Task_t) {
	l.head = t
}

// Next returns the task scheduled to run after t (the list is the only
// scheduling order this kernel has).
func (t *Task_t) Next() *Task_t {
	return t.next
}

// NewTask builds a task for process p over address space as and links it
// into list.
func NewTask(p *Process_t, as *vmm.AddressSpace_t, list *List_t) *Task_t {
	t := &Task_t{AS: as, Process: p}
	p.Task = t
	list.Insert(t)
	return t
}

// Save copies frame into t's saved registers. Called exactly once per
// entry from user, before any code that might alter the frame values
// (spec.md §4.3 "task_save").
func (t *Task_t) Save(frame Frame_t) {
	t.Frame = frame
}

// Exec activates t's address space and hands back the frame task_exec
// would iret with -- there being no real CPU to iret on in this
// simulation, the caller (internal/kernel) is responsible for treating
// the returned frame as "now executing in user mode."
func Exec(cpu *vmm.CPU_t, t *Task_t) Frame_t {
	cpu.Activate(t.AS)
	return t.Frame
}

// readU32AtVaddr reads one 32-bit word at a user virtual address,
// temporarily activating t's address space to translate it.
func readU32AtVaddr(cpu *vmm.CPU_t, t *Task_t, vaddr uint32) (uint32, defs.Err_t) {
	prior := cpu.Current
	cpu.Activate(t.AS)
	defer cpu.Activate(prior)

	pa, err := t.AS.Translate(vaddr)
	if err != 0 {
		return 0, err
	}
	buf := t.AS.Phys().Slice(pa, 4)
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, 0
}

// GetStackItem reads the i-th 32-bit word above the task's saved esp.
// Index 0 is the word at the saved esp itself, matching a user program
// that does "push &msg; mov eax,1; int 0x80": esp then points at the
// pushed argument (spec.md §9 open ambiguity, pinned by scenario 3).
func GetStackItem(cpu *vmm.CPU_t, t *Task_t, index int) (uint32, defs.Err_t) {
	return readU32AtVaddr(cpu, t, t.Frame.Esp+uint32(index*4))
}

// ReadArgvPointer reads the i-th char* slot out of a user-space argv
// array located at argvAddr, matching
// copy_argv_pointers_from_user_task's element-by-element walk.
func ReadArgvPointer(cpu *vmm.CPU_t, t *Task_t, argvAddr uint32, i int) (uint32, defs.Err_t) {
	return readU32AtVaddr(cpu, t, argvAddr+uint32(i*4))
}

// CopyStringFromUser copies a NUL-terminated string of at most max bytes
// out of t's address space without assuming kernel and user share a
// mapping: each byte is translated through t's own page tables. No
// kernel page is spliced into the user address space and no PTE is
// modified.
func CopyStringFromUser(cpu *vmm.CPU_t, t *Task_t, userVaddr uint32, max int) (string, defs.Err_t) {
	kernelAS := cpu.Current
	// Read byte-by-byte through the task's own mapping; since this
	// simulation backs every address space with the same physical slab
	// (identity-mapped kernel AS, explicitly mapped user ranges), a
	// direct per-byte Translate avoids the page-granular splice the
	// source needs on real hardware while preserving the same contract:
	// the caller never assumes kernel and user share a virtual mapping.
	out := make([]byte, 0, max)
	for i := 0; i < max; i++ {
		bytePA, err := t.AS.Translate(userVaddr + uint32(i))
		if err != 0 {
			return "", err
		}
		b := t.AS.Phys().Slice(bytePA, 1)[0]
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	cpu.Activate(kernelAS)
	return string(out), 0
}
