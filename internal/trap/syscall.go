// Package trap implements isr80h syscall dispatch (spec.md §4.4): the
// fixed-size command table, task_save-then-dispatch sequencing, and the
// eight registered syscalls. The common ISR stub's register push/pop and
// the kernel/user address-space swap around it are the external
// assembly trampoline spec.md §1 scopes out; this package is the C (here
// Go) dispatcher the stub calls into.
package trap

import (
	"github.com/RyanStan/ConiferOS/internal/config"
	"github.com/RyanStan/ConiferOS/internal/console"
	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/mem"
	"github.com/RyanStan/ConiferOS/internal/proc"
	"github.com/RyanStan/ConiferOS/internal/vfs"
	"github.com/RyanStan/ConiferOS/internal/vmm"
)

// Command_f is a registered isr80h handler: given the current task and
// its saved frame, it returns the value to store in eax.
type Command_f func(k *Kernel_t, t *proc.Task_t) uint32

// Kernel_t bundles the singletons a syscall handler needs: the CPU's
// current address space, the heap, physical memory, the console, and
// the process/task/VFS tables. It exists so Dispatch can be exercised
// by tests without constructing a full internal/kernel.Boot.
type Kernel_t struct {
	CPU     *vmm.CPU_t
	Heap    *heap.Heap_t
	Phys    *mem.Physmem_t
	Console *console.Console_t
	Procs   *proc.Table_t
	Tasks   *proc.List_t
	Files   *vfs.Table_t

	commands [config.MaxISR80HCommands]Command_f
	irq      irqState
}

// Register installs fn as the handler for command id. Registering the
// same id twice is a fatal misconfiguration, matching spec.md §7's
// "duplicate syscall registration" panic.
func (k *Kernel_t) Register(id int, fn Command_f) {
	if k.commands[id] != nil {
		panic("trap: duplicate syscall registration")
	}
	k.commands[id] = fn
}

// Dispatch implements the isr80h dispatcher: task_save, look up the
// command by id in the fixed-size table, invoke it, store the result in
// eax. An id outside [0, MAX_ISR80H_COMMANDS) returns 0 without
// invoking a handler (spec.md §8 invariant 6).
func (k *Kernel_t) Dispatch(t *proc.Task_t, frame proc.Frame_t) proc.Frame_t {
	t.Save(frame)
	id := int(frame.Eax)
	var result uint32
	if id >= 0 && id < config.MaxISR80HCommands && k.commands[id] != nil {
		result = k.commands[id](k, t)
	}
	t.Frame.Eax = result
	return t.Frame
}

// RegisterBuiltins installs the closed set of eight syscalls spec.md
// §4.4 names.
func (k *Kernel_t) RegisterBuiltins() {
	k.Register(0, sysSum)
	k.Register(1, sysPrint)
	k.Register(2, sysGetKey)
	k.Register(3, sysPutchar)
	k.Register(4, sysMalloc)
	k.Register(5, sysFree)
	k.Register(6, sysExecve)
	k.Register(7, sysExit)
}

func arg(k *Kernel_t, t *proc.Task_t, i int) uint32 {
	v, err := proc.GetStackItem(k.CPU, t, i)
	if err != 0 {
		return 0
	}
	return v
}

func sysSum(k *Kernel_t, t *proc.Task_t) uint32 {
	return arg(k, t, 0) + arg(k, t, 1)
}

func sysPrint(k *Kernel_t, t *proc.Task_t) uint32 {
	s, err := proc.CopyStringFromUser(k.CPU, t, arg(k, t, 0), config.MaxFilePathChars)
	if err != 0 {
		return uint32(err)
	}
	k.Console.WriteString(s)
	return 0
}

func sysGetKey(k *Kernel_t, t *proc.Task_t) uint32 {
	b, ok := t.Process.Keyboard.Pop()
	if !ok {
		return 0
	}
	return uint32(b)
}

func sysPutchar(k *Kernel_t, t *proc.Task_t) uint32 {
	k.Console.WriteChar(byte(arg(k, t, 0)))
	return 0
}

func sysMalloc(k *Kernel_t, t *proc.Task_t) uint32 {
	size := int(arg(k, t, 0))
	p := t.Process
	if len(p.MemAllocs) >= config.ProcessMaxAllocations {
		return 0
	}
	pa, err := k.Heap.Alloc(size)
	if err != 0 {
		return 0
	}
	pages := mem.Roundup4k(size) / mem.PGSIZE
	if err := t.AS.MapRange(uint32(pa), uint32(pa), pages, mem.PTE_P|mem.PTE_RW|mem.PTE_US); err != 0 {
		k.Heap.Free(pa)
		return 0
	}
	p.MemAllocs = append(p.MemAllocs, proc.MemAlloc_t{Ptr: uint32(pa), Size: size})
	return uint32(pa)
}

func sysFree(k *Kernel_t, t *proc.Task_t) uint32 {
	ptr := arg(k, t, 0)
	p := t.Process
	for i, a := range p.MemAllocs {
		if a.Ptr != ptr {
			continue
		}
		pages := mem.Roundup4k(a.Size) / mem.PGSIZE
		t.AS.MapRange(ptr, ptr, pages, mem.PTE_P|mem.PTE_US) // drop RW: later writes trap
		k.Heap.Free(mem.Pa_t(ptr))
		p.MemAllocs = append(p.MemAllocs[:i], p.MemAllocs[i+1:]...)
		return 0
	}
	return 0 // unknown ptr: no-op, per spec.md §4.4
}

// sysExecve mirrors original_source/src/isr80h/process.c's
// isr80h_command_6_execve: argc, the user-space argv array address, and
// the filename all come off the caller's stack (slots 0-2); each argv
// string is then copied out of user space one pointer at a time via
// copy_argv_pointers_from_user_task's element walk. The newly loaded
// task is promoted to the head of the run list, since Head() is this
// kernel's definition of "current task" -- task_exec's job, not a side
// effect of the caller exiting later.
func sysExecve(k *Kernel_t, t *proc.Task_t) uint32 {
	argc := int(arg(k, t, 0))
	argvAddr := arg(k, t, 1)
	filenameVaddr := arg(k, t, 2)

	filename, err := proc.CopyStringFromUser(k.CPU, t, filenameVaddr, config.MaxFilePathChars)
	if err != 0 {
		return uint32(err)
	}

	argv := make([]string, 0, argc)
	for i := 0; i < argc; i++ {
		strAddr, err := proc.ReadArgvPointer(k.CPU, t, argvAddr, i)
		if err != 0 {
			return uint32(err)
		}
		s, err := proc.CopyStringFromUser(k.CPU, t, strAddr, config.MaxCmmdArgLen)
		if err != 0 {
			return uint32(err)
		}
		argv = append(argv, s)
	}

	p, err := proc.Load(k.Procs, k.Tasks, k.Heap, k.Phys, k.Files, filename, argv, mem.PTE_P)
	if err != 0 {
		return uint32(err)
	}
	k.Tasks.MakeHead(p.Task)
	return 0
}

func sysExit(k *Kernel_t, t *proc.Task_t) uint32 {
	k.Tasks.Remove(t)
	return 0
}
