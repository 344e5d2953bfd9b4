// Package kernel wires the whole machine together: heap, VM manager,
// GDT/TSS, filesystem driver and disk mount, syscall table, and the
// first user process, mirroring the boot sequence spec.md §2 describes
// ("Control flow at steady state"). There's no hand-off to real ring-3
// assembly here -- Boot returns a Kernel_t ready to Dispatch isr80h
// calls and run tasks, standing in for the kmain the teacher's
// kernel package (a chentry-only stub in this retrieval pack) doesn't
// itself show in Go.
package kernel

import (
	"log/slog"

	"github.com/RyanStan/ConiferOS/internal/config"
	"github.com/RyanStan/ConiferOS/internal/console"
	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/disk"
	"github.com/RyanStan/ConiferOS/internal/fat16"
	"github.com/RyanStan/ConiferOS/internal/gdt"
	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/klog"
	"github.com/RyanStan/ConiferOS/internal/mem"
	"github.com/RyanStan/ConiferOS/internal/proc"
	"github.com/RyanStan/ConiferOS/internal/trap"
	"github.com/RyanStan/ConiferOS/internal/vfs"
	"github.com/RyanStan/ConiferOS/internal/vmm"
)

// PhysmemSize is the simulated RAM size Boot carves the heap from: the
// teacher's kernel heap is 100 MiB (config.KernelHeapSize); this adds 16
// pages past the heap's end. The page tables vmm.New builds per address
// space are allocated from the heap itself.
const PhysmemSize = config.KernelHeapSize + 16*mem.PGSIZE

// DriveBoot is the disk/drive number the boot filesystem is mounted at,
// matching spec.md §4.5's "0:/..." path convention.
const DriveBoot = 0

// Kernel_t is the booted machine: every subsystem Dispatch and the task
// scheduler loop need.
type Kernel_t struct {
	Phys  *mem.Physmem_t
	Heap  *heap.Heap_t
	CPU   *vmm.CPU_t
	GDT   *gdt.Table_t
	Files *vfs.Table_t
	Procs *proc.Table_t
	Tasks *proc.List_t
	Trap  *trap.Kernel_t
	Log   *slog.Logger
}

// Boot brings up the simulated machine against diskImage (a raw FAT16
// disk image) and loads initFilename as the first process, mirroring
// spec.md §2's steady-state sequence. The order is: heap -> kernel
// address space -> disk + FAT16 resolve -> VFS mount -> GDT/TSS ->
// syscalls and timer IRQ -> first process.
func Boot(diskImage []byte, initFilename string, argv []string) (*Kernel_t, defs.Err_t) {
	log := klog.Default()
	log.Info("booting", "initFilename", initFilename)

	phys := mem.NewPhysmem(0, PhysmemSize)
	h, err := heap.New(phys, 0, config.KernelHeapSize)
	if err != 0 {
		return nil, err
	}

	kas, err := vmm.New(h, phys, mem.PTE_P|mem.PTE_RW)
	if err != 0 {
		return nil, err
	}
	var cpu vmm.CPU_t
	cpu.Activate(kas)

	d := disk.New(DriveBoot, diskImage)
	fs, err := fat16.Resolve(d)
	if err != 0 {
		log.Error("filesystem not recognized", "err", err)
		return nil, err
	}

	files := vfs.NewTable()
	files.Mount(DriveBoot, &fat16.Driver{FS: fs})

	procs := &proc.Table_t{}
	tasks := &proc.List_t{}

	gdtTable := gdt.New(config.KernelStackTop)

	tk := &trap.Kernel_t{
		CPU:     &cpu,
		Heap:    h,
		Phys:    phys,
		Console: console.New(),
		Procs:   procs,
		Tasks:   tasks,
		Files:   files,
	}
	tk.RegisterBuiltins()
	tk.RegisterTimer()

	k := &Kernel_t{
		Phys:  phys,
		Heap:  h,
		CPU:   &cpu,
		GDT:   gdtTable,
		Files: files,
		Procs: procs,
		Tasks: tasks,
		Trap:  tk,
		Log:   log,
	}

	if initFilename != "" {
		p, err := proc.Load(procs, tasks, h, phys, files, initFilename, argv, mem.PTE_P|mem.PTE_US)
		if err != 0 {
			log.Error("initial process load failed", "filename", initFilename, "err", err)
			return nil, err
		}
		log.Info("loaded initial process", "pid", p.PID, "format", p.Format)
	}

	return k, 0
}

// RunOnce dispatches a single simulated isr80h trap for the head task on
// the run list, advancing it the way the real ISR stub's iret would.
// The caller supplies the frame (as if it had just trapped via int
// 0x80); RunOnce returns the frame Dispatch computed for iret.
func (k *Kernel_t) RunOnce(frame proc.Frame_t) (proc.Frame_t, bool) {
	t := k.Tasks.Head()
	if t == nil {
		return proc.Frame_t{}, false
	}
	return k.Trap.Dispatch(t, frame), true
}
