package proc

import (
	"github.com/RyanStan/ConiferOS/internal/circbuf"
	"github.com/RyanStan/ConiferOS/internal/config"
	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/elf32"
	"github.com/RyanStan/ConiferOS/internal/heap"
	"github.com/RyanStan/ConiferOS/internal/mem"
	"github.com/RyanStan/ConiferOS/internal/vfs"
	"github.com/RyanStan/ConiferOS/internal/vmm"
)

func newKeyboardBuffer() *circbuf.Circbuf_t {
	return circbuf.New(config.KeyboardBufferSize)
}

// Table_t is the process table: a fixed array of slots indexed by PID.
type Table_t struct {
	slots [config.MaxProcesses]*Process_t
}

func (pt *Table_t) firstFree() int {
	for i, p := range pt.slots {
		if p == nil {
			return i
		}
	}
	return -1
}

// Get returns the process at pid, or nil.
func (pt *Table_t) Get(pid int) *Process_t {
	if pid < 0 || pid >= len(pt.slots) {
		return nil
	}
	return pt.slots[pid]
}

// readWholeFile reads a file's full contents through the VFS table.
func readWholeFile(table *vfs.Table_t, path string) ([]byte, defs.Err_t) {
	fd, err := table.Fopen(path, "r")
	if err != 0 {
		return nil, err
	}
	defer table.Fclose(fd)
	st, err := table.Fstat(fd)
	if err != 0 {
		return nil, err
	}
	buf := make([]byte, st.Filesize)
	if st.Filesize > 0 {
		n, err := table.Fread(fd, 1, int(st.Filesize), buf)
		if err != 0 {
			return nil, err
		}
		buf = buf[:n]
	}
	return buf, 0
}

// classify implements spec.md §4.3 step 1: attempt ELF parse first,
// falling back to BINARY on any rejection. Entry-point validation is
// not a classification criterion (signature/class/data-encoding/type/
// phoff only) and is checked separately by Load.
func classify(raw []byte) (Format_t, *elf32.File_t) {
	if !elf32.Looks(raw) {
		return Binary, nil
	}
	f, err := elf32.Parse(raw)
	if err != 0 {
		return Binary, nil
	}
	return ELF, f
}

// buildArgBlock lays out argc argv strings into a single kernel buffer:
// MaxNumArgs pointer slots (carrying user-space addresses) followed by
// MaxNumArgs*MaxCmmdArgLen bytes of string storage (spec.md §4.3 step 4).
func buildArgBlock(buf []byte, argv []string, argvVirt uint32) {
	const ptrSlots = config.MaxNumArgs * 4
	stringsBase := argvVirt + ptrSlots
	for i, a := range argv {
		if i >= config.MaxNumArgs {
			break
		}
		slotAddr := stringsBase + uint32(i*config.MaxCmmdArgLen)
		putU32(buf[i*4:i*4+4], slotAddr)
		dst := buf[ptrSlots+i*config.MaxCmmdArgLen:]
		n := len(a)
		if n > config.MaxCmmdArgLen-1 {
			n = config.MaxCmmdArgLen - 1
		}
		copy(dst, a[:n])
		dst[n] = 0
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Load implements process_load: resolve filename through the VFS,
// classify and load its payload into a fresh address space, build the
// stack and argument block, seed task registers, and install the
// process at the first free PID slot (spec.md §4.3 steps 1-7).
func Load(pt *Table_t, list *List_t, h *heap.Heap_t, phys *mem.Physmem_t, table *vfs.Table_t, filename string, argv []string, userFlags mem.Pa_t) (*Process_t, defs.Err_t) {
	pid := pt.firstFree()
	if pid < 0 {
		return nil, defs.EISTAKEN
	}

	raw, err := readWholeFile(table, filename)
	if err != 0 {
		return nil, err
	}
	format, elfFile := classify(raw)
	if format == ELF && elfFile.Entry != config.TaskLoadVirtualAddress {
		return nil, defs.EINVALFORMAT
	}

	as, err := vmm.New(h, phys, mem.PTE_P)
	if err != 0 {
		return nil, err
	}

	stackAddr, err := h.ZeroAlloc(config.TaskStackSize)
	if err != 0 {
		as.Destroy()
		return nil, err
	}
	stackPages := config.TaskStackSize / mem.PGSIZE
	if err := as.MapRange(config.TaskStackVirtAddrEnd, uint32(stackAddr), stackPages, mem.PTE_P|mem.PTE_RW|mem.PTE_US); err != 0 {
		as.Destroy()
		return nil, err
	}

	argBlockSize := mem.Roundup4k(config.MaxNumArgs*4 + config.MaxNumArgs*config.MaxCmmdArgLen)
	argBlockAddr, err := h.ZeroAlloc(argBlockSize)
	if err != 0 {
		as.Destroy()
		return nil, err
	}
	buildArgBlock(phys.Slice(argBlockAddr, argBlockSize), argv, config.TaskArgvVirtAddr)
	if err := as.MapRange(config.TaskArgvVirtAddr, uint32(argBlockAddr), argBlockSize/mem.PGSIZE, mem.PTE_P|mem.PTE_RW|mem.PTE_US); err != 0 {
		as.Destroy()
		return nil, err
	}

	p := &Process_t{
		PID:       pid,
		Filename:  filename,
		Format:    format,
		StackAddr: uint32(stackAddr),
		ArgvAddr:  config.TaskArgvVirtAddr,
		Keyboard:  newKeyboardBuffer(),
	}

	var entry uint32
	switch format {
	case Binary:
		p.Binary = raw
		payloadAddr, err := h.ZeroAlloc(mem.Roundup4k(len(raw)))
		if err != 0 {
			as.Destroy()
			return nil, err
		}
		copy(phys.Slice(payloadAddr, len(raw)), raw)
		pages := mem.Roundup4k(len(raw)) / mem.PGSIZE
		if err := as.MapRange(config.TaskLoadVirtualAddress, uint32(payloadAddr), pages, mem.PTE_P|mem.PTE_RW|mem.PTE_US); err != 0 {
			as.Destroy()
			return nil, err
		}
		entry = config.TaskLoadVirtualAddress
	case ELF:
		p.Elf = elfFile
		p.ElfBuf = raw
		bufAddr, err := h.ZeroAlloc(mem.Roundup4k(len(raw)))
		if err != 0 {
			as.Destroy()
			return nil, err
		}
		copy(phys.Slice(bufAddr, len(raw)), raw)
		for _, seg := range elfFile.Loadable() {
			vaddr := mem.Rounddown4k(int(seg.Vaddr))
			paddr := uint32(bufAddr) + seg.Offset
			flags := mem.PTE_P | mem.PTE_US
			if seg.Flags&elf32.PF_W != 0 {
				flags |= mem.PTE_RW
			}
			size := mem.Roundup4k(int(seg.Memsz) + (int(seg.Vaddr) - vaddr))
			if err := as.MapPhysicalRange(uint32(vaddr), paddr, paddr+uint32(size), flags); err != 0 {
				as.Destroy()
				return nil, err
			}
		}
		entry = elfFile.Entry
	}

	t := NewTask(p, as, list)
	t.Frame.Eip = entry
	t.Frame.Cs = defs.UserCodeSelector
	t.Frame.Ss = defs.UserDataSelector
	t.Frame.Esp = config.TaskStackVirtAddr
	t.Frame.Eflags = config.EflagsIF

	pt.slots[pid] = p
	return p, 0
}
