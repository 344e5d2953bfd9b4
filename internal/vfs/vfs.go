package vfs

import (
	"github.com/RyanStan/ConiferOS/internal/config"
	"github.com/RyanStan/ConiferOS/internal/defs"
)

// Stat_t mirrors the {flags, filesize} fstat output, plus Rdev: the
// device identifier (internal/defs's DConsole/DRawdisk/...) the open
// descriptor is backed by. spec.md §4.5 names only flags/filesize;
// Rdev is a supplemented field carrying the device-table concept
// original_source/src/keyboard/keyboard.h's D_CONSOLE-style IDs imply
// but spec.md's distillation never wires into fstat's output.
type Stat_t struct {
	Flags    byte
	Filesize uint32
	Rdev     int
}

// Driver_i is the per-mount filesystem driver contract: {open, read,
// seek, stat, close} plus a name, with opaque per-open private state.
// Resolution is not part of it; a filesystem is resolved (fat16.Resolve)
// before it is mounted. A FAT16 mount satisfies this via fat16.FS_t's
// methods, adapted by the thin fat16.Driver shim so this package stays
// filesystem-agnostic, matching the teacher's separation between
// fs.Fs_t interface and its concrete drivers.
type Driver_i interface {
	Name() string
	Open(parts []string, mode string) (priv interface{}, err defs.Err_t)
	Read(priv interface{}, elemSize, nmemb int, dst []byte) (int, defs.Err_t)
	Seek(priv interface{}, offset int, whence int) defs.Err_t
	Stat(priv interface{}) Stat_t
	Close(priv interface{})
}

type descriptor struct {
	driver Driver_i
	drive  int
	priv   interface{}
}

// Table_t is the flat open-file-descriptor table (spec.md §4.5 "File
// API (VFS)"), max config.MaxOpenFiles entries.
type Table_t struct {
	fds     [config.MaxOpenFiles]*descriptor
	drivers map[int]Driver_i // drive number -> mounted driver
}

// NewTable returns an empty file-descriptor table.
func NewTable() *Table_t {
	return &Table_t{drivers: make(map[int]Driver_i)}
}

// Mount registers driver as the filesystem for drive.
func (t *Table_t) Mount(drive int, driver Driver_i) {
	t.drivers[drive] = driver
}

func (t *Table_t) firstFree() int {
	for i, d := range t.fds {
		if d == nil {
			return i
		}
	}
	return -1
}

// Fopen parses path, resolves it against the mounted driver for its
// drive, and returns the lowest free descriptor index.
func (t *Table_t) Fopen(path string, mode string) (int, defs.Err_t) {
	p, err := Parse(path)
	if err != 0 {
		return -1, err
	}
	driver, ok := t.drivers[p.Drive]
	if !ok {
		return -1, defs.EIO
	}
	idx := t.firstFree()
	if idx < 0 {
		return -1, defs.EISTAKEN
	}
	priv, err := driver.Open(p.Parts, mode)
	if err != 0 {
		return -1, err
	}
	t.fds[idx] = &descriptor{driver: driver, drive: p.Drive, priv: priv}
	return idx, 0
}

func (t *Table_t) get(fd int) (*descriptor, defs.Err_t) {
	if fd < 0 || fd >= len(t.fds) || t.fds[fd] == nil {
		return nil, defs.EINVARG
	}
	return t.fds[fd], 0
}

// Fread delegates to the descriptor's driver.
func (t *Table_t) Fread(fd int, elemSize, nmemb int, dst []byte) (int, defs.Err_t) {
	d, err := t.get(fd)
	if err != 0 {
		return 0, err
	}
	return d.driver.Read(d.priv, elemSize, nmemb, dst)
}

const (
	SeekSet = iota
	SeekCur
	SeekEnd
)

// Fseek delegates to the descriptor's driver.
func (t *Table_t) Fseek(fd int, offset int, whence int) defs.Err_t {
	d, err := t.get(fd)
	if err != 0 {
		return err
	}
	return d.driver.Seek(d.priv, offset, whence)
}

// Fstat delegates to the descriptor's driver and tags the result with
// the device the descriptor's drive is backed by. Every driver mounted
// today is disk-resident, so Rdev is always DRawdisk; a future console
// or pipe driver would tag DConsole instead.
func (t *Table_t) Fstat(fd int) (Stat_t, defs.Err_t) {
	d, err := t.get(fd)
	if err != 0 {
		return Stat_t{}, err
	}
	s := d.driver.Stat(d.priv)
	s.Rdev = defs.DRawdisk
	return s, 0
}

// Fclose releases fd, closing it through its driver.
func (t *Table_t) Fclose(fd int) defs.Err_t {
	d, err := t.get(fd)
	if err != 0 {
		return err
	}
	d.driver.Close(d.priv)
	t.fds[fd] = nil
	return 0
}
