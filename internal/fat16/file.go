package fat16

import (
	"golang.org/x/text/cases"

	"github.com/RyanStan/ConiferOS/internal/defs"
)

var foldCaser = cases.Fold()

// FileDescriptor_t is the private, per-open state the VFS layer stores
// opaquely (fat_item_descriptor in the source).
type FileDescriptor_t struct {
	entry DirEntry_t
	pos   uint32
}

// Open resolves pathParts (as produced by the path parser) against fs,
// walking root -> subdirectory -> ... -> final item (spec.md §4.5 "Path
// resolution"). Only read mode is supported; anything else fails with
// READ_ONLY.
func (fs *FS_t) Open(pathParts []string, mode string) (*FileDescriptor_t, defs.Err_t) {
	if mode != "r" && mode != "READ" {
		return nil, defs.ERDONLY
	}
	if len(pathParts) == 0 {
		return nil, defs.EBADPATH
	}
	dir := fs.Root
	for i, part := range pathParts {
		entry, ok := findEntry(dir, part)
		if !ok {
			return nil, defs.EIO
		}
		last := i == len(pathParts)-1
		if last {
			if entry.IsSubdirectory() {
				return nil, defs.EBADPATH
			}
			return &FileDescriptor_t{entry: entry}, 0
		}
		if !entry.IsSubdirectory() {
			return nil, defs.EBADPATH
		}
		next, err := fs.readDirectoryCluster(entry.FirstCluster)
		if err != 0 {
			return nil, err
		}
		dir = next
	}
	return nil, defs.EBADPATH
}

// findEntry performs the case-insensitive linear scan spec.md §4.5
// requires.
func findEntry(dir Directory_t, name string) (DirEntry_t, bool) {
	for _, e := range dir.Entries {
		if foldCaser.String(e.Name) == foldCaser.String(name) {
			return e, true
		}
	}
	return DirEntry_t{}, false
}

// Stat_t mirrors the {flags, filesize} output of fstat.
type Stat_t struct {
	Flags    byte
	Filesize uint32
}

// Stat fills out with the file's flags and size.
func (fs *FS_t) Stat(fd *FileDescriptor_t) Stat_t {
	return Stat_t{Flags: fd.entry.Attribute, Filesize: fd.entry.FileSize}
}

// Whence selects the seek origin; SEEK_END is unimplemented per
// spec.md §4.5.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Seek repositions fd's cursor. Offsets beyond the file's size fail
// with IO; SEEK_END is UNIMPLEMENTED.
func (fs *FS_t) Seek(fd *FileDescriptor_t, offset int, whence Whence) defs.Err_t {
	var newPos int
	switch whence {
	case SeekSet:
		newPos = offset
	case SeekCur:
		newPos = int(fd.pos) + offset
	case SeekEnd:
		return defs.EUNIMP
	default:
		return defs.EINVARG
	}
	if newPos < 0 || newPos > int(fd.entry.FileSize) {
		return defs.EIO
	}
	fd.pos = uint32(newPos)
	return 0
}

// Read copies nmemb items of elemSize bytes into dst starting at fd's
// cursor, returning the number of whole items actually read (short on
// EOF). dst must be at least elemSize*nmemb bytes.
func (fs *FS_t) Read(fd *FileDescriptor_t, elemSize, nmemb int, dst []byte) (int, defs.Err_t) {
	want := elemSize * nmemb
	remaining := int(fd.entry.FileSize) - int(fd.pos)
	if remaining <= 0 {
		return 0, 0
	}
	if want > remaining {
		want = remaining - remaining%elemSize
	}
	if want == 0 {
		return 0, 0
	}
	buf, err := fs.readClusterChainAt(fd.entry.FirstCluster, int(fd.pos), want)
	if err != 0 {
		return 0, err
	}
	copy(dst, buf)
	fd.pos += uint32(len(buf))
	return len(buf) / elemSize, 0
}

// Close releases fd. FAT16 keeps no per-open allocations beyond the Go
// garbage collector's reach, so this is a no-op retained for interface
// symmetry with the VFS driver contract.
func (fs *FS_t) Close(fd *FileDescriptor_t) {}
