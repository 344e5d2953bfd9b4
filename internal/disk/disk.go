// Package disk models the ATA block device the FAT16 driver mounts: a
// flat sector-addressable byte image plus a cursor-based streamer. The
// real ATA PIO driver (spec.md §6) is an external collaborator outside
// this kernel's scope; this package stands in for "read_sectors(lba,
// count, buf)" with an in-memory image, the same substitution the VM
// manager makes for physical RAM (internal/mem.Physmem_t).
package disk

import "github.com/RyanStan/ConiferOS/internal/defs"

const SectorSize = 512

// Disk_t is a sector-addressable block device backed by an in-memory
// image (spec.md §3 "Disk, disk stream").
type Disk_t struct {
	ID    int
	image []byte
}

// New wraps image as disk id. image's length need not be a multiple of
// SectorSize; reads past its end fail with EIO.
func New(id int, image []byte) *Disk_t {
	return &Disk_t{ID: id, image: image}
}

// ReadSector reads SectorSize bytes starting at lba into dst.
func (d *Disk_t) ReadSector(lba int, dst []byte) defs.Err_t {
	start := lba * SectorSize
	if start < 0 || start+SectorSize > len(d.image) {
		return defs.EIO
	}
	copy(dst, d.image[start:start+SectorSize])
	return 0
}

// Streamer_t is a cursor into a disk: (disk, byte position). Reads
// advance the cursor, loading one sector at a time so stack depth stays
// bounded regardless of request size (spec.md §4.5).
type Streamer_t struct {
	disk *Disk_t
	pos  int
}

// NewStreamer returns a streamer positioned at byte 0.
func NewStreamer(d *Disk_t) *Streamer_t {
	return &Streamer_t{disk: d}
}

// Seek repositions the cursor; purely arithmetic, no I/O.
func (s *Streamer_t) Seek(pos int) {
	s.pos = pos
}

// Pos returns the current cursor position.
func (s *Streamer_t) Pos() int {
	return s.pos
}

// Read fills dst sector by sector, advancing the cursor by len(dst)
// bytes. Implemented iteratively, not recursively, to bound stack depth
// on arbitrarily large requests.
func (s *Streamer_t) Read(dst []byte) defs.Err_t {
	var sector [SectorSize]byte
	n := len(dst)
	copied := 0
	for copied < n {
		lba := s.pos / SectorSize
		off := s.pos % SectorSize
		if err := s.disk.ReadSector(lba, sector[:]); err != 0 {
			return err
		}
		chunk := SectorSize - off
		if chunk > n-copied {
			chunk = n - copied
		}
		copy(dst[copied:copied+chunk], sector[off:off+chunk])
		copied += chunk
		s.pos += chunk
	}
	return 0
}
