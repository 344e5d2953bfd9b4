// Package fat16 implements the kernel's only on-disk filesystem: a
// read-only FAT16 driver (spec.md §3, §4.5). Field layout is grounded
// directly in original_source/src/fs/fat/fat16.c's struct fat_header_primary
// / fat_header_extended / fat_directory_entry -- which in the original
// are the complete on-disk contract, even though fat16_resolve/fat16_open
// there are stubs; the resolution, path-walk, and cluster-chain algorithm
// below follows the FAT16 specification prose directly. Byte layout is
// read with encoding/binary, the same pattern other_examples' soypat-fat
// implementation uses for its BPB.
package fat16

import (
	"encoding/binary"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/disk"
)

var lowerCaser = cases.Lower(language.Und)

const (
	bootSectorSize   = 512
	dirEntrySize     = 32
	extendedBootSig  = 0x29
	entryEndMarker   = 0x00
	entryDeleted     = 0xe5
	attrSubdirectory = 0x10
	entryUnallocated = 0x0000
	entryReservedLo  = 0xfff0
	entryReservedHi  = 0xfff6
	entryBad         = 0xfff7
	entryEOCMin      = 0xfff8
)

// Header_t mirrors fat_header_primary + fat_header_extended.
type Header_t struct {
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectors     uint16
	FatCopies           uint8
	RootDirEntries      uint16
	NumberOfSectors     uint16
	SectorsPerFat       uint16
	SectorsBig          uint32
	DriveNumber         uint8
	ExtendedBootSig     uint8
	VolumeID            uint32
}

func parseHeader(b []byte) Header_t {
	return Header_t{
		BytesPerSector:    binary.LittleEndian.Uint16(b[11:13]),
		SectorsPerCluster: b[13],
		ReservedSectors:   binary.LittleEndian.Uint16(b[14:16]),
		FatCopies:         b[16],
		RootDirEntries:    binary.LittleEndian.Uint16(b[17:19]),
		NumberOfSectors:   binary.LittleEndian.Uint16(b[19:21]),
		SectorsPerFat:     binary.LittleEndian.Uint16(b[22:24]),
		SectorsBig:        binary.LittleEndian.Uint32(b[32:36]),
		DriveNumber:       b[36],
		ExtendedBootSig:   b[38],
		VolumeID:          binary.LittleEndian.Uint32(b[39:43]),
	}
}

// DirEntry_t mirrors fat_directory_entry.
type DirEntry_t struct {
	Name         string // converted, lower-cased, dotted form
	Attribute    byte
	FirstCluster uint16
	FileSize     uint32
}

func (e DirEntry_t) IsSubdirectory() bool {
	return e.Attribute&attrSubdirectory != 0
}

func parseDirEntry(b []byte) DirEntry_t {
	// high_16_bits_first_cluster is unused in plain FAT16 (always 0);
	// low_16_bits_first_cluster carries the whole cluster number.
	lo := binary.LittleEndian.Uint16(b[26:28])
	return DirEntry_t{
		Name:         displayName(b[0:8], b[8:11]),
		Attribute:    b[11],
		FirstCluster: lo,
		FileSize:     binary.LittleEndian.Uint32(b[28:32]),
	}
}

// displayName converts the 8.3 space-padded on-disk name into C-style
// "name.ext", lower-cased, per spec.md §4.5 "Name handling".
func displayName(base, ext []byte) string {
	stop := func(b []byte) string {
		for i, c := range b {
			if c == 0x20 || c == 0x00 {
				return string(b[:i])
			}
		}
		return string(b)
	}
	name := stop(base)
	e := stop(ext)
	if e != "" {
		name = name + "." + e
	}
	return lowerCaser.String(name)
}

// Directory_t is the in-memory representation of a directory cluster:
// its parsed entries plus the disk sectors it occupies.
type Directory_t struct {
	Entries    []DirEntry_t
	Sector     int
	EndSector  int
}

// FS_t is the mounted, resolved FAT16 filesystem driver state (the
// teacher's fat_private).
type FS_t struct {
	disk   *disk.Disk_t
	Header Header_t
	Root   Directory_t

	clusterStream   *disk.Streamer_t
	fatStream       *disk.Streamer_t
	directoryStream *disk.Streamer_t
}

func (fs *FS_t) bytesPerSector() int { return int(fs.Header.BytesPerSector) }

func (fs *FS_t) clusterSize() int {
	return int(fs.Header.SectorsPerCluster) * fs.bytesPerSector()
}

func (fs *FS_t) rootSector() int {
	return int(fs.Header.ReservedSectors) + int(fs.Header.FatCopies)*int(fs.Header.SectorsPerFat)
}

func (fs *FS_t) fatStart() int {
	return int(fs.Header.ReservedSectors) * fs.bytesPerSector()
}

// dataStartSector is the first sector of cluster 2 (FAT16 clusters are
// numbered from 2; 0 and 1 are reserved).
func (fs *FS_t) dataStartSector() int {
	rootDirSectors := (int(fs.Header.RootDirEntries)*dirEntrySize + fs.bytesPerSector() - 1) / fs.bytesPerSector()
	return fs.rootSector() + rootDirSectors
}

func (fs *FS_t) clusterToSector(cluster uint16) int {
	return fs.dataStartSector() + (int(cluster)-2)*int(fs.Header.SectorsPerCluster)
}

// Resolve reads the boot sector and accepts the disk only if the
// extended boot signature is 0x29 (spec.md §4.5 "Resolution").
func Resolve(d *disk.Disk_t) (*FS_t, defs.Err_t) {
	var boot [bootSectorSize]byte
	if err := d.ReadSector(0, boot[:]); err != 0 {
		return nil, err
	}
	if boot[38] != extendedBootSig {
		return nil, defs.EFSNOTUS
	}
	fs := &FS_t{disk: d, Header: parseHeader(boot[:])}
	fs.clusterStream = disk.NewStreamer(d)
	fs.fatStream = disk.NewStreamer(d)
	fs.directoryStream = disk.NewStreamer(d)

	root, err := fs.readDirectoryAt(fs.rootSector(), int(fs.Header.RootDirEntries))
	if err != 0 {
		return nil, err
	}
	fs.Root = root
	return fs, 0
}

// readDirectoryAt scans up to maxEntries 32-byte entries starting at
// sector, stopping at the first 0x00 end marker and skipping 0xE5
// deleted entries (spec.md §4.5 "Root directory").
func (fs *FS_t) readDirectoryAt(sector int, maxEntries int) (Directory_t, defs.Err_t) {
	fs.directoryStream.Seek(sector * fs.bytesPerSector())
	var entries []DirEntry_t
	var raw [dirEntrySize]byte
	bytesRead := 0
	for i := 0; i < maxEntries; i++ {
		if err := fs.directoryStream.Read(raw[:]); err != 0 {
			return Directory_t{}, err
		}
		bytesRead += dirEntrySize
		if raw[0] == entryEndMarker {
			break
		}
		if raw[0] == entryDeleted {
			continue
		}
		entries = append(entries, parseDirEntry(raw[:]))
	}
	sectorsUsed := (bytesRead + fs.bytesPerSector() - 1) / fs.bytesPerSector()
	return Directory_t{Entries: entries, Sector: sector, EndSector: sector + sectorsUsed}, 0
}

// readDirectoryCluster loads the directory whose first cluster is
// `cluster`. Only that first cluster is read; entries in later clusters
// of the directory's chain are not loaded.
func (fs *FS_t) readDirectoryCluster(cluster uint16) (Directory_t, defs.Err_t) {
	buf, err := fs.readClusterChain(cluster, fs.clusterSize())
	if err != 0 {
		return Directory_t{}, err
	}
	maxEntries := len(buf) / dirEntrySize
	var entries []DirEntry_t
	for i := 0; i < maxEntries; i++ {
		raw := buf[i*dirEntrySize : (i+1)*dirEntrySize]
		if raw[0] == entryEndMarker {
			break
		}
		if raw[0] == entryDeleted {
			continue
		}
		entries = append(entries, parseDirEntry(raw))
	}
	sector := fs.clusterToSector(cluster)
	return Directory_t{Entries: entries, Sector: sector, EndSector: sector + int(fs.Header.SectorsPerCluster)}, 0
}

// getFatEntry reads the 16-bit FAT value for cluster. Unlike the
// source's get_fat_entry (which clobbers its accumulator with the
// disk_stream_read return code instead of the value it read), this
// returns the value actually read into the buffer.
func (fs *FS_t) getFatEntry(cluster uint16) (uint16, defs.Err_t) {
	fs.fatStream.Seek(fs.fatStart() + int(cluster)*2)
	var raw [2]byte
	if err := fs.fatStream.Read(raw[:]); err != 0 {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw[:]), 0
}

// readClusterChain reads size bytes starting at the first cluster of a
// chain, following successive clusters through the FAT as needed.
func (fs *FS_t) readClusterChain(firstCluster uint16, size int) ([]byte, defs.Err_t) {
	out := make([]byte, 0, size)
	cluster := firstCluster
	remaining := size
	for remaining > 0 {
		sector := fs.clusterToSector(cluster)
		fs.clusterStream.Seek(sector * fs.bytesPerSector())
		take := fs.clusterSize()
		if take > remaining {
			take = remaining
		}
		buf := make([]byte, take)
		if err := fs.clusterStream.Read(buf); err != 0 {
			return nil, err
		}
		out = append(out, buf...)
		remaining -= take
		if remaining == 0 {
			break
		}
		next, err := fs.getFatEntry(cluster)
		if err != 0 {
			return nil, err
		}
		if next >= entryEOCMin {
			break
		}
		if next == entryBad || (next >= entryReservedLo && next <= entryReservedHi) || next == entryUnallocated {
			return nil, defs.EIO
		}
		cluster = next
	}
	return out, 0
}

// readClusterChainAt reads `size` bytes starting `offset` bytes into the
// chain beginning at firstCluster, re-resolving through the FAT for each
// cluster boundary crossed -- fixing the source's documented bug where a
// mid-cluster starting offset combined with a short request is
// miscomputed.
func (fs *FS_t) readClusterChainAt(firstCluster uint16, offset, size int) ([]byte, defs.Err_t) {
	clusterSize := fs.clusterSize()
	cluster := firstCluster
	skip := offset
	for skip >= clusterSize {
		next, err := fs.getFatEntry(cluster)
		if err != 0 {
			return nil, err
		}
		if next >= entryEOCMin {
			return nil, defs.EIO
		}
		cluster = next
		skip -= clusterSize
	}
	full, err := fs.readClusterChain(cluster, skip+size)
	if err != 0 {
		return nil, err
	}
	if skip+size > len(full) {
		return full[skip:], 0
	}
	return full[skip : skip+size], 0
}
