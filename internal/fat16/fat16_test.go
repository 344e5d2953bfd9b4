package fat16

import (
	"encoding/binary"
	"testing"

	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/disk"
)

// buildImage assembles a minimal FAT16 disk image containing a single
// root-level file, matching spec.md §8 scenario 1.
func buildImage(filename8, ext3 string, content []byte) []byte {
	const sectorSize = 512
	img := make([]byte, 4*sectorSize) // boot, FAT, root dir, one data cluster

	// boot sector (sector 0)
	binary.LittleEndian.PutUint16(img[11:13], sectorSize) // bytes_per_sector
	img[13] = 1                                           // sectors_per_cluster
	binary.LittleEndian.PutUint16(img[14:16], 1)          // reserved_sectors
	img[16] = 1                                           // fat_copies
	binary.LittleEndian.PutUint16(img[17:19], 16)         // root_dir_entries
	binary.LittleEndian.PutUint16(img[19:21], 4)          // number_of_sectors
	binary.LittleEndian.PutUint16(img[22:24], 1)          // sectors_per_fat
	img[38] = extendedBootSig

	// FAT table (sector 1): cluster 2 is the only cluster, end of chain.
	fat := img[sectorSize : 2*sectorSize]
	binary.LittleEndian.PutUint16(fat[2*2:2*2+2], entryEOCMin)

	// root directory (sector 2): one entry for the file.
	dirEntry := img[2*sectorSize : 2*sectorSize+dirEntrySize]
	copy(dirEntry[0:8], []byte(filename8))
	copy(dirEntry[8:11], []byte(ext3))
	dirEntry[11] = 0 // attribute: plain file
	binary.LittleEndian.PutUint16(dirEntry[26:28], 2)
	binary.LittleEndian.PutUint32(dirEntry[28:32], uint32(len(content)))

	// data cluster (sector 3)
	copy(img[3*sectorSize:], content)

	return img
}

// buildMultiClusterImage assembles a FAT16 disk image containing a
// single root-level file whose data spans two clusters (one sector
// each), chained via the FAT, matching spec.md §8 invariant 5: a read
// starting mid-cluster and spanning into the next cluster must resolve
// through the FAT rather than reading past the first cluster's bytes.
func buildMultiClusterImage(filename8, ext3 string, content []byte) []byte {
	const sectorSize = 512
	img := make([]byte, 5*sectorSize) // boot, FAT, root dir, two data clusters

	binary.LittleEndian.PutUint16(img[11:13], sectorSize)
	img[13] = 1 // sectors_per_cluster
	binary.LittleEndian.PutUint16(img[14:16], 1)
	img[16] = 1
	binary.LittleEndian.PutUint16(img[17:19], 16)
	binary.LittleEndian.PutUint16(img[19:21], 5)
	binary.LittleEndian.PutUint16(img[22:24], 1)
	img[38] = extendedBootSig

	// FAT table (sector 1): cluster 2 -> cluster 3 -> end of chain.
	fat := img[sectorSize : 2*sectorSize]
	binary.LittleEndian.PutUint16(fat[2*2:2*2+2], 3)
	binary.LittleEndian.PutUint16(fat[3*2:3*2+2], entryEOCMin)

	// root directory (sector 2): one entry for the file.
	dirEntry := img[2*sectorSize : 2*sectorSize+dirEntrySize]
	copy(dirEntry[0:8], []byte(filename8))
	copy(dirEntry[8:11], []byte(ext3))
	dirEntry[11] = 0
	binary.LittleEndian.PutUint16(dirEntry[26:28], 2)
	binary.LittleEndian.PutUint32(dirEntry[28:32], uint32(len(content)))

	// data clusters (sectors 3-4): cluster 2 holds the first sectorSize
	// bytes, cluster 3 holds the rest.
	copy(img[3*sectorSize:], content)

	return img
}

func TestReadSpansClusterBoundary(t *testing.T) {
	const sectorSize = 512
	content := make([]byte, 600)
	for i := range content {
		content[i] = byte(i % 256)
	}
	img := buildMultiClusterImage("CHAIN   ", "BIN", content)
	d := disk.New(0, img)
	fs, err := Resolve(d)
	if err != 0 {
		t.Fatalf("Resolve: %v", err)
	}
	fd, err := fs.Open([]string{"CHAIN.BIN"}, "r")
	if err != 0 {
		t.Fatalf("Open: %v", err)
	}

	const offset = 500 // mid first cluster
	const size = 20    // ends 8 bytes into the second cluster
	if err := fs.Seek(fd, offset, SeekSet); err != 0 {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, size)
	n, err := fs.Read(fd, 1, size, buf)
	if err != 0 {
		t.Fatalf("Read: %v", err)
	}
	if n != size {
		t.Fatalf("expected %d bytes, got %d", size, n)
	}
	want := content[offset : offset+size]
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, want[i], buf[i])
		}
	}
}

func TestResolveRejectsBadSignature(t *testing.T) {
	img := make([]byte, 512)
	d := disk.New(0, img)
	if _, err := Resolve(d); err == 0 {
		t.Fatal("expected EFSNOTUS for missing extended signature")
	}
}

func TestBootAndPrintScenario(t *testing.T) {
	img := buildImage("HELLO   ", "TXT", []byte("Hello World\n"))
	d := disk.New(0, img)
	fs, err := Resolve(d)
	if err != 0 {
		t.Fatalf("Resolve: %v", err)
	}
	fd, err := fs.Open([]string{"HELLO.TXT"}, "r")
	if err != 0 {
		t.Fatalf("Open: %v", err)
	}
	if err := fs.Seek(fd, 5, SeekSet); err != 0 {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 7)
	n, err := fs.Read(fd, 1, 7, buf)
	if err != 0 {
		t.Fatalf("Read: %v", err)
	}
	if n != 7 || string(buf) != " World\n" {
		t.Fatalf("expected \" World\\n\", got %q (n=%d)", buf, n)
	}
	st := fs.Stat(fd)
	if st.Filesize != 12 {
		t.Fatalf("expected filesize 12, got %d", st.Filesize)
	}
}

func TestOpenUnknownFileFails(t *testing.T) {
	img := buildImage("HELLO   ", "TXT", []byte("hi\n"))
	d := disk.New(0, img)
	fs, _ := Resolve(d)
	if _, err := fs.Open([]string{"NOPE.TXT"}, "r"); err == 0 {
		t.Fatal("expected failure opening nonexistent file")
	}
}

func TestSeekBeyondEOF(t *testing.T) {
	img := buildImage("HELLO   ", "TXT", []byte("hi\n"))
	d := disk.New(0, img)
	fs, _ := Resolve(d)
	fd, _ := fs.Open([]string{"HELLO.TXT"}, "r")
	if err := fs.Seek(fd, 1000, SeekSet); err == 0 {
		t.Fatal("expected IO failure seeking beyond file size")
	}
	if err := fs.Seek(fd, 0, SeekEnd); err != defs.EUNIMP {
		t.Fatalf("expected UNIMPLEMENTED, got %v", err)
	}
}
