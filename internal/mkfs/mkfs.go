// Package mkfs builds a fresh EdFS image: a superblock, a zeroed
// bitmap, a zeroed inode table, and an allocated, empty root directory.
// It gives the test suite and cmd/mkedfs a single source of truth for
// on-disk layout instead of hand-rolled byte literals, grounded on the
// teacher's container-assembly helper
// (internal/middleware/container/container_manager.go), which likewise
// builds a fresh in-memory container structure before the first write.
package mkfs

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/superblock"
)

// Geometry describes the size of a new image.
type Geometry struct {
	BlockSize  uint32
	InodeCount uint32
	BlockCount uint32
}

// DefaultGeometry matches the round-trip scenarios in spec.md §8:
// 512-byte blocks, enough inodes and blocks for everyday use by a test
// suite or interactive session.
var DefaultGeometry = Geometry{
	BlockSize:  512,
	InodeCount: 64,
	BlockCount: 512,
}

// Format writes a fresh filesystem image to path, overwriting any
// existing content, and returns the superblock it wrote.
func Format(path string, geo Geometry) (*superblock.Superblock, error) {
	bitmapSize := (geo.BlockCount + 7) / 8
	inodeTableSize := geo.InodeCount * uint32(inode.WireSize)

	bitmapStart := uint32(superblock.WireSize)
	inodeTableStart := bitmapStart + bitmapSize
	dataStart := inodeTableStart + inodeTableSize
	diskSize := int64(dataStart) + int64(geo.BlockCount)*int64(geo.BlockSize)

	sb := &superblock.Superblock{
		BlockSize:       geo.BlockSize,
		DiskSize:        diskSize,
		BitmapStart:     bitmapStart,
		BitmapSize:      bitmapSize,
		InodeTableStart: inodeTableStart,
		InodeCount:      geo.InodeCount,
		InodeSize:       uint32(inode.WireSize),
		DataStart:       dataStart,
		RootInumber:     superblock.RootInumber,
		VolumeID:        uuid.New(),
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("mkfs: create %q: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(diskSize); err != nil {
		return nil, fmt.Errorf("mkfs: truncate %q to %d bytes: %w", path, diskSize, err)
	}

	if _, err := f.WriteAt(superblock.Encode(sb), superblock.Offset); err != nil {
		return nil, fmt.Errorf("mkfs: write superblock: %w", err)
	}

	if _, err := f.WriteAt(make([]byte, bitmapSize), int64(bitmapStart)); err != nil {
		return nil, fmt.Errorf("mkfs: zero bitmap: %w", err)
	}

	if _, err := f.WriteAt(make([]byte, inodeTableSize), int64(inodeTableStart)); err != nil {
		return nil, fmt.Errorf("mkfs: zero inode table: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("mkfs: close %q: %w", path, err)
	}

	h, err := image.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mkfs: reopen %q: %w", path, err)
	}
	defer h.Close()

	root, err := inode.New(h, inode.KindDirectory)
	if err != nil {
		return nil, fmt.Errorf("mkfs: allocate root inode: %w", err)
	}
	if root.Inumber != superblock.RootInumber {
		return nil, fmt.Errorf("mkfs: root landed at inumber %d, want %d", root.Inumber, superblock.RootInumber)
	}
	root.Disk.Size = 0
	if err := inode.Write(h, root.Inumber, &root.Disk); err != nil {
		return nil, fmt.Errorf("mkfs: write root inode: %w", err)
	}

	return sb, nil
}
