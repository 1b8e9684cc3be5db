// Package superblock reads, writes, and derives geometry from the EdFS
// superblock. The on-disk layout and validation approach are grounded on
// the teacher repo's container.ReadNXSuperblock (apfs/pkg/container):
// explicit little-endian field slicing followed by a Fletcher-64
// checksum check, rather than a bare binary.Read of a Go struct.
package superblock

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/leidenuniv/edfs/internal/checksum"
)

// Magic identifies an EdFS image. Chosen to spell "EdFS DaTa" loosely in
// hex, distinct from any real filesystem magic.
const Magic uint32 = 0xEDF5DA7A

// Offset is the fixed byte offset of the superblock within the image.
const Offset int64 = 0

// WireSize is the fixed on-disk size of the superblock, including its
// trailing Fletcher-64 checksum.
const WireSize = 128

// Superblock is the in-memory, validated representation of the on-disk
// superblock. It is read once at mount and treated as immutable
// thereafter (spec.md §3).
type Superblock struct {
	BlockSize       uint32
	DiskSize        int64
	BitmapStart     uint32
	BitmapSize      uint32
	InodeTableStart uint32
	InodeCount      uint32
	InodeSize       uint32
	DataStart       uint32
	RootInumber     uint16
	VolumeID        uuid.UUID
}

// Decode parses a WireSize-byte buffer into a Superblock, verifying the
// magic number and the trailing checksum. It does not verify the buffer
// against the backing image's actual size; callers (internal/image) do
// that once they know the file's length.
func Decode(buf []byte) (*Superblock, error) {
	if len(buf) < WireSize {
		return nil, fmt.Errorf("superblock: short buffer: got %d bytes, want %d", len(buf), WireSize)
	}

	if !checksum.Verify(buf[:WireSize]) {
		return nil, fmt.Errorf("superblock: checksum mismatch")
	}

	order := binary.LittleEndian

	magic := order.Uint32(buf[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("superblock: magic mismatch: got 0x%x, want 0x%x: not an EdFS image", magic, Magic)
	}

	sb := &Superblock{
		BlockSize:       order.Uint32(buf[4:8]),
		DiskSize:        int64(order.Uint64(buf[8:16])),
		BitmapStart:     order.Uint32(buf[16:20]),
		BitmapSize:      order.Uint32(buf[20:24]),
		InodeTableStart: order.Uint32(buf[24:28]),
		InodeCount:      order.Uint32(buf[28:32]),
		InodeSize:       order.Uint32(buf[32:36]),
		DataStart:       order.Uint32(buf[36:40]),
		RootInumber:     order.Uint16(buf[40:42]),
	}
	copy(sb.VolumeID[:], buf[56:72])

	return sb, nil
}

// Encode serializes sb into a WireSize-byte buffer with a trailing
// Fletcher-64 checksum over everything preceding it.
func Encode(sb *Superblock) []byte {
	buf := make([]byte, WireSize)
	order := binary.LittleEndian

	order.PutUint32(buf[0:4], Magic)
	order.PutUint32(buf[4:8], sb.BlockSize)
	order.PutUint64(buf[8:16], uint64(sb.DiskSize))
	order.PutUint32(buf[16:20], sb.BitmapStart)
	order.PutUint32(buf[20:24], sb.BitmapSize)
	order.PutUint32(buf[24:28], sb.InodeTableStart)
	order.PutUint32(buf[28:32], sb.InodeCount)
	order.PutUint32(buf[32:36], sb.InodeSize)
	order.PutUint32(buf[36:40], sb.DataStart)
	order.PutUint16(buf[40:42], sb.RootInumber)
	copy(buf[56:72], sb.VolumeID[:])

	sum := checksum.Fletcher64(buf[:WireSize-checksum.Size])
	order.PutUint64(buf[WireSize-checksum.Size:WireSize], sum)

	return buf
}

// Validate checks the structural invariants spec.md §3 demands beyond
// what Decode already verified: the backing image must be at least as
// large as the filesystem the superblock declares.
func (sb *Superblock) Validate(actualFileSize int64) error {
	if actualFileSize < sb.DiskSize {
		return fmt.Errorf("superblock: image truncated: file is %d bytes, filesystem declares %d", actualFileSize, sb.DiskSize)
	}
	return nil
}

// EntriesPerDirBlock returns how many fixed-size directory entries fit
// in one data block.
func (sb *Superblock) EntriesPerDirBlock() int {
	return int(sb.BlockSize) / DirEntrySize
}

// PointersPerIndirectBlock returns how many block pointers fit in one
// indirect block.
func (sb *Superblock) PointersPerIndirectBlock() int {
	return int(sb.BlockSize) / BlockPtrSize
}

// InodeOffset returns the absolute byte offset of inumber's disk inode
// slot within the image.
func (sb *Superblock) InodeOffset(inumber uint16) int64 {
	return int64(sb.InodeTableStart) + int64(inumber)*int64(sb.InodeSize)
}

// BlockOffset returns the absolute byte offset of data block b.
func (sb *Superblock) BlockOffset(b uint16) int64 {
	return int64(sb.DataStart) + int64(b)*int64(sb.BlockSize)
}

// MaxFileSize returns the largest byte size a file can reach: N_DIRECT
// direct blocks, or N_DIRECT indirect blocks each holding
// PointersPerIndirectBlock() data blocks, once promoted.
func (sb *Superblock) MaxFileSize(indirect bool) int64 {
	if !indirect {
		return int64(NDirect) * int64(sb.BlockSize)
	}
	return int64(NDirect) * int64(sb.PointersPerIndirectBlock()) * int64(sb.BlockSize)
}
