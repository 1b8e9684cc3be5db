// Package inode implements the EdFS inode table: fixed-size disk inode
// slots read and written at a computed offset, plus the linear free-slot
// scan. The disk inode's "type byte = free|file|directory with optional
// indirect bit" is modeled as an explicit Kind tag plus an Indirect
// field, per spec.md §9's re-architecture guidance, rather than bit
// arithmetic scattered across call sites.
package inode

import (
	"encoding/binary"
	"fmt"

	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/superblock"
)

// Kind discriminates the three disk-inode variants.
type Kind uint8

const (
	KindFree Kind = iota
	KindFile
	KindDirectory
)

const (
	kindMask     = 0x03
	indirectFlag = 0x80
)

// WireSize is the fixed on-disk size of one inode slot.
const WireSize = 32

// DiskInode is the in-memory decoding of a fixed-size disk inode slot.
type DiskInode struct {
	Kind     Kind
	Indirect bool
	Size     uint32
	Blocks   [superblock.NDirect]uint16
}

// IsDirectory reports whether the inode is an allocated directory.
func (d *DiskInode) IsDirectory() bool { return d.Kind == KindDirectory }

// IsFree reports whether the inode slot is unallocated.
func (d *DiskInode) IsFree() bool { return d.Kind == KindFree }

// InMemory pairs an inumber with a copy of its disk inode. It is a
// short-lived value created by the resolver or a dispatcher operation
// and never shared across calls (spec.md §3).
type InMemory struct {
	Inumber uint16
	Disk    DiskInode
}

func decode(buf []byte) DiskInode {
	var d DiskInode
	typeByte := buf[0]
	d.Kind = Kind(typeByte & kindMask)
	d.Indirect = typeByte&indirectFlag != 0
	d.Size = binary.LittleEndian.Uint32(buf[1:5])
	for i := 0; i < superblock.NDirect; i++ {
		off := 5 + i*superblock.BlockPtrSize
		d.Blocks[i] = binary.LittleEndian.Uint16(buf[off : off+2])
	}
	return d
}

func encode(d *DiskInode) []byte {
	buf := make([]byte, WireSize)
	typeByte := byte(d.Kind)
	if d.Indirect {
		typeByte |= indirectFlag
	}
	buf[0] = typeByte
	binary.LittleEndian.PutUint32(buf[1:5], d.Size)
	for i := 0; i < superblock.NDirect; i++ {
		off := 5 + i*superblock.BlockPtrSize
		binary.LittleEndian.PutUint16(buf[off:off+2], d.Blocks[i])
	}
	return buf
}

func checkBounds(sb *superblock.Superblock, inumber uint16) error {
	if uint32(inumber) >= sb.InodeCount {
		return fmt.Errorf("inode %d: %w", inumber, edfserr.ErrNoEnt)
	}
	return nil
}

// Read reads the disk inode at inumber.
func Read(h *image.Handle, inumber uint16) (*DiskInode, error) {
	sb := h.Superblock()
	if err := checkBounds(sb, inumber); err != nil {
		return nil, err
	}
	buf := make([]byte, WireSize)
	if err := h.ReadAt(buf, sb.InodeOffset(inumber)); err != nil {
		return nil, err
	}
	d := decode(buf)
	return &d, nil
}

// Write overwrites the disk inode slot at inumber.
func Write(h *image.Handle, inumber uint16, d *DiskInode) error {
	sb := h.Superblock()
	if err := checkBounds(sb, inumber); err != nil {
		return err
	}
	return h.WriteAt(encode(d), sb.InodeOffset(inumber))
}

// Clear writes zeros to inumber's slot, marking it free.
func Clear(h *image.Handle, inumber uint16) error {
	sb := h.Superblock()
	if err := checkBounds(sb, inumber); err != nil {
		return err
	}
	return h.WriteAt(make([]byte, WireSize), sb.InodeOffset(inumber))
}

// FindFree scans from inumber 1 upward and returns the first free slot,
// or 0 if the table is full.
func FindFree(h *image.Handle) (uint16, error) {
	sb := h.Superblock()
	for i := uint32(1); i < sb.InodeCount; i++ {
		d, err := Read(h, uint16(i))
		if err != nil {
			return 0, err
		}
		if d.IsFree() {
			return uint16(i), nil
		}
	}
	return 0, nil
}

// New finds a free inode slot and returns an in-memory inode of the
// requested kind, with size 0 and every block pointer set to
// superblock.InvalidBlock. The slot is not allocated on disk until the
// caller calls Write.
func New(h *image.Handle, kind Kind) (*InMemory, error) {
	inumber, err := FindFree(h)
	if err != nil {
		return nil, err
	}
	if inumber == 0 {
		return nil, edfserr.ErrNoSpc
	}

	im := &InMemory{Inumber: inumber}
	im.Disk.Kind = kind
	for i := range im.Disk.Blocks {
		im.Disk.Blocks[i] = superblock.InvalidBlock
	}
	return im, nil
}
