// Package blockmap translates an inode's logical byte offsets to
// physical disk blocks, and ensures a logical block exists — allocating
// data blocks and, on demand, promoting a direct-only inode to single
// indirection. This is the most intricate of EdFS's three coupled
// subsystems (spec.md §1); every mutating filesystem operation that
// touches file data goes through Ensure, and every read goes through
// Translate.
package blockmap

import (
	"encoding/binary"
	"fmt"

	"github.com/leidenuniv/edfs/internal/bitmap"
	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/superblock"
)

func readIndirect(h *image.Handle, blk uint16) ([]uint16, error) {
	raw, err := h.ReadBlock(blk)
	if err != nil {
		return nil, err
	}
	per := h.Superblock().PointersPerIndirectBlock()
	ptrs := make([]uint16, per)
	for i := 0; i < per; i++ {
		ptrs[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return ptrs, nil
}

func writeIndirect(h *image.Handle, blk uint16, ptrs []uint16) error {
	sb := h.Superblock()
	raw := make([]byte, sb.BlockSize)
	for i, p := range ptrs {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], p)
	}
	return h.WriteBlock(blk, raw)
}

// Translate maps byteOffset (which must satisfy 0 <= byteOffset <
// im.Disk.Size) to a physical block number and the offset within that
// block. It never allocates; a reference to an unallocated block (a
// hole) is reported as EIO, per spec.md §4.4 and the preserved
// hole-behavior documented in spec.md §9.
func Translate(h *image.Handle, im *inode.InMemory, byteOffset int64) (block uint16, inBlockOff int64, err error) {
	if byteOffset < 0 || byteOffset >= int64(im.Disk.Size) {
		return 0, 0, fmt.Errorf("blockmap: offset %d out of range for size %d: %w", byteOffset, im.Disk.Size, edfserr.ErrInval)
	}

	bs := int64(h.Superblock().BlockSize)
	idx := uint32(byteOffset / bs)
	inBlockOff = byteOffset % bs

	if !im.Disk.Indirect {
		if int(idx) >= superblock.NDirect {
			return 0, 0, fmt.Errorf("blockmap: direct index %d out of range: %w", idx, edfserr.ErrIO)
		}
		blk := im.Disk.Blocks[idx]
		if blk == superblock.InvalidBlock {
			return 0, 0, fmt.Errorf("blockmap: read into hole at logical block %d: %w", idx, edfserr.ErrIO)
		}
		return blk, inBlockOff, nil
	}

	per := uint32(h.Superblock().PointersPerIndirectBlock())
	slot := idx / per
	within := idx % per
	if int(slot) >= superblock.NDirect {
		return 0, 0, fmt.Errorf("blockmap: indirect slot %d out of range: %w", slot, edfserr.ErrIO)
	}

	indBlk := im.Disk.Blocks[slot]
	if indBlk == superblock.InvalidBlock {
		return 0, 0, fmt.Errorf("blockmap: indirect block missing at slot %d: %w", slot, edfserr.ErrIO)
	}

	ptrs, err := readIndirect(h, indBlk)
	if err != nil {
		return 0, 0, err
	}

	dataBlk := ptrs[within]
	if dataBlk == superblock.InvalidBlock {
		return 0, 0, fmt.Errorf("blockmap: read into hole at logical block %d: %w", idx, edfserr.ErrIO)
	}

	return dataBlk, inBlockOff, nil
}

// Ensure guarantees that logical block idx of im exists, allocating and
// linking data blocks (and, if idx crosses the direct capacity for the
// first time, promoting im to single indirection) as needed. im is
// mutated in place and its disk inode is written back whenever it
// changes. Returns idx's physical block number.
func Ensure(h *image.Handle, im *inode.InMemory, idx uint32) (uint16, error) {
	if !im.Disk.Indirect && int(idx) < superblock.NDirect {
		if im.Disk.Blocks[idx] == superblock.InvalidBlock {
			blk, err := bitmap.Alloc(h)
			if err != nil {
				return 0, err
			}
			im.Disk.Blocks[idx] = blk
			if err := inode.Write(h, im.Inumber, &im.Disk); err != nil {
				return 0, err
			}
		}
		return im.Disk.Blocks[idx], nil
	}

	if !im.Disk.Indirect {
		if err := promote(h, im); err != nil {
			return 0, err
		}
	}

	per := uint32(h.Superblock().PointersPerIndirectBlock())
	slot := idx / per
	within := idx % per
	if int(slot) >= superblock.NDirect {
		return 0, fmt.Errorf("blockmap: file grew past single-indirect capacity at logical block %d: %w", idx, edfserr.ErrFBig)
	}

	if im.Disk.Blocks[slot] == superblock.InvalidBlock {
		indBlk, err := bitmap.Alloc(h)
		if err != nil {
			return 0, err
		}
		empty := make([]uint16, h.Superblock().PointersPerIndirectBlock())
		for i := range empty {
			empty[i] = superblock.InvalidBlock
		}
		if err := writeIndirect(h, indBlk, empty); err != nil {
			return 0, err
		}
		im.Disk.Blocks[slot] = indBlk
		if err := inode.Write(h, im.Inumber, &im.Disk); err != nil {
			return 0, err
		}
	}

	ptrs, err := readIndirect(h, im.Disk.Blocks[slot])
	if err != nil {
		return 0, err
	}

	if ptrs[within] == superblock.InvalidBlock {
		dataBlk, err := bitmap.Alloc(h)
		if err != nil {
			return 0, err
		}
		ptrs[within] = dataBlk
		if err := writeIndirect(h, im.Disk.Blocks[slot], ptrs); err != nil {
			return 0, err
		}
	}

	return ptrs[within], nil
}

// promote converts a direct-only inode to single indirection: it
// allocates one indirect block, copies the current direct pointers into
// its first N_DIRECT slots (preserving their logical positions), then
// clears the inode's direct array and points blocks[0] at the new
// indirect block.
func promote(h *image.Handle, im *inode.InMemory) error {
	indBlk, err := bitmap.Alloc(h)
	if err != nil {
		return err
	}

	per := h.Superblock().PointersPerIndirectBlock()
	ptrs := make([]uint16, per)
	for i := 0; i < per; i++ {
		ptrs[i] = superblock.InvalidBlock
	}
	for i := 0; i < superblock.NDirect; i++ {
		ptrs[i] = im.Disk.Blocks[i]
	}
	if err := writeIndirect(h, indBlk, ptrs); err != nil {
		return err
	}

	for i := range im.Disk.Blocks {
		im.Disk.Blocks[i] = superblock.InvalidBlock
	}
	im.Disk.Blocks[0] = indBlk
	im.Disk.Indirect = true

	return inode.Write(h, im.Inumber, &im.Disk)
}
