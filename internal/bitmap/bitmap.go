// Package bitmap implements the free-data-block allocator: a
// bit-per-block bitmap persisted at a fixed offset, mutated through a
// single-byte read-modify-write per spec.md §4.3. The in-memory bitmap
// scan used to locate a candidate bit is a performance shortcut only —
// the single-byte RMW that follows is the authoritative mutation, so a
// racing allocation (impossible under the single-threaded dispatch model
// of spec.md §5) would be caught by that RMW, not by the scan.
package bitmap

import (
	"fmt"

	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
)

func byteOffset(h *image.Handle, block uint16) (off int64, mask byte) {
	sb := h.Superblock()
	byteIdx := block / 8
	return int64(sb.BitmapStart) + int64(byteIdx), 1 << (block % 8)
}

func setBit(h *image.Handle, block uint16, value bool) error {
	off, mask := byteOffset(h, block)

	buf := make([]byte, 1)
	if err := h.ReadAt(buf, off); err != nil {
		return err
	}

	if value {
		if buf[0]&mask != 0 {
			return fmt.Errorf("block %d: already allocated: %w", block, edfserr.ErrExist)
		}
		buf[0] |= mask
	} else {
		if buf[0]&mask == 0 {
			return fmt.Errorf("block %d: already free: %w", block, edfserr.ErrNoEnt)
		}
		buf[0] &^= mask
	}

	return h.WriteAt(buf, off)
}

// Alloc finds the first clear bit in the bitmap, sets it, and returns
// the corresponding block number. Allocation does not zero the block;
// callers that need zero-initialized content (the block map, for
// indirect blocks) must do so themselves.
func Alloc(h *image.Handle) (uint16, error) {
	sb := h.Superblock()
	buf := make([]byte, sb.BitmapSize)
	if err := h.ReadAt(buf, int64(sb.BitmapStart)); err != nil {
		return 0, err
	}

	for byteIdx, b := range buf {
		if b == 0xFF {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				block := uint16(byteIdx*8 + bit)
				if err := setBit(h, block, true); err != nil {
					return 0, err
				}
				return block, nil
			}
		}
	}

	return 0, edfserr.ErrNoSpc
}

// Free clears block's bit.
func Free(h *image.Handle, block uint16) error {
	return setBit(h, block, false)
}
