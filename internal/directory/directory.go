// Package directory implements EdFS's directory data blocks: fixed-size
// name/inumber entry slots spread across up to N_DIRECT direct data
// blocks of a directory inode. Iteration is exposed as a closure-taking
// higher-order routine rather than a callback-with-userdata pointer,
// per spec.md §9's re-architecture guidance — the same shape the
// teacher repo uses for its btree visitor
// (internal/middleware/btrees/btree_traverser.go: a step function
// invoked per element, with an early-stop signal).
package directory

import (
	"bytes"
	"fmt"

	"github.com/leidenuniv/edfs/internal/bitmap"
	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/superblock"
)

// Entry is one directory entry: a filename and the inumber it names.
type Entry struct {
	Name    string
	Inumber uint16
}

func (e Entry) empty() bool { return e.Inumber == 0 && e.Name == "" }

func decodeEntry(buf []byte) Entry {
	nameBytes := buf[:superblock.FilenameMax]
	if i := bytes.IndexByte(nameBytes, 0); i >= 0 {
		nameBytes = nameBytes[:i]
	}
	inumber := uint16(buf[superblock.FilenameMax]) | uint16(buf[superblock.FilenameMax+1])<<8
	return Entry{Name: string(nameBytes), Inumber: inumber}
}

func encodeEntry(e Entry) []byte {
	buf := make([]byte, superblock.DirEntrySize)
	copy(buf[:superblock.FilenameMax], []byte(e.Name))
	buf[superblock.FilenameMax] = byte(e.Inumber)
	buf[superblock.FilenameMax+1] = byte(e.Inumber >> 8)
	return buf
}

func requireDirectory(im *inode.InMemory) error {
	if !im.Disk.IsDirectory() {
		return fmt.Errorf("directory: inode %d is not a directory: %w", im.Inumber, edfserr.ErrNotDir)
	}
	return nil
}

// Scan walks every non-empty entry across dir's direct blocks, in
// pointer-array order then slot order, invoking step for each. It stops
// as soon as step returns true.
func Scan(h *image.Handle, dir *inode.InMemory, step func(Entry) (stop bool)) error {
	if err := requireDirectory(dir); err != nil {
		return err
	}

	entsPerBlock := h.Superblock().EntriesPerDirBlock()

	for _, blk := range dir.Disk.Blocks {
		if blk == superblock.InvalidBlock {
			continue
		}

		raw, err := h.ReadBlock(blk)
		if err != nil {
			return err
		}

		for j := 0; j < entsPerBlock; j++ {
			off := j * superblock.DirEntrySize
			e := decodeEntry(raw[off : off+superblock.DirEntrySize])
			if e.empty() {
				continue
			}
			if step(e) {
				return nil
			}
		}
	}

	return nil
}

// AddEntry inserts name/inumber into dir. It first looks for an empty
// slot in an already-allocated block; failing that, it allocates a new
// direct block for the directory (failing with ENOSPC if dir's pointer
// array is already full). Uniqueness is not checked here — callers
// (mkdir/create) must scan for a duplicate name themselves and return
// EEXIST.
func AddEntry(h *image.Handle, dir *inode.InMemory, name string, inumber uint16) error {
	if err := requireDirectory(dir); err != nil {
		return err
	}
	if len(name) >= superblock.FilenameMax {
		return fmt.Errorf("directory: filename %q too long: %w", name, edfserr.ErrInval)
	}

	sb := h.Superblock()
	entsPerBlock := sb.EntriesPerDirBlock()

	for _, blk := range dir.Disk.Blocks {
		if blk == superblock.InvalidBlock {
			continue
		}

		raw, err := h.ReadBlock(blk)
		if err != nil {
			return err
		}

		for j := 0; j < entsPerBlock; j++ {
			off := j * superblock.DirEntrySize
			e := decodeEntry(raw[off : off+superblock.DirEntrySize])
			if !e.empty() {
				continue
			}
			copy(raw[off:off+superblock.DirEntrySize], encodeEntry(Entry{Name: name, Inumber: inumber}))
			return h.WriteBlock(blk, raw)
		}
	}

	slot := -1
	for i, blk := range dir.Disk.Blocks {
		if blk == superblock.InvalidBlock {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("directory: inode %d has no free block slot: %w", dir.Inumber, edfserr.ErrNoSpc)
	}

	newBlk, err := bitmap.Alloc(h)
	if err != nil {
		return err
	}

	raw := make([]byte, sb.BlockSize)
	copy(raw[:superblock.DirEntrySize], encodeEntry(Entry{Name: name, Inumber: inumber}))
	if err := h.WriteBlock(newBlk, raw); err != nil {
		return err
	}

	dir.Disk.Blocks[slot] = newBlk
	return inode.Write(h, dir.Inumber, &dir.Disk)
}

// RemoveByInumber zeroes, in place, the first entry of dir whose
// inumber matches target. The directory's pointer array is never
// compacted and a data block that becomes entirely empty is not
// returned to the allocator (spec.md §4.5, §9: "never compact").
func RemoveByInumber(h *image.Handle, dir *inode.InMemory, target uint16) (removed bool, err error) {
	if err := requireDirectory(dir); err != nil {
		return false, err
	}

	entsPerBlock := h.Superblock().EntriesPerDirBlock()

	for _, blk := range dir.Disk.Blocks {
		if blk == superblock.InvalidBlock {
			continue
		}

		raw, err := h.ReadBlock(blk)
		if err != nil {
			return false, err
		}

		changed := false
		for j := 0; j < entsPerBlock; j++ {
			off := j * superblock.DirEntrySize
			e := decodeEntry(raw[off : off+superblock.DirEntrySize])
			if e.empty() || e.Inumber != target {
				continue
			}
			clear(raw[off : off+superblock.DirEntrySize])
			changed = true
			break
		}

		if changed {
			if err := h.WriteBlock(blk, raw); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

// Lookup scans dir for an entry named name and returns its inumber.
func Lookup(h *image.Handle, dir *inode.InMemory, name string) (inumber uint16, found bool, err error) {
	err = Scan(h, dir, func(e Entry) bool {
		if e.Name == name {
			inumber = e.Inumber
			found = true
			return true
		}
		return false
	})
	return inumber, found, err
}

// IsEmpty reports whether dir has no non-empty entries.
func IsEmpty(h *image.Handle, dir *inode.InMemory) (bool, error) {
	empty := true
	err := Scan(h, dir, func(Entry) bool {
		empty = false
		return true
	})
	return empty, err
}
