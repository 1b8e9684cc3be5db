// Package fsops implements EdFS's operation dispatcher: the POSIX-style
// filesystem operation set, each one composing the path resolver, the
// directory store, the block map, and the bitmap allocator. Every
// mutating operation here is the "straight-line sequence of positioned
// disk I/Os" spec.md §5 describes — no operation suspends, and there is
// no in-process locking.
package fsops

import (
	"errors"
	"fmt"

	"github.com/leidenuniv/edfs/internal/bitmap"
	"github.com/leidenuniv/edfs/internal/blockmap"
	"github.com/leidenuniv/edfs/internal/directory"
	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/pathresolve"
	"github.com/leidenuniv/edfs/internal/superblock"
	"github.com/leidenuniv/edfs/internal/telemetry"
)

// Attr is the subset of POSIX stat(2) fields EdFS fills in.
type Attr struct {
	Inumber uint16
	IsDir   bool
	Mode    uint32
	Nlink   uint32
	Size    int64
}

// FS is the operation dispatcher. It closes over a single open image and
// has no other state — every call is a complete, independent unit of
// work (spec.md §5).
type FS struct {
	h   *image.Handle
	log *telemetry.Logger
}

// New returns a dispatcher bound to h. log may be nil, in which case
// operations are not logged.
func New(h *image.Handle, log *telemetry.Logger) *FS {
	if log == nil {
		log = telemetry.New(false)
	}
	return &FS{h: h, log: log}
}

// Getattr returns path's attributes. "/" is always a directory, even
// before any mkdir under it.
func (fs *FS) Getattr(path string) (attr Attr, err error) {
	defer func() { fs.log.Op("getattr", path, err) }()

	if path == "/" {
		return Attr{IsDir: true, Mode: 0755, Nlink: 2}, nil
	}

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return Attr{}, err
	}

	attr = Attr{Inumber: im.Inumber, Size: int64(im.Disk.Size)}
	if im.Disk.IsDirectory() {
		attr.IsDir = true
		attr.Mode = 0770
		attr.Nlink = 2
	} else {
		attr.Mode = 0660
		attr.Nlink = 1
	}
	return attr, nil
}

// Readdir lists path's entries, synthesizing "." and "..".
func (fs *FS) Readdir(path string) (names []string, err error) {
	defer func() { fs.log.Op("readdir", path, err) }()

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return nil, err
	}
	if !im.Disk.IsDirectory() {
		return nil, fmt.Errorf("readdir: %q: %w", path, edfserr.ErrNotDir)
	}

	names = []string{".", ".."}
	err = directory.Scan(fs.h, im, func(e directory.Entry) bool {
		names = append(names, e.Name)
		return false
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (fs *FS) createNode(path string, kind inode.Kind) (err error) {
	parent, err := pathresolve.ParentInode(fs.h, path)
	if err != nil {
		return err
	}
	if !parent.Disk.IsDirectory() {
		return fmt.Errorf("create: parent of %q is not a directory: %w", path, edfserr.ErrNotDir)
	}

	name := pathresolve.Basename(path)
	if name == "" {
		return fmt.Errorf("create: %q has no basename: %w", path, edfserr.ErrInval)
	}

	if _, found, err := directory.Lookup(fs.h, parent, name); err != nil {
		return err
	} else if found {
		return fmt.Errorf("create: %q already exists: %w", path, edfserr.ErrExist)
	}

	child, err := inode.New(fs.h, kind)
	if err != nil {
		return err
	}
	child.Disk.Size = 0
	if err := inode.Write(fs.h, child.Inumber, &child.Disk); err != nil {
		return err
	}

	return directory.AddEntry(fs.h, parent, name, child.Inumber)
}

// Mkdir creates an empty directory at path.
func (fs *FS) Mkdir(path string, mode uint32) (err error) {
	defer func() { fs.log.Op("mkdir", path, err) }()
	return fs.createNode(path, inode.KindDirectory)
}

// Create creates an empty file at path.
func (fs *FS) Create(path string, mode uint32) (err error) {
	defer func() { fs.log.Op("create", path, err) }()
	return fs.createNode(path, inode.KindFile)
}

// freeInodeBlocks releases every data block (and, if indirect, every
// block the indirect block itself points at plus the indirect block) a
// disk inode owns.
func freeInodeBlocks(h *image.Handle, d *inode.DiskInode) error {
	if !d.Indirect {
		for _, blk := range d.Blocks {
			if blk == superblock.InvalidBlock {
				continue
			}
			if err := bitmap.Free(h, blk); err != nil {
				return err
			}
		}
		return nil
	}

	for _, indBlk := range d.Blocks {
		if indBlk == superblock.InvalidBlock {
			continue
		}

		raw, err := h.ReadBlock(indBlk)
		if err != nil {
			return err
		}
		per := h.Superblock().PointersPerIndirectBlock()
		for i := 0; i < per; i++ {
			ptr := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
			if ptr == superblock.InvalidBlock {
				continue
			}
			if err := bitmap.Free(h, ptr); err != nil {
				return err
			}
		}

		if err := bitmap.Free(h, indBlk); err != nil {
			return err
		}
	}

	return nil
}

// Rmdir removes the empty directory at path.
func (fs *FS) Rmdir(path string) (err error) {
	defer func() { fs.log.Op("rmdir", path, err) }()

	target, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return err
	}
	if !target.Disk.IsDirectory() {
		return fmt.Errorf("rmdir: %q is not a directory: %w", path, edfserr.ErrNotDir)
	}

	empty, err := directory.IsEmpty(fs.h, target)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("rmdir: %q is not empty: %w", path, edfserr.ErrNotEmpty)
	}

	parent, err := pathresolve.ParentInode(fs.h, path)
	if err != nil {
		return err
	}

	if _, err := directory.RemoveByInumber(fs.h, parent, target.Inumber); err != nil {
		return err
	}

	if err := freeInodeBlocks(fs.h, &target.Disk); err != nil {
		return err
	}

	return inode.Clear(fs.h, target.Inumber)
}

// Unlink removes the file at path, freeing its data blocks.
func (fs *FS) Unlink(path string) (err error) {
	defer func() { fs.log.Op("unlink", path, err) }()

	target, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return err
	}
	if target.Disk.IsDirectory() {
		return fmt.Errorf("unlink: %q is a directory: %w", path, edfserr.ErrIsDir)
	}

	if err := freeInodeBlocks(fs.h, &target.Disk); err != nil {
		return err
	}

	parent, err := pathresolve.ParentInode(fs.h, path)
	if err != nil {
		return err
	}

	if _, err := directory.RemoveByInumber(fs.h, parent, target.Inumber); err != nil {
		return err
	}

	return inode.Clear(fs.h, target.Inumber)
}

// Read reads up to len(buf) bytes of path starting at offset.
func (fs *FS) Read(path string, buf []byte, offset int64) (n int, err error) {
	defer func() { fs.log.Op("read", path, err) }()

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return 0, err
	}
	if im.Disk.IsDirectory() {
		return 0, fmt.Errorf("read: %q is a directory: %w", path, edfserr.ErrIsDir)
	}

	size := int64(im.Disk.Size)
	if offset >= size {
		return 0, nil
	}

	want := len(buf)
	if offset+int64(want) > size {
		want = int(size - offset)
	}

	bs := int64(fs.h.Superblock().BlockSize)
	total := 0
	for total < want {
		blk, inBlkOff, err := blockmap.Translate(fs.h, im, offset+int64(total))
		if err != nil {
			return 0, err
		}

		chunk := bs - inBlkOff
		if remaining := int64(want - total); chunk > remaining {
			chunk = remaining
		}

		if err := fs.h.ReadAt(buf[total:total+int(chunk)], fs.h.Superblock().BlockOffset(blk)+inBlkOff); err != nil {
			return 0, err
		}

		total += int(chunk)
	}

	return total, nil
}

// Write writes len(buf) bytes to path starting at offset, allocating
// blocks (and extending size) as needed.
func (fs *FS) Write(path string, buf []byte, offset int64) (n int, err error) {
	defer func() { fs.log.Op("write", path, err) }()

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return 0, err
	}
	if im.Disk.IsDirectory() {
		return 0, fmt.Errorf("write: %q is a directory: %w", path, edfserr.ErrIsDir)
	}

	bs := int64(fs.h.Superblock().BlockSize)
	written := 0
	for written < len(buf) {
		curOff := offset + int64(written)
		idx := uint32(curOff / bs)
		inBlkOff := curOff % bs

		blk, err := blockmap.Ensure(fs.h, im, idx)
		if err != nil {
			return written, err
		}

		chunk := bs - inBlkOff
		if remaining := int64(len(buf) - written); chunk > remaining {
			chunk = remaining
		}

		if err := fs.h.WriteAt(buf[written:written+int(chunk)], fs.h.Superblock().BlockOffset(blk)+inBlkOff); err != nil {
			return written, err
		}

		written += int(chunk)
	}

	if offset+int64(written) > int64(im.Disk.Size) {
		im.Disk.Size = uint32(offset + int64(written))
		if err := inode.Write(fs.h, im.Inumber, &im.Disk); err != nil {
			return written, err
		}
	}

	return written, nil
}

// Truncate sets path's size to newSize, allocating or freeing blocks as
// needed. Growing a file only ensures the last logical block —
// intermediate blocks are left as holes, per spec.md §9.
func (fs *FS) Truncate(path string, newSize int64) (err error) {
	defer func() { fs.log.Op("truncate", path, err) }()

	if newSize < 0 {
		return fmt.Errorf("truncate: negative size %d: %w", newSize, edfserr.ErrInval)
	}

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return err
	}
	if im.Disk.IsDirectory() {
		return fmt.Errorf("truncate: %q is a directory: %w", path, edfserr.ErrIsDir)
	}

	bs := int64(fs.h.Superblock().BlockSize)
	oldSize := int64(im.Disk.Size)

	if newSize > oldSize {
		if newSize > 0 {
			lastIdx := uint32((newSize - 1) / bs)
			if _, err := blockmap.Ensure(fs.h, im, lastIdx); err != nil {
				return err
			}
		}
	} else if newSize < oldSize {
		firstFreed := ceilDiv(newSize, bs)
		lastFreed := ceilDiv(oldSize, bs) - 1
		for idx := firstFreed; idx <= lastFreed; idx++ {
			blk, _, err := blockmap.Translate(fs.h, im, idx*bs)
			if err != nil {
				if isHole(err) {
					continue
				}
				return err
			}
			if err := bitmap.Free(fs.h, blk); err != nil {
				return err
			}
		}
	}

	im.Disk.Size = uint32(newSize)
	return inode.Write(fs.h, im.Inumber, &im.Disk)
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func isHole(err error) bool {
	return errors.Is(err, edfserr.ErrIO)
}

// Chmod, Chown, and Utime accept and succeed with no on-disk change;
// EdFS does not persist permissions, ownership, or timestamps
// (spec.md §1 Non-goals).
func (fs *FS) Chmod(path string, mode uint32) error { return fs.exists(path) }
func (fs *FS) Chown(path string, uid, gid uint32) error { return fs.exists(path) }
func (fs *FS) Utime(path string, atime, mtime int64) error { return fs.exists(path) }

func (fs *FS) exists(path string) error {
	_, err := pathresolve.FindInode(fs.h, path)
	return err
}

// Open verifies path exists and is not a directory. EdFS keeps no
// per-open state.
func (fs *FS) Open(path string) (err error) {
	defer func() { fs.log.Op("open", path, err) }()

	im, err := pathresolve.FindInode(fs.h, path)
	if err != nil {
		return err
	}
	if im.Disk.IsDirectory() {
		return fmt.Errorf("open: %q is a directory: %w", path, edfserr.ErrIsDir)
	}
	return nil
}
