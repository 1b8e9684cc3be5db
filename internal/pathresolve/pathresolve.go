// Package pathresolve walks slash-separated paths from the root inode to
// a target inode, and derives a path's parent inode and basename.
package pathresolve

import (
	"fmt"
	"strings"

	"github.com/leidenuniv/edfs/internal/directory"
	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/superblock"
)

// Root loads the filesystem's root directory inode.
func Root(h *image.Handle) (*inode.InMemory, error) {
	return load(h, h.Superblock().RootInumber)
}

func load(h *image.Handle, inumber uint16) (*inode.InMemory, error) {
	d, err := inode.Read(h, inumber)
	if err != nil {
		return nil, err
	}
	return &inode.InMemory{Inumber: inumber, Disk: *d}, nil
}

// FindInode walks path, which must be non-empty and begin with '/', from
// the root inode to the inode it names. The empty path after the root
// ("/") returns the root inode; trailing slashes are tolerated.
func FindInode(h *image.Handle, path string) (*inode.InMemory, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, fmt.Errorf("pathresolve: path %q must be absolute: %w", path, edfserr.ErrInval)
	}

	current, err := Root(h)
	if err != nil {
		return nil, err
	}

	for _, comp := range strings.Split(path, "/") {
		if comp == "" {
			continue
		}
		if len(comp) >= superblock.FilenameMax {
			return nil, fmt.Errorf("pathresolve: component %q too long: %w", comp, edfserr.ErrInval)
		}
		if !current.Disk.IsDirectory() {
			return nil, fmt.Errorf("pathresolve: %q is not a directory: %w", comp, edfserr.ErrNotDir)
		}

		inumber, found, err := directory.Lookup(h, current, comp)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("pathresolve: %q not found: %w", comp, edfserr.ErrNoEnt)
		}

		current, err = load(h, inumber)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

func dropTrailingSlashes(path string) string {
	for len(path) > 0 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}

// ParentInode returns the inode of path's containing directory.
func ParentInode(h *image.Handle, path string) (*inode.InMemory, error) {
	trimmed := dropTrailingSlashes(path)
	if trimmed == "" {
		return nil, fmt.Errorf("pathresolve: empty path: %w", edfserr.ErrInval)
	}

	sep := strings.LastIndexByte(trimmed, '/')
	if sep < 0 {
		return nil, fmt.Errorf("pathresolve: path %q has no separator: %w", path, edfserr.ErrInval)
	}
	if sep == 0 {
		return Root(h)
	}

	return FindInode(h, trimmed[:sep])
}

// Basename returns the component after path's last '/', with trailing
// slashes removed. It returns "" for a path that yields no final
// component.
func Basename(path string) string {
	trimmed := dropTrailingSlashes(path)
	if trimmed == "" {
		return ""
	}

	sep := strings.LastIndexByte(trimmed, '/')
	if sep < 0 {
		return ""
	}

	return trimmed[sep+1:]
}
