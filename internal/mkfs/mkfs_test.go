package mkfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leidenuniv/edfs/internal/directory"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/pathresolve"
	"github.com/leidenuniv/edfs/internal/superblock"
)

func TestFormatProducesMountableImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.img")

	sb, err := Format(path, Geometry{BlockSize: 512, InodeCount: 32, BlockCount: 64})
	require.NoError(t, err)
	require.NotEqual(t, sb.VolumeID.String(), "")

	h, err := image.Open(path)
	require.NoError(t, err)
	defer h.Close()

	got := h.Superblock()
	require.Equal(t, uint32(512), got.BlockSize)
	require.Equal(t, uint32(32), got.InodeCount)
	require.Equal(t, sb.VolumeID, got.VolumeID)
}

func TestFormatRootDirectoryIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.img")
	_, err := Format(path, DefaultGeometry)
	require.NoError(t, err)

	h, err := image.Open(path)
	require.NoError(t, err)
	defer h.Close()

	require.Equal(t, superblock.RootInumber, h.Superblock().RootInumber)

	root, err := pathresolve.Root(h)
	require.NoError(t, err)
	require.True(t, root.Disk.IsDirectory())

	empty, err := directory.IsEmpty(h, root)
	require.NoError(t, err)
	require.True(t, empty)
}
