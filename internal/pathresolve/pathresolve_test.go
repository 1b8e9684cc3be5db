package pathresolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leidenuniv/edfs/internal/directory"
	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/testutil"
)

func TestFindInodeRootIsDirectory(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	root, err := FindInode(h, "/")
	require.NoError(t, err)
	require.True(t, root.Disk.IsDirectory())
}

func TestFindInodeWalksNestedPath(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)
	root, err := Root(h)
	require.NoError(t, err)

	sub, err := inode.New(h, inode.KindDirectory)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, sub.Inumber, &sub.Disk))
	require.NoError(t, directory.AddEntry(h, root, "sub", sub.Inumber))

	leaf, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, leaf.Inumber, &leaf.Disk))
	require.NoError(t, directory.AddEntry(h, sub, "leaf.txt", leaf.Inumber))

	found, err := FindInode(h, "/sub/leaf.txt")
	require.NoError(t, err)
	require.Equal(t, leaf.Inumber, found.Inumber)

	foundTrailing, err := FindInode(h, "/sub/leaf.txt///")
	require.NoError(t, err)
	require.Equal(t, leaf.Inumber, foundTrailing.Inumber)
}

func TestFindInodeMissingComponentIsENOENT(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	_, err := FindInode(h, "/nope")
	require.ErrorIs(t, err, edfserr.ErrNoEnt)
}

func TestFindInodeThroughFileIsENOTDIR(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)
	root, err := Root(h)
	require.NoError(t, err)

	leaf, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, leaf.Inumber, &leaf.Disk))
	require.NoError(t, directory.AddEntry(h, root, "f", leaf.Inumber))

	_, err = FindInode(h, "/f/sub")
	require.ErrorIs(t, err, edfserr.ErrNotDir)
}

func TestParentInodeAndBasename(t *testing.T) {
	require.Equal(t, "leaf.txt", Basename("/sub/leaf.txt"))
	require.Equal(t, "leaf.txt", Basename("/sub/leaf.txt///"))
	require.Equal(t, "", Basename("///"))
	require.Equal(t, "a", Basename("/a"))

	h := testutil.NewFixture(t, testutil.Tiny)
	root, err := Root(h)
	require.NoError(t, err)

	sub, err := inode.New(h, inode.KindDirectory)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, sub.Inumber, &sub.Disk))
	require.NoError(t, directory.AddEntry(h, root, "sub", sub.Inumber))

	parent, err := ParentInode(h, "/sub/leaf.txt")
	require.NoError(t, err)
	require.Equal(t, sub.Inumber, parent.Inumber)

	rootParent, err := ParentInode(h, "/onlyroot")
	require.NoError(t, err)
	require.Equal(t, root.Inumber, rootParent.Inumber)

	_, err = ParentInode(h, "noslash")
	require.ErrorIs(t, err, edfserr.ErrInval)
}
