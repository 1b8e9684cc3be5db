package blockmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/inode"
	"github.com/leidenuniv/edfs/internal/superblock"
	"github.com/leidenuniv/edfs/internal/testutil"
)

func TestEnsureDirectBlockIsStable(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	im, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	b1, err := Ensure(h, im, 0)
	require.NoError(t, err)

	b2, err := Ensure(h, im, 0)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestEnsurePromotesPastDirectCapacity(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	im, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	directBlocks := make([]uint16, superblock.NDirect)
	for i := 0; i < superblock.NDirect; i++ {
		blk, err := Ensure(h, im, uint32(i))
		require.NoError(t, err)
		directBlocks[i] = blk
	}
	require.False(t, im.Disk.Indirect)

	newBlk, err := Ensure(h, im, superblock.NDirect)
	require.NoError(t, err)
	require.True(t, im.Disk.Indirect)

	indBlk := im.Disk.Blocks[0]
	require.NotEqual(t, superblock.InvalidBlock, indBlk)

	ptrs, err := readIndirect(h, indBlk)
	require.NoError(t, err)
	for i := 0; i < superblock.NDirect; i++ {
		require.Equal(t, directBlocks[i], ptrs[i])
	}
	require.Equal(t, newBlk, ptrs[superblock.NDirect])
}

func TestEnsureFailsWithEFBIGBeyondIndirectCapacity(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	im, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	per := uint32(h.Superblock().PointersPerIndirectBlock())
	tooFar := uint32(superblock.NDirect)*per + 1

	_, err = Ensure(h, im, tooFar)
	require.ErrorIs(t, err, edfserr.ErrFBig)
}

func TestTranslateHoleIsEIO(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	im, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	im.Disk.Size = uint32(h.Superblock().BlockSize) * 2
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	_, _, err = Translate(h, im, int64(h.Superblock().BlockSize))
	require.ErrorIs(t, err, edfserr.ErrIO)
}

func TestTranslateMatchesEnsuredBlock(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	im, err := inode.New(h, inode.KindFile)
	require.NoError(t, err)
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	blk, err := Ensure(h, im, 3)
	require.NoError(t, err)

	im.Disk.Size = uint32(h.Superblock().BlockSize)*3 + 1
	require.NoError(t, inode.Write(h, im.Inumber, &im.Disk))

	got, off, err := Translate(h, im, int64(h.Superblock().BlockSize)*3)
	require.NoError(t, err)
	require.Equal(t, blk, got)
	require.Zero(t, off)
}
