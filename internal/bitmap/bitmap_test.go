package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leidenuniv/edfs/internal/edfserr"
	"github.com/leidenuniv/edfs/internal/testutil"
)

func TestAllocReturnsDistinctBlocks(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	seen := map[uint16]bool{}
	for i := 0; i < 10; i++ {
		b, err := Alloc(h)
		require.NoError(t, err)
		require.False(t, seen[b], "block %d allocated twice", b)
		seen[b] = true
	}
}

func TestFreeThenReallocReusesBlock(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	b, err := Alloc(h)
	require.NoError(t, err)

	require.NoError(t, Free(h, b))

	b2, err := Alloc(h)
	require.NoError(t, err)
	require.Equal(t, b, b2)
}

func TestFreeAlreadyFreeBlockFails(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	err := Free(h, 5)
	require.ErrorIs(t, err, edfserr.ErrNoEnt)
}

func TestAllocExhaustionReturnsENOSPC(t *testing.T) {
	h := testutil.NewFixture(t, testutil.Tiny)

	sb := h.Superblock()
	total := sb.BitmapSize * 8
	for i := uint32(0); i < total; i++ {
		_, err := Alloc(h)
		require.NoError(t, err)
	}

	_, err := Alloc(h)
	require.ErrorIs(t, err, edfserr.ErrNoSpc)
}
