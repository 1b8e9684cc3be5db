// Package testutil builds fixture EdFS images for the rest of the
// module's test suites, through the same internal/mkfs.Format path
// cmd/mkedfs uses, instead of hand-rolled byte literals.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/mkfs"
)

// Tiny is a small geometry (64 data blocks of 512 bytes, 32 inodes) convenient for exercising
// N_DIRECT-boundary behavior without huge test fixtures.
var Tiny = mkfs.Geometry{BlockSize: 512, InodeCount: 32, BlockCount: 64}

// NewFixture formats a fresh image with geo and opens it, registering
// cleanup with t.
func NewFixture(t *testing.T, geo mkfs.Geometry) *image.Handle {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.img")
	_, err := mkfs.Format(path, geo)
	require.NoError(t, err)

	h, err := image.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	return h
}
