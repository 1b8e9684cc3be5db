// Command mkedfs creates a fresh EdFS image. It is ambient tooling
// (spec.md §1 treats the image creator as an offline utility outside the
// engine's own scope) kept thin on purpose: all the real work lives in
// internal/mkfs, with this command only translating Cobra flags into an
// internal/mkfs.Geometry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leidenuniv/edfs/internal/mkfs"
)

func newRootCmd() *cobra.Command {
	geo := mkfs.DefaultGeometry

	cmd := &cobra.Command{
		Use:   "mkedfs <image-file>",
		Short: "Create a fresh EdFS disk image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := mkfs.Format(args[0], geo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s: %d blocks of %d bytes, %d inodes, volume %s\n",
				args[0], geo.BlockCount, geo.BlockSize, geo.InodeCount, sb.VolumeID)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&geo.BlockSize, "block-size", geo.BlockSize, "block size in bytes")
	cmd.Flags().Uint32Var(&geo.InodeCount, "inodes", geo.InodeCount, "number of inode slots")
	cmd.Flags().Uint32Var(&geo.BlockCount, "blocks", geo.BlockCount, "number of data blocks")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mkedfs: %v\n", err)
		os.Exit(1)
	}
}
