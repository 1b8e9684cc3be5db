// Command edfuse mounts an EdFS image. It follows the teacher repo's
// cmd/root.go convention — a single Cobra root command with persistent
// flags bound through Viper — but the command set is the one-command
// invocation spec.md §6 describes: edfuse [bridge-flags…] <image-file>
// <mount-point>.
//
// No real kernel FUSE transport is wired into this module (see
// SPEC_FULL.md §1): the "host-bridge main loop" the specification refers
// to is internal/shell's interactive command loop, which drives the same
// internal/fsops.FS a real bridge would.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/leidenuniv/edfs/internal/config"
	"github.com/leidenuniv/edfs/internal/fsops"
	"github.com/leidenuniv/edfs/internal/image"
	"github.com/leidenuniv/edfs/internal/shell"
	"github.com/leidenuniv/edfs/internal/telemetry"
)

var v *viper.Viper

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edfuse <image-file> <mount-point>",
		Short: "Mount an EdFS image",
		Long: `edfuse opens an EdFS disk image and serves its contents through an
interactive command loop standing in for the host filesystem bridge.

Examples:
  edfuse disk.img /mnt/edfs
  edfuse --debug disk.img /mnt/edfs`,
		Args: cobra.ExactArgs(2),
		RunE: runEdfuse,
	}
	v = config.Register(cmd)
	cmd.AddCommand(newInfoCmd())
	return cmd
}

// imageInfo is the YAML-rendered shape of edfuse info's output.
type imageInfo struct {
	VolumeID        string `yaml:"volume_id"`
	BlockSize       uint32 `yaml:"block_size"`
	DiskSize        int64  `yaml:"disk_size"`
	InodeCount      uint32 `yaml:"inode_count"`
	InodeSize       uint32 `yaml:"inode_size"`
	BitmapStart     uint32 `yaml:"bitmap_start"`
	BitmapSize      uint32 `yaml:"bitmap_size"`
	InodeTableStart uint32 `yaml:"inode_table_start"`
	DataStart       uint32 `yaml:"data_start"`
	RootInumber     uint16 `yaml:"root_inumber"`
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image-file>",
		Short: "Print an EdFS image's superblock geometry as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := image.Open(args[0])
			if err != nil {
				return err
			}
			defer h.Close()

			sb := h.Superblock()
			info := imageInfo{
				VolumeID:        sb.VolumeID.String(),
				BlockSize:       sb.BlockSize,
				DiskSize:        sb.DiskSize,
				InodeCount:      sb.InodeCount,
				InodeSize:       sb.InodeSize,
				BitmapStart:     sb.BitmapStart,
				BitmapSize:      sb.BitmapSize,
				InodeTableStart: sb.InodeTableStart,
				DataStart:       sb.DataStart,
				RootInumber:     sb.RootInumber,
			}

			out, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func runEdfuse(cmd *cobra.Command, args []string) error {
	imagePath, mountPoint := args[0], args[1]
	cfg := config.Load(v)

	h, err := image.Open(imagePath)
	if err != nil {
		return err
	}
	defer h.Close()

	log := telemetry.New(cfg.Debug)
	log.Infof("mounted %s at %s (volume %s)", imagePath, mountPoint, h.Superblock().VolumeID)

	fs := fsops.New(h, log)
	return shell.Run(fs, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.ReadOnly)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "edfuse: %v\n", err)
		os.Exit(1)
	}
}
