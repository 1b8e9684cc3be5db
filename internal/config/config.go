// Package config loads CLI defaults through Viper, the way the teacher
// repo's cmd/config.go wires persistent flags and environment overrides
// for the APFS explorer. EdFS has far fewer knobs, but the shape is the
// same: flags register themselves with a shared *viper.Viper, env vars
// with an EDFS_ prefix override, and RunE reads back typed values once
// cobra has actually parsed the command line.
package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the small set of runtime options EdFS's CLI exposes.
type Config struct {
	Debug    bool
	ReadOnly bool
}

// Register binds debug/readonly persistent flags on cmd to a fresh
// Viper instance with EDFS_-prefixed environment override support.
// Call Load(v) from RunE, after cobra has parsed flags, to read back
// the resolved values.
func Register(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("EDFS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.PersistentFlags().Bool("debug", false, "enable verbose debug logging")
	cmd.PersistentFlags().Bool("readonly", false, "mount the image read-only (rejects mutating operations)")
	v.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	v.BindPFlag("readonly", cmd.PersistentFlags().Lookup("readonly"))

	return v
}

// Load reads back the resolved configuration from v.
func Load(v *viper.Viper) Config {
	return Config{
		Debug:    v.GetBool("debug"),
		ReadOnly: v.GetBool("readonly"),
	}
}
