package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/larschri/nasadem/dataset"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nasadem",
	Short: "Sample NASADEM terrain elevation",
	Long: `nasadem samples terrain elevation from the NASADEM global elevation model.

Tiles are downloaded from the LP DAAC on first use and kept in a local cache
directory. Downloads require an Earthdata login, read from EARTHDATA_USER and
EARTHDATA_PASS.

Configuration can be set via environment variables or command-line flags.
Flags take precedence over environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(getConfigString(cmd, "log-level", "NASADEM_LOG_LEVEL", "info"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("cache-dir", "c", "./cache", "Existing cache directory for the tile index and tiles")
	rootCmd.PersistentFlags().String("base-url", "", "Upstream NASADEM directory (default the LP DAAC)")
	rootCmd.PersistentFlags().String("reader", "hgt", "Tile reader: hgt or gdal")
	rootCmd.PersistentFlags().Int("mem-mb", dataset.DefaultMaxMemBytes>>20, "Memory budget in MiB for decoded tiles")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
}
