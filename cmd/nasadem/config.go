package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/larschri/nasadem/dataset"
	"github.com/larschri/nasadem/dataset/gdalreader"
	"github.com/larschri/nasadem/elevationmap"
)

// Config holds application configuration
type Config struct {
	CacheDir    string
	BaseURL     string
	Reader      string
	MaxMemMB    int
	Credentials dataset.Credentials
}

// LoadConfig loads configuration from environment variables and command flags.
// Flags take precedence over environment variables.
func LoadConfig(cmd *cobra.Command) Config {
	return Config{
		CacheDir:    getConfigString(cmd, "cache-dir", "NASADEM_CACHE_DIR", "./cache"),
		BaseURL:     getConfigString(cmd, "base-url", "NASADEM_BASE_URL", elevationmap.DefaultBaseURL),
		Reader:      getConfigString(cmd, "reader", "NASADEM_READER", "hgt"),
		MaxMemMB:    getConfigInt(cmd, "mem-mb", "NASADEM_MEM_MB", dataset.DefaultMaxMemBytes>>20),
		Credentials: dataset.Credentials{
			Username: os.Getenv("EARTHDATA_USER"),
			Password: os.Getenv("EARTHDATA_PASS"),
		},
	}
}

func newReader(name string) (dataset.Reader, error) {
	switch name {
	case "hgt":
		return dataset.HGTReader{}, nil
	case "gdal":
		return gdalreader.Reader{}, nil
	}
	return nil, fmt.Errorf("unknown reader %q", name)
}

// CreateElevationMap creates the elevation map described by the configuration.
// The cache directory must exist.
func (c *Config) CreateElevationMap() (*elevationmap.ElevationMap, error) {
	reader, err := newReader(c.Reader)
	if err != nil {
		return nil, err
	}
	return elevationmap.New(elevationmap.Config{
		CacheDir:    c.CacheDir,
		BaseURL:     c.BaseURL,
		Credentials: c.Credentials,
		Reader:      reader,
		MaxMemBytes: uint64(max(c.MaxMemMB, 0)) << 20,
		Logger:      &log.Logger,
	})
}

// getConfigString gets a string value from flag, then env, then default
func getConfigString(cmd *cobra.Command, flagName, envName, defaultValue string) string {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetString(flagName)
		return val
	}
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return defaultValue
}

// getConfigInt gets an int value from flag, then env, then default
func getConfigInt(cmd *cobra.Command, flagName, envName string, defaultValue int) int {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetInt(flagName)
		return val
	}
	if v := os.Getenv(envName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
