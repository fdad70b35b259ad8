package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/cobra"

	"github.com/larschri/nasadem/dataset"
	"github.com/larschri/nasadem/elevationmap"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().String("cache-dir", "./cache", "")
	cmd.Flags().String("base-url", "", "")
	cmd.Flags().String("reader", "hgt", "")
	cmd.Flags().Int("mem-mb", 512, "")
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NASADEM_CACHE_DIR", "")
	t.Setenv("NASADEM_BASE_URL", "")
	t.Setenv("NASADEM_MEM_MB", "")
	cfg := LoadConfig(testCommand())
	assert.Equal(t, "./cache", cfg.CacheDir)
	assert.Equal(t, elevationmap.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 512, cfg.MaxMemMB)
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("NASADEM_CACHE_DIR", "/env/cache")
	t.Setenv("NASADEM_MEM_MB", "256")
	t.Setenv("EARTHDATA_USER", "alice")
	t.Setenv("EARTHDATA_PASS", "secret")

	cmd := testCommand()
	assert.NoError(t, cmd.ParseFlags([]string{"--cache-dir", "/flag/cache"}))
	cfg := LoadConfig(cmd)
	assert.Equal(t, "/flag/cache", cfg.CacheDir)
	assert.Equal(t, 256, cfg.MaxMemMB)
	assert.Equal(t, dataset.Credentials{Username: "alice", Password: "secret"}, cfg.Credentials)
}

func TestNewReader(t *testing.T) {
	r, err := newReader("hgt")
	assert.NoError(t, err)
	assert.Equal(t, dataset.Reader(dataset.HGTReader{}), r)

	_, err = newReader("tiff")
	assert.Error(t, err)
}

func TestParsePoints(t *testing.T) {
	lon, lat, err := parsePoints([]string{"10.5,60.1", " -179.5 , -16.25"})
	assert.NoError(t, err)
	assert.Equal(t, []float64{10.5, -179.5}, lon)
	assert.Equal(t, []float64{60.1, -16.25}, lat)

	for _, bad := range []string{"10.5", "a,1", "1,b", "1,2,3"} {
		_, _, err := parsePoints([]string{bad})
		assert.Error(t, err, "%q", bad)
	}
}

func TestSampleCommandOffline(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, dataset.NewIndex().Save(filepath.Join(dir, dataset.IndexFile)))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sample", "--cache-dir", dir, "--fill", "-1", "10.5,60.5"})
	assert.NoError(t, rootCmd.Execute())
	assert.Equal(t, "10.500000\t60.500000\t-1.00\n", out.String())
}

func TestSampleCommandMissingCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"sample", "--cache-dir", dir, "10.5,60.5"})
	assert.IsError(t, rootCmd.Execute(), elevationmap.ErrNoCacheDir)

	_, err := os.Stat(dir)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
