package dataset

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"

	"github.com/larschri/nasadem/raster"
)

func tileServer(t *testing.T, tiles map[string][]byte) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		data, ok := tiles[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func zipBytes(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmp.zip")
	writeZip(t, path, members)
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	return data
}

func newTestCache(t *testing.T, dir, baseURL string) *Cache {
	t.Helper()
	c, err := NewCache(CacheConfig{
		Dir:     dir,
		BaseURL: baseURL,
		Fetcher: NewFetcher(Credentials{}),
		Reader:  HGTReader{},
		Logger:  zerolog.Nop(),
	})
	assert.NoError(t, err)
	return c
}

func TestCacheDownloadsOnce(t *testing.T) {
	payload := zipBytes(t, map[string][]byte{
		"n10e010.hgt": hgtBytes(3, func(r, c int) int16 { return int16(10 * c) }),
	})
	srv, requests := tileServer(t, map[string][]byte{
		"/base/NASADEM_HGT_n10e010.zip": payload,
	})
	dir := t.TempDir()

	c := newTestCache(t, dir, srv.URL+"/base/")
	assert.Equal(t, srv.URL+"/base/NASADEM_HGT_n10e010.zip", c.TileURL("n10e010"))

	tile, err := c.Tile(context.Background(), "n10e010")
	assert.NoError(t, err)
	assert.Equal(t, ID("n10e010"), tile.ID)
	assert.Equal(t, 20.0, tile.Grid.At(2, 0))
	assert.Equal(t, 1, *requests)

	stored, err := os.ReadFile(filepath.Join(dir, "n10e010.zip"))
	assert.NoError(t, err)
	assert.True(t, bytes.Equal(payload, stored))

	// A new cache over the same directory reuses the archive.
	c = newTestCache(t, dir, srv.URL+"/base")
	_, err = c.Tile(context.Background(), "n10e010")
	assert.NoError(t, err)
	assert.Equal(t, 1, *requests)
}

func TestCacheDownloadFailureCachesNothing(t *testing.T) {
	srv, _ := tileServer(t, nil)
	dir := t.TempDir()
	c := newTestCache(t, dir, srv.URL)

	_, err := c.Tile(context.Background(), "n10e010")
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr), "got %v", err)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))
}

func TestCacheDecodeFailureKeepsArchive(t *testing.T) {
	srv, requests := tileServer(t, map[string][]byte{
		"/NASADEM_HGT_n10e010.zip": []byte("not a zip"),
	})
	dir := t.TempDir()
	c := newTestCache(t, dir, srv.URL)

	_, err := c.Tile(context.Background(), "n10e010")
	assert.Error(t, err)
	_, err = os.Stat(c.ArchivePath("n10e010"))
	assert.NoError(t, err)

	// The broken archive is reused rather than downloaded again.
	_, err = c.Tile(context.Background(), "n10e010")
	assert.Error(t, err)
	assert.Equal(t, 1, *requests)
}

type countingReader struct {
	Reader
	opens int
}

func (r *countingReader) Open(archive, member string) (*raster.Grid[float64], raster.Affine, error) {
	r.opens++
	return r.Reader.Open(archive, member)
}

func TestCacheKeepsDecodedTilesInMemory(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "n00e000.zip"), map[string][]byte{
		"n00e000.hgt": hgtBytes(2, func(int, int) int16 { return 1 }),
	})
	reader := &countingReader{Reader: HGTReader{}}
	c, err := NewCache(CacheConfig{Dir: dir, Reader: reader, Logger: zerolog.Nop()})
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Tile(context.Background(), "n00e000")
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, reader.opens)
}

func TestNewCacheRequiresReader(t *testing.T) {
	_, err := NewCache(CacheConfig{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestTileWeightIsSampleBytes(t *testing.T) {
	tile := &Tile{Grid: raster.NewGrid[float64](3, 3)}
	assert.Equal(t, uint32(72), tileWeight("n00e000", tile))
}

func TestCacheDefaultMemoryBudget(t *testing.T) {
	c, err := NewCache(CacheConfig{Dir: t.TempDir(), Reader: HGTReader{}})
	assert.NoError(t, err)
	assert.Equal(t, uint64(DefaultMaxMemBytes), c.tiles.GetMaximum())
}

func TestCacheEvictsBeyondMemoryBudget(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []ID{"n00e000", "n00e001", "n00e002"} {
		writeZip(t, filepath.Join(dir, string(id)+".zip"), map[string][]byte{
			string(id) + ".hgt": hgtBytes(2, func(int, int) int16 { return 1 }),
		})
	}
	// Room for a single 2x2 tile.
	c, err := NewCache(CacheConfig{Dir: dir, Reader: HGTReader{}, MaxMemBytes: 32, Logger: zerolog.Nop()})
	assert.NoError(t, err)

	for _, id := range []ID{"n00e000", "n00e001", "n00e002"} {
		_, err := c.Tile(context.Background(), id)
		assert.NoError(t, err)
	}
	c.tiles.CleanUp()
	assert.True(t, c.tiles.WeightedSize() <= 32, "weighted size %d", c.tiles.WeightedSize())
}
