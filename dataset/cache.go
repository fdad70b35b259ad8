package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter/v2"
	"github.com/rs/zerolog"
)

// DefaultTilePrefix is prepended to the tile id in upstream file names.
const DefaultTilePrefix = "NASADEM_HGT_"

// DefaultMaxMemBytes bounds the decoded tiles kept in memory. A full
// resolution tile takes about 104 MB.
const DefaultMaxMemBytes = 512 << 20

// CacheConfig configures a Cache.
type CacheConfig struct {
	// Dir is the cache directory. It must exist.
	Dir string

	// BaseURL is the upstream directory holding the tile archives.
	BaseURL string

	// TilePrefix defaults to DefaultTilePrefix.
	TilePrefix string

	Fetcher *Fetcher
	Reader  Reader

	// MaxMemBytes bounds the size of the decoded tiles kept in memory.
	// Defaults to DefaultMaxMemBytes.
	MaxMemBytes uint64

	Logger zerolog.Logger
}

// Cache returns decoded tiles, downloading and persisting the archive on
// first use.
type Cache struct {
	cfg   CacheConfig
	tiles *otter.Cache[ID, *Tile]
}

// NewCache returns a Cache for cfg.
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Reader == nil {
		return nil, errors.New("dataset: no raster reader configured")
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewFetcher(Credentials{})
	}
	if cfg.TilePrefix == "" {
		cfg.TilePrefix = DefaultTilePrefix
	}
	if cfg.MaxMemBytes == 0 {
		cfg.MaxMemBytes = DefaultMaxMemBytes
	}
	tiles, err := otter.New(&otter.Options[ID, *Tile]{
		MaximumWeight: cfg.MaxMemBytes,
		Weigher:       tileWeight,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cfg: cfg, tiles: tiles}, nil
}

// tileWeight is the size in bytes of the samples of t.
func tileWeight(_ ID, t *Tile) uint32 {
	n := uint64(len(t.Grid.Data)) * 8
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// ArchivePath returns the local path of the archive for id.
func (c *Cache) ArchivePath(id ID) string {
	return filepath.Join(c.cfg.Dir, string(id)+".zip")
}

// TileURL returns the upstream URL of the archive for id.
func (c *Cache) TileURL(id ID) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.TilePrefix + string(id) + ".zip"
}

// Tile returns the decoded tile id.
func (c *Cache) Tile(ctx context.Context, id ID) (*Tile, error) {
	return c.tiles.Get(ctx, id, otter.LoaderFunc[ID, *Tile](c.load))
}

func (c *Cache) load(ctx context.Context, id ID) (*Tile, error) {
	archive, err := c.ensureArchive(ctx, id)
	if err != nil {
		return nil, err
	}
	grid, transform, err := c.cfg.Reader.Open(archive, string(id)+".hgt")
	if err != nil {
		return nil, fmt.Errorf("failed to open tile %s: %w", id, err)
	}
	return &Tile{ID: id, Grid: grid, Transform: transform}, nil
}

// ensureArchive downloads the archive for id unless it is already cached.
func (c *Cache) ensureArchive(ctx context.Context, id ID) (string, error) {
	path := c.ArchivePath(id)
	_, err := os.Stat(path)
	if err == nil {
		c.cfg.Logger.Debug().Str("file", path).Msg("cached")
		return path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	u := c.TileURL(id)
	c.cfg.Logger.Info().Str("file", path).Str("url", u).Msg("downloading")
	data, err := c.cfg.Fetcher.Get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("failed to download tile %s: %w", id, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// that readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
