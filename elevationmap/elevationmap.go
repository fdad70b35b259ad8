// Package elevationmap samples terrain elevation at arbitrary coordinates
// from a global set of one degree tiles.
package elevationmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/larschri/nasadem/dataset"
	"github.com/larschri/nasadem/raster"
)

// DefaultBaseURL is the NASADEM directory at the LP DAAC.
const DefaultBaseURL = "https://e4ftl01.cr.usgs.gov/MEASURES/NASADEM_HGT.001/2000.02.11/"

var (
	// ErrNoCacheDir is returned when the cache directory does not exist.
	ErrNoCacheDir = errors.New("cache directory does not exist")

	// ErrShapeMismatch is returned when coordinate and output slices
	// differ in length.
	ErrShapeMismatch = errors.New("lon, lat and output lengths differ")
)

// cellToGrid maps geographic coordinates through a tile's inverse transform
// onto node indices. Tiles are cell registered, so the node of pixel (i, j)
// sits half a pixel in from the pixel corner.
var cellToGrid = raster.Translation(-0.5, -0.5)

// Config configures an ElevationMap.
type Config struct {
	// CacheDir holds the index and the downloaded tiles. It must exist.
	CacheDir string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// TilePrefix defaults to dataset.DefaultTilePrefix.
	TilePrefix string

	Credentials dataset.Credentials

	// HTTPClient defaults to a client with a cookie jar.
	HTTPClient *http.Client

	// Reader decodes tile archives. Defaults to dataset.HGTReader.
	Reader dataset.Reader

	// MaxMemBytes bounds the size of the decoded tiles kept in memory.
	// Defaults to dataset.DefaultMaxMemBytes.
	MaxMemBytes uint64

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// ElevationMap provides elevation for arbitrary lon/lat coordinates. It owns
// the tile index and the tile cache for its lifetime. It is not safe for
// concurrent use.
type ElevationMap struct {
	cfg     Config
	fetcher *dataset.Fetcher
	tiles   *dataset.Cache
	index   dataset.Index
	log     zerolog.Logger
}

// New returns an ElevationMap for cfg.
func New(cfg Config) (*ElevationMap, error) {
	fi, err := os.Stat(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCacheDir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoCacheDir, cfg.CacheDir)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Reader == nil {
		cfg.Reader = dataset.HGTReader{}
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	fetcher := dataset.NewFetcher(cfg.Credentials)
	if cfg.HTTPClient != nil {
		fetcher.Client = cfg.HTTPClient
	}

	tiles, err := dataset.NewCache(dataset.CacheConfig{
		Dir:         cfg.CacheDir,
		BaseURL:     cfg.BaseURL,
		TilePrefix:  cfg.TilePrefix,
		Fetcher:     fetcher,
		Reader:      cfg.Reader,
		MaxMemBytes: cfg.MaxMemBytes,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &ElevationMap{
		cfg:     cfg,
		fetcher: fetcher,
		tiles:   tiles,
		log:     logger,
	}, nil
}

// Index returns the tile index, downloading it on first use.
func (em *ElevationMap) Index(ctx context.Context) (dataset.Index, error) {
	if em.index != nil {
		return em.index, nil
	}
	ix, err := dataset.EnsureIndex(ctx, filepath.Join(em.cfg.CacheDir, dataset.IndexFile), em.fetcher, em.cfg.BaseURL, em.log)
	if err != nil {
		return nil, err
	}
	em.index = ix
	return ix, nil
}

// Sample returns the elevation at each (lon[k], lat[k]). Points without
// data are set to fill.
func (em *ElevationMap) Sample(ctx context.Context, lon, lat []float64, fill float64) ([]float64, error) {
	if len(lon) != len(lat) {
		return nil, ErrShapeMismatch
	}
	out := make([]float64, len(lon))
	for k := range out {
		out[k] = fill
	}
	if err := em.SampleInto(ctx, out, lon, lat); err != nil {
		return nil, err
	}
	return out, nil
}

// SampleInto writes the elevation at each (lon[k], lat[k]) to out[k].
// Points without data keep their value, so repeated calls can fill one
// buffer.
func (em *ElevationMap) SampleInto(ctx context.Context, out, lon, lat []float64) error {
	if len(lon) != len(lat) || len(out) != len(lon) {
		return ErrShapeMismatch
	}
	cells := dataset.Cells(lon, lat)
	if len(cells) == 0 {
		return nil
	}
	index, err := em.Index(ctx)
	if err != nil {
		return err
	}

	var shifted []float64
	for _, cell := range cells {
		if !index.Has(cell.ID) {
			continue
		}
		tile, err := em.tiles.Tile(ctx, cell.ID)
		if err != nil {
			return err
		}
		inv, err := tile.Transform.Invert()
		if err != nil {
			return fmt.Errorf("tile %s: %w", cell.ID, err)
		}
		m := cellToGrid.Mul(inv)

		qlon := lon
		if cell.LonShift != 0 {
			if shifted == nil {
				shifted = make([]float64, len(lon))
			}
			for k, v := range lon {
				shifted[k] = v + cell.LonShift
			}
			qlon = shifted
		}
		x, y := m.ApplySlices(qlon, lat)
		raster.InterpolateInto(out, tile.Grid, x, y)
	}
	return nil
}

// Elevation returns the elevation at a single point, or NaN without data.
func (em *ElevationMap) Elevation(ctx context.Context, lon, lat float64) (float64, error) {
	v, err := em.Sample(ctx, []float64{lon}, []float64{lat}, math.NaN())
	if err != nil {
		return math.NaN(), err
	}
	return v[0], nil
}
