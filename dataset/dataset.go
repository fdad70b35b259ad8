// Package dataset implements access to elevation tiles stored upstream and
// cached on local disk.
//
// Tiles are 1x1 degree zip archives that are downloaded on first use and
// kept forever. A persisted Index records which tiles exist upstream so that
// cells without data (oceans) never cause network traffic.
package dataset

import (
	"github.com/larschri/nasadem/raster"
)

// Reader opens a raster stored inside an archive.
type Reader interface {
	// Open returns the first band of member inside archive, indexed by
	// (column, row), and the transform from grid index to lon/lat.
	Open(archive, member string) (*raster.Grid[float64], raster.Affine, error)
}

// Tile is a decoded elevation tile.
type Tile struct {
	ID        ID
	Grid      *raster.Grid[float64]
	Transform raster.Affine
}
