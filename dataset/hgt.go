package dataset

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/larschri/nasadem/raster"
)

// HGTReader decodes SRTM style .hgt rasters from a zip archive without
// GDAL. An .hgt file is a square grid of big-endian int16 samples, north
// row first, whose nodes sit on the tile edges. The returned transform is
// the pixel-is-area geotransform GDAL reports for the same file.
type HGTReader struct{}

// Open implements Reader.
func (HGTReader) Open(archive, member string) (*raster.Grid[float64], raster.Affine, error) {
	stem := strings.TrimSuffix(path.Base(member), path.Ext(member))
	lon0, lat0, err := ParseID(ID(strings.ToLower(stem)))
	if err != nil {
		return nil, raster.Affine{}, err
	}

	z, err := zip.OpenReader(archive)
	if err != nil {
		return nil, raster.Affine{}, err
	}
	defer z.Close()

	var data []byte
	for _, f := range z.File {
		if !strings.EqualFold(path.Base(f.Name), path.Base(member)) {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, raster.Affine{}, err
		}
		data, err = io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, raster.Affine{}, err
		}
		break
	}
	if data == nil {
		return nil, raster.Affine{}, fmt.Errorf("%s: no member %s", archive, member)
	}
	return DecodeHGT(data, lon0, lat0)
}

// DecodeHGT decodes raw .hgt samples for the tile with south-west corner
// (lon0, lat0).
func DecodeHGT(data []byte, lon0, lat0 int) (*raster.Grid[float64], raster.Affine, error) {
	side := int(math.Round(math.Sqrt(float64(len(data) / 2))))
	if side < 2 || 2*side*side != len(data) {
		return nil, raster.Affine{}, fmt.Errorf("hgt: %d bytes is not a square int16 grid", len(data))
	}

	// Samples are stored row major, north first. Grid indexes column first.
	g := raster.NewGrid[float64](side, side)
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			k := r*side + c
			g.Data[c*side+r] = float64(int16(binary.BigEndian.Uint16(data[2*k:])))
		}
	}

	step := 1 / float64(side-1)
	half := step / 2
	transform := raster.Affine{
		A: step, C: float64(lon0) - half,
		E: -step, F: float64(lat0+1) + half,
	}
	return g, transform, nil
}
