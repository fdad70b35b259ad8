// Package gdalreader opens elevation rasters with GDAL.
package gdalreader

import (
	"fmt"

	"github.com/lukeroth/gdal"

	"github.com/larschri/nasadem/raster"
)

// Reader reads rasters through GDAL's /vsizip/ virtual file system, so any
// format GDAL understands can sit inside the archive. It implements
// dataset.Reader.
type Reader struct{}

// VSIZipPath returns the GDAL path of member inside archive.
func VSIZipPath(archive, member string) string {
	return "/vsizip/" + archive + "/" + member
}

// Open returns band 1 of member, indexed by (column, row), and its
// geotransform.
func (Reader) Open(archive, member string) (*raster.Grid[float64], raster.Affine, error) {
	name := VSIZipPath(archive, member)
	ds, err := gdal.Open(name, gdal.ReadOnly)
	if err != nil {
		return nil, raster.Affine{}, fmt.Errorf("failed to read dem file %s: %w", name, err)
	}
	defer ds.Close()

	xsize := ds.RasterXSize()
	ysize := ds.RasterYSize()
	buf := make([]float64, xsize*ysize)
	band := ds.RasterBand(1)
	if err := band.IO(gdal.Read, 0, 0, xsize, ysize, buf, xsize, ysize, 0, 0); err != nil {
		return nil, raster.Affine{}, fmt.Errorf("failed to read elevation buffer from %s: %w", name, err)
	}

	return raster.FromRowMajor(buf, xsize, ysize), raster.FromGDAL(ds.GeoTransform()), nil
}
