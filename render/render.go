// Package render draws shaded colour relief images of sampled elevation.
package render

import (
	"context"
	"errors"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/larschri/nasadem/raster"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111_320

// maxIncline is the slope in degrees that gets the fully shaded colour.
const maxIncline = 45

// ErrEmptyView is returned for views without area or pixels.
var ErrEmptyView = errors.New("render: empty view")

// Sampler provides elevation for lon/lat coordinates.
type Sampler interface {
	Sample(ctx context.Context, lon, lat []float64, fill float64) ([]float64, error)
}

// View is a lon/lat rectangle rendered into Width x Height pixels.
type View struct {
	West, South, East, North float64
	Width, Height            int

	// Supersample samples each pixel on a Supersample x Supersample grid
	// and averages. Values below 2 sample once per pixel.
	Supersample int
}

func (v View) validate() error {
	if v.Width <= 0 || v.Height <= 0 || !(v.East > v.West) || !(v.North > v.South) {
		return ErrEmptyView
	}
	return nil
}

// Coordinates returns the pixel centres of v, row major with the first row
// at the north edge.
func (v View) Coordinates() (lon, lat []float64) {
	lon = make([]float64, v.Width*v.Height)
	lat = make([]float64, len(lon))
	dx := (v.East - v.West) / float64(v.Width)
	dy := (v.North - v.South) / float64(v.Height)
	for y := 0; y < v.Height; y++ {
		for x := 0; x < v.Width; x++ {
			lon[y*v.Width+x] = v.West + (float64(x)+0.5)*dx
			lat[y*v.Width+x] = v.North - (float64(y)+0.5)*dy
		}
	}
	return lon, lat
}

// CreateImage samples the elevation of every pixel in view and renders it.
func CreateImage(ctx context.Context, view View, elevations Sampler) (*image.RGBA, error) {
	if err := view.validate(); err != nil {
		return nil, err
	}
	s := view.Supersample
	if s < 2 {
		s = 1
	}
	fine := view
	fine.Width *= s
	fine.Height *= s

	lon, lat := fine.Coordinates()
	elev, err := elevations.Sample(ctx, lon, lat, math.NaN())
	if err != nil {
		return nil, err
	}
	if s > 1 {
		g, err := raster.Downsample(raster.FromRowMajor(elev, fine.Width, fine.Height), s)
		if err != nil {
			return nil, err
		}
		elev = g.Scale(1 / float64(s*s)).RowMajor()
	}
	return Relief(elev, view), nil
}

// Relief colours elev, laid out as view.Coordinates, by relative elevation
// and slope. Pixels without finite elevation are transparent.
func Relief(elev []float64, view View) *image.RGBA {
	w, h := view.Width, view.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	lo, hi, ok := finiteRange(elev)
	if !ok {
		return img
	}
	span := hi - lo

	// Pixel size in metres. The east-west size shrinks towards the poles.
	dy := (view.North - view.South) / float64(h) * metersPerDegree
	dxAt := func(y int) float64 {
		lat := view.North - (float64(y)+0.5)*(view.North-view.South)/float64(h)
		return (view.East - view.West) / float64(w) * metersPerDegree * math.Cos(lat*math.Pi/180)
	}

	at := func(x, y int) float64 {
		return elev[y*w+x]
	}

	for y := 0; y < h; y++ {
		dx := dxAt(y)
		for x := 0; x < w; x++ {
			e := at(x, y)
			if !isFinite(e) {
				continue
			}
			rel := 0.0
			if span > 0 {
				rel = (e - lo) / span
			}
			gx := derivative(e, at, x, y, 1, 0, w, h) / dx
			gy := derivative(e, at, x, y, 0, 1, w, h) / dy
			incline := math.Atan(math.Hypot(gx, gy)) * 180 / math.Pi
			img.SetRGBA(x, y, hypsometric.getRGB(rel, incline).rgba(255))
		}
	}
	return img
}

// derivative returns the elevation change per pixel along (sx, sy) at
// (x, y), using whichever neighbours are inside the image and have data.
func derivative(e float64, at func(x, y int) float64, x, y, sx, sy, w, h int) float64 {
	prev, next := e, e
	n := 0.0
	if px, py := x-sx, y-sy; px >= 0 && py >= 0 {
		if v := at(px, py); isFinite(v) {
			prev = v
			n++
		}
	}
	if nx, ny := x+sx, y+sy; nx < w && ny < h {
		if v := at(nx, ny); isFinite(v) {
			next = v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return (next - prev) / n
}

// finiteRange returns the smallest and largest finite values of v.
func finiteRange(v []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(v))
	for _, e := range v {
		if isFinite(e) {
			finite = append(finite, e)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	return floats.Min(finite), floats.Max(finite), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
