package raster

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when inverting a transform with zero determinant.
var ErrDegenerate = errors.New("raster: degenerate affine transform")

// Affine maps grid indices (i, j) to coordinates (x, y):
//
//	x = A*i + B*j + C
//	y = D*i + E*j + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// FromGDAL converts a GDAL geotransform
// [originX, pixelW, rotX, originY, rotY, pixelH] into an Affine.
func FromGDAL(gt [6]float64) Affine {
	return Affine{
		A: gt[1], B: gt[2], C: gt[0],
		D: gt[4], E: gt[5], F: gt[3],
	}
}

// Translation returns a transform that shifts by (dx, dy).
func Translation(dx, dy float64) Affine {
	return Affine{A: 1, C: dx, E: 1, F: dy}
}

// Apply transforms a single point.
func (t Affine) Apply(i, j float64) (x, y float64) {
	return t.A*i + t.B*j + t.C, t.D*i + t.E*j + t.F
}

// ApplySlices transforms equal length coordinate slices into new slices.
func (t Affine) ApplySlices(is, js []float64) (xs, ys []float64) {
	if len(is) != len(js) {
		panic("raster: coordinate slices differ in length")
	}
	xs = make([]float64, len(is))
	ys = make([]float64, len(js))
	for k := range is {
		xs[k], ys[k] = t.Apply(is[k], js[k])
	}
	return xs, ys
}

// Mul returns the composition t∘u, which applies u first and then t.
func (t Affine) Mul(u Affine) Affine {
	return Affine{
		A: t.A*u.A + t.B*u.D,
		B: t.A*u.B + t.B*u.E,
		C: t.A*u.C + t.B*u.F + t.C,
		D: t.D*u.A + t.E*u.D,
		E: t.D*u.B + t.E*u.E,
		F: t.D*u.C + t.E*u.F + t.F,
	}
}

// Determinant of the linear part.
func (t Affine) Determinant() float64 {
	return t.A*t.E - t.B*t.D
}

// Invert returns the inverse transform.
func (t Affine) Invert() (Affine, error) {
	det := t.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Affine{}, ErrDegenerate
	}
	a := t.E / det
	b := -t.B / det
	d := -t.D / det
	e := t.A / det
	return Affine{
		A: a, B: b, C: -(a*t.C + b*t.F),
		D: d, E: e, F: -(d*t.C + e*t.F),
	}, nil
}
