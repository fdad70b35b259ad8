package raster

import "math"

// Interpolate samples f bilinearly at the fractional grid indices (x, y).
// The result holds len(x)*f.B values, point major. Points outside
// [0, M-1] x [0, N-1] are set to fill.
func Interpolate[T Number](f *Grid[T], x, y []float64, fill float64) []float64 {
	out := make([]float64, len(x)*f.B)
	for k := range out {
		out[k] = fill
	}
	InterpolateInto(out, f, x, y)
	return out
}

// InterpolateInto is like Interpolate but writes into out, touching only the
// in-bounds points. This lets several disjoint grids accumulate into one
// buffer.
func InterpolateInto[T Number](out []float64, f *Grid[T], x, y []float64) {
	if len(x) != len(y) {
		panic("raster: x and y differ in length")
	}
	if len(out) != len(x)*f.B {
		panic("raster: output buffer has wrong length")
	}
	m, n := f.M, f.N
	if m < 2 || n < 2 {
		return
	}
	fm, fn := float64(m-1), float64(n-1)

	for p := range x {
		xp, yp := x[p], y[p]
		// NaN fails every comparison and is dropped here.
		if !(xp >= 0 && xp <= fm && yp >= 0 && yp <= fn) {
			continue
		}
		j := clamp(int(math.Floor(xp)), 0, m-2)
		k := clamp(int(math.Floor(yp)), 0, n-2)
		dx := xp - float64(j)
		dy := yp - float64(k)

		w00 := (1 - dx) * (1 - dy)
		w01 := (1 - dx) * dy
		w10 := dx * (1 - dy)
		w11 := dx * dy

		c00 := f.Cell(j, k)
		c01 := f.Cell(j, k+1)
		c10 := f.Cell(j+1, k)
		c11 := f.Cell(j+1, k+1)
		dst := out[p*f.B : (p+1)*f.B]
		for b := range dst {
			dst[b] = w00*float64(c00[b]) +
				w01*float64(c01[b]) +
				w10*float64(c10[b]) +
				w11*float64(c11[b])
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
