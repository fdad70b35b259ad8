package raster

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"gonum.org/v1/gonum/floats"
)

func testGrid() *Grid[float64] {
	return FromRows([][]float64{
		{1, 2, 4, 8},
		{3, 5, 7, 11},
		{-2, 0, 6, 13},
	})
}

func TestInterpolateNodes(t *testing.T) {
	f := testGrid()
	var xs, ys, want []float64
	for i := 0; i < f.M; i++ {
		for j := 0; j < f.N; j++ {
			xs = append(xs, float64(i))
			ys = append(ys, float64(j))
			want = append(want, f.At(i, j))
		}
	}
	got := Interpolate(f, xs, ys, math.NaN())
	assert.Equal(t, want, got)
}

func TestInterpolateBlend(t *testing.T) {
	f := FromRows([][]float64{
		{0, 10},
		{10, 20},
	})
	got := Interpolate(f, []float64{0.5, 0.25, 1, 0.4}, []float64{0.5, 0.75, 1, 0.2}, -1)
	want := []float64{10, 10, 20, 6}
	assert.True(t, floats.EqualApprox(want, got, 1e-12), "got %v", got)
}

func TestInterpolateLastRowAndColumn(t *testing.T) {
	f := testGrid()
	// x on the last row uses the clamped stencil with dx == 1.
	got := Interpolate(f, []float64{2, 2, 1.5}, []float64{0.5, 3, 3}, math.NaN())
	want := []float64{-1, 13, 12}
	assert.True(t, floats.EqualApprox(want, got, 1e-12), "got %v", got)
}

func TestInterpolateScalarFillOutOfBounds(t *testing.T) {
	f := testGrid()
	xs := []float64{-0.001, 2.001, 1, 1, math.NaN(), -5}
	ys := []float64{1, 1, -0.5, 3.5, 1, 100}
	got := Interpolate(f, xs, ys, -9999)
	for k, v := range got {
		assert.Equal(t, -9999.0, v, "point %d", k)
	}
}

func TestInterpolateIntoLeavesOutOfBoundsUntouched(t *testing.T) {
	f := testGrid()
	out := []float64{42, 43, 44}
	InterpolateInto(out, f, []float64{-1, 1, 7}, []float64{0, 1, 0})
	assert.Equal(t, []float64{42, 5, 44}, out)
}

func TestInterpolateAccumulatesAcrossGrids(t *testing.T) {
	left := FromRows([][]float64{{1, 1}, {1, 1}})
	right := FromRows([][]float64{{2, 2}, {2, 2}})
	xs := []float64{0.5, 3.5}
	ys := []float64{0.5, 0.5}
	out := []float64{math.NaN(), math.NaN()}
	InterpolateInto(out, left, xs, ys)
	shifted, _ := Translation(-3, 0).ApplySlices(xs, ys)
	InterpolateInto(out, right, shifted, ys)
	assert.Equal(t, []float64{1, 2}, out)
}

func TestInterpolateBands(t *testing.T) {
	f := NewBandedGrid[int16](2, 2, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			c := f.Cell(i, j)
			c[0] = int16(10 * (i + j))
			c[1] = int16(-i)
		}
	}
	got := Interpolate(f, []float64{0.5, 9}, []float64{0.5, 0}, 7)
	assert.Equal(t, []float64{10, -0.5, 7, 7}, got)
}

func TestInterpolateDegenerateGrid(t *testing.T) {
	f := FromRows([][]float64{{1, 2, 3}})
	got := Interpolate(f, []float64{0}, []float64{1}, -1)
	assert.Equal(t, []float64{-1}, got)
}

func TestInterpolateLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Interpolate(testGrid(), []float64{1, 2}, []float64{1}, 0)
	})
}
