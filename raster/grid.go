// Package raster implements the grid data model shared by the sampler and the
// resampling kernels.
//
// A Grid is indexed by (i, j[, b]) where i runs along the first axis
// (longitude, i.e. raster column), j along the second axis (latitude, i.e.
// raster row) and b over an optional trailing band axis. Kernels and the
// interpolator only look at the first two axes; bands are carried through.
package raster

import "fmt"

// Number is the set of element types a Grid can hold.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int | ~float32 | ~float64
}

// Grid is an M x N x B array stored as [i][j][b].
type Grid[T Number] struct {
	M, N, B int
	Data    []T
}

// NewGrid returns a zeroed single band grid.
func NewGrid[T Number](m, n int) *Grid[T] {
	return NewBandedGrid[T](m, n, 1)
}

// NewBandedGrid returns a zeroed grid with b bands.
func NewBandedGrid[T Number](m, n, b int) *Grid[T] {
	if m < 0 || n < 0 || b < 1 {
		panic(fmt.Sprintf("raster: invalid grid shape %dx%dx%d", m, n, b))
	}
	return &Grid[T]{M: m, N: n, B: b, Data: make([]T, m*n*b)}
}

// FromRows builds a single band grid from a slice of first-axis rows, so
// that rows[i][j] becomes g.At(i, j).
func FromRows[T Number](rows [][]T) *Grid[T] {
	n := 0
	if len(rows) > 0 {
		n = len(rows[0])
	}
	g := NewGrid[T](len(rows), n)
	for i, row := range rows {
		if len(row) != n {
			panic("raster: ragged rows")
		}
		copy(g.Data[i*n:(i+1)*n], row)
	}
	return g
}

func (g *Grid[T]) offset(i, j int) int {
	return (i*g.N + j) * g.B
}

// At returns band 0 at (i, j).
func (g *Grid[T]) At(i, j int) T {
	return g.Data[g.offset(i, j)]
}

// Set sets band 0 at (i, j).
func (g *Grid[T]) Set(i, j int, v T) {
	g.Data[g.offset(i, j)] = v
}

// Cell returns the band vector at (i, j). The returned slice aliases g.
func (g *Grid[T]) Cell(i, j int) []T {
	o := g.offset(i, j)
	return g.Data[o : o+g.B]
}

// Clone returns a deep copy of g.
func (g *Grid[T]) Clone() *Grid[T] {
	c := &Grid[T]{M: g.M, N: g.N, B: g.B, Data: make([]T, len(g.Data))}
	copy(c.Data, g.Data)
	return c
}

// Scale multiplies every element by s in place and returns g.
func (g *Grid[T]) Scale(s T) *Grid[T] {
	for k := range g.Data {
		g.Data[k] *= s
	}
	return g
}

// Equal reports whether g and h have the same shape and elements.
func (g *Grid[T]) Equal(h *Grid[T]) bool {
	if g.M != h.M || g.N != h.N || g.B != h.B {
		return false
	}
	for k := range g.Data {
		if g.Data[k] != h.Data[k] {
			return false
		}
	}
	return true
}

func isInteger[T Number]() bool {
	var one T = 1
	return one/2 == 0
}

// FromRowMajor builds a grid from a raster buffer of rows*cols values laid
// out row by row, as raster libraries return them. The result is indexed by
// (column, row).
func FromRowMajor[T Number](buf []T, cols, rows int) *Grid[T] {
	if len(buf) != cols*rows {
		panic(fmt.Sprintf("raster: buffer of %d values is not %dx%d", len(buf), cols, rows))
	}
	g := NewGrid[T](cols, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Data[c*rows+r] = buf[r*cols+c]
		}
	}
	return g
}

// RowMajor returns band 0 of g laid out row by row, the inverse of
// FromRowMajor.
func (g *Grid[T]) RowMajor() []T {
	buf := make([]T, g.M*g.N)
	for c := 0; c < g.M; c++ {
		for r := 0; r < g.N; r++ {
			buf[r*g.M+c] = g.At(c, r)
		}
	}
	return buf
}
