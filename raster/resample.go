package raster

import "errors"

var (
	// ErrDecimation is returned for a decimation factor below 1.
	ErrDecimation = errors.New("raster: decimation factor must be positive")

	// ErrEvenDecimation is returned by DownsampleSphere for even factors,
	// which would move output nodes off the input nodes.
	ErrEvenDecimation = errors.New("raster: spherical decimation factor must be odd")
)

// Upsample2 refines f by a factor of 2 using linear interpolation. The result
// has shape (2M-1, 2N-1) and is scaled by 4.
func Upsample2[T Number](f *Grid[T]) *Grid[T] {
	if f.M == 0 || f.N == 0 {
		return NewBandedGrid[T](0, 0, f.B)
	}
	g := NewBandedGrid[T](2*f.M-1, 2*f.N-1, f.B)
	for i := 0; i < g.M; i++ {
		i0, i1 := i/2, (i+1)/2
		for j := 0; j < g.N; j++ {
			j0, j1 := j/2, (j+1)/2
			dst := g.Cell(i, j)
			a, b, c, d := f.Cell(i0, j0), f.Cell(i0, j1), f.Cell(i1, j0), f.Cell(i1, j1)
			switch {
			case i%2 == 0 && j%2 == 0:
				for k := range dst {
					dst[k] = 4 * a[k]
				}
			case i%2 == 0:
				for k := range dst {
					dst[k] = 2 * (a[k] + b[k])
				}
			case j%2 == 0:
				for k := range dst {
					dst[k] = 2 * (a[k] + c[k])
				}
			default:
				for k := range dst {
					dst[k] = a[k] + d[k] + b[k] + c[k]
				}
			}
		}
	}
	return g
}

// upsample3Weights[p][q] holds the weights of the 2x2 neighbourhood
// (lo-lo, lo-hi, hi-lo, hi-hi) for output phase (i mod 3, j mod 3).
var upsample3Weights = [3][3][4]int{
	{{9, 0, 0, 0}, {6, 3, 0, 0}, {3, 6, 0, 0}},
	{{6, 0, 3, 0}, {4, 2, 2, 1}, {2, 4, 1, 2}},
	{{3, 0, 6, 0}, {2, 1, 4, 2}, {1, 2, 2, 4}},
}

// Upsample3 refines f by a factor of 3 using linear interpolation at thirds.
// The result has shape (3M-2, 3N-2) and is scaled by 9.
func Upsample3[T Number](f *Grid[T]) *Grid[T] {
	if f.M == 0 || f.N == 0 {
		return NewBandedGrid[T](0, 0, f.B)
	}
	g := NewBandedGrid[T](3*f.M-2, 3*f.N-2, f.B)
	for i := 0; i < g.M; i++ {
		i0, p := i/3, i%3
		i1 := i0
		if p != 0 {
			i1++
		}
		for j := 0; j < g.N; j++ {
			j0, q := j/3, j%3
			j1 := j0
			if q != 0 {
				j1++
			}
			w := upsample3Weights[p][q]
			w00, w01, w10, w11 := T(w[0]), T(w[1]), T(w[2]), T(w[3])
			a, b, c, d := f.Cell(i0, j0), f.Cell(i0, j1), f.Cell(i1, j0), f.Cell(i1, j1)
			dst := g.Cell(i, j)
			for k := range dst {
				dst[k] = w00*a[k] + w01*b[k] + w10*c[k] + w11*d[k]
			}
		}
	}
	return g
}

// Downsample reduces f by the factor d, summing each d x d block. Trailing
// partial blocks sum the cells that exist. The result has shape
// (ceil(M/d), ceil(N/d)) and is scaled by d².
func Downsample[T Number](f *Grid[T], d int) (*Grid[T], error) {
	if d < 1 {
		return nil, ErrDecimation
	}
	g := NewBandedGrid[T](ceilDiv(f.M, d), ceilDiv(f.N, d), f.B)
	for i := 0; i < f.M; i++ {
		for j := 0; j < f.N; j++ {
			src := f.Cell(i, j)
			dst := g.Cell(i/d, j/d)
			for k := range dst {
				dst[k] += src[k]
			}
		}
	}
	return g, nil
}

// DownsampleSphere reduces a node-registered global grid by the odd factor d.
// The first axis is longitude and wraps around; the second is latitude and
// reflects at both poles. Each output node sums the d x d input nodes
// centred on it, so the result is scaled by d². The first and last latitude
// columns are then replaced by their mean, since every sample at a pole
// describes the same point. Integer grids round the mean with T(mean+0.5).
func DownsampleSphere[T Number](f *Grid[T], d int) (*Grid[T], error) {
	if d < 1 {
		return nil, ErrDecimation
	}
	if d == 1 {
		return f.Clone(), nil
	}
	if d%2 == 0 {
		return nil, ErrEvenDecimation
	}
	m, n := f.M, f.N
	g := NewBandedGrid[T](ceilDiv(m, d), ceilDiv(n, d), f.B)
	if g.M == 0 || g.N == 0 {
		return g, nil
	}
	h := (d - 1) / 2
	for oj := 0; oj < g.N; oj++ {
		for dk := -h; dk <= h; dk++ {
			k := reflect(oj*d+dk, n)
			for oi := 0; oi < g.M; oi++ {
				dst := g.Cell(oi, oj)
				for dj := -h; dj <= h; dj++ {
					src := f.Cell(wrap(oi*d+dj, m), k)
					for b := range dst {
						dst[b] += src[b]
					}
				}
			}
		}
	}
	collapsePole(g, 0)
	collapsePole(g, g.N-1)
	return g, nil
}

// collapsePole sets every node of column j, per band, to the column mean.
func collapsePole[T Number](g *Grid[T], j int) {
	integer := isInteger[T]()
	for b := 0; b < g.B; b++ {
		var sum float64
		for i := 0; i < g.M; i++ {
			sum += float64(g.Cell(i, j)[b])
		}
		mean := sum / float64(g.M)
		var v T
		if integer {
			v = T(mean + 0.5)
		} else {
			v = T(mean)
		}
		for i := 0; i < g.M; i++ {
			g.Cell(i, j)[b] = v
		}
	}
}

// wrap maps i into [0, m).
func wrap(i, m int) int {
	i %= m
	if i < 0 {
		i += m
	}
	return i
}

// reflect maps k into [0, n) by mirroring at 0 and n-1, which equals
// n-1-|n-1-|k|| whenever |k| < n.
func reflect(k, n int) int {
	if n == 1 {
		return 0
	}
	p := 2 * (n - 1)
	k = wrap(k, p)
	if k > n-1 {
		k = p - k
	}
	return k
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
