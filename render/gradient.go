package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// rgb is a colour with a weight, so that blends can be accumulated and
// normalized afterwards.
type rgb struct {
	r float64
	g float64
	b float64
	w float64
}

func (c rgb) scale(s float64) rgb {
	return rgb{
		r: c.r * s,
		g: c.g * s,
		b: c.b * s,
		w: c.w * s,
	}
}

func (c rgb) add(c2 rgb) rgb {
	return rgb{
		r: c.r + c2.r,
		g: c.g + c2.g,
		b: c.b + c2.b,
		w: c.w + c2.w,
	}
}

func (c rgb) normalize() rgb {
	if c.w == 0 {
		return c
	}
	return rgb{
		c.r / c.w,
		c.g / c.w,
		c.b / c.w,
		1,
	}
}

func (c rgb) rgba(alpha uint8) color.RGBA {
	n := c.normalize()
	return color.RGBA{
		uint8(n.r),
		uint8(n.g),
		uint8(n.b),
		alpha}
}

// gradient is a two dimensional colour table. The first axis is relative
// elevation, the second is slope.
type gradient struct {
	gradient [][]rgb
}

func hcl1(h, c, l float64) rgb {
	cl := colorful.Hcl(h, c, l).Clamped()
	return rgb{255 * cl.R, 255 * cl.G, 255 * cl.B, 1}
}

// hcl2 returns the flat and the steep colour for one elevation stop.
func hcl2(h, c, l float64) []rgb {
	return []rgb{hcl1(h, c, l), hcl1(h, c, l-0.45)}
}

// hypsometric runs from lowland green through brown to snow.
var hypsometric = gradient{
	gradient: [][]rgb{
		hcl2(135, 0.45, 0.70),
		hcl2(120, 0.45, 0.78),
		hcl2(95, 0.45, 0.85),
		hcl2(75, 0.40, 0.80),
		hcl2(55, 0.30, 0.70),
		hcl2(50, 0.15, 0.80),
		hcl2(0, 0, 0.97),
	},
}

// intAndFraction places value in [0, max] on a table of the given length,
// returning the lower index and the fraction towards the next.
func intAndFraction(value float64, max float64, length int) (int, float64) {

	if value <= 0 {
		return 0, 0
	}

	if value >= max {
		return length - 2, 1
	}

	r := float64(length-1) * value / max
	i := int(r)
	return i, r - float64(i)
}

// getRGB blends the table bilinearly. elevation is relative to the image
// range and falls in [0, 1]; incline is in degrees.
func (g gradient) getRGB(elevation, incline float64) rgb {

	ie, re := intAndFraction(elevation, 1, len(g.gradient))
	ii, ri := intAndFraction(incline, maxIncline, len(g.gradient[0]))

	c1 := g.gradient[ie][ii].scale(1 - re).add(g.gradient[ie+1][ii].scale(re))
	c2 := g.gradient[ie][ii+1].scale(1 - re).add(g.gradient[ie+1][ii+1].scale(re))

	return c1.scale(1 - ri).add(c2.scale(ri))
}
