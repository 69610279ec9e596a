package tui

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/shading"
)

// Canvas is a pixel buffer. Two pixel rows map onto one terminal row.
type Canvas struct {
	W, H int
	pix  []colorful.Color
}

// NewCanvas creates a black canvas
func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Canvas{W: w, H: h, pix: make([]colorful.Color, w*h)}
}

// At returns the pixel at (x, y) as 8-bit channels
func (c *Canvas) At(x, y int) (uint8, uint8, uint8) {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return 0, 0, 0
	}
	return c.pix[y*c.W+x].RGB255()
}

func toColorful(col body.Color) colorful.Color {
	r, g, b := col.Channels()
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}
}

// Blend paints col over the pixel at (x, y) using its alpha
func (c *Canvas) Blend(x, y int, col body.Color) {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return
	}
	a := col.A
	if a <= 0 {
		return
	}
	i := y*c.W + x
	if a >= 1 {
		c.pix[i] = toColorful(col)
		return
	}
	c.pix[i] = c.pix[i].BlendRgb(toColorful(col), a).Clamped()
}

// Rect fills a size x size square with its top-left corner at (x, y)
func (c *Canvas) Rect(x, y, size float64, col body.Color) {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := int(math.Ceil(x+size)), int(math.Ceil(y+size))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, c.W), min(y1, c.H)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.Blend(px, py, col)
		}
	}
}

// Circle fills a disc
func (c *Canvas) Circle(cx, cy, r float64, col body.Color) {
	if r < 0.5 {
		c.Blend(int(math.Round(cx)), int(math.Round(cy)), col)
		return
	}
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, c.W-1), min(y1, c.H-1)
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				c.Blend(px, py, col)
			}
		}
	}
}

// Line draws a one-pixel line with a DDA walk, clipped to the canvas
func (c *Canvas) Line(x1, y1, x2, y2 float64, col body.Color) {
	if !clip(&x1, &y1, &x2, &y2, float64(c.W), float64(c.H)) {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x2-x1), math.Abs(y2-y1))))
	if steps == 0 {
		c.Blend(int(x1), int(y1), col)
		return
	}
	dx := (x2 - x1) / float64(steps)
	dy := (y2 - y1) / float64(steps)
	for i := 0; i <= steps; i++ {
		c.Blend(int(math.Floor(x1+dx*float64(i))), int(math.Floor(y1+dy*float64(i))), col)
	}
}

// Polyline joins consecutive points
func (c *Canvas) Polyline(pts []scene.Point, col body.Color) {
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, col)
	}
}

// clip is Liang-Barsky against [0,w)x[0,h)
func clip(x1, y1, x2, y2 *float64, w, h float64) bool {
	t0, t1 := 0.0, 1.0
	dx, dy := *x2-*x1, *y2-*y1
	edges := [4][2]float64{
		{-dx, *x1},
		{dx, w - 1 - *x1},
		{-dy, *y1},
		{dy, h - 1 - *y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = math.Min(t1, r)
		}
	}
	nx1, ny1 := *x1+t0*dx, *y1+t0*dy
	*x2, *y2 = *x1+t1*dx, *y1+t1*dy
	*x1, *y1 = nx1, ny1
	return true
}

// Paint rasterizes a frame in drawing order
func (c *Canvas) Paint(f render.Frame) {
	for _, l := range f.Grid {
		c.Line(l.X1, l.Y1, l.X2, l.Y2, l.Color)
	}
	for _, o := range f.Orbits {
		c.Polyline(o.Points, o.Color)
	}
	for _, t := range f.Trails {
		c.Polyline(t.Points, t.Color)
	}
	c.Circle(f.Sun.X, f.Sun.Y, f.Sun.R, f.Sun.Color)

	for _, b := range f.Bodies {
		c.rings(b.RingsBehind)
		c.disc(b.Disc)
		c.rings(b.RingsFront)
	}

	if f.Overlay != nil {
		for _, l := range f.Overlay.Lines {
			c.Line(l.X1, l.Y1, l.X2, l.Y2, l.Color)
		}
		if p := f.Overlay.Intersection; p != nil {
			c.Circle(p.X, p.Y, p.R, p.Color)
		}
	}
}

func (c *Canvas) disc(d shading.Disc) {
	if d.Flat {
		c.Circle(d.CenterX, d.CenterY, d.Radius, d.Color)
		return
	}
	for _, b := range d.Blocks {
		c.Rect(b.X, b.Y, b.Size, b.Color)
	}
}

func (c *Canvas) rings(segs []shading.RingSegment) {
	for _, s := range segs {
		c.Line(s.X1, s.Y1, s.X2, s.Y2, s.Color)
	}
}
