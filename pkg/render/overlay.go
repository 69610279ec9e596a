package render

import (
	"math"

	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/scene"
)

var (
	lightColor     = body.MustParseColor("rgba(255, 255, 0, 0.5)")
	penumbraColor  = body.MustParseColor("rgba(255, 155, 0, 0.5)")
	umbraColor     = body.MustParseColor("rgba(0, 0, 255, 0.85)")
	crossingColor  = body.MustParseColor("rgba(0, 255, 0, 0.5)")
	crossingRadius = 5.0
	overlayWidth   = 1.0
)

// lightLines draws the tangent lines between the sun disc and a body
// disc. The crossed pair bounds the penumbra and meets between the two
// discs; the outer pair bounds the umbra. Each line is extended past the
// body by its own length.
func lightLines(sun Circle, pl scene.Placed) *Overlay {
	dx, dy := pl.Point.X-sun.X, pl.Point.Y-sun.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	// unit perpendicular to the sun-body axis
	px, py := -dy/length, dx/length

	sunP := [2]scene.Point{
		{X: sun.X + px*sun.R, Y: sun.Y + py*sun.R},
		{X: sun.X - px*sun.R, Y: sun.Y - py*sun.R},
	}
	bodyP := [2]scene.Point{
		{X: pl.Point.X + px*pl.Radius, Y: pl.Point.Y + py*pl.Radius},
		{X: pl.Point.X - px*pl.Radius, Y: pl.Point.Y - py*pl.Radius},
	}

	o := &Overlay{Body: pl.ID}
	add := func(from, to scene.Point, extension body.Color) {
		o.Lines = append(o.Lines,
			Line{X1: from.X, Y1: from.Y, X2: to.X, Y2: to.Y, Width: overlayWidth, Color: lightColor},
			Line{X1: to.X, Y1: to.Y, X2: 2*to.X - from.X, Y2: 2*to.Y - from.Y, Width: overlayWidth, Color: extension},
		)
	}
	add(sunP[0], bodyP[1], penumbraColor)
	add(sunP[1], bodyP[0], penumbraColor)
	add(sunP[0], bodyP[0], umbraColor)
	add(sunP[1], bodyP[1], umbraColor)

	if x, y, ok := intersect(sunP[0], bodyP[1], sunP[1], bodyP[0]); ok {
		o.Intersection = &Circle{X: x, Y: y, R: crossingRadius, Color: crossingColor}
	}
	return o
}

// intersect returns the crossing point of the infinite lines a1-a2 and
// b1-b2
func intersect(a1, a2, b1, b2 scene.Point) (float64, float64, bool) {
	den := (a1.X-a2.X)*(b1.Y-b2.Y) - (a1.Y-a2.Y)*(b1.X-b2.X)
	if math.Abs(den) < 1e-12 {
		return 0, 0, false
	}
	ca := a1.X*a2.Y - a1.Y*a2.X
	cb := b1.X*b2.Y - b1.Y*b2.X
	x := (ca*(b1.X-b2.X) - (a1.X-a2.X)*cb) / den
	y := (ca*(b1.Y-b2.Y) - (a1.Y-a2.Y)*cb) / den
	return x, y, true
}
