package shading

import (
	"math"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
)

// Ring drawing parameters
const (
	// RingTilt is the ring-plane inclination to the ecliptic, degrees
	RingTilt = 26.7
	// RingVisibleRadius is the disc radius in pixels below which rings are skipped
	RingVisibleRadius = 4.0
	ringBands         = 6
	ringSegments      = 90
	ringAlpha         = 0.8
	ringShadowAlpha   = 0.2
)

// RingInput describes the ring of one body
type RingInput struct {
	CenterX, CenterY float64
	Radius           float64 // body disc radius, pixels
	Ring             body.Ring
	Position         astromath.Vector3 // body, sun-centered AU
	MeanRadius       float64           // AU
	ViewAngle        float64           // degrees
	Rotation         float64           // scene rotation, degrees
}

// RingSegment is one swept piece of a ring band
type RingSegment struct {
	X1       float64    `json:"x1"`
	Y1       float64    `json:"y1"`
	X2       float64    `json:"x2"`
	Y2       float64    `json:"y2"`
	Width    float64    `json:"width"`
	Color    body.Color `json:"color"`
	Shadowed bool       `json:"shadowed,omitempty"`
	// Behind marks segments hidden by the body disc
	Behind bool `json:"behind,omitempty"`
}

// RingArcs sweeps concentric bands between the inner and outer ring
// radius. Each segment midpoint is ray-tested against the body for the
// planet's shadow. Returns nil when the disc is too small.
func RingArcs(in RingInput) []RingSegment {
	if in.Radius < RingVisibleRadius || in.Ring.Outer <= in.Ring.Inner {
		return nil
	}

	tilt := astromath.Radians(RingTilt)
	spin := astromath.Radians(in.Rotation)
	cosView := math.Cos(astromath.Radians(in.ViewAngle))
	sinView := math.Sin(astromath.Radians(in.ViewAngle))
	pxPerAU := in.Radius / in.MeanRadius
	bandWidth := (in.Ring.Outer - in.Ring.Inner) / ringBands

	local := func(ratio, theta float64) astromath.Vector3 {
		p := astromath.Vector3{X: math.Cos(theta), Y: math.Sin(theta)}.Scale(ratio * in.MeanRadius)
		return p.RotateX(tilt).RotateZ(spin)
	}
	screen := func(p astromath.Vector3) (float64, float64) {
		return in.CenterX + p.X*pxPerAU, in.CenterY + p.Y*cosView*pxPerAU - p.Z*pxPerAU
	}

	out := make([]RingSegment, 0, ringBands*ringSegments)
	for band := 0; band < ringBands; band++ {
		ratio := in.Ring.Inner + (float64(band)+0.5)*bandWidth
		for s := 0; s < ringSegments; s++ {
			a0 := 2 * math.Pi * float64(s) / ringSegments
			a1 := 2 * math.Pi * float64(s+1) / ringSegments
			p0, p1 := local(ratio, a0), local(ratio, a1)
			mid := local(ratio, (a0+a1)/2)

			world := in.Position.Add(mid)
			toSun := world.Neg().Normalize()
			_, shadowed := astromath.RaySphere(world, toSun, in.Position, in.MeanRadius)

			x1, y1 := screen(p0)
			x2, y2 := screen(p1)
			mx, my := screen(mid)

			// depth along the view direction; positive is toward the viewer
			depth := mid.Y*sinView + mid.Z*cosView
			behind := depth < 0 && math.Hypot(mx-in.CenterX, my-in.CenterY) < in.Radius

			alpha := ringAlpha
			if shadowed {
				alpha = ringShadowAlpha
			}
			out = append(out, RingSegment{
				X1: x1, Y1: y1, X2: x2, Y2: y2,
				Width:    math.Max(1, bandWidth*in.Radius),
				Color:    in.Ring.Color.WithAlpha(alpha),
				Shadowed: shadowed,
				Behind:   behind,
			})
		}
	}
	return out
}
