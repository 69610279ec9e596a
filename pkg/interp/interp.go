// Package interp turns sparse ephemeris samples into continuous positions.
//
// Between two samples p0 and p3 the curve is a cubic Bézier whose inner
// control points come from the Catmull-Rom tangents of the neighbouring
// samples p_1 and p4, so the path passes through every sample with a
// continuous tangent. Bodies flagged linear, or with fewer than four
// samples, use straight segments instead.
package interp

import (
	"time"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

// MinCurvedSamples is the smallest series interpolated with the curve
const MinCurvedSamples = 4

// Mode selects the interpolation method
type Mode int

const (
	// Curved uses Catmull-Rom derived Bézier segments
	Curved Mode = iota
	// Linear uses straight segments
	Linear
)

func (m Mode) String() string {
	if m == Linear {
		return "linear"
	}
	return "curved"
}

// Interpolator evaluates body positions. The zero value is ready to use.
type Interpolator struct {
	// ForceLinear overrides every body's mode, useful for comparisons
	ForceLinear bool
}

// ModeFor returns the method used for b given its series
func (in Interpolator) ModeFor(b body.Body, s ephemeris.Series) Mode {
	if in.ForceLinear || b.Linear || s.Len() < MinCurvedSamples {
		return Linear
	}
	return Curved
}

// Position returns b's sun-centered position at t rotated about the
// ecliptic pole by rotationDeg. The second result is false when t is
// outside the body's active window, before the second sample or after the
// last one.
func (in Interpolator) Position(b body.Body, s ephemeris.Series, t time.Time, rotationDeg float64) (astromath.Vector3, bool) {
	p, ok := in.Raw(b, s, t)
	if !ok {
		return astromath.Vector3{}, false
	}
	return p.RotateZ(astromath.Radians(rotationDeg)), true
}

// Raw is Position without the scene rotation
func (in Interpolator) Raw(b body.Body, s ephemeris.Series, t time.Time) (astromath.Vector3, bool) {
	if !b.Active.Contains(t) {
		return astromath.Vector3{}, false
	}

	n := s.Len()
	idx := s.Index(t)
	if idx == 0 || idx >= n {
		return astromath.Vector3{}, false
	}

	p0 := s.Samples[idx-1]
	p3 := s.Samples[idx]
	span := p3.Time.Sub(p0.Time)
	if span <= 0 {
		return astromath.Vector3{}, false
	}
	frac := float64(t.Sub(p0.Time)) / float64(span)

	if in.ModeFor(b, s) == Linear {
		return p0.Position.Lerp(p3.Position, frac), true
	}

	pm1 := s.Samples[max(0, idx-2)].Position
	p4 := s.Samples[min(n-1, idx+1)].Position
	return Bezier(pm1, p0.Position, p3.Position, p4, frac), true
}

// Bezier evaluates the segment from p0 to p3 at u using control points
// p1 = p0 + (p3 - pm1)/6 and p2 = p3 - (p4 - p0)/6
func Bezier(pm1, p0, p3, p4 astromath.Vector3, u float64) astromath.Vector3 {
	p1 := p0.Add(p3.Sub(pm1).Scale(1.0 / 6))
	p2 := p3.Sub(p4.Sub(p0).Scale(1.0 / 6))

	v := 1 - u
	b0 := v * v * v
	b1 := 3 * v * v * u
	b2 := 3 * v * u * u
	b3 := u * u * u

	return p0.Scale(b0).Add(p1.Scale(b1)).Add(p2.Scale(b2)).Add(p3.Scale(b3))
}
