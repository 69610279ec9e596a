package orbital

import (
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

// Osculating estimates the heliocentric elements of a tabulated body at
// sample i, using a central difference for velocity. Needs a neighbour on
// each side.
func Osculating(s ephemeris.Series, i int, mu float64) (OrbitalElements, bool) {
	if i <= 0 || i >= s.Len()-1 {
		return OrbitalElements{}, false
	}
	prev, next := s.Samples[i-1], s.Samples[i+1]
	dtDays := next.Time.Sub(prev.Time).Hours() / 24
	if dtDays <= 0 {
		return OrbitalElements{}, false
	}

	pos := s.Samples[i].Position
	vel := next.Position.Sub(prev.Position).Scale(1 / dtDays)
	if pos.IsZero() || vel.IsZero() {
		return OrbitalElements{}, false
	}
	return CartesianToOrbital(pos, vel, mu), true
}
