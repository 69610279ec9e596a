package scene

import (
	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/interp"
)

// Resolved holds the positions of every visible body for one state.
// Positions are sun-centered and already rotated by State.Rotation.
type Resolved struct {
	State     State
	Positions map[string]astromath.Vector3
	Radii     map[string]float64
	Origin    astromath.Vector3
	Light     astromath.Vector3
	LightOK   bool
}

// Resolve interpolates all bodies first, then looks up the center and
// light bodies from the result, so catalog order never matters. A center
// without a position falls back to the sun.
func Resolve(state State, catalog *body.Catalog, store *ephemeris.Store, in interp.Interpolator) Resolved {
	r := Resolved{
		State:     state,
		Positions: make(map[string]astromath.Vector3, len(catalog.Bodies())),
		Radii:     make(map[string]float64, len(catalog.Bodies())),
	}

	for _, b := range catalog.Bodies() {
		s, ok := store.Get(b.ID)
		if !ok {
			continue
		}
		pos, ok := in.Position(b, s, state.Time, state.Rotation)
		if !ok {
			continue
		}
		r.Positions[b.ID] = pos
		r.Radii[b.ID] = s.MeanRadiusAU
	}

	if p, ok := r.Positions[state.Center]; ok {
		r.Origin = p
	}
	if state.Light != "" {
		r.Light, r.LightOK = r.Positions[state.Light]
	}
	return r
}

// Position returns the sun-centered position of id
func (r Resolved) Position(id string) (astromath.Vector3, bool) {
	p, ok := r.Positions[id]
	return p, ok
}

// Relative returns id's position relative to the view origin
func (r Resolved) Relative(id string) (astromath.Vector3, bool) {
	p, ok := r.Positions[id]
	if !ok {
		return astromath.Vector3{}, false
	}
	return p.Sub(r.Origin), true
}

// Visible reports whether id has a position this frame
func (r Resolved) Visible(id string) bool {
	_, ok := r.Positions[id]
	return ok
}
