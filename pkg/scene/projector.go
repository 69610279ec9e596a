package scene

import (
	"math"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

// Point is a screen position in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector maps world positions onto the screen with an oblique affine
// projection: the view angle foreshortens Y and Z lifts the point upward.
type Projector struct {
	origin  astromath.Vector3
	scale   float64
	cosView float64
	centerX float64
	centerY float64
}

// NewProjector builds a projector for state around origin
func NewProjector(state State, origin astromath.Vector3) Projector {
	return Projector{
		origin:  origin,
		scale:   state.Scale(),
		cosView: math.Cos(astromath.Radians(state.ViewAngle)),
		centerX: float64(state.Width)/2 + state.Offset.X,
		centerY: float64(state.Height)/2 + state.Offset.Y,
	}
}

// ProjectorFor is NewProjector using the resolved view origin
func ProjectorFor(r Resolved) Projector {
	return NewProjector(r.State, r.Origin)
}

// Project maps a sun-centered world position to the screen
func (p Projector) Project(world astromath.Vector3) Point {
	return p.ProjectRelative(world.Sub(p.origin))
}

// ProjectRelative maps a position already relative to the origin
func (p Projector) ProjectRelative(rel astromath.Vector3) Point {
	return Point{
		X: p.centerX + rel.X*p.scale,
		Y: p.centerY + rel.Y*p.cosView*p.scale - rel.Z*p.scale,
	}
}

// Radius converts a mean radius in AU to pixels, at least one pixel
func (p Projector) Radius(meanRadiusAU float64) float64 {
	return math.Max(1, meanRadiusAU*p.scale)
}

// Scale returns pixels per AU
func (p Projector) Scale() float64 {
	return p.scale
}

// Center returns the screen position of the view origin
func (p Projector) Center() Point {
	return Point{X: p.centerX, Y: p.centerY}
}

// Placed is a body projected onto the screen
type Placed struct {
	ID     string  `json:"id"`
	Point  Point   `json:"point"`
	Radius float64 `json:"radius"`
}

// Place projects every resolved body in catalog order. Bodies without a
// position are left out.
func Place(r Resolved, order []string) []Placed {
	proj := ProjectorFor(r)
	out := make([]Placed, 0, len(r.Positions))
	for _, id := range order {
		pos, ok := r.Positions[id]
		if !ok {
			continue
		}
		out = append(out, Placed{ID: id, Point: proj.Project(pos), Radius: proj.Radius(r.Radii[id])})
	}
	return out
}

// HitTest returns the last placed body whose disc contains (x, y)
func HitTest(placed []Placed, x, y float64) (string, bool) {
	for i := len(placed) - 1; i >= 0; i-- {
		pl := placed[i]
		if math.Hypot(x-pl.Point.X, y-pl.Point.Y) < pl.Radius {
			return pl.ID, true
		}
	}
	return "", false
}
