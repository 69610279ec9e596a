package render

import (
	"time"

	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/shading"
)

// Line is a straight stroke
type Line struct {
	X1    float64    `json:"x1"`
	Y1    float64    `json:"y1"`
	X2    float64    `json:"x2"`
	Y2    float64    `json:"y2"`
	Width float64    `json:"width"`
	Color body.Color `json:"color"`
}

// Polyline is an open stroked path
type Polyline struct {
	ID     string        `json:"id"`
	Points []scene.Point `json:"points"`
	Width  float64       `json:"width"`
	Color  body.Color    `json:"color"`
}

// Circle is a filled circle
type Circle struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	R     float64    `json:"r"`
	Color body.Color `json:"color"`
}

// Label is text anchored at its center
type Label struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Text  string     `json:"text"`
	Color body.Color `json:"color"`
}

// BodyDraw is everything drawn for one body, back to front: rings
// behind the disc, the disc, then rings in front
type BodyDraw struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Disc        shading.Disc          `json:"disc"`
	RingsBehind []shading.RingSegment `json:"rings_behind,omitempty"`
	RingsFront  []shading.RingSegment `json:"rings_front,omitempty"`
}

// Overlay is the light-line construction between the sun and the light
// reference body
type Overlay struct {
	Body         string  `json:"body"`
	Lines        []Line  `json:"lines"`
	Intersection *Circle `json:"intersection,omitempty"`
}

// Frame is a complete draw list. Consumers paint the fields in
// declaration order.
type Frame struct {
	Seq     uint64      `json:"seq"`
	Time    time.Time   `json:"time"`
	State   scene.State `json:"state"`
	Loading bool        `json:"loading"`
	Message string      `json:"message,omitempty"`

	Grid   []Line     `json:"grid,omitempty"`
	Orbits []Polyline `json:"orbits,omitempty"`
	Trails []Polyline `json:"trails,omitempty"`
	Sun    Circle     `json:"sun"`
	Bodies []BodyDraw `json:"bodies,omitempty"`
	Labels []Label    `json:"labels,omitempty"`

	Overlay *Overlay `json:"overlay,omitempty"`

	// Placed lists every drawn disc for hit testing
	Placed []scene.Placed `json:"placed,omitempty"`
}

// Body returns the draw entry for id
func (f Frame) Body(id string) (BodyDraw, bool) {
	for _, b := range f.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyDraw{}, false
}
