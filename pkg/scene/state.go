package scene

import (
	"math"
	"time"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

// View limits
const (
	MinViewAngle = 1.0
	MaxViewAngle = 179.0
	MinZoom      = 1.0
	MaxZoom      = 100000.0
	ZoomStep     = 0.1
	// DragTiltLimit bounds the view angle when tilting with the mouse
	DragTiltLimit = 89.0
	// DragTiltPerPixel is the tilt applied per pixel of vertical drag
	DragTiltPerPixel = 0.5
)

// Offset is the pan offset in pixels
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is everything a frame computation needs to know about the view.
// It is a value: controls return a modified copy.
type State struct {
	Time       time.Time `json:"time"`
	ViewAngle  float64   `json:"view_angle"`
	Rotation   float64   `json:"rotation"`
	Zoom       float64   `json:"zoom"`
	BaseScale  float64   `json:"base_scale"`
	Offset     Offset    `json:"offset"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Center     string    `json:"center,omitempty"`
	Light      string    `json:"light,omitempty"`
	ShowOrbits bool      `json:"show_orbits"`
}

// DefaultState returns the initial view: Earth-centered, 45° tilt
func DefaultState(width, height int, t time.Time) State {
	return State{
		Time:      t,
		ViewAngle: 45,
		Zoom:      9000,
		BaseScale: 17,
		Width:     width,
		Height:    height,
		Center:    "399",
	}
}

// Normalize clamps every field into its legal range
func (s State) Normalize() State {
	s.ViewAngle = clamp(s.ViewAngle, MinViewAngle, MaxViewAngle)
	s.Rotation = astromath.WrapDegrees(s.Rotation)
	if s.Zoom == 0 {
		s.Zoom = MinZoom
	}
	s.Zoom = clamp(s.Zoom, MinZoom, MaxZoom)
	if s.BaseScale <= 0 {
		s.BaseScale = 1
	}
	if s.Width < 0 {
		s.Width = 0
	}
	if s.Height < 0 {
		s.Height = 0
	}
	return s
}

// Scale returns pixels per AU
func (s State) Scale() float64 {
	return s.BaseScale * s.Zoom
}

// FitScale returns a base scale that makes the store's bounding box span
// 40% of the smaller viewport side
func FitScale(store *ephemeris.Store, width, height int) (float64, bool) {
	lo, hi, ok := store.Bounds()
	if !ok {
		return 0, false
	}
	extent := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if extent <= 0 {
		return 0, false
	}
	target := math.Min(float64(width), float64(height)) * 0.4
	return target / extent, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
