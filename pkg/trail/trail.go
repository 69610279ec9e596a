// Package trail keeps per-body position history and builds orbit paths.
package trail

import (
	"math"
	"sort"
	"sync"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/scene"
)

// DefaultCapacity is the per-body trail length
const DefaultCapacity = 1000

// Orbit path parameters
const (
	DefaultOrbitEvery = 2
	closureMinIndex   = 100
	closurePixels     = 3.0
)

// ring is a fixed-capacity FIFO of positions
type ring struct {
	buf   []astromath.Vector3
	start int
	size  int
}

func (r *ring) push(p astromath.Vector3) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = p
		r.size++
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) points() []astromath.Vector3 {
	out := make([]astromath.Vector3, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Tracker holds one bounded trail per body. Points are stored relative to
// the view origin at the time they were appended, with the scene rotation
// removed so a later rotation turns the whole history with the bodies.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	trails   map[string]*ring
}

// NewTracker creates a tracker; capacity <= 0 uses DefaultCapacity
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{capacity: capacity, trails: make(map[string]*ring)}
}

// Capacity returns the per-body bound
func (t *Tracker) Capacity() int {
	return t.capacity
}

// Append records the current relative position of every visible body.
// Call once per simulated-time advance, not per redraw.
func (t *Tracker) Append(r scene.Resolved) {
	t.mu.Lock()
	defer t.mu.Unlock()

	unrotate := -astromath.Radians(r.State.Rotation)
	for id := range r.Positions {
		rel, _ := r.Relative(id)
		rel = rel.RotateZ(unrotate)
		tr, ok := t.trails[id]
		if !ok {
			tr = &ring{buf: make([]astromath.Vector3, t.capacity)}
			t.trails[id] = tr
		}
		tr.push(rel)
	}
}

// Clear drops every trail
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trails = make(map[string]*ring)
}

// Points returns a copy of id's trail, oldest first
func (t *Tracker) Points(id string) []astromath.Vector3 {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.trails[id]
	if !ok {
		return nil
	}
	return tr.points()
}

// Len returns the length of id's trail
func (t *Tracker) Len(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.trails[id]; ok {
		return tr.size
	}
	return 0
}

// IDs returns the bodies with a trail, sorted
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.trails))
	for id := range t.trails {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Project maps a trail to screen space under the current scene rotation
func Project(points []astromath.Vector3, rotationDeg float64, proj scene.Projector) []scene.Point {
	rot := astromath.Radians(rotationDeg)
	out := make([]scene.Point, len(points))
	for i, p := range points {
		out[i] = proj.ProjectRelative(p.RotateZ(rot))
	}
	return out
}

// OrbitPath projects every nth sample of s. The path stops once it comes
// back within 3 px of its first point after index 100, so multi-year
// series do not overdraw the same ellipse. rotationDeg matches the scene
// rotation applied to live positions.
func OrbitPath(s ephemeris.Series, every int, rotationDeg float64, proj scene.Projector) []scene.Point {
	if every < 1 {
		every = DefaultOrbitEvery
	}
	rot := astromath.Radians(rotationDeg)

	var out []scene.Point
	var first scene.Point
	for i := 0; i < s.Len(); i += every {
		pt := proj.Project(s.Samples[i].Position.RotateZ(rot))
		if i == 0 {
			first = pt
		} else if i > closureMinIndex && math.Abs(pt.X-first.X) < closurePixels && math.Abs(pt.Y-first.Y) < closurePixels {
			out = append(out, pt)
			break
		}
		out = append(out, pt)
	}
	return out
}
