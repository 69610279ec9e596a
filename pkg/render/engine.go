// Package render composes the per-frame draw list from the ephemeris
// store, the scene state, the shading renderer and the trail tracker.
package render

import (
	"math"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/interp"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/shading"
	"github.com/oxygene76/orrery/pkg/trail"
)

// LoadingMessage is shown until every body has an ephemeris entry
const LoadingMessage = "Loading ephemeris data..."

// Drawing constants
const (
	GridSpacingAU = 0.5
	minGridPixels = 4.0
	gridWidth     = 0.2
	orbitWidth    = 0.3
	trailAlpha    = 0.1
	labelGap      = 5.0
	minSunRadius  = 2.0
)

var (
	SunColor   = body.MustParseColor("#FFD700")
	GridColor  = body.MustParseColor("rgba(0, 0, 200, 1)")
	OrbitColor = body.MustParseColor("rgba(255, 255, 255, 0.4)")
	LabelColor = body.RGB(255, 255, 255)
)

// J2000 is the reference instant for surface rotation
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Options configures an Engine
type Options struct {
	Samples       int
	Budget        *shading.Budget
	TrailCapacity int
	OrbitEvery    int
	Seed          int64
	Epoch         time.Time
	Textures      map[string]shading.Texture
	ForceLinear   bool
	Grid          bool
	Labels        bool
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		Samples:       shading.DefaultSamples,
		TrailCapacity: trail.DefaultCapacity,
		OrbitEvery:    trail.DefaultOrbitEvery,
		Seed:          1,
		Epoch:         J2000,
		Grid:          true,
		Labels:        true,
	}
}

// Engine builds frames. Frame computation is synchronous and serialized.
type Engine struct {
	mu       sync.Mutex
	catalog  *body.Catalog
	store    *ephemeris.Store
	interp   interp.Interpolator
	shader   *shading.Renderer
	trails   *trail.Tracker
	textures map[string]shading.Texture
	opts     Options

	seq     uint64
	last    time.Time
	hasLast bool

	// OnShade observes the time spent shading each disc
	OnShade func(id string, d time.Duration)
}

// NewEngine creates an engine over catalog and store
func NewEngine(catalog *body.Catalog, store *ephemeris.Store, opts Options) *Engine {
	if opts.Epoch.IsZero() {
		opts.Epoch = J2000
	}
	if opts.OrbitEvery < 1 {
		opts.OrbitEvery = trail.DefaultOrbitEvery
	}
	textures := opts.Textures
	if textures == nil {
		textures = make(map[string]shading.Texture)
	}
	return &Engine{
		catalog:  catalog,
		store:    store,
		interp:   interp.Interpolator{ForceLinear: opts.ForceLinear},
		shader:   shading.NewRenderer(opts.Samples, opts.Budget, opts.Seed),
		trails:   trail.NewTracker(opts.TrailCapacity),
		textures: textures,
		opts:     opts,
	}
}

// Catalog returns the body catalog
func (e *Engine) Catalog() *body.Catalog {
	return e.catalog
}

// Store returns the ephemeris store
func (e *Engine) Store() *ephemeris.Store {
	return e.store
}

// Trails returns the trail tracker
func (e *Engine) Trails() *trail.Tracker {
	return e.trails
}

// Budget returns the shading budget
func (e *Engine) Budget() *shading.Budget {
	return e.shader.Budget
}

// ClearTrails drops all accumulated trails
func (e *Engine) ClearTrails() {
	e.trails.Clear()
}

// Loading reports whether some body still lacks an ephemeris entry
func (e *Engine) Loading() bool {
	return !e.store.Complete(e.catalog.IDs())
}

// Frame computes the draw list for state. Trails grow only when the
// simulated time differs from the previous frame, so pans and zooms do
// not smear them.
func (e *Engine) Frame(state scene.State) Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	state = state.Normalize()
	e.seq++
	f := Frame{Seq: e.seq, Time: state.Time, State: state}

	if e.Loading() {
		f.Loading = true
		f.Message = LoadingMessage
		return f
	}

	r := scene.Resolve(state, e.catalog, e.store, e.interp)
	proj := scene.ProjectorFor(r)

	if e.hasLast && !state.Time.Equal(e.last) {
		e.trails.Append(r)
	}
	e.last = state.Time
	e.hasLast = true

	if e.opts.Grid {
		f.Grid = gridLines(state, r.Origin, proj)
	}

	order := e.catalog.IDs()
	if state.ShowOrbits {
		for _, id := range order {
			s, ok := e.store.Get(id)
			if !ok || !s.Valid() {
				continue
			}
			f.Orbits = append(f.Orbits, Polyline{
				ID:     id,
				Points: trail.OrbitPath(s, e.opts.OrbitEvery, state.Rotation, proj),
				Width:  orbitWidth,
				Color:  OrbitColor,
			})
		}
	}

	placed := scene.Place(r, order)
	f.Placed = placed
	radius := make(map[string]float64, len(placed))
	for _, pl := range placed {
		radius[pl.ID] = pl.Radius
	}

	for _, id := range order {
		pts := e.trails.Points(id)
		if len(pts) == 0 {
			continue
		}
		b, _ := e.catalog.Get(id)
		f.Trails = append(f.Trails, Polyline{
			ID:     id,
			Points: trail.Project(pts, state.Rotation, proj),
			Width:  math.Max(1, radius[id]),
			Color:  b.Color.WithAlpha(trailAlpha),
		})
	}

	sun := proj.Project(astromath.Vector3{})
	f.Sun = Circle{X: sun.X, Y: sun.Y, R: math.Max(minSunRadius, shading.SunRadiusAU*proj.Scale()), Color: SunColor}

	e.shader.Reseed(e.opts.Seed)
	elapsed := state.Time.Sub(e.opts.Epoch).Hours() / 24
	for _, pl := range placed {
		b, _ := e.catalog.Get(pl.ID)
		f.Bodies = append(f.Bodies, e.drawBody(b, pl, r, elapsed))
		if e.opts.Labels {
			f.Labels = append(f.Labels, Label{
				X:     pl.Point.X,
				Y:     pl.Point.Y - pl.Radius - labelGap,
				Text:  capitalize(b.Name),
				Color: LabelColor,
			})
		}
	}

	if r.LightOK {
		for _, pl := range placed {
			if pl.ID == state.Light {
				f.Overlay = lightLines(f.Sun, pl)
				break
			}
		}
	}
	return f
}

func (e *Engine) drawBody(b body.Body, pl scene.Placed, r scene.Resolved, elapsedDays float64) BodyDraw {
	pos := r.Positions[b.ID]
	mean := r.Radii[b.ID]

	var occluders []shading.Occluder
	for _, sib := range e.catalog.Siblings(b.ID) {
		if p, ok := r.Positions[sib]; ok {
			occluders = append(occluders, shading.Occluder{ID: sib, Position: p, Radius: r.Radii[sib]})
		}
	}

	start := time.Now()
	disc := e.shader.Shade(shading.Input{
		CenterX:    pl.Point.X,
		CenterY:    pl.Point.Y,
		Radius:     pl.Radius,
		Color:      b.Color,
		Texture:    e.textures[b.ID],
		Position:   pos,
		MeanRadius: mean,
		Occluders:  occluders,
		ViewAngle:  r.State.ViewAngle,
		Spin:       b.RotationAngle(elapsedDays),
		AxialTilt:  b.AxialTilt,
	})
	if e.OnShade != nil {
		e.OnShade(b.ID, time.Since(start))
	}

	draw := BodyDraw{ID: b.ID, Name: b.Name, Disc: disc}
	if b.Ring != nil {
		segs := shading.RingArcs(shading.RingInput{
			CenterX:    pl.Point.X,
			CenterY:    pl.Point.Y,
			Radius:     pl.Radius,
			Ring:       *b.Ring,
			Position:   pos,
			MeanRadius: mean,
			ViewAngle:  r.State.ViewAngle,
			Rotation:   r.State.Rotation,
		})
		for _, s := range segs {
			if s.Behind {
				draw.RingsBehind = append(draw.RingsBehind, s)
			} else {
				draw.RingsFront = append(draw.RingsFront, s)
			}
		}
	}
	return draw
}

// gridLines draws an ecliptic grid with GridSpacingAU spacing that
// moves with the center body and the pan offset
func gridLines(state scene.State, origin astromath.Vector3, proj scene.Projector) []Line {
	size := GridSpacingAU * proj.Scale()
	if size < minGridPixels || state.Width == 0 || state.Height == 0 {
		return nil
	}
	w, h := float64(state.Width), float64(state.Height)
	offX := positiveMod(state.Offset.X-origin.X*proj.Scale(), size)
	offY := positiveMod(state.Offset.Y-origin.Y*math.Cos(astromath.Radians(state.ViewAngle))*proj.Scale(), size)

	var lines []Line
	for x := offX; x <= w; x += size {
		lines = append(lines, Line{X1: x, Y1: 0, X2: x, Y2: h, Width: gridWidth, Color: GridColor})
	}
	for y := offY; y <= h; y += size {
		lines = append(lines, Line{X1: 0, Y1: y, X2: w, Y2: y, Width: gridWidth, Color: GridColor})
	}
	return lines
}

func positiveMod(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
