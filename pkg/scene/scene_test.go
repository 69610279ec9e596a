package scene

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/interp"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func constantSeries(p astromath.Vector3, radius float64) ephemeris.Series {
	s := ephemeris.Series{MeanRadiusAU: radius}
	for d := -2; d <= 2; d++ {
		s.Samples = append(s.Samples, ephemeris.Sample{Time: epoch.AddDate(0, 0, d), Position: p})
	}
	return s
}

func fixture(t *testing.T) (*body.Catalog, *ephemeris.Store) {
	t.Helper()
	// Center body deliberately last in display order
	cat, err := body.NewCatalog([]body.Body{
		{ID: "a"}, {ID: "b"}, {ID: "late", Active: body.Window{Start: epoch.AddDate(0, 0, 1)}}, {ID: "c"},
	}, nil)
	require.NoError(t, err)

	store := ephemeris.NewStore()
	require.NoError(t, store.Set("a", constantSeries(astromath.Vector3{X: 1}, 0.01)))
	require.NoError(t, store.Set("b", constantSeries(astromath.Vector3{X: 1}, 0.02)))
	require.NoError(t, store.Set("late", constantSeries(astromath.Vector3{Y: 3}, 0.01)))
	require.NoError(t, store.Set("c", constantSeries(astromath.Vector3{X: 2, Y: 1, Z: 0.5}, 0.01)))
	return cat, store
}

func testState() State {
	s := DefaultState(800, 600, epoch)
	s.Zoom = 1
	s.BaseScale = 100
	s.ViewAngle = 60
	return s
}

func TestProjectionFormula(t *testing.T) {
	s := testState()
	s.Offset = Offset{X: 10, Y: -20}
	origin := astromath.Vector3{X: 0.5, Y: 0.5, Z: 0.1}
	p := NewProjector(s, origin)

	got := p.Project(astromath.Vector3{X: 1, Y: 2, Z: 0.3})
	assert.InDelta(t, 400+10+0.5*100, got.X, 1e-9)
	assert.InDelta(t, 300-20+1.5*math.Cos(astromath.Radians(60))*100-0.2*100, got.Y, 1e-9)

	assert.Equal(t, 1.0, p.Radius(0.001))
	assert.InDelta(t, 5.0, p.Radius(0.05), 1e-12)
}

func TestProjectionConsistency(t *testing.T) {
	cat, store := fixture(t)
	s := testState()
	s.Center = "c"
	r := Resolve(s, cat, store, interp.Interpolator{})

	placed := Place(r, cat.IDs())
	byID := map[string]Placed{}
	for _, pl := range placed {
		byID[pl.ID] = pl
	}
	assert.Equal(t, byID["a"].Point, byID["b"].Point)
}

func TestResolveTwoPassCenter(t *testing.T) {
	cat, store := fixture(t)
	s := testState()
	s.Center = "c"
	s.Light = "a"

	r := Resolve(s, cat, store, interp.Interpolator{})
	assert.Equal(t, astromath.Vector3{X: 2, Y: 1, Z: 0.5}, r.Origin)
	assert.True(t, r.LightOK)
	assert.Equal(t, astromath.Vector3{X: 1}, r.Light)

	rel, ok := r.Relative("a")
	require.True(t, ok)
	assert.Equal(t, astromath.Vector3{X: -1, Y: -1, Z: -0.5}, rel)

	// The center projects onto the viewport center
	c := ProjectorFor(r).Project(r.Positions["c"])
	assert.Equal(t, Point{X: 400, Y: 300}, c)
}

func TestResolveSkipsUndefined(t *testing.T) {
	cat, store := fixture(t)
	s := testState()
	s.Center = "late"
	s.Light = "late"

	r := Resolve(s, cat, store, interp.Interpolator{})
	assert.False(t, r.Visible("late"))
	assert.Equal(t, astromath.Vector3{}, r.Origin)
	assert.False(t, r.LightOK)

	for _, pl := range Place(r, cat.IDs()) {
		assert.NotEqual(t, "late", pl.ID)
	}

	s = s.SetTime(epoch.AddDate(0, 0, 1)).State
	r = Resolve(s, cat, store, interp.Interpolator{})
	assert.True(t, r.Visible("late"))
	assert.Equal(t, astromath.Vector3{Y: 3}, r.Origin)
}

func TestResolveAppliesRotation(t *testing.T) {
	cat, store := fixture(t)
	s := testState()
	s.Center = ""
	s.Rotation = 90

	r := Resolve(s, cat, store, interp.Interpolator{})
	a := r.Positions["a"]
	assert.InDelta(t, 0, a.X, 1e-12)
	assert.InDelta(t, 1, a.Y, 1e-12)
}

func TestControls(t *testing.T) {
	s := testState()

	ch := s.SetViewAngle(500)
	assert.Equal(t, MaxViewAngle, ch.State.ViewAngle)
	assert.True(t, ch.ResetTrails)
	assert.False(t, ch.State.SetViewAngle(MaxViewAngle).ResetTrails)
	assert.Equal(t, MinViewAngle, s.SetViewAngle(-3).State.ViewAngle)

	assert.Equal(t, DragTiltLimit, s.TiltBy(1000).State.ViewAngle)
	assert.Equal(t, 62.0, s.TiltBy(4).State.ViewAngle)

	assert.InDelta(t, 10, s.SetRotation(370).State.Rotation, 1e-12)
	assert.InDelta(t, 350, s.RotateBy(-10).State.Rotation, 1e-12)

	assert.InDelta(t, 1.1, s.ZoomIn().State.Zoom, 1e-12)
	assert.Equal(t, MinZoom, s.ZoomOut().State.Zoom)
	assert.Equal(t, MaxZoom, s.SetZoom(1e9).State.Zoom)

	panned := s.Pan(5, -7)
	assert.False(t, panned.ResetTrails)
	assert.Equal(t, Offset{X: 5, Y: -7}, panned.State.Offset)

	centered := panned.State.SetCenter("499")
	assert.True(t, centered.ResetTrails)
	assert.Equal(t, Offset{}, centered.State.Offset)
	assert.Equal(t, "499", centered.State.Center)

	assert.True(t, s.SetLight("301").ResetTrails)
	assert.True(t, s.SetTime(epoch.AddDate(1, 0, 0)).ResetTrails)

	stepped := s.Step(0.5)
	assert.False(t, stepped.ResetTrails)
	assert.Equal(t, epoch.Add(12*time.Hour), stepped.State.Time)

	// The receiver is untouched
	assert.Equal(t, testState(), s)
}

func TestApplyCommands(t *testing.T) {
	s := testState()

	ch, err := s.Apply(Command{Action: "zoom", Value: 50})
	require.NoError(t, err)
	assert.Equal(t, 50.0, ch.State.Zoom)

	ch, err = s.Apply(Command{Action: "center", Target: "10"})
	require.NoError(t, err)
	assert.True(t, ch.ResetTrails)

	ch, err = s.Apply(Command{Action: "orbits", On: true})
	require.NoError(t, err)
	assert.True(t, ch.State.ShowOrbits)

	_, err = s.Apply(Command{Action: "date"})
	assert.Error(t, err)

	_, err = s.Apply(Command{Action: "start"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestHitTest(t *testing.T) {
	placed := []Placed{
		{ID: "a", Point: Point{X: 10, Y: 10}, Radius: 5},
		{ID: "b", Point: Point{X: 12, Y: 10}, Radius: 5},
	}
	id, ok := HitTest(placed, 11, 10)
	require.True(t, ok)
	assert.Equal(t, "b", id)

	id, ok = HitTest(placed, 6, 10)
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = HitTest(placed, 100, 100)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	s := State{ViewAngle: 0, Rotation: -90, Zoom: 0}.Normalize()
	assert.Equal(t, MinViewAngle, s.ViewAngle)
	assert.Equal(t, 270.0, s.Rotation)
	assert.Equal(t, MinZoom, s.Zoom)
	assert.Equal(t, 1.0, s.BaseScale)
}

func TestFitScale(t *testing.T) {
	_, store := fixture(t)
	scale, ok := FitScale(store, 800, 600)
	require.True(t, ok)
	// Y spans 0..3
	assert.InDelta(t, 600*0.4/3, scale, 1e-12)

	_, ok = FitScale(ephemeris.NewStore(), 800, 600)
	assert.False(t, ok)
}
