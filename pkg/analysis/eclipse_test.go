package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/orrery/internal/types"
	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

var epoch = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func at(days float64) time.Time {
	return epoch.Add(time.Duration(days * float64(24*time.Hour)))
}

// syntheticStore keeps Earth fixed on +X and moves the Moon around it at
// 13.2°/day starting 40° before opposition, inclined by inclDeg
func syntheticStore(t *testing.T, inclDeg float64) *ephemeris.Store {
	t.Helper()
	earth := ephemeris.Series{MeanRadiusAU: 4.26e-5}
	moon := ephemeris.Series{MeanRadiusAU: 1.16e-5}
	incl := astromath.Radians(inclDeg)
	for i := 0; i <= 40; i++ {
		d := float64(i) / 4
		th := astromath.Radians(-40 + 13.2*d)
		e := astromath.Vector3{X: 1}
		rel := astromath.Vector3{
			X: math.Cos(th) * math.Cos(incl),
			Y: math.Sin(th) * math.Cos(incl),
			Z: math.Sin(incl),
		}.Scale(0.00257)
		earth.Samples = append(earth.Samples, ephemeris.Sample{Time: at(d), Position: e})
		moon.Samples = append(moon.Samples, ephemeris.Sample{Time: at(d), Position: e.Add(rel)})
	}
	store := ephemeris.NewStore()
	require.NoError(t, store.Set(body.EarthID, earth))
	require.NoError(t, store.Set(body.MoonID, moon))
	return store
}

func TestGeometryAt(t *testing.T) {
	earth := astromath.Vector3{X: 1}

	g := GeometryAt(earth, astromath.Vector3{X: 0.99})
	assert.InDelta(t, 0, g.Elongation, 1e-9)
	assert.InDelta(t, 0, g.Latitude, 1e-9)

	g = GeometryAt(earth, astromath.Vector3{X: 1.01})
	assert.InDelta(t, 180, g.Elongation, 1e-9)

	g = GeometryAt(earth, astromath.Vector3{X: 1, Y: 0.01, Z: 0.01})
	assert.InDelta(t, 90, g.Elongation, 1e-9)
	assert.InDelta(t, 45, g.Latitude, 1e-9)
}

func TestFindLunarEclipse(t *testing.T) {
	store := syntheticStore(t, 0)
	report, err := FindLunarEclipses(store, at(1), at(9), 801, 1)
	require.NoError(t, err)

	require.Len(t, report.Events, 1)
	ev := report.Events[0]
	assert.Equal(t, types.LunarEclipse, ev.Kind)

	// opposition is reached 40/13.2 days after the epoch
	want := at(40 / 13.2)
	assert.WithinDuration(t, want, ev.Time, 30*time.Minute)
	assert.Less(t, ev.Separation, 0.1)
	assert.True(t, !ev.Start.After(ev.Time) && !ev.End.Before(ev.Time))
	assert.Equal(t, report.Candidates, ev.Samples)
	assert.Greater(t, ev.Samples, 5)

	assert.InDelta(t, ev.Separation, report.MeanSeparation, 1e-12)
	assert.Zero(t, report.StdSeparation)
	assert.Zero(t, report.Undefined)
}

func TestFindSolarEclipseNoneBeforeConjunction(t *testing.T) {
	store := syntheticStore(t, 0)
	report, err := FindSolarEclipses(store, at(1), at(9), 801, 1)
	require.NoError(t, err)
	assert.Empty(t, report.Events)
	assert.Zero(t, report.Candidates)
}

func TestInclinedMoonMissesEclipse(t *testing.T) {
	store := syntheticStore(t, 5)
	report, err := FindLunarEclipses(store, at(1), at(9), 801, 1)
	require.NoError(t, err)
	assert.Empty(t, report.Events)
}

func TestScanCountsUndefinedSamples(t *testing.T) {
	store := syntheticStore(t, 0)
	report, err := FindLunarEclipses(store, at(-1), at(1), 21, 1)
	require.NoError(t, err)
	// everything up to and including the first sample is undefined
	assert.Equal(t, 11, report.Undefined)
}

func TestScanErrors(t *testing.T) {
	store := syntheticStore(t, 0)
	_, err := FindLunarEclipses(store, at(2), at(1), 10, 1)
	assert.Error(t, err)

	empty := ephemeris.NewStore()
	_, err = FindSolarEclipses(empty, at(1), at(2), 10, 1)
	assert.Error(t, err)
}

func TestManagerAnalyzeEclipses(t *testing.T) {
	m := NewManager(syntheticStore(t, 0))

	res, err := m.AnalyzeEclipses(types.LunarEclipse, at(1), at(9), 801, 1)
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, "eclipse_lunar", res.Type)
	report, ok := res.Results.(*types.EclipseReport)
	require.True(t, ok)
	assert.Len(t, report.Events, 1)
	assert.Equal(t, "1", res.Metadata["events"])

	_, err = m.AnalyzeEclipses("annular", at(1), at(9), 10, 1)
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	solar, ok := PresetFor(types.SolarEclipse)
	require.True(t, ok)
	assert.Equal(t, "2024-04-08", solar.Date.Format("2006-01-02"))

	lunar, ok := PresetFor(types.LunarEclipse)
	require.True(t, ok)
	assert.Equal(t, "2025-09-07", lunar.Date.Format("2006-01-02"))

	_, ok = PresetFor("annular")
	assert.False(t, ok)
}
