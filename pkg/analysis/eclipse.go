package analysis

import (
	"fmt"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/orrery/internal/types"
	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/interp"
)

// Scan defaults
const (
	DefaultSteps     = 5000
	DefaultTolerance = 0.75
)

// Preset is a known eclipse date to jump to
type Preset struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	Date time.Time `json:"date"`
}

// Presets returns the built-in eclipse dates
func Presets() []Preset {
	return []Preset{
		{Name: "Total solar eclipse", Kind: types.SolarEclipse, Date: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)},
		{Name: "Total lunar eclipse", Kind: types.LunarEclipse, Date: time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)},
	}
}

// PresetFor returns the first preset of kind
func PresetFor(kind string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Kind == kind {
			return p, true
		}
	}
	return Preset{}, false
}

// Geometry is the Sun-Earth-Moon configuration seen from Earth
type Geometry struct {
	// Elongation is the ecliptic longitude difference of Moon and Sun in [0,180]
	Elongation float64
	// Latitude is the Moon's geocentric ecliptic latitude
	Latitude float64
}

// GeometryAt computes the geocentric geometry from sun-centered positions
func GeometryAt(earth, moon astromath.Vector3) Geometry {
	sun := earth.Neg()
	rel := moon.Sub(earth)

	sunLon := astromath.Degrees(math.Atan2(sun.Y, sun.X))
	moonLon := astromath.Degrees(math.Atan2(rel.Y, rel.X))
	d := astromath.WrapDegrees(moonLon - sunLon)
	d = math.Min(d, 360-d)

	lat := 0.0
	if m := rel.Magnitude(); m > 0 {
		lat = astromath.Degrees(math.Asin(rel.Z / m))
	}
	return Geometry{Elongation: d, Latitude: lat}
}

// separation returns how far g is from the syzygy an eclipse of kind needs
func separation(kind string, g Geometry) float64 {
	if kind == types.SolarEclipse {
		return g.Elongation
	}
	return math.Abs(g.Elongation - 180)
}

// FindLunarEclipses scans for oppositions with the Moon near the ecliptic
func FindLunarEclipses(store *ephemeris.Store, from, to time.Time, steps int, tolDeg float64) (*types.EclipseReport, error) {
	return scan(store, types.LunarEclipse, from, to, steps, tolDeg)
}

// FindSolarEclipses scans for conjunctions with the Moon near the ecliptic
func FindSolarEclipses(store *ephemeris.Store, from, to time.Time, steps int, tolDeg float64) (*types.EclipseReport, error) {
	return scan(store, types.SolarEclipse, from, to, steps, tolDeg)
}

// scan samples steps evenly spaced instants in [from, to]. A sample is a
// candidate when both the syzygy separation and the Moon's latitude are
// within tolDeg. Consecutive candidates collapse into one event.
func scan(store *ephemeris.Store, kind string, from, to time.Time, steps int, tolDeg float64) (*types.EclipseReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("empty scan range %s - %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	if steps < 2 {
		steps = DefaultSteps
	}
	if tolDeg <= 0 {
		tolDeg = DefaultTolerance
	}

	earthSeries, ok := store.Get(body.EarthID)
	if !ok || !earthSeries.Valid() {
		return nil, fmt.Errorf("no ephemeris for Earth (%s)", body.EarthID)
	}
	moonSeries, ok := store.Get(body.MoonID)
	if !ok || !moonSeries.Valid() {
		return nil, fmt.Errorf("no ephemeris for the Moon (%s)", body.MoonID)
	}

	var in interp.Interpolator
	earth := body.Body{ID: body.EarthID}
	moon := body.Body{ID: body.MoonID}

	report := &types.EclipseReport{Kind: kind, From: from, To: to, Steps: steps, Tolerance: tolDeg}
	span := to.Sub(from)

	var current *types.EclipseEvent
	flush := func() {
		if current != nil {
			report.Events = append(report.Events, *current)
			current = nil
		}
	}

	for i := 0; i < steps; i++ {
		t := from.Add(time.Duration(float64(span) * float64(i) / float64(steps-1)))
		e, okE := in.Raw(earth, earthSeries, t)
		m, okM := in.Raw(moon, moonSeries, t)
		if !okE || !okM {
			report.Undefined++
			flush()
			continue
		}

		g := GeometryAt(e, m)
		sep := separation(kind, g)
		if sep > tolDeg || math.Abs(g.Latitude) > tolDeg {
			flush()
			continue
		}

		report.Candidates++
		if current == nil {
			current = &types.EclipseEvent{Kind: kind, Start: t, Separation: math.Inf(1)}
		}
		current.End = t
		current.Samples++
		if sep < current.Separation {
			current.Time = t
			current.Separation = sep
			current.Latitude = g.Latitude
		}
	}
	flush()

	if report.Undefined > 0 {
		log.Printf("Warning: %d of %d scan samples had no ephemeris coverage", report.Undefined, steps)
	}
	summarize(report)
	return report, nil
}

func summarize(r *types.EclipseReport) {
	if len(r.Events) == 0 {
		return
	}
	seps := make([]float64, len(r.Events))
	lats := make([]float64, len(r.Events))
	for i, ev := range r.Events {
		seps[i] = ev.Separation
		lats[i] = ev.Latitude
	}
	r.MeanSeparation = stat.Mean(seps, nil)
	r.MeanLatitude = stat.Mean(lats, nil)
	if len(r.Events) > 1 {
		r.StdSeparation = stat.StdDev(seps, nil)
		r.StdLatitude = stat.StdDev(lats, nil)
	}
}
