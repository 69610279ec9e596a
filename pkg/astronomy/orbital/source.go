package orbital

import (
	"context"
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

// J2000 is the Julian date of the J2000.0 epoch
const J2000 = 2451545.0

// KeplerBody is a body propagated on a fixed two-body orbit. Bodies with a
// Parent are propagated around the parent's heliocentric position.
type KeplerBody struct {
	Elements OrbitalElements
	Mu       float64
	Parent   string
	RadiusKm float64
}

// DefaultKeplerBodies returns J2000 mean elements for the bundled catalog.
// Good to a few arc minutes over a few centuries, plenty for display.
func DefaultKeplerBodies() map[string]KeplerBody {
	return map[string]KeplerBody{
		"199": {Elements: FromMeanLongitudes(0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593, J2000), Mu: GMSun, RadiusKm: 2439.4},
		"299": {Elements: FromMeanLongitudes(0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255, J2000), Mu: GMSun, RadiusKm: 6051.84},
		"399": {Elements: FromMeanLongitudes(1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0, J2000), Mu: GMSun, RadiusKm: 6371.01},
		"499": {Elements: FromMeanLongitudes(1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891, J2000), Mu: GMSun, RadiusKm: 3389.92},
		"599": {Elements: FromMeanLongitudes(5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909, J2000), Mu: GMSun, RadiusKm: 69911},
		"699": {Elements: FromMeanLongitudes(9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448, J2000), Mu: GMSun, RadiusKm: 58232},
		"301": {
			Elements: FromMeanLongitudes(0.00256955529, 0.0549, 5.145, 218.316, 83.353, 125.045, J2000),
			Mu:       GMEarthMoon,
			Parent:   "399",
			RadiusKm: 1737.53,
		},
	}
}

// KeplerSource synthesizes ephemeris series from orbital elements. It
// needs no network or data files and backs offline runs and tests.
type KeplerSource struct {
	bodies map[string]KeplerBody
	step   time.Duration
}

// NewKeplerSource creates a source sampling at step (one day when zero)
func NewKeplerSource(bodies map[string]KeplerBody, step time.Duration) *KeplerSource {
	if bodies == nil {
		bodies = DefaultKeplerBodies()
	}
	if step <= 0 {
		step = 24 * time.Hour
	}
	return &KeplerSource{bodies: bodies, step: step}
}

// PositionAt returns the heliocentric ecliptic position of id at t
func (k *KeplerSource) PositionAt(id string, t time.Time) (astromath.Vector3, error) {
	return k.position(id, julian.TimeToJD(t), 0)
}

func (k *KeplerSource) position(id string, jd float64, depth int) (astromath.Vector3, error) {
	b, ok := k.bodies[id]
	if !ok {
		return astromath.Vector3{}, fmt.Errorf("no orbital elements for body %s", id)
	}
	if depth > 4 {
		return astromath.Vector3{}, fmt.Errorf("parent chain too deep at body %s", id)
	}

	pos, _ := b.Elements.At(jd, b.Mu).ToCartesian(b.Mu)
	if b.Parent == "" {
		return pos, nil
	}
	parent, err := k.position(b.Parent, jd, depth+1)
	if err != nil {
		return astromath.Vector3{}, err
	}
	return parent.Add(pos), nil
}

// Fetch implements ephemeris.Source
func (k *KeplerSource) Fetch(ctx context.Context, id string, start, stop time.Time) (ephemeris.Series, error) {
	b, ok := k.bodies[id]
	if !ok {
		return ephemeris.Empty(), fmt.Errorf("no orbital elements for body %s", id)
	}

	series := ephemeris.Series{MeanRadiusAU: ephemeris.DefaultRadiusAU}
	if b.RadiusKm > 0 {
		series.MeanRadiusAU = b.RadiusKm / ephemeris.KmPerAU
	}

	for t := start; !t.After(stop); t = t.Add(k.step) {
		if err := ctx.Err(); err != nil {
			return ephemeris.Series{MeanRadiusAU: series.MeanRadiusAU}, err
		}
		pos, err := k.position(id, julian.TimeToJD(t), 0)
		if err != nil {
			return ephemeris.Series{MeanRadiusAU: series.MeanRadiusAU}, err
		}
		series.Samples = append(series.Samples, ephemeris.Sample{Time: t.UTC(), Position: pos})
	}
	return series, nil
}

// Name implements ephemeris.Source
func (k *KeplerSource) Name() string {
	return "kepler"
}
