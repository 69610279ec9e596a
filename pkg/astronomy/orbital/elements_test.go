package orbital

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartesianRoundTrip(t *testing.T) {
	oe := FromMeanLongitudes(1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891, J2000)

	pos, vel := oe.ToCartesian(GMSun)
	back := CartesianToOrbital(pos, vel, GMSun)

	assert.InDelta(t, oe.SemiMajorAxis, back.SemiMajorAxis, 1e-8)
	assert.InDelta(t, oe.Eccentricity, back.Eccentricity, 1e-8)
	assert.InDelta(t, oe.Inclination, back.Inclination, 1e-8)
	assert.InDelta(t, oe.LongitudeAscendingNode, back.LongitudeAscendingNode, 1e-8)
	assert.InDelta(t, oe.MeanAnomaly, back.MeanAnomaly, 1e-6)
}

func TestPeriodAndApsides(t *testing.T) {
	earth := DefaultKeplerBodies()["399"].Elements

	assert.InDelta(t, 365.25, earth.GetOrbitalPeriod(GMSun), 0.1)
	assert.InDelta(t, 0.9833, earth.GetPerihelion(), 1e-3)
	assert.InDelta(t, 1.0167, earth.GetAphelion(), 1e-3)
}

func TestAtFullPeriodReturnsToStart(t *testing.T) {
	earth := DefaultKeplerBodies()["399"].Elements
	period := earth.GetOrbitalPeriod(GMSun)

	start, _ := earth.ToCartesian(GMSun)
	end, _ := earth.At(J2000+period, GMSun).ToCartesian(GMSun)
	assert.InDelta(t, 0, start.Distance(end), 1e-9)
}

func TestKeplerSourceFetch(t *testing.T) {
	src := NewKeplerSource(nil, 24*time.Hour)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := start.AddDate(0, 0, 30)

	earth, err := src.Fetch(context.Background(), "399", start, stop)
	require.NoError(t, err)
	require.Equal(t, 31, earth.Len())
	require.NoError(t, earth.Validate())
	assert.InDelta(t, 6371.01/149597870.7, earth.MeanRadiusAU, 1e-12)

	// Early January is near perihelion
	r := earth.Samples[0].Position.Magnitude()
	assert.InDelta(t, 0.983, r, 0.005)

	moon, err := src.Fetch(context.Background(), "301", start, stop)
	require.NoError(t, err)
	for i := range moon.Samples {
		d := moon.Samples[i].Position.Distance(earth.Samples[i].Position)
		assert.InDelta(t, 0.00257, d, 0.0002)
	}

	_, err = src.Fetch(context.Background(), "3398", start, stop)
	assert.Error(t, err)
}

func TestOsculatingFromSamples(t *testing.T) {
	src := NewKeplerSource(nil, 6*time.Hour)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mars, err := src.Fetch(context.Background(), "499", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)

	oe, ok := Osculating(mars, 4, GMSun)
	require.True(t, ok)
	assert.InDelta(t, 1.5237, oe.SemiMajorAxis, 1e-3)
	assert.InDelta(t, 0.0934, oe.Eccentricity, 1e-3)
	assert.InDelta(t, 1.8497, oe.Inclination*180/math.Pi, 1e-2)

	_, ok = Osculating(mars, 0, GMSun)
	assert.False(t, ok)
}
