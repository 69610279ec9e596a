package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/orrery/pkg/ephemeris"
)

type stubSource struct{ fail bool }

func (s stubSource) Fetch(ctx context.Context, id string, start, stop time.Time) (ephemeris.Series, error) {
	if s.fail {
		return ephemeris.Empty(), errors.New("upstream down")
	}
	return ephemeris.Empty(), nil
}

func (s stubSource) Name() string { return "stub" }

func TestRecordFrame(t *testing.T) {
	m := NewCollector()
	m.RecordFrame(10 * time.Millisecond)
	m.RecordFrame(20 * time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesTotal))

	m.SetBudget(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.budget))

	m.StreamConnected(1)
	m.StreamConnected(1)
	m.StreamConnected(-1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamClients))
}

func TestInstrumentSource(t *testing.T) {
	m := NewCollector()
	ok := InstrumentSource(stubSource{}, m)
	bad := InstrumentSource(stubSource{fail: true}, m)

	_, err := ok.Fetch(context.Background(), "399", time.Now(), time.Now())
	require.NoError(t, err)
	_, err = bad.Fetch(context.Background(), "399", time.Now(), time.Now())
	require.Error(t, err)
	assert.Equal(t, "stub", bad.Name())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchesTotal.WithLabelValues("stub", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchesTotal.WithLabelValues("stub", "error")))

	assert.Equal(t, stubSource{}, InstrumentSource(stubSource{}, nil))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewCollector()
	m.RecordProxy("hit")
	m.RecordShade("399", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `orrery_horizons_proxy_requests_total{cache="hit"} 1`))
	assert.True(t, strings.Contains(body, "orrery_shade_duration_seconds_count"))
}
