// Package metrics exposes Prometheus collectors for frame, shading and
// ephemeris fetch timings.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oxygene76/orrery/pkg/ephemeris"
)

const namespace = "orrery"

// Collector holds every orrery metric on its own registry
type Collector struct {
	registry *prometheus.Registry

	frameDuration prometheus.Histogram
	framesTotal   prometheus.Counter
	shadeDuration *prometheus.HistogramVec
	budget        prometheus.Gauge
	fetchDuration *prometheus.HistogramVec
	fetchesTotal  *prometheus.CounterVec
	proxyRequests *prometheus.CounterVec
	streamClients prometheus.Gauge
}

// NewCollector creates and registers all metrics
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		frameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_duration_seconds",
				Help:      "Time spent computing a frame",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		framesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Total number of frames computed",
			},
		),
		shadeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "shade_duration_seconds",
				Help:      "Time spent shading one body disc",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"body"},
		),
		budget: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "shading_budget",
				Help:      "Current shading resolution budget",
			},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ephemeris_fetch_duration_seconds",
				Help:      "Time spent fetching one body's ephemeris",
			},
			[]string{"source"},
		),
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ephemeris_fetches_total",
				Help:      "Total ephemeris fetches by outcome",
			},
			[]string{"source", "status"},
		),
		proxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "horizons_proxy_requests_total",
				Help:      "Horizons proxy requests by cache outcome",
			},
			[]string{"cache"},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_clients",
				Help:      "Connected frame stream clients",
			},
		),
	}

	m.registry.MustRegister(
		m.frameDuration,
		m.framesTotal,
		m.shadeDuration,
		m.budget,
		m.fetchDuration,
		m.fetchesTotal,
		m.proxyRequests,
		m.streamClients,
	)
	return m
}

// Registry returns the underlying registry
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFrame observes one frame time
func (m *Collector) RecordFrame(d time.Duration) {
	m.frameDuration.Observe(d.Seconds())
	m.framesTotal.Inc()
}

// RecordShade observes the shading time of one disc
func (m *Collector) RecordShade(id string, d time.Duration) {
	m.shadeDuration.WithLabelValues(id).Observe(d.Seconds())
}

// SetBudget publishes the shading budget
func (m *Collector) SetBudget(v float64) {
	m.budget.Set(v)
}

// RecordFetch counts one ephemeris fetch
func (m *Collector) RecordFetch(source string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
	m.fetchesTotal.WithLabelValues(source, status).Inc()
}

// RecordProxy counts one proxy request; outcome is hit, miss or error
func (m *Collector) RecordProxy(outcome string) {
	m.proxyRequests.WithLabelValues(outcome).Inc()
}

// StreamConnected adjusts the connected stream client gauge
func (m *Collector) StreamConnected(delta int) {
	m.streamClients.Add(float64(delta))
}

// instrumentedSource times every fetch of the wrapped source
type instrumentedSource struct {
	ephemeris.Source
	m *Collector
}

// InstrumentSource wraps src so each fetch is recorded
func InstrumentSource(src ephemeris.Source, m *Collector) ephemeris.Source {
	if m == nil {
		return src
	}
	return &instrumentedSource{Source: src, m: m}
}

func (s *instrumentedSource) Fetch(ctx context.Context, id string, start, stop time.Time) (ephemeris.Series, error) {
	began := time.Now()
	series, err := s.Source.Fetch(ctx, id, start, stop)
	s.m.RecordFetch(s.Source.Name(), time.Since(began), err)
	return series, err
}
