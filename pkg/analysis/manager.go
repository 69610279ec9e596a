package analysis

import (
	"fmt"
	"log"
	"time"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/ephemeris"
)

// Manager runs analyses over a loaded ephemeris store
type Manager struct {
	store *ephemeris.Store
}

// NewManager creates a new analysis manager
func NewManager(store *ephemeris.Store) *Manager {
	return &Manager{store: store}
}

// AnalyzeEclipses scans [from, to] for eclipses of kind and wraps the
// report in an analysis result
func (m *Manager) AnalyzeEclipses(kind string, from, to time.Time, steps int, tolDeg float64) (*types.AnalysisResult, error) {
	log.Printf("Starting %s eclipse scan from %s to %s", kind, from.Format("2006-01-02"), to.Format("2006-01-02"))
	start := time.Now()

	var (
		report *types.EclipseReport
		err    error
	)
	switch kind {
	case types.LunarEclipse:
		report, err = FindLunarEclipses(m.store, from, to, steps, tolDeg)
	case types.SolarEclipse:
		report, err = FindSolarEclipses(m.store, from, to, steps, tolDeg)
	default:
		return nil, fmt.Errorf("unknown eclipse kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("eclipse scan failed: %w", err)
	}

	log.Printf("Found %d %s eclipse candidates in %d events", report.Candidates, kind, len(report.Events))

	return &types.AnalysisResult{
		ID:      fmt.Sprintf("eclipse_%s_%d", kind, start.Unix()),
		Type:    "eclipse_" + kind,
		Status:  "completed",
		Results: report,
		Metadata: map[string]string{
			"steps":     fmt.Sprintf("%d", report.Steps),
			"tolerance": fmt.Sprintf("%.3f", report.Tolerance),
			"events":    fmt.Sprintf("%d", len(report.Events)),
		},
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}, nil
}
