package types

import (
	"time"
)

// AnalysisResult represents the result of an analysis operation
type AnalysisResult struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Results   interface{}       `json:"results"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  time.Duration     `json:"duration"`
	Error     string            `json:"error,omitempty"`
}

// Eclipse kinds
const (
	LunarEclipse = "lunar"
	SolarEclipse = "solar"
)

// EclipseEvent is one run of consecutive scan samples that met the
// alignment tolerance, reported at its best-aligned sample
type EclipseEvent struct {
	Kind       string    `json:"kind"`
	Time       time.Time `json:"time"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Separation float64   `json:"separation"` // degrees from exact syzygy
	Latitude   float64   `json:"latitude"`   // geocentric ecliptic latitude of the Moon, degrees
	Samples    int       `json:"samples"`
}

// EclipseReport summarizes a scan
type EclipseReport struct {
	Kind       string         `json:"kind"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Steps      int            `json:"steps"`
	Tolerance  float64        `json:"tolerance"` // degrees
	Candidates int            `json:"candidates"`
	Undefined  int            `json:"undefined"`
	Events     []EclipseEvent `json:"events"`

	MeanSeparation float64 `json:"mean_separation"`
	StdSeparation  float64 `json:"std_separation"`
	MeanLatitude   float64 `json:"mean_latitude"`
	StdLatitude    float64 `json:"std_latitude"`
}
