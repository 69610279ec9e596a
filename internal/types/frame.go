package types

import (
	"encoding/json"
	"time"
)

// Stream message types
const (
	MessageFrame = "frame"
	MessageError = "error"
	MessageAck   = "ack"
)

// StreamMessage is one websocket message of the frame stream
type StreamMessage struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// BodyInfo describes a catalog body and its loaded ephemeris
type BodyInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Parent   string    `json:"parent,omitempty"`
	Group    string    `json:"group"`
	Mode     string    `json:"mode"`
	HasRing  bool      `json:"has_ring,omitempty"`
	RadiusAU float64   `json:"radius_au"`
	Samples  int       `json:"samples"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
}

// ControlResponse acknowledges a control command
type ControlResponse struct {
	Status   string    `json:"status"`
	Action   string    `json:"action"`
	Running  bool      `json:"running"`
	Time     time.Time `json:"time"`
	StepDays float64   `json:"step_days"`
}

// StatusResponse reports the running visualization
type StatusResponse struct {
	Running   bool          `json:"running"`
	Loading   bool          `json:"loading"`
	Time      time.Time     `json:"time"`
	StepDays  float64       `json:"step_days"`
	Frames    int           `json:"frames"`
	MeanFrame time.Duration `json:"mean_frame"`
	Budget    float64       `json:"budget"`
	Bodies    int           `json:"bodies"`
	Uptime    time.Duration `json:"uptime"`
}
