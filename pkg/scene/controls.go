package scene

import (
	"errors"
	"fmt"
	"time"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

// ErrUnknownAction is returned by Apply for commands it does not handle
var ErrUnknownAction = errors.New("unknown control action")

// Change is the result of a control: the new state and whether
// accumulated trails no longer match the frame of reference
type Change struct {
	State       State
	ResetTrails bool
}

func keep(s State) Change  { return Change{State: s} }
func reset(s State) Change { return Change{State: s, ResetTrails: true} }

// SetViewAngle sets the polar tilt, clamped to [1,179]
func (s State) SetViewAngle(deg float64) Change {
	next := s
	next.ViewAngle = clamp(deg, MinViewAngle, MaxViewAngle)
	if next.ViewAngle == s.ViewAngle {
		return keep(next)
	}
	return reset(next)
}

// TiltBy applies a vertical mouse drag of dy pixels to the view angle
func (s State) TiltBy(dy float64) Change {
	angle := clamp(s.ViewAngle+dy*DragTiltPerPixel, MinViewAngle, DragTiltLimit)
	return s.SetViewAngle(angle)
}

// SetRotation sets the azimuthal rotation, wrapped to [0,360)
func (s State) SetRotation(deg float64) Change {
	s.Rotation = astromath.WrapDegrees(deg)
	return keep(s)
}

// RotateBy adds deg to the rotation
func (s State) RotateBy(deg float64) Change {
	return s.SetRotation(s.Rotation + deg)
}

// SetZoom sets the zoom, clamped to [1,100000]
func (s State) SetZoom(z float64) Change {
	s.Zoom = clamp(z, MinZoom, MaxZoom)
	return keep(s)
}

// ZoomIn grows the zoom by one step
func (s State) ZoomIn() Change {
	return s.SetZoom(s.Zoom * (1 + ZoomStep))
}

// ZoomOut shrinks the zoom by one step
func (s State) ZoomOut() Change {
	return s.SetZoom(s.Zoom * (1 - ZoomStep))
}

// Pan shifts the view by (dx, dy) pixels
func (s State) Pan(dx, dy float64) Change {
	s.Offset.X += dx
	s.Offset.Y += dy
	return keep(s)
}

// SetTime jumps to t
func (s State) SetTime(t time.Time) Change {
	s.Time = t
	return reset(s)
}

// Step advances simulated time by days; trails keep accumulating
func (s State) Step(days float64) Change {
	s.Time = s.Time.Add(time.Duration(days * float64(24*time.Hour)))
	return keep(s)
}

// SetCenter changes the origin body and recenters the pan
func (s State) SetCenter(id string) Change {
	s.Center = id
	s.Offset = Offset{}
	return reset(s)
}

// SetLight changes the light-reference body
func (s State) SetLight(id string) Change {
	s.Light = id
	return reset(s)
}

// SetOrbits toggles orbit path drawing
func (s State) SetOrbits(show bool) Change {
	s.ShowOrbits = show
	return keep(s)
}

// Resize updates the viewport
func (s State) Resize(width, height int) Change {
	s.Width = width
	s.Height = height
	return keep(s)
}

// Command is a serializable control action, as sent by the HTTP API or
// produced by the terminal viewer
type Command struct {
	Action string    `json:"action"`
	Value  float64   `json:"value,omitempty"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Target string    `json:"target,omitempty"`
	Time   time.Time `json:"time,omitempty"`
	On     bool      `json:"on,omitempty"`
}

// Apply executes a scene command. Run-loop actions such as start, stop,
// clear and time step belong to the scheduler and yield ErrUnknownAction.
func (s State) Apply(cmd Command) (Change, error) {
	switch cmd.Action {
	case "view_angle":
		return s.SetViewAngle(cmd.Value), nil
	case "tilt":
		return s.TiltBy(cmd.Value), nil
	case "rotation":
		return s.SetRotation(cmd.Value), nil
	case "rotate":
		return s.RotateBy(cmd.Value), nil
	case "zoom":
		return s.SetZoom(cmd.Value), nil
	case "zoom_in":
		return s.ZoomIn(), nil
	case "zoom_out":
		return s.ZoomOut(), nil
	case "pan":
		return s.Pan(cmd.X, cmd.Y), nil
	case "date":
		if cmd.Time.IsZero() {
			return keep(s), fmt.Errorf("date command needs a time")
		}
		return s.SetTime(cmd.Time), nil
	case "advance":
		return s.Step(cmd.Value), nil
	case "center":
		return s.SetCenter(cmd.Target), nil
	case "light":
		return s.SetLight(cmd.Target), nil
	case "orbits":
		return s.SetOrbits(cmd.On), nil
	case "resize":
		return s.Resize(int(cmd.X), int(cmd.Y)), nil
	}
	return keep(s), fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}
