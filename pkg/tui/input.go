package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/analysis"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/scene"
)

// Keyboard steps
const (
	PanStep    = 10.0
	AngleStep  = 5.0
	RotateStep = 5.0
)

// Action is the outcome of one input event
type Action struct {
	Commands []scene.Command
	Quit     bool
}

func do(cmds ...scene.Command) Action {
	return Action{Commands: cmds}
}

// KeyAction maps a key press to commands for the current state
func KeyAction(ev *tcell.EventKey, st scene.State, stepDays float64, catalog *body.Catalog) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Action{Quit: true}
	case tcell.KeyLeft:
		return do(scene.Command{Action: "pan", X: -PanStep})
	case tcell.KeyRight:
		return do(scene.Command{Action: "pan", X: PanStep})
	case tcell.KeyUp:
		return do(scene.Command{Action: "pan", Y: -PanStep})
	case tcell.KeyDown:
		return do(scene.Command{Action: "pan", Y: PanStep})
	case tcell.KeyTab:
		return do(scene.Command{Action: "center", Target: catalog.Next(st.Center)})
	case tcell.KeyRune:
	default:
		return Action{}
	}

	switch ev.Rune() {
	case 'q':
		return Action{Quit: true}
	case ' ':
		return do(scene.Command{Action: "toggle"})
	case 'c':
		return do(scene.Command{Action: "clear"})
	case 'o':
		return do(scene.Command{Action: "orbits", On: !st.ShowOrbits})
	case '+', '=':
		return do(scene.Command{Action: "zoom_in"})
	case '-':
		return do(scene.Command{Action: "zoom_out"})
	case '[':
		return do(scene.Command{Action: "view_angle", Value: st.ViewAngle - AngleStep})
	case ']':
		return do(scene.Command{Action: "view_angle", Value: st.ViewAngle + AngleStep})
	case ',':
		return do(scene.Command{Action: "rotate", Value: -RotateStep})
	case '.':
		return do(scene.Command{Action: "rotate", Value: RotateStep})
	case '<':
		return do(scene.Command{Action: "time_step", Value: stepDays / 2})
	case '>':
		return do(scene.Command{Action: "time_step", Value: stepDays * 2})
	case 'r':
		return do(scene.Command{Action: "time_step", Value: -stepDays})
	case 'l':
		return do(scene.Command{Action: "light", Target: catalog.Next(st.Light)})
	case 'e':
		return presetAction(types.SolarEclipse)
	case 'E':
		return presetAction(types.LunarEclipse)
	}
	return Action{}
}

// presetAction stops time at an eclipse date, centered on Earth with its
// light overlay shown
func presetAction(kind string) Action {
	p, ok := analysis.PresetFor(kind)
	if !ok {
		return Action{}
	}
	return do(
		scene.Command{Action: "stop"},
		scene.Command{Action: "date", Time: p.Date},
		scene.Command{Action: "center", Target: body.EarthID},
		scene.Command{Action: "light", Target: body.EarthID},
	)
}

// mouse tracks drags between events. Terminal cells are one pixel wide
// and two pixels tall.
type mouse struct {
	buttons tcell.ButtonMask
	x, y    int
	moved   bool
}

// handle maps a mouse event: left drag pans, right drag tilts, the wheel
// zooms and a left click without movement centers on the hit body
func (m *mouse) handle(ev *tcell.EventMouse, placed []scene.Placed) Action {
	x, y := ev.Position()
	btn := ev.Buttons()

	switch {
	case btn&tcell.WheelUp != 0:
		return do(scene.Command{Action: "zoom_in"})
	case btn&tcell.WheelDown != 0:
		return do(scene.Command{Action: "zoom_out"})
	}

	pressed := btn & (tcell.Button1 | tcell.Button2)
	if pressed == 0 {
		var act Action
		if m.buttons&tcell.Button1 != 0 && !m.moved {
			if id, ok := scene.HitTest(placed, float64(x)+0.5, float64(y*2)+1); ok {
				act = do(scene.Command{Action: "center", Target: id})
			}
		}
		m.buttons, m.moved = 0, false
		return act
	}

	if m.buttons == 0 {
		m.buttons, m.x, m.y, m.moved = pressed, x, y, false
		return Action{}
	}

	dx, dy := float64(x-m.x), float64(2*(y-m.y))
	m.x, m.y = x, y
	if dx == 0 && dy == 0 {
		return Action{}
	}
	m.moved = true

	if m.buttons&tcell.Button2 != 0 {
		return do(scene.Command{Action: "tilt", Value: dy})
	}
	return do(scene.Command{Action: "pan", X: dx, Y: dy})
}
