// Package tui renders frames into a truecolor terminal. Each cell shows
// two vertically stacked pixels using the upper half block glyph.
package tui

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
)

const halfBlock = '▀'

// Controller is the state owner the viewer sends commands to
type Controller interface {
	State() scene.State
	StepDays() float64
	Apply(cmd scene.Command) error
}

// Viewer paints frames on a tcell screen and turns input into commands
type Viewer struct {
	screen  tcell.Screen
	catalog *body.Catalog

	mu     sync.Mutex
	last   render.Frame
	notice string
	mouse  mouse
}

// NewViewer wraps an initialized screen
func NewViewer(screen tcell.Screen, catalog *body.Catalog) *Viewer {
	screen.EnableMouse()
	return &Viewer{screen: screen, catalog: catalog}
}

// Size returns the drawable area in pixels. The bottom row is kept for
// the status line.
func (v *Viewer) Size() (int, int) {
	cols, rows := v.screen.Size()
	if rows < 2 {
		return cols, 0
	}
	return cols, (rows - 1) * 2
}

// Last returns the most recently shown frame
func (v *Viewer) Last() render.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Notify replaces the message shown after the status text
func (v *Viewer) Notify(msg string) {
	v.mu.Lock()
	v.notice = msg
	v.mu.Unlock()
}

// Show paints f with status on the bottom row
func (v *Viewer) Show(f render.Frame, status string) {
	v.mu.Lock()
	v.last = f
	notice := v.notice
	v.mu.Unlock()

	cols, rows := v.screen.Size()
	w, h := v.Size()
	canvas := NewCanvas(w, h)
	if !f.Loading {
		canvas.Paint(f)
	}

	for y := 0; y < rows-1; y++ {
		for x := 0; x < cols; x++ {
			v.screen.SetContent(x, y, halfBlock, nil, cellStyle(canvas, x, y))
		}
	}

	if f.Loading {
		v.text((cols-len(f.Message))/2, (rows-1)/2, f.Message, tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack))
	}
	for _, l := range f.Labels {
		x, y := int(l.X)-len(l.Text)/2, int(l.Y)/2
		if y < 0 || y >= rows-1 {
			continue
		}
		_, bg, _ := cellStyle(canvas, x, y).Decompose()
		fg := tcell.NewRGBColor(int32(l.Color.R), int32(l.Color.G), int32(l.Color.B))
		v.text(x, y, l.Text, tcell.StyleDefault.Foreground(fg).Background(bg))
	}

	line := status
	if notice != "" {
		line += "  " + notice
	}
	for x := 0; x < cols; x++ {
		v.screen.SetContent(x, rows-1, ' ', nil, tcell.StyleDefault.Reverse(true))
	}
	v.text(0, rows-1, line, tcell.StyleDefault.Reverse(true))
	v.screen.Show()
}

func cellStyle(c *Canvas, x, y int) tcell.Style {
	tr, tg, tb := c.At(x, 2*y)
	br, bg, bb := c.At(x, 2*y+1)
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))).
		Background(tcell.NewRGBColor(int32(br), int32(bg), int32(bb)))
}

func (v *Viewer) text(x, y int, s string, style tcell.Style) {
	cols, _ := v.screen.Size()
	for _, r := range s {
		if x >= cols {
			return
		}
		if x >= 0 {
			v.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

// Run handles terminal input until ctx is canceled, the user quits or the
// screen is finalized
func (v *Viewer) Run(ctx context.Context, ctl Controller) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	v.resize(ctl)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if v.handle(ev, ctl) {
				return nil
			}
		}
	}
}

// handle applies one event and reports whether the user asked to quit
func (v *Viewer) handle(ev tcell.Event, ctl Controller) bool {
	var act Action
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		v.resize(ctl)
		return false
	case *tcell.EventKey:
		act = KeyAction(ev, ctl.State(), ctl.StepDays(), v.catalog)
	case *tcell.EventMouse:
		v.mu.Lock()
		act = v.mouse.handle(ev, v.last.Placed)
		v.mu.Unlock()
	}
	if act.Quit {
		return true
	}
	for _, cmd := range act.Commands {
		if err := ctl.Apply(cmd); err != nil {
			v.Notify(err.Error())
			return false
		}
	}
	if len(act.Commands) > 0 {
		v.Notify("")
	}
	return false
}

func (v *Viewer) resize(ctl Controller) {
	w, h := v.Size()
	if err := ctl.Apply(scene.Command{Action: "resize", X: float64(w), Y: float64(h)}); err != nil {
		v.Notify(err.Error())
	}
}
