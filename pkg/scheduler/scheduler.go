// Package scheduler drives the frame loop: it advances simulated time
// while running, throttles interaction redraws and feeds measured frame
// times back into the shading budget.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/shading"
)

// Scheduler defaults
const (
	DefaultStepDays       = 0.01
	DefaultFrameInterval  = 16 * time.Millisecond
	DefaultRedrawInterval = 75 * time.Millisecond
	DefaultWindow         = 30
)

// DrawFunc renders one frame for state. advanced is true when simulated
// time moved since the previous frame.
type DrawFunc func(ctx context.Context, state scene.State, advanced bool)

// Config holds the loop parameters
type Config struct {
	StepDays       float64       `yaml:"step_days" mapstructure:"step_days"`
	FrameInterval  time.Duration `yaml:"frame_interval" mapstructure:"frame_interval"`
	RedrawInterval time.Duration `yaml:"redraw_interval" mapstructure:"redraw_interval"`
	Window         int           `yaml:"window" mapstructure:"window"`
}

// DefaultConfig returns the loop defaults
func DefaultConfig() Config {
	return Config{
		StepDays:       DefaultStepDays,
		FrameInterval:  DefaultFrameInterval,
		RedrawInterval: DefaultRedrawInterval,
		Window:         DefaultWindow,
	}
}

// Stats summarizes recent frame times
type Stats struct {
	Frames int           `json:"frames"`
	Last   time.Duration `json:"last"`
	Mean   time.Duration `json:"mean"`
	Budget float64       `json:"budget"`
}

// Scheduler owns the scene state shared between the frame loop and
// input handlers. Every mutation goes through its mutex.
type Scheduler struct {
	mu       sync.Mutex
	state    scene.State
	running  bool
	stepDays float64
	frames   int
	last     time.Duration
	window   []float64
	size     int

	interval time.Duration
	draw     DrawFunc
	budget   *shading.Budget
	limiter  *rate.Limiter
	redraw   chan struct{}

	// OnReset is called when trails must be discarded
	OnReset func()
	// OnFrame observes each measured frame time
	OnFrame func(time.Duration)
}

// New creates a stopped scheduler
func New(cfg Config, initial scene.State, draw DrawFunc, budget *shading.Budget) *Scheduler {
	if cfg.StepDays == 0 {
		cfg.StepDays = DefaultStepDays
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.RedrawInterval <= 0 {
		cfg.RedrawInterval = DefaultRedrawInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if budget == nil {
		budget = shading.NewBudget(shading.DefaultBudget, shading.DefaultTargetFrame)
	}

	return &Scheduler{
		state:    initial.Normalize(),
		stepDays: cfg.StepDays,
		size:     cfg.Window,
		interval: cfg.FrameInterval,
		draw:     draw,
		budget:   budget,
		limiter:  rate.NewLimiter(rate.Every(cfg.RedrawInterval), 1),
		redraw:   make(chan struct{}, 1),
	}
}

// Run drives frames until ctx is canceled. While running each tick
// advances time by the step and draws; while stopped only redraw
// requests produce frames.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.frame(ctx, false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if !s.advance() {
				continue
			}
			s.frame(ctx, true)

		case <-s.redraw:
			if s.Running() {
				// the next tick draws the latest state anyway
				continue
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			s.frame(ctx, false)
		}
	}
}

// advance steps time when running and reports whether it did
func (s *Scheduler) advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.state = s.state.Step(s.stepDays).State
	return true
}

func (s *Scheduler) frame(ctx context.Context, advanced bool) {
	if s.draw == nil {
		return
	}
	state := s.State()
	start := time.Now()
	s.draw(ctx, state, advanced)
	s.Observe(time.Since(start))
}

// Observe records one frame time and updates the shading budget from
// the sliding-window mean
func (s *Scheduler) Observe(d time.Duration) {
	s.mu.Lock()
	s.frames++
	s.last = d
	s.window = append(s.window, float64(d))
	if len(s.window) > s.size {
		s.window = s.window[len(s.window)-s.size:]
	}
	mean := stat.Mean(s.window, nil)
	hook := s.OnFrame
	s.mu.Unlock()

	s.budget.Observe(time.Duration(mean))
	if hook != nil {
		hook(d)
	}
}

// Stats returns the frame-time summary
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Frames: s.frames, Last: s.last, Budget: s.budget.Value()}
	if len(s.window) > 0 {
		st.Mean = time.Duration(stat.Mean(s.window, nil))
	}
	return st
}

// State returns a copy of the current scene state
func (s *Scheduler) State() scene.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start sets the run flag
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
}

// Stop clears the run flag. A frame already in progress completes; only
// the next step is skipped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Toggle flips the run flag and returns the new value
func (s *Scheduler) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = !s.running
	return s.running
}

// Running reports the run flag
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// StepDays returns the per-frame time step
func (s *Scheduler) StepDays() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepDays
}

// SetStepDays changes the per-frame time step. Negative steps run time
// backwards; zero is rejected.
func (s *Scheduler) SetStepDays(days float64) error {
	if days == 0 {
		return fmt.Errorf("time step must be non-zero")
	}
	s.mu.Lock()
	s.stepDays = days
	s.mu.Unlock()
	return nil
}

// RequestRedraw asks for a frame without advancing time. Requests are
// coalesced and rate limited; the last one is always drawn.
func (s *Scheduler) RequestRedraw() {
	select {
	case s.redraw <- struct{}{}:
	default:
	}
}

// ClearTrails discards accumulated trails and redraws
func (s *Scheduler) ClearTrails() {
	if s.OnReset != nil {
		s.OnReset()
	}
	s.RequestRedraw()
}

// SetState replaces the scene state wholesale
func (s *Scheduler) SetState(state scene.State) {
	s.mu.Lock()
	s.state = state.Normalize()
	s.mu.Unlock()
	s.RequestRedraw()
}

// Apply executes a control command. Run-loop actions are handled here,
// everything else is delegated to the scene state.
func (s *Scheduler) Apply(cmd scene.Command) error {
	switch cmd.Action {
	case "start":
		s.Start()
		return nil
	case "stop":
		s.Stop()
		s.RequestRedraw()
		return nil
	case "toggle":
		s.Toggle()
		s.RequestRedraw()
		return nil
	case "clear":
		s.ClearTrails()
		return nil
	case "time_step":
		return s.SetStepDays(cmd.Value)
	}

	s.mu.Lock()
	change, err := s.state.Apply(cmd)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = change.State
	s.mu.Unlock()

	if change.ResetTrails && s.OnReset != nil {
		s.OnReset()
	}
	s.RequestRedraw()
	return nil
}
