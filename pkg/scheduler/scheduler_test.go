package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/shading"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	states []scene.State
	adv    []bool
}

func (r *recorder) draw(_ context.Context, st scene.State, advanced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
	r.adv = append(r.adv, advanced)
}

func (r *recorder) snapshot() ([]scene.State, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scene.State(nil), r.states...), append([]bool(nil), r.adv...)
}

func TestRunAdvancesTimeWhileRunning(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.FrameInterval = 2 * time.Millisecond
	s := New(cfg, scene.DefaultState(800, 600, epoch), rec.draw, nil)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	states, adv := rec.snapshot()
	require.Greater(t, len(states), 3)
	assert.False(t, adv[0])
	assert.Equal(t, epoch, states[0].Time)

	step := time.Duration(DefaultStepDays * float64(24*time.Hour))
	for i := 1; i < len(states); i++ {
		assert.True(t, adv[i])
		assert.Equal(t, step, states[i].Time.Sub(states[i-1].Time))
	}
	assert.Equal(t, len(states), s.Stats().Frames)
}

func TestStoppedSchedulerOnlyRedraws(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.FrameInterval = 2 * time.Millisecond
	cfg.RedrawInterval = 5 * time.Millisecond
	s := New(cfg, scene.DefaultState(800, 600, epoch), rec.draw, nil)

	for i := 0; i < 10; i++ {
		s.RequestRedraw()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	states, adv := rec.snapshot()
	// the initial frame plus one coalesced redraw
	require.Len(t, states, 2)
	assert.Equal(t, []bool{false, false}, adv)
	assert.Equal(t, epoch, states[1].Time)
}

func TestRunLoopFlags(t *testing.T) {
	s := New(Config{}, scene.DefaultState(10, 10, epoch), nil, nil)
	assert.False(t, s.Running())
	assert.Equal(t, DefaultStepDays, s.StepDays())

	require.NoError(t, s.Apply(scene.Command{Action: "start"}))
	assert.True(t, s.Running())
	require.NoError(t, s.Apply(scene.Command{Action: "stop"}))
	assert.False(t, s.Running())
	require.NoError(t, s.Apply(scene.Command{Action: "toggle"}))
	assert.True(t, s.Running())
	assert.False(t, s.Toggle())

	require.NoError(t, s.Apply(scene.Command{Action: "time_step", Value: -1}))
	assert.Equal(t, -1.0, s.StepDays())
	assert.Error(t, s.Apply(scene.Command{Action: "time_step", Value: 0}))
}

func TestApplyResetsTrails(t *testing.T) {
	s := New(Config{}, scene.DefaultState(10, 10, epoch), nil, nil)
	resets := 0
	s.OnReset = func() { resets++ }

	require.NoError(t, s.Apply(scene.Command{Action: "zoom_in"}))
	assert.Equal(t, 0, resets)
	assert.InDelta(t, 9900, s.State().Zoom, 1e-9)

	require.NoError(t, s.Apply(scene.Command{Action: "center", Target: "10"}))
	assert.Equal(t, 1, resets)
	assert.Equal(t, "10", s.State().Center)

	require.NoError(t, s.Apply(scene.Command{Action: "clear"}))
	assert.Equal(t, 2, resets)

	err := s.Apply(scene.Command{Action: "warp"})
	assert.ErrorIs(t, err, scene.ErrUnknownAction)
}

func TestObserveFeedsBudget(t *testing.T) {
	budget := shading.NewBudget(50, 20*time.Millisecond)
	cfg := DefaultConfig()
	cfg.Window = 2
	s := New(cfg, scene.DefaultState(10, 10, epoch), nil, budget)

	var seen []time.Duration
	s.OnFrame = func(d time.Duration) { seen = append(seen, d) }

	s.Observe(40 * time.Millisecond)
	assert.Equal(t, 25.0, budget.Value())

	s.Observe(20 * time.Millisecond)
	s.Observe(60 * time.Millisecond)
	st := s.Stats()
	assert.Equal(t, 3, st.Frames)
	assert.Equal(t, 60*time.Millisecond, st.Last)
	assert.Equal(t, 40*time.Millisecond, st.Mean)
	assert.Len(t, seen, 3)
}

func TestSetStateNormalizes(t *testing.T) {
	s := New(Config{}, scene.DefaultState(10, 10, epoch), nil, nil)
	st := s.State()
	st.ViewAngle = 500
	s.SetState(st)
	assert.Equal(t, scene.MaxViewAngle, s.State().ViewAngle)
}
