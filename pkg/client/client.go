// Package client assembles the visualization from configuration: the
// body catalog, the ephemeris store and its source, the render engine,
// the frame scheduler and metrics. App is the facade the CLI, the HTTP
// server and the terminal viewer all drive.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/analysis"
	"github.com/oxygene76/orrery/pkg/astronomy/orbital"
	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/metrics"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/scheduler"
	"github.com/oxygene76/orrery/pkg/shading"
	"github.com/oxygene76/orrery/pkg/utils"
)

// App is one running visualization
type App struct {
	config  *utils.Config
	catalog *body.Catalog
	store   *ephemeris.Store
	engine  *render.Engine
	sched   *scheduler.Scheduler
	metrics *metrics.Collector
	verbose bool

	mu          sync.Mutex
	last        render.Frame
	subscribers []func(render.Frame)
}

// New creates an app from config. Ephemeris data is not loaded yet, so
// frames report Loading until LoadEphemeris succeeds.
func New(config *utils.Config, verbose bool) (*App, error) {
	catalog, err := config.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	initial, err := config.InitialState()
	if err != nil {
		return nil, fmt.Errorf("failed to build initial state: %w", err)
	}

	a := &App{
		config:  config,
		catalog: catalog,
		store:   ephemeris.NewStore(),
		metrics: metrics.NewCollector(),
		verbose: verbose,
	}

	opts := config.RenderOptions()
	opts.Textures = a.loadTextures()
	a.engine = render.NewEngine(catalog, a.store, opts)
	a.engine.OnShade = a.metrics.RecordShade

	a.sched = scheduler.New(config.Viewer, initial, a.draw, opts.Budget)
	a.sched.OnReset = a.engine.ClearTrails
	a.sched.OnFrame = a.metrics.RecordFrame

	return a, nil
}

// Catalog returns the body catalog
func (a *App) Catalog() *body.Catalog {
	return a.catalog
}

// Store returns the ephemeris store
func (a *App) Store() *ephemeris.Store {
	return a.store
}

// Engine returns the render engine
func (a *App) Engine() *render.Engine {
	return a.engine
}

// Scheduler returns the frame scheduler
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.sched
}

// Metrics returns the app's collectors
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// Subscribe registers fn to receive every drawn frame
func (a *App) Subscribe(fn func(render.Frame)) {
	a.mu.Lock()
	a.subscribers = append(a.subscribers, fn)
	a.mu.Unlock()
}

// Run drives the frame loop until ctx is canceled
func (a *App) Run(ctx context.Context) error {
	err := a.sched.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) draw(ctx context.Context, state scene.State, advanced bool) {
	f := a.engine.Frame(state)
	a.metrics.SetBudget(a.engine.Budget().Value())

	a.mu.Lock()
	a.last = f
	subs := make([]func(render.Frame), len(a.subscribers))
	copy(subs, a.subscribers)
	a.mu.Unlock()

	for _, fn := range subs {
		fn(f)
	}
}

// Source builds the configured ephemeris source
func (a *App) Source() (ephemeris.Source, error) {
	cfg := a.config.Ephemeris

	var src ephemeris.Source
	switch cfg.Source {
	case utils.SourceHorizons:
		src = ephemeris.NewHorizonsClient(a.config.HorizonsConfig())
	case utils.SourceKepler:
		src = orbital.NewKeplerSource(nil, cfg.Step)
	default:
		return nil, fmt.Errorf("source %q cannot fetch", cfg.Source)
	}
	return metrics.InstrumentSource(src, a.metrics), nil
}

// LoadEphemeris fills the store. A cache file covering every body is used
// as is; otherwise the configured source is queried and the cache is
// rewritten.
func (a *App) LoadEphemeris(ctx context.Context) error {
	ids := a.catalog.IDs()
	cfg := a.config.Ephemeris

	if cfg.CacheFile != "" {
		cached, err := ephemeris.LoadCache(cfg.CacheFile)
		switch {
		case err == nil && (cfg.Source == utils.SourceCache || cached.Complete(ids)):
			log.Printf("Using cached ephemeris from %s", cfg.CacheFile)
			a.adopt(cached)
			return nil
		case err != nil && cfg.Source == utils.SourceCache:
			return fmt.Errorf("failed to load ephemeris cache: %w", err)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			log.Printf("Warning: ignoring ephemeris cache: %v", err)
		}
	}

	src, err := a.Source()
	if err != nil {
		return fmt.Errorf("failed to open ephemeris source: %w", err)
	}

	start, stop, err := a.config.Range()
	if err != nil {
		return err
	}

	log.Printf("Loading %d bodies from %s (%s to %s)", len(ids), src.Name(), start.Format("2006-01-02"), stop.Format("2006-01-02"))
	opts := ephemeris.LoadOptions{Verbose: a.verbose}
	if err := ephemeris.Load(ctx, src, a.store, ids, start, stop, opts); err != nil {
		return err
	}

	if cfg.CacheFile != "" {
		if err := ephemeris.SaveCache(cfg.CacheFile, a.store); err != nil {
			log.Printf("Warning: failed to write ephemeris cache: %v", err)
		} else if a.verbose {
			log.Printf("Ephemeris cached to %s", cfg.CacheFile)
		}
	}

	a.fitScale()
	a.sched.RequestRedraw()
	return nil
}

func (a *App) adopt(cached *ephemeris.Store) {
	for _, id := range cached.IDs() {
		series, _ := cached.Get(id)
		if err := a.store.Set(id, series); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	a.fitScale()
	a.sched.RequestRedraw()
}

// fitScale frames the whole store when no base scale is configured
func (a *App) fitScale() {
	if a.config.Scene.BaseScale > 0 {
		return
	}
	st := a.sched.State()
	scale, ok := scene.FitScale(a.store, st.Width, st.Height)
	if !ok {
		return
	}
	st.BaseScale = scale
	st.Zoom = 1
	a.sched.SetState(st)
}

// loadTextures decodes the configured texture images. Bodies whose image
// cannot be read fall back to flat color.
func (a *App) loadTextures() map[string]shading.Texture {
	paths := make(map[string]string)
	for _, b := range a.catalog.Bodies() {
		if b.Texture != "" {
			paths[b.ID] = b.Texture
		}
	}
	for id, p := range a.config.Render.Textures {
		paths[id] = p
	}

	textures := make(map[string]shading.Texture, len(paths))
	for id, p := range paths {
		img, err := loadImage(p)
		if err != nil {
			log.Printf("Warning: texture for body %s unavailable: %v", id, err)
			continue
		}
		textures[id] = shading.NewImageTexture(img)
	}
	return textures
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	return img, nil
}

// Frame returns the last drawn frame, or computes one when the loop has
// not drawn yet
func (a *App) Frame() render.Frame {
	a.mu.Lock()
	f := a.last
	a.mu.Unlock()
	if f.Seq > 0 {
		return f
	}
	return a.engine.Frame(a.sched.State())
}

// Bodies describes every catalog body with its loaded ephemeris
func (a *App) Bodies() []types.BodyInfo {
	groupOf := make(map[string]string)
	for _, g := range a.catalog.Groups() {
		for _, m := range g.Members {
			groupOf[m] = g.Name
		}
	}

	bodies := a.catalog.Bodies()
	out := make([]types.BodyInfo, 0, len(bodies))
	for _, b := range bodies {
		info := types.BodyInfo{
			ID:      b.ID,
			Name:    b.Name,
			Color:   b.Color.Hex(),
			Parent:  b.Parent,
			Group:   groupOf[b.ID],
			Mode:    "curve",
			HasRing: b.Ring != nil,
		}
		if b.Linear || a.config.Render.ForceLinear {
			info.Mode = "linear"
		}
		if s, ok := a.store.Get(b.ID); ok {
			info.RadiusAU = s.MeanRadiusAU
			info.Samples = s.Len()
			info.Start, info.End, _ = s.Span()
		}
		out = append(out, info)
	}
	return out
}

// Apply executes a control command and reports the resulting run state
func (a *App) Apply(cmd scene.Command) (types.ControlResponse, error) {
	if err := a.sched.Apply(cmd); err != nil {
		return types.ControlResponse{}, err
	}
	return types.ControlResponse{
		Status:   "ok",
		Action:   cmd.Action,
		Running:  a.sched.Running(),
		Time:     a.sched.State().Time,
		StepDays: a.sched.StepDays(),
	}, nil
}

// Status summarizes the running visualization
func (a *App) Status() types.StatusResponse {
	stats := a.sched.Stats()
	return types.StatusResponse{
		Running:   a.sched.Running(),
		Loading:   a.engine.Loading(),
		Time:      a.sched.State().Time,
		StepDays:  a.sched.StepDays(),
		Frames:    stats.Frames,
		MeanFrame: stats.Mean,
		Budget:    stats.Budget,
		Bodies:    len(a.catalog.Bodies()),
	}
}

// StatusLine is the one-line summary shown by the terminal viewer
func (a *App) StatusLine() string {
	st := a.sched.State()
	stats := a.sched.Stats()

	run := "paused"
	if a.sched.Running() {
		run = "running"
	}
	center := "Sun"
	if b, ok := a.catalog.Get(st.Center); ok {
		center = b.Name
	}

	return fmt.Sprintf(" %s  %s  step %gd  zoom %.0f  center %s  budget %.0f  %s",
		st.Time.UTC().Format("2006-01-02 15:04"), run, a.sched.StepDays(), st.Zoom, center,
		stats.Budget, stats.Mean.Round(time.Millisecond))
}

// Record renders frames consecutive steps from the current state into a
// JSONL file
func (a *App) Record(path string, frames int) error {
	w, err := render.NewJSONLFrameWriter(path)
	if err != nil {
		return err
	}
	if err := render.Record(a.engine, a.sched.State(), frames, a.sched.StepDays(), w); err != nil {
		w.Close()
		return fmt.Errorf("failed to record frames: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close frame file: %w", err)
	}
	log.Printf("Recorded %d frames to %s", w.Frames(), path)
	return nil
}

// Eclipses scans the loaded ephemeris for eclipses of kind
func (a *App) Eclipses(kind string, from, to time.Time, steps int, tolDeg float64) (*types.AnalysisResult, error) {
	return analysis.NewManager(a.store).AnalyzeEclipses(kind, from, to, steps, tolDeg)
}

// SaveResult writes an analysis result as indented JSON
func SaveResult(result *types.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
