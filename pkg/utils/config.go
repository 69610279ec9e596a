package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/orrery/pkg/body"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/scheduler"
	"github.com/oxygene76/orrery/pkg/server"
	"github.com/oxygene76/orrery/pkg/shading"
)

// Ephemeris sources
const (
	SourceHorizons = "horizons"
	SourceKepler   = "kepler"
	SourceCache    = "cache"
)

const dateLayout = "2006-01-02"

// Config represents the orrery configuration
type Config struct {
	Scene     SceneConfig      `yaml:"scene" mapstructure:"scene"`
	Ephemeris EphemerisConfig  `yaml:"ephemeris" mapstructure:"ephemeris"`
	Render    RenderConfig     `yaml:"render" mapstructure:"render"`
	Server    server.Config    `yaml:"server" mapstructure:"server"`
	Viewer    scheduler.Config `yaml:"viewer" mapstructure:"viewer"`
	Bodies    []BodyConfig     `yaml:"bodies" mapstructure:"bodies"`
	Groups    []GroupConfig    `yaml:"groups" mapstructure:"groups"`
}

// SceneConfig is the initial view
type SceneConfig struct {
	Start      string  `yaml:"start" mapstructure:"start"`
	ViewAngle  float64 `yaml:"view_angle" mapstructure:"view_angle"`
	Rotation   float64 `yaml:"rotation" mapstructure:"rotation"`
	Zoom       float64 `yaml:"zoom" mapstructure:"zoom"`
	BaseScale  float64 `yaml:"base_scale" mapstructure:"base_scale"`
	Width      int     `yaml:"width" mapstructure:"width"`
	Height     int     `yaml:"height" mapstructure:"height"`
	Center     string  `yaml:"center" mapstructure:"center"`
	Light      string  `yaml:"light" mapstructure:"light"`
	ShowOrbits bool    `yaml:"show_orbits" mapstructure:"show_orbits"`
}

// EphemerisConfig selects where sample series come from
type EphemerisConfig struct {
	Source            string        `yaml:"source" mapstructure:"source"`
	Start             string        `yaml:"start" mapstructure:"start"`
	Stop              string        `yaml:"stop" mapstructure:"stop"`
	CacheFile         string        `yaml:"cache_file" mapstructure:"cache_file"`
	Step              time.Duration `yaml:"step" mapstructure:"step"`
	HorizonsURL       string        `yaml:"horizons_url" mapstructure:"horizons_url"`
	HorizonsStepSize  string        `yaml:"horizons_step_size" mapstructure:"horizons_step_size"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RetryMax          int           `yaml:"retry_max" mapstructure:"retry_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RenderConfig tunes the compositor and shader
type RenderConfig struct {
	Samples       int               `yaml:"samples" mapstructure:"samples"`
	Budget        float64           `yaml:"budget" mapstructure:"budget"`
	TargetFrame   time.Duration     `yaml:"target_frame" mapstructure:"target_frame"`
	TrailCapacity int               `yaml:"trail_capacity" mapstructure:"trail_capacity"`
	OrbitEvery    int               `yaml:"orbit_every" mapstructure:"orbit_every"`
	Seed          int64             `yaml:"seed" mapstructure:"seed"`
	ForceLinear   bool              `yaml:"force_linear" mapstructure:"force_linear"`
	Grid          bool              `yaml:"grid" mapstructure:"grid"`
	Labels        bool              `yaml:"labels" mapstructure:"labels"`
	Textures      map[string]string `yaml:"textures,omitempty" mapstructure:"textures"`
}

// BodyConfig is the file form of body.Body. Colors are strings in any
// notation body.ParseColor accepts.
type BodyConfig struct {
	ID             string      `yaml:"id" mapstructure:"id"`
	Name           string      `yaml:"name" mapstructure:"name"`
	Color          string      `yaml:"color" mapstructure:"color"`
	Parent         string      `yaml:"parent,omitempty" mapstructure:"parent"`
	Linear         bool        `yaml:"linear,omitempty" mapstructure:"linear"`
	RotationPeriod float64     `yaml:"rotation_period,omitempty" mapstructure:"rotation_period"`
	AxialTilt      float64     `yaml:"axial_tilt,omitempty" mapstructure:"axial_tilt"`
	Ring           *RingConfig `yaml:"ring,omitempty" mapstructure:"ring"`
	ActiveStart    string      `yaml:"active_start,omitempty" mapstructure:"active_start"`
	ActiveEnd      string      `yaml:"active_end,omitempty" mapstructure:"active_end"`
	Texture        string      `yaml:"texture,omitempty" mapstructure:"texture"`
}

// RingConfig is the file form of body.Ring
type RingConfig struct {
	Inner float64 `yaml:"inner" mapstructure:"inner"`
	Outer float64 `yaml:"outer" mapstructure:"outer"`
	Color string  `yaml:"color" mapstructure:"color"`
}

// GroupConfig is the file form of body.Group
type GroupConfig struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Members []string `yaml:"members" mapstructure:"members"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	orreryDir := filepath.Join(homeDir, ".orrery")

	return &Config{
		Scene: SceneConfig{
			Start:     "2024-01-01",
			ViewAngle: 45,
			Zoom:      9000,
			BaseScale: 17,
			Width:     1200,
			Height:    800,
			Center:    body.EarthID,
		},
		Ephemeris: EphemerisConfig{
			Source:            SourceHorizons,
			Start:             "2024-01-01",
			Stop:              "2026-01-01",
			CacheFile:         filepath.Join(orreryDir, "cache", "ephemeris.json"),
			Step:              24 * time.Hour,
			HorizonsURL:       ephemeris.DefaultHorizonsURL,
			HorizonsStepSize:  "2000",
			Timeout:           60 * time.Second,
			RetryMax:          3,
			RequestsPerSecond: 1,
		},
		Render: RenderConfig{
			Samples:       shading.DefaultSamples,
			Budget:        shading.DefaultBudget,
			TargetFrame:   shading.DefaultTargetFrame,
			TrailCapacity: 1000,
			OrbitEvery:    2,
			Seed:          1,
			Grid:          true,
			Labels:        true,
		},
		Server: server.Config{
			Host:     "127.0.0.1",
			Port:     8000,
			CacheTTL: server.DefaultCacheTTL,
		},
		Viewer: scheduler.DefaultConfig(),
		Bodies: BodyConfigs(body.DefaultBodies()),
		Groups: GroupConfigs(body.DefaultGroups()),
	}
}

// LoadConfig loads configuration from path, or from the standard search
// paths when path is empty. A missing config in the search paths yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".orrery"))
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("ORRERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := DefaultConfig()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// lists from the file replace the defaults instead of merging
	config.Bodies, config.Groups = nil, nil
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if len(config.Bodies) == 0 {
		config.Bodies = BodyConfigs(body.DefaultBodies())
		if len(config.Groups) == 0 {
			config.Groups = GroupConfigs(body.DefaultGroups())
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig writes config as YAML to path, or to the default location
// when path is empty
func SaveConfig(config *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if dir := filepath.Dir(config.Ephemeris.CacheFile); config.Ephemeris.CacheFile != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the default config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".orrery", "config.yaml"), nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	switch config.Ephemeris.Source {
	case SourceHorizons, SourceKepler, SourceCache:
	default:
		return fmt.Errorf("invalid ephemeris source: %q", config.Ephemeris.Source)
	}

	if config.Ephemeris.Source == SourceCache && config.Ephemeris.CacheFile == "" {
		return fmt.Errorf("cache_file must be set for the cache source")
	}

	if _, _, err := config.Range(); err != nil {
		return err
	}

	if _, err := config.InitialState(); err != nil {
		return err
	}

	if config.Render.Samples < shading.MinSamples {
		return fmt.Errorf("render samples must be at least %d", shading.MinSamples)
	}

	if config.Render.TrailCapacity < 0 {
		return fmt.Errorf("trail capacity cannot be negative")
	}

	if config.Viewer.StepDays == 0 {
		return fmt.Errorf("viewer step_days cannot be zero")
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if _, err := config.Catalog(); err != nil {
		return err
	}

	return nil
}

// ParseDate accepts a bare date or an RFC 3339 timestamp, in UTC
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

// Range returns the ephemeris date range
func (c *Config) Range() (time.Time, time.Time, error) {
	start, err := ParseDate(c.Ephemeris.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ephemeris start: %w", err)
	}
	stop, err := ParseDate(c.Ephemeris.Stop)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ephemeris stop: %w", err)
	}
	if !stop.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("ephemeris stop %s must be after start %s", c.Ephemeris.Stop, c.Ephemeris.Start)
	}
	return start, stop, nil
}

// InitialState builds the starting scene state
func (c *Config) InitialState() (scene.State, error) {
	t, err := ParseDate(c.Scene.Start)
	if err != nil {
		return scene.State{}, fmt.Errorf("scene start: %w", err)
	}
	st := scene.DefaultState(c.Scene.Width, c.Scene.Height, t)
	st.ViewAngle = c.Scene.ViewAngle
	st.Rotation = c.Scene.Rotation
	if c.Scene.Zoom > 0 {
		st.Zoom = c.Scene.Zoom
	}
	if c.Scene.BaseScale > 0 {
		st.BaseScale = c.Scene.BaseScale
	}
	st.Center = c.Scene.Center
	st.Light = c.Scene.Light
	st.ShowOrbits = c.Scene.ShowOrbits
	return st.Normalize(), nil
}

// HorizonsConfig returns the Horizons client settings
func (c *Config) HorizonsConfig() ephemeris.HorizonsConfig {
	return ephemeris.HorizonsConfig{
		BaseURL:           c.Ephemeris.HorizonsURL,
		StepSize:          c.Ephemeris.HorizonsStepSize,
		Timeout:           c.Ephemeris.Timeout,
		RetryMax:          c.Ephemeris.RetryMax,
		RequestsPerSecond: c.Ephemeris.RequestsPerSecond,
	}
}

// RenderOptions returns engine options without textures, which are
// loaded from disk by the caller
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Samples = c.Render.Samples
	opts.Budget = shading.NewBudget(c.Render.Budget, c.Render.TargetFrame)
	if c.Render.TrailCapacity > 0 {
		opts.TrailCapacity = c.Render.TrailCapacity
	}
	if c.Render.OrbitEvery > 0 {
		opts.OrbitEvery = c.Render.OrbitEvery
	}
	opts.Seed = c.Render.Seed
	opts.ForceLinear = c.Render.ForceLinear
	opts.Grid = c.Render.Grid
	opts.Labels = c.Render.Labels
	return opts
}

// Catalog parses the configured bodies and groups
func (c *Config) Catalog() (*body.Catalog, error) {
	bodies := make([]body.Body, 0, len(c.Bodies))
	for _, bc := range c.Bodies {
		b, err := bc.Body()
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}

	groups := make([]body.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		groups = append(groups, body.Group{Name: g.Name, Members: g.Members})
	}

	catalog, err := body.NewCatalog(bodies, groups)
	if err != nil {
		return nil, fmt.Errorf("invalid body catalog: %w", err)
	}
	return catalog, nil
}

// Body parses the file form into a body.Body
func (bc BodyConfig) Body() (body.Body, error) {
	col, err := body.ParseColor(bc.Color)
	if err != nil {
		return body.Body{}, fmt.Errorf("body %s: %w", bc.ID, err)
	}

	b := body.Body{
		ID:             bc.ID,
		Name:           bc.Name,
		Color:          col,
		Parent:         bc.Parent,
		Linear:         bc.Linear,
		RotationPeriod: bc.RotationPeriod,
		AxialTilt:      bc.AxialTilt,
		Texture:        bc.Texture,
	}

	if bc.Ring != nil {
		rc, err := body.ParseColor(bc.Ring.Color)
		if err != nil {
			return body.Body{}, fmt.Errorf("body %s ring: %w", bc.ID, err)
		}
		b.Ring = &body.Ring{Inner: bc.Ring.Inner, Outer: bc.Ring.Outer, Color: rc}
	}

	if bc.ActiveStart != "" {
		if b.Active.Start, err = ParseDate(bc.ActiveStart); err != nil {
			return body.Body{}, fmt.Errorf("body %s active_start: %w", bc.ID, err)
		}
	}
	if bc.ActiveEnd != "" {
		if b.Active.End, err = ParseDate(bc.ActiveEnd); err != nil {
			return body.Body{}, fmt.Errorf("body %s active_end: %w", bc.ID, err)
		}
	}

	return b, nil
}

// BodyConfigs converts bodies to their file form
func BodyConfigs(bodies []body.Body) []BodyConfig {
	out := make([]BodyConfig, 0, len(bodies))
	for _, b := range bodies {
		bc := BodyConfig{
			ID:             b.ID,
			Name:           b.Name,
			Color:          b.Color.Hex(),
			Parent:         b.Parent,
			Linear:         b.Linear,
			RotationPeriod: b.RotationPeriod,
			AxialTilt:      b.AxialTilt,
			Texture:        b.Texture,
		}
		if b.Ring != nil {
			bc.Ring = &RingConfig{Inner: b.Ring.Inner, Outer: b.Ring.Outer, Color: b.Ring.Color.Hex()}
		}
		if !b.Active.Start.IsZero() {
			bc.ActiveStart = b.Active.Start.Format(time.RFC3339)
		}
		if !b.Active.End.IsZero() {
			bc.ActiveEnd = b.Active.End.Format(time.RFC3339)
		}
		out = append(out, bc)
	}
	return out
}

// GroupConfigs converts groups to their file form
func GroupConfigs(groups []body.Group) []GroupConfig {
	out := make([]GroupConfig, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupConfig{Name: g.Name, Members: append([]string(nil), g.Members...)})
	}
	return out
}
