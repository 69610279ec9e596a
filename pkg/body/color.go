package body

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB color with an optional alpha used for overlays
type Color struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a,omitempty"`
}

// RGB builds an opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// WithAlpha returns a copy of c with the given opacity
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Channels returns the color channels as floats in [0,255]
func (c Color) Channels() (float64, float64, float64) {
	return float64(c.R), float64(c.G), float64(c.B)
}

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses "#rrggbb", "rgb(r, g, b)" or "rgba(r, g, b, a)".
// It is meant to run once while loading configuration.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return RGB(r, g, b), nil
	}

	lower := strings.ToLower(s)
	var body string
	switch {
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")"):
		body = lower[5 : len(lower)-1]
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		body = lower[4 : len(lower)-1]
	default:
		return Color{}, fmt.Errorf("unsupported color notation %q", s)
	}

	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("invalid color %q: expected 3 or 4 components", s)
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("invalid color %q: channel %d out of range", s, i)
		}
		channels[i] = uint8(v)
	}

	c := RGB(channels[0], channels[1], channels[2])
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid color %q: alpha out of range", s)
		}
		c.A = a
	}
	return c, nil
}

// MustParseColor is ParseColor for compiled-in catalog values
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
