// Package shading paints lit, shadowed discs for the bodies of a frame.
package shading

import (
	"math"
	"math/rand"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
)

// Shading constants
const (
	// SunRadiusAU is the solar radius used to jitter soft-shadow samples
	SunRadiusAU = 0.00465
	// DefaultSamples is the number of sun samples per pixel
	DefaultSamples = 8
	// MinSamples is the fewest sun samples that still give a penumbra
	MinSamples = 2
	// DefaultMinShadedRadius is the disc radius below which a body is
	// drawn as a flat dot
	DefaultMinShadedRadius = 1.5
	// Ambient is the unlit fraction of the base color
	Ambient = 0.1
)

// Occluder is another body that can cast a shadow
type Occluder struct {
	ID       string
	Position astromath.Vector3
	Radius   float64
}

// Input describes one disc to shade
type Input struct {
	// Screen center and radius in pixels
	CenterX, CenterY float64
	Radius           float64

	Color      body.Color
	Texture    Texture
	Position   astromath.Vector3 // sun-centered, AU
	MeanRadius float64           // AU
	Occluders  []Occluder

	ViewAngle float64 // degrees
	Spin      float64 // surface rotation, degrees
	AxialTilt float64 // degrees
}

// Block is one filled square of a shaded disc
type Block struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Size  float64    `json:"size"`
	Color body.Color `json:"color"`
}

// Disc is the fill instruction for one body
type Disc struct {
	CenterX float64    `json:"cx"`
	CenterY float64    `json:"cy"`
	Radius  float64    `json:"r"`
	Flat    bool       `json:"flat"`
	Color   body.Color `json:"color"`
	Blocks  []Block    `json:"blocks,omitempty"`
	// Shadowed counts grid cells that lost at least one sun sample to an occluder
	Shadowed int `json:"shadowed,omitempty"`
}

// Renderer shades discs. It is not safe for concurrent use: frames are
// computed on one goroutine and reseeded per frame.
type Renderer struct {
	Samples   int
	MinRadius float64
	Budget    *Budget
	rng       *rand.Rand
}

// NewRenderer creates a renderer with a fixed seed
func NewRenderer(samples int, budget *Budget, seed int64) *Renderer {
	if samples < MinSamples {
		samples = DefaultSamples
	}
	if budget == nil {
		budget = NewBudget(DefaultBudget, DefaultTargetFrame)
	}
	return &Renderer{
		Samples:   samples,
		MinRadius: DefaultMinShadedRadius,
		Budget:    budget,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Reseed resets the jitter sequence so a frame shades identically
// however often it is recomputed
func (r *Renderer) Reseed(seed int64) {
	r.rng.Seed(seed)
}

// Shade computes the fill for one disc
func (r *Renderer) Shade(in Input) Disc {
	disc := Disc{CenterX: in.CenterX, CenterY: in.CenterY, Radius: in.Radius, Color: in.Color}
	if in.Radius < r.MinRadius {
		disc.Flat = true
		return disc
	}

	size, half := r.Budget.Step(in.Radius)
	step := float64(size)
	wd := int(math.Ceil(in.Radius / step))
	n := 2 * wd

	toSun := in.Position.Neg().Normalize()
	untilt := -astromath.Radians(in.ViewAngle)
	spin := -astromath.Radians(in.Spin)
	tilt := -astromath.Radians(in.AxialTilt)
	r2 := in.Radius * in.Radius

	bright := make([]float64, n*n)
	inside := make([]bool, n*n)
	base := make([]body.Color, n*n)

	for i := -wd; i < wd; i++ {
		for j := -wd; j < wd; j++ {
			px := float64(i) * step
			py := float64(j) * step
			if px*px+py*py >= r2 {
				continue
			}
			cell := (i+wd)*n + (j + wd)
			inside[cell] = true

			pz := math.Sqrt(r2 - px*px - py*py)
			normal := astromath.Vector3{X: px / in.Radius, Y: py / in.Radius, Z: pz / in.Radius}.Normalize()
			world := normal.RotateX(untilt)

			if in.Texture != nil {
				base[cell] = in.Texture.At(surfaceUV(world.RotateX(tilt).RotateZ(spin)))
			} else {
				base[cell] = in.Color
			}

			point := in.Position.Add(world.Scale(in.MeanRadius))
			if world.Dot(toSun) < -0.2 {
				// far side of the terminator, no sample can reach it
				continue
			}
			sum, lit := r.illuminate(point, world, in.Occluders)
			bright[cell] = sum / float64(r.Samples)
			if lit < r.Samples {
				disc.Shadowed++
			}
		}
	}

	blurred := boxBlur(bright, inside, n)

	disc.Blocks = make([]Block, 0, n*n)
	for i := -wd; i < wd; i++ {
		for j := -wd; j < wd; j++ {
			cell := (i+wd)*n + (j + wd)
			if !inside[cell] {
				continue
			}
			disc.Blocks = append(disc.Blocks, Block{
				X:     in.CenterX + float64(i)*step - float64(half),
				Y:     in.CenterY + float64(j)*step - float64(half),
				Size:  step,
				Color: Expose(base[cell], blurred[cell]),
			})
		}
	}
	return disc
}

// illuminate returns the summed diffuse light at a surface point and the
// number of unoccluded sun samples
func (r *Renderer) illuminate(point, normal astromath.Vector3, occluders []Occluder) (float64, int) {
	sum := 0.0
	lit := 0
	for s := 0; s < r.Samples; s++ {
		dir, dist := r.sunRay(point)
		if occluded(point, dir, dist, occluders) {
			continue
		}
		lit++
		sum += math.Max(0, normal.Dot(dir))
	}
	return sum, lit
}

// SunVisibility returns how many of the renderer's sun samples reach
// point without hitting an occluder
func (r *Renderer) SunVisibility(point astromath.Vector3, occluders []Occluder) int {
	lit := 0
	for s := 0; s < r.Samples; s++ {
		dir, dist := r.sunRay(point)
		if !occluded(point, dir, dist, occluders) {
			lit++
		}
	}
	return lit
}

// sunRay picks a jittered point on the solar sphere and returns the unit
// direction and distance to it from point
func (r *Renderer) sunRay(point astromath.Vector3) (astromath.Vector3, float64) {
	var jitter astromath.Vector3
	for try := 0; try < 8; try++ {
		c := astromath.Vector3{X: r.rng.Float64()*2 - 1, Y: r.rng.Float64()*2 - 1, Z: r.rng.Float64()*2 - 1}
		if c.Dot(c) <= 1 {
			jitter = c.Scale(SunRadiusAU)
			break
		}
	}
	d := jitter.Sub(point)
	return d.Normalize(), d.Magnitude()
}

func occluded(point, dir astromath.Vector3, dist float64, occluders []Occluder) bool {
	for _, o := range occluders {
		if t, hit := astromath.RaySphere(point, dir, o.Position, o.Radius); hit && t < dist {
			return true
		}
	}
	return false
}

// surfaceUV converts a body-fixed unit normal to equirectangular coordinates
func surfaceUV(n astromath.Vector3) (float64, float64) {
	lon := math.Atan2(n.Y, n.X)
	lat := math.Asin(math.Max(-1, math.Min(1, n.Z)))
	return (lon + math.Pi) / (2 * math.Pi), (math.Pi/2 - lat) / math.Pi
}

// boxBlur averages each inside cell with its inside 3x3 neighbours
func boxBlur(src []float64, inside []bool, n int) []float64 {
	out := make([]float64, len(src))
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			c := x*n + y
			if !inside[c] {
				continue
			}
			sum, count := 0.0, 0
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= n || ny >= n {
						continue
					}
					if k := nx*n + ny; inside[k] {
						sum += src[k]
						count++
					}
				}
			}
			out[c] = sum / float64(count)
		}
	}
	return out
}

// Expose maps a base color and brightness to the output color:
// channel*0.1 + channel*brightness, clamped to [0,255]
func Expose(c body.Color, brightness float64) body.Color {
	ch := func(v uint8) uint8 {
		f := float64(v)
		return uint8(math.Round(math.Max(0, math.Min(255, f*Ambient+f*brightness))))
	}
	return body.Color{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: 1}
}
