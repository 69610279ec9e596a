package shading

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
	"github.com/oxygene76/orrery/pkg/body"
)

func TestFullShadowAtSubsolarPoint(t *testing.T) {
	r := NewRenderer(8, nil, 1)

	target := astromath.Vector3{X: 1}
	targetRadius := 0.001
	blocker := Occluder{ID: "moon", Position: astromath.Vector3{X: 0.5}, Radius: 0.01}

	// point on the target facing the sun
	subsolar := target.Sub(astromath.Vector3{X: targetRadius})
	assert.Equal(t, 0, r.SunVisibility(subsolar, []Occluder{blocker}))
	assert.Equal(t, 8, r.SunVisibility(subsolar, nil))
}

func TestOccluderBeyondTargetCastsNoShadow(t *testing.T) {
	r := NewRenderer(4, nil, 1)
	behind := Occluder{Position: astromath.Vector3{X: 2}, Radius: 0.1}
	assert.Equal(t, 4, r.SunVisibility(astromath.Vector3{X: 1}, []Occluder{behind}))
}

func shadeInput() Input {
	return Input{
		CenterX:    100,
		CenterY:    100,
		Radius:     20,
		Color:      body.RGB(255, 255, 255),
		Position:   astromath.Vector3{X: 1},
		MeanRadius: 0.001,
		ViewAngle:  45,
	}
}

func blockAt(t *testing.T, d Disc, x, y float64) Block {
	t.Helper()
	for _, b := range d.Blocks {
		if b.X == x && b.Y == y {
			return b
		}
	}
	require.Failf(t, "no block", "at %v,%v", x, y)
	return Block{}
}

func TestShadeTerminator(t *testing.T) {
	r := NewRenderer(8, nil, 7)
	d := r.Shade(shadeInput())

	require.False(t, d.Flat)
	require.NotEmpty(t, d.Blocks)
	assert.Zero(t, d.Shadowed)

	// The sun lies toward -X, so the left limb is lit and the right dark
	lit := blockAt(t, d, 85, 100)
	dark := blockAt(t, d, 115, 100)
	assert.Greater(t, lit.Color.R, dark.Color.R)
	assert.Equal(t, uint8(26), dark.Color.R)

	for _, b := range d.Blocks {
		dx, dy := b.X-100, b.Y-100
		assert.Less(t, dx*dx+dy*dy, 400.0)
	}
}

func TestShadeIsDeterministicPerSeed(t *testing.T) {
	in := shadeInput()
	in.Occluders = []Occluder{{Position: astromath.Vector3{X: 0.99}, Radius: 0.0005}}

	r := NewRenderer(4, nil, 3)
	first := r.Shade(in)
	r.Reseed(3)
	second := r.Shade(in)
	assert.Equal(t, first, second)
	assert.Positive(t, first.Shadowed)
}

func TestShadeFlatForTinyDisc(t *testing.T) {
	r := NewRenderer(8, nil, 1)
	in := shadeInput()
	in.Radius = 1
	d := r.Shade(in)
	assert.True(t, d.Flat)
	assert.Empty(t, d.Blocks)
	assert.Equal(t, in.Color, d.Color)
}

func TestShadeUsesBudgetBlocks(t *testing.T) {
	r := NewRenderer(2, NewBudget(10, time.Second), 1)
	in := shadeInput()
	in.Radius = 40
	d := r.Shade(in)

	require.NotEmpty(t, d.Blocks)
	assert.Equal(t, 8.0, d.Blocks[0].Size)
}

func TestExpose(t *testing.T) {
	assert.Equal(t, body.RGB(10, 20, 0), Expose(body.RGB(100, 200, 0), 0))
	assert.Equal(t, body.RGB(255, 255, 0), Expose(body.RGB(200, 130, 0), 2))
	assert.Equal(t, body.RGB(55, 110, 0), Expose(body.RGB(50, 100, 0), 1))
}

func TestBoxBlurKeepsUniformField(t *testing.T) {
	src := []float64{1, 1, 1, 1}
	inside := []bool{true, true, true, false}
	out := boxBlur(src, inside, 2)
	assert.Equal(t, []float64{1, 1, 1, 0}, out)

	spike := []float64{0, 0, 0, 9}
	out = boxBlur(spike, []bool{true, true, true, true}, 2)
	assert.Equal(t, []float64{2.25, 2.25, 2.25, 2.25}, out)
}

func TestImageTextureWraps(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 100), A: 255})
		}
	}
	tex := NewImageTexture(img)

	w, h := tex.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)

	assert.Equal(t, body.RGB(60, 0, 0), tex.At(0.25, 0))
	assert.Equal(t, tex.At(0.25, 0.1), tex.At(1.25, 0.1))
	assert.Equal(t, tex.At(0.75, 0.6), tex.At(-0.25, 0.6))
	assert.Equal(t, body.RGB(0, 100, 0), tex.At(0, 0.75))
}

func TestShadeSamplesTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	in := shadeInput()
	in.Color = body.RGB(0, 0, 255)
	in.Texture = NewImageTexture(img)

	d := NewRenderer(2, nil, 1).Shade(in)
	for _, b := range d.Blocks {
		assert.Zero(t, b.Color.B)
		assert.Positive(t, b.Color.R)
	}
}

func TestSurfaceUVRange(t *testing.T) {
	u, v := surfaceUV(astromath.Vector3{Z: 1})
	assert.InDelta(t, 0, v, 1e-12)
	assert.InDelta(t, 0.5, u, 1e-12)

	u, v = surfaceUV(astromath.Vector3{X: -1})
	assert.InDelta(t, 0.5, v, 1e-12)
	assert.InDelta(t, 1.0, u, 1e-12)
}

func TestBudget(t *testing.T) {
	b := NewBudget(50, 20*time.Millisecond)

	size, half := b.Step(100)
	assert.Equal(t, 4, size)
	assert.Equal(t, 2, half)

	size, half = b.Step(10)
	assert.Equal(t, 1, size)
	assert.Equal(t, 0, half)

	assert.Equal(t, 25.0, b.Observe(200*time.Millisecond))
	assert.Equal(t, 25.0, b.Observe(20*time.Millisecond))
	assert.InDelta(t, 31.25, b.Observe(5*time.Millisecond), 1e-9)

	for i := 0; i < 20; i++ {
		b.Observe(time.Second)
	}
	assert.Equal(t, MinBudget, b.Value())

	for i := 0; i < 100; i++ {
		b.Observe(time.Microsecond)
	}
	assert.Equal(t, MaxBudget, b.Value())
}

func TestRingArcs(t *testing.T) {
	in := RingInput{
		CenterX:    50,
		CenterY:    50,
		Radius:     10,
		Ring:       body.Ring{Inner: 1.24, Outer: 2.27, Color: body.RGB(210, 190, 150)},
		Position:   astromath.Vector3{X: 9.5},
		MeanRadius: 0.0004,
		ViewAngle:  60,
	}
	segs := RingArcs(in)
	require.Len(t, segs, ringBands*ringSegments)

	shadowed := 0
	for _, s := range segs {
		if s.Shadowed {
			shadowed++
			assert.Equal(t, ringShadowAlpha, s.Color.A)
		} else {
			assert.Equal(t, ringAlpha, s.Color.A)
		}
	}
	assert.Positive(t, shadowed)
	assert.Less(t, shadowed, len(segs)/2)

	in.Radius = 2
	assert.Nil(t, RingArcs(in))
}
