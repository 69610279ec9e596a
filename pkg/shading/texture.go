package shading

import (
	"image"
	"math"

	"github.com/oxygene76/orrery/pkg/body"
)

// Texture is an equirectangular surface map. u runs along longitude and v
// from north to south pole, both in [0,1) and wrapping outside it.
type Texture interface {
	Size() (int, int)
	At(u, v float64) body.Color
}

// ImageTexture adapts any decoded image
type ImageTexture struct {
	img    image.Image
	bounds image.Rectangle
}

// NewImageTexture wraps img
func NewImageTexture(img image.Image) *ImageTexture {
	return &ImageTexture{img: img, bounds: img.Bounds()}
}

// Size returns the image dimensions in pixels
func (t *ImageTexture) Size() (int, int) {
	return t.bounds.Dx(), t.bounds.Dy()
}

// At samples the nearest texel with wrap-around addressing
func (t *ImageTexture) At(u, v float64) body.Color {
	w, h := t.Size()
	if w == 0 || h == 0 {
		return body.Color{}
	}
	x := wrapIndex(int(math.Floor(u*float64(w))), w)
	y := wrapIndex(int(math.Floor(v*float64(h))), h)

	r, g, b, _ := t.img.At(t.bounds.Min.X+x, t.bounds.Min.Y+y).RGBA()
	return body.RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
