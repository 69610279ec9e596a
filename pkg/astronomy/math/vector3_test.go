package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-12

func assertVecEqual(t *testing.T, want, got Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, Vector3{}, Vector3{}.Normalize())

	n := Vector3{X: 3, Y: 4}.Normalize()
	assert.InDelta(t, 1.0, n.Magnitude(), tol)
	assertVecEqual(t, Vector3{X: 0.6, Y: 0.8}, n)
}

func TestRotateZ(t *testing.T) {
	tests := []struct {
		name  string
		in    Vector3
		angle float64
	}{
		{"unit x", Vector3{X: 1}, 0.7},
		{"off plane", Vector3{X: 1.5, Y: -0.3, Z: 0.2}, 2.1},
		{"negative angle", Vector3{X: -4, Y: 9, Z: -1}, -1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVecEqual(t, tt.in, tt.in.RotateZ(0))

			rotated := tt.in.RotateZ(tt.angle)
			assert.Equal(t, tt.in.Z, rotated.Z)
			assert.InDelta(t, tt.in.Magnitude(), rotated.Magnitude(), 1e-9)
			assertVecEqual(t, tt.in, rotated.RotateZ(-tt.angle))
		})
	}
}

func TestRotateXQuarterTurn(t *testing.T) {
	got := Vector3{Y: 1}.RotateX(math.Pi / 2)
	assertVecEqual(t, Vector3{Z: 1}, got)
}

func TestLerp(t *testing.T) {
	a := Vector3{X: 1, Y: 2, Z: 3}
	b := Vector3{X: 3, Y: 2, Z: -1}

	assert.Equal(t, a, a.Lerp(b, 0))
	assertVecEqual(t, b, a.Lerp(b, 1))
	assertVecEqual(t, Vector3{X: 2, Y: 2, Z: 1}, a.Lerp(b, 0.5))
}

func TestRaySphere(t *testing.T) {
	center := Vector3{X: 5}

	hit, ok := RaySphere(Vector3{}, Vector3{X: 1}, center, 1)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, hit, tol)

	_, ok = RaySphere(Vector3{}, Vector3{X: -1}, center, 1)
	assert.False(t, ok, "sphere behind the ray")

	_, ok = RaySphere(Vector3{}, Vector3{Y: 1}, center, 1)
	assert.False(t, ok, "ray misses")

	_, ok = RaySphere(Vector3{}, Vector3{}, center, 1)
	assert.False(t, ok, "degenerate direction")
}

func TestWrapDegrees(t *testing.T) {
	assert.Equal(t, 0.0, WrapDegrees(360))
	assert.Equal(t, 10.0, WrapDegrees(370))
	assert.Equal(t, 350.0, WrapDegrees(-10))
	assert.Equal(t, 0.0, WrapDegrees(0))
}
