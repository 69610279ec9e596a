package shading

import (
	"math"
	"sync"
	"time"
)

// Budget defaults
const (
	DefaultBudget      = 50.0
	MinBudget          = 4.0
	MaxBudget          = 400.0
	DefaultTargetFrame = 33 * time.Millisecond
)

// Budget is the shading resolution budget: roughly how many sample
// blocks fit across a disc radius. Observe scales it by the ratio of
// target to measured frame time, limited to a factor of two per frame.
type Budget struct {
	mu     sync.Mutex
	value  float64
	target time.Duration
}

// NewBudget creates a budget with the given starting value and frame target
func NewBudget(initial float64, target time.Duration) *Budget {
	if initial <= 0 {
		initial = DefaultBudget
	}
	if target <= 0 {
		target = DefaultTargetFrame
	}
	return &Budget{value: math.Max(MinBudget, math.Min(MaxBudget, initial)), target: target}
}

// Value returns the current budget
func (b *Budget) Value() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Target returns the frame-time target
func (b *Budget) Target() time.Duration {
	return b.target
}

// Step returns the block size in pixels for a disc of radius px together
// with half its nominal span, used to center blocks on their sample
func (b *Budget) Step(radius float64) (size int, half int) {
	half = int(math.Floor(radius / b.Value()))
	size = 2 * half
	if size < 1 {
		size = 1
	}
	return size, half
}

// Observe feeds a measured frame time and returns the new budget
func (b *Budget) Observe(frame time.Duration) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame <= 0 {
		return b.value
	}
	ratio := float64(b.target) / float64(frame)
	ratio = math.Max(0.5, math.Min(2, ratio))
	// grow slower than we shrink
	if ratio > 1 {
		ratio = 1 + (ratio-1)/4
	}
	b.value = math.Max(MinBudget, math.Min(MaxBudget, b.value*ratio))
	return b.value
}
