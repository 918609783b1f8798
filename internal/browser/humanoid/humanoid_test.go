// FILE: ./internal/browser/humanoid/humanoid_test.go
package humanoid

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/quickfinder/internal/mocks"
)

func TestDurationRange_Sample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := DurationRange{Min: 50 * time.Millisecond, Max: 150 * time.Millisecond}
	for i := 0; i < 500; i++ {
		d := r.Sample(rng)
		assert.GreaterOrEqual(t, d, r.Min)
		assert.LessOrEqual(t, d, r.Max)
	}

	fixed := DurationRange{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, fixed.Sample(rng))
	inverted := DurationRange{Min: time.Second, Max: time.Millisecond}
	assert.Equal(t, time.Second, inverted.Sample(rng))
}

func TestConfig_NormalizeClampsBadValues(t *testing.T) {
	c := Config{MinSteps: 0, MaxSteps: -3, Jitter: -1, TargetOffset: -2, ScrollMin: 50, ScrollMax: 10}.normalize()
	assert.Equal(t, 1, c.MinSteps)
	assert.Equal(t, 1, c.MaxSteps)
	assert.Zero(t, c.Jitter)
	assert.Zero(t, c.TargetOffset)
	assert.Equal(t, 50, c.ScrollMax)
}

func TestHumanoid_StartsAtViewportCenter(t *testing.T) {
	h := NewTestHumanoid(mocks.NewSleeper(), 7)
	_, known := h.Position()
	assert.False(t, known)

	page := mocks.NewPage()
	start := h.startPoint(page.Viewport())
	assert.Equal(t, 640.0, start.X)
	assert.Equal(t, 400.0, start.Y)
}
