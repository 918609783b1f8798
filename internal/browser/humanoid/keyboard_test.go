// FILE: ./internal/browser/humanoid/keyboard_test.go
package humanoid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/quickfinder/internal/mocks"
)

func TestType_OneKeyPerRuneWithDelay(t *testing.T) {
	sleeper := mocks.NewSleeper()
	h := NewTestHumanoid(sleeper, 11)
	page := mocks.NewPage()

	require.NoError(t, h.Type(context.Background(), page.Keyboard(), "añb1"))

	assert.Equal(t, []string{"a", "ñ", "b", "1"}, page.Keys())
	durations := sleeper.Durations()
	require.Len(t, durations, 4)
	for _, d := range durations {
		assert.GreaterOrEqual(t, d, h.cfg.KeyDelay.Min)
		assert.LessOrEqual(t, d, h.cfg.KeyDelay.Max)
	}
}

func TestType_StopsOnKeyError(t *testing.T) {
	h := NewTestHumanoid(mocks.NewSleeper(), 11)
	page := mocks.NewPage()
	page.TypeErr = errors.New("detached")

	err := h.Type(context.Background(), page.Keyboard(), "abc")
	assert.ErrorIs(t, err, page.TypeErr)
	assert.Empty(t, page.Keys())
}
