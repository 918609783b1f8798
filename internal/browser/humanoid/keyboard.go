// internal/browser/humanoid/keyboard.go
package humanoid

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// KeyDelay draws one inter-key delay.
func (h *Humanoid) KeyDelay() time.Duration {
	return h.sample(h.cfg.KeyDelay)
}

// Type sends text one character at a time with a randomized cadence. The
// focused element receives the keys.
func (h *Humanoid) Type(ctx context.Context, kb schemas.Keyboard, text string) error {
	for i, r := range []rune(text) {
		if err := kb.Type(ctx, string(r)); err != nil {
			return fmt.Errorf("humanoid: key %d failed: %w", i+1, err)
		}
		if err := h.sleeper.Sleep(ctx, h.KeyDelay()); err != nil {
			return err
		}
	}
	return nil
}
