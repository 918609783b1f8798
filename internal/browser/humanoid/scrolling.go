// internal/browser/humanoid/scrolling.go
package humanoid

import (
	"context"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// ScrollDelta draws a downward wheel distance in [ScrollMin, ScrollMax].
func (h *Humanoid) ScrollDelta() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.cfg.ScrollMin + h.rng.Intn(h.cfg.ScrollMax-h.cfg.ScrollMin+1))
}

// Scroll nudges the page with the wheel at the current pointer position and
// then idles briefly, the way a reader settles between lookups.
func (h *Humanoid) Scroll(ctx context.Context, page schemas.Page) error {
	at := h.startPoint(page.Viewport())
	if err := page.Mouse().Wheel(ctx, at, 0, h.ScrollDelta()); err != nil {
		return err
	}
	return h.Pause(ctx, h.cfg.ScrollWait)
}
