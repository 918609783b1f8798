// internal/browser/humanoid/trajectory.go
package humanoid

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// MoveFunc dispatches one pointer move.
type MoveFunc func(ctx context.Context, p schemas.Point) error

// Execute replays a path, calling pause after every step.
func Execute(ctx context.Context, path MotionPath, move MoveFunc, pause func(ctx context.Context) error) error {
	for i, p := range path {
		if err := move(ctx, p); err != nil {
			return fmt.Errorf("humanoid: move %d/%d failed: %w", i+1, len(path), err)
		}
		if err := pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

// MoveTo moves the pointer from its current position to target along a
// planned path.
func (h *Humanoid) MoveTo(ctx context.Context, page schemas.Page, target schemas.Point) error {
	start := h.startPoint(page.Viewport())
	path := h.PlanPath(start, target)

	mouse := page.Mouse()
	move := func(ctx context.Context, p schemas.Point) error {
		if err := mouse.Move(ctx, p); err != nil {
			return err
		}
		h.setPosition(p)
		return nil
	}
	stepPause := func(ctx context.Context) error { return h.Pause(ctx, h.cfg.StepDelay) }

	return Execute(ctx, path, move, stepPause)
}

// Click moves to a randomized point inside the element and clicks there.
// It returns ErrNoGeometry when the element has no layout box.
func (h *Humanoid) Click(ctx context.Context, page schemas.Page, el schemas.ElementHandle) error {
	box, err := el.BoundingBox(ctx)
	if err != nil {
		return fmt.Errorf("humanoid: bounding box lookup failed: %w", err)
	}
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return ErrNoGeometry
	}

	target := h.TargetPoint(*box)
	if err := h.MoveTo(ctx, page, target); err != nil {
		return err
	}
	if err := h.Pause(ctx, h.cfg.PreClick); err != nil {
		return err
	}
	if err := page.Mouse().Click(ctx, target); err != nil {
		return fmt.Errorf("humanoid: click dispatch failed: %w", err)
	}
	h.setPosition(target)

	h.logger.Debug("Simulated click", zap.Float64("x", target.X), zap.Float64("y", target.Y))
	return h.Pause(ctx, h.cfg.PostClick)
}
