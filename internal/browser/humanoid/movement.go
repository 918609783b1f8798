// internal/browser/humanoid/movement.go
package humanoid

import (
	"math"
	"math/rand"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// MotionPath is the ordered list of intermediate pointer positions for one
// move. It is replayed once and discarded.
type MotionPath []schemas.Point

// easeOutCubic front-loads progress so the pointer decelerates into the target.
func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// PlanPath builds an eased path from `from` to `to` with a random step count
// in [cfg.MinSteps, cfg.MaxSteps] and ±cfg.Jitter per-point noise. The last
// point is `to` plus jitter.
func PlanPath(rng *rand.Rand, cfg Config, from, to schemas.Point) MotionPath {
	cfg = cfg.normalize()
	steps := cfg.MinSteps + rng.Intn(cfg.MaxSteps-cfg.MinSteps+1)

	dx, dy := to.X-from.X, to.Y-from.Y
	path := make(MotionPath, steps)
	for i := 1; i <= steps; i++ {
		ease := easeOutCubic(float64(i) / float64(steps))
		path[i-1] = schemas.Point{
			X: from.X + dx*ease + jitter(rng, cfg.Jitter),
			Y: from.Y + dy*ease + jitter(rng, cfg.Jitter),
		}
	}
	return path
}

// TargetPoint picks the click point for a box: its center moved by up to
// ±offset on each axis, so repeated clicks never land on one pixel.
func TargetPoint(rng *rand.Rand, box schemas.Box, offset float64) schemas.Point {
	c := box.Center()
	return schemas.Point{X: c.X + jitter(rng, offset), Y: c.Y + jitter(rng, offset)}
}

func jitter(rng *rand.Rand, amplitude float64) float64 {
	if amplitude == 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * amplitude
}

func dist(a, b schemas.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PlanPath plans a move from the current pointer position using the
// humanoid's own rng and config.
func (h *Humanoid) PlanPath(from, to schemas.Point) MotionPath {
	h.mu.Lock()
	defer h.mu.Unlock()
	return PlanPath(h.rng, h.cfg, from, to)
}

// TargetPoint applies the configured offset to a box.
func (h *Humanoid) TargetPoint(box schemas.Box) schemas.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return TargetPoint(h.rng, box, h.cfg.TargetOffset)
}
