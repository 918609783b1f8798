// internal/browser/humanoid/humanoid.go
package humanoid

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// ErrNoGeometry is returned when the target element has no layout box, so no
// motion path can be planned. Callers fall back to a direct interaction.
var ErrNoGeometry = errors.New("humanoid: element has no bounding box")

// Humanoid simulates a single operator's pointer, keyboard and scroll wheel.
// It remembers where the pointer was left so consecutive moves chain.
type Humanoid struct {
	// mu guards rng and pos.
	mu      sync.Mutex
	cfg     Config
	rng     *rand.Rand
	sleeper schemas.Sleeper
	logger  *zap.Logger

	pos    schemas.Point
	hasPos bool
}

// New creates a Humanoid. A nil rng is replaced by a time-seeded one.
func New(cfg Config, rng *rand.Rand, sleeper schemas.Sleeper, logger *zap.Logger) *Humanoid {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Humanoid{
		cfg:     cfg.normalize(),
		rng:     rng,
		sleeper: sleeper,
		logger:  logger.Named("humanoid"),
	}
}

// NewTestHumanoid creates a Humanoid with the default config and a fixed seed.
func NewTestHumanoid(sleeper schemas.Sleeper, seed int64) *Humanoid {
	return New(DefaultConfig(), rand.New(rand.NewSource(seed)), sleeper, zap.NewNop())
}

// Config returns the effective configuration.
func (h *Humanoid) Config() Config { return h.cfg }

// Position returns the last pointer position and whether one is known.
func (h *Humanoid) Position() (schemas.Point, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos, h.hasPos
}

func (h *Humanoid) setPosition(p schemas.Point) {
	h.mu.Lock()
	h.pos, h.hasPos = p, true
	h.mu.Unlock()
}

// startPoint is the current pointer position, or the viewport center before
// the first move of the session.
func (h *Humanoid) startPoint(viewport schemas.Size) schemas.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasPos {
		return h.pos
	}
	return schemas.Point{X: float64(viewport.Width) / 2, Y: float64(viewport.Height) / 2}
}

func (h *Humanoid) sample(r DurationRange) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return r.Sample(h.rng)
}

func (h *Humanoid) uniform(lo, hi float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo + h.rng.Float64()*(hi-lo)
}

// Pause sleeps for a duration drawn from r.
func (h *Humanoid) Pause(ctx context.Context, r DurationRange) error {
	return h.sleeper.Sleep(ctx, h.sample(r))
}
