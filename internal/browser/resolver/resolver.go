// Package resolver locates elements across the top-level document and the
// page's directly attached frames.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// ErrElementNotFound is returned when no context produced a match within the
// timeout.
var ErrElementNotFound = errors.New("element not found")

// DefaultPollInterval is the spacing between presence checks while waiting.
const DefaultPollInterval = 100 * time.Millisecond

// ResolvedTarget is a located element together with the document context that
// contains it. Targets are valid only for the attempt that produced them.
type ResolvedTarget struct {
	Context schemas.DocumentContext
	Handle  schemas.ElementHandle
}

// Resolver waits for selectors to appear. It holds no per-element state.
type Resolver struct {
	sleeper schemas.Sleeper
	poll    time.Duration
	logger  *zap.Logger
}

// New creates a Resolver. A non-positive poll interval uses DefaultPollInterval.
func New(sleeper schemas.Sleeper, poll time.Duration, logger *zap.Logger) *Resolver {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{sleeper: sleeper, poll: poll, logger: logger.Named("resolver")}
}

// Resolve looks for sel in the top-level document first, then in each
// directly attached frame in order. Each context is waited on for up to
// timeout before moving to the next one.
func (r *Resolver) Resolve(ctx context.Context, page schemas.Page, sel schemas.Selector, timeout time.Duration) (*ResolvedTarget, error) {
	doc := page.Document()
	h, err := r.waitIn(ctx, doc, sel, timeout)
	if err != nil {
		return nil, err
	}
	if h != nil {
		return &ResolvedTarget{Context: doc, Handle: h}, nil
	}

	frames, err := page.Frames(ctx)
	if err != nil {
		// A page whose frame tree cannot be read is treated as frameless.
		r.logger.Debug("Frame enumeration failed.", zap.Stringer("selector", sel), zap.Error(err))
		frames = nil
	}
	for _, frame := range frames {
		h, err := r.waitIn(ctx, frame, sel, timeout)
		if err != nil {
			return nil, err
		}
		if h != nil {
			r.logger.Debug("Resolved inside frame.", zap.Stringer("selector", sel), zap.String("frame", frame.Name()))
			return &ResolvedTarget{Context: frame, Handle: h}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrElementNotFound, sel)
}

// waitIn polls one context until the selector matches or the timeout is used
// up. It returns a nil handle on timeout and an error only on cancellation.
// Waiting is counted in poll intervals so the injected sleeper governs it.
func (r *Resolver) waitIn(ctx context.Context, dc schemas.DocumentContext, sel schemas.Selector, timeout time.Duration) (schemas.ElementHandle, error) {
	checks := 1
	if timeout > 0 {
		checks += int(timeout / r.poll)
	}
	for i := 0; i < checks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := dc.Query(ctx, sel)
		if err == nil && h != nil {
			return h, nil
		}
		if err != nil {
			// Transient evaluation failures (navigation in flight, context
			// destroyed) count as "not present yet".
			r.logger.Debug("Query failed.", zap.String("context", dc.Name()), zap.Stringer("selector", sel), zap.Error(err))
		}
		if i < checks-1 {
			if err := r.sleeper.Sleep(ctx, r.poll); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}
