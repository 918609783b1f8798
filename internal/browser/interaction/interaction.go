// internal/browser/interaction/interaction.go
//
// Package interaction implements the click, type and read primitives the
// workflow uses to affect the page. Every primitive resolves its target
// fresh on each attempt and folds all failures into its retry loop, so
// callers only ever see a bool or a string.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/browser/humanoid"
	"github.com/xkilldash9x/quickfinder/internal/browser/resolver"
	"github.com/xkilldash9x/quickfinder/internal/retry"
)

// Config holds the retry policies and resolution timeout of the primitives.
type Config struct {
	Click          retry.Policy  `mapstructure:"click" yaml:"click"`
	Type           retry.Policy  `mapstructure:"type" yaml:"type"`
	Read           retry.Policy  `mapstructure:"read" yaml:"read"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// DefaultConfig returns the policies the workflow was tuned with.
func DefaultConfig() Config {
	return Config{
		Click:          retry.Policy{MaxAttempts: 5, BaseDelay: 400 * time.Millisecond},
		Type:           retry.Policy{MaxAttempts: 5, BaseDelay: 250 * time.Millisecond},
		Read:           retry.Policy{MaxAttempts: 4, BaseDelay: 200 * time.Millisecond},
		ResolveTimeout: 12 * time.Second,
		PollInterval:   resolver.DefaultPollInterval,
	}
}

// ErrNotCleared is returned by Clear when no context held a clearable match.
var ErrNotCleared = errors.New("field could not be cleared in any context")

// Interactor drives one page. It is not safe for concurrent use; the
// workflow has a single thread of control.
type Interactor struct {
	page     schemas.Page
	resolver *resolver.Resolver
	human    *humanoid.Humanoid
	cfg      Config
	sleeper  schemas.Sleeper
	logger   *zap.Logger
}

// New wires an Interactor for page.
func New(page schemas.Page, res *resolver.Resolver, human *humanoid.Humanoid, cfg Config, sleeper schemas.Sleeper, logger *zap.Logger) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		page:     page,
		resolver: res,
		human:    human,
		cfg:      cfg,
		sleeper:  sleeper,
		logger:   logger.Named("interaction"),
	}
}

// Humanoid exposes the simulator so callers can share its pauses.
func (i *Interactor) Humanoid() *humanoid.Humanoid { return i.human }

// resolveOutcome turns a resolution failure into an attempt outcome.
func resolveOutcome[T any](ctx context.Context, err error) retry.Outcome[T] {
	if ctx.Err() != nil {
		return retry.Abort[T](ctx.Err())
	}
	return retry.Retry[T](err)
}

// Click resolves sel and clicks it with a simulated pointer. If the
// simulation cannot run, one direct click on the handle is tried instead.
func (i *Interactor) Click(ctx context.Context, sel schemas.Selector) bool {
	_, st := retry.Do(ctx, i.cfg.Click, i.sleeper, func(ctx context.Context, attempt int) retry.Outcome[struct{}] {
		target, err := i.resolver.Resolve(ctx, i.page, sel, i.cfg.ResolveTimeout)
		if err != nil {
			i.logger.Debug("Click target unresolved.", zap.Stringer("selector", sel), zap.Int("attempt", attempt), zap.Error(err))
			return resolveOutcome[struct{}](ctx, err)
		}

		err = i.human.Click(ctx, i.page, target.Handle)
		if err == nil {
			return retry.Succeed(struct{}{})
		}
		if ctx.Err() != nil {
			return retry.Abort[struct{}](ctx.Err())
		}

		i.logger.Debug("Simulated click failed, clicking directly.", zap.Stringer("selector", sel), zap.Int("attempt", attempt), zap.Error(err))
		if err := target.Handle.Click(ctx); err != nil {
			return retry.Retry[struct{}](fmt.Errorf("direct click: %w", err))
		}
		if err := i.human.Pause(ctx, i.human.Config().PostClick); err != nil {
			return retry.Abort[struct{}](err)
		}
		return retry.Succeed(struct{}{})
	})
	return i.finish("click", sel, st)
}

// Type focuses the field matched by sel, clears it and types text with a
// human cadence. Only the text length is ever logged.
func (i *Interactor) Type(ctx context.Context, sel schemas.Selector, text string) bool {
	_, st := retry.Do(ctx, i.cfg.Type, i.sleeper, func(ctx context.Context, attempt int) retry.Outcome[struct{}] {
		target, err := i.resolver.Resolve(ctx, i.page, sel, i.cfg.ResolveTimeout)
		if err != nil {
			i.logger.Debug("Type target unresolved.", zap.Stringer("selector", sel), zap.Int("attempt", attempt), zap.Error(err))
			return resolveOutcome[struct{}](ctx, err)
		}

		if err := target.Handle.Focus(ctx); err != nil {
			return i.attemptFailed(ctx, "focus", sel, attempt, err)
		}
		if err := target.Handle.Clear(ctx); err != nil {
			return i.attemptFailed(ctx, "clear", sel, attempt, err)
		}
		if err := i.human.Type(ctx, i.page.Keyboard(), text); err != nil {
			return i.attemptFailed(ctx, "keys", sel, attempt, err)
		}

		i.logger.Debug("Typed into field.", zap.Stringer("selector", sel), zap.Int("length", len([]rune(text))))
		return retry.Succeed(struct{}{})
	})
	return i.finish("type", sel, st)
}

// ReadText returns the trimmed visible text of sel, or "" when the element
// never resolved. An empty string is not a failure signal on its own.
func (i *Interactor) ReadText(ctx context.Context, sel schemas.Selector) string {
	text, st := retry.Do(ctx, i.cfg.Read, i.sleeper, func(ctx context.Context, attempt int) retry.Outcome[string] {
		target, err := i.resolver.Resolve(ctx, i.page, sel, i.cfg.ResolveTimeout)
		if err != nil {
			return resolveOutcome[string](ctx, err)
		}
		txt, err := target.Handle.InnerText(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Abort[string](ctx.Err())
			}
			return retry.Retry[string](err)
		}
		return retry.Succeed(strings.TrimSpace(txt))
	})
	if st.Phase != retry.Succeeded {
		i.logger.Debug("Read produced no text.", zap.Stringer("selector", sel), zap.Int("attempts", st.Attempt), zap.Error(st.Err))
		return ""
	}
	return text
}

// Press focuses sel and sends one named key to it. It makes a single
// attempt and reports the failure to the caller.
func (i *Interactor) Press(ctx context.Context, sel schemas.Selector, key string) error {
	target, err := i.resolver.Resolve(ctx, i.page, sel, i.cfg.ResolveTimeout)
	if err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	if err := target.Handle.Focus(ctx); err != nil {
		return fmt.Errorf("press %s: focus: %w", key, err)
	}
	if err := i.page.Keyboard().Press(ctx, key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// Clear empties sel without waiting: the top-level document is tried first,
// then each frame, stopping at the first context that clears successfully.
func (i *Interactor) Clear(ctx context.Context, sel schemas.Selector) error {
	contexts := []schemas.DocumentContext{i.page.Document()}
	if frames, err := i.page.Frames(ctx); err == nil {
		contexts = append(contexts, frames...)
	}

	for _, dc := range contexts {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := dc.Query(ctx, sel)
		if err != nil || h == nil {
			continue
		}
		if err := h.Clear(ctx); err != nil {
			i.logger.Debug("Clear failed in context.", zap.String("context", dc.Name()), zap.Stringer("selector", sel), zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotCleared, sel)
}

func (i *Interactor) attemptFailed(ctx context.Context, step string, sel schemas.Selector, attempt int, err error) retry.Outcome[struct{}] {
	if ctx.Err() != nil {
		return retry.Abort[struct{}](ctx.Err())
	}
	i.logger.Debug("Attempt failed.", zap.String("step", step), zap.Stringer("selector", sel), zap.Int("attempt", attempt), zap.Error(err))
	return retry.Retry[struct{}](fmt.Errorf("%s: %w", step, err))
}

func (i *Interactor) finish(op string, sel schemas.Selector, st retry.State) bool {
	switch st.Phase {
	case retry.Succeeded:
		return true
	case retry.Aborted:
		i.logger.Warn("Interaction aborted.", zap.String("op", op), zap.Stringer("selector", sel), zap.Int("attempts", st.Attempt), zap.Error(st.Err))
	default:
		i.logger.Error("Interaction failed after all attempts.", zap.String("op", op), zap.Stringer("selector", sel), zap.Int("attempts", st.Attempt), zap.Error(st.Error()))
	}
	return false
}
