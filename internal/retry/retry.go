// Package retry drives bounded attempt loops. Each attempt reports an explicit
// Outcome; Next is a pure transition over the loop state, so the driver does
// not depend on how individual attempts signal failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// ErrExhausted marks a loop that used every attempt without succeeding.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Kind is the classification of a single attempt.
type Kind int

const (
	Success Kind = iota
	Retryable
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is what one attempt produced.
type Outcome[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// Succeed, Retry and Abort build the three outcome variants.
func Succeed[T any](v T) Outcome[T]    { return Outcome[T]{Kind: Success, Value: v} }
func Retry[T any](err error) Outcome[T] { return Outcome[T]{Kind: Retryable, Err: err} }
func Abort[T any](err error) Outcome[T] { return Outcome[T]{Kind: Fatal, Err: err} }

// Policy bounds an attempt loop. The delay before attempt n+1 is BaseDelay*n.
type Policy struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

// Backoff returns the pause that follows the given (1-based) failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Phase is the position of a loop in Attempting(n) -> Succeeded | Exhausted | Aborted.
type Phase int

const (
	Attempting Phase = iota
	Succeeded
	Exhausted
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the loop state. Attempt counts attempts started so far.
type State struct {
	Phase   Phase
	Attempt int
	Err     error
}

// Start is the state before the first attempt runs.
func Start() State { return State{Phase: Attempting, Attempt: 1} }

// Terminal reports whether no further attempts will be made.
func (s State) Terminal() bool { return s.Phase != Attempting }

// Error describes a non-successful terminal state. It returns nil otherwise.
func (s State) Error() error {
	switch s.Phase {
	case Exhausted:
		return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, s.Attempt, s.Err)
	case Aborted:
		return s.Err
	default:
		return nil
	}
}

// Next applies one attempt's result to the state. It is pure.
func Next(p Policy, s State, kind Kind, err error) State {
	if s.Terminal() {
		return s
	}
	switch kind {
	case Success:
		return State{Phase: Succeeded, Attempt: s.Attempt}
	case Fatal:
		return State{Phase: Aborted, Attempt: s.Attempt, Err: err}
	default:
		if s.Attempt >= p.attempts() {
			return State{Phase: Exhausted, Attempt: s.Attempt, Err: err}
		}
		return State{Phase: Attempting, Attempt: s.Attempt + 1, Err: err}
	}
}

// Do runs op until it succeeds, aborts, or the policy is exhausted, sleeping
// Backoff(n) between attempts. Context cancellation is observed before each
// attempt and during backoff, never inside op.
func Do[T any](ctx context.Context, p Policy, sl schemas.Sleeper, op func(ctx context.Context, attempt int) Outcome[T]) (T, State) {
	var zero T
	s := Start()
	for {
		if err := ctx.Err(); err != nil {
			return zero, State{Phase: Aborted, Attempt: s.Attempt - 1, Err: err}
		}

		o := op(ctx, s.Attempt)
		next := Next(p, s, o.Kind, o.Err)
		switch next.Phase {
		case Succeeded:
			return o.Value, next
		case Exhausted, Aborted:
			return zero, next
		}

		if err := sl.Sleep(ctx, p.Backoff(s.Attempt)); err != nil {
			return zero, State{Phase: Aborted, Attempt: s.Attempt, Err: err}
		}
		s = next
	}
}
