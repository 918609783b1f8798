// File: internal/orchestrator/errors.go
package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrCriticalSetup marks a required authentication step that never
	// succeeded. No items are processed after it.
	ErrCriticalSetup = errors.New("critical setup failure")
	// ErrNoIdentifiers is returned when nothing is left to look up after
	// empty identifiers are dropped.
	ErrNoIdentifiers = errors.New("no identifiers to process")
)

// SetupError names the step that aborted the run.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrCriticalSetup, e.Step, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrCriticalSetup, e.Step)
}

func (e *SetupError) Is(target error) bool { return target == ErrCriticalSetup }
func (e *SetupError) Unwrap() error        { return e.Err }
