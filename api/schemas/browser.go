package schemas

import (
	"context"
	"time"
)

// -- Geometry --

// Point is a position in top-level page (CSS pixel) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size describes a width/height pair, used for viewports.
type Size struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Box is an element's layout rectangle, already translated into top-level
// page coordinates when the element lives inside a frame.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the box.
func (b Box) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// -- Selectors --

// SelectorKind distinguishes path queries (XPath) from structural queries (CSS).
type SelectorKind string

const (
	PathQuery       SelectorKind = "xpath"
	StructuralQuery SelectorKind = "css"
)

// Selector is a normalized, typed locator. Construct it with selector.Normalize.
type Selector struct {
	Kind       SelectorKind `json:"kind"`
	Expression string       `json:"expression"`
}

// String renders the selector with its explicit kind prefix.
func (s Selector) String() string {
	return string(s.Kind) + "=" + s.Expression
}

// -- Page capabilities --

// Sleeper is the single suspension point used by every humanized delay,
// retry backoff, and polling wait. Tests substitute a recording fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep implements Sleeper.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ElementHandle is a live reference to one element inside a DocumentContext.
// Handles are never cached across resolution attempts.
type ElementHandle interface {
	// BoundingBox returns nil (and no error) when the element has no layout box.
	BoundingBox(ctx context.Context) (*Box, error)
	Focus(ctx context.Context) error
	// Clear empties the element's value and fires input/change events.
	Clear(ctx context.Context) error
	// Click performs a direct, non-simulated click on the element.
	Click(ctx context.Context) error
	// InnerText returns the rendered text of the element, untrimmed.
	InnerText(ctx context.Context) (string, error)
}

// DocumentContext is either the top-level document or one embedded frame.
// Callers never branch on which variant they hold.
type DocumentContext interface {
	// Name identifies the context in logs ("document", "frame[0]", ...).
	Name() string
	// Query returns a handle for the first element matching sel, or a nil
	// handle (and nil error) when nothing matches right now.
	Query(ctx context.Context, sel Selector) (ElementHandle, error)
}

// Mouse dispatches pointer events in top-level page coordinates.
type Mouse interface {
	Move(ctx context.Context, p Point) error
	Click(ctx context.Context, p Point) error
	Wheel(ctx context.Context, at Point, deltaX, deltaY float64) error
}

// Keyboard dispatches key events to whatever element currently has focus.
type Keyboard interface {
	// Type sends the given text as individual key presses without delay.
	Type(ctx context.Context, text string) error
	// Press sends one named key such as "Enter".
	Press(ctx context.Context, key string) error
}

// Page is the single browser tab driven by the workflow.
type Page interface {
	Document() DocumentContext
	// Frames returns the page's directly attached frames in document order.
	// Frames nested inside other frames are not included.
	Frames(ctx context.Context) ([]DocumentContext, error)
	Mouse() Mouse
	Keyboard() Keyboard
	Viewport() Size
	Navigate(ctx context.Context, url string) error
}

// Session owns one launched browser and its single page. Close tears both
// down and is safe to call more than once.
type Session interface {
	Page() Page
	Close() error
}

// IsPath reports whether the selector is a path query.
func (s Selector) IsPath() bool { return s.Kind == PathQuery }

// ContextSleeper waits on a timer and returns early with ctx's error when
// ctx is done first.
var ContextSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})
