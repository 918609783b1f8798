// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// -- Sleeper --

// Sleeper records requested durations instead of sleeping.
type Sleeper struct {
	mu        sync.Mutex
	durations []time.Duration
	// OnSleep, when set, runs for every call and may return an error.
	OnSleep func(ctx context.Context, d time.Duration) error
}

// NewSleeper creates a recording sleeper.
func NewSleeper() *Sleeper { return &Sleeper{} }

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.durations = append(s.durations, d)
	hook := s.OnSleep
	s.mu.Unlock()
	if hook != nil {
		return hook(ctx, d)
	}
	return nil
}

// Durations returns a copy of every recorded duration.
func (s *Sleeper) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.durations))
	copy(out, s.durations)
	return out
}

// Total sums all recorded durations.
func (s *Sleeper) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Durations() {
		total += d
	}
	return total
}

// -- Element --

// Element is a scriptable ElementHandle.
type Element struct {
	mu sync.Mutex

	Box   *schemas.Box
	Text  string
	Value string

	BoxErr, FocusErr, ClearErr, ClickErr, TextErr error

	clicks, focuses, clears int
	page                    *Page
}

// NewElement creates an element laid out at box. A nil box means the element
// is present but not rendered.
func NewElement(box *schemas.Box, text string) *Element {
	return &Element{Box: box, Text: text}
}

func (e *Element) BoundingBox(ctx context.Context) (*schemas.Box, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.BoxErr != nil {
		return nil, e.BoxErr
	}
	if e.Box == nil {
		return nil, nil
	}
	b := *e.Box
	return &b, nil
}

func (e *Element) Focus(ctx context.Context) error {
	e.mu.Lock()
	if e.FocusErr != nil {
		e.mu.Unlock()
		return e.FocusErr
	}
	e.focuses++
	p := e.page
	e.mu.Unlock()
	if p != nil {
		p.setFocused(e)
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClearErr != nil {
		return e.ClearErr
	}
	e.clears++
	e.Value = ""
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.clicks++
	return nil
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Text, nil
}

// SetText replaces the rendered text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	e.Text = text
	e.mu.Unlock()
}

// CurrentValue returns the value typed into the element so far.
func (e *Element) CurrentValue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Value
}

// DirectClicks counts non-simulated clicks.
func (e *Element) DirectClicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Clears counts Clear calls that succeeded.
func (e *Element) Clears() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clears
}

func (e *Element) appendValue(s string) {
	e.mu.Lock()
	e.Value += s
	e.mu.Unlock()
}

// -- Document --

// Document is a DocumentContext whose contents are keyed by selector.
type Document struct {
	mu       sync.Mutex
	name     string
	page     *Page
	elements map[schemas.Selector]*Element
	queries  map[schemas.Selector]int

	// QueryErr is returned by every Query while set.
	QueryErr error
	// OnQuery runs before each lookup with the 1-based query count for sel.
	OnQuery func(sel schemas.Selector, n int)
}

func newDocument(name string, page *Page) *Document {
	return &Document{
		name:     name,
		page:     page,
		elements: make(map[schemas.Selector]*Element),
		queries:  make(map[schemas.Selector]int),
	}
}

func (d *Document) Name() string { return d.name }

// Set places el under sel.
func (d *Document) Set(sel schemas.Selector, el *Element) *Element {
	el.mu.Lock()
	el.page = d.page
	el.mu.Unlock()
	d.mu.Lock()
	d.elements[sel] = el
	d.mu.Unlock()
	return el
}

// Remove detaches whatever is under sel.
func (d *Document) Remove(sel schemas.Selector) {
	d.mu.Lock()
	delete(d.elements, sel)
	d.mu.Unlock()
}

// Queries reports how many times sel was looked up.
func (d *Document) Queries(sel schemas.Selector) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queries[sel]
}

func (d *Document) Query(ctx context.Context, sel schemas.Selector) (schemas.ElementHandle, error) {
	d.mu.Lock()
	d.queries[sel]++
	n := d.queries[sel]
	hook := d.OnQuery
	d.mu.Unlock()

	if hook != nil {
		hook(sel, n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	el, ok := d.elements[sel]
	if !ok {
		return nil, nil
	}
	return el, nil
}

// -- Page --

// Wheel records one scroll event.
type Wheel struct {
	At     schemas.Point
	DeltaX float64
	DeltaY float64
}

// Page is an in-memory schemas.Page that records every input event.
type Page struct {
	mu sync.Mutex

	doc    *Document
	frames []*Document
	size   schemas.Size

	moves     []schemas.Point
	clicks    []schemas.Point
	wheels    []Wheel
	keys      []string
	presses   []string
	navigated []string
	focused   *Element

	FramesErr   error
	MoveErr     error
	ClickErr    error
	WheelErr    error
	TypeErr     error
	NavigateErr error
	// OnPress runs for every key press; its error is returned to the caller.
	OnPress func(key string) error
	// OnType runs before text reaches the focused element, with that
	// element's current value. A non-nil error rejects the key.
	OnType func(current, text string) error
	// OnClick runs for every simulated click.
	OnClick func(p schemas.Point)
}

// NewPage creates a 1280x800 page with an empty top-level document.
func NewPage() *Page {
	p := &Page{size: schemas.Size{Width: 1280, Height: 800}}
	p.doc = newDocument("document", p)
	return p
}

// Doc returns the top-level document for setup.
func (p *Page) Doc() *Document { return p.doc }

// AddFrame appends a directly attached frame.
func (p *Page) AddFrame(name string) *Document {
	f := newDocument(name, p)
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	return f
}

// SetViewport overrides the viewport size.
func (p *Page) SetViewport(s schemas.Size) {
	p.mu.Lock()
	p.size = s
	p.mu.Unlock()
}

func (p *Page) Document() schemas.DocumentContext { return p.doc }

func (p *Page) Frames(ctx context.Context) ([]schemas.DocumentContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FramesErr != nil {
		return nil, p.FramesErr
	}
	out := make([]schemas.DocumentContext, len(p.frames))
	for i, f := range p.frames {
		out[i] = f
	}
	return out, nil
}

func (p *Page) Mouse() schemas.Mouse       { return mouse{p} }
func (p *Page) Keyboard() schemas.Keyboard { return keyboard{p} }

func (p *Page) Viewport() schemas.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *Page) setFocused(e *Element) {
	p.mu.Lock()
	p.focused = e
	p.mu.Unlock()
}

// Moves returns every pointer move.
func (p *Page) Moves() []schemas.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]schemas.Point(nil), p.moves...)
}

// Clicks returns every simulated click position.
func (p *Page) Clicks() []schemas.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]schemas.Point(nil), p.clicks...)
}

// Wheels returns every scroll event.
func (p *Page) Wheels() []Wheel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Wheel(nil), p.wheels...)
}

// Keys returns every Type call's text in order.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// Presses returns every named key press.
func (p *Page) Presses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.presses...)
}

// Navigations returns every URL navigated to.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

type mouse struct{ p *Page }

func (m mouse) Move(ctx context.Context, pt schemas.Point) error {
	m.p.mu.Lock()
	defer m.p.mu.Unlock()
	if m.p.MoveErr != nil {
		return m.p.MoveErr
	}
	m.p.moves = append(m.p.moves, pt)
	return nil
}

func (m mouse) Click(ctx context.Context, pt schemas.Point) error {
	m.p.mu.Lock()
	if m.p.ClickErr != nil {
		m.p.mu.Unlock()
		return m.p.ClickErr
	}
	m.p.clicks = append(m.p.clicks, pt)
	hook := m.p.OnClick
	m.p.mu.Unlock()
	if hook != nil {
		hook(pt)
	}
	return nil
}

func (m mouse) Wheel(ctx context.Context, at schemas.Point, dx, dy float64) error {
	m.p.mu.Lock()
	defer m.p.mu.Unlock()
	if m.p.WheelErr != nil {
		return m.p.WheelErr
	}
	m.p.wheels = append(m.p.wheels, Wheel{At: at, DeltaX: dx, DeltaY: dy})
	return nil
}

type keyboard struct{ p *Page }

func (k keyboard) Type(ctx context.Context, text string) error {
	k.p.mu.Lock()
	if k.p.TypeErr != nil {
		k.p.mu.Unlock()
		return k.p.TypeErr
	}
	focused := k.p.focused
	hook := k.p.OnType
	k.p.mu.Unlock()

	if hook != nil {
		current := ""
		if focused != nil {
			current = focused.CurrentValue()
		}
		if err := hook(current, text); err != nil {
			return err
		}
	}

	k.p.mu.Lock()
	k.p.keys = append(k.p.keys, text)
	k.p.mu.Unlock()
	if focused != nil {
		focused.appendValue(text)
	}
	return nil
}

func (k keyboard) Press(ctx context.Context, key string) error {
	k.p.mu.Lock()
	k.p.presses = append(k.p.presses, key)
	hook := k.p.OnPress
	k.p.mu.Unlock()
	if hook != nil {
		return hook(key)
	}
	return nil
}

// -- Session --

// Session wraps a Page and counts Close calls.
type Session struct {
	mu     sync.Mutex
	page   *Page
	closes int
}

// NewSession wraps page.
func NewSession(page *Page) *Session { return &Session{page: page} }

func (s *Session) Page() schemas.Page { return s.page }

func (s *Session) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

// Closes reports how many times Close ran.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// -- Report sink mock --

// MockSink mocks a report sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSink) Write(ctx context.Context, report *schemas.RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}
