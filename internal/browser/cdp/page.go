// internal/browser/cdp/page.go
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// isolatedWorld names the execution contexts created inside frames.
const isolatedWorld = "quickfinder"

// Page is the tab of a Session.
type Page struct {
	session  *Session
	viewport schemas.Size
	doc      *document
}

var _ schemas.Page = (*Page)(nil)

func (p *Page) Document() schemas.DocumentContext { return p.doc }
func (p *Page) Viewport() schemas.Size            { return p.viewport }
func (p *Page) Mouse() schemas.Mouse              { return mouse{p.session} }
func (p *Page) Keyboard() schemas.Keyboard        { return keyboard{p.session} }

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.session.logger.Info("Navigating.", zap.String("url", url))
	if err := p.session.run(ctx, p.session.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Frames lists the top frame's direct children. Each call creates fresh
// isolated worlds, so contexts from an earlier call are never reused.
func (p *Page) Frames(ctx context.Context) ([]schemas.DocumentContext, error) {
	var out []schemas.DocumentContext
	err := p.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		for i, child := range tree.ChildFrames {
			id, err := page.CreateIsolatedWorld(child.Frame.ID).WithWorldName(isolatedWorld).Do(ctx)
			if err != nil {
				// Detached or cross-process frames cannot host a world; skip them.
				p.session.logger.Debug("Skipping frame.", zap.Int("index", i), zap.Error(err))
				continue
			}
			out = append(out, &document{
				session:   p.session,
				name:      fmt.Sprintf("frame[%d]", i),
				frameID:   child.Frame.ID,
				contextID: id,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read frame tree: %w", err)
	}
	return out, nil
}

type mouse struct{ s *Session }

func (m mouse) Move(ctx context.Context, pt schemas.Point) error {
	return m.s.run(ctx, 0, input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y))
}

func (m mouse) Click(ctx context.Context, pt schemas.Point) error {
	return m.s.run(ctx, 0,
		input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
			WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
			WithButton(input.Left).WithClickCount(1),
	)
}

func (m mouse) Wheel(ctx context.Context, at schemas.Point, dx, dy float64) error {
	return m.s.run(ctx, 0,
		input.DispatchMouseEvent(input.MouseWheel, at.X, at.Y).WithDeltaX(dx).WithDeltaY(dy),
	)
}

type keyboard struct{ s *Session }

func (k keyboard) Type(ctx context.Context, text string) error {
	return k.s.run(ctx, 0, chromedp.KeyEvent(text))
}

func (k keyboard) Press(ctx context.Context, key string) error {
	seq, ok := namedKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	return k.s.run(ctx, 0, chromedp.KeyEvent(seq))
}

var namedKeys = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
}
