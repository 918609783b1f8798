// internal/browser/cdp/element.go
package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

const (
	fnBox = `function() {
  if (!this.isConnected) return null;
  if (this.scrollIntoViewIfNeeded) this.scrollIntoViewIfNeeded(true);
  const r = this.getBoundingClientRect();
  if (r.width === 0 && r.height === 0) return null;
  return {x: r.left, y: r.top, width: r.width, height: r.height};
}`
	fnFocus = `function() { this.focus(); }`
	fnClear = `function() {
  if ('value' in this) {
    this.value = '';
    this.dispatchEvent(new Event('input', {bubbles: true}));
    this.dispatchEvent(new Event('change', {bubbles: true}));
  } else if (this.isContentEditable) {
    this.textContent = '';
  }
}`
	fnClick     = `function() { this.click(); }`
	fnInnerText = `function() { return this.innerText || this.textContent || ''; }`
)

// element is a remote object reference valid until the page navigates.
type element struct {
	doc *document
	id  runtime.RemoteObjectID
}

var _ schemas.ElementHandle = (*element)(nil)

func (e *element) call(ctx context.Context, fn string, out interface{}) error {
	return e.doc.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(e.id).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

func (e *element) BoundingBox(ctx context.Context) (*schemas.Box, error) {
	var box *schemas.Box
	if err := e.call(ctx, fnBox, &box); err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	if box == nil {
		return nil, nil
	}
	origin, err := e.doc.offset(ctx)
	if err != nil {
		return nil, err
	}
	box.X += origin.X
	box.Y += origin.Y
	return box, nil
}

func (e *element) Focus(ctx context.Context) error { return e.call(ctx, fnFocus, nil) }
func (e *element) Clear(ctx context.Context) error { return e.call(ctx, fnClear, nil) }
func (e *element) Click(ctx context.Context) error { return e.call(ctx, fnClick, nil) }

func (e *element) InnerText(ctx context.Context) (string, error) {
	var text string
	if err := e.call(ctx, fnInnerText, &text); err != nil {
		return "", err
	}
	return text, nil
}
