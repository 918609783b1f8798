// internal/browser/cdp/document.go
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cdpproto "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// document is either the top frame's main world (contextID 0) or an
// isolated world inside one child frame.
type document struct {
	session   *Session
	name      string
	frameID   cdpproto.FrameID
	contextID runtime.ExecutionContextID
}

var _ schemas.DocumentContext = (*document)(nil)

func (d *document) Name() string { return d.name }

// queryExpression renders the lookup for sel as a JS expression that yields
// the first match or null.
func queryExpression(sel schemas.Selector) (string, error) {
	lit, err := json.Marshal(sel.Expression)
	if err != nil {
		return "", err
	}
	if sel.IsPath() {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", lit), nil
	}
	return fmt.Sprintf("document.querySelector(%s)", lit), nil
}

func (d *document) Query(ctx context.Context, sel schemas.Selector) (schemas.ElementHandle, error) {
	expr, err := queryExpression(sel)
	if err != nil {
		return nil, err
	}

	var obj *runtime.RemoteObject
	err = d.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		eval := runtime.Evaluate(expr)
		if d.contextID != 0 {
			eval = eval.WithContextID(d.contextID)
		}
		res, exc, err := eval.Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		obj = res
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.ObjectID == "" {
		return nil, nil
	}
	return &element{doc: d, id: obj.ObjectID}, nil
}

// offset is the position of the frame's content box in top-level page
// coordinates. The top document has no offset.
func (d *document) offset(ctx context.Context) (schemas.Point, error) {
	if d.frameID == "" {
		return schemas.Point{}, nil
	}
	var origin schemas.Point
	err := d.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		backendID, _, err := dom.GetFrameOwner(d.frameID).Do(ctx)
		if err != nil {
			return err
		}
		model, err := dom.GetBoxModel().WithBackendNodeID(backendID).Do(ctx)
		if err != nil {
			return err
		}
		if len(model.Content) < 2 {
			return errors.New("frame owner has no content box")
		}
		origin = schemas.Point{X: model.Content[0], Y: model.Content[1]}
		return nil
	}))
	if err != nil {
		return schemas.Point{}, fmt.Errorf("failed to locate %s: %w", d.name, err)
	}
	return origin, nil
}

func exceptionError(exc *runtime.ExceptionDetails) error {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return fmt.Errorf("script exception: %s", exc.Exception.Description)
	}
	return fmt.Errorf("script exception: %s", exc.Text)
}
