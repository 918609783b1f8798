// internal/browser/cdp/context.go
package cdp

import "context"

// combine derives a context from session, which carries the chromedp target,
// that is also cancelled when op is done. Values come from session only.
func combine(session, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(session)
	stop := context.AfterFunc(op, func() { cancel(context.Cause(op)) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}
