// internal/browser/cdp/context_test.go
package cdp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	type ctxKey string
	const key ctxKey = "target"

	t.Run("InheritsSessionValues", func(t *testing.T) {
		session := context.WithValue(context.Background(), key, "tab-1")
		ctx, cancel := combine(session, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", ctx.Value(key))
		assert.NoError(t, ctx.Err())
	})

	t.Run("CancelledBySession", func(t *testing.T) {
		session, cancelSession := context.WithCancel(context.Background())
		ctx, cancel := combine(session, context.Background())
		defer cancel()

		cancelSession()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("CancelledByOperation", func(t *testing.T) {
		op, cancelOp := context.WithCancel(context.Background())
		ctx, cancel := combine(context.Background(), op)
		defer cancel()

		cancelOp()
		assert.Eventually(t, func() bool { return ctx.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
	})

	t.Run("OperationDeadlinePropagatesCause", func(t *testing.T) {
		op, cancelOp := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancelOp()
		ctx, cancel := combine(context.Background(), op)
		defer cancel()

		<-ctx.Done()
		assert.ErrorIs(t, context.Cause(ctx), context.DeadlineExceeded)
	})

	t.Run("CancelDoesNotTouchSession", func(t *testing.T) {
		session, cancelSession := context.WithCancel(context.Background())
		defer cancelSession()
		_, cancel := combine(session, context.Background())
		cancel()
		assert.NoError(t, session.Err())
	})
}
