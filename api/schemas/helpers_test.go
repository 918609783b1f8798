package schemas_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// -- Test Helpers --

// getTestTime provides a fixed, reproducible timestamp for consistent test results.
func getTestTime(t *testing.T) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, "2026-10-15T10:00:00.123456789Z")
	require.NoError(t, err, "Test setup failed: unable to parse fixed timestamp")
	return ts
}

func TestBoxCenter(t *testing.T) {
	b := schemas.Box{X: 10, Y: 20, Width: 100, Height: 40}
	assert.Equal(t, schemas.Point{X: 60, Y: 40}, b.Center())
}

func TestSelectorString(t *testing.T) {
	xp := schemas.Selector{Kind: schemas.PathQuery, Expression: "//td[7]"}
	css := schemas.Selector{Kind: schemas.StructuralQuery, Expression: "#loginsubmitbtn"}
	assert.Equal(t, "xpath=//td[7]", xp.String())
	assert.Equal(t, "css=#loginsubmitbtn", css.String())
	assert.True(t, xp.IsPath())
	assert.False(t, css.IsPath())
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status schemas.Status
		want   string
	}{
		{schemas.OK(), "ok"},
		{schemas.NoPrice(), "no_price"},
		{schemas.TypingFailed(), "typing_failed"},
		{schemas.Errored("target closed"), "error: target closed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestRunReport(t *testing.T) {
	r := &schemas.RunReport{RunID: "run-1", StartedAt: getTestTime(t)}
	r.Append(schemas.WorkItem{ID: "1001", Price: "12.50", Status: schemas.OK()})
	r.Append(schemas.WorkItem{ID: "1002", Status: schemas.NoPrice()})
	r.Append(schemas.WorkItem{ID: "1003", Status: schemas.Errored("x")})
	r.Append(schemas.WorkItem{ID: "1004", Status: schemas.Errored("y")})

	assert.Equal(t, []string{"1001", "12.50", "ok"}, r.Items[0].Row())
	assert.Equal(t, map[schemas.StatusKind]int{
		schemas.StatusOK:      1,
		schemas.StatusNoPrice: 1,
		schemas.StatusError:   2,
	}, r.Counts())
}

func TestContextSleeper(t *testing.T) {
	start := time.Now()
	require.NoError(t, schemas.ContextSleeper.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, schemas.ContextSleeper.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, schemas.ContextSleeper.Sleep(ctx, 0), context.Canceled)
	assert.NoError(t, schemas.ContextSleeper.Sleep(context.Background(), 0))
}
