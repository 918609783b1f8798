package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// flexibleSQLMatcher makes a whitespace-insensitive regex for SQL expectations.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T, level zapcore.Level) (*Store, pgxmock.PgxPoolIface, *observer.ObservedLogs) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	core, logs := observer.New(level)
	mockPool.ExpectPing()
	s, err := New(context.Background(), mockPool, zap.New(core))
	require.NoError(t, err)
	return s, mockPool, logs
}

func sampleReport() *schemas.RunReport {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return &schemas.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Minute),
		Items: []schemas.WorkItem{
			{ID: "1001", Price: "12.50", Status: schemas.OK()},
			{ID: "1002", Status: schemas.NoPrice()},
			{ID: "1003", Status: schemas.Errored("target closed")},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	s, mockPool, _ := newMockStore(t, zapcore.ErrorLevel)
	mockPool.ExpectExec(flexibleSQLMatcher(schemaDDL)).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReport(t *testing.T) {
	ctx := context.Background()

	t.Run("persists run and items without rollback errors", func(t *testing.T) {
		s, mockPool, logs := newMockStore(t, zapcore.ErrorLevel)
		report := sampleReport()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(upsertRun)).
			WithArgs(report.RunID, report.StartedAt, report.FinishedAt, 3).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(deleteItems)).
			WithArgs(report.RunID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCopyFrom(pgx.Identifier{"work_items"}, itemColumns).WillReturnResult(3)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.SaveReport(ctx, report))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Zero(t, logs.Len(), "rollback after commit must not be logged")
	})

	t.Run("empty report skips the copy", func(t *testing.T) {
		s, mockPool, _ := newMockStore(t, zapcore.ErrorLevel)
		report := sampleReport()
		report.Items = nil

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(upsertRun)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(deleteItems)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.SaveReport(ctx, report))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("copy count mismatch rolls back", func(t *testing.T) {
		s, mockPool, _ := newMockStore(t, zapcore.ErrorLevel)
		report := sampleReport()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(upsertRun)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(deleteItems)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectCopyFrom(pgx.Identifier{"work_items"}, itemColumns).WillReturnResult(2)
		mockPool.ExpectRollback()

		err := s.SaveReport(ctx, report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 3, got 2")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		s, mockPool, _ := newMockStore(t, zapcore.ErrorLevel)
		mockPool.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := s.SaveReport(ctx, sampleReport())
		assert.ErrorContains(t, err, "failed to begin transaction")
	})

	t.Run("rollback failure is logged", func(t *testing.T) {
		s, mockPool, logs := newMockStore(t, zapcore.ErrorLevel)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(upsertRun)).WillReturnError(errors.New("constraint"))
		mockPool.ExpectRollback().WillReturnError(errors.New("connection reset"))

		err := s.SaveReport(ctx, sampleReport())
		assert.ErrorContains(t, err, "failed to upsert run")
		assert.Equal(t, 1, logs.FilterMessage("Failed to rollback transaction").Len())
	})
}
