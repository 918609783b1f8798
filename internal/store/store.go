package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// DBPool is the subset of pgxpool.Pool the store uses, so tests can mock it.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists run reports in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
    id          UUID PRIMARY KEY,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    total       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS work_items (
    run_id     UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    identifier TEXT NOT NULL,
    price      TEXT NOT NULL,
    status     TEXT NOT NULL,
    detail     TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

const upsertRun = `
INSERT INTO runs (id, started_at, finished_at, total)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    finished_at = EXCLUDED.finished_at,
    total = EXCLUDED.total;
`

const deleteItems = `DELETE FROM work_items WHERE run_id = $1;`

var itemColumns = []string{"run_id", "position", "identifier", "price", "status", "detail"}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// Connect opens a pool for dsn and wraps it in a Store. The returned close
// function releases the pool.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveReport writes a run and all its items in one transaction. Saving the
// same run again replaces its items.
func (s *Store) SaveReport(ctx context.Context, report *schemas.RunReport) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, upsertRun,
		report.RunID, report.StartedAt.UTC(), report.FinishedAt.UTC(), len(report.Items),
	); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteItems, report.RunID); err != nil {
		return fmt.Errorf("failed to clear previous items: %w", err)
	}

	if len(report.Items) > 0 {
		rows := make([][]any, len(report.Items))
		for i, it := range report.Items {
			rows[i] = []any{report.RunID, i + 1, it.ID, it.Price, string(it.Status.Kind), it.Status.Detail}
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"work_items"}, itemColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy work items: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("mismatch in copied work items count: expected %d, got %d", len(rows), n)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Report persisted.", zap.String("run_id", report.RunID), zap.Int("items", len(report.Items)))
	return nil
}
