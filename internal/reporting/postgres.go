package reporting

import (
	"context"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// ReportStore persists reports; *store.Store satisfies it.
type ReportStore interface {
	SaveReport(ctx context.Context, report *schemas.RunReport) error
}

type postgresSink struct {
	store ReportStore
}

// NewPostgresSink writes reports through st.
func NewPostgresSink(st ReportStore) Sink { return &postgresSink{store: st} }

func (s *postgresSink) Name() string { return "postgres" }

func (s *postgresSink) Write(ctx context.Context, report *schemas.RunReport) error {
	return s.store.SaveReport(ctx, report)
}
