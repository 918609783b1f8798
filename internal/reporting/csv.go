package reporting

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

type csvSink struct {
	path string
}

func (s *csvSink) Name() string { return "csv:" + s.path }
func (s *csvSink) Path() string { return s.path }

func (s *csvSink) Write(ctx context.Context, report *schemas.RunReport) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := create(s.path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", s.path, cerr)
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(schemas.ReportColumns); err != nil {
		return err
	}
	for _, item := range report.Items {
		if err := w.Write(item.Row()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
