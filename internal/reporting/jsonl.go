package reporting

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// itemRecord is one line of JSON-lines output.
type itemRecord struct {
	RunID    string `json:"run_id"`
	Position int    `json:"position"`
	ID       string `json:"id"`
	Price    string `json:"price"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

type jsonlSink struct {
	path string
}

func (s *jsonlSink) Name() string { return "jsonl:" + s.path }
func (s *jsonlSink) Path() string { return s.path }

func (s *jsonlSink) Write(ctx context.Context, report *schemas.RunReport) (err error) {
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

	enc := json.NewEncoder(out)
	for i, item := range report.Items {
		rec := itemRecord{
			RunID:    report.RunID,
			Position: i + 1,
			ID:       item.ID,
			Price:    item.Price,
			Status:   string(item.Status.Kind),
			Detail:   item.Status.Detail,
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode item %d: %w", i+1, err)
		}
	}
	return nil
}
