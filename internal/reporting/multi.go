package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

type multiSink struct {
	sinks []Sink
}

// Multi fans one report out to several sinks concurrently. Every sink runs
// to completion; all failures are returned together.
func Multi(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

func (m *multiSink) Write(ctx context.Context, report *schemas.RunReport) error {
	var g errgroup.Group
	errs := make([]error, len(m.sinks))
	for i, s := range m.sinks {
		i, s := i, s
		g.Go(func() error {
			if err := s.Write(ctx, report); err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
