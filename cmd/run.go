package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/browser/cdp"
	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
	"github.com/xkilldash9x/quickfinder/internal/config"
	"github.com/xkilldash9x/quickfinder/internal/input"
	"github.com/xkilldash9x/quickfinder/internal/orchestrator"
	"github.com/xkilldash9x/quickfinder/internal/reporting"
	"github.com/xkilldash9x/quickfinder/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	var noOpen bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in to the portal and look up every identifier in the input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if noOpen {
				cfg.Output.AutoOpen = false
			}
			return runWorkflow(cmd.Context(), cfg, a.logger, cdpLauncher(cfg, a.logger))
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "identifier file (.xlsx or .csv)")
	flags.String("column", "", "identifier column header")
	flags.String("output", "", "result file (.xlsx, .csv, .jsonl) or stdout")
	flags.String("format", "", "result format, overriding the output extension")
	flags.Bool("headless", false, "run the browser without a window")
	flags.String("db-url", "", "also store results in this Postgres database")
	flags.BoolVar(&noOpen, "no-open", false, "do not open the result file when done")

	bindings := map[string]string{
		"input.path":       "input",
		"input.column":     "column",
		"output.path":      "output",
		"output.format":    "format",
		"browser.headless": "headless",
		"database.url":     "db-url",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

// cdpLauncher starts a real browser for each orchestrator run.
func cdpLauncher(cfg config.Config, logger *zap.Logger) orchestrator.Launcher {
	return orchestrator.LauncherFunc(func(ctx context.Context, p stealth.Profile) (schemas.Session, error) {
		s, err := cdp.Launch(ctx, cfg.Browser, p, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

func runWorkflow(ctx context.Context, cfg config.Config, logger *zap.Logger, launcher orchestrator.Launcher) error {
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	ids, err := input.Read(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read identifiers: %w", err)
	}
	logger.Info("Loaded identifiers.", zap.String("path", cfg.Input.Path), zap.Int("count", len(ids)))

	sink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	orc, err := orchestrator.New(cfg.Workflow, logger, launcher, sink)
	if err != nil {
		return err
	}

	report, err := orc.Run(ctx, ids)
	if report != nil {
		counts := report.Counts()
		logger.Info("Run complete.",
			zap.String("run_id", report.RunID),
			zap.Int("items", len(report.Items)),
			zap.Int("ok", counts[schemas.StatusOK]),
			zap.Int("no_price", counts[schemas.StatusNoPrice]),
			zap.Int("typing_failed", counts[schemas.StatusTypingFailed]),
			zap.Int("error", counts[schemas.StatusError]),
		)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) && !errors.Is(err, orchestrator.ErrCriticalSetup):
		logger.Warn("Run interrupted by operator; partial results were saved.")
		return nil
	default:
		return err
	}
}

// buildSink assembles the file sink and, when enabled, the Postgres sink.
func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (reporting.Sink, func(), error) {
	file, err := reporting.NewSink(cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Output.AutoOpen {
		file = reporting.WithAutoOpen(file, logger)
	}
	if !cfg.Database.Enabled && cfg.Database.URL == "" {
		return file, func() {}, nil
	}

	st, closePool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		closePool()
		return nil, nil, err
	}
	return reporting.Multi(file, reporting.NewPostgresSink(st)), closePool, nil
}
