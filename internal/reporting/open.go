package reporting

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// openCommand returns the desktop opener for goos.
func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open asks the desktop to show path. It does not wait for the viewer.
func Open(path string) error {
	name, args := openCommand(runtime.GOOS, path)
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("no opener available: %w", err)
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

type pathSink interface {
	Sink
	Path() string
}

type openingSink struct {
	Sink
	path   string
	open   func(string) error
	logger *zap.Logger
}

// WithAutoOpen opens the sink's artifact after every successful write.
// Failing to open is logged and never fails the write.
func WithAutoOpen(s Sink, logger *zap.Logger) Sink {
	ps, ok := s.(pathSink)
	if !ok || isStdout(ps.Path()) {
		return s
	}
	return &openingSink{Sink: s, path: ps.Path(), open: Open, logger: logger.Named("reporting")}
}

func (s *openingSink) Write(ctx context.Context, report *schemas.RunReport) error {
	if err := s.Sink.Write(ctx, report); err != nil {
		return err
	}
	s.logger.Info("Saved results.", zap.String("path", s.path))
	if err := s.open(s.path); err != nil {
		s.logger.Warn("Could not open results automatically.", zap.String("path", s.path), zap.Error(err))
	}
	return nil
}
