// -- internal/reporting/reporter.go --
package reporting

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

// Sink writes a finished run report to durable storage.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	Write(ctx context.Context, report *schemas.RunReport) error
}

// Config selects and configures the file sink.
type Config struct {
	// Path of the artifact; "" or "stdout" writes to standard output.
	Path string `mapstructure:"path" yaml:"path"`
	// Format is xlsx, csv or jsonl. Empty infers it from Path's extension.
	Format string `mapstructure:"format" yaml:"format"`
	// Sheet names the worksheet of xlsx output.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`
	// AutoOpen opens the artifact with the desktop's default application.
	AutoOpen bool `mapstructure:"auto_open" yaml:"auto_open"`
}

// DefaultConfig writes results.xlsx and opens it afterwards.
func DefaultConfig() Config {
	return Config{Path: "results.xlsx", Sheet: "Results", AutoOpen: true}
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

func isStdout(path string) bool { return path == "" || path == "stdout" }

// formatOf resolves the effective format for cfg.
func formatOf(cfg Config) string {
	if cfg.Format != "" {
		return strings.ToLower(cfg.Format)
	}
	if isStdout(cfg.Path) {
		return "csv"
	}
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".csv":
		return "csv"
	case ".jsonl", ".ndjson", ".json":
		return "jsonl"
	default:
		return "xlsx"
	}
}

// NewSink creates the file sink described by cfg.
func NewSink(cfg Config) (Sink, error) {
	path := cfg.Path
	if !isStdout(path) {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand output path %s: %w", path, err)
		}
		path = expanded
	}

	switch format := formatOf(cfg); format {
	case "xlsx":
		if isStdout(path) {
			return nil, fmt.Errorf("xlsx output requires a file path")
		}
		sheet := cfg.Sheet
		if sheet == "" {
			sheet = DefaultConfig().Sheet
		}
		return &xlsxSink{path: path, sheet: sheet}, nil
	case "csv":
		return &csvSink{path: path}, nil
	case "jsonl":
		return &jsonlSink{path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// create opens path for writing, or stdout.
func create(path string) (io.WriteCloser, error) {
	if isStdout(path) {
		return &nopWriteCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, nil
}
