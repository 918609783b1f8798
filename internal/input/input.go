// Package input reads the identifiers to look up from a tabular file.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/xuri/excelize/v2"
)

var (
	ErrColumnNotFound    = errors.New("identifier column not found")
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Config locates the identifier list.
type Config struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Column string `mapstructure:"column" yaml:"column"`
	// Sheet is the xlsx worksheet; empty means the first one.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`
}

func DefaultConfig() Config {
	return Config{Path: "input_ids.xlsx", Column: "id"}
}

// ReadIdentifiers returns the values of column from the file at path, in
// file order. The first row is the header. Blank cells are skipped.
func ReadIdentifiers(path, column string) ([]string, error) {
	return Read(Config{Path: path, Column: column})
}

// Read is ReadIdentifiers with a worksheet choice.
func Read(cfg Config) ([]string, error) {
	path, err := homedir.Expand(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand input path %s: %w", cfg.Path, err)
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, cfg.Sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return column(rows, cfg.Column)
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
}

// column extracts the named column. Header matching ignores case and
// surrounding whitespace; a leading UTF-8 BOM is tolerated.
func column(rows [][]string, name string) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (file is empty)", ErrColumnNotFound, name)
	}
	idx := -1
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\uFEFF")
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	ids := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			ids = append(ids, v)
		}
	}
	return ids, nil
}
