package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

type xlsxSink struct {
	path  string
	sheet string
}

func (s *xlsxSink) Name() string { return "xlsx:" + s.path }

// Path is the workbook location.
func (s *xlsxSink) Path() string { return s.path }

func (s *xlsxSink) Write(ctx context.Context, report *schemas.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), s.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := s.setRow(f, 1, schemas.ReportColumns); err != nil {
		return err
	}
	for i, item := range report.Items {
		if err := s.setRow(f, i+2, item.Row()); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	return nil
}

func (s *xlsxSink) setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(s.sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
