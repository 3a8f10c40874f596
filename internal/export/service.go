// Package export renders extracted lab records as an XLSX workbook for
// download alongside the JSON response.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/adityaks/labreport-extractor/internal/format"
)

// Service produces XLSX bytes for extracted records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook (as bytes) with one row per
// extracted test. sourceName labels the sheet metadata row so a downloaded
// workbook still says which upload it came from.
func (s *Service) ExportRecordsXLSX(sourceName string, records []format.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Lab Tests"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// drop the default sheet so the workbook opens on ours
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Test Name",
		"Value",
		"Unit",
		"Reference Range",
		"Out Of Range",
		"Source File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.TestName)
		write(2, r.Value)
		write(3, r.Unit)
		write(4, r.ReferenceRange)
		write(5, r.OutOfRange)
		write(6, sourceName)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 32) // test name
	_ = f.SetColWidth(sheet, "D", "D", 18) // range
	_ = f.SetColWidth(sheet, "F", "F", 28) // source file

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.done",
		"source", sourceName,
		"rows", len(records),
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
