package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/technova-hub/extraction-api/internal/entity"
	"github.com/technova-hub/extraction-api/internal/repository"
)

// Service is a tiny façade over the repository that produces CSV and XLSX
// documents for exports.
type Service struct {
	repo   repository.ExtractionRepository
	logger *slog.Logger
}

func NewService(repo repository.ExtractionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// WriteCSV streams the filtered extractions to w as CSV and returns the
// number of data rows written. Rows keep the listing order, most recent
// first.
func (s *Service) WriteCSV(ctx context.Context, filter repository.Filter, w io.Writer) (int, error) {
	start := time.Now()

	recs, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("query extractions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Filename", "Date", "Status"}); err != nil {
		return 0, err
	}
	for _, rec := range recs {
		row := []string{rec.Filename, rec.ExtractionDate.Format(entity.TimeLayout), rec.Status}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	s.logger.Info("export.csv.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(recs), nil
}

// BuildXLSX returns an XLSX workbook (as bytes) for the filtered extractions.
func (s *Service) BuildXLSX(ctx context.Context, filter repository.Filter) ([]byte, error) {
	start := time.Now()

	recs, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Filename",
		"Date",
		"Status",
		"Size (bytes)",
		"MIME Type",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, rec := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		// 1) Filename
		write(1, rec.Filename)

		// 2) Date (stored layout)
		write(2, rec.ExtractionDate.Format(entity.TimeLayout))

		// 3) Status
		write(3, rec.Status)

		// 4) Size in bytes, blank when unknown
		if rec.FileSize != nil {
			write(4, *rec.FileSize)
		} else {
			write(4, "")
		}

		// 5) MIME Type
		write(5, rec.MIMEType)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 36) // filename
	_ = f.SetColWidth(sheet, "B", "B", 20) // date
	_ = f.SetColWidth(sheet, "C", "C", 10) // status
	_ = f.SetColWidth(sheet, "D", "D", 14) // size
	_ = f.SetColWidth(sheet, "E", "E", 18) // mime type

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
