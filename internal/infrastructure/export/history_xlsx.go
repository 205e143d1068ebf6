package export

import (
	"bytes"
	"fmt"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	summarySheet = "Case"
	historySheet = "History"
	timeLayout   = "2006-01-02 15:04:05"
)

var historyHeader = []interface{}{"#", "Time (UTC)", "User ID", "Action", "From", "To", "Notes"}

// HistoryExcelExporter implements port.HistoryExporter with excelize
type HistoryExcelExporter struct {
	logger *zap.Logger
}

// NewHistoryExcelExporter creates a new exporter
func NewHistoryExcelExporter(logger *zap.Logger) *HistoryExcelExporter {
	return &HistoryExcelExporter{logger: logger}
}

// ExportHistory renders a summary sheet and one history row per entry
func (e *HistoryExcelExporter) ExportHistory(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Case number", c.CaseNumber},
		{"Title", c.Title},
		{"Status", c.Status.String()},
		{"Platform", c.Platform},
		{"Priority", c.Priority},
		{"Created", c.CreatedAt.UTC().Format(timeLayout)},
	}
	for i, row := range summary {
		if err := e.setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	if err := e.setRow(f, historySheet, 1, historyHeader); err != nil {
		return nil, err
	}
	for i, h := range entries {
		row := []interface{}{
			i + 1,
			h.CreatedAt.UTC().Format(timeLayout),
			h.UserID,
			h.Action,
			h.OldStatus.String(),
			h.NewStatus.String(),
			h.Notes,
		}
		if err := e.setRow(f, historySheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		if err := f.SetRowStyle(historySheet, 1, 1, style); err != nil {
			e.logger.Warn("Failed to style header row", zap.Error(err))
		}
	}
	if err := f.SetColWidth(historySheet, "B", "B", 20); err != nil {
		e.logger.Warn("Failed to set column width", zap.Error(err))
	}
	if err := f.SetColWidth(historySheet, "D", "G", 24); err != nil {
		e.logger.Warn("Failed to set column width", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("History workbook rendered",
		zap.Int64("case_id", c.ID),
		zap.Int("entries", len(entries)))

	return buf.Bytes(), nil
}

func (e *HistoryExcelExporter) setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
