package service

import (
	"context"
	"fmt"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// ExportFile is a rendered download
type ExportFile struct {
	FileName string
	Content  []byte
}

// ExportService renders audit trails for download
type ExportService interface {
	ExportHistory(ctx context.Context, actor domainwf.Actor, caseID int64) (*ExportFile, error)
}

type exportServiceImpl struct {
	cases    CaseService
	exporter port.HistoryExporter
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(cases CaseService, exporter port.HistoryExporter, logger Logger) ExportService {
	return &exportServiceImpl{
		cases:    cases,
		exporter: exporter,
		logger:   logger,
	}
}

// ExportHistory renders the history of a visible case as a spreadsheet
func (s *exportServiceImpl) ExportHistory(ctx context.Context, actor domainwf.Actor, caseID int64) (*ExportFile, error) {
	c, entries, err := s.cases.GetHistory(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}

	content, err := s.exporter.ExportHistory(c, entries)
	if err != nil {
		s.logger.Error("Failed to export history", "error", err, "case_id", caseID)
		return nil, fmt.Errorf("export history: %w", err)
	}

	s.logger.Info("History exported", "case_id", caseID, "entries", len(entries), "bytes", len(content))
	return &ExportFile{
		FileName: fmt.Sprintf("%s-history.xlsx", c.CaseNumber),
		Content:  content,
	}, nil
}
