package port

import (
	"context"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// ReportDrafter writes the public correction notice for a completed case
type ReportDrafter interface {
	DraftExternalReport(ctx context.Context, c *entity.Case, institutionName string) (string, error)
}

// TagSuggester proposes tags for a new case from its text
type TagSuggester interface {
	SuggestTags(ctx context.Context, title, description string) ([]string, error)
}

// LarkMessageSender defines message sending operations
type LarkMessageSender interface {
	SendTextMessage(ctx context.Context, openID string, text string) error
}

// HistoryExporter renders a case's audit trail as a spreadsheet
type HistoryExporter interface {
	ExportHistory(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error)
}
