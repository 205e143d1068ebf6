package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// AuditRecorder appends audit trail entries. It must be called with the
// transaction context of the case write it documents.
type AuditRecorder interface {
	Record(ctx context.Context, c *entity.Case, from, to entity.Status, actor domainwf.Actor, action domainwf.Action, notes string, at time.Time) (*entity.CaseHistory, error)
}

type historyRecorder struct {
	historyRepo port.HistoryRepository
}

// NewAuditRecorder creates a recorder backed by the history repository
func NewAuditRecorder(historyRepo port.HistoryRepository) AuditRecorder {
	return &historyRecorder{historyRepo: historyRepo}
}

// Record writes one history row
func (r *historyRecorder) Record(ctx context.Context, c *entity.Case, from, to entity.Status, actor domainwf.Actor, action domainwf.Action, notes string, at time.Time) (*entity.CaseHistory, error) {
	entry := &entity.CaseHistory{
		CaseID:    c.ID,
		UserID:    actor.UserID,
		Action:    action.String(),
		OldStatus: from,
		NewStatus: to,
		Notes:     notes,
		CreatedAt: at,
	}

	if err := r.historyRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record history for case %d: %w", c.ID, err)
	}
	return entry, nil
}
