package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, h *entity.CaseHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO case_history (
			case_id, user_id, action, old_status, new_status, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		h.CaseID,
		h.UserID,
		h.Action,
		h.OldStatus,
		h.NewStatus,
		h.Notes,
		h.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Int64("case_id", h.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListByCaseID returns the audit trail of a case in the order it was written
func (r *HistoryRepository) ListByCaseID(ctx context.Context, caseID int64) ([]*entity.CaseHistory, error) {
	query := `
		SELECT id, case_id, user_id, action, old_status, new_status, notes, created_at
		FROM case_history
		WHERE case_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to get history by case ID", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.CaseHistory{}
	for rows.Next() {
		var record entity.CaseHistory
		if err := rows.Scan(
			&record.ID,
			&record.CaseID,
			&record.UserID,
			&record.Action,
			&record.OldStatus,
			&record.NewStatus,
			&record.Notes,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
