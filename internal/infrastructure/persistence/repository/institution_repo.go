package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// InstitutionRepository implements port.InstitutionRepository
type InstitutionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstitutionRepository creates a new institution repository
func NewInstitutionRepository(db *sql.DB, logger *zap.Logger) port.InstitutionRepository {
	return &InstitutionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an institution
func (r *InstitutionRepository) Create(ctx context.Context, inst *entity.Institution) error {
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now().UTC()
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		INSERT INTO institutions (code, name, type, lark_open_id, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inst.Code, inst.Name, inst.Type, inst.LarkOpenID, inst.Active, inst.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create institution", zap.String("code", inst.Code), zap.Error(err))
		return fmt.Errorf("failed to create institution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	inst.ID = id
	return nil
}

// GetByID retrieves an institution. Returns nil, nil when it does not exist.
func (r *InstitutionRepository) GetByID(ctx context.Context, id int64) (*entity.Institution, error) {
	var inst entity.Institution
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, code, name, type, lark_open_id, active, created_at
		FROM institutions WHERE id = ?
	`, id).Scan(&inst.ID, &inst.Code, &inst.Name, &inst.Type, &inst.LarkOpenID, &inst.Active, &inst.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get institution by ID", zap.Int64("institution_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return &inst, nil
}

// ListActive returns active institutions ordered by name
func (r *InstitutionRepository) ListActive(ctx context.Context) ([]*entity.Institution, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT id, code, name, type, lark_open_id, active, created_at
		FROM institutions WHERE active = 1 ORDER BY name ASC
	`)
	if err != nil {
		r.logger.Error("Failed to list institutions", zap.Error(err))
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	institutions := []*entity.Institution{}
	for rows.Next() {
		var inst entity.Institution
		if err := rows.Scan(&inst.ID, &inst.Code, &inst.Name, &inst.Type, &inst.LarkOpenID, &inst.Active, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		institutions = append(institutions, &inst)
	}

	return institutions, rows.Err()
}

// Verify interface compliance
var _ port.InstitutionRepository = (*InstitutionRepository)(nil)
