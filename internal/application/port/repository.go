package port

import (
	"context"
	"errors"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

var (
	// ErrStaleCase is returned by ApplyTransition when the stored row no longer
	// matches the expected status and version
	ErrStaleCase = errors.New("case changed since it was read")

	// ErrDuplicateCaseNumber is returned by Create when the case number is taken
	ErrDuplicateCaseNumber = errors.New("case number already exists")
)

// CaseFilter narrows case listings. Zero values mean no restriction.
type CaseFilter struct {
	Statuses            []entity.Status
	TargetInstitutionID *int64
	Limit               int
	Offset              int
}

// CaseRepository defines persistence operations for Case.
// There is no general status update; status moves only
// through ApplyTransition.
type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id int64) (*entity.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]*entity.Case, error)

	// ApplyTransition writes next if the stored row still has the expected
	// status and version, and bumps the version. Returns ErrStaleCase otherwise.
	ApplyTransition(ctx context.Context, next *entity.Case, expected entity.Status, expectedVersion int64) error
}

// HistoryRepository defines persistence operations for CaseHistory.
// Entries are append-only.
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.CaseHistory) error
	ListByCaseID(ctx context.Context, caseID int64) ([]*entity.CaseHistory, error)
}

// InstitutionRepository defines persistence operations for Institution
type InstitutionRepository interface {
	Create(ctx context.Context, inst *entity.Institution) error
	GetByID(ctx context.Context, id int64) (*entity.Institution, error)
	ListActive(ctx context.Context) ([]*entity.Institution, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
