// Package memory is an in-process store used by tests and by the
// "memory" database driver. Writers are serialized and a failed transaction
// rolls back by restoring a snapshot; writes outside a transaction wait for
// any open transaction to finish.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

type txKey struct{}

// Store holds cases, history and institutions in memory
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	cases        map[int64]*entity.Case
	history      []*entity.CaseHistory
	institutions map[int64]*entity.Institution

	nextCaseID        int64
	nextHistoryID     int64
	nextInstitutionID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		cases:        make(map[int64]*entity.Case),
		institutions: make(map[int64]*entity.Institution),
	}
}

// Cases returns the case repository view of the store
func (s *Store) Cases() port.CaseRepository { return caseRepo{s} }

// History returns the history repository view of the store
func (s *Store) History() port.HistoryRepository { return historyRepo{s} }

// Institutions returns the institution repository view of the store
func (s *Store) Institutions() port.InstitutionRepository { return institutionRepo{s} }

type snapshot struct {
	cases        map[int64]*entity.Case
	history      []*entity.CaseHistory
	institutions map[int64]*entity.Institution
	ids          [3]int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		cases:        make(map[int64]*entity.Case, len(s.cases)),
		history:      append([]*entity.CaseHistory(nil), s.history...),
		institutions: make(map[int64]*entity.Institution, len(s.institutions)),
		ids:          [3]int64{s.nextCaseID, s.nextHistoryID, s.nextInstitutionID},
	}
	for id, c := range s.cases {
		snap.cases[id] = c.Clone()
	}
	for id, inst := range s.institutions {
		cp := *inst
		snap.institutions[id] = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = snap.cases
	s.history = snap.history
	s.institutions = snap.institutions
	s.nextCaseID, s.nextHistoryID, s.nextInstitutionID = snap.ids[0], snap.ids[1], snap.ids[2]
}

// WithTransaction implements port.TransactionManager
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
	}
	return err
}

// lockWriter takes the writer lock unless ctx is inside a transaction,
// which already holds it. The returned func releases what was taken.
func (s *Store) lockWriter(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type caseRepo struct{ s *Store }

func (r caseRepo) Create(ctx context.Context, c *entity.Case) error {
	defer r.s.lockWriter(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.cases {
		if existing.CaseNumber == c.CaseNumber {
			return port.ErrDuplicateCaseNumber
		}
	}

	r.s.nextCaseID++
	c.ID = r.s.nextCaseID
	c.Version = 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	r.s.cases[c.ID] = c.Clone()
	return nil
}

func (r caseRepo) GetByID(_ context.Context, id int64) (*entity.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cases[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (r caseRepo) List(_ context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	allowed := make(map[entity.Status]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowed[st] = true
	}

	result := []*entity.Case{}
	for _, c := range r.s.cases {
		if len(allowed) > 0 && !allowed[c.Status] {
			continue
		}
		if filter.TargetInstitutionID != nil && !c.IsTargetedAt(*filter.TargetInstitutionID) {
			continue
		}
		result = append(result, c.Clone())
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*entity.Case{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r caseRepo) ApplyTransition(ctx context.Context, next *entity.Case, expected entity.Status, expectedVersion int64) error {
	defer r.s.lockWriter(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.cases[next.ID]
	if !ok || stored.Status != expected || stored.Version != expectedVersion {
		return port.ErrStaleCase
	}

	next.Version = expectedVersion + 1
	r.s.cases[next.ID] = next.Clone()
	return nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, h *entity.CaseHistory) error {
	defer r.s.lockWriter(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextHistoryID++
	h.ID = r.s.nextHistoryID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	cp := *h
	r.s.history = append(r.s.history, &cp)
	return nil
}

func (r historyRepo) ListByCaseID(_ context.Context, caseID int64) ([]*entity.CaseHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*entity.CaseHistory{}
	for _, h := range r.s.history {
		if h.CaseID == caseID {
			cp := *h
			result = append(result, &cp)
		}
	}
	return result, nil
}

type institutionRepo struct{ s *Store }

func (r institutionRepo) Create(ctx context.Context, inst *entity.Institution) error {
	defer r.s.lockWriter(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextInstitutionID++
	inst.ID = r.s.nextInstitutionID
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now().UTC()
	}
	cp := *inst
	r.s.institutions[inst.ID] = &cp
	return nil
}

func (r institutionRepo) GetByID(_ context.Context, id int64) (*entity.Institution, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inst, ok := r.s.institutions[id]
	if !ok {
		return nil, nil
	}
	cp := *inst
	return &cp, nil
}

func (r institutionRepo) ListActive(_ context.Context) ([]*entity.Institution, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*entity.Institution{}
	for _, inst := range r.s.institutions {
		if inst.Active {
			cp := *inst
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Verify interface compliance
var _ port.TransactionManager = (*Store)(nil)
