package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/dispatcher"
	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/application/workflow"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/domain/event"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
	"github.com/garyjia/dmm-case-workflow/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ActionCreateCase is the history action of the seed row written at creation
const ActionCreateCase = domainwf.ActionCreateCase

const maxCaseNumberAttempts = 5

// legalVisibleStatuses are the statuses a legal reviewer may see
var legalVisibleStatuses = []entity.Status{
	entity.StatusLegalReview,
	entity.StatusFinalControl,
	entity.StatusAwaitingCompletion,
	entity.StatusCompleted,
}

// CreateCaseInput holds the intake form fields
type CreateCaseInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Platform        string   `json:"platform"`
	Priority        string   `json:"priority"`
	GeographicScope string   `json:"geographic_scope"`
	SourceType      string   `json:"source_type"`
	SourceURL       string   `json:"source_url"`
	Tags            []string `json:"tags"`
	IDPAssessment   string   `json:"idp_assessment"`
	IDPNotes        string   `json:"idp_notes"`
}

// ListOptions narrows a case listing
type ListOptions struct {
	Status entity.Status
	Limit  int
	Offset int
}

// CaseView is a case together with what the caller may do next
type CaseView struct {
	Case             *entity.Case      `json:"case"`
	AvailableActions []domainwf.Action `json:"available_actions"`
}

// ActionResult is the outcome of an accepted workflow action
type ActionResult struct {
	Case             *entity.Case        `json:"case"`
	HistoryEntry     *entity.CaseHistory `json:"history_entry"`
	AvailableActions []domainwf.Action   `json:"available_actions"`
}

// TransitionView is one catalog row as shown to clients
type TransitionView struct {
	From              entity.Status   `json:"from"`
	Action            domainwf.Action `json:"action"`
	To                entity.Status   `json:"to"`
	Role              entity.Role     `json:"role"`
	InstitutionScoped bool            `json:"institution_scoped"`
	CallerMayInvoke   bool            `json:"caller_may_invoke"`
}

// CaseService manages cases around the workflow engine
type CaseService interface {
	CreateCase(ctx context.Context, actor domainwf.Actor, input CreateCaseInput) (*CaseView, error)
	GetCase(ctx context.Context, actor domainwf.Actor, id int64) (*CaseView, error)
	ListCases(ctx context.Context, actor domainwf.Actor, opts ListOptions) ([]*entity.Case, error)
	GetHistory(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Case, []*entity.CaseHistory, error)
	PerformAction(ctx context.Context, actor domainwf.Actor, id int64, action string, payload json.RawMessage, correlationID string) (*ActionResult, error)
	ListInstitutions(ctx context.Context) ([]*entity.Institution, error)
	ListTransitions(actor domainwf.Actor) []TransitionView
	AssessCase(ctx context.Context, actor domainwf.Actor, input AssessCaseInput) (*CaseAssessment, error)
}

type caseServiceImpl struct {
	caseRepo        port.CaseRepository
	historyRepo     port.HistoryRepository
	institutionRepo port.InstitutionRepository
	txManager       port.TransactionManager
	engine          workflow.WorkflowEngine
	dispatcher      dispatcher.Dispatcher
	logger          Logger

	suggester      port.TagSuggester
	suggestTimeout time.Duration

	now        func() time.Time
	caseNumber func(now time.Time) string
}

// CaseServiceOption configures the case service
type CaseServiceOption func(*caseServiceImpl)

// WithTagSuggester sets the model used to propose tags. Without one tags
// come from keyword extraction only.
func WithTagSuggester(suggester port.TagSuggester, timeout time.Duration) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.suggester = suggester
		if timeout > 0 {
			s.suggestTimeout = timeout
		}
	}
}

// NewCaseService creates a new CaseService. dispatcher may be nil.
func NewCaseService(
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	institutionRepo port.InstitutionRepository,
	txManager port.TransactionManager,
	engine workflow.WorkflowEngine,
	dispatcher dispatcher.Dispatcher,
	logger Logger,
	opts ...CaseServiceOption,
) CaseService {
	s := &caseServiceImpl{
		caseRepo:        caseRepo,
		historyRepo:     historyRepo,
		institutionRepo: institutionRepo,
		txManager:       txManager,
		engine:          engine,
		dispatcher:      dispatcher,
		logger:          logger,
		suggestTimeout:  10 * time.Second,
		now:             func() time.Time { return time.Now().UTC() },
		caseNumber:      randomCaseNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomCaseNumber returns DMM-YYYYMMDD-NNN with a random suffix
func randomCaseNumber(now time.Time) string {
	return fmt.Sprintf("DMM-%s-%03d", now.Format("20060102"), rand.Intn(1000))
}

// CreateCase opens a case in IDP_FORM and writes the seed history row
func (s *caseServiceImpl) CreateCase(ctx context.Context, actor domainwf.Actor, input CreateCaseInput) (*CaseView, error) {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleIDPPersonnel {
		return nil, domainwf.Forbidden("only admin and IDP personnel can open cases")
	}

	c, err := buildCase(input)
	if err != nil {
		return nil, err
	}
	c.CreatedByID = actor.UserID
	if len(c.Tags) == 0 {
		c.Tags, _ = s.suggestTags(ctx, c.Title, c.Description)
	}

	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	for attempt := 1; ; attempt++ {
		c.CaseNumber = s.caseNumber(now)
		if err := utils.ValidateCaseNumber(c.CaseNumber); err != nil {
			return nil, fmt.Errorf("generate case number: %w", err)
		}
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.caseRepo.Create(txCtx, c); err != nil {
				return err
			}
			return s.historyRepo.Create(txCtx, &entity.CaseHistory{
				CaseID:    c.ID,
				UserID:    actor.UserID,
				Action:    ActionCreateCase.String(),
				OldStatus: entity.StatusIDPForm,
				NewStatus: entity.StatusIDPForm,
				Notes:     "Case created",
				CreatedAt: now,
			})
		})
		if err == nil {
			break
		}
		if errors.Is(err, port.ErrDuplicateCaseNumber) && attempt < maxCaseNumberAttempts {
			continue
		}
		s.logger.Error("Failed to create case", "error", err, "case_number", c.CaseNumber)
		return nil, fmt.Errorf("create case: %w", err)
	}

	s.logger.Info("Case created",
		"case_id", c.ID,
		"case_number", c.CaseNumber,
		"actor_id", actor.UserID,
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeCaseCreated, c.ID, map[string]interface{}{
			event.KeyCaseNumber: c.CaseNumber,
			event.KeyActorID:    actor.UserID,
			event.KeyActorRole:  actor.Role.String(),
		}))
	}

	return &CaseView{Case: c, AvailableActions: s.engine.AvailableActions(c, actor)}, nil
}

func buildCase(input CreateCaseInput) (*entity.Case, error) {
	c := &entity.Case{
		Title:           utils.SanitizeString(input.Title),
		Description:     utils.SanitizeString(input.Description),
		Platform:        strings.ToUpper(strings.TrimSpace(input.Platform)),
		Priority:        strings.ToUpper(strings.TrimSpace(input.Priority)),
		GeographicScope: strings.ToUpper(strings.TrimSpace(input.GeographicScope)),
		SourceType:      strings.ToUpper(strings.TrimSpace(input.SourceType)),
		SourceURL:       strings.TrimSpace(input.SourceURL),
		IDPAssessment:   utils.SanitizeString(input.IDPAssessment),
		IDPNotes:        utils.SanitizeString(input.IDPNotes),
		Status:          entity.StatusIDPForm,
		Tags:            []string{},
	}
	for _, tag := range input.Tags {
		if tag = utils.SanitizeString(tag); tag != "" {
			c.Tags = append(c.Tags, tag)
		}
	}

	// Optional descriptors fall back to the intake form defaults
	if c.Priority == "" {
		c.Priority = entity.PriorityMedium
	}
	if c.GeographicScope == "" {
		c.GeographicScope = entity.ScopeNational
	}
	if c.SourceType == "" {
		c.SourceType = entity.SourceSocialMedia
	}

	var violations []domainwf.Violation
	if c.Title == "" {
		violations = append(violations, domainwf.Violation{Field: "title", Message: "title is required"})
	}
	if !entity.IsValidPlatform(c.Platform) {
		violations = append(violations, domainwf.Violation{Field: "platform", Message: "unknown platform"})
	}
	if !entity.IsValidPriority(c.Priority) {
		violations = append(violations, domainwf.Violation{Field: "priority", Message: "unknown priority"})
	}
	if !entity.IsValidScope(c.GeographicScope) {
		violations = append(violations, domainwf.Violation{Field: "geographic_scope", Message: "unknown geographic scope"})
	}
	if !entity.IsValidSourceType(c.SourceType) {
		violations = append(violations, domainwf.Violation{Field: "source_type", Message: "unknown source type"})
	}
	if err := utils.ValidateSourceURL(c.SourceURL); err != nil {
		violations = append(violations, domainwf.Violation{Field: "source_url", Message: err.Error()})
	}
	if len(violations) > 0 {
		return nil, domainwf.InvalidPayload(violations)
	}
	return c, nil
}

// canSee applies role-based visibility. Hidden cases are reported as missing.
func canSee(actor domainwf.Actor, c *entity.Case) bool {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleIDPPersonnel:
		return true
	case entity.RoleLegalPersonnel:
		for _, st := range legalVisibleStatuses {
			if c.Status == st {
				return true
			}
		}
		return false
	case entity.RoleInstitutionUser:
		return actor.InstitutionID != nil && c.IsTargetedAt(*actor.InstitutionID)
	}
	return false
}

func (s *caseServiceImpl) loadVisible(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get case", "error", err, "case_id", id)
		return nil, fmt.Errorf("get case: %w", err)
	}
	if c == nil || !canSee(actor, c) {
		return nil, domainwf.NotFound(id)
	}
	return c, nil
}

// GetCase returns a visible case and the caller's available actions
func (s *caseServiceImpl) GetCase(ctx context.Context, actor domainwf.Actor, id int64) (*CaseView, error) {
	c, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &CaseView{Case: c, AvailableActions: s.engine.AvailableActions(c, actor)}, nil
}

// ListCases lists the cases visible to actor, newest first
func (s *caseServiceImpl) ListCases(ctx context.Context, actor domainwf.Actor, opts ListOptions) ([]*entity.Case, error) {
	filter := port.CaseFilter{Limit: opts.Limit, Offset: opts.Offset}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if opts.Status != "" {
		if !opts.Status.IsValid() {
			return nil, domainwf.InvalidPayload([]domainwf.Violation{{Field: "status", Message: "unknown status"}})
		}
		filter.Statuses = []entity.Status{opts.Status}
	}

	switch actor.Role {
	case entity.RoleAdmin, entity.RoleIDPPersonnel:
	case entity.RoleLegalPersonnel:
		if opts.Status == "" {
			filter.Statuses = legalVisibleStatuses
		} else if !canSee(actor, &entity.Case{Status: opts.Status}) {
			return []*entity.Case{}, nil
		}
	case entity.RoleInstitutionUser:
		if actor.InstitutionID == nil {
			return []*entity.Case{}, nil
		}
		filter.TargetInstitutionID = actor.InstitutionID
	default:
		return []*entity.Case{}, nil
	}

	cases, err := s.caseRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list cases", "error", err, "role", actor.Role)
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// GetHistory returns the audit trail of a visible case in creation order
func (s *caseServiceImpl) GetHistory(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Case, []*entity.CaseHistory, error) {
	c, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.historyRepo.ListByCaseID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list case history", "error", err, "case_id", id)
		return nil, nil, fmt.Errorf("list history: %w", err)
	}
	return c, entries, nil
}

// PerformAction decodes the payload for action and hands it to the engine
func (s *caseServiceImpl) PerformAction(ctx context.Context, actor domainwf.Actor, id int64, action string, payload json.RawMessage, correlationID string) (*ActionResult, error) {
	act := domainwf.Action(strings.TrimSpace(action))
	p, err := domainwf.DecodePayload(act, payload)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, workflow.Request{
		CaseID:        id,
		Actor:         actor,
		Action:        act,
		Payload:       p,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	return &ActionResult{
		Case:             result.Case,
		HistoryEntry:     result.HistoryEntry,
		AvailableActions: s.engine.AvailableActions(result.Case, actor),
	}, nil
}

// ListInstitutions returns the active institutions
func (s *caseServiceImpl) ListInstitutions(ctx context.Context) ([]*entity.Institution, error) {
	institutions, err := s.institutionRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list institutions", "error", err)
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return institutions, nil
}

// ListTransitions describes the workflow, marking the rows open to actor's role
func (s *caseServiceImpl) ListTransitions(actor domainwf.Actor) []TransitionView {
	rows := s.engine.Transitions()
	views := make([]TransitionView, 0, len(rows))
	for _, t := range rows {
		views = append(views, TransitionView{
			From:              t.From,
			Action:            t.Action,
			To:                t.To,
			Role:              t.Role,
			InstitutionScoped: t.InstitutionScoped(),
			CallerMayInvoke:   t.Role == actor.Role,
		})
	}
	return views
}
