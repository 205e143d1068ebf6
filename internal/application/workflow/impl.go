package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/dispatcher"
	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/domain/event"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	catalog         *domainwf.Catalog
	caseRepo        port.CaseRepository
	institutionRepo port.InstitutionRepository
	txManager       port.TransactionManager
	recorder        AuditRecorder

	dispatcher   dispatcher.Dispatcher
	drafter      port.ReportDrafter
	draftTimeout time.Duration
	clock        func() time.Time
	logger       Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithReportDrafter sets the drafter used for the external report at
// completion. Without one the template text is used.
func WithReportDrafter(d port.ReportDrafter, timeout time.Duration) EngineOption {
	return func(e *engineImpl) {
		e.drafter = d
		if timeout > 0 {
			e.draftTimeout = timeout
		}
	}
}

// WithClock overrides the time source for stamps
func WithClock(clock func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.clock = clock
	}
}

// WithLogger sets the engine logger
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	catalog *domainwf.Catalog,
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	institutionRepo port.InstitutionRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		catalog:         catalog,
		caseRepo:        caseRepo,
		institutionRepo: institutionRepo,
		txManager:       txManager,
		recorder:        NewAuditRecorder(historyRepo),
		draftTimeout:    20 * time.Second,
		clock:           func() time.Time { return time.Now().UTC() },
		logger:          nopLogger{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs lookup, authorization and guards, then applies the effect and
// the audit entry in one transaction
func (e *engineImpl) Execute(ctx context.Context, req Request) (*Result, error) {
	req.Payload = domainwf.Normalize(req.Payload)

	c, err := e.caseRepo.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %d: %w", req.CaseID, err)
	}
	if c == nil {
		return nil, domainwf.NotFound(req.CaseID)
	}

	t, err := e.catalog.Lookup(c.Status, req.Action)
	if err != nil {
		return nil, err
	}

	if err := domainwf.Authorize(req.Actor, t, c); err != nil {
		return nil, err
	}

	if err := domainwf.Evaluate(t, c, req.Payload); err != nil {
		return nil, err
	}

	if err := e.checkReferences(ctx, req.Payload); err != nil {
		return nil, err
	}

	// Drafting may call out to a remote model; keep it outside the transaction.
	var report *domainwf.ReportDraft
	if t.NeedsReport() {
		report = e.draftReport(ctx, c, req.Payload)
	}

	now := e.clock()
	var result Result

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := e.caseRepo.GetByID(txCtx, req.CaseID)
		if err != nil {
			return fmt.Errorf("failed to reload case %d: %w", req.CaseID, err)
		}
		if current == nil {
			return domainwf.NotFound(req.CaseID)
		}
		if current.Status != c.Status || current.Version != c.Version {
			return domainwf.Conflict(c.ID, c.Status)
		}

		next := domainwf.Apply(t, current, domainwf.EffectInput{
			Payload: req.Payload,
			Actor:   req.Actor,
			Now:     now,
			Report:  report,
		})

		if err := e.caseRepo.ApplyTransition(txCtx, next, current.Status, current.Version); err != nil {
			if errors.Is(err, port.ErrStaleCase) {
				return domainwf.Conflict(c.ID, c.Status)
			}
			return fmt.Errorf("failed to update case %d: %w", c.ID, err)
		}

		entry, err := e.recorder.Record(txCtx, next, current.Status, next.Status, req.Actor, t.Action, req.Payload.Note(), now)
		if err != nil {
			return err
		}

		result = Result{Case: next, HistoryEntry: entry}
		return nil
	})
	if err != nil {
		if domainwf.CodeOf(err) == "" {
			e.logger.Error("Transition failed",
				"case_id", req.CaseID,
				"action", req.Action,
				"error", err,
			)
		}
		return nil, err
	}

	e.logger.Info("Case transitioned",
		"case_id", c.ID,
		"action", t.Action,
		"from", t.From,
		"to", t.To,
		"actor_id", req.Actor.UserID,
	)

	e.emitStatusChanged(ctx, req, t, &result)
	return &result, nil
}

// checkReferences validates payload fields that point at other records
func (e *engineImpl) checkReferences(ctx context.Context, p domainwf.Payload) error {
	route, ok := p.(domainwf.RouteToInstitutionPayload)
	if !ok {
		return nil
	}

	inst, err := e.institutionRepo.GetByID(ctx, route.InstitutionID)
	if err != nil {
		return fmt.Errorf("failed to load institution %d: %w", route.InstitutionID, err)
	}
	if inst == nil {
		return domainwf.InvalidPayload([]domainwf.Violation{{Field: "institution_id", Message: "institution does not exist"}})
	}
	if !inst.Active {
		return domainwf.InvalidPayload([]domainwf.Violation{{Field: "institution_id", Message: "institution is not active"}})
	}
	return nil
}

func (e *engineImpl) draftReport(ctx context.Context, c *entity.Case, p domainwf.Payload) *domainwf.ReportDraft {
	completion, _ := p.(domainwf.CompleteAndReportPayload)

	institutionName := ""
	if c.TargetInstitutionID != nil {
		inst, err := e.institutionRepo.GetByID(ctx, *c.TargetInstitutionID)
		if err != nil {
			e.logger.Error("Failed to load institution for report", "case_id", c.ID, "error", err)
		} else if inst != nil {
			institutionName = inst.Name
		}
	}

	draft := domainwf.ComposeReport(c, completion, institutionName)

	if e.drafter != nil && strings.TrimSpace(completion.ExternalReport) == "" {
		dctx, cancel := context.WithTimeout(ctx, e.draftTimeout)
		defer cancel()

		text, err := e.drafter.DraftExternalReport(dctx, c, institutionName)
		switch {
		case err != nil:
			e.logger.Error("Report drafting failed, using template", "case_id", c.ID, "error", err)
		case strings.TrimSpace(text) != "":
			draft.External = text
		}
	}

	return &draft
}

func (e *engineImpl) emitStatusChanged(ctx context.Context, req Request, t domainwf.Transition, result *Result) {
	if e.dispatcher == nil {
		return
	}

	payload := map[string]interface{}{
		event.KeyOldStatus:  t.From.String(),
		event.KeyNewStatus:  t.To.String(),
		event.KeyAction:     t.Action.String(),
		event.KeyActorID:    req.Actor.UserID,
		event.KeyActorRole:  req.Actor.Role.String(),
		event.KeyCaseNumber: result.Case.CaseNumber,
		event.KeyHistoryID:  result.HistoryEntry.ID,
	}
	if result.Case.TargetInstitutionID != nil {
		payload[event.KeyInstitutionID] = *result.Case.TargetInstitutionID
	}

	var evt *event.Event
	if req.CorrelationID != "" {
		evt = event.NewEventWithCorrelation(event.TypeCaseStatusChanged, result.Case.ID, payload, req.CorrelationID)
	} else {
		evt = event.NewEvent(event.TypeCaseStatusChanged, result.Case.ID, payload)
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}

// Transitions returns the catalog rows in configured order
func (e *engineImpl) Transitions() []domainwf.Transition {
	return e.catalog.Transitions()
}

// AvailableActions lists the actions actor may attempt on c
func (e *engineImpl) AvailableActions(c *entity.Case, actor domainwf.Actor) []domainwf.Action {
	actions := []domainwf.Action{}
	for _, action := range e.catalog.AvailableActions(c.Status, actor.Role) {
		t, err := e.catalog.Lookup(c.Status, action)
		if err != nil {
			continue
		}
		if domainwf.Authorize(actor, t, c) == nil {
			actions = append(actions, action)
		}
	}
	return actions
}
