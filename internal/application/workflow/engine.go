package workflow

import (
	"context"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// WorkflowEngine moves cases through the review pipeline
type WorkflowEngine interface {
	// Execute runs one action against a case. Rejections are *domainwf.Error
	// values; the case is unchanged whenever an error is returned.
	Execute(ctx context.Context, req Request) (*Result, error)

	// AvailableActions lists what actor may attempt on c right now,
	// including the institution ownership check
	AvailableActions(c *entity.Case, actor domainwf.Actor) []domainwf.Action

	// Transitions returns the catalog rows in configured order
	Transitions() []domainwf.Transition
}

// Request is one attempted action
type Request struct {
	CaseID  int64
	Actor   domainwf.Actor
	Action  domainwf.Action
	Payload domainwf.Payload

	// CorrelationID links the emitted event to the originating request
	CorrelationID string
}

// Result is the outcome of an accepted action
type Result struct {
	Case         *entity.Case
	HistoryEntry *entity.CaseHistory
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
