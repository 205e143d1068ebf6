package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the closed set of per-action request bodies
type Payload interface {
	// Action returns the action the payload belongs to
	Action() Action

	// Note returns the free-text note recorded in the audit trail
	Note() string

	sealed()
}

// HistoryNote is the optional audit note accepted by every action
type HistoryNote struct {
	HistoryNotes string `json:"history_notes,omitempty"`
}

// Note returns the audit note
func (h HistoryNote) Note() string { return h.HistoryNotes }

func (HistoryNote) sealed() {}

// RouteToInstitutionPayload chooses the institution asked to respond
type RouteToInstitutionPayload struct {
	InstitutionID int64 `json:"institution_id"`
	HistoryNote
}

// InstitutionRespondPayload carries the institution's answer
type InstitutionRespondPayload struct {
	Response       string `json:"response"`
	CorrectiveInfo string `json:"corrective_info,omitempty"`
	HistoryNote
}

// ExpertEvaluationPayload carries the subject-matter review
type ExpertEvaluationPayload struct {
	Evaluation string `json:"evaluation"`
	HistoryNote
}

// RouteToLegalPayload has no fields beyond the audit note
type RouteToLegalPayload struct {
	HistoryNote
}

// LegalReviewPayload carries the legal decision. Approved is a pointer so an
// omitted decision can be told apart from a rejection.
type LegalReviewPayload struct {
	Assessment string `json:"assessment"`
	Notes      string `json:"notes,omitempty"`
	Approved   *bool  `json:"approved"`
	HistoryNote
}

// FinalControlPayload carries the IDP desk's closing notes
type FinalControlPayload struct {
	Notes          string `json:"notes"`
	Recommendation string `json:"recommendation,omitempty"`
	HistoryNote
}

// CompleteAndReportPayload may carry report text written by the approver.
// Empty fields are drafted by the system.
type CompleteAndReportPayload struct {
	InternalReport string `json:"internal_report,omitempty"`
	ExternalReport string `json:"external_report,omitempty"`
	HistoryNote
}

func (RouteToInstitutionPayload) Action() Action { return ActionRouteToInstitution }
func (InstitutionRespondPayload) Action() Action { return ActionInstitutionRespond }
func (ExpertEvaluationPayload) Action() Action   { return ActionAddExpertEvaluation }
func (RouteToLegalPayload) Action() Action       { return ActionRouteToLegal }
func (LegalReviewPayload) Action() Action        { return ActionLegalReview }
func (FinalControlPayload) Action() Action       { return ActionAddFinalControl }
func (CompleteAndReportPayload) Action() Action  { return ActionCompleteAndReport }

// newPayload returns an empty payload value for the action
func newPayload(action Action) (Payload, bool) {
	switch action {
	case ActionRouteToInstitution:
		return &RouteToInstitutionPayload{}, true
	case ActionInstitutionRespond:
		return &InstitutionRespondPayload{}, true
	case ActionAddExpertEvaluation:
		return &ExpertEvaluationPayload{}, true
	case ActionRouteToLegal:
		return &RouteToLegalPayload{}, true
	case ActionLegalReview:
		return &LegalReviewPayload{}, true
	case ActionAddFinalControl:
		return &FinalControlPayload{}, true
	case ActionCompleteAndReport:
		return &CompleteAndReportPayload{}, true
	}
	return nil, false
}

// DecodePayload decodes raw JSON into the payload type owned by action.
// Unknown fields are rejected. An empty body decodes to the zero payload.
func DecodePayload(action Action, raw json.RawMessage) (Payload, error) {
	p, ok := newPayload(action)
	if !ok {
		return nil, UnknownAction(action)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Normalize(p), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, InvalidPayload([]Violation{{
			Field:   "payload",
			Message: fmt.Sprintf("cannot decode %s payload: %v", action, err),
		}})
	}
	return Normalize(p), nil
}

// Normalize turns a pointer payload back into a value so guards can type switch
// on plain struct types.
func Normalize(p Payload) Payload {
	switch v := p.(type) {
	case *RouteToInstitutionPayload:
		return *v
	case *InstitutionRespondPayload:
		return *v
	case *ExpertEvaluationPayload:
		return *v
	case *RouteToLegalPayload:
		return *v
	case *LegalReviewPayload:
		return *v
	case *FinalControlPayload:
		return *v
	case *CompleteAndReportPayload:
		return *v
	}
	return p
}
