package workflow

import "github.com/garyjia/dmm-case-workflow/internal/domain/entity"

// Action is a named operation a role may attempt against a case
type Action string

const (
	ActionRouteToInstitution  Action = "route_to_institution"
	ActionInstitutionRespond  Action = "institution_respond"
	ActionAddExpertEvaluation Action = "add_expert_evaluation"
	ActionRouteToLegal        Action = "route_to_legal"
	ActionLegalReview         Action = "legal_review"
	ActionAddFinalControl     Action = "add_final_control"
	ActionCompleteAndReport   Action = "complete_and_report"

	// ActionCreateCase only appears in the audit trail seed row.
	ActionCreateCase Action = "create_case"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Actor is the verified identity performing an action
type Actor struct {
	UserID        int64
	Role          entity.Role
	InstitutionID *int64
}

// BelongsTo reports whether the actor acts on behalf of the institution
func (a Actor) BelongsTo(institutionID int64) bool {
	return a.InstitutionID != nil && *a.InstitutionID == institutionID
}
