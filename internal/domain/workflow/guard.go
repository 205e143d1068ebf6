package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// GuardFunc inspects the case and payload and returns every failed predicate
type GuardFunc func(c *entity.Case, p Payload) []Violation

// Evaluate runs the guard of t. All violations are collected in one pass.
func Evaluate(t Transition, c *entity.Case, p Payload) error {
	if p == nil || p.Action() != t.Action {
		return InvalidPayload([]Violation{{
			Field:   "payload",
			Message: fmt.Sprintf("expected %s payload", t.Action),
		}})
	}

	if t.guard == nil {
		return nil
	}
	if violations := t.guard(c, Normalize(p)); len(violations) > 0 {
		return InvalidPayload(violations)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RequireTargetInstitution requires a target institution to be chosen
func RequireTargetInstitution(_ *entity.Case, p Payload) []Violation {
	in, _ := p.(RouteToInstitutionPayload)
	if in.InstitutionID <= 0 {
		return []Violation{{Field: "institution_id", Message: "target institution is required"}}
	}
	return nil
}

// RequireInstitutionResponse requires a non-empty institution answer
func RequireInstitutionResponse(_ *entity.Case, p Payload) []Violation {
	in, _ := p.(InstitutionRespondPayload)
	if blank(in.Response) {
		return []Violation{{Field: "response", Message: "institution response is required"}}
	}
	return nil
}

// RequireExpertEvaluation requires a non-empty expert evaluation
func RequireExpertEvaluation(_ *entity.Case, p Payload) []Violation {
	in, _ := p.(ExpertEvaluationPayload)
	if blank(in.Evaluation) {
		return []Violation{{Field: "evaluation", Message: "expert evaluation is required"}}
	}
	return nil
}

// RequireLegalDecision requires an assessment and an explicit approval decision
func RequireLegalDecision(_ *entity.Case, p Payload) []Violation {
	in, _ := p.(LegalReviewPayload)

	var violations []Violation
	if blank(in.Assessment) {
		violations = append(violations, Violation{Field: "assessment", Message: "legal assessment is required"})
	}
	if in.Approved == nil {
		violations = append(violations, Violation{Field: "approved", Message: "approval decision must be set explicitly"})
	}
	return violations
}

// RequireFinalNotes requires non-empty final control notes
func RequireFinalNotes(_ *entity.Case, p Payload) []Violation {
	in, _ := p.(FinalControlPayload)
	if blank(in.Notes) {
		return []Violation{{Field: "notes", Message: "final control notes are required"}}
	}
	return nil
}
