package workflow

import (
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// EffectInput carries everything an effect may write into the case
type EffectInput struct {
	Payload Payload
	Actor   Actor
	Now     time.Time

	// Report is set for transitions built WithReport
	Report *ReportDraft
}

// EffectFunc writes the fields owned by a transition onto c
type EffectFunc func(c *entity.Case, in EffectInput)

// Apply returns a copy of c with the effect of t applied. Status is set last.
func Apply(t Transition, c *entity.Case, in EffectInput) *entity.Case {
	next := c.Clone()
	in.Payload = Normalize(in.Payload)
	if t.effect != nil {
		t.effect(next, in)
	}
	next.Status = t.To
	next.UpdatedAt = in.Now
	return next
}

func stamp(actor Actor, now time.Time) (*int64, *time.Time) {
	id := actor.UserID
	at := now
	return &id, &at
}

// SetTargetInstitution records which institution must respond
func SetTargetInstitution(c *entity.Case, in EffectInput) {
	p, _ := in.Payload.(RouteToInstitutionPayload)
	id := p.InstitutionID
	c.TargetInstitutionID = &id
}

// StoreInstitutionResponse records the institution answer and who gave it
func StoreInstitutionResponse(c *entity.Case, in EffectInput) {
	p, _ := in.Payload.(InstitutionRespondPayload)
	c.InstitutionResponse = p.Response
	c.CorrectiveInfo = p.CorrectiveInfo
	c.InstitutionResponderID, c.InstitutionResponseDate = stamp(in.Actor, in.Now)
}

// StoreExpertEvaluation records the subject-matter review
func StoreExpertEvaluation(c *entity.Case, in EffectInput) {
	p, _ := in.Payload.(ExpertEvaluationPayload)
	c.ExpertEvaluation = p.Evaluation
}

// StoreLegalDecision records the legal review and who made it
func StoreLegalDecision(c *entity.Case, in EffectInput) {
	p, _ := in.Payload.(LegalReviewPayload)
	c.LegalAssessment = p.Assessment
	c.LegalNotes = p.Notes
	if p.Approved != nil {
		approved := *p.Approved
		c.LegalApproved = &approved
	}
	c.LegalReviewerID, c.LegalReviewDate = stamp(in.Actor, in.Now)
}

// StoreFinalControl records the closing notes and marks final approval
func StoreFinalControl(c *entity.Case, in EffectInput) {
	p, _ := in.Payload.(FinalControlPayload)
	c.FinalNotes = p.Notes
	c.FinalRecommendation = p.Recommendation
	approved := true
	c.FinalApproval = &approved
	c.FinalReviewerID, c.FinalReviewDate = stamp(in.Actor, in.Now)
}

// StoreReport writes the drafted reports and the generation date
func StoreReport(c *entity.Case, in EffectInput) {
	if in.Report != nil {
		c.InternalReport = in.Report.Internal
		c.ExternalReport = in.Report.External
	}
	at := in.Now
	c.ReportGeneratedDate = &at
}
