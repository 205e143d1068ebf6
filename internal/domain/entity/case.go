package entity

import "time"

// Case is a disinformation report moving through the review pipeline.
//
// Stage fields are grouped by the actor that owns them. Reviewer stamps
// (ids and dates) are written once by the transition that produces them.
type Case struct {
	ID              int64    `json:"id"`
	CaseNumber      string   `json:"case_number"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Platform        string   `json:"platform"`
	Priority        string   `json:"priority"`
	GeographicScope string   `json:"geographic_scope"`
	SourceType      string   `json:"source_type"`
	SourceURL       string   `json:"source_url,omitempty"`
	Tags            []string `json:"tags"`
	Status          Status   `json:"status"`

	// Intake
	IDPAssessment string `json:"idp_assessment,omitempty"`
	IDPNotes      string `json:"idp_notes,omitempty"`

	// Institution
	TargetInstitutionID     *int64     `json:"target_institution_id,omitempty"`
	InstitutionResponse     string     `json:"institution_response,omitempty"`
	CorrectiveInfo          string     `json:"corrective_info,omitempty"`
	InstitutionResponderID  *int64     `json:"institution_responder_id,omitempty"`
	InstitutionResponseDate *time.Time `json:"institution_response_date,omitempty"`

	// Expert review
	ExpertEvaluation string `json:"expert_evaluation,omitempty"`

	// Legal review
	LegalAssessment string     `json:"legal_assessment,omitempty"`
	LegalNotes      string     `json:"legal_notes,omitempty"`
	LegalApproved   *bool      `json:"legal_approved,omitempty"`
	LegalReviewerID *int64     `json:"legal_reviewer_id,omitempty"`
	LegalReviewDate *time.Time `json:"legal_review_date,omitempty"`

	// Final control
	FinalNotes          string     `json:"final_notes,omitempty"`
	FinalRecommendation string     `json:"final_recommendation,omitempty"`
	FinalApproval       *bool      `json:"final_approval,omitempty"`
	FinalReviewerID     *int64     `json:"final_reviewer_id,omitempty"`
	FinalReviewDate     *time.Time `json:"final_review_date,omitempty"`

	// Completion
	InternalReport      string     `json:"internal_report,omitempty"`
	ExternalReport      string     `json:"external_report,omitempty"`
	ReportGeneratedDate *time.Time `json:"report_generated_date,omitempty"`

	CreatedByID int64     `json:"created_by_id"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy so effects never mutate a caller's record
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Tags != nil {
		cp.Tags = append([]string(nil), c.Tags...)
	}
	cp.TargetInstitutionID = cloneInt64(c.TargetInstitutionID)
	cp.InstitutionResponderID = cloneInt64(c.InstitutionResponderID)
	cp.InstitutionResponseDate = cloneTime(c.InstitutionResponseDate)
	cp.LegalApproved = cloneBool(c.LegalApproved)
	cp.LegalReviewerID = cloneInt64(c.LegalReviewerID)
	cp.LegalReviewDate = cloneTime(c.LegalReviewDate)
	cp.FinalApproval = cloneBool(c.FinalApproval)
	cp.FinalReviewerID = cloneInt64(c.FinalReviewerID)
	cp.FinalReviewDate = cloneTime(c.FinalReviewDate)
	cp.ReportGeneratedDate = cloneTime(c.ReportGeneratedDate)
	return &cp
}

// IsTargetedAt reports whether the case is routed to the given institution
func (c *Case) IsTargetedAt(institutionID int64) bool {
	return c.TargetInstitutionID != nil && *c.TargetInstitutionID == institutionID
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
