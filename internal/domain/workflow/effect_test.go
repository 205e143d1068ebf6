package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

func TestApply_WorksOnCopy(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := Transition{
		From:   entity.StatusLegalReview,
		Action: ActionLegalReview,
		To:     entity.StatusFinalControl,
		Role:   entity.RoleLegalPersonnel,
		effect: StoreLegalDecision,
	}
	original := &entity.Case{ID: 1, Status: entity.StatusLegalReview, ExpertEvaluation: "kept"}

	next := Apply(tr, original, EffectInput{
		Payload: LegalReviewPayload{Assessment: "lawful", Notes: "n", Approved: boolPtr(false)},
		Actor:   Actor{UserID: 42, Role: entity.RoleLegalPersonnel},
		Now:     now,
	})

	if original.Status != entity.StatusLegalReview || original.LegalAssessment != "" {
		t.Error("Apply() mutated the input case")
	}
	if next.Status != entity.StatusFinalControl {
		t.Errorf("Status = %v, want %v", next.Status, entity.StatusFinalControl)
	}
	if next.LegalApproved == nil || *next.LegalApproved {
		t.Errorf("LegalApproved = %v, want false", next.LegalApproved)
	}
	if next.LegalReviewerID == nil || *next.LegalReviewerID != 42 {
		t.Errorf("LegalReviewerID = %v, want 42", next.LegalReviewerID)
	}
	if next.LegalReviewDate == nil || !next.LegalReviewDate.Equal(now) {
		t.Errorf("LegalReviewDate = %v, want %v", next.LegalReviewDate, now)
	}
	if next.ExpertEvaluation != "kept" {
		t.Error("Apply() touched a field the effect does not own")
	}
}

func TestStoreFinalControl_SetsApproval(t *testing.T) {
	c := &entity.Case{}
	StoreFinalControl(c, EffectInput{
		Payload: FinalControlPayload{Notes: "verified", Recommendation: "publish"},
		Actor:   Actor{UserID: 5},
		Now:     time.Now(),
	})

	if c.FinalApproval == nil || !*c.FinalApproval {
		t.Error("FinalApproval should be true")
	}
	if c.FinalNotes != "verified" || c.FinalRecommendation != "publish" {
		t.Errorf("final fields = %q/%q", c.FinalNotes, c.FinalRecommendation)
	}
	if c.FinalReviewerID == nil || *c.FinalReviewerID != 5 {
		t.Errorf("FinalReviewerID = %v, want 5", c.FinalReviewerID)
	}
}

func TestComposeReport(t *testing.T) {
	c := &entity.Case{
		CaseNumber:       "DMM-20240301-001",
		Title:            "Fake vaccine claim",
		Platform:         entity.PlatformTwitter,
		CorrectiveInfo:   "Vaccines are approved by the ministry.",
		ExpertEvaluation: "Claim is fabricated.",
		LegalAssessment:  "No legal obstacle.",
		LegalApproved:    boolPtr(true),
		FinalNotes:       "Ready.",
	}

	draft := ComposeReport(c, CompleteAndReportPayload{}, "Ministry of Health")
	if !strings.Contains(draft.Internal, "DMM-20240301-001") || !strings.Contains(draft.Internal, "approved") {
		t.Errorf("Internal report missing content: %s", draft.Internal)
	}
	if !strings.Contains(draft.Internal, "Target institution: Ministry of Health\n") {
		t.Errorf("Internal report missing institution: %s", draft.Internal)
	}
	if strings.Contains(draft.Internal, "Institution response") {
		t.Errorf("Internal report has an empty response section: %s", draft.Internal)
	}
	if !strings.Contains(draft.External, c.CorrectiveInfo) {
		t.Errorf("External report missing corrective info: %s", draft.External)
	}

	supplied := ComposeReport(c, CompleteAndReportPayload{ExternalReport: "Custom notice"}, "")
	if supplied.External != "Custom notice" {
		t.Errorf("External = %q, want supplied text", supplied.External)
	}
	if strings.Contains(supplied.Internal, "Target institution") {
		t.Errorf("Internal report names an unknown institution: %s", supplied.Internal)
	}
}
