package service

import (
	"context"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/domain/triage"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
	"github.com/garyjia/dmm-case-workflow/pkg/utils"
)

// AssessCaseInput is the part of the intake form scored before a case is opened
type AssessCaseInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Platform        string `json:"platform"`
	Priority        string `json:"priority"`
	GeographicScope string `json:"geographic_scope"`
}

// CaseAssessment is the risk score and tag proposal for a draft case
type CaseAssessment struct {
	Risk              triage.Assessment `json:"risk"`
	SuggestedPriority string            `json:"suggested_priority"`
	SuggestedTags     []string          `json:"suggested_tags"`
	ModelTags         bool              `json:"model_tags"`
}

// AssessCase scores a draft case and proposes tags for it
func (s *caseServiceImpl) AssessCase(ctx context.Context, actor domainwf.Actor, input AssessCaseInput) (*CaseAssessment, error) {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleIDPPersonnel {
		return nil, domainwf.Forbidden("only admin and IDP personnel can assess cases")
	}

	title := utils.SanitizeString(input.Title)
	description := utils.SanitizeString(input.Description)
	var violations []domainwf.Violation
	if title == "" {
		violations = append(violations, domainwf.Violation{Field: "title", Message: "title is required"})
	}
	if description == "" {
		violations = append(violations, domainwf.Violation{Field: "description", Message: "description is required"})
	}
	if len(violations) > 0 {
		return nil, domainwf.InvalidPayload(violations)
	}

	risk := triage.AssessRisk(triage.Input{
		Title:           title,
		Description:     description,
		Platform:        strings.ToUpper(strings.TrimSpace(input.Platform)),
		Priority:        strings.ToUpper(strings.TrimSpace(input.Priority)),
		GeographicScope: strings.ToUpper(strings.TrimSpace(input.GeographicScope)),
	})
	tags, fromModel := s.suggestTags(ctx, title, description)

	return &CaseAssessment{
		Risk:              risk,
		SuggestedPriority: risk.Level,
		SuggestedTags:     tags,
		ModelTags:         fromModel,
	}, nil
}

// suggestTags asks the model when one is configured and falls back to
// keyword extraction. Topic tags are added either way.
func (s *caseServiceImpl) suggestTags(ctx context.Context, title, description string) ([]string, bool) {
	topics := triage.TopicTags(title + " " + description)
	if s.suggester != nil {
		sctx, cancel := context.WithTimeout(ctx, s.suggestTimeout)
		defer cancel()

		tags, err := s.suggester.SuggestTags(sctx, title, description)
		if err == nil {
			return triage.MergeTags(tags, topics), true
		}
		s.logger.Error("Tag suggestion failed, using keywords", "error", err)
	}
	return triage.SuggestTags(title, description), false
}
