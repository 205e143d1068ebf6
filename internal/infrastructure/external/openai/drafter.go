package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// chatCompleter is the part of the OpenAI client the drafter uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the OpenAI drafter settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Drafter implements port.ReportDrafter using OpenAI
type Drafter struct {
	client  chatCompleter
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewDrafter creates a new OpenAI report drafter. prompts may be nil.
func NewDrafter(cfg Config, prompts *PromptConfig, logger *zap.Logger) *Drafter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	return &Drafter{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		prompts: prompts,
		logger:  logger,
	}
}

type promptData struct {
	CaseNumber     string
	Title          string
	Description    string
	Platform       string
	Institution    string
	Response       string
	CorrectiveInfo string
	Evaluation     string
	Recommendation string
}

type draftResponse struct {
	ExternalReport string `json:"external_report"`
}

// DraftExternalReport writes the public correction notice for a case.
// Implements port.ReportDrafter interface
func (d *Drafter) DraftExternalReport(ctx context.Context, c *entity.Case, institutionName string) (string, error) {
	d.logger.Debug("Drafting external report",
		zap.Int64("case_id", c.ID),
		zap.String("case_number", c.CaseNumber))

	prompt, err := renderTemplate(d.prompts.ExternalReport.UserTemplate, promptData{
		CaseNumber:     c.CaseNumber,
		Title:          c.Title,
		Description:    c.Description,
		Platform:       c.Platform,
		Institution:    institutionName,
		Response:       c.InstitutionResponse,
		CorrectiveInfo: c.CorrectiveInfo,
		Evaluation:     c.ExpertEvaluation,
		Recommendation: c.FinalRecommendation,
	})
	if err != nil {
		return "", err
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: d.prompts.ExternalReport.Temperature,
		MaxTokens:   d.prompts.ExternalReport.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: d.prompts.ExternalReport.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		d.logger.Error("OpenAI API call failed", zap.Int64("case_id", c.ID), zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var result draftResponse
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Fallback: try to extract JSON from markdown code blocks
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &result) != nil {
			d.logger.Error("Failed to parse OpenAI response",
				zap.Error(err),
				zap.String("content", content))
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
	}

	text := strings.TrimSpace(result.ExternalReport)
	if text == "" {
		return "", fmt.Errorf("empty external report in response")
	}

	d.logger.Info("External report drafted",
		zap.Int64("case_id", c.ID),
		zap.Int("length", len(text)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return text, nil
}

// extractJSON extracts the first JSON object from a string
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	end := findJSONEnd(content, start)
	if end <= start {
		return ""
	}
	return content[start:end]
}

// findJSONEnd finds the end of the JSON object starting at start
func findJSONEnd(content string, start int) int {
	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		switch {
		case char == '\\':
			escapeNext = true
		case char == '"':
			inString = !inString
		case inString:
		case char == '{':
			braceCount++
		case char == '}':
			braceCount--
			if braceCount == 0 {
				return i + 1
			}
		}
	}

	return -1
}
