package openai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChatCompleter struct {
	createFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	lastReq    openai.ChatCompletionRequest
}

func (m *mockChatCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.lastReq = req
	return m.createFunc(ctx, req)
}

func reply(content string) func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
		}, nil
	}
}

func testCase() *entity.Case {
	return &entity.Case{
		ID:               7,
		CaseNumber:       "DMM-20240301-001",
		Title:            "Fake vaccine recall",
		Platform:         entity.PlatformTwitter,
		CorrectiveInfo:   "All batches are approved",
		ExpertEvaluation: "The screenshot is fabricated",
	}
}

func TestDrafter_DraftExternalReport(t *testing.T) {
	tests := []struct {
		name    string
		create  func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
		want    string
		wantErr bool
	}{
		{name: "plain json", create: reply(`{"external_report": "The recall notice is fake."}`), want: "The recall notice is fake."},
		{name: "fenced json", create: reply("```json\n{\"external_report\": \"Batches are safe {verified}.\"}\n```"), want: "Batches are safe {verified}."},
		{name: "not json", create: reply("I cannot help with that"), wantErr: true},
		{name: "empty report", create: reply(`{"external_report": "  "}`), wantErr: true},
		{
			name: "no choices",
			create: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{}, nil
			},
			wantErr: true,
		},
		{
			name: "api error",
			create: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{}, errors.New("429 too many requests")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &mockChatCompleter{createFunc: tt.create}
			d := &Drafter{client: completer, model: "gpt-4o-mini", prompts: DefaultPrompts(), logger: zap.NewNop()}

			got, err := d.DraftExternalReport(context.Background(), testCase(), "Ministry of Health")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, completer.lastReq.Messages, 2)
			user := completer.lastReq.Messages[1].Content
			assert.Contains(t, user, "DMM-20240301-001")
			assert.Contains(t, user, "Responding institution: Ministry of Health")
			assert.Contains(t, user, "Corrective information: All batches are approved")
			assert.NotContains(t, user, "Institution response:")
			assert.Equal(t, "gpt-4o-mini", completer.lastReq.Model)
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides keep defaults", func(t *testing.T) {
		path := filepath.Join(dir, "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("external_report:\n  temperature: 0.5\n  user_template: \"Case {{.CaseNumber}}\"\n"), 0o644))

		prompts, err := LoadPrompts(path)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, prompts.ExternalReport.Temperature, 0.0001)
		assert.Equal(t, 400, prompts.ExternalReport.MaxTokens)
		assert.Equal(t, defaultSystemPrompt, prompts.ExternalReport.System)
		assert.Equal(t, "Case {{.CaseNumber}}", prompts.ExternalReport.UserTemplate)
		assert.Equal(t, defaultTagUserTemplate, prompts.TagSuggestion.UserTemplate)
		assert.Equal(t, 50, prompts.TagSuggestion.MaxTokens)
	})

	t.Run("broken tag template", func(t *testing.T) {
		path := filepath.Join(dir, "broken-tags.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tag_suggestion:\n  user_template: \"{{.Title\"\n"), 0o644))

		_, err := LoadPrompts(path)
		assert.Error(t, err)
	})

	t.Run("broken template", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("external_report:\n  user_template: \"{{.CaseNumber\"\n"), 0o644))

		_, err := LoadPrompts(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrompts(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
