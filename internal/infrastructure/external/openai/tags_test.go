package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
)

var (
	_ port.TagSuggester  = (*Drafter)(nil)
	_ port.ReportDrafter = (*Drafter)(nil)
)

func TestDrafter_SuggestTags(t *testing.T) {
	tests := []struct {
		name    string
		create  func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
		want    []string
		wantErr bool
	}{
		{name: "comma separated", create: reply("sağlık, aşı , sahte-içerik"), want: []string{"sağlık", "aşı", "sahte-içerik"}},
		{name: "list markers", create: reply("- sağlık\n- #aşı\n- \"kampanya\"."), want: []string{"sağlık", "aşı", "kampanya"}},
		{name: "capped", create: reply("a, b, c, d, e, f, g"), want: []string{"a", "b", "c", "d", "e"}},
		{name: "blank reply", create: reply(" , ,"), wantErr: true},
		{
			name: "api error",
			create: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{}, errors.New("503 unavailable")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &mockChatCompleter{createFunc: tt.create}
			d := &Drafter{client: completer, model: "gpt-4o-mini", prompts: DefaultPrompts(), logger: zap.NewNop()}

			got, err := d.SuggestTags(context.Background(), "Sahte aşı kampanyası", "Kampanya durduruldu iddiası")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, completer.lastReq.Messages, 2)
			assert.Equal(t, defaultTagSystemPrompt, completer.lastReq.Messages[0].Content)
			assert.Equal(t, "Title: Sahte aşı kampanyası\nDescription: Kampanya durduruldu iddiası", completer.lastReq.Messages[1].Content)
			assert.Equal(t, 50, completer.lastReq.MaxTokens)
		})
	}
}
