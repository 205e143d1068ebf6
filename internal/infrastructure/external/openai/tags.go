package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const maxModelTags = 5

// SuggestTags asks the model for case tags.
// Implements port.TagSuggester interface
func (d *Drafter) SuggestTags(ctx context.Context, title, description string) ([]string, error) {
	prompt, err := renderTemplate(d.prompts.TagSuggestion.UserTemplate, promptData{
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: d.prompts.TagSuggestion.Temperature,
		MaxTokens:   d.prompts.TagSuggestion.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: d.prompts.TagSuggestion.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		d.logger.Error("OpenAI tag suggestion failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	tags := parseTagList(resp.Choices[0].Message.Content)
	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags in response")
	}

	d.logger.Debug("Tags suggested",
		zap.Strings("tags", tags),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return tags, nil
}

// parseTagList splits a comma separated reply, tolerating newlines and
// list markers
func parseTagList(content string) []string {
	content = strings.ReplaceAll(content, "\n", ",")
	var tags []string
	for _, part := range strings.Split(content, ",") {
		tag := strings.Trim(part, " \t\r-*#.\"'")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxModelTags {
			break
		}
	}
	return tags
}
