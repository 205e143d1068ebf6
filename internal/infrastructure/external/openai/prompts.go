package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the drafter
type PromptConfig struct {
	ExternalReport struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"external_report"`
	TagSuggestion struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"tag_suggestion"`
}

const defaultSystemPrompt = `You write short public correction notices for a government disinformation monitoring desk. ` +
	`Be factual and neutral, do not speculate, and never include internal deliberations or reviewer names. ` +
	`Respond with JSON of the form {"external_report": "..."}.`

const defaultUserTemplate = `Case {{.CaseNumber}} concerns a claim circulating on {{.Platform}}.
Title: {{.Title}}
{{if .Description}}Description: {{.Description}}
{{end}}{{if .Institution}}Responding institution: {{.Institution}}
{{end}}{{if .Response}}Institution response: {{.Response}}
{{end}}{{if .CorrectiveInfo}}Corrective information: {{.CorrectiveInfo}}
{{end}}{{if .Evaluation}}Expert evaluation: {{.Evaluation}}
{{end}}{{if .Recommendation}}Recommendation: {{.Recommendation}}
{{end}}
Write a correction notice of at most 120 words that states what is false and what the verified facts are.`

const defaultTagSystemPrompt = `Suggest the 5 most fitting tags, in Turkish, for a disinformation case. ` +
	`Return only the tags separated by commas and nothing else.`

const defaultTagUserTemplate = `Title: {{.Title}}
Description: {{.Description}}`

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.ExternalReport.Temperature = 0.2
	p.ExternalReport.MaxTokens = 400
	p.ExternalReport.System = defaultSystemPrompt
	p.ExternalReport.UserTemplate = defaultUserTemplate
	p.TagSuggestion.Temperature = 0.5
	p.TagSuggestion.MaxTokens = 50
	p.TagSuggestion.System = defaultTagSystemPrompt
	p.TagSuggestion.UserTemplate = defaultTagUserTemplate
	return &p
}

// LoadPrompts loads prompt configuration from a YAML file. Missing entries
// keep their defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if _, err := template.New("prompt").Parse(prompts.ExternalReport.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid external_report template: %w", err)
	}
	if _, err := template.New("prompt").Parse(prompts.TagSuggestion.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid tag_suggestion template: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
