// Package triage scores incoming cases and suggests tags from their text.
package triage

import (
	"math"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// Risk levels share the case priority vocabulary so a level can be used
// as a suggested priority.
const (
	LevelLow      = entity.PriorityLow
	LevelMedium   = entity.PriorityMedium
	LevelHigh     = entity.PriorityHigh
	LevelCritical = entity.PriorityCritical
)

// Factor scores run from 0 to 10.
var platformRisk = map[string]int{
	entity.PlatformTwitter:   7,
	entity.PlatformFacebook:  6,
	entity.PlatformInstagram: 5,
	entity.PlatformYouTube:   8,
	entity.PlatformTikTok:    9,
	entity.PlatformWhatsApp:  9,
	entity.PlatformTelegram:  8,
	entity.PlatformOther:     5,
}

var scopeRisk = map[string]int{
	entity.ScopeLocal:         3,
	entity.ScopeRegional:      5,
	entity.ScopeNational:      8,
	entity.ScopeInternational: 10,
}

var viralityRisk = map[string]int{
	entity.PriorityLow:      3,
	entity.PriorityMedium:   6,
	entity.PriorityHigh:     9,
	entity.PriorityCritical: 10,
}

// Cases carry no disinformation type yet, so content risk is the score of
// an unclassified claim.
const unclassifiedContentRisk = 7

// legalSignals are checked in order; the first group with a hit wins.
var legalSignals = []struct {
	words []string
	score int
}{
	{[]string{"sahte", "deepfake", "fake"}, 9},
	{[]string{"yalan", "asılsız"}, 7},
	{[]string{"yanıltıcı", "manipüle"}, 6},
}

const defaultLegalRisk = 5

var weights = struct {
	platform, content, scope, virality, legal float64
}{0.15, 0.30, 0.20, 0.20, 0.15}

// Input is what the intake form knows about a claim
type Input struct {
	Title           string
	Description     string
	Platform        string
	Priority        string
	GeographicScope string
}

// Factors are the weighted components of a risk score
type Factors struct {
	Platform int `json:"platform"`
	Content  int `json:"content"`
	Scope    int `json:"scope"`
	Virality int `json:"virality"`
	Legal    int `json:"legal"`
}

// Assessment is the scored risk of a claim
type Assessment struct {
	Score          int     `json:"score"`
	Level          string  `json:"level"`
	Factors        Factors `json:"factors"`
	Recommendation string  `json:"recommendation"`
}

// AssessRisk scores a claim from its platform, reach, priority and wording
func AssessRisk(in Input) Assessment {
	f := Factors{
		Platform: lookup(platformRisk, in.Platform, 5),
		Content:  unclassifiedContentRisk,
		Scope:    lookup(scopeRisk, in.GeographicScope, 5),
		Virality: lookup(viralityRisk, in.Priority, 3),
		Legal:    legalRisk(normalize(in.Title + " " + in.Description)),
	}

	weighted := float64(f.Platform)*weights.platform +
		float64(f.Content)*weights.content +
		float64(f.Scope)*weights.scope +
		float64(f.Virality)*weights.virality +
		float64(f.Legal)*weights.legal
	score := int(math.Floor(weighted + 0.5))

	level, advice := levelFor(score)
	return Assessment{Score: score, Level: level, Factors: f, Recommendation: advice}
}

func levelFor(score int) (string, string) {
	switch {
	case score >= 8:
		return LevelCritical, "Urgent: send to legal review at once and coordinate with the responsible ministry."
	case score >= 6:
		return LevelHigh, "Priority: evaluate within 24 hours and take the required action."
	case score >= 4:
		return LevelMedium, "Normal: evaluate in the routine process."
	default:
		return LevelLow, "Low: the standard procedure applies."
	}
}

func legalRisk(text string) int {
	for _, group := range legalSignals {
		for _, w := range group.words {
			if strings.Contains(text, w) {
				return group.score
			}
		}
	}
	return defaultLegalRisk
}

func lookup(scores map[string]int, key string, fallback int) int {
	if v, ok := scores[strings.ToUpper(strings.TrimSpace(key))]; ok {
		return v
	}
	return fallback
}
