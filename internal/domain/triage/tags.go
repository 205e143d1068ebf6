package triage

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxKeywords = 5
	// MaxSuggestedTags caps the merged suggestion list
	MaxSuggestedTags = 6
	minKeywordLen    = 4

	strippedPunctuation = `.,!?;:"'()[]{}`
)

var stopWords = map[string]bool{
	"ve": true, "veya": true, "ile": true, "için": true, "bir": true, "bu": true,
	"da": true, "de": true, "ki": true, "ne": true, "ya": true, "ama": true,
	"ancak": true, "fakat": true, "çünkü": true, "olan": true, "olarak": true,
	"gibi": true, "daha": true, "çok": true, "en": true, "her": true, "bazı": true,
	"tüm": true, "bütün": true, "hiç": true, "şey": true, "zaman": true, "yer": true,
}

var topicTags = []struct {
	tag   string
	words []string
}{
	{"sahte-içerik", []string{"sahte", "fake"}},
	{"video", []string{"video"}},
	{"sağlık", []string{"sağlık", "aşı"}},
	{"siyasi", []string{"seçim", "siyasi"}},
}

// normalize lowercases with Turkish rules. A Caser holds state, so each
// call gets its own.
func normalize(text string) string {
	return cases.Lower(language.Turkish).String(text)
}

// Keywords returns the most frequent significant words of text. Ties keep
// the order of first appearance.
func Keywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedPunctuation, r) {
			return -1
		}
		return r
	}, normalize(text))
	words := strings.Fields(cleaned)

	counts := map[string]int{}
	var order []string
	for _, w := range words {
		if utf8.RuneCountInString(w) < minKeywordLen || stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// TopicTags returns the fixed topic tags whose trigger words appear in text
func TopicTags(text string) []string {
	lower := normalize(text)
	var tags []string
	for _, t := range topicTags {
		for _, w := range t.words {
			if strings.Contains(lower, w) {
				tags = append(tags, t.tag)
				break
			}
		}
	}
	return tags
}

// MergeTags joins tag lists in order, dropping blanks and repeats, and
// keeps at most MaxSuggestedTags.
func MergeTags(lists ...[]string) []string {
	seen := map[string]bool{}
	merged := []string{}
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
			if len(merged) == MaxSuggestedTags {
				return merged
			}
		}
	}
	return merged
}

// SuggestTags proposes tags from the title and description alone
func SuggestTags(title, description string) []string {
	text := title + " " + description
	return MergeTags(Keywords(text), TopicTags(text))
}
