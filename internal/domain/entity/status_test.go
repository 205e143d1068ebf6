package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		t.Run(string(s), func(t *testing.T) {
			assert.Equal(t, s == StatusCompleted, s.IsTerminal())
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"initial", StatusIDPForm, true},
		{"terminal", StatusCompleted, true},
		{"legacy shared approval", Status("ADMIN_ONAYI_BEKLENIYOR"), false},
		{"empty", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		finalNotes bool
		want       Status
		wantErr    bool
	}{
		{"current token passes through", "HUKUK_INCELEMESI", false, StatusLegalReview, false},
		{"shared approval before final control", "ADMIN_ONAYI_BEKLENIYOR", false, StatusAwaitingLegalRouting, false},
		{"shared approval after final control", "ADMIN_ONAYI_BEKLENIYOR", true, StatusAwaitingCompletion, false},
		{"old final control token", "SON_KONTROL", false, StatusFinalControl, false},
		{"old report production token", "RAPOR_URETIMI", true, StatusAwaitingCompletion, false},
		{"unknown token", "ARCHIVED", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveStatus(tt.raw, tt.finalNotes)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLegacyTokensFor_ResolveBack(t *testing.T) {
	seen := map[string]int{}
	for _, s := range AllStatuses() {
		for _, lt := range LegacyTokensFor(s) {
			seen[lt.Token]++
			conditions := []bool{false, true}
			if lt.FinalNotes != nil {
				conditions = []bool{*lt.FinalNotes}
			}
			for _, notes := range conditions {
				got, err := ResolveStatus(lt.Token, notes)
				require.NoError(t, err)
				assert.Equal(t, s, got, "token %s with final notes %v", lt.Token, notes)
			}
		}
	}

	assert.Equal(t, map[string]int{
		"ADMIN_ONAYI_BEKLENIYOR": 2,
		"SON_KONTROL":            1,
		"RAPOR_URETIMI":          1,
	}, seen)
}

func TestCase_CloneIsDeep(t *testing.T) {
	target := int64(4)
	approved := true
	now := time.Now()
	original := &Case{
		ID:                  1,
		Tags:                []string{"health"},
		TargetInstitutionID: &target,
		LegalApproved:       &approved,
		LegalReviewDate:     &now,
	}

	cp := original.Clone()
	cp.Tags[0] = "changed"
	*cp.TargetInstitutionID = 9
	*cp.LegalApproved = false

	assert.Equal(t, "health", original.Tags[0])
	assert.Equal(t, int64(4), *original.TargetInstitutionID)
	assert.True(t, *original.LegalApproved)
	assert.True(t, original.IsTargetedAt(4))
	assert.False(t, original.IsTargetedAt(9))
}
