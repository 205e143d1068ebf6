package entity

import "fmt"

// Status is the position of a case in the review pipeline.
// The string values are persisted and must stay stable.
type Status string

const (
	StatusIDPForm              Status = "IDP_FORM"
	StatusAwaitingInstitution  Status = "KURUM_BEKLENIYOR"
	StatusExpertReview         Status = "IDP_UZMAN_GORUSU"
	StatusAwaitingLegalRouting Status = "ADMIN_HUKUK_YONLENDIRME"
	StatusLegalReview          Status = "HUKUK_INCELEMESI"
	StatusFinalControl         Status = "IDP_SON_KONTROL"
	StatusAwaitingCompletion   Status = "ADMIN_TAMAMLAMA"
	StatusCompleted            Status = "TAMAMLANDI"
)

// Tokens written by earlier releases. They are never produced any more but
// may still be found in stored rows.
const (
	legacyAdminApproval    = "ADMIN_ONAYI_BEKLENIYOR"
	legacyFinalControl     = "SON_KONTROL"
	legacyReportProduction = "RAPOR_URETIMI"
)

var validStatuses = map[Status]bool{
	StatusIDPForm:              true,
	StatusAwaitingInstitution:  true,
	StatusExpertReview:         true,
	StatusAwaitingLegalRouting: true,
	StatusLegalReview:          true,
	StatusFinalControl:         true,
	StatusAwaitingCompletion:   true,
	StatusCompleted:            true,
}

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
}

// AllStatuses lists the statuses in pipeline order.
func AllStatuses() []Status {
	return []Status{
		StatusIDPForm,
		StatusAwaitingInstitution,
		StatusExpertReview,
		StatusAwaitingLegalRouting,
		StatusLegalReview,
		StatusFinalControl,
		StatusAwaitingCompletion,
		StatusCompleted,
	}
}

// IsValid returns true if the status is part of the current vocabulary
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if no action can leave the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ResolveStatus maps a stored status token onto the current vocabulary.
//
// The shared admin-approval token is split by whether final control notes
// were already recorded: without them the case is waiting to be routed to
// legal review, with them it is waiting for completion.
func ResolveStatus(raw string, finalNotesPresent bool) (Status, error) {
	switch raw {
	case legacyAdminApproval:
		if finalNotesPresent {
			return StatusAwaitingCompletion, nil
		}
		return StatusAwaitingLegalRouting, nil
	case legacyFinalControl:
		return StatusFinalControl, nil
	case legacyReportProduction:
		return StatusAwaitingCompletion, nil
	}

	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown case status %q", raw)
	}
	return s, nil
}

// LegacyToken is a retired status token that still resolves onto a current
// status.
type LegacyToken struct {
	Token string
	// FinalNotes is set when the token resolves onto the status only with
	// (true) or without (false) final control notes.
	FinalNotes *bool
}

// LegacyTokensFor lists the retired tokens ResolveStatus maps onto s
func LegacyTokensFor(s Status) []LegacyToken {
	with, without := true, false
	switch s {
	case StatusAwaitingLegalRouting:
		return []LegacyToken{{Token: legacyAdminApproval, FinalNotes: &without}}
	case StatusFinalControl:
		return []LegacyToken{{Token: legacyFinalControl}}
	case StatusAwaitingCompletion:
		return []LegacyToken{
			{Token: legacyAdminApproval, FinalNotes: &with},
			{Token: legacyReportProduction},
		}
	}
	return nil
}
