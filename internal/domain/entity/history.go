package entity

import "time"

// CaseHistory is one immutable entry of a case's audit trail
type CaseHistory struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Institution is a public body that can be asked to answer a case
type Institution struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	LarkOpenID string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
