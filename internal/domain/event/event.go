package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys used by case events
const (
	KeyOldStatus     = "old_status"
	KeyNewStatus     = "new_status"
	KeyAction        = "action"
	KeyActorID       = "actor_id"
	KeyActorRole     = "actor_role"
	KeyCaseNumber    = "case_number"
	KeyInstitutionID = "institution_id"
	KeyHistoryID     = "history_id"
)

// Event represents a domain event about a case
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	CaseID        int64                  `json:"case_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, caseID int64, payload map[string]interface{}) *Event {
	evt := NewEventWithCorrelation(eventType, caseID, payload, "")
	evt.CorrelationID = evt.ID
	return evt
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// typically the request id of the HTTP call that caused it
func NewEventWithCorrelation(eventType Type, caseID int64, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		CaseID:        caseID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload.
// Values of named string types (statuses, roles) are accepted too.
func (e *Event) GetPayloadString(key string) string {
	val, ok := e.Payload[key]
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case interface{ String() string }:
		return v.String()
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case *int64:
			if v != nil {
				return *v
			}
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
