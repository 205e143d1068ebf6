package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedString string

func (n namedString) String() string { return string(n) }

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"case created", TypeCaseCreated, true},
		{"status changed", TypeCaseStatusChanged, true},
		{"unknown", Type("case.deleted"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeCaseStatusChanged, 12, map[string]interface{}{KeyAction: "route_to_legal"})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, int64(12), evt.CaseID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, "route_to_legal", evt.GetPayloadString(KeyAction))
}

func TestNewEventWithCorrelation(t *testing.T) {
	first := NewEventWithCorrelation(TypeCaseCreated, 1, nil, "req-1")
	second := NewEventWithCorrelation(TypeCaseStatusChanged, 1, nil, "req-1")

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "req-1", second.CorrelationID)
	assert.NotNil(t, first.Payload)
}

func TestEvent_WithPayloadDoesNotMutate(t *testing.T) {
	original := NewEvent(TypeCaseStatusChanged, 1, map[string]interface{}{KeyActorID: int64(3)})
	updated := original.WithPayload(KeyNewStatus, "HUKUK_INCELEMESI")

	_, exists := original.Payload[KeyNewStatus]
	assert.False(t, exists)
	assert.Equal(t, "HUKUK_INCELEMESI", updated.GetPayloadString(KeyNewStatus))
	assert.Equal(t, original.ID, updated.ID)
}

func TestEvent_PayloadGetters(t *testing.T) {
	institution := int64(9)
	evt := NewEvent(TypeCaseStatusChanged, 1, map[string]interface{}{
		KeyNewStatus:     namedString("KURUM_BEKLENIYOR"),
		KeyActorID:       float64(4),
		KeyInstitutionID: &institution,
		KeyHistoryID:     7,
	})

	assert.Equal(t, "KURUM_BEKLENIYOR", evt.GetPayloadString(KeyNewStatus))
	assert.Equal(t, int64(4), evt.GetPayloadInt(KeyActorID))
	assert.Equal(t, int64(9), evt.GetPayloadInt(KeyInstitutionID))
	assert.Equal(t, int64(7), evt.GetPayloadInt(KeyHistoryID))
	assert.Equal(t, "", evt.GetPayloadString("missing"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("missing"))
}
