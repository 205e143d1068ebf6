package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

var (
	// ErrIllegalAction is returned when the (status, action) pair is not in the catalog
	ErrIllegalAction = errors.New("illegal action")

	// ErrForbidden is returned when the actor may not invoke the action
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPayload is returned when a guard rejects the case data or payload
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotFound is returned when the case does not exist
	ErrNotFound = errors.New("case not found")

	// ErrConflict is returned when a concurrent transition committed first
	ErrConflict = errors.New("concurrent transition")
)

// Stable error codes exposed to callers.
const (
	CodeIllegalAction  = "ILLEGAL_ACTION"
	CodeForbidden      = "FORBIDDEN"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
)

// Violation describes one failed guard predicate.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a rejection produced by the workflow. It unwraps to one of the
// sentinel errors above so callers can use errors.Is.
type Error struct {
	Code       string
	Message    string
	Violations []Violation
	kind       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// Unwrap returns the sentinel error for the code.
func (e *Error) Unwrap() error {
	return e.kind
}

// IllegalAction rejects an action that the catalog does not offer from status
func IllegalAction(status entity.Status, action Action) *Error {
	return &Error{
		Code:    CodeIllegalAction,
		Message: fmt.Sprintf("action %s is not allowed from status %s", action, status),
		kind:    ErrIllegalAction,
	}
}

// UnknownAction rejects an action name outside the vocabulary
func UnknownAction(action Action) *Error {
	return &Error{
		Code:    CodeIllegalAction,
		Message: fmt.Sprintf("unknown action %q", string(action)),
		kind:    ErrIllegalAction,
	}
}

// Forbidden rejects an actor lacking the required role or ownership
func Forbidden(reason string) *Error {
	return &Error{Code: CodeForbidden, Message: reason, kind: ErrForbidden}
}

// InvalidPayload rejects a request whose guards failed
func InvalidPayload(violations []Violation) *Error {
	return &Error{
		Code:       CodeInvalidPayload,
		Message:    "one or more fields are invalid",
		Violations: violations,
		kind:       ErrInvalidPayload,
	}
}

// NotFound rejects a request for a missing case
func NotFound(caseID int64) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("case %d not found", caseID),
		kind:    ErrNotFound,
	}
}

// Conflict rejects a transition that lost a race against another request
func Conflict(caseID int64, expected entity.Status) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: fmt.Sprintf("case %d is no longer in status %s; re-fetch and retry", caseID, expected),
		kind:    ErrConflict,
	}
}

// CodeOf returns the stable code of a workflow error, or "" for other errors
func CodeOf(err error) string {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Code
	}
	return ""
}
