package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// Error codes produced at the HTTP boundary only
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the machine-readable failure description
type ErrorBody struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Details []domainwf.Violation `json:"details,omitempty"`
}

var statusByCode = map[string]int{
	domainwf.CodeIllegalAction:  http.StatusUnprocessableEntity,
	domainwf.CodeForbidden:      http.StatusForbidden,
	domainwf.CodeInvalidPayload: http.StatusBadRequest,
	domainwf.CodeNotFound:       http.StatusNotFound,
	domainwf.CodeConflict:       http.StatusConflict,
	CodeUnauthorized:            http.StatusUnauthorized,
	CodeInternal:                http.StatusInternalServerError,
}

// statusFor maps an error code to its HTTP status
func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// respondError writes a domain rejection with its stable code. Anything else
// is logged and reported as an internal error without details.
func respondError(c *gin.Context, logger Logger, err error) {
	var wfErr *domainwf.Error
	if errors.As(err, &wfErr) {
		c.JSON(statusFor(wfErr.Code), Response{
			Success: false,
			Error: &ErrorBody{
				Code:    wfErr.Code,
				Message: wfErr.Message,
				Details: wfErr.Violations,
			},
		})
		return
	}

	logger.Error("Request failed",
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", requestID(c),
	)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &ErrorBody{Code: CodeInternal, Message: "internal server error"},
	})
}

func respondBadRequest(c *gin.Context, field, message string) {
	respondError(c, nil, domainwf.InvalidPayload([]domainwf.Violation{{Field: field, Message: message}}))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   &ErrorBody{Code: CodeUnauthorized, Message: message},
	})
}
