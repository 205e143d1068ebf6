package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/dmm-case-workflow/internal/application/service"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HealthChecker reports component health
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	caseService   service.CaseService
	exportService service.ExportService
	health        HealthChecker
	logger        Logger
}

// NewHandlers creates a new Handlers instance. health may be nil.
func NewHandlers(
	caseService service.CaseService,
	exportService service.ExportService,
	health HealthChecker,
	logger Logger,
) *Handlers {
	return &Handlers{
		caseService:   caseService,
		exportService: exportService,
		health:        health,
		logger:        logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ActionRequest is the body of POST /api/cases/:id/actions
type ActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ListCasesRequest represents query parameters for listing cases
type ListCasesRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ListCasesResponse is a page of cases
type ListCasesResponse struct {
	Cases  []*entity.Case `json:"cases"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// HistoryResponse is the audit trail of a case
type HistoryResponse struct {
	CaseID  int64                 `json:"case_id"`
	Entries []*entity.CaseHistory `json:"entries"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		response.Components = h.health.Health(c.Request.Context())
		for _, state := range response.Components {
			if state != "ok" {
				response.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// CreateCase handles POST /api/cases
func (h *Handlers) CreateCase(c *gin.Context) {
	var input service.CreateCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "body", "invalid JSON body")
		return
	}

	view, err := h.caseService.CreateCase(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondCreated(c, view)
}

// AssessCase handles POST /api/assessments
func (h *Handlers) AssessCase(c *gin.Context) {
	var input service.AssessCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "body", "invalid JSON body")
		return
	}

	assessment, err := h.caseService.AssessCase(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, assessment)
}

// ListCases handles GET /api/cases
func (h *Handlers) ListCases(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "query", "invalid query parameters")
		return
	}

	// Set defaults
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	cases, err := h.caseService.ListCases(c.Request.Context(), actorFrom(c), service.ListOptions{
		Status: entity.Status(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, ListCasesResponse{Cases: cases, Limit: req.Limit, Offset: req.Offset})
}

// GetCase handles GET /api/cases/:id
func (h *Handlers) GetCase(c *gin.Context) {
	id, ok := caseIDParam(c)
	if !ok {
		return
	}

	view, err := h.caseService.GetCase(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, view)
}

// GetHistory handles GET /api/cases/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := caseIDParam(c)
	if !ok {
		return
	}

	_, entries, err := h.caseService.GetHistory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, HistoryResponse{CaseID: id, Entries: entries})
}

// ExportHistory handles GET /api/cases/:id/history/export
func (h *Handlers) ExportHistory(c *gin.Context) {
	id, ok := caseIDParam(c)
	if !ok {
		return
	}

	file, err := h.exportService.ExportHistory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, file.Content)
}

// PerformAction handles POST /api/cases/:id/actions
func (h *Handlers) PerformAction(c *gin.Context) {
	id, ok := caseIDParam(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "invalid JSON body")
		return
	}
	if req.Action == "" {
		respondBadRequest(c, "action", "action is required")
		return
	}

	result, err := h.caseService.PerformAction(c.Request.Context(), actorFrom(c), id, req.Action, req.Payload, requestID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, result)
}

// ListInstitutions handles GET /api/institutions
func (h *Handlers) ListInstitutions(c *gin.Context) {
	institutions, err := h.caseService.ListInstitutions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, institutions)
}

// ListTransitions handles GET /api/workflow
func (h *Handlers) ListTransitions(c *gin.Context) {
	respondOK(c, h.caseService.ListTransitions(actorFrom(c)))
}

func caseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "id", "case id must be a positive integer")
		return 0, false
	}
	return id, true
}
