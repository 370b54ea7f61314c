package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowforge/internal/service"
)

// RunHandler serves the parse audit log.
type RunHandler struct {
	processService service.ProcessService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(processService service.ProcessService) *RunHandler {
	return &RunHandler{processService: processService}
}

// List handles GET /api/v1/runs
// @Summary List parse runs
// @Description Newest first. Requires the audit database.
// @Tags runs
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.ParseRun,meta=PagMeta} "Parse runs"
// @Failure 501 {object} ErrorResponseBody "Audit log not configured"
// @Security BearerAuth
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.processService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Result handles GET /api/v1/runs/:id/result
// @Summary Get the archived result of a parse run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Response{data=domain.ParseBatchResult} "Archived batch"
// @Failure 400 {object} ErrorResponseBody "Invalid run ID"
// @Failure 404 {object} ErrorResponseBody "Run or archived result not found"
// @Failure 501 {object} ErrorResponseBody "Audit log or archive not configured"
// @Security BearerAuth
// @Router /runs/{id}/result [get]
func (h *RunHandler) Result(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	data, err := h.processService.GetRunResult(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, data)
}
