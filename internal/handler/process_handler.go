package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flowforge/internal/domain"
	"flowforge/internal/middleware"
	"flowforge/internal/service"
	"flowforge/internal/xlsxexport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProcessHandler handles process parsing endpoints.
type ProcessHandler struct {
	processService service.ProcessService
	now            func() time.Time
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processService service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processService: processService, now: time.Now}
}

// Parse handles POST /api/v1/process/parse
// @Summary Parse a document into process graphs
// @Description Detect the workflows described in free text and extract each one as a process graph
// @Tags process
// @Accept json
// @Produce json
// @Param request body ParseRequest true "Document text"
// @Success 200 {object} Response{data=domain.ParseBatchResult} "Parsed processes"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 413 {object} ErrorResponseBody "Document too large"
// @Failure 502 {object} ErrorResponseBody "No process could be extracted"
// @Security BearerAuth
// @Router /process/parse [post]
func (h *ProcessHandler) Parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return
	}

	result, err := h.processService.Parse(c.Request.Context(), &service.ParseInput{
		Text:              req.Text,
		InputType:         domain.InputType(strings.TrimSpace(req.InputType)),
		AdditionalContext: req.AdditionalContext,
		RequestedBy:       middleware.GetSubject(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// IdealState handles POST /api/v1/process/ideal-state
// @Summary Generate an ideal-state vision
// @Description Ask the model for grouped improvements of one parsed process. Generation failures return a placeholder vision.
// @Tags process
// @Accept json
// @Produce json
// @Param request body IdealStateRequest true "Parsed process"
// @Success 200 {object} Response{data=domain.IdealState} "Ideal state"
// @Failure 400 {object} ErrorResponseBody "Invalid process"
// @Security BearerAuth
// @Router /process/ideal-state [post]
func (h *ProcessHandler) IdealState(c *gin.Context) {
	var req IdealStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return
	}

	state, err := h.processService.GenerateIdealState(c.Request.Context(), &req.Process)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, state)
}

// Chat handles POST /api/v1/process/chat
// @Summary Document a process through conversation
// @Description Send the next user message with the conversation so far. Model failures return a neutral reply.
// @Tags process
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Chat turn"
// @Success 200 {object} Response{data=ChatResponse} "Assistant reply"
// @Failure 400 {object} ErrorResponseBody "Empty message"
// @Security BearerAuth
// @Router /process/chat [post]
func (h *ProcessHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return
	}

	reply, err := h.processService.Chat(c.Request.Context(), &service.ChatInput{
		History: req.History,
		Message: req.Message,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ChatResponse{Response: reply})
}

// Export handles POST /api/v1/process/export
// @Summary Export parsed processes as a spreadsheet
// @Description Render a parse batch as an .xlsx workbook with a summary sheet and one sheet per process
// @Tags process
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body ExportRequest true "Parse batch"
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} ErrorResponseBody "Invalid batch"
// @Security BearerAuth
// @Router /process/export [post]
func (h *ProcessHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return
	}

	data, err := h.processService.Export(c.Request.Context(), &req.Batch)
	if err != nil {
		HandleError(c, err)
		return
	}

	name := req.Name
	if name == "" && len(req.Batch.Processes) == 1 {
		name = req.Batch.Processes[0].Name
	}
	c.Header("Content-Disposition", `attachment; filename="`+xlsxexport.BuildFilename(name, h.now())+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
