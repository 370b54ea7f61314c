package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flowforge/internal/domain"
	"flowforge/internal/middleware"
)

// statusClientClosedRequest is the non-standard nginx code for a client that
// went away before the response was written.
const statusClientClosedRequest = 499

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "text must not be empty"
	case errors.Is(err, domain.ErrUnsupportedInputType):
		return http.StatusBadRequest, "UNSUPPORTED_INPUT_TYPE", "unsupported inputType; allowed: document, voice_transcript, chat"
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "document exceeds maximum allowed size"
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest, "EMPTY_MESSAGE", "message must not be empty"
	case errors.Is(err, domain.ErrInvalidProcess):
		return http.StatusBadRequest, "INVALID_PROCESS", "process must have a name and at least one node"
	case errors.Is(err, domain.ErrPipelineExhausted):
		return http.StatusBadGateway, "PIPELINE_EXHAUSTED", "no process could be extracted from the document"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "LLM_UNAVAILABLE", "language model provider is unavailable"
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_LLM_RESPONSE", "language model returned an unreadable response"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "request timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "REQUEST_CANCELED", "request was canceled"
	case errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "result cache is unavailable"
	case errors.Is(err, domain.ErrAuditDisabled):
		return http.StatusNotImplemented, "AUDIT_DISABLED", "parse run audit log is not configured"
	case errors.Is(err, domain.ErrArchiveDisabled):
		return http.StatusNotImplemented, "ARCHIVE_DISABLED", "result archive is not configured"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Printf("[%s] %s: %v", middleware.GetRequestID(c), code, err)
	}
	RespondError(c, status, code, msg)
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
