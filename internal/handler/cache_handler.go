package handler

import (
	"github.com/gin-gonic/gin"

	"flowforge/internal/service"
)

// CacheHandler exposes result cache administration.
type CacheHandler struct {
	processService service.ProcessService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(processService service.ProcessService) *CacheHandler {
	return &CacheHandler{processService: processService}
}

// Stats handles GET /api/v1/cache/stats
// @Summary Cache statistics for today (UTC)
// @Tags cache
// @Produce json
// @Success 200 {object} Response{data=domain.CacheStats} "Cache statistics"
// @Failure 503 {object} ErrorResponseBody "Cache unavailable"
// @Security BearerAuth
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.processService.CacheStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}

// Clear handles DELETE /api/v1/cache
// @Summary Clear cached results
// @Description Deletes cached parse results matching the optional glob pattern. Statistics are kept.
// @Tags cache
// @Produce json
// @Param pattern query string false "Key glob, e.g. parse:*"
// @Success 200 {object} Response{data=ClearCacheResponse} "Keys removed"
// @Failure 403 {object} ErrorResponseBody "Admin role required"
// @Failure 503 {object} ErrorResponseBody "Cache unavailable"
// @Security BearerAuth
// @Router /cache [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	pattern := c.Query("pattern")

	n, err := h.processService.ClearCache(c.Request.Context(), pattern)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ClearCacheResponse{Deleted: n, Pattern: pattern})
}
