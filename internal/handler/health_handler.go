package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is implemented by every backing store the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cache Pinger
	db    Pinger
}

// NewHealthHandler creates a new HealthHandler. Either pinger may be nil
// when the component is disabled.
func NewHealthHandler(cache, db Pinger) *HealthHandler {
	return &HealthHandler{cache: cache, db: db}
}

// Liveness handles GET /healthz
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles GET /readyz. The cache is advisory, so an unreachable
// Redis is reported but does not fail readiness; an unreachable audit
// database does.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Components: map[string]string{}}
	status := http.StatusOK

	resp.Components["cache"] = componentStatus(ctx, h.cache)
	resp.Components["database"] = componentStatus(ctx, h.db)
	if resp.Components["database"] == "unavailable" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if resp.Components["cache"] == "unavailable" {
		resp.Status = "degraded"
	}

	c.JSON(status, resp)
}

func componentStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
