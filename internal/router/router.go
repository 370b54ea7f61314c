package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "flowforge/docs"
	"flowforge/internal/domain"
	"flowforge/internal/handler"
	"flowforge/internal/metrics"
	"flowforge/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware. A nil
// verifier leaves the API unauthenticated.
func Setup(
	verifier *middleware.TokenVerifier,
	corsOrigins []string,
	processH *handler.ProcessHandler,
	runH *handler.RunHandler,
	cacheH *handler.CacheHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Operational endpoints
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if verifier != nil {
		v1.Use(middleware.AuthMiddleware(verifier))
	}

	process := v1.Group("/process")
	process.POST("/parse", processH.Parse)
	process.POST("/ideal-state", processH.IdealState)
	process.POST("/chat", processH.Chat)
	process.POST("/export", processH.Export)

	v1.GET("/runs", runH.List)
	v1.GET("/runs/:id/result", runH.Result)

	cache := v1.Group("/cache")
	cache.GET("/stats", cacheH.Stats)
	if verifier != nil {
		cache.DELETE("", middleware.RequireRole(domain.RoleAdmin), cacheH.Clear)
	} else {
		cache.DELETE("", cacheH.Clear)
	}

	return r
}
