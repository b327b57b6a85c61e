package http

import (
	"github.com/gin-gonic/gin"

	"github.com/runova/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	router.GET("/health", handler.HealthCheck)

	router.POST("/ask", handler.Ask)
	router.POST("/skin-analyze", handler.SkinAnalyze)
	router.POST("/analyze-audio", handler.AnalyzeAudio)

	router.GET("/img-proxy", handler.ImageProxy)
	router.GET("/audio/:name", handler.Audio)

	return router
}
