package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-harmonizer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/config"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/services"
)

// Deps are the long-lived collaborators the routes share
type Deps struct {
	DB         *gorm.DB
	CloudWatch *metrics.Client
}

func SetupRouter(deps Deps, cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	defaultStyle := harmony.LookupStyle(cfg.DefaultStyle)
	harmonizer := services.NewHarmonizer(
		services.WithDefaultStyle(defaultStyle),
		services.WithMaxChords(cfg.MaxChords),
		services.WithBatchConcurrency(cfg.BatchConcurrency),
		services.WithRecorder(metrics.Recorders{metrics.NewSentryMetrics(), deps.CloudWatch}),
	)
	store := services.NewStore(deps.DB)

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, harmonizer.MaxChords())
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		v1.GET("/styles", handlers.Styles(defaultStyle))

		harmonizeHandler := handlers.NewHarmonizeHandler(harmonizer, store, cfg.PreviewSampleRate)
		v1.POST("/harmonize", harmonizeHandler.Harmonize)
		v1.POST("/harmonize/batch", harmonizeHandler.Batch)
		v1.POST("/harmonize/midi", harmonizeHandler.HarmonizeMIDI)
		v1.POST("/preview", harmonizeHandler.Preview)
		v1.POST("/voicings", harmonizeHandler.Voicings)

		v1.GET("/harmonizations", harmonizeHandler.List)
		v1.GET("/harmonizations/:id", harmonizeHandler.Get)
		v1.GET("/harmonizations/:id/midi", harmonizeHandler.GetMIDI)
	}

	return router
}

func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		log.Println("🔐 Auth mode: gateway (trusting X-User-* headers)")
		return apimiddleware.GatewayAuth()
	case cfg.IsJWTMode():
		log.Println("🔐 Auth mode: jwt (HS256 bearer tokens)")
		return apimiddleware.JWTAuth(cfg.JWTSecret)
	default:
		log.Println("🔓 Auth mode: none")
		return apimiddleware.NoAuth()
	}
}
