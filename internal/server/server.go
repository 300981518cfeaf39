// Package server provides HTTP server setup and configuration.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sebasr/avt-ingest/internal/config"
	"github.com/sebasr/avt-ingest/internal/handlers"
	"github.com/sebasr/avt-ingest/internal/middleware"
	"github.com/sebasr/avt-ingest/internal/repository"
)

// Dependencies holds all dependencies needed to create a server
type Dependencies struct {
	Config         *config.Config
	OrganizationID uuid.UUID
	Health         handlers.HealthChecker // Optional: nil skips the database probe
	Jobs           handlers.JobQueue
	VehicleRepo    repository.VehicleRepository
	SessionRepo    repository.SessionRepository
	EventRepo      repository.EventRepository
	Gatherer       prometheus.Gatherer // Optional: defaults to the global registry
	Logger         *slog.Logger
}

// New creates a new Gin router with all routes configured
func New(deps *Dependencies) *gin.Engine {
	// Release mode keeps ANSI colors out of the logs
	gin.SetMode(gin.ReleaseMode)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Location"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger, "/api/v1/health", "/metrics"))
	router.Use(middleware.NewRateLimitMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	healthHandler := handlers.NewHealthHandler(deps.Health)
	ingestHandler := handlers.NewIngestHandler(deps.Jobs)
	sessionHandler := handlers.NewSessionHandler(deps.VehicleRepo, deps.SessionRepo, deps.EventRepo, deps.OrganizationID)

	ingestLimiter := middleware.NewIngestRateLimitMiddleware(
		deps.Config.Server.IngestRateLimit,
		deps.Config.Server.IngestRatePeriod,
	)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Check)

		vehicles := v1.Group("/vehicles/:vehicle")
		{
			vehicles.POST("/ingest", ingestLimiter, ingestHandler.Trigger)
			vehicles.GET("/sessions", sessionHandler.ListSessions)
		}

		v1.GET("/jobs/:id", ingestHandler.GetJob)
		v1.GET("/sessions/:id", sessionHandler.GetSession)
	}

	return router
}
