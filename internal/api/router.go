package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veloway/rider-tracking/internal/api/handler"
	"github.com/veloway/rider-tracking/internal/core/ports"
	"github.com/veloway/rider-tracking/internal/core/service"
	"github.com/veloway/rider-tracking/internal/infrastructure/config"
	mongodb "github.com/veloway/rider-tracking/internal/infrastructure/db/mongo"
	redisdb "github.com/veloway/rider-tracking/internal/infrastructure/db/redis"
	"github.com/veloway/rider-tracking/internal/infrastructure/http/handlers"
	"github.com/veloway/rider-tracking/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the batch ingest dispatcher and the presence service, so
// main can start the workers and the periodic monitor.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, *queue.Dispatcher, ports.PresenceService) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tracking"))

	// --- Dependencies ---
	pingRepo := mongodb.NewPingRepository(db)
	riderDir := mongodb.NewRiderRepository(db)
	cache := redisdb.NewLocationCache(rdb, cfg.Tracking.LocationCacheTTL)

	ingestSvc := service.NewIngestService(pingRepo, cache, cfg.Tracking.MaxFutureSkew, log)
	trackingSvc := service.NewTrackingService(pingRepo, cache, cfg.Tracking.DefaultHistoryLimit, cfg.Tracking.MaxHistoryLimit, log)
	presenceSvc := service.NewPresenceService(pingRepo, riderDir, log)

	dispatcher := queue.NewDispatcher(cfg.Tracking.IngestWorkers, ingestSvc, log)

	pingHandler := handler.NewPingHandler(ingestSvc, dispatcher, cfg.Tracking.MaxFutureSkew)
	riderHandler := handler.NewRiderHandler(trackingSvc, presenceSvc, cfg.Tracking.OfflineCutoff)

	// --- Ingest routes ---
	e.POST("/v1/pings", pingHandler.Ingest)
	e.POST("/v1/pings/batch", pingHandler.IngestBatch)
	e.DELETE("/v1/pings/:id", pingHandler.Deactivate)

	// --- Query routes ---
	// /riders/offline must be registered before the :rider_id routes so the
	// literal segment wins.
	e.GET("/v1/riders/offline", riderHandler.Offline)
	e.GET("/v1/riders/:rider_id/location", riderHandler.CurrentLocation)
	e.GET("/v1/riders/:rider_id/history", riderHandler.History)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e, dispatcher, presenceSvc
}
