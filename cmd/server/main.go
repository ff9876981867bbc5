package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veloway/rider-tracking/internal/api"
	"github.com/veloway/rider-tracking/internal/infrastructure/config"
	mongodb "github.com/veloway/rider-tracking/internal/infrastructure/db/mongo"
	redisdb "github.com/veloway/rider-tracking/internal/infrastructure/db/redis"
	"github.com/veloway/rider-tracking/internal/infrastructure/monitor"
	"github.com/veloway/rider-tracking/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting rider tracking engine")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	pingRepo := mongodb.NewPingRepository(db)
	if err := pingRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create ping indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	e, dispatcher, presence := api.NewRouter(db, rdb, cfg, log)

	dispatcher.Start(ctx)

	presenceMonitor := monitor.NewPresenceMonitor(
		presence,
		cfg.Tracking.PresenceScanInterval,
		cfg.Tracking.OfflineCutoff,
		logger.Component("presence-monitor"),
	)
	presenceMonitor.Start(ctx)

	if cfg.Tracking.RetentionMaxAge > 0 {
		monitor.NewRetentionSweeper(
			pingRepo,
			cfg.Tracking.RetentionSweepInterval,
			cfg.Tracking.RetentionMaxAge,
			logger.Component("retention"),
		).Start(ctx)
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
