package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/freightline/tracker/internal/adapters/freightapi"
	"github.com/freightline/tracker/internal/adapters/http"
	natsadapter "github.com/freightline/tracker/internal/adapters/nats"
	"github.com/freightline/tracker/internal/adapters/postgres"
	"github.com/freightline/tracker/internal/adapters/valkey"
	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/core/usecases"
	"github.com/freightline/tracker/internal/pkg/config"
	"github.com/freightline/tracker/internal/pkg/logging"
	"github.com/freightline/tracker/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tracker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache and messaging are optional; keep the interfaces nil when down.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Freight API
	api := freightapi.New(cfg.Providers.BaseURL, domain.Session{
		Token: cfg.Providers.Token,
		Role:  domain.Role(cfg.Providers.Role),
	}, cfg.Providers.Timeout)

	filter := &tracking.PlausibilityFilter{
		Multiplier:  cfg.Tracking.Plausibility.Multiplier,
		AllowanceKm: cfg.Tracking.Plausibility.AllowanceKm,
	}
	fitter := &tracking.ViewportFitter{
		FallbackCenter: domain.GeoPoint{Lat: cfg.Tracking.FallbackCenter.Lat, Lon: cfg.Tracking.FallbackCenter.Lon},
	}

	// Repos
	contractRepo := postgres.NewContractRepo(db)
	reportRepo := postgres.NewTrackingReportRepo(db)

	// Use cases
	geoSvc := usecases.NewGeoService(api, api, cacheSvc, filter)
	contractSvc := usecases.NewContractService(contractRepo)
	trackingSvc := usecases.NewTrackingService(contractRepo, reportRepo, geoSvc, publisher, cacheSvc, filter, fitter)

	deps := &http.Dependencies{
		Contracts: contractSvc,
		Tracking:  trackingSvc,
		Geo:       geoSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Freight Tracker API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
