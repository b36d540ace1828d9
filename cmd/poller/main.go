package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/freightline/tracker/internal/adapters/freightapi"
	natsadapter "github.com/freightline/tracker/internal/adapters/nats"
	"github.com/freightline/tracker/internal/adapters/postgres"
	"github.com/freightline/tracker/internal/adapters/valkey"
	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/core/usecases"
	"github.com/freightline/tracker/internal/pkg/config"
	"github.com/freightline/tracker/internal/pkg/logging"
	"github.com/freightline/tracker/internal/workflows"
)

const pollWorkflowID = "tracking-poll"

func main() {
	cfg, err := config.Load("tracker-poller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	api := freightapi.New(cfg.Providers.BaseURL, domain.Session{
		Token: cfg.Providers.Token,
		Role:  domain.Role(cfg.Providers.Role),
	}, cfg.Providers.Timeout)

	filter := &tracking.PlausibilityFilter{
		Multiplier:  cfg.Tracking.Plausibility.Multiplier,
		AllowanceKm: cfg.Tracking.Plausibility.AllowanceKm,
	}

	contractRepo := postgres.NewContractRepo(db)
	reportRepo := postgres.NewTrackingReportRepo(db)
	geoSvc := usecases.NewGeoService(api, api, cacheSvc, filter)

	acts := &workflows.PollActivities{
		Contracts: usecases.NewContractService(contractRepo),
		Tracking:  usecases.NewTrackingService(contractRepo, reportRepo, geoSvc, publisher, cacheSvc, filter, nil),
		Source:    api,
		Reports:   reportRepo,
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.TrackingPollWorkflow)
	w.RegisterActivityWithOptions(acts.ListActiveContracts, activity.RegisterOptions{Name: workflows.ActivityListActiveContracts})
	w.RegisterActivityWithOptions(acts.PollContract, activity.RegisterOptions{Name: workflows.ActivityPollContract})

	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       pollWorkflowID,
		TaskQueue:                                cfg.Temporal.TaskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.TrackingPollWorkflow, workflows.TrackingPollInput{Interval: cfg.Tracking.PollInterval})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &started) {
			log.Fatalf("start poll workflow: %v", err)
		}
		slog.Info("poll workflow already running", "workflow_id", pollWorkflowID)
	}

	slog.Info("poller worker started", "task_queue", cfg.Temporal.TaskQueue, "interval", cfg.Tracking.PollInterval)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
