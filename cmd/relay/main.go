package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/freightline/tracker/internal/adapters/nats"
	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/pkg/config"
	"github.com/freightline/tracker/internal/pkg/logging"
	"github.com/freightline/tracker/internal/pkg/metrics"
)

// slots keeps one latest-wins slot per contract.
type slots struct {
	mu sync.Mutex
	m  map[string]*tracking.PositionSlot
}

// get returns the slot for id and whether it was created by this call.
func (s *slots) get(id string) (*tracking.PositionSlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.m[id]; ok {
		return slot, false
	}
	slot := tracking.NewPositionSlot()
	s.m[id] = slot
	return slot, true
}

func main() {
	cfg, err := config.Load("tracker-relay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "tracker-relay")
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	live := &slots{m: make(map[string]*tracking.PositionSlot)}
	var wg sync.WaitGroup

	err = sub.SubscribePositions(ctx, func(ctx context.Context, report *domain.TrackingReport) error {
		slot, created := live.get(report.ContractID)
		slot.Offer(report.Position)
		if created {
			wg.Add(1)
			go func() {
				defer wg.Done()
				drain(ctx, report.ContractID, slot)
			}()
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe positions: %v", err)
	}

	// Metrics only; the relay serves no API.
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", metrics.Handler())
	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			slog.Error("metrics listener stopped", "error", err)
		}
	}()

	slog.Info("relay started", "subject", natsadapter.SubjectPositions+".>", "metrics_port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("received signal, shutting down relay", "signal", sig.String())
	cancel()
	wg.Wait()
	_ = app.Shutdown()
}

// drain consumes the newest fix for one contract at a time. Reports that
// arrive while a fix is being handled collapse into the latest one.
func drain(ctx context.Context, contractID string, slot *tracking.PositionSlot) {
	metrics.RelayedContracts.Inc()
	defer metrics.RelayedContracts.Dec()

	for {
		p, err := slot.Next(ctx)
		if err != nil {
			return
		}
		metrics.RelayedFixes.Inc()
		slog.Info("live fix",
			"contract_id", contractID,
			"lat", p.Lat,
			"lon", p.Lon,
			"at", time.Now().UTC().Format(time.RFC3339),
		)
	}
}
