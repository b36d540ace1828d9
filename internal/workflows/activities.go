package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/usecases"
	"github.com/freightline/tracker/internal/pkg/metrics"
)

// Activity names, as registered on the worker.
const (
	ActivityListActiveContracts = "ListActiveContracts"
	ActivityPollContract        = "PollContract"
)

// Poll outcomes.
const (
	PollAccepted   = "accepted"
	PollRejected   = "rejected"
	PollUnchanged  = "unchanged"
	PollNoPosition = "no_position"
)

// PollResult reports what happened to one contract during a poll round.
type PollResult struct {
	ContractID string `json:"contract_id"`
	Outcome    string `json:"outcome"`
}

// PollActivities holds the activity implementations for the tracking poll workflow.
type PollActivities struct {
	Contracts *usecases.ContractService
	Tracking  *usecases.TrackingService
	Source    ports.TrackingSource
	Reports   ports.TrackingReportRepository
}

// ListActiveContracts returns the IDs of contracts expecting reports.
func (a *PollActivities) ListActiveContracts(ctx context.Context) ([]string, error) {
	contracts, err := a.Contracts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active contracts: %w", err)
	}
	ids := make([]string, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// PollContract fetches the driver's latest position from the freight API and
// feeds it through the tracking pipeline unless it was already seen.
func (a *PollActivities) PollContract(ctx context.Context, contractID string) (PollResult, error) {
	start := time.Now()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	result := PollResult{ContractID: contractID}

	report, err := a.Source.LatestReport(ctx, contractID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result.Outcome = PollNoPosition
			return result, nil
		}
		metrics.ProviderErrors.WithLabelValues("tracking").Inc()
		return result, fmt.Errorf("fetch tracking for %s: %w", contractID, err)
	}

	if prev, err := a.Reports.Latest(ctx, contractID); err == nil && alreadySeen(report, prev) {
		result.Outcome = PollUnchanged
		return result, nil
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now()
	}

	verdict, err := a.Tracking.ProcessReport(ctx, report)
	if err != nil {
		return result, fmt.Errorf("process report for %s: %w", contractID, err)
	}
	if verdict.Accepted {
		result.Outcome = PollAccepted
	} else {
		result.Outcome = PollRejected
		slog.InfoContext(ctx, "polled position rejected",
			"contract_id", contractID, "driver_km", verdict.DriverKm, "limit_km", verdict.LimitKm)
	}
	return result, nil
}

// alreadySeen reports whether polled matches the stored report. Without a
// timestamp from the source only the position can be compared.
func alreadySeen(polled, stored *domain.TrackingReport) bool {
	if polled.ReportedAt.IsZero() {
		return polled.Position == stored.Position
	}
	return !polled.ReportedAt.After(stored.ReportedAt)
}
