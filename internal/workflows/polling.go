package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TrackingPollInput is the input for the tracking poll workflow.
type TrackingPollInput struct {
	Interval time.Duration
	// MaxRounds bounds history; the workflow continues as new after this
	// many rounds. Zero means 100.
	MaxRounds int
}

// TrackingPollWorkflow polls the freight API for every active contract on a
// fixed interval. A failing contract is logged and retried next round.
func TrackingPollWorkflow(ctx workflow.Context, input TrackingPollInput) error {
	logger := workflow.GetLogger(ctx)
	if input.Interval <= 0 {
		input.Interval = 30 * time.Second
	}
	maxRounds := input.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 100
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	for round := 0; round < maxRounds; round++ {
		var ids []string
		if err := workflow.ExecuteActivity(ctx, ActivityListActiveContracts).Get(ctx, &ids); err != nil {
			logger.Warn("listing active contracts failed", "error", err)
		}

		futures := make([]workflow.Future, 0, len(ids))
		for _, id := range ids {
			futures = append(futures, workflow.ExecuteActivity(ctx, ActivityPollContract, id))
		}
		for i, f := range futures {
			var res PollResult
			if err := f.Get(ctx, &res); err != nil {
				logger.Warn("poll failed", "contract_id", ids[i], "error", err)
				continue
			}
			logger.Debug("polled", "contract_id", res.ContractID, "outcome", res.Outcome)
		}

		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			return err
		}
	}

	return workflow.NewContinueAsNewError(ctx, TrackingPollWorkflow, input)
}
