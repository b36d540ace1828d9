package workflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

func newPollEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	a := &PollActivities{}
	env.RegisterActivityWithOptions(a.ListActiveContracts, activity.RegisterOptions{Name: ActivityListActiveContracts})
	env.RegisterActivityWithOptions(a.PollContract, activity.RegisterOptions{Name: ActivityPollContract})
	return env
}

func TestTrackingPollWorkflow_PollsEveryActiveContract(t *testing.T) {
	env := newPollEnv(t)
	env.OnActivity(ActivityListActiveContracts, mock.Anything).Return([]string{"c-1", "c-2"}, nil)
	env.OnActivity(ActivityPollContract, mock.Anything, "c-1").Return(PollResult{ContractID: "c-1", Outcome: PollAccepted}, nil)
	env.OnActivity(ActivityPollContract, mock.Anything, "c-2").Return(PollResult{ContractID: "c-2", Outcome: PollUnchanged}, nil)

	env.ExecuteWorkflow(TrackingPollWorkflow, TrackingPollInput{Interval: time.Minute, MaxRounds: 2})

	require.True(t, env.IsWorkflowCompleted())
	var can *workflow.ContinueAsNewError
	require.True(t, errors.As(env.GetWorkflowError(), &can), "expected continue-as-new, got %v", env.GetWorkflowError())
	env.AssertNumberOfCalls(t, ActivityListActiveContracts, 2)
	env.AssertNumberOfCalls(t, ActivityPollContract, 4)
}

func TestTrackingPollWorkflow_FailingContractDoesNotStopRound(t *testing.T) {
	env := newPollEnv(t)
	env.OnActivity(ActivityListActiveContracts, mock.Anything).Return([]string{"bad", "good"}, nil)
	env.OnActivity(ActivityPollContract, mock.Anything, "bad").Return(PollResult{}, errors.New("freight api down"))
	env.OnActivity(ActivityPollContract, mock.Anything, "good").Return(PollResult{ContractID: "good", Outcome: PollAccepted}, nil).Once()

	env.ExecuteWorkflow(TrackingPollWorkflow, TrackingPollInput{Interval: time.Minute, MaxRounds: 1})

	require.True(t, env.IsWorkflowCompleted())
	var can *workflow.ContinueAsNewError
	require.True(t, errors.As(env.GetWorkflowError(), &can))
	env.AssertExpectations(t)
}

func TestTrackingPollWorkflow_ListFailureSleepsAndRetries(t *testing.T) {
	env := newPollEnv(t)
	env.OnActivity(ActivityListActiveContracts, mock.Anything).Return(nil, errors.New("db unavailable"))

	env.ExecuteWorkflow(TrackingPollWorkflow, TrackingPollInput{Interval: time.Minute, MaxRounds: 2})

	require.True(t, env.IsWorkflowCompleted())
	env.AssertNotCalled(t, ActivityPollContract, mock.Anything, mock.Anything)
}
