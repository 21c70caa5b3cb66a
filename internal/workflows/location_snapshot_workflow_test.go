package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

func TestLocationSnapshotWorkflow_Success(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.RegisterActivityWithOptions(
		func(ctx context.Context, capturedAt time.Time) (int, error) { return 0, nil },
		activity.RegisterOptions{Name: CaptureLocationSnapshotActivity},
	)
	env.OnActivity(CaptureLocationSnapshotActivity, mock.Anything, mock.Anything).Return(3, nil)

	env.ExecuteWorkflow(LocationSnapshotWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result LocationSnapshotResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 3, result.Rows)
	assert.False(t, result.CapturedAt.IsZero())
}

func TestLocationSnapshotWorkflow_ActivityFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.RegisterActivityWithOptions(
		func(ctx context.Context, capturedAt time.Time) (int, error) { return 0, nil },
		activity.RegisterOptions{Name: CaptureLocationSnapshotActivity},
	)
	env.OnActivity(CaptureLocationSnapshotActivity, mock.Anything, mock.Anything).Return(0, errors.New("mongo unavailable"))

	env.ExecuteWorkflow(LocationSnapshotWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

type fakeCapturer struct {
	at   time.Time
	rows int
	err  error
}

func (f *fakeCapturer) Capture(ctx context.Context, capturedAt time.Time) (int, error) {
	f.at = capturedAt
	return f.rows, f.err
}

func TestCaptureLocationSnapshotActivity(t *testing.T) {
	capturer := &fakeCapturer{rows: 7}
	activities := NewSnapshotActivities(capturer, logging.NewNop(), metrics.New(metrics.DefaultConfig("workflows-test")))

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	val, err := env.ExecuteActivity(activities.CaptureLocationSnapshot, at)
	require.NoError(t, err)

	var rows int
	require.NoError(t, val.Get(&rows))
	assert.Equal(t, 7, rows)
	assert.True(t, capturer.at.Equal(at))
}
