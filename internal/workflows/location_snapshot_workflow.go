package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	pkgtemporal "github.com/wms-platform/fulfillment-service/pkg/temporal"
)

// CaptureLocationSnapshotActivity is the registered activity name
const CaptureLocationSnapshotActivity = "CaptureLocationSnapshot"

// LocationSnapshotResult is returned by each snapshot run
type LocationSnapshotResult struct {
	CapturedAt time.Time `json:"capturedAt"`
	Rows       int       `json:"rows"`
}

// LocationSnapshotWorkflow copies all location stock once per cron tick.
// The capture timestamp comes from workflow time so retries of the activity
// write rows under the same instant.
func LocationSnapshotWorkflow(ctx workflow.Context) (*LocationSnapshotResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         pkgtemporal.DefaultRetryPolicy(),
	})

	result := &LocationSnapshotResult{CapturedAt: workflow.Now(ctx).UTC()}
	logger.Info("Starting location snapshot", "capturedAt", result.CapturedAt)

	if err := workflow.ExecuteActivity(ctx, CaptureLocationSnapshotActivity, result.CapturedAt).Get(ctx, &result.Rows); err != nil {
		logger.Error("Location snapshot failed", "error", err)
		return nil, err
	}

	logger.Info("Location snapshot completed", "rows", result.Rows)
	return result, nil
}
