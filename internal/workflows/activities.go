package workflows

import (
	"context"
	"time"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// SnapshotCapturer writes one snapshot row per location stock row
type SnapshotCapturer interface {
	Capture(ctx context.Context, capturedAt time.Time) (int, error)
}

// SnapshotActivities contains activities for the location snapshot workflow
type SnapshotActivities struct {
	snapshots SnapshotCapturer
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewSnapshotActivities creates a new SnapshotActivities instance
func NewSnapshotActivities(snapshots SnapshotCapturer, logger *logging.Logger, m *metrics.Metrics) *SnapshotActivities {
	return &SnapshotActivities{
		snapshots: snapshots,
		logger:    logger.WithComponent("snapshot-activities"),
		metrics:   m,
	}
}

// CaptureLocationSnapshot captures location stock at capturedAt
func (a *SnapshotActivities) CaptureLocationSnapshot(ctx context.Context, capturedAt time.Time) (int, error) {
	start := time.Now()
	rows, err := a.snapshots.Capture(ctx, capturedAt)
	if a.metrics != nil {
		a.metrics.RecordActivityCompleted(CaptureLocationSnapshotActivity, err == nil, time.Since(start))
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to capture location snapshot", "captured_at", capturedAt)
		return 0, err
	}
	return rows, nil
}
