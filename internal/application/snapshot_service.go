package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// SnapshotService captures and reads point-in-time copies of location stock
type SnapshotService struct {
	repos   *Repositories
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewSnapshotService creates a SnapshotService
func NewSnapshotService(repos *Repositories, logger *logging.Logger, m *metrics.Metrics) *SnapshotService {
	return &SnapshotService{
		repos:   repos,
		logger:  logger.WithComponent("snapshot"),
		metrics: m,
	}
}

// Capture copies every location stock row at capturedAt and returns the
// number of rows written
func (s *SnapshotService) Capture(ctx context.Context, capturedAt time.Time) (int, error) {
	rows, err := s.repos.LocationStock.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list location stock: %w", err)
	}

	snapshots := make([]domain.LocationSnapshot, 0, len(rows))
	for _, r := range rows {
		snapshots = append(snapshots, domain.NewLocationSnapshot(r, capturedAt.UTC()))
	}
	if len(snapshots) > 0 {
		if err := s.repos.Snapshots.SaveAll(ctx, snapshots); err != nil {
			return 0, fmt.Errorf("failed to save snapshots: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.SetSnapshotRows(len(snapshots))
	}
	s.logger.Info("Location snapshot captured", "rows", len(snapshots), "captured_at", capturedAt)
	return len(snapshots), nil
}

// List reads snapshots of a warehouse captured in [From, To]
func (s *SnapshotService) List(ctx context.Context, query ListSnapshotsQuery) ([]SnapshotDTO, error) {
	to := query.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	from := query.From
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if from.After(to) {
		return nil, errors.ErrValidation("from must not be after to")
	}
	rows, err := s.repos.Snapshots.Find(ctx, query.WarehouseID, from, to, query.Limit)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToSnapshotDTOs(rows), nil
}
