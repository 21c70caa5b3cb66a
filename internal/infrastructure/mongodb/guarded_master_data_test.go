package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
)

type flakyMasterData struct {
	err   error
	calls int
}

func (f *flakyMasterData) WarehouseExists(ctx context.Context, warehouseID string) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func (f *flakyMasterData) GoodsExists(ctx context.Context, goodsID string) (bool, error) {
	f.calls++
	return false, f.err
}

func (f *flakyMasterData) FindLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	f.calls++
	return nil, f.err
}

func TestGuardedMasterData_MissingRowsDoNotTrip(t *testing.T) {
	inner := &flakyMasterData{}
	cfg := resilience.DefaultCircuitBreakerConfig("master-data-test")
	cfg.FailureThreshold = 2
	guarded := NewGuardedMasterData(inner, resilience.NewCircuitBreaker(cfg, nil))

	for i := 0; i < 5; i++ {
		ok, err := guarded.GoodsExists(context.Background(), "g-unknown")
		require.NoError(t, err)
		assert.False(t, ok)

		loc, err := guarded.FindLocation(context.Background(), "loc-unknown")
		require.NoError(t, err)
		assert.Nil(t, loc)
	}
	assert.Equal(t, 10, inner.calls)
}

func TestGuardedMasterData_OpensOnDriverErrors(t *testing.T) {
	inner := &flakyMasterData{err: errors.New("connection refused")}
	cfg := resilience.DefaultCircuitBreakerConfig("master-data-test")
	cfg.FailureThreshold = 2
	guarded := NewGuardedMasterData(inner, resilience.NewCircuitBreaker(cfg, nil))

	for i := 0; i < 2; i++ {
		_, err := guarded.WarehouseExists(context.Background(), "wh-1")
		require.Error(t, err)
	}

	_, err := guarded.WarehouseExists(context.Background(), "wh-1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}
