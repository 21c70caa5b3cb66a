package mongodb

import (
	"context"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
)

// GuardedMasterData routes master data lookups through a circuit breaker.
// A missing row is a successful lookup, so only driver errors count.
type GuardedMasterData struct {
	inner   domain.MasterData
	breaker *resilience.CircuitBreaker
}

// NewGuardedMasterData wraps inner with breaker
func NewGuardedMasterData(inner domain.MasterData, breaker *resilience.CircuitBreaker) *GuardedMasterData {
	return &GuardedMasterData{inner: inner, breaker: breaker}
}

func (g *GuardedMasterData) WarehouseExists(ctx context.Context, warehouseID string) (bool, error) {
	return resilience.ExecuteWithResult(ctx, g.breaker, func() (bool, error) {
		return g.inner.WarehouseExists(ctx, warehouseID)
	})
}

func (g *GuardedMasterData) GoodsExists(ctx context.Context, goodsID string) (bool, error) {
	return resilience.ExecuteWithResult(ctx, g.breaker, func() (bool, error) {
		return g.inner.GoodsExists(ctx, goodsID)
	})
}

func (g *GuardedMasterData) FindLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	return resilience.ExecuteWithResult(ctx, g.breaker, func() (*domain.Location, error) {
		return g.inner.FindLocation(ctx, locationID)
	})
}
