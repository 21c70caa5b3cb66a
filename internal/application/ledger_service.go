package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// LedgerService owns every inventory ledger mutation. Document and task
// flows reach the ledger only through its unexported methods.
type LedgerService struct {
	uow     *UnitOfWorkManager
	repos   *Repositories
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewLedgerService creates a LedgerService
func NewLedgerService(uow *UnitOfWorkManager, repos *Repositories, logger *logging.Logger, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		uow:     uow,
		repos:   repos,
		logger:  logger.WithComponent("ledger"),
		metrics: m,
	}
}

// GetInventory returns one ledger row
func (s *LedgerService) GetInventory(ctx context.Context, query GetInventoryQuery) (*InventoryDTO, error) {
	inv, err := s.load(ctx, query.GoodsID, query.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToInventoryDTO(inv), nil
}

// ListInventory pages the ledger rows of a warehouse
func (s *LedgerService) ListInventory(ctx context.Context, query ListInventoryQuery) ([]InventoryDTO, int64, error) {
	rows, err := s.repos.Inventory.FindByWarehouse(ctx, query.WarehouseID, query.Limit, query.Offset)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	total, err := s.repos.Inventory.CountByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	return ToInventoryDTOs(rows), total, nil
}

// Lock reserves on-hand stock
func (s *LedgerService) Lock(ctx context.Context, cmd LockCommand) (*InventoryDTO, error) {
	return s.mutate(ctx, cmd.OperatorID, cmd.GoodsID, cmd.WarehouseID, domain.OpLock, func(inv *domain.Inventory) error {
		return inv.Lock(cmd.Quantity)
	})
}

// Unlock releases locked stock
func (s *LedgerService) Unlock(ctx context.Context, cmd LockCommand) (*InventoryDTO, error) {
	return s.mutate(ctx, cmd.OperatorID, cmd.GoodsID, cmd.WarehouseID, domain.OpUnlock, func(inv *domain.Inventory) error {
		return inv.Unlock(cmd.Quantity)
	})
}

// SetThresholds changes the low and high stock thresholds
func (s *LedgerService) SetThresholds(ctx context.Context, cmd SetThresholdsCommand) (*InventoryDTO, error) {
	return s.mutate(ctx, cmd.OperatorID, cmd.GoodsID, cmd.WarehouseID, domain.OpThresholds, func(inv *domain.Inventory) error {
		low, high := inv.LowStockThreshold, inv.HighStockThreshold
		if cmd.Low != nil {
			low = *cmd.Low
		}
		if cmd.High != nil {
			high = *cmd.High
		}
		return inv.SetThresholds(low, high)
	})
}

// CheckThresholds reports whether a ledger row is outside its thresholds
func (s *LedgerService) CheckThresholds(ctx context.Context, query GetInventoryQuery) (*ThresholdStatusDTO, error) {
	inv, err := s.load(ctx, query.GoodsID, query.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}
	status := inv.CheckThresholds()
	return &ThresholdStatusDTO{
		GoodsID:               inv.GoodsID,
		WarehouseID:           inv.WarehouseID,
		AvailableStockForSale: inv.AvailableStockForSale(),
		IsBelowLowThreshold:   status.BelowLow,
		IsAboveHighThreshold:  status.AboveHigh,
	}, nil
}

// Recompute re-derives the location-backed buckets and the outstanding
// ASN and DN stock of a ledger row. Running it twice changes nothing.
func (s *LedgerService) Recompute(ctx context.Context, cmd RecomputeCommand) (*InventoryDTO, error) {
	var result *domain.Inventory
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		if _, err := s.recomputeFromLocations(ctx, uow, cmd.GoodsID, cmd.WarehouseID); err != nil {
			return err
		}
		if _, err := s.recomputeOutstandingASN(ctx, uow, cmd.GoodsID, cmd.WarehouseID); err != nil {
			return err
		}
		inv, err := s.recomputeOutstandingDN(ctx, uow, cmd.GoodsID, cmd.WarehouseID)
		result = inv
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("Recomputed inventory", "goods_id", cmd.GoodsID, "warehouse_id", cmd.WarehouseID)
	return ToInventoryDTO(result), nil
}

func (s *LedgerService) mutate(ctx context.Context, operatorID, goodsID, warehouseID, op string, fn func(*domain.Inventory) error) (*InventoryDTO, error) {
	var result *domain.Inventory
	err := s.uow.Run(ctx, operatorID, func(ctx context.Context, uow *UnitOfWork) error {
		inv, err := s.apply(ctx, uow, goodsID, warehouseID, op, false, fn)
		result = inv
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("Inventory updated", "operation", op, "goods_id", goodsID, "warehouse_id", warehouseID)
	return ToInventoryDTO(result), nil
}

func (s *LedgerService) load(ctx context.Context, goodsID, warehouseID string) (*domain.Inventory, error) {
	inv, err := s.repos.Inventory.FindByGoodsAndWarehouse(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: goods %s warehouse %s", domain.ErrInventoryNotFound, goodsID, warehouseID)
	}
	return inv, nil
}

// apply loads a ledger row, runs fn against it and saves it. With create set
// a missing row is started empty.
func (s *LedgerService) apply(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID, op string, create bool, fn func(*domain.Inventory) error) (*domain.Inventory, error) {
	inv, err := s.repos.Inventory.FindByGoodsAndWarehouse(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		if !create {
			return nil, fmt.Errorf("%w: goods %s warehouse %s", domain.ErrInventoryNotFound, goodsID, warehouseID)
		}
		inv = domain.NewInventory(goodsID, warehouseID)
	}

	if err := fn(inv); err != nil {
		if s.metrics != nil {
			s.metrics.RecordLedgerOperation(op, false)
		}
		return nil, err
	}
	if err := s.repos.Inventory.Save(ctx, inv); err != nil {
		return nil, err
	}
	uow.Collect(inv)
	return inv, nil
}

func (s *LedgerService) locationTotals(ctx context.Context, goodsID, warehouseID string) (domain.LocationTotals, error) {
	rows, err := s.repos.LocationStock.FindByGoods(ctx, goodsID, warehouseID)
	if err != nil {
		return domain.LocationTotals{}, err
	}
	return domain.LocationTotalsFromStock(rows), nil
}

func (s *LedgerService) recomputeOutstandingASN(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string) (*domain.Inventory, error) {
	sum, err := s.repos.ASNs.SumOutstanding(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, uow, goodsID, warehouseID, domain.OpOutstandingASN, true, func(inv *domain.Inventory) error {
		return inv.SetOutstandingASN(sum)
	})
}

func (s *LedgerService) recomputeOutstandingDN(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string) (*domain.Inventory, error) {
	sum, err := s.repos.DNs.SumOutstanding(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, uow, goodsID, warehouseID, domain.OpOutstandingDN, true, func(inv *domain.Inventory) error {
		return inv.SetOutstandingDN(sum)
	})
}

func (s *LedgerService) recomputeFromLocations(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string) (*domain.Inventory, error) {
	totals, err := s.locationTotals(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, uow, goodsID, warehouseID, domain.OpRecompute, true, func(inv *domain.Inventory) error {
		return inv.RecomputeFromLocations(totals)
	})
}

func (s *LedgerService) asnReceived(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpASNReceived, true, func(inv *domain.Inventory) error {
		return inv.ASNReceived(qty)
	})
	return err
}

func (s *LedgerService) asnCompleted(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty, actual int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpASNCompleted, true, func(inv *domain.Inventory) error {
		return inv.ASNCompleted(qty, actual)
	})
	return err
}

func (s *LedgerService) putawayCompleted(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	totals, err := s.locationTotals(ctx, goodsID, warehouseID)
	if err != nil {
		return err
	}
	_, err = s.apply(ctx, uow, goodsID, warehouseID, domain.OpPutawayCompleted, true, func(inv *domain.Inventory) error {
		return inv.PutawayCompleted(qty, totals)
	})
	return err
}

func (s *LedgerService) removalCompleted(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	totals, err := s.locationTotals(ctx, goodsID, warehouseID)
	if err != nil {
		return err
	}
	_, err = s.apply(ctx, uow, goodsID, warehouseID, domain.OpRemovalCompleted, true, func(inv *domain.Inventory) error {
		return inv.RemovalCompleted(qty, totals)
	})
	return err
}

func (s *LedgerService) pickingRemoval(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	totals, err := s.locationTotals(ctx, goodsID, warehouseID)
	if err != nil {
		return err
	}
	_, err = s.apply(ctx, uow, goodsID, warehouseID, domain.OpPickingRemoval, true, func(inv *domain.Inventory) error {
		return inv.PickingRemoval(qty, totals)
	})
	return err
}

func (s *LedgerService) dnPicked(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty, picked int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpDNPicked, true, func(inv *domain.Inventory) error {
		return inv.DNPicked(qty, picked)
	})
	return err
}

func (s *LedgerService) dnPacked(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpDNPacked, true, func(inv *domain.Inventory) error {
		return inv.DNPacked(qty)
	})
	return err
}

func (s *LedgerService) dnDelivered(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpDNDelivered, true, func(inv *domain.Inventory) error {
		return inv.DNDelivered(qty)
	})
	return err
}

func (s *LedgerService) dnCompleted(ctx context.Context, uow *UnitOfWork, goodsID, warehouseID string, qty int64) error {
	_, err := s.apply(ctx, uow, goodsID, warehouseID, domain.OpDNCompleted, true, func(inv *domain.Inventory) error {
		return inv.DNCompleted(qty)
	})
	return err
}
