package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// StockMoveService records putaway and removal moves and keeps the
// per-location stock and the ledger in step with them
type StockMoveService struct {
	uow    *UnitOfWorkManager
	repos  *Repositories
	master *masterDataGuard
	ledger *LedgerService
	logger *logging.Logger
}

// Putaway moves sorted goods into a stockable location
func (s *StockMoveService) Putaway(ctx context.Context, cmd StockMoveCommand) (*StockMoveDTO, error) {
	var result *domain.PutawayRecord
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		if err := s.master.goods(ctx, domain.DetailLine{GoodsID: cmd.GoodsID, Quantity: cmd.Quantity}); err != nil {
			return err
		}
		location, err := s.master.stockableLocation(ctx, cmd.LocationID, cmd.WarehouseID)
		if err != nil {
			return err
		}
		record, err := domain.NewPutawayRecord(cmd.GoodsID, cmd.WarehouseID, location.ID, cmd.Quantity, cmd.Reason, uow.OperatorID)
		if err != nil {
			return err
		}
		if _, err := s.repos.LocationStock.Adjust(ctx, cmd.GoodsID, location, cmd.Quantity); err != nil {
			return err
		}
		if err := s.repos.StockMoves.SavePutaway(ctx, record); err != nil {
			return err
		}
		uow.Record(record.Event(domain.MoveKindPutaway))
		result = record
		return s.ledger.putawayCompleted(ctx, uow, cmd.GoodsID, cmd.WarehouseID, cmd.Quantity)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("Putaway recorded", "record_id", result.ID, "goods_id", result.GoodsID, "location_id", result.LocationID, "quantity", result.Quantity)
	dto := ToPutawayDTO(result)
	return &dto, nil
}

// Removal takes goods out of a location back into sorted stock
func (s *StockMoveService) Removal(ctx context.Context, cmd StockMoveCommand) (*StockMoveDTO, error) {
	var result *domain.RemovalRecord
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		location, err := s.master.stockableLocation(ctx, cmd.LocationID, cmd.WarehouseID)
		if err != nil {
			return err
		}
		record, err := domain.NewRemovalRecord(cmd.GoodsID, cmd.WarehouseID, location.ID, cmd.Quantity, cmd.Reason, domain.SourceOperator, "", uow.OperatorID)
		if err != nil {
			return err
		}
		if err := s.remove(ctx, uow, record, location); err != nil {
			return err
		}
		result = record
		return s.ledger.removalCompleted(ctx, uow, cmd.GoodsID, cmd.WarehouseID, cmd.Quantity)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("Removal recorded", "record_id", result.ID, "goods_id", result.GoodsID, "location_id", result.LocationID, "quantity", result.Quantity)
	dto := ToRemovalDTO(result)
	return &dto, nil
}

// ListPutaways pages putaway records
func (s *StockMoveService) ListPutaways(ctx context.Context, query ListStockMovesQuery) ([]StockMoveDTO, error) {
	rows, err := s.repos.StockMoves.ListPutaways(ctx, moveFilter(query), query.Limit, query.Offset)
	if err != nil {
		return nil, toAppError(err)
	}
	out := make([]StockMoveDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToPutawayDTO(r))
	}
	return out, nil
}

// ListRemovals pages removal records
func (s *StockMoveService) ListRemovals(ctx context.Context, query ListStockMovesQuery) ([]StockMoveDTO, error) {
	rows, err := s.repos.StockMoves.ListRemovals(ctx, moveFilter(query), query.Limit, query.Offset)
	if err != nil {
		return nil, toAppError(err)
	}
	out := make([]StockMoveDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToRemovalDTO(r))
	}
	return out, nil
}

// LocationStock lists where a goods is held in a warehouse
func (s *StockMoveService) LocationStock(ctx context.Context, goodsID, warehouseID string) ([]domain.LocationStock, error) {
	rows, err := s.repos.LocationStock.FindByGoods(ctx, goodsID, warehouseID)
	if err != nil {
		return nil, toAppError(err)
	}
	return rows, nil
}

// pickingRemoval takes the picked goods of a completed picking task out of
// their source locations. The goods move on to picked stock, not sorted.
func (s *StockMoveService) pickingRemoval(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
	for _, d := range task.Details {
		if d.Quantity <= 0 {
			continue
		}
		location, err := s.master.stockableLocation(ctx, d.LocationID, task.WarehouseID)
		if err != nil {
			return err
		}
		record, err := domain.NewRemovalRecord(d.GoodsID, task.WarehouseID, location.ID, d.Quantity, domain.ReasonPicking, domain.SourcePickingTask, task.ID, uow.OperatorID)
		if err != nil {
			return err
		}
		if err := s.remove(ctx, uow, record, location); err != nil {
			return err
		}
		if err := s.ledger.pickingRemoval(ctx, uow, d.GoodsID, task.WarehouseID, d.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *StockMoveService) remove(ctx context.Context, uow *UnitOfWork, record *domain.RemovalRecord, location *domain.Location) error {
	if _, err := s.repos.LocationStock.Adjust(ctx, record.GoodsID, location, -record.Quantity); err != nil {
		return fmt.Errorf("remove %d of %s from %s: %w", record.Quantity, record.GoodsID, location.ID, err)
	}
	if err := s.repos.StockMoves.SaveRemoval(ctx, record); err != nil {
		return err
	}
	uow.Record(record.Event(domain.MoveKindRemoval))
	return nil
}

func moveFilter(query ListStockMovesQuery) domain.StockMoveFilter {
	return domain.StockMoveFilter{
		WarehouseID: query.WarehouseID,
		GoodsID:     query.GoodsID,
		LocationID:  query.LocationID,
	}
}
