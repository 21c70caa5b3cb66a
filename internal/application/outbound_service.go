package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// OutboundService handles DNs
type OutboundService struct {
	uow          *UnitOfWorkManager
	repos        *Repositories
	master       *masterDataGuard
	ledger       *LedgerService
	pickingTasks *TaskService
	packingTasks *TaskService
	deliveries   *DeliveryService
	logger       *logging.Logger
}

// CreateDN creates a pending DN and books its lines as outstanding demand
func (s *OutboundService) CreateDN(ctx context.Context, cmd CreateDNCommand) (*DNDTO, error) {
	var result *domain.DN
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		if err := s.master.warehouse(ctx, cmd.WarehouseID); err != nil {
			return err
		}
		lines := toDetailLines(cmd.Details)
		if err := s.master.goods(ctx, lines...); err != nil {
			return err
		}
		dn, err := domain.NewDN(cmd.WarehouseID, cmd.CustomerID, cmd.Remark, uow.OperatorID, lines)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, dn); err != nil {
			return err
		}
		result = dn
		return s.refreshOutstanding(ctx, uow, dn.WarehouseID, dn.GoodsIDs())
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("DN created", "dn_id", result.ID, "code", result.Code, "warehouse_id", result.WarehouseID)
	return ToDNDTO(result), nil
}

// GetDN returns one DN
func (s *OutboundService) GetDN(ctx context.Context, id string) (*DNDTO, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToDNDTO(dn), nil
}

// ListDNs pages DNs
func (s *OutboundService) ListDNs(ctx context.Context, query ListDocumentsQuery) ([]DNDTO, int64, error) {
	filter := domain.DocumentFilter{WarehouseID: query.WarehouseID, Status: query.Status}
	rows, err := s.repos.DNs.List(ctx, filter, query.Limit, query.Offset)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	total, err := s.repos.DNs.Count(ctx, filter)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	out := make([]DNDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, *ToDNDTO(r))
	}
	return out, total, nil
}

// StatusLogs returns the status trail of a DN
func (s *OutboundService) StatusLogs(ctx context.Context, id string) ([]StatusLogDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, toAppError(err)
	}
	logs, err := s.repos.StatusLogs.FindByEntity(ctx, domain.EntityDN, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToStatusLogDTOs(logs), nil
}

// UpdateDN edits the header of a pending DN
func (s *OutboundService) UpdateDN(ctx context.Context, cmd UpdateDNCommand) (*DNDTO, error) {
	return s.edit(ctx, cmd.DNID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, dn *domain.DN) ([]string, error) {
		return nil, dn.UpdateHeader(cmd.CustomerID, cmd.Remark, uow.OperatorID)
	})
}

// DeleteDN removes a pending DN
func (s *OutboundService) DeleteDN(ctx context.Context, cmd TransitionCommand) error {
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		dn, err := s.load(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := dn.EnsureEditable(); err != nil {
			return err
		}
		if err := s.repos.DNs.Delete(ctx, dn.ID); err != nil {
			return err
		}
		return s.refreshOutstanding(ctx, uow, dn.WarehouseID, dn.GoodsIDs())
	})
	if err != nil {
		return toAppError(err)
	}
	s.logger.Info("DN deleted", "dn_id", cmd.ID)
	return nil
}

// AddDetail adds a line to a pending DN
func (s *OutboundService) AddDetail(ctx context.Context, cmd AddDetailCommand) (*DNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, dn *domain.DN) ([]string, error) {
		line := domain.DetailLine{GoodsID: cmd.GoodsID, Quantity: cmd.Quantity}
		if err := s.master.goods(ctx, line); err != nil {
			return nil, err
		}
		if _, err := dn.AddDetail(line, uow.OperatorID); err != nil {
			return nil, err
		}
		return []string{cmd.GoodsID}, nil
	})
}

// UpdateDetail changes the quantity of a line
func (s *OutboundService) UpdateDetail(ctx context.Context, cmd UpdateDetailCommand) (*DNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, dn *domain.DN) ([]string, error) {
		goodsID, err := dn.UpdateDetail(cmd.DetailID, cmd.Quantity, uow.OperatorID)
		if err != nil {
			return nil, err
		}
		return []string{goodsID}, nil
	})
}

// RemoveDetail deletes a line
func (s *OutboundService) RemoveDetail(ctx context.Context, cmd RemoveDetailCommand) (*DNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, dn *domain.DN) ([]string, error) {
		goodsID, err := dn.RemoveDetail(cmd.DetailID, uow.OperatorID)
		if err != nil {
			return nil, err
		}
		return []string{goodsID}, nil
	})
}

// SyncDetails replaces every line of a pending DN
func (s *OutboundService) SyncDetails(ctx context.Context, cmd SyncDetailsCommand) (*DNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, dn *domain.DN) ([]string, error) {
		lines := toDetailLines(cmd.Details)
		if err := s.master.goods(ctx, lines...); err != nil {
			return nil, err
		}
		return dn.SyncDetails(lines, uow.OperatorID)
	})
}

// Progress starts working a DN and opens its picking task
func (s *OutboundService) Progress(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "in_progress", s.progress)
}

// Picking reconciles the DN from its picking task
func (s *OutboundService) Picking(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "picked", s.picking)
}

// Packing reconciles the DN from its packing task
func (s *OutboundService) Packing(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "packed", s.packing)
}

// Delivering reconciles the DN from its delivery task
func (s *OutboundService) Delivering(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "delivered", s.delivering)
}

// Complete finishes a delivered DN
func (s *OutboundService) Complete(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "completed", s.complete)
}

// Close abandons a pending DN
func (s *OutboundService) Close(ctx context.Context, cmd TransitionCommand) (*DNDTO, error) {
	return s.transition(ctx, cmd, "closed", s.close)
}

func (s *OutboundService) transition(ctx context.Context, cmd TransitionCommand, to string, fn func(context.Context, *UnitOfWork, string) (*domain.DN, error)) (*DNDTO, error) {
	var result *domain.DN
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		dn, err := fn(ctx, uow, cmd.ID)
		result = dn
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("DN status changed", "dn_id", result.ID, "status", to)
	return ToDNDTO(result), nil
}

func (s *OutboundService) progress(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dn.Progress(uow.OperatorID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	if _, err := s.pickingTasks.create(ctx, uow, dn.ID, dn.WarehouseID); err != nil {
		return nil, err
	}
	return dn, nil
}

func (s *OutboundService) picking(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	picked, err := s.taskQuantities(ctx, s.pickingTasks, dn.ID)
	if err != nil {
		return nil, err
	}
	if err := dn.Pick(picked, uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range dn.Details {
		if err := s.ledger.dnPicked(ctx, uow, d.GoodsID, dn.WarehouseID, d.Quantity, d.PickedQuantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	if _, err := s.packingTasks.create(ctx, uow, dn.ID, dn.WarehouseID); err != nil {
		return nil, err
	}
	return dn, nil
}

func (s *OutboundService) packing(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	packed, err := s.taskQuantities(ctx, s.packingTasks, dn.ID)
	if err != nil {
		return nil, err
	}
	if err := dn.Pack(packed, uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range dn.Details {
		if err := s.ledger.dnPacked(ctx, uow, d.GoodsID, dn.WarehouseID, d.PackedQuantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	if _, err := s.deliveries.create(ctx, uow, dn.ID, dn.WarehouseID); err != nil {
		return nil, err
	}
	return dn, nil
}

func (s *OutboundService) delivering(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.repos.Deliveries.FindByDN(ctx, dn.ID)
	if err != nil {
		return nil, err
	}
	finished := task != nil && task.Status.IsFinished()
	if err := dn.Deliver(finished, uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range dn.Details {
		if err := s.ledger.dnDelivered(ctx, uow, d.GoodsID, dn.WarehouseID, d.DeliveredQuantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	return dn, nil
}

func (s *OutboundService) complete(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dn.Complete(uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range dn.Details {
		if err := s.ledger.dnCompleted(ctx, uow, d.GoodsID, dn.WarehouseID, d.DeliveredQuantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	return dn, nil
}

func (s *OutboundService) close(ctx context.Context, uow *UnitOfWork, id string) (*domain.DN, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dn.Close(uow.OperatorID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, uow, dn); err != nil {
		return nil, err
	}
	if err := s.refreshOutstanding(ctx, uow, dn.WarehouseID, dn.GoodsIDs()); err != nil {
		return nil, err
	}
	return dn, nil
}

// taskQuantities sums a completed task of the DN; no task or an unfinished
// one counts as nothing done
func (s *OutboundService) taskQuantities(ctx context.Context, tasks *TaskService, dnID string) (map[string]int64, error) {
	task, err := tasks.completedTask(ctx, dnID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return map[string]int64{}, nil
	}
	return task.Quantities(), nil
}

func (s *OutboundService) edit(ctx context.Context, id, operatorID string, fn func(context.Context, *UnitOfWork, *domain.DN) ([]string, error)) (*DNDTO, error) {
	var result *domain.DN
	err := s.uow.Run(ctx, operatorID, func(ctx context.Context, uow *UnitOfWork) error {
		dn, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		affected, err := fn(ctx, uow, dn)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, dn); err != nil {
			return err
		}
		result = dn
		return s.refreshOutstanding(ctx, uow, dn.WarehouseID, affected)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return ToDNDTO(result), nil
}

func (s *OutboundService) refreshOutstanding(ctx context.Context, uow *UnitOfWork, warehouseID string, goodsIDs []string) error {
	for _, g := range goodsIDs {
		if _, err := s.ledger.recomputeOutstandingDN(ctx, uow, g, warehouseID); err != nil {
			return err
		}
	}
	return nil
}

func (s *OutboundService) load(ctx context.Context, id string) (*domain.DN, error) {
	dn, err := s.repos.DNs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dn == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDNNotFound, id)
	}
	return dn, nil
}

func (s *OutboundService) save(ctx context.Context, uow *UnitOfWork, dn *domain.DN) error {
	if err := s.repos.DNs.Save(ctx, dn); err != nil {
		return err
	}
	uow.Collect(dn)
	return nil
}

// documentGoods lists the goods of a DN for its picking and packing tasks
func (s *OutboundService) documentGoods(ctx context.Context, id string) ([]string, error) {
	dn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dn.GoodsIDs(), nil
}
