package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// InboundService handles ASNs
type InboundService struct {
	uow     *UnitOfWorkManager
	repos   *Repositories
	master  *masterDataGuard
	ledger  *LedgerService
	sorting *TaskService
	logger  *logging.Logger
}

// CreateASN creates a pending ASN and books its lines as expected stock
func (s *InboundService) CreateASN(ctx context.Context, cmd CreateASNCommand) (*ASNDTO, error) {
	var result *domain.ASN
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		if err := s.master.warehouse(ctx, cmd.WarehouseID); err != nil {
			return err
		}
		lines := toDetailLines(cmd.Details)
		if err := s.master.goods(ctx, lines...); err != nil {
			return err
		}
		asn, err := domain.NewASN(cmd.WarehouseID, cmd.SupplierID, cmd.Remark, uow.OperatorID, lines)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, asn); err != nil {
			return err
		}
		result = asn
		return s.refreshOutstanding(ctx, uow, asn.WarehouseID, asn.GoodsIDs())
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("ASN created", "asn_id", result.ID, "code", result.Code, "warehouse_id", result.WarehouseID)
	return ToASNDTO(result), nil
}

// GetASN returns one ASN
func (s *InboundService) GetASN(ctx context.Context, id string) (*ASNDTO, error) {
	asn, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToASNDTO(asn), nil
}

// ListASNs pages ASNs
func (s *InboundService) ListASNs(ctx context.Context, query ListDocumentsQuery) ([]ASNDTO, int64, error) {
	filter := domain.DocumentFilter{WarehouseID: query.WarehouseID, Status: query.Status}
	rows, err := s.repos.ASNs.List(ctx, filter, query.Limit, query.Offset)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	total, err := s.repos.ASNs.Count(ctx, filter)
	if err != nil {
		return nil, 0, toAppError(err)
	}
	out := make([]ASNDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, *ToASNDTO(r))
	}
	return out, total, nil
}

// StatusLogs returns the status trail of an ASN
func (s *InboundService) StatusLogs(ctx context.Context, id string) ([]StatusLogDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, toAppError(err)
	}
	logs, err := s.repos.StatusLogs.FindByEntity(ctx, domain.EntityASN, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToStatusLogDTOs(logs), nil
}

// UpdateASN edits the header of a pending ASN
func (s *InboundService) UpdateASN(ctx context.Context, cmd UpdateASNCommand) (*ASNDTO, error) {
	return s.edit(ctx, cmd.ASNID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) ([]string, error) {
		return nil, asn.UpdateHeader(cmd.SupplierID, cmd.Remark, uow.OperatorID)
	})
}

// DeleteASN removes a pending ASN
func (s *InboundService) DeleteASN(ctx context.Context, cmd TransitionCommand) error {
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		asn, err := s.load(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := asn.EnsureEditable(); err != nil {
			return err
		}
		if err := s.repos.ASNs.Delete(ctx, asn.ID); err != nil {
			return err
		}
		return s.refreshOutstanding(ctx, uow, asn.WarehouseID, asn.GoodsIDs())
	})
	if err != nil {
		return toAppError(err)
	}
	s.logger.Info("ASN deleted", "asn_id", cmd.ID)
	return nil
}

// AddDetail adds a line to a pending ASN
func (s *InboundService) AddDetail(ctx context.Context, cmd AddDetailCommand) (*ASNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) ([]string, error) {
		line := domain.DetailLine{GoodsID: cmd.GoodsID, Quantity: cmd.Quantity}
		if err := s.master.goods(ctx, line); err != nil {
			return nil, err
		}
		if _, err := asn.AddDetail(line, uow.OperatorID); err != nil {
			return nil, err
		}
		return []string{cmd.GoodsID}, nil
	})
}

// UpdateDetail changes the quantity of a line
func (s *InboundService) UpdateDetail(ctx context.Context, cmd UpdateDetailCommand) (*ASNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) ([]string, error) {
		goodsID, err := asn.UpdateDetail(cmd.DetailID, cmd.Quantity, uow.OperatorID)
		if err != nil {
			return nil, err
		}
		return []string{goodsID}, nil
	})
}

// RemoveDetail deletes a line
func (s *InboundService) RemoveDetail(ctx context.Context, cmd RemoveDetailCommand) (*ASNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) ([]string, error) {
		goodsID, err := asn.RemoveDetail(cmd.DetailID, uow.OperatorID)
		if err != nil {
			return nil, err
		}
		return []string{goodsID}, nil
	})
}

// SyncDetails replaces every line of a pending ASN
func (s *InboundService) SyncDetails(ctx context.Context, cmd SyncDetailsCommand) (*ASNDTO, error) {
	return s.edit(ctx, cmd.DocumentID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) ([]string, error) {
		lines := toDetailLines(cmd.Details)
		if err := s.master.goods(ctx, lines...); err != nil {
			return nil, err
		}
		return asn.SyncDetails(lines, uow.OperatorID)
	})
}

// Receive marks goods as arrived, moves expected stock into received stock
// and opens the sorting task
func (s *InboundService) Receive(ctx context.Context, cmd TransitionCommand) (*ASNDTO, error) {
	return s.transition(ctx, cmd, "received", s.receive)
}

// Complete reconciles the ASN from its sorting task and books the sorted
// quantities
func (s *InboundService) Complete(ctx context.Context, cmd TransitionCommand) (*ASNDTO, error) {
	return s.transition(ctx, cmd, "completed", s.complete)
}

// Close abandons a pending ASN
func (s *InboundService) Close(ctx context.Context, cmd TransitionCommand) (*ASNDTO, error) {
	return s.transition(ctx, cmd, "closed", s.close)
}

func (s *InboundService) transition(ctx context.Context, cmd TransitionCommand, to string, fn func(context.Context, *UnitOfWork, string) (*domain.ASN, error)) (*ASNDTO, error) {
	var result *domain.ASN
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		asn, err := fn(ctx, uow, cmd.ID)
		result = asn
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("ASN status changed", "asn_id", result.ID, "status", to)
	return ToASNDTO(result), nil
}

func (s *InboundService) receive(ctx context.Context, uow *UnitOfWork, id string) (*domain.ASN, error) {
	asn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := asn.Receive(uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range asn.Details {
		if err := s.ledger.asnReceived(ctx, uow, d.GoodsID, asn.WarehouseID, d.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, asn); err != nil {
		return nil, err
	}
	if _, err := s.sorting.create(ctx, uow, asn.ID, asn.WarehouseID); err != nil {
		return nil, err
	}
	return asn, nil
}

func (s *InboundService) complete(ctx context.Context, uow *UnitOfWork, id string) (*domain.ASN, error) {
	asn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tally := map[string]domain.TaskTally{}
	task, err := s.sorting.completedTask(ctx, asn.ID)
	if err != nil {
		return nil, err
	}
	if task != nil {
		tally = task.Tally()
	}
	if err := asn.Complete(tally, uow.OperatorID); err != nil {
		return nil, err
	}
	for _, d := range asn.Details {
		if err := s.ledger.asnCompleted(ctx, uow, d.GoodsID, asn.WarehouseID, d.Quantity, d.ActualQuantity); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, uow, asn); err != nil {
		return nil, err
	}
	return asn, nil
}

func (s *InboundService) close(ctx context.Context, uow *UnitOfWork, id string) (*domain.ASN, error) {
	asn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := asn.Close(uow.OperatorID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, uow, asn); err != nil {
		return nil, err
	}
	if err := s.refreshOutstanding(ctx, uow, asn.WarehouseID, asn.GoodsIDs()); err != nil {
		return nil, err
	}
	return asn, nil
}

// edit applies a change to a pending ASN and refreshes the expected stock of
// every goods the change touched
func (s *InboundService) edit(ctx context.Context, id, operatorID string, fn func(context.Context, *UnitOfWork, *domain.ASN) ([]string, error)) (*ASNDTO, error) {
	var result *domain.ASN
	err := s.uow.Run(ctx, operatorID, func(ctx context.Context, uow *UnitOfWork) error {
		asn, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		affected, err := fn(ctx, uow, asn)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, asn); err != nil {
			return err
		}
		result = asn
		return s.refreshOutstanding(ctx, uow, asn.WarehouseID, affected)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return ToASNDTO(result), nil
}

func (s *InboundService) refreshOutstanding(ctx context.Context, uow *UnitOfWork, warehouseID string, goodsIDs []string) error {
	for _, g := range goodsIDs {
		if _, err := s.ledger.recomputeOutstandingASN(ctx, uow, g, warehouseID); err != nil {
			return err
		}
	}
	return nil
}

func (s *InboundService) load(ctx context.Context, id string) (*domain.ASN, error) {
	asn, err := s.repos.ASNs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asn == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrASNNotFound, id)
	}
	return asn, nil
}

func (s *InboundService) save(ctx context.Context, uow *UnitOfWork, asn *domain.ASN) error {
	if err := s.repos.ASNs.Save(ctx, asn); err != nil {
		return err
	}
	uow.Collect(asn)
	return nil
}

// documentGoods lists the goods of an ASN for its sorting task
func (s *InboundService) documentGoods(ctx context.Context, id string) ([]string, error) {
	asn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return asn.GoodsIDs(), nil
}
