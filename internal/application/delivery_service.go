package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// DeliveryService handles delivery tasks. Completing a delivery task
// delivers its DN; signing it completes the DN.
type DeliveryService struct {
	uow      *UnitOfWorkManager
	repos    *Repositories
	outbound *OutboundService
	logger   *logging.Logger
}

// GetDeliveryTask returns one delivery task
func (s *DeliveryService) GetDeliveryTask(ctx context.Context, id string) (*DeliveryTaskDTO, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToDeliveryTaskDTO(task), nil
}

// GetDeliveryTaskByDN returns the delivery task of a DN
func (s *DeliveryService) GetDeliveryTaskByDN(ctx context.Context, dnID string) (*DeliveryTaskDTO, error) {
	task, err := s.repos.Deliveries.FindByDN(ctx, dnID)
	if err != nil {
		return nil, toAppError(err)
	}
	if task == nil {
		return nil, toAppError(fmt.Errorf("%w: dn %s", domain.ErrDeliveryTaskNotFound, dnID))
	}
	return ToDeliveryTaskDTO(task), nil
}

// StatusLogs returns the status trail of a delivery task
func (s *DeliveryService) StatusLogs(ctx context.Context, id string) ([]StatusLogDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, toAppError(err)
	}
	logs, err := s.repos.StatusLogs.FindByEntity(ctx, domain.EntityDeliveryTask, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToStatusLogDTOs(logs), nil
}

// UpdateShipping edits carrier and recipient fields
func (s *DeliveryService) UpdateShipping(ctx context.Context, cmd UpdateShippingCommand) (*DeliveryTaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, task *domain.DeliveryTask) error {
		return task.UpdateShipping(domain.ShippingInfo{
			CarrierID:       cmd.CarrierID,
			TrackingNumber:  cmd.TrackingNumber,
			RecipientID:     cmd.RecipientID,
			ShippingAddress: cmd.ShippingAddress,
		}, uow.OperatorID)
	})
}

// Process hands the goods to the carrier
func (s *DeliveryService) Process(ctx context.Context, cmd TransitionCommand) (*DeliveryTaskDTO, error) {
	return s.mutate(ctx, cmd.ID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, task *domain.DeliveryTask) error {
		return task.Process(uow.OperatorID)
	})
}

// Complete finishes the delivery and delivers the DN
func (s *DeliveryService) Complete(ctx context.Context, cmd TransitionCommand) (*DeliveryTaskDTO, error) {
	return s.mutate(ctx, cmd.ID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, task *domain.DeliveryTask) error {
		if err := task.Complete(uow.OperatorID); err != nil {
			return err
		}
		if err := s.save(ctx, uow, task); err != nil {
			return err
		}
		_, err := s.outbound.delivering(ctx, uow, task.DNID)
		return err
	})
}

// Sign records the recipient signature and completes the DN
func (s *DeliveryService) Sign(ctx context.Context, cmd SignDeliveryCommand) (*DeliveryTaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork, task *domain.DeliveryTask) error {
		if err := task.Sign(cmd.SignedBy, uow.OperatorID); err != nil {
			return err
		}
		if err := s.save(ctx, uow, task); err != nil {
			return err
		}
		_, err := s.outbound.complete(ctx, uow, task.DNID)
		return err
	})
}

func (s *DeliveryService) mutate(ctx context.Context, id, operatorID string, fn func(context.Context, *UnitOfWork, *domain.DeliveryTask) error) (*DeliveryTaskDTO, error) {
	var result *domain.DeliveryTask
	err := s.uow.Run(ctx, operatorID, func(ctx context.Context, uow *UnitOfWork) error {
		task, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, uow, task); err != nil {
			return err
		}
		result = task
		return s.save(ctx, uow, task)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.logger.Info("Delivery task updated", "task_id", result.ID, "status", result.Status)
	return ToDeliveryTaskDTO(result), nil
}

func (s *DeliveryService) create(ctx context.Context, uow *UnitOfWork, dnID, warehouseID string) (*domain.DeliveryTask, error) {
	existing, err := s.repos.Deliveries.FindByDN(ctx, dnID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	task := domain.NewDeliveryTask(dnID, warehouseID, uow.OperatorID)
	if err := s.save(ctx, uow, task); err != nil {
		return nil, err
	}
	s.logger.Info("Delivery task created", "task_id", task.ID, "dn_id", dnID)
	return task, nil
}

func (s *DeliveryService) load(ctx context.Context, id string) (*domain.DeliveryTask, error) {
	task, err := s.repos.Deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeliveryTaskNotFound, id)
	}
	return task, nil
}

func (s *DeliveryService) save(ctx context.Context, uow *UnitOfWork, task *domain.DeliveryTask) error {
	if err := s.repos.Deliveries.Save(ctx, task); err != nil {
		return err
	}
	uow.Collect(task)
	return nil
}
