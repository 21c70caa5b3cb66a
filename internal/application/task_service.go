package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// documentGoodsFunc returns the goods of the document a task belongs to
type documentGoodsFunc func(ctx context.Context, documentID string) ([]string, error)

// taskCompletedFunc runs the document flow a completed task triggers
type taskCompletedFunc func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error

// TaskService drives sorting, picking and packing tasks. One instance
// serves one task type.
type TaskService struct {
	taskType      domain.TaskType
	uow           *UnitOfWorkManager
	repos         *Repositories
	master        *masterDataGuard
	documentGoods documentGoodsFunc
	onCompleted   taskCompletedFunc
	logger        *logging.Logger
}

func newTaskService(taskType domain.TaskType, uow *UnitOfWorkManager, repos *Repositories, master *masterDataGuard, logger *logging.Logger) *TaskService {
	return &TaskService{
		taskType: taskType,
		uow:      uow,
		repos:    repos,
		master:   master,
		logger:   logger.WithComponent(string(taskType) + "-task"),
	}
}

// Type is the task type this service drives
func (s *TaskService) Type() domain.TaskType {
	return s.taskType
}

// GetTask returns one task
func (s *TaskService) GetTask(ctx context.Context, id string) (*TaskDTO, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToTaskDTO(task), nil
}

// GetTaskByDocument returns the task of an ASN or DN
func (s *TaskService) GetTaskByDocument(ctx context.Context, documentID string) (*TaskDTO, error) {
	task, err := s.repos.Tasks.FindByDocument(ctx, s.taskType, documentID)
	if err != nil {
		return nil, toAppError(err)
	}
	if task == nil {
		return nil, toAppError(fmt.Errorf("%w: document %s", s.taskType.Errors().NotFound, documentID))
	}
	return ToTaskDTO(task), nil
}

// StatusLogs returns the status trail of a task
func (s *TaskService) StatusLogs(ctx context.Context, id string) ([]StatusLogDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, toAppError(err)
	}
	logs, err := s.repos.StatusLogs.FindByEntity(ctx, s.taskType.EntityType(), id)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToStatusLogDTOs(logs), nil
}

// Process starts a pending task
func (s *TaskService) Process(ctx context.Context, cmd TransitionCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.ID, cmd.OperatorID, "process", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		return task.Process(uow.OperatorID)
	})
}

// Complete finishes an in-progress task and runs the document flow it
// triggers in the same unit of work
func (s *TaskService) Complete(ctx context.Context, cmd TransitionCommand) (*TaskDTO, error) {
	var result *domain.Task
	err := s.uow.Run(ctx, cmd.OperatorID, func(ctx context.Context, uow *UnitOfWork) error {
		task, err := s.complete(ctx, uow, cmd.ID)
		result = task
		return err
	})
	if err != nil {
		s.logger.WithError(err).Warn("Task completion failed", "task_id", cmd.ID)
		return nil, toAppError(err)
	}
	s.logger.Info("Task completed", "task_id", result.ID, "document_id", result.DocumentID)
	return ToTaskDTO(result), nil
}

// AddBatch opens a batch
func (s *TaskService) AddBatch(ctx context.Context, cmd AddBatchCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, "add_batch", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		_, err := task.AddBatch(cmd.Remark, uow.OperatorID)
		return err
	})
}

// RemoveBatch deletes a batch together with its details
func (s *TaskService) RemoveBatch(ctx context.Context, cmd RemoveBatchCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, "remove_batch", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		return task.RemoveBatch(cmd.BatchID, uow.OperatorID)
	})
}

// AddDetail records a goods quantity against a batch
func (s *TaskService) AddDetail(ctx context.Context, cmd TaskDetailCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, "add_detail", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		goods, err := s.checkDetail(ctx, task, cmd)
		if err != nil {
			return err
		}
		_, err = task.AddDetail(cmd.BatchID, detailInput(cmd), goods, uow.OperatorID)
		return err
	})
}

// UpdateDetail edits a detail
func (s *TaskService) UpdateDetail(ctx context.Context, cmd TaskDetailCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, "update_detail", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		goods, err := s.checkDetail(ctx, task, cmd)
		if err != nil {
			return err
		}
		_, err = task.UpdateDetail(cmd.DetailID, detailInput(cmd), goods, uow.OperatorID)
		return err
	})
}

// RemoveDetail deletes a detail
func (s *TaskService) RemoveDetail(ctx context.Context, cmd RemoveTaskDetailCommand) (*TaskDTO, error) {
	return s.mutate(ctx, cmd.TaskID, cmd.OperatorID, "remove_detail", func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		return task.RemoveDetail(cmd.DetailID, uow.OperatorID)
	})
}

func (s *TaskService) mutate(ctx context.Context, id, operatorID, action string, fn func(context.Context, *UnitOfWork, *domain.Task) error) (*TaskDTO, error) {
	var result *domain.Task
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
	s.logger.Debug("Task updated", "action", action, "task_id", id)
	return ToTaskDTO(result), nil
}

// checkDetail validates master data for a detail and returns the goods of
// the task document
func (s *TaskService) checkDetail(ctx context.Context, task *domain.Task, cmd TaskDetailCommand) ([]string, error) {
	if s.taskType == domain.TaskTypePicking && cmd.LocationID != "" {
		if _, err := s.master.stockableLocation(ctx, cmd.LocationID, task.WarehouseID); err != nil {
			return nil, err
		}
	}
	return s.documentGoods(ctx, task.DocumentID)
}

func (s *TaskService) load(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.repos.Tasks.FindByID(ctx, s.taskType, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", s.taskType.Errors().NotFound, id)
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
	if err := s.repos.Tasks.Save(ctx, task); err != nil {
		return err
	}
	uow.Collect(task)
	return nil
}

// create opens the task of a document; an existing task is returned as is
func (s *TaskService) create(ctx context.Context, uow *UnitOfWork, documentID, warehouseID string) (*domain.Task, error) {
	existing, err := s.repos.Tasks.FindByDocument(ctx, s.taskType, documentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	task := domain.NewTask(s.taskType, documentID, warehouseID, uow.OperatorID)
	if err := s.save(ctx, uow, task); err != nil {
		return nil, err
	}
	s.logger.Info("Task created", "task_id", task.ID, "code", task.Code, "document_id", documentID)
	return task, nil
}

func (s *TaskService) complete(ctx context.Context, uow *UnitOfWork, id string) (*domain.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := task.Complete(uow.OperatorID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, uow, task); err != nil {
		return nil, err
	}
	if s.onCompleted != nil {
		if err := s.onCompleted(ctx, uow, task); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// completedTask returns the task of a document only when it has completed
func (s *TaskService) completedTask(ctx context.Context, documentID string) (*domain.Task, error) {
	task, err := s.repos.Tasks.FindByDocument(ctx, s.taskType, documentID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.Status != domain.TaskStatusCompleted {
		return nil, nil
	}
	return task, nil
}

func detailInput(cmd TaskDetailCommand) domain.TaskDetailInput {
	return domain.TaskDetailInput{
		GoodsID:        cmd.GoodsID,
		LocationID:     cmd.LocationID,
		Quantity:       cmd.Quantity,
		DamageQuantity: cmd.DamageQuantity,
	}
}
