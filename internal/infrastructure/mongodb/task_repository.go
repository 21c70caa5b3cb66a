package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// TaskRepository stores sorting, picking and packing tasks in one
// collection keyed by type
type TaskRepository struct {
	collection
}

// NewTaskRepository creates a TaskRepository
func NewTaskRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *TaskRepository {
	return &TaskRepository{newCollection(db, TaskCollection, inst)}
}

// EnsureIndexes allows one task of each type per document
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "documentId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, taskType domain.TaskType, id string) (*domain.Task, error) {
	return r.find(ctx, bson.M{"_id": id, "type": taskType})
}

func (r *TaskRepository) FindByDocument(ctx context.Context, taskType domain.TaskType, documentID string) (*domain.Task, error) {
	return r.find(ctx, bson.M{"documentId": documentID, "type": taskType})
}

func (r *TaskRepository) Save(ctx context.Context, task *domain.Task) error {
	return r.replace(ctx, task.ID, task)
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M) (*domain.Task, error) {
	var task domain.Task
	found, err := r.findOne(ctx, filter, &task)
	if err != nil || !found {
		return nil, err
	}
	return &task, nil
}

// DeliveryTaskRepository stores delivery tasks
type DeliveryTaskRepository struct {
	collection
}

// NewDeliveryTaskRepository creates a DeliveryTaskRepository
func NewDeliveryTaskRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *DeliveryTaskRepository {
	return &DeliveryTaskRepository{newCollection(db, DeliveryTaskCollection, inst)}
}

func (r *DeliveryTaskRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dnId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "shipping.trackingNumber", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
}

func (r *DeliveryTaskRepository) FindByID(ctx context.Context, id string) (*domain.DeliveryTask, error) {
	return r.find(ctx, bson.M{"_id": id})
}

func (r *DeliveryTaskRepository) FindByDN(ctx context.Context, dnID string) (*domain.DeliveryTask, error) {
	return r.find(ctx, bson.M{"dnId": dnID})
}

func (r *DeliveryTaskRepository) Save(ctx context.Context, task *domain.DeliveryTask) error {
	return r.replace(ctx, task.ID, task)
}

func (r *DeliveryTaskRepository) find(ctx context.Context, filter bson.M) (*domain.DeliveryTask, error) {
	var task domain.DeliveryTask
	found, err := r.findOne(ctx, filter, &task)
	if err != nil || !found {
		return nil, err
	}
	return &task, nil
}

// StatusLogRepository appends status audit entries
type StatusLogRepository struct {
	collection
}

// NewStatusLogRepository creates a StatusLogRepository
func NewStatusLogRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *StatusLogRepository {
	return &StatusLogRepository{newCollection(db, StatusLogCollection, inst)}
}

func (r *StatusLogRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
}

func (r *StatusLogRepository) Append(ctx context.Context, logs ...*domain.StatusLog) error {
	docs := make([]interface{}, len(logs))
	for i, l := range logs {
		docs[i] = l
	}
	return r.insertMany(ctx, docs)
}

// FindByEntity returns the trail of one entity, oldest first
func (r *StatusLogRepository) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]*domain.StatusLog, error) {
	var logs []*domain.StatusLog
	err := r.findAll(ctx,
		bson.M{"entityType": entityType, "entityId": entityID},
		&logs,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	return logs, err
}
