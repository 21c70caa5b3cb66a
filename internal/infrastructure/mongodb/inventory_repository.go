package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// InventoryRepository stores one ledger row per goods and warehouse
type InventoryRepository struct {
	collection
}

// NewInventoryRepository creates an InventoryRepository
func NewInventoryRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *InventoryRepository {
	return &InventoryRepository{newCollection(db, InventoryCollection, inst)}
}

// EnsureIndexes creates the goods/warehouse unique index
func (r *InventoryRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "goodsId", Value: 1}, {Key: "warehouseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "goodsId", Value: 1}}},
	})
}

func (r *InventoryRepository) FindByGoodsAndWarehouse(ctx context.Context, goodsID, warehouseID string) (*domain.Inventory, error) {
	var inv domain.Inventory
	found, err := r.findOne(ctx, bson.M{"goodsId": goodsID, "warehouseId": warehouseID}, &inv)
	if err != nil || !found {
		return nil, err
	}
	return &inv, nil
}

func (r *InventoryRepository) FindByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	var rows []*domain.Inventory
	err := r.findAll(ctx, bson.M{"warehouseId": warehouseID}, &rows, pageOptions(limit, offset, mongoutil.SortAscending("goodsId")))
	return rows, err
}

func (r *InventoryRepository) CountByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	return r.count(ctx, bson.M{"warehouseId": warehouseID})
}

func (r *InventoryRepository) Save(ctx context.Context, inventory *domain.Inventory) error {
	return r.replace(ctx, inventory.ID, inventory)
}
