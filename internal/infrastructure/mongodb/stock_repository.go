package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// StockMoveRepository stores putaway and removal records in two collections
type StockMoveRepository struct {
	putaways collection
	removals collection
}

// NewStockMoveRepository creates a StockMoveRepository
func NewStockMoveRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *StockMoveRepository {
	return &StockMoveRepository{
		putaways: newCollection(db, PutawayCollection, inst),
		removals: newCollection(db, RemovalCollection, inst),
	}
}

func (r *StockMoveRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "goodsId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "locationId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if err := r.putaways.ensureIndexes(ctx, indexes); err != nil {
		return err
	}
	return r.removals.ensureIndexes(ctx, append(indexes,
		mongo.IndexModel{Keys: bson.D{{Key: "sourceType", Value: 1}, {Key: "sourceId", Value: 1}}},
	))
}

func (r *StockMoveRepository) SavePutaway(ctx context.Context, record *domain.PutawayRecord) error {
	return r.putaways.insertMany(ctx, []interface{}{record})
}

func (r *StockMoveRepository) SaveRemoval(ctx context.Context, record *domain.RemovalRecord) error {
	return r.removals.insertMany(ctx, []interface{}{record})
}

func (r *StockMoveRepository) ListPutaways(ctx context.Context, filter domain.StockMoveFilter, limit, offset int) ([]*domain.PutawayRecord, error) {
	var rows []*domain.PutawayRecord
	err := r.putaways.findAll(ctx, moveFilter(filter), &rows, pageOptions(limit, offset, mongoutil.SortDescending("createdAt")))
	return rows, err
}

func (r *StockMoveRepository) ListRemovals(ctx context.Context, filter domain.StockMoveFilter, limit, offset int) ([]*domain.RemovalRecord, error) {
	var rows []*domain.RemovalRecord
	err := r.removals.findAll(ctx, moveFilter(filter), &rows, pageOptions(limit, offset, mongoutil.SortDescending("createdAt")))
	return rows, err
}

func moveFilter(filter domain.StockMoveFilter) bson.M {
	query := bson.M{}
	if filter.WarehouseID != "" {
		query["warehouseId"] = filter.WarehouseID
	}
	if filter.GoodsID != "" {
		query["goodsId"] = filter.GoodsID
	}
	if filter.LocationID != "" {
		query["locationId"] = filter.LocationID
	}
	return query
}

// LocationStockRepository keeps one row per goods and location
type LocationStockRepository struct {
	collection
}

// NewLocationStockRepository creates a LocationStockRepository
func NewLocationStockRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *LocationStockRepository {
	return &LocationStockRepository{newCollection(db, LocationStockCollection, inst)}
}

func (r *LocationStockRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "goodsId", Value: 1}, {Key: "warehouseId", Value: 1}}},
		{Keys: bson.D{{Key: "locationId", Value: 1}}},
	})
}

// Adjust applies delta in a single conditional update. A removal only
// matches when the row holds at least the removed quantity, so concurrent
// removals can never drive it negative.
func (r *LocationStockRepository) Adjust(ctx context.Context, goodsID string, location *domain.Location, delta int64) (*domain.LocationStock, error) {
	id := goodsID + ":" + location.ID
	filter := bson.M{"_id": id}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	} else {
		opts.SetUpsert(true)
	}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": mongoutil.Now()},
		"$setOnInsert": bson.M{
			"goodsId":      goodsID,
			"warehouseId":  location.WarehouseID,
			"locationId":   location.ID,
			"locationType": location.Type,
		},
	}

	var row domain.LocationStock
	missing := false
	err := r.observe(ctx, "findOneAndUpdate", func(ctx context.Context) error {
		err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row)
		if mongoutil.IsNotFound(err) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust location stock: %w", err)
	}
	if missing {
		return nil, fmt.Errorf("%w: %s holds less than %d of %s", domain.ErrInsufficientLocationStock, location.ID, -delta, goodsID)
	}
	return &row, nil
}

func (r *LocationStockRepository) FindByGoods(ctx context.Context, goodsID, warehouseID string) ([]domain.LocationStock, error) {
	var rows []domain.LocationStock
	err := r.findAll(ctx, bson.M{"goodsId": goodsID, "warehouseId": warehouseID}, &rows, options.Find().SetSort(mongoutil.SortAscending("locationId")))
	return rows, err
}

func (r *LocationStockRepository) ListAll(ctx context.Context) ([]domain.LocationStock, error) {
	var rows []domain.LocationStock
	err := r.findAll(ctx, bson.M{}, &rows)
	return rows, err
}

// SnapshotRepository stores location snapshots
type SnapshotRepository struct {
	collection
	retention time.Duration
}

// NewSnapshotRepository creates a SnapshotRepository. Snapshots older than
// retention expire; zero keeps them forever.
func NewSnapshotRepository(db *mongo.Database, inst *mongoutil.Instrumentation, retention time.Duration) *SnapshotRepository {
	return &SnapshotRepository{collection: newCollection(db, SnapshotCollection, inst), retention: retention}
}

func (r *SnapshotRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "capturedAt", Value: -1}}},
	}
	if r.retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "capturedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention.Seconds())),
		})
	}
	return r.ensureIndexes(ctx, indexes)
}

func (r *SnapshotRepository) SaveAll(ctx context.Context, snapshots []domain.LocationSnapshot) error {
	docs := make([]interface{}, len(snapshots))
	for i := range snapshots {
		docs[i] = snapshots[i]
	}
	return r.insertMany(ctx, docs)
}

// Find returns snapshots captured in [from, to], newest first
func (r *SnapshotRepository) Find(ctx context.Context, warehouseID string, from, to time.Time, limit int) ([]domain.LocationSnapshot, error) {
	var rows []domain.LocationSnapshot
	err := r.findAll(ctx,
		bson.M{"warehouseId": warehouseID, "capturedAt": bson.M{"$gte": from, "$lte": to}},
		&rows,
		pageOptions(limit, 0, bson.D{{Key: "capturedAt", Value: -1}, {Key: "locationId", Value: 1}}),
	)
	return rows, err
}

// MasterDataRepository reads warehouses, goods and locations owned by the
// master-data service
type MasterDataRepository struct {
	warehouses collection
	goods      collection
	locations  collection
}

// NewMasterDataRepository creates a MasterDataRepository
func NewMasterDataRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *MasterDataRepository {
	return &MasterDataRepository{
		warehouses: newCollection(db, WarehouseCollection, inst),
		goods:      newCollection(db, GoodsCollection, inst),
		locations:  newCollection(db, LocationCollection, inst),
	}
}

func (r *MasterDataRepository) WarehouseExists(ctx context.Context, warehouseID string) (bool, error) {
	return r.warehouses.exists(ctx, bson.M{"_id": warehouseID})
}

func (r *MasterDataRepository) GoodsExists(ctx context.Context, goodsID string) (bool, error) {
	return r.goods.exists(ctx, bson.M{"_id": goodsID})
}

func (r *MasterDataRepository) FindLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	var location domain.Location
	found, err := r.locations.findOne(ctx, bson.M{"_id": locationID}, &location)
	if err != nil || !found {
		return nil, err
	}
	return &location, nil
}
