package domain

import (
	"context"
	"time"
)

// Repositories return (nil, nil) when a lookup matches nothing.

// InventoryRepository persists ledger rows
type InventoryRepository interface {
	FindByGoodsAndWarehouse(ctx context.Context, goodsID, warehouseID string) (*Inventory, error)
	FindByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*Inventory, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int64, error)
	Save(ctx context.Context, inventory *Inventory) error
}

// DocumentFilter narrows document listings
type DocumentFilter struct {
	WarehouseID string
	Status      string
}

// ASNRepository persists ASNs
type ASNRepository interface {
	FindByID(ctx context.Context, id string) (*ASN, error)
	List(ctx context.Context, filter DocumentFilter, limit, offset int) ([]*ASN, error)
	Count(ctx context.Context, filter DocumentFilter) (int64, error)
	Save(ctx context.Context, asn *ASN) error
	Delete(ctx context.Context, id string) error
	// SumOutstanding sums line quantities of pending ASNs
	SumOutstanding(ctx context.Context, goodsID, warehouseID string) (int64, error)
}

// DNRepository persists DNs
type DNRepository interface {
	FindByID(ctx context.Context, id string) (*DN, error)
	List(ctx context.Context, filter DocumentFilter, limit, offset int) ([]*DN, error)
	Count(ctx context.Context, filter DocumentFilter) (int64, error)
	Save(ctx context.Context, dn *DN) error
	Delete(ctx context.Context, id string) error
	// SumOutstanding sums line quantities of pending and in-progress DNs
	SumOutstanding(ctx context.Context, goodsID, warehouseID string) (int64, error)
}

// TaskRepository persists sorting, picking and packing tasks
type TaskRepository interface {
	FindByID(ctx context.Context, taskType TaskType, id string) (*Task, error)
	FindByDocument(ctx context.Context, taskType TaskType, documentID string) (*Task, error)
	Save(ctx context.Context, task *Task) error
}

// DeliveryTaskRepository persists delivery tasks
type DeliveryTaskRepository interface {
	FindByID(ctx context.Context, id string) (*DeliveryTask, error)
	FindByDN(ctx context.Context, dnID string) (*DeliveryTask, error)
	Save(ctx context.Context, task *DeliveryTask) error
}

// StatusLogRepository stores status audit trails
type StatusLogRepository interface {
	Append(ctx context.Context, logs ...*StatusLog) error
	FindByEntity(ctx context.Context, entityType EntityType, entityID string) ([]*StatusLog, error)
}

// StockMoveFilter narrows stock move listings
type StockMoveFilter struct {
	WarehouseID string
	GoodsID     string
	LocationID  string
}

// StockMoveRepository stores putaway and removal records
type StockMoveRepository interface {
	SavePutaway(ctx context.Context, record *PutawayRecord) error
	SaveRemoval(ctx context.Context, record *RemovalRecord) error
	ListPutaways(ctx context.Context, filter StockMoveFilter, limit, offset int) ([]*PutawayRecord, error)
	ListRemovals(ctx context.Context, filter StockMoveFilter, limit, offset int) ([]*RemovalRecord, error)
}

// LocationStockRepository is the per-location quantity ledger
type LocationStockRepository interface {
	// Adjust adds delta to the goods quantity at a location. The result may
	// not be negative.
	Adjust(ctx context.Context, goodsID string, location *Location, delta int64) (*LocationStock, error)
	FindByGoods(ctx context.Context, goodsID, warehouseID string) ([]LocationStock, error)
	ListAll(ctx context.Context) ([]LocationStock, error)
}

// SnapshotRepository stores location snapshots
type SnapshotRepository interface {
	SaveAll(ctx context.Context, snapshots []LocationSnapshot) error
	Find(ctx context.Context, warehouseID string, from, to time.Time, limit int) ([]LocationSnapshot, error)
}

// MasterData is the read-only view of warehouses, goods and locations
type MasterData interface {
	WarehouseExists(ctx context.Context, warehouseID string) (bool, error)
	GoodsExists(ctx context.Context, goodsID string) (bool, error)
	FindLocation(ctx context.Context, locationID string) (*Location, error)
}
