package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/fulfillment-service/internal/application"
	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
	outboxMongo "github.com/wms-platform/fulfillment-service/pkg/outbox/mongodb"
)

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

// Store is the MongoDB-backed set of repositories
type Store struct {
	Inventory     *InventoryRepository
	ASNs          *ASNRepository
	DNs           *DNRepository
	Tasks         *TaskRepository
	Deliveries    *DeliveryTaskRepository
	StatusLogs    *StatusLogRepository
	StockMoves    *StockMoveRepository
	LocationStock *LocationStockRepository
	Snapshots     *SnapshotRepository
	MasterData    *MasterDataRepository
	Outbox        *outboxMongo.OutboxRepository
}

// NewStore creates every repository against db
func NewStore(db *mongo.Database, inst *mongoutil.Instrumentation, snapshotRetention time.Duration) *Store {
	return &Store{
		Inventory:     NewInventoryRepository(db, inst),
		ASNs:          NewASNRepository(db, inst),
		DNs:           NewDNRepository(db, inst),
		Tasks:         NewTaskRepository(db, inst),
		Deliveries:    NewDeliveryTaskRepository(db, inst),
		StatusLogs:    NewStatusLogRepository(db, inst),
		StockMoves:    NewStockMoveRepository(db, inst),
		LocationStock: NewLocationStockRepository(db, inst),
		Snapshots:     NewSnapshotRepository(db, inst, snapshotRetention),
		MasterData:    NewMasterDataRepository(db, inst),
		Outbox:        outboxMongo.NewOutboxRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection the store writes
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for name, repo := range map[string]indexed{
		InventoryCollection:     s.Inventory,
		ASNCollection:           s.ASNs,
		DNCollection:            s.DNs,
		TaskCollection:          s.Tasks,
		DeliveryTaskCollection:  s.Deliveries,
		StatusLogCollection:     s.StatusLogs,
		"stock_moves":           s.StockMoves,
		LocationStockCollection: s.LocationStock,
		SnapshotCollection:      s.Snapshots,
	} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	if err := s.Outbox.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}

// Repositories exposes the store to the application layer
func (s *Store) Repositories() *application.Repositories {
	return &application.Repositories{
		Inventory:     s.Inventory,
		ASNs:          s.ASNs,
		DNs:           s.DNs,
		Tasks:         s.Tasks,
		Deliveries:    s.Deliveries,
		StatusLogs:    s.StatusLogs,
		StockMoves:    s.StockMoves,
		LocationStock: s.LocationStock,
		Snapshots:     s.Snapshots,
		MasterData:    s.MasterData,
		Outbox:        s.Outbox,
	}
}
