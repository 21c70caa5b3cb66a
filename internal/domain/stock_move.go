package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationType classifies a warehouse location
type LocationType string

const (
	LocationTypeStorage  LocationType = "storage"
	LocationTypeDamage   LocationType = "damage"
	LocationTypeReturn   LocationType = "return"
	LocationTypeReceipt  LocationType = "receipt"
	LocationTypeStaging  LocationType = "staging"
	LocationTypeShipping LocationType = "shipping"
)

// IsStockable reports whether stock at this location type is part of the
// location-backed ledger buckets
func (t LocationType) IsStockable() bool {
	switch t {
	case LocationTypeStorage, LocationTypeDamage, LocationTypeReturn:
		return true
	default:
		return false
	}
}

// Location is a master-data location as seen by the ledger
type Location struct {
	ID          string       `bson:"_id" json:"id"`
	WarehouseID string       `bson:"warehouseId" json:"warehouseId"`
	Code        string       `bson:"code" json:"code"`
	Type        LocationType `bson:"type" json:"type"`
}

// LocationStock is the quantity of one goods held at one location.
// It is the authority the ledger re-derives onhand, damage and return from.
type LocationStock struct {
	ID           string       `bson:"_id" json:"id"`
	GoodsID      string       `bson:"goodsId" json:"goodsId"`
	WarehouseID  string       `bson:"warehouseId" json:"warehouseId"`
	LocationID   string       `bson:"locationId" json:"locationId"`
	LocationType LocationType `bson:"locationType" json:"locationType"`
	Quantity     int64        `bson:"quantity" json:"quantity"`
	UpdatedAt    time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// LocationTotalsFromStock folds per-location rows into ledger totals
func LocationTotalsFromStock(rows []LocationStock) LocationTotals {
	var totals LocationTotals
	for _, r := range rows {
		switch r.LocationType {
		case LocationTypeStorage:
			totals.Onhand += r.Quantity
		case LocationTypeDamage:
			totals.Damage += r.Quantity
		case LocationTypeReturn:
			totals.Return += r.Quantity
		}
	}
	return totals
}

// LocationSnapshot is an immutable copy of a LocationStock row
type LocationSnapshot struct {
	ID           string       `bson:"_id" json:"id"`
	CapturedAt   time.Time    `bson:"capturedAt" json:"capturedAt"`
	GoodsID      string       `bson:"goodsId" json:"goodsId"`
	WarehouseID  string       `bson:"warehouseId" json:"warehouseId"`
	LocationID   string       `bson:"locationId" json:"locationId"`
	LocationType LocationType `bson:"locationType" json:"locationType"`
	Quantity     int64        `bson:"quantity" json:"quantity"`
}

// NewLocationSnapshot copies a stock row at capturedAt
func NewLocationSnapshot(row LocationStock, capturedAt time.Time) LocationSnapshot {
	return LocationSnapshot{
		ID:           uuid.New().String(),
		CapturedAt:   capturedAt,
		GoodsID:      row.GoodsID,
		WarehouseID:  row.WarehouseID,
		LocationID:   row.LocationID,
		LocationType: row.LocationType,
		Quantity:     row.Quantity,
	}
}

// Stock move reasons
const (
	ReasonPutaway    = "putaway"
	ReasonPicking    = "picking"
	ReasonAdjustment = "adjustment"
)

// Stock move source types
const (
	SourceOperator    = "operator"
	SourcePickingTask = "picking_task"
)

// StockMove holds the fields shared by putaway and removal records
type StockMove struct {
	ID          string    `bson:"_id" json:"id"`
	GoodsID     string    `bson:"goodsId" json:"goodsId"`
	WarehouseID string    `bson:"warehouseId" json:"warehouseId"`
	LocationID  string    `bson:"locationId" json:"locationId"`
	Quantity    int64     `bson:"quantity" json:"quantity"`
	Reason      string    `bson:"reason" json:"reason"`
	OperatorID  string    `bson:"operatorId" json:"operatorId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// PutawayRecord moves sorted goods into a location. Immutable.
type PutawayRecord struct {
	StockMove `bson:",inline"`
}

// RemovalRecord takes goods out of a location. Immutable.
type RemovalRecord struct {
	StockMove  `bson:",inline"`
	SourceType string `bson:"sourceType" json:"sourceType"`
	SourceID   string `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
}

func newStockMove(goodsID, warehouseID, locationID string, qty int64, reason, operatorID string) (StockMove, error) {
	if err := requireOperator(operatorID); err != nil {
		return StockMove{}, err
	}
	if qty <= 0 {
		return StockMove{}, ErrInvalidQuantity
	}
	if locationID == "" {
		return StockMove{}, ErrLocationRequired
	}
	return StockMove{
		ID:          uuid.New().String(),
		GoodsID:     goodsID,
		WarehouseID: warehouseID,
		LocationID:  locationID,
		Quantity:    qty,
		Reason:      reason,
		OperatorID:  operatorID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewPutawayRecord validates and builds a putaway record
func NewPutawayRecord(goodsID, warehouseID, locationID string, qty int64, reason, operatorID string) (*PutawayRecord, error) {
	if reason == "" {
		reason = ReasonPutaway
	}
	move, err := newStockMove(goodsID, warehouseID, locationID, qty, reason, operatorID)
	if err != nil {
		return nil, err
	}
	return &PutawayRecord{StockMove: move}, nil
}

// NewRemovalRecord validates and builds a removal record
func NewRemovalRecord(goodsID, warehouseID, locationID string, qty int64, reason, sourceType, sourceID, operatorID string) (*RemovalRecord, error) {
	if reason == "" {
		reason = ReasonAdjustment
	}
	if sourceType == "" {
		sourceType = SourceOperator
	}
	move, err := newStockMove(goodsID, warehouseID, locationID, qty, reason, operatorID)
	if err != nil {
		return nil, err
	}
	return &RemovalRecord{StockMove: move, SourceType: sourceType, SourceID: sourceID}, nil
}

// Event returns the StockMovedEvent describing the move
func (m StockMove) Event(kind string) *StockMovedEvent {
	return &StockMovedEvent{
		RecordID:    m.ID,
		Kind:        kind,
		GoodsID:     m.GoodsID,
		WarehouseID: m.WarehouseID,
		LocationID:  m.LocationID,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		OperatorID:  m.OperatorID,
		MovedAt:     m.CreatedAt,
	}
}

// Stock move kinds
const (
	MoveKindPutaway = "putaway"
	MoveKindRemoval = "removal"
)
