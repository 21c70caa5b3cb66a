package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// aggregateEvents is embedded by every aggregate that records events
type aggregateEvents struct {
	events []DomainEvent
}

func (a *aggregateEvents) addEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// DomainEvents returns the events recorded since the last ClearDomainEvents
func (a *aggregateEvents) DomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops recorded events
func (a *aggregateEvents) ClearDomainEvents() {
	a.events = nil
}

// StockBalances is a copy of every ledger counter at one point in time
type StockBalances struct {
	Total     int64 `json:"total"`
	Onhand    int64 `json:"onhand"`
	Locked    int64 `json:"locked"`
	Damage    int64 `json:"damage"`
	Return    int64 `json:"return"`
	ASN       int64 `json:"asn"`
	Received  int64 `json:"received"`
	Sorted    int64 `json:"sorted"`
	DN        int64 `json:"dn"`
	Picked    int64 `json:"picked"`
	Packed    int64 `json:"packed"`
	Delivered int64 `json:"delivered"`
}

// InventoryAdjustedEvent is recorded on every ledger mutation
type InventoryAdjustedEvent struct {
	InventoryID string        `json:"inventoryId"`
	GoodsID     string        `json:"goodsId"`
	WarehouseID string        `json:"warehouseId"`
	Operation   string        `json:"operation"`
	Quantity    int64         `json:"quantity"`
	Balances    StockBalances `json:"balances"`
	AdjustedAt  time.Time     `json:"adjustedAt"`
}

func (e *InventoryAdjustedEvent) EventType() string     { return "wms.fulfillment.inventory.adjusted" }
func (e *InventoryAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }
func (e *InventoryAdjustedEvent) AggregateID() string   { return e.InventoryID }

// StockThresholdCrossedEvent is recorded when a mutation leaves available-for-sale
// stock outside an enabled threshold
type StockThresholdCrossedEvent struct {
	InventoryID           string    `json:"inventoryId"`
	GoodsID               string    `json:"goodsId"`
	WarehouseID           string    `json:"warehouseId"`
	AvailableStockForSale int64     `json:"availableStockForSale"`
	LowStockThreshold     int64     `json:"lowStockThreshold"`
	HighStockThreshold    int64     `json:"highStockThreshold"`
	BelowLow              bool      `json:"belowLow"`
	AboveHigh             bool      `json:"aboveHigh"`
	CrossedAt             time.Time `json:"crossedAt"`
}

func (e *StockThresholdCrossedEvent) EventType() string {
	return "wms.fulfillment.inventory.threshold-crossed"
}
func (e *StockThresholdCrossedEvent) OccurredAt() time.Time { return e.CrossedAt }
func (e *StockThresholdCrossedEvent) AggregateID() string   { return e.InventoryID }

// StatusChangedEvent is recorded by every document and task transition.
// The application layer also turns it into a StatusLog row.
type StatusChangedEvent struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Code       string     `json:"code"`
	FromStatus string     `json:"fromStatus"`
	ToStatus   string     `json:"toStatus"`
	OperatorID string     `json:"operatorId"`
	ChangedAt  time.Time  `json:"changedAt"`
}

func (e *StatusChangedEvent) EventType() string {
	return "wms.fulfillment." + string(e.EntityType) + "." + e.ToStatus
}
func (e *StatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
func (e *StatusChangedEvent) AggregateID() string   { return e.EntityID }

// StockMovedEvent is recorded for every putaway and removal record
type StockMovedEvent struct {
	RecordID    string    `json:"recordId"`
	Kind        string    `json:"kind"`
	GoodsID     string    `json:"goodsId"`
	WarehouseID string    `json:"warehouseId"`
	LocationID  string    `json:"locationId"`
	Quantity    int64     `json:"quantity"`
	Reason      string    `json:"reason"`
	OperatorID  string    `json:"operatorId"`
	MovedAt     time.Time `json:"movedAt"`
}

func (e *StockMovedEvent) EventType() string     { return "wms.fulfillment.stock." + e.Kind }
func (e *StockMovedEvent) OccurredAt() time.Time { return e.MovedAt }
func (e *StockMovedEvent) AggregateID() string   { return e.RecordID }
