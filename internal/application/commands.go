package application

import "time"

// Ledger

// GetInventoryQuery identifies one ledger row
type GetInventoryQuery struct {
	GoodsID     string
	WarehouseID string
}

// ListInventoryQuery pages the ledger rows of a warehouse
type ListInventoryQuery struct {
	WarehouseID string
	Limit       int
	Offset      int
}

// LockCommand reserves or releases on-hand stock
type LockCommand struct {
	GoodsID     string
	WarehouseID string
	Quantity    int64
	OperatorID  string
}

// SetThresholdsCommand changes the stock thresholds; nil leaves a value as is
type SetThresholdsCommand struct {
	GoodsID     string
	WarehouseID string
	Low         *int64
	High        *int64
	OperatorID  string
}

// RecomputeCommand re-derives a ledger row from locations and open documents
type RecomputeCommand struct {
	GoodsID     string
	WarehouseID string
	OperatorID  string
}

// Documents

// DetailLineCommand is one goods/quantity line of an ASN or DN
type DetailLineCommand struct {
	GoodsID  string
	Quantity int64
}

// CreateASNCommand creates a pending ASN
type CreateASNCommand struct {
	WarehouseID string
	SupplierID  string
	Remark      string
	Details     []DetailLineCommand
	OperatorID  string
}

// UpdateASNCommand edits the header of a pending ASN
type UpdateASNCommand struct {
	ASNID      string
	SupplierID string
	Remark     string
	OperatorID string
}

// CreateDNCommand creates a pending DN
type CreateDNCommand struct {
	WarehouseID string
	CustomerID  string
	Remark      string
	Details     []DetailLineCommand
	OperatorID  string
}

// UpdateDNCommand edits the header of a pending DN
type UpdateDNCommand struct {
	DNID       string
	CustomerID string
	Remark     string
	OperatorID string
}

// AddDetailCommand adds a line to a pending ASN or DN
type AddDetailCommand struct {
	DocumentID string
	GoodsID    string
	Quantity   int64
	OperatorID string
}

// UpdateDetailCommand changes the quantity of a line
type UpdateDetailCommand struct {
	DocumentID string
	DetailID   string
	Quantity   int64
	OperatorID string
}

// RemoveDetailCommand deletes a line
type RemoveDetailCommand struct {
	DocumentID string
	DetailID   string
	OperatorID string
}

// SyncDetailsCommand replaces every line of a document
type SyncDetailsCommand struct {
	DocumentID string
	Details    []DetailLineCommand
	OperatorID string
}

// TransitionCommand drives a document or task to its next status
type TransitionCommand struct {
	ID         string
	OperatorID string
}

// ListDocumentsQuery pages ASNs or DNs
type ListDocumentsQuery struct {
	WarehouseID string
	Status      string
	Limit       int
	Offset      int
}

// Tasks

// AddBatchCommand opens a batch on an in-progress task
type AddBatchCommand struct {
	TaskID     string
	Remark     string
	OperatorID string
}

// RemoveBatchCommand deletes a batch and its details
type RemoveBatchCommand struct {
	TaskID     string
	BatchID    string
	OperatorID string
}

// TaskDetailCommand adds or edits a task detail. DetailID is ignored on add
// and BatchID on update.
type TaskDetailCommand struct {
	TaskID         string
	BatchID        string
	DetailID       string
	GoodsID        string
	LocationID     string
	Quantity       int64
	DamageQuantity int64
	OperatorID     string
}

// RemoveTaskDetailCommand deletes a task detail
type RemoveTaskDetailCommand struct {
	TaskID     string
	DetailID   string
	OperatorID string
}

// UpdateShippingCommand edits the carrier fields of a delivery task
type UpdateShippingCommand struct {
	TaskID          string
	CarrierID       string
	TrackingNumber  string
	RecipientID     string
	ShippingAddress string
	OperatorID      string
}

// SignDeliveryCommand records the recipient signature
type SignDeliveryCommand struct {
	TaskID     string
	SignedBy   string
	OperatorID string
}

// Stock moves

// StockMoveCommand puts goods into or takes them out of a location
type StockMoveCommand struct {
	GoodsID     string
	WarehouseID string
	LocationID  string
	Quantity    int64
	Reason      string
	OperatorID  string
}

// ListStockMovesQuery pages putaway or removal records
type ListStockMovesQuery struct {
	WarehouseID string
	GoodsID     string
	LocationID  string
	Limit       int
	Offset      int
}

// ListSnapshotsQuery reads captured location snapshots
type ListSnapshotsQuery struct {
	WarehouseID string
	From        time.Time
	To          time.Time
	Limit       int
}
