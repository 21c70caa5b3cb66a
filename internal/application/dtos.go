package application

import "time"

// InventoryDTO is the read model of a ledger row
type InventoryDTO struct {
	ID                    string    `json:"id"`
	GoodsID               string    `json:"goodsId"`
	WarehouseID           string    `json:"warehouseId"`
	TotalStock            int64     `json:"totalStock"`
	OnhandStock           int64     `json:"onhandStock"`
	LockedStock           int64     `json:"lockedStock"`
	DamageStock           int64     `json:"damageStock"`
	ReturnStock           int64     `json:"returnStock"`
	ASNStock              int64     `json:"asnStock"`
	ReceivedStock         int64     `json:"receivedStock"`
	SortedStock           int64     `json:"sortedStock"`
	DNStock               int64     `json:"dnStock"`
	PickedStock           int64     `json:"pickedStock"`
	PackedStock           int64     `json:"packedStock"`
	DeliveredStock        int64     `json:"deliveredStock"`
	AvailableStock        int64     `json:"availableStock"`
	AvailableStockForSale int64     `json:"availableStockForSale"`
	LowStockThreshold     int64     `json:"lowStockThreshold"`
	HighStockThreshold    int64     `json:"highStockThreshold"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ThresholdStatusDTO reports where a ledger row stands against its thresholds
type ThresholdStatusDTO struct {
	GoodsID               string `json:"goodsId"`
	WarehouseID           string `json:"warehouseId"`
	AvailableStockForSale int64  `json:"availableStockForSale"`
	IsBelowLowThreshold   bool   `json:"isBelowLowThreshold"`
	IsAboveHighThreshold  bool   `json:"isAboveHighThreshold"`
}

// ASNDetailDTO is one ASN line
type ASNDetailDTO struct {
	ID             string `json:"id"`
	GoodsID        string `json:"goodsId"`
	Quantity       int64  `json:"quantity"`
	ActualQuantity int64  `json:"actualQuantity"`
	SortedQuantity int64  `json:"sortedQuantity"`
	DamageQuantity int64  `json:"damageQuantity"`
}

// ASNDTO is the read model of an ASN
type ASNDTO struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	WarehouseID string         `json:"warehouseId"`
	SupplierID  string         `json:"supplierId,omitempty"`
	Remark      string         `json:"remark,omitempty"`
	Status      string         `json:"status"`
	Details     []ASNDetailDTO `json:"details"`
	CreatedBy   string         `json:"createdBy"`
	UpdatedBy   string         `json:"updatedBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ReceivedAt  *time.Time     `json:"receivedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	ClosedAt    *time.Time     `json:"closedAt,omitempty"`
}

// DNDetailDTO is one DN line
type DNDetailDTO struct {
	ID                string `json:"id"`
	GoodsID           string `json:"goodsId"`
	Quantity          int64  `json:"quantity"`
	PickedQuantity    int64  `json:"pickedQuantity"`
	PackedQuantity    int64  `json:"packedQuantity"`
	DeliveredQuantity int64  `json:"deliveredQuantity"`
}

// DNDTO is the read model of a DN
type DNDTO struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	WarehouseID string        `json:"warehouseId"`
	CustomerID  string        `json:"customerId,omitempty"`
	Remark      string        `json:"remark,omitempty"`
	Status      string        `json:"status"`
	Details     []DNDetailDTO `json:"details"`
	CreatedBy   string        `json:"createdBy"`
	UpdatedBy   string        `json:"updatedBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	PickedAt    *time.Time    `json:"pickedAt,omitempty"`
	PackedAt    *time.Time    `json:"packedAt,omitempty"`
	DeliveredAt *time.Time    `json:"deliveredAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	ClosedAt    *time.Time    `json:"closedAt,omitempty"`
}

// TaskBatchDTO is one task batch
type TaskBatchDTO struct {
	ID        string    `json:"id"`
	Remark    string    `json:"remark,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskDetailDTO is one task detail
type TaskDetailDTO struct {
	ID             string `json:"id"`
	BatchID        string `json:"batchId"`
	GoodsID        string `json:"goodsId"`
	LocationID     string `json:"locationId,omitempty"`
	Quantity       int64  `json:"quantity"`
	DamageQuantity int64  `json:"damageQuantity,omitempty"`
}

// TaskDTO is the read model of a sorting, picking or packing task
type TaskDTO struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	DocumentID  string          `json:"documentId"`
	WarehouseID string          `json:"warehouseId"`
	Status      string          `json:"status"`
	Batches     []TaskBatchDTO  `json:"batches"`
	Details     []TaskDetailDTO `json:"details"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// DeliveryTaskDTO is the read model of a delivery task
type DeliveryTaskDTO struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	DNID            string     `json:"dnId"`
	WarehouseID     string     `json:"warehouseId"`
	Status          string     `json:"status"`
	CarrierID       string     `json:"carrierId,omitempty"`
	TrackingNumber  string     `json:"trackingNumber,omitempty"`
	RecipientID     string     `json:"recipientId,omitempty"`
	ShippingAddress string     `json:"shippingAddress,omitempty"`
	SignedBy        string     `json:"signedBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	SignedAt        *time.Time `json:"signedAt,omitempty"`
}

// StatusLogDTO is one status audit row
type StatusLogDTO struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	OperatorID string    `json:"operatorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StockMoveDTO is a putaway or removal record
type StockMoveDTO struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	GoodsID     string    `json:"goodsId"`
	WarehouseID string    `json:"warehouseId"`
	LocationID  string    `json:"locationId"`
	Quantity    int64     `json:"quantity"`
	Reason      string    `json:"reason"`
	SourceType  string    `json:"sourceType,omitempty"`
	SourceID    string    `json:"sourceId,omitempty"`
	OperatorID  string    `json:"operatorId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SnapshotDTO is one captured location quantity
type SnapshotDTO struct {
	CapturedAt   time.Time `json:"capturedAt"`
	GoodsID      string    `json:"goodsId"`
	WarehouseID  string    `json:"warehouseId"`
	LocationID   string    `json:"locationId"`
	LocationType string    `json:"locationType"`
	Quantity     int64     `json:"quantity"`
}
