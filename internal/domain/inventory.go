package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ThresholdDisabled turns a stock threshold check off
const ThresholdDisabled int64 = -1

// Ledger operation names, used in events and metrics
const (
	OpLock             = "lock"
	OpUnlock           = "unlock"
	OpASNReceived      = "asn_received"
	OpASNCompleted     = "asn_completed"
	OpPutawayCompleted = "putaway_completed"
	OpRemovalCompleted = "removal_completed"
	OpPickingRemoval   = "picking_removal"
	OpDNPicked         = "dn_picked"
	OpDNPacked         = "dn_packed"
	OpDNDelivered      = "dn_delivered"
	OpDNCompleted      = "dn_completed"
	OpRecompute        = "recompute_locations"
	OpOutstandingASN   = "recompute_outstanding_asn"
	OpOutstandingDN    = "recompute_outstanding_dn"
	OpThresholds       = "set_thresholds"
)

// Inventory is the stock ledger of one goods in one warehouse.
// Every counter is non-negative; a failing operation leaves it untouched.
type Inventory struct {
	ID          string `bson:"_id" json:"id"`
	GoodsID     string `bson:"goodsId" json:"goodsId"`
	WarehouseID string `bson:"warehouseId" json:"warehouseId"`

	TotalStock     int64 `bson:"totalStock" json:"totalStock"`
	OnhandStock    int64 `bson:"onhandStock" json:"onhandStock"`
	LockedStock    int64 `bson:"lockedStock" json:"lockedStock"`
	DamageStock    int64 `bson:"damageStock" json:"damageStock"`
	ReturnStock    int64 `bson:"returnStock" json:"returnStock"`
	ASNStock       int64 `bson:"asnStock" json:"asnStock"`
	ReceivedStock  int64 `bson:"receivedStock" json:"receivedStock"`
	SortedStock    int64 `bson:"sortedStock" json:"sortedStock"`
	DNStock        int64 `bson:"dnStock" json:"dnStock"`
	PickedStock    int64 `bson:"pickedStock" json:"pickedStock"`
	PackedStock    int64 `bson:"packedStock" json:"packedStock"`
	DeliveredStock int64 `bson:"deliveredStock" json:"deliveredStock"`

	LowStockThreshold  int64 `bson:"lowStockThreshold" json:"lowStockThreshold"`
	HighStockThreshold int64 `bson:"highStockThreshold" json:"highStockThreshold"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	aggregateEvents
}

// NewInventory creates an empty ledger row with both thresholds disabled
func NewInventory(goodsID, warehouseID string) *Inventory {
	now := time.Now().UTC()
	return &Inventory{
		ID:                 uuid.New().String(),
		GoodsID:            goodsID,
		WarehouseID:        warehouseID,
		LowStockThreshold:  ThresholdDisabled,
		HighStockThreshold: ThresholdDisabled,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// LocationTotals is the per-location-type stock of one goods in one warehouse
type LocationTotals struct {
	Onhand int64
	Damage int64
	Return int64
}

// ThresholdStatus is the result of CheckThresholds
type ThresholdStatus struct {
	BelowLow  bool `json:"isBelowLowThreshold"`
	AboveHigh bool `json:"isAboveHighThreshold"`
}

// AvailableStock is onhand+damage+return-locked-dn
func (i *Inventory) AvailableStock() int64 {
	return i.OnhandStock + i.DamageStock + i.ReturnStock - i.LockedStock - i.DNStock
}

// AvailableStockForSale is onhand-locked-dn
func (i *Inventory) AvailableStockForSale() int64 {
	return i.OnhandStock - i.LockedStock - i.DNStock
}

// Balances returns a copy of every counter
func (i *Inventory) Balances() StockBalances {
	return StockBalances{
		Total:     i.TotalStock,
		Onhand:    i.OnhandStock,
		Locked:    i.LockedStock,
		Damage:    i.DamageStock,
		Return:    i.ReturnStock,
		ASN:       i.ASNStock,
		Received:  i.ReceivedStock,
		Sorted:    i.SortedStock,
		DN:        i.DNStock,
		Picked:    i.PickedStock,
		Packed:    i.PackedStock,
		Delivered: i.DeliveredStock,
	}
}

// Lock reserves on-hand stock. Locking does not move stock out of onhand.
func (i *Inventory) Lock(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i.OnhandStock < qty {
		return fmt.Errorf("%w: onhand %d, requested %d", ErrInsufficientOnhand, i.OnhandStock, qty)
	}
	before := i.CheckThresholds()
	i.LockedStock += qty
	i.changed(OpLock, qty, before)
	return nil
}

// Unlock releases previously locked stock
func (i *Inventory) Unlock(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i.LockedStock < qty {
		return fmt.Errorf("%w: locked %d, requested %d", ErrInsufficientLocked, i.LockedStock, qty)
	}
	before := i.CheckThresholds()
	i.LockedStock -= qty
	i.changed(OpUnlock, qty, before)
	return nil
}

// ASNReceived moves expected stock into the received bucket
func (i *Inventory) ASNReceived(qty int64) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if i.ASNStock < qty {
		return fmt.Errorf("%w: asn %d, requested %d", ErrInsufficientASN, i.ASNStock, qty)
	}
	before := i.CheckThresholds()
	i.ASNStock -= qty
	i.ReceivedStock += qty
	i.changed(OpASNReceived, qty, before)
	return nil
}

// ASNCompleted clears qty from received and books the sorted actual.
// actual may differ from qty; received is floored at zero.
func (i *Inventory) ASNCompleted(qty, actual int64) error {
	if qty < 0 || actual < 0 {
		return ErrInvalidQuantity
	}
	before := i.CheckThresholds()
	i.ReceivedStock = floorSub(i.ReceivedStock, qty)
	i.SortedStock += actual
	i.changed(OpASNCompleted, actual, before)
	return nil
}

// PutawayCompleted takes qty out of sorted and re-derives the
// location-backed buckets from totals.
func (i *Inventory) PutawayCompleted(qty int64, totals LocationTotals) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i.SortedStock < qty {
		return fmt.Errorf("%w: sorted %d, requested %d", ErrInsufficientSorted, i.SortedStock, qty)
	}
	if err := totals.validate(); err != nil {
		return err
	}
	before := i.CheckThresholds()
	i.SortedStock -= qty
	i.applyLocationTotals(totals)
	i.changed(OpPutawayCompleted, qty, before)
	return nil
}

// RemovalCompleted returns qty pulled out of a location to sorted and
// re-derives the location-backed buckets from totals.
func (i *Inventory) RemovalCompleted(qty int64, totals LocationTotals) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if err := totals.validate(); err != nil {
		return err
	}
	before := i.CheckThresholds()
	i.SortedStock += qty
	i.applyLocationTotals(totals)
	i.changed(OpRemovalCompleted, qty, before)
	return nil
}

// PickingRemoval re-derives the location-backed buckets after picked goods
// left their locations. The goods are accounted for by DNPicked, not sorted.
func (i *Inventory) PickingRemoval(qty int64, totals LocationTotals) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if err := totals.validate(); err != nil {
		return err
	}
	before := i.CheckThresholds()
	i.applyLocationTotals(totals)
	i.changed(OpPickingRemoval, qty, before)
	return nil
}

// RecomputeFromLocations re-derives onhand, damage and return stock
func (i *Inventory) RecomputeFromLocations(totals LocationTotals) error {
	if err := totals.validate(); err != nil {
		return err
	}
	before := i.CheckThresholds()
	i.applyLocationTotals(totals)
	i.changed(OpRecompute, 0, before)
	return nil
}

// DNPicked clears qty from dn stock and books picked into picked stock
func (i *Inventory) DNPicked(qty, picked int64) error {
	if qty < 0 || picked < 0 {
		return ErrInvalidQuantity
	}
	if i.DNStock < picked {
		return fmt.Errorf("%w: dn %d, picked %d", ErrInsufficientDN, i.DNStock, picked)
	}
	before := i.CheckThresholds()
	i.DNStock = floorSub(i.DNStock, qty)
	i.PickedStock += picked
	i.changed(OpDNPicked, picked, before)
	return nil
}

// DNPacked moves qty from picked to packed
func (i *Inventory) DNPacked(qty int64) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if i.PickedStock < qty {
		return fmt.Errorf("%w: picked %d, requested %d", ErrInsufficientPicked, i.PickedStock, qty)
	}
	before := i.CheckThresholds()
	i.PickedStock -= qty
	i.PackedStock += qty
	i.changed(OpDNPacked, qty, before)
	return nil
}

// DNDelivered moves qty from packed to delivered
func (i *Inventory) DNDelivered(qty int64) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if i.PackedStock < qty {
		return fmt.Errorf("%w: packed %d, requested %d", ErrInsufficientPacked, i.PackedStock, qty)
	}
	before := i.CheckThresholds()
	i.PackedStock -= qty
	i.DeliveredStock += qty
	i.changed(OpDNDelivered, qty, before)
	return nil
}

// DNCompleted clears qty from delivered
func (i *Inventory) DNCompleted(qty int64) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if i.DeliveredStock < qty {
		return fmt.Errorf("%w: delivered %d, requested %d", ErrInsufficientDelivered, i.DeliveredStock, qty)
	}
	before := i.CheckThresholds()
	i.DeliveredStock -= qty
	i.changed(OpDNCompleted, qty, before)
	return nil
}

// SetOutstandingASN replaces asn stock with the live outstanding sum
func (i *Inventory) SetOutstandingASN(sum int64) error {
	if sum < 0 {
		return ErrInvalidQuantity
	}
	before := i.CheckThresholds()
	i.ASNStock = sum
	i.changed(OpOutstandingASN, sum, before)
	return nil
}

// SetOutstandingDN replaces dn stock with the live outstanding sum
func (i *Inventory) SetOutstandingDN(sum int64) error {
	if sum < 0 {
		return ErrInvalidQuantity
	}
	before := i.CheckThresholds()
	i.DNStock = sum
	i.changed(OpOutstandingDN, sum, before)
	return nil
}

// SetLowThreshold sets the low threshold; -1 disables it
func (i *Inventory) SetLowThreshold(low int64) error {
	return i.SetThresholds(low, i.HighStockThreshold)
}

// SetHighThreshold sets the high threshold; -1 disables it
func (i *Inventory) SetHighThreshold(high int64) error {
	return i.SetThresholds(i.LowStockThreshold, high)
}

// SetThresholds sets both thresholds. high must be -1 or greater than low.
func (i *Inventory) SetThresholds(low, high int64) error {
	if low < ThresholdDisabled || high < ThresholdDisabled {
		return fmt.Errorf("%w: thresholds must be -1 or non-negative", ErrInvalidThreshold)
	}
	if high != ThresholdDisabled && high <= low {
		return fmt.Errorf("%w: low %d, high %d", ErrInvalidThreshold, low, high)
	}
	before := i.CheckThresholds()
	i.LowStockThreshold = low
	i.HighStockThreshold = high
	i.changed(OpThresholds, 0, before)
	return nil
}

// CheckThresholds compares available-for-sale stock against enabled thresholds
func (i *Inventory) CheckThresholds() ThresholdStatus {
	available := i.AvailableStockForSale()
	return ThresholdStatus{
		BelowLow:  i.LowStockThreshold != ThresholdDisabled && available < i.LowStockThreshold,
		AboveHigh: i.HighStockThreshold != ThresholdDisabled && available > i.HighStockThreshold,
	}
}

// recomputeTotal sums the physically present buckets.
// This differs from AvailableStock and is kept as the ledger's own figure.
func (i *Inventory) recomputeTotal() {
	i.TotalStock = i.OnhandStock + i.DamageStock + i.ReturnStock + i.SortedStock + i.PickedStock + i.PackedStock
}

func (i *Inventory) applyLocationTotals(totals LocationTotals) {
	i.OnhandStock = totals.Onhand
	i.DamageStock = totals.Damage
	i.ReturnStock = totals.Return
}

// changed records the adjustment and, when available-for-sale moved out of
// range relative to before, a threshold crossing
func (i *Inventory) changed(operation string, qty int64, before ThresholdStatus) {
	i.recomputeTotal()
	i.UpdatedAt = time.Now().UTC()

	i.addEvent(&InventoryAdjustedEvent{
		InventoryID: i.ID,
		GoodsID:     i.GoodsID,
		WarehouseID: i.WarehouseID,
		Operation:   operation,
		Quantity:    qty,
		Balances:    i.Balances(),
		AdjustedAt:  i.UpdatedAt,
	})

	after := i.CheckThresholds()
	if after != before && (after.BelowLow || after.AboveHigh) {
		i.addEvent(&StockThresholdCrossedEvent{
			InventoryID:           i.ID,
			GoodsID:               i.GoodsID,
			WarehouseID:           i.WarehouseID,
			AvailableStockForSale: i.AvailableStockForSale(),
			LowStockThreshold:     i.LowStockThreshold,
			HighStockThreshold:    i.HighStockThreshold,
			BelowLow:              after.BelowLow,
			AboveHigh:             after.AboveHigh,
			CrossedAt:             i.UpdatedAt,
		})
	}
}

func (t LocationTotals) validate() error {
	if t.Onhand < 0 || t.Damage < 0 || t.Return < 0 {
		return fmt.Errorf("%w: negative location totals", ErrInvalidQuantity)
	}
	return nil
}

func floorSub(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}
