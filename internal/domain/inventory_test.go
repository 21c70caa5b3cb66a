package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory() *Inventory {
	return NewInventory("goods-1", "wh-1")
}

func TestNewInventory(t *testing.T) {
	inv := newTestInventory()

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, ThresholdDisabled, inv.LowStockThreshold)
	assert.Equal(t, ThresholdDisabled, inv.HighStockThreshold)
	assert.Zero(t, inv.TotalStock)
	assert.Empty(t, inv.DomainEvents())
}

func TestInventory_ASNReceiveAndComplete(t *testing.T) {
	inv := newTestInventory()
	inv.ASNStock = 1000

	require.NoError(t, inv.ASNReceived(1000))
	assert.Equal(t, int64(0), inv.ASNStock)
	assert.Equal(t, int64(1000), inv.ReceivedStock)

	require.NoError(t, inv.ASNCompleted(1000, 1000))
	assert.Equal(t, int64(0), inv.ReceivedStock)
	assert.Equal(t, int64(1000), inv.SortedStock)
	assert.Equal(t, int64(1000), inv.TotalStock)
}

func TestInventory_ASNReceivedInsufficient(t *testing.T) {
	inv := newTestInventory()
	inv.ASNStock = 5

	err := inv.ASNReceived(6)

	assert.ErrorIs(t, err, ErrInsufficientASN)
	assert.Equal(t, int64(5), inv.ASNStock)
	assert.Zero(t, inv.ReceivedStock)
}

func TestInventory_ASNCompletedTolerantOfShortage(t *testing.T) {
	inv := newTestInventory()
	inv.ReceivedStock = 10

	require.NoError(t, inv.ASNCompleted(12, 8))

	assert.Equal(t, int64(0), inv.ReceivedStock)
	assert.Equal(t, int64(8), inv.SortedStock)
}

func TestInventory_LockUnlock(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 280

	require.NoError(t, inv.Lock(2))
	assert.Equal(t, int64(2), inv.LockedStock)
	assert.Equal(t, int64(280), inv.OnhandStock)

	require.NoError(t, inv.Unlock(1))
	assert.Equal(t, int64(1), inv.LockedStock)

	err := inv.Unlock(5)
	assert.ErrorIs(t, err, ErrInsufficientLocked)
	assert.Equal(t, int64(1), inv.LockedStock)
	assert.Equal(t, 10103, CodeOf(err))
}

func TestInventory_LockRejects(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 3

	assert.ErrorIs(t, inv.Lock(4), ErrInsufficientOnhand)
	assert.ErrorIs(t, inv.Lock(0), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.Unlock(-1), ErrInvalidQuantity)
	assert.Zero(t, inv.LockedStock)
}

func TestInventory_DNPickedAndPacked(t *testing.T) {
	inv := newTestInventory()
	inv.DNStock = 10

	require.NoError(t, inv.DNPicked(10, 10))
	assert.Equal(t, int64(0), inv.DNStock)
	assert.Equal(t, int64(10), inv.PickedStock)

	require.NoError(t, inv.DNPacked(5))
	assert.Equal(t, int64(5), inv.PickedStock)
	assert.Equal(t, int64(5), inv.PackedStock)
	assert.Equal(t, int64(10), inv.TotalStock)
}

func TestInventory_DNPickedRequiresDNStock(t *testing.T) {
	inv := newTestInventory()
	inv.DNStock = 9

	err := inv.DNPicked(10, 10)

	assert.ErrorIs(t, err, ErrInsufficientDN)
	assert.Equal(t, int64(9), inv.DNStock)
	assert.Zero(t, inv.PickedStock)
}

func TestInventory_DNPickedShortPickClearsPlannedQuantity(t *testing.T) {
	inv := newTestInventory()
	inv.DNStock = 10

	require.NoError(t, inv.DNPicked(10, 7))

	assert.Equal(t, int64(0), inv.DNStock)
	assert.Equal(t, int64(7), inv.PickedStock)
}

func TestInventory_DownstreamBucketsNeverGoNegative(t *testing.T) {
	tests := []struct {
		name string
		op   func(inv *Inventory) error
		want error
	}{
		{"packed without picked", func(inv *Inventory) error { return inv.DNPacked(1) }, ErrInsufficientPicked},
		{"delivered without packed", func(inv *Inventory) error { return inv.DNDelivered(1) }, ErrInsufficientPacked},
		{"completed without delivered", func(inv *Inventory) error { return inv.DNCompleted(1) }, ErrInsufficientDelivered},
		{"putaway without sorted", func(inv *Inventory) error { return inv.PutawayCompleted(1, LocationTotals{}) }, ErrInsufficientSorted},
		{"negative location totals", func(inv *Inventory) error { return inv.RecomputeFromLocations(LocationTotals{Onhand: -1}) }, ErrInvalidQuantity},
		{"negative outstanding", func(inv *Inventory) error { return inv.SetOutstandingDN(-1) }, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInventory()
			before := inv.Balances()

			err := tt.op(inv)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, inv.Balances())
			assert.Empty(t, inv.DomainEvents())
		})
	}
}

func TestInventory_DeliveryChain(t *testing.T) {
	inv := newTestInventory()
	inv.PackedStock = 4

	require.NoError(t, inv.DNDelivered(4))
	assert.Equal(t, int64(4), inv.DeliveredStock)
	assert.Zero(t, inv.PackedStock)

	require.NoError(t, inv.DNCompleted(4))
	assert.Zero(t, inv.DeliveredStock)
	assert.Zero(t, inv.TotalStock)
}

func TestInventory_PutawayConservation(t *testing.T) {
	inv := newTestInventory()
	inv.ASNStock = 100

	require.NoError(t, inv.ASNReceived(100))
	require.NoError(t, inv.ASNCompleted(100, 96))
	require.NoError(t, inv.PutawayCompleted(60, LocationTotals{Onhand: 60}))
	require.NoError(t, inv.PutawayCompleted(36, LocationTotals{Onhand: 96}))

	assert.Zero(t, inv.SortedStock)
	assert.Equal(t, int64(96), inv.OnhandStock)
	assert.Equal(t, int64(96), inv.TotalStock)

	assert.ErrorIs(t, inv.PutawayCompleted(1, LocationTotals{Onhand: 97}), ErrInsufficientSorted)
	assert.Equal(t, int64(96), inv.OnhandStock)
}

func TestInventory_RemovalReturnsToSorted(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 20
	inv.TotalStock = 20

	require.NoError(t, inv.RemovalCompleted(5, LocationTotals{Onhand: 15}))

	assert.Equal(t, int64(15), inv.OnhandStock)
	assert.Equal(t, int64(5), inv.SortedStock)
	assert.Equal(t, int64(20), inv.TotalStock)
}

func TestInventory_RecomputeFromLocations(t *testing.T) {
	inv := newTestInventory()
	inv.SortedStock = 2
	inv.PickedStock = 3

	require.NoError(t, inv.RecomputeFromLocations(LocationTotals{Onhand: 10, Damage: 4, Return: 1}))

	assert.Equal(t, int64(10), inv.OnhandStock)
	assert.Equal(t, int64(4), inv.DamageStock)
	assert.Equal(t, int64(1), inv.ReturnStock)
	assert.Equal(t, int64(20), inv.TotalStock)
	assert.Equal(t, int64(15), inv.AvailableStock())
	assert.Equal(t, int64(10), inv.AvailableStockForSale())
}

func TestInventory_Thresholds(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 150

	require.NoError(t, inv.SetLowThreshold(20))
	require.NoError(t, inv.SetHighThreshold(100))

	status := inv.CheckThresholds()
	assert.True(t, status.AboveHigh)
	assert.False(t, status.BelowLow)

	require.NoError(t, inv.SetHighThreshold(ThresholdDisabled))
	status = inv.CheckThresholds()
	assert.False(t, status.AboveHigh)
	assert.False(t, status.BelowLow)
}

func TestInventory_ThresholdValidation(t *testing.T) {
	inv := newTestInventory()
	require.NoError(t, inv.SetThresholds(20, 100))

	err := inv.SetHighThreshold(20)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	assert.Equal(t, int64(100), inv.HighStockThreshold)

	assert.ErrorIs(t, inv.SetLowThreshold(100), ErrInvalidThreshold)
	assert.ErrorIs(t, inv.SetLowThreshold(-2), ErrInvalidThreshold)
	assert.Equal(t, int64(20), inv.LowStockThreshold)

	require.NoError(t, inv.SetThresholds(ThresholdDisabled, 0))
}

func TestInventory_BelowLowUsesAvailableForSale(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 30
	inv.DNStock = 15
	require.NoError(t, inv.SetLowThreshold(20))

	assert.True(t, inv.CheckThresholds().BelowLow)
}

func TestInventory_RecordsEvents(t *testing.T) {
	inv := newTestInventory()
	inv.OnhandStock = 10
	require.NoError(t, inv.SetLowThreshold(9))
	inv.ClearDomainEvents()

	require.NoError(t, inv.Lock(2))

	events := inv.DomainEvents()
	require.Len(t, events, 2)

	adjusted, ok := events[0].(*InventoryAdjustedEvent)
	require.True(t, ok)
	assert.Equal(t, OpLock, adjusted.Operation)
	assert.Equal(t, int64(2), adjusted.Balances.Locked)
	assert.Equal(t, inv.ID, adjusted.AggregateID())

	crossed, ok := events[1].(*StockThresholdCrossedEvent)
	require.True(t, ok)
	assert.True(t, crossed.BelowLow)
}

func thresholdEvents(inv *Inventory) []*StockThresholdCrossedEvent {
	var out []*StockThresholdCrossedEvent
	for _, e := range inv.DomainEvents() {
		if crossed, ok := e.(*StockThresholdCrossedEvent); ok {
			out = append(out, crossed)
		}
	}
	return out
}

func TestInventory_ThresholdEventOnlyOnCrossing(t *testing.T) {
	inv := newTestInventory()
	require.NoError(t, inv.RecomputeFromLocations(LocationTotals{Onhand: 150}))
	require.NoError(t, inv.SetThresholds(20, 100))
	require.Len(t, thresholdEvents(inv), 1, "setting thresholds below current stock crosses high")
	inv.ClearDomainEvents()

	// still above high: no new crossing
	require.NoError(t, inv.Lock(1))
	require.NoError(t, inv.Unlock(1))
	require.NoError(t, inv.SetOutstandingDN(10))
	assert.Empty(t, thresholdEvents(inv))

	// back into range
	require.NoError(t, inv.Lock(60))
	assert.Empty(t, thresholdEvents(inv))
	assert.False(t, inv.CheckThresholds().AboveHigh)

	// drop below low
	require.NoError(t, inv.Lock(65))
	events := thresholdEvents(inv)
	require.Len(t, events, 1)
	assert.True(t, events[0].BelowLow)
	assert.Equal(t, int64(15), events[0].AvailableStockForSale)
}

func TestBusinessErrorWrapping(t *testing.T) {
	inv := newTestInventory()
	err := inv.Lock(1)

	var be *BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 10102, be.Code)
	assert.Equal(t, KindBadRequest, be.Kind)
	assert.Contains(t, err.Error(), "onhand 0")
}
