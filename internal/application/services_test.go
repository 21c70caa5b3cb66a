package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/kafka"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

const (
	op  = "operator-1"
	wh  = "wh-1"
	sku = "g-1"
)

type fixture struct {
	ctx   context.Context
	store *memStore
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.warehouses[wh] = true
	store.warehouses["wh-2"] = true
	store.goods[sku] = true
	store.goods["g-2"] = true
	store.addLocation("loc-storage", wh, domain.LocationTypeStorage)
	store.addLocation("loc-damage", wh, domain.LocationTypeDamage)
	store.addLocation("loc-staging", wh, domain.LocationTypeStaging)
	store.addLocation("loc-remote", "wh-2", domain.LocationTypeStorage)

	svc := NewServices(
		store,
		store.repositories(),
		cloudevents.NewEventFactory(cloudevents.SourceFulfillment),
		logging.NewNop(),
		metrics.New(metrics.DefaultConfig("fulfillment-test")),
	)
	return &fixture{ctx: context.Background(), store: store, svc: svc}
}

func (f *fixture) inventory(t *testing.T, goodsID string) *domain.Inventory {
	t.Helper()
	inv, ok := f.store.inventory[key(goodsID, wh)]
	require.True(t, ok, "no ledger row for %s", goodsID)
	return inv
}

func (f *fixture) createASN(t *testing.T, lines ...DetailLineCommand) *ASNDTO {
	t.Helper()
	asn, err := f.svc.Inbound.CreateASN(f.ctx, CreateASNCommand{WarehouseID: wh, Details: lines, OperatorID: op})
	require.NoError(t, err)
	return asn
}

func (f *fixture) receiveASN(t *testing.T, qty int64) *ASNDTO {
	t.Helper()
	asn := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: qty})
	received, err := f.svc.Inbound.Receive(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)
	return received
}

// sortReceived records one sorting batch for a received ASN and completes
// the sorting task, which completes the ASN
func (f *fixture) sortReceived(t *testing.T, asnID string, sorted, damage int64) *ASNDTO {
	t.Helper()
	task, err := f.svc.Sorting.GetTaskByDocument(f.ctx, asnID)
	require.NoError(t, err)
	_, err = f.svc.Sorting.Process(f.ctx, TransitionCommand{ID: task.ID, OperatorID: op})
	require.NoError(t, err)
	task, err = f.svc.Sorting.AddBatch(f.ctx, AddBatchCommand{TaskID: task.ID, OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Sorting.AddDetail(f.ctx, TaskDetailCommand{
		TaskID: task.ID, BatchID: task.Batches[0].ID, GoodsID: sku,
		Quantity: sorted, DamageQuantity: damage, OperatorID: op,
	})
	require.NoError(t, err)
	_, err = f.svc.Sorting.Complete(f.ctx, TransitionCommand{ID: task.ID, OperatorID: op})
	require.NoError(t, err)

	out, err := f.svc.Inbound.GetASN(f.ctx, asnID)
	require.NoError(t, err)
	return out
}

// sortASN receives qty of sku and sorts it into sorted and damage
func (f *fixture) sortASN(t *testing.T, qty, sorted, damage int64) *ASNDTO {
	t.Helper()
	return f.sortReceived(t, f.receiveASN(t, qty).ID, sorted, damage)
}

func (f *fixture) putaway(t *testing.T, location string, qty int64) {
	t.Helper()
	_, err := f.svc.StockMoves.Putaway(f.ctx, StockMoveCommand{
		GoodsID: sku, WarehouseID: wh, LocationID: location, Quantity: qty, OperatorID: op,
	})
	require.NoError(t, err)
}

func businessCode(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.BusinessCode
}

func TestInboundFlow_ReceiveSortPutaway(t *testing.T) {
	f := newFixture(t)

	asn := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 1000})
	assert.Equal(t, int64(1000), f.inventory(t, sku).ASNStock)

	received, err := f.svc.Inbound.Receive(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)
	assert.Equal(t, "received", received.Status)
	inv := f.inventory(t, sku)
	assert.Zero(t, inv.ASNStock)
	assert.Equal(t, int64(1000), inv.ReceivedStock)

	task, err := f.svc.Sorting.GetTaskByDocument(f.ctx, asn.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", task.Status)

	completed := f.sortReceived(t, asn.ID, 990, 10)
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, int64(990), completed.Details[0].SortedQuantity)
	assert.Equal(t, int64(10), completed.Details[0].DamageQuantity)
	assert.Equal(t, int64(1000), completed.Details[0].ActualQuantity)

	inv = f.inventory(t, sku)
	assert.Zero(t, inv.ReceivedStock)
	assert.Equal(t, int64(1000), inv.SortedStock)

	f.putaway(t, "loc-storage", 990)
	f.putaway(t, "loc-damage", 10)

	inv = f.inventory(t, sku)
	assert.Zero(t, inv.SortedStock)
	assert.Equal(t, int64(990), inv.OnhandStock)
	assert.Equal(t, int64(10), inv.DamageStock)
	assert.Equal(t, int64(1000), inv.TotalStock)

	logs, err := f.svc.Inbound.StatusLogs(f.ctx, completed.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "pending", logs[0].FromStatus)
	assert.Equal(t, "received", logs[0].ToStatus)
	assert.Equal(t, "completed", logs[1].ToStatus)
	assert.Equal(t, op, logs[1].OperatorID)
}

func TestInboundFlow_CompleteWithoutFinishedSortingBooksNothing(t *testing.T) {
	f := newFixture(t)
	asn := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 50})
	_, err := f.svc.Inbound.Receive(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)

	completed, err := f.svc.Inbound.Complete(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)

	assert.Zero(t, completed.Details[0].ActualQuantity)
	inv := f.inventory(t, sku)
	assert.Zero(t, inv.ReceivedStock)
	assert.Zero(t, inv.SortedStock)
}

func TestOutboundFlow_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 100, 100, 0)
	f.putaway(t, "loc-storage", 100)

	dn, err := f.svc.Outbound.CreateDN(f.ctx, CreateDNCommand{
		WarehouseID: wh, Details: []DetailLineCommand{{GoodsID: sku, Quantity: 10}}, OperatorID: op,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.inventory(t, sku).DNStock)
	assert.Equal(t, int64(90), f.inventory(t, sku).AvailableStockForSale())

	_, err = f.svc.Outbound.Progress(f.ctx, TransitionCommand{ID: dn.ID, OperatorID: op})
	require.NoError(t, err)

	picking, err := f.svc.Picking.GetTaskByDocument(f.ctx, dn.ID)
	require.NoError(t, err)
	_, err = f.svc.Picking.Process(f.ctx, TransitionCommand{ID: picking.ID, OperatorID: op})
	require.NoError(t, err)
	picking, err = f.svc.Picking.AddBatch(f.ctx, AddBatchCommand{TaskID: picking.ID, OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Picking.AddDetail(f.ctx, TaskDetailCommand{
		TaskID: picking.ID, BatchID: picking.Batches[0].ID, GoodsID: sku,
		LocationID: "loc-storage", Quantity: 10, OperatorID: op,
	})
	require.NoError(t, err)
	_, err = f.svc.Picking.Complete(f.ctx, TransitionCommand{ID: picking.ID, OperatorID: op})
	require.NoError(t, err)

	picked, err := f.svc.Outbound.GetDN(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, "picked", picked.Status)
	assert.Equal(t, int64(10), picked.Details[0].PickedQuantity)

	inv := f.inventory(t, sku)
	assert.Equal(t, int64(90), inv.OnhandStock)
	assert.Zero(t, inv.DNStock)
	assert.Equal(t, int64(10), inv.PickedStock)
	assert.Zero(t, inv.SortedStock)
	assert.Equal(t, int64(100), inv.TotalStock)

	removals, err := f.svc.StockMoves.ListRemovals(f.ctx, ListStockMovesQuery{WarehouseID: wh})
	require.NoError(t, err)
	require.Len(t, removals, 1)
	assert.Equal(t, domain.SourcePickingTask, removals[0].SourceType)
	assert.Equal(t, picking.ID, removals[0].SourceID)

	packing, err := f.svc.Packing.GetTaskByDocument(f.ctx, dn.ID)
	require.NoError(t, err)
	_, err = f.svc.Packing.Process(f.ctx, TransitionCommand{ID: packing.ID, OperatorID: op})
	require.NoError(t, err)
	packing, err = f.svc.Packing.AddBatch(f.ctx, AddBatchCommand{TaskID: packing.ID, OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Packing.AddDetail(f.ctx, TaskDetailCommand{
		TaskID: packing.ID, BatchID: packing.Batches[0].ID, GoodsID: sku, Quantity: 10, OperatorID: op,
	})
	require.NoError(t, err)
	_, err = f.svc.Packing.Complete(f.ctx, TransitionCommand{ID: packing.ID, OperatorID: op})
	require.NoError(t, err)

	inv = f.inventory(t, sku)
	assert.Zero(t, inv.PickedStock)
	assert.Equal(t, int64(10), inv.PackedStock)

	delivery, err := f.svc.Deliveries.GetDeliveryTaskByDN(f.ctx, dn.ID)
	require.NoError(t, err)
	_, err = f.svc.Deliveries.UpdateShipping(f.ctx, UpdateShippingCommand{TaskID: delivery.ID, CarrierID: "UPS", TrackingNumber: "1Z", OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Deliveries.Process(f.ctx, TransitionCommand{ID: delivery.ID, OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Deliveries.Complete(f.ctx, TransitionCommand{ID: delivery.ID, OperatorID: op})
	require.NoError(t, err)

	delivered, err := f.svc.Outbound.GetDN(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", delivered.Status)
	assert.Equal(t, int64(10), delivered.Details[0].DeliveredQuantity)
	assert.Equal(t, int64(10), f.inventory(t, sku).DeliveredStock)

	signed, err := f.svc.Deliveries.Sign(f.ctx, SignDeliveryCommand{TaskID: delivery.ID, SignedBy: "recipient", OperatorID: op})
	require.NoError(t, err)
	assert.Equal(t, "signed", signed.Status)

	done, err := f.svc.Outbound.GetDN(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)

	inv = f.inventory(t, sku)
	assert.Zero(t, inv.DeliveredStock)
	assert.Zero(t, inv.PackedStock)
	assert.Equal(t, int64(90), inv.OnhandStock)
	assert.Equal(t, int64(90), inv.TotalStock)

	logs, err := f.svc.Outbound.StatusLogs(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 5)
}

func TestPickingComplete_OverPickRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 100, 100, 0)
	f.putaway(t, "loc-storage", 100)

	dn, err := f.svc.Outbound.CreateDN(f.ctx, CreateDNCommand{
		WarehouseID: wh, Details: []DetailLineCommand{{GoodsID: sku, Quantity: 10}}, OperatorID: op,
	})
	require.NoError(t, err)
	_, err = f.svc.Outbound.Progress(f.ctx, TransitionCommand{ID: dn.ID, OperatorID: op})
	require.NoError(t, err)

	task, err := f.svc.Picking.GetTaskByDocument(f.ctx, dn.ID)
	require.NoError(t, err)
	_, err = f.svc.Picking.Process(f.ctx, TransitionCommand{ID: task.ID, OperatorID: op})
	require.NoError(t, err)
	task, err = f.svc.Picking.AddBatch(f.ctx, AddBatchCommand{TaskID: task.ID, OperatorID: op})
	require.NoError(t, err)
	_, err = f.svc.Picking.AddDetail(f.ctx, TaskDetailCommand{
		TaskID: task.ID, BatchID: task.Batches[0].ID, GoodsID: sku,
		LocationID: "loc-storage", Quantity: 11, OperatorID: op,
	})
	require.NoError(t, err)

	before := f.inventory(t, sku).Balances()
	logsBefore := len(f.store.logs)
	outboxBefore := len(f.store.outbox)

	_, err = f.svc.Picking.Complete(f.ctx, TransitionCommand{ID: task.ID, OperatorID: op})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDNPickedExceedsQuantity)
	assert.Equal(t, 30007, businessCode(t, err))

	after, err := f.svc.Picking.GetTask(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", after.Status)

	current, err := f.svc.Outbound.GetDN(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", current.Status)

	assert.Equal(t, before, f.inventory(t, sku).Balances())
	assert.Equal(t, int64(100), f.store.stock[key(sku, "loc-storage")].Quantity)
	assert.Empty(t, f.store.removals)
	assert.Len(t, f.store.logs, logsBefore)
	assert.Len(t, f.store.outbox, outboxBefore)
}

func TestCreateASN_DuplicateGoodsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Inbound.CreateASN(f.ctx, CreateASNCommand{
		WarehouseID: wh,
		Details:     []DetailLineCommand{{GoodsID: sku, Quantity: 1}, {GoodsID: sku, Quantity: 2}},
		OperatorID:  op,
	})

	require.Error(t, err)
	assert.Equal(t, 20005, businessCode(t, err))
	assert.Empty(t, f.store.asns)
	assert.Empty(t, f.store.inventory)
}

func TestCreateASN_UnknownReferences(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Inbound.CreateASN(f.ctx, CreateASNCommand{WarehouseID: "nowhere", OperatorID: op})
	assert.ErrorIs(t, err, domain.ErrWarehouseNotFound)

	_, err = f.svc.Inbound.CreateASN(f.ctx, CreateASNCommand{
		WarehouseID: wh, Details: []DetailLineCommand{{GoodsID: "ghost", Quantity: 1}}, OperatorID: op,
	})
	assert.ErrorIs(t, err, domain.ErrGoodsNotFound)
	appErr, _ := errors.AsAppError(err)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestASN_EditsKeepOutstandingStockInStep(t *testing.T) {
	f := newFixture(t)
	a := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 10})
	f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 5})
	assert.Equal(t, int64(15), f.inventory(t, sku).ASNStock)

	updated, err := f.svc.Inbound.UpdateDetail(f.ctx, UpdateDetailCommand{DocumentID: a.ID, DetailID: a.Details[0].ID, Quantity: 20, OperatorID: op})
	require.NoError(t, err)
	assert.Equal(t, int64(25), f.inventory(t, sku).ASNStock)

	_, err = f.svc.Inbound.SyncDetails(f.ctx, SyncDetailsCommand{
		DocumentID: updated.ID, Details: []DetailLineCommand{{GoodsID: "g-2", Quantity: 4}}, OperatorID: op,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.inventory(t, sku).ASNStock)
	assert.Equal(t, int64(4), f.inventory(t, "g-2").ASNStock)

	_, err = f.svc.Inbound.Close(f.ctx, TransitionCommand{ID: a.ID, OperatorID: op})
	require.NoError(t, err)
	assert.Zero(t, f.inventory(t, "g-2").ASNStock)

	_, err = f.svc.Inbound.AddDetail(f.ctx, AddDetailCommand{DocumentID: a.ID, GoodsID: sku, Quantity: 1, OperatorID: op})
	require.Error(t, err)
	assert.Equal(t, 20002, businessCode(t, err))
	appErr, _ := errors.AsAppError(err)
	assert.Equal(t, errors.CodeInvalidState, appErr.Code)
}

func TestDN_DeleteReleasesDemand(t *testing.T) {
	f := newFixture(t)
	dn, err := f.svc.Outbound.CreateDN(f.ctx, CreateDNCommand{
		WarehouseID: wh, Details: []DetailLineCommand{{GoodsID: sku, Quantity: 7}}, OperatorID: op,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.inventory(t, sku).DNStock)

	require.NoError(t, f.svc.Outbound.DeleteDN(f.ctx, TransitionCommand{ID: dn.ID, OperatorID: op}))

	assert.Zero(t, f.inventory(t, sku).DNStock)
	_, err = f.svc.Outbound.GetDN(f.ctx, dn.ID)
	assert.ErrorIs(t, err, domain.ErrDNNotFound)
}

func TestDN_SyncDetails(t *testing.T) {
	f := newFixture(t)
	dn, err := f.svc.Outbound.CreateDN(f.ctx, CreateDNCommand{
		WarehouseID: wh, Details: []DetailLineCommand{{GoodsID: sku, Quantity: 7}}, OperatorID: op,
	})
	require.NoError(t, err)

	synced, err := f.svc.Outbound.SyncDetails(f.ctx, SyncDetailsCommand{
		DocumentID: dn.ID,
		Details:    []DetailLineCommand{{GoodsID: sku, Quantity: 4}, {GoodsID: "g-2", Quantity: 2}},
		OperatorID: op,
	})
	require.NoError(t, err)
	require.Len(t, synced.Details, 2)
	assert.Equal(t, dn.Details[0].ID, synced.Details[0].ID, "kept goods keep their line id")
	assert.Equal(t, int64(4), f.inventory(t, sku).DNStock)
	assert.Equal(t, int64(2), f.inventory(t, "g-2").DNStock)

	_, err = f.svc.Outbound.SyncDetails(f.ctx, SyncDetailsCommand{
		DocumentID: dn.ID,
		Details:    []DetailLineCommand{{GoodsID: sku, Quantity: 1}, {GoodsID: sku, Quantity: 9}},
		OperatorID: op,
	})
	require.ErrorIs(t, err, domain.ErrDNDuplicateGoods)
	assert.Equal(t, domain.ErrDNDuplicateGoods.Code, businessCode(t, err))

	after, err := f.svc.Outbound.GetDN(f.ctx, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, synced.Details, after.Details)
	assert.Equal(t, int64(4), f.inventory(t, sku).DNStock)
	assert.Equal(t, int64(2), f.inventory(t, "g-2").DNStock)
}

func TestLedger_RecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 30, 30, 0)
	f.putaway(t, "loc-storage", 20)
	f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 3})

	f.store.stock[key(sku, "loc-storage")].Quantity = 25 // drift from a manual count

	first, err := f.svc.Ledger.Recompute(f.ctx, RecomputeCommand{GoodsID: sku, WarehouseID: wh, OperatorID: op})
	require.NoError(t, err)
	assert.Equal(t, int64(25), first.OnhandStock)
	assert.Equal(t, int64(3), first.ASNStock)

	second, err := f.svc.Ledger.Recompute(f.ctx, RecomputeCommand{GoodsID: sku, WarehouseID: wh, OperatorID: op})
	require.NoError(t, err)
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}

func TestLedger_LockUnlockAndThresholds(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 50, 50, 0)
	f.putaway(t, "loc-storage", 50)

	inv, err := f.svc.Ledger.Lock(f.ctx, LockCommand{GoodsID: sku, WarehouseID: wh, Quantity: 45, OperatorID: op})
	require.NoError(t, err)
	assert.Equal(t, int64(45), inv.LockedStock)
	assert.Equal(t, int64(50), inv.OnhandStock)

	_, err = f.svc.Ledger.Unlock(f.ctx, LockCommand{GoodsID: sku, WarehouseID: wh, Quantity: 46, OperatorID: op})
	assert.Equal(t, 10103, businessCode(t, err))

	low := int64(10)
	_, err = f.svc.Ledger.SetThresholds(f.ctx, SetThresholdsCommand{GoodsID: sku, WarehouseID: wh, Low: &low, OperatorID: op})
	require.NoError(t, err)

	status, err := f.svc.Ledger.CheckThresholds(f.ctx, GetInventoryQuery{GoodsID: sku, WarehouseID: wh})
	require.NoError(t, err)
	assert.True(t, status.IsBelowLowThreshold)
	assert.Equal(t, int64(5), status.AvailableStockForSale)

	_, err = f.svc.Ledger.Lock(f.ctx, LockCommand{GoodsID: "g-2", WarehouseID: wh, Quantity: 1, OperatorID: op})
	assert.ErrorIs(t, err, domain.ErrInventoryNotFound)
}

func TestStockMoves_LocationChecks(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 10, 10, 0)

	tests := []struct {
		name     string
		location string
		want     error
	}{
		{"unknown", "loc-missing", domain.ErrLocationNotFound},
		{"other warehouse", "loc-remote", domain.ErrLocationWarehouseMismatch},
		{"not stockable", "loc-staging", domain.ErrLocationNotStockable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StockMoves.Putaway(f.ctx, StockMoveCommand{
				GoodsID: sku, WarehouseID: wh, LocationID: tt.location, Quantity: 1, OperatorID: op,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.StockMoves.Putaway(f.ctx, StockMoveCommand{
		GoodsID: sku, WarehouseID: wh, LocationID: "loc-storage", Quantity: 11, OperatorID: op,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientSorted)
	assert.Empty(t, f.store.stock)
	assert.Empty(t, f.store.putaways)
}

func TestStockMoves_RemovalReturnsToSorted(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 10, 10, 0)
	f.putaway(t, "loc-storage", 10)

	_, err := f.svc.StockMoves.Removal(f.ctx, StockMoveCommand{
		GoodsID: sku, WarehouseID: wh, LocationID: "loc-storage", Quantity: 4, OperatorID: op,
	})
	require.NoError(t, err)

	inv := f.inventory(t, sku)
	assert.Equal(t, int64(6), inv.OnhandStock)
	assert.Equal(t, int64(4), inv.SortedStock)
	assert.Equal(t, int64(10), inv.TotalStock)

	rows, err := f.svc.StockMoves.LocationStock(f.ctx, sku, wh)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "loc-storage", rows[0].LocationID)
	assert.Equal(t, int64(6), rows[0].Quantity)

	_, err = f.svc.StockMoves.Removal(f.ctx, StockMoveCommand{
		GoodsID: sku, WarehouseID: wh, LocationID: "loc-storage", Quantity: 7, OperatorID: op,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientLocationStock)
}

func TestTaskEdits_StateGated(t *testing.T) {
	f := newFixture(t)
	asn := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 5})
	_, err := f.svc.Inbound.Receive(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)
	task, err := f.svc.Sorting.GetTaskByDocument(f.ctx, asn.ID)
	require.NoError(t, err)

	_, err = f.svc.Sorting.AddBatch(f.ctx, AddBatchCommand{TaskID: task.ID, OperatorID: op})
	assert.Equal(t, 21002, businessCode(t, err))

	_, err = f.svc.Sorting.Complete(f.ctx, TransitionCommand{ID: task.ID, OperatorID: op})
	assert.Equal(t, 21003, businessCode(t, err))

	_, err = f.svc.Sorting.GetTask(f.ctx, "missing")
	assert.Equal(t, 21001, businessCode(t, err))
}

func TestUnitOfWork_NestedRunsShareOneTransaction(t *testing.T) {
	f := newFixture(t)
	manager := f.svc.UnitOfWork
	var depths []int

	err := manager.Run(f.ctx, op, func(ctx context.Context, outer *UnitOfWork) error {
		depths = append(depths, outer.Depth())
		return manager.Run(ctx, "someone-else", func(ctx context.Context, inner *UnitOfWork) error {
			assert.Same(t, outer, inner)
			depths = append(depths, inner.Depth())
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, depths)
	assert.Equal(t, 1, f.store.transactions)
}

func TestUnitOfWork_RequiresOperator(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Inbound.CreateASN(f.ctx, CreateASNCommand{WarehouseID: wh})

	assert.ErrorIs(t, err, domain.ErrOperatorRequired)
	assert.Zero(t, f.store.transactions)
}

func TestUnitOfWork_WritesOutboxEvents(t *testing.T) {
	f := newFixture(t)
	asn := f.createASN(t, DetailLineCommand{GoodsID: sku, Quantity: 5})
	f.store.outbox = nil

	_, err := f.svc.Inbound.Receive(f.ctx, TransitionCommand{ID: asn.ID, OperatorID: op})
	require.NoError(t, err)

	types := map[string]string{}
	for _, e := range f.store.outbox {
		types[e.EventType] = e.Topic
	}
	assert.Equal(t, kafka.Topics.InboundEvents, types["wms.fulfillment.asn.received"])
	assert.Equal(t, kafka.Topics.InventoryEvents, types["wms.fulfillment.inventory.adjusted"])

	ce, err := f.store.outbox[0].ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, op, ce.OperatorID)
}

func TestSnapshots_CaptureAndList(t *testing.T) {
	f := newFixture(t)
	f.sortASN(t, 10, 8, 2)
	f.putaway(t, "loc-storage", 8)
	f.putaway(t, "loc-damage", 2)

	at := time.Now().UTC().Add(-time.Minute)
	n, err := f.svc.Snapshots.Capture(f.ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := f.svc.Snapshots.List(f.ctx, ListSnapshotsQuery{WarehouseID: wh})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.Snapshots.List(f.ctx, ListSnapshotsQuery{WarehouseID: wh, From: at, To: at.Add(-time.Hour)})
	assert.Error(t, err)
}

func TestToAppError(t *testing.T) {
	assert.Nil(t, toAppError(nil))

	appErr, ok := errors.AsAppError(toAppError(domain.ErrASNNotFound))
	require.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPStatus)
	assert.Equal(t, 20001, appErr.BusinessCode)

	appErr, _ = errors.AsAppError(toAppError(assert.AnError))
	assert.Equal(t, errors.CodeInternalError, appErr.Code)

	original := errors.ErrConflict("x")
	assert.Same(t, original, toAppError(original))
}
