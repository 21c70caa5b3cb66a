package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestASN(t *testing.T) *ASN {
	t.Helper()
	asn, err := NewASN("wh-1", "sup-1", "", "op-1", []DetailLine{
		{GoodsID: "g-1", Quantity: 1000},
		{GoodsID: "g-2", Quantity: 5},
	})
	require.NoError(t, err)
	return asn
}

func newTestDN(t *testing.T) *DN {
	t.Helper()
	dn, err := NewDN("wh-1", "cust-1", "", "op-1", []DetailLine{
		{GoodsID: "g-1", Quantity: 10},
	})
	require.NoError(t, err)
	return dn
}

func TestNewASN(t *testing.T) {
	asn := newTestASN(t)

	assert.Equal(t, ASNStatusPending, asn.Status)
	assert.Contains(t, asn.Code, "ASN-")
	assert.Len(t, asn.Details, 2)
	assert.Equal(t, []string{"g-1", "g-2"}, asn.GoodsIDs())
}

func TestNewASN_Validation(t *testing.T) {
	_, err := NewASN("wh-1", "", "", "", nil)
	assert.ErrorIs(t, err, ErrOperatorRequired)

	_, err = NewASN("wh-1", "", "", "op", []DetailLine{{GoodsID: "g", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewASN("wh-1", "", "", "op", []DetailLine{{GoodsID: "g", Quantity: 1}, {GoodsID: "g", Quantity: 2}})
	assert.ErrorIs(t, err, ErrASNDuplicateGoods)
}

func TestASN_StatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ASNStatus
		allowed  bool
	}{
		{ASNStatusPending, ASNStatusReceived, true},
		{ASNStatusPending, ASNStatusClosed, true},
		{ASNStatusReceived, ASNStatusCompleted, true},
		{ASNStatusPending, ASNStatusCompleted, false},
		{ASNStatusReceived, ASNStatusClosed, false},
		{ASNStatusCompleted, ASNStatusPending, false},
		{ASNStatusClosed, ASNStatusReceived, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestASN_ReceiveCompleteLifecycle(t *testing.T) {
	asn := newTestASN(t)

	require.NoError(t, asn.Receive("op-2"))
	assert.Equal(t, ASNStatusReceived, asn.Status)
	assert.NotNil(t, asn.ReceivedAt)

	require.NoError(t, asn.Complete(map[string]TaskTally{"g-1": {Quantity: 990, Damage: 10}}, "op-2"))
	assert.Equal(t, ASNStatusCompleted, asn.Status)
	assert.Equal(t, int64(990), asn.Details[0].SortedQuantity)
	assert.Equal(t, int64(10), asn.Details[0].DamageQuantity)
	assert.Equal(t, int64(1000), asn.Details[0].ActualQuantity)
	assert.Zero(t, asn.Details[1].ActualQuantity)

	events := asn.DomainEvents()
	require.Len(t, events, 2)
	changed := events[1].(*StatusChangedEvent)
	assert.Equal(t, "received", changed.FromStatus)
	assert.Equal(t, "completed", changed.ToStatus)
	assert.Equal(t, "wms.fulfillment.asn.completed", changed.EventType())
}

func TestASN_EditingOnlyWhilePending(t *testing.T) {
	asn := newTestASN(t)
	require.NoError(t, asn.Receive("op"))

	assert.ErrorIs(t, asn.UpdateHeader("s", "r", "op"), ErrASNNotEditable)
	_, err := asn.AddDetail(DetailLine{GoodsID: "g-3", Quantity: 1}, "op")
	assert.ErrorIs(t, err, ErrASNNotEditable)
	_, err = asn.UpdateDetail(asn.Details[0].ID, 3, "op")
	assert.ErrorIs(t, err, ErrASNNotEditable)
	_, err = asn.RemoveDetail(asn.Details[0].ID, "op")
	assert.ErrorIs(t, err, ErrASNNotEditable)
	_, err = asn.SyncDetails(nil, "op")
	assert.ErrorIs(t, err, ErrASNNotEditable)
	assert.ErrorIs(t, asn.Close("op"), ErrASNInvalidTransition)
}

func TestASN_DetailEdits(t *testing.T) {
	asn := newTestASN(t)

	_, err := asn.AddDetail(DetailLine{GoodsID: "g-1", Quantity: 1}, "op")
	assert.ErrorIs(t, err, ErrASNDuplicateGoods)

	added, err := asn.AddDetail(DetailLine{GoodsID: "g-3", Quantity: 7}, "op")
	require.NoError(t, err)

	goodsID, err := asn.UpdateDetail(added.ID, 8, "op")
	require.NoError(t, err)
	assert.Equal(t, "g-3", goodsID)

	goodsID, err = asn.RemoveDetail(asn.Details[0].ID, "op")
	require.NoError(t, err)
	assert.Equal(t, "g-1", goodsID)
	assert.Equal(t, []string{"g-2", "g-3"}, asn.GoodsIDs())

	_, err = asn.RemoveDetail("missing", "op")
	assert.ErrorIs(t, err, ErrASNDetailNotFound)
}

func TestASN_SyncDetails(t *testing.T) {
	asn := newTestASN(t)
	keptID := asn.Details[1].ID

	affected, err := asn.SyncDetails([]DetailLine{{GoodsID: "g-2", Quantity: 9}, {GoodsID: "g-4", Quantity: 1}}, "op")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"g-1", "g-2", "g-4"}, affected)
	assert.Equal(t, keptID, asn.Details[0].ID)
	assert.Equal(t, int64(9), asn.Details[0].Quantity)
}

func TestASN_ReceiveRequiresDetails(t *testing.T) {
	asn, err := NewASN("wh-1", "", "", "op", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, asn.Receive("op"), ErrASNNoDetails)
	assert.Equal(t, ASNStatusPending, asn.Status)
}

func TestDN_FullLifecycle(t *testing.T) {
	dn := newTestDN(t)

	require.NoError(t, dn.Progress("op"))
	require.NoError(t, dn.Pick(map[string]int64{"g-1": 10}, "op"))
	require.NoError(t, dn.Pack(map[string]int64{"g-1": 5}, "op"))
	require.NoError(t, dn.Deliver(true, "op"))
	require.NoError(t, dn.Complete("op"))

	assert.Equal(t, DNStatusCompleted, dn.Status)
	line := dn.Details[0]
	assert.Equal(t, int64(10), line.PickedQuantity)
	assert.Equal(t, int64(5), line.PackedQuantity)
	assert.Equal(t, int64(5), line.DeliveredQuantity)
	assert.Len(t, dn.DomainEvents(), 5)
}

func TestDN_InvalidTransitionsFromPicked(t *testing.T) {
	dn := newTestDN(t)
	require.NoError(t, dn.Progress("op"))
	require.NoError(t, dn.Pick(map[string]int64{"g-1": 10}, "op"))

	err := dn.Close("op")
	assert.ErrorIs(t, err, ErrDNInvalidTransition)
	assert.Equal(t, 30003, CodeOf(err))

	assert.ErrorIs(t, dn.Pick(map[string]int64{"g-1": 10}, "op"), ErrDNInvalidTransition)
	assert.Equal(t, DNStatusPicked, dn.Status)
}

func TestDN_QuantityInvariants(t *testing.T) {
	dn := newTestDN(t)
	require.NoError(t, dn.Progress("op"))

	assert.ErrorIs(t, dn.Pick(map[string]int64{"g-1": 11}, "op"), ErrDNPickedExceedsQuantity)
	assert.Equal(t, DNStatusInProgress, dn.Status)
	assert.Zero(t, dn.Details[0].PickedQuantity)

	require.NoError(t, dn.Pick(map[string]int64{"g-1": 6}, "op"))
	assert.ErrorIs(t, dn.Pack(map[string]int64{"g-1": 7}, "op"), ErrDNPackedExceedsPicked)
	assert.Zero(t, dn.Details[0].PackedQuantity)
}

func TestDN_DeliverBeforeDeliveryFinished(t *testing.T) {
	dn := newTestDN(t)
	require.NoError(t, dn.Progress("op"))
	require.NoError(t, dn.Pick(map[string]int64{"g-1": 10}, "op"))
	require.NoError(t, dn.Pack(map[string]int64{"g-1": 10}, "op"))

	require.NoError(t, dn.Deliver(false, "op"))

	assert.Zero(t, dn.Details[0].DeliveredQuantity)
}

func TestDN_SyncRejectsDuplicateGoods(t *testing.T) {
	dn := newTestDN(t)
	before := dn.Details

	_, err := dn.SyncDetails([]DetailLine{{GoodsID: "g-5", Quantity: 1}, {GoodsID: "g-5", Quantity: 2}}, "op")

	assert.ErrorIs(t, err, ErrDNDuplicateGoods)
	assert.Equal(t, before, dn.Details)
}

func TestDN_EditingOnlyWhilePending(t *testing.T) {
	dn := newTestDN(t)
	require.NoError(t, dn.Progress("op"))

	assert.ErrorIs(t, dn.UpdateHeader("c", "r", "op"), ErrDNNotEditable)
	_, err := dn.AddDetail(DetailLine{GoodsID: "g-2", Quantity: 1}, "op")
	assert.ErrorIs(t, err, ErrDNNotEditable)
	_, err = dn.SyncDetails([]DetailLine{{GoodsID: "g-2", Quantity: 1}}, "op")
	assert.ErrorIs(t, err, ErrDNNotEditable)
}

func TestDNStatus_IsOutstanding(t *testing.T) {
	assert.True(t, DNStatusPending.IsOutstanding())
	assert.True(t, DNStatusInProgress.IsOutstanding())
	assert.False(t, DNStatusPicked.IsOutstanding())
	assert.False(t, DNStatusClosed.IsOutstanding())
}

func TestGenerateCode(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	code := GenerateCode("ASN", at)

	assert.True(t, strings.HasPrefix(code, "ASN-20260101120000-"), code)
	assert.Len(t, code, len("ASN-20260101120000-")+4)
	assert.NotEqual(t, code, GenerateCode("ASN", at))
}

func TestValidateLines(t *testing.T) {
	assert.NoError(t, validateLines([]DetailLine{{GoodsID: "g-1", Quantity: 1}, {GoodsID: "g-2", Quantity: 2}}, ErrDNDuplicateGoods))
	assert.ErrorIs(t, validateLines([]DetailLine{{GoodsID: "g-1", Quantity: 0}}, ErrDNDuplicateGoods), ErrInvalidQuantity)
	assert.ErrorIs(t, validateLines([]DetailLine{{GoodsID: "", Quantity: 1}}, ErrDNDuplicateGoods), ErrInvalidQuantity)
	assert.ErrorIs(t, validateLines([]DetailLine{{GoodsID: "g-1", Quantity: 1}, {GoodsID: "g-1", Quantity: 2}}, ErrDNDuplicateGoods), ErrDNDuplicateGoods)
}

func TestUnionGoods(t *testing.T) {
	assert.Equal(t, []string{"g-1", "g-2", "g-3"}, unionGoods([]string{"g-1", "g-2"}, []string{"g-2", "g-3"}))
	assert.Empty(t, unionGoods(nil, nil))
	assert.ErrorIs(t, requireOperator(""), ErrOperatorRequired)
	assert.NoError(t, requireOperator("op-1"))
}
