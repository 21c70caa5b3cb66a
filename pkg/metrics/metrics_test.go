package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_BusinessCounters(t *testing.T) {
	m := New(DefaultConfig("fulfillment"))

	m.RecordLedgerOperation("asnReceived", true)
	m.RecordLedgerOperation("asnReceived", true)
	m.RecordLedgerOperation("lock", false)
	m.RecordTransition("asn", "received")
	m.RecordStockMoved("putaway", "operator", 12)
	m.RecordUnitOfWork(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("fulfillment", "asnReceived", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("fulfillment", "lock", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentTransitions.WithLabelValues("fulfillment", "asn", "received")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.StockMovedUnits.WithLabelValues("fulfillment", "putaway", "operator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("fulfillment", "rolled_back")))
}

func TestMetrics_Gauges(t *testing.T) {
	m := New(DefaultConfig("fulfillment"))

	m.SetOutboxPending(7)
	m.SetSnapshotRows(42)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.OutboxPending))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.SnapshotRows))
}
