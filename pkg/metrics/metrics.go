package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka and outbox
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge
	OutboxRetries        *prometheus.CounterVec

	// MongoDB
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	TransactionsTotal        *prometheus.CounterVec

	// Temporal
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Business
	LedgerOperations    *prometheus.CounterVec
	DocumentTransitions *prometheus.CounterVec
	StockMovedUnits     *prometheus.CounterVec
	SnapshotRows        prometheus.Gauge

	// Circuit breaker
	CircuitBreakerState *prometheus.GaugeVec

	// Idempotency
	IdempotencyRequests *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance with its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests",
	}, []string{"service", "method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"service", "method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "http_requests_in_flight", Help: "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.KafkaEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published",
	}, []string{"service", "topic", "event_type", "status"})

	m.KafkaPublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "kafka_publish_duration_seconds", Help: "Kafka publish duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"service", "topic"})

	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "outbox_pending_events", Help: "Unpublished events seen by the last outbox poll",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.OutboxRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "outbox_retries_total", Help: "Total number of outbox publish retries",
	}, []string{"service", "event_type"})

	m.MongoDBOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations",
	}, []string{"service", "collection", "operation", "status"})

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "mongodb_operation_duration_seconds", Help: "MongoDB operation duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"service", "collection", "operation"})

	m.TransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "unit_of_work_total", Help: "Outermost units of work by outcome",
	}, []string{"service", "outcome"})

	m.ActivitiesCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "temporal_activities_completed_total", Help: "Total number of Temporal activities completed",
	}, []string{"service", "activity_type", "status"})

	m.ActivityDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "temporal_activity_duration_seconds", Help: "Temporal activity duration in seconds",
		Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
	}, []string{"service", "activity_type"})

	m.LedgerOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "ledger_operations_total", Help: "Inventory ledger operations by outcome",
	}, []string{"service", "operation", "status"})

	m.DocumentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "document_transitions_total", Help: "Status transitions of documents and tasks",
	}, []string{"service", "entity", "to_status"})

	m.StockMovedUnits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "stock_moved_units_total", Help: "Units moved by putaway and removal records",
	}, []string{"service", "kind", "reason"})

	m.SnapshotRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "location_snapshot_rows", Help: "Rows written by the last location snapshot",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"service", "name"})

	m.IdempotencyRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "idempotency_requests_total", Help: "Keyed mutating requests by idempotency outcome",
	}, []string{"service", "method", "path", "outcome"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.OutboxPending,
		m.OutboxRetries,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.TransactionsTotal,
		m.ActivitiesCompleted,
		m.ActivityDuration,
		m.LedgerOperations,
		m.DocumentTransitions,
		m.StockMovedUnits,
		m.SnapshotRows,
		m.CircuitBreakerState,
		m.IdempotencyRequests,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of pending outbox events
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxRetry records a failed outbox publish that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordUnitOfWork records the outcome of an outermost unit of work
func (m *Metrics) RecordUnitOfWork(committed bool) {
	outcome := "committed"
	if !committed {
		outcome = "rolled_back"
	}
	m.TransactionsTotal.WithLabelValues(m.serviceName, outcome).Inc()
}


// RecordActivityCompleted records an activity completion
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, status(success)).Inc()
	m.ActivityDuration.WithLabelValues(m.serviceName, activityType).Observe(duration.Seconds())
}

// RecordLedgerOperation records an inventory ledger mutation
func (m *Metrics) RecordLedgerOperation(operation string, success bool) {
	m.LedgerOperations.WithLabelValues(m.serviceName, operation, status(success)).Inc()
}

// RecordTransition records a document or task status transition
func (m *Metrics) RecordTransition(entity, toStatus string) {
	m.DocumentTransitions.WithLabelValues(m.serviceName, entity, toStatus).Inc()
}

// RecordStockMoved records units moved by a putaway or removal
func (m *Metrics) RecordStockMoved(kind, reason string, quantity int64) {
	m.StockMovedUnits.WithLabelValues(m.serviceName, kind, reason).Add(float64(quantity))
}

// SetSnapshotRows sets the row count of the latest snapshot
func (m *Metrics) SetSnapshotRows(count int) {
	m.SnapshotRows.Set(float64(count))
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordIdempotency records how a keyed request was served: hit, miss,
// mismatch, conflict or storage_error
func (m *Metrics) RecordIdempotency(method, path, outcome string) {
	m.IdempotencyRequests.WithLabelValues(m.serviceName, method, path, outcome).Inc()
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
