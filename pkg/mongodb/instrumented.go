package mongodb

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// Instrumentation records a span, a metric sample and a debug log per
// collection operation. A nil *Instrumentation is valid and only runs fn.
type Instrumentation struct {
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentation creates collection-operation instrumentation
func NewInstrumentation(m *metrics.Metrics, logger *logging.Logger) *Instrumentation {
	return &Instrumentation{
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Observe runs fn as the named operation on collection
func (i *Instrumentation) Observe(ctx context.Context, collection, operation string, fn func(ctx context.Context) error) error {
	if i == nil {
		return fn(ctx)
	}

	ctx, span := i.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBOperationKey.String(operation),
			attribute.String("db.mongodb.collection", collection),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if i.metrics != nil {
		i.metrics.RecordMongoDBOperation(collection, operation, err == nil, duration)
	}
	if i.logger != nil {
		i.logger.DatabaseQuery(ctx, collection, operation, duration, err == nil)
	}
	return err
}
