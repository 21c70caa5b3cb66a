package application

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/kafka"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/outbox"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// TxRunner runs fn inside one storage transaction. fn must use the context
// it is handed for every repository call.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories groups the stores the services work against
type Repositories struct {
	Inventory     domain.InventoryRepository
	ASNs          domain.ASNRepository
	DNs           domain.DNRepository
	Tasks         domain.TaskRepository
	Deliveries    domain.DeliveryTaskRepository
	StatusLogs    domain.StatusLogRepository
	StockMoves    domain.StockMoveRepository
	LocationStock domain.LocationStockRepository
	Snapshots     domain.SnapshotRepository
	MasterData    domain.MasterData
	Outbox        outbox.Repository
}

// eventSource is implemented by every aggregate that records domain events
type eventSource interface {
	DomainEvents() []domain.DomainEvent
	ClearDomainEvents()
}

// UnitOfWork is the state of one business transaction. It is acquired once
// by the outermost operation and passed down to every nested step; nested
// steps never commit or roll back.
type UnitOfWork struct {
	OperatorID string

	depth  int
	events []domain.DomainEvent
}

// Depth is the number of operations currently sharing this unit of work
func (u *UnitOfWork) Depth() int {
	return u.depth
}

// Collect takes the pending events of a saved aggregate
func (u *UnitOfWork) Collect(src eventSource) {
	u.events = append(u.events, src.DomainEvents()...)
	src.ClearDomainEvents()
}

// Record adds a standalone event
func (u *UnitOfWork) Record(event domain.DomainEvent) {
	u.events = append(u.events, event)
}

// Events returns everything collected so far
func (u *UnitOfWork) Events() []domain.DomainEvent {
	return u.events
}

type unitOfWorkKey struct{}

func unitOfWorkFrom(ctx context.Context) *UnitOfWork {
	uow, _ := ctx.Value(unitOfWorkKey{}).(*UnitOfWork)
	return uow
}

// UnitOfWorkManager opens units of work. The outermost Run commits or rolls
// back everything done by the operations nested inside it.
type UnitOfWorkManager struct {
	tx           TxRunner
	repos        *Repositories
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewUnitOfWorkManager creates a UnitOfWorkManager
func NewUnitOfWorkManager(tx TxRunner, repos *Repositories, eventFactory *cloudevents.EventFactory, logger *logging.Logger, m *metrics.Metrics) *UnitOfWorkManager {
	return &UnitOfWorkManager{
		tx:           tx,
		repos:        repos,
		eventFactory: eventFactory,
		logger:       logger.WithComponent("unit-of-work"),
		metrics:      m,
	}
}

// Run executes fn inside a unit of work. When ctx already carries one, fn
// joins it and the outer Run decides the outcome.
func (m *UnitOfWorkManager) Run(ctx context.Context, operatorID string, fn func(ctx context.Context, uow *UnitOfWork) error) (err error) {
	if uow := unitOfWorkFrom(ctx); uow != nil {
		uow.depth++
		defer func() { uow.depth-- }()
		return fn(ctx, uow)
	}

	if operatorID == "" {
		return domain.ErrOperatorRequired
	}

	ctx, span := tracing.StartSpan(ctx, "fulfillment.unit_of_work", attribute.String("operator.id", operatorID))
	defer func() { tracing.EndSpan(span, err) }()

	var committed *UnitOfWork
	err = m.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		// fn may be retried by the runner; every attempt starts clean
		uow := &UnitOfWork{OperatorID: operatorID, depth: 1}
		txCtx = context.WithValue(txCtx, unitOfWorkKey{}, uow)
		txCtx = logging.ContextWithOperatorID(txCtx, operatorID)

		if err := fn(txCtx, uow); err != nil {
			return err
		}
		if err := m.flush(txCtx, uow); err != nil {
			return err
		}
		committed = uow
		return nil
	})

	if m.metrics != nil {
		m.metrics.RecordUnitOfWork(err == nil)
	}
	if err != nil {
		m.logger.WithContext(ctx).Debug("Unit of work rolled back", "operator_id", operatorID, "error", err)
		return err
	}
	span.SetAttributes(attribute.Int("events.count", len(committed.events)))
	m.afterCommit(ctx, committed)
	return nil
}

// flush writes the status logs and outbox rows derived from the collected
// events inside the still open transaction
func (m *UnitOfWorkManager) flush(ctx context.Context, uow *UnitOfWork) error {
	if len(uow.events) == 0 {
		return nil
	}

	var logs []*domain.StatusLog
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(uow.events))
	for _, event := range uow.events {
		if changed, ok := event.(*domain.StatusChangedEvent); ok {
			logs = append(logs, domain.NewStatusLogFromEvent(changed))
		}
		if m.repos.Outbox == nil {
			continue
		}
		oe, err := m.toOutboxEvent(ctx, uow, event)
		if err != nil {
			return err
		}
		outboxEvents = append(outboxEvents, oe)
	}

	if len(logs) > 0 {
		if err := m.repos.StatusLogs.Append(ctx, logs...); err != nil {
			return fmt.Errorf("failed to append status logs: %w", err)
		}
	}
	if len(outboxEvents) > 0 {
		if err := m.repos.Outbox.SaveAll(ctx, outboxEvents); err != nil {
			return fmt.Errorf("failed to save outbox events: %w", err)
		}
	}
	return nil
}

func (m *UnitOfWorkManager) toOutboxEvent(ctx context.Context, uow *UnitOfWork, event domain.DomainEvent) (*outbox.OutboxEvent, error) {
	aggregateType, topic := routeEvent(event)
	ce := m.eventFactory.CreateEvent(ctx, event.EventType(), aggregateType+"/"+event.AggregateID(), event)
	ce.Time = event.OccurredAt()
	ce.OperatorID = uow.OperatorID
	ce.WarehouseID = warehouseOf(event)

	oe, err := outbox.NewOutboxEventFromCloudEvent(event.AggregateID(), aggregateType, topic, ce)
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox event %s: %w", event.EventType(), err)
	}
	return oe, nil
}

func (m *UnitOfWorkManager) afterCommit(ctx context.Context, uow *UnitOfWork) {
	for _, event := range uow.events {
		if e, ok := event.(*domain.StatusChangedEvent); ok {
			m.logger.Audit(ctx, "transition", string(e.EntityType), e.EntityID, e.OperatorID, map[string]any{
				"from": e.FromStatus,
				"to":   e.ToStatus,
			})
		}
	}
	if m.metrics == nil {
		return
	}
	for _, event := range uow.events {
		switch e := event.(type) {
		case *domain.StatusChangedEvent:
			m.metrics.RecordTransition(string(e.EntityType), e.ToStatus)
		case *domain.InventoryAdjustedEvent:
			m.metrics.RecordLedgerOperation(e.Operation, true)
		case *domain.StockMovedEvent:
			m.metrics.RecordStockMoved(e.Kind, e.Reason, e.Quantity)
		}
	}
}

// routeEvent picks the aggregate type and Kafka topic of an event
func routeEvent(event domain.DomainEvent) (string, string) {
	switch e := event.(type) {
	case *domain.StatusChangedEvent:
		switch e.EntityType {
		case domain.EntityASN, domain.EntitySortingTask:
			return string(e.EntityType), kafka.Topics.InboundEvents
		default:
			return string(e.EntityType), kafka.Topics.OutboundEvents
		}
	case *domain.StockMovedEvent:
		return "stock_move", kafka.Topics.InventoryEvents
	default:
		name := strings.TrimPrefix(event.EventType(), "wms.fulfillment.")
		if i := strings.Index(name, "."); i > 0 {
			name = name[:i]
		}
		return name, kafka.Topics.InventoryEvents
	}
}

func warehouseOf(event domain.DomainEvent) string {
	switch e := event.(type) {
	case *domain.InventoryAdjustedEvent:
		return e.WarehouseID
	case *domain.StockThresholdCrossedEvent:
		return e.WarehouseID
	case *domain.StockMovedEvent:
		return e.WarehouseID
	}
	return ""
}
