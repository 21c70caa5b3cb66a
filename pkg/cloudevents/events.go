package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sources
const (
	SourceFulfillment = "/wms/fulfillment-service"
	SourceSnapshot    = "/wms/fulfillment-service/snapshot"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	OperatorID    string `json:"wmsoperatorid,omitempty"`
}

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// Source returns the configured source
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
	if correlationID, ok := ctx.Value(correlationKey{}).(string); ok {
		event.CorrelationID = correlationID
	}
	return event
}

type correlationKey struct{}

// ContextWithCorrelationID makes CreateEvent stamp the given correlation id
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}
