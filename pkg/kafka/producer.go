package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
)

// MessageWriter is the subset of kafka.Writer the producer needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes CloudEvents to Kafka, one writer per topic,
// guarded by a circuit breaker.
type Producer struct {
	config    *Config
	logger    *logging.Logger
	metrics   *metrics.Metrics
	breaker   *resilience.CircuitBreaker
	newWriter func(topic string) MessageWriter

	mu      sync.Mutex
	writers map[string]MessageWriter
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config, logger *logging.Logger, m *metrics.Metrics) *Producer {
	p := &Producer{
		config:  config,
		logger:  logger,
		metrics: m,
		writers: make(map[string]MessageWriter),
	}
	p.newWriter = p.kafkaWriter

	cbConfig := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	if m != nil {
		cbConfig.OnStateChange = m.SetCircuitBreakerState
	}
	p.breaker = resilience.NewCircuitBreaker(cbConfig, logger.Logger)
	return p
}

func (p *Producer) kafkaWriter(topic string) MessageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		WriteTimeout: p.config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Transport:    &kafka.Transport{ClientID: p.config.ClientID},
	}
}

func (p *Producer) writer(topic string) MessageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// ToMessage converts a CloudEvent into a binary-mode Kafka message
func ToMessage(event *cloudevents.WMSCloudEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
			{Key: "ce-type", Value: []byte(event.Type)},
			{Key: "ce-source", Value: []byte(event.Source)},
			{Key: "ce-id", Value: []byte(event.ID)},
			{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte(event.DataContentType)},
		},
		Time: event.Time,
	}

	extensions := []struct{ key, value string }{
		{"ce-wmscorrelationid", event.CorrelationID},
		{"ce-wmswarehouseid", event.WarehouseID},
		{"ce-wmsoperatorid", event.OperatorID},
	}
	for _, ext := range extensions {
		if ext.value != "" {
			msg.Headers = append(msg.Headers, kafka.Header{Key: ext.key, Value: []byte(ext.value)})
		}
	}
	return msg, nil
}

// PublishEvent publishes a CloudEvent to the given topic
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	msg, err := ToMessage(event)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.breaker.Execute(ctx, func() error {
		return p.writer(topic).WriteMessages(ctx, msg)
	})
	duration := time.Since(start)

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, duration)
	}
	p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, duration)

	if err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer for topic %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}
