package event

import (
	"context"
	"fmt"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards every domain event to a Kafka topic as a JSON
// envelope keyed by aggregate id, so one aggregate's events stay ordered.
// It subscribes to the bus as a wildcard handler.
type KafkaPublisher struct {
	writer  MessageWriter
	logger  *zap.Logger
	onError func(eventType string)
}

// KafkaPublisherOption configures a KafkaPublisher
type KafkaPublisherOption func(*KafkaPublisher)

// WithErrorHook is called with the event type of every failed write
func WithErrorHook(fn func(eventType string)) KafkaPublisherOption {
	return func(p *KafkaPublisher) {
		p.onError = fn
	}
}

// NewKafkaWriter builds an asynchronous writer for cfg. Delivery failures are
// reported through the completion callback.
func NewKafkaWriter(cfg config.EventConfig, logger *zap.Logger, onError func(eventType string)) *kafka.Writer {
	batchTimeout := cfg.KafkaBatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}
	maxAttempts := cfg.KafkaMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            maxAttempts,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				eventType := headerValue(m.Headers, "event_type")
				logger.Error("failed to deliver event to kafka",
					zap.String("event_type", eventType),
					zap.ByteString("key", m.Key),
					zap.Error(err),
				)
				if onError != nil {
					onError(eventType)
				}
			}
		},
	}
}

// NewKafkaPublisher wraps writer
func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger, opts ...KafkaPublisherOption) *KafkaPublisher {
	p := &KafkaPublisher{writer: writer, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle writes event to the topic
func (p *KafkaPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if p.onError != nil {
			p.onError(event.EventType())
		}
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

// EventTypes returns nil: the publisher receives every event
func (p *KafkaPublisher) EventTypes() []string {
	return nil
}

// Close flushes pending messages and releases the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event shared.DomainEvent) (kafka.Message, error) {
	env, err := NewEnvelope(event)
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := jsonMarshal(env)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(env.AggregateID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "aggregate_type", Value: []byte(env.AggregateType)},
		},
	}, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

var _ shared.EventHandler = (*KafkaPublisher)(nil)
