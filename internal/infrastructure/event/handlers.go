package event

import (
	"context"

	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LoggingHandler writes one structured log line per event
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs event
func (h *LoggingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// EventTypes returns nil: every event is logged
func (h *LoggingHandler) EventTypes() []string { return nil }

// MetricsHandler turns domain events into Prometheus business metrics
type MetricsHandler struct {
	metrics *telemetry.Metrics
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(metrics *telemetry.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handle records counters for event
func (h *MetricsHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.metrics.RecordDomainEvent(event.EventType())
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		h.metrics.RecordOrderPlaced(e.Total, e.CouponCode != "")
	case *order.OrderStatusChangedEvent:
		h.metrics.RecordOrderStatusChange(string(e.OldStatus), string(e.NewStatus))
	case *identity.UserRegisteredEvent:
		h.metrics.RecordUserRegistered(string(e.Role))
	}
	return nil
}

// EventTypes returns nil: every event is counted
func (h *MetricsHandler) EventTypes() []string { return nil }

var (
	_ shared.EventHandler = (*LoggingHandler)(nil)
	_ shared.EventHandler = (*MetricsHandler)(nil)
)
