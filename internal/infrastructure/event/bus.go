// Package event dispatches domain events in process and forwards them to Kafka.
package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// subscription binds a handler to the event types it receives.
// A nil type set means the handler receives every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s *subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// InMemoryEventBus implements EventBus with in-memory pub/sub.
// Handlers run synchronously in the publisher's goroutine, in subscription
// order; a failing or panicking handler never blocks the remaining handlers.
type InMemoryEventBus struct {
	mu      sync.RWMutex
	subs    []*subscription
	logger  *zap.Logger
	running atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	b := &InMemoryEventBus{logger: logger}
	b.running.Store(true)
	return b
}

// Publish dispatches events to every matching handler. Handler failures are logged.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		b.logger.Warn("event bus stopped, dropping events", zap.Int("count", len(events)))
		return nil
	}
	for _, event := range events {
		for _, handler := range b.handlersFor(event.EventType()) {
			if err := dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("handler", fmt.Sprintf("%T", handler)),
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler for eventTypes, falling back to the handler's
// own EventTypes. Subscribing a handler again widens its type set; a wildcard
// subscription absorbs any type list.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.handler == handler })
	if idx < 0 {
		sub := &subscription{handler: handler}
		if len(eventTypes) > 0 {
			sub.types = make(map[string]struct{}, len(eventTypes))
		}
		b.subs = append(b.subs, sub)
		idx = len(b.subs) - 1
	}
	sub := b.subs[idx]
	switch {
	case len(eventTypes) == 0:
		sub.types = nil
	case sub.types != nil:
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}
	b.logger.Debug("handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s *subscription) bool { return s.handler == handler })
}

// Start resumes dispatching
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop stops dispatching; later Publish calls drop their events
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]shared.EventHandler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(eventType) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

func dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
