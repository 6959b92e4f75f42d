package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish once Stop has been called. The
// outbox keeps such entries pending, so they are delivered after restart.
var ErrBusStopped = errors.New("event bus stopped")

// namedHandler is implemented by handlers that want a stable name in logs
// and spans instead of their Go type
type namedHandler interface {
	Name() string
}

func handlerName(h shared.EventHandler) string {
	if n, ok := h.(namedHandler); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", h)
}

// InMemoryEventBus runs the handlers registered in this process
// synchronously. Events reach it through the outbox processor, so a handler
// error leaves the outbox entry for a later attempt.
type InMemoryEventBus struct {
	registry *handlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
}

func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: newHandlerRegistry(),
		logger:   logger.Named("events"),
	}
}

// Publish hands each event to all of its handlers. One failing handler does
// not keep the others from running; the failures are joined.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	var errs []error
	for _, event := range events {
		for _, handler := range b.registry.handlersFor(event.EventType()) {
			if err := b.deliver(ctx, handler, event); err != nil {
				errs = append(errs, fmt.Errorf("%s on %s: %w", handlerName(handler), event.EventType(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventTypes, falling back to the types the
// handler declares itself
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.add(handler, eventTypes...)
	b.logger.Debug("Handler subscribed",
		zap.String("handler", handlerName(handler)),
		zap.Strings("event_types", eventTypes),
	)
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.remove(handler)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	handlers := b.registry.handlers()
	names := make([]string, 0, len(handlers))
	for _, h := range handlers {
		names = append(names, handlerName(h))
	}
	b.logger.Info("Event bus started", zap.Strings("handlers", names))
	return nil
}

// Stop makes later Publish calls fail with ErrBusStopped
func (b *InMemoryEventBus) Stop(context.Context) error {
	if b.stopped.Swap(true) {
		return nil
	}
	b.logger.Info("Event bus stopped")
	return nil
}

// deliver runs one handler inside its own span and turns a panic into an
// error
func (b *InMemoryEventBus) deliver(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	name := handlerName(handler)
	ctx, span := telemetry.StartSpan(ctx, "event.handle",
		attribute.String("event.type", event.EventType()),
		attribute.String("event.id", event.EventID().String()),
		attribute.String("event.handler", name),
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			b.logger.Error("Handler failed",
				zap.String("handler", name),
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
		span.End()
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
