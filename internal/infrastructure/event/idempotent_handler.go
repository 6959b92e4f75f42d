package event

import (
	"context"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Delivery outcomes reported by IdempotentHandler
const (
	OutcomeHandled   = "handled"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// DefaultIdempotencyTTL is how long a delivered event is remembered. The
// outbox gives up on an entry well before that.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotentHandler passes an outbox event to the wrapped handler once.
// Keys are "<name>:<event id>", so a redelivery caused by one failing
// handler does not repeat the work of the others.
type IdempotentHandler struct {
	name       string
	handler    shared.EventHandler
	store      shared.IdempotencyStore
	ttl        time.Duration
	logger     *zap.Logger
	deliveries metric.Int64Counter
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithHandlerName sets the name used in keys, logs and metrics
func WithHandlerName(name string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.name = name
	}
}

// WithIdempotencyTTL overrides DefaultIdempotencyTTL
func WithIdempotencyTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithDeliveryMeter counts deliveries per handler and outcome on
// event_handler_deliveries_total
func WithDeliveryMeter(meter metric.Meter) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		counter, err := meter.Int64Counter("event_handler_deliveries_total",
			metric.WithDescription("Outbox events passed to a handler, by outcome"),
			metric.WithUnit("{event}"))
		if err != nil {
			h.logger.Warn("Delivery counter unavailable", zap.Error(err))
			return
		}
		h.deliveries = counter
	}
}

// NewIdempotentHandler wraps handler. Without WithHandlerName the Go type
// of handler names the keys.
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		name:       fmt.Sprintf("%T", handler),
		handler:    handler,
		store:      store,
		ttl:        DefaultIdempotencyTTL,
		logger:     logger,
		deliveries: noop.Int64Counter{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("handler", h.name))
	return h
}

// EventTypes returns the event types of the wrapped handler
// Name identifies the wrapped handler in keys, logs and spans
func (h *IdempotentHandler) Name() string { return h.name }

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled.
// A store failure does not block delivery. A handler failure releases the
// key so the outbox retry gets through.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.key(event)
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	}

	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency check failed, delivering anyway", append(fields, zap.Error(err))...)
	case !fresh:
		h.logger.Debug("Skipping already handled event", fields...)
		h.count(ctx, event, OutcomeDuplicate)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.logger.Error("Event handler failed", append(fields, zap.Error(err))...)
		h.count(ctx, event, OutcomeFailed)
		if ferr := h.store.Forget(ctx, key); ferr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(ferr))
		}
		return err
	}

	h.count(ctx, event, OutcomeHandled)
	return nil
}

func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	return h.name + ":" + event.EventID().String()
}

func (h *IdempotentHandler) count(ctx context.Context, event shared.DomainEvent, outcome string) {
	h.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", h.name),
		attribute.String("event_type", event.EventType()),
		attribute.String("outcome", outcome),
	))
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
