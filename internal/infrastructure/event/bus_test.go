package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, campaignID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, trip.AggregateTypeTrip, uuid.New(), campaignID),
		Data:            "7.5 km to work",
	}
}

// testHandler records what it receives and fails with err when set
type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("nil team") }
func (panickingHandler) EventTypes() []string                             { return []string{trip.EventTypeTripSaved} }

func TestInMemoryEventBus_Routing(t *testing.T) {
	saved := newTestEvent(trip.EventTypeTripSaved, uuid.New())
	deleted := newTestEvent(trip.EventTypeTripDeleted, uuid.New())

	tests := []struct {
		name      string
		subscribe []string
		own       []string
		publish   []shared.DomainEvent
		want      int
	}{
		{"explicit type", []string{trip.EventTypeTripSaved}, nil, []shared.DomainEvent{saved}, 1},
		{"several events", []string{trip.EventTypeTripSaved}, nil, []shared.DomainEvent{saved, deleted, saved}, 2},
		{"own event types", nil, []string{trip.EventTypeTripDeleted}, []shared.DomainEvent{saved, deleted}, 1},
		{"wildcard", nil, nil, []shared.DomainEvent{saved, deleted}, 2},
		{"no match", []string{"PaymentReceived"}, nil, []shared.DomainEvent{saved}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			h := newTestHandler(tt.own...)
			bus.Subscribe(h, tt.subscribe...)

			require.NoError(t, bus.Publish(context.Background(), tt.publish...))
			assert.Len(t, h.getHandled(), tt.want)
		})
	}
}

func TestInMemoryEventBus_FailuresDoNotStopOtherHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	storeDown := errors.New("results store unavailable")

	failing := newTestHandler(trip.EventTypeTripSaved)
	failing.setError(storeDown)
	after := newTestHandler(trip.EventTypeTripSaved)
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), newTestEvent(trip.EventTypeTripSaved, uuid.New()))

	require.Error(t, err)
	assert.ErrorIs(t, err, storeDown)
	assert.Contains(t, err.Error(), "panicked")
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, after.getHandled(), 1)
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	h := newTestHandler(trip.EventTypeTripSaved)
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(ctx, newTestEvent(trip.EventTypeTripSaved, uuid.New())))

	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(ctx, newTestEvent(trip.EventTypeTripSaved, uuid.New())))
	assert.Len(t, h.getHandled(), 1)

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent(trip.EventTypeTripSaved, uuid.New())), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent(trip.EventTypeTripSaved, uuid.New())))
}

func TestInMemoryEventBus_ErrorNamesHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler(trip.EventTypeTripSaved)
	h.setError(errors.New("queue full"))
	dedup, _, _ := newDedupHandler(t, h, "results.dirty_marker")
	bus.Subscribe(dedup)

	err := bus.Publish(context.Background(), newTestEvent(trip.EventTypeTripSaved, uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "results.dirty_marker on "+trip.EventTypeTripSaved)
	assert.Equal(t, "*event.panickingHandler", handlerName(&panickingHandler{}))
}
