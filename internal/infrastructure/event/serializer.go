package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/dpnk/backend/internal/domain/shared"
)

// ErrUnregisteredEvent is returned for event types the serializer does not
// know. Publishing such an event fails instead of leaving an outbox entry
// that can never be delivered.
var ErrUnregisteredEvent = errors.New("event type not registered")

// EventSerializer maps event type names to Go types for the outbox
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// RegisterType stores events of eventType as *T
func RegisterType[T any, PT interface {
	*T
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[eventType] = reflect.TypeFor[T]()
}

func (s *EventSerializer) lookup(eventType string) (reflect.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEvent, eventType)
	}
	return t, nil
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if _, err := s.lookup(event.EventType()); err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes a payload stored under eventType. A payload whose own
// type field disagrees with eventType is rejected.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	t, err := s.lookup(eventType)
	if err != nil {
		return nil, err
	}
	event := reflect.New(t).Interface().(shared.DomainEvent)
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	if got := event.EventType(); got != eventType {
		return nil, fmt.Errorf("decode %s: payload is a %q event", eventType, got)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	_, err := s.lookup(eventType)
	return err == nil
}

// RegisteredTypes lists the known event types in name order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.types))
}
