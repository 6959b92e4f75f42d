package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dpnk/backend/internal/domain/shared"
)

// subscription routes events to one handler. A nil types set matches
// every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]bool
}

func (s subscription) matches(eventType string) bool {
	return s.types == nil || s.types[eventType]
}

// handlerRegistry keeps subscriptions in registration order. Writers
// replace the whole list, so Publish reads it without locking.
type handlerRegistry struct {
	mu   sync.Mutex
	subs atomic.Pointer[[]subscription]
}

func newHandlerRegistry() *handlerRegistry {
	r := &handlerRegistry{}
	r.subs.Store(&[]subscription{})
	return r
}

func (r *handlerRegistry) snapshot() []subscription {
	return *r.subs.Load()
}

// add subscribes handler to eventTypes, or to every event when none are
// given. Adding a subscribed handler again widens its types.
func (r *handlerRegistry) add(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := slices.Clone(r.snapshot())
	i := slices.IndexFunc(subs, func(s subscription) bool { return s.handler == handler })
	if i < 0 {
		subs = append(subs, subscription{handler: handler, types: map[string]bool{}})
		i = len(subs) - 1
	}

	switch {
	case len(eventTypes) == 0:
		subs[i].types = nil
	case subs[i].types != nil:
		types := make(map[string]bool, len(subs[i].types)+len(eventTypes))
		for t := range subs[i].types {
			types[t] = true
		}
		for _, t := range eventTypes {
			types[t] = true
		}
		subs[i].types = types
	}
	r.subs.Store(&subs)
}

func (r *handlerRegistry) remove(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := slices.DeleteFunc(slices.Clone(r.snapshot()), func(s subscription) bool { return s.handler == handler })
	r.subs.Store(&subs)
}

// handlersFor returns the handlers subscribed to eventType
func (r *handlerRegistry) handlersFor(eventType string) []shared.EventHandler {
	var out []shared.EventHandler
	for _, s := range r.snapshot() {
		if s.matches(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

func (r *handlerRegistry) handlers() []shared.EventHandler {
	subs := r.snapshot()
	out := make([]shared.EventHandler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}
