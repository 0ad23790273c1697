package test

import (
	"context"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// EventRecorder captures published order events.
type EventRecorder struct {
	mu     sync.Mutex
	events []model.OrderEvent
	Err    error
}

// Publish stores the event or returns the configured error.
func (r *EventRecorder) Publish(_ context.Context, event model.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of recorded events.
func (r *EventRecorder) Events() []model.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OrderEvent(nil), r.events...)
}

// Count returns how many events of the given type were recorded.
func (r *EventRecorder) Count(eventType model.OrderEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
