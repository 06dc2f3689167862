// eventsink.go provides an in-memory implementation of EventSink.
//
// This adapter stores all published answer events in memory for testing and
// local runs. It provides helper methods for inspecting events during tests:
//   - GetEvents(): Returns all published events
//   - GetEventsForDestination(): Events for one answer account
//   - OnPublish(): Register callback for event assertions
//
// All operations are thread-safe. For production, use the SNS adapter.
package memory

import (
	"context"
	"sync"

	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.EventSink
var _ outbound.EventSink = (*EventSink)(nil)

// EventSink is an in-memory implementation of the EventSink port.
type EventSink struct {
	mu     sync.RWMutex
	events []outbound.AnswerUpdatedEvent
	closed bool

	onPublish func(outbound.AnswerUpdatedEvent)
}

// NewEventSink creates a new in-memory event sink.
func NewEventSink() *EventSink {
	return &EventSink{
		events: make([]outbound.AnswerUpdatedEvent, 0),
	}
}

// Publish stores the event in memory.
func (s *EventSink) Publish(ctx context.Context, event outbound.AnswerUpdatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.events = append(s.events, event)

	if s.onPublish != nil {
		s.onPublish(event)
	}

	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// GetEvents returns all published events.
func (s *EventSink) GetEvents() []outbound.AnswerUpdatedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.AnswerUpdatedEvent, len(s.events))
	copy(result, s.events)
	return result
}

// GetEventsForDestination returns the events published for one answer account.
func (s *EventSink) GetEventsForDestination(destination string) []outbound.AnswerUpdatedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.AnswerUpdatedEvent, 0)
	for _, e := range s.events {
		if e.Destination == destination {
			result = append(result, e)
		}
	}
	return result
}

// OnPublish sets a callback to be called when an event is published.
func (s *EventSink) OnPublish(fn func(outbound.AnswerUpdatedEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPublish = fn
}
