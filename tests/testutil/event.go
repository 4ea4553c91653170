// Package testutil holds helpers shared by the integration suite: an event
// recorder, an authenticated API client and polling assertions.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rafcin/openship/internal/domain/shared"
)

// MockEventHandler records every event it is given
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler creates a handler subscribed to eventTypes
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records event
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the recorded events
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]shared.DomainEvent, len(h.handled))
	copy(result, h.handled)
	return result
}

// HandledTypes returns the type of every recorded event, in order
func (h *MockEventHandler) HandledTypes() []string {
	events := h.Handled()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// CountOf returns how many events of eventType were recorded
func (h *MockEventHandler) CountOf(eventType string) int {
	n := 0
	for _, t := range h.HandledTypes() {
		if t == eventType {
			n++
		}
	}
	return n
}

// SetError sets the error to return from Handle
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears the recorded events
func (h *MockEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = make([]shared.DomainEvent, 0)
	h.err = nil
}

// WaitForEventCount waits until eventType was recorded at least count times
func WaitForEventCount(t *testing.T, handler *MockEventHandler, eventType string, count int, timeout time.Duration) bool {
	t.Helper()

	return WaitForCondition(t, func() bool {
		return handler.CountOf(eventType) >= count
	}, timeout, 10*time.Millisecond)
}
