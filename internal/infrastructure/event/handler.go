package event

import (
	"context"

	"github.com/Rafcin/openship/internal/domain/shared"
)

// FuncHandler adapts a function to shared.EventHandler
type FuncHandler struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// HandlerFunc returns a handler subscribed to eventTypes. It is a pointer so
// that it can be unsubscribed.
func HandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *FuncHandler {
	return &FuncHandler{types: eventTypes, fn: fn}
}

func (h *FuncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *FuncHandler) EventTypes() []string {
	return h.types
}
