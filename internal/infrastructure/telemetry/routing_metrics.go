package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
)

// Placement outcomes
const (
	OutcomePlaced = "placed"
	OutcomeFailed = "failed"
)

// RoutingMetrics counts routing, status and placement events from the event
// bus and observes adapter invocations
type RoutingMetrics struct {
	ordersRouted    *Counter
	orderStatus     *Counter
	placements      *Counter
	adapterCalls    *Counter
	adapterDuration *Histogram
}

func NewRoutingMetrics(meter metric.Meter) (*RoutingMetrics, error) {
	routed, err := NewCounter(meter, "openship_orders_routed_total", "Orders that produced cart items, by route", "{order}")
	if err != nil {
		return nil, err
	}
	status, err := NewCounter(meter, "openship_orders_status_total", "Order status transitions, by target status", "{transition}")
	if err != nil {
		return nil, err
	}
	placements, err := NewCounter(meter, "openship_placements_total", "Cart item placement attempts, by outcome", "{item}")
	if err != nil {
		return nil, err
	}
	calls, err := NewCounter(meter, "openship_adapter_invocations_total", "Adapter operation invocations", "{call}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "openship_adapter_invocation_duration_seconds",
		Description: "Adapter operation latency",
		Unit:        "s",
		Boundaries:  AdapterDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return &RoutingMetrics{
		ordersRouted:    routed,
		orderStatus:     status,
		placements:      placements,
		adapterCalls:    calls,
		adapterDuration: duration,
	}, nil
}

// EventTypes lists the order events the metrics subscribe to
func (m *RoutingMetrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderRouted,
		order.EventTypeOrderStatusChanged,
		order.EventTypeCartItemsPlaced,
	}
}

// Handle implements shared.EventHandler
func (m *RoutingMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderRoutedEvent:
		m.ordersRouted.Inc(ctx, AttrRoute.String(string(e.Route)))
	case *order.OrderStatusChangedEvent:
		m.orderStatus.Inc(ctx, AttrStatus.String(e.To.String()))
	case *order.CartItemsPlacedEvent:
		if e.Placed > 0 {
			m.placements.Add(ctx, int64(e.Placed), AttrOutcome.String(OutcomePlaced))
		}
		if e.Failed > 0 {
			m.placements.Add(ctx, int64(e.Failed), AttrOutcome.String(OutcomeFailed))
		}
	}
	return nil
}

// ObserveInvocation implements adapter.Observer
func (m *RoutingMetrics) ObserveInvocation(ctx context.Context, op integration.Operation, targetKind string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.adapterCalls.Inc(ctx,
		AttrOperation.String(string(op)),
		AttrTargetKind.String(targetKind),
		AttrOutcome.String(outcome),
	)
	m.adapterDuration.RecordDuration(ctx, d, AttrOperation.String(string(op)), AttrTargetKind.String(targetKind))
}

var _ shared.EventHandler = (*RoutingMetrics)(nil)
