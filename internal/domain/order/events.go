package order

import (
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderRouted        = "OrderRouted"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderCancelled     = "OrderCancelled"
	EventTypeTrackingAdded      = "TrackingAdded"
	EventTypeCartItemsPlaced    = "CartItemsPlaced"
)

// OrderCreatedEvent is raised when a new order is received
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID `json:"order_id"`
	ShopID          uuid.UUID `json:"shop_id"`
	ExternalOrderID string    `json:"external_order_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		ShopID:          o.ShopID,
		ExternalOrderID: o.ExternalOrderID,
	}
}

// OrderRoutedEvent is raised when routing produced cart items
type OrderRoutedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	Route     Route     `json:"route"`
	CartItems int       `json:"cart_items"`
}

// NewOrderRoutedEvent creates a new OrderRoutedEvent
func NewOrderRoutedEvent(o *Order, route Route, cartItems int) *OrderRoutedEvent {
	return &OrderRoutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRouted, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		Route:           route,
		CartItems:       cartItems,
	}
}

// OrderStatusChangedEvent is raised on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from, to Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		From:            from,
		To:              to,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		Reason:          reason,
	}
}

// TrackingAddedEvent is raised when tracking is attached to an order
type TrackingAddedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID `json:"order_id"`
	TrackingID      uuid.UUID `json:"tracking_id"`
	TrackingCompany string    `json:"tracking_company"`
	TrackingNumber  string    `json:"tracking_number"`
}

// NewTrackingAddedEvent creates a new TrackingAddedEvent
func NewTrackingAddedEvent(o *Order, td *TrackingDetail) *TrackingAddedEvent {
	return &TrackingAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTrackingAdded, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		TrackingID:      td.ID,
		TrackingCompany: td.TrackingCompany,
		TrackingNumber:  td.TrackingNumber,
	}
}

// CartItemsPlacedEvent summarises one placement run
type CartItemsPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Placed  int       `json:"placed"`
	Failed  int       `json:"failed"`
}

// NewCartItemsPlacedEvent creates a new CartItemsPlacedEvent
func NewCartItemsPlacedEvent(o *Order, placed, failed int) *CartItemsPlacedEvent {
	return &CartItemsPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartItemsPlaced, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		Placed:          placed,
		Failed:          failed,
	}
}
