package order

import (
	"fmt"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Route names how an order's cart items were produced
type Route string

const (
	RouteLink   Route = "link"
	RouteMatch  Route = "match"
	RouteManual Route = "manual"
)

// Customer holds the buyer and shipping fields of an order
type Customer struct {
	Email     string
	FirstName string
	LastName  string
	Address1  string
	Address2  string
	City      string
	Province  string
	Zip       string
	Country   string
	Phone     string
}

// Totals holds the monetary totals of an order
type Totals struct {
	Currency      string
	SubTotal      decimal.Decimal
	Shipping      decimal.Decimal
	TotalTax      decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Intents controls what the lifecycle does with a new order
type Intents struct {
	LinkOrder    bool
	MatchOrder   bool
	ProcessOrder bool
}

// Order is the aggregate root for a sale received on a shop
type Order struct {
	shared.OwnedAggregateRoot
	ShopID          uuid.UUID
	ExternalOrderID string
	OrderName       string
	Customer
	Totals
	Intents
	Status          Status
	Error           string
	LineItems       []LineItem
	CartItems       []CartItem
	TrackingDetails []TrackingDetail
}

// NewOrder creates a pending order for shopID
func NewOrder(ownerID, shopID uuid.UUID, externalOrderID, orderName string, customer Customer, totals Totals, intents Intents) (*Order, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	o := &Order{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		ShopID:             shopID,
		ExternalOrderID:    externalOrderID,
		OrderName:          orderName,
		Customer:           customer,
		Totals:             totals,
		Intents:            intents,
		Status:             StatusPending,
		LineItems:          make([]LineItem, 0),
		CartItems:          make([]CartItem, 0),
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// AddLineItem appends a line item snapshot
func (o *Order) AddLineItem(name, productID, variantID string, quantity int, price decimal.Decimal, image, externalID string) (*LineItem, error) {
	item, err := NewLineItem(o.ID, productID, variantID, quantity, price)
	if err != nil {
		return nil, err
	}
	item.Name = name
	item.Image = image
	item.ExternalLineItemID = externalID
	o.LineItems = append(o.LineItems, *item)
	return &o.LineItems[len(o.LineItems)-1], nil
}

// AddCartItem attaches a cart item. Only pending orders accept new items.
func (o *Order) AddCartItem(item CartItem) (*CartItem, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add cart items to order in %s status", o.Status))
	}
	item.OrderID = o.ID
	o.CartItems = append(o.CartItems, item)
	o.Touch()
	return &o.CartItems[len(o.CartItems)-1], nil
}

// RemoveCartItem detaches an unplaced cart item
func (o *Order) RemoveCartItem(id uuid.UUID) error {
	for i := range o.CartItems {
		if o.CartItems[i].ID != id {
			continue
		}
		if o.CartItems[i].IsPlaced() {
			return shared.NewDomainError("CART_ITEM_PLACED", "Cannot remove a cart item that was already placed")
		}
		o.CartItems = append(o.CartItems[:i], o.CartItems[i+1:]...)
		o.Touch()
		return nil
	}
	return shared.ErrNotFound
}

// CartItem returns the cart item with id, or nil
func (o *Order) CartItem(id uuid.UUID) *CartItem {
	for i := range o.CartItems {
		if o.CartItems[i].ID == id {
			return &o.CartItems[i]
		}
	}
	return nil
}

// CartItemsByPurchase returns the cart items placed under purchaseID
func (o *Order) CartItemsByPurchase(purchaseID string) []*CartItem {
	var items []*CartItem
	for i := range o.CartItems {
		if o.CartItems[i].PurchaseID == purchaseID {
			items = append(items, &o.CartItems[i])
		}
	}
	return items
}

// UnplacedCartItems returns the items placement must still attempt
func (o *Order) UnplacedCartItems() []*CartItem {
	var items []*CartItem
	for i := range o.CartItems {
		if o.CartItems[i].IsUnplaced() {
			items = append(items, &o.CartItems[i])
		}
	}
	return items
}

// UnplacedByChannel groups unplaced items by fulfillment channel, keeping
// the first-seen channel order.
func (o *Order) UnplacedByChannel() ([]uuid.UUID, map[uuid.UUID][]*CartItem) {
	groups := make(map[uuid.UUID][]*CartItem)
	var order []uuid.UUID
	for _, item := range o.UnplacedCartItems() {
		if _, ok := groups[item.ChannelID]; !ok {
			order = append(order, item.ChannelID)
		}
		groups[item.ChannelID] = append(groups[item.ChannelID], item)
	}
	return order, groups
}

// ActiveCartItems returns the non-cancelled cart items
func (o *Order) ActiveCartItems() []*CartItem {
	var items []*CartItem
	for i := range o.CartItems {
		if !o.CartItems[i].IsCancelled() {
			items = append(items, &o.CartItems[i])
		}
	}
	return items
}

// HasUnplacedCartItems reports whether any cart item still awaits placement
func (o *Order) HasUnplacedCartItems() bool {
	return len(o.UnplacedCartItems()) > 0
}

// SetRoutingError records why routing could not produce cart items
func (o *Order) SetRoutingError(message string) {
	o.Error = message
	o.Touch()
}

// ClearError clears the order-level error
func (o *Order) ClearError() {
	o.Error = ""
	o.Touch()
}

// MarkRouted records that cart items were produced by route
func (o *Order) MarkRouted(route Route, cartItems int) {
	o.Error = ""
	o.Touch()
	o.AddDomainEvent(NewOrderRoutedEvent(o, route, cartItems))
}

// RefreshPlacementStatus recomputes status from cart item outcomes: AWAITING
// when every active item is placed, PENDING otherwise. Terminal and
// completed orders are left alone. It reports whether the status changed.
func (o *Order) RefreshPlacementStatus() bool {
	if o.Status == StatusCancelled || o.Status == StatusComplete {
		return false
	}
	active := o.ActiveCartItems()
	target := StatusPending
	if len(active) > 0 && !o.HasUnplacedCartItems() {
		target = StatusAwaiting
	}
	return o.transition(target)
}

// HasTracking reports whether a tracking detail references cartItemID
func (o *Order) HasTracking(cartItemID uuid.UUID) bool {
	for _, td := range o.TrackingDetails {
		for _, id := range td.CartItemIDs {
			if id == cartItemID {
				return true
			}
		}
	}
	return false
}

// AddTracking attaches a tracking detail and raises TrackingAdded
func (o *Order) AddTracking(td TrackingDetail) {
	td.OrderID = o.ID
	o.TrackingDetails = append(o.TrackingDetails, td)
	o.Touch()
	o.AddDomainEvent(NewTrackingAddedEvent(o, &td))
}

// RefreshCompletion advances an AWAITING order to COMPLETE once every
// non-cancelled cart item has at least one tracking detail.
func (o *Order) RefreshCompletion() bool {
	if o.Status != StatusAwaiting {
		return false
	}
	active := o.ActiveCartItems()
	if len(active) == 0 {
		return false
	}
	for _, item := range active {
		if !o.HasTracking(item.ID) {
			return false
		}
	}
	return o.transition(StatusComplete)
}

// Cancel cancels the order and every cart item
func (o *Order) Cancel(reason string) error {
	if o.Status == StatusCancelled {
		return nil
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	for i := range o.CartItems {
		o.CartItems[i].Cancel()
	}
	from := o.Status
	o.Status = StatusCancelled
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, StatusCancelled))
	o.AddDomainEvent(NewOrderCancelledEvent(o, reason))
	return nil
}

// CancelPurchase cancels the cart items placed under purchaseID and returns
// how many were affected
func (o *Order) CancelPurchase(purchaseID string) int {
	items := o.CartItemsByPurchase(purchaseID)
	for _, item := range items {
		item.Cancel()
	}
	if len(items) > 0 {
		o.Touch()
	}
	return len(items)
}

func (o *Order) transition(target Status) bool {
	if o.Status == target || !o.Status.CanTransitionTo(target) {
		return false
	}
	from := o.Status
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target))
	return true
}

// IsTerminal reports whether no further transitions are possible
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCancelled
}
