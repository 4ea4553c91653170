package order

import (
	"strings"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlacementErrorPrefix prefixes every error recorded by purchase placement
const PlacementErrorPrefix = "ORDER_PLACEMENT_ERROR: "

// LineItem is an immutable snapshot of what the buyer ordered
type LineItem struct {
	shared.BaseEntity
	OrderID            uuid.UUID
	ExternalLineItemID string
	Name               string
	ProductID          string
	VariantID          string
	Quantity           int
	Price              decimal.Decimal
	Image              string
}

// NewLineItem creates a line item for orderID
func NewLineItem(orderID uuid.UUID, productID, variantID string, quantity int, price decimal.Decimal) (*LineItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return &LineItem{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		ProductID:  productID,
		VariantID:  variantID,
		Quantity:   quantity,
		Price:      price,
	}, nil
}

// CartItem is one line item's allocation to one fulfillment channel. Its
// URL, PurchaseID and Error fields record the outcome of placement.
type CartItem struct {
	shared.BaseEntity
	OrderID    uuid.UUID
	ChannelID  uuid.UUID
	LineItemID *uuid.UUID
	Name       string
	ProductID  string
	VariantID  string
	Quantity   int
	Price      decimal.Decimal
	Image      string
	URL        string
	PurchaseID string
	Error      string
	Status     CartItemStatus
}

// NewCartItem creates a pending cart item targeting channelID
func NewCartItem(orderID, channelID uuid.UUID, productID, variantID string, quantity int, price decimal.Decimal) (*CartItem, error) {
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		ChannelID:  channelID,
		ProductID:  productID,
		VariantID:  variantID,
		Quantity:   quantity,
		Price:      price,
		Status:     CartItemPending,
	}, nil
}

// IsCancelled reports whether the item was cancelled
func (c *CartItem) IsCancelled() bool {
	return c.Status == CartItemCancelled
}

// IsPlaced reports whether a purchase exists for the item
func (c *CartItem) IsPlaced() bool {
	return c.PurchaseID != "" || c.URL != ""
}

// IsUnplaced reports whether placement should still target the item
func (c *CartItem) IsUnplaced() bool {
	return !c.IsPlaced() && !c.IsCancelled()
}

// MarkPlaced records a successful purchase and clears any previous error
func (c *CartItem) MarkPlaced(purchaseID, url string) {
	c.PurchaseID = purchaseID
	c.URL = url
	c.Error = ""
	c.Status = CartItemProcessing
	c.Touch()
}

// MarkFailed records a placement failure. The purchase id stays empty.
func (c *CartItem) MarkFailed(message string) {
	if !strings.HasPrefix(message, PlacementErrorPrefix) {
		message = PlacementErrorPrefix + message
	}
	c.PurchaseID = ""
	c.URL = ""
	c.Error = message
	c.Touch()
}

// HasPlacementError reports whether the last placement attempt failed
func (c *CartItem) HasPlacementError() bool {
	return strings.HasPrefix(c.Error, PlacementErrorPrefix)
}

// Cancel marks the item cancelled. Cancelled items are never placed again.
func (c *CartItem) Cancel() {
	c.Status = CartItemCancelled
	c.Touch()
}

// TrackingDetail is shipment tracking reported by a fulfillment channel
type TrackingDetail struct {
	shared.BaseEntity
	OrderID         uuid.UUID
	PurchaseID      string
	TrackingCompany string
	TrackingNumber  string
	CartItemIDs     []uuid.UUID
}

// NewTrackingDetail creates tracking for the given cart items
func NewTrackingDetail(orderID uuid.UUID, purchaseID, company, number string, cartItemIDs []uuid.UUID) (*TrackingDetail, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_TRACKING_NUMBER", "Tracking number cannot be empty")
	}
	if len(cartItemIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_TRACKING_ITEMS", "Tracking must reference at least one cart item")
	}
	return &TrackingDetail{
		BaseEntity:      shared.NewBaseEntity(),
		OrderID:         orderID,
		PurchaseID:      purchaseID,
		TrackingCompany: company,
		TrackingNumber:  number,
		CartItemIDs:     cartItemIDs,
	}, nil
}
