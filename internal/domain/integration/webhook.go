package integration

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WebhookTopic is the ingress topic a webhook was delivered to
type WebhookTopic string

const (
	TopicOrderCreated      WebhookTopic = "orders/create"
	TopicOrderCancelled    WebhookTopic = "orders/cancel"
	TopicTrackingCreated   WebhookTopic = "tracking/create"
	TopicPurchaseCancelled WebhookTopic = "purchases/cancel"
)

// Operation returns the handler operation that normalizes this topic
func (t WebhookTopic) Operation() (Operation, PlatformKind, error) {
	switch t {
	case TopicOrderCreated:
		return OpOrderWebhookHandler, PlatformKindShop, nil
	case TopicOrderCancelled:
		return OpCancelOrderHandler, PlatformKindShop, nil
	case TopicTrackingCreated:
		return OpTrackingWebhookHandler, PlatformKindChannel, nil
	case TopicPurchaseCancelled:
		return OpCancelPurchaseHandler, PlatformKindChannel, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedTopic, t)
	}
}

// WebhookRequest is the argument of every *WebhookHandler operation. Body is
// the raw request body, byte for byte, so handlers can verify signatures.
type WebhookRequest struct {
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Header returns a header value using a case-insensitive lookup
func (r WebhookRequest) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Canonical events
// ---------------------------------------------------------------------------

// EventKind identifies a canonical webhook event
type EventKind string

const (
	EventOrderCreated      EventKind = "order.created"
	EventOrderCancelled    EventKind = "order.cancelled"
	EventTrackingCreated   EventKind = "tracking.created"
	EventPurchaseCancelled EventKind = "purchase.cancelled"
)

// WebhookEvent is implemented by every canonical event
type WebhookEvent interface {
	Kind() EventKind
}

// ExternalLineItem is a line item as reported by a storefront
type ExternalLineItem struct {
	LineItemID string          `json:"lineItemId"`
	Name       string          `json:"name"`
	ProductID  string          `json:"productId"`
	VariantID  string          `json:"variantId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image,omitempty"`
}

// ExternalOrder is an order as reported by a storefront
type ExternalOrder struct {
	OrderID       string             `json:"orderId"`
	OrderName     string             `json:"orderName"`
	Email         string             `json:"email"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Address1      string             `json:"streetAddress1"`
	Address2      string             `json:"streetAddress2"`
	City          string             `json:"city"`
	Province      string             `json:"state"`
	Zip           string             `json:"zip"`
	Country       string             `json:"country"`
	Phone         string             `json:"phone"`
	Currency      string             `json:"currency"`
	SubTotal      decimal.Decimal    `json:"subTotalPrice"`
	TotalTax      decimal.Decimal    `json:"totalTax"`
	TotalDiscount decimal.Decimal    `json:"totalDiscount"`
	Shipping      decimal.Decimal    `json:"shipping"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	LineItems     []ExternalLineItem `json:"lineItems"`
}

// OrderCreatedEvent is raised when a storefront reports a new sale
type OrderCreatedEvent struct {
	Order ExternalOrder
}

func (OrderCreatedEvent) Kind() EventKind { return EventOrderCreated }

// OrderCancelledEvent is raised when a storefront cancels an order
type OrderCancelledEvent struct {
	OrderID string
}

func (OrderCancelledEvent) Kind() EventKind { return EventOrderCancelled }

// TrackingCreatedEvent is raised when a fulfillment target ships a purchase
type TrackingCreatedEvent struct {
	PurchaseID      string
	TrackingCompany string
	TrackingNumber  string
}

func (TrackingCreatedEvent) Kind() EventKind { return EventTrackingCreated }

// PurchaseCancelledEvent is raised when a fulfillment target cancels a purchase
type PurchaseCancelledEvent struct {
	PurchaseID string
}

func (PurchaseCancelledEvent) Kind() EventKind { return EventPurchaseCancelled }

// WebhookEnvelope is the JSON shape every webhook handler operation returns.
// Only the fields relevant to Type are populated.
type WebhookEnvelope struct {
	Type            EventKind      `json:"type"`
	Order           *ExternalOrder `json:"order,omitempty"`
	OrderID         string         `json:"orderId,omitempty"`
	PurchaseID      string         `json:"purchaseId,omitempty"`
	TrackingCompany string         `json:"trackingCompany,omitempty"`
	TrackingNumber  string         `json:"trackingNumber,omitempty"`
}

// Event converts the envelope into its canonical event
func (e WebhookEnvelope) Event() (WebhookEvent, error) {
	switch e.Type {
	case EventOrderCreated:
		if e.Order == nil {
			return nil, fmt.Errorf("%w: order.created without order", ErrInvalidAdapterResponse)
		}
		return OrderCreatedEvent{Order: *e.Order}, nil
	case EventOrderCancelled:
		if e.OrderID == "" {
			return nil, fmt.Errorf("%w: order.cancelled without orderId", ErrInvalidAdapterResponse)
		}
		return OrderCancelledEvent{OrderID: e.OrderID}, nil
	case EventTrackingCreated:
		if e.PurchaseID == "" || e.TrackingNumber == "" {
			return nil, fmt.Errorf("%w: tracking.created without purchaseId or trackingNumber", ErrInvalidAdapterResponse)
		}
		return TrackingCreatedEvent{
			PurchaseID:      e.PurchaseID,
			TrackingCompany: NormalizeCarrier(e.TrackingCompany),
			TrackingNumber:  e.TrackingNumber,
		}, nil
	case EventPurchaseCancelled:
		if e.PurchaseID == "" {
			return nil, fmt.Errorf("%w: purchase.cancelled without purchaseId", ErrInvalidAdapterResponse)
		}
		return PurchaseCancelledEvent{PurchaseID: e.PurchaseID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidAdapterResponse, e.Type)
	}
}
