package integration

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Argument and result shapes shared by every adapter implementation
// ---------------------------------------------------------------------------

// ShippingAddress is the order's shipping projection sent with a purchase
type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"streetAddress1"`
	Address2  string `json:"streetAddress2"`
	City      string `json:"city"`
	Province  string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// PurchaseItem is one cart item as seen by an adapter
type PurchaseItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	ProductID  string          `json:"productId"`
	VariantID  string          `json:"variantId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	PurchaseID string          `json:"purchaseId,omitempty"`
	URL        string          `json:"url,omitempty"`
}

// CreatePurchaseRequest is the argument of createPurchaseFunction
type CreatePurchaseRequest struct {
	CartItems []PurchaseItem  `json:"cartItems"`
	Address   ShippingAddress `json:"address"`
	Notes     string          `json:"notes"`
}

// CreatePurchaseResult is the result of createPurchaseFunction. An adapter
// reports an application-level failure through Error instead of failing the
// call.
type CreatePurchaseResult struct {
	PurchaseID string `json:"purchaseId"`
	URL        string `json:"url"`
	Error      string `json:"error"`
}

// GetProductRequest is the argument of getProductFunction
type GetProductRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
}

// Product is a product variant as reported live by a platform
type Product struct {
	Image            string          `json:"image"`
	Title            string          `json:"title"`
	ProductID        string          `json:"productId"`
	VariantID        string          `json:"variantId"`
	Price            decimal.Decimal `json:"price"`
	AvailableForSale bool            `json:"availableForSale"`
	Inventory        *int            `json:"inventory,omitempty"`
	ProductLink      string          `json:"productLink,omitempty"`
}

// SearchProductsRequest is the argument of searchProductsFunction
type SearchProductsRequest struct {
	SearchEntry string `json:"searchEntry"`
	After       string `json:"after,omitempty"`
}

// PageInfo is cursor pagination returned by search operations
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// SearchProductsResult is the result of searchProductsFunction
type SearchProductsResult struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// SearchOrdersRequest is the argument of searchOrdersFunction
type SearchOrdersRequest struct {
	SearchEntry string `json:"searchEntry"`
	After       string `json:"after,omitempty"`
}

// SearchOrdersResult is the result of searchOrdersFunction
type SearchOrdersResult struct {
	Orders   []ExternalOrder `json:"orders"`
	PageInfo PageInfo        `json:"pageInfo"`
}

// UpdateProductRequest is the argument of updateProductFunction
type UpdateProductRequest struct {
	ProductID string           `json:"productId"`
	VariantID string           `json:"variantId"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Inventory *int             `json:"inventory,omitempty"`
}

// AddTrackingRequest is the argument of addTrackingFunction
type AddTrackingRequest struct {
	OrderID         string `json:"orderId"`
	OrderName       string `json:"orderName,omitempty"`
	TrackingCompany string `json:"trackingCompany"`
	TrackingNumber  string `json:"trackingNumber"`
}

// AddCartToPlatformOrderRequest is the argument of addCartToPlatformOrderFunction
type AddCartToPlatformOrderRequest struct {
	OrderID   string         `json:"orderId"`
	CartItems []PurchaseItem `json:"cartItems"`
}

// CreateWebhookRequest is the argument of createWebhookFunction
type CreateWebhookRequest struct {
	Endpoint string   `json:"endpoint"`
	Events   []string `json:"events"`
}

// Webhook is a webhook subscription registered on a platform
type Webhook struct {
	ID          string `json:"id"`
	CallbackURL string `json:"callbackUrl"`
	Topic       string `json:"topic"`
}

// GetWebhooksResult is the result of getWebhooksFunction
type GetWebhooksResult struct {
	Webhooks []Webhook `json:"webhooks"`
}

// DeleteWebhookRequest is the argument of deleteWebhookFunction
type DeleteWebhookRequest struct {
	WebhookID string `json:"webhookId"`
}

// OAuthRequest is the argument of oAuthFunction
type OAuthRequest struct {
	Scopes      []string `json:"scopes,omitempty"`
	RedirectURI string   `json:"redirectUri"`
	State       string   `json:"state"`
}

// OAuthResult is the result of oAuthFunction
type OAuthResult struct {
	AuthorizationURL string `json:"authorizationUrl"`
	CodeVerifier     string `json:"codeVerifier,omitempty"`
}

// OAuthCallbackRequest is the argument of oAuthCallbackFunction
type OAuthCallbackRequest struct {
	Code         string `json:"code"`
	State        string `json:"state"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// OAuthCallbackResult is the result of oAuthCallbackFunction
type OAuthCallbackResult struct {
	AccessToken string `json:"accessToken"`
	Domain      string `json:"domain,omitempty"`
}
