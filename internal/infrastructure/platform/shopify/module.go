// Package shopify is the built-in Shopify module. It serves both sides of the
// adapter contract over the Admin REST API: storefront operations for shops
// and purchase operations for channels.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
)

const (
	// ModuleName is the name platforms use to select this module
	ModuleName = "shopify"

	// MetadataLocationID names the inventory location used by updateProduct
	MetadataLocationID = "location_id"

	searchLimit = "25"
)

// ErrMissingLocation is returned when an inventory update has no location
var ErrMissingLocation = errors.New("shopify: location_id metadata is required for inventory updates")

// Module implements integration.Module
type Module struct {
	httpClient *http.Client
}

var _ integration.Module = (*Module)(nil)

// Option configures the module
type Option func(*Module)

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(m *Module) {
		m.httpClient = c
	}
}

// New creates the Shopify module
func New(opts ...Option) *Module {
	m := &Module{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the registry name
func (m *Module) Name() string {
	return ModuleName
}

// Operations returns the operations this module implements
func (m *Module) Operations() map[integration.Operation]integration.Func {
	return map[integration.Operation]integration.Func{
		// fulfillment side
		integration.OpSearchProducts:         m.searchProducts,
		integration.OpGetProduct:             m.getProduct,
		integration.OpCreatePurchase:         m.createPurchase,
		integration.OpCreateWebhook:          m.createWebhook,
		integration.OpDeleteWebhook:          m.deleteWebhook,
		integration.OpGetWebhooks:            m.getWebhooks,
		integration.OpAddTracking:            m.addTracking,
		integration.OpTrackingWebhookHandler: m.trackingWebhookHandler,
		integration.OpCancelPurchaseHandler:  m.cancelPurchaseWebhookHandler,

		// storefront side
		integration.OpOrderWebhookHandler:    m.orderWebhookHandler,
		integration.OpCancelOrderHandler:     m.cancelOrderWebhookHandler,
		integration.OpUpdateProduct:          m.updateProduct,
		integration.OpSearchOrders:           m.searchOrders,
		integration.OpAddCartToPlatformOrder: m.addCartToPlatformOrder,
		integration.OpOAuth:                  m.oAuth,
		integration.OpOAuthCallback:          m.oAuthCallback,
	}
}

// ---------------------------------------------------------------------------
// Webhook Handlers
// ---------------------------------------------------------------------------

func (m *Module) orderWebhookHandler(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	body, err := verifyWebhook(pc, args)
	if err != nil {
		return nil, err
	}
	o, err := decodeOrder(body)
	if err != nil {
		return nil, err
	}
	ext := convertOrder(o)
	return integration.WebhookEnvelope{Type: integration.EventOrderCreated, Order: &ext}, nil
}

func (m *Module) cancelOrderWebhookHandler(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	body, err := verifyWebhook(pc, args)
	if err != nil {
		return nil, err
	}
	o, err := decodeOrder(body)
	if err != nil {
		return nil, err
	}
	return integration.WebhookEnvelope{
		Type:    integration.EventOrderCancelled,
		OrderID: strconv.FormatInt(o.ID, 10),
	}, nil
}

func (m *Module) trackingWebhookHandler(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	body, err := verifyWebhook(pc, args)
	if err != nil {
		return nil, err
	}
	var f fulfillmentPayload
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("shopify: decode fulfillment payload: %w", err)
	}
	number := f.TrackingNumber
	if number == "" && len(f.TrackingNumbers) > 0 {
		number = f.TrackingNumbers[0]
	}
	return integration.WebhookEnvelope{
		Type:            integration.EventTrackingCreated,
		PurchaseID:      strconv.FormatInt(f.OrderID, 10),
		TrackingCompany: f.TrackingCompany,
		TrackingNumber:  number,
	}, nil
}

// cancelPurchaseWebhookHandler handles orders/cancelled on a fulfillment
// store, where the cancelled order is one of our purchases.
func (m *Module) cancelPurchaseWebhookHandler(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	body, err := verifyWebhook(pc, args)
	if err != nil {
		return nil, err
	}
	o, err := decodeOrder(body)
	if err != nil {
		return nil, err
	}
	return integration.WebhookEnvelope{
		Type:       integration.EventPurchaseCancelled,
		PurchaseID: strconv.FormatInt(o.ID, 10),
	}, nil
}

// ---------------------------------------------------------------------------
// Purchase Operations
// ---------------------------------------------------------------------------

type orderCreateLine struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type orderCreate struct {
	LineItems       []orderCreateLine `json:"line_items"`
	ShippingAddress *Address          `json:"shipping_address,omitempty"`
	Email           string            `json:"email,omitempty"`
	Note            string            `json:"note,omitempty"`
	FinancialStatus string            `json:"financial_status"`
}

func (m *Module) createPurchase(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.CreatePurchaseRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode purchase request: %w", err)
	}
	if len(req.CartItems) == 0 {
		return integration.CreatePurchaseResult{Error: "no cart items"}, nil
	}

	create := orderCreate{
		LineItems:       make([]orderCreateLine, 0, len(req.CartItems)),
		Email:           req.Address.Email,
		Note:            req.Notes,
		FinancialStatus: "pending",
		ShippingAddress: &Address{
			FirstName: req.Address.FirstName,
			LastName:  req.Address.LastName,
			Address1:  req.Address.Address1,
			Address2:  req.Address.Address2,
			City:      req.Address.City,
			Province:  req.Address.Province,
			Zip:       req.Address.Zip,
			Country:   req.Address.Country,
			Phone:     req.Address.Phone,
		},
	}
	for _, item := range req.CartItems {
		variantID, err := parseID(item.VariantID)
		if err != nil {
			return integration.CreatePurchaseResult{Error: fmt.Sprintf("invalid variant id %q", item.VariantID)}, nil
		}
		create.LineItems = append(create.LineItems, orderCreateLine{VariantID: variantID, Quantity: item.Quantity})
	}

	var out orderEnvelope
	if _, err := c.do(ctx, http.MethodPost, "/orders.json", nil, map[string]any{"order": create}, &out); err != nil {
		// a rejected order (stock, address) is an application-level failure
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
			return integration.CreatePurchaseResult{Error: apiErr.Body}, nil
		}
		return nil, err
	}
	return integration.CreatePurchaseResult{
		PurchaseID: strconv.FormatInt(out.Order.ID, 10),
		URL:        out.Order.OrderStatusURL,
	}, nil
}

func (m *Module) addTracking(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.AddTrackingRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode tracking request: %w", err)
	}
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	in := fulfillmentEnvelope{Fulfillment: Fulfillment{
		OrderID:         orderID,
		TrackingCompany: req.TrackingCompany,
		TrackingNumber:  req.TrackingNumber,
		NotifyCustomer:  true,
	}}
	var out fulfillmentEnvelope
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/fulfillments.json", orderID), nil, in, &out); err != nil {
		return nil, err
	}
	return map[string]string{"fulfillmentId": strconv.FormatInt(out.Fulfillment.ID, 10)}, nil
}

func (m *Module) addCartToPlatformOrder(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.AddCartToPlatformOrderRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode cart request: %w", err)
	}
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}

	attrs := make([]NoteAttribute, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		value := item.PurchaseID
		if item.URL != "" {
			value = strings.TrimSpace(value + " " + item.URL)
		}
		attrs = append(attrs, NoteAttribute{Name: "openship: " + item.Name, Value: value})
	}
	in := map[string]any{"order": map[string]any{"id": orderID, "note_attributes": attrs}}
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d.json", orderID), nil, in, nil); err != nil {
		return nil, err
	}
	return map[string]bool{"updated": true}, nil
}

// ---------------------------------------------------------------------------
// Product and Order Operations
// ---------------------------------------------------------------------------

func (m *Module) getProduct(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.GetProductRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode product request: %w", err)
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}

	var out productEnvelope
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d.json", productID), nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Product.Variants) == 0 {
		return nil, fmt.Errorf("shopify: product %d has no variants", productID)
	}

	variant := out.Product.Variants[0]
	if req.VariantID != "" {
		variantID, err := parseID(req.VariantID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, v := range out.Product.Variants {
			if v.ID == variantID {
				variant, found = v, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("shopify: variant %d not found on product %d", variantID, productID)
		}
	}
	return toProduct(pc.Domain, out.Product, variant), nil
}

func (m *Module) searchProducts(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.SearchProductsRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode search request: %w", err)
	}

	// page_info excludes every other filter
	q := url.Values{"limit": {searchLimit}}
	if req.After != "" {
		q.Set("page_info", req.After)
	} else if s := strings.TrimSpace(req.SearchEntry); s != "" {
		q.Set("title", s)
	}

	var out productsEnvelope
	headers, err := c.do(ctx, http.MethodGet, "/products.json", q, nil, &out)
	if err != nil {
		return nil, err
	}
	result := integration.SearchProductsResult{Products: make([]integration.Product, 0)}
	for _, p := range out.Products {
		for _, v := range p.Variants {
			result.Products = append(result.Products, toProduct(pc.Domain, p, v))
		}
	}
	if next := nextPageInfo(headers); next != "" {
		result.PageInfo = integration.PageInfo{HasNextPage: true, EndCursor: next}
	}
	return result, nil
}

func (m *Module) searchOrders(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.SearchOrdersRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode search request: %w", err)
	}

	q := url.Values{"limit": {searchLimit}}
	if req.After != "" {
		q.Set("page_info", req.After)
	} else {
		q.Set("status", "any")
		if s := strings.TrimSpace(req.SearchEntry); s != "" {
			q.Set("name", s)
		}
	}

	var out ordersEnvelope
	headers, err := c.do(ctx, http.MethodGet, "/orders.json", q, nil, &out)
	if err != nil {
		return nil, err
	}
	result := integration.SearchOrdersResult{Orders: make([]integration.ExternalOrder, 0, len(out.Orders))}
	for i := range out.Orders {
		result.Orders = append(result.Orders, convertOrder(&out.Orders[i]))
	}
	if next := nextPageInfo(headers); next != "" {
		result.PageInfo = integration.PageInfo{HasNextPage: true, EndCursor: next}
	}
	return result, nil
}

func (m *Module) updateProduct(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.UpdateProductRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode update request: %w", err)
	}
	variantID, err := parseID(req.VariantID)
	if err != nil {
		return nil, err
	}

	var variant variantEnvelope
	if req.Price != nil {
		in := map[string]any{"variant": map[string]any{"id": variantID, "price": req.Price.StringFixed(2)}}
		if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/variants/%d.json", variantID), nil, in, &variant); err != nil {
			return nil, err
		}
	}

	if req.Inventory != nil {
		locationID, err := parseID(pc.Metadata[MetadataLocationID])
		if err != nil {
			return nil, ErrMissingLocation
		}
		if variant.Variant.InventoryItemID == 0 {
			if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/variants/%d.json", variantID), nil, nil, &variant); err != nil {
				return nil, err
			}
		}
		in := inventoryLevelSet{
			LocationID:      locationID,
			InventoryItemID: variant.Variant.InventoryItemID,
			Available:       *req.Inventory,
		}
		if _, err := c.do(ctx, http.MethodPost, "/inventory_levels/set.json", nil, in, nil); err != nil {
			return nil, err
		}
	}
	return map[string]bool{"updated": req.Price != nil || req.Inventory != nil}, nil
}

// ---------------------------------------------------------------------------
// Webhook Registration
// ---------------------------------------------------------------------------

func (m *Module) createWebhook(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.CreateWebhookRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode webhook request: %w", err)
	}

	result := integration.GetWebhooksResult{Webhooks: make([]integration.Webhook, 0, len(req.Events))}
	for _, event := range req.Events {
		topic, ok := topicMapping[integration.WebhookTopic(event)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedTopic, event)
		}
		in := webhookEnvelope{Webhook: Webhook{Address: req.Endpoint, Topic: topic, Format: "json"}}
		var out webhookEnvelope
		if _, err := c.do(ctx, http.MethodPost, "/webhooks.json", nil, in, &out); err != nil {
			return nil, err
		}
		result.Webhooks = append(result.Webhooks, toWebhook(out.Webhook))
	}
	return result, nil
}

func (m *Module) getWebhooks(ctx context.Context, pc integration.PlatformConfig, _ json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var out webhooksEnvelope
	if _, err := c.do(ctx, http.MethodGet, "/webhooks.json", nil, nil, &out); err != nil {
		return nil, err
	}
	result := integration.GetWebhooksResult{Webhooks: make([]integration.Webhook, 0, len(out.Webhooks))}
	for _, w := range out.Webhooks {
		result.Webhooks = append(result.Webhooks, toWebhook(w))
	}
	return result, nil
}

func (m *Module) deleteWebhook(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	c, err := m.newClient(pc)
	if err != nil {
		return nil, err
	}
	var req integration.DeleteWebhookRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode webhook request: %w", err)
	}
	id, err := parseID(req.WebhookID)
	if err != nil {
		return nil, err
	}
	if _, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/webhooks/%d.json", id), nil, nil, nil); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func toProduct(domain string, p Product, v Variant) integration.Product {
	out := integration.Product{
		Title:            p.Title,
		ProductID:        strconv.FormatInt(p.ID, 10),
		VariantID:        strconv.FormatInt(v.ID, 10),
		Price:            v.Price,
		AvailableForSale: p.Status == "" || p.Status == "active",
		Inventory:        v.InventoryQuantity,
	}
	if v.Title != "" && v.Title != "Default Title" {
		out.Title = p.Title + " - " + v.Title
	}
	if p.Image != nil {
		out.Image = p.Image.Src
	}
	if v.InventoryQuantity != nil && *v.InventoryQuantity <= 0 && v.InventoryPolicy != "continue" {
		out.AvailableForSale = false
	}
	if base, err := shopURL(domain); err == nil && p.Handle != "" {
		out.ProductLink = base + "/products/" + p.Handle
	}
	return out
}

func toWebhook(w Webhook) integration.Webhook {
	return integration.Webhook{
		ID:          strconv.FormatInt(w.ID, 10),
		CallbackURL: w.Address,
		Topic:       w.Topic,
	}
}
