// Package douyin is the built-in storefront module for Douyin (TikTok Shop
// China). It signs requests against the open platform API, verifies pushed
// messages, and converts fen amounts into decimals.
package douyin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
)

const (
	// ModuleName is the name platforms use to select this module
	ModuleName = "douyin"

	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024
	apiVersion      = "2"
	searchPageSize  = 20
	currencyCNY     = "CNY"
	countryCN       = "CN"
)

var (
	ErrRequestFailed = errors.New("douyin: request failed")
	ErrOrderNotFound = errors.New("douyin: order not found")
	ErrInvalidID     = errors.New("douyin: invalid id")
)

// APIError is a business error returned inside a 2xx response
type APIError struct {
	Method  string
	ErrNo   int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("douyin: %s: %d - %s", e.Method, e.ErrNo, e.Message)
}

// Module implements integration.Module
type Module struct {
	httpClient *http.Client
	now        func() time.Time
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

// New creates the Douyin module
func New(opts ...Option) *Module {
	m := &Module{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
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
		integration.OpOrderWebhookHandler: m.orderWebhookHandler,
		integration.OpCancelOrderHandler:  m.cancelOrderWebhookHandler,
		integration.OpSearchOrders:        m.searchOrders,
		integration.OpUpdateProduct:       m.updateProduct,
		integration.OpGetProduct:          m.getProduct,
		integration.OpAddTracking:         m.addTracking,
	}
}

// ---------------------------------------------------------------------------
// Webhook Handlers
// ---------------------------------------------------------------------------

func (m *Module) orderWebhookHandler(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	cfg, msg, err := m.verifiedMessage(pc, args, TagOrderPaid)
	if err != nil {
		return nil, err
	}
	order, err := m.fetchOrder(ctx, cfg, strconv.FormatInt(msg.PID, 10))
	if err != nil {
		return nil, err
	}
	ext := convertOrder(order)
	return integration.WebhookEnvelope{Type: integration.EventOrderCreated, Order: &ext}, nil
}

func (m *Module) cancelOrderWebhookHandler(_ context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	_, msg, err := m.verifiedMessage(pc, args, TagOrderCancelled)
	if err != nil {
		return nil, err
	}
	return integration.WebhookEnvelope{
		Type:    integration.EventOrderCancelled,
		OrderID: strconv.FormatInt(msg.PID, 10),
	}, nil
}

// verifiedMessage checks the event-sign header and returns the first push
// message carrying tag.
func (m *Module) verifiedMessage(pc integration.PlatformConfig, args json.RawMessage, tag string) (*Config, *OrderMessage, error) {
	cfg, err := ConfigFromPlatform(pc)
	if err != nil {
		return nil, nil, err
	}
	var req integration.WebhookRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, nil, fmt.Errorf("douyin: decode webhook request: %w", err)
	}
	sign := req.Header("event-sign")
	if sign == "" {
		return nil, nil, &integration.WebhookSignatureError{Platform: ModuleName, Reason: "missing event-sign header"}
	}
	if !cfg.VerifyEventSign(req.Body, sign) {
		return nil, nil, &integration.WebhookSignatureError{Platform: ModuleName, Reason: "event-sign mismatch"}
	}

	var messages []PushMessage
	if err := json.Unmarshal(req.Body, &messages); err != nil {
		return nil, nil, fmt.Errorf("douyin: decode push messages: %w", err)
	}
	for _, pm := range messages {
		if pm.Tag != tag {
			continue
		}
		var msg OrderMessage
		if err := json.Unmarshal([]byte(pm.Data), &msg); err != nil {
			return nil, nil, fmt.Errorf("douyin: decode message %s: %w", pm.MsgID, err)
		}
		if msg.PID == 0 {
			return nil, nil, fmt.Errorf("douyin: message %s has no order id", pm.MsgID)
		}
		return cfg, &msg, nil
	}
	return nil, nil, fmt.Errorf("%w: no message with tag %s", integration.ErrUnsupportedTopic, tag)
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

func (m *Module) fetchOrder(ctx context.Context, cfg *Config, orderID string) (*Order, error) {
	var resp OrderDetailResponse
	if err := m.call(ctx, cfg, "/order/orderDetail", map[string]any{"shop_order_id": orderID}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ShopOrderDetail == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return resp.Data.ShopOrderDetail, nil
}

func (m *Module) searchOrders(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	cfg, err := ConfigFromPlatform(pc)
	if err != nil {
		return nil, err
	}
	var req integration.SearchOrdersRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("douyin: decode search request: %w", err)
	}

	// Douyin pages are 0-indexed; the cursor is the next page number
	page := 0
	if req.After != "" {
		page, err = strconv.Atoi(req.After)
		if err != nil || page < 0 {
			return nil, fmt.Errorf("%w: cursor %q", ErrInvalidID, req.After)
		}
	}
	params := map[string]any{
		"page":     page,
		"size":     searchPageSize,
		"order_by": "create_time",
		"is_desc":  "1",
	}
	if s := strings.TrimSpace(req.SearchEntry); s != "" {
		params["product"] = s
	}

	var resp OrderListResponse
	if err := m.call(ctx, cfg, "/order/searchList", params, &resp); err != nil {
		return nil, err
	}
	result := integration.SearchOrdersResult{Orders: make([]integration.ExternalOrder, 0)}
	if resp.Data == nil {
		return result, nil
	}
	for i := range resp.Data.List {
		result.Orders = append(result.Orders, convertOrder(&resp.Data.List[i]))
	}
	if int64((page+1)*searchPageSize) < resp.Data.Total {
		result.PageInfo = integration.PageInfo{HasNextPage: true, EndCursor: strconv.Itoa(page + 1)}
	}
	return result, nil
}

func (m *Module) addTracking(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	cfg, err := ConfigFromPlatform(pc)
	if err != nil {
		return nil, err
	}
	var req integration.AddTrackingRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("douyin: decode tracking request: %w", err)
	}
	params := map[string]any{
		"order_id":       req.OrderID,
		"company_code":   mapShippingCompanyToCode(req.TrackingCompany),
		"company":        req.TrackingCompany,
		"logistics_code": req.TrackingNumber,
	}
	var resp ShipResponse
	if err := m.call(ctx, cfg, "/order/logisticsAdd", params, &resp); err != nil {
		return nil, err
	}
	packID := ""
	if resp.Data != nil {
		packID = resp.Data.PackID
	}
	return map[string]string{"packId": packID}, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

func (m *Module) getProduct(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	cfg, err := ConfigFromPlatform(pc)
	if err != nil {
		return nil, err
	}
	var req integration.GetProductRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("douyin: decode product request: %w", err)
	}
	productID, err := strconv.ParseInt(req.ProductID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: product %q", ErrInvalidID, req.ProductID)
	}

	var resp ProductDetailResponse
	if err := m.call(ctx, cfg, "/product/detail", map[string]any{"product_id": productID}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("douyin: product %d not found", productID)
	}
	item := resp.Data
	product := integration.Product{
		Image:            item.Img,
		Title:            item.Name,
		ProductID:        strconv.FormatInt(item.ProductID, 10),
		VariantID:        req.VariantID,
		Price:            integration.FromMinorUnits(item.DiscountPrice),
		AvailableForSale: item.Status == 0, // 0 = online
	}
	for _, sku := range item.SkuList {
		if strconv.FormatInt(sku.SkuID, 10) != req.VariantID {
			continue
		}
		product.Price = integration.FromMinorUnits(sku.Price)
		stock := int(sku.StockNum)
		product.Inventory = &stock
		product.AvailableForSale = product.AvailableForSale && sku.StockNum > 0
	}
	return product, nil
}

func (m *Module) updateProduct(ctx context.Context, pc integration.PlatformConfig, args json.RawMessage) (any, error) {
	cfg, err := ConfigFromPlatform(pc)
	if err != nil {
		return nil, err
	}
	var req integration.UpdateProductRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("douyin: decode update request: %w", err)
	}
	if req.Inventory == nil {
		// Price edits require the full product edit API
		return map[string]bool{"updated": false}, nil
	}
	skuID, err := strconv.ParseInt(req.VariantID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: sku %q", ErrInvalidID, req.VariantID)
	}
	params := map[string]any{
		"sku_id":      skuID,
		"stock_num":   *req.Inventory,
		"incremental": false,
	}
	var resp StockUpdateResponse
	if err := m.call(ctx, cfg, "/sku/syncStock", params, &resp); err != nil {
		return nil, err
	}
	return map[string]bool{"updated": true}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

type apiResponse interface {
	isSuccess() (bool, int, string)
}

func (r *Response) isSuccess() (bool, int, string) {
	return r.IsSuccess(), r.ErrNo, r.Message
}

// call performs a signed API request and decodes the response into out
func (m *Module) call(ctx context.Context, cfg *Config, method string, params map[string]any, out apiResponse) error {
	body, err := m.doRequest(ctx, cfg, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("douyin: failed to parse response: %w", err)
	}
	if ok, errNo, msg := out.isSuccess(); !ok {
		return &APIError{Method: method, ErrNo: errNo, Message: msg}
	}
	return nil
}

// doRequest performs an HTTP request to Douyin API
func (m *Module) doRequest(ctx context.Context, cfg *Config, method string, params map[string]any) ([]byte, error) {
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to marshal params: %w", err)
	}

	timestamp := strconv.FormatInt(m.now().Unix(), 10)
	sign := cfg.Sign(method, string(paramJSON), timestamp, apiVersion)

	requestBody := map[string]any{
		"app_key":      cfg.AppKey,
		"access_token": cfg.AccessToken,
		"method":       method,
		"param_json":   string(paramJSON),
		"timestamp":    timestamp,
		"v":            apiVersion,
		"sign":         sign,
		"sign_method":  "hmac-sha256",
	}
	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+method, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("douyin: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	return body, nil
}

// convertOrder converts a Douyin order to the storefront order shape
func convertOrder(order *Order) integration.ExternalOrder {
	ext := integration.ExternalOrder{
		OrderID:       order.OrderID,
		OrderName:     order.OrderID,
		Currency:      currencyCNY,
		Country:       countryCN,
		SubTotal:      integration.FromMinorUnits(order.OrderAmount),
		Shipping:      integration.FromMinorUnits(order.PostAmount),
		TotalDiscount: integration.FromMinorUnits(order.CouponAmount),
		TotalTax:      integration.FromMinorUnits(order.TaxAmount),
		TotalPrice:    integration.FromMinorUnits(order.PayAmount),
		LineItems:     make([]integration.ExternalLineItem, 0, len(order.SkuOrderList)),
	}

	if r := order.PostReceiver; r != nil {
		ext.FirstName = r.Name
		ext.Phone = r.Phone
		ext.Province = r.Province
		ext.City = r.City
		ext.Address1 = strings.TrimSpace(r.Street + " " + r.Detail)
		ext.Address2 = r.Town
		ext.Zip = r.PostCode
	}

	for _, item := range order.SkuOrderList {
		// unit price from the line total, guarding zero quantities
		unitPrice := integration.FromMinorUnits(0)
		if item.ItemNum > 0 {
			unitPrice = integration.FromMinorUnits(item.OriginAmount / int64(item.ItemNum))
		}
		ext.LineItems = append(ext.LineItems, integration.ExternalLineItem{
			LineItemID: item.SkuOrderID,
			Name:       item.ProductName,
			ProductID:  strconv.FormatInt(item.ProductID, 10),
			VariantID:  strconv.FormatInt(item.SkuID, 10),
			Quantity:   item.ItemNum,
			Price:      unitPrice,
			Image:      item.ProductPic,
		})
	}
	return ext
}

// mapShippingCompanyToCode maps common shipping company names to Douyin codes
func mapShippingCompanyToCode(company string) string {
	companyMap := map[string]string{
		"顺丰":   "shunfeng",
		"顺丰速运": "shunfeng",
		"圆通":   "yuantong",
		"中通":   "zhongtong",
		"申通":   "shentong",
		"韵达":   "yunda",
		"邮政":   "ems",
		"EMS":  "ems",
		"京东":   "jd",
		"京东物流": "jd",
		"德邦":   "debangkuaidi",
		"极兔":   "jtexpress",

		"SF Express":  "shunfeng",
		"UPS":         "ups",
		"FedEx":       "fedex",
		"DHL Express": "dhl",
	}

	if code, ok := companyMap[company]; ok {
		return code
	}
	upper := strings.ToUpper(company)
	for name, code := range companyMap {
		if strings.Contains(upper, strings.ToUpper(name)) {
			return code
		}
	}
	return "other"
}
