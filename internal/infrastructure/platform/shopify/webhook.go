package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rafcin/openship/internal/domain/integration"
)

const (
	// HMACHeader carries the base64 HMAC-SHA256 of the raw webhook body
	HMACHeader = "X-Shopify-Hmac-Sha256"
	// WebhookIDHeader carries the delivery id used for deduplication
	WebhookIDHeader = "X-Shopify-Webhook-Id"
)

// topicMapping maps ingress topics to Shopify webhook topics
var topicMapping = map[integration.WebhookTopic]string{
	integration.TopicOrderCreated:      "orders/create",
	integration.TopicOrderCancelled:    "orders/cancelled",
	integration.TopicTrackingCreated:   "fulfillments/create",
	integration.TopicPurchaseCancelled: "orders/cancelled",
}

// Sign returns the signature Shopify sends for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// verifyWebhook decodes the handler argument and checks its HMAC
func verifyWebhook(pc integration.PlatformConfig, args json.RawMessage) ([]byte, error) {
	var req integration.WebhookRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("shopify: decode webhook request: %w", err)
	}
	if pc.AppSecret == "" {
		return nil, &integration.WebhookSignatureError{Platform: ModuleName, Reason: "no app secret configured"}
	}
	got := req.Header(HMACHeader)
	if got == "" {
		return nil, &integration.WebhookSignatureError{Platform: ModuleName, Reason: "missing " + HMACHeader}
	}
	want := Sign(pc.AppSecret, req.Body)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return nil, &integration.WebhookSignatureError{Platform: ModuleName, Reason: "hmac mismatch"}
	}
	return req.Body, nil
}

type fulfillmentPayload struct {
	OrderID         int64    `json:"order_id"`
	TrackingCompany string   `json:"tracking_company"`
	TrackingNumber  string   `json:"tracking_number"`
	TrackingNumbers []string `json:"tracking_numbers"`
}

func decodeOrder(body []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("shopify: decode order payload: %w", err)
	}
	if o.ID == 0 {
		return nil, fmt.Errorf("shopify: order payload has no id")
	}
	return &o, nil
}

// convertOrder converts a Shopify order to the storefront order shape
func convertOrder(o *Order) integration.ExternalOrder {
	ext := integration.ExternalOrder{
		OrderID:       strconv.FormatInt(o.ID, 10),
		OrderName:     o.Name,
		Email:         o.Email,
		Currency:      o.Currency,
		SubTotal:      o.SubtotalPrice,
		TotalTax:      o.TotalTax,
		TotalDiscount: o.TotalDiscounts,
		TotalPrice:    o.TotalPrice,
		LineItems:     make([]integration.ExternalLineItem, 0, len(o.LineItems)),
	}
	if o.TotalShippingPrice != nil {
		ext.Shipping = o.TotalShippingPrice.ShopMoney.Amount
	}
	if a := o.ShippingAddress; a != nil {
		ext.FirstName = a.FirstName
		ext.LastName = a.LastName
		ext.Address1 = a.Address1
		ext.Address2 = a.Address2
		ext.City = a.City
		ext.Province = a.Province
		ext.Zip = a.Zip
		ext.Country = a.Country
		ext.Phone = a.Phone
	}
	for _, li := range o.LineItems {
		ext.LineItems = append(ext.LineItems, integration.ExternalLineItem{
			LineItemID: strconv.FormatInt(li.ID, 10),
			Name:       li.Title,
			ProductID:  strconv.FormatInt(li.ProductID, 10),
			VariantID:  strconv.FormatInt(li.VariantID, 10),
			Quantity:   li.Quantity,
			Price:      li.Price,
		})
	}
	return ext
}

// parseID accepts a numeric id or a GraphQL gid
func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
