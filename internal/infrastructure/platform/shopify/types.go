package shopify

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Admin REST Resources
// ---------------------------------------------------------------------------

// Order is the subset of the Shopify order resource the engine reads
type Order struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Currency           string          `json:"currency"`
	SubtotalPrice      decimal.Decimal `json:"subtotal_price"`
	TotalTax           decimal.Decimal `json:"total_tax"`
	TotalDiscounts     decimal.Decimal `json:"total_discounts"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	TotalShippingPrice *PriceSet       `json:"total_shipping_price_set,omitempty"`
	ShippingAddress    *Address        `json:"shipping_address,omitempty"`
	LineItems          []LineItem      `json:"line_items"`
	OrderStatusURL     string          `json:"order_status_url,omitempty"`
	CancelledAt        *string         `json:"cancelled_at,omitempty"`
	NoteAttributes     []NoteAttribute `json:"note_attributes,omitempty"`
	FinancialStatus    string          `json:"financial_status,omitempty"`
	SendReceipt        bool            `json:"send_receipt,omitempty"`
	InventoryBehaviour string          `json:"inventory_behaviour,omitempty"`
}

// PriceSet is a money amount in shop and presentment currencies
type PriceSet struct {
	ShopMoney Money `json:"shop_money"`
}

// Money is an amount with its currency
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

// Address is a postal address
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code,omitempty"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code,omitempty"`
	Phone        string `json:"phone"`
}

// LineItem is an order line
type LineItem struct {
	ID        int64           `json:"id,omitempty"`
	Title     string          `json:"title,omitempty"`
	ProductID int64           `json:"product_id,omitempty"`
	VariantID int64           `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NoteAttribute is a free-form key/value attached to an order
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product is the product resource
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Handle   string    `json:"handle"`
	Status   string    `json:"status"`
	Image    *Image    `json:"image,omitempty"`
	Variants []Variant `json:"variants"`
}

// Image is a product image
type Image struct {
	Src string `json:"src"`
}

// Variant is a product variant
type Variant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity *int            `json:"inventory_quantity,omitempty"`
	InventoryPolicy   string          `json:"inventory_policy,omitempty"`
	InventoryItemID   int64           `json:"inventory_item_id,omitempty"`
}

// Fulfillment is a shipment of order line items
type Fulfillment struct {
	ID              int64  `json:"id,omitempty"`
	OrderID         int64  `json:"order_id"`
	TrackingCompany string `json:"tracking_company"`
	TrackingNumber  string `json:"tracking_number"`
	NotifyCustomer  bool   `json:"notify_customer,omitempty"`
}

// Webhook is a webhook subscription
type Webhook struct {
	ID      int64  `json:"id,omitempty"`
	Address string `json:"address"`
	Topic   string `json:"topic"`
	Format  string `json:"format,omitempty"`
}

// ---------------------------------------------------------------------------
// Envelopes
// ---------------------------------------------------------------------------

type orderEnvelope struct {
	Order Order `json:"order"`
}

type ordersEnvelope struct {
	Orders []Order `json:"orders"`
}

type productEnvelope struct {
	Product Product `json:"product"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

type variantEnvelope struct {
	Variant Variant `json:"variant"`
}

type fulfillmentEnvelope struct {
	Fulfillment Fulfillment `json:"fulfillment"`
}

type webhookEnvelope struct {
	Webhook Webhook `json:"webhook"`
}

type webhooksEnvelope struct {
	Webhooks []Webhook `json:"webhooks"`
}

type inventoryLevelSet struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int   `json:"available"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
