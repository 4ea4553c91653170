package douyin

// ---------------------------------------------------------------------------
// Common Douyin API Response Types
// ---------------------------------------------------------------------------

// Response is the base response wrapper for all Douyin API calls
type Response struct {
	// ErrNo is the error code (0 for success)
	ErrNo int `json:"err_no"`
	// Message is the error message
	Message string `json:"message"`
	// LogID is the request trace ID for debugging
	LogID string `json:"log_id,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *Response) IsSuccess() bool {
	return r.ErrNo == 0
}

// ---------------------------------------------------------------------------
// Order Related Types
// ---------------------------------------------------------------------------

// OrderListResponse is the response for order.searchList API
type OrderListResponse struct {
	Response
	Data *OrderListData `json:"data,omitempty"`
}

// OrderListData contains the order list data
type OrderListData struct {
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	List  []Order `json:"shop_order_list,omitempty"`
}

// OrderDetailResponse is the response for order.orderDetail API
type OrderDetailResponse struct {
	Response
	Data *OrderDetailData `json:"data,omitempty"`
}

// OrderDetailData contains the order detail data
type OrderDetailData struct {
	ShopOrderDetail *Order `json:"shop_order_detail,omitempty"`
}

// Order represents an order from Douyin platform. Amounts are in fen.
type Order struct {
	OrderID     string `json:"order_id"`
	ShopID      int64  `json:"shop_id"`
	OrderStatus int    `json:"order_status"`

	CreateTime int64 `json:"create_time"`
	PayTime    int64 `json:"pay_time"`

	OrderAmount  int64 `json:"order_amount"`
	PayAmount    int64 `json:"pay_amount"`
	PostAmount   int64 `json:"post_amount"`
	CouponAmount int64 `json:"coupon_amount"`
	TaxAmount    int64 `json:"tax_amount"`

	BuyerWords string `json:"buyer_words,omitempty"`

	PostReceiver *PostReceiver `json:"post_receiver,omitempty"`
	SkuOrderList []SkuOrder    `json:"sku_order_list,omitempty"`
}

// PostReceiver contains receiver/shipping address information
type PostReceiver struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Province string `json:"province"`
	City     string `json:"city"`
	Town     string `json:"town"`
	Street   string `json:"street"`
	Detail   string `json:"detail"`
	PostCode string `json:"post_code"`
}

// SkuOrder represents a SKU order item
type SkuOrder struct {
	SkuOrderID   string `json:"sku_order_id"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	SkuID        int64  `json:"sku_id"`
	ItemNum      int    `json:"item_num"`
	OriginAmount int64  `json:"origin_amount"`
	PayAmount    int64  `json:"pay_amount"`
	ProductPic   string `json:"product_pic"`
}

// ---------------------------------------------------------------------------
// Logistics Types
// ---------------------------------------------------------------------------

// ShipResponse is the response for order.logisticsAdd API
type ShipResponse struct {
	Response
	Data *ShipData `json:"data,omitempty"`
}

// ShipData contains the shipping result
type ShipData struct {
	PackID string `json:"pack_id,omitempty"`
}

// ---------------------------------------------------------------------------
// Product Types
// ---------------------------------------------------------------------------

// ProductDetailResponse is the response for product.detail API
type ProductDetailResponse struct {
	Response
	Data *Product `json:"data,omitempty"`
}

// Product represents a product from Douyin platform
type Product struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Img           string `json:"img"`
	DiscountPrice int64  `json:"discount_price"`
	Status        int    `json:"status"`
	SkuList       []Sku  `json:"spec_prices,omitempty"`
}

// Sku represents a SKU
type Sku struct {
	SkuID    int64 `json:"sku_id"`
	StockNum int64 `json:"stock_num"`
	Price    int64 `json:"price"`
}

// StockUpdateResponse is the response for sku.syncStock API
type StockUpdateResponse struct {
	Response
}

// ---------------------------------------------------------------------------
// Push Messages
// ---------------------------------------------------------------------------

// PushMessage is one entry of a message push delivery. Data holds a JSON
// encoded object whose shape depends on Tag.
type PushMessage struct {
	Tag   string `json:"tag"`
	MsgID string `json:"msg_id"`
	Data  string `json:"data"`
}

// OrderMessage is the Data payload of order tags
type OrderMessage struct {
	PID    int64   `json:"p_id"`
	SIDs   []int64 `json:"s_ids"`
	ShopID int64   `json:"shop_id"`
}

const (
	// TagOrderPaid is pushed once the buyer has paid
	TagOrderPaid = "101"
	// TagOrderCancelled is pushed when an order is cancelled
	TagOrderCancelled = "106"
)

// ---------------------------------------------------------------------------
// Order Status Constants
// ---------------------------------------------------------------------------

const (
	OrderStatusPendingPayment  = 1
	OrderStatusPendingShipment = 2
	OrderStatusShipped         = 3
	OrderStatusCompleted       = 4
	OrderStatusCancelled       = 5
)
