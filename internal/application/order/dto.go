package order

import (
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Order DTOs ====================

// LineItemInput is one line item of a new order
type LineItemInput struct {
	ExternalLineItemID string          `json:"external_line_item_id" binding:"max=255"`
	Name               string          `json:"name" binding:"max=500"`
	ProductID          string          `json:"product_id" binding:"required,max=255"`
	VariantID          string          `json:"variant_id" binding:"max=255"`
	Quantity           int             `json:"quantity" binding:"required,min=1"`
	Price              decimal.Decimal `json:"price"`
	Image              string          `json:"image" binding:"max=2000"`
}

// CartItemInput is a manually assembled cart item
type CartItemInput struct {
	ChannelID  uuid.UUID       `json:"channel_id" binding:"required"`
	LineItemID *uuid.UUID      `json:"line_item_id"`
	Name       string          `json:"name" binding:"max=500"`
	ProductID  string          `json:"product_id" binding:"required,max=255"`
	VariantID  string          `json:"variant_id" binding:"max=255"`
	Quantity   int             `json:"quantity" binding:"required,min=1"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image" binding:"max=2000"`
}

// CreateOrderRequest creates an order on a shop. CartItems are only used by
// the manual route.
type CreateOrderRequest struct {
	ShopID          uuid.UUID       `json:"shop_id" binding:"required"`
	ExternalOrderID string          `json:"external_order_id" binding:"max=255"`
	OrderName       string          `json:"order_name" binding:"max=255"`
	Email           string          `json:"email" binding:"omitempty,email,max=255"`
	FirstName       string          `json:"first_name" binding:"max=255"`
	LastName        string          `json:"last_name" binding:"max=255"`
	Address1        string          `json:"address1" binding:"max=500"`
	Address2        string          `json:"address2" binding:"max=500"`
	City            string          `json:"city" binding:"max=255"`
	Province        string          `json:"province" binding:"max=255"`
	Zip             string          `json:"zip" binding:"max=50"`
	Country         string          `json:"country" binding:"max=100"`
	Phone           string          `json:"phone" binding:"max=50"`
	Currency        string          `json:"currency" binding:"max=10"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Shipping        decimal.Decimal `json:"shipping"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	LineItems       []LineItemInput `json:"line_items" binding:"dive"`
	CartItems       []CartItemInput `json:"cart_items" binding:"dive"`
	LinkOrder       bool            `json:"link_order"`
	MatchOrder      bool            `json:"match_order"`
	ProcessOrder    bool            `json:"process_order"`
}

// FromExternalOrder builds a create request from a storefront order
func FromExternalOrder(shopID uuid.UUID, ext integration.ExternalOrder, intents order.Intents) CreateOrderRequest {
	req := CreateOrderRequest{
		ShopID:          shopID,
		ExternalOrderID: ext.OrderID,
		OrderName:       ext.OrderName,
		Email:           ext.Email,
		FirstName:       ext.FirstName,
		LastName:        ext.LastName,
		Address1:        ext.Address1,
		Address2:        ext.Address2,
		City:            ext.City,
		Province:        ext.Province,
		Zip:             ext.Zip,
		Country:         ext.Country,
		Phone:           ext.Phone,
		Currency:        ext.Currency,
		SubTotal:        ext.SubTotal,
		Shipping:        ext.Shipping,
		TotalTax:        ext.TotalTax,
		TotalDiscount:   ext.TotalDiscount,
		TotalPrice:      ext.TotalPrice,
		LineItems:       make([]LineItemInput, len(ext.LineItems)),
		LinkOrder:       intents.LinkOrder,
		MatchOrder:      intents.MatchOrder,
		ProcessOrder:    intents.ProcessOrder,
	}
	for i, li := range ext.LineItems {
		req.LineItems[i] = LineItemInput{
			ExternalLineItemID: li.LineItemID,
			Name:               li.Name,
			ProductID:          li.ProductID,
			VariantID:          li.VariantID,
			Quantity:           li.Quantity,
			Price:              li.Price,
			Image:              li.Image,
		}
	}
	return req
}

func (r CreateOrderRequest) customer() order.Customer {
	return order.Customer{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address1:  r.Address1,
		Address2:  r.Address2,
		City:      r.City,
		Province:  r.Province,
		Zip:       r.Zip,
		Country:   r.Country,
		Phone:     r.Phone,
	}
}

func (r CreateOrderRequest) totals() order.Totals {
	return order.Totals{
		Currency:      r.Currency,
		SubTotal:      r.SubTotal,
		Shipping:      r.Shipping,
		TotalTax:      r.TotalTax,
		TotalDiscount: r.TotalDiscount,
		TotalPrice:    r.TotalPrice,
	}
}

func (r CreateOrderRequest) intents() order.Intents {
	return order.Intents{LinkOrder: r.LinkOrder, MatchOrder: r.MatchOrder, ProcessOrder: r.ProcessOrder}
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search   string     `form:"search"`
	ShopID   *uuid.UUID `form:"shop_id"`
	Status   string     `form:"status" binding:"omitempty,oneof=PENDING AWAITING COMPLETE CANCELLED"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ExternalLineItemID string          `json:"external_line_item_id,omitempty"`
	Name               string          `json:"name"`
	ProductID          string          `json:"product_id"`
	VariantID          string          `json:"variant_id"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Image              string          `json:"image,omitempty"`
}

// CartItemResponse represents a cart item in API responses
type CartItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ChannelID  uuid.UUID       `json:"channel_id"`
	LineItemID *uuid.UUID      `json:"line_item_id,omitempty"`
	Name       string          `json:"name"`
	ProductID  string          `json:"product_id"`
	VariantID  string          `json:"variant_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image,omitempty"`
	URL        string          `json:"url,omitempty"`
	PurchaseID string          `json:"purchase_id,omitempty"`
	Error      string          `json:"error,omitempty"`
	Status     string          `json:"status"`
}

// TrackingResponse represents a tracking detail in API responses
type TrackingResponse struct {
	ID              uuid.UUID   `json:"id"`
	PurchaseID      string      `json:"purchase_id"`
	TrackingCompany string      `json:"tracking_company"`
	TrackingNumber  string      `json:"tracking_number"`
	CartItemIDs     []uuid.UUID `json:"cart_item_ids"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID          `json:"id"`
	ShopID          uuid.UUID          `json:"shop_id"`
	ExternalOrderID string             `json:"external_order_id"`
	OrderName       string             `json:"order_name"`
	Email           string             `json:"email"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Address1        string             `json:"address1"`
	Address2        string             `json:"address2,omitempty"`
	City            string             `json:"city"`
	Province        string             `json:"province"`
	Zip             string             `json:"zip"`
	Country         string             `json:"country"`
	Phone           string             `json:"phone,omitempty"`
	Currency        string             `json:"currency"`
	SubTotal        decimal.Decimal    `json:"sub_total"`
	Shipping        decimal.Decimal    `json:"shipping"`
	TotalTax        decimal.Decimal    `json:"total_tax"`
	TotalDiscount   decimal.Decimal    `json:"total_discount"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	LinkOrder       bool               `json:"link_order"`
	MatchOrder      bool               `json:"match_order"`
	ProcessOrder    bool               `json:"process_order"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
	LineItems       []LineItemResponse `json:"line_items"`
	CartItems       []CartItemResponse `json:"cart_items"`
	Tracking        []TrackingResponse `json:"tracking"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// OrderListItemResponse represents an order in list responses (less detail)
type OrderListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ShopID          uuid.UUID       `json:"shop_id"`
	ExternalOrderID string          `json:"external_order_id"`
	OrderName       string          `json:"order_name"`
	Email           string          `json:"email"`
	Currency        string          `json:"currency"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          string          `json:"status"`
	Error           string          `json:"error,omitempty"`
	CartItemCount   int             `json:"cart_item_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PlacementOutcomeResponse is one placement attempt in API responses
type PlacementOutcomeResponse struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	ChannelID  uuid.UUID `json:"channel_id"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	URL        string    `json:"url,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// PlacementResponse summarises a placement run
type PlacementResponse struct {
	OrderID  uuid.UUID                  `json:"order_id"`
	Status   string                     `json:"status"`
	Placed   int                        `json:"placed"`
	Failed   int                        `json:"failed"`
	Outcomes []PlacementOutcomeResponse `json:"outcomes"`
}

// ToOrderResponse converts an order to its API view
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		ShopID:          o.ShopID,
		ExternalOrderID: o.ExternalOrderID,
		OrderName:       o.OrderName,
		Email:           o.Email,
		FirstName:       o.FirstName,
		LastName:        o.LastName,
		Address1:        o.Address1,
		Address2:        o.Address2,
		City:            o.City,
		Province:        o.Province,
		Zip:             o.Zip,
		Country:         o.Country,
		Phone:           o.Phone,
		Currency:        o.Currency,
		SubTotal:        o.SubTotal,
		Shipping:        o.Shipping,
		TotalTax:        o.TotalTax,
		TotalDiscount:   o.TotalDiscount,
		TotalPrice:      o.TotalPrice,
		LinkOrder:       o.LinkOrder,
		MatchOrder:      o.MatchOrder,
		ProcessOrder:    o.ProcessOrder,
		Status:          o.Status.String(),
		Error:           o.Error,
		LineItems:       make([]LineItemResponse, len(o.LineItems)),
		CartItems:       make([]CartItemResponse, len(o.CartItems)),
		Tracking:        make([]TrackingResponse, len(o.TrackingDetails)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for i := range o.LineItems {
		resp.LineItems[i] = ToLineItemResponse(&o.LineItems[i])
	}
	for i := range o.CartItems {
		resp.CartItems[i] = ToCartItemResponse(&o.CartItems[i])
	}
	for i, td := range o.TrackingDetails {
		resp.Tracking[i] = TrackingResponse{
			ID:              td.ID,
			PurchaseID:      td.PurchaseID,
			TrackingCompany: td.TrackingCompany,
			TrackingNumber:  td.TrackingNumber,
			CartItemIDs:     td.CartItemIDs,
		}
	}
	return resp
}

// ToOrderListItemResponse converts an order to its list view
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:              o.ID,
		ShopID:          o.ShopID,
		ExternalOrderID: o.ExternalOrderID,
		OrderName:       o.OrderName,
		Email:           o.Email,
		Currency:        o.Currency,
		TotalPrice:      o.TotalPrice,
		Status:          o.Status.String(),
		Error:           o.Error,
		CartItemCount:   len(o.CartItems),
		CreatedAt:       o.CreatedAt,
	}
}

// ToLineItemResponse converts a line item to its API view
func ToLineItemResponse(li *order.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:                 li.ID,
		ExternalLineItemID: li.ExternalLineItemID,
		Name:               li.Name,
		ProductID:          li.ProductID,
		VariantID:          li.VariantID,
		Quantity:           li.Quantity,
		Price:              li.Price,
		Image:              li.Image,
	}
}

// ToCartItemResponse converts a cart item to its API view
func ToCartItemResponse(c *order.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:         c.ID,
		ChannelID:  c.ChannelID,
		LineItemID: c.LineItemID,
		Name:       c.Name,
		ProductID:  c.ProductID,
		VariantID:  c.VariantID,
		Quantity:   c.Quantity,
		Price:      c.Price,
		Image:      c.Image,
		URL:        c.URL,
		PurchaseID: c.PurchaseID,
		Error:      c.Error,
		Status:     string(c.Status),
	}
}

// ToPlacementResponse converts a placement result to its API view
func ToPlacementResponse(r *order.PlacementResult) PlacementResponse {
	resp := PlacementResponse{
		OrderID:  r.OrderID,
		Status:   r.Status.String(),
		Placed:   r.Placed(),
		Failed:   r.Failed(),
		Outcomes: make([]PlacementOutcomeResponse, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		resp.Outcomes[i] = PlacementOutcomeResponse(o)
	}
	return resp
}
