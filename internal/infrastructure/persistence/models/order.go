package models

import (
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate. Customer,
// totals and intents are flattened into columns.
type OrderModel struct {
	OwnedAggregateModel
	ShopID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_shop_external,priority:1,where:external_order_id <> ''"`
	ExternalOrderID string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_shop_external,priority:2,where:external_order_id <> ''"`
	OrderName       string          `gorm:"type:varchar(255)"`
	Email           string          `gorm:"type:varchar(255)"`
	FirstName       string          `gorm:"type:varchar(100)"`
	LastName        string          `gorm:"type:varchar(100)"`
	Address1        string          `gorm:"type:varchar(255)"`
	Address2        string          `gorm:"type:varchar(255)"`
	City            string          `gorm:"type:varchar(100)"`
	Province        string          `gorm:"type:varchar(100)"`
	Zip             string          `gorm:"type:varchar(20)"`
	Country         string          `gorm:"type:varchar(100)"`
	Phone           string          `gorm:"type:varchar(50)"`
	Currency        string          `gorm:"type:varchar(10)"`
	SubTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Shipping        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LinkOrder       bool            `gorm:"not null;default:false"`
	MatchOrder      bool            `gorm:"not null;default:false"`
	ProcessOrder    bool            `gorm:"not null;default:false"`
	Status          order.Status    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Error           string          `gorm:"type:text"`

	LineItems       []LineItemModel       `gorm:"foreignKey:OrderID"`
	CartItems       []CartItemModel       `gorm:"foreignKey:OrderID"`
	TrackingDetails []TrackingDetailModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		ShopID:          m.ShopID,
		ExternalOrderID: m.ExternalOrderID,
		OrderName:       m.OrderName,
		Customer: order.Customer{
			Email:     m.Email,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Address1:  m.Address1,
			Address2:  m.Address2,
			City:      m.City,
			Province:  m.Province,
			Zip:       m.Zip,
			Country:   m.Country,
			Phone:     m.Phone,
		},
		Totals: order.Totals{
			Currency:      m.Currency,
			SubTotal:      m.SubTotal,
			Shipping:      m.Shipping,
			TotalTax:      m.TotalTax,
			TotalDiscount: m.TotalDiscount,
			TotalPrice:    m.TotalPrice,
		},
		Intents: order.Intents{
			LinkOrder:    m.LinkOrder,
			MatchOrder:   m.MatchOrder,
			ProcessOrder: m.ProcessOrder,
		},
		Status:          m.Status,
		Error:           m.Error,
		LineItems:       make([]order.LineItem, len(m.LineItems)),
		CartItems:       make([]order.CartItem, len(m.CartItems)),
		TrackingDetails: make([]order.TrackingDetail, len(m.TrackingDetails)),
	}
	m.PopulateOwnedAggregateRoot(&o.OwnedAggregateRoot)
	for i := range m.LineItems {
		o.LineItems[i] = *m.LineItems[i].ToDomain()
	}
	for i := range m.CartItems {
		o.CartItems[i] = *m.CartItems[i].ToDomain()
	}
	for i := range m.TrackingDetails {
		o.TrackingDetails[i] = *m.TrackingDetails[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order, including
// its line items and cart items. Tracking details are written separately.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainOwnedAggregateRoot(o.OwnedAggregateRoot)
	m.ShopID = o.ShopID
	m.ExternalOrderID = o.ExternalOrderID
	m.OrderName = o.OrderName
	m.Email = o.Email
	m.FirstName = o.FirstName
	m.LastName = o.LastName
	m.Address1 = o.Address1
	m.Address2 = o.Address2
	m.City = o.City
	m.Province = o.Province
	m.Zip = o.Zip
	m.Country = o.Country
	m.Phone = o.Phone
	m.Currency = o.Currency
	m.SubTotal = o.SubTotal
	m.Shipping = o.Shipping
	m.TotalTax = o.TotalTax
	m.TotalDiscount = o.TotalDiscount
	m.TotalPrice = o.TotalPrice
	m.LinkOrder = o.LinkOrder
	m.MatchOrder = o.MatchOrder
	m.ProcessOrder = o.ProcessOrder
	m.Status = o.Status
	m.Error = o.Error

	m.LineItems = make([]LineItemModel, len(o.LineItems))
	for i := range o.LineItems {
		m.LineItems[i].FromDomain(&o.LineItems[i])
	}
	m.CartItems = make([]CartItemModel, len(o.CartItems))
	for i := range o.CartItems {
		m.CartItems[i].FromDomain(&o.CartItems[i])
	}
}

// OrderModelFromDomain creates a new persistence model from domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// LineItemModel is the persistence model for an order line item
type LineItemModel struct {
	BaseModel
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalLineItemID string          `gorm:"type:varchar(255)"`
	Name               string          `gorm:"type:varchar(500)"`
	ProductID          string          `gorm:"type:varchar(255);not null"`
	VariantID          string          `gorm:"type:varchar(255)"`
	Quantity           int             `gorm:"not null"`
	Price              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Image              string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() *order.LineItem {
	return &order.LineItem{
		BaseEntity:         m.BaseModel.ToDomain(),
		OrderID:            m.OrderID,
		ExternalLineItemID: m.ExternalLineItemID,
		Name:               m.Name,
		ProductID:          m.ProductID,
		VariantID:          m.VariantID,
		Quantity:           m.Quantity,
		Price:              m.Price,
		Image:              m.Image,
	}
}

// FromDomain populates the persistence model from a domain LineItem
func (m *LineItemModel) FromDomain(li *order.LineItem) {
	m.FromDomainBaseEntity(li.BaseEntity)
	m.OrderID = li.OrderID
	m.ExternalLineItemID = li.ExternalLineItemID
	m.Name = li.Name
	m.ProductID = li.ProductID
	m.VariantID = li.VariantID
	m.Quantity = li.Quantity
	m.Price = li.Price
	m.Image = li.Image
}

// CartItemModel is the persistence model for a cart item
type CartItemModel struct {
	BaseModel
	OrderID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	ChannelID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	LineItemID *uuid.UUID           `gorm:"type:uuid"`
	Name       string               `gorm:"type:varchar(500)"`
	ProductID  string               `gorm:"type:varchar(255);not null"`
	VariantID  string               `gorm:"type:varchar(255)"`
	Quantity   int                  `gorm:"not null"`
	Price      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Image      string               `gorm:"type:text"`
	URL        string               `gorm:"column:url;type:text"`
	PurchaseID string               `gorm:"type:varchar(255);index"`
	Error      string               `gorm:"type:text"`
	Status     order.CartItemStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem
func (m *CartItemModel) ToDomain() *order.CartItem {
	return &order.CartItem{
		BaseEntity: m.BaseModel.ToDomain(),
		OrderID:    m.OrderID,
		ChannelID:  m.ChannelID,
		LineItemID: m.LineItemID,
		Name:       m.Name,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Quantity:   m.Quantity,
		Price:      m.Price,
		Image:      m.Image,
		URL:        m.URL,
		PurchaseID: m.PurchaseID,
		Error:      m.Error,
		Status:     m.Status,
	}
}

// FromDomain populates the persistence model from a domain CartItem
func (m *CartItemModel) FromDomain(c *order.CartItem) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.OrderID = c.OrderID
	m.ChannelID = c.ChannelID
	m.LineItemID = c.LineItemID
	m.Name = c.Name
	m.ProductID = c.ProductID
	m.VariantID = c.VariantID
	m.Quantity = c.Quantity
	m.Price = c.Price
	m.Image = c.Image
	m.URL = c.URL
	m.PurchaseID = c.PurchaseID
	m.Error = c.Error
	m.Status = c.Status
}

// CartItemModelFromDomain creates a new persistence model from domain CartItem
func CartItemModelFromDomain(c *order.CartItem) *CartItemModel {
	m := &CartItemModel{}
	m.FromDomain(c)
	return m
}

// TrackingDetailModel is the persistence model for shipment tracking
type TrackingDetailModel struct {
	BaseModel
	OrderID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	PurchaseID      string                  `gorm:"type:varchar(255);index"`
	TrackingCompany string                  `gorm:"type:varchar(100)"`
	TrackingNumber  string                  `gorm:"type:varchar(255);not null"`
	CartItems       []CartItemTrackingModel `gorm:"foreignKey:TrackingDetailID"`
}

// TableName returns the table name for GORM
func (TrackingDetailModel) TableName() string {
	return "tracking_details"
}

// ToDomain converts the persistence model to a domain TrackingDetail
func (m *TrackingDetailModel) ToDomain() *order.TrackingDetail {
	ids := make([]uuid.UUID, len(m.CartItems))
	for i, link := range m.CartItems {
		ids[i] = link.CartItemID
	}
	return &order.TrackingDetail{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderID:         m.OrderID,
		PurchaseID:      m.PurchaseID,
		TrackingCompany: m.TrackingCompany,
		TrackingNumber:  m.TrackingNumber,
		CartItemIDs:     ids,
	}
}

// FromDomain populates the persistence model from a domain TrackingDetail
func (m *TrackingDetailModel) FromDomain(td *order.TrackingDetail) {
	m.FromDomainBaseEntity(td.BaseEntity)
	m.OrderID = td.OrderID
	m.PurchaseID = td.PurchaseID
	m.TrackingCompany = td.TrackingCompany
	m.TrackingNumber = td.TrackingNumber
	m.CartItems = make([]CartItemTrackingModel, len(td.CartItemIDs))
	for i, id := range td.CartItemIDs {
		m.CartItems[i] = CartItemTrackingModel{TrackingDetailID: td.ID, CartItemID: id}
	}
}

// CartItemTrackingModel joins tracking details to the cart items they ship
type CartItemTrackingModel struct {
	TrackingDetailID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CartItemID       uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (CartItemTrackingModel) TableName() string {
	return "cart_item_tracking_details"
}
