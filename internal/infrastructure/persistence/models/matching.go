package models

import (
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopItemModel is the persistence model for a shop item fingerprint
type ShopItemModel struct {
	BaseModel
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index:idx_shop_items_tuple,priority:1"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index:idx_shop_items_tuple,priority:2"`
	ProductID string    `gorm:"type:varchar(255);not null;index:idx_shop_items_tuple,priority:3"`
	VariantID string    `gorm:"type:varchar(255);not null;default:'';index:idx_shop_items_tuple,priority:4"`
	Quantity  int       `gorm:"not null;index:idx_shop_items_tuple,priority:5"`
}

// TableName returns the table name for GORM
func (ShopItemModel) TableName() string {
	return "shop_items"
}

// ToDomain converts the persistence model to a domain ShopItem
func (m *ShopItemModel) ToDomain() *matching.ShopItem {
	return &matching.ShopItem{
		BaseEntity: m.BaseModel.ToDomain(),
		OwnerID:    m.OwnerID,
		ShopID:     m.ShopID,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Quantity:   m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain ShopItem
func (m *ShopItemModel) FromDomain(s *matching.ShopItem) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.OwnerID = s.OwnerID
	m.ShopID = s.ShopID
	m.ProductID = s.ProductID
	m.VariantID = s.VariantID
	m.Quantity = s.Quantity
}

// ChannelItemModel is the persistence model for a channel item fingerprint
type ChannelItemModel struct {
	BaseModel
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_channel_items_tuple,priority:1"`
	ChannelID uuid.UUID       `gorm:"type:uuid;not null;index:idx_channel_items_tuple,priority:2"`
	ProductID string          `gorm:"type:varchar(255);not null;index:idx_channel_items_tuple,priority:3"`
	VariantID string          `gorm:"type:varchar(255);not null;default:'';index:idx_channel_items_tuple,priority:4"`
	Quantity  int             `gorm:"not null;index:idx_channel_items_tuple,priority:5"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Name      string          `gorm:"type:varchar(500)"`
	Image     string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ChannelItemModel) TableName() string {
	return "channel_items"
}

// ToDomain converts the persistence model to a domain ChannelItem
func (m *ChannelItemModel) ToDomain() *matching.ChannelItem {
	return &matching.ChannelItem{
		BaseEntity: m.BaseModel.ToDomain(),
		OwnerID:    m.OwnerID,
		ChannelID:  m.ChannelID,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Quantity:   m.Quantity,
		Price:      m.Price,
		Name:       m.Name,
		Image:      m.Image,
	}
}

// FromDomain populates the persistence model from a domain ChannelItem
func (m *ChannelItemModel) FromDomain(c *matching.ChannelItem) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.OwnerID = c.OwnerID
	m.ChannelID = c.ChannelID
	m.ProductID = c.ProductID
	m.VariantID = c.VariantID
	m.Quantity = c.Quantity
	m.Price = c.Price
	m.Name = c.Name
	m.Image = c.Image
}

// MatchModel is the persistence model for the Match aggregate. Both item
// sets hang off join tables so fingerprints can be shared between matches.
type MatchModel struct {
	OwnedAggregateModel
	Signature string             `gorm:"type:text;not null;index"`
	Input     []ShopItemModel    `gorm:"many2many:match_shop_items;joinForeignKey:MatchID;joinReferences:ShopItemID"`
	Output    []ChannelItemModel `gorm:"many2many:match_channel_items;joinForeignKey:MatchID;joinReferences:ChannelItemID"`
}

// TableName returns the table name for GORM
func (MatchModel) TableName() string {
	return "matches"
}

// ToDomain converts the persistence model to a domain Match
func (m *MatchModel) ToDomain() *matching.Match {
	match := &matching.Match{
		Signature: m.Signature,
		Input:     make([]matching.ShopItem, len(m.Input)),
		Output:    make([]matching.ChannelItem, len(m.Output)),
	}
	m.PopulateOwnedAggregateRoot(&match.OwnedAggregateRoot)
	for i := range m.Input {
		match.Input[i] = *m.Input[i].ToDomain()
	}
	for i := range m.Output {
		match.Output[i] = *m.Output[i].ToDomain()
	}
	return match
}

// FromDomain populates the persistence model from a domain Match
func (m *MatchModel) FromDomain(match *matching.Match) {
	m.FromDomainOwnedAggregateRoot(match.OwnedAggregateRoot)
	m.Signature = match.Signature
	m.Input = make([]ShopItemModel, len(match.Input))
	for i := range match.Input {
		m.Input[i].FromDomain(&match.Input[i])
	}
	m.Output = make([]ChannelItemModel, len(match.Output))
	for i := range match.Output {
		m.Output[i].FromDomain(&match.Output[i])
	}
}

// MatchModelFromDomain creates a new persistence model from domain Match
func MatchModelFromDomain(match *matching.Match) *MatchModel {
	m := &MatchModel{}
	m.FromDomain(match)
	return m
}
