package models

import (
	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/google/uuid"
)

// PlatformModel is the persistence model for the Platform aggregate.
// The operation table is stored as a JSON object keyed by operation name.
type PlatformModel struct {
	OwnedAggregateModel
	Name       string                           `gorm:"type:varchar(100);not null"`
	Kind       integration.PlatformKind         `gorm:"type:varchar(20);not null;index"`
	Operations map[integration.Operation]string `gorm:"type:jsonb;serializer:json"`
	AppKey     string                           `gorm:"type:varchar(255)"`
	AppSecret  string                           `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (PlatformModel) TableName() string {
	return "platforms"
}

// ToDomain converts the persistence model to a domain Platform
func (m *PlatformModel) ToDomain() *integration.Platform {
	p := &integration.Platform{
		Name:       m.Name,
		Kind:       m.Kind,
		Operations: m.Operations,
		AppKey:     m.AppKey,
		AppSecret:  m.AppSecret,
	}
	if p.Operations == nil {
		p.Operations = map[integration.Operation]string{}
	}
	m.PopulateOwnedAggregateRoot(&p.OwnedAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Platform
func (m *PlatformModel) FromDomain(p *integration.Platform) {
	m.FromDomainOwnedAggregateRoot(p.OwnedAggregateRoot)
	m.Name = p.Name
	m.Kind = p.Kind
	m.Operations = p.Operations
	m.AppKey = p.AppKey
	m.AppSecret = p.AppSecret
}

// PlatformModelFromDomain creates a new persistence model from domain Platform
func PlatformModelFromDomain(p *integration.Platform) *PlatformModel {
	m := &PlatformModel{}
	m.FromDomain(p)
	return m
}

// ShopModel is the persistence model for the Shop aggregate
type ShopModel struct {
	OwnedAggregateModel
	Name        string               `gorm:"type:varchar(200);not null"`
	Domain      string               `gorm:"type:varchar(255)"`
	AccessToken string               `gorm:"type:text"`
	LinkMode    integration.LinkMode `gorm:"type:varchar(20);not null;default:'sequential'"`
	Metadata    map[string]string    `gorm:"type:jsonb;serializer:json"`
	PlatformID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Platform    *PlatformModel       `gorm:"foreignKey:PlatformID"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop
func (m *ShopModel) ToDomain() *integration.Shop {
	s := &integration.Shop{
		Name:        m.Name,
		Domain:      m.Domain,
		AccessToken: m.AccessToken,
		LinkMode:    m.LinkMode,
		Metadata:    m.Metadata,
		PlatformID:  m.PlatformID,
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	if m.Platform != nil {
		s.Platform = m.Platform.ToDomain()
	}
	m.PopulateOwnedAggregateRoot(&s.OwnedAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Shop. The
// platform association is not copied; it is written through PlatformID.
func (m *ShopModel) FromDomain(s *integration.Shop) {
	m.FromDomainOwnedAggregateRoot(s.OwnedAggregateRoot)
	m.Name = s.Name
	m.Domain = s.Domain
	m.AccessToken = s.AccessToken
	m.LinkMode = s.LinkMode
	m.Metadata = s.Metadata
	m.PlatformID = s.PlatformID
}

// ShopModelFromDomain creates a new persistence model from domain Shop
func ShopModelFromDomain(s *integration.Shop) *ShopModel {
	m := &ShopModel{}
	m.FromDomain(s)
	return m
}

// ChannelModel is the persistence model for the Channel aggregate
type ChannelModel struct {
	OwnedAggregateModel
	Name        string            `gorm:"type:varchar(200);not null"`
	Domain      string            `gorm:"type:varchar(255)"`
	AccessToken string            `gorm:"type:text"`
	Metadata    map[string]string `gorm:"type:jsonb;serializer:json"`
	PlatformID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Platform    *PlatformModel    `gorm:"foreignKey:PlatformID"`
}

// TableName returns the table name for GORM
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts the persistence model to a domain Channel
func (m *ChannelModel) ToDomain() *integration.Channel {
	c := &integration.Channel{
		Name:        m.Name,
		Domain:      m.Domain,
		AccessToken: m.AccessToken,
		Metadata:    m.Metadata,
		PlatformID:  m.PlatformID,
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	if m.Platform != nil {
		c.Platform = m.Platform.ToDomain()
	}
	m.PopulateOwnedAggregateRoot(&c.OwnedAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Channel
func (m *ChannelModel) FromDomain(c *integration.Channel) {
	m.FromDomainOwnedAggregateRoot(c.OwnedAggregateRoot)
	m.Name = c.Name
	m.Domain = c.Domain
	m.AccessToken = c.AccessToken
	m.Metadata = c.Metadata
	m.PlatformID = c.PlatformID
}

// ChannelModelFromDomain creates a new persistence model from domain Channel
func ChannelModelFromDomain(c *integration.Channel) *ChannelModel {
	m := &ChannelModel{}
	m.FromDomain(c)
	return m
}
