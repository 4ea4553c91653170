package models

import (
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/google/uuid"
)

// LinkModel is the persistence model for the Link aggregate
type LinkModel struct {
	OwnedAggregateModel
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_links_shop_rank,priority:1"`
	ChannelID uuid.UUID `gorm:"type:uuid;not null;index"`
	Filter    string    `gorm:"type:text"`
	Rank      int       `gorm:"not null;uniqueIndex:idx_links_shop_rank,priority:2"`
}

// TableName returns the table name for GORM
func (LinkModel) TableName() string {
	return "links"
}

// ToDomain converts the persistence model to a domain Link
func (m *LinkModel) ToDomain() *routing.Link {
	l := &routing.Link{
		ShopID:    m.ShopID,
		ChannelID: m.ChannelID,
		Filter:    m.Filter,
		Rank:      m.Rank,
	}
	m.PopulateOwnedAggregateRoot(&l.OwnedAggregateRoot)
	return l
}

// FromDomain populates the persistence model from a domain Link
func (m *LinkModel) FromDomain(l *routing.Link) {
	m.FromDomainOwnedAggregateRoot(l.OwnedAggregateRoot)
	m.ShopID = l.ShopID
	m.ChannelID = l.ChannelID
	m.Filter = l.Filter
	m.Rank = l.Rank
}

// LinkModelFromDomain creates a new persistence model from domain Link
func LinkModelFromDomain(l *routing.Link) *LinkModel {
	m := &LinkModel{}
	m.FromDomain(l)
	return m
}
