// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, OwnedAggregateModel)
// - integration.go: Platform, Shop, Channel
// - order.go: Order, LineItem, CartItem, TrackingDetail
// - matching.go: ShopItem, ChannelItem, Match
// - routing.go: Link
package models

// All returns every persistence model in dependency order. The SQL
// migrations are authoritative in production; All is used for AutoMigrate in
// tests and local development.
func All() []any {
	return []any{
		&PlatformModel{},
		&ShopModel{},
		&ChannelModel{},
		&OrderModel{},
		&LineItemModel{},
		&CartItemModel{},
		&TrackingDetailModel{},
		&CartItemTrackingModel{},
		&ShopItemModel{},
		&ChannelItemModel{},
		&MatchModel{},
		&LinkModel{},
	}
}
