package matching

import (
	"context"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

// ShopItemRepository persists shop item fingerprints
type ShopItemRepository interface {
	// FindByTuple returns shared.ErrNotFound when no fingerprint exists
	FindByTuple(ctx context.Context, ownerID, shopID uuid.UUID, t ItemTuple) (*ShopItem, error)
	Create(ctx context.Context, item *ShopItem) error
}

// ChannelItemRepository persists channel item fingerprints
type ChannelItemRepository interface {
	// FindByTuple returns shared.ErrNotFound when no fingerprint exists
	FindByTuple(ctx context.Context, ownerID, channelID uuid.UUID, t ItemTuple) (*ChannelItem, error)
	Create(ctx context.Context, item *ChannelItem) error
	Update(ctx context.Context, item *ChannelItem) error
}

// MatchRepository persists matches with both item sets
type MatchRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Match, error)
	// FindBySignature returns shared.ErrNotFound when the owner has no match
	// with that input signature
	FindBySignature(ctx context.Context, ownerID uuid.UUID, signature string) (*Match, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Match, int64, error)
	Create(ctx context.Context, m *Match) error
	Update(ctx context.Context, m *Match) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
