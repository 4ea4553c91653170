package integration

import (
	"context"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

// PlatformRepository persists platforms
type PlatformRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Platform, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, kind PlatformKind) ([]Platform, error)
	Save(ctx context.Context, p *Platform) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ShopRepository persists shops. Loaded shops carry their Platform.
type ShopRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Shop, error)
	// FindByIDUnscoped is used by webhook ingress, where the owner is not
	// known until the shop is loaded.
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*Shop, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Shop, int64, error)
	Save(ctx context.Context, shop *Shop) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ChannelRepository persists channels. Loaded channels carry their Platform.
type ChannelRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Channel, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*Channel, error)
	FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]Channel, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Channel, int64, error)
	Save(ctx context.Context, channel *Channel) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
