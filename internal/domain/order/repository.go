package order

import (
	"context"
	"time"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	ShopID *uuid.UUID
	Status Status
}

// OrderRepository persists orders. Loaded orders carry their line items,
// cart items and tracking details.
type OrderRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByExternalID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*Order, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter Filter) ([]Order, int64, error)
	// FindRetryCandidates returns ids of PENDING orders flagged ProcessOrder
	// that still have unplaced cart items and were last updated before cutoff
	FindRetryCandidates(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	// Create inserts the order with its line items and cart items
	Create(ctx context.Context, o *Order) error
	// Update writes the order's own columns (status, error, intents)
	Update(ctx context.Context, o *Order) error
}

// CartItemRepository persists cart items, the only rows placement writes
type CartItemRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]CartItem, error)
	// FindByPurchaseID returns the cart items placed on channelID under
	// purchaseID. Purchase ids are only unique per channel.
	FindByPurchaseID(ctx context.Context, channelID uuid.UUID, purchaseID string) ([]CartItem, error)
	Create(ctx context.Context, items ...*CartItem) error
	// Update writes url, purchase id, error and status
	Update(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, orderID, id uuid.UUID) error
}

// TrackingRepository persists tracking details and their cart item links
type TrackingRepository interface {
	Create(ctx context.Context, td *TrackingDetail) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]TrackingDetail, error)
}

// Locker serialises work on a single order. Unlock must be called exactly
// once when Lock succeeds.
type Locker interface {
	Lock(ctx context.Context, orderID uuid.UUID) (unlock func(), err error)
}
