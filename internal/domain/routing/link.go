// Package routing holds the ranked rules that send a shop's orders to
// fulfillment channels.
package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	ErrNoLinkMatched  = errors.New("routing: no link matched the order")
	ErrLinkNotFound   = errors.New("routing: link not found")
	ErrShopHasNoLinks = errors.New("routing: shop has no links")
)

// Link is a ranked rule routing a shop's orders to one channel. Filter is a
// boolean expression evaluated against the order; an empty filter matches
// every order. Rank is assigned on creation and never changes.
type Link struct {
	shared.OwnedAggregateRoot
	ShopID    uuid.UUID
	ChannelID uuid.UUID
	Filter    string
	Rank      int
}

// NewLink creates a link with the given rank
func NewLink(ownerID, shopID, channelID uuid.UUID, filter string, rank int) (*Link, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	if rank < 1 {
		return nil, shared.NewDomainError("INVALID_RANK", "Rank must be positive")
	}
	return &Link{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		ShopID:             shopID,
		ChannelID:          channelID,
		Filter:             strings.TrimSpace(filter),
		Rank:               rank,
	}, nil
}

// MatchesAll reports whether the link has no filter
func (l *Link) MatchesAll() bool {
	return l.Filter == ""
}

// Route is one routing decision: every line item of the order goes to
// ChannelID via LinkID
type Route struct {
	LinkID    uuid.UUID
	ChannelID uuid.UUID
	Rank      int
}

// PredicateEvaluator evaluates a link filter against an order projection
type PredicateEvaluator interface {
	// Compile checks that expression is a valid boolean filter
	Compile(expression string) error
	// Evaluate returns whether input satisfies expression
	Evaluate(ctx context.Context, expression string, input map[string]any) (bool, error)
}

// LinkRepository persists links
type LinkRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Link, error)
	// FindByShop returns the shop's links sorted by rank ascending
	FindByShop(ctx context.Context, ownerID, shopID uuid.UUID) ([]Link, error)
	// MaxRank returns the highest rank on the shop, or 0 when it has none
	MaxRank(ctx context.Context, shopID uuid.UUID) (int, error)
	Create(ctx context.Context, l *Link) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
