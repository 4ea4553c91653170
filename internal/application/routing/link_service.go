// Package routing evaluates a shop's ranked links against incoming orders.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// rank assignment races with concurrent creates on the same shop
const maxRankAttempts = 3

// CreateLinkRequest creates a link on a shop
type CreateLinkRequest struct {
	ShopID    uuid.UUID `json:"shop_id" binding:"required"`
	ChannelID uuid.UUID `json:"channel_id" binding:"required"`
	Filter    string    `json:"filter" binding:"max=4000"`
}

// LinkResponse is the API view of a link
type LinkResponse struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	ChannelID uuid.UUID `json:"channel_id"`
	Filter    string    `json:"filter"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
}

// ToLinkResponse converts a link to its API view
func ToLinkResponse(l *routing.Link) LinkResponse {
	return LinkResponse{
		ID:        l.ID,
		ShopID:    l.ShopID,
		ChannelID: l.ChannelID,
		Filter:    l.Filter,
		Rank:      l.Rank,
		CreatedAt: l.CreatedAt,
	}
}

// LinkService resolves routes and manages links
type LinkService struct {
	links     routing.LinkRepository
	shops     integration.ShopRepository
	channels  integration.ChannelRepository
	evaluator routing.PredicateEvaluator
}

// NewLinkService creates a new LinkService
func NewLinkService(
	links routing.LinkRepository,
	shops integration.ShopRepository,
	channels integration.ChannelRepository,
	evaluator routing.PredicateEvaluator,
) *LinkService {
	return &LinkService{
		links:     links,
		shops:     shops,
		channels:  channels,
		evaluator: evaluator,
	}
}

// Resolve returns the routes for o. In sequential mode only the first
// matching link by rank is returned; in simultaneous mode every matching
// link is. A filter that fails to compile or evaluate does not match.
//
// It returns routing.ErrShopHasNoLinks when the shop has no links at all and
// routing.ErrNoLinkMatched when none of them matched.
func (s *LinkService) Resolve(ctx context.Context, o *order.Order, shop *integration.Shop) ([]routing.Route, error) {
	links, err := s.links.FindByShop(ctx, o.OwnerID, shop.ID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, routing.ErrShopHasNoLinks
	}

	input := OrderProjection(o)
	var routes []routing.Route
	for i := range links {
		link := &links[i]
		ok, err := s.evaluator.Evaluate(ctx, link.Filter, input)
		if err != nil {
			logger.L(ctx).Warn("Link filter failed, treating as no match",
				zap.String("link_id", link.ID.String()),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		routes = append(routes, routing.Route{LinkID: link.ID, ChannelID: link.ChannelID, Rank: link.Rank})
		if shop.LinkMode != integration.LinkModeSimultaneous {
			break
		}
	}

	if len(routes) == 0 {
		return nil, routing.ErrNoLinkMatched
	}
	return routes, nil
}

// CreateLink appends a link to the shop with the next free rank
func (s *LinkService) CreateLink(ctx context.Context, ownerID uuid.UUID, req CreateLinkRequest) (*LinkResponse, error) {
	if _, err := s.shops.FindByID(ctx, ownerID, req.ShopID); err != nil {
		return nil, err
	}
	if _, err := s.channels.FindByID(ctx, ownerID, req.ChannelID); err != nil {
		return nil, err
	}
	if err := s.evaluator.Compile(req.Filter); err != nil {
		return nil, shared.WrapDomainError("INVALID_FILTER", "Link filter does not compile", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRankAttempts; attempt++ {
		maxRank, err := s.links.MaxRank(ctx, req.ShopID)
		if err != nil {
			return nil, err
		}
		link, err := routing.NewLink(ownerID, req.ShopID, req.ChannelID, req.Filter, maxRank+1)
		if err != nil {
			return nil, err
		}
		err = s.links.Create(ctx, link)
		if err == nil {
			resp := ToLinkResponse(link)
			return &resp, nil
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ListLinks returns the shop's links ordered by rank
func (s *LinkService) ListLinks(ctx context.Context, ownerID, shopID uuid.UUID) ([]LinkResponse, error) {
	links, err := s.links.FindByShop(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	out := make([]LinkResponse, len(links))
	for i := range links {
		out[i] = ToLinkResponse(&links[i])
	}
	return out, nil
}

// DeleteLink removes a link. Ranks of the remaining links are unchanged.
func (s *LinkService) DeleteLink(ctx context.Context, ownerID, linkID uuid.UUID) error {
	return s.links.Delete(ctx, ownerID, linkID)
}

// OrderProjection is the view of an order that link filters evaluate
// against. Money is exposed as float64 so filters can compare with literals
// such as 100.0.
func OrderProjection(o *order.Order) map[string]any {
	lineItems := make([]any, len(o.LineItems))
	for i, li := range o.LineItems {
		lineItems[i] = map[string]any{
			"name":      li.Name,
			"productId": li.ProductID,
			"variantId": li.VariantID,
			"quantity":  li.Quantity,
			"price":     li.Price.InexactFloat64(),
		}
	}
	return map[string]any{
		"externalOrderId": o.ExternalOrderID,
		"name":            o.OrderName,
		"email":           o.Email,
		"firstName":       o.FirstName,
		"lastName":        o.LastName,
		"city":            o.City,
		"province":        o.Province,
		"zip":             o.Zip,
		"country":         o.Country,
		"currency":        o.Currency,
		"subTotal":        o.SubTotal.InexactFloat64(),
		"shipping":        o.Shipping.InexactFloat64(),
		"totalTax":        o.TotalTax.InexactFloat64(),
		"totalDiscount":   o.TotalDiscount.InexactFloat64(),
		"totalPrice":      o.TotalPrice.InexactFloat64(),
		"lineItems":       lineItems,
	}
}
