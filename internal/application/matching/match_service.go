// Package matching resolves storefront item sets to fulfillment item sets
// through owner-scoped matches.
package matching

import (
	"context"
	"errors"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAdapterTimeout = 30 * time.Second

// MatchService resolves and manages matches
type MatchService struct {
	matches        matching.MatchRepository
	shopItems      matching.ShopItemRepository
	channelItems   matching.ChannelItemRepository
	shops          integration.ShopRepository
	channels       integration.ChannelRepository
	executor       integration.Executor
	adapterTimeout time.Duration
}

// NewMatchService creates a new MatchService
func NewMatchService(
	matches matching.MatchRepository,
	shopItems matching.ShopItemRepository,
	channelItems matching.ChannelItemRepository,
	shops integration.ShopRepository,
	channels integration.ChannelRepository,
	executor integration.Executor,
) *MatchService {
	return &MatchService{
		matches:        matches,
		shopItems:      shopItems,
		channelItems:   channelItems,
		shops:          shops,
		channels:       channels,
		executor:       executor,
		adapterTimeout: defaultAdapterTimeout,
	}
}

// SetAdapterTimeout bounds each live product lookup
func (s *MatchService) SetAdapterTimeout(d time.Duration) {
	if d > 0 {
		s.adapterTimeout = d
	}
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// Resolve maps the order's tuples to channel items. An exact match on the
// whole tuple multiset wins; otherwise every tuple must have its own
// single-input match. Resolution is all-or-nothing.
func (s *MatchService) Resolve(ctx context.Context, ownerID uuid.UUID, tuples []matching.ItemTuple) ([]matching.ResolvedItem, error) {
	if len(tuples) == 0 {
		return nil, matching.ErrEmptyInput
	}

	m, err := s.matches.FindBySignature(ctx, ownerID, matching.Signature(tuples))
	var resolved []matching.ResolvedItem
	switch {
	case err == nil:
		resolved = resolvedFrom(m)
	case errors.Is(err, shared.ErrNotFound):
		if len(tuples) == 1 {
			return nil, matching.ErrNoMatch
		}
		resolved, err = s.resolvePerTuple(ctx, ownerID, tuples)
		if err != nil {
			return nil, err
		}
		logger.L(ctx).Info("Resolved order from single-item matches", zap.Int("tuples", len(tuples)))
	default:
		return nil, err
	}

	s.checkLivePrices(ctx, ownerID, resolved)
	return resolved, nil
}

func (s *MatchService) resolvePerTuple(ctx context.Context, ownerID uuid.UUID, tuples []matching.ItemTuple) ([]matching.ResolvedItem, error) {
	var (
		resolved  []matching.ResolvedItem
		unmatched []matching.ItemTuple
	)
	for _, t := range tuples {
		m, err := s.matches.FindBySignature(ctx, ownerID, matching.Signature([]matching.ItemTuple{t}))
		if errors.Is(err, shared.ErrNotFound) {
			unmatched = append(unmatched, t)
			continue
		}
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, resolvedFrom(m)...)
	}
	if len(unmatched) > 0 {
		return nil, &matching.PartialMatchError{Unmatched: unmatched}
	}
	return resolved, nil
}

func resolvedFrom(m *matching.Match) []matching.ResolvedItem {
	items := make([]matching.ResolvedItem, len(m.Output))
	for i, ci := range m.Output {
		items[i] = matching.ResolvedItem{MatchID: m.ID, Item: ci}
	}
	return items
}

// checkLivePrices sets a price change warning on every resolved item whose
// live price differs from the stored one. Lookup failures are only logged.
func (s *MatchService) checkLivePrices(ctx context.Context, ownerID uuid.UUID, items []matching.ResolvedItem) {
	configs := s.channelConfigs(ctx, ownerID, channelIDsOf(items))
	for i := range items {
		cfg, ok := configs[items[i].Item.ChannelID]
		if !ok {
			continue
		}
		product, err := s.fetchProduct(ctx, cfg, items[i].Item)
		if err != nil {
			logger.L(logger.WithChannel(ctx, items[i].Item.ChannelID)).Warn("Live price check failed",
				zap.String("product_id", items[i].Item.ProductID),
				zap.Error(err))
			continue
		}
		if !product.Price.Equal(items[i].Item.Price) {
			items[i].Warning = matching.PriceChangeWarning(items[i].Item.Price, product.Price)
		}
	}
}

func (s *MatchService) channelConfigs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) map[uuid.UUID]integration.PlatformConfig {
	configs := make(map[uuid.UUID]integration.PlatformConfig, len(ids))
	if len(ids) == 0 {
		return configs
	}
	channels, err := s.channels.FindByIDs(ctx, ownerID, ids)
	if err != nil {
		logger.L(ctx).Warn("Failed to load channels for live lookup", zap.Error(err))
		return configs
	}
	for i := range channels {
		configs[channels[i].ID] = channels[i].PlatformConfig()
	}
	return configs
}

func (s *MatchService) fetchProduct(ctx context.Context, cfg integration.PlatformConfig, item matching.ChannelItem) (integration.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
	defer cancel()
	return integration.Call[integration.Product](ctx, s.executor, cfg, integration.OpGetProduct, integration.GetProductRequest{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
	})
}

func channelIDsOf(items []matching.ResolvedItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, it := range items {
		if !seen[it.Item.ChannelID] {
			seen[it.Item.ChannelID] = true
			ids = append(ids, it.Item.ChannelID)
		}
	}
	return ids
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// CreateMatch creates a match after checking no other match of the owner has
// the same input
func (s *MatchService) CreateMatch(ctx context.Context, ownerID uuid.UUID, req CreateMatchRequest) (*MatchResponse, error) {
	input, output, err := s.fingerprints(ctx, ownerID, req.Input, req.Output)
	if err != nil {
		return nil, err
	}

	m, err := matching.NewMatch(ownerID, input, output)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, ownerID, m.Signature, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Match created",
		zap.String("match_id", m.ID.String()),
		zap.String("signature", m.Signature))
	resp := ToMatchResponse(m)
	return &resp, nil
}

// UpdateMatch replaces both sides of a match
func (s *MatchService) UpdateMatch(ctx context.Context, ownerID, matchID uuid.UUID, req UpdateMatchRequest) (*MatchResponse, error) {
	m, err := s.matches.FindByID(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	input, output, err := s.fingerprints(ctx, ownerID, req.Input, req.Output)
	if err != nil {
		return nil, err
	}
	if err := m.SetItems(input, output); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, ownerID, m.Signature, m.ID); err != nil {
		return nil, err
	}
	if err := s.matches.Update(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMatchResponse(m)
	return &resp, nil
}

// DeleteMatch deletes a match. Its fingerprints are kept for reuse.
func (s *MatchService) DeleteMatch(ctx context.Context, ownerID, matchID uuid.UUID) error {
	return s.matches.Delete(ctx, ownerID, matchID)
}

// GetMatch retrieves a match by ID
func (s *MatchService) GetMatch(ctx context.Context, ownerID, matchID uuid.UUID) (*MatchResponse, error) {
	m, err := s.matches.FindByID(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	resp := ToMatchResponse(m)
	return &resp, nil
}

// ListMatches lists the owner's matches
func (s *MatchService) ListMatches(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]MatchResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	matches, total, err := s.matches.FindAll(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MatchResponse, len(matches))
	for i := range matches {
		out[i] = ToMatchResponse(&matches[i])
	}
	return out, total, nil
}

// FetchLiveExternalDetails looks up every channel item of a match on its
// platform. Per-item failures are reported in the result, not returned.
func (s *MatchService) FetchLiveExternalDetails(ctx context.Context, ownerID, matchID uuid.UUID) ([]LiveItemDetail, error) {
	m, err := s.matches.FindByID(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}

	resolved := resolvedFrom(m)
	configs := s.channelConfigs(ctx, ownerID, channelIDsOf(resolved))

	details := make([]LiveItemDetail, len(m.Output))
	for i, ci := range m.Output {
		details[i] = LiveItemDetail{
			ChannelItemID: ci.ID,
			ChannelID:     ci.ChannelID,
			StoredPrice:   ci.Price,
		}
		cfg, ok := configs[ci.ChannelID]
		if !ok {
			details[i].Error = integration.ErrChannelNotFound.Error()
			continue
		}
		product, err := s.fetchProduct(ctx, cfg, ci)
		if err != nil {
			details[i].Error = err.Error()
			continue
		}
		details[i].Product = &product
		if !product.Price.Equal(ci.Price) {
			details[i].Warning = matching.PriceChangeWarning(ci.Price, product.Price)
		}
	}
	return details, nil
}

// ensureUnique returns a DuplicateMatchError when another match of the owner
// already has signature
func (s *MatchService) ensureUnique(ctx context.Context, ownerID uuid.UUID, signature string, self uuid.UUID) error {
	existing, err := s.matches.FindBySignature(ctx, ownerID, signature)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == self {
		return nil
	}
	return &matching.DuplicateMatchError{Signature: signature, ExistingID: existing.ID}
}

// fingerprints finds or creates the shop and channel items for a request.
// Shops and channels must belong to the owner.
func (s *MatchService) fingerprints(ctx context.Context, ownerID uuid.UUID, in []ShopItemInput, out []ChannelItemInput) ([]matching.ShopItem, []matching.ChannelItem, error) {
	if len(in) == 0 {
		return nil, nil, matching.ErrEmptyInput
	}
	if len(out) == 0 {
		return nil, nil, matching.ErrEmptyOutput
	}

	checkedShops := make(map[uuid.UUID]bool)
	input := make([]matching.ShopItem, 0, len(in))
	for _, item := range in {
		if !checkedShops[item.ShopID] {
			if _, err := s.shops.FindByID(ctx, ownerID, item.ShopID); err != nil {
				return nil, nil, err
			}
			checkedShops[item.ShopID] = true
		}
		si, err := s.findOrCreateShopItem(ctx, ownerID, item)
		if err != nil {
			return nil, nil, err
		}
		input = append(input, *si)
	}

	checkedChannels := make(map[uuid.UUID]bool)
	output := make([]matching.ChannelItem, 0, len(out))
	for _, item := range out {
		if !checkedChannels[item.ChannelID] {
			if _, err := s.channels.FindByID(ctx, ownerID, item.ChannelID); err != nil {
				return nil, nil, err
			}
			checkedChannels[item.ChannelID] = true
		}
		ci, err := s.findOrCreateChannelItem(ctx, ownerID, item)
		if err != nil {
			return nil, nil, err
		}
		output = append(output, *ci)
	}
	return input, output, nil
}

func (s *MatchService) findOrCreateShopItem(ctx context.Context, ownerID uuid.UUID, in ShopItemInput) (*matching.ShopItem, error) {
	existing, err := s.shopItems.FindByTuple(ctx, ownerID, in.ShopID, in.Tuple())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	item, err := matching.NewShopItem(ownerID, in.ShopID, in.Tuple())
	if err != nil {
		return nil, err
	}
	if err := s.shopItems.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// findOrCreateChannelItem reuses an existing fingerprint and refreshes its
// price and display fields when they changed
func (s *MatchService) findOrCreateChannelItem(ctx context.Context, ownerID uuid.UUID, in ChannelItemInput) (*matching.ChannelItem, error) {
	existing, err := s.channelItems.FindByTuple(ctx, ownerID, in.ChannelID, in.Tuple())
	if err == nil {
		if existing.Price.Equal(in.Price) && existing.Name == in.Name && existing.Image == in.Image {
			return existing, nil
		}
		existing.Price = in.Price
		existing.Name = in.Name
		existing.Image = in.Image
		existing.Touch()
		if err := s.channelItems.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	item, err := matching.NewChannelItem(ownerID, in.ChannelID, in.Tuple(), in.Price)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Image = in.Image
	if err := s.channelItems.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
