package integration

import (
	"context"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShopService manages connected storefronts
type ShopService struct {
	shops     integration.ShopRepository
	platforms integration.PlatformRepository
	remote    remote
	logger    *zap.Logger
}

// NewShopService creates a new ShopService. publicURL is the base of the
// webhook callbacks registered on shop platforms.
func NewShopService(
	shops integration.ShopRepository,
	platforms integration.PlatformRepository,
	executor integration.Executor,
	publicURL string,
	logger *zap.Logger,
) *ShopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopService{
		shops:     shops,
		platforms: platforms,
		remote: remote{
			executor:  executor,
			publicURL: publicURL,
			side:      integration.PlatformKindShop,
			timeout:   defaultAdapterTimeout,
		},
		logger: logger,
	}
}

// SetAdapterTimeout bounds each platform call
func (s *ShopService) SetAdapterTimeout(d time.Duration) {
	if d > 0 {
		s.remote.timeout = d
	}
}

// CreateShop connects a storefront on a shop platform
func (s *ShopService) CreateShop(ctx context.Context, ownerID uuid.UUID, req CreateShopRequest) (*ShopResponse, error) {
	platform, err := s.platforms.FindByID(ctx, ownerID, req.PlatformID)
	if err != nil {
		return nil, err
	}
	shop, err := integration.NewShop(ownerID, req.Name, req.Domain, req.AccessToken, platform)
	if err != nil {
		return nil, platformError(err)
	}
	if req.LinkMode != "" {
		if err := shop.SetLinkMode(integration.LinkMode(req.LinkMode)); err != nil {
			return nil, err
		}
	}
	for k, v := range req.Metadata {
		shop.Metadata[k] = v
	}
	if err := s.shops.Save(ctx, shop); err != nil {
		return nil, err
	}

	s.logger.Info("Shop created",
		zap.String("shop_id", shop.ID.String()),
		zap.String("platform", platform.Name))
	resp := ToShopResponse(shop)
	return &resp, nil
}

// UpdateShop changes a shop's settings
func (s *ShopService) UpdateShop(ctx context.Context, ownerID, id uuid.UUID, req UpdateShopRequest) (*ShopResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		shop.Name = *req.Name
	}
	if req.Domain != nil {
		shop.Domain = *req.Domain
	}
	if req.AccessToken != nil {
		shop.AccessToken = *req.AccessToken
	}
	if req.LinkMode != nil {
		if err := shop.SetLinkMode(integration.LinkMode(*req.LinkMode)); err != nil {
			return nil, err
		}
	}
	if req.Metadata != nil {
		shop.Metadata = req.Metadata
	}
	shop.Touch()

	if err := s.shops.Save(ctx, shop); err != nil {
		return nil, err
	}
	resp := ToShopResponse(shop)
	return &resp, nil
}

// GetShop returns one shop
func (s *ShopService) GetShop(ctx context.Context, ownerID, id uuid.UUID) (*ShopResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToShopResponse(shop)
	return &resp, nil
}

// ListShops returns a page of the owner's shops
func (s *ShopService) ListShops(ctx context.Context, ownerID uuid.UUID, f ListFilter) ([]ShopResponse, int64, error) {
	shops, total, err := s.shops.FindAll(ctx, ownerID, toFilter(f))
	if err != nil {
		return nil, 0, err
	}
	out := make([]ShopResponse, len(shops))
	for i := range shops {
		out[i] = ToShopResponse(&shops[i])
	}
	return out, total, nil
}

// DeleteShop removes a shop
func (s *ShopService) DeleteShop(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.shops.Delete(ctx, ownerID, id)
}

// CreateWebhook subscribes the shop's platform to deliver topic to the
// shop's ingress route
func (s *ShopService) CreateWebhook(ctx context.Context, ownerID, id uuid.UUID, req CreateWebhookRequest) (*WebhookResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	wh, err := s.remote.createWebhook(ctx, shop.PlatformConfig(), shop.ID, integration.WebhookTopic(req.Topic))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Shop webhook registered",
		zap.String("shop_id", shop.ID.String()),
		zap.String("topic", wh.Topic),
		zap.String("webhook_id", wh.ID))
	return wh, nil
}

// ListWebhooks returns the subscriptions registered on the shop's platform
func (s *ShopService) ListWebhooks(ctx context.Context, ownerID, id uuid.UUID) ([]WebhookResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.remote.listWebhooks(ctx, shop.PlatformConfig())
}

// DeleteWebhook removes a subscription from the shop's platform
func (s *ShopService) DeleteWebhook(ctx context.Context, ownerID, id uuid.UUID, webhookID string) error {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.remote.deleteWebhook(ctx, shop.PlatformConfig(), webhookID); err != nil {
		return err
	}
	s.logger.Info("Shop webhook deleted",
		zap.String("shop_id", shop.ID.String()),
		zap.String("webhook_id", webhookID))
	return nil
}

// SearchOrders lists orders on the storefront itself
func (s *ShopService) SearchOrders(ctx context.Context, ownerID, id uuid.UUID, req SearchRequest) (*OrderSearchResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.remote.searchOrders(ctx, shop.PlatformConfig(), req)
}

// SearchProducts lists the storefront's products
func (s *ShopService) SearchProducts(ctx context.Context, ownerID, id uuid.UUID, req SearchRequest) (*ProductSearchResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.remote.searchProducts(ctx, shop.PlatformConfig(), req)
}
