package handler

import (
	"context"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	matchingapp "github.com/Rafcin/openship/internal/application/matching"
	orderapp "github.com/Rafcin/openship/internal/application/order"
	routingapp "github.com/Rafcin/openship/internal/application/routing"
	"github.com/Rafcin/openship/internal/application/webhook"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockShopService implements ShopService for testing
type MockShopService struct {
	mock.Mock
}

var _ ShopService = (*MockShopService)(nil)

func (m *MockShopService) CreateShop(ctx context.Context, ownerID uuid.UUID, req integrationapp.CreateShopRequest) (*integrationapp.ShopResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.ShopResponse), args.Error(1)
}

func (m *MockShopService) UpdateShop(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.UpdateShopRequest) (*integrationapp.ShopResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.ShopResponse), args.Error(1)
}

func (m *MockShopService) GetShop(ctx context.Context, ownerID, id uuid.UUID) (*integrationapp.ShopResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.ShopResponse), args.Error(1)
}

func (m *MockShopService) ListShops(ctx context.Context, ownerID uuid.UUID, f integrationapp.ListFilter) ([]integrationapp.ShopResponse, int64, error) {
	args := m.Called(ctx, ownerID, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integrationapp.ShopResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockShopService) DeleteShop(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockShopService) CreateWebhook(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.CreateWebhookRequest) (*integrationapp.WebhookResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.WebhookResponse), args.Error(1)
}

func (m *MockShopService) ListWebhooks(ctx context.Context, ownerID, id uuid.UUID) ([]integrationapp.WebhookResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integrationapp.WebhookResponse), args.Error(1)
}

func (m *MockShopService) DeleteWebhook(ctx context.Context, ownerID, id uuid.UUID, webhookID string) error {
	return m.Called(ctx, ownerID, id, webhookID).Error(0)
}

func (m *MockShopService) SearchOrders(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.SearchRequest) (*integrationapp.OrderSearchResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.OrderSearchResponse), args.Error(1)
}

func (m *MockShopService) SearchProducts(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.SearchRequest) (*integrationapp.ProductSearchResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.ProductSearchResponse), args.Error(1)
}

// MockLinkService implements LinkService and LinkLister for testing
type MockLinkService struct {
	mock.Mock
}

var (
	_ LinkService = (*MockLinkService)(nil)
	_ LinkLister  = (*MockLinkService)(nil)
)

func (m *MockLinkService) CreateLink(ctx context.Context, ownerID uuid.UUID, req routingapp.CreateLinkRequest) (*routingapp.LinkResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*routingapp.LinkResponse), args.Error(1)
}

func (m *MockLinkService) ListLinks(ctx context.Context, ownerID, shopID uuid.UUID) ([]routingapp.LinkResponse, error) {
	args := m.Called(ctx, ownerID, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]routingapp.LinkResponse), args.Error(1)
}

func (m *MockLinkService) DeleteLink(ctx context.Context, ownerID, linkID uuid.UUID) error {
	return m.Called(ctx, ownerID, linkID).Error(0)
}

// MockMatchService implements MatchService for testing
type MockMatchService struct {
	mock.Mock
}

var _ MatchService = (*MockMatchService)(nil)

func (m *MockMatchService) CreateMatch(ctx context.Context, ownerID uuid.UUID, req matchingapp.CreateMatchRequest) (*matchingapp.MatchResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matchingapp.MatchResponse), args.Error(1)
}

func (m *MockMatchService) UpdateMatch(ctx context.Context, ownerID, matchID uuid.UUID, req matchingapp.UpdateMatchRequest) (*matchingapp.MatchResponse, error) {
	args := m.Called(ctx, ownerID, matchID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matchingapp.MatchResponse), args.Error(1)
}

func (m *MockMatchService) DeleteMatch(ctx context.Context, ownerID, matchID uuid.UUID) error {
	return m.Called(ctx, ownerID, matchID).Error(0)
}

func (m *MockMatchService) GetMatch(ctx context.Context, ownerID, matchID uuid.UUID) (*matchingapp.MatchResponse, error) {
	args := m.Called(ctx, ownerID, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matchingapp.MatchResponse), args.Error(1)
}

func (m *MockMatchService) ListMatches(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]matchingapp.MatchResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]matchingapp.MatchResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockMatchService) FetchLiveExternalDetails(ctx context.Context, ownerID, matchID uuid.UUID) ([]matchingapp.LiveItemDetail, error) {
	args := m.Called(ctx, ownerID, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]matchingapp.LiveItemDetail), args.Error(1)
}

// MockOrderLifecycleService implements OrderLifecycleService for testing
type MockOrderLifecycleService struct {
	mock.Mock
}

var _ OrderLifecycleService = (*MockOrderLifecycleService)(nil)

func (m *MockOrderLifecycleService) CreateOrder(ctx context.Context, ownerID uuid.UUID, req orderapp.CreateOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycleService) ProcessOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, ownerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycleService) CancelOrder(ctx context.Context, ownerID, orderID uuid.UUID, reason string) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, ownerID, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycleService) GetOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, ownerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycleService) ListOrders(ctx context.Context, ownerID uuid.UUID, filter orderapp.OrderListFilter) ([]orderapp.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]orderapp.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

// MockCartService implements CartService for testing
type MockCartService struct {
	mock.Mock
}

var _ CartService = (*MockCartService)(nil)

func (m *MockCartService) AddCartItem(ctx context.Context, ownerID, orderID uuid.UUID, req orderapp.CartItemInput) (*orderapp.CartItemResponse, error) {
	args := m.Called(ctx, ownerID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.CartItemResponse), args.Error(1)
}

func (m *MockCartService) RemoveCartItem(ctx context.Context, ownerID, orderID, cartItemID uuid.UUID) error {
	return m.Called(ctx, ownerID, orderID, cartItemID).Error(0)
}

// MockOrderPlacer implements OrderPlacer for testing
type MockOrderPlacer struct {
	mock.Mock
}

var _ OrderPlacer = (*MockOrderPlacer)(nil)

func (m *MockOrderPlacer) PlaceOrderForOwner(ctx context.Context, ownerID, orderID uuid.UUID) (*order.PlacementResult, error) {
	args := m.Called(ctx, ownerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PlacementResult), args.Error(1)
}

// MockWebhookIngester implements WebhookIngester for testing
type MockWebhookIngester struct {
	mock.Mock
}

var _ WebhookIngester = (*MockWebhookIngester)(nil)

func (m *MockWebhookIngester) IngestShopWebhook(ctx context.Context, shopID uuid.UUID, d webhook.Delivery) (*webhook.Result, error) {
	args := m.Called(ctx, shopID, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Result), args.Error(1)
}

func (m *MockWebhookIngester) IngestChannelWebhook(ctx context.Context, channelID uuid.UUID, d webhook.Delivery) (*webhook.Result, error) {
	args := m.Called(ctx, channelID, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Result), args.Error(1)
}

// MockOAuthService implements OAuthService for testing
type MockOAuthService struct {
	mock.Mock
}

var _ OAuthService = (*MockOAuthService)(nil)

func (m *MockOAuthService) Start(ctx context.Context, ownerID uuid.UUID, req integrationapp.OAuthStartRequest) (*integrationapp.OAuthStartResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.OAuthStartResponse), args.Error(1)
}

func (m *MockOAuthService) Callback(ctx context.Context, req integrationapp.OAuthCallbackRequest) (*integrationapp.OAuthCallbackResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.OAuthCallbackResponse), args.Error(1)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	mock.Mock
}

var _ Pinger = (*MockPinger)(nil)

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
