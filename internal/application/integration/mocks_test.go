package integration

import (
	"context"
	"encoding/json"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPlatformRepository is a mock implementation of integration.PlatformRepository
type MockPlatformRepository struct {
	mock.Mock
}

var _ integration.PlatformRepository = (*MockPlatformRepository)(nil)

func (m *MockPlatformRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Platform, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Platform), args.Error(1)
}

func (m *MockPlatformRepository) FindAll(ctx context.Context, ownerID uuid.UUID, kind integration.PlatformKind) ([]integration.Platform, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Platform), args.Error(1)
}

func (m *MockPlatformRepository) Save(ctx context.Context, p *integration.Platform) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPlatformRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// MockShopRepository is a mock implementation of integration.ShopRepository
type MockShopRepository struct {
	mock.Mock
}

var _ integration.ShopRepository = (*MockShopRepository)(nil)

func (m *MockShopRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Shop, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Shop), args.Error(1)
}

func (m *MockShopRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*integration.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Shop), args.Error(1)
}

func (m *MockShopRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]integration.Shop, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.Shop), args.Get(1).(int64), args.Error(2)
}

func (m *MockShopRepository) Save(ctx context.Context, shop *integration.Shop) error {
	return m.Called(ctx, shop).Error(0)
}

func (m *MockShopRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// MockChannelRepository is a mock implementation of integration.ChannelRepository
type MockChannelRepository struct {
	mock.Mock
}

var _ integration.ChannelRepository = (*MockChannelRepository)(nil)

func (m *MockChannelRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Channel, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*integration.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]integration.Channel, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]integration.Channel, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]integration.Channel), args.Get(1).(int64), args.Error(2)
}

func (m *MockChannelRepository) Save(ctx context.Context, channel *integration.Channel) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockChannelRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// MockExecutor is a mock implementation of integration.Executor
type MockExecutor struct {
	mock.Mock
}

var _ integration.Executor = (*MockExecutor)(nil)

func (m *MockExecutor) Invoke(ctx context.Context, cfg integration.PlatformConfig, op integration.Operation, args any) (json.RawMessage, error) {
	a := m.Called(ctx, cfg, op, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(json.RawMessage), a.Error(1)
}

func newShopPlatform(ownerID uuid.UUID) *integration.Platform {
	p, err := integration.NewPlatform(ownerID, "shopify", integration.PlatformKindShop, map[integration.Operation]string{
		integration.OpCreateWebhook: "shopify",
		integration.OpGetWebhooks:   "shopify",
		integration.OpDeleteWebhook: "shopify",
		integration.OpSearchOrders:  "shopify",
		integration.OpOAuth:         "shopify",
		integration.OpOAuthCallback: "shopify",
	})
	if err != nil {
		panic(err)
	}
	p.SetCredentials("app-key", "app-secret")
	return p
}

func newChannelPlatform(ownerID uuid.UUID) *integration.Platform {
	p, err := integration.NewPlatform(ownerID, "supplier", integration.PlatformKindChannel, map[integration.Operation]string{
		integration.OpSearchProducts: "https://adapter.example.com/search",
		integration.OpCreateWebhook:  "https://adapter.example.com/webhooks",
		integration.OpOAuth:          "https://adapter.example.com/oauth",
		integration.OpOAuthCallback:  "https://adapter.example.com/oauth/callback",
	})
	if err != nil {
		panic(err)
	}
	return p
}
