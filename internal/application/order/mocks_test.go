package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

var _ order.OrderRepository = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*order.Order, error) {
	args := m.Called(ctx, shopID, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter order.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindRetryCandidates(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockCartItemRepository is a mock implementation of order.CartItemRepository
type MockCartItemRepository struct {
	mock.Mock
}

var _ order.CartItemRepository = (*MockCartItemRepository)(nil)

func (m *MockCartItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.CartItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) FindByPurchaseID(ctx context.Context, channelID uuid.UUID, purchaseID string) ([]order.CartItem, error) {
	args := m.Called(ctx, channelID, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) Create(ctx context.Context, items ...*order.CartItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockCartItemRepository) Update(ctx context.Context, item *order.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartItemRepository) Delete(ctx context.Context, orderID, id uuid.UUID) error {
	return m.Called(ctx, orderID, id).Error(0)
}

// MockTrackingRepository is a mock implementation of order.TrackingRepository
type MockTrackingRepository struct {
	mock.Mock
}

var _ order.TrackingRepository = (*MockTrackingRepository)(nil)

func (m *MockTrackingRepository) Create(ctx context.Context, td *order.TrackingDetail) error {
	return m.Called(ctx, td).Error(0)
}

func (m *MockTrackingRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.TrackingDetail, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.TrackingDetail), args.Error(1)
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

// MockLinkResolver is a mock implementation of LinkResolver
type MockLinkResolver struct {
	mock.Mock
}

var _ LinkResolver = (*MockLinkResolver)(nil)

func (m *MockLinkResolver) Resolve(ctx context.Context, o *order.Order, shop *integration.Shop) ([]routing.Route, error) {
	args := m.Called(ctx, o, shop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]routing.Route), args.Error(1)
}

// MockMatchResolver is a mock implementation of MatchResolver
type MockMatchResolver struct {
	mock.Mock
}

var _ MatchResolver = (*MockMatchResolver)(nil)

func (m *MockMatchResolver) Resolve(ctx context.Context, ownerID uuid.UUID, tuples []matching.ItemTuple) ([]matching.ResolvedItem, error) {
	args := m.Called(ctx, ownerID, tuples)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]matching.ResolvedItem), args.Error(1)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type orderFixture struct {
	ownerID   uuid.UUID
	shop      *integration.Shop
	supplierA *integration.Channel
	supplierB *integration.Channel
	orders    *MockOrderRepository
	cartItems *MockCartItemRepository
	tracking  *MockTrackingRepository
	shops     *MockShopRepository
	channels  *MockChannelRepository
	executor  *MockExecutor
	links     *MockLinkResolver
	matcher   *MockMatchResolver
	placement *PlacementService
	lifecycle *LifecycleService
	carts     *CartService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ownerID := uuid.New()

	shopPlatform, err := integration.NewPlatform(ownerID, "Shopify", integration.PlatformKindShop, map[integration.Operation]string{
		integration.OpAddCartToPlatformOrder: "shopify",
		integration.OpAddTracking:            "shopify",
	})
	require.NoError(t, err)
	shop, err := integration.NewShop(ownerID, "Store", "store.myshopify.com", "token", shopPlatform)
	require.NoError(t, err)

	channelPlatform, err := integration.NewPlatform(ownerID, "Supplier", integration.PlatformKindChannel, map[integration.Operation]string{
		integration.OpCreatePurchase: "supplier",
		integration.OpAddTracking:    "supplier",
	})
	require.NoError(t, err)
	supplierA, err := integration.NewChannel(ownerID, "Supplier A", "a.example.com", "token-a", channelPlatform)
	require.NoError(t, err)
	supplierB, err := integration.NewChannel(ownerID, "Supplier B", "b.example.com", "token-b", channelPlatform)
	require.NoError(t, err)

	f := &orderFixture{
		ownerID:   ownerID,
		shop:      shop,
		supplierA: supplierA,
		supplierB: supplierB,
		orders:    new(MockOrderRepository),
		cartItems: new(MockCartItemRepository),
		tracking:  new(MockTrackingRepository),
		shops:     new(MockShopRepository),
		channels:  new(MockChannelRepository),
		executor:  new(MockExecutor),
		links:     new(MockLinkResolver),
		matcher:   new(MockMatchResolver),
	}
	locker := lock.NewKeyedMutex()
	f.placement = NewPlacementService(f.orders, f.cartItems, f.shops, f.channels, f.executor, locker, PlacementOptions{
		AdapterTimeout:    time.Second,
		BestEffortTimeout: time.Second,
	})
	f.lifecycle = NewLifecycleService(f.orders, f.cartItems, f.tracking, f.shops, f.links, f.matcher, f.placement, f.executor)
	f.carts = NewCartService(f.orders, f.cartItems, f.channels, f.placement)
	return f
}

// newOrder builds a pending order with one line item per product id
func (f *orderFixture) newOrder(t *testing.T, intents order.Intents, productIDs ...string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(f.ownerID, f.shop.ID, "ext-"+uuid.NewString()[:8], "#1001", order.Customer{
		Email:   "buyer@example.com",
		City:    "Toronto",
		Country: "CA",
	}, order.Totals{Currency: "CAD", TotalPrice: decimal.NewFromInt(25)}, intents)
	require.NoError(t, err)
	for _, pid := range productIDs {
		_, err := o.AddLineItem("Item "+pid, pid, pid+"-v", 1, decimal.NewFromInt(5), "", "")
		require.NoError(t, err)
	}
	o.ClearDomainEvents()
	return o
}

// addCartItem attaches an unplaced cart item on channel
func (f *orderFixture) addCartItem(t *testing.T, o *order.Order, channel *integration.Channel, productID string) *order.CartItem {
	t.Helper()
	item, err := order.NewCartItem(o.ID, channel.ID, productID, productID+"-v", 1, decimal.NewFromInt(4))
	require.NoError(t, err)
	added, err := o.AddCartItem(*item)
	require.NoError(t, err)
	return added
}

func (f *orderFixture) expectPersistence() {
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.cartItems.On("Update", mock.Anything, mock.Anything).Return(nil)
}

func (f *orderFixture) expectChannels(channels ...*integration.Channel) {
	out := make([]integration.Channel, len(channels))
	for i, c := range channels {
		out[i] = *c
	}
	f.channels.On("FindByIDs", mock.Anything, f.ownerID, mock.Anything).Return(out, nil)
}

func (f *orderFixture) expectPurchase(channel *integration.Channel, result string, err error) {
	call := f.executor.On("Invoke", mock.Anything,
		mock.MatchedBy(func(cfg integration.PlatformConfig) bool { return cfg.Domain == channel.Domain }),
		integration.OpCreatePurchase, mock.Anything)
	if err != nil {
		call.Return(nil, err)
		return
	}
	call.Return(json.RawMessage(result), nil)
}

func (f *orderFixture) expectShopCall(op integration.Operation, err error) {
	f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(f.shop, nil)
	call := f.executor.On("Invoke", mock.Anything,
		mock.MatchedBy(func(cfg integration.PlatformConfig) bool { return cfg.Domain == f.shop.Domain }),
		op, mock.Anything)
	if err != nil {
		call.Return(nil, err)
		return
	}
	call.Return(json.RawMessage(`{}`), nil)
}

func countCalls(m *mock.Mock, method string, op integration.Operation) int {
	n := 0
	for _, c := range m.Calls {
		if c.Method == method && c.Arguments.Get(2) == op {
			n++
		}
	}
	return n
}
