package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

// MockOrderLifecycle is a mock implementation of OrderLifecycle
type MockOrderLifecycle struct {
	mock.Mock
}

var _ OrderLifecycle = (*MockOrderLifecycle)(nil)

func (m *MockOrderLifecycle) HandleOrderCreated(ctx context.Context, shop *integration.Shop, ev integration.OrderCreatedEvent) (*order.Order, error) {
	args := m.Called(ctx, shop, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderLifecycle) HandleOrderCancelled(ctx context.Context, shop *integration.Shop, ev integration.OrderCancelledEvent) error {
	return m.Called(ctx, shop, ev).Error(0)
}

func (m *MockOrderLifecycle) HandleTrackingCreated(ctx context.Context, channel *integration.Channel, ev integration.TrackingCreatedEvent) error {
	return m.Called(ctx, channel, ev).Error(0)
}

func (m *MockOrderLifecycle) HandlePurchaseCancelled(ctx context.Context, channel *integration.Channel, ev integration.PurchaseCancelledEvent) error {
	return m.Called(ctx, channel, ev).Error(0)
}

// MockArchive is a mock implementation of PayloadArchive
type MockArchive struct {
	mock.Mock
}

var _ PayloadArchive = (*MockArchive)(nil)

func (m *MockArchive) Archive(ctx context.Context, payload ArchivedPayload) error {
	return m.Called(ctx, payload).Error(0)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type ingestionFixture struct {
	shop      *integration.Shop
	channel   *integration.Channel
	shops     *MockShopRepository
	channels  *MockChannelRepository
	executor  *MockExecutor
	lifecycle *MockOrderLifecycle
	archive   *MockArchive
	store     *cache.InMemoryIdempotencyStore
	service   *IngestionService
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()
	ownerID := uuid.New()

	shopPlatform, err := integration.NewPlatform(ownerID, "Shopify", integration.PlatformKindShop, map[integration.Operation]string{
		integration.OpOrderWebhookHandler: "shopify",
		integration.OpCancelOrderHandler:  "shopify",
	})
	require.NoError(t, err)
	shop, err := integration.NewShop(ownerID, "Store", "store.myshopify.com", "token", shopPlatform)
	require.NoError(t, err)

	channelPlatform, err := integration.NewPlatform(ownerID, "Supplier", integration.PlatformKindChannel, map[integration.Operation]string{
		integration.OpTrackingWebhookHandler: "https://supplier.example.com/webhooks",
	})
	require.NoError(t, err)
	channel, err := integration.NewChannel(ownerID, "Supplier", "supplier.example.com", "token", channelPlatform)
	require.NoError(t, err)

	f := &ingestionFixture{
		shop:      shop,
		channel:   channel,
		shops:     new(MockShopRepository),
		channels:  new(MockChannelRepository),
		executor:  new(MockExecutor),
		lifecycle: new(MockOrderLifecycle),
		archive:   new(MockArchive),
		store:     cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.store.Close() })

	f.shops.On("FindByIDUnscoped", mock.Anything, shop.ID).Return(shop, nil)
	f.channels.On("FindByIDUnscoped", mock.Anything, channel.ID).Return(channel, nil)
	f.service = NewIngestionService(f.shops, f.channels, NewNormalizer(f.executor), f.lifecycle, f.store, f.archive, 0)
	return f
}

func (f *ingestionFixture) expectEnvelope(op integration.Operation, envelope string) {
	f.executor.On("Invoke", mock.Anything, mock.Anything, op, mock.Anything).Return(json.RawMessage(envelope), nil)
}

func delivery(topic integration.WebhookTopic, body string, deliveryID string) Delivery {
	h := http.Header{}
	if deliveryID != "" {
		h.Set("X-Shopify-Webhook-Id", deliveryID)
	}
	return Delivery{Topic: topic, Body: []byte(body), Headers: h}
}

const orderEnvelope = `{"type":"order.created","order":{"orderId":"1001","lineItems":[{"productId":"p1","quantity":1,"price":"5"}]}}`

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestIngestionService_IngestShopWebhook_OrderCreated(t *testing.T) {
	f := newIngestionFixture(t)
	f.expectEnvelope(integration.OpOrderWebhookHandler, orderEnvelope)
	f.archive.On("Archive", mock.Anything, mock.MatchedBy(func(p ArchivedPayload) bool {
		return p.Platform == "Shopify" && p.DeliveryID == "d-1" && p.Topic == "orders/create"
	})).Return(nil)

	created := &order.Order{}
	created.ID = uuid.New()
	f.lifecycle.On("HandleOrderCreated", mock.Anything, f.shop, mock.MatchedBy(func(ev integration.OrderCreatedEvent) bool {
		return ev.Order.OrderID == "1001"
	})).Return(created, nil)

	res, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, delivery(integration.TopicOrderCreated, `{"id":1001}`, "d-1"))
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.Equal(t, integration.EventOrderCreated, res.Event)
	require.NotNil(t, res.OrderID)
	assert.Equal(t, created.ID, *res.OrderID)
	f.archive.AssertExpectations(t)
}

func TestIngestionService_DuplicateDeliveryHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name       string
		deliveryID string
	}{
		{name: "delivery id header", deliveryID: "d-1"},
		{name: "payload digest", deliveryID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestionFixture(t)
			f.expectEnvelope(integration.OpCancelOrderHandler, `{"type":"order.cancelled","orderId":"1001"}`)
			f.archive.On("Archive", mock.Anything, mock.Anything).Return(nil)
			f.lifecycle.On("HandleOrderCancelled", mock.Anything, f.shop, integration.OrderCancelledEvent{OrderID: "1001"}).Return(nil)

			d := delivery(integration.TopicOrderCancelled, `{"id":1001}`, tt.deliveryID)
			first, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, d)
			require.NoError(t, err)
			second, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, d)
			require.NoError(t, err)

			assert.False(t, first.Duplicate)
			assert.True(t, second.Duplicate)
			assert.Equal(t, first.DeliveryID, second.DeliveryID)
			f.lifecycle.AssertNumberOfCalls(t, "HandleOrderCancelled", 1)
			f.executor.AssertNumberOfCalls(t, "Invoke", 1)
			f.archive.AssertNumberOfCalls(t, "Archive", 1)
		})
	}
}

func TestIngestionService_SignatureRejected(t *testing.T) {
	f := newIngestionFixture(t)
	f.executor.On("Invoke", mock.Anything, mock.Anything, integration.OpTrackingWebhookHandler, mock.Anything).
		Return(nil, &integration.AdapterHTTPError{Operation: integration.OpTrackingWebhookHandler, Status: http.StatusForbidden})

	_, err := f.service.IngestChannelWebhook(context.Background(), f.channel.ID, delivery(integration.TopicTrackingCreated, `{}`, "d-9"))
	require.Error(t, err)
	assert.True(t, integration.IsSignatureError(err))

	f.archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
	f.lifecycle.AssertNotCalled(t, "HandleTrackingCreated", mock.Anything, mock.Anything, mock.Anything)

	processed, err := f.store.IsProcessed(context.Background(), "webhook:channel:"+f.channel.ID.String()+":tracking/create:d-9")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestIngestionService_IngestChannelWebhook_Tracking(t *testing.T) {
	f := newIngestionFixture(t)
	f.expectEnvelope(integration.OpTrackingWebhookHandler, `{"type":"tracking.created","purchaseId":"PA-1","trackingCompany":"ups","trackingNumber":"1Z1"}`)
	f.archive.On("Archive", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))
	f.lifecycle.On("HandleTrackingCreated", mock.Anything, f.channel, mock.MatchedBy(func(ev integration.TrackingCreatedEvent) bool {
		return ev.PurchaseID == "PA-1" && ev.TrackingNumber == "1Z1"
	})).Return(nil)

	res, err := f.service.IngestChannelWebhook(context.Background(), f.channel.ID, delivery(integration.TopicTrackingCreated, `{}`, "d-2"))
	require.NoError(t, err)

	// archive failures never fail ingestion
	assert.Equal(t, integration.EventTrackingCreated, res.Event)
	f.lifecycle.AssertExpectations(t)
}

func TestIngestionService_DispatchFailureIsRetryable(t *testing.T) {
	f := newIngestionFixture(t)
	f.expectEnvelope(integration.OpCancelOrderHandler, `{"type":"order.cancelled","orderId":"1001"}`)
	f.archive.On("Archive", mock.Anything, mock.Anything).Return(nil)
	f.lifecycle.On("HandleOrderCancelled", mock.Anything, f.shop, mock.Anything).Return(errors.New("db down")).Once()
	f.lifecycle.On("HandleOrderCancelled", mock.Anything, f.shop, mock.Anything).Return(nil).Once()

	d := delivery(integration.TopicOrderCancelled, `{}`, "d-3")
	_, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, d)
	require.EqualError(t, err, "db down")

	res, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, d)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}

func TestIngestionService_TopicOnWrongSide(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.service.IngestShopWebhook(context.Background(), f.shop.ID, delivery(integration.TopicTrackingCreated, `{}`, ""))
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNSUPPORTED_TOPIC", domainErr.Code)

	_, err = f.service.IngestChannelWebhook(context.Background(), f.channel.ID, delivery("inventory/update", `{}`, ""))
	require.ErrorAs(t, err, &domainErr)
	f.executor.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_UnknownShop(t *testing.T) {
	f := newIngestionFixture(t)
	missing := uuid.New()
	f.shops.On("FindByIDUnscoped", mock.Anything, missing).Return(nil, shared.ErrNotFound)

	_, err := f.service.IngestShopWebhook(context.Background(), missing, delivery(integration.TopicOrderCreated, `{}`, ""))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeliveryID(t *testing.T) {
	h := http.Header{}
	h.Set("x-openship-delivery-id", "abc")
	assert.Equal(t, "abc", DeliveryID(h, []byte("body")))

	a := DeliveryID(http.Header{}, []byte(`{"a":1}`))
	b := DeliveryID(nil, []byte(`{"a":1}`))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, DeliveryID(nil, []byte(`{"a":2}`)))
}
