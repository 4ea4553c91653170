package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPublicURL = "https://openship.example.com"

func TestPlatformService_CreatePlatform(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name     string
		req      CreatePlatformRequest
		wantCode string
	}{
		{
			name: "shop platform with module and remote targets",
			req: CreatePlatformRequest{
				Name: "shopify",
				Kind: "SHOP",
				Operations: map[string]string{
					string(integration.OpOrderWebhookHandler): "shopify",
					string(integration.OpAddTracking):         "https://adapter.example.com/tracking",
				},
				AppSecret: "secret",
			},
		},
		{
			name: "channel platform declaring a shop operation",
			req: CreatePlatformRequest{
				Name:       "supplier",
				Kind:       "CHANNEL",
				Operations: map[string]string{string(integration.OpOrderWebhookHandler): "supplier"},
			},
			wantCode: "INVALID_OPERATION",
		},
		{
			name:     "unknown kind",
			req:      CreatePlatformRequest{Name: "x", Kind: "WAREHOUSE"},
			wantCode: "INVALID_PLATFORM_KIND",
		},
		{
			name: "empty target",
			req: CreatePlatformRequest{
				Name:       "x",
				Kind:       "SHOP",
				Operations: map[string]string{string(integration.OpSearchOrders): "  "},
			},
			wantCode: "INVALID_OPERATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPlatformRepository)
			repo.On("Save", mock.Anything, mock.AnythingOfType("*integration.Platform")).Return(nil).Maybe()
			svc := NewPlatformService(repo, nil)

			resp, err := svc.CreatePlatform(context.Background(), ownerID, tt.req)

			if tt.wantCode != "" {
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.wantCode, domainErr.Code)
				repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.Name, resp.Name)
			assert.Equal(t, tt.req.Operations, resp.Operations)
			assert.True(t, resp.HasSecret)
		})
	}
}

func TestPlatformService_UpdatePlatform_KeepsUnsetCredentials(t *testing.T) {
	ownerID := uuid.New()
	p := newShopPlatform(ownerID)
	repo := new(MockPlatformRepository)
	repo.On("FindByID", mock.Anything, ownerID, p.ID).Return(p, nil)
	repo.On("Save", mock.Anything, p).Return(nil)

	key := "new-key"
	resp, err := NewPlatformService(repo, nil).UpdatePlatform(context.Background(), ownerID, p.ID, UpdatePlatformRequest{AppKey: &key})

	require.NoError(t, err)
	assert.Equal(t, "new-key", resp.AppKey)
	assert.Equal(t, "app-secret", p.AppSecret)
	assert.Len(t, resp.Operations, 6)
}

func TestPlatformService_ListPlatforms_RejectsUnknownKind(t *testing.T) {
	repo := new(MockPlatformRepository)

	_, err := NewPlatformService(repo, nil).ListPlatforms(context.Background(), uuid.New(), "WAREHOUSE")

	assert.Error(t, err)
	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestShopService_CreateShop(t *testing.T) {
	ownerID := uuid.New()

	t.Run("binds to a shop platform", func(t *testing.T) {
		platform := newShopPlatform(ownerID)
		platforms := new(MockPlatformRepository)
		shops := new(MockShopRepository)
		platforms.On("FindByID", mock.Anything, ownerID, platform.ID).Return(platform, nil)
		shops.On("Save", mock.Anything, mock.AnythingOfType("*integration.Shop")).Return(nil)

		resp, err := NewShopService(shops, platforms, nil, testPublicURL, nil).CreateShop(context.Background(), ownerID, CreateShopRequest{
			Name:        "Store",
			Domain:      "store.myshopify.com",
			AccessToken: "token",
			PlatformID:  platform.ID,
			LinkMode:    "simultaneous",
			Metadata:    map[string]string{"location": "gid://1"},
		})

		require.NoError(t, err)
		assert.Equal(t, "simultaneous", resp.LinkMode)
		assert.Equal(t, "shopify", resp.Platform)
		assert.True(t, resp.Connected)
		assert.Equal(t, "gid://1", resp.Metadata["location"])
	})

	t.Run("rejects a channel platform", func(t *testing.T) {
		platform := newChannelPlatform(ownerID)
		platforms := new(MockPlatformRepository)
		shops := new(MockShopRepository)
		platforms.On("FindByID", mock.Anything, ownerID, platform.ID).Return(platform, nil)

		_, err := NewShopService(shops, platforms, nil, testPublicURL, nil).CreateShop(context.Background(), ownerID, CreateShopRequest{
			Name:       "Store",
			Domain:     "store.example.com",
			PlatformID: platform.ID,
		})

		assert.ErrorIs(t, err, integration.ErrPlatformKindMismatch)
		shops.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("platform of another owner", func(t *testing.T) {
		platforms := new(MockPlatformRepository)
		platforms.On("FindByID", mock.Anything, ownerID, mock.Anything).Return(nil, shared.ErrNotFound)

		_, err := NewShopService(new(MockShopRepository), platforms, nil, testPublicURL, nil).CreateShop(context.Background(), ownerID, CreateShopRequest{
			Name:       "Store",
			Domain:     "store.example.com",
			PlatformID: uuid.New(),
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestShopService_CreateWebhook(t *testing.T) {
	ownerID := uuid.New()
	shop, err := integration.NewShop(ownerID, "Store", "store.myshopify.com", "token", newShopPlatform(ownerID))
	require.NoError(t, err)

	t.Run("registers the shop ingress route", func(t *testing.T) {
		shops := new(MockShopRepository)
		executor := new(MockExecutor)
		shops.On("FindByID", mock.Anything, ownerID, shop.ID).Return(shop, nil)

		wantURL := testPublicURL + "/api/v1/webhooks/shops/" + shop.ID.String() + "/orders/create"
		executor.On("Invoke", mock.Anything, mock.Anything, integration.OpCreateWebhook, integration.CreateWebhookRequest{
			Endpoint: wantURL,
			Events:   []string{"orders/create"},
		}).Return(json.RawMessage(`{"id":"wh-1"}`), nil)

		resp, err := NewShopService(shops, new(MockPlatformRepository), executor, testPublicURL+"/", nil).
			CreateWebhook(context.Background(), ownerID, shop.ID, CreateWebhookRequest{Topic: "orders/create"})

		require.NoError(t, err)
		assert.Equal(t, "wh-1", resp.ID)
		assert.Equal(t, wantURL, resp.CallbackURL)
		assert.Equal(t, "orders/create", resp.Topic)
		executor.AssertExpectations(t)
	})

	t.Run("channel topic on a shop", func(t *testing.T) {
		shops := new(MockShopRepository)
		executor := new(MockExecutor)
		shops.On("FindByID", mock.Anything, ownerID, shop.ID).Return(shop, nil)

		_, err := NewShopService(shops, new(MockPlatformRepository), executor, testPublicURL, nil).
			CreateWebhook(context.Background(), ownerID, shop.ID, CreateWebhookRequest{Topic: "tracking/create"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNSUPPORTED_TOPIC", domainErr.Code)
		executor.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("platform does not declare the operation", func(t *testing.T) {
		shops := new(MockShopRepository)
		executor := new(MockExecutor)
		shops.On("FindByID", mock.Anything, ownerID, shop.ID).Return(shop, nil)
		executor.On("Invoke", mock.Anything, mock.Anything, integration.OpCreateWebhook, mock.Anything).
			Return(nil, &integration.AdapterNotFoundError{Operation: integration.OpCreateWebhook})

		_, err := NewShopService(shops, new(MockPlatformRepository), executor, testPublicURL, nil).
			CreateWebhook(context.Background(), ownerID, shop.ID, CreateWebhookRequest{Topic: "orders/cancel"})

		assert.True(t, integration.IsAdapterNotFound(err))
	})
}

func TestShopService_ListAndDeleteWebhooks(t *testing.T) {
	ownerID := uuid.New()
	shop, err := integration.NewShop(ownerID, "Store", "store.myshopify.com", "token", newShopPlatform(ownerID))
	require.NoError(t, err)

	shops := new(MockShopRepository)
	executor := new(MockExecutor)
	shops.On("FindByID", mock.Anything, ownerID, shop.ID).Return(shop, nil)
	executor.On("Invoke", mock.Anything, mock.Anything, integration.OpGetWebhooks, mock.Anything).
		Return(json.RawMessage(`{"webhooks":[{"id":"wh-1","callbackUrl":"https://x/1","topic":"orders/create"},{"id":"wh-2","callbackUrl":"https://x/2","topic":"orders/cancel"}]}`), nil)
	executor.On("Invoke", mock.Anything, mock.Anything, integration.OpDeleteWebhook, integration.DeleteWebhookRequest{WebhookID: "wh-1"}).
		Return(json.RawMessage(`{}`), nil)
	svc := NewShopService(shops, new(MockPlatformRepository), executor, testPublicURL, nil)

	hooks, err := svc.ListWebhooks(context.Background(), ownerID, shop.ID)
	require.NoError(t, err)
	require.Len(t, hooks, 2)
	assert.Equal(t, "orders/cancel", hooks[1].Topic)

	require.NoError(t, svc.DeleteWebhook(context.Background(), ownerID, shop.ID, "wh-1"))
	assert.Error(t, svc.DeleteWebhook(context.Background(), ownerID, shop.ID, " "))
	executor.AssertNumberOfCalls(t, "Invoke", 2)
}

func TestShopService_SearchOrders(t *testing.T) {
	ownerID := uuid.New()
	shop, err := integration.NewShop(ownerID, "Store", "store.myshopify.com", "token", newShopPlatform(ownerID))
	require.NoError(t, err)

	shops := new(MockShopRepository)
	executor := new(MockExecutor)
	shops.On("FindByID", mock.Anything, ownerID, shop.ID).Return(shop, nil)
	executor.On("Invoke", mock.Anything, mock.MatchedBy(func(cfg integration.PlatformConfig) bool {
		return cfg.Domain == "store.myshopify.com" && cfg.AccessToken == "token"
	}), integration.OpSearchOrders, integration.SearchOrdersRequest{SearchEntry: "1001", After: "c1"}).
		Return(json.RawMessage(`{"orders":[{"orderId":"1001","lineItems":[]}],"pageInfo":{"hasNextPage":true,"endCursor":"c2"}}`), nil)

	resp, err := NewShopService(shops, new(MockPlatformRepository), executor, testPublicURL, nil).
		SearchOrders(context.Background(), ownerID, shop.ID, SearchRequest{Search: "1001", After: "c1"})

	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "1001", resp.Orders[0].OrderID)
	assert.True(t, resp.HasNextPage)
	assert.Equal(t, "c2", resp.EndCursor)
}

func TestChannelService_SearchProducts(t *testing.T) {
	ownerID := uuid.New()
	channel, err := integration.NewChannel(ownerID, "Supplier", "supplier.example.com", "token", newChannelPlatform(ownerID))
	require.NoError(t, err)

	tests := []struct {
		name      string
		raw       string
		invokeErr error
		wantLen   int
		wantErr   bool
	}{
		{name: "products", raw: `{"products":[{"productId":"p1","variantId":"v1","title":"Mug","price":"9.99","availableForSale":true}],"pageInfo":{}}`, wantLen: 1},
		{name: "no products", raw: `{}`, wantLen: 0},
		{name: "remote failure", invokeErr: &integration.AdapterHTTPError{Operation: integration.OpSearchProducts, Status: http.StatusBadGateway}, wantErr: true},
		{name: "garbage", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channels := new(MockChannelRepository)
			executor := new(MockExecutor)
			channels.On("FindByID", mock.Anything, ownerID, channel.ID).Return(channel, nil)
			call := executor.On("Invoke", mock.Anything, mock.Anything, integration.OpSearchProducts, integration.SearchProductsRequest{SearchEntry: "mug"})
			if tt.invokeErr != nil {
				call.Return(nil, tt.invokeErr)
			} else {
				call.Return(json.RawMessage(tt.raw), nil)
			}

			resp, err := NewChannelService(channels, new(MockPlatformRepository), executor, testPublicURL, nil).
				SearchProducts(context.Background(), ownerID, channel.ID, SearchRequest{Search: "mug"})

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, resp.Products)
			assert.Len(t, resp.Products, tt.wantLen)
		})
	}
}

func TestChannelService_CreateWebhook(t *testing.T) {
	ownerID := uuid.New()
	channel, err := integration.NewChannel(ownerID, "Supplier", "supplier.example.com", "token", newChannelPlatform(ownerID))
	require.NoError(t, err)

	channels := new(MockChannelRepository)
	executor := new(MockExecutor)
	channels.On("FindByID", mock.Anything, ownerID, channel.ID).Return(channel, nil)
	executor.On("Invoke", mock.Anything, mock.Anything, integration.OpCreateWebhook, mock.MatchedBy(func(req integration.CreateWebhookRequest) bool {
		return req.Endpoint == testPublicURL+"/api/v1/webhooks/channels/"+channel.ID.String()+"/tracking/create"
	})).Return(json.RawMessage(`{"id":"wh-9","callbackUrl":"https://elsewhere/cb","topic":"tracking/create"}`), nil)
	svc := NewChannelService(channels, new(MockPlatformRepository), executor, testPublicURL, nil)

	resp, err := svc.CreateWebhook(context.Background(), ownerID, channel.ID, CreateWebhookRequest{Topic: "tracking/create"})
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere/cb", resp.CallbackURL)

	_, err = svc.CreateWebhook(context.Background(), ownerID, channel.ID, CreateWebhookRequest{Topic: "orders/create"})
	assert.Error(t, err)
}

func TestChannelService_ListChannels_Defaults(t *testing.T) {
	ownerID := uuid.New()
	channel, err := integration.NewChannel(ownerID, "Supplier", "supplier.example.com", "", newChannelPlatform(ownerID))
	require.NoError(t, err)

	channels := new(MockChannelRepository)
	channels.On("FindAll", mock.Anything, ownerID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Search == "sup"
	})).Return([]integration.Channel{*channel}, int64(1), nil)

	out, total, err := NewChannelService(channels, new(MockPlatformRepository), nil, testPublicURL, nil).
		ListChannels(context.Background(), ownerID, ListFilter{Search: "sup"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, out, 1)
	assert.False(t, out[0].Connected)
}

func TestChannelService_UpdateChannel_NotFound(t *testing.T) {
	channels := new(MockChannelRepository)
	channels.On("FindByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	name := "x"
	_, err := NewChannelService(channels, new(MockPlatformRepository), nil, testPublicURL, nil).
		UpdateChannel(context.Background(), uuid.New(), uuid.New(), UpdateChannelRequest{Name: &name})

	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestCallbackURL(t *testing.T) {
	id := uuid.MustParse("7d1b0f2e-8a47-4c55-9d0c-3b2f5a6e1c90")

	assert.Equal(t, "https://h/api/v1/webhooks/shops/7d1b0f2e-8a47-4c55-9d0c-3b2f5a6e1c90/orders/cancel",
		CallbackURL("https://h/", integration.PlatformKindShop, id, integration.TopicOrderCancelled))
	assert.Equal(t, "https://h/api/v1/webhooks/channels/7d1b0f2e-8a47-4c55-9d0c-3b2f5a6e1c90/purchases/cancel",
		CallbackURL("https://h", integration.PlatformKindChannel, id, integration.TopicPurchaseCancelled))
}
