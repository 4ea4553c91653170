package order

import (
	"context"
	"errors"
	"testing"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func (f *orderFixture) createRequest(intents order.Intents, productIDs ...string) CreateOrderRequest {
	req := CreateOrderRequest{
		ShopID:          f.shop.ID,
		ExternalOrderID: "1001",
		OrderName:       "#1001",
		Email:           "buyer@example.com",
		Country:         "CA",
		Currency:        "CAD",
		TotalPrice:      decimal.NewFromInt(20),
		LinkOrder:       intents.LinkOrder,
		MatchOrder:      intents.MatchOrder,
		ProcessOrder:    intents.ProcessOrder,
	}
	for _, pid := range productIDs {
		req.LineItems = append(req.LineItems, LineItemInput{
			Name:      "Item " + pid,
			ProductID: pid,
			VariantID: pid + "-v",
			Quantity:  1,
			Price:     decimal.NewFromInt(10),
		})
	}
	return req
}

func (f *orderFixture) expectNewOrder() {
	f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(f.shop, nil)
	f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, "1001").Return(nil, shared.ErrNotFound)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
}

// placedOrder builds an AWAITING order with one item placed as PA-1 on
// supplier A and one placed as PB-1 on supplier B
func (f *orderFixture) placedOrder(t *testing.T) (*order.Order, uuid.UUID, uuid.UUID) {
	t.Helper()
	o := f.newOrder(t, intentsPlaceOnly, "p1", "p2")
	a := f.addCartItem(t, o, f.supplierA, "p1")
	a.MarkPlaced("PA-1", "")
	b := f.addCartItem(t, o, f.supplierB, "p2")
	b.MarkPlaced("PB-1", "")
	aID, bID := a.ID, b.ID
	require.True(t, o.RefreshPlacementStatus())
	require.Equal(t, order.StatusAwaiting, o.Status)
	o.ClearDomainEvents()
	return o, aID, bID
}

// ---------------------------------------------------------------------------
// CreateOrder routing
// ---------------------------------------------------------------------------

func TestLifecycleService_CreateOrder_LinkRoute(t *testing.T) {
	f := newOrderFixture(t)
	f.expectNewOrder()
	f.links.On("Resolve", mock.Anything, mock.Anything, f.shop).Return([]routing.Route{
		{LinkID: uuid.New(), ChannelID: f.supplierA.ID, Rank: 1},
		{LinkID: uuid.New(), ChannelID: f.supplierB.ID, Rank: 2},
	}, nil)
	f.cartItems.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(order.Intents{LinkOrder: true, MatchOrder: true}, "p1", "p2"))
	require.NoError(t, err)

	// one cart item per line item per route
	require.Len(t, resp.CartItems, 4)
	perChannel := map[uuid.UUID]int{}
	for _, ci := range resp.CartItems {
		perChannel[ci.ChannelID]++
		assert.NotNil(t, ci.LineItemID)
	}
	assert.Equal(t, 2, perChannel[f.supplierA.ID])
	assert.Equal(t, 2, perChannel[f.supplierB.ID])
	assert.Equal(t, order.StatusPending.String(), resp.Status)
	assert.Empty(t, resp.Error)

	f.matcher.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.executor.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_CreateOrder_LinkRouteThenPlace(t *testing.T) {
	f := newOrderFixture(t)
	f.expectNewOrder()
	f.links.On("Resolve", mock.Anything, mock.Anything, f.shop).Return([]routing.Route{
		{LinkID: uuid.New(), ChannelID: f.supplierA.ID, Rank: 1},
	}, nil)
	f.cartItems.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cartItems.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.expectChannels(f.supplierA)
	f.expectPurchase(f.supplierA, `{"purchaseId":"PA-1"}`, nil)
	f.expectShopCall(integration.OpAddCartToPlatformOrder, nil)

	resp, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(WebhookIntents, "p1"))
	require.NoError(t, err)

	assert.Equal(t, order.StatusAwaiting.String(), resp.Status)
	require.Len(t, resp.CartItems, 1)
	assert.Equal(t, "PA-1", resp.CartItems[0].PurchaseID)
}

func TestLifecycleService_CreateOrder_NoLinksFallsBackToMatch(t *testing.T) {
	f := newOrderFixture(t)
	f.expectNewOrder()
	f.links.On("Resolve", mock.Anything, mock.Anything, f.shop).Return(nil, routing.ErrShopHasNoLinks)

	channelItem, err := matching.NewChannelItem(f.ownerID, f.supplierA.ID, matching.ItemTuple{ProductID: "c1", VariantID: "cv1", Quantity: 2}, decimal.NewFromInt(3))
	require.NoError(t, err)
	channelItem.Name = "Supplier mug"
	warning := matching.PriceChangeWarning(decimal.NewFromInt(3), decimal.RequireFromString("3.5"))
	f.matcher.On("Resolve", mock.Anything, f.ownerID, []matching.ItemTuple{{ProductID: "p1", VariantID: "p1-v", Quantity: 1}}).
		Return([]matching.ResolvedItem{{MatchID: uuid.New(), Item: *channelItem, Warning: warning}}, nil)
	f.cartItems.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(order.Intents{LinkOrder: true, MatchOrder: true}, "p1"))
	require.NoError(t, err)

	require.Len(t, resp.CartItems, 1)
	ci := resp.CartItems[0]
	assert.Equal(t, f.supplierA.ID, ci.ChannelID)
	assert.Equal(t, "c1", ci.ProductID)
	assert.Equal(t, 2, ci.Quantity)
	assert.Equal(t, "Supplier mug", ci.Name)
	assert.Equal(t, warning, ci.Error)
	assert.Nil(t, ci.LineItemID)
}

func TestLifecycleService_CreateOrder_RoutingFailures(t *testing.T) {
	tests := []struct {
		name      string
		linkErr   error
		matchErr  error
		wantError string
		wantMatch bool
		intents   order.Intents
	}{
		{
			name:      "no link matched",
			linkErr:   routing.ErrNoLinkMatched,
			wantError: routing.ErrNoLinkMatched.Error(),
			intents:   order.Intents{LinkOrder: true, MatchOrder: true},
		},
		{
			name:      "partial match",
			linkErr:   routing.ErrShopHasNoLinks,
			matchErr:  &matching.PartialMatchError{Unmatched: []matching.ItemTuple{{ProductID: "p2", VariantID: "p2-v", Quantity: 1}}},
			wantError: "p2",
			wantMatch: true,
			intents:   order.Intents{LinkOrder: true, MatchOrder: true},
		},
		{
			name:      "no match",
			matchErr:  matching.ErrNoMatch,
			wantError: matching.ErrNoMatch.Error(),
			wantMatch: true,
			intents:   order.Intents{MatchOrder: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.expectNewOrder()
			if tt.linkErr != nil {
				f.links.On("Resolve", mock.Anything, mock.Anything, f.shop).Return(nil, tt.linkErr)
			}
			if tt.matchErr != nil {
				f.matcher.On("Resolve", mock.Anything, f.ownerID, mock.Anything).Return(nil, tt.matchErr)
			}

			resp, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(tt.intents, "p1", "p2"))
			require.NoError(t, err)

			assert.Empty(t, resp.CartItems)
			assert.Contains(t, resp.Error, tt.wantError)
			assert.Equal(t, order.StatusPending.String(), resp.Status)
			f.cartItems.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			if !tt.wantMatch {
				f.matcher.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestLifecycleService_CreateOrder_ManualRoute(t *testing.T) {
	f := newOrderFixture(t)
	f.expectNewOrder()

	req := f.createRequest(order.Intents{}, "p1")
	req.CartItems = []CartItemInput{{ChannelID: f.supplierB.ID, ProductID: "b1", VariantID: "bv1", Quantity: 1, Price: decimal.NewFromInt(7)}}

	resp, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, req)
	require.NoError(t, err)

	require.Len(t, resp.CartItems, 1)
	assert.Equal(t, f.supplierB.ID, resp.CartItems[0].ChannelID)
	f.links.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.matcher.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.executor.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_CreateOrder_Errors(t *testing.T) {
	t.Run("foreign shop", func(t *testing.T) {
		f := newOrderFixture(t)
		f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(nil, shared.ErrNotFound)

		_, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(order.Intents{}, "p1"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("link resolver failure", func(t *testing.T) {
		f := newOrderFixture(t)
		f.expectNewOrder()
		f.links.On("Resolve", mock.Anything, mock.Anything, f.shop).Return(nil, errors.New("db down"))

		_, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(order.Intents{LinkOrder: true}, "p1"))
		assert.EqualError(t, err, "db down")
	})
}

func TestLifecycleService_HandleOrderCreated_Redelivery(t *testing.T) {
	f := newOrderFixture(t)
	existing := f.newOrder(t, WebhookIntents, "p1")
	f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, "1001").Return(existing, nil)

	got, err := f.lifecycle.HandleOrderCreated(context.Background(), f.shop, integration.OrderCreatedEvent{
		Order: integration.ExternalOrder{OrderID: "1001", LineItems: []integration.ExternalLineItem{{ProductID: "p1", Quantity: 1}}},
	})
	require.NoError(t, err)

	assert.Same(t, existing, got)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.links.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_CreateOrder_ConcurrentDeliveryStoredFirst(t *testing.T) {
	f := newOrderFixture(t)
	existing := f.newOrder(t, WebhookIntents, "p1")
	f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(f.shop, nil)
	f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, "1001").Return(nil, shared.ErrNotFound).Once()
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(shared.ErrAlreadyExists)
	f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, "1001").Return(existing, nil).Once()

	got, err := f.lifecycle.CreateOrder(context.Background(), f.ownerID, f.createRequest(order.Intents{LinkOrder: true}, "p1"))
	require.NoError(t, err)

	assert.Equal(t, existing.ID, got.ID)
	f.orders.AssertNumberOfCalls(t, "FindByExternalID", 2)
	f.links.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestLifecycleService_ProcessOrder(t *testing.T) {
	t.Run("re-routes an unrouted order and clears its error", func(t *testing.T) {
		f := newOrderFixture(t)
		o := f.newOrder(t, order.Intents{LinkOrder: true}, "p1")
		o.SetRoutingError(routing.ErrNoLinkMatched.Error())

		f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)
		f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(f.shop, nil)
		f.links.On("Resolve", mock.Anything, o, f.shop).Return([]routing.Route{{ChannelID: f.supplierA.ID, Rank: 1}}, nil)
		f.cartItems.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.expectPersistence()
		f.expectChannels(f.supplierA)
		f.expectPurchase(f.supplierA, `{"purchaseId":"PA-1"}`, nil)
		f.executor.On("Invoke", mock.Anything, mock.Anything, integration.OpAddCartToPlatformOrder, mock.Anything).
			Return(nil, errors.New("storefront unavailable"))

		resp, err := f.lifecycle.ProcessOrder(context.Background(), f.ownerID, o.ID)
		require.NoError(t, err)

		assert.Empty(t, resp.Error)
		assert.Equal(t, order.StatusAwaiting.String(), resp.Status)
	})

	t.Run("places existing cart items without routing", func(t *testing.T) {
		f := newOrderFixture(t)
		o := f.newOrder(t, order.Intents{LinkOrder: true}, "p1")
		f.addCartItem(t, o, f.supplierA, "p1")

		f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)
		f.shops.On("FindByID", mock.Anything, f.ownerID, f.shop.ID).Return(f.shop, nil)
		f.expectPersistence()
		f.expectChannels(f.supplierA)
		f.expectPurchase(f.supplierA, `{"error":"card declined"}`, nil)

		resp, err := f.lifecycle.ProcessOrder(context.Background(), f.ownerID, o.ID)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPending.String(), resp.Status)
		assert.Equal(t, order.PlacementErrorPrefix+"card declined", resp.CartItems[0].Error)
		f.links.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	settleTests := []struct {
		name       string
		track      bool
		wantStatus order.Status
	}{
		{name: "fully placed pending order moves to awaiting", wantStatus: order.StatusAwaiting},
		{name: "fully placed and tracked order completes", track: true, wantStatus: order.StatusComplete},
	}
	for _, tt := range settleTests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			o := f.newOrder(t, intentsPlaceOnly, "p1")
			f.addCartItem(t, o, f.supplierA, "p1").MarkPlaced("PA-1", "")
			if tt.track {
				td, err := order.NewTrackingDetail(o.ID, "PA-1", "UPS", "1Z", []uuid.UUID{o.CartItems[0].ID})
				require.NoError(t, err)
				o.AddTracking(*td)
			}
			require.Equal(t, order.StatusPending, o.Status)

			f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)
			f.expectPersistence()
			f.expectShopCall(integration.OpAddCartToPlatformOrder, nil)

			resp, err := f.lifecycle.ProcessOrder(context.Background(), f.ownerID, o.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus.String(), resp.Status)
			assert.Zero(t, countCalls(&f.executor.Mock, "Invoke", integration.OpCreatePurchase))
			assert.Equal(t, 1, countCalls(&f.executor.Mock, "Invoke", integration.OpAddCartToPlatformOrder))
		})
	}

	t.Run("cancelled order", func(t *testing.T) {
		f := newOrderFixture(t)
		o := f.newOrder(t, order.Intents{}, "p1")
		require.NoError(t, o.Cancel("test"))
		f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)

		_, err := f.lifecycle.ProcessOrder(context.Background(), f.ownerID, o.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

func TestLifecycleService_HandleTrackingCreated_CompletesOnceEveryItemIsTracked(t *testing.T) {
	f := newOrderFixture(t)
	o, aID, bID := f.placedOrder(t)

	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierA.ID, "PA-1").Return([]order.CartItem{*o.CartItem(aID)}, nil)
	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierB.ID, "PB-1").Return([]order.CartItem{*o.CartItem(bID)}, nil)
	f.orders.On("FindByIDUnscoped", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("Update", mock.Anything, o).Return(nil)
	f.tracking.On("Create", mock.Anything, mock.AnythingOfType("*order.TrackingDetail")).Return(nil)
	f.expectShopCall(integration.OpAddTracking, nil)

	err := f.lifecycle.HandleTrackingCreated(context.Background(), f.supplierA, integration.TrackingCreatedEvent{
		PurchaseID: "PA-1", TrackingCompany: "UPS", TrackingNumber: "1Z1",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusAwaiting, o.Status)
	assert.True(t, o.HasTracking(aID))

	err = f.lifecycle.HandleTrackingCreated(context.Background(), f.supplierB, integration.TrackingCreatedEvent{
		PurchaseID: "PB-1", TrackingCompany: "USPS", TrackingNumber: "9400",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusComplete, o.Status)
	assert.Equal(t, 2, countCalls(&f.executor.Mock, "Invoke", integration.OpAddTracking))
	for _, c := range f.executor.Calls {
		if c.Arguments.Get(2) == integration.OpAddTracking {
			cfg := c.Arguments.Get(1).(integration.PlatformConfig)
			assert.Equal(t, f.shop.Domain, cfg.Domain, "tracking goes to the shop even when the channel declares addTracking")
		}
	}
}

func TestLifecycleService_HandleTrackingCreated_Redelivery(t *testing.T) {
	f := newOrderFixture(t)
	o, aID, _ := f.placedOrder(t)
	td, err := order.NewTrackingDetail(o.ID, "PA-1", "UPS", "1Z1", []uuid.UUID{aID})
	require.NoError(t, err)
	o.AddTracking(*td)

	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierA.ID, "PA-1").Return([]order.CartItem{*o.CartItem(aID)}, nil)
	f.orders.On("FindByIDUnscoped", mock.Anything, o.ID).Return(o, nil)

	err = f.lifecycle.HandleTrackingCreated(context.Background(), f.supplierA, integration.TrackingCreatedEvent{
		PurchaseID: "PA-1", TrackingCompany: "UPS", TrackingNumber: "1Z1",
	})
	require.NoError(t, err)
	assert.Len(t, o.TrackingDetails, 1)
	f.tracking.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLifecycleService_HandleTrackingCreated_UnknownPurchase(t *testing.T) {
	f := newOrderFixture(t)
	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierA.ID, "nope").Return([]order.CartItem{}, nil)

	err := f.lifecycle.HandleTrackingCreated(context.Background(), f.supplierA, integration.TrackingCreatedEvent{PurchaseID: "nope", TrackingNumber: "1"})
	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "FindByIDUnscoped", mock.Anything, mock.Anything)
}

func TestLifecycleService_CancelledPurchaseIsExcludedFromCompletion(t *testing.T) {
	f := newOrderFixture(t)
	o, aID, bID := f.placedOrder(t)

	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierB.ID, "PB-1").Return([]order.CartItem{*o.CartItem(bID)}, nil)
	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierA.ID, "PA-1").Return([]order.CartItem{*o.CartItem(aID)}, nil)
	f.cartItems.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("FindByIDUnscoped", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("Update", mock.Anything, o).Return(nil)
	f.tracking.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectShopCall(integration.OpAddTracking, nil)

	err := f.lifecycle.HandlePurchaseCancelled(context.Background(), f.supplierB, integration.PurchaseCancelledEvent{PurchaseID: "PB-1"})
	require.NoError(t, err)
	assert.True(t, o.CartItem(bID).IsCancelled())
	assert.Equal(t, order.StatusAwaiting, o.Status)

	err = f.lifecycle.HandleTrackingCreated(context.Background(), f.supplierA, integration.TrackingCreatedEvent{
		PurchaseID: "PA-1", TrackingNumber: "1Z1",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusComplete, o.Status)
}

func TestLifecycleService_EveryPurchaseCancelledLeavesOrderAwaiting(t *testing.T) {
	f := newOrderFixture(t)
	o, aID, bID := f.placedOrder(t)

	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierA.ID, "PA-1").Return([]order.CartItem{*o.CartItem(aID)}, nil)
	f.cartItems.On("FindByPurchaseID", mock.Anything, f.supplierB.ID, "PB-1").Return([]order.CartItem{*o.CartItem(bID)}, nil)
	f.cartItems.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("FindByIDUnscoped", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("Update", mock.Anything, o).Return(nil)

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	require.NoError(t, f.lifecycle.HandlePurchaseCancelled(ctx, f.supplierA, integration.PurchaseCancelledEvent{PurchaseID: "PA-1"}))
	assert.Zero(t, logs.FilterMessage("Every purchase of the order was cancelled").Len())

	require.NoError(t, f.lifecycle.HandlePurchaseCancelled(ctx, f.supplierB, integration.PurchaseCancelledEvent{PurchaseID: "PB-1"}))
	assert.Equal(t, order.StatusAwaiting, o.Status)
	assert.Empty(t, o.ActiveCartItems())

	warned := logs.FilterMessage("Every purchase of the order was cancelled").All()
	require.Len(t, warned, 1)
	assert.Equal(t, o.ID.String(), warned[0].ContextMap()["order_id"])
	assert.Equal(t, f.supplierB.ID.String(), warned[0].ContextMap()["channel_id"])
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestLifecycleService_CancelOrder(t *testing.T) {
	t.Run("cancels the order and its items", func(t *testing.T) {
		f := newOrderFixture(t)
		o, aID, bID := f.placedOrder(t)
		f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)
		f.expectPersistence()

		resp, err := f.lifecycle.CancelOrder(context.Background(), f.ownerID, o.ID, "buyer asked")
		require.NoError(t, err)

		assert.Equal(t, order.StatusCancelled.String(), resp.Status)
		assert.True(t, o.CartItem(aID).IsCancelled())
		assert.True(t, o.CartItem(bID).IsCancelled())
		f.cartItems.AssertNumberOfCalls(t, "Update", 2)
	})

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		f := newOrderFixture(t)
		o := f.newOrder(t, order.Intents{}, "p1")
		require.NoError(t, o.Cancel("first"))
		f.orders.On("FindByID", mock.Anything, f.ownerID, o.ID).Return(o, nil)

		_, err := f.lifecycle.CancelOrder(context.Background(), f.ownerID, o.ID, "again")
		require.NoError(t, err)
		f.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestLifecycleService_HandleOrderCancelled(t *testing.T) {
	t.Run("known order", func(t *testing.T) {
		f := newOrderFixture(t)
		o := f.newOrder(t, order.Intents{}, "p1")
		f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, o.ExternalOrderID).Return(o, nil)
		f.orders.On("FindByIDUnscoped", mock.Anything, o.ID).Return(o, nil)
		f.expectPersistence()

		err := f.lifecycle.HandleOrderCancelled(context.Background(), f.shop, integration.OrderCancelledEvent{OrderID: o.ExternalOrderID})
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, o.Status)
	})

	t.Run("unknown order is acknowledged", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("FindByExternalID", mock.Anything, f.shop.ID, "missing").Return(nil, shared.ErrNotFound)

		err := f.lifecycle.HandleOrderCancelled(context.Background(), f.shop, integration.OrderCancelledEvent{OrderID: "missing"})
		require.NoError(t, err)
	})
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestLifecycleService_ListOrders_AppliesDefaults(t *testing.T) {
	f := newOrderFixture(t)
	o := f.newOrder(t, order.Intents{}, "p1")
	f.orders.On("FindAll", mock.Anything, f.ownerID, mock.MatchedBy(func(filter order.Filter) bool {
		return filter.Page == 1 && filter.PageSize == 20 && filter.Status == order.StatusPending
	})).Return([]order.Order{*o}, int64(1), nil)

	items, total, err := f.lifecycle.ListOrders(context.Background(), f.ownerID, OrderListFilter{Status: "PENDING"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, o.ID, items[0].ID)
}
