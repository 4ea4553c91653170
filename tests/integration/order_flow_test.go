//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	matchingapp "github.com/Rafcin/openship/internal/application/matching"
	orderapp "github.com/Rafcin/openship/internal/application/order"
	"github.com/Rafcin/openship/internal/application/webhook"
	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/interfaces/http/dto"
	"github.com/Rafcin/openship/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	s := NewTestServer(t)

	w := s.API.Do(t, http.MethodGet, "/ready", nil)
	testutil.RequireStatus(t, w, http.StatusOK)

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "up", health["checks"].(map[string]any)["database"])
}

func TestAuthentication(t *testing.T) {
	s := NewTestServer(t)

	anonymous := &testutil.APIClient{Handler: s.Engine}
	w := anonymous.Do(t, http.MethodGet, "/api/v1/shops", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// another owner cannot see the first owner's shop
	f := s.SetupFixture(t)
	token, err := s.JWT.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)
	other := &testutil.APIClient{Handler: s.Engine, Token: token}
	w = other.Do(t, http.MethodGet, "/api/v1/shops/"+f.ShopID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManualOrder_PlaceAndTrack(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)

	s.Adapter.Respond(integration.OpCreatePurchase, integration.CreatePurchaseResult{
		PurchaseID: "PO-1001",
		URL:        "https://supplier.test/po/1001",
	})
	s.Adapter.Respond(integration.OpAddTracking, map[string]any{})

	// Manual cart items bypass routing
	w := s.API.Do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"shop_id":           f.ShopID,
		"external_order_id": "1001",
		"order_name":        "#1001",
		"first_name":        "Ada",
		"last_name":         "Lovelace",
		"address1":          "1 Main St",
		"city":              "Springfield",
		"country":           "US",
		"line_items": []map[string]any{
			{"product_id": "p1", "variant_id": "v1", "quantity": 2, "price": "12.50"},
		},
		"cart_items": []map[string]any{
			{"channel_id": f.ChannelID, "product_id": "sup-1", "variant_id": "sup-v1", "quantity": 2, "price": "5.00"},
		},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var created orderapp.OrderResponse
	testutil.Decode(t, w, &created)
	assert.Equal(t, string(order.StatusPending), created.Status)
	require.Len(t, created.CartItems, 1)

	w = s.API.Do(t, http.MethodPost, "/api/v1/orders/"+created.ID.String()+"/place", nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	var placed orderapp.PlacementResponse
	testutil.Decode(t, w, &placed)
	assert.Equal(t, 1, placed.Placed)
	assert.Equal(t, 0, placed.Failed)

	calls := s.Adapter.Calls(integration.OpCreatePurchase)
	require.Len(t, calls, 1)
	var purchase integration.CreatePurchaseRequest
	raw, err := json.Marshal(calls[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &purchase))
	require.Len(t, purchase.CartItems, 1)
	assert.Contains(t, string(calls[0]["platformConfig"]), "channel-token")

	o := s.GetOrder(t, created.ID)
	assert.Equal(t, string(order.StatusAwaiting), o.Status)
	assert.Equal(t, "PO-1001", o.CartItems[0].PurchaseID)

	// Placing again is a no-op: the item already has a purchase
	w = s.API.Do(t, http.MethodPost, "/api/v1/orders/"+created.ID.String()+"/place", nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	assert.Len(t, s.Adapter.Calls(integration.OpCreatePurchase), 1)

	// Tracking arrives from the channel
	s.Adapter.Respond(integration.OpTrackingWebhookHandler, integration.WebhookEnvelope{
		Type:            integration.EventTrackingCreated,
		PurchaseID:      "PO-1001",
		TrackingCompany: "UPS",
		TrackingNumber:  "1Z999",
	})
	hookPath := "/api/v1/webhooks/channels/" + f.ChannelID.String() + "/" + string(integration.TopicTrackingCreated)
	w = s.API.Do(t, http.MethodPost, hookPath, []byte(`{"id":"t-1"}`), http.Header{"X-Delivery-Id": {"trk-1"}})
	testutil.RequireStatus(t, w, http.StatusOK)

	o = s.GetOrder(t, created.ID)
	assert.Equal(t, string(order.StatusComplete), o.Status)
	require.Len(t, o.Tracking, 1)
	assert.Equal(t, "1Z999", o.Tracking[0].TrackingNumber)
	assert.Len(t, s.Adapter.Calls(integration.OpAddTracking), 1)

	// The same delivery is acknowledged without being processed twice
	w = s.API.Do(t, http.MethodPost, hookPath, []byte(`{"id":"t-1"}`), http.Header{"X-Delivery-Id": {"trk-1"}})
	testutil.RequireStatus(t, w, http.StatusOK)
	var result webhook.Result
	testutil.Decode(t, w, &result)
	assert.True(t, result.Duplicate)
	assert.Len(t, s.Adapter.Calls(integration.OpTrackingWebhookHandler), 1)

	assert.GreaterOrEqual(t, s.Events.CountOf(order.EventTypeOrderCreated), 1)
	assert.GreaterOrEqual(t, s.Events.CountOf(order.EventTypeTrackingAdded), 1)
}

func TestWebhookOrder_RoutedByLink(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)

	w := s.API.Do(t, http.MethodPost, "/api/v1/links", map[string]any{
		"shop_id":    f.ShopID,
		"channel_id": f.ChannelID,
		"filter":     `order.country == "US"`,
	})
	testutil.RequireStatus(t, w, http.StatusCreated)

	s.Adapter.Respond(integration.OpOrderWebhookHandler, integration.WebhookEnvelope{
		Type: integration.EventOrderCreated,
		Order: &integration.ExternalOrder{
			OrderID:   "2001",
			OrderName: "#2001",
			Email:     "buyer@example.com",
			Country:   "US",
			LineItems: []integration.ExternalLineItem{
				{LineItemID: "li-1", Name: "Mug", ProductID: "p1", VariantID: "v1", Quantity: 1},
				{LineItemID: "li-2", Name: "Cap", ProductID: "p2", VariantID: "v2", Quantity: 3},
			},
		},
	})
	s.Adapter.Respond(integration.OpCreatePurchase, integration.CreatePurchaseResult{PurchaseID: "PO-2001"})

	hookPath := "/api/v1/webhooks/shops/" + f.ShopID.String() + "/" + string(integration.TopicOrderCreated)
	w = s.API.Do(t, http.MethodPost, hookPath, []byte(`{"id":2001}`), http.Header{"X-Delivery-Id": {"ord-2001"}})
	testutil.RequireStatus(t, w, http.StatusOK)
	var result webhook.Result
	testutil.Decode(t, w, &result)
	require.NotNil(t, result.OrderID)
	assert.Equal(t, integration.EventOrderCreated, result.Event)

	o := s.GetOrder(t, *result.OrderID)
	assert.Equal(t, "2001", o.ExternalOrderID)
	assert.Len(t, o.CartItems, 2)
	for _, ci := range o.CartItems {
		assert.Equal(t, f.ChannelID, ci.ChannelID)
		assert.Equal(t, "PO-2001", ci.PurchaseID)
	}
	assert.Equal(t, string(order.StatusAwaiting), o.Status)
	// both items go to one channel in one purchase
	assert.Len(t, s.Adapter.Calls(integration.OpCreatePurchase), 1)

	// a redelivery does not create a second order
	w = s.API.Do(t, http.MethodPost, hookPath, []byte(`{"id":2001}`), http.Header{"X-Delivery-Id": {"ord-2001"}})
	testutil.RequireStatus(t, w, http.StatusOK)
	var again webhook.Result
	testutil.Decode(t, w, &again)
	assert.True(t, again.Duplicate)
	assert.Len(t, s.Adapter.Calls(integration.OpOrderWebhookHandler), 1)
	assert.Equal(t, 1, s.Events.CountOf(order.EventTypeOrderCreated))
}

func TestWebhookOrder_NoLinkMatchedIsRecorded(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)

	w := s.API.Do(t, http.MethodPost, "/api/v1/links", map[string]any{
		"shop_id":    f.ShopID,
		"channel_id": f.ChannelID,
		"filter":     `order.country == "CA"`,
	})
	testutil.RequireStatus(t, w, http.StatusCreated)

	s.Adapter.Respond(integration.OpOrderWebhookHandler, integration.WebhookEnvelope{
		Type: integration.EventOrderCreated,
		Order: &integration.ExternalOrder{
			OrderID:   "3001",
			Country:   "US",
			LineItems: []integration.ExternalLineItem{{ProductID: "p1", Quantity: 1}},
		},
	})

	hookPath := "/api/v1/webhooks/shops/" + f.ShopID.String() + "/" + string(integration.TopicOrderCreated)
	w = s.API.Do(t, http.MethodPost, hookPath, []byte(`{"id":3001}`))
	testutil.RequireStatus(t, w, http.StatusOK)
	var result webhook.Result
	testutil.Decode(t, w, &result)
	require.NotNil(t, result.OrderID)

	o := s.GetOrder(t, *result.OrderID)
	assert.Equal(t, string(order.StatusPending), o.Status)
	assert.Empty(t, o.CartItems)
	assert.NotEmpty(t, o.Error)
	assert.Empty(t, s.Adapter.Calls(integration.OpCreatePurchase))
}

func TestMatchOrder(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)
	s.Adapter.Respond(integration.OpCreatePurchase, integration.CreatePurchaseResult{PurchaseID: "PO-4001"})

	match := map[string]any{
		"input": []map[string]any{
			{"shop_id": f.ShopID, "product_id": "p1", "variant_id": "v1", "quantity": 1},
		},
		"output": []map[string]any{
			{"channel_id": f.ChannelID, "product_id": "sup-1", "variant_id": "sup-v1", "quantity": 2, "price": "4.00"},
		},
	}
	w := s.API.Do(t, http.MethodPost, "/api/v1/matches", match)
	testutil.RequireStatus(t, w, http.StatusCreated)
	var created matchingapp.MatchResponse
	testutil.Decode(t, w, &created)

	// the same input fingerprint cannot be matched twice
	w = s.API.Do(t, http.MethodPost, "/api/v1/matches", match)
	testutil.RequireStatus(t, w, http.StatusConflict)
	resp := testutil.Decode(t, w, nil)
	assert.Equal(t, dto.ErrCodeDuplicateMatch, resp.Error.Code)

	w = s.API.Do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"shop_id":       f.ShopID,
		"order_name":    "#4001",
		"match_order":   true,
		"process_order": true,
		"line_items": []map[string]any{
			{"product_id": "p1", "variant_id": "v1", "quantity": 1},
		},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var o orderapp.OrderResponse
	testutil.Decode(t, w, &o)

	o = s.GetOrder(t, o.ID)
	require.Len(t, o.CartItems, 1)
	assert.Equal(t, "sup-1", o.CartItems[0].ProductID)
	assert.Equal(t, 2, o.CartItems[0].Quantity)
	assert.Equal(t, "PO-4001", o.CartItems[0].PurchaseID)
	assert.Equal(t, string(order.StatusAwaiting), o.Status)

	// an unmatched line item leaves the order pending with the reason
	w = s.API.Do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"shop_id":     f.ShopID,
		"match_order": true,
		"line_items": []map[string]any{
			{"product_id": "unknown", "quantity": 1},
		},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var unmatched orderapp.OrderResponse
	testutil.Decode(t, w, &unmatched)

	unmatched = s.GetOrder(t, unmatched.ID)
	assert.Equal(t, string(order.StatusPending), unmatched.Status)
	assert.NotEmpty(t, unmatched.Error)
	assert.Empty(t, unmatched.CartItems)
}

func TestPlacementFailureIsRecordedPerItem(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)
	s.Adapter.Respond(integration.OpCreatePurchase, integration.CreatePurchaseResult{Error: "out of stock"})

	w := s.API.Do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"shop_id": f.ShopID,
		"cart_items": []map[string]any{
			{"channel_id": f.ChannelID, "product_id": "sup-1", "quantity": 1},
		},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var o orderapp.OrderResponse
	testutil.Decode(t, w, &o)

	w = s.API.Do(t, http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/place", nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	var placed orderapp.PlacementResponse
	testutil.Decode(t, w, &placed)
	assert.Equal(t, 0, placed.Placed)
	assert.Equal(t, 1, placed.Failed)

	o = s.GetOrder(t, o.ID)
	assert.Equal(t, string(order.StatusPending), o.Status)
	require.Len(t, o.CartItems, 1)
	assert.Equal(t, "out of stock", o.CartItems[0].Error)
	assert.Empty(t, o.CartItems[0].PurchaseID)
}

func TestCancelOrder(t *testing.T) {
	s := NewTestServer(t)
	f := s.SetupFixture(t)

	w := s.API.Do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"shop_id": f.ShopID,
		"cart_items": []map[string]any{
			{"channel_id": f.ChannelID, "product_id": "sup-1", "quantity": 1},
		},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var o orderapp.OrderResponse
	testutil.Decode(t, w, &o)

	w = s.API.Do(t, http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/cancel", map[string]string{"reason": "customer request"})
	testutil.RequireStatus(t, w, http.StatusOK)

	o = s.GetOrder(t, o.ID)
	assert.Equal(t, string(order.StatusCancelled), o.Status)

	// placing a cancelled order does nothing
	w = s.API.Do(t, http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/place", nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	var placed orderapp.PlacementResponse
	testutil.Decode(t, w, &placed)
	assert.Zero(t, placed.Placed)
	assert.Empty(t, s.Adapter.Calls(integration.OpCreatePurchase))
}
