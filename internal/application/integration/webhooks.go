package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
)

const defaultAdapterTimeout = 30 * time.Second

// remote runs the platform operations behind webhook registration and
// passthrough search for one side (shops or channels)
type remote struct {
	executor  integration.Executor
	publicURL string
	side      integration.PlatformKind
	timeout   time.Duration
}

// CallbackURL is where a platform must deliver topic for the connection id
func CallbackURL(publicURL string, side integration.PlatformKind, id uuid.UUID, topic integration.WebhookTopic) string {
	segment := "shops"
	if side == integration.PlatformKindChannel {
		segment = "channels"
	}
	return fmt.Sprintf("%s/api/v1/webhooks/%s/%s/%s", strings.TrimRight(publicURL, "/"), segment, id, topic)
}

func (r remote) createWebhook(ctx context.Context, cfg integration.PlatformConfig, id uuid.UUID, topic integration.WebhookTopic) (*WebhookResponse, error) {
	_, kind, err := topic.Operation()
	if err != nil || kind != r.side {
		return nil, shared.NewDomainError("UNSUPPORTED_TOPIC", fmt.Sprintf("%s is not a %s topic", topic, strings.ToLower(string(r.side))))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	callback := CallbackURL(r.publicURL, r.side, id, topic)
	wh, err := integration.Call[integration.Webhook](ctx, r.executor, cfg, integration.OpCreateWebhook, integration.CreateWebhookRequest{
		Endpoint: callback,
		Events:   []string{string(topic)},
	})
	if err != nil {
		return nil, err
	}
	resp := WebhookResponse{ID: wh.ID, CallbackURL: wh.CallbackURL, Topic: wh.Topic}
	if resp.CallbackURL == "" {
		resp.CallbackURL = callback
	}
	if resp.Topic == "" {
		resp.Topic = string(topic)
	}
	return &resp, nil
}

func (r remote) listWebhooks(ctx context.Context, cfg integration.PlatformConfig) ([]WebhookResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := integration.Call[integration.GetWebhooksResult](ctx, r.executor, cfg, integration.OpGetWebhooks, struct{}{})
	if err != nil {
		return nil, err
	}
	out := make([]WebhookResponse, len(res.Webhooks))
	for i, wh := range res.Webhooks {
		out[i] = WebhookResponse{ID: wh.ID, CallbackURL: wh.CallbackURL, Topic: wh.Topic}
	}
	return out, nil
}

func (r remote) deleteWebhook(ctx context.Context, cfg integration.PlatformConfig, webhookID string) error {
	if strings.TrimSpace(webhookID) == "" {
		return shared.NewDomainError("INVALID_WEBHOOK_ID", "Webhook id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.executor.Invoke(ctx, cfg, integration.OpDeleteWebhook, integration.DeleteWebhookRequest{WebhookID: webhookID})
	return err
}

func (r remote) searchProducts(ctx context.Context, cfg integration.PlatformConfig, req SearchRequest) (*ProductSearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := integration.Call[integration.SearchProductsResult](ctx, r.executor, cfg, integration.OpSearchProducts, integration.SearchProductsRequest{
		SearchEntry: req.Search,
		After:       req.After,
	})
	if err != nil {
		return nil, err
	}
	products := res.Products
	if products == nil {
		products = []integration.Product{}
	}
	return &ProductSearchResponse{
		Products:    products,
		HasNextPage: res.PageInfo.HasNextPage,
		EndCursor:   res.PageInfo.EndCursor,
	}, nil
}

func (r remote) searchOrders(ctx context.Context, cfg integration.PlatformConfig, req SearchRequest) (*OrderSearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := integration.Call[integration.SearchOrdersResult](ctx, r.executor, cfg, integration.OpSearchOrders, integration.SearchOrdersRequest{
		SearchEntry: req.Search,
		After:       req.After,
	})
	if err != nil {
		return nil, err
	}
	orders := res.Orders
	if orders == nil {
		orders = []integration.ExternalOrder{}
	}
	return &OrderSearchResponse{
		Orders:      orders,
		HasNextPage: res.PageInfo.HasNextPage,
		EndCursor:   res.PageInfo.EndCursor,
	}, nil
}

func toFilter(f ListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	return filter
}
