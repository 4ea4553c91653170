package integration

import (
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Platform DTOs
// ---------------------------------------------------------------------------

// CreatePlatformRequest declares a platform and its operation table
type CreatePlatformRequest struct {
	Name       string            `json:"name" binding:"required,min=1,max=255"`
	Kind       string            `json:"kind" binding:"required,oneof=SHOP CHANNEL"`
	Operations map[string]string `json:"operations"`
	AppKey     string            `json:"app_key" binding:"max=500"`
	AppSecret  string            `json:"app_secret" binding:"max=500"`
}

// UpdatePlatformRequest changes a platform. Nil fields are left as they are;
// a non-nil Operations replaces the whole table.
type UpdatePlatformRequest struct {
	Name       *string           `json:"name" binding:"omitempty,min=1,max=255"`
	Operations map[string]string `json:"operations"`
	AppKey     *string           `json:"app_key" binding:"omitempty,max=500"`
	AppSecret  *string           `json:"app_secret" binding:"omitempty,max=500"`
}

// PlatformResponse represents a platform in API responses. The app secret is
// never returned.
type PlatformResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Operations map[string]string `json:"operations"`
	AppKey     string            `json:"app_key,omitempty"`
	HasSecret  bool              `json:"has_secret"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ToPlatformResponse converts a platform to its API view
func ToPlatformResponse(p *integration.Platform) PlatformResponse {
	ops := make(map[string]string, len(p.Operations))
	for op, target := range p.Operations {
		ops[string(op)] = target
	}
	return PlatformResponse{
		ID:         p.ID,
		Name:       p.Name,
		Kind:       string(p.Kind),
		Operations: ops,
		AppKey:     p.AppKey,
		HasSecret:  p.AppSecret != "",
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toOperations(in map[string]string) map[integration.Operation]string {
	out := make(map[integration.Operation]string, len(in))
	for op, target := range in {
		out[integration.Operation(op)] = target
	}
	return out
}

// ---------------------------------------------------------------------------
// Shop / Channel DTOs
// ---------------------------------------------------------------------------

// CreateShopRequest connects a storefront
type CreateShopRequest struct {
	Name        string            `json:"name" binding:"required,min=1,max=255"`
	Domain      string            `json:"domain" binding:"required,max=255"`
	AccessToken string            `json:"access_token" binding:"max=2000"`
	PlatformID  uuid.UUID         `json:"platform_id" binding:"required"`
	LinkMode    string            `json:"link_mode" binding:"omitempty,link_mode"`
	Metadata    map[string]string `json:"metadata"`
}

// UpdateShopRequest changes a shop. Nil fields are left as they are.
type UpdateShopRequest struct {
	Name        *string           `json:"name" binding:"omitempty,min=1,max=255"`
	Domain      *string           `json:"domain" binding:"omitempty,max=255"`
	AccessToken *string           `json:"access_token" binding:"omitempty,max=2000"`
	LinkMode    *string           `json:"link_mode" binding:"omitempty,link_mode"`
	Metadata    map[string]string `json:"metadata"`
}

// ShopResponse represents a shop in API responses. The access token is never
// returned.
type ShopResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Domain     string            `json:"domain"`
	LinkMode   string            `json:"link_mode"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	PlatformID uuid.UUID         `json:"platform_id"`
	Platform   string            `json:"platform,omitempty"`
	Connected  bool              `json:"connected"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ToShopResponse converts a shop to its API view
func ToShopResponse(s *integration.Shop) ShopResponse {
	resp := ShopResponse{
		ID:         s.ID,
		Name:       s.Name,
		Domain:     s.Domain,
		LinkMode:   string(s.LinkMode),
		Metadata:   s.Metadata,
		PlatformID: s.PlatformID,
		Connected:  s.AccessToken != "",
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Platform != nil {
		resp.Platform = s.Platform.Name
	}
	return resp
}

// CreateChannelRequest connects a fulfillment channel
type CreateChannelRequest struct {
	Name        string            `json:"name" binding:"required,min=1,max=255"`
	Domain      string            `json:"domain" binding:"required,max=255"`
	AccessToken string            `json:"access_token" binding:"max=2000"`
	PlatformID  uuid.UUID         `json:"platform_id" binding:"required"`
	Metadata    map[string]string `json:"metadata"`
}

// UpdateChannelRequest changes a channel. Nil fields are left as they are.
type UpdateChannelRequest struct {
	Name        *string           `json:"name" binding:"omitempty,min=1,max=255"`
	Domain      *string           `json:"domain" binding:"omitempty,max=255"`
	AccessToken *string           `json:"access_token" binding:"omitempty,max=2000"`
	Metadata    map[string]string `json:"metadata"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Domain     string            `json:"domain"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	PlatformID uuid.UUID         `json:"platform_id"`
	Platform   string            `json:"platform,omitempty"`
	Connected  bool              `json:"connected"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ToChannelResponse converts a channel to its API view
func ToChannelResponse(c *integration.Channel) ChannelResponse {
	resp := ChannelResponse{
		ID:         c.ID,
		Name:       c.Name,
		Domain:     c.Domain,
		Metadata:   c.Metadata,
		PlatformID: c.PlatformID,
		Connected:  c.AccessToken != "",
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.Platform != nil {
		resp.Platform = c.Platform.Name
	}
	return resp
}

// ListFilter pages shop and channel listings
type ListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ---------------------------------------------------------------------------
// Webhook registration and search DTOs
// ---------------------------------------------------------------------------

// CreateWebhookRequest registers the engine's callback for a topic
type CreateWebhookRequest struct {
	Topic string `json:"topic" binding:"required,webhook_topic"`
}

// WebhookResponse is a webhook subscription on the platform
type WebhookResponse struct {
	ID          string `json:"id"`
	CallbackURL string `json:"callback_url"`
	Topic       string `json:"topic"`
}

// SearchRequest is a passthrough search with cursor pagination
type SearchRequest struct {
	Search string `form:"search" binding:"max=255"`
	After  string `form:"after" binding:"max=500"`
}

// ProductSearchResponse is a page of products from a platform
type ProductSearchResponse struct {
	Products    []integration.Product `json:"products"`
	HasNextPage bool                  `json:"has_next_page"`
	EndCursor   string                `json:"end_cursor,omitempty"`
}

// OrderSearchResponse is a page of orders from a storefront
type OrderSearchResponse struct {
	Orders      []integration.ExternalOrder `json:"orders"`
	HasNextPage bool                        `json:"has_next_page"`
	EndCursor   string                      `json:"end_cursor,omitempty"`
}

// ---------------------------------------------------------------------------
// OAuth DTOs
// ---------------------------------------------------------------------------

// OAuthStartRequest begins connecting a shop or channel through OAuth
type OAuthStartRequest struct {
	PlatformID  uuid.UUID `json:"platform_id" binding:"required"`
	Domain      string    `json:"domain" binding:"required,max=255"`
	RedirectURI string    `json:"redirect_uri" binding:"omitempty,url"`
	Scopes      []string  `json:"scopes"`
}

// OAuthStartResponse carries the URL the user is sent to
type OAuthStartResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// OAuthCallbackRequest is the platform's redirect back. Domain is used when
// the platform does not echo the state.
type OAuthCallbackRequest struct {
	Code   string `form:"code" binding:"required"`
	State  string `form:"state"`
	Domain string `form:"shop"`
}

// OAuthCallbackResponse names the shop or channel that was connected
type OAuthCallbackResponse struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
