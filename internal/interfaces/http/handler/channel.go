package handler

import (
	"context"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChannelService manages fulfillment channel connections
type ChannelService interface {
	CreateChannel(ctx context.Context, ownerID uuid.UUID, req integrationapp.CreateChannelRequest) (*integrationapp.ChannelResponse, error)
	UpdateChannel(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.UpdateChannelRequest) (*integrationapp.ChannelResponse, error)
	GetChannel(ctx context.Context, ownerID, id uuid.UUID) (*integrationapp.ChannelResponse, error)
	ListChannels(ctx context.Context, ownerID uuid.UUID, f integrationapp.ListFilter) ([]integrationapp.ChannelResponse, int64, error)
	DeleteChannel(ctx context.Context, ownerID, id uuid.UUID) error
	CreateWebhook(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.CreateWebhookRequest) (*integrationapp.WebhookResponse, error)
	ListWebhooks(ctx context.Context, ownerID, id uuid.UUID) ([]integrationapp.WebhookResponse, error)
	DeleteWebhook(ctx context.Context, ownerID, id uuid.UUID, webhookID string) error
	SearchProducts(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.SearchRequest) (*integrationapp.ProductSearchResponse, error)
}

// ChannelHandler handles channel-related API endpoints
type ChannelHandler struct {
	BaseHandler
	channelService ChannelService
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(channelService ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Create godoc
// @ID           createChannel
//
//	@Summary		Create a channel
//	@Tags			channels
//	@Accept			json
//	@Produce		json
//	@Param			request	body		integrationapp.CreateChannelRequest	true	"Channel creation request"
//	@Success		201		{object}	APIResponse[integrationapp.ChannelResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/channels [post]
func (h *ChannelHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req integrationapp.CreateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.channelService.CreateChannel(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, channel)
}

// List godoc
// @ID           listChannels
//
//	@Summary		List channels
//	@Tags			channels
//	@Produce		json
//	@Param			search		query		string	false	"Name search"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]integrationapp.ChannelResponse]
//	@Security		BearerAuth
//	@Router			/channels [get]
func (h *ChannelHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var f integrationapp.ListFilter
	if !h.bindQuery(c, &f) {
		return
	}

	channels, total, err := h.channelService.ListChannels(c.Request.Context(), ownerID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := normalizePage(f.Page, f.PageSize)
	h.SuccessWithMeta(c, channels, total, page, pageSize)
}

// Get godoc
// @ID           getChannel
//
//	@Summary		Get a channel
//	@Tags			channels
//	@Produce		json
//	@Param			id	path		string	true	"Channel ID"	format(uuid)
//	@Success		200	{object}	APIResponse[integrationapp.ChannelResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}

	channel, err := h.channelService.GetChannel(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// Update godoc
// @ID           updateChannel
//
//	@Summary		Update a channel
//	@Tags			channels
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Channel ID"	format(uuid)
//	@Param			request	body		integrationapp.UpdateChannelRequest	true	"Channel update request"
//	@Success		200		{object}	APIResponse[integrationapp.ChannelResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/channels/{id} [put]
func (h *ChannelHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}
	var req integrationapp.UpdateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.channelService.UpdateChannel(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// Delete godoc
// @ID           deleteChannel
//
//	@Summary		Delete a channel
//	@Tags			channels
//	@Param			id	path	string	true	"Channel ID"	format(uuid)
//	@Success		204
//	@Security		BearerAuth
//	@Router			/channels/{id} [delete]
func (h *ChannelHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}

	if err := h.channelService.DeleteChannel(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateWebhook godoc
// @ID           createChannelWebhook
//
//	@Summary		Register a channel webhook
//	@Tags			channels
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Channel ID"	format(uuid)
//	@Param			request	body		integrationapp.CreateWebhookRequest	true	"Webhook topic"
//	@Success		201		{object}	APIResponse[integrationapp.WebhookResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/channels/{id}/webhooks [post]
func (h *ChannelHandler) CreateWebhook(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}
	var req integrationapp.CreateWebhookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	hook, err := h.channelService.CreateWebhook(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, hook)
}

// ListWebhooks godoc
// @ID           listChannelWebhooks
//
//	@Summary		List channel webhooks
//	@Tags			channels
//	@Produce		json
//	@Param			id	path		string	true	"Channel ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]integrationapp.WebhookResponse]
//	@Security		BearerAuth
//	@Router			/channels/{id}/webhooks [get]
func (h *ChannelHandler) ListWebhooks(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}

	hooks, err := h.channelService.ListWebhooks(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, hooks)
}

// DeleteWebhook godoc
// @ID           deleteChannelWebhook
//
//	@Summary		Delete a channel webhook
//	@Tags			channels
//	@Param			id			path	string	true	"Channel ID"	format(uuid)
//	@Param			webhookId	path	string	true	"Platform webhook ID"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/channels/{id}/webhooks/{webhookId} [delete]
func (h *ChannelHandler) DeleteWebhook(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}

	if err := h.channelService.DeleteWebhook(c.Request.Context(), ownerID, id, c.Param("webhookId")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SearchProducts godoc
// @ID           searchChannelProducts
//
//	@Summary		Search channel products
//	@Description	Passthrough to the channel's product search, used when building matches
//	@Tags			channels
//	@Produce		json
//	@Param			id		path		string	true	"Channel ID"	format(uuid)
//	@Param			search	query		string	false	"Search text"
//	@Param			after	query		string	false	"Cursor"
//	@Success		200		{object}	APIResponse[integrationapp.ProductSearchResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/channels/{id}/products [get]
func (h *ChannelHandler) SearchProducts(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "channel")
	if !ok {
		return
	}
	var req integrationapp.SearchRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.channelService.SearchProducts(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes mounts the channel endpoints
func (h *ChannelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/channels")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/webhooks", h.CreateWebhook)
	g.GET("/:id/webhooks", h.ListWebhooks)
	g.DELETE("/:id/webhooks/:webhookId", h.DeleteWebhook)
	g.GET("/:id/products", h.SearchProducts)
}
