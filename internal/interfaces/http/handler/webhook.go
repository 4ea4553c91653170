package handler

import (
	"context"
	"io"
	"strings"

	"github.com/Rafcin/openship/internal/application/webhook"
	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookIngester accepts platform webhook deliveries
type WebhookIngester interface {
	IngestShopWebhook(ctx context.Context, shopID uuid.UUID, d webhook.Delivery) (*webhook.Result, error)
	IngestChannelWebhook(ctx context.Context, channelID uuid.UUID, d webhook.Delivery) (*webhook.Result, error)
}

// WebhookHandler receives webhook deliveries from storefronts and channels.
// These routes are unauthenticated; the platform signature is verified by
// the adapter's webhook handler.
type WebhookHandler struct {
	BaseHandler
	ingester WebhookIngester
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(ingester WebhookIngester) *WebhookHandler {
	return &WebhookHandler{ingester: ingester}
}

// ShopWebhook godoc
// @ID           receiveShopWebhook
//
//	@Summary		Receive a shop webhook
//	@Description	orders/create or orders/cancel from a storefront. Redeliveries are acknowledged without reprocessing.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			shopId	path		string	true	"Shop ID"	format(uuid)
//	@Param			topic	path		string	true	"Webhook topic"
//	@Success		200		{object}	APIResponse[webhook.Result]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/webhooks/shops/{shopId}/{topic} [post]
func (h *WebhookHandler) ShopWebhook(c *gin.Context) {
	id, ok := h.pathID(c, "shopId", "shop")
	if !ok {
		return
	}
	d, ok := h.delivery(c)
	if !ok {
		return
	}

	result, err := h.ingester.IngestShopWebhook(c.Request.Context(), id, d)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.logResult(c, "shop", id, result)
	h.Success(c, result)
}

// ChannelWebhook godoc
// @ID           receiveChannelWebhook
//
//	@Summary		Receive a channel webhook
//	@Description	tracking/create or purchases/cancel from a fulfillment channel
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			channelId	path		string	true	"Channel ID"	format(uuid)
//	@Param			topic		path		string	true	"Webhook topic"
//	@Success		200			{object}	APIResponse[webhook.Result]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/webhooks/channels/{channelId}/{topic} [post]
func (h *WebhookHandler) ChannelWebhook(c *gin.Context) {
	id, ok := h.pathID(c, "channelId", "channel")
	if !ok {
		return
	}
	d, ok := h.delivery(c)
	if !ok {
		return
	}

	result, err := h.ingester.IngestChannelWebhook(c.Request.Context(), id, d)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.logResult(c, "channel", id, result)
	h.Success(c, result)
}

// delivery reads the raw body; adapters verify signatures over the exact bytes
func (h *WebhookHandler) delivery(c *gin.Context) (webhook.Delivery, bool) {
	topic := integration.WebhookTopic(strings.TrimPrefix(c.Param("topic"), "/"))
	if _, _, err := topic.Operation(); err != nil {
		h.BadRequest(c, "Unsupported webhook topic")
		return webhook.Delivery{}, false
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return webhook.Delivery{}, false
	}

	return webhook.Delivery{
		Topic:   topic,
		Body:    body,
		Headers: c.Request.Header.Clone(),
	}, true
}

func (h *WebhookHandler) logResult(c *gin.Context, side string, id uuid.UUID, result *webhook.Result) {
	logger.L(c.Request.Context()).Info("Webhook delivery handled",
		zap.String("side", side),
		zap.String("target_id", id.String()),
		zap.String("delivery_id", result.DeliveryID),
		zap.Bool("duplicate", result.Duplicate),
	)
}

// RegisterRoutes mounts the webhook ingress endpoints. Topics contain a
// slash so they are captured with a wildcard.
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/webhooks")
	g.POST("/shops/:shopId/*topic", h.ShopWebhook)
	g.POST("/channels/:channelId/*topic", h.ChannelWebhook)
}
