package handler

import (
	"context"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	routingapp "github.com/Rafcin/openship/internal/application/routing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShopService manages storefront connections
type ShopService interface {
	CreateShop(ctx context.Context, ownerID uuid.UUID, req integrationapp.CreateShopRequest) (*integrationapp.ShopResponse, error)
	UpdateShop(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.UpdateShopRequest) (*integrationapp.ShopResponse, error)
	GetShop(ctx context.Context, ownerID, id uuid.UUID) (*integrationapp.ShopResponse, error)
	ListShops(ctx context.Context, ownerID uuid.UUID, f integrationapp.ListFilter) ([]integrationapp.ShopResponse, int64, error)
	DeleteShop(ctx context.Context, ownerID, id uuid.UUID) error
	CreateWebhook(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.CreateWebhookRequest) (*integrationapp.WebhookResponse, error)
	ListWebhooks(ctx context.Context, ownerID, id uuid.UUID) ([]integrationapp.WebhookResponse, error)
	DeleteWebhook(ctx context.Context, ownerID, id uuid.UUID, webhookID string) error
	SearchOrders(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.SearchRequest) (*integrationapp.OrderSearchResponse, error)
	SearchProducts(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.SearchRequest) (*integrationapp.ProductSearchResponse, error)
}

// LinkLister lists a shop's links in rank order
type LinkLister interface {
	ListLinks(ctx context.Context, ownerID, shopID uuid.UUID) ([]routingapp.LinkResponse, error)
}

// ShopHandler handles shop-related API endpoints
type ShopHandler struct {
	BaseHandler
	shopService ShopService
	links       LinkLister
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(shopService ShopService, links LinkLister) *ShopHandler {
	return &ShopHandler{shopService: shopService, links: links}
}

// Create godoc
// @ID           createShop
//
//	@Summary		Create a shop
//	@Description	Connect a storefront on one of the owner's shop platforms
//	@Tags			shops
//	@Accept			json
//	@Produce		json
//	@Param			request	body		integrationapp.CreateShopRequest	true	"Shop creation request"
//	@Success		201		{object}	APIResponse[integrationapp.ShopResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops [post]
func (h *ShopHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req integrationapp.CreateShopRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shop, err := h.shopService.CreateShop(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, shop)
}

// List godoc
// @ID           listShops
//
//	@Summary		List shops
//	@Tags			shops
//	@Produce		json
//	@Param			search		query		string	false	"Name search"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Param			order_by	query		string	false	"Sort field"
//	@Param			order_dir	query		string	false	"asc or desc"
//	@Success		200			{object}	APIResponse[[]integrationapp.ShopResponse]
//	@Security		BearerAuth
//	@Router			/shops [get]
func (h *ShopHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var f integrationapp.ListFilter
	if !h.bindQuery(c, &f) {
		return
	}

	shops, total, err := h.shopService.ListShops(c.Request.Context(), ownerID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := normalizePage(f.Page, f.PageSize)
	h.SuccessWithMeta(c, shops, total, page, pageSize)
}

// Get godoc
// @ID           getShop
//
//	@Summary		Get a shop
//	@Tags			shops
//	@Produce		json
//	@Param			id	path		string	true	"Shop ID"	format(uuid)
//	@Success		200	{object}	APIResponse[integrationapp.ShopResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id} [get]
func (h *ShopHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}

	shop, err := h.shopService.GetShop(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shop)
}

// Update godoc
// @ID           updateShop
//
//	@Summary		Update a shop
//	@Tags			shops
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Shop ID"	format(uuid)
//	@Param			request	body		integrationapp.UpdateShopRequest	true	"Shop update request"
//	@Success		200		{object}	APIResponse[integrationapp.ShopResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id} [put]
func (h *ShopHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}
	var req integrationapp.UpdateShopRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shop, err := h.shopService.UpdateShop(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shop)
}

// Delete godoc
// @ID           deleteShop
//
//	@Summary		Delete a shop
//	@Tags			shops
//	@Param			id	path	string	true	"Shop ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id} [delete]
func (h *ShopHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}

	if err := h.shopService.DeleteShop(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateWebhook godoc
// @ID           createShopWebhook
//
//	@Summary		Register a shop webhook
//	@Description	Subscribe the engine's ingress route to a topic on the storefront
//	@Tags			shops
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Shop ID"	format(uuid)
//	@Param			request	body		integrationapp.CreateWebhookRequest	true	"Webhook topic"
//	@Success		201		{object}	APIResponse[integrationapp.WebhookResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id}/webhooks [post]
func (h *ShopHandler) CreateWebhook(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}
	var req integrationapp.CreateWebhookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	hook, err := h.shopService.CreateWebhook(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, hook)
}

// ListWebhooks godoc
// @ID           listShopWebhooks
//
//	@Summary		List shop webhooks
//	@Tags			shops
//	@Produce		json
//	@Param			id	path		string	true	"Shop ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]integrationapp.WebhookResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id}/webhooks [get]
func (h *ShopHandler) ListWebhooks(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}

	hooks, err := h.shopService.ListWebhooks(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, hooks)
}

// DeleteWebhook godoc
// @ID           deleteShopWebhook
//
//	@Summary		Delete a shop webhook
//	@Tags			shops
//	@Param			id			path	string	true	"Shop ID"	format(uuid)
//	@Param			webhookId	path	string	true	"Platform webhook ID"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/shops/{id}/webhooks/{webhookId} [delete]
func (h *ShopHandler) DeleteWebhook(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}

	if err := h.shopService.DeleteWebhook(c.Request.Context(), ownerID, id, c.Param("webhookId")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SearchOrders godoc
// @ID           searchShopOrders
//
//	@Summary		Search storefront orders
//	@Description	Passthrough to the storefront's order search
//	@Tags			shops
//	@Produce		json
//	@Param			id		path		string	true	"Shop ID"	format(uuid)
//	@Param			search	query		string	false	"Search text"
//	@Param			after	query		string	false	"Cursor"
//	@Success		200		{object}	APIResponse[integrationapp.OrderSearchResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id}/orders [get]
func (h *ShopHandler) SearchOrders(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}
	var req integrationapp.SearchRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.shopService.SearchOrders(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SearchProducts godoc
// @ID           searchShopProducts
//
//	@Summary		Search storefront products
//	@Tags			shops
//	@Produce		json
//	@Param			id		path		string	true	"Shop ID"	format(uuid)
//	@Param			search	query		string	false	"Search text"
//	@Param			after	query		string	false	"Cursor"
//	@Success		200		{object}	APIResponse[integrationapp.ProductSearchResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id}/products [get]
func (h *ShopHandler) SearchProducts(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}
	var req integrationapp.SearchRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.shopService.SearchProducts(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListLinks godoc
// @ID           listShopLinks
//
//	@Summary		List a shop's links
//	@Description	Links in rank order, lowest rank evaluated first
//	@Tags			shops
//	@Produce		json
//	@Param			id	path		string	true	"Shop ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]routingapp.LinkResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/shops/{id}/links [get]
func (h *ShopHandler) ListLinks(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "shop")
	if !ok {
		return
	}

	links, err := h.links.ListLinks(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, links)
}

// RegisterRoutes mounts the shop endpoints
func (h *ShopHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/shops")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/webhooks", h.CreateWebhook)
	g.GET("/:id/webhooks", h.ListWebhooks)
	g.DELETE("/:id/webhooks/:webhookId", h.DeleteWebhook)
	g.GET("/:id/orders", h.SearchOrders)
	g.GET("/:id/products", h.SearchProducts)
	g.GET("/:id/links", h.ListLinks)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
