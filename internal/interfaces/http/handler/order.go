package handler

import (
	"context"

	orderapp "github.com/Rafcin/openship/internal/application/order"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderLifecycleService creates, processes and cancels orders
type OrderLifecycleService interface {
	CreateOrder(ctx context.Context, ownerID uuid.UUID, req orderapp.CreateOrderRequest) (*orderapp.OrderResponse, error)
	ProcessOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	CancelOrder(ctx context.Context, ownerID, orderID uuid.UUID, reason string) (*orderapp.OrderResponse, error)
	GetOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	ListOrders(ctx context.Context, ownerID uuid.UUID, filter orderapp.OrderListFilter) ([]orderapp.OrderListItemResponse, int64, error)
}

// CartService edits an order's manual cart
type CartService interface {
	AddCartItem(ctx context.Context, ownerID, orderID uuid.UUID, req orderapp.CartItemInput) (*orderapp.CartItemResponse, error)
	RemoveCartItem(ctx context.Context, ownerID, orderID, cartItemID uuid.UUID) error
}

// OrderPlacer places an order's unplaced cart items
type OrderPlacer interface {
	PlaceOrderForOwner(ctx context.Context, ownerID, orderID uuid.UUID) (*order.PlacementResult, error)
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	lifecycle OrderLifecycleService
	cart      CartService
	placer    OrderPlacer
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(lifecycle OrderLifecycleService, cart CartService, placer OrderPlacer) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, cart: cart, placer: placer}
}

// Create godoc
// @ID           createOrder
//
//	@Summary		Create an order
//	@Description	Create an order on a shop. With process_order set it is routed and placed immediately.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		orderapp.CreateOrderRequest	true	"Order creation request"
//	@Success		201		{object}	APIResponse[orderapp.OrderResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.lifecycle.CreateOrder(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// List godoc
// @ID           listOrders
//
//	@Summary		List orders
//	@Tags			orders
//	@Produce		json
//	@Param			search		query		string	false	"Order name or email"
//	@Param			shop_id		query		string	false	"Shop ID"	format(uuid)
//	@Param			status		query		string	false	"PENDING, AWAITING, COMPLETE or CANCELLED"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]orderapp.OrderListItemResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var f orderapp.OrderListFilter
	if !h.bindQuery(c, &f) {
		return
	}

	orders, total, err := h.lifecycle.ListOrders(c.Request.Context(), ownerID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := normalizePage(f.Page, f.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Get godoc
// @ID           getOrder
//
//	@Summary		Get an order
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[orderapp.OrderResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	o, err := h.lifecycle.GetOrder(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Process godoc
// @ID           processOrder
//
//	@Summary		Process an order
//	@Description	Route the order through links, matches or its manual cart, then place it
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[orderapp.OrderResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/process [post]
func (h *OrderHandler) Process(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	o, err := h.lifecycle.ProcessOrder(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Place godoc
// @ID           placeOrder
//
//	@Summary		Place an order
//	@Description	Purchase every unplaced cart item on its channel. Per-item failures are reported in the outcomes.
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[orderapp.PlacementResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/place [post]
func (h *OrderHandler) Place(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	result, err := h.placer.PlaceOrderForOwner(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orderapp.ToPlacementResponse(result))
}

// Cancel godoc
// @ID           cancelOrder
//
//	@Summary		Cancel an order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Order ID"	format(uuid)
//	@Param			request	body		orderapp.CancelOrderRequest	false	"Cancellation reason"
//	@Success		200		{object}	APIResponse[orderapp.OrderResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	o, err := h.lifecycle.CancelOrder(c.Request.Context(), ownerID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// AddCartItem godoc
// @ID           addOrderCartItem
//
//	@Summary		Add a cart item
//	@Description	Add a manually chosen channel item to the order's cart
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Order ID"	format(uuid)
//	@Param			request	body		orderapp.CartItemInput	true	"Cart item"
//	@Success		201		{object}	APIResponse[orderapp.CartItemResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/cart-items [post]
func (h *OrderHandler) AddCartItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}
	var req orderapp.CartItemInput
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.cart.AddCartItem(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// RemoveCartItem godoc
// @ID           removeOrderCartItem
//
//	@Summary		Remove a cart item
//	@Description	Placed cart items cannot be removed
//	@Tags			orders
//	@Param			id		path	string	true	"Order ID"		format(uuid)
//	@Param			itemId	path	string	true	"Cart item ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{id}/cart-items/{itemId} [delete]
func (h *OrderHandler) RemoveCartItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId", "cart item")
	if !ok {
		return
	}

	if err := h.cart.RemoveCartItem(c.Request.Context(), ownerID, id, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the order endpoints
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/process", h.Process)
	g.POST("/:id/place", h.Place)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/cart-items", h.AddCartItem)
	g.DELETE("/:id/cart-items/:itemId", h.RemoveCartItem)
}
