// Package order drives orders from receipt to completion: routing to
// fulfillment channels, purchase placement and webhook reconciliation.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookIntents are the intents of orders received through a storefront
// webhook: route by link or match, then place.
var WebhookIntents = order.Intents{LinkOrder: true, MatchOrder: true, ProcessOrder: true}

// LinkResolver routes an order through the shop's links
type LinkResolver interface {
	Resolve(ctx context.Context, o *order.Order, shop *integration.Shop) ([]routing.Route, error)
}

// MatchResolver maps item tuples to channel items through matches
type MatchResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID, tuples []matching.ItemTuple) ([]matching.ResolvedItem, error)
}

// LifecycleService owns every state change of an order after it is received
type LifecycleService struct {
	orders            order.OrderRepository
	cartItems         order.CartItemRepository
	tracking          order.TrackingRepository
	shops             integration.ShopRepository
	links             LinkResolver
	matcher           MatchResolver
	placement         *PlacementService
	executor          integration.Executor
	locker            order.Locker
	eventPublisher    shared.EventPublisher
	bestEffortTimeout time.Duration
}

// NewLifecycleService creates a new LifecycleService. It shares the
// placement service's locker so that routing and placement of one order
// never interleave.
func NewLifecycleService(
	orders order.OrderRepository,
	cartItems order.CartItemRepository,
	tracking order.TrackingRepository,
	shops integration.ShopRepository,
	links LinkResolver,
	matcher MatchResolver,
	placement *PlacementService,
	executor integration.Executor,
) *LifecycleService {
	return &LifecycleService{
		orders:            orders,
		cartItems:         cartItems,
		tracking:          tracking,
		shops:             shops,
		links:             links,
		matcher:           matcher,
		placement:         placement,
		executor:          executor,
		locker:            placement.locker,
		bestEffortTimeout: placement.opts.BestEffortTimeout,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ---------------------------------------------------------------------------
// Creation and routing
// ---------------------------------------------------------------------------

// CreateOrder stores a new order on one of the owner's shops and routes it
func (s *LifecycleService) CreateOrder(ctx context.Context, ownerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	shop, err := s.shops.FindByID(ctx, ownerID, req.ShopID)
	if err != nil {
		return nil, err
	}
	o, err := s.createOrder(ctx, shop, req)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// HandleOrderCreated stores and routes an order reported by a storefront
// webhook. A redelivery of an order already stored returns the stored order.
func (s *LifecycleService) HandleOrderCreated(ctx context.Context, shop *integration.Shop, ev integration.OrderCreatedEvent) (*order.Order, error) {
	return s.createOrder(ctx, shop, FromExternalOrder(shop.ID, ev.Order, WebhookIntents))
}

func (s *LifecycleService) createOrder(ctx context.Context, shop *integration.Shop, req CreateOrderRequest) (*order.Order, error) {
	ctx = logger.WithShop(ctx, shop.ID)
	if req.ExternalOrderID != "" {
		existing, err := s.receivedOrder(ctx, shop.ID, req.ExternalOrderID)
		if existing != nil || err != nil {
			return existing, err
		}
	}

	o, err := order.NewOrder(shop.OwnerID, shop.ID, req.ExternalOrderID, req.OrderName, req.customer(), req.totals(), req.intents())
	if err != nil {
		return nil, err
	}
	for _, li := range req.LineItems {
		if _, err := o.AddLineItem(li.Name, li.ProductID, li.VariantID, li.Quantity, li.Price, li.Image, li.ExternalLineItemID); err != nil {
			return nil, err
		}
	}
	for _, ci := range req.CartItems {
		item, err := newCartItem(o.ID, ci)
		if err != nil {
			return nil, err
		}
		if _, err := o.AddCartItem(*item); err != nil {
			return nil, err
		}
	}
	if len(req.CartItems) > 0 {
		o.MarkRouted(order.RouteManual, len(req.CartItems))
	}

	unlock, err := s.locker.Lock(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.orders.Create(ctx, o); err != nil {
		// a concurrent delivery of the same order stored it first
		if errors.Is(err, shared.ErrAlreadyExists) && req.ExternalOrderID != "" {
			existing, findErr := s.receivedOrder(ctx, shop.ID, req.ExternalOrderID)
			if existing != nil || findErr != nil {
				return existing, findErr
			}
		}
		return nil, err
	}
	ctx = logger.WithOrder(ctx, o.ID)
	logger.L(ctx).Info("Order created",
		zap.String("external_order_id", o.ExternalOrderID),
		zap.Int("line_items", len(o.LineItems)))
	publishEvents(ctx, s.eventPublisher, o)

	if err := s.route(ctx, o, shop, o.ProcessOrder); err != nil {
		return nil, err
	}
	return o, nil
}

// receivedOrder returns the order already stored for externalOrderID, or nil
// when there is none
func (s *LifecycleService) receivedOrder(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*order.Order, error) {
	existing, err := s.orders.FindByExternalID(ctx, shopID, externalOrderID)
	switch {
	case err == nil:
		logger.L(ctx).Info("Order already received",
			zap.String("order_id", existing.ID.String()),
			zap.String("external_order_id", externalOrderID))
		return existing, nil
	case errors.Is(err, shared.ErrNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// ProcessOrder is the operator trigger: it routes an order that has no cart
// items yet and then places whatever is unplaced, regardless of the order's
// ProcessOrder intent.
func (s *LifecycleService) ProcessOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*OrderResponse, error) {
	ctx = logger.WithOrder(ctx, orderID)
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.orders.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot process order in %s status", o.Status))
	}
	shop, err := s.shops.FindByID(ctx, ownerID, o.ShopID)
	if err != nil {
		return nil, err
	}

	if err := s.route(ctx, o, shop, true); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// route produces cart items for an order without any and places them when
// place is set. An order that already has cart items goes straight to
// placement. The caller holds the order lock and o is persisted.
func (s *LifecycleService) route(ctx context.Context, o *order.Order, shop *integration.Shop, place bool) error {
	if len(o.ActiveCartItems()) > 0 {
		if o.Error != "" {
			o.ClearError()
			if err := s.orders.Update(ctx, o); err != nil {
				return err
			}
		}
		return s.placeIf(ctx, o, place)
	}

	if o.LinkOrder {
		routes, err := s.links.Resolve(ctx, o, shop)
		switch {
		case err == nil:
			if err := s.materialize(ctx, o, order.RouteLink, linkCartItems(o, routes)); err != nil {
				return err
			}
			return s.placeIf(ctx, o, place)
		case errors.Is(err, routing.ErrShopHasNoLinks):
			// fall through to matching
		case errors.Is(err, routing.ErrNoLinkMatched):
			return s.recordRoutingError(ctx, o, err)
		default:
			return err
		}
	}

	if o.MatchOrder {
		resolved, err := s.matcher.Resolve(ctx, o.OwnerID, lineItemTuples(o))
		var partial *matching.PartialMatchError
		switch {
		case err == nil:
			if err := s.materialize(ctx, o, order.RouteMatch, matchCartItems(o, resolved)); err != nil {
				return err
			}
			return s.placeIf(ctx, o, place)
		case errors.As(err, &partial), errors.Is(err, matching.ErrNoMatch), errors.Is(err, matching.ErrEmptyInput):
			return s.recordRoutingError(ctx, o, err)
		default:
			return err
		}
	}

	return nil
}

func (s *LifecycleService) placeIf(ctx context.Context, o *order.Order, place bool) error {
	if !place {
		return nil
	}
	_, err := s.placement.place(ctx, o)
	return err
}

// materialize attaches routed cart items to the order and stores them
func (s *LifecycleService) materialize(ctx context.Context, o *order.Order, route order.Route, items []*order.CartItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		added, err := o.AddCartItem(*item)
		if err != nil {
			return err
		}
		ids = append(ids, added.ID)
	}
	// pointers into o.CartItems are only stable once every item is appended
	stored := make([]*order.CartItem, len(ids))
	for i, id := range ids {
		stored[i] = o.CartItem(id)
	}

	if err := s.cartItems.Create(ctx, stored...); err != nil {
		return err
	}
	o.MarkRouted(route, len(stored))
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, o)

	logger.L(ctx).Info("Order routed",
		zap.String("route", string(route)),
		zap.Int("cart_items", len(stored)))
	return nil
}

func (s *LifecycleService) recordRoutingError(ctx context.Context, o *order.Order, cause error) error {
	logger.L(ctx).Warn("Order could not be routed", zap.Error(cause))
	o.SetRoutingError(cause.Error())
	return s.orders.Update(ctx, o)
}

func linkCartItems(o *order.Order, routes []routing.Route) []*order.CartItem {
	var items []*order.CartItem
	for _, route := range routes {
		for i := range o.LineItems {
			li := &o.LineItems[i]
			item, err := order.NewCartItem(o.ID, route.ChannelID, li.ProductID, li.VariantID, li.Quantity, li.Price)
			if err != nil {
				// line items were validated with the same rules
				continue
			}
			lineItemID := li.ID
			item.LineItemID = &lineItemID
			item.Name = li.Name
			item.Image = li.Image
			items = append(items, item)
		}
	}
	return items
}

func matchCartItems(o *order.Order, resolved []matching.ResolvedItem) []*order.CartItem {
	items := make([]*order.CartItem, 0, len(resolved))
	for _, r := range resolved {
		item, err := order.NewCartItem(o.ID, r.Item.ChannelID, r.Item.ProductID, r.Item.VariantID, r.Item.Quantity, r.Item.Price)
		if err != nil {
			continue
		}
		item.Name = r.Item.Name
		item.Image = r.Item.Image
		item.Error = r.Warning
		items = append(items, item)
	}
	return items
}

func lineItemTuples(o *order.Order) []matching.ItemTuple {
	tuples := make([]matching.ItemTuple, len(o.LineItems))
	for i, li := range o.LineItems {
		tuples[i] = matching.ItemTuple{ProductID: li.ProductID, VariantID: li.VariantID, Quantity: li.Quantity}
	}
	return tuples
}

func newCartItem(orderID uuid.UUID, in CartItemInput) (*order.CartItem, error) {
	item, err := order.NewCartItem(orderID, in.ChannelID, in.ProductID, in.VariantID, in.Quantity, in.Price)
	if err != nil {
		return nil, err
	}
	item.LineItemID = in.LineItemID
	item.Name = in.Name
	item.Image = in.Image
	return item, nil
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// HandleTrackingCreated records tracking for the cart items placed under the
// event's purchase on channel, reports it to the storefront and completes the
// order once every active item is tracked. Tracking for an unknown purchase
// is logged and acknowledged.
func (s *LifecycleService) HandleTrackingCreated(ctx context.Context, channel *integration.Channel, ev integration.TrackingCreatedEvent) error {
	ctx = logger.WithChannel(ctx, channel.ID)
	byOrder, err := s.itemsByOrder(ctx, channel.ID, ev.PurchaseID)
	if err != nil {
		return err
	}
	if len(byOrder) == 0 {
		logger.L(ctx).Warn("Tracking for unknown purchase", zap.String("purchase_id", ev.PurchaseID))
		return nil
	}

	for orderID, itemIDs := range byOrder {
		if err := s.addTracking(logger.WithOrder(ctx, orderID), orderID, itemIDs, ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *LifecycleService) addTracking(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID, ev integration.TrackingCreatedEvent) error {
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.orders.FindByIDUnscoped(ctx, orderID)
	if err != nil {
		return err
	}
	for _, td := range o.TrackingDetails {
		if td.PurchaseID == ev.PurchaseID && td.TrackingNumber == ev.TrackingNumber {
			return nil
		}
	}

	td, err := order.NewTrackingDetail(o.ID, ev.PurchaseID, ev.TrackingCompany, ev.TrackingNumber, itemIDs)
	if err != nil {
		return err
	}
	if err := s.tracking.Create(ctx, td); err != nil {
		return err
	}
	o.AddTracking(*td)
	completed := o.RefreshCompletion()
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}

	s.addTrackingToShop(ctx, o, td)
	publishEvents(ctx, s.eventPublisher, o)

	logger.L(ctx).Info("Tracking recorded",
		zap.String("purchase_id", ev.PurchaseID),
		zap.Bool("completed", completed))
	return nil
}

// addTrackingToShop forwards tracking to the storefront. It is best effort:
// failures are logged and never returned.
func (s *LifecycleService) addTrackingToShop(ctx context.Context, o *order.Order, td *order.TrackingDetail) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.bestEffortTimeout)
	defer cancel()

	shop, err := s.shops.FindByID(ctx, o.OwnerID, o.ShopID)
	if err != nil {
		logger.L(ctx).Warn("Skipping addTracking, shop not loaded", zap.Error(err))
		return
	}
	cfg := shop.PlatformConfig()
	if _, ok := cfg.Target(integration.OpAddTracking); !ok {
		return
	}
	_, err = s.executor.Invoke(ctx, cfg, integration.OpAddTracking, integration.AddTrackingRequest{
		OrderID:         o.ExternalOrderID,
		OrderName:       o.OrderName,
		TrackingCompany: td.TrackingCompany,
		TrackingNumber:  td.TrackingNumber,
	})
	if err != nil {
		logger.L(ctx).Warn("addTracking failed",
			zap.String("shop_id", o.ShopID.String()),
			zap.Error(err))
	}
}

// HandlePurchaseCancelled cancels the cart items placed under the event's
// purchase and recomputes completion of the affected orders
func (s *LifecycleService) HandlePurchaseCancelled(ctx context.Context, channel *integration.Channel, ev integration.PurchaseCancelledEvent) error {
	ctx = logger.WithChannel(ctx, channel.ID)
	byOrder, err := s.itemsByOrder(ctx, channel.ID, ev.PurchaseID)
	if err != nil {
		return err
	}
	if len(byOrder) == 0 {
		logger.L(ctx).Warn("Cancellation for unknown purchase", zap.String("purchase_id", ev.PurchaseID))
		return nil
	}

	for orderID, itemIDs := range byOrder {
		if err := s.cancelItems(logger.WithOrder(ctx, orderID), orderID, itemIDs); err != nil {
			return err
		}
	}
	return nil
}

func (s *LifecycleService) cancelItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.orders.FindByIDUnscoped(ctx, orderID)
	if err != nil {
		return err
	}
	for _, id := range itemIDs {
		item := o.CartItem(id)
		if item == nil || item.IsCancelled() {
			continue
		}
		item.Cancel()
		if err := s.cartItems.Update(ctx, item); err != nil {
			return err
		}
	}
	o.Touch()
	o.RefreshCompletion()
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, o)

	// completion needs at least one active item, so the order stays AWAITING
	// for the operator to cancel or re-route
	if o.Status == order.StatusAwaiting && len(o.ActiveCartItems()) == 0 {
		logger.L(ctx).Warn("Every purchase of the order was cancelled",
			zap.Int("cart_items", len(o.CartItems)))
	}
	return nil
}

// itemsByOrder groups the ids of the cart items placed under purchaseID on
// channelID by order
func (s *LifecycleService) itemsByOrder(ctx context.Context, channelID uuid.UUID, purchaseID string) (map[uuid.UUID][]uuid.UUID, error) {
	items, err := s.cartItems.FindByPurchaseID(ctx, channelID, purchaseID)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]uuid.UUID)
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item.ID)
	}
	return byOrder, nil
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

// CancelOrder cancels an order and all of its cart items
func (s *LifecycleService) CancelOrder(ctx context.Context, ownerID, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	ctx = logger.WithOrder(ctx, orderID)
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.orders.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, o, reason); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// HandleOrderCancelled cancels the order a storefront reported cancelled.
// An unknown order is logged and acknowledged.
func (s *LifecycleService) HandleOrderCancelled(ctx context.Context, shop *integration.Shop, ev integration.OrderCancelledEvent) error {
	ctx = logger.WithShop(ctx, shop.ID)
	found, err := s.orders.FindByExternalID(ctx, shop.ID, ev.OrderID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.L(ctx).Warn("Cancellation for unknown order",
			zap.String("external_order_id", ev.OrderID))
		return nil
	}
	if err != nil {
		return err
	}

	ctx = logger.WithOrder(ctx, found.ID)
	unlock, err := s.locker.Lock(ctx, found.ID)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.orders.FindByIDUnscoped(ctx, found.ID)
	if err != nil {
		return err
	}
	return s.cancel(ctx, o, "cancelled on storefront")
}

func (s *LifecycleService) cancel(ctx context.Context, o *order.Order, reason string) error {
	if o.IsTerminal() {
		return nil
	}
	active := o.ActiveCartItems()
	if err := o.Cancel(reason); err != nil {
		return err
	}
	for _, item := range active {
		if err := s.cartItems.Update(ctx, item); err != nil {
			return err
		}
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, o)

	logger.L(ctx).Info("Order cancelled", zap.String("reason", reason))
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GetOrder retrieves an order by ID
func (s *LifecycleService) GetOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListOrders lists the owner's orders
func (s *LifecycleService) ListOrders(ctx context.Context, ownerID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, total, err := s.orders.FindAll(ctx, ownerID, order.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		ShopID: filter.ShopID,
		Status: order.Status(filter.Status),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderListItemResponse(&orders[i])
	}
	return out, total, nil
}
