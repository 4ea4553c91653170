package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MessageMayHaveBeenPlaced is recorded when a purchase call failed in a way
// that leaves its outcome on the platform unknown
const MessageMayHaveBeenPlaced = "order may have been placed"

// PlacementOptions tunes the placement pipeline
type PlacementOptions struct {
	// MaxConcurrency bounds the channels placed in parallel for one order
	MaxConcurrency int
	// AdapterTimeout bounds each createPurchase call
	AdapterTimeout time.Duration
	// BestEffortTimeout bounds the addCartToPlatformOrder call
	BestEffortTimeout time.Duration
}

// DefaultPlacementOptions returns the options used when none are configured
func DefaultPlacementOptions() PlacementOptions {
	return PlacementOptions{
		MaxConcurrency:    4,
		AdapterTimeout:    30 * time.Second,
		BestEffortTimeout: 10 * time.Second,
	}
}

// PlacementService places an order's unplaced cart items as purchases on
// their fulfillment channels
type PlacementService struct {
	orders         order.OrderRepository
	cartItems      order.CartItemRepository
	shops          integration.ShopRepository
	channels       integration.ChannelRepository
	executor       integration.Executor
	locker         order.Locker
	eventPublisher shared.EventPublisher
	opts           PlacementOptions
}

// NewPlacementService creates a new PlacementService
func NewPlacementService(
	orders order.OrderRepository,
	cartItems order.CartItemRepository,
	shops integration.ShopRepository,
	channels integration.ChannelRepository,
	executor integration.Executor,
	locker order.Locker,
	opts PlacementOptions,
) *PlacementService {
	defaults := DefaultPlacementOptions()
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaults.MaxConcurrency
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = defaults.AdapterTimeout
	}
	if opts.BestEffortTimeout <= 0 {
		opts.BestEffortTimeout = defaults.BestEffortTimeout
	}
	return &PlacementService{
		orders:    orders,
		cartItems: cartItems,
		shops:     shops,
		channels:  channels,
		executor:  executor,
		locker:    locker,
		opts:      opts,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PlacementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// PlaceOrder places every unplaced cart item of the order. It only touches
// items without a purchase, so a second run after a full success makes no
// adapter calls. Items that failed before are attempted again.
func (s *PlacementService) PlaceOrder(ctx context.Context, orderID uuid.UUID) (*order.PlacementResult, error) {
	ctx = logger.WithOrder(ctx, orderID)
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.orders.FindByIDUnscoped(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.place(ctx, o)
}

// PlaceOrderForOwner is PlaceOrder for an operator request, scoped to ownerID
func (s *PlacementService) PlaceOrderForOwner(ctx context.Context, ownerID, orderID uuid.UUID) (*order.PlacementResult, error) {
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
	return s.place(ctx, o)
}

// place runs the pipeline on a loaded order. The caller holds the order lock
// and has scoped ctx's logger to the order.
func (s *PlacementService) place(ctx context.Context, o *order.Order) (*order.PlacementResult, error) {
	result := &order.PlacementResult{OrderID: o.ID, Status: o.Status}
	if o.IsTerminal() {
		return result, nil
	}

	channelIDs, groups := o.UnplacedByChannel()
	if len(channelIDs) == 0 {
		if o.Status != order.StatusPending || len(o.ActiveCartItems()) == 0 {
			return result, nil
		}
		if err := s.settle(ctx, o); err != nil {
			return nil, err
		}
		result.Status = o.Status
		return result, nil
	}

	configs, err := s.channelConfigs(ctx, o.OwnerID, channelIDs)
	if err != nil {
		return nil, err
	}

	address := shippingAddress(o)
	outcomes := make([][]order.PlacementOutcome, len(channelIDs))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrency)
	for i, channelID := range channelIDs {
		items := toPurchaseItems(groups[channelID])
		cfg, ok := configs[channelID]
		g.Go(func() error {
			if !ok {
				outcomes[i] = failAll(channelID, items, integration.ErrChannelNotFound.Error())
				return nil
			}
			outcomes[i] = s.placeGroup(logger.WithChannel(ctx, channelID), channelID, cfg, items, address)
			return nil
		})
	}
	_ = g.Wait()

	// outcomes are written one at a time once every channel has answered
	var persistErr error
	for _, group := range outcomes {
		for _, outcome := range group {
			item := o.CartItem(outcome.CartItemID)
			if item == nil {
				continue
			}
			if outcome.Placed() {
				item.MarkPlaced(outcome.PurchaseID, outcome.URL)
			} else {
				item.MarkFailed(outcome.Error)
				outcome.Error = item.Error
			}
			result.Outcomes = append(result.Outcomes, outcome)
			if err := s.cartItems.Update(ctx, item); err != nil {
				logger.L(ctx).Error("Failed to record placement outcome",
					zap.String("cart_item_id", item.ID.String()),
					zap.String("purchase_id", item.PurchaseID),
					zap.Error(err))
				persistErr = errors.Join(persistErr, err)
			}
		}
	}

	becameAwaiting := o.RefreshPlacementStatus() && o.Status == order.StatusAwaiting
	o.AddDomainEvent(order.NewCartItemsPlacedEvent(o, result.Placed(), result.Failed()))
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Join(persistErr, err)
	}
	result.Status = o.Status

	if becameAwaiting {
		s.addCartToPlatformOrder(ctx, o)
	}
	publishEvents(ctx, s.eventPublisher, o)

	logger.L(ctx).Info("Order placement finished",
		zap.Int("placed", result.Placed()),
		zap.Int("failed", result.Failed()),
		zap.String("status", o.Status.String()))

	if persistErr != nil {
		return result, fmt.Errorf("placement outcomes not fully recorded: %w", persistErr)
	}
	return result, nil
}

// settle recounts a pending order after its cart changed without a
// placement run. An order whose active items are all placed moves to
// AWAITING, reports its cart to the storefront and completes straight away
// when tracking already covers every item. The caller holds the order lock
// and o is always persisted.
func (s *PlacementService) settle(ctx context.Context, o *order.Order) error {
	becameAwaiting := o.Status == order.StatusPending && o.RefreshPlacementStatus()
	if becameAwaiting {
		o.RefreshCompletion()
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	if becameAwaiting {
		s.addCartToPlatformOrder(ctx, o)
		logger.L(ctx).Info("Order settled without placement",
			zap.String("status", o.Status.String()))
	}
	publishEvents(ctx, s.eventPublisher, o)
	return nil
}

// placeGroup creates one purchase for the items of one channel
func (s *PlacementService) placeGroup(
	ctx context.Context,
	channelID uuid.UUID,
	cfg integration.PlatformConfig,
	items []integration.PurchaseItem,
	address integration.ShippingAddress,
) []order.PlacementOutcome {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.AdapterTimeout)
	defer cancel()

	res, err := integration.Call[integration.CreatePurchaseResult](callCtx, s.executor, cfg, integration.OpCreatePurchase,
		integration.CreatePurchaseRequest{CartItems: items, Address: address, Notes: ""})
	switch {
	case err != nil:
		logger.L(ctx).Error("Purchase placement failed", zap.Error(err))
		return failAll(channelID, items, MessageMayHaveBeenPlaced)
	case res.PurchaseID != "":
		outcomes := make([]order.PlacementOutcome, len(items))
		for i, item := range items {
			outcomes[i] = order.PlacementOutcome{
				CartItemID: uuid.MustParse(item.ID),
				ChannelID:  channelID,
				PurchaseID: res.PurchaseID,
				URL:        res.URL,
			}
		}
		return outcomes
	case res.Error != "":
		logger.L(ctx).Error("Purchase rejected by channel", zap.String("error", res.Error))
		return failAll(channelID, items, res.Error)
	default:
		logger.L(ctx).Error("Purchase result carried neither a purchase id nor an error")
		return failAll(channelID, items, MessageMayHaveBeenPlaced)
	}
}

// addCartToPlatformOrder reports the placed cart back to the storefront.
// It is best effort: failures are logged and never returned.
func (s *PlacementService) addCartToPlatformOrder(ctx context.Context, o *order.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.BestEffortTimeout)
	defer cancel()

	shop, err := s.shops.FindByID(ctx, o.OwnerID, o.ShopID)
	if err != nil {
		logger.L(ctx).Warn("Skipping addCartToPlatformOrder, shop not loaded", zap.Error(err))
		return
	}
	cfg := shop.PlatformConfig()
	if _, ok := cfg.Target(integration.OpAddCartToPlatformOrder); !ok {
		return
	}

	_, err = s.executor.Invoke(ctx, cfg, integration.OpAddCartToPlatformOrder, integration.AddCartToPlatformOrderRequest{
		OrderID:   o.ExternalOrderID,
		CartItems: toPurchaseItems(o.ActiveCartItems()),
	})
	if err != nil {
		logger.L(ctx).Warn("addCartToPlatformOrder failed",
			zap.String("shop_id", o.ShopID.String()),
			zap.Error(err))
	}
}

func (s *PlacementService) channelConfigs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]integration.PlatformConfig, error) {
	channels, err := s.channels.FindByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	configs := make(map[uuid.UUID]integration.PlatformConfig, len(channels))
	for i := range channels {
		configs[channels[i].ID] = channels[i].PlatformConfig()
	}
	return configs, nil
}

func failAll(channelID uuid.UUID, items []integration.PurchaseItem, message string) []order.PlacementOutcome {
	outcomes := make([]order.PlacementOutcome, len(items))
	for i, item := range items {
		outcomes[i] = order.PlacementOutcome{
			CartItemID: uuid.MustParse(item.ID),
			ChannelID:  channelID,
			Error:      message,
		}
	}
	return outcomes
}

func toPurchaseItems(items []*order.CartItem) []integration.PurchaseItem {
	out := make([]integration.PurchaseItem, len(items))
	for i, c := range items {
		out[i] = integration.PurchaseItem{
			ID:         c.ID.String(),
			Name:       c.Name,
			ProductID:  c.ProductID,
			VariantID:  c.VariantID,
			Quantity:   c.Quantity,
			Price:      c.Price,
			PurchaseID: c.PurchaseID,
			URL:        c.URL,
		}
	}
	return out
}

func shippingAddress(o *order.Order) integration.ShippingAddress {
	return integration.ShippingAddress{
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Address1:  o.Address1,
		Address2:  o.Address2,
		City:      o.City,
		Province:  o.Province,
		Zip:       o.Zip,
		Country:   o.Country,
		Phone:     o.Phone,
		Email:     o.Email,
	}
}
