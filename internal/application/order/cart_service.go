package order

import (
	"context"
	"fmt"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService edits the cart of a pending order by hand
type CartService struct {
	orders    order.OrderRepository
	cartItems order.CartItemRepository
	channels  integration.ChannelRepository
	placement *PlacementService
	locker    order.Locker
}

// NewCartService creates a new CartService. It shares the placement
// service's order lock.
func NewCartService(
	orders order.OrderRepository,
	cartItems order.CartItemRepository,
	channels integration.ChannelRepository,
	placement *PlacementService,
) *CartService {
	return &CartService{
		orders:    orders,
		cartItems: cartItems,
		channels:  channels,
		placement: placement,
		locker:    placement.locker,
	}
}

// AddCartItem attaches a cart item to a pending order
func (s *CartService) AddCartItem(ctx context.Context, ownerID, orderID uuid.UUID, req CartItemInput) (*CartItemResponse, error) {
	ctx = logger.WithOrder(ctx, orderID)
	if _, err := s.channels.FindByID(ctx, ownerID, req.ChannelID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.orders.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	if req.LineItemID != nil && !hasLineItem(o, *req.LineItemID) {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", fmt.Sprintf("Line item %s does not belong to the order", req.LineItemID))
	}

	item, err := newCartItem(o.ID, req)
	if err != nil {
		return nil, err
	}
	added, err := o.AddCartItem(*item)
	if err != nil {
		return nil, err
	}
	if err := s.cartItems.Create(ctx, added); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Cart item added",
		zap.String("cart_item_id", added.ID.String()),
		zap.String("channel_id", added.ChannelID.String()))
	resp := ToCartItemResponse(added)
	return &resp, nil
}

// RemoveCartItem detaches an unplaced cart item from a pending order and
// recounts it
func (s *CartService) RemoveCartItem(ctx context.Context, ownerID, orderID, cartItemID uuid.UUID) error {
	ctx = logger.WithOrder(ctx, orderID)
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.orders.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot remove cart items from order in %s status", o.Status))
	}
	if err := o.RemoveCartItem(cartItemID); err != nil {
		return err
	}
	if err := s.cartItems.Delete(ctx, o.ID, cartItemID); err != nil {
		return err
	}
	// removing the last unplaced item can leave a fully placed cart
	return s.placement.settle(ctx, o)
}

func hasLineItem(o *order.Order, id uuid.UUID) bool {
	for _, li := range o.LineItems {
		if li.ID == id {
			return true
		}
	}
	return false
}
