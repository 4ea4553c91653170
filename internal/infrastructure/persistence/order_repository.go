package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// withItems preloads every child collection in creation order
func withItems(query *gorm.DB) *gorm.DB {
	byCreated := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }
	return query.
		Preload("LineItems", byCreated).
		Preload("CartItems", byCreated).
		Preload("TrackingDetails", byCreated).
		Preload("TrackingDetails.CartItems")
}

// FindByID finds an order by ID for an owner
func (r *GormOrderRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id))
}

// FindByIDUnscoped finds an order by ID regardless of owner
func (r *GormOrderRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByExternalID finds the order a shop reported under externalOrderID
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("shop_id = ? AND external_order_id = ?", shopID, externalOrderID))
}

func (r *GormOrderRepository) findOne(query *gorm.DB) (*order.Order, error) {
	var model models.OrderModel
	if err := withItems(query).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists an owner's orders with pagination and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter order.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("owner_id = ?", ownerID)
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(order_name) LIKE ? OR LOWER(external_order_id) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := withItems(applyPage(query, filter.Filter, OrderSortFields)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// FindRetryCandidates returns ids of PENDING orders flagged for processing
// that still have unplaced cart items and were last touched before cutoff
func (r *GormOrderRepository) FindRetryCandidates(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	unplaced := r.db.Model(&models.CartItemModel{}).
		Select("1").
		Where("cart_items.order_id = orders.id").
		Where("COALESCE(cart_items.purchase_id, '') = '' AND COALESCE(cart_items.url, '') = ''").
		Where("cart_items.status <> ?", order.CartItemCancelled)

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("status = ? AND process_order = ? AND updated_at < ?", order.StatusPending, true, cutoff).
		Where("EXISTS (?)", unplaced).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts the order with its line items and cart items. A second
// order with the same non-empty external id on one shop is rejected with
// shared.ErrAlreadyExists.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.OrderModelFromDomain(o)
		lineItems, cartItems := model.LineItems, model.CartItems
		model.LineItems, model.CartItems = nil, nil

		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(lineItems) > 0 {
			if err := tx.Create(&lineItems).Error; err != nil {
				return err
			}
		}
		if len(cartItems) > 0 {
			if err := tx.Create(&cartItems).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Update writes the order's own columns. Child rows are written through
// their repositories.
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"status":        o.Status,
			"error":         o.Error,
			"link_order":    o.LinkOrder,
			"match_order":   o.MatchOrder,
			"process_order": o.ProcessOrder,
			"updated_at":    o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormCartItemRepository implements CartItemRepository using GORM
type GormCartItemRepository struct {
	db *gorm.DB
}

// NewGormCartItemRepository creates a new GormCartItemRepository
func NewGormCartItemRepository(db *gorm.DB) *GormCartItemRepository {
	return &GormCartItemRepository{db: db}
}

// FindByOrder lists an order's cart items in creation order
func (r *GormCartItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.CartItem, error) {
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCartItems(rows), nil
}

// FindByPurchaseID lists the cart items placed on a channel under purchaseID
func (r *GormCartItemRepository) FindByPurchaseID(ctx context.Context, channelID uuid.UUID, purchaseID string) ([]order.CartItem, error) {
	if purchaseID == "" {
		return []order.CartItem{}, nil
	}
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ? AND purchase_id = ?", channelID, purchaseID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCartItems(rows), nil
}

func toCartItems(rows []models.CartItemModel) []order.CartItem {
	items := make([]order.CartItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

// Create inserts cart items
func (r *GormCartItemRepository) Create(ctx context.Context, items ...*order.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.CartItemModel, len(items))
	for i, item := range items {
		rows[i] = models.CartItemModelFromDomain(item)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Update writes the placement outcome and status of a cart item
func (r *GormCartItemRepository) Update(ctx context.Context, item *order.CartItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"url":         item.URL,
			"purchase_id": item.PurchaseID,
			"error":       item.Error,
			"status":      item.Status,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a cart item of an order
func (r *GormCartItemRepository) Delete(ctx context.Context, orderID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CartItemModel{}, "order_id = ? AND id = ?", orderID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormTrackingRepository implements TrackingRepository using GORM
type GormTrackingRepository struct {
	db *gorm.DB
}

// NewGormTrackingRepository creates a new GormTrackingRepository
func NewGormTrackingRepository(db *gorm.DB) *GormTrackingRepository {
	return &GormTrackingRepository{db: db}
}

// Create inserts a tracking detail with its cart item links
func (r *GormTrackingRepository) Create(ctx context.Context, td *order.TrackingDetail) error {
	var model models.TrackingDetailModel
	model.FromDomain(td)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByOrder lists an order's tracking details
func (r *GormTrackingRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.TrackingDetail, error) {
	var rows []models.TrackingDetailModel
	if err := r.db.WithContext(ctx).
		Preload("CartItems").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	details := make([]order.TrackingDetail, len(rows))
	for i := range rows {
		details[i] = *rows[i].ToDomain()
	}
	return details, nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ order.OrderRepository    = (*GormOrderRepository)(nil)
	_ order.CartItemRepository = (*GormCartItemRepository)(nil)
	_ order.TrackingRepository = (*GormTrackingRepository)(nil)
)
