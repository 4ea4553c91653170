package persistence

import (
	"context"
	"errors"

	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShopItemRepository implements ShopItemRepository using GORM
type GormShopItemRepository struct {
	db *gorm.DB
}

// NewGormShopItemRepository creates a new GormShopItemRepository
func NewGormShopItemRepository(db *gorm.DB) *GormShopItemRepository {
	return &GormShopItemRepository{db: db}
}

// FindByTuple finds the fingerprint of a shop tuple
func (r *GormShopItemRepository) FindByTuple(ctx context.Context, ownerID, shopID uuid.UUID, t matching.ItemTuple) (*matching.ShopItem, error) {
	var model models.ShopItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND shop_id = ? AND product_id = ? AND variant_id = ? AND quantity = ?",
			ownerID, shopID, t.ProductID, t.VariantID, t.Quantity).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a shop item fingerprint
func (r *GormShopItemRepository) Create(ctx context.Context, item *matching.ShopItem) error {
	var model models.ShopItemModel
	model.FromDomain(item)
	return r.db.WithContext(ctx).Create(&model).Error
}

// GormChannelItemRepository implements ChannelItemRepository using GORM
type GormChannelItemRepository struct {
	db *gorm.DB
}

// NewGormChannelItemRepository creates a new GormChannelItemRepository
func NewGormChannelItemRepository(db *gorm.DB) *GormChannelItemRepository {
	return &GormChannelItemRepository{db: db}
}

// FindByTuple finds the fingerprint of a channel tuple
func (r *GormChannelItemRepository) FindByTuple(ctx context.Context, ownerID, channelID uuid.UUID, t matching.ItemTuple) (*matching.ChannelItem, error) {
	var model models.ChannelItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND channel_id = ? AND product_id = ? AND variant_id = ? AND quantity = ?",
			ownerID, channelID, t.ProductID, t.VariantID, t.Quantity).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a channel item fingerprint
func (r *GormChannelItemRepository) Create(ctx context.Context, item *matching.ChannelItem) error {
	var model models.ChannelItemModel
	model.FromDomain(item)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update writes the recorded price and display fields of a channel item
func (r *GormChannelItemRepository) Update(ctx context.Context, item *matching.ChannelItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.ChannelItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"price":      item.Price,
			"name":       item.Name,
			"image":      item.Image,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormMatchRepository implements MatchRepository using GORM
type GormMatchRepository struct {
	db *gorm.DB
}

// NewGormMatchRepository creates a new GormMatchRepository
func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	return &GormMatchRepository{db: db}
}

// FindByID finds a match with both item sets
func (r *GormMatchRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*matching.Match, error) {
	return r.findOne(r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id))
}

// FindBySignature finds the owner's match for an input signature
func (r *GormMatchRepository) FindBySignature(ctx context.Context, ownerID uuid.UUID, signature string) (*matching.Match, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("owner_id = ? AND signature = ?", ownerID, signature).
		Order("created_at ASC"))
}

func (r *GormMatchRepository) findOne(query *gorm.DB) (*matching.Match, error) {
	var model models.MatchModel
	if err := query.Preload("Input").Preload("Output").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists an owner's matches with pagination and the total count
func (r *GormMatchRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]matching.Match, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MatchModel{}).
		Where("owner_id = ?", ownerID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MatchModel
	if err := applyPage(query, filter, MatchSortFields).
		Preload("Input").
		Preload("Output").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	matches := make([]matching.Match, len(rows))
	for i := range rows {
		matches[i] = *rows[i].ToDomain()
	}
	return matches, total, nil
}

// Create inserts a match and links it to its fingerprints. Fingerprints
// must already exist.
func (r *GormMatchRepository) Create(ctx context.Context, m *matching.Match) error {
	model := models.MatchModelFromDomain(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		input, output := model.Input, model.Output
		model.Input, model.Output = nil, nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if err := tx.Model(model).Association("Input").Append(input); err != nil {
			return err
		}
		return tx.Model(model).Association("Output").Append(output)
	})
}

// Update rewrites the match signature and replaces both item sets
func (r *GormMatchRepository) Update(ctx context.Context, m *matching.Match) error {
	model := models.MatchModelFromDomain(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MatchModel{}).
			Where("owner_id = ? AND id = ?", m.OwnerID, m.ID).
			Updates(map[string]any{
				"signature":  model.Signature,
				"version":    gorm.Expr("version + 1"),
				"updated_at": model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Model(model).Association("Input").Replace(model.Input); err != nil {
			return err
		}
		return tx.Model(model).Association("Output").Replace(model.Output)
	})
}

// Delete deletes a match and its join rows. Fingerprints are kept for reuse.
func (r *GormMatchRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.MatchModel{}
		model.ID = id
		if err := tx.Model(model).Association("Input").Clear(); err != nil {
			return err
		}
		if err := tx.Model(model).Association("Output").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&models.MatchModel{}, "owner_id = ? AND id = ?", ownerID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure the repositories implement their domain interfaces
var (
	_ matching.ShopItemRepository    = (*GormShopItemRepository)(nil)
	_ matching.ChannelItemRepository = (*GormChannelItemRepository)(nil)
	_ matching.MatchRepository       = (*GormMatchRepository)(nil)
)
