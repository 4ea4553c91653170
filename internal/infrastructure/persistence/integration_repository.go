package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlatformRepository implements PlatformRepository using GORM
type GormPlatformRepository struct {
	db *gorm.DB
}

// NewGormPlatformRepository creates a new GormPlatformRepository
func NewGormPlatformRepository(db *gorm.DB) *GormPlatformRepository {
	return &GormPlatformRepository{db: db}
}

// FindByID finds a platform by ID for an owner
func (r *GormPlatformRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Platform, error) {
	var model models.PlatformModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists an owner's platforms. An empty kind lists both kinds.
func (r *GormPlatformRepository) FindAll(ctx context.Context, ownerID uuid.UUID, kind integration.PlatformKind) ([]integration.Platform, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var rows []models.PlatformModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	platforms := make([]integration.Platform, len(rows))
	for i := range rows {
		platforms[i] = *rows[i].ToDomain()
	}
	return platforms, nil
}

// Save creates or updates a platform
func (r *GormPlatformRepository) Save(ctx context.Context, p *integration.Platform) error {
	return r.db.WithContext(ctx).Save(models.PlatformModelFromDomain(p)).Error
}

// Delete deletes an owner's platform
func (r *GormPlatformRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PlatformModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormShopRepository implements ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByID finds a shop by ID for an owner
func (r *GormShopRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Shop, error) {
	return r.findOne(r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id))
}

// FindByIDUnscoped finds a shop by ID regardless of owner
func (r *GormShopRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*integration.Shop, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormShopRepository) findOne(query *gorm.DB) (*integration.Shop, error) {
	var model models.ShopModel
	if err := query.Preload("Platform").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists an owner's shops with pagination and the total count
func (r *GormShopRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]integration.Shop, int64, error) {
	query := applyNameSearch(r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("owner_id = ?", ownerID), filter.Search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ShopModel
	if err := applyPage(query, filter, ShopSortFields).Preload("Platform").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	shops := make([]integration.Shop, len(rows))
	for i := range rows {
		shops[i] = *rows[i].ToDomain()
	}
	return shops, total, nil
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, shop *integration.Shop) error {
	return r.db.WithContext(ctx).Omit("Platform").Save(models.ShopModelFromDomain(shop)).Error
}

// Delete deletes an owner's shop
func (r *GormShopRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShopModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormChannelRepository implements ChannelRepository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// FindByID finds a channel by ID for an owner
func (r *GormChannelRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*integration.Channel, error) {
	return r.findOne(r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id))
}

// FindByIDUnscoped finds a channel by ID regardless of owner
func (r *GormChannelRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*integration.Channel, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormChannelRepository) findOne(query *gorm.DB) (*integration.Channel, error) {
	var model models.ChannelModel
	if err := query.Preload("Platform").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple channels of an owner by their IDs
func (r *GormChannelRepository) FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]integration.Channel, error) {
	if len(ids) == 0 {
		return []integration.Channel{}, nil
	}

	var rows []models.ChannelModel
	if err := r.db.WithContext(ctx).
		Preload("Platform").
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	channels := make([]integration.Channel, len(rows))
	for i := range rows {
		channels[i] = *rows[i].ToDomain()
	}
	return channels, nil
}

// FindAll lists an owner's channels with pagination and the total count
func (r *GormChannelRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]integration.Channel, int64, error) {
	query := applyNameSearch(r.db.WithContext(ctx).Model(&models.ChannelModel{}).Where("owner_id = ?", ownerID), filter.Search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ChannelModel
	if err := applyPage(query, filter, ShopSortFields).Preload("Platform").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	channels := make([]integration.Channel, len(rows))
	for i := range rows {
		channels[i] = *rows[i].ToDomain()
	}
	return channels, total, nil
}

// Save creates or updates a channel
func (r *GormChannelRepository) Save(ctx context.Context, channel *integration.Channel) error {
	return r.db.WithContext(ctx).Omit("Platform").Save(models.ChannelModelFromDomain(channel)).Error
}

// Delete deletes an owner's channel
func (r *GormChannelRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ChannelModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyNameSearch filters by a case-insensitive substring of name or domain.
// LOWER/LIKE keeps the query portable between postgres and sqlite. The
// returned query is a new session so it can serve both Count and Find.
func applyNameSearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query.Session(&gorm.Session{})
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ?", pattern, pattern).Session(&gorm.Session{})
}

// Ensure the repositories implement their domain interfaces
var (
	_ integration.PlatformRepository = (*GormPlatformRepository)(nil)
	_ integration.ShopRepository     = (*GormShopRepository)(nil)
	_ integration.ChannelRepository  = (*GormChannelRepository)(nil)
)
