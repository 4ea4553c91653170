package persistence

import (
	"context"
	"errors"

	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLinkRepository implements LinkRepository using GORM
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GormLinkRepository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// FindByID finds a link by ID for an owner
func (r *GormLinkRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*routing.Link, error) {
	var model models.LinkModel
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

// FindByShop lists a shop's links by rank ascending
func (r *GormLinkRepository) FindByShop(ctx context.Context, ownerID, shopID uuid.UUID) ([]routing.Link, error) {
	var rows []models.LinkModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND shop_id = ?", ownerID, shopID).
		Order("rank ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]routing.Link, len(rows))
	for i := range rows {
		links[i] = *rows[i].ToDomain()
	}
	return links, nil
}

// MaxRank returns the highest rank on a shop, or 0 when it has no links
func (r *GormLinkRepository) MaxRank(ctx context.Context, shopID uuid.UUID) (int, error) {
	var maxRank int
	if err := r.db.WithContext(ctx).
		Model(&models.LinkModel{}).
		Where("shop_id = ?", shopID).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&maxRank).Error; err != nil {
		return 0, err
	}
	return maxRank, nil
}

// Create inserts a link. The (shop_id, rank) unique index rejects a rank
// taken by a concurrent create.
func (r *GormLinkRepository) Create(ctx context.Context, l *routing.Link) error {
	if err := r.db.WithContext(ctx).Create(models.LinkModelFromDomain(l)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes an owner's link. Ranks of the remaining links are kept.
func (r *GormLinkRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LinkModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLinkRepository implements LinkRepository
var _ routing.LinkRepository = (*GormLinkRepository)(nil)
