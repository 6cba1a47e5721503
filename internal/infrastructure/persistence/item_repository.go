package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *Database
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *Database) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Create persists a new listing
func (r *GormItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.Conn(ctx).Create(model).Error
}

// Save persists listing changes without a version check
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.Conn(ctx).Save(model).Error
}

// SaveWithLock persists listing changes with an optimistic version check.
// Stock decrements race between concurrent buyers; the version column is
// the arbiter.
func (r *GormItemRepository) SaveWithLock(ctx context.Context, item *catalog.Item) error {
	result := r.db.Conn(ctx).
		Model(&models.ItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"title":       item.Title,
			"description": item.Description,
			"category":    item.Category,
			"unit_price":  item.UnitPrice,
			"stock":       item.Stock,
			"status":      item.Status.String(),
			"expires_at":  item.ExpiresAt,
			"version":     item.Version + 1,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	item.Version++
	return nil
}

// FindByID finds a listing by ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.Conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists items with filtering
func (r *GormItemRepository) List(ctx context.Context, filter catalog.ItemFilter) ([]*catalog.Item, int64, error) {
	query := r.db.Conn(ctx).Model(&models.ItemModel{})
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var rows []models.ItemModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*catalog.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, total, nil
}

// CountActiveBySeller counts a seller's live listings
func (r *GormItemRepository) CountActiveBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Conn(ctx).
		Model(&models.ItemModel{}).
		Where("seller_id = ? AND status = ?", sellerID, catalog.ItemStatusActive.String()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountCreatedBySellerSince counts listings a seller created at or after the
// given instant, regardless of their current status
func (r *GormItemRepository) CountCreatedBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.Conn(ctx).
		Model(&models.ItemModel{}).
		Where("seller_id = ? AND created_at >= ?", sellerID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindExpiredActive returns live listings past their expiry, for the sweep
func (r *GormItemRepository) FindExpiredActive(ctx context.Context, limit int) ([]*catalog.Item, error) {
	var rows []models.ItemModel
	query := r.db.Conn(ctx).
		Where("status = ? AND expires_at <= ?", catalog.ItemStatusActive.String(), time.Now()).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*catalog.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Ensure GormItemRepository implements ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)
