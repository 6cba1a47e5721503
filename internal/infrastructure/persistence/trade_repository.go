package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormTradeRepository implements TradeRepository using GORM
type GormTradeRepository struct {
	db *Database
}

// NewGormTradeRepository creates a new GormTradeRepository
func NewGormTradeRepository(db *Database) *GormTradeRepository {
	return &GormTradeRepository{db: db}
}

// Create persists a new trade
func (r *GormTradeRepository) Create(ctx context.Context, trade *trading.Trade) error {
	model := models.TradeModelFromDomain(trade)
	if err := r.db.Conn(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save persists trade changes without a version check
func (r *GormTradeRepository) Save(ctx context.Context, trade *trading.Trade) error {
	model := models.TradeModelFromDomain(trade)
	return r.db.Conn(ctx).Save(model).Error
}

// SaveWithLock persists trade changes with an optimistic version check.
// The row is only written when its stored version still matches the version
// the aggregate was loaded at; on success the in-memory version advances.
func (r *GormTradeRepository) SaveWithLock(ctx context.Context, trade *trading.Trade) error {
	result := r.db.Conn(ctx).
		Model(&models.TradeModel{}).
		Where("id = ? AND version = ?", trade.ID, trade.Version).
		Updates(map[string]interface{}{
			"status":          trade.Status.String(),
			"buyer_rating":    trade.BuyerRating,
			"buyer_feedback":  trade.BuyerFeedback,
			"seller_rating":   trade.SellerRating,
			"seller_feedback": trade.SellerFeedback,
			"completed_at":    trade.CompletedAt,
			"version":         trade.Version + 1,
			"updated_at":      trade.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	trade.Version++
	return nil
}

// FindByID finds a trade by internal ID
func (r *GormTradeRepository) FindByID(ctx context.Context, id uuid.UUID) (*trading.Trade, error) {
	var model models.TradeModel
	if err := r.db.Conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a trade and takes a row lock that is released
// when the surrounding transaction commits
func (r *GormTradeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trading.Trade, error) {
	var model models.TradeModel
	if err := r.db.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a trade by its external short code
func (r *GormTradeRepository) FindByCode(ctx context.Context, code string) (*trading.Trade, error) {
	var model models.TradeModel
	if err := r.db.Conn(ctx).First(&model, "trade_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode reports whether a trade code is taken
func (r *GormTradeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.Conn(ctx).
		Model(&models.TradeModel{}).
		Where("trade_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByParticipant lists trades where the user is buyer or seller
func (r *GormTradeRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, filter trading.TradeFilter) ([]*trading.Trade, int64, error) {
	query := r.db.Conn(ctx).Model(&models.TradeModel{})

	switch filter.Role {
	case "buyer":
		query = query.Where("buyer_id = ?", userID)
	case "seller":
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var rows []models.TradeModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	trades := make([]*trading.Trade, len(rows))
	for i := range rows {
		trades[i] = rows[i].ToDomain()
	}
	return trades, total, nil
}

// CountActiveByParticipant counts a user's active trades on either side
func (r *GormTradeRepository) CountActiveByParticipant(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Conn(ctx).
		Model(&models.TradeModel{}).
		Where("(buyer_id = ? OR seller_id = ?) AND status = ?",
			userID, userID, trading.TradeStatusActive.String()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumVolumeByBuyerSince sums total_amount of trades the buyer created at or
// after the given instant. Cancelled trades still count toward the window;
// the cap guards commitment rate, not realized spend.
func (r *GormTradeRepository) SumVolumeByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.Conn(ctx).
		Model(&models.TradeModel{}).
		Select("COALESCE(SUM(total_amount), 0) as total").
		Where("buyer_id = ? AND created_at >= ?", buyerID, since).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormTradeRepository implements TradeRepository
var _ trading.TradeRepository = (*GormTradeRepository)(nil)
