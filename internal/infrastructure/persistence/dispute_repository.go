package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormDisputeRepository implements DisputeRepository using GORM
type GormDisputeRepository struct {
	db *Database
}

// NewGormDisputeRepository creates a new GormDisputeRepository
func NewGormDisputeRepository(db *Database) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// Create persists a new dispute. The unique index on trade_id surfaces a
// second dispute on the same trade as ErrDisputeAlreadyOpen.
func (r *GormDisputeRepository) Create(ctx context.Context, dispute *trading.Dispute) error {
	model := models.DisputeModelFromDomain(dispute)
	if err := r.db.Conn(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDisputeAlreadyOpen
		}
		return err
	}
	return nil
}

// Save persists dispute changes without a version check
func (r *GormDisputeRepository) Save(ctx context.Context, dispute *trading.Dispute) error {
	model := models.DisputeModelFromDomain(dispute)
	return r.db.Conn(ctx).Save(model).Error
}

// SaveWithLock persists dispute changes with an optimistic version check
func (r *GormDisputeRepository) SaveWithLock(ctx context.Context, dispute *trading.Dispute) error {
	model := models.DisputeModelFromDomain(dispute)
	result := r.db.Conn(ctx).
		Model(&models.DisputeModel{}).
		Where("id = ? AND version = ?", dispute.ID, dispute.Version).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"resolution":        model.Resolution,
			"resolution_notes":  model.ResolutionNotes,
			"resolved_by":       model.ResolvedBy,
			"refund_percentage": model.RefundPercentage,
			"resolved_at":       model.ResolvedAt,
			"version":           dispute.Version + 1,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	dispute.Version++
	return nil
}

// FindByID finds a dispute by ID
func (r *GormDisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*trading.Dispute, error) {
	var model models.DisputeModel
	if err := r.db.Conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByTradeID finds the open dispute on a trade, if any
func (r *GormDisputeRepository) FindOpenByTradeID(ctx context.Context, tradeID uuid.UUID) (*trading.Dispute, error) {
	var model models.DisputeModel
	if err := r.db.Conn(ctx).
		Where("trade_id = ? AND status = ?", tradeID, trading.DisputeStatusOpen.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTradeID finds the dispute owned by a trade, if any
func (r *GormDisputeRepository) FindByTradeID(ctx context.Context, tradeID uuid.UUID) (*trading.Dispute, error) {
	var model models.DisputeModel
	if err := r.db.Conn(ctx).First(&model, "trade_id = ?", tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists disputes with filtering
func (r *GormDisputeRepository) List(ctx context.Context, filter trading.DisputeFilter) ([]*trading.Dispute, int64, error) {
	query := r.db.Conn(ctx).Model(&models.DisputeModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.ParticipantID != nil {
		query = query.Where(
			"trade_id IN (?)",
			r.db.Conn(ctx).
				Model(&models.TradeModel{}).
				Select("id").
				Where("buyer_id = ? OR seller_id = ?", *filter.ParticipantID, *filter.ParticipantID),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var rows []models.DisputeModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	disputes := make([]*trading.Dispute, len(rows))
	for i := range rows {
		disputes[i] = rows[i].ToDomain()
	}
	return disputes, total, nil
}

// Ensure GormDisputeRepository implements DisputeRepository
var _ trading.DisputeRepository = (*GormDisputeRepository)(nil)
