package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *Database
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *Database) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a new audit entry
func (r *GormTransactionRepository) Create(ctx context.Context, entry *ledger.TransactionEntry) error {
	model := models.TransactionEntryModelFromDomain(entry)
	if err := r.db.Conn(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save persists a status advance on an existing entry. Only the mutable
// columns are written; the financial columns are immutable once created.
func (r *GormTransactionRepository) Save(ctx context.Context, entry *ledger.TransactionEntry) error {
	result := r.db.Conn(ctx).
		Model(&models.TransactionEntryModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"status":       entry.Status.String(),
			"gateway_ref":  entry.GatewayRef,
			"completed_at": entry.CompletedAt,
			"updated_at":   entry.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an entry by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionEntry, error) {
	var model models.TransactionEntryModel
	if err := r.db.Conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds an entry by its unique reference
func (r *GormTransactionRepository) FindByReference(ctx context.Context, reference string) (*ledger.TransactionEntry, error) {
	var model models.TransactionEntryModel
	if err := r.db.Conn(ctx).First(&model, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserID lists a user's entries, newest first
func (r *GormTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.TransactionEntry, int64, error) {
	query := r.applyFilterWithoutPagination(
		r.db.Conn(ctx).Model(&models.TransactionEntryModel{}).Where("user_id = ?", userID),
		filter,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TransactionEntryModel
	if err := r.applyPagination(query, filter).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*ledger.TransactionEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

// CountPendingWithdrawals counts a user's in-flight withdrawals
func (r *GormTransactionRepository) CountPendingWithdrawals(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Conn(ctx).
		Model(&models.TransactionEntryModel{}).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, ledger.TransactionTypeWithdrawal.String(), ledger.TransactionStatusPending.String()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumAmountByTypeAndStatuses sums the amounts of entries of one type in any
// of the given statuses
func (r *GormTransactionRepository) SumAmountByTypeAndStatuses(ctx context.Context, entryType ledger.TransactionType, statuses ...ledger.TransactionStatus) (decimal.Decimal, error) {
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = status.String()
	}

	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.Conn(ctx).
		Model(&models.TransactionEntryModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("type = ? AND status IN ?", entryType.String(), names).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindPendingWithdrawals lists pending withdrawal entries for the settlement
// sweep, oldest first
func (r *GormTransactionRepository) FindPendingWithdrawals(ctx context.Context, limit int) ([]*ledger.TransactionEntry, error) {
	var rows []models.TransactionEntryModel
	query := r.db.Conn(ctx).
		Where("type = ? AND status = ?",
			ledger.TransactionTypeWithdrawal.String(), ledger.TransactionStatusPending.String()).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*ledger.TransactionEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.TradeID != nil {
		query = query.Where("trade_id = ?", *filter.TradeID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", filter.Type.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	return query
}

// applyPagination applies page and page size to the query
func (r *GormTransactionRepository) applyPagination(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
