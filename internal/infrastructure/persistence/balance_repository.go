package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
)

// GormBalanceRepository implements BalanceRepository using GORM
type GormBalanceRepository struct {
	db *Database
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *Database) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// FindByUserID finds a user's balance
func (r *GormBalanceRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*ledger.Balance, error) {
	var model models.BalanceModel
	if err := r.db.Conn(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserIDForUpdate finds a user's balance and takes a row lock that is
// held until the surrounding transaction commits or rolls back. Callers
// locking two balances must do so in ascending user-id order.
func (r *GormBalanceRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*ledger.Balance, error) {
	var model models.BalanceModel
	if err := r.db.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create creates a new balance row
func (r *GormBalanceRepository) Create(ctx context.Context, balance *ledger.Balance) error {
	model := models.BalanceModelFromDomain(balance)
	if err := r.db.Conn(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save persists balance changes
func (r *GormBalanceRepository) Save(ctx context.Context, balance *ledger.Balance) error {
	model := models.BalanceModelFromDomain(balance)
	return r.db.Conn(ctx).Save(model).Error
}

// SumTotals returns the sum of spendable and escrowed pools across all users
func (r *GormBalanceRepository) SumTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var result struct {
		Spendable decimal.Decimal
		Escrowed  decimal.Decimal
	}
	if err := r.db.Conn(ctx).
		Model(&models.BalanceModel{}).
		Select("COALESCE(SUM(spendable), 0) as spendable, COALESCE(SUM(escrowed), 0) as escrowed").
		Scan(&result).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return result.Spendable, result.Escrowed, nil
}

// Ensure GormBalanceRepository implements BalanceRepository
var _ ledger.BalanceRepository = (*GormBalanceRepository)(nil)
