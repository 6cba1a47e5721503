package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/ledger"
)

// BalanceModel is the persistence model for the Balance aggregate.
type BalanceModel struct {
	AggregateModel
	UserID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Spendable         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Escrowed          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	LifetimeDeposited decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	LifetimeWithdrawn decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BalanceModel) TableName() string {
	return "balances"
}

// ToDomain converts the persistence model to a domain Balance aggregate.
func (m *BalanceModel) ToDomain() *ledger.Balance {
	return &ledger.Balance{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Spendable:         m.Spendable,
		Escrowed:          m.Escrowed,
		LifetimeDeposited: m.LifetimeDeposited,
		LifetimeWithdrawn: m.LifetimeWithdrawn,
	}
}

// FromDomain populates the persistence model from a domain Balance aggregate.
func (m *BalanceModel) FromDomain(b *ledger.Balance) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.UserID = b.UserID
	m.Spendable = b.Spendable
	m.Escrowed = b.Escrowed
	m.LifetimeDeposited = b.LifetimeDeposited
	m.LifetimeWithdrawn = b.LifetimeWithdrawn
}

// BalanceModelFromDomain creates a new persistence model from a domain Balance.
func BalanceModelFromDomain(b *ledger.Balance) *BalanceModel {
	m := &BalanceModel{}
	m.FromDomain(b)
	return m
}

// TransactionEntryModel is the persistence model for the append-only
// transaction audit trail.
type TransactionEntryModel struct {
	BaseModel
	Reference     string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TradeID       *uuid.UUID      `gorm:"type:uuid;index"`
	Type          string          `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	Description   string          `gorm:"type:text"`
	GatewayRef    *string         `gorm:"type:varchar(100)"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (TransactionEntryModel) TableName() string {
	return "transaction_entries"
}

// ToDomain converts the persistence model to a domain TransactionEntry.
func (m *TransactionEntryModel) ToDomain() *ledger.TransactionEntry {
	return &ledger.TransactionEntry{
		BaseEntity:    m.BaseModel.ToDomain(),
		Reference:     m.Reference,
		UserID:        m.UserID,
		TradeID:       m.TradeID,
		Type:          ledger.TransactionType(m.Type),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Status:        ledger.TransactionStatus(m.Status),
		Description:   m.Description,
		GatewayRef:    m.GatewayRef,
		CompletedAt:   m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain TransactionEntry.
func (m *TransactionEntryModel) FromDomain(e *ledger.TransactionEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.Reference = e.Reference
	m.UserID = e.UserID
	m.TradeID = e.TradeID
	m.Type = e.Type.String()
	m.Amount = e.Amount
	m.BalanceBefore = e.BalanceBefore
	m.BalanceAfter = e.BalanceAfter
	m.Status = e.Status.String()
	m.Description = e.Description
	m.GatewayRef = e.GatewayRef
	m.CompletedAt = e.CompletedAt
}

// TransactionEntryModelFromDomain creates a new persistence model from a
// domain TransactionEntry.
func TransactionEntryModelFromDomain(e *ledger.TransactionEntry) *TransactionEntryModel {
	m := &TransactionEntryModel{}
	m.FromDomain(e)
	return m
}
