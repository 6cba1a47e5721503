package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Balance is the per-user fund store. Funds live in two pools: spendable
// (free to trade or withdraw) and escrowed (held against open trades).
// Lifetime counters only ever grow, except for the compensating adjustment
// applied when an external withdrawal settlement fails.
type Balance struct {
	shared.BaseAggregateRoot
	UserID            uuid.UUID
	Spendable         decimal.Decimal
	Escrowed          decimal.Decimal
	LifetimeDeposited decimal.Decimal
	LifetimeWithdrawn decimal.Decimal
}

// NewBalance creates a zero balance for a user
func NewBalance(userID uuid.UUID) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &Balance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Spendable:         decimal.Zero,
		Escrowed:          decimal.Zero,
		LifetimeDeposited: decimal.Zero,
		LifetimeWithdrawn: decimal.Zero,
	}, nil
}

// Total returns spendable + escrowed
func (b *Balance) Total() decimal.Decimal {
	return b.Spendable.Add(b.Escrowed)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	return nil
}

// Credit adds funds to the spendable pool
func (b *Balance) Credit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	b.Spendable = b.Spendable.Add(amount)
	return nil
}

// Debit removes funds from the spendable pool.
// Fails with INSUFFICIENT_FUNDS if spendable < amount.
func (b *Balance) Debit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if b.Spendable.LessThan(amount) {
		return shared.ErrInsufficientFunds
	}
	b.Spendable = b.Spendable.Sub(amount)
	return nil
}

// Reserve moves funds from this user's spendable pool into their own
// escrowed pool. Fails with INSUFFICIENT_FUNDS on shortfall.
func (b *Balance) Reserve(amount decimal.Decimal) error {
	if err := b.Debit(amount); err != nil {
		return err
	}
	b.Escrowed = b.Escrowed.Add(amount)
	return nil
}

// HoldInEscrow adds funds to the escrowed pool. Used on the payee side of
// a cross-user escrow funding; the matching debit happens on the payer.
func (b *Balance) HoldInEscrow(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	b.Escrowed = b.Escrowed.Add(amount)
	return nil
}

// SettleEscrow moves funds from the escrowed pool to the spendable pool.
// An escrow shortfall is a consistency violation, never clamped.
func (b *Balance) SettleEscrow(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if b.Escrowed.LessThan(amount) {
		return shared.ErrEscrowMismatch
	}
	b.Escrowed = b.Escrowed.Sub(amount)
	b.Spendable = b.Spendable.Add(amount)
	return nil
}

// ReleaseEscrow removes funds from the escrowed pool without crediting
// this user; the caller credits the receiving party. An escrow shortfall
// is a consistency violation.
func (b *Balance) ReleaseEscrow(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if b.Escrowed.LessThan(amount) {
		return shared.ErrEscrowMismatch
	}
	b.Escrowed = b.Escrowed.Sub(amount)
	return nil
}

// RecordDeposit credits spendable funds and advances the lifetime counter
func (b *Balance) RecordDeposit(amount decimal.Decimal) error {
	if err := b.Credit(amount); err != nil {
		return err
	}
	b.LifetimeDeposited = b.LifetimeDeposited.Add(amount)
	return nil
}

// RecordWithdrawal debits spendable funds and advances the lifetime counter
func (b *Balance) RecordWithdrawal(amount decimal.Decimal) error {
	if err := b.Debit(amount); err != nil {
		return err
	}
	b.LifetimeWithdrawn = b.LifetimeWithdrawn.Add(amount)
	return nil
}

// CompensateWithdrawal reverses a withdrawal whose external settlement
// failed: the funds return to spendable and the lifetime counter rolls back.
func (b *Balance) CompensateWithdrawal(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if b.LifetimeWithdrawn.LessThan(amount) {
		return shared.ErrLedgerInconsistent
	}
	b.Spendable = b.Spendable.Add(amount)
	b.LifetimeWithdrawn = b.LifetimeWithdrawn.Sub(amount)
	return nil
}
