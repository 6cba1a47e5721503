package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// TransactionType classifies a ledger audit entry
type TransactionType string

const (
	TransactionTypeDeposit      TransactionType = "deposit"
	TransactionTypeWithdrawal   TransactionType = "withdrawal"
	TransactionTypeTradePayment TransactionType = "trade_payment"
	TransactionTypeTradeRelease TransactionType = "trade_release"
	TransactionTypeRefund       TransactionType = "refund"
)

func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit,
		TransactionTypeWithdrawal,
		TransactionTypeTradePayment,
		TransactionTypeTradeRelease,
		TransactionTypeRefund:
		return true
	}
	return false
}

// TransactionStatus tracks the settlement state of an entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending,
		TransactionStatusCompleted,
		TransactionStatusFailed,
		TransactionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true once the status can no longer change
func (s TransactionStatus) IsTerminal() bool {
	return s != TransactionStatusPending
}

// CanTransitionTo enforces forward-only status movement:
// pending may become completed, failed or cancelled; terminal states never change.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	if s != TransactionStatusPending {
		return false
	}
	switch target {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// TransactionEntry is the immutable audit record paired with every balance
// mutation. Entries are only ever advanced forward in status, never edited
// or deleted; corrections happen through new entries.
type TransactionEntry struct {
	shared.BaseEntity
	Reference     string
	UserID        uuid.UUID
	TradeID       *uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        TransactionStatus
	Description   string
	GatewayRef    *string
	CompletedAt   *time.Time
}

// GenerateReference produces a unique external-facing entry reference
func GenerateReference() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("TXN-%s", strings.ToUpper(raw[:12]))
}

// NewTransactionEntry creates an audit entry. balanceBefore/balanceAfter
// snapshot the user's spendable pool around the mutation.
func NewTransactionEntry(
	userID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	status TransactionStatus,
) (*TransactionEntry, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Invalid transaction status")
	}
	if balanceBefore.IsNegative() || balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance snapshots cannot be negative")
	}

	entry := &TransactionEntry{
		BaseEntity:    shared.NewBaseEntity(),
		Reference:     GenerateReference(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Status:        status,
	}
	if status == TransactionStatusCompleted {
		now := time.Now()
		entry.CompletedAt = &now
	}
	return entry, nil
}

// WithTrade links the entry to a trade
func (e *TransactionEntry) WithTrade(tradeID uuid.UUID) *TransactionEntry {
	e.TradeID = &tradeID
	return e
}

// WithDescription sets the human-readable description
func (e *TransactionEntry) WithDescription(description string) *TransactionEntry {
	e.Description = description
	return e
}

// WithGatewayRef records the external payment-rail reference
func (e *TransactionEntry) WithGatewayRef(ref string) *TransactionEntry {
	e.GatewayRef = &ref
	return e
}

func (e *TransactionEntry) transition(target TransactionStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot move transaction from %s to %s", e.Status, target))
	}
	e.Status = target
	e.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted advances a pending entry to completed
func (e *TransactionEntry) MarkCompleted() error {
	if err := e.transition(TransactionStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	e.CompletedAt = &now
	return nil
}

// MarkFailed advances a pending entry to failed
func (e *TransactionEntry) MarkFailed() error {
	return e.transition(TransactionStatusFailed)
}

// MarkCancelled advances a pending entry to cancelled
func (e *TransactionEntry) MarkCancelled() error {
	return e.transition(TransactionStatusCancelled)
}

// NewDepositEntry records a confirmed deposit into spendable funds
func NewDepositEntry(userID uuid.UUID, amount, balanceBefore decimal.Decimal) (*TransactionEntry, error) {
	return NewTransactionEntry(userID, TransactionTypeDeposit, amount,
		balanceBefore, balanceBefore.Add(amount), TransactionStatusCompleted)
}

// NewWithdrawalEntry records a withdrawal handed off for settlement.
// The entry starts pending; the settlement worker finalizes it.
func NewWithdrawalEntry(userID uuid.UUID, amount, balanceBefore decimal.Decimal) (*TransactionEntry, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.ErrInsufficientFunds
	}
	return NewTransactionEntry(userID, TransactionTypeWithdrawal, amount,
		balanceBefore, balanceBefore.Sub(amount), TransactionStatusPending)
}

// NewTradePaymentEntry records the buyer-side debit funding a trade's escrow
func NewTradePaymentEntry(buyerID, tradeID uuid.UUID, amount, balanceBefore decimal.Decimal) (*TransactionEntry, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.ErrInsufficientFunds
	}
	entry, err := NewTransactionEntry(buyerID, TransactionTypeTradePayment, amount,
		balanceBefore, balanceBefore.Sub(amount), TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	return entry.WithTrade(tradeID), nil
}

// NewTradeReleaseEntry records escrow released into the seller's spendable pool
func NewTradeReleaseEntry(sellerID, tradeID uuid.UUID, amount, balanceBefore decimal.Decimal) (*TransactionEntry, error) {
	entry, err := NewTransactionEntry(sellerID, TransactionTypeTradeRelease, amount,
		balanceBefore, balanceBefore.Add(amount), TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	return entry.WithTrade(tradeID), nil
}

// NewRefundEntry records escrow returned to the buyer's spendable pool
func NewRefundEntry(buyerID, tradeID uuid.UUID, amount, balanceBefore decimal.Decimal) (*TransactionEntry, error) {
	entry, err := NewTransactionEntry(buyerID, TransactionTypeRefund, amount,
		balanceBefore, balanceBefore.Add(amount), TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	return entry.WithTrade(tradeID), nil
}
