package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeBalance          = "Balance"
	AggregateTypeTransactionEntry = "TransactionEntry"
)

// Event type constants
const (
	EventTypeDepositReceived     = "DepositReceived"
	EventTypeWithdrawalRequested = "WithdrawalRequested"
	EventTypeWithdrawalSettled   = "WithdrawalSettled"
	EventTypeWithdrawalFailed    = "WithdrawalFailed"
)

// DepositReceivedEvent is raised when a confirmed deposit credits a balance
type DepositReceivedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID       `json:"user_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewDepositReceivedEvent creates a new DepositReceivedEvent
func NewDepositReceivedEvent(entry *TransactionEntry) *DepositReceivedEvent {
	return &DepositReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepositReceived, AggregateTypeTransactionEntry, entry.ID),
		UserID:          entry.UserID,
		Reference:       entry.Reference,
		Amount:          entry.Amount,
	}
}

// EventType returns the event type name
func (e *DepositReceivedEvent) EventType() string {
	return EventTypeDepositReceived
}

// WithdrawalRequestedEvent is raised when a withdrawal is debited and
// handed off for background settlement
type WithdrawalRequestedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID       `json:"user_id"`
	EntryID   uuid.UUID       `json:"entry_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewWithdrawalRequestedEvent creates a new WithdrawalRequestedEvent
func NewWithdrawalRequestedEvent(entry *TransactionEntry) *WithdrawalRequestedEvent {
	return &WithdrawalRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWithdrawalRequested, AggregateTypeTransactionEntry, entry.ID),
		UserID:          entry.UserID,
		EntryID:         entry.ID,
		Reference:       entry.Reference,
		Amount:          entry.Amount,
	}
}

// EventType returns the event type name
func (e *WithdrawalRequestedEvent) EventType() string {
	return EventTypeWithdrawalRequested
}

// WithdrawalSettledEvent is raised when the external rail confirms payout
type WithdrawalSettledEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID       `json:"user_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewWithdrawalSettledEvent creates a new WithdrawalSettledEvent
func NewWithdrawalSettledEvent(entry *TransactionEntry) *WithdrawalSettledEvent {
	return &WithdrawalSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWithdrawalSettled, AggregateTypeTransactionEntry, entry.ID),
		UserID:          entry.UserID,
		Reference:       entry.Reference,
		Amount:          entry.Amount,
	}
}

// EventType returns the event type name
func (e *WithdrawalSettledEvent) EventType() string {
	return EventTypeWithdrawalSettled
}

// WithdrawalFailedEvent is raised when settlement fails and the
// compensating credit has been applied
type WithdrawalFailedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID       `json:"user_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
}

// NewWithdrawalFailedEvent creates a new WithdrawalFailedEvent
func NewWithdrawalFailedEvent(entry *TransactionEntry, reason string) *WithdrawalFailedEvent {
	return &WithdrawalFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWithdrawalFailed, AggregateTypeTransactionEntry, entry.ID),
		UserID:          entry.UserID,
		Reference:       entry.Reference,
		Amount:          entry.Amount,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *WithdrawalFailedEvent) EventType() string {
	return EventTypeWithdrawalFailed
}
