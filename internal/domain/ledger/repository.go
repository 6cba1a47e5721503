package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceRepository defines the interface for balance persistence
type BalanceRepository interface {
	// FindByUserID finds a user's balance
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Balance, error)

	// FindByUserIDForUpdate finds a user's balance and takes a row lock for
	// the duration of the surrounding transaction. Callers touching two
	// balances must lock them in ascending user-id order.
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*Balance, error)

	// Create creates a new balance row
	Create(ctx context.Context, balance *Balance) error

	// Save persists balance changes
	Save(ctx context.Context, balance *Balance) error

	// SumTotals returns the sum of spendable and escrowed pools across all
	// users; used by conservation checks
	SumTotals(ctx context.Context) (spendable, escrowed decimal.Decimal, err error)
}

// TransactionFilter contains filter options for listing ledger entries
type TransactionFilter struct {
	UserID   *uuid.UUID
	TradeID  *uuid.UUID
	Type     *TransactionType
	Status   *TransactionStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// TransactionRepository defines the interface for audit-entry persistence.
// Entries are append-only; Save may only advance the status column.
type TransactionRepository interface {
	// Create appends a new audit entry
	Create(ctx context.Context, entry *TransactionEntry) error

	// Save persists a status advance on a pending entry
	Save(ctx context.Context, entry *TransactionEntry) error

	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TransactionEntry, error)

	// FindByReference finds an entry by its unique reference
	FindByReference(ctx context.Context, reference string) (*TransactionEntry, error)

	// FindByUserID lists a user's entries, newest first
	FindByUserID(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]*TransactionEntry, int64, error)

	// CountPendingWithdrawals counts a user's in-flight withdrawals
	CountPendingWithdrawals(ctx context.Context, userID uuid.UUID) (int64, error)

	// SumAmountByTypeAndStatuses sums the amounts of entries of one type in
	// any of the given statuses; used by conservation checks
	SumAmountByTypeAndStatuses(ctx context.Context, entryType TransactionType, statuses ...TransactionStatus) (decimal.Decimal, error)

	// FindPendingWithdrawals lists pending withdrawal entries for the
	// settlement sweep, oldest first
	FindPendingWithdrawals(ctx context.Context, limit int) ([]*TransactionEntry, error)
}
