package trading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeFilter contains filter options for listing trades
type TradeFilter struct {
	Status   *TradeStatus
	Role     string // "buyer", "seller" or empty for both
	Page     int
	PageSize int
}

// TradeRepository defines the interface for trade persistence
type TradeRepository interface {
	// Create persists a new trade
	Create(ctx context.Context, trade *Trade) error

	// Save persists trade changes
	Save(ctx context.Context, trade *Trade) error

	// SaveWithLock persists trade changes with an optimistic version check.
	// Returns CONCURRENT_MODIFICATION when another writer advanced the row.
	SaveWithLock(ctx context.Context, trade *Trade) error

	// FindByID finds a trade by internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// FindByIDForUpdate finds a trade and takes a row lock for the duration
	// of the surrounding transaction. Money-moving transitions read through
	// this so a lost race observes the winner's terminal status instead of
	// a drained escrow.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Trade, error)

	// FindByCode finds a trade by its external short code
	FindByCode(ctx context.Context, code string) (*Trade, error)

	// ExistsByCode reports whether a trade code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindByParticipant lists trades where the user is buyer or seller
	FindByParticipant(ctx context.Context, userID uuid.UUID, filter TradeFilter) ([]*Trade, int64, error)

	// CountActiveByParticipant counts a user's active trades on either side.
	// Eligibility reads this inside the same transaction as the creation it guards.
	CountActiveByParticipant(ctx context.Context, userID uuid.UUID) (int64, error)

	// SumVolumeByBuyerSince sums total_amount of trades the buyer created
	// at or after the given instant
	SumVolumeByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

// DisputeFilter contains filter options for listing disputes
type DisputeFilter struct {
	Status *DisputeStatus

	// ParticipantID restricts results to disputes on trades where the
	// user is buyer or seller. Set for every non-operator caller.
	ParticipantID *uuid.UUID

	Page     int
	PageSize int
}

// DisputeRepository defines the interface for dispute persistence
type DisputeRepository interface {
	// Create persists a new dispute
	Create(ctx context.Context, dispute *Dispute) error

	// Save persists dispute changes
	Save(ctx context.Context, dispute *Dispute) error

	// SaveWithLock persists dispute changes with an optimistic version check
	SaveWithLock(ctx context.Context, dispute *Dispute) error

	// FindByID finds a dispute by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Dispute, error)

	// FindOpenByTradeID finds the open dispute on a trade, if any
	FindOpenByTradeID(ctx context.Context, tradeID uuid.UUID) (*Dispute, error)

	// FindByTradeID finds the dispute owned by a trade, if any
	FindByTradeID(ctx context.Context, tradeID uuid.UUID) (*Dispute, error)

	// List lists disputes with filtering
	List(ctx context.Context, filter DisputeFilter) ([]*Dispute, int64, error)
}
