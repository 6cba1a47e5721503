package eligibility

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
)

// ActivityWindow is the rolling window for daily caps
const ActivityWindow = 24 * time.Hour

// Limits are the tier-based caps applied before a mutation. A zero-value
// cap never occurs; Unlimited switches all checks off.
type Limits struct {
	MaxActiveListings int64
	MaxListingsPerDay int64
	MaxActiveTrades   int64
	MaxTradeAmount    decimal.Decimal
	MaxDailyVolume    decimal.Decimal
	Unlimited         bool
}

// ForTier returns the caps for a verification tier
func ForTier(tier identity.VerificationTier) Limits {
	if tier == identity.TierVerified {
		return Limits{Unlimited: true}
	}
	return Limits{
		MaxActiveListings: 5,
		MaxListingsPerDay: 3,
		MaxActiveTrades:   3,
		MaxTradeAmount:    decimal.NewFromInt(500000),
		MaxDailyVolume:    decimal.NewFromInt(1000000),
	}
}

// TradeActivity is a transactional snapshot of the buyer's recent trading.
// It must be read inside the same database transaction as the trade
// creation it guards, so two concurrent creations cannot both observe a
// free slot.
type TradeActivity struct {
	ActiveTrades int64
	DailyVolume  decimal.Decimal
}

// ListingActivity is a transactional snapshot of the seller's listings
type ListingActivity struct {
	ActiveListings int64
	CreatedLast24h int64
}

// CheckTradeCreation evaluates the caps against a proposed trade amount.
// Pure: it never reads or mutates state itself.
func (l Limits) CheckTradeCreation(amount decimal.Decimal, activity TradeActivity) error {
	if l.Unlimited {
		return nil
	}
	if activity.ActiveTrades >= l.MaxActiveTrades {
		return shared.ErrTradeLimitExceeded
	}
	if amount.GreaterThan(l.MaxTradeAmount) {
		return shared.ErrTradeLimitExceeded
	}
	if activity.DailyVolume.Add(amount).GreaterThan(l.MaxDailyVolume) {
		return shared.ErrTradeLimitExceeded
	}
	return nil
}

// CheckListingCreation evaluates the listing quotas
func (l Limits) CheckListingCreation(activity ListingActivity) error {
	if l.Unlimited {
		return nil
	}
	if activity.ActiveListings >= l.MaxActiveListings {
		return shared.ErrListingLimitExceeded
	}
	if activity.CreatedLast24h >= l.MaxListingsPerDay {
		return shared.ErrListingLimitExceeded
	}
	return nil
}
