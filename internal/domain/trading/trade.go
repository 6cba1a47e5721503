package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// TradeStatus represents the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusActive    TradeStatus = "active"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusDisputed  TradeStatus = "disputed"
	TradeStatusRefunded  TradeStatus = "refunded"
)

func (s TradeStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known TradeStatus
func (s TradeStatus) IsValid() bool {
	switch s {
	case TradeStatusActive, TradeStatusCompleted, TradeStatusCancelled,
		TradeStatusDisputed, TradeStatusRefunded:
		return true
	}
	return false
}

// IsTerminal returns true once no further transition is possible
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeStatusCompleted, TradeStatusCancelled, TradeStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s TradeStatus) CanTransitionTo(target TradeStatus) bool {
	switch s {
	case TradeStatusActive:
		return target == TradeStatusCompleted || target == TradeStatusCancelled || target == TradeStatusDisputed
	case TradeStatusDisputed:
		return target == TradeStatusCompleted || target == TradeStatusCancelled || target == TradeStatusRefunded
	}
	return false
}

// GenerateTradeCode produces a human-short external trade identifier.
// Uniqueness is enforced at creation with collision retry.
func GenerateTradeCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:8])
}

// Trade is the aggregate root for one buyer/seller agreement over a listed
// item. Unit price and total amount are frozen at creation; the item
// reference may later become nil if the listing is removed, but the money
// snapshot survives.
type Trade struct {
	shared.BaseAggregateRoot
	TradeCode      string
	ItemID         *uuid.UUID
	ItemTitle      string
	BuyerID        uuid.UUID
	SellerID       uuid.UUID
	Quantity       int64
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         TradeStatus
	BuyerRating    *int
	BuyerFeedback  string
	SellerRating   *int
	SellerFeedback string
	CompletedAt    *time.Time
}

// NewTrade creates an active trade with a frozen money snapshot
func NewTrade(tradeCode string, itemID uuid.UUID, itemTitle string, buyerID, sellerID uuid.UUID, quantity int64, unitPrice valueobject.Money) (*Trade, error) {
	if tradeCode == "" {
		return nil, shared.NewDomainError("INVALID_TRADE_CODE", "Trade code cannot be empty")
	}
	if buyerID == uuid.Nil || sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Buyer and seller IDs cannot be empty")
	}
	if buyerID == sellerID {
		return nil, shared.NewDomainError("INVALID_PARTICIPANT", "Buyer and seller must differ")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	item := itemID
	trade := &Trade{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TradeCode:         tradeCode,
		ItemID:            &item,
		ItemTitle:         itemTitle,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		Quantity:          quantity,
		UnitPrice:         unitPrice.Amount(),
		TotalAmount:       unitPrice.Amount().Mul(decimal.NewFromInt(quantity)),
		Status:            TradeStatusActive,
	}

	trade.AddDomainEvent(NewTradeCreatedEvent(trade))

	return trade, nil
}

// IsParticipant returns true if the user is the buyer or the seller
func (t *Trade) IsParticipant(userID uuid.UUID) bool {
	return userID == t.BuyerID || userID == t.SellerID
}

// TotalAmountMoney returns the frozen total as a Money value object
func (t *Trade) TotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(t.TotalAmount)
}

func (t *Trade) transition(target TradeStatus) error {
	if !t.Status.CanTransitionTo(target) {
		if t.Status != TradeStatusActive {
			return shared.ErrTradeNotActive
		}
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot move trade from %s to %s", t.Status, target))
	}
	t.Status = target
	t.UpdatedAt = time.Now()
	return nil
}

// Complete finishes an active trade. Only the buyer may complete.
func (t *Trade) Complete(actorID uuid.UUID) error {
	if actorID != t.BuyerID {
		return shared.ErrForbidden
	}
	if t.Status != TradeStatusActive {
		return shared.ErrTradeNotActive
	}
	if err := t.transition(TradeStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	t.CompletedAt = &now

	t.AddDomainEvent(NewTradeCompletedEvent(t))

	return nil
}

// MarkDisputed freezes an active trade while a dispute is open.
// Only trade participants may open a dispute; the caller verifies that
// together with the one-open-dispute rule before calling.
func (t *Trade) MarkDisputed(actorID uuid.UUID) error {
	if !t.IsParticipant(actorID) {
		return shared.ErrForbidden
	}
	if t.Status != TradeStatusActive {
		return shared.ErrTradeNotActive
	}
	return t.transition(TradeStatusDisputed)
}

// ResolveCompleted closes a disputed trade in the seller's favor
func (t *Trade) ResolveCompleted() error {
	if t.Status != TradeStatusDisputed {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", "Trade is not disputed")
	}
	if err := t.transition(TradeStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// ResolveCancelled closes a disputed trade with the buyer refunded
func (t *Trade) ResolveCancelled() error {
	if t.Status != TradeStatusDisputed {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", "Trade is not disputed")
	}
	return t.transition(TradeStatusCancelled)
}

// ResolveRefunded closes a disputed trade as refunded
func (t *Trade) ResolveRefunded() error {
	if t.Status != TradeStatusDisputed {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION", "Trade is not disputed")
	}
	return t.transition(TradeStatusRefunded)
}

// RateByBuyer records the buyer's one-time rating of a completed trade
func (t *Trade) RateByBuyer(actorID uuid.UUID, score int, feedback string) error {
	if actorID != t.BuyerID {
		return shared.ErrForbidden
	}
	return t.rate(&t.BuyerRating, &t.BuyerFeedback, score, feedback)
}

// RateBySeller records the seller's one-time rating of a completed trade
func (t *Trade) RateBySeller(actorID uuid.UUID, score int, feedback string) error {
	if actorID != t.SellerID {
		return shared.ErrForbidden
	}
	return t.rate(&t.SellerRating, &t.SellerFeedback, score, feedback)
}

func (t *Trade) rate(rating **int, fb *string, score int, feedback string) error {
	if t.Status != TradeStatusCompleted {
		return shared.NewDomainError("TRADE_NOT_COMPLETED", "Only completed trades can be rated")
	}
	if score < 1 || score > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	if *rating != nil {
		return shared.NewDomainError("ALREADY_RATED", "Trade has already been rated by this side")
	}
	*rating = &score
	*fb = feedback
	t.UpdatedAt = time.Now()
	return nil
}
