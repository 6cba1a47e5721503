package trading

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeTrade   = "Trade"
	AggregateTypeDispute = "Dispute"
)

// Event type constants
const (
	EventTypeTradeCreated    = "TradeCreated"
	EventTypeTradeCompleted  = "TradeCompleted"
	EventTypeDisputeOpened   = "DisputeOpened"
	EventTypeDisputeResolved = "DisputeResolved"
)

// TradeCreatedEvent is raised when escrow has been funded and the trade is active
type TradeCreatedEvent struct {
	shared.BaseDomainEvent
	TradeID     uuid.UUID       `json:"trade_id"`
	TradeCode   string          `json:"trade_code"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Quantity    int64           `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewTradeCreatedEvent creates a new TradeCreatedEvent
func NewTradeCreatedEvent(trade *Trade) *TradeCreatedEvent {
	return &TradeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeCreated, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		TradeCode:       trade.TradeCode,
		BuyerID:         trade.BuyerID,
		SellerID:        trade.SellerID,
		Quantity:        trade.Quantity,
		TotalAmount:     trade.TotalAmount,
	}
}

// EventType returns the event type name
func (e *TradeCreatedEvent) EventType() string {
	return EventTypeTradeCreated
}

// TradeCompletedEvent is raised when escrow has been released to the seller
type TradeCompletedEvent struct {
	shared.BaseDomainEvent
	TradeID     uuid.UUID       `json:"trade_id"`
	TradeCode   string          `json:"trade_code"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewTradeCompletedEvent creates a new TradeCompletedEvent
func NewTradeCompletedEvent(trade *Trade) *TradeCompletedEvent {
	return &TradeCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeCompleted, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		TradeCode:       trade.TradeCode,
		BuyerID:         trade.BuyerID,
		SellerID:        trade.SellerID,
		TotalAmount:     trade.TotalAmount,
	}
}

// EventType returns the event type name
func (e *TradeCompletedEvent) EventType() string {
	return EventTypeTradeCompleted
}

// DisputeOpenedEvent is raised when a trade is frozen behind a dispute
type DisputeOpenedEvent struct {
	shared.BaseDomainEvent
	DisputeID uuid.UUID `json:"dispute_id"`
	TradeID   uuid.UUID `json:"trade_id"`
	OpenedBy  uuid.UUID `json:"opened_by"`
	Reason    string    `json:"reason"`
}

// NewDisputeOpenedEvent creates a new DisputeOpenedEvent
func NewDisputeOpenedEvent(dispute *Dispute) *DisputeOpenedEvent {
	return &DisputeOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDisputeOpened, AggregateTypeDispute, dispute.ID),
		DisputeID:       dispute.ID,
		TradeID:         dispute.TradeID,
		OpenedBy:        dispute.OpenedBy,
		Reason:          dispute.Reason,
	}
}

// EventType returns the event type name
func (e *DisputeOpenedEvent) EventType() string {
	return EventTypeDisputeOpened
}

// DisputeResolvedEvent is raised after resolution funds have moved
type DisputeResolvedEvent struct {
	shared.BaseDomainEvent
	DisputeID  uuid.UUID `json:"dispute_id"`
	TradeID    uuid.UUID `json:"trade_id"`
	Resolution string    `json:"resolution"`
	ResolvedBy uuid.UUID `json:"resolved_by"`
}

// NewDisputeResolvedEvent creates a new DisputeResolvedEvent
func NewDisputeResolvedEvent(dispute *Dispute) *DisputeResolvedEvent {
	resolution := ""
	if dispute.Resolution != nil {
		resolution = dispute.Resolution.String()
	}
	resolvedBy := uuid.Nil
	if dispute.ResolvedBy != nil {
		resolvedBy = *dispute.ResolvedBy
	}
	return &DisputeResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDisputeResolved, AggregateTypeDispute, dispute.ID),
		DisputeID:       dispute.ID,
		TradeID:         dispute.TradeID,
		Resolution:      resolution,
		ResolvedBy:      resolvedBy,
	}
}

// EventType returns the event type name
func (e *DisputeResolvedEvent) EventType() string {
	return EventTypeDisputeResolved
}
