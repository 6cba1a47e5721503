package trading

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/trading"
)

// CreateTradeRequest opens a trade against a live listing
type CreateTradeRequest struct {
	BuyerID  uuid.UUID
	ItemID   uuid.UUID
	Quantity int64
}

// CompleteTradeRequest confirms delivery and releases escrow
type CompleteTradeRequest struct {
	TradeID uuid.UUID
	ActorID uuid.UUID
}

// OpenDisputeRequest freezes a trade pending resolution
type OpenDisputeRequest struct {
	TradeID     uuid.UUID
	ActorID     uuid.UUID
	Reason      string
	Description string
	Evidence    []string
}

// RateTradeRequest records one side's rating of a completed trade
type RateTradeRequest struct {
	TradeID  uuid.UUID
	ActorID  uuid.UUID
	Score    int
	Feedback string
}

// ResolveDisputeRequest settles an open dispute
type ResolveDisputeRequest struct {
	DisputeID        uuid.UUID
	ResolvedBy       uuid.UUID
	Resolution       string
	Notes            string
	RefundPercentage *decimal.Decimal
}

// TradeResponse is the read model for a trade
type TradeResponse struct {
	ID           uuid.UUID       `json:"id"`
	TradeCode    string          `json:"trade_code"`
	ItemID       *uuid.UUID      `json:"item_id,omitempty"`
	ItemTitle    string          `json:"item_title"`
	BuyerID      uuid.UUID       `json:"buyer_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	BuyerRating  *int            `json:"buyer_rating,omitempty"`
	SellerRating *int            `json:"seller_rating,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// ToTradeResponse converts a trade aggregate to its response shape
func ToTradeResponse(t *trading.Trade) TradeResponse {
	return TradeResponse{
		ID:           t.ID,
		TradeCode:    t.TradeCode,
		ItemID:       t.ItemID,
		ItemTitle:    t.ItemTitle,
		BuyerID:      t.BuyerID,
		SellerID:     t.SellerID,
		Quantity:     t.Quantity,
		UnitPrice:    t.UnitPrice,
		TotalAmount:  t.TotalAmount,
		Status:       t.Status.String(),
		BuyerRating:  t.BuyerRating,
		SellerRating: t.SellerRating,
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// ToTradeResponses converts a page of trades
func ToTradeResponses(trades []*trading.Trade) []TradeResponse {
	out := make([]TradeResponse, len(trades))
	for i, t := range trades {
		out[i] = ToTradeResponse(t)
	}
	return out
}

// DisputeResponse is the read model for a dispute
type DisputeResponse struct {
	ID               uuid.UUID        `json:"id"`
	TradeID          uuid.UUID        `json:"trade_id"`
	OpenedBy         uuid.UUID        `json:"opened_by"`
	Reason           string           `json:"reason"`
	Description      string           `json:"description,omitempty"`
	Evidence         []string         `json:"evidence,omitempty"`
	Status           string           `json:"status"`
	Resolution       *string          `json:"resolution,omitempty"`
	ResolutionNotes  string           `json:"resolution_notes,omitempty"`
	ResolvedBy       *uuid.UUID       `json:"resolved_by,omitempty"`
	RefundPercentage *decimal.Decimal `json:"refund_percentage,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
}

// ToDisputeResponse converts a dispute aggregate to its response shape
func ToDisputeResponse(d *trading.Dispute) DisputeResponse {
	resp := DisputeResponse{
		ID:               d.ID,
		TradeID:          d.TradeID,
		OpenedBy:         d.OpenedBy,
		Reason:           d.Reason,
		Description:      d.Description,
		Evidence:         d.Evidence,
		Status:           d.Status.String(),
		ResolutionNotes:  d.ResolutionNotes,
		ResolvedBy:       d.ResolvedBy,
		RefundPercentage: d.RefundPercentage,
		CreatedAt:        d.CreatedAt,
		ResolvedAt:       d.ResolvedAt,
	}
	if d.Resolution != nil {
		resolution := d.Resolution.String()
		resp.Resolution = &resolution
	}
	return resp
}

// ToDisputeResponses converts a page of disputes
func ToDisputeResponses(disputes []*trading.Dispute) []DisputeResponse {
	out := make([]DisputeResponse, len(disputes))
	for i, d := range disputes {
		out[i] = ToDisputeResponse(d)
	}
	return out
}
