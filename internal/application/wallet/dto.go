package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/ledger"
)

// DepositRequest records a confirmed inbound payment
type DepositRequest struct {
	UserID     uuid.UUID
	Amount     decimal.Decimal
	GatewayRef string
}

// WithdrawRequest asks for a payout to an external account
type WithdrawRequest struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	BankName      string
	AccountNumber string
	AccountName   string
}

// BalanceResponse is the read model for a user's funds
type BalanceResponse struct {
	UserID            uuid.UUID       `json:"user_id"`
	Spendable         decimal.Decimal `json:"spendable"`
	Escrowed          decimal.Decimal `json:"escrowed"`
	LifetimeDeposited decimal.Decimal `json:"lifetime_deposited"`
	LifetimeWithdrawn decimal.Decimal `json:"lifetime_withdrawn"`
}

// ToBalanceResponse converts a balance aggregate to its response shape
func ToBalanceResponse(b *ledger.Balance) BalanceResponse {
	return BalanceResponse{
		UserID:            b.UserID,
		Spendable:         b.Spendable,
		Escrowed:          b.Escrowed,
		LifetimeDeposited: b.LifetimeDeposited,
		LifetimeWithdrawn: b.LifetimeWithdrawn,
	}
}

// TransactionResponse is the read model for one audit entry
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	UserID        uuid.UUID       `json:"user_id"`
	TradeID       *uuid.UUID      `json:"trade_id,omitempty"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// ToTransactionResponse converts an audit entry to its response shape
func ToTransactionResponse(e *ledger.TransactionEntry) TransactionResponse {
	return TransactionResponse{
		ID:            e.ID,
		Reference:     e.Reference,
		UserID:        e.UserID,
		TradeID:       e.TradeID,
		Type:          e.Type.String(),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Status:        e.Status.String(),
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
		CompletedAt:   e.CompletedAt,
	}
}

// ToTransactionResponses converts a page of audit entries
func ToTransactionResponses(entries []*ledger.TransactionEntry) []TransactionResponse {
	out := make([]TransactionResponse, len(entries))
	for i, e := range entries {
		out[i] = ToTransactionResponse(e)
	}
	return out
}
