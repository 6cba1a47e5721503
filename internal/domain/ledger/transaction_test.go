package ledger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/domain/shared"
)

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference()
	assert.True(t, strings.HasPrefix(ref, "TXN-"))
	assert.Len(t, ref, 16)
	assert.Equal(t, strings.ToUpper(ref), ref)
	assert.NotEqual(t, ref, GenerateReference())
}

func TestTransactionStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{"pending to completed", TransactionStatusPending, TransactionStatusCompleted, true},
		{"pending to failed", TransactionStatusPending, TransactionStatusFailed, true},
		{"pending to cancelled", TransactionStatusPending, TransactionStatusCancelled, true},
		{"pending to pending", TransactionStatusPending, TransactionStatusPending, false},
		{"completed to failed", TransactionStatusCompleted, TransactionStatusFailed, false},
		{"completed to pending", TransactionStatusCompleted, TransactionStatusPending, false},
		{"failed to completed", TransactionStatusFailed, TransactionStatusCompleted, false},
		{"cancelled to completed", TransactionStatusCancelled, TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewTransactionEntry(t *testing.T) {
	userID := uuid.New()

	t.Run("creates valid entry", func(t *testing.T) {
		entry, err := NewTransactionEntry(userID, TransactionTypeDeposit,
			decimal.NewFromInt(100), decimal.Zero, decimal.NewFromInt(100), TransactionStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, userID, entry.UserID)
		assert.NotEmpty(t, entry.Reference)
		assert.NotNil(t, entry.CompletedAt)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewTransactionEntry(userID, TransactionType("transfer"),
			decimal.NewFromInt(100), decimal.Zero, decimal.NewFromInt(100), TransactionStatusCompleted)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewTransactionEntry(userID, TransactionTypeDeposit,
			decimal.Zero, decimal.Zero, decimal.Zero, TransactionStatusCompleted)
		assert.Error(t, err)
	})

	t.Run("rejects negative balance snapshots", func(t *testing.T) {
		_, err := NewTransactionEntry(userID, TransactionTypeDeposit,
			decimal.NewFromInt(100), decimal.NewFromInt(-1), decimal.NewFromInt(99), TransactionStatusCompleted)
		assert.Error(t, err)
	})
}

func TestTransactionEntryStatusAdvance(t *testing.T) {
	userID := uuid.New()

	newPendingWithdrawal := func(t *testing.T) *TransactionEntry {
		t.Helper()
		entry, err := NewWithdrawalEntry(userID, decimal.NewFromInt(50), decimal.NewFromInt(200))
		require.NoError(t, err)
		return entry
	}

	t.Run("pending withdrawal completes", func(t *testing.T) {
		entry := newPendingWithdrawal(t)
		require.NoError(t, entry.MarkCompleted())
		assert.Equal(t, TransactionStatusCompleted, entry.Status)
		assert.NotNil(t, entry.CompletedAt)
	})

	t.Run("pending withdrawal fails", func(t *testing.T) {
		entry := newPendingWithdrawal(t)
		require.NoError(t, entry.MarkFailed())
		assert.Equal(t, TransactionStatusFailed, entry.Status)
	})

	t.Run("terminal entry never moves again", func(t *testing.T) {
		entry := newPendingWithdrawal(t)
		require.NoError(t, entry.MarkCompleted())
		assert.Error(t, entry.MarkFailed())
		assert.Error(t, entry.MarkCancelled())
		assert.Equal(t, TransactionStatusCompleted, entry.Status)
	})
}

func TestTransactionEntryFactories(t *testing.T) {
	userID := uuid.New()
	tradeID := uuid.New()

	t.Run("deposit entry is completed", func(t *testing.T) {
		entry, err := NewDepositEntry(userID, decimal.NewFromInt(500), decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeDeposit, entry.Type)
		assert.Equal(t, TransactionStatusCompleted, entry.Status)
		assert.Equal(t, 600.0, entry.BalanceAfter.InexactFloat64())
	})

	t.Run("withdrawal entry starts pending", func(t *testing.T) {
		entry, err := NewWithdrawalEntry(userID, decimal.NewFromInt(50), decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Equal(t, TransactionStatusPending, entry.Status)
		assert.Equal(t, 50.0, entry.BalanceAfter.InexactFloat64())
		assert.Nil(t, entry.CompletedAt)
	})

	t.Run("withdrawal entry rejects shortfall", func(t *testing.T) {
		_, err := NewWithdrawalEntry(userID, decimal.NewFromInt(150), decimal.NewFromInt(100))
		assert.Equal(t, shared.ErrInsufficientFunds, err)
	})

	t.Run("trade payment links the trade", func(t *testing.T) {
		entry, err := NewTradePaymentEntry(userID, tradeID, decimal.NewFromInt(400), decimal.NewFromInt(1000))
		require.NoError(t, err)
		require.NotNil(t, entry.TradeID)
		assert.Equal(t, tradeID, *entry.TradeID)
		assert.Equal(t, 600.0, entry.BalanceAfter.InexactFloat64())
	})

	t.Run("trade payment rejects shortfall", func(t *testing.T) {
		_, err := NewTradePaymentEntry(userID, tradeID, decimal.NewFromInt(150), decimal.NewFromInt(100))
		assert.Equal(t, shared.ErrInsufficientFunds, err)
	})

	t.Run("trade release credits the seller", func(t *testing.T) {
		entry, err := NewTradeReleaseEntry(userID, tradeID, decimal.NewFromInt(400), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeTradeRelease, entry.Type)
		assert.Equal(t, 400.0, entry.BalanceAfter.InexactFloat64())
	})

	t.Run("refund credits the buyer", func(t *testing.T) {
		entry, err := NewRefundEntry(userID, tradeID, decimal.NewFromInt(400), decimal.NewFromInt(600))
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeRefund, entry.Type)
		assert.Equal(t, 1000.0, entry.BalanceAfter.InexactFloat64())
	})
}
