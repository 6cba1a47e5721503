package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, entry *ledger.TransactionEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockTransactionRepository) Save(ctx context.Context, entry *ledger.TransactionEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionEntry), args.Error(1)
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, reference string) (*ledger.TransactionEntry, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionEntry), args.Error(1)
}

func (m *MockTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.TransactionEntry, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.TransactionEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) CountPendingWithdrawals(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) SumAmountByTypeAndStatuses(ctx context.Context, entryType ledger.TransactionType, statuses ...ledger.TransactionStatus) (decimal.Decimal, error) {
	callArgs := []interface{}{ctx, entryType}
	for _, status := range statuses {
		callArgs = append(callArgs, status)
	}
	args := m.Called(callArgs...)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) FindPendingWithdrawals(ctx context.Context, limit int) ([]*ledger.TransactionEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.TransactionEntry), args.Error(1)
}

type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) SettleWithdrawal(ctx context.Context, entryID uuid.UUID, gatewayRef string) error {
	return m.Called(ctx, entryID, gatewayRef).Error(0)
}

func (m *MockSettler) FailWithdrawal(ctx context.Context, entryID uuid.UUID, reason string) error {
	return m.Called(ctx, entryID, reason).Error(0)
}

type MockPayoutProvider struct {
	mock.Mock
}

func (m *MockPayoutProvider) Payout(ctx context.Context, entry *ledger.TransactionEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func pendingWithdrawal(t *testing.T) *ledger.TransactionEntry {
	t.Helper()
	entry, err := ledger.NewWithdrawalEntry(uuid.New(), decimal.NewFromInt(400), decimal.NewFromInt(1000))
	require.NoError(t, err)
	return entry
}

func newTestWorker(txRepo *MockTransactionRepository, settler *MockSettler, payout *MockPayoutProvider) *SettlementWorker {
	return NewSettlementWorker(DefaultSettlementWorkerConfig(), txRepo, settler, payout, zap.NewNop())
}

func TestSettlementWorker_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("settles after successful payout", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		entry := pendingWithdrawal(t)

		txRepo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		payout.On("Payout", ctx, entry).Return("PAYOUT-001", nil)
		settler.On("SettleWithdrawal", ctx, entry.ID, "PAYOUT-001").Return(nil)

		worker.settle(ctx, entry.ID)

		settler.AssertExpectations(t)
		settler.AssertNotCalled(t, "FailWithdrawal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails withdrawal on rejected payout", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		entry := pendingWithdrawal(t)

		txRepo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		payout.On("Payout", ctx, entry).
			Return("", fmt.Errorf("%w: account closed", wallet.ErrPayoutRejected))
		settler.On("FailWithdrawal", ctx, entry.ID, mock.MatchedBy(func(reason string) bool {
			return strings.Contains(reason, "account closed")
		})).Return(nil)

		worker.settle(ctx, entry.ID)

		settler.AssertExpectations(t)
		settler.AssertNotCalled(t, "SettleWithdrawal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("leaves entry pending on transient payout error", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		entry := pendingWithdrawal(t)

		txRepo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		payout.On("Payout", ctx, entry).Return("", assert.AnError)

		worker.settle(ctx, entry.ID)

		settler.AssertNotCalled(t, "SettleWithdrawal", mock.Anything, mock.Anything, mock.Anything)
		settler.AssertNotCalled(t, "FailWithdrawal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skips already finalized entries", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		entry := pendingWithdrawal(t)
		require.NoError(t, entry.MarkCompleted())

		txRepo.On("FindByID", ctx, entry.ID).Return(entry, nil)

		worker.settle(ctx, entry.ID)

		payout.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything)
	})

	t.Run("tolerates a missing entry", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		entryID := uuid.New()
		txRepo.On("FindByID", ctx, entryID).Return(nil, shared.ErrNotFound)

		worker.settle(ctx, entryID)

		payout.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything)
	})
}

func TestSettlementWorker_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("settles every pending withdrawal in the batch", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		first := pendingWithdrawal(t)
		second := pendingWithdrawal(t)

		txRepo.On("FindPendingWithdrawals", ctx, 100).
			Return([]*ledger.TransactionEntry{first, second}, nil)
		txRepo.On("FindByID", ctx, first.ID).Return(first, nil)
		txRepo.On("FindByID", ctx, second.ID).Return(second, nil)
		payout.On("Payout", ctx, first).Return("PAYOUT-001", nil)
		payout.On("Payout", ctx, second).Return("PAYOUT-002", nil)
		settler.On("SettleWithdrawal", ctx, first.ID, "PAYOUT-001").Return(nil)
		settler.On("SettleWithdrawal", ctx, second.ID, "PAYOUT-002").Return(nil)

		worker.sweep(ctx)

		settler.AssertExpectations(t)
	})

	t.Run("sweep survives a listing failure", func(t *testing.T) {
		txRepo := new(MockTransactionRepository)
		settler := new(MockSettler)
		payout := new(MockPayoutProvider)
		worker := newTestWorker(txRepo, settler, payout)

		txRepo.On("FindPendingWithdrawals", ctx, 100).Return(nil, assert.AnError)

		worker.sweep(ctx)

		payout.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything)
	})
}

func TestSettlementWorker_Lifecycle(t *testing.T) {
	t.Run("rejects scheduling before start", func(t *testing.T) {
		worker := newTestWorker(new(MockTransactionRepository), new(MockSettler), new(MockPayoutProvider))

		err := worker.ScheduleWithdrawal(context.Background(), uuid.New())

		assert.ErrorIs(t, err, ErrWorkerNotRunning)
	})

	t.Run("starts and stops cleanly", func(t *testing.T) {
		worker := newTestWorker(new(MockTransactionRepository), new(MockSettler), new(MockPayoutProvider))

		require.NoError(t, worker.Start(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, worker.Stop(stopCtx))
	})
}
