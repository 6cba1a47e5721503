package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/application/wallet"
)

type MockLedgerReconciler struct {
	mock.Mock
}

func (m *MockLedgerReconciler) ReconcileLedger(ctx context.Context) (*wallet.ReconciliationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.ReconciliationReport), args.Error(1)
}

func TestLedgerAuditor_Audit(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the conservation check", func(t *testing.T) {
		reconciler := new(MockLedgerReconciler)
		auditor := NewLedgerAuditor(time.Hour, reconciler, zap.NewNop())

		total := decimal.NewFromInt(1500)
		reconciler.On("ReconcileLedger", ctx).Return(&wallet.ReconciliationReport{
			Expected: total,
			Actual:   total,
			Balanced: true,
		}, nil)

		auditor.audit(ctx)

		reconciler.AssertExpectations(t)
	})

	t.Run("survives a reconciliation failure", func(t *testing.T) {
		reconciler := new(MockLedgerReconciler)
		auditor := NewLedgerAuditor(time.Hour, reconciler, zap.NewNop())

		reconciler.On("ReconcileLedger", ctx).Return(nil, assert.AnError)

		auditor.audit(ctx)

		reconciler.AssertExpectations(t)
	})
}

func TestLedgerAuditor_Lifecycle(t *testing.T) {
	t.Run("starts and stops cleanly", func(t *testing.T) {
		reconciler := new(MockLedgerReconciler)
		auditor := NewLedgerAuditor(time.Hour, reconciler, zap.NewNop())

		require.NoError(t, auditor.Start(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, auditor.Stop(stopCtx))
	})

	t.Run("start is idempotent", func(t *testing.T) {
		reconciler := new(MockLedgerReconciler)
		auditor := NewLedgerAuditor(time.Hour, reconciler, zap.NewNop())

		require.NoError(t, auditor.Start(context.Background()))
		require.NoError(t, auditor.Start(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, auditor.Stop(stopCtx))
	})

	t.Run("defaults a non-positive interval", func(t *testing.T) {
		reconciler := new(MockLedgerReconciler)
		auditor := NewLedgerAuditor(0, reconciler, zap.NewNop())

		assert.Equal(t, time.Hour, auditor.interval)
	})
}
