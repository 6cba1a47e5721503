package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/application/wallet"
)

// LedgerReconciler runs the money conservation check
type LedgerReconciler interface {
	ReconcileLedger(ctx context.Context) (*wallet.ReconciliationReport, error)
}

// LedgerAuditor periodically reconciles the balance pools against the
// audit trail. It only observes and alerts; a broken invariant is a bug or
// tampering and is never repaired automatically.
type LedgerAuditor struct {
	interval   time.Duration
	reconciler LedgerReconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewLedgerAuditor creates a new ledger auditor
func NewLedgerAuditor(interval time.Duration, reconciler LedgerReconciler, logger *zap.Logger) *LedgerAuditor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &LedgerAuditor{
		interval:   interval,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start starts the audit loop
func (a *LedgerAuditor) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.isRunning {
		a.mu.Unlock()
		return nil
	}
	a.isRunning = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.run(ctx)

	a.logger.Info("Ledger auditor started", zap.Duration("interval", a.interval))
	return nil
}

// Stop gracefully stops the audit loop
func (a *LedgerAuditor) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.isRunning {
		a.mu.Unlock()
		return nil
	}
	a.isRunning = false
	a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("Ledger auditor stopped gracefully")
		return nil
	case <-ctx.Done():
		a.logger.Warn("Ledger auditor stop timed out")
		return ctx.Err()
	}
}

func (a *LedgerAuditor) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.audit(ctx)
		}
	}
}

func (a *LedgerAuditor) audit(ctx context.Context) {
	report, err := a.reconciler.ReconcileLedger(ctx)
	if err != nil {
		a.logger.Error("ledger reconciliation failed", zap.Error(err))
		return
	}
	if report.Balanced {
		a.logger.Debug("ledger reconciled",
			zap.String("total", report.Actual.String()))
	}
}
