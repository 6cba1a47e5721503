package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

// WithdrawalSettler finalizes a withdrawal after the payout attempt. Both
// calls run their own transaction; FailWithdrawal applies the compensating
// credit atomically with the status change.
type WithdrawalSettler interface {
	SettleWithdrawal(ctx context.Context, entryID uuid.UUID, gatewayRef string) error
	FailWithdrawal(ctx context.Context, entryID uuid.UUID, reason string) error
}

// SettlementWorkerConfig holds settlement worker configuration
type SettlementWorkerConfig struct {
	QueueSize     int
	SweepInterval time.Duration
	SweepBatch    int
}

// DefaultSettlementWorkerConfig returns default settlement worker configuration
func DefaultSettlementWorkerConfig() SettlementWorkerConfig {
	return SettlementWorkerConfig{
		QueueSize:     256,
		SweepInterval: time.Minute,
		SweepBatch:    100,
	}
}

// SettlementWorker settles pending withdrawals asynchronously. Entries arrive
// over the queue right after the debit commits; a periodic sweep re-reads
// pending entries from the ledger so a lost handoff or crash never strands a
// withdrawal.
type SettlementWorker struct {
	config  SettlementWorkerConfig
	txRepo  ledger.TransactionRepository
	settler WithdrawalSettler
	payout  wallet.PayoutProvider
	logger  *zap.Logger

	queue     chan uuid.UUID
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(
	config SettlementWorkerConfig,
	txRepo ledger.TransactionRepository,
	settler WithdrawalSettler,
	payout wallet.PayoutProvider,
	logger *zap.Logger,
) *SettlementWorker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultSettlementWorkerConfig().QueueSize
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSettlementWorkerConfig().SweepInterval
	}
	if config.SweepBatch <= 0 {
		config.SweepBatch = DefaultSettlementWorkerConfig().SweepBatch
	}
	return &SettlementWorker{
		config:  config,
		txRepo:  txRepo,
		settler: settler,
		payout:  payout,
		logger:  logger,
		queue:   make(chan uuid.UUID, config.QueueSize),
	}
}

// Start starts the worker and the periodic sweep
func (w *SettlementWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(2)
	go w.run(ctx)
	go w.sweepLoop(ctx)

	w.logger.Info("Settlement worker started",
		zap.Int("queue_size", w.config.QueueSize),
		zap.Duration("sweep_interval", w.config.SweepInterval),
	)

	return nil
}

// Stop gracefully stops the worker
func (w *SettlementWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	close(w.queue)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Settlement worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Settlement worker stop timed out")
		return ctx.Err()
	}
}

// ScheduleWithdrawal hands a committed withdrawal to the worker. A full
// queue is not an error for the caller's funds: the sweep retries the entry.
func (w *SettlementWorker) ScheduleWithdrawal(ctx context.Context, entryID uuid.UUID) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return ErrWorkerNotRunning
	}
	w.mu.Unlock()

	select {
	case w.queue <- entryID:
		return nil
	default:
		return ErrQueueFull
	}
}

// run drains the settlement queue
func (w *SettlementWorker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case entryID, ok := <-w.queue:
			if !ok {
				return
			}
			w.settle(ctx, entryID)
		}
	}
}

// sweepLoop periodically re-reads pending withdrawals from the ledger
func (w *SettlementWorker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep settles every pending withdrawal it can find, oldest first
func (w *SettlementWorker) sweep(ctx context.Context) {
	entries, err := w.txRepo.FindPendingWithdrawals(ctx, w.config.SweepBatch)
	if err != nil {
		w.logger.Error("settlement sweep failed to list pending withdrawals", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	w.logger.Info("settlement sweep picked up pending withdrawals",
		zap.Int("count", len(entries)))
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		w.settle(ctx, entry.ID)
	}
}

// settle runs a single payout attempt and finalizes the entry
func (w *SettlementWorker) settle(ctx context.Context, entryID uuid.UUID) {
	entry, err := w.txRepo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			w.logger.Warn("scheduled withdrawal entry no longer exists",
				zap.String("entry_id", entryID.String()))
			return
		}
		w.logger.Error("failed to load withdrawal entry",
			zap.String("entry_id", entryID.String()), zap.Error(err))
		return
	}
	if entry.Status != ledger.TransactionStatusPending {
		// Already finalized, typically by an earlier sweep pass.
		return
	}

	gatewayRef, err := w.payout.Payout(ctx, entry)
	if err != nil {
		if errors.Is(err, wallet.ErrPayoutRejected) {
			w.logger.Warn("payout rejected, failing withdrawal",
				zap.String("reference", entry.Reference), zap.Error(err))
			if failErr := w.settler.FailWithdrawal(ctx, entryID, err.Error()); failErr != nil {
				w.logger.Error("failed to fail withdrawal",
					zap.String("reference", entry.Reference), zap.Error(failErr))
			}
			return
		}
		// Transient failure: the entry stays pending and the sweep retries.
		w.logger.Warn("payout attempt failed, will retry on next sweep",
			zap.String("reference", entry.Reference), zap.Error(err))
		return
	}

	if err := w.settler.SettleWithdrawal(ctx, entryID, gatewayRef); err != nil {
		w.logger.Error("failed to settle withdrawal after successful payout",
			zap.String("reference", entry.Reference), zap.Error(err))
	}
}

// Ensure SettlementWorker implements SettlementScheduler
var _ wallet.SettlementScheduler = (*SettlementWorker)(nil)
