package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

// SettlementScheduler hands a pending withdrawal to the background
// settlement worker. Scheduling happens after the debit has committed.
type SettlementScheduler interface {
	ScheduleWithdrawal(ctx context.Context, entryID uuid.UUID) error
}

// WalletService owns deposits, withdrawals and balance reads
type WalletService struct {
	txManager      shared.TransactionManager
	balanceRepo    ledger.BalanceRepository
	txRepo         ledger.TransactionRepository
	scheduler      SettlementScheduler
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(
	txManager shared.TransactionManager,
	balanceRepo ledger.BalanceRepository,
	txRepo ledger.TransactionRepository,
	scheduler SettlementScheduler,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		scheduler:   scheduler,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *WalletService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetScheduler sets the settlement scheduler. The service and the worker
// reference each other, so the scheduler is attached after construction.
func (s *WalletService) SetScheduler(scheduler SettlementScheduler) {
	s.scheduler = scheduler
}

// GetBalance returns a user's balance, provisioning a zero row on first touch
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResponse, error) {
	balance, err := s.balanceRepo.FindByUserID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		balance, err = ledger.NewBalance(userID)
		if err != nil {
			return nil, err
		}
		if err := s.balanceRepo.Create(ctx, balance); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	response := ToBalanceResponse(balance)
	return &response, nil
}

// lockedBalance loads a balance under a row lock, provisioning it first if
// the user has never held funds. Must run inside a transaction.
func (s *WalletService) lockedBalance(ctx context.Context, userID uuid.UUID) (*ledger.Balance, error) {
	balance, err := s.balanceRepo.FindByUserIDForUpdate(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		balance, err = ledger.NewBalance(userID)
		if err != nil {
			return nil, err
		}
		if err := s.balanceRepo.Create(ctx, balance); err != nil {
			return nil, err
		}
		return s.balanceRepo.FindByUserIDForUpdate(ctx, userID)
	}
	return balance, err
}

// Deposit credits spendable funds from a confirmed gateway payment
func (s *WalletService) Deposit(ctx context.Context, req DepositRequest) (*TransactionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}

	var entry *ledger.TransactionEntry
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.lockedBalance(ctx, req.UserID)
		if err != nil {
			return err
		}

		entry, err = ledger.NewDepositEntry(req.UserID, req.Amount, balance.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription("Wallet deposit")
		if req.GatewayRef != "" {
			entry.WithGatewayRef(req.GatewayRef)
		}

		if err := balance.RecordDeposit(req.Amount); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, entry); err != nil {
			return err
		}
		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ledger.NewDepositReceivedEvent(entry))

	response := ToTransactionResponse(entry)
	return &response, nil
}

// Withdraw debits spendable funds immediately and hands the payout to the
// background settlement worker. At most one withdrawal may be in flight
// per user.
func (s *WalletService) Withdraw(ctx context.Context, req WithdrawRequest) (*TransactionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if req.AccountNumber == "" || req.BankName == "" {
		return nil, shared.NewDomainError("INVALID_BANK_DETAILS", "Bank name and account number are required")
	}

	var entry *ledger.TransactionEntry
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.lockedBalance(ctx, req.UserID)
		if err != nil {
			return err
		}

		// Counted under the balance row lock so two concurrent withdrawals
		// serialize; the loser sees the winner's pending entry.
		pending, err := s.txRepo.CountPendingWithdrawals(ctx, req.UserID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return shared.ErrWithdrawalPending
		}

		entry, err = ledger.NewWithdrawalEntry(req.UserID, req.Amount, balance.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Withdrawal to %s %s", req.BankName, req.AccountNumber))

		if err := balance.RecordWithdrawal(req.Amount); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, entry); err != nil {
			return err
		}
		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ledger.NewWithdrawalRequestedEvent(entry))

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleWithdrawal(ctx, entry.ID); err != nil {
			// The debit is already committed; the periodic sweep picks the
			// entry up if the immediate handoff is lost.
			s.logger.Error("failed to schedule withdrawal settlement",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err))
		}
	}

	response := ToTransactionResponse(entry)
	return &response, nil
}

// SettleWithdrawal marks a pending withdrawal completed after the external
// rail confirms the payout
func (s *WalletService) SettleWithdrawal(ctx context.Context, entryID uuid.UUID, gatewayRef string) error {
	var entry *ledger.TransactionEntry
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.txRepo.FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.MarkCompleted(); err != nil {
			return err
		}
		if gatewayRef != "" {
			entry.WithGatewayRef(gatewayRef)
		}
		return s.txRepo.Save(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ledger.NewWithdrawalSettledEvent(entry))
	return nil
}

// FailWithdrawal marks a pending withdrawal failed and applies the
// compensating credit in the same transaction
func (s *WalletService) FailWithdrawal(ctx context.Context, entryID uuid.UUID, reason string) error {
	var entry *ledger.TransactionEntry
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.txRepo.FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.MarkFailed(); err != nil {
			return err
		}

		balance, err := s.balanceRepo.FindByUserIDForUpdate(ctx, entry.UserID)
		if err != nil {
			return err
		}
		if err := balance.CompensateWithdrawal(entry.Amount); err != nil {
			return err
		}

		if err := s.txRepo.Save(ctx, entry); err != nil {
			return err
		}
		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return err
	}

	s.logger.Warn("withdrawal settlement failed, balance compensated",
		zap.String("reference", entry.Reference),
		zap.String("reason", reason))
	s.publish(ctx, ledger.NewWithdrawalFailedEvent(entry, reason))
	return nil
}

// ListTransactions returns a user's audit history, newest first
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) ([]TransactionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	entries, total, err := s.txRepo.FindByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(entries), total, nil
}

// ReconciliationReport is a snapshot of the ledger conservation check.
// Internal transfers never change the money total, so the pools must equal
// completed deposits minus completed and in-flight withdrawals.
type ReconciliationReport struct {
	Spendable          decimal.Decimal `json:"spendable"`
	Escrowed           decimal.Decimal `json:"escrowed"`
	Deposited          decimal.Decimal `json:"deposited"`
	Withdrawn          decimal.Decimal `json:"withdrawn"`
	PendingWithdrawals decimal.Decimal `json:"pending_withdrawals"`
	Expected           decimal.Decimal `json:"expected"`
	Actual             decimal.Decimal `json:"actual"`
	Balanced           bool            `json:"balanced"`
}

// ReconcileLedger verifies money conservation across every balance row. A
// mismatch means a balance was mutated without its audit entry, or the
// other way around; it is logged at error level and reported, never fixed
// in place.
func (s *WalletService) ReconcileLedger(ctx context.Context) (*ReconciliationReport, error) {
	var report ReconciliationReport
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		report.Spendable, report.Escrowed, err = s.balanceRepo.SumTotals(ctx)
		if err != nil {
			return err
		}

		report.Deposited, err = s.txRepo.SumAmountByTypeAndStatuses(ctx,
			ledger.TransactionTypeDeposit, ledger.TransactionStatusCompleted)
		if err != nil {
			return err
		}
		report.Withdrawn, err = s.txRepo.SumAmountByTypeAndStatuses(ctx,
			ledger.TransactionTypeWithdrawal, ledger.TransactionStatusCompleted)
		if err != nil {
			return err
		}
		// Pending withdrawals already debited spendable but have not settled;
		// failed ones were compensated and cancelled ones never debited.
		report.PendingWithdrawals, err = s.txRepo.SumAmountByTypeAndStatuses(ctx,
			ledger.TransactionTypeWithdrawal, ledger.TransactionStatusPending)
		return err
	})
	if err != nil {
		return nil, err
	}

	report.Actual = report.Spendable.Add(report.Escrowed)
	report.Expected = report.Deposited.Sub(report.Withdrawn).Sub(report.PendingWithdrawals)
	report.Balanced = report.Actual.Equal(report.Expected)

	if !report.Balanced {
		s.logger.Error("ledger conservation check failed",
			zap.String("expected", report.Expected.String()),
			zap.String("actual", report.Actual.String()))
	}
	return &report, nil
}

func (s *WalletService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
}
