package event

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
)

// Counter names maintained by the stats projector
const (
	CounterTradesCreated    = "trades_created"
	CounterTradesCompleted  = "trades_completed"
	CounterDisputesOpened   = "disputes_opened"
	CounterDisputesResolved = "disputes_resolved"
	CounterTradeVolume      = "trade_volume"
	CounterDepositsTotal    = "deposits_total"
	CounterWithdrawalsTotal = "withdrawals_total"
)

// StatsStore accumulates named counters. The store is a read model; it
// can be rebuilt from the ledger tables at any time.
type StatsStore interface {
	Increment(ctx context.Context, counter string) error
	AddAmount(ctx context.Context, counter string, amount decimal.Decimal) error
}

// StatsProjector folds lifecycle events into activity counters
type StatsProjector struct {
	store  StatsStore
	logger *zap.Logger
}

// NewStatsProjector creates a new stats projector
func NewStatsProjector(store StatsStore, logger *zap.Logger) *StatsProjector {
	return &StatsProjector{
		store:  store,
		logger: logger,
	}
}

// EventTypes returns the event types this projector subscribes to
func (p *StatsProjector) EventTypes() []string {
	return []string{
		trading.EventTypeTradeCreated,
		trading.EventTypeTradeCompleted,
		trading.EventTypeDisputeOpened,
		trading.EventTypeDisputeResolved,
		ledger.EventTypeDepositReceived,
		ledger.EventTypeWithdrawalSettled,
	}
}

// Handle applies the event's counter updates
func (p *StatsProjector) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trading.TradeCreatedEvent:
		p.bump(ctx, CounterTradesCreated)
		p.add(ctx, CounterTradeVolume, e.TotalAmount)
	case *trading.TradeCompletedEvent:
		p.bump(ctx, CounterTradesCompleted)
	case *trading.DisputeOpenedEvent:
		p.bump(ctx, CounterDisputesOpened)
	case *trading.DisputeResolvedEvent:
		p.bump(ctx, CounterDisputesResolved)
	case *ledger.DepositReceivedEvent:
		p.add(ctx, CounterDepositsTotal, e.Amount)
	case *ledger.WithdrawalSettledEvent:
		p.add(ctx, CounterWithdrawalsTotal, e.Amount)
	}
	return nil
}

func (p *StatsProjector) bump(ctx context.Context, counter string) {
	if err := p.store.Increment(ctx, counter); err != nil {
		p.logger.Warn("failed to increment stats counter",
			zap.String("counter", counter),
			zap.Error(err),
		)
	}
}

func (p *StatsProjector) add(ctx context.Context, counter string, amount decimal.Decimal) {
	if err := p.store.AddAmount(ctx, counter, amount); err != nil {
		p.logger.Warn("failed to add to stats counter",
			zap.String("counter", counter),
			zap.Error(err),
		)
	}
}

var _ shared.EventHandler = (*StatsProjector)(nil)
