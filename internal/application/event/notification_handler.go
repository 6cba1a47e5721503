package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
)

// Notifier delivers a message to a single user. Implementations decide
// the channel (email, push, in-app feed).
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, subject, body string) error
}

// NotificationHandler turns lifecycle events into user notifications.
// Delivery failures are logged and swallowed; notifications are best
// effort and never fail the originating operation.
type NotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		trading.EventTypeTradeCreated,
		trading.EventTypeTradeCompleted,
		trading.EventTypeDisputeOpened,
		trading.EventTypeDisputeResolved,
		ledger.EventTypeDepositReceived,
		ledger.EventTypeWithdrawalSettled,
		ledger.EventTypeWithdrawalFailed,
	}
}

// Handle dispatches the event to the matching notification
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trading.TradeCreatedEvent:
		h.send(ctx, e.BuyerID, "Trade started",
			fmt.Sprintf("Your payment of %s is held in escrow for trade %s.", e.TotalAmount.StringFixed(2), e.TradeCode))
		h.send(ctx, e.SellerID, "New trade",
			fmt.Sprintf("A buyer opened trade %s worth %s. The funds are secured in escrow.", e.TradeCode, e.TotalAmount.StringFixed(2)))
	case *trading.TradeCompletedEvent:
		h.send(ctx, e.SellerID, "Trade completed",
			fmt.Sprintf("Trade %s is complete. %s has been released to your balance.", e.TradeCode, e.TotalAmount.StringFixed(2)))
		h.send(ctx, e.BuyerID, "Trade completed",
			fmt.Sprintf("Trade %s is complete. Thanks for your purchase.", e.TradeCode))
	case *trading.DisputeOpenedEvent:
		h.send(ctx, e.OpenedBy, "Dispute opened",
			fmt.Sprintf("Your dispute (%s) has been received. The trade is frozen until a moderator resolves it.", e.Reason))
	case *trading.DisputeResolvedEvent:
		h.send(ctx, e.ResolvedBy, "Dispute resolved",
			fmt.Sprintf("Dispute %s was resolved as %s.", e.DisputeID, e.Resolution))
	case *ledger.DepositReceivedEvent:
		h.send(ctx, e.UserID, "Deposit received",
			fmt.Sprintf("%s has been credited to your balance (ref %s).", e.Amount.StringFixed(2), e.Reference))
	case *ledger.WithdrawalSettledEvent:
		h.send(ctx, e.UserID, "Withdrawal sent",
			fmt.Sprintf("Your withdrawal of %s has been paid out (ref %s).", e.Amount.StringFixed(2), e.Reference))
	case *ledger.WithdrawalFailedEvent:
		h.send(ctx, e.UserID, "Withdrawal failed",
			fmt.Sprintf("Your withdrawal of %s could not be completed: %s. The funds are back in your balance.", e.Amount.StringFixed(2), e.Reason))
	default:
		h.logger.Debug("no notification mapped for event",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

func (h *NotificationHandler) send(ctx context.Context, userID uuid.UUID, subject, body string) {
	if err := h.notifier.Notify(ctx, userID, subject, body); err != nil {
		h.logger.Warn("failed to deliver notification",
			zap.String("user_id", userID.String()),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
