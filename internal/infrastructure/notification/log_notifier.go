package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/application/event"
)

// LogNotifier writes user notifications to the application log. It stands in
// for a real delivery channel (email, push) in development and keeps the
// notification path exercised end to end.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the notification in the log
func (n *LogNotifier) Notify(ctx context.Context, userID uuid.UUID, subject, body string) error {
	n.logger.Info("user notification",
		zap.String("user_id", userID.String()),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Ensure LogNotifier implements Notifier
var _ event.Notifier = (*LogNotifier)(nil)
