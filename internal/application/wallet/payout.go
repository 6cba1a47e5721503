package wallet

import (
	"context"
	"errors"

	"github.com/marketplace/backend/internal/domain/ledger"
)

// ErrPayoutRejected marks a permanent payout failure. The settlement worker
// fails the withdrawal and applies the compensating credit; any other payout
// error leaves the entry pending for the next sweep.
var ErrPayoutRejected = errors.New("payout rejected")

// PayoutProvider moves withdrawn funds onto the external payment rail.
// Payout must be idempotent on the entry reference: a retried call for an
// already-executed payout reports success without moving funds twice.
type PayoutProvider interface {
	Payout(ctx context.Context, entry *ledger.TransactionEntry) (gatewayRef string, err error)
}
