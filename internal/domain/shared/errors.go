package shared

// DomainError represents a domain-level error with a stable machine code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists          = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput           = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrForbidden              = NewDomainError("FORBIDDEN", "Not allowed to perform this action")
	ErrConcurrentModification = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
)

// Business-rule errors: expected outcomes, reported with a specific kind,
// never retried automatically. The surrounding transaction fully rolls back.
var (
	ErrInsufficientFunds    = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient spendable balance")
	ErrItemUnavailable      = NewDomainError("ITEM_UNAVAILABLE", "Item is not available for purchase")
	ErrQuantityExceedsStock = NewDomainError("QUANTITY_EXCEEDS_STOCK", "Requested quantity exceeds available stock")
	ErrTradeLimitExceeded   = NewDomainError("TRADE_LIMIT_EXCEEDED", "Trade limit for unverified accounts exceeded")
	ErrTradeNotActive       = NewDomainError("TRADE_NOT_ACTIVE", "Trade is not active")
	ErrDisputeAlreadyOpen   = NewDomainError("DISPUTE_ALREADY_OPEN", "Trade already has an open dispute")
	ErrAlreadyResolved      = NewDomainError("ALREADY_RESOLVED", "Dispute is already resolved")
	ErrWithdrawalPending    = NewDomainError("WITHDRAWAL_PENDING", "A withdrawal is already being processed")
	ErrListingLimitExceeded = NewDomainError("LISTING_LIMIT_EXCEEDED", "Listing limit for unverified accounts exceeded")
)

// Consistency errors indicate corrupted invariants. They are fatal for the
// current transaction and must never be silently corrected.
var (
	ErrEscrowMismatch     = NewDomainError("ESCROW_MISMATCH", "Escrowed funds do not match the trade amount")
	ErrLedgerInconsistent = NewDomainError("LEDGER_INCONSISTENT", "Ledger state contradicts its audit trail")
)

// IsConsistencyError reports whether err is a fatal consistency violation
func IsConsistencyError(err error) bool {
	de, ok := err.(*DomainError)
	if !ok {
		return false
	}
	switch de.Code {
	case ErrEscrowMismatch.Code, ErrLedgerInconsistent.Code:
		return true
	}
	return false
}
