package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself, as opposed to domain
// error codes which bubble up from the application services.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the actor lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// errorCodeHTTPStatus maps stable error codes to HTTP status codes.
// Domain codes keep their original spelling on the wire; only the status
// is decided here.
var errorCodeHTTPStatus = map[string]int{
	// Transport errors
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Resource errors
	ErrCodeNotFound:  http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,
	"EMAIL_EXISTS":   http.StatusConflict,

	// Concurrency conflicts are retryable by the caller
	"CONCURRENT_MODIFICATION": http.StatusConflict,

	// Business-rule errors
	"INSUFFICIENT_FUNDS":     http.StatusPaymentRequired,
	"ITEM_UNAVAILABLE":       http.StatusConflict,
	"QUANTITY_EXCEEDS_STOCK": http.StatusConflict,
	"TRADE_NOT_ACTIVE":       http.StatusConflict,
	"TRADE_NOT_COMPLETED":    http.StatusConflict,
	"DISPUTE_ALREADY_OPEN":   http.StatusConflict,
	"ALREADY_RESOLVED":       http.StatusConflict,
	"ALREADY_RATED":          http.StatusConflict,
	"WITHDRAWAL_PENDING":     http.StatusConflict,
	"TRADE_LIMIT_EXCEEDED":   http.StatusUnprocessableEntity,
	"LISTING_LIMIT_EXCEEDED": http.StatusUnprocessableEntity,

	// Consistency errors are never exposed with a 4xx: the caller did
	// nothing wrong, the ledger did
	"ESCROW_MISMATCH":     http.StatusInternalServerError,
	"LEDGER_INCONSISTENT": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Validation-style codes fall back by prefix; anything unrecognized is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	if strings.HasPrefix(code, "ALREADY_") {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
