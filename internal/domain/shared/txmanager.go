package shared

import "context"

// TransactionManager runs a function inside one atomic unit of work.
// Repository calls made with the ctx passed to fn join that unit; the
// unit commits when fn returns nil and fully rolls back otherwise.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
