package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemFilter contains filter options for listing items
type ItemFilter struct {
	SellerID *uuid.UUID
	Status   *ItemStatus
	Category *string
	Page     int
	PageSize int
}

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// Create persists a new listing
	Create(ctx context.Context, item *Item) error

	// Save persists listing changes
	Save(ctx context.Context, item *Item) error

	// SaveWithLock persists listing changes with an optimistic version check
	SaveWithLock(ctx context.Context, item *Item) error

	// FindByID finds a listing by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// List lists items with filtering
	List(ctx context.Context, filter ItemFilter) ([]*Item, int64, error)

	// CountActiveBySeller counts a seller's live listings.
	// Eligibility reads this inside the transaction guarding listing creation.
	CountActiveBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)

	// CountCreatedBySellerSince counts listings a seller created at or
	// after the given instant
	CountCreatedBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) (int64, error)

	// FindExpiredActive returns live listings past their expiry, for the sweep
	FindExpiredActive(ctx context.Context, limit int) ([]*Item, error)
}
