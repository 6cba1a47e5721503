package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// ItemStatus represents the listing state of an item
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusSold     ItemStatus = "sold"
	ItemStatusInactive ItemStatus = "inactive"
	ItemStatusExpired  ItemStatus = "expired"
)

func (s ItemStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known ItemStatus
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusSold, ItemStatusInactive, ItemStatusExpired:
		return true
	}
	return false
}

// DefaultListingTTL is how long a listing stays live before expiring
const DefaultListingTTL = 30 * 24 * time.Hour

// Item is a marketplace listing. Stock decrements happen inside the trade
// completion transaction; the listing flips to sold when stock reaches zero.
type Item struct {
	shared.BaseAggregateRoot
	SellerID    uuid.UUID
	Title       string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
	Stock       int64
	Status      ItemStatus
	ExpiresAt   time.Time
}

// NewItem creates an active listing
func NewItem(sellerID uuid.UUID, title, description, category string, unitPrice valueobject.Money, stock int64) (*Item, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}
	if stock < 1 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock must be at least 1")
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Title:             title,
		Description:       description,
		Category:          category,
		UnitPrice:         unitPrice.Amount(),
		Stock:             stock,
		Status:            ItemStatusActive,
		ExpiresAt:         time.Now().Add(DefaultListingTTL),
	}, nil
}

// UnitPriceMoney returns the listing price as a Money value object
func (i *Item) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(i.UnitPrice)
}

// IsExpired reports whether the listing has passed its expiry
func (i *Item) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsOrderable reports whether a trade may be created against this listing
func (i *Item) IsOrderable() bool {
	return i.Status == ItemStatusActive && !i.IsExpired() && i.Stock > 0
}

// DecrementStock reduces stock after a completed trade. At zero the
// listing flips to sold.
func (i *Item) DecrementStock(quantity int64) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if quantity > i.Stock {
		return shared.ErrQuantityExceedsStock
	}
	i.Stock -= quantity
	if i.Stock == 0 {
		i.Status = ItemStatusSold
	}
	i.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the listing. Only the seller may do this.
func (i *Item) Deactivate(actorID uuid.UUID) error {
	if actorID != i.SellerID {
		return shared.ErrForbidden
	}
	if i.Status != ItemStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active listings can be deactivated")
	}
	i.Status = ItemStatusInactive
	i.UpdatedAt = time.Now()
	return nil
}

// Reactivate brings an inactive or expired listing back and renews its expiry
func (i *Item) Reactivate(actorID uuid.UUID) error {
	if actorID != i.SellerID {
		return shared.ErrForbidden
	}
	if i.Status != ItemStatusInactive && i.Status != ItemStatusExpired {
		return shared.NewDomainError("INVALID_STATE", "Only inactive or expired listings can be reactivated")
	}
	if i.Stock < 1 {
		return shared.NewDomainError("INVALID_STOCK", "Cannot reactivate a listing without stock")
	}
	i.Status = ItemStatusActive
	i.ExpiresAt = time.Now().Add(DefaultListingTTL)
	i.UpdatedAt = time.Now()
	return nil
}

// MarkExpired flips a live listing past its expiry. Used by the sweep.
func (i *Item) MarkExpired() error {
	if i.Status != ItemStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active listings expire")
	}
	i.Status = ItemStatusExpired
	i.UpdatedAt = time.Now()
	return nil
}
