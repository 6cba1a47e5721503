package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/catalog"
)

// CreateItemRequest lists a new item for sale
type CreateItemRequest struct {
	SellerID    uuid.UUID
	Title       string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
	Stock       int64
}

// ItemResponse is the read model for a listing
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int64           `json:"stock"`
	Status      string          `json:"status"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToItemResponse converts an item aggregate to its response shape
func ToItemResponse(i *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		SellerID:    i.SellerID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		UnitPrice:   i.UnitPrice,
		Stock:       i.Stock,
		Status:      i.Status.String(),
		ExpiresAt:   i.ExpiresAt,
		CreatedAt:   i.CreatedAt,
	}
}

// ToItemResponses converts a page of items
func ToItemResponses(items []*catalog.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = ToItemResponse(item)
	}
	return out
}
