package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/catalog"
)

// ItemModel is the persistence model for the Item aggregate.
type ItemModel struct {
	AggregateModel
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(100);index"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Stock       int64           `gorm:"not null"`
	Status      string          `gorm:"type:varchar(20);not null;index"`
	ExpiresAt   time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item aggregate.
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SellerID:          m.SellerID,
		Title:             m.Title,
		Description:       m.Description,
		Category:          m.Category,
		UnitPrice:         m.UnitPrice,
		Stock:             m.Stock,
		Status:            catalog.ItemStatus(m.Status),
		ExpiresAt:         m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain Item aggregate.
func (m *ItemModel) FromDomain(i *catalog.Item) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.SellerID = i.SellerID
	m.Title = i.Title
	m.Description = i.Description
	m.Category = i.Category
	m.UnitPrice = i.UnitPrice
	m.Stock = i.Stock
	m.Status = i.Status.String()
	m.ExpiresAt = i.ExpiresAt
}

// ItemModelFromDomain creates a new persistence model from a domain Item.
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}
