package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/trading"
)

// TradeModel is the persistence model for the Trade aggregate.
type TradeModel struct {
	AggregateModel
	TradeCode      string          `gorm:"type:varchar(8);not null;uniqueIndex"`
	ItemID         *uuid.UUID      `gorm:"type:uuid;index"`
	ItemTitle      string          `gorm:"type:varchar(200);not null"`
	BuyerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       int64           `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null;index"`
	BuyerRating    *int
	BuyerFeedback  string `gorm:"type:text"`
	SellerRating   *int
	SellerFeedback string `gorm:"type:text"`
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (TradeModel) TableName() string {
	return "trades"
}

// ToDomain converts the persistence model to a domain Trade aggregate.
func (m *TradeModel) ToDomain() *trading.Trade {
	return &trading.Trade{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TradeCode:         m.TradeCode,
		ItemID:            m.ItemID,
		ItemTitle:         m.ItemTitle,
		BuyerID:           m.BuyerID,
		SellerID:          m.SellerID,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		TotalAmount:       m.TotalAmount,
		Status:            trading.TradeStatus(m.Status),
		BuyerRating:       m.BuyerRating,
		BuyerFeedback:     m.BuyerFeedback,
		SellerRating:      m.SellerRating,
		SellerFeedback:    m.SellerFeedback,
		CompletedAt:       m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain Trade aggregate.
func (m *TradeModel) FromDomain(t *trading.Trade) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TradeCode = t.TradeCode
	m.ItemID = t.ItemID
	m.ItemTitle = t.ItemTitle
	m.BuyerID = t.BuyerID
	m.SellerID = t.SellerID
	m.Quantity = t.Quantity
	m.UnitPrice = t.UnitPrice
	m.TotalAmount = t.TotalAmount
	m.Status = t.Status.String()
	m.BuyerRating = t.BuyerRating
	m.BuyerFeedback = t.BuyerFeedback
	m.SellerRating = t.SellerRating
	m.SellerFeedback = t.SellerFeedback
	m.CompletedAt = t.CompletedAt
}

// TradeModelFromDomain creates a new persistence model from a domain Trade.
func TradeModelFromDomain(t *trading.Trade) *TradeModel {
	m := &TradeModel{}
	m.FromDomain(t)
	return m
}

// DisputeModel is the persistence model for the Dispute aggregate.
// The unique index on trade_id enforces at most one dispute per trade.
type DisputeModel struct {
	AggregateModel
	TradeID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	OpenedBy         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Reason           string           `gorm:"type:varchar(100);not null"`
	Description      string           `gorm:"type:text"`
	Evidence         []string         `gorm:"serializer:json;type:jsonb"`
	Status           string           `gorm:"type:varchar(20);not null;index"`
	Resolution       *string          `gorm:"type:varchar(30)"`
	ResolutionNotes  string           `gorm:"type:text"`
	ResolvedBy       *uuid.UUID       `gorm:"type:uuid"`
	RefundPercentage *decimal.Decimal `gorm:"type:decimal(5,2)"`
	ResolvedAt       *time.Time
}

// TableName returns the table name for GORM
func (DisputeModel) TableName() string {
	return "disputes"
}

// ToDomain converts the persistence model to a domain Dispute aggregate.
func (m *DisputeModel) ToDomain() *trading.Dispute {
	var resolution *trading.DisputeResolution
	if m.Resolution != nil {
		r := trading.DisputeResolution(*m.Resolution)
		resolution = &r
	}
	return &trading.Dispute{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TradeID:           m.TradeID,
		OpenedBy:          m.OpenedBy,
		Reason:            m.Reason,
		Description:       m.Description,
		Evidence:          m.Evidence,
		Status:            trading.DisputeStatus(m.Status),
		Resolution:        resolution,
		ResolutionNotes:   m.ResolutionNotes,
		ResolvedBy:        m.ResolvedBy,
		RefundPercentage:  m.RefundPercentage,
		ResolvedAt:        m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain Dispute aggregate.
func (m *DisputeModel) FromDomain(d *trading.Dispute) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.TradeID = d.TradeID
	m.OpenedBy = d.OpenedBy
	m.Reason = d.Reason
	m.Description = d.Description
	m.Evidence = d.Evidence
	m.Status = d.Status.String()
	if d.Resolution != nil {
		r := d.Resolution.String()
		m.Resolution = &r
	} else {
		m.Resolution = nil
	}
	m.ResolutionNotes = d.ResolutionNotes
	m.ResolvedBy = d.ResolvedBy
	m.RefundPercentage = d.RefundPercentage
	m.ResolvedAt = d.ResolvedAt
}

// DisputeModelFromDomain creates a new persistence model from a domain Dispute.
func DisputeModelFromDomain(d *trading.Dispute) *DisputeModel {
	m := &DisputeModel{}
	m.FromDomain(d)
	return m
}
