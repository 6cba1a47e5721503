package models

import (
	"time"

	"github.com/marketplace/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	AggregateModel
	Email       string `gorm:"type:varchar(200);not null;uniqueIndex"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	Tier        string `gorm:"type:varchar(20);not null;default:'unverified'"`
	Role        string `gorm:"type:varchar(20);not null;default:'member'"`
	VerifiedAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User aggregate.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		DisplayName:       m.DisplayName,
		Tier:              identity.VerificationTier(m.Tier),
		Role:              identity.Role(m.Role),
		VerifiedAt:        m.VerifiedAt,
	}
}

// FromDomain populates the persistence model from a domain User aggregate.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.Tier = u.Tier.String()
	m.Role = u.Role.String()
	m.VerifiedAt = u.VerifiedAt
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
