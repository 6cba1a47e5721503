package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
)

// VerificationTier gates posting and trading limits
type VerificationTier string

const (
	TierUnverified VerificationTier = "unverified"
	TierVerified   VerificationTier = "verified"
)

func (t VerificationTier) String() string {
	return string(t)
}

// IsValid checks if the tier is known
func (t VerificationTier) IsValid() bool {
	return t == TierUnverified || t == TierVerified
}

// Role separates ordinary accounts from operators who may verify users and
// settle disputes
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is the engine's view of an account: an identity, an email for
// notifications, and a verification tier. Authentication token issuance
// lives outside this system.
type User struct {
	shared.BaseAggregateRoot
	Email       string
	DisplayName string
	Tier        VerificationTier
	Role        Role
	VerifiedAt  *time.Time
}

// NewUser registers an unverified user
func NewUser(email, displayName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Display name cannot be empty")
	}
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		DisplayName:       strings.TrimSpace(displayName),
		Tier:              TierUnverified,
		Role:              RoleMember,
	}, nil
}

// IsAdmin reports whether the user may perform operator actions
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// GrantAdmin promotes the user to the operator role
func (u *User) GrantAdmin() {
	u.Role = RoleAdmin
	u.UpdatedAt = time.Now()
}

// IsVerified reports whether tier caps no longer apply
func (u *User) IsVerified() bool {
	return u.Tier == TierVerified
}

// Verify promotes the user to the verified tier
func (u *User) Verify() error {
	if u.IsVerified() {
		return shared.NewDomainError("ALREADY_VERIFIED", "User is already verified")
	}
	now := time.Now()
	u.Tier = TierVerified
	u.VerifiedAt = &now
	u.UpdatedAt = now
	return nil
}
