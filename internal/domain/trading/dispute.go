package trading

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// DisputeStatus represents the state of a dispute
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusClosed   DisputeStatus = "closed"
)

func (s DisputeStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known DisputeStatus
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusResolved, DisputeStatusClosed:
		return true
	}
	return false
}

// DisputeResolution classifies how a dispute was settled
type DisputeResolution string

const (
	ResolutionRefundBuyer     DisputeResolution = "refund_buyer"
	ResolutionReleaseToSeller DisputeResolution = "release_to_seller"
	ResolutionPartialRefund   DisputeResolution = "partial_refund"
	ResolutionOther           DisputeResolution = "other"
)

func (r DisputeResolution) String() string {
	return string(r)
}

// IsValid checks if the resolution is a known policy
func (r DisputeResolution) IsValid() bool {
	switch r {
	case ResolutionRefundBuyer, ResolutionReleaseToSeller, ResolutionPartialRefund, ResolutionOther:
		return true
	}
	return false
}

// Dispute is opened by a trade participant while the trade is active.
// Each trade owns at most one dispute; resolving it is a terminal,
// one-time action that also transitions the parent trade.
type Dispute struct {
	shared.BaseAggregateRoot
	TradeID          uuid.UUID
	OpenedBy         uuid.UUID
	Reason           string
	Description      string
	Evidence         []string `gorm:"serializer:json"`
	Status           DisputeStatus
	Resolution       *DisputeResolution
	ResolutionNotes  string
	ResolvedBy       *uuid.UUID
	RefundPercentage *decimal.Decimal
	ResolvedAt       *time.Time
}

// NewDispute opens a dispute against a trade
func NewDispute(tradeID, openedBy uuid.UUID, reason, description string, evidence []string) (*Dispute, error) {
	if tradeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRADE", "Trade ID cannot be empty")
	}
	if openedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Opening user ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Dispute reason cannot be empty")
	}

	dispute := &Dispute{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TradeID:           tradeID,
		OpenedBy:          openedBy,
		Reason:            reason,
		Description:       description,
		Evidence:          evidence,
		Status:            DisputeStatusOpen,
	}

	dispute.AddDomainEvent(NewDisputeOpenedEvent(dispute))

	return dispute, nil
}

// IsOpen returns true while the dispute awaits resolution
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusOpen
}

// Resolve settles the dispute one time. The caller has already verified the
// actor is privileged and not a trade participant. partial_refund requires a
// percentage in [0,100]; other requires non-empty notes.
func (d *Dispute) Resolve(resolvedBy uuid.UUID, resolution DisputeResolution, notes string, refundPercentage *decimal.Decimal) error {
	if d.Status != DisputeStatusOpen {
		return shared.ErrAlreadyResolved
	}
	if resolvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Resolving user ID cannot be empty")
	}
	if !resolution.IsValid() {
		return shared.NewDomainError("INVALID_RESOLUTION", "Unknown dispute resolution")
	}
	switch resolution {
	case ResolutionPartialRefund:
		if refundPercentage == nil {
			return shared.NewDomainError("INVALID_PERCENTAGE", "Partial refund requires a percentage")
		}
		if refundPercentage.IsNegative() || refundPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewDomainError("INVALID_PERCENTAGE", "Refund percentage must be between 0 and 100")
		}
	case ResolutionOther:
		if notes == "" {
			return shared.NewDomainError("INVALID_NOTES", "Manual resolutions require notes")
		}
	}

	now := time.Now()
	d.Status = DisputeStatusResolved
	d.Resolution = &resolution
	d.ResolutionNotes = notes
	d.ResolvedBy = &resolvedBy
	d.RefundPercentage = refundPercentage
	d.ResolvedAt = &now
	d.UpdatedAt = now

	d.AddDomainEvent(NewDisputeResolvedEvent(d))

	return nil
}
