package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
)

// DisputeService settles open disputes. Resolution moves escrowed funds
// according to the chosen policy and transitions the parent trade, all in
// one transaction.
type DisputeService struct {
	txManager      shared.TransactionManager
	disputeRepo    trading.DisputeRepository
	tradeRepo      trading.TradeRepository
	balanceRepo    ledger.BalanceRepository
	entryRepo      ledger.TransactionRepository
	userRepo       identity.UserRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDisputeService creates a new DisputeService
func NewDisputeService(
	txManager shared.TransactionManager,
	disputeRepo trading.DisputeRepository,
	tradeRepo trading.TradeRepository,
	balanceRepo ledger.BalanceRepository,
	entryRepo ledger.TransactionRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *DisputeService {
	return &DisputeService{
		txManager:   txManager,
		disputeRepo: disputeRepo,
		tradeRepo:   tradeRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// requireAdmin loads the actor and rejects anyone without the operator role
func (s *DisputeService) requireAdmin(ctx context.Context, actorID uuid.UUID) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	return actor, nil
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *DisputeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ResolveDispute settles an open dispute. The resolver must hold the
// operator role and must not be a trade participant. refund_buyer returns
// the full escrow to the buyer and cancels the trade; release_to_seller
// settles escrow to the seller and completes it; partial_refund splits the
// escrow by percentage and completes it; other records notes only and
// leaves the trade disputed.
func (s *DisputeService) ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (*DisputeResponse, error) {
	var dispute *trading.Dispute
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.requireAdmin(ctx, req.ResolvedBy); err != nil {
			return err
		}

		var err error
		dispute, err = s.disputeRepo.FindByID(ctx, req.DisputeID)
		if err != nil {
			return err
		}

		// Row lock so a resolution racing a buyer's complete observes the
		// trade's terminal status instead of a drained escrow.
		trade, err := s.tradeRepo.FindByIDForUpdate(ctx, dispute.TradeID)
		if err != nil {
			return err
		}
		if trade.IsParticipant(req.ResolvedBy) {
			return shared.ErrForbidden
		}

		resolution := trading.DisputeResolution(req.Resolution)
		if err := dispute.Resolve(req.ResolvedBy, resolution, req.Notes, req.RefundPercentage); err != nil {
			return err
		}

		switch resolution {
		case trading.ResolutionRefundBuyer:
			err = s.refundBuyer(ctx, trade)
		case trading.ResolutionReleaseToSeller:
			err = s.releaseToSeller(ctx, trade)
		case trading.ResolutionPartialRefund:
			err = s.splitEscrow(ctx, trade, dispute)
		case trading.ResolutionOther:
			// Funds stay in escrow and the trade stays disputed until a
			// follow-up resolution path outside this engine settles it.
		}
		if err != nil {
			return err
		}

		if err := s.disputeRepo.SaveWithLock(ctx, dispute); err != nil {
			return err
		}
		if resolution != trading.ResolutionOther {
			if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, dispute)

	s.logger.Info("dispute resolved",
		zap.String("dispute_id", dispute.ID.String()),
		zap.String("resolution", req.Resolution))

	response := ToDisputeResponse(dispute)
	return &response, nil
}

// refundBuyer returns the full escrow to the buyer and cancels the trade
func (s *DisputeService) refundBuyer(ctx context.Context, trade *trading.Trade) error {
	buyerBal, sellerBal, err := lockBalancePair(ctx, s.balanceRepo, trade.BuyerID, trade.SellerID)
	if err != nil {
		return err
	}

	entry, err := ledger.NewRefundEntry(trade.BuyerID, trade.ID, trade.TotalAmount, buyerBal.Spendable)
	if err != nil {
		return err
	}
	entry.WithDescription(fmt.Sprintf("Full refund for disputed trade %s", trade.TradeCode))

	if err := sellerBal.ReleaseEscrow(trade.TotalAmount); err != nil {
		return err
	}
	if err := buyerBal.Credit(trade.TotalAmount); err != nil {
		return err
	}
	if err := trade.ResolveCancelled(); err != nil {
		return err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return err
	}
	if err := s.balanceRepo.Save(ctx, buyerBal); err != nil {
		return err
	}
	return s.balanceRepo.Save(ctx, sellerBal)
}

// releaseToSeller settles the full escrow into the seller's spendable pool
// and completes the trade
func (s *DisputeService) releaseToSeller(ctx context.Context, trade *trading.Trade) error {
	sellerBal, err := lockBalance(ctx, s.balanceRepo, trade.SellerID)
	if err != nil {
		return err
	}

	entry, err := ledger.NewTradeReleaseEntry(trade.SellerID, trade.ID, trade.TotalAmount, sellerBal.Spendable)
	if err != nil {
		return err
	}
	entry.WithDescription(fmt.Sprintf("Escrow release for disputed trade %s", trade.TradeCode))

	if err := sellerBal.SettleEscrow(trade.TotalAmount); err != nil {
		return err
	}
	if err := trade.ResolveCompleted(); err != nil {
		return err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return err
	}
	return s.balanceRepo.Save(ctx, sellerBal)
}

// splitEscrow refunds the stated percentage to the buyer, releases the
// remainder to the seller, and completes the trade. Either side of the
// split can be zero; audit entries are written only for positive amounts.
func (s *DisputeService) splitEscrow(ctx context.Context, trade *trading.Trade, dispute *trading.Dispute) error {
	refund := trade.TotalAmountMoney().CalculatePercentage(*dispute.RefundPercentage).Amount()
	remainder := trade.TotalAmount.Sub(refund)

	buyerBal, sellerBal, err := lockBalancePair(ctx, s.balanceRepo, trade.BuyerID, trade.SellerID)
	if err != nil {
		return err
	}

	if err := sellerBal.ReleaseEscrow(trade.TotalAmount); err != nil {
		return err
	}

	if refund.IsPositive() {
		entry, err := ledger.NewRefundEntry(trade.BuyerID, trade.ID, refund, buyerBal.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Partial refund for disputed trade %s", trade.TradeCode))
		if err := buyerBal.Credit(refund); err != nil {
			return err
		}
		if err := s.entryRepo.Create(ctx, entry); err != nil {
			return err
		}
	}

	if remainder.IsPositive() {
		entry, err := ledger.NewTradeReleaseEntry(trade.SellerID, trade.ID, remainder, sellerBal.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Partial escrow release for disputed trade %s", trade.TradeCode))
		if err := sellerBal.Credit(remainder); err != nil {
			return err
		}
		if err := s.entryRepo.Create(ctx, entry); err != nil {
			return err
		}
	}

	if err := trade.ResolveCompleted(); err != nil {
		return err
	}

	if err := s.balanceRepo.Save(ctx, buyerBal); err != nil {
		return err
	}
	return s.balanceRepo.Save(ctx, sellerBal)
}

// isAdmin reports whether the actor holds the operator role. An unknown
// actor is treated as an ordinary member.
func (s *DisputeService) isAdmin(ctx context.Context, actorID uuid.UUID) (bool, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return actor.IsAdmin(), nil
}

// GetDispute returns one dispute. Reason, evidence and notes are visible
// only to the trade's participants and to operators.
func (s *DisputeService) GetDispute(ctx context.Context, disputeID, actorID uuid.UUID) (*DisputeResponse, error) {
	dispute, err := s.disputeRepo.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	trade, err := s.tradeRepo.FindByID(ctx, dispute.TradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, shared.ErrForbidden
		}
	}

	response := ToDisputeResponse(dispute)
	return &response, nil
}

// ListDisputes lists disputes. Operators see every dispute; ordinary
// members only see disputes on trades they participate in.
func (s *DisputeService) ListDisputes(ctx context.Context, actorID uuid.UUID, filter trading.DisputeFilter) ([]DisputeResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	admin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !admin {
		filter.ParticipantID = &actorID
	}

	disputes, total, err := s.disputeRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToDisputeResponses(disputes), total, nil
}

func (s *DisputeService) publishAggregateEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil || aggregate == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
