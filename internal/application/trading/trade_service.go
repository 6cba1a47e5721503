package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/eligibility"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trading"
)

// tradeCodeAttempts bounds the collision retry on short-code generation
const tradeCodeAttempts = 5

// TradeService orchestrates the trade lifecycle: creation with escrow
// funding, completion with escrow release, and dispute opening
type TradeService struct {
	txManager      shared.TransactionManager
	tradeRepo      trading.TradeRepository
	disputeRepo    trading.DisputeRepository
	itemRepo       catalog.ItemRepository
	balanceRepo    ledger.BalanceRepository
	entryRepo      ledger.TransactionRepository
	userRepo       identity.UserRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTradeService creates a new TradeService
func NewTradeService(
	txManager shared.TransactionManager,
	tradeRepo trading.TradeRepository,
	disputeRepo trading.DisputeRepository,
	itemRepo catalog.ItemRepository,
	balanceRepo ledger.BalanceRepository,
	entryRepo ledger.TransactionRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *TradeService {
	return &TradeService{
		txManager:   txManager,
		tradeRepo:   tradeRepo,
		disputeRepo: disputeRepo,
		itemRepo:    itemRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TradeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// lockBalance loads a balance under a row lock, provisioning a zero row for
// users who have never held funds. Must run inside a transaction.
func lockBalance(ctx context.Context, repo ledger.BalanceRepository, userID uuid.UUID) (*ledger.Balance, error) {
	balance, err := repo.FindByUserIDForUpdate(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		balance, err = ledger.NewBalance(userID)
		if err != nil {
			return nil, err
		}
		if err := repo.Create(ctx, balance); err != nil {
			return nil, err
		}
		return repo.FindByUserIDForUpdate(ctx, userID)
	}
	return balance, err
}

// lockBalancePair locks two users' balances in ascending user-id order so
// concurrent trades over the same pair cannot deadlock. The returned
// balances match the argument order.
func lockBalancePair(ctx context.Context, repo ledger.BalanceRepository, firstID, secondID uuid.UUID) (*ledger.Balance, *ledger.Balance, error) {
	if secondID.String() < firstID.String() {
		second, err := lockBalance(ctx, repo, secondID)
		if err != nil {
			return nil, nil, err
		}
		first, err := lockBalance(ctx, repo, firstID)
		if err != nil {
			return nil, nil, err
		}
		return first, second, nil
	}
	first, err := lockBalance(ctx, repo, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := lockBalance(ctx, repo, secondID)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (s *TradeService) uniqueTradeCode(ctx context.Context) (string, error) {
	for i := 0; i < tradeCodeAttempts; i++ {
		code := trading.GenerateTradeCode()
		exists, err := s.tradeRepo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", shared.NewDomainError("TRADE_CODE_EXHAUSTED", "Could not generate a unique trade code")
}

// CreateTrade opens a trade: the buyer's spendable funds move into the
// seller's escrow pool and a trade_payment audit entry is written, all in
// one transaction. Tier caps are checked against counts read in that same
// transaction.
func (s *TradeService) CreateTrade(ctx context.Context, req CreateTradeRequest) (*TradeResponse, error) {
	if req.Quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}

	var trade *trading.Trade
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.IsOrderable() || item.SellerID == req.BuyerID {
			return shared.ErrItemUnavailable
		}
		if req.Quantity > item.Stock {
			return shared.ErrQuantityExceedsStock
		}

		buyer, err := s.userRepo.FindByID(ctx, req.BuyerID)
		if err != nil {
			return err
		}

		totalAmount := item.UnitPriceMoney().MultiplyByInt(req.Quantity).Amount()

		limits := eligibility.ForTier(buyer.Tier)
		if !limits.Unlimited {
			activeTrades, err := s.tradeRepo.CountActiveByParticipant(ctx, req.BuyerID)
			if err != nil {
				return err
			}
			dailyVolume, err := s.tradeRepo.SumVolumeByBuyerSince(ctx, req.BuyerID, time.Now().Add(-eligibility.ActivityWindow))
			if err != nil {
				return err
			}
			if err := limits.CheckTradeCreation(totalAmount, eligibility.TradeActivity{
				ActiveTrades: activeTrades,
				DailyVolume:  dailyVolume,
			}); err != nil {
				return err
			}
		}

		code, err := s.uniqueTradeCode(ctx)
		if err != nil {
			return err
		}

		trade, err = trading.NewTrade(code, item.ID, item.Title, req.BuyerID, item.SellerID, req.Quantity, item.UnitPriceMoney())
		if err != nil {
			return err
		}

		buyerBal, sellerBal, err := lockBalancePair(ctx, s.balanceRepo, req.BuyerID, item.SellerID)
		if err != nil {
			return err
		}

		entry, err := ledger.NewTradePaymentEntry(req.BuyerID, trade.ID, totalAmount, buyerBal.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Escrow payment for trade %s", trade.TradeCode))

		if err := buyerBal.Debit(totalAmount); err != nil {
			return err
		}
		if err := sellerBal.HoldInEscrow(totalAmount); err != nil {
			return err
		}

		if err := s.tradeRepo.Create(ctx, trade); err != nil {
			return err
		}
		if err := s.entryRepo.Create(ctx, entry); err != nil {
			return err
		}
		if err := s.balanceRepo.Save(ctx, buyerBal); err != nil {
			return err
		}
		return s.balanceRepo.Save(ctx, sellerBal)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, trade)

	s.logger.Info("trade created",
		zap.String("trade_code", trade.TradeCode),
		zap.String("buyer_id", trade.BuyerID.String()),
		zap.String("seller_id", trade.SellerID.String()),
		zap.String("total_amount", trade.TotalAmount.String()))

	response := ToTradeResponse(trade)
	return &response, nil
}

// CompleteTrade finishes an active trade: escrow settles into the seller's
// spendable pool, a trade_release entry is written, and the listing's stock
// is decremented. The optimistic version check on the trade row guarantees
// exactly one concurrent completion wins.
func (s *TradeService) CompleteTrade(ctx context.Context, req CompleteTradeRequest) (*TradeResponse, error) {
	var trade *trading.Trade
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		// Row lock so the loser of a concurrent complete sees the winner's
		// terminal status rather than racing into the escrow.
		trade, err = s.tradeRepo.FindByIDForUpdate(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if err := trade.Complete(req.ActorID); err != nil {
			return err
		}

		sellerBal, err := lockBalance(ctx, s.balanceRepo, trade.SellerID)
		if err != nil {
			return err
		}

		entry, err := ledger.NewTradeReleaseEntry(trade.SellerID, trade.ID, trade.TotalAmount, sellerBal.Spendable)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Escrow release for trade %s", trade.TradeCode))

		if err := sellerBal.SettleEscrow(trade.TotalAmount); err != nil {
			return err
		}

		// The version check must run before the money writes become visible
		// so a lost race rolls everything back.
		if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
			return err
		}
		if err := s.entryRepo.Create(ctx, entry); err != nil {
			return err
		}
		if err := s.balanceRepo.Save(ctx, sellerBal); err != nil {
			return err
		}

		return s.decrementListingStock(ctx, trade)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// decrementListingStock reduces the listing's stock after completion. A
// listing deleted since the trade was created is skipped; the trade keeps
// its frozen money snapshot either way.
func (s *TradeService) decrementListingStock(ctx context.Context, trade *trading.Trade) error {
	if trade.ItemID == nil {
		return nil
	}
	item, err := s.itemRepo.FindByID(ctx, *trade.ItemID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := item.DecrementStock(trade.Quantity); err != nil {
		return err
	}
	return s.itemRepo.SaveWithLock(ctx, item)
}

// OpenDispute freezes an active trade while a participant contests it.
// A trade holds at most one open dispute.
func (s *TradeService) OpenDispute(ctx context.Context, req OpenDisputeRequest) (*DisputeResponse, error) {
	var (
		trade   *trading.Trade
		dispute *trading.Dispute
	)
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		trade, err = s.tradeRepo.FindByID(ctx, req.TradeID)
		if err != nil {
			return err
		}

		if _, err := s.disputeRepo.FindOpenByTradeID(ctx, trade.ID); err == nil {
			return shared.ErrDisputeAlreadyOpen
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if err := trade.MarkDisputed(req.ActorID); err != nil {
			return err
		}

		dispute, err = trading.NewDispute(trade.ID, req.ActorID, req.Reason, req.Description, req.Evidence)
		if err != nil {
			return err
		}

		if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
			return err
		}
		return s.disputeRepo.Create(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, dispute)

	s.logger.Info("dispute opened",
		zap.String("trade_code", trade.TradeCode),
		zap.String("opened_by", req.ActorID.String()))

	response := ToDisputeResponse(dispute)
	return &response, nil
}

// RateTrade records one participant's rating of a completed trade
func (s *TradeService) RateTrade(ctx context.Context, req RateTradeRequest) (*TradeResponse, error) {
	var trade *trading.Trade
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		trade, err = s.tradeRepo.FindByID(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if !trade.IsParticipant(req.ActorID) {
			return shared.ErrForbidden
		}
		if req.ActorID == trade.BuyerID {
			err = trade.RateByBuyer(req.ActorID, req.Score, req.Feedback)
		} else {
			err = trade.RateBySeller(req.ActorID, req.Score, req.Feedback)
		}
		if err != nil {
			return err
		}
		return s.tradeRepo.SaveWithLock(ctx, trade)
	})
	if err != nil {
		return nil, err
	}

	response := ToTradeResponse(trade)
	return &response, nil
}

// GetTrade returns one trade visible to the requesting participant
func (s *TradeService) GetTrade(ctx context.Context, tradeID, actorID uuid.UUID) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		return nil, shared.ErrForbidden
	}
	response := ToTradeResponse(trade)
	return &response, nil
}

// GetTradeByCode returns one trade looked up by its external short code
func (s *TradeService) GetTradeByCode(ctx context.Context, code string, actorID uuid.UUID) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		return nil, shared.ErrForbidden
	}
	response := ToTradeResponse(trade)
	return &response, nil
}

// ListTrades lists trades where the user is buyer or seller
func (s *TradeService) ListTrades(ctx context.Context, userID uuid.UUID, filter trading.TradeFilter) ([]TradeResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	trades, total, err := s.tradeRepo.FindByParticipant(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToTradeResponses(trades), total, nil
}

func (s *TradeService) publishAggregateEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
