package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/eligibility"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// expirySweepBatch bounds how many stale listings one sweep pass touches
const expirySweepBatch = 100

// ItemService manages marketplace listings
type ItemService struct {
	txManager shared.TransactionManager
	itemRepo  catalog.ItemRepository
	userRepo  identity.UserRepository
	logger    *zap.Logger
}

// NewItemService creates a new ItemService
func NewItemService(
	txManager shared.TransactionManager,
	itemRepo catalog.ItemRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		txManager: txManager,
		itemRepo:  itemRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// CreateItem lists a new item. Tier quotas are checked against listing
// counts read inside the transaction that inserts the row, so concurrent
// creations cannot both squeeze under a cap.
func (s *ItemService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	var item *catalog.Item
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		seller, err := s.userRepo.FindByID(ctx, req.SellerID)
		if err != nil {
			return err
		}

		limits := eligibility.ForTier(seller.Tier)
		if !limits.Unlimited {
			active, err := s.itemRepo.CountActiveBySeller(ctx, req.SellerID)
			if err != nil {
				return err
			}
			recent, err := s.itemRepo.CountCreatedBySellerSince(ctx, req.SellerID, time.Now().Add(-eligibility.ActivityWindow))
			if err != nil {
				return err
			}
			if err := limits.CheckListingCreation(eligibility.ListingActivity{
				ActiveListings: active,
				CreatedLast24h: recent,
			}); err != nil {
				return err
			}
		}

		item, err = catalog.NewItem(req.SellerID, req.Title, req.Description, req.Category,
			valueobject.NewMoneyNGN(req.UnitPrice), req.Stock)
		if err != nil {
			return err
		}
		return s.itemRepo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item listed",
		zap.String("item_id", item.ID.String()),
		zap.String("seller_id", item.SellerID.String()))

	response := ToItemResponse(item)
	return &response, nil
}

// GetItem returns one listing
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// ListItems lists items with filtering
func (s *ItemService) ListItems(ctx context.Context, filter catalog.ItemFilter) ([]ItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	items, total, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToItemResponses(items), total, nil
}

// DeactivateItem hides a listing. Seller only.
func (s *ItemService) DeactivateItem(ctx context.Context, itemID, actorID uuid.UUID) (*ItemResponse, error) {
	return s.mutate(ctx, itemID, func(item *catalog.Item) error {
		return item.Deactivate(actorID)
	})
}

// ReactivateItem brings a hidden or expired listing back. Seller only.
func (s *ItemService) ReactivateItem(ctx context.Context, itemID, actorID uuid.UUID) (*ItemResponse, error) {
	return s.mutate(ctx, itemID, func(item *catalog.Item) error {
		return item.Reactivate(actorID)
	})
}

func (s *ItemService) mutate(ctx context.Context, itemID uuid.UUID, fn func(*catalog.Item) error) (*ItemResponse, error) {
	var item *catalog.Item
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.itemRepo.FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
		return s.itemRepo.SaveWithLock(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// ExpireStaleListings flips live listings past their expiry. Called by the
// background sweep; returns how many listings were expired.
func (s *ItemService) ExpireStaleListings(ctx context.Context) (int, error) {
	expired := 0
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		items, err := s.itemRepo.FindExpiredActive(ctx, expirySweepBatch)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := item.MarkExpired(); err != nil {
				return err
			}
			if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired stale listings", zap.Int("count", expired))
	}
	return expired, nil
}
