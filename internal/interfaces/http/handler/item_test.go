package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

type itemTestEnv struct {
	itemRepo *MockItemRepository
	userRepo *MockUserRepository
	router   *gin.Engine
}

func newItemTestEnv(t *testing.T, actorID uuid.UUID) *itemTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &itemTestEnv{
		itemRepo: new(MockItemRepository),
		userRepo: new(MockUserRepository),
	}

	service := catalogapp.NewItemService(passthroughTxManager{}, env.itemRepo, env.userRepo, zap.NewNop())
	h := NewItemHandler(service)

	router := gin.New()
	router.Use(actorMiddleware(actorID))
	router.POST("/items", h.Create)
	router.GET("/items", h.List)
	router.GET("/items/:id", h.GetByID)
	router.POST("/items/:id/deactivate", h.Deactivate)
	router.POST("/items/:id/reactivate", h.Reactivate)
	env.router = router
	return env
}

func verifiedSeller(t *testing.T) *identity.User {
	t.Helper()
	seller, err := identity.NewUser("seller@example.com", "Seller")
	require.NoError(t, err)
	require.NoError(t, seller.Verify())
	return seller
}

func newTestItem(t *testing.T, sellerID uuid.UUID, price, stock int64) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(sellerID, "Used Laptop", "Lightly used", "electronics",
		valueobject.NewMoneyNGN(decimal.NewFromInt(price)), stock)
	require.NoError(t, err)
	return item
}

func TestItemHandlerCreate(t *testing.T) {
	t.Run("lists an item for a verified seller", func(t *testing.T) {
		actorID := uuid.New()
		env := newItemTestEnv(t, actorID)

		env.userRepo.On("FindByID", mock.Anything, actorID).Return(verifiedSeller(t), nil)
		env.itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*catalog.Item")).Return(nil)

		w := performJSON(env.router, http.MethodPost, "/items", gin.H{
			"title":      "Used Laptop",
			"category":   "electronics",
			"unit_price": 150000,
			"stock":      3,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"active"`)
		env.itemRepo.AssertExpectations(t)
	})

	t.Run("enforces listing quotas for unverified sellers", func(t *testing.T) {
		actorID := uuid.New()
		env := newItemTestEnv(t, actorID)

		seller, err := identity.NewUser("new@example.com", "Newbie")
		require.NoError(t, err)
		env.userRepo.On("FindByID", mock.Anything, actorID).Return(seller, nil)
		env.itemRepo.On("CountActiveBySeller", mock.Anything, actorID).Return(int64(5), nil)
		env.itemRepo.On("CountCreatedBySellerSince", mock.Anything, actorID, mock.AnythingOfType("time.Time")).
			Return(int64(0), nil)

		w := performJSON(env.router, http.MethodPost, "/items", gin.H{
			"title":      "Sixth Listing",
			"unit_price": 100,
			"stock":      1,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "LISTING_LIMIT_EXCEEDED")
	})

	t.Run("rejects a listing without stock", func(t *testing.T) {
		env := newItemTestEnv(t, uuid.New())

		w := performJSON(env.router, http.MethodPost, "/items", gin.H{
			"title":      "Ghost Item",
			"unit_price": 100,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestItemHandlerGetByID(t *testing.T) {
	env := newItemTestEnv(t, uuid.New())
	item := newTestItem(t, uuid.New(), 5000, 2)
	env.itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)

	w := performJSON(env.router, http.MethodGet, "/items/"+item.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Used Laptop")
}

func TestItemHandlerList(t *testing.T) {
	env := newItemTestEnv(t, uuid.New())
	sellerID := uuid.New()
	item := newTestItem(t, sellerID, 5000, 2)

	env.itemRepo.On("List", mock.Anything, mock.MatchedBy(func(f catalog.ItemFilter) bool {
		return f.SellerID != nil && *f.SellerID == sellerID &&
			f.Status != nil && *f.Status == catalog.ItemStatusActive
	})).Return([]*catalog.Item{item}, int64(1), nil)

	w := performJSON(env.router, http.MethodGet, "/items?seller_id="+sellerID.String()+"&status=active", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestItemHandlerDeactivate(t *testing.T) {
	t.Run("hides the listing for its seller", func(t *testing.T) {
		actorID := uuid.New()
		env := newItemTestEnv(t, actorID)
		item := newTestItem(t, actorID, 5000, 2)

		env.itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)
		env.itemRepo.On("SaveWithLock", mock.Anything, item).Return(nil)

		w := performJSON(env.router, http.MethodPost, "/items/"+item.ID.String()+"/deactivate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"inactive"`)
	})

	t.Run("refuses another user's listing", func(t *testing.T) {
		env := newItemTestEnv(t, uuid.New())
		item := newTestItem(t, uuid.New(), 5000, 2)

		env.itemRepo.On("FindByID", mock.Anything, item.ID).Return(item, nil)

		w := performJSON(env.router, http.MethodPost, "/items/"+item.ID.String()+"/deactivate", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
