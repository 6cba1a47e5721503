package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	walletapp "github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/ledger"
)

type walletTestEnv struct {
	balanceRepo *MockBalanceRepository
	txRepo      *MockTransactionRepository
	scheduler   *MockScheduler
	router      *gin.Engine
}

func newWalletTestEnv(t *testing.T, actorID uuid.UUID) *walletTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &walletTestEnv{
		balanceRepo: new(MockBalanceRepository),
		txRepo:      new(MockTransactionRepository),
		scheduler:   new(MockScheduler),
	}

	service := walletapp.NewWalletService(
		passthroughTxManager{}, env.balanceRepo, env.txRepo, env.scheduler, zap.NewNop())
	h := NewWalletHandler(service)

	router := gin.New()
	router.Use(actorMiddleware(actorID))
	router.GET("/wallet/balance", h.GetBalance)
	router.POST("/wallet/deposits", h.Deposit)
	router.POST("/wallet/withdrawals", h.Withdraw)
	router.GET("/wallet/transactions", h.ListTransactions)
	env.router = router
	return env
}

func fundedBalance(t *testing.T, userID uuid.UUID, amount decimal.Decimal) *ledger.Balance {
	t.Helper()
	balance, err := ledger.NewBalance(userID)
	require.NoError(t, err)
	require.NoError(t, balance.RecordDeposit(amount))
	return balance
}

func TestWalletHandlerGetBalance(t *testing.T) {
	actorID := uuid.New()
	env := newWalletTestEnv(t, actorID)

	balance := fundedBalance(t, actorID, decimal.NewFromInt(250))
	env.balanceRepo.On("FindByUserID", mock.Anything, actorID).Return(balance, nil)

	w := performJSON(env.router, http.MethodGet, "/wallet/balance", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"spendable":"250"`)
	env.balanceRepo.AssertExpectations(t)
}

func TestWalletHandlerDeposit(t *testing.T) {
	t.Run("credits spendable funds", func(t *testing.T) {
		actorID := uuid.New()
		env := newWalletTestEnv(t, actorID)

		balance := fundedBalance(t, actorID, decimal.NewFromInt(10))
		env.balanceRepo.On("FindByUserIDForUpdate", mock.Anything, actorID).Return(balance, nil)
		env.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil)
		env.balanceRepo.On("Save", mock.Anything, balance).Return(nil)

		w := performJSON(env.router, http.MethodPost, "/wallet/deposits", gin.H{
			"amount":      100.50,
			"gateway_ref": "pay_123",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"deposit"`)
		assert.Equal(t, "110.5", balance.Spendable.String())
		env.txRepo.AssertExpectations(t)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		actorID := uuid.New()
		env := newWalletTestEnv(t, actorID)

		w := performJSON(env.router, http.MethodPost, "/wallet/deposits", gin.H{
			"amount":      -5,
			"gateway_ref": "pay_456",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWalletHandlerWithdraw(t *testing.T) {
	t.Run("debits funds and schedules settlement", func(t *testing.T) {
		actorID := uuid.New()
		env := newWalletTestEnv(t, actorID)

		balance := fundedBalance(t, actorID, decimal.NewFromInt(500))
		env.txRepo.On("CountPendingWithdrawals", mock.Anything, actorID).Return(int64(0), nil)
		env.balanceRepo.On("FindByUserIDForUpdate", mock.Anything, actorID).Return(balance, nil)
		env.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil)
		env.balanceRepo.On("Save", mock.Anything, balance).Return(nil)
		env.scheduler.On("ScheduleWithdrawal", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

		w := performJSON(env.router, http.MethodPost, "/wallet/withdrawals", gin.H{
			"amount":         200,
			"bank_name":      "First Bank",
			"account_number": "1234567890",
			"account_name":   "Jordan Doe",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"pending"`)
		assert.Equal(t, "300", balance.Spendable.String())
		env.scheduler.AssertExpectations(t)
	})

	t.Run("rejects when a withdrawal is already pending", func(t *testing.T) {
		actorID := uuid.New()
		env := newWalletTestEnv(t, actorID)

		balance := fundedBalance(t, actorID, decimal.NewFromInt(100))
		env.balanceRepo.On("FindByUserIDForUpdate", mock.Anything, actorID).Return(balance, nil)
		env.txRepo.On("CountPendingWithdrawals", mock.Anything, actorID).Return(int64(1), nil)

		w := performJSON(env.router, http.MethodPost, "/wallet/withdrawals", gin.H{
			"amount":         50,
			"bank_name":      "First Bank",
			"account_number": "1234567890",
			"account_name":   "Jordan Doe",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "WITHDRAWAL_PENDING")
	})

	t.Run("rejects when funds are insufficient", func(t *testing.T) {
		actorID := uuid.New()
		env := newWalletTestEnv(t, actorID)

		balance := fundedBalance(t, actorID, decimal.NewFromInt(20))
		env.txRepo.On("CountPendingWithdrawals", mock.Anything, actorID).Return(int64(0), nil)
		env.balanceRepo.On("FindByUserIDForUpdate", mock.Anything, actorID).Return(balance, nil)

		w := performJSON(env.router, http.MethodPost, "/wallet/withdrawals", gin.H{
			"amount":         100,
			"bank_name":      "First Bank",
			"account_number": "1234567890",
			"account_name":   "Jordan Doe",
		})

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_FUNDS")
	})
}

func TestWalletHandlerListTransactions(t *testing.T) {
	actorID := uuid.New()
	env := newWalletTestEnv(t, actorID)

	entry, err := ledger.NewDepositEntry(actorID, decimal.NewFromInt(75), decimal.Zero)
	require.NoError(t, err)
	env.txRepo.On("FindByUserID", mock.Anything, actorID, mock.AnythingOfType("ledger.TransactionFilter")).
		Return([]*ledger.TransactionEntry{entry}, int64(1), nil)

	w := performJSON(env.router, http.MethodGet, "/wallet/transactions?page=1&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Meta    struct {
			Total    int64 `json:"total"`
			Page     int   `json:"page"`
			PageSize int   `json:"page_size"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PageSize)
}
