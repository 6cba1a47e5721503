package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	walletapp "github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/ledger"
)

// WalletHandler handles balance and funds-movement API endpoints
type WalletHandler struct {
	BaseHandler
	walletService *walletapp.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *walletapp.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// DepositRequest represents a confirmed inbound payment
type DepositRequest struct {
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	GatewayRef string  `json:"gateway_ref" binding:"required,min=1,max=100"`
}

// WithdrawRequest represents a payout request to an external account
type WithdrawRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	BankName      string  `json:"bank_name" binding:"required,min=1,max=100"`
	AccountNumber string  `json:"account_number" binding:"required,min=1,max=50"`
	AccountName   string  `json:"account_name" binding:"required,min=1,max=100"`
}

// ListTransactionsRequest represents the audit-trail query parameters
type ListTransactionsRequest struct {
	Type     string `form:"type" binding:"omitempty,oneof=deposit withdrawal trade_payment trade_release refund"`
	Status   string `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	DateFrom string `form:"date_from" binding:"omitempty"`
	DateTo   string `form:"date_to" binding:"omitempty"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetBalance returns the authenticated actor's balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// Deposit credits the actor's spendable balance
func (h *WalletHandler) Deposit(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.walletService.Deposit(c.Request.Context(), walletapp.DepositRequest{
		UserID:     actorID,
		Amount:     toDecimal(req.Amount),
		GatewayRef: req.GatewayRef,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// Withdraw holds funds for an asynchronous payout
func (h *WalletHandler) Withdraw(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.walletService.Withdraw(c.Request.Context(), walletapp.WithdrawRequest{
		UserID:        actorID,
		Amount:        toDecimal(req.Amount),
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// ListTransactions returns the actor's audit trail, newest first
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := ledger.TransactionFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Type != "" {
		txnType := ledger.TransactionType(req.Type)
		filter.Type = &txnType
	}
	if req.Status != "" {
		status := ledger.TransactionStatus(req.Status)
		filter.Status = &status
	}
	if req.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, req.DateFrom)
		if err != nil {
			h.BadRequest(c, "Invalid date_from format, expected RFC 3339")
			return
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse(time.RFC3339, req.DateTo)
		if err != nil {
			h.BadRequest(c, "Invalid date_to format, expected RFC 3339")
			return
		}
		filter.DateTo = &to
	}

	entries, total, err := h.walletService.ListTransactions(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, req.Page, req.PageSize)
}
