package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradingapp "github.com/marketplace/backend/internal/application/trading"
	"github.com/marketplace/backend/internal/domain/trading"
)

// TradeHandler handles trade-lifecycle API endpoints
type TradeHandler struct {
	BaseHandler
	tradeService *tradingapp.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *tradingapp.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// CreateTradeRequest represents a request to open a trade against a listing
type CreateTradeRequest struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// OpenDisputeRequest represents a request to freeze a trade pending resolution
type OpenDisputeRequest struct {
	Reason      string   `json:"reason" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	Evidence    []string `json:"evidence" binding:"omitempty,max=10,dive,max=500"`
}

// RateTradeRequest represents one side's rating of a completed trade
type RateTradeRequest struct {
	Score    int    `json:"score" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback" binding:"omitempty,max=1000"`
}

// ListTradesRequest represents the trade history query parameters
type ListTradesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=active completed cancelled disputed refunded"`
	Role     string `form:"role" binding:"omitempty,oneof=buyer seller"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create opens a trade with the authenticated actor as buyer
func (h *TradeHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	trade, err := h.tradeService.CreateTrade(c.Request.Context(), tradingapp.CreateTradeRequest{
		BuyerID:  actorID,
		ItemID:   itemID,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, trade)
}

// GetByID returns one trade visible to the authenticated actor
func (h *TradeHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trade ID format")
		return
	}

	trade, err := h.tradeService.GetTrade(c.Request.Context(), tradeID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trade)
}

// GetByCode returns one trade looked up by its short code
func (h *TradeHandler) GetByCode(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Trade code is required")
		return
	}

	trade, err := h.tradeService.GetTradeByCode(c.Request.Context(), code, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trade)
}

// List returns the actor's trade history
func (h *TradeHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListTradesRequest
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

	filter := trading.TradeFilter{
		Role:     req.Role,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := trading.TradeStatus(req.Status)
		filter.Status = &status
	}

	trades, total, err := h.tradeService.ListTrades(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, trades, total, req.Page, req.PageSize)
}

// Complete confirms delivery and releases the escrowed funds to the seller
func (h *TradeHandler) Complete(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trade ID format")
		return
	}

	trade, err := h.tradeService.CompleteTrade(c.Request.Context(), tradingapp.CompleteTradeRequest{
		TradeID: tradeID,
		ActorID: actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trade)
}

// OpenDispute freezes an active trade pending resolution
func (h *TradeHandler) OpenDispute(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trade ID format")
		return
	}

	var req OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dispute, err := h.tradeService.OpenDispute(c.Request.Context(), tradingapp.OpenDisputeRequest{
		TradeID:     tradeID,
		ActorID:     actorID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dispute)
}

// Rate records the actor's rating of a completed trade
func (h *TradeHandler) Rate(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trade ID format")
		return
	}

	var req RateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.RateTrade(c.Request.Context(), tradingapp.RateTradeRequest{
		TradeID:  tradeID,
		ActorID:  actorID,
		Score:    req.Score,
		Feedback: req.Feedback,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trade)
}
