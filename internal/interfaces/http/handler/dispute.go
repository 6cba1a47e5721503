package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradingapp "github.com/marketplace/backend/internal/application/trading"
	"github.com/marketplace/backend/internal/domain/trading"
)

// DisputeHandler handles dispute-resolution API endpoints
type DisputeHandler struct {
	BaseHandler
	disputeService *tradingapp.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler(disputeService *tradingapp.DisputeService) *DisputeHandler {
	return &DisputeHandler{
		disputeService: disputeService,
	}
}

// ResolveDisputeRequest represents a request to settle an open dispute
type ResolveDisputeRequest struct {
	Resolution       string   `json:"resolution" binding:"required,oneof=refund_buyer release_to_seller partial_refund other"`
	Notes            string   `json:"notes" binding:"omitempty,max=2000"`
	RefundPercentage *float64 `json:"refund_percentage" binding:"omitempty,gte=0,lte=100"`
}

// ListDisputesRequest represents the dispute query parameters
type ListDisputesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=open resolved closed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Resolve settles an open dispute with the authenticated actor as resolver
func (h *DisputeHandler) Resolve(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid dispute ID format")
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := tradingapp.ResolveDisputeRequest{
		DisputeID:  disputeID,
		ResolvedBy: actorID,
		Resolution: req.Resolution,
		Notes:      req.Notes,
	}
	if req.RefundPercentage != nil {
		appReq.RefundPercentage = toDecimalPtr(*req.RefundPercentage)
	}

	dispute, err := h.disputeService.ResolveDispute(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dispute)
}

// GetByID returns one dispute. Visible to the trade's participants and to
// operators only.
func (h *DisputeHandler) GetByID(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid dispute ID format")
		return
	}

	dispute, err := h.disputeService.GetDispute(c.Request.Context(), disputeID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dispute)
}

// List returns a filtered page of disputes scoped to the actor's trades;
// operators see everything
func (h *DisputeHandler) List(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListDisputesRequest
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

	filter := trading.DisputeFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := trading.DisputeStatus(req.Status)
		filter.Status = &status
	}

	disputes, total, err := h.disputeService.ListDisputes(c.Request.Context(), actorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, disputes, total, req.Page, req.PageSize)
}
