package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	"github.com/marketplace/backend/internal/domain/catalog"
)

// ItemHandler handles listing-related API endpoints
type ItemHandler struct {
	BaseHandler
	itemService *catalogapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *catalogapp.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// CreateItemRequest represents a request to list an item for sale
type CreateItemRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Category    string  `json:"category" binding:"omitempty,max=50"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
	Stock       int64   `json:"stock" binding:"required,gt=0"`
}

// ListItemsRequest represents the catalog query parameters
type ListItemsRequest struct {
	SellerID string `form:"seller_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=active sold inactive expired"`
	Category string `form:"category" binding:"omitempty,max=50"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create lists a new item for sale by the authenticated actor
func (h *ItemHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), catalogapp.CreateItemRequest{
		SellerID:    actorID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		UnitPrice:   toDecimal(req.UnitPrice),
		Stock:       req.Stock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// GetByID returns one listing
func (h *ItemHandler) GetByID(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.itemService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// List returns a filtered page of listings
func (h *ItemHandler) List(c *gin.Context) {
	var req ListItemsRequest
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

	filter := catalog.ItemFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.SellerID != "" {
		sellerID, err := uuid.Parse(req.SellerID)
		if err != nil {
			h.BadRequest(c, "Invalid seller ID format")
			return
		}
		filter.SellerID = &sellerID
	}
	if req.Status != "" {
		status := catalog.ItemStatus(req.Status)
		filter.Status = &status
	}
	if req.Category != "" {
		filter.Category = &req.Category
	}

	items, total, err := h.itemService.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// Deactivate withdraws a listing from sale
func (h *ItemHandler) Deactivate(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.itemService.DeactivateItem(c.Request.Context(), itemID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Reactivate puts a withdrawn listing back on sale
func (h *ItemHandler) Reactivate(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.itemService.ReactivateItem(c.Request.Context(), itemID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}
