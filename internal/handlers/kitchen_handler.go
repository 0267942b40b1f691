package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"kitchen_console/internal/models"
	"kitchen_console/internal/services"

	"github.com/gin-gonic/gin"
)

type KitchenHandler struct {
	kitchenService services.KitchenService
	healthCheck    func(ctx context.Context) error
}

// NewKitchenHandler wires the kitchen endpoints. healthCheck may be nil.
func NewKitchenHandler(kitchenService services.KitchenService, healthCheck func(ctx context.Context) error) *KitchenHandler {
	return &KitchenHandler{
		kitchenService: kitchenService,
		healthCheck:    healthCheck,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterRoutes mounts the kitchen API on router.
func (h *KitchenHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/healthz", h.Health)

	kitchen := router.Group("/api/kitchen")
	{
		kitchen.GET("/pending-items", h.GetPendingItems)
		kitchen.GET("/receipts", h.GetReceipts)
		kitchen.PUT("/receipts/:receipt_id/items/:item_id/status", h.UpdateItemStatus)
		kitchen.POST("/receipts/:receipt_id/complete", h.CompleteReceipt)
	}
}

func (h *KitchenHandler) GetPendingItems(c *gin.Context) {
	items, err := h.kitchenService.GetPendingItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *KitchenHandler) GetReceipts(c *gin.Context) {
	receipts, err := h.kitchenService.GetReceipts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (h *KitchenHandler) UpdateItemStatus(c *gin.Context) {
	receiptID, ok := parseID(c, "receipt_id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	status, err := models.ParseReceiptItemStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.kitchenService.UpdateItemStatus(c.Request.Context(), receiptID, itemID, status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt_id": receiptID,
		"item_id":    itemID,
		"status":     status,
	})
}

func (h *KitchenHandler) CompleteReceipt(c *gin.Context) {
	receiptID, ok := parseID(c, "receipt_id")
	if !ok {
		return
	}

	if err := h.kitchenService.CompleteReceipt(c.Request.Context(), receiptID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt_id": receiptID,
		"status":     "completed",
	})
}

func (h *KitchenHandler) Health(c *gin.Context) {
	if h.healthCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.healthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors to status codes. Anything unrecognised
// is logged and reported as an internal error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReceiptNotFound), errors.Is(err, services.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTransitionNotAllowed),
		errors.Is(err, services.ErrReceiptNotReady),
		errors.Is(err, services.ErrReceiptCompleted),
		errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		loggerFrom(c).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
