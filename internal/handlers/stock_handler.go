package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/stock"
)

type StockMutationRequest struct {
	ActionType models.StockAction `json:"action_type" binding:"required"`
	Amount     int64              `json:"amount"`
	Note       string             `json:"note"`
}

// --- POST: /api/stock/:variantId/mutations ---
func (h *Handler) MutateStock(c *gin.Context) {
	var req StockMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action_type is required")
		return
	}

	m, err := h.stock.Mutate(context.WithoutCancel(c.Request.Context()), stock.MutationRequest{
		VariantID: c.Param("variantId"),
		Action:    req.ActionType,
		Amount:    req.Amount,
		Note:      req.Note,
		ActorID:   middleware.UserID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// --- GET: /api/stock/:variantId/history?limit= ---
func (h *Handler) StockHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.stock.History(c.Request.Context(), c.Param("variantId"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if records == nil {
		records = []models.StockMutation{}
	}

	c.JSON(http.StatusOK, gin.H{"history": records})
}
