package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-checkout/internal/poserr"
)

type TaxRateRequest struct {
	TaxRate *float64 `json:"tax_rate" binding:"required"`
}

// --- GET: /api/tax ---
func (h *Handler) GetTaxRate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tax_rate": h.tax.Rate()})
}

// --- POST: /api/tax/refresh ---
// On failure the cached rate stays in effect.
func (h *Handler) RefreshTaxRate(c *gin.Context) {
	rate, err := h.tax.FetchTaxRate(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax_rate": rate})
}

// --- PUT: /api/tax (admin) ---
func (h *Handler) SetTaxRate(c *gin.Context) {
	var req TaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "tax_rate is required")
		return
	}

	if err := h.tax.SetTaxRate(c.Request.Context(), *req.TaxRate); err != nil {
		if poserr.IsValidation(err) {
			h.respondError(c, err)
			return
		}
		h.logger.Error("failed to persist tax rate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tax rate applied but could not be saved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax_rate": h.tax.Rate()})
}
