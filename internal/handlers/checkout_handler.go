package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pos-checkout/internal/poserr"
)

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	PaidAmount    int64  `json:"paid_amount" binding:"gte=0"`
}

// --- POST: /api/checkout ---
// Only one submission runs at a time. The remote call is detached from the
// request context so a dropped client cannot abort it half way.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment_method and paid_amount are required")
		return
	}

	if !h.submitting.CompareAndSwap(false, true) {
		h.respondError(c, poserr.Validation(poserr.ErrSubmissionInFlight, ""))
		return
	}
	defer h.submitting.Store(false)

	summary, err := h.submitter.Submit(context.WithoutCancel(c.Request.Context()), req.PaymentMethod, req.PaidAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/checkout/state ---
func (h *Handler) CheckoutState(c *gin.Context) {
	state, err := h.submitter.State()
	resp := gin.H{"state": state}
	if err != nil {
		resp["error"] = poserr.Message(err)
	}
	c.JSON(http.StatusOK, resp)
}
