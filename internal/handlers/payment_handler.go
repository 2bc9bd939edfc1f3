package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pos-checkout/internal/payment"
	"go-pos-checkout/internal/poserr"
)

// EvaluatePaymentRequest carries either raw keypad input (manual mode), a
// preset amount or the exact shortcut (quick mode).
type EvaluatePaymentRequest struct {
	Mode     payment.Mode `json:"mode"`
	Tendered string       `json:"tendered"`
	Amount   int64        `json:"amount"`
	Exact    bool         `json:"exact"`
}

type PaymentView struct {
	payment.Outcome
	Suggestions []int64 `json:"suggestions"`
}

// --- POST: /api/payment/evaluate ---
// The total due is the cart's current TotalAmount. The cart is not touched.
func (h *Handler) EvaluatePayment(c *gin.Context) {
	var req EvaluatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	calc := payment.NewCalculator(h.cart.TotalAmount(), h.quickAmounts)

	var (
		outcome payment.Outcome
		err     error
	)
	switch req.Mode {
	case payment.ModeManual, "":
		outcome, err = calc.Enter(req.Tendered)
	case payment.ModeQuick:
		if req.Exact {
			outcome = calc.Exact()
		} else {
			outcome, err = calc.SelectQuick(req.Amount)
		}
	default:
		err = poserr.Validation(poserr.ErrInvalidAmount, "mode must be manual or quick")
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentView{Outcome: outcome, Suggestions: calc.Suggestions()})
}

// --- GET: /api/payment/quick-amounts ---
func (h *Handler) GetQuickAmounts(c *gin.Context) {
	calc := payment.NewCalculator(h.cart.TotalAmount(), h.quickAmounts)
	c.JSON(http.StatusOK, gin.H{
		"total_due":     calc.Outcome().TotalDue,
		"quick_amounts": calc.Palette(),
		"suggestions":   calc.Suggestions(),
	})
}
