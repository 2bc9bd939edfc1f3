package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-checkout/internal/middleware"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /api/ask (admin) ---
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	// 1. The assistant is optional
	if !h.assistant.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured on this terminal"})
		return
	}

	// 2. Run the agent
	reply, err := h.assistant.Ask(c.Request.Context(), req.Message, middleware.UserID(c))
	if err != nil {
		h.logger.Error("assistant failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant could not answer right now"})
		return
	}

	// 3. Return the answer
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
