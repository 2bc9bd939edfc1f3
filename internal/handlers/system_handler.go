package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET: /health ---
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

// GetSystemStatus tells the front-end which device this is and what the
// checkout core is doing.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	state, _ := h.submitter.State()
	c.JSON(http.StatusOK, gin.H{
		"device_id":         h.deviceID,
		"tax_rate":          h.tax.Rate(),
		"checkout_state":    state,
		"assistant_enabled": h.assistant.Enabled(),
	})
}
