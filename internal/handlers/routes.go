package handlers

import (
	"github.com/gin-gonic/gin"

	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/middleware"
)

// Routes mounts the public, staff and admin routes on r.
func (h *Handler) Routes(r gin.IRouter, allowRegistration bool) {
	r.GET("/health", h.Health)
	r.GET("/api/system/status", h.GetSystemStatus)
	r.POST("/login", h.Login)
	if allowRegistration {
		r.POST("/register", h.Register)
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.tokens))
	{
		// STAFF & ADMIN
		api.GET("/cart", h.GetCart)
		api.DELETE("/cart", h.ClearCart)
		api.POST("/cart/items", h.AddItem)
		api.PUT("/cart/items/quantity", h.UpdateItemQuantity)
		api.DELETE("/cart/items", h.RemoveItem)
		api.POST("/cart/fees", h.AddFee)
		api.DELETE("/cart/fees/:id", h.RemoveFee)
		api.PUT("/cart/discount", h.SetDiscount)
		api.PUT("/cart/customer", h.SetCustomerName)
		api.PUT("/cart/note", h.SetNote)

		api.GET("/tax", h.GetTaxRate)
		api.POST("/tax/refresh", h.RefreshTaxRate)

		api.POST("/payment/evaluate", h.EvaluatePayment)
		api.GET("/payment/quick-amounts", h.GetQuickAmounts)

		api.POST("/checkout", h.Checkout)
		api.GET("/checkout/state", h.CheckoutState)

		api.POST("/stock/:variantId/mutations", h.MutateStock)
		api.GET("/stock/:variantId/history", h.StockHistory)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.PUT("/tax", h.SetTaxRate)
			admin.GET("/reports/stock-movements", h.GetStockMovements)
			admin.GET("/reports/stock-movements/export", h.ExportStockMovements)
			admin.POST("/ask", h.AskAI)
		}
	}
}
