package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-pos-checkout/internal/cart"
)

type CartView struct {
	Cart   cart.Snapshot `json:"cart"`
	Totals cart.Totals   `json:"totals"`
}

type AddItemRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	VariantID   string `json:"variant_id"`
	ProductName string `json:"product_name" binding:"required"`
	VariantName string `json:"variant_name"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice   int64  `json:"unit_price" binding:"gte=0"`
	Note        string `json:"note"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type AddFeeRequest struct {
	Name   string `json:"name" binding:"required"`
	Amount int64  `json:"amount" binding:"gte=0"`
}

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"gte=0"`
}

type TextRequest struct {
	Value string `json:"value"`
}

func (h *Handler) cartView() CartView {
	snap := h.cart.Snapshot()
	return CartView{Cart: snap, Totals: cart.ComputeTotals(snap, h.tax.Rate())}
}

// --- GET: /api/cart ---
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartView())
}

// --- POST: /api/cart/items ---
func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id, product_name and a quantity greater than zero are required")
		return
	}

	h.cart.AddItem(cart.LineItem{
		ProductID:   strings.TrimSpace(req.ProductID),
		VariantID:   strings.TrimSpace(req.VariantID),
		ProductName: req.ProductName,
		VariantName: req.VariantName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Note:        req.Note,
	})
	c.JSON(http.StatusOK, h.cartView())
}

// --- PUT: /api/cart/items/quantity ---
// A quantity of zero or less removes the line.
func (h *Handler) UpdateItemQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}

	h.cart.UpdateQuantity(strings.TrimSpace(req.ProductID), strings.TrimSpace(req.VariantID), req.Quantity)
	c.JSON(http.StatusOK, h.cartView())
}

// --- DELETE: /api/cart/items?product_id=&variant_id= ---
func (h *Handler) RemoveItem(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("product_id"))
	if productID == "" {
		badRequest(c, "product_id is required")
		return
	}

	h.cart.RemoveItem(productID, strings.TrimSpace(c.Query("variant_id")))
	c.JSON(http.StatusOK, h.cartView())
}

// --- POST: /api/cart/fees ---
func (h *Handler) AddFee(c *gin.Context) {
	var req AddFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and a non-negative amount are required")
		return
	}

	fee := h.cart.AddFee(cart.AdditionalFee{Name: strings.TrimSpace(req.Name), Amount: req.Amount})
	c.JSON(http.StatusCreated, gin.H{"fee": fee, "cart": h.cartView()})
}

// --- DELETE: /api/cart/fees/:id ---
func (h *Handler) RemoveFee(c *gin.Context) {
	h.cart.RemoveFee(c.Param("id"))
	c.JSON(http.StatusOK, h.cartView())
}

// --- PUT: /api/cart/discount ---
func (h *Handler) SetDiscount(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "discount must be a non-negative amount")
		return
	}

	h.cart.SetDiscount(req.Amount)
	c.JSON(http.StatusOK, h.cartView())
}

// --- PUT: /api/cart/customer ---
func (h *Handler) SetCustomerName(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	h.cart.SetCustomerName(strings.TrimSpace(req.Value))
	c.JSON(http.StatusOK, h.cartView())
}

// --- PUT: /api/cart/note ---
func (h *Handler) SetNote(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	h.cart.SetNote(req.Value)
	c.JSON(http.StatusOK, h.cartView())
}

// --- DELETE: /api/cart ---
func (h *Handler) ClearCart(c *gin.Context) {
	h.cart.Clear()
	c.JSON(http.StatusOK, h.cartView())
}
