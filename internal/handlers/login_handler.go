package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/poserr"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	// SessionToken is the back-office token the front-end signed in with.
	SessionToken string `json:"session_token"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin cashier"`
}

// --- POST: /login ---
// The tax rate needs an authenticated back-office session, so it is
// refreshed here rather than at startup.
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find user
	user, err := h.users.FindByUsername(c.Request.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if !errors.Is(err, database.ErrUserNotFound) {
			h.logger.Error("user lookup failed", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify password (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT
	token, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 5. Attach the back-office session and refresh the tax rate
	if input.SessionToken != "" && h.session != nil {
		h.session.SetSessionToken(input.SessionToken)
	}
	resp := gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"role":       user.Role,
		"username":   user.Username,
	}
	rate, err := h.tax.FetchTaxRate(c.Request.Context())
	if err != nil {
		h.logger.Warn("tax rate refresh after login failed", zap.Float64("cached_tax_rate", rate), zap.Error(err))
		resp["tax_rate_warning"] = poserr.Message(err)
	}
	resp["tax_rate"] = rate

	c.JSON(http.StatusOK, resp)
}

// --- POST: /register (feature flag) ---
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest

	// 1. Parse JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	role := input.Role
	if role == "" {
		role = auth.RoleAdmin
	}

	// 3. Save
	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User likely already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "id": user.ID, "role": user.Role})
}
