package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/checkout"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/poserr"
	"go-pos-checkout/internal/stock"
	"go-pos-checkout/internal/tax"
)

// UserStore looks up and creates terminal users.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// SessionSetter receives the back-office session token after login.
type SessionSetter interface {
	SetSessionToken(token string)
}

// StockReports serves the admin stock movement reports.
type StockReports interface {
	StockMovements(ctx context.Context, start, end time.Time) (*database.MovementReport, error)
	ListBetween(ctx context.Context, start, end time.Time, variantID string) ([]models.StockMutation, error)
}

// Deps bundles everything the HTTP layer calls into.
type Deps struct {
	Cart         *cart.Ledger
	Tax          *tax.Provider
	Submitter    *checkout.Submitter
	Stock        *stock.Ledger
	Reports      StockReports
	Users        UserStore
	Tokens       *auth.Manager
	Session      SessionSetter
	Assistant    *ai.Agent
	QuickAmounts []int64
	DeviceID     string
	Logger       *zap.Logger
}

// Handler serves the terminal front-end.
type Handler struct {
	cart         *cart.Ledger
	tax          *tax.Provider
	submitter    *checkout.Submitter
	stock        *stock.Ledger
	reports      StockReports
	users        UserStore
	tokens       *auth.Manager
	session      SessionSetter
	assistant    *ai.Agent
	quickAmounts []int64
	deviceID     string
	logger       *zap.Logger

	submitting atomic.Bool
}

func New(deps Deps) (*Handler, error) {
	switch {
	case deps.Cart == nil:
		return nil, errors.New("handlers: cart ledger is required")
	case deps.Tax == nil:
		return nil, errors.New("handlers: tax provider is required")
	case deps.Submitter == nil:
		return nil, errors.New("handlers: submitter is required")
	case deps.Stock == nil:
		return nil, errors.New("handlers: stock ledger is required")
	case deps.Reports == nil:
		return nil, errors.New("handlers: stock reports are required")
	case deps.Users == nil || deps.Tokens == nil:
		return nil, errors.New("handlers: user store and token manager are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cart:         deps.Cart,
		tax:          deps.Tax,
		submitter:    deps.Submitter,
		stock:        deps.Stock,
		reports:      deps.Reports,
		users:        deps.Users,
		tokens:       deps.Tokens,
		session:      deps.Session,
		assistant:    deps.Assistant,
		quickAmounts: deps.QuickAmounts,
		deviceID:     deps.DeviceID,
		logger:       logger.Named("handlers"),
	}, nil
}

// respondError maps a core error onto an HTTP status and a JSON body.
func (h *Handler) respondError(c *gin.Context, err error) {
	var perr *poserr.Error
	if !errors.As(err, &perr) {
		h.logger.Error("unhandled error", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch perr.Kind {
	case poserr.KindValidation:
		status = http.StatusBadRequest
		if errors.Is(err, poserr.ErrMutationPending) || errors.Is(err, poserr.ErrSubmissionInFlight) {
			status = http.StatusConflict
		}
	case poserr.KindRemoteRejection:
		status = http.StatusBadGateway
	case poserr.KindTransport:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": perr.Message, "code": perr.Code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "validation_error"})
}
