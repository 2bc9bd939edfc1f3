package stock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/poserr"
	"go-pos-checkout/internal/remote"
)

// ProductAPI is the remote product/stock contract.
type ProductAPI interface {
	GetStock(ctx context.Context, variantID string) (int64, error)
	UpdateStock(ctx context.Context, variantID string, update remote.StockUpdate) (int64, error)
}

// HistoryStore persists stock mutations.
type HistoryStore interface {
	Append(ctx context.Context, m *models.StockMutation) error
	ListByVariant(ctx context.Context, variantID string, limit int) ([]models.StockMutation, error)
}

// MutationRequest describes one stock change requested from an inventory screen.
type MutationRequest struct {
	VariantID string
	Action    models.StockAction
	Amount    int64
	Note      string
	ActorID   uint
}

// LedgerDeps bundles the collaborators of a Ledger.
type LedgerDeps struct {
	Products    ProductAPI
	History     HistoryStore
	Clock       func() time.Time
	IDGenerator func() string
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Ledger records stock mutations as before/after transitions.
type Ledger struct {
	products ProductAPI
	history  HistoryStore
	clock    func() time.Time
	newID    func() string
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewLedger(deps LedgerDeps) (*Ledger, error) {
	if deps.Products == nil {
		return nil, errors.New("stock ledger: product api is required")
	}
	if deps.History == nil {
		return nil, errors.New("stock ledger: history store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ledger{
		products: deps.Products,
		history:  deps.History,
		clock:    clock,
		newID:    newID,
		metrics:  deps.Metrics,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}, nil
}

// NextStock applies action to prev. Removal floors at zero and adjust is an
// absolute set.
func NextStock(action models.StockAction, prev, amount int64) int64 {
	switch action {
	case models.StockActionAdd:
		return prev + amount
	case models.StockActionRemove:
		if amount >= prev {
			return 0
		}
		return prev - amount
	case models.StockActionAdjust:
		return amount
	default:
		return prev
	}
}

// Mutate reads the current stock, pushes the transition to the product API
// and then records it. If the remote update fails nothing is recorded. Once
// the remote update succeeds the mutation is returned even if the local
// insert fails. Only one mutation per variant may be in flight.
func (l *Ledger) Mutate(ctx context.Context, req MutationRequest) (*models.StockMutation, error) {
	req.VariantID = strings.TrimSpace(req.VariantID)
	req.Note = strings.TrimSpace(req.Note)
	if err := validate(req); err != nil {
		return nil, err
	}

	release, err := l.acquire(req.VariantID)
	if err != nil {
		return nil, err
	}
	defer release()

	prev, err := l.products.GetStock(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}

	m := &models.StockMutation{
		ID:         l.newID(),
		VariantID:  req.VariantID,
		ActionType: req.Action,
		Amount:     req.Amount,
		PrevStock:  prev,
		CurrStock:  NextStock(req.Action, prev, req.Amount),
		Note:       req.Note,
		CreatedBy:  req.ActorID,
		CreatedAt:  l.clock().UTC(),
	}

	// 1. Apply it remotely; nothing is recorded when this fails
	reported, err := l.products.UpdateStock(ctx, m.VariantID, remote.StockUpdate{
		ActionType: m.ActionType,
		Amount:     m.Amount,
	})
	switch {
	case errors.Is(err, poserr.ErrMalformedResponse):
		l.logger.Warn("stock update accepted but response unreadable",
			zap.String("variant_id", m.VariantID),
			zap.Error(err),
		)
	case err != nil:
		l.metrics.ObserveStockMutation(string(m.ActionType), err)
		l.logger.Error("stock mutation failed",
			zap.String("variant_id", m.VariantID),
			zap.String("action", string(m.ActionType)),
			zap.Error(err),
		)
		return nil, err
	case reported != m.CurrStock:
		l.logger.Warn("remote stock differs from ledger",
			zap.String("variant_id", m.VariantID),
			zap.Int64("ledger_stock", m.CurrStock),
			zap.Int64("remote_stock", reported),
		)
	}
	l.metrics.ObserveStockMutation(string(m.ActionType), nil)

	// 2. Record it; the remote change stands even if this fails
	if err := l.history.Append(context.WithoutCancel(ctx), m); err != nil {
		l.metrics.ObserveUnrecordedMutation(string(m.ActionType))
		l.logger.Error("stock mutation applied remotely but not recorded locally",
			zap.String("mutation_id", m.ID),
			zap.String("variant_id", m.VariantID),
			zap.String("action", string(m.ActionType)),
			zap.Int64("amount", m.Amount),
			zap.Int64("prev_stock", m.PrevStock),
			zap.Int64("curr_stock", m.CurrStock),
			zap.Error(err),
		)
		return m, nil
	}

	l.logger.Info("stock mutation recorded",
		zap.String("mutation_id", m.ID),
		zap.String("variant_id", m.VariantID),
		zap.String("action", string(m.ActionType)),
		zap.Int64("prev_stock", m.PrevStock),
		zap.Int64("curr_stock", m.CurrStock),
	)
	return m, nil
}

// History lists recorded mutations for a variant, newest first.
func (l *Ledger) History(ctx context.Context, variantID string, limit int) ([]models.StockMutation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return l.history.ListByVariant(ctx, strings.TrimSpace(variantID), limit)
}

func (l *Ledger) acquire(variantID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.pending[variantID]; busy {
		return nil, poserr.Validation(poserr.ErrMutationPending, "")
	}
	l.pending[variantID] = struct{}{}

	return func() {
		l.mu.Lock()
		delete(l.pending, variantID)
		l.mu.Unlock()
	}, nil
}

func validate(req MutationRequest) error {
	if req.VariantID == "" {
		return poserr.Validation(poserr.ErrVariantRequired, "")
	}
	if !req.Action.Valid() {
		return poserr.Validation(poserr.ErrInvalidAction, "")
	}
	if req.Amount < 0 {
		return poserr.Validation(poserr.ErrInvalidAmount, "amount cannot be negative")
	}
	if req.Amount == 0 && req.Action != models.StockActionAdjust {
		return poserr.Validation(poserr.ErrInvalidAmount, "amount must be greater than zero")
	}
	return nil
}
