package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/poserr"
	"go-pos-checkout/internal/remote"
)

// State is where the submitter is in the Idle → Submitting → Settled|Failed cycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSettled    State = "settled"
	StateFailed     State = "failed"
)

// TransactionAPI is the remote transaction-creation contract.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, req *remote.TransactionRequest) (*remote.TransactionResponse, error)
}

// SettlementPublisher is notified after a successful checkout.
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, s SettlementSummary) error
}

// SettlementSummary is handed back for receipt rendering. The core does
// not persist it.
type SettlementSummary struct {
	TransactionID string    `json:"transaction_id"`
	InvoiceNumber string    `json:"invoice_number"`
	TotalAmount   int64     `json:"total_amount"`
	PaidAmount    int64     `json:"paid_amount"`
	ChangeAmount  int64     `json:"change_amount"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitterDeps bundles the collaborators of a Submitter.
type SubmitterDeps struct {
	Cart    *cart.Ledger
	API     TransactionAPI
	Events  SettlementPublisher
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Submitter turns the cart into a remote transaction.
type Submitter struct {
	cart    *cart.Ledger
	api     TransactionAPI
	events  SettlementPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr error
}

func NewSubmitter(deps SubmitterDeps) (*Submitter, error) {
	if deps.Cart == nil {
		return nil, errors.New("checkout: cart ledger is required")
	}
	if deps.API == nil {
		return nil, errors.New("checkout: transaction api is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		cart:    deps.Cart,
		api:     deps.API,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logger,
		state:   StateIdle,
	}, nil
}

// State returns the current state and the error of the last failed submission.
func (s *Submitter) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// BuildRequest maps a cart snapshot onto the transaction-creation body.
func BuildRequest(snap cart.Snapshot, paymentMethod string, paidAmount int64) *remote.TransactionRequest {
	req := &remote.TransactionRequest{
		PaymentMethod:  paymentMethod,
		Items:          make([]remote.TransactionItem, 0, len(snap.Items)),
		Discount:       snap.Discount,
		PaidAmount:     paidAmount,
		CustomerName:   snap.CustomerName,
		Note:           snap.Note,
		AdditionalFees: make([]remote.TransactionFee, 0, len(snap.Fees)),
	}
	for _, item := range snap.Items {
		req.Items = append(req.Items, remote.TransactionItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Note:      item.Note,
		})
	}
	for _, fee := range snap.Fees {
		req.AdditionalFees = append(req.AdditionalFees, remote.TransactionFee{Name: fee.Name, Amount: fee.Amount})
	}
	return req
}

// Submit validates the payment, sends the transaction once and clears the
// cart only after the remote call succeeded. It never retries.
func (s *Submitter) Submit(ctx context.Context, paymentMethod string, paidAmount int64) (*SettlementSummary, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	snap := s.cart.Snapshot()
	total := cart.TotalAmount(snap)

	if err := validate(snap, paymentMethod, paidAmount, total); err != nil {
		s.logger.Info("checkout rejected locally",
			zap.Int64("total_amount", total),
			zap.Int64("paid_amount", paidAmount),
			zap.Error(err),
		)
		return nil, err
	}

	if !s.begin() {
		return nil, poserr.Validation(poserr.ErrSubmissionInFlight, "")
	}
	s.logger.Info("submitting transaction",
		zap.String("payment_method", paymentMethod),
		zap.Int("item_count", len(snap.Items)),
		zap.Int64("total_amount", total),
		zap.Int64("paid_amount", paidAmount),
	)

	resp, err := s.api.CreateTransaction(ctx, BuildRequest(snap, paymentMethod, paidAmount))
	if err != nil {
		s.setState(StateFailed, err)
		s.metrics.ObserveCheckout(total, err)
		s.logger.Error("transaction submission failed", zap.Error(err))
		return nil, err
	}

	summary := SettlementSummary{
		TransactionID: resp.ID,
		InvoiceNumber: resp.InvoiceNumber,
		TotalAmount:   total,
		PaidAmount:    paidAmount,
		ChangeAmount:  paidAmount - total,
		PaymentMethod: paymentMethod,
		CreatedAt:     resp.CreatedAt,
	}

	if summary.TransactionID == "" {
		s.logger.Warn("transaction settled without a transaction id; reconcile with the back-office",
			zap.Int64("total_amount", total),
			zap.Time("created_at", summary.CreatedAt),
		)
	}

	s.cart.Clear()
	s.setState(StateSettled, nil)
	s.metrics.ObserveCheckout(total, nil)

	if s.events != nil {
		if err := s.events.PublishSettlement(ctx, summary); err != nil {
			// Log but don't fail
			s.logger.Error("failed to publish settlement event",
				zap.String("transaction_id", summary.TransactionID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("transaction settled",
		zap.String("transaction_id", summary.TransactionID),
		zap.String("invoice_number", summary.InvoiceNumber),
		zap.Int64("change_amount", summary.ChangeAmount),
	)
	return &summary, nil
}

// begin moves to Submitting unless a submission is already running.
func (s *Submitter) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return false
	}
	s.state = StateSubmitting
	s.lastErr = nil
	return true
}

func (s *Submitter) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}

func validate(snap cart.Snapshot, paymentMethod string, paidAmount, total int64) error {
	if snap.IsEmpty() {
		return poserr.Validation(poserr.ErrEmptyCart, "")
	}
	if paymentMethod == "" {
		return poserr.Validation(poserr.ErrPaymentMethodRequired, "")
	}
	if paidAmount < total {
		return poserr.Validation(poserr.ErrInsufficientPayment, "")
	}
	return nil
}
