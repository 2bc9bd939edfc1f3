package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/poserr"
)

type taxSettingResponse struct {
	Tax float64 `json:"tax"`
}

// GetTaxRate reads the tax percentage from the settings endpoint.
func (c *Client) GetTaxRate(ctx context.Context) (float64, error) {
	var resp taxSettingResponse
	if err := c.do(ctx, http.MethodGet, "/settings/tax", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Tax, nil
}

// TransactionItem references one cart line by product and variant.
type TransactionItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note"`
}

// TransactionFee is an additional fee as sent to the API.
type TransactionFee struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// TransactionRequest is the body of POST /transactions.
type TransactionRequest struct {
	PaymentMethod  string            `json:"payment_method"`
	Items          []TransactionItem `json:"items"`
	Discount       int64             `json:"discount"`
	PaidAmount     int64             `json:"paid_amount"`
	CustomerName   string            `json:"customer_name,omitempty"`
	Note           string            `json:"note,omitempty"`
	AdditionalFees []TransactionFee  `json:"additional_fees"`
}

// TransactionResponse identifies the created transaction.
type TransactionResponse struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	CreatedAt     time.Time `json:"created_at"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts numeric or string identifiers and the common
// timestamp layouts. An unreadable created_at falls back to now.
func (r *TransactionResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            json.RawMessage `json:"id"`
		InvoiceNumber json.RawMessage `json:"invoice_number"`
		CreatedAt     json.RawMessage `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = looseString(raw.ID)
	r.InvoiceNumber = looseString(raw.InvoiceNumber)
	r.CreatedAt = time.Now().UTC()
	if createdAt := looseString(raw.CreatedAt); createdAt != "" {
		for _, layout := range createdAtLayouts {
			if t, err := time.Parse(layout, createdAt); err == nil {
				r.CreatedAt = t
				break
			}
		}
	}
	return nil
}

// looseString reads a JSON string, or the literal text of any other scalar.
func looseString(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return text
}

// CreateTransaction submits a sale. It is called exactly once per checkout.
func (c *Client) CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	c.logger.Debug("creating transaction",
		zap.String("payment_method", req.PaymentMethod),
		zap.Int("item_count", len(req.Items)),
		zap.Int64("paid_amount", req.PaidAmount),
	)

	var resp TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", req, &resp); err != nil {
		if !errors.Is(err, poserr.ErrMalformedResponse) {
			return nil, err
		}
		// A 2xx means the sale exists on the server.
		c.logger.Error("transaction accepted without a readable receipt", zap.Error(err))
		return &TransactionResponse{CreatedAt: time.Now().UTC()}, nil
	}

	c.logger.Info("transaction created",
		zap.String("transaction_id", resp.ID),
		zap.String("invoice_number", resp.InvoiceNumber),
	)
	return &resp, nil
}

type stockResponse struct {
	Stock int64 `json:"stock"`
}

// StockUpdate is the body of a stock mutation call.
type StockUpdate struct {
	ActionType models.StockAction `json:"action_type"`
	Amount     int64              `json:"amount"`
}

// GetStock returns the current stock of a product variant.
func (c *Client) GetStock(ctx context.Context, variantID string) (int64, error) {
	var resp stockResponse
	if err := c.do(ctx, http.MethodGet, stockPath(variantID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Stock, nil
}

// UpdateStock applies a stock mutation remotely and returns the stock the
// server reports afterwards.
func (c *Client) UpdateStock(ctx context.Context, variantID string, update StockUpdate) (int64, error) {
	var resp stockResponse
	if err := c.do(ctx, http.MethodPost, stockPath(variantID), update, &resp); err != nil {
		return 0, err
	}
	return resp.Stock, nil
}

func stockPath(variantID string) string {
	return "/products/variants/" + url.PathEscape(variantID) + "/stock"
}
