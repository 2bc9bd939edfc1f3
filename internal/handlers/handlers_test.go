package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/checkout"
	"go-pos-checkout/internal/config"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/export"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/remote"
	"go-pos-checkout/internal/stock"
	"go-pos-checkout/internal/tax"
)

// backOffice fakes the remote POS API.
type backOffice struct {
	mu           sync.Mutex
	taxRate      float64
	stock        map[string]int64
	transactions []remote.TransactionRequest
	authHeaders  []string

	rejectTransaction string
	rejectStock       string
	txEntered         chan struct{}
	txRelease         chan struct{}
}

func (b *backOffice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/settings/tax":
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"tax": b.taxRate})

	case r.URL.Path == "/transactions":
		if b.txEntered != nil {
			b.txEntered <- struct{}{}
			<-b.txRelease
		}
		var req remote.TransactionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.transactions = append(b.transactions, req)
		if b.rejectTransaction != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": b.rejectTransaction})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "trx-1",
			"invoice_number": "INV-0001",
			"created_at":     "2025-03-01T10:30:00Z",
		})

	case strings.HasPrefix(r.URL.Path, "/products/variants/"):
		variantID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/products/variants/"), "/stock")
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			if b.rejectStock != "" {
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": b.rejectStock})
				return
			}
			var update remote.StockUpdate
			_ = json.NewDecoder(r.Body).Decode(&update)
			b.stock[variantID] = stock.NextStock(update.ActionType, b.stock[variantID], update.Amount)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"stock": b.stock[variantID]})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *backOffice) transactionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transactions)
}

type testEnv struct {
	router  *gin.Engine
	cart    *cart.Ledger
	tax     *tax.Provider
	tokens  *auth.Manager
	users   *database.UserStore
	history *database.StockHistory
	office  *backOffice
	cashier string
	admin   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	office := &backOffice{taxRate: 10, stock: map[string]int64{"var-1": 5}}
	srv := httptest.NewServer(office)
	t.Cleanup(srv.Close)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + name + "?mode=memory&cache=shared", MaxRetries: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	client := remote.NewClient(config.RemoteConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, "POS-TEST0001", nil)
	ledger := cart.NewLedger()
	taxProvider := tax.NewProvider(client, database.NewSettingsStore(db), nil)
	require.NoError(t, taxProvider.SetTaxRate(context.Background(), 10))

	submitter, err := checkout.NewSubmitter(checkout.SubmitterDeps{Cart: ledger, API: client})
	require.NoError(t, err)
	history := database.NewStockHistory(db)
	stockLedger, err := stock.NewLedger(stock.LedgerDeps{Products: client, History: history})
	require.NoError(t, err)

	users := database.NewUserStore(db)
	tokens := auth.NewManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})

	h, err := New(Deps{
		Cart:         ledger,
		Tax:          taxProvider,
		Submitter:    submitter,
		Stock:        stockLedger,
		Reports:      history,
		Users:        users,
		Tokens:       tokens,
		Session:      client,
		Assistant:    ai.NewAgent(config.AIConfig{}, &ai.Toolbox{}, nil),
		QuickAmounts: []int64{10000, 20000, 50000, 100000},
		DeviceID:     "POS-TEST0001",
	})
	require.NoError(t, err)

	r := gin.New()
	h.Routes(r, false)

	cashier, _, err := tokens.GenerateToken(2, auth.RoleCashier)
	require.NoError(t, err)
	admin, _, err := tokens.GenerateToken(1, auth.RoleAdmin)
	require.NoError(t, err)

	return &testEnv{
		router:  r,
		cart:    ledger,
		tax:     taxProvider,
		tokens:  tokens,
		users:   users,
		history: history,
		office:  office,
		cashier: cashier,
		admin:   admin,
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) fillCart(t *testing.T) {
	t.Helper()
	for _, item := range []map[string]any{
		{"product_id": "p1", "product_name": "Coffee", "quantity": 2, "unit_price": 10000},
		{"product_id": "p2", "variant_id": "v9", "product_name": "Tea", "quantity": 1, "unit_price": 10000},
	} {
		require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/cart/items", e.cashier, item).Code)
	}
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/cart/fees", e.cashier, map[string]any{"name": "Service", "amount": 2000}).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPut, "/api/cart/discount", e.cashier, map[string]any{"amount": 1000}).Code)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/cart", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/register", "", map[string]any{"username": "x", "password": "secret1"}).Code)
}

func TestLogin_RefreshesTaxRateWithSession(t *testing.T) {
	env := setupTestEnv(t)
	env.office.taxRate = 11
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.users.Create(context.Background(), &models.User{Username: "siti", PasswordHash: string(hash), Role: auth.RoleCashier}))

	w := env.do(http.MethodPost, "/login", "", map[string]any{"username": "siti", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/login", "", map[string]any{"username": "siti", "password": "s3cret", "session_token": "bo-session"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(11), body["tax_rate"])
	assert.Equal(t, auth.RoleCashier, body["role"])
	claims, err := env.tokens.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCashier, claims.Role)

	assert.Equal(t, 11.0, env.tax.Rate())
	assert.Contains(t, env.office.authHeaders, "Bearer bo-session")
}

func TestCartTotals(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t)

	w := env.do(http.MethodGet, "/api/cart", env.cashier, nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := decode[CartView](t, w)
	assert.Len(t, view.Cart.Items, 2)
	assert.Equal(t, cart.Totals{
		Subtotal:     30000,
		TotalFees:    2000,
		Discount:     1000,
		TotalAmount:  31000,
		TaxRate:      10,
		TaxAmount:    2900,
		TotalWithTax: 33900,
	}, view.Totals)
}

func TestCartMutations(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t)

	w := env.do(http.MethodPost, "/api/cart/items", env.cashier, map[string]any{"product_id": "p1", "product_name": "Coffee", "quantity": 0, "unit_price": 10000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/cart/items/quantity", env.cashier, map[string]any{"product_id": "p1", "quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(60000), decode[CartView](t, w).Totals.Subtotal)

	w = env.do(http.MethodPut, "/api/cart/items/quantity", env.cashier, map[string]any{"product_id": "p2", "variant_id": "v9", "quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[CartView](t, w).Cart.Items, 1)

	w = env.do(http.MethodDelete, "/api/cart/items?product_id=p1", env.cashier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[CartView](t, w).Cart.Items)

	feeID := env.cart.Snapshot().Fees[0].ID
	w = env.do(http.MethodDelete, "/api/cart/fees/"+feeID, env.cashier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[CartView](t, w).Cart.Fees)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/cart/discount", env.cashier, map[string]any{"amount": -5}).Code)

	env.do(http.MethodPut, "/api/cart/customer", env.cashier, map[string]any{"value": "  Budi "})
	env.do(http.MethodPut, "/api/cart/note", env.cashier, map[string]any{"value": "table 4"})
	snap := env.cart.Snapshot()
	assert.Equal(t, "Budi", snap.CustomerName)
	assert.Equal(t, "table 4", snap.Note)

	w = env.do(http.MethodDelete, "/api/cart", env.cashier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cart.Snapshot{}, decode[CartView](t, w).Cart)
}

func TestEvaluatePayment(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t)

	tests := []struct {
		name       string
		body       map[string]any
		status     int
		tendered   int64
		sufficient bool
		change     int64
	}{
		{"manual with separators", map[string]any{"mode": "manual", "tendered": "Rp 40.000"}, http.StatusOK, 40000, true, 9000},
		{"manual short", map[string]any{"mode": "manual", "tendered": "30999"}, http.StatusOK, 30999, false, 0},
		{"manual empty", map[string]any{"mode": "manual", "tendered": ""}, http.StatusOK, 0, false, 0},
		{"quick preset", map[string]any{"mode": "quick", "amount": 50000}, http.StatusOK, 50000, true, 19000},
		{"quick exact", map[string]any{"mode": "quick", "exact": true}, http.StatusOK, 31000, true, 0},
		{"quick unknown preset", map[string]any{"mode": "quick", "amount": 12345}, http.StatusBadRequest, 0, false, 0},
		{"unknown mode", map[string]any{"mode": "card"}, http.StatusBadRequest, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/payment/evaluate", env.cashier, tt.body)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}

			view := decode[PaymentView](t, w)
			assert.Equal(t, int64(31000), view.TotalDue)
			assert.Equal(t, tt.tendered, view.Tendered)
			assert.Equal(t, tt.sufficient, view.IsSufficient)
			assert.Equal(t, tt.change, view.Change)
			assert.Equal(t, []int64{31000, 50000, 100000}, view.Suggestions)
		})
	}

	assert.Len(t, env.cart.Snapshot().Items, 2)
}

func TestCheckout_InsufficientPayment(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t)

	w := env.do(http.MethodPost, "/api/checkout", env.cashier, map[string]any{"payment_method": "cash", "paid_amount": 30000})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient payment", decode[map[string]any](t, w)["error"])
	assert.Zero(t, env.office.transactionCount())
	assert.Len(t, env.cart.Snapshot().Items, 2)
}

func TestCheckout_Success(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t)

	w := env.do(http.MethodPost, "/api/checkout", env.cashier, map[string]any{"payment_method": "cash", "paid_amount": 40000})
	require.Equal(t, http.StatusOK, w.Code)

	summary := decode[checkout.SettlementSummary](t, w)
	assert.Equal(t, "INV-0001", summary.InvoiceNumber)
	assert.Equal(t, int64(31000), summary.TotalAmount)
	assert.Equal(t, int64(9000), summary.ChangeAmount)

	require.Equal(t, 1, env.office.transactionCount())
	sent := env.office.transactions[0]
	assert.Equal(t, int64(1000), sent.Discount)
	assert.Equal(t, []remote.TransactionFee{{Name: "Service", Amount: 2000}}, sent.AdditionalFees)
	assert.True(t, env.cart.Snapshot().IsEmpty())

	w = env.do(http.MethodGet, "/api/checkout/state", env.cashier, nil)
	assert.Equal(t, string(checkout.StateSettled), decode[map[string]any](t, w)["state"])
}

func TestCheckout_RemoteRejectionKeepsCart(t *testing.T) {
	env := setupTestEnv(t)
	env.office.rejectTransaction = "Stock for Tea is not enough"
	env.fillCart(t)

	w := env.do(http.MethodPost, "/api/checkout", env.cashier, map[string]any{"payment_method": "cash", "paid_amount": 40000})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Stock for Tea is not enough", decode[map[string]any](t, w)["error"])
	assert.Len(t, env.cart.Snapshot().Items, 2)
	assert.Equal(t, 1, env.office.transactionCount())
}

func TestCheckout_SecondSubmitWhileInFlight(t *testing.T) {
	env := setupTestEnv(t)
	env.office.txEntered = make(chan struct{})
	env.office.txRelease = make(chan struct{})
	env.fillCart(t)

	first := make(chan int, 1)
	go func() {
		first <- env.do(http.MethodPost, "/api/checkout", env.cashier, map[string]any{"payment_method": "cash", "paid_amount": 40000}).Code
	}()
	<-env.office.txEntered

	w := env.do(http.MethodPost, "/api/checkout", env.cashier, map[string]any{"payment_method": "cash", "paid_amount": 40000})
	assert.Equal(t, http.StatusConflict, w.Code)

	close(env.office.txRelease)
	assert.Equal(t, http.StatusOK, <-first)
	assert.Equal(t, 1, env.office.transactionCount())
}

func TestStockMutation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "remove_stock", "amount": 8, "note": "broken"})
	require.Equal(t, http.StatusCreated, w.Code)

	m := decode[models.StockMutation](t, w)
	assert.Equal(t, int64(5), m.PrevStock)
	assert.Equal(t, int64(0), m.CurrStock)
	assert.Equal(t, uint(2), m.CreatedBy)

	w = env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "adjust_stock", "amount": 17})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/stock/var-1/history", env.cashier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[map[string][]models.StockMutation](t, w)["history"]
	require.Len(t, history, 2)
	assert.Equal(t, models.StockActionAdjust, history[0].ActionType)
	assert.Equal(t, int64(0), history[0].PrevStock)
	assert.Equal(t, int64(17), history[0].CurrStock)
}

func TestStockMutation_Errors(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "steal_stock", "amount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "add_stock", "amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.office.rejectStock = "Variant is archived"
	w = env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "add_stock", "amount": 3})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Variant is archived", decode[map[string]any](t, w)["error"])

	records, err := env.history.ListByVariant(context.Background(), "var-1", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdminRoutes(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/tax", env.cashier, map[string]any{"tax_rate": 12.5}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/tax", env.admin, map[string]any{"tax_rate": 120}).Code)

	w := env.do(http.MethodPut, "/api/tax", env.admin, map[string]any{"tax_rate": 12.5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12.5, env.tax.Rate())

	w = env.do(http.MethodPost, "/api/ask", env.admin, map[string]any{"message": "how many lattes?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStockMovementReports(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/stock/var-1/mutations", env.cashier, map[string]any{"action_type": "add_stock", "amount": 4}).Code)

	w := env.do(http.MethodGet, "/api/reports/stock-movements", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[database.MovementReport](t, w)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, int64(4), report.Actions[0].NetChange)

	w = env.do(http.MethodGet, "/api/reports/stock-movements/export", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/reports/stock-movements?start=03-01-2025", env.admin, nil).Code)
}

func TestTaxRefreshFailureKeepsRate(t *testing.T) {
	env := setupTestEnv(t)
	env.office.taxRate = 250

	w := env.do(http.MethodPost, "/api/tax/refresh", env.cashier, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 10.0, env.tax.Rate())
}
