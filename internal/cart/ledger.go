package cart

import (
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// LineItem is one product/variant entry in the cart. Prices are in the
// minor currency unit.
type LineItem struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Note        string `json:"note,omitempty"`
}

// AdditionalFee is a flat add-on to the transaction, independent of items.
type AdditionalFee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Snapshot is the full state of a Ledger.
type Snapshot struct {
	Items        []LineItem      `json:"items"`
	Fees         []AdditionalFee `json:"fees"`
	Discount     int64           `json:"discount"`
	CustomerName string          `json:"customer_name"`
	Note         string          `json:"note"`
}

// IsEmpty reports whether the snapshot has no line items.
func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }

type itemKey struct {
	productID string
	variantID string
}

func keyOf(productID, variantID string) itemKey {
	return itemKey{productID: productID, variantID: variantID}
}

// Ledger is the in-memory cart of the running terminal. One instance is
// built at startup and handed to every consumer.
//
// The ledger does not validate quantities, prices or the discount; callers
// must check quantity > 0 before AddItem.
type Ledger struct {
	mu    sync.Mutex
	state Snapshot
	newID func() string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		newID: func() string { return ulid.Make().String() },
	}
}

// AddItem merges item into an existing line with the same
// (ProductID, VariantID) or appends it.
func (l *Ledger) AddItem(item LineItem) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(item.Note) == "" {
		item.Note = ""
	}
	if idx := l.indexOf(keyOf(item.ProductID, item.VariantID)); idx >= 0 {
		existing := &l.state.Items[idx]
		existing.Quantity += item.Quantity
		if item.Note != "" {
			existing.Note = item.Note
		}
		return
	}
	l.state.Items = append(l.state.Items, item)
}

// UpdateQuantity sets the quantity of a line; quantity <= 0 removes it.
func (l *Ledger) UpdateQuantity(productID, variantID string, quantity int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(keyOf(productID, variantID))
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		l.removeAt(idx)
		return
	}
	l.state.Items[idx].Quantity = quantity
}

// RemoveItem drops a line. Missing lines are ignored.
func (l *Ledger) RemoveItem(productID, variantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.indexOf(keyOf(productID, variantID)); idx >= 0 {
		l.removeAt(idx)
	}
}

// AddFee appends a fee and returns it. Fees are never merged; an empty ID
// is replaced by a generated one.
func (l *Ledger) AddFee(fee AdditionalFee) AdditionalFee {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(fee.ID) == "" {
		fee.ID = l.newID()
	}
	l.state.Fees = append(l.state.Fees, fee)
	return fee
}

// RemoveFee drops every fee with the given id.
func (l *Ledger) RemoveFee(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.state.Fees[:0]
	for _, fee := range l.state.Fees {
		if fee.ID != id {
			kept = append(kept, fee)
		}
	}
	l.state.Fees = kept
}

func (l *Ledger) SetDiscount(amount int64) {
	l.mu.Lock()
	l.state.Discount = amount
	l.mu.Unlock()
}

func (l *Ledger) SetCustomerName(name string) {
	l.mu.Lock()
	l.state.CustomerName = name
	l.mu.Unlock()
}

func (l *Ledger) SetNote(note string) {
	l.mu.Lock()
	l.state.Note = note
	l.mu.Unlock()
}

// Clear resets the ledger to the empty snapshot.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.state = Snapshot{}
	l.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyState()
}

// Totals computes every derived amount from one consistent read.
func (l *Ledger) Totals(taxRate float64) Totals {
	return ComputeTotals(l.Snapshot(), taxRate)
}

func (l *Ledger) Subtotal() int64 { return Subtotal(l.Snapshot().Items) }

func (l *Ledger) TotalFees() int64 { return TotalFees(l.Snapshot().Fees) }

// TotalAmount is subtotal + fees - discount, without tax.
func (l *Ledger) TotalAmount() int64 { return TotalAmount(l.Snapshot()) }

func (l *Ledger) TaxAmount(taxRate float64) int64 {
	s := l.Snapshot()
	return TaxAmount(Subtotal(s.Items), s.Discount, taxRate)
}

func (l *Ledger) TotalWithTax(taxRate float64) int64 {
	return l.Totals(taxRate).TotalWithTax
}

func (l *Ledger) indexOf(key itemKey) int {
	for i, item := range l.state.Items {
		if keyOf(item.ProductID, item.VariantID) == key {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(idx int) {
	l.state.Items = append(l.state.Items[:idx], l.state.Items[idx+1:]...)
}

func (l *Ledger) copyState() Snapshot {
	s := l.state
	s.Items = append([]LineItem(nil), l.state.Items...)
	s.Fees = append([]AdditionalFee(nil), l.state.Fees...)
	return s
}
