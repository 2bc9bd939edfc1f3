package cart

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Totals is the monetary breakdown of a snapshot.
type Totals struct {
	Subtotal     int64   `json:"subtotal"`
	TotalFees    int64   `json:"total_fees"`
	Discount     int64   `json:"discount"`
	TotalAmount  int64   `json:"total_amount"`
	TaxRate      float64 `json:"tax_rate"`
	TaxAmount    int64   `json:"tax_amount"`
	TotalWithTax int64   `json:"total_with_tax"`
}

// ComputeTotals derives every amount from s.
func ComputeTotals(s Snapshot, taxRate float64) Totals {
	subtotal := Subtotal(s.Items)
	fees := TotalFees(s.Fees)
	total := subtotal + fees - s.Discount
	tax := TaxAmount(subtotal, s.Discount, taxRate)

	return Totals{
		Subtotal:     subtotal,
		TotalFees:    fees,
		Discount:     s.Discount,
		TotalAmount:  total,
		TaxRate:      taxRate,
		TaxAmount:    tax,
		TotalWithTax: total + tax,
	}
}

func Subtotal(items []LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.UnitPrice * item.Quantity
	}
	return sum
}

func TotalFees(fees []AdditionalFee) int64 {
	var sum int64
	for _, fee := range fees {
		sum += fee.Amount
	}
	return sum
}

// TotalAmount is the amount shown on the payment screen. It excludes tax.
func TotalAmount(s Snapshot) int64 {
	return Subtotal(s.Items) + TotalFees(s.Fees) - s.Discount
}

// TaxAmount is round((subtotal - discount) * rate / 100). Fees are not taxed.
// Ties round toward positive infinity.
func TaxAmount(subtotal, discount int64, taxRate float64) int64 {
	if taxRate == 0 {
		return 0
	}
	base := decimal.NewFromInt(subtotal - discount)
	raw := base.Mul(decimal.NewFromFloat(taxRate)).Div(hundred)
	return raw.Add(half).Floor().IntPart()
}
