package payment

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"go-pos-checkout/internal/poserr"
)

// Mode is how the tendered amount was entered.
type Mode string

const (
	// ModeManual is free-form numeric entry.
	ModeManual Mode = "manual"
	// ModeQuick is a preset amount or the exact-amount shortcut.
	ModeQuick Mode = "quick"
)

// DefaultQuickAmounts are round cash denominations.
var DefaultQuickAmounts = []int64{10000, 20000, 50000, 100000}

// Outcome is the result of comparing a tendered amount with the total due.
type Outcome struct {
	Mode         Mode  `json:"mode"`
	TotalDue     int64 `json:"total_due"`
	Tendered     int64 `json:"tendered"`
	IsSufficient bool  `json:"is_sufficient"`
	Change       int64 `json:"change"`
}

// Sanitize strips every non-digit from raw and parses the rest. An empty
// result is 0, so the returned amount is never negative.
func Sanitize(raw string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, poserr.Validation(poserr.ErrInvalidAmount, "tendered amount is too large")
	}
	return n, nil
}

func IsSufficient(totalDue, tendered int64) bool {
	return tendered >= totalDue
}

// Change is max(0, tendered - totalDue).
func Change(totalDue, tendered int64) int64 {
	if tendered <= totalDue {
		return 0
	}
	return tendered - totalDue
}

// Evaluate builds the Outcome for an already sanitized amount.
func Evaluate(mode Mode, totalDue, tendered int64) Outcome {
	return Outcome{
		Mode:         mode,
		TotalDue:     totalDue,
		Tendered:     tendered,
		IsSufficient: IsSufficient(totalDue, tendered),
		Change:       Change(totalDue, tendered),
	}
}

// Calculator holds the payment screen state for one total due. It never
// touches the cart.
type Calculator struct {
	totalDue int64
	tendered int64
	mode     Mode
	palette  []int64
}

// NewCalculator starts in manual mode with nothing tendered. A nil palette
// uses DefaultQuickAmounts.
func NewCalculator(totalDue int64, palette []int64) *Calculator {
	if len(palette) == 0 {
		palette = DefaultQuickAmounts
	}
	sorted := append([]int64(nil), palette...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &Calculator{totalDue: totalDue, mode: ModeManual, palette: sorted}
}

// Enter applies free-form input.
func (c *Calculator) Enter(raw string) (Outcome, error) {
	amount, err := Sanitize(raw)
	if err != nil {
		return c.Outcome(), err
	}
	c.tendered = amount
	c.mode = ModeManual
	return c.Outcome(), nil
}

// SelectQuick tenders one of the preset amounts. Amounts outside the palette
// are rejected.
func (c *Calculator) SelectQuick(amount int64) (Outcome, error) {
	for _, preset := range c.palette {
		if preset == amount {
			c.tendered = amount
			c.mode = ModeQuick
			return c.Outcome(), nil
		}
	}
	return c.Outcome(), poserr.Validation(poserr.ErrInvalidAmount, "amount is not a quick amount")
}

// Exact tenders exactly the total due.
func (c *Calculator) Exact() Outcome {
	c.tendered = c.totalDue
	c.mode = ModeQuick
	return c.Outcome()
}

func (c *Calculator) Outcome() Outcome {
	return Evaluate(c.mode, c.totalDue, c.tendered)
}

func (c *Calculator) Palette() []int64 {
	return append([]int64(nil), c.palette...)
}

// Suggestions lists the exact amount followed by every preset that covers
// the total due.
func (c *Calculator) Suggestions() []int64 {
	out := []int64{c.totalDue}
	for _, preset := range c.palette {
		if preset > c.totalDue {
			out = append(out, preset)
		}
	}
	return out
}

// ParsePalette reads a comma separated list of amounts, ignoring blanks.
func ParsePalette(raw string) ([]int64, error) {
	var out []int64
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil || n <= 0 {
			return nil, poserr.Validation(poserr.ErrInvalidAmount, "invalid quick amount "+strconv.Quote(field))
		}
		out = append(out, n)
	}
	return out, nil
}
