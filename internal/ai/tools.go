package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/generative-ai-go/genai"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/poserr"
	"go-pos-checkout/internal/stock"
)

const (
	toolCheckStock     = "check_stock"
	toolStockHistory   = "get_stock_history"
	toolMutateStock    = "record_stock_mutation"
	toolStockMovements = "get_stock_movements"
)

// StockReader reads live stock from the product API.
type StockReader interface {
	GetStock(ctx context.Context, variantID string) (int64, error)
}

// StockLedger records and lists stock mutations.
type StockLedger interface {
	Mutate(ctx context.Context, req stock.MutationRequest) (*models.StockMutation, error)
	History(ctx context.Context, variantID string, limit int) ([]models.StockMutation, error)
}

// MovementReporter aggregates recorded mutations.
type MovementReporter interface {
	StockMovements(ctx context.Context, start, end time.Time) (*database.MovementReport, error)
}

// Toolbox executes the function calls the model asks for.
type Toolbox struct {
	Stock   StockReader
	Ledger  StockLedger
	Reports MovementReporter
}

func declarations() []*genai.FunctionDeclaration {
	variantParam := &genai.Schema{Type: genai.TypeString, Description: "ID of the product variant"}

	return []*genai.FunctionDeclaration{
		{
			Name:        toolCheckStock,
			Description: "Get the current stock count of a product variant.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"variant_id": variantParam},
				Required:   []string{"variant_id"},
			},
		},
		{
			Name:        toolStockHistory,
			Description: "List the most recent stock changes of a variant, newest first. Each entry has prev_stock and curr_stock.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"variant_id": variantParam,
					"limit":      {Type: genai.TypeInteger, Description: "How many entries to return (default 10)"},
				},
				Required: []string{"variant_id"},
			},
		},
		{
			Name:        toolMutateStock,
			Description: "Change the stock of a variant. add_stock and remove_stock are relative, adjust_stock sets the absolute count.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"variant_id":  variantParam,
					"action_type": {Type: genai.TypeString, Enum: []string{string(models.StockActionAdd), string(models.StockActionRemove), string(models.StockActionAdjust)}},
					"amount":      {Type: genai.TypeInteger, Description: "Quantity to add or remove, or the new absolute count"},
					"note":        {Type: genai.TypeString, Description: "Reason for the change"},
				},
				Required: []string{"variant_id", "action_type", "amount"},
			},
		},
		{
			Name:        toolStockMovements,
			Description: "Summarise stock changes by action type for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
	}
}

// Execute runs one function call on behalf of actorID. Failures are reported
// back to the model as an "error" field rather than aborting the chat.
func (t *Toolbox) Execute(ctx context.Context, call genai.FunctionCall, actorID uint) map[string]any {
	switch call.Name {
	case toolCheckStock:
		variantID := stringArg(call.Args, "variant_id")
		current, err := t.Stock.GetStock(ctx, variantID)
		if err != nil {
			return errorResult(err)
		}
		return map[string]any{"variant_id": variantID, "stock": current}

	case toolStockHistory:
		n, err := intArg(call.Args, "limit")
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		limit := int(n)
		if limit <= 0 {
			limit = 10
		}
		records, err := t.Ledger.History(ctx, stringArg(call.Args, "variant_id"), limit)
		if err != nil {
			return errorResult(err)
		}
		return map[string]any{"history": records}

	case toolMutateStock:
		amount, err := intArg(call.Args, "amount")
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		m, err := t.Ledger.Mutate(context.WithoutCancel(ctx), stock.MutationRequest{
			VariantID: stringArg(call.Args, "variant_id"),
			Action:    models.StockAction(stringArg(call.Args, "action_type")),
			Amount:    amount,
			Note:      stringArg(call.Args, "note"),
			ActorID:   actorID,
		})
		if err != nil {
			return errorResult(err)
		}
		return map[string]any{"status": "recorded", "prev_stock": m.PrevStock, "curr_stock": m.CurrStock, "mutation_id": m.ID}

	case toolStockMovements:
		start, err1 := time.Parse("2006-01-02", stringArg(call.Args, "start_date"))
		end, err2 := time.Parse("2006-01-02", stringArg(call.Args, "end_date"))
		if err1 != nil || err2 != nil {
			return map[string]any{"error": "Dates must be in YYYY-MM-DD format."}
		}
		report, err := t.Reports.StockMovements(ctx, start, endOfDay(end))
		if err != nil {
			return errorResult(err)
		}
		return map[string]any{"actions": report.Actions}

	default:
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	}
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": poserr.Message(err)}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg accepts the float64 JSON numbers the model sends. A missing value
// is 0; a fractional or non-numeric one is an error.
func intArg(args map[string]any, key string) (int64, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 9e18 {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
}
