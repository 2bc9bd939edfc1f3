package database

import (
	"context"
	"time"

	"go-pos-checkout/internal/models"
)

// MovementSummary aggregates stock mutations of one action type.
type MovementSummary struct {
	ActionType  models.StockAction `json:"action_type"`
	Count       int64              `json:"count"`
	TotalAmount int64              `json:"total_amount"`
	NetChange   int64              `json:"net_change"`
}

// MovementReport covers every action type recorded in a date range.
type MovementReport struct {
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Actions []MovementSummary `json:"actions"`
}

// StockMovements summarises mutations recorded between start and end.
func (h *StockHistory) StockMovements(ctx context.Context, start, end time.Time) (*MovementReport, error) {
	report := &MovementReport{Start: start, End: end}

	// COALESCE ensures 0 instead of NULL for empty groups
	err := h.db.WithContext(ctx).Model(&models.StockMutation{}).
		Select("action_type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(curr_stock - prev_stock), 0) AS net_change").
		Where("created_at BETWEEN ? AND ?", start, end).
		Group("action_type").
		Order("action_type").
		Scan(&report.Actions).Error
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListBetween returns mutations recorded between start and end, oldest
// first. An empty variantID matches every variant.
func (h *StockHistory) ListBetween(ctx context.Context, start, end time.Time, variantID string) ([]models.StockMutation, error) {
	q := h.db.WithContext(ctx).Where("created_at BETWEEN ? AND ?", start, end)
	if variantID != "" {
		q = q.Where("variant_id = ?", variantID)
	}

	var out []models.StockMutation
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
