package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"go-pos-checkout/internal/models"
)

// StockHistory is the append-only stock mutation log.
type StockHistory struct {
	db *gorm.DB
}

func NewStockHistory(db *gorm.DB) *StockHistory {
	return &StockHistory{db: db}
}

// Append inserts one mutation record. Records are never updated.
func (h *StockHistory) Append(ctx context.Context, m *models.StockMutation) error {
	if err := h.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("stock history: insert: %w", err)
	}
	return nil
}

// ListByVariant returns the newest mutations for a variant first.
func (h *StockHistory) ListByVariant(ctx context.Context, variantID string, limit int) ([]models.StockMutation, error) {
	var out []models.StockMutation
	err := h.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
