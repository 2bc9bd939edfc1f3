package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"go-pos-checkout/internal/models"
)

func TestStockHistoryXLSX(t *testing.T) {
	rows := []models.StockMutation{
		{ID: "01A", VariantID: "var-1", ActionType: models.StockActionAdd, Amount: 10, PrevStock: 2, CurrStock: 12, CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "01B", VariantID: "var-1", ActionType: models.StockActionRemove, Amount: 20, PrevStock: 12, CurrStock: 0, Note: "expired", CreatedBy: 3, CreatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, StockHistoryXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Previous Stock", got[0][4])
	assert.Equal(t, []string{"01B", "var-1", "remove_stock", "20", "12", "0", "expired", "3", "2025-03-02T09:00:00Z"}, got[2])
}

func TestStockHistoryXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, StockHistoryXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
