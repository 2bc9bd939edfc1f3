package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"go-pos-checkout/internal/models"
)

const (
	sheetName   = "Stock Movements"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{"ID", "Variant", "Action", "Amount", "Previous Stock", "Current Stock", "Note", "Recorded By", "Recorded At"}

// StockHistoryXLSX writes the mutations as a single-sheet workbook.
func StockHistoryXLSX(w io.Writer, rows []models.StockMutation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "I1", bold); err != nil {
		return fmt.Errorf("export: style: %w", err)
	}

	for i, m := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.ID,
			m.VariantID,
			string(m.ActionType),
			m.Amount,
			m.PrevStock,
			m.CurrStock,
			m.Note,
			m.CreatedBy,
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "G", "G", 40); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
