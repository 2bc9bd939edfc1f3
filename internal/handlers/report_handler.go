package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-checkout/internal/export"
)

const dateLayout = "2006-01-02"

// reportRange reads ?start=YYYY-MM-DD&end=YYYY-MM-DD, defaulting to the last
// 30 days. The end date is inclusive.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
	end := now

	if s := c.Query("start"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if e := c.Query("end"); e != "" {
		t, err := time.Parse(dateLayout, e)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end is before start")
	}
	return start, end, nil
}

// --- GET: /api/reports/stock-movements ---
func (h *Handler) GetStockMovements(c *gin.Context) {
	start, end, err := reportRange(c)
	if err != nil {
		badRequest(c, "Dates must be in YYYY-MM-DD format and end must not be before start")
		return
	}

	report, err := h.reports.StockMovements(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("stock movement report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/stock-movements/export ---
func (h *Handler) ExportStockMovements(c *gin.Context) {
	start, end, err := reportRange(c)
	if err != nil {
		badRequest(c, "Dates must be in YYYY-MM-DD format and end must not be before start")
		return
	}

	rows, err := h.reports.ListBetween(c.Request.Context(), start, end, c.Query("variant_id"))
	if err != nil {
		h.logger.Error("stock movement export query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock movements"})
		return
	}

	var buf bytes.Buffer
	if err := export.StockHistoryXLSX(&buf, rows); err != nil {
		h.logger.Error("stock movement export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
		return
	}

	filename := fmt.Sprintf("stock-movements-%s-%s.xlsx", start.Format(dateLayout), end.Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
