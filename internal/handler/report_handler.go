package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func wantsCSV(c *gin.Context) bool {
	return c.Query("format") == "csv"
}

// writeCSV streams rows as an attachment named file.
func (h *ReportHandler) writeCSV(c *gin.Context, file string, rows [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.WriteAll(rows); err != nil {
		h.logger.Warn("Failed to write csv report", zap.String("file", file), zap.Error(err))
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Revenue handles GET /reports/revenue?from=YYYY-MM&to=YYYY-MM&mall_id=&format=csv
func (h *ReportHandler) Revenue(c *gin.Context) {
	q := service.RevenueQuery{From: c.Query("from"), To: c.Query("to")}
	if v := c.Query("mall_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, h.logger, &model.ValidationError{Field: "mall_id", Message: "must be a positive integer"})
			return
		}
		q.MallID = &id
	}

	report, err := h.reports.Revenue(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !wantsCSV(c) {
		c.JSON(http.StatusOK, report)
		return
	}

	rows := [][]string{{"month", "total", "payments"}}
	for _, m := range report.Months {
		rows = append(rows, []string{m.Month, money(m.Total), strconv.FormatInt(m.Payments, 10)})
	}
	rows = append(rows, []string{"total", money(report.Total), ""})
	h.writeCSV(c, "revenue.csv", rows)
}

func (h *ReportHandler) Occupancy(c *gin.Context) {
	items, err := h.reports.Occupancy(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !wantsCSV(c) {
		c.JSON(http.StatusOK, gin.H{"items": items})
		return
	}

	rows := [][]string{{"mall_id", "mall_name", "total_shops", "occupied_shops", "occupancy_rate"}}
	for _, o := range items {
		rows = append(rows, []string{
			strconv.FormatInt(o.MallID, 10),
			o.MallName,
			strconv.FormatInt(o.TotalShops, 10),
			strconv.FormatInt(o.OccupiedShops, 10),
			money(o.OccupancyRate),
		})
	}
	h.writeCSV(c, "occupancy.csv", rows)
}

// Bookings handles GET /reports/bookings: one row per booking status.
func (h *ReportHandler) Bookings(c *gin.Context) {
	items, err := h.reports.BookingStatus(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !wantsCSV(c) {
		c.JSON(http.StatusOK, gin.H{"items": items})
		return
	}

	rows := [][]string{{"status", "count"}}
	for _, s := range items {
		rows = append(rows, []string{s.Status, strconv.FormatInt(s.Count, 10)})
	}
	h.writeCSV(c, "bookings.csv", rows)
}
