package handler

import (
	"net/http"
	"strconv"
	"time"

	"billing-backend/internal/services/reports"
	"billing-backend/internal/services/scheduler"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports   *reports.Service
	scheduler *scheduler.Scheduler
}

func NewReportHandler(reportsSvc *reports.Service, sched *scheduler.Scheduler) *ReportHandler {
	return &ReportHandler{reports: reportsSvc, scheduler: sched}
}

// Dashboard bundles the headline stats, the six-month sales trend and the
// latest invoices into one response for the landing page.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	now := time.Now()

	stats, err := h.reports.Dashboard(now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute dashboard stats.", nil)
		return
	}
	performance, err := h.reports.SalesPerformance(now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute sales performance.", nil)
		return
	}
	latest, err := h.reports.LatestInvoices()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch latest invoices.", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "Dashboard stats retrieved successfully.", gin.H{
		"stats":             stats,
		"sales_performance": performance,
		"latest_invoices":   latest,
	}, nil)
}

// dateRange parses optional ?start=YYYY-MM-DD&end=YYYY-MM-DD bounds.
func dateRange(c *gin.Context) (start, end *time.Time, ok bool) {
	parse := func(key string) (*time.Time, bool) {
		raw := c.Query(key)
		if raw == "" {
			return nil, true
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error",
				"Invalid "+key+" date, expected YYYY-MM-DD.", nil)
			return nil, false
		}
		return &t, true
	}

	if start, ok = parse("start"); !ok {
		return nil, nil, false
	}
	if end, ok = parse("end"); !ok {
		return nil, nil, false
	}
	return start, end, true
}

func (h *ReportHandler) Sales(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.SalesReport(start, end, c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute sales report.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Sales report retrieved successfully.", rows, nil)
}

func (h *ReportHandler) Payments(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.PaymentReport(start, end, c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute payment report.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Payment report retrieved successfully.", rows, nil)
}

func (h *ReportHandler) Aging(c *gin.Context) {
	rows, err := h.reports.CustomerAging(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute aging report.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Customer aging report retrieved successfully.", rows, nil)
}

func (h *ReportHandler) TopProducts(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	rows, err := h.reports.TopProducts(start, end, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute top products.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Top products retrieved successfully.", rows, nil)
}

func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reports.Summary()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to compute summary.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Summary retrieved successfully.", summary, nil)
}

// ExportSales streams the sales report as an .xlsx download.
func (h *ReportHandler) ExportSales(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	buf, err := h.reports.ExportSalesXLSX(start, end, c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to export sales report.", nil)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="sales-report.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// TriggerOverdueCheck runs the daily overdue scan on demand (admin only).
func (h *ReportHandler) TriggerOverdueCheck(c *gin.Context) {
	notified, scanned := h.scheduler.CheckOverdueInvoices()
	respondSuccess(c, http.StatusOK, "Overdue invoice check completed.", gin.H{
		"overdue_found":      scanned,
		"reminders_notified": notified,
	}, nil)
}
