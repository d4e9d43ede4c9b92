package reports

import (
	"bytes"
	"fmt"
	"time"

	"billing-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Service answers dashboard and reporting queries. All queries exclude
// soft-deleted rows via gorm's default scope.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PercentChange computes the month-over-month change. A zero previous value
// maps to 100% when the current value is positive, else 0%.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.GreaterThan(decimal.Zero) {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
}

type DashboardStats struct {
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	RevenueChangePercent   decimal.Decimal `json:"revenue_change_percent"`
	TotalCustomers         int64           `json:"total_customers"`
	CustomersChangePercent decimal.Decimal `json:"customers_change_percent"`
	TotalInvoices          int64           `json:"total_invoices"`
	PendingInvoices        int64           `json:"pending_invoices"`
	TotalProducts          int64           `json:"total_products"`
}

// Dashboard compares the current month against the previous one.
func (s *Service) Dashboard(now time.Time) (*DashboardStats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	stats := &DashboardStats{}

	revenue, err := s.paidRevenueBetween(monthStart, now)
	if err != nil {
		return nil, err
	}
	lastRevenue, err := s.paidRevenueBetween(lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue
	stats.RevenueChangePercent = PercentChange(revenue, lastRevenue).Round(1)

	var customers, lastCustomers int64
	if err := s.db.Model(&models.Customer{}).
		Where("created_at >= ?", monthStart).Count(&customers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Customer{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastCustomers).Error; err != nil {
		return nil, err
	}
	stats.TotalCustomers = customers
	stats.CustomersChangePercent = PercentChange(
		decimal.NewFromInt(customers), decimal.NewFromInt(lastCustomers)).Round(1)

	if err := s.db.Model(&models.Invoice{}).Count(&stats.TotalInvoices).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusPending).
		Count(&stats.PendingInvoices).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Service) paidRevenueBetween(from, to time.Time) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	row := s.db.Model(&models.Invoice{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.InvoiceStatusPaid, from, to).
		Select("COALESCE(SUM(total_amount), 0)").Row()
	err := row.Scan(&revenue)
	return revenue, err
}

type MonthlySales struct {
	Month        string          `json:"month"`
	Revenue      decimal.Decimal `json:"revenue"`
	InvoiceCount int64           `json:"invoice_count"`
}

// SalesPerformance returns the last six months of paid revenue, including
// zero rows for months with no sales.
func (s *Service) SalesPerformance(now time.Time) ([]MonthlySales, error) {
	type row struct {
		YM      string
		Revenue decimal.Decimal
		Count   int64
	}
	var rows []row
	err := s.db.Model(&models.Invoice{}).
		Select("TO_CHAR(created_at, 'YYYY-MM') AS ym, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count").
		Where("status = ? AND created_at >= ?", models.InvoiceStatusPaid, now.AddDate(0, -6, 0)).
		Group("ym").Order("ym ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]row, len(rows))
	for _, r := range rows {
		byMonth[r.YM] = r
	}

	results := make([]MonthlySales, 0, 6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 5; i >= 0; i-- {
		m := monthStart.AddDate(0, -i, 0)
		r := byMonth[m.Format("2006-01")]
		revenue := r.Revenue
		if revenue.IsZero() {
			revenue = decimal.Zero
		}
		results = append(results, MonthlySales{
			Month:        m.Format("Jan 2006"),
			Revenue:      revenue,
			InvoiceCount: r.Count,
		})
	}
	return results, nil
}

type LatestInvoice struct {
	ID          string          `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueAmount   decimal.Decimal `json:"due_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Customer    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

// LatestInvoices returns the ten most recent invoices with customer info and
// outstanding amounts.
func (s *Service) LatestInvoices() ([]LatestInvoice, error) {
	type row struct {
		ID            string
		TotalAmount   decimal.Decimal
		AmountPaid    decimal.Decimal
		Status        string
		CreatedAt     time.Time
		CustomerID    string
		CustomerName  string
		CustomerPhone string
	}
	var rows []row
	err := s.db.Model(&models.Invoice{}).
		Select(`invoices.id, invoices.total_amount, invoices.status, invoices.created_at,
			c.id AS customer_id, c.name AS customer_name, c.phone AS customer_phone,
			COALESCE(SUM(p.amount), 0) AS amount_paid`).
		Joins("JOIN customers c ON c.id = invoices.customer_id").
		Joins("LEFT JOIN payments p ON p.invoice_id = invoices.id AND p.deleted_at IS NULL").
		Group("invoices.id, c.id, c.name, c.phone").
		Order("invoices.created_at DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]LatestInvoice, 0, len(rows))
	for _, r := range rows {
		li := LatestInvoice{
			ID:          r.ID,
			TotalAmount: r.TotalAmount,
			DueAmount:   r.TotalAmount.Sub(r.AmountPaid),
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
		}
		li.Customer.ID = r.CustomerID
		li.Customer.Name = r.CustomerName
		li.Customer.Phone = r.CustomerPhone
		out = append(out, li)
	}
	return out, nil
}

// periodExpr maps a report period to a postgres date_trunc unit.
func periodExpr(period string) string {
	switch period {
	case "daily":
		return "day"
	case "weekly":
		return "week"
	case "yearly":
		return "year"
	default:
		return "month"
	}
}

type PeriodRow struct {
	Period time.Time       `json:"period"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// SalesReport groups invoice totals by period between the optional bounds.
func (s *Service) SalesReport(start, end *time.Time, period string) ([]PeriodRow, error) {
	unit := periodExpr(period)
	query := s.db.Model(&models.Invoice{}).
		Select(fmt.Sprintf("DATE_TRUNC('%s', created_at) AS period, COALESCE(SUM(total_amount), 0) AS amount, COUNT(*) AS count", unit)).
		Group("period").Order("period ASC")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}
	var rows []PeriodRow
	err := query.Scan(&rows).Error
	return rows, err
}

// PaymentReport groups recorded payments by period.
func (s *Service) PaymentReport(start, end *time.Time, period string) ([]PeriodRow, error) {
	unit := periodExpr(period)
	query := s.db.Model(&models.Payment{}).
		Select(fmt.Sprintf("DATE_TRUNC('%s', payment_date) AS period, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count", unit)).
		Group("period").Order("period ASC")
	if start != nil {
		query = query.Where("payment_date >= ?", *start)
	}
	if end != nil {
		query = query.Where("payment_date <= ?", *end)
	}
	var rows []PeriodRow
	err := query.Scan(&rows).Error
	return rows, err
}

type AgingRow struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Current      decimal.Decimal `json:"current"`
	Days30       decimal.Decimal `json:"days_30"`
	Days60       decimal.Decimal `json:"days_60"`
	Days90Plus   decimal.Decimal `json:"days_90_plus"`
}

// CustomerAging buckets each customer's unpaid balances by how far past due
// they are.
func (s *Service) CustomerAging(now time.Time) ([]AgingRow, error) {
	type row struct {
		CustomerID   string
		CustomerName string
		DueAmount    decimal.Decimal
		DueDate      time.Time
	}
	var rows []row
	err := s.db.Model(&models.Invoice{}).
		Select(`c.id AS customer_id, c.name AS customer_name, invoices.due_date,
			invoices.total_amount - COALESCE(SUM(p.amount), 0) AS due_amount`).
		Joins("JOIN customers c ON c.id = invoices.customer_id").
		Joins("LEFT JOIN payments p ON p.invoice_id = invoices.id AND p.deleted_at IS NULL").
		Where("invoices.status <> ?", models.InvoiceStatusPaid).
		Group("c.id, c.name, invoices.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string]*AgingRow)
	order := []string{}
	for _, r := range rows {
		if r.DueAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		a, ok := byCustomer[r.CustomerID]
		if !ok {
			a = &AgingRow{CustomerID: r.CustomerID, CustomerName: r.CustomerName}
			byCustomer[r.CustomerID] = a
			order = append(order, r.CustomerID)
		}
		a.Outstanding = a.Outstanding.Add(r.DueAmount)

		days := int(now.Sub(r.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			a.Current = a.Current.Add(r.DueAmount)
		case days <= 30:
			a.Days30 = a.Days30.Add(r.DueAmount)
		case days <= 60:
			a.Days60 = a.Days60.Add(r.DueAmount)
		default:
			a.Days90Plus = a.Days90Plus.Add(r.DueAmount)
		}
	}

	out := make([]AgingRow, 0, len(order))
	for _, id := range order {
		out = append(out, *byCustomer[id])
	}
	return out, nil
}

type TopProduct struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	ProductCode  string          `json:"product_code"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TopProducts ranks products by quantity sold across non-deleted invoices.
func (s *Service) TopProducts(start, end *time.Time, limit int) ([]TopProduct, error) {
	query := s.db.Model(&models.InvoiceItem{}).
		Select(`p.id AS product_id, p.name, p.product_code,
			SUM(invoice_items.quantity) AS quantity_sold,
			COALESCE(SUM(invoice_items.total), 0) AS revenue`).
		Joins("JOIN products p ON p.id = invoice_items.product_id").
		Joins("JOIN invoices i ON i.id = invoice_items.invoice_id AND i.deleted_at IS NULL").
		Group("p.id, p.name, p.product_code").
		Order("quantity_sold DESC").
		Limit(limit)
	if start != nil {
		query = query.Where("invoice_items.created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("invoice_items.created_at <= ?", *end)
	}
	var rows []TopProduct
	err := query.Scan(&rows).Error
	return rows, err
}

type Summary struct {
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	InvoiceCount     int64           `json:"invoice_count"`
	CustomerCount    int64           `json:"customer_count"`
	ProductCount     int64           `json:"product_count"`
}

func (s *Service) Summary() (*Summary, error) {
	var sum Summary
	row := s.db.Model(&models.Invoice{}).Select("COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&sum.TotalBilled); err != nil {
		return nil, err
	}
	row = s.db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&sum.TotalCollected); err != nil {
		return nil, err
	}
	sum.TotalOutstanding = sum.TotalBilled.Sub(sum.TotalCollected)

	if err := s.db.Model(&models.Invoice{}).Count(&sum.InvoiceCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Customer{}).Count(&sum.CustomerCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Product{}).Count(&sum.ProductCount).Error; err != nil {
		return nil, err
	}
	return &sum, nil
}

// ExportSalesXLSX renders the sales report as a spreadsheet for download.
func (s *Service) ExportSalesXLSX(start, end *time.Time, period string) (*bytes.Buffer, error) {
	rows, err := s.SalesReport(start, end, period)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Period", "Invoice Count", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for i, r := range rows {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		_ = f.SetCellValue(sheet, cell, r.Period.Format("2006-01-02"))
		cell, _ = excelize.CoordinatesToCellName(2, rowNum)
		_ = f.SetCellValue(sheet, cell, r.Count)
		cell, _ = excelize.CoordinatesToCellName(3, rowNum)
		amount, _ := r.Amount.Float64()
		_ = f.SetCellValue(sheet, cell, amount)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
