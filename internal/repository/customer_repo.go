package repository

import (
	"time"

	"billing-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) DB() *gorm.DB {
	return r.db
}

func (r *CustomerRepository) Create(c *models.Customer) error {
	return r.db.Create(c).Error
}

func (r *CustomerRepository) Update(c *models.Customer) error {
	return r.db.Save(c).Error
}

func (r *CustomerRepository) GetByID(id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail looks up a non-deleted customer by email. Used for the
// duplicate-email conflict check.
func (r *CustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// statusSelect derives the customer display status from its non-deleted
// invoices: any Overdue (or past-due Pending) wins, then Pending, then
// Partially Paid, then Paid when every invoice is paid, else New.
const statusSelect = `
	CASE
		WHEN SUM(CASE WHEN i.status = 'Overdue' OR (i.status = 'Pending' AND i.due_date < NOW()) THEN 1 ELSE 0 END) > 0 THEN 'Overdue'
		WHEN SUM(CASE WHEN i.status = 'Pending' THEN 1 ELSE 0 END) > 0 THEN 'Pending'
		WHEN SUM(CASE WHEN i.status = 'Partially Paid' THEN 1 ELSE 0 END) > 0 THEN 'Partially Paid'
		WHEN COUNT(i.id) > 0 AND SUM(CASE WHEN i.status = 'Paid' THEN 1 ELSE 0 END) = COUNT(i.id) THEN 'Paid'
		ELSE 'New'
	END AS status`

type CustomerFilter struct {
	Query       string
	Status      string
	DeletedOnly bool
	Offset      int
	Limit       int
}

// List returns customers with their derived status plus the total row count
// for pagination.
func (r *CustomerRepository) List(f CustomerFilter) ([]models.Customer, int64, error) {
	base := r.db.Model(&models.Customer{}).
		Select("customers.*, "+statusSelect).
		Joins("LEFT JOIN invoices i ON i.customer_id = customers.id AND i.deleted_at IS NULL").
		Group("customers.id")

	if f.DeletedOnly {
		base = base.Unscoped().Where("customers.deleted_at IS NOT NULL")
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		base = base.Where("customers.name ILIKE ? OR customers.email ILIKE ? OR customers.phone ILIKE ?", like, like, like)
	}

	sub := base.Session(&gorm.Session{})
	outer := r.db.Table("(?) AS sub", sub)
	if f.Status != "" {
		outer = outer.Where("sub.status = ?", f.Status)
	}

	var total int64
	if err := outer.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	err := outer.Order("sub.created_at DESC").Limit(f.Limit).Offset(f.Offset).Scan(&customers).Error
	return customers, total, err
}

// LoadAggregates fills the customer's billing aggregates and invoice summary
// list from its non-deleted invoices.
func (r *CustomerRepository) LoadAggregates(c *models.Customer) error {
	var invoices []models.Invoice
	if err := r.db.Where("customer_id = ?", c.ID).Order("created_at DESC").Find(&invoices).Error; err != nil {
		return err
	}

	agg := &models.CustomerAggregates{
		TotalBilled: decimal.Zero,
		TotalPaid:   decimal.Zero,
		TotalDue:    decimal.Zero,
		Invoices:    []models.InvoiceSummary{},
	}

	now := time.Now()
	for _, inv := range invoices {
		var paid decimal.Decimal
		row := r.db.Model(&models.Payment{}).
			Where("invoice_id = ?", inv.ID).
			Select("COALESCE(SUM(amount), 0)").Row()
		if err := row.Scan(&paid); err != nil {
			return err
		}

		status := inv.Status
		if inv.IsOverdue(now) {
			status = models.InvoiceStatusOverdue
		}

		agg.TotalBilled = agg.TotalBilled.Add(inv.TotalAmount)
		agg.TotalPaid = agg.TotalPaid.Add(paid)
		agg.Invoices = append(agg.Invoices, models.InvoiceSummary{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			DueDate:       inv.DueDate,
			TotalAmount:   inv.TotalAmount,
			DueAmount:     inv.TotalAmount.Sub(paid),
			Status:        status,
			CreatedAt:     inv.CreatedAt,
		})
	}
	agg.TotalDue = agg.TotalBilled.Sub(agg.TotalPaid)
	c.Aggregates = agg
	c.Status = CustomerStatusFromInvoices(agg.Invoices)
	return nil
}

// CustomerStatusFromInvoices derives the customer display status from its
// invoice summaries. Mirrors the SQL CASE used by List; summary statuses
// already carry the Overdue overlay.
func CustomerStatusFromInvoices(invoices []models.InvoiceSummary) string {
	if len(invoices) == 0 {
		return models.CustomerStatusNew
	}
	var pending, partial, paid int
	for _, inv := range invoices {
		switch inv.Status {
		case models.InvoiceStatusOverdue:
			return models.CustomerStatusOverdue
		case models.InvoiceStatusPending:
			pending++
		case models.InvoiceStatusPartiallyPaid:
			partial++
		case models.InvoiceStatusPaid:
			paid++
		}
	}
	switch {
	case pending > 0:
		return models.CustomerStatusPending
	case partial > 0:
		return models.CustomerStatusPartiallyPaid
	case paid == len(invoices):
		return models.CustomerStatusPaid
	}
	return models.CustomerStatusNew
}

func (r *CustomerRepository) BulkSoftDelete(ids []uuid.UUID) (int64, error) {
	res := r.db.Where("id IN ?", ids).Delete(&models.Customer{})
	return res.RowsAffected, res.Error
}

func (r *CustomerRepository) BulkRestore(ids []uuid.UUID) (int64, error) {
	res := r.db.Unscoped().Model(&models.Customer{}).
		Where("id IN ? AND deleted_at IS NOT NULL", ids).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}
