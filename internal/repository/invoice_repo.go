package repository

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"billing-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

func (r *InvoiceRepository) Create(tx *gorm.DB, inv *models.Invoice) error {
	return tx.Create(inv).Error
}

func (r *InvoiceRepository) Update(inv *models.Invoice) error {
	return r.db.Save(inv).Error
}

// GetByID fetches a single invoice with its payment aggregates filled in.
func (r *InvoiceRepository) GetByID(id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.fillAggregates(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetDetailed loads the invoice together with customer, items (with product)
// and payments.
func (r *InvoiceRepository) GetDetailed(id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.
		Preload("Customer").
		Preload("Items.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date DESC")
		}).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := r.fillAggregates(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) fillAggregates(inv *models.Invoice) error {
	paid, err := r.SumPayments(inv.ID)
	if err != nil {
		return err
	}
	inv.AmountPaid = paid
	inv.DueAmount = inv.TotalAmount.Sub(paid)
	return nil
}

// SumPayments returns the total of all non-deleted payments on an invoice.
func (r *InvoiceRepository) SumPayments(invoiceID uuid.UUID) (decimal.Decimal, error) {
	var paid decimal.Decimal
	row := r.db.Model(&models.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Select("COALESCE(SUM(amount), 0)").Row()
	err := row.Scan(&paid)
	return paid, err
}

type InvoiceFilter struct {
	CustomerID  *uuid.UUID
	Status      string
	Query       string
	DeletedOnly bool
	Offset      int
	Limit       int
}

func (r *InvoiceRepository) List(f InvoiceFilter) ([]models.Invoice, int64, error) {
	query := r.db.Model(&models.Invoice{}).Preload("Customer")
	if f.DeletedOnly {
		query = query.Unscoped().Where("invoices.deleted_at IS NOT NULL")
	}
	if f.CustomerID != nil {
		query = query.Where("invoices.customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		query = query.Where("invoices.status = ?", f.Status)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		query = query.
			Joins("JOIN customers c ON c.id = invoices.customer_id").
			Where("invoices.invoice_number ILIKE ? OR c.name ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []models.Invoice
	if err := query.Order("invoices.created_at DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	for i := range invoices {
		if err := r.fillAggregates(&invoices[i]); err != nil {
			return nil, 0, err
		}
	}
	return invoices, total, nil
}

// ItemsByInvoice returns the invoice's line items with product info attached.
func (r *InvoiceRepository) ItemsByInvoice(invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := r.db.Preload("Product").Where("invoice_id = ?", invoiceID).Find(&items).Error
	return items, err
}

func (r *InvoiceRepository) DeleteItems(tx *gorm.DB, invoiceID uuid.UUID) error {
	return tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error
}

func (r *InvoiceRepository) CreateItem(tx *gorm.DB, item *models.InvoiceItem) error {
	return tx.Create(item).Error
}

// FindOverdue returns non-deleted invoices past their due date that are not
// fully paid. Used by the daily scheduler scan.
func (r *InvoiceRepository) FindOverdue(now time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Preload("Customer").
		Where("due_date < ? AND status IN ?", now,
			[]string{models.InvoiceStatusPending, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue}).
		Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepository) BulkSoftDelete(ids []uuid.UUID) (int64, error) {
	res := r.db.Where("id IN ?", ids).Delete(&models.Invoice{})
	return res.RowsAffected, res.Error
}

func (r *InvoiceRepository) BulkRestore(ids []uuid.UUID) (int64, error) {
	res := r.db.Unscoped().Model(&models.Invoice{}).
		Where("id IN ? AND deleted_at IS NOT NULL", ids).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}

// NextInvoiceNumber generates "INV-YYYYMM-<CODE>-<SEQ>" where CODE is a short
// hash of the customer id and SEQ a zero-padded global sequence.
func (r *InvoiceRepository) NextInvoiceNumber(customerID uuid.UUID, now time.Time) (string, error) {
	var maxSeq *int
	row := r.db.Unscoped().Model(&models.Invoice{}).
		Where("invoice_number LIKE 'INV-%'").
		Select(`MAX(CAST(SPLIT_PART(invoice_number, '-', 4) AS INTEGER))`).Row()
	if err := row.Scan(&maxSeq); err != nil && !strings.Contains(err.Error(), "converting NULL") {
		return "", err
	}

	seq := 1
	if maxSeq != nil {
		seq = *maxSeq + 1
	}
	return fmt.Sprintf("INV-%s-%s-%03d", now.Format("200601"), ShortCustomerCode(customerID), seq), nil
}

// ShortCustomerCode derives a stable 4-character code from a customer id for
// embedding in invoice numbers.
func ShortCustomerCode(customerID uuid.UUID) string {
	sum := md5.Sum([]byte(customerID.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:4])
}
