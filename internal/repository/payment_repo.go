package repository

import (
	"errors"

	"billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByTransactionID looks up a payment by its gateway merchant transaction
// id. Returns (nil, nil) when none exists — this is the webhook idempotency
// check, not an error path.
func (r *PaymentRepository) FindByTransactionID(transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByInvoice(invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("invoice_id = ?", invoiceID).
		Order("payment_date DESC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) List(offset, limit int) ([]models.Payment, int64, error) {
	var total int64
	if err := r.db.Model(&models.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var payments []models.Payment
	err := r.db.Order("payment_date DESC").Limit(limit).Offset(offset).Find(&payments).Error
	return payments, total, err
}

// Search matches payments by reference number, transaction id or the joined
// invoice number.
func (r *PaymentRepository) Search(term string) ([]models.Payment, error) {
	like := "%" + term + "%"
	var payments []models.Payment
	err := r.db.
		Joins("JOIN invoices i ON i.id = payments.invoice_id").
		Where("payments.reference_no ILIKE ? OR payments.transaction_id ILIKE ? OR i.invoice_number ILIKE ?",
			like, like, like).
		Order("payments.payment_date DESC").
		Find(&payments).Error
	return payments, err
}
