package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	InvoiceStatusPending       = "Pending"
	InvoiceStatusPartiallyPaid = "Partially Paid"
	InvoiceStatusPaid          = "Paid"
	InvoiceStatusOverdue       = "Overdue"
)

type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber  string          `gorm:"uniqueIndex" json:"invoice_number"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	UserID         uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_amount"`
	TaxPercent     decimal.Decimal `gorm:"type:numeric(5,2)" json:"tax_percent"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);index" json:"total_amount"`
	DueDate        time.Time       `json:"due_date"`
	Status         string          `gorm:"index" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Aggregates filled by the repository, not columns.
	AmountPaid decimal.Decimal `gorm:"-" json:"amount_paid"`
	DueAmount  decimal.Decimal `gorm:"-" json:"due_amount"`

	Customer *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// IsOverdue reports whether the invoice should display as Overdue: past its
// due date and not fully paid. Overdue is an overlay, the stored status stays
// a pure function of payments.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status != InvoiceStatusPaid && !i.DueDate.IsZero() && i.DueDate.Before(now)
}

type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Quantity  int       `json:"quantity"`
	// Price is the unit price snapshot taken when the item was created,
	// not the live product price.
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	CreatedAt time.Time       `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
