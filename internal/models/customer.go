package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer statuses are derived from the customer's invoices at query
// time, never stored.
const (
	CustomerStatusNew           = "New"
	CustomerStatusPending       = "Pending"
	CustomerStatusPartiallyPaid = "Partially Paid"
	CustomerStatusOverdue       = "Overdue"
	CustomerStatusPaid          = "Paid"
)

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"index" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	GSTNumber string    `json:"gst_number"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Status is derived at query time; read-only so the SQL alias scans but
	// never migrates or writes.
	Status     string              `gorm:"->;-:migration" json:"status,omitempty"`
	Aggregates *CustomerAggregates `gorm:"-" json:"aggregates,omitempty"`
}

// CustomerAggregates summarises a customer's billing position across all
// non-deleted invoices.
type CustomerAggregates struct {
	TotalBilled decimal.Decimal  `json:"total_billed"`
	TotalPaid   decimal.Decimal  `json:"total_paid"`
	TotalDue    decimal.Decimal  `json:"total_due"`
	Invoices    []InvoiceSummary `json:"invoices"`
}

// InvoiceSummary is the compact invoice shape embedded in customer detail
// responses.
type InvoiceSummary struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
