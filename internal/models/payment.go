package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodUPI          = "upi"
	PaymentMethodBankTransfer = "bank_transfer"
)

// ValidPaymentMethod reports whether m is one of the accepted payment methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodBankTransfer:
		return true
	}
	return false
}

type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      string          `json:"method"`
	ReferenceNo string          `json:"reference_no"`
	// TransactionID is the gateway merchant transaction id and the
	// idempotency key for webhook reconciliation.
	TransactionID   string         `gorm:"index" json:"transaction_id,omitempty"`
	PaymentGateway  string         `json:"payment_gateway,omitempty"`
	GatewayResponse datatypes.JSON `json:"gateway_response,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
