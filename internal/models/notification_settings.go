package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types checked by the mailer before sending.
const (
	NotificationInvoiceCreated  = "invoice_created"
	NotificationPaymentReceived = "payment_received"
	NotificationInvoiceOverdue  = "invoice_overdue"
)

// NotificationSettings holds per-user email toggles. Rows are created lazily
// with everything enabled the first time a user's settings are read.
type NotificationSettings struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	InvoiceCreated  bool      `gorm:"default:true" json:"invoice_created"`
	PaymentReceived bool      `gorm:"default:true" json:"payment_received"`
	InvoiceOverdue  bool      `gorm:"default:true" json:"invoice_overdue"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Enabled reports whether the given notification type is switched on.
func (s *NotificationSettings) Enabled(notificationType string) bool {
	switch notificationType {
	case NotificationInvoiceCreated:
		return s.InvoiceCreated
	case NotificationPaymentReceived:
		return s.PaymentReceived
	case NotificationInvoiceOverdue:
		return s.InvoiceOverdue
	}
	return false
}
