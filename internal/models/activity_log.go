package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity actions written by handlers and the webhook processor.
const (
	ActionCustomerCreated  = "CUSTOMER_CREATED"
	ActionCustomerUpdated  = "CUSTOMER_UPDATED"
	ActionCustomerDeleted  = "CUSTOMER_DELETED"
	ActionCustomerRestored = "CUSTOMER_RESTORED"

	ActionProductCreated  = "PRODUCT_CREATED"
	ActionProductUpdated  = "PRODUCT_UPDATED"
	ActionProductDeleted  = "PRODUCT_DELETED"
	ActionProductRestored = "PRODUCT_RESTORED"

	ActionInvoiceCreated         = "INVOICE_CREATED"
	ActionInvoiceUpdated         = "INVOICE_UPDATED"
	ActionInvoiceDeleted         = "INVOICE_DELETED"
	ActionInvoiceRestored        = "INVOICE_RESTORED"
	ActionPaymentRecorded        = "PAYMENT_RECORDED"
	ActionPaymentReceivedPhonePe = "PAYMENT_RECEIVED_PHONEPE"
	ActionPaymentFailedPhonePe   = "PAYMENT_FAILED_PHONEPE"
	ActionInvoiceMarkedPaid      = "INVOICE_MARKED_PAID"

	ActionUserSignedIn       = "USER_SIGNED_IN"
	ActionUserRegistered     = "USER_REGISTERED"
	ActionUserUpdated        = "USER_UPDATED"
	ActionUserDeleted        = "USER_DELETED"
	ActionPermissionsUpdated = "PERMISSIONS_UPDATED"
)

// ActivityLog is an append-only audit trail entry. Rows are never updated or
// deleted.
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Action     string         `gorm:"index" json:"action"`
	EntityType string         `gorm:"index" json:"entity_type"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;index" json:"entity_id,omitempty"`
	Details    datatypes.JSON `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`

	// Joined for display; read-only so the SQL alias scans but never
	// migrates or writes.
	UserName string `gorm:"->;-:migration" json:"user_name,omitempty"`
}
