package models_test

import (
	"testing"
	"time"

	"billing-backend/internal/models"

	"gorm.io/datatypes"
)

func TestEffectivePermissions(t *testing.T) {
	t.Run("admin gets the full catalogue", func(t *testing.T) {
		u := &models.User{Role: models.RoleAdmin}
		got := u.EffectivePermissions()
		if len(got) != len(models.AllPermissions()) {
			t.Errorf("admin has %d permissions, want %d", len(got), len(models.AllPermissions()))
		}
	})

	t.Run("staff gets the stored list", func(t *testing.T) {
		u := &models.User{
			Role:        models.RoleStaff,
			Permissions: datatypes.JSON(`["customers.list","invoices.view"]`),
		}
		got := u.EffectivePermissions()
		if len(got) != 2 || got[0] != "customers.list" || got[1] != "invoices.view" {
			t.Errorf("unexpected permissions: %v", got)
		}
	})

	t.Run("empty stored list is an empty slice", func(t *testing.T) {
		u := &models.User{Role: models.RoleStaff}
		if got := u.EffectivePermissions(); got == nil || len(got) != 0 {
			t.Errorf("want empty slice, got %v", got)
		}
	})

	t.Run("malformed json is an empty slice", func(t *testing.T) {
		u := &models.User{Role: models.RoleStaff, Permissions: datatypes.JSON(`{broken`)}
		if got := u.EffectivePermissions(); got == nil || len(got) != 0 {
			t.Errorf("want empty slice, got %v", got)
		}
	})
}

func TestHasPermission(t *testing.T) {
	staff := &models.User{
		Role:        models.RoleStaff,
		Permissions: datatypes.JSON(`["customers.list"]`),
	}
	admin := &models.User{Role: models.RoleAdmin}

	tests := []struct {
		name       string
		user       *models.User
		permission string
		want       bool
	}{
		{"staff has granted permission", staff, "customers.list", true},
		{"staff lacks ungranted permission", staff, "customers.delete", false},
		{"admin passes any check", admin, "users.permissions", true},
		{"admin passes unknown key too", admin, "nonexistent.permission", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPermission(tt.permission); got != tt.want {
				t.Errorf("HasPermission(%q) = %v, want %v", tt.permission, got, tt.want)
			}
		})
	}
}

func TestDefaultPermissionsForRole(t *testing.T) {
	if got := models.DefaultPermissionsForRole(models.RoleAdmin); got != nil {
		t.Errorf("admin default permissions should be nil, got %v", got)
	}

	for _, role := range []string{models.RoleManager, models.RoleStaff} {
		perms := models.DefaultPermissionsForRole(role)
		if len(perms) == 0 {
			t.Errorf("%s should have default permissions", role)
		}
		for _, p := range perms {
			if !models.ValidPermission(p) {
				t.Errorf("%s default contains unknown permission %q", role, p)
			}
		}
	}

	manager := len(models.DefaultPermissionsForRole(models.RoleManager))
	staff := len(models.DefaultPermissionsForRole(models.RoleStaff))
	if manager <= staff {
		t.Errorf("manager set (%d) should be larger than staff set (%d)", manager, staff)
	}
}

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  string
		dueDate time.Time
		want    bool
	}{
		{"pending past due", models.InvoiceStatusPending, now.AddDate(0, 0, -1), true},
		{"pending not yet due", models.InvoiceStatusPending, now.AddDate(0, 0, 1), false},
		{"paid past due is not overdue", models.InvoiceStatusPaid, now.AddDate(0, 0, -30), false},
		{"partially paid past due", models.InvoiceStatusPartiallyPaid, now.AddDate(0, 0, -5), true},
		{"zero due date", models.InvoiceStatusPending, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.Invoice{Status: tt.status, DueDate: tt.dueDate}
			if got := inv.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{
		models.PaymentMethodCash, models.PaymentMethodCard,
		models.PaymentMethodUPI, models.PaymentMethodBankTransfer,
	} {
		if !models.ValidPaymentMethod(m) {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []string{"", "cheque", "CASH"} {
		if models.ValidPaymentMethod(m) {
			t.Errorf("%q should be invalid", m)
		}
	}
}

func TestNotificationSettingsEnabled(t *testing.T) {
	s := &models.NotificationSettings{
		InvoiceCreated:  true,
		PaymentReceived: false,
		InvoiceOverdue:  true,
	}

	if !s.Enabled(models.NotificationInvoiceCreated) {
		t.Error("invoice_created should be enabled")
	}
	if s.Enabled(models.NotificationPaymentReceived) {
		t.Error("payment_received should be disabled")
	}
	if s.Enabled("unknown_type") {
		t.Error("unknown types should never report enabled")
	}
}
