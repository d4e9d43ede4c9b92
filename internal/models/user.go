package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleManager = "manager"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex" json:"username"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `gorm:"index" json:"role"`
	// Permissions is a JSON-encoded string array. Empty for admins, whose
	// role grants everything implicitly.
	Permissions datatypes.JSON `json:"-"`

	BillingAddress string `json:"billing_address"`
	BillingCity    string `json:"billing_city"`
	BillingState   string `json:"billing_state"`
	BillingPin     string `json:"billing_pin"`
	BillingGST     string `json:"billing_gst"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectivePermissions returns the permission set enforced for this user.
// Admins get the full catalogue; everyone else gets their stored list.
func (u *User) EffectivePermissions() []string {
	if u.IsAdmin() {
		return AllPermissions()
	}
	var perms []string
	if len(u.Permissions) > 0 {
		_ = json.Unmarshal(u.Permissions, &perms)
	}
	if perms == nil {
		perms = []string{}
	}
	return perms
}

// HasPermission reports whether the user may perform the guarded operation.
func (u *User) HasPermission(permission string) bool {
	if u.IsAdmin() {
		return true
	}
	for _, p := range u.EffectivePermissions() {
		if p == permission {
			return true
		}
	}
	return false
}
