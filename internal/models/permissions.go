package models

import "sort"

// Permission catalogue. Keys follow the "<resource>.<action>" convention and
// are what the permission middleware checks against.
var PermissionDescriptions = map[string]string{
	"customers.list":    "View customers list",
	"customers.view":    "View customer details",
	"customers.create":  "Create new customers",
	"customers.update":  "Update customer information",
	"customers.delete":  "Soft delete customers",
	"customers.restore": "Restore deleted customers",

	"products.list":    "View products list",
	"products.view":    "View product details",
	"products.create":  "Create new products",
	"products.update":  "Update product information",
	"products.delete":  "Soft delete products",
	"products.restore": "Restore deleted products",

	"invoices.list":    "View invoices list",
	"invoices.view":    "View invoice details",
	"invoices.create":  "Create new invoices",
	"invoices.update":  "Update invoice information",
	"invoices.delete":  "Soft delete invoices",
	"invoices.restore": "Restore deleted invoices",

	"payments.list":   "View payment records list",
	"payments.view":   "View payment details",
	"payments.create": "Record new payments",

	"users.list":        "View users list",
	"users.view":        "View user details",
	"users.create":      "Create new users",
	"users.update":      "Update user information",
	"users.delete":      "Soft delete users",
	"users.permissions": "Manage user permissions",

	"dashboard.view": "View dashboard statistics and analytics",
	"reports.view":   "View system reports",
}

// PermissionCategories groups permissions for UI display.
var PermissionCategories = map[string][]string{
	"Customers": {"customers.list", "customers.view", "customers.create", "customers.update", "customers.delete", "customers.restore"},
	"Products":  {"products.list", "products.view", "products.create", "products.update", "products.delete", "products.restore"},
	"Invoices":  {"invoices.list", "invoices.view", "invoices.create", "invoices.update", "invoices.delete", "invoices.restore"},
	"Payments":  {"payments.list", "payments.view", "payments.create"},
	"Users":     {"users.list", "users.view", "users.create", "users.update", "users.delete", "users.permissions"},
	"Dashboard": {"dashboard.view"},
	"Reports":   {"reports.view"},
}

// AllPermissions returns every known permission key, sorted for stable output.
func AllPermissions() []string {
	perms := make([]string, 0, len(PermissionDescriptions))
	for p := range PermissionDescriptions {
		perms = append(perms, p)
	}
	sort.Strings(perms)
	return perms
}

// ValidPermission reports whether p exists in the catalogue.
func ValidPermission(p string) bool {
	_, ok := PermissionDescriptions[p]
	return ok
}

// DefaultPermissionsForRole is the permission set assigned when a user is
// created without an explicit list. Admins need none stored.
func DefaultPermissionsForRole(role string) []string {
	switch role {
	case RoleAdmin:
		return nil
	case RoleManager:
		return []string{
			"customers.list", "customers.view", "customers.create", "customers.update",
			"products.list", "products.view", "products.create", "products.update",
			"invoices.list", "invoices.view", "invoices.create", "invoices.update",
			"payments.list", "payments.view", "payments.create",
			"dashboard.view", "reports.view",
		}
	default: // staff
		return []string{
			"customers.list", "customers.view",
			"products.list", "products.view",
			"invoices.list", "invoices.view",
			"payments.list", "payments.view",
			"dashboard.view",
		}
	}
}
