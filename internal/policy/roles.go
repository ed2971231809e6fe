package policy

import (
	"github.com/nellusoru/backoffice/gate"
	"github.com/nellusoru/backoffice/internal/models"
)

// Resources guarded by the gate.
const (
	ResourceCategory  = "category"
	ResourceProduct   = "product"
	ResourceCustomer  = "customer"
	ResourceOffer     = "offer"
	ResourceEnquiry   = "enquiry"
	ResourceInvoice   = "invoice"
	ResourceDashboard = "dashboard"
	ResourceUser      = "user"
)

// staffResources is everything except user management.
var staffResources = []string{
	ResourceCategory,
	ResourceProduct,
	ResourceCustomer,
	ResourceOffer,
	ResourceEnquiry,
	ResourceInvoice,
	ResourceDashboard,
}

// DefaultRoles maps each stored role to its capabilities.
func DefaultRoles() gate.RoleTable {
	staff := make([]gate.Permission, 0, len(staffResources))
	for _, r := range staffResources {
		staff = append(staff, gate.NewPermission(r, gate.Wildcard))
	}
	return gate.RoleTable{
		string(models.RoleAdmin): gate.NewStaticProfile(string(models.RoleAdmin), gate.PermissionAll),
		string(models.RoleStaff): gate.NewStaticProfile(string(models.RoleStaff), staff...),
	}
}
