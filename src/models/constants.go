package models

// AdminRole represents the permission tier of an admin account
type AdminRole string

const (
	// RoleSuperAdmin can manage other admin accounts and read audit logs
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	// RoleAdmin is the standard console role
	RoleAdmin AdminRole = "ADMIN"
	// RoleSupport has read-mostly access to the console
	RoleSupport AdminRole = "SUPPORT"
)

// Valid reports whether the role is one of the known tiers
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSupport:
		return true
	}
	return false
}

// AttemptType keys brute-force attempt records
type AttemptType string

const (
	// AttemptTypeEmail keys attempts by submitted email address
	AttemptTypeEmail AttemptType = "EMAIL"
	// AttemptTypeIP keys attempts by client IP (used when no email was submitted)
	AttemptTypeIP AttemptType = "IP"
)

// AuditAction classifies an audited request by intent
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionRead   AuditAction = "READ"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)
