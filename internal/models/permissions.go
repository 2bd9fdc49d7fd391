package models

// Application permissions
const (
	// Tenant permissions
	PermissionTenantRead  = "tenant:read"
	PermissionTenantWrite = "tenant:write"

	// Merchant permissions
	PermissionMerchantRead   = "merchant:read"
	PermissionMerchantWrite  = "merchant:write"
	PermissionMerchantReview = "merchant:review"

	// Transaction permissions
	PermissionTransactionRead  = "transaction:read"
	PermissionTransactionWrite = "transaction:write"
	PermissionTransactionAdmin = "transaction:admin"

	// Audit permissions
	PermissionAuditRead   = "audit:read"
	PermissionAuditExport = "audit:export"

	// User management permissions
	PermissionUserRead  = "user:read"
	PermissionUserWrite = "user:write"
)

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionTenantRead,
			PermissionTenantWrite,
			PermissionMerchantRead,
			PermissionMerchantWrite,
			PermissionMerchantReview,
			PermissionTransactionRead,
			PermissionTransactionWrite,
			PermissionTransactionAdmin,
			PermissionAuditRead,
			PermissionAuditExport,
			PermissionUserRead,
			PermissionUserWrite,
		}
	case RoleOperator:
		return []string{
			PermissionTenantRead,
			PermissionMerchantRead,
			PermissionMerchantWrite,
			PermissionTransactionRead,
			PermissionTransactionWrite,
		}
	case RoleViewer:
		return []string{
			PermissionTenantRead,
			PermissionMerchantRead,
			PermissionTransactionRead,
			PermissionAuditRead,
		}
	default:
		return []string{}
	}
}
