package models

import "time"

// Audit actions
const (
	AuditActionCreate   = "create"
	AuditActionUpdate   = "update"
	AuditActionDelete   = "delete"
	AuditActionLogin    = "login"
	AuditActionLogout   = "logout"
	AuditActionAccess   = "access"
	AuditActionExport   = "export"
	AuditActionApprove  = "approve"
	AuditActionReject   = "reject"
	AuditActionSuspend  = "suspend"
	AuditActionActivate = "activate"
)

// Audit levels
const (
	AuditLevelInfo     = "info"
	AuditLevelWarning  = "warning"
	AuditLevelError    = "error"
	AuditLevelCritical = "critical"
)

// AuditLog is an append-only record of a state change or security event.
// Rows are never updated or individually deleted; retention cleanup removes
// expired non-PCI rows in bulk. TenantID 0 marks system-level events that
// happened before a tenant could be resolved.
type AuditLog struct {
	ID          uint   `gorm:"primarykey"`
	TenantID    uint   `gorm:"index"`
	UserID      *uint  `gorm:"index"`
	Action      string `gorm:"not null;index"`
	Level       string `gorm:"not null;default:'info'"`
	EntityType  string `gorm:"index:idx_audit_logs_entity"`
	EntityID    string `gorm:"index:idx_audit_logs_entity"`
	Description string
	OldValues   JSON `gorm:"type:jsonb"`
	NewValues   JSON `gorm:"type:jsonb"`

	IsSecurityEvent bool `gorm:"default:false;index"`
	IsPCIRelevant   bool `gorm:"column:is_pci_relevant;default:false"`

	IPAddress string `gorm:"column:ip_address"`
	UserAgent string
	CreatedAt time.Time `gorm:"index"`
}
