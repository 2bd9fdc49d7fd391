package audit

import (
	"merx/internal/models"
	"merx/internal/repositories"
)

// Entry is the single write shape every state-changing operation hands to
// the sink. The sink owns turning it into a persisted row; callers never
// format or query stored logs.
type Entry struct {
	TenantID    uint
	UserID      *uint
	Action      string
	Level       string
	EntityType  string
	EntityID    string
	Description string
	OldValues   models.JSON
	NewValues   models.JSON

	SecurityEvent bool
	PCIRelevant   bool

	IPAddress string
	UserAgent string
}

// Filter re-exports the repository filter so handler code depends on the
// service package only.
type Filter = repositories.AuditFilter
