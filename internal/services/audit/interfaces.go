package audit

import (
	"context"

	"merx/internal/models"
)

// Service is the audit/compliance sink. Record joins the surrounding
// storage transaction through ctx; RecordAsync is for events with no
// enclosing transaction, like failed logins and resolver security events.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	RecordAsync(entry Entry)
	List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.AuditLog, int64, error)
	ListByEntity(ctx context.Context, tenantID uint, entityType, entityID string) ([]models.AuditLog, error)
	Export(ctx context.Context, tenantID uint, userID *uint, filter Filter) ([]models.AuditLog, error)
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}
