package audit

import (
	"context"
	"log/slog"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
)

var validActions = map[string]bool{
	models.AuditActionCreate:   true,
	models.AuditActionUpdate:   true,
	models.AuditActionDelete:   true,
	models.AuditActionLogin:    true,
	models.AuditActionLogout:   true,
	models.AuditActionAccess:   true,
	models.AuditActionExport:   true,
	models.AuditActionApprove:  true,
	models.AuditActionReject:   true,
	models.AuditActionSuspend:  true,
	models.AuditActionActivate: true,
}

var validLevels = map[string]bool{
	models.AuditLevelInfo:     true,
	models.AuditLevelWarning:  true,
	models.AuditLevelError:    true,
	models.AuditLevelCritical: true,
}

type service struct {
	repo repositories.AuditRepository
}

// NewService creates the audit sink.
func NewService(repo repositories.AuditRepository) Service {
	if repo == nil {
		panic("audit repository is required")
	}
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	if !validActions[entry.Action] {
		return ErrInvalidAction
	}
	if entry.Level == "" {
		entry.Level = models.AuditLevelInfo
	}
	if !validLevels[entry.Level] {
		return ErrInvalidLevel
	}

	row := &models.AuditLog{
		TenantID:        entry.TenantID,
		UserID:          entry.UserID,
		Action:          entry.Action,
		Level:           entry.Level,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Description:     entry.Description,
		OldValues:       entry.OldValues,
		NewValues:       entry.NewValues,
		IsSecurityEvent: entry.SecurityEvent,
		IsPCIRelevant:   entry.PCIRelevant,
		IPAddress:       entry.IPAddress,
		UserAgent:       entry.UserAgent,
	}
	return s.repo.Record(ctx, row)
}

// RecordAsync writes the entry on its own goroutine with a fresh context.
// Only events outside any storage transaction may use it; a lost entry here
// degrades observability but never business state.
func (s *service) RecordAsync(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, entry); err != nil {
			slog.Warn("audit entry dropped",
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"error", err)
		}
	}()
}

func (s *service) List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, tenantID, filter, limit, offset)
}

func (s *service) ListByEntity(ctx context.Context, tenantID uint, entityType, entityID string) ([]models.AuditLog, error) {
	return s.repo.ListByEntity(ctx, tenantID, entityType, entityID)
}

// Export returns the matching entries and records the export itself as a
// PCI-relevant audit event, since exported logs may carry cardholder data
// references.
func (s *service) Export(ctx context.Context, tenantID uint, userID *uint, filter Filter) ([]models.AuditLog, error) {
	const exportCap = 10000

	entries, _, err := s.repo.List(ctx, tenantID, filter, exportCap, 0)
	if err != nil {
		return nil, err
	}

	err = s.Record(ctx, Entry{
		TenantID:    tenantID,
		UserID:      userID,
		Action:      models.AuditActionExport,
		Level:       models.AuditLevelWarning,
		EntityType:  "audit_log",
		Description: "audit log export",
		NewValues:   models.JSON{"entries": len(entries)},
		PCIRelevant: true,
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CleanupExpired removes non-PCI entries older than the retention window.
// PCI-relevant entries are exempt at the storage layer, which keeps the
// seven-year card-industry retention intact no matter what window the
// scheduler passes.
func (s *service) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, ErrRetentionTooShort
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteExpired(ctx, cutoff)
}
