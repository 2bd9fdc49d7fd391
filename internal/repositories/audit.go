package repositories

import (
	"context"
	"time"

	"merx/internal/models"

	"gorm.io/gorm"
)

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Action       string
	Level        string
	EntityType   string
	EntityID     string
	SecurityOnly bool
	PCIOnly      bool
	From         time.Time
	To           time.Time
}

// AuditRepository is the append-only store behind the audit sink. Record
// joins the caller's storage transaction when one is carried by ctx, which
// is what lets a failed audit write roll back the business transition that
// produced it.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, tenantID uint, filter AuditFilter, limit, offset int) ([]models.AuditLog, int64, error)
	ListByEntity(ctx context.Context, tenantID uint, entityType, entityID string) ([]models.AuditLog, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditRepository struct {
	baseRepository
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{baseRepository{db: db}}
}

func (r *auditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	return r.dbx(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, tenantID uint, filter AuditFilter, limit, offset int) ([]models.AuditLog, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	query := r.dbx(ctx).Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID)
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.SecurityOnly {
		query = query.Where("is_security_event = ?", true)
	}
	if filter.PCIOnly {
		query = query.Where("is_pci_relevant = ?", true)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

func (r *auditRepository) ListByEntity(ctx context.Context, tenantID uint, entityType, entityID string) ([]models.AuditLog, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var entries []models.AuditLog
	err := r.dbx(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// DeleteExpired removes non-PCI rows older than the cutoff. PCI-relevant
// rows never match, whatever the cutoff.
func (r *auditRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.dbx(ctx).
		Where("created_at < ? AND is_pci_relevant = ?", cutoff, false).
		Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
