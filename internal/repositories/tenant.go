package repositories

import (
	"context"
	"errors"
	"time"

	"merx/internal/models"

	"gorm.io/gorm"
)

// TenantRepository defines storage access for tenant rows. Tenants are the
// isolation root, so these lookups are the only ones that run without a
// tenant scope.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	TouchActivity(ctx context.Context, id uint, at time.Time) error
	SoftDelete(ctx context.Context, id uint) error
}

type tenantRepository struct {
	baseRepository
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{baseRepository{db: db}}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.dbx(ctx).Create(tenant).Error
}

func (r *tenantRepository) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.dbx(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.dbx(ctx).Where("subdomain = ?", subdomain).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.dbx(ctx).Where("api_key = ?", apiKey).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.dbx(ctx).Save(tenant).Error
}

// TouchActivity bumps last_activity_at without going through Save so the
// fire-and-forget resolver path never races a full-row write.
func (r *tenantRepository) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	return r.dbx(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

func (r *tenantRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.dbx(ctx).Delete(&models.Tenant{}, id).Error
}
