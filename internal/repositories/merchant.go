package repositories

import (
	"context"
	"errors"
	"time"

	"merx/internal/models"

	"gorm.io/gorm"
)

// MerchantFilter narrows merchant listings.
type MerchantFilter struct {
	Status    string
	KYCStatus string
	Type      string
}

// MerchantRepository defines tenant-scoped storage access for merchants.
// MerchantIDExists is the one deliberately unscoped probe; the lifecycle
// service uses it to tell a cross-tenant access attempt apart from a plain
// miss.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *models.Merchant) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.Merchant, error)
	GetByMerchantID(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error)
	GetByEmail(ctx context.Context, tenantID uint, email string) (*models.Merchant, error)
	MerchantIDExists(ctx context.Context, merchantID string) (bool, error)
	Update(ctx context.Context, merchant *models.Merchant) error
	SoftDelete(ctx context.Context, tenantID uint, id uint) error
	List(ctx context.Context, tenantID uint, filter MerchantFilter, limit, offset int) ([]models.Merchant, int64, error)
	CountByTenant(ctx context.Context, tenantID uint) (int64, error)
	RecordTransaction(ctx context.Context, tenantID, id uint, amount float64, at time.Time) error
}

type merchantRepository struct {
	baseRepository
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{baseRepository{db: db}}
}

func (r *merchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	if err := requireTenant(merchant.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Create(merchant).Error
}

func (r *merchantRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Merchant, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var merchant models.Merchant
	err := r.dbx(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByMerchantID(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var merchant models.Merchant
	err := r.dbx(ctx).Where("tenant_id = ? AND merchant_id = ?", tenantID, merchantID).First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByEmail(ctx context.Context, tenantID uint, email string) (*models.Merchant, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var merchant models.Merchant
	err := r.dbx(ctx).Where("tenant_id = ? AND email = ?", tenantID, email).First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// MerchantIDExists checks for the business id across all tenants,
// including soft-deleted rows, so generated ids never collide and
// cross-tenant probes can be detected.
func (r *merchantRepository) MerchantIDExists(ctx context.Context, merchantID string) (bool, error) {
	var count int64
	err := r.dbx(ctx).Unscoped().Model(&models.Merchant{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error
	return count > 0, err
}

func (r *merchantRepository) Update(ctx context.Context, merchant *models.Merchant) error {
	if err := requireTenant(merchant.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Save(merchant).Error
}

func (r *merchantRepository) SoftDelete(ctx context.Context, tenantID uint, id uint) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	result := r.dbx(ctx).Where("tenant_id = ?", tenantID).Delete(&models.Merchant{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	return nil
}

func (r *merchantRepository) List(ctx context.Context, tenantID uint, filter MerchantFilter, limit, offset int) ([]models.Merchant, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	query := r.dbx(ctx).Model(&models.Merchant{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.KYCStatus != "" {
		query = query.Where("kyc_status = ?", filter.KYCStatus)
	}
	if filter.Type != "" {
		query = query.Where("business_type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var merchants []models.Merchant
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&merchants).Error
	return merchants, total, err
}

func (r *merchantRepository) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.dbx(ctx).Model(&models.Merchant{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// RecordTransaction bumps the merchant's processing counters in place so
// concurrent payments do not lose updates.
func (r *merchantRepository) RecordTransaction(ctx context.Context, tenantID, id uint, amount float64, at time.Time) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Model(&models.Merchant{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"transaction_count":   gorm.Expr("transaction_count + 1"),
			"processing_volume":   gorm.Expr("processing_volume + ?", amount),
			"last_transaction_at": at,
		}).Error
}
