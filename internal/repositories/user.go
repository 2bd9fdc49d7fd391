package repositories

import (
	"context"
	"errors"
	"time"

	"merx/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines tenant-scoped storage access for operator
// accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tenantID uint, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	IncrementTokenVersion(ctx context.Context, tenantID, id uint) error
	RecordLogin(ctx context.Context, tenantID, id uint, ip string, at time.Time) error
	IncrementFailedLogins(ctx context.Context, tenantID, id uint) error
	CountByTenant(ctx context.Context, tenantID uint) (int64, error)
}

type userRepository struct {
	baseRepository
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{baseRepository{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := requireTenant(user.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var user models.User
	err := r.dbx(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, tenantID uint, email string) (*models.User, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var user models.User
	err := r.dbx(ctx).Where("tenant_id = ? AND email = ?", tenantID, email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := requireTenant(user.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Save(user).Error
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, tenantID, id uint) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Model(&models.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

func (r *userRepository) RecordLogin(ctx context.Context, tenantID, id uint, ip string, at time.Time) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Model(&models.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"last_login_at":         at,
			"last_login_ip":         ip,
			"failed_login_attempts": 0,
		}).Error
}

func (r *userRepository) IncrementFailedLogins(ctx context.Context, tenantID, id uint) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Model(&models.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
}

func (r *userRepository) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.dbx(ctx).Model(&models.User{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}
