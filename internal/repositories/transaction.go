package repositories

import (
	"context"
	"errors"
	"time"

	"merx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	MerchantID uint
	Status     string
	Type       string
	From       time.Time
	To         time.Time
}

// CustomerStats aggregates a customer's history with a tenant, feeding the
// customer-history factors of risk scoring.
type CustomerStats struct {
	Total       int64
	Failed      int64
	Chargebacks int64
}

// TransactionRepository defines tenant-scoped storage access for
// transactions. GetByIDForUpdate locks the row for the duration of the
// surrounding storage transaction; refund accounting depends on it.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.Transaction, error)
	GetByTransactionID(ctx context.Context, tenantID uint, transactionID string) (*models.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id uint) (*models.Transaction, error)
	TransactionIDExists(ctx context.Context, transactionID string) (bool, error)
	Update(ctx context.Context, tx *models.Transaction) error
	List(ctx context.Context, tenantID uint, filter TransactionFilter, limit, offset int) ([]models.Transaction, int64, error)
	SumCompletedRefunds(ctx context.Context, tenantID, parentID uint) (float64, error)
	CountSince(ctx context.Context, tenantID uint, since time.Time) (int64, error)
	CountByCustomerSince(ctx context.Context, tenantID uint, customerEmail string, since time.Time) (int64, error)
	CountByMerchantSince(ctx context.Context, tenantID, merchantID uint, since time.Time) (int64, error)
	GetCustomerStats(ctx context.Context, tenantID uint, customerEmail string) (*CustomerStats, error)
}

type transactionRepository struct {
	baseRepository
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{baseRepository{db: db}}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := requireTenant(tx.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Create(tx).Error
}

func (r *transactionRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Transaction, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var tx models.Transaction
	err := r.dbx(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, tenantID uint, transactionID string) (*models.Transaction, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var tx models.Transaction
	err := r.dbx(ctx).Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// GetByIDForUpdate reads the row under SELECT ... FOR UPDATE. Callers must
// be inside WithTransaction; the lock serializes concurrent refunds against
// the same parent payment.
func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, tenantID, id uint) (*models.Transaction, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var tx models.Transaction
	err := r.dbx(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) TransactionIDExists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.dbx(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count > 0, err
}

func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	if err := requireTenant(tx.TenantID); err != nil {
		return err
	}
	return r.dbx(ctx).Save(tx).Error
}

func (r *transactionRepository) List(ctx context.Context, tenantID uint, filter TransactionFilter, limit, offset int) ([]models.Transaction, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}
	query := r.dbx(ctx).Model(&models.Transaction{}).Where("tenant_id = ?", tenantID)
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
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

	var txs []models.Transaction
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txs).Error
	return txs, total, err
}

// SumCompletedRefunds totals the completed refund children of a parent
// payment. Run it inside the same storage transaction as the row lock.
func (r *transactionRepository) SumCompletedRefunds(ctx context.Context, tenantID, parentID uint) (float64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var total float64
	err := r.dbx(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND parent_transaction_id = ? AND type = ? AND status = ?",
			tenantID, parentID, models.TransactionTypeRefund, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *transactionRepository) CountSince(ctx context.Context, tenantID uint, since time.Time) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.dbx(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) CountByCustomerSince(ctx context.Context, tenantID uint, customerEmail string, since time.Time) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.dbx(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND customer_email = ? AND type = ? AND created_at >= ?",
			tenantID, customerEmail, models.TransactionTypePayment, since).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) CountByMerchantSince(ctx context.Context, tenantID, merchantID uint, since time.Time) (int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var count int64
	err := r.dbx(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND merchant_id = ? AND type = ? AND created_at >= ?",
			tenantID, merchantID, models.TransactionTypePayment, since).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) GetCustomerStats(ctx context.Context, tenantID uint, customerEmail string) (*CustomerStats, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if customerEmail == "" {
		return &CustomerStats{}, nil
	}

	stats := &CustomerStats{}
	base := r.dbx(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND customer_email = ?", tenantID, customerEmail)

	if err := base.Session(&gorm.Session{}).
		Where("type = ?", models.TransactionTypePayment).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("type = ? AND status = ?", models.TransactionTypePayment, models.TransactionStatusFailed).
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("type = ?", models.TransactionTypeChargeback).
		Count(&stats.Chargebacks).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
