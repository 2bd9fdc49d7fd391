package merchant

import (
	"context"

	"merx/internal/models"
)

// Service drives the merchant lifecycle. Every method is tenant-scoped;
// asking for a merchant that exists under another tenant fails with
// ErrTenantMismatch and leaves a security audit trail. Each state
// transition commits atomically with its audit entry.
type Service interface {
	Create(ctx context.Context, tenantID uint, req CreateRequest, userID *uint) (*models.Merchant, error)
	Get(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error)
	List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.Merchant, int64, error)
	Delete(ctx context.Context, tenantID uint, merchantID string, userID *uint) error

	StartKyc(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error)
	UploadKycDocument(ctx context.Context, tenantID uint, merchantID, docType, reference string, userID *uint) (*models.Merchant, error)
	ApproveKyc(ctx context.Context, tenantID uint, merchantID string, reviewerID *uint) (*models.Merchant, error)
	RejectKyc(ctx context.Context, tenantID uint, merchantID, reason string, reviewerID *uint) (*models.Merchant, error)
	ExpireKyc(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error)

	Activate(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error)
	Suspend(ctx context.Context, tenantID uint, merchantID, reason string, userID *uint) (*models.Merchant, error)
	Reactivate(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error)
}
