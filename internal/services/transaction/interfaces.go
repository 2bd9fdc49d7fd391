package transaction

import (
	"context"
	"time"

	"merx/internal/models"
)

// Service drives the transaction lifecycle: payment creation with
// synchronous risk gating, refunds with locked accounting, cancellation,
// administrative correction and chargeback registration. Every method is
// tenant-scoped.
type Service interface {
	Create(ctx context.Context, tenantID uint, req CreateRequest, userID *uint) (*models.Transaction, error)
	Get(ctx context.Context, tenantID uint, transactionID string) (*models.Transaction, error)
	List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.Transaction, int64, error)
	Refund(ctx context.Context, tenantID uint, transactionID string, req RefundRequest, userID *uint) (*models.Transaction, error)
	Cancel(ctx context.Context, tenantID uint, transactionID, reason string, userID *uint) (*models.Transaction, error)
	Update(ctx context.Context, tenantID uint, transactionID string, req UpdateRequest, userID *uint) (*models.Transaction, error)
	MarkChargeback(ctx context.Context, tenantID uint, transactionID, reason string, userID *uint) (*models.Transaction, error)
}

// Counters is the slice of the cache service velocity tracking needs.
// A nil Counters degrades every read to the SQL fallback.
type Counters interface {
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, bool)
}
