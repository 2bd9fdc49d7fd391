package tenant

import (
	"context"

	"merx/internal/models"
)

// Service resolves tenants for inbound requests and drives the tenant
// lifecycle.
type Service interface {
	Resolve(ctx context.Context, req ResolveRequest) (*models.Tenant, error)
	Signup(ctx context.Context, req SignupRequest) (*models.Tenant, *models.User, error)
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	UpdatePlan(ctx context.Context, tenantID uint, plan string, userID *uint) (*models.Tenant, error)
	Suspend(ctx context.Context, tenantID uint, reason string, userID *uint) error
	Reactivate(ctx context.Context, tenantID uint, userID *uint) error
	RotateAPIKey(ctx context.Context, tenantID uint, userID *uint) (string, error)
}

// Cache is the slice of the cache service the resolver needs. A nil Cache
// disables caching; every lookup then goes to storage.
type Cache interface {
	CacheTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool)
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, bool)
	InvalidateTenant(ctx context.Context, tenant *models.Tenant) error
}
