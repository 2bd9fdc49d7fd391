package tenant

import (
	"context"
	"testing"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepo) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockTenantRepo) SoftDelete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, tenantID, id uint) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, tenantID uint, email string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, tenantID, id uint) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockUserRepo) RecordLogin(ctx context.Context, tenantID, id uint, ip string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, ip, at)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementFailedLogins(ctx context.Context, tenantID, id uint) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockUserRepo) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditService) RecordAsync(entry audit.Entry) {
	m.Called(entry)
}

func (m *MockAuditService) List(ctx context.Context, tenantID uint, filter audit.Filter, limit, offset int) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, tenantID, filter, limit, offset)
	return args.Get(0).([]models.AuditLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditService) ListByEntity(ctx context.Context, tenantID uint, entityType, entityID string) ([]models.AuditLog, error) {
	args := m.Called(ctx, tenantID, entityType, entityID)
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

func (m *MockAuditService) Export(ctx context.Context, tenantID uint, userID *uint, filter audit.Filter) ([]models.AuditLog, error) {
	args := m.Called(ctx, tenantID, userID, filter)
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

func (m *MockAuditService) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) CacheTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockCache) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.Tenant), args.Bool(1)
}

func (m *MockCache) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, bool) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.Tenant), args.Bool(1)
}

func (m *MockCache) InvalidateTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

// passthroughTx runs the callback without a real database transaction.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const testBaseDomain = "merx.io"

func newResolverService(repo *MockTenantRepo, auditSvc *MockAuditService, cache Cache) Service {
	return NewService(repo, new(MockUserRepo), auditSvc, cache, passthroughTx{}, testBaseDomain)
}

func activeTenant(id uint, subdomain string) *models.Tenant {
	return &models.Tenant{
		ID:        id,
		Name:      "Acme Widgets",
		Subdomain: subdomain,
		APIKey:    "pk_test_" + subdomain,
		Status:    models.TenantStatusActive,
		Plan:      models.PlanStarter,
	}
}

func TestResolve_SubdomainWinsOverOtherSignals(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	acme := activeTenant(1, "acme")
	repo.On("GetBySubdomain", mock.Anything, "acme").Return(acme, nil)
	repo.On("TouchActivity", mock.Anything, uint(1), mock.Anything).Return(nil).Maybe()

	svc := newResolverService(repo, auditSvc, nil)
	resolved, err := svc.Resolve(context.Background(), ResolveRequest{
		Host:         "acme.merx.io",
		APIKey:       "pk_someone_elses_key",
		TenantHeader: "42",
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(1), resolved.ID)
	repo.AssertNotCalled(t, "GetByAPIKey", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolve_FallsThroughToAPIKey(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	beta := activeTenant(2, "beta")
	repo.On("GetBySubdomain", mock.Anything, "ghost").Return(nil, repositories.ErrTenantNotFound)
	repo.On("GetByAPIKey", mock.Anything, beta.APIKey).Return(beta, nil)
	repo.On("TouchActivity", mock.Anything, uint(2), mock.Anything).Return(nil).Maybe()

	svc := newResolverService(repo, auditSvc, nil)
	resolved, err := svc.Resolve(context.Background(), ResolveRequest{
		Host:   "ghost.merx.io",
		APIKey: beta.APIKey,
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(2), resolved.ID)
}

func TestResolve_HeaderIsLastResort(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	gamma := activeTenant(7, "gamma")
	repo.On("GetByID", mock.Anything, uint(7)).Return(gamma, nil)
	repo.On("TouchActivity", mock.Anything, uint(7), mock.Anything).Return(nil).Maybe()

	svc := newResolverService(repo, auditSvc, nil)
	resolved, err := svc.Resolve(context.Background(), ResolveRequest{
		Host:         "merx.io",
		TenantHeader: "7",
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(7), resolved.ID)
	repo.AssertNotCalled(t, "GetBySubdomain", mock.Anything, mock.Anything)
}

func TestResolve_MalformedHeaderYieldsNotFound(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	svc := newResolverService(repo, auditSvc, nil)
	_, err := svc.Resolve(context.Background(), ResolveRequest{TenantHeader: "not-a-number"})

	assert.ErrorIs(t, err, ErrTenantNotFound)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolve_NoSignals(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	svc := newResolverService(repo, auditSvc, nil)
	_, err := svc.Resolve(context.Background(), ResolveRequest{Host: "merx.io"})

	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolve_InactiveTenantRecordsSecurityEvent(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	suspended := activeTenant(3, "frozen")
	suspended.Status = models.TenantStatusSuspended
	repo.On("GetBySubdomain", mock.Anything, "frozen").Return(suspended, nil)
	auditSvc.On("RecordAsync", mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.TenantID == 3 &&
			entry.Action == models.AuditActionAccess &&
			entry.Level == models.AuditLevelCritical &&
			entry.SecurityEvent
	})).Return()

	svc := newResolverService(repo, auditSvc, nil)
	_, err := svc.Resolve(context.Background(), ResolveRequest{
		Host:      "frozen.merx.io",
		IPAddress: "203.0.113.9",
	})

	assert.ErrorIs(t, err, ErrTenantInactive)
	auditSvc.AssertExpectations(t)
	repo.AssertNotCalled(t, "TouchActivity", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_CacheHitSkipsStorage(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)
	cache := new(MockCache)

	acme := activeTenant(1, "acme")
	cache.On("GetTenantBySubdomain", mock.Anything, "acme").Return(acme, true)
	repo.On("TouchActivity", mock.Anything, uint(1), mock.Anything).Return(nil).Maybe()

	svc := newResolverService(repo, auditSvc, cache)
	resolved, err := svc.Resolve(context.Background(), ResolveRequest{Host: "acme.merx.io"})

	assert.NoError(t, err)
	assert.Equal(t, uint(1), resolved.ID)
	repo.AssertNotCalled(t, "GetBySubdomain", mock.Anything, mock.Anything)
}

func TestResolve_CacheMissPopulatesCache(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)
	cache := new(MockCache)

	acme := activeTenant(1, "acme")
	cache.On("GetTenantBySubdomain", mock.Anything, "acme").Return(nil, false)
	repo.On("GetBySubdomain", mock.Anything, "acme").Return(acme, nil)
	cache.On("CacheTenant", mock.Anything, acme).Return(nil)
	repo.On("TouchActivity", mock.Anything, uint(1), mock.Anything).Return(nil).Maybe()

	svc := newResolverService(repo, auditSvc, cache)
	resolved, err := svc.Resolve(context.Background(), ResolveRequest{Host: "acme.merx.io"})

	assert.NoError(t, err)
	assert.Equal(t, uint(1), resolved.ID)
	cache.AssertExpectations(t)
}

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.merx.io", "acme"},
		{"acme.merx.io:8080", "acme"},
		{"ACME.MERX.IO", "acme"},
		{"merx.io", ""},
		{"merx.io:443", ""},
		{"www.merx.io", ""},
		{"api.merx.io", ""},
		{"app.merx.io", ""},
		{"deep.acme.merx.io", ""},
		{"acme.other.io", ""},
		{"localhost", ""},
		{"localhost:3000", ""},
		{"127.0.0.1", ""},
		{"127.0.0.1:8080", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, SubdomainFromHost(tt.host, testBaseDomain))
		})
	}
}
