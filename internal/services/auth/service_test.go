package auth

import (
	"context"
	"testing"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/utils"
	"merx/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

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

type MockCounters struct {
	mock.Mock
}

func (m *MockCounters) IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Error(1)
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type serviceMocks struct {
	users    *MockUserRepo
	tenants  *MockTenantRepo
	audit    *MockAuditService
	counters *MockCounters
}

func newTestService() (Service, *serviceMocks) {
	m := &serviceMocks{
		users:    new(MockUserRepo),
		tenants:  new(MockTenantRepo),
		audit:    new(MockAuditService),
		counters: new(MockCounters),
	}
	return NewService(m.users, m.tenants, m.audit, nil, passthroughTx{}), m
}

func newTestServiceWithCounters() (Service, *serviceMocks) {
	m := &serviceMocks{
		users:    new(MockUserRepo),
		tenants:  new(MockTenantRepo),
		audit:    new(MockAuditService),
		counters: new(MockCounters),
	}
	return NewService(m.users, m.tenants, m.audit, m.counters, passthroughTx{}), m
}

func testOperator(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	return &models.User{
		ID:           9,
		TenantID:     1,
		Email:        "ops@acme.test",
		Password:     string(hash),
		Role:         models.RoleOperator,
		TokenVersion: 2,
	}
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "correct horse battery")

	m.users.On("GetByEmail", mock.Anything, uint(1), "ops@acme.test").Return(user, nil)
	m.users.On("RecordLogin", mock.Anything, uint(1), uint(9), "10.1.2.3", mock.Anything).Return(nil)
	m.audit.On("RecordAsync", mock.MatchedBy(func(e audit.Entry) bool {
		return e.Action == models.AuditActionLogin && !e.SecurityEvent
	})).Return()

	got, access, refresh, err := svc.Login(context.Background(), 1, "ops@acme.test", "correct horse battery", "10.1.2.3")

	assert.NoError(t, err)
	assert.Equal(t, user, got)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, claims, err := utils.ParseToken(access)
	assert.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, uint(1), claims.TenantID)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Contains(t, claims.Permissions, models.PermissionTransactionWrite)
	m.users.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "correct horse battery")

	m.users.On("GetByEmail", mock.Anything, uint(1), "ops@acme.test").Return(user, nil)
	m.users.On("IncrementFailedLogins", mock.Anything, uint(1), uint(9)).Return(nil)
	m.audit.On("RecordAsync", mock.MatchedBy(func(e audit.Entry) bool {
		return e.Level == models.AuditLevelWarning && !e.SecurityEvent
	})).Return()

	_, _, _, err := svc.Login(context.Background(), 1, "ops@acme.test", "wrong", "10.1.2.3")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	m.users.AssertExpectations(t)
	m.users.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	svc, m := newTestService()

	m.users.On("GetByEmail", mock.Anything, uint(1), "ghost@acme.test").Return(nil, repositories.ErrUserNotFound)
	m.audit.On("RecordAsync", mock.Anything).Return()

	_, _, _, err := svc.Login(context.Background(), 1, "ghost@acme.test", "whatever", "")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	m.users.AssertNotCalled(t, "IncrementFailedLogins", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_RepeatedFailuresEscalate(t *testing.T) {
	svc, m := newTestServiceWithCounters()
	user := testOperator(t, "correct horse battery")

	m.users.On("GetByEmail", mock.Anything, uint(1), "ops@acme.test").Return(user, nil)
	m.users.On("IncrementFailedLogins", mock.Anything, uint(1), uint(9)).Return(nil)
	m.counters.On("IncrementCounter", mock.Anything, "login_fail:1:ops@acme.test", loginFailureWindow).Return(int64(5), nil)
	m.audit.On("RecordAsync", mock.MatchedBy(func(e audit.Entry) bool {
		return e.SecurityEvent && e.Level == models.AuditLevelCritical
	})).Return()

	_, _, _, err := svc.Login(context.Background(), 1, "ops@acme.test", "wrong", "10.1.2.3")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	m.audit.AssertExpectations(t)
}

func TestRefresh_RotatesPair(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "correct horse battery")

	_, refresh, err := utils.GenerateTokens(claimsFor(user))
	assert.NoError(t, err)

	m.tenants.On("GetByID", mock.Anything, uint(1)).Return(&models.Tenant{ID: 1, Status: models.TenantStatusActive}, nil)
	m.users.On("GetByID", mock.Anything, uint(1), uint(9)).Return(user, nil)

	access, newRefresh, err := svc.Refresh(context.Background(), refresh)

	assert.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, newRefresh)

	_, claims, err := utils.ParseToken(access)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), claims.TenantID)
	assert.Contains(t, claims.Permissions, models.PermissionTransactionRead)
}

func TestRefresh_StaleTokenVersion(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "correct horse battery")

	_, refresh, err := utils.GenerateTokens(claimsFor(user))
	assert.NoError(t, err)

	rotated := *user
	rotated.TokenVersion = 3
	m.tenants.On("GetByID", mock.Anything, uint(1)).Return(&models.Tenant{ID: 1, Status: models.TenantStatusActive}, nil)
	m.users.On("GetByID", mock.Anything, uint(1), uint(9)).Return(&rotated, nil)

	_, _, err = svc.Refresh(context.Background(), refresh)

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_SuspendedTenant(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "correct horse battery")

	_, refresh, err := utils.GenerateTokens(claimsFor(user))
	assert.NoError(t, err)

	m.tenants.On("GetByID", mock.Anything, uint(1)).Return(&models.Tenant{ID: 1, Status: models.TenantStatusSuspended}, nil)

	_, _, err = svc.Refresh(context.Background(), refresh)

	assert.ErrorIs(t, err, ErrTenantInactive)
	m.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Refresh(context.Background(), "not-a-token")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_RetiresTokens(t *testing.T) {
	svc, m := newTestService()

	m.users.On("IncrementTokenVersion", mock.Anything, uint(1), uint(9)).Return(nil)
	m.audit.On("RecordAsync", mock.MatchedBy(func(e audit.Entry) bool {
		return e.Action == models.AuditActionLogout
	})).Return()

	err := svc.Logout(context.Background(), 1, 9)

	assert.NoError(t, err)
	m.users.AssertExpectations(t)
	m.audit.AssertExpectations(t)
}

func TestChangePassword_RehashesAndBumpsVersion(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "old password!")
	oldHash := user.Password

	m.users.On("GetByID", mock.Anything, uint(1), uint(9)).Return(user, nil)
	m.users.On("Update", mock.Anything, user).Return(nil)
	m.audit.On("Record", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.SecurityEvent && e.EntityType == "user"
	})).Return(nil)

	err := svc.ChangePassword(context.Background(), 1, 9, "old password!", "brand new password")

	assert.NoError(t, err)
	assert.NotEqual(t, oldHash, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("brand new password")))
	assert.Equal(t, 3, user.TokenVersion)
	m.audit.AssertExpectations(t)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "old password!")

	m.users.On("GetByID", mock.Anything, uint(1), uint(9)).Return(user, nil)

	err := svc.ChangePassword(context.Background(), 1, 9, "not it", "brand new password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	m.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangePassword_TooShort(t *testing.T) {
	svc, m := newTestService()
	user := testOperator(t, "old password!")

	m.users.On("GetByID", mock.Anything, uint(1), uint(9)).Return(user, nil)

	err := svc.ChangePassword(context.Background(), 1, 9, "old password!", "short")

	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
	m.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
