package tenant

import (
	"context"
	"strings"
	"testing"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func validSignup() SignupRequest {
	return SignupRequest{
		Name:           "Acme Widgets",
		Subdomain:      "acme",
		Plan:           models.PlanProfessional,
		AdminEmail:     "owner@acme.test",
		AdminPassword:  "s3cret-Pass",
		AdminFirstName: "Ada",
		AdminLastName:  "Acme",
	}
}

func TestSignup_CreatesTenantWithAdmin(t *testing.T) {
	repo := new(MockTenantRepo)
	users := new(MockUserRepo)
	auditSvc := new(MockAuditService)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Tenant).ID = 1
	}).Return(nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 10
	}).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.TenantID == 1 &&
			entry.Action == models.AuditActionCreate &&
			entry.EntityType == "tenant" &&
			entry.UserID != nil && *entry.UserID == 10
	})).Return(nil)

	svc := NewService(repo, users, auditSvc, nil, passthroughTx{}, testBaseDomain)
	tenant, user, err := svc.Signup(context.Background(), validSignup())

	assert.NoError(t, err)
	assert.Equal(t, "acme", tenant.Subdomain)
	assert.Equal(t, models.TenantStatusActive, tenant.Status)
	assert.Equal(t, models.PlanProfessional, tenant.Plan)
	assert.Equal(t, 100, tenant.MaxMerchants)
	assert.True(t, strings.HasPrefix(tenant.APIKey, "pk_"))
	assert.Len(t, tenant.APIKey, 63)

	assert.Equal(t, uint(1), user.TenantID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEqual(t, "s3cret-Pass", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-Pass")))

	auditSvc.AssertExpectations(t)
}

func TestSignup_DefaultsToStarterPlan(t *testing.T) {
	repo := new(MockTenantRepo)
	users := new(MockUserRepo)
	auditSvc := new(MockAuditService)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.Anything).Return(nil)

	req := validSignup()
	req.Plan = ""

	svc := NewService(repo, users, auditSvc, nil, passthroughTx{}, testBaseDomain)
	tenant, _, err := svc.Signup(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, models.PlanStarter, tenant.Plan)
	assert.Equal(t, 10, tenant.MaxMerchants)
}

func TestSignup_SubdomainTaken(t *testing.T) {
	repo := new(MockTenantRepo)
	users := new(MockUserRepo)
	auditSvc := new(MockAuditService)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(gorm.ErrDuplicatedKey)
	repo.On("GetBySubdomain", mock.Anything, "acme").Return(activeTenant(9, "acme"), nil)

	svc := NewService(repo, users, auditSvc, nil, passthroughTx{}, testBaseDomain)
	_, _, err := svc.Signup(context.Background(), validSignup())

	assert.ErrorIs(t, err, ErrDuplicateEntity)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_RetriesOnAPIKeyCollision(t *testing.T) {
	repo := new(MockTenantRepo)
	users := new(MockUserRepo)
	auditSvc := new(MockAuditService)

	// First insert collides on the generated key, not the subdomain.
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(gorm.ErrDuplicatedKey).Once()
	repo.On("GetBySubdomain", mock.Anything, "acme").Return(nil, repositories.ErrTenantNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Tenant")).Return(nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, users, auditSvc, nil, passthroughTx{}, testBaseDomain)
	tenant, _, err := svc.Signup(context.Background(), validSignup())

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(tenant.APIKey, "pk_"))
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSignup_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*SignupRequest)
		badField string
	}{
		{"reserved subdomain", func(r *SignupRequest) { r.Subdomain = "api" }, "subdomain"},
		{"uppercase subdomain", func(r *SignupRequest) { r.Subdomain = "Acme" }, "subdomain"},
		{"short subdomain", func(r *SignupRequest) { r.Subdomain = "ab" }, "subdomain"},
		{"hyphen edge subdomain", func(r *SignupRequest) { r.Subdomain = "-acme" }, "subdomain"},
		{"bad email", func(r *SignupRequest) { r.AdminEmail = "not-an-email" }, "admin_email"},
		{"short password", func(r *SignupRequest) { r.AdminPassword = "short" }, "admin_password"},
		{"unknown plan", func(r *SignupRequest) { r.Plan = "platinum" }, "plan"},
		{"missing name", func(r *SignupRequest) { r.Name = "" }, "name"},
	}

	svc := NewService(new(MockTenantRepo), new(MockUserRepo), new(MockAuditService), nil, passthroughTx{}, testBaseDomain)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			_, _, err := svc.Signup(context.Background(), req)

			var verr *validation.Error
			assert.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.badField)
		})
	}
}

func TestUpdatePlan_RewritesLimitSnapshot(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)
	cache := new(MockCache)

	tenant := activeTenant(1, "acme")
	tenant.ApplyPlan(models.PlanStarter)

	repo.On("GetByID", mock.Anything, uint(1)).Return(tenant, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(row *models.Tenant) bool {
		return row.Plan == models.PlanEnterprise && row.MaxMerchants == 2500
	})).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == models.AuditActionUpdate &&
			entry.OldValues["plan"] == models.PlanStarter &&
			entry.NewValues["plan"] == models.PlanEnterprise
	})).Return(nil)
	cache.On("InvalidateTenant", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, new(MockUserRepo), auditSvc, cache, passthroughTx{}, testBaseDomain)
	updated, err := svc.UpdatePlan(context.Background(), 1, models.PlanEnterprise, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1000000, updated.MaxTransactionsPerMonth)
	cache.AssertExpectations(t)
}

func TestUpdatePlan_UnknownPlan(t *testing.T) {
	svc := NewService(new(MockTenantRepo), new(MockUserRepo), new(MockAuditService), nil, passthroughTx{}, testBaseDomain)

	_, err := svc.UpdatePlan(context.Background(), 1, "diamond", nil)

	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestSuspend_RecordsSecurityAudit(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	tenant := activeTenant(1, "acme")
	repo.On("GetByID", mock.Anything, uint(1)).Return(tenant, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(row *models.Tenant) bool {
		return row.Status == models.TenantStatusSuspended
	})).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == models.AuditActionSuspend &&
			entry.Level == models.AuditLevelWarning &&
			entry.SecurityEvent
	})).Return(nil)

	svc := NewService(repo, new(MockUserRepo), auditSvc, nil, passthroughTx{}, testBaseDomain)
	err := svc.Suspend(context.Background(), 1, "chargeback abuse", nil)

	assert.NoError(t, err)
	auditSvc.AssertExpectations(t)
}

func TestSuspend_AlreadySuspended(t *testing.T) {
	repo := new(MockTenantRepo)

	tenant := activeTenant(1, "acme")
	tenant.Status = models.TenantStatusSuspended
	repo.On("GetByID", mock.Anything, uint(1)).Return(tenant, nil)

	svc := NewService(repo, new(MockUserRepo), new(MockAuditService), nil, passthroughTx{}, testBaseDomain)
	err := svc.Suspend(context.Background(), 1, "again", nil)

	assert.ErrorIs(t, err, ErrInvalidState)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReactivate_OnlyFromSuspended(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)

	tenant := activeTenant(1, "acme")
	tenant.Status = models.TenantStatusSuspended
	repo.On("GetByID", mock.Anything, uint(1)).Return(tenant, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(row *models.Tenant) bool {
		return row.Status == models.TenantStatusActive
	})).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == models.AuditActionActivate && entry.SecurityEvent
	})).Return(nil)

	svc := NewService(repo, new(MockUserRepo), auditSvc, nil, passthroughTx{}, testBaseDomain)
	assert.NoError(t, svc.Reactivate(context.Background(), 1, nil))
}

func TestReactivate_ActiveTenantFails(t *testing.T) {
	repo := new(MockTenantRepo)
	repo.On("GetByID", mock.Anything, uint(1)).Return(activeTenant(1, "acme"), nil)

	svc := NewService(repo, new(MockUserRepo), new(MockAuditService), nil, passthroughTx{}, testBaseDomain)
	err := svc.Reactivate(context.Background(), 1, nil)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRotateAPIKey_InvalidatesOldKey(t *testing.T) {
	repo := new(MockTenantRepo)
	auditSvc := new(MockAuditService)
	cache := new(MockCache)

	tenant := activeTenant(1, "acme")
	oldKey := tenant.APIKey

	repo.On("GetByID", mock.Anything, uint(1)).Return(tenant, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(row *models.Tenant) bool {
		return row.APIKey != oldKey && strings.HasPrefix(row.APIKey, "pk_")
	})).Return(nil)
	auditSvc.On("Record", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		oldPrefix, _ := entry.OldValues["api_key_prefix"].(string)
		newPrefix, _ := entry.NewValues["api_key_prefix"].(string)
		return entry.SecurityEvent &&
			len(oldPrefix) == 10 && len(newPrefix) == 10 &&
			oldPrefix != oldKey
	})).Return(nil)
	// The stale row, holding the retired key, drives invalidation.
	cache.On("InvalidateTenant", mock.Anything, mock.MatchedBy(func(row *models.Tenant) bool {
		return row.APIKey == oldKey
	})).Return(nil)

	svc := NewService(repo, new(MockUserRepo), auditSvc, cache, passthroughTx{}, testBaseDomain)
	newKey, err := svc.RotateAPIKey(context.Background(), 1, nil)

	assert.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)
	assert.Len(t, newKey, 63)
	cache.AssertExpectations(t)
	auditSvc.AssertExpectations(t)
}
