package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyBytes = 30 // "pk_" + 60 hex chars

// signupRetries bounds api-key regeneration when a generated key collides.
const signupRetries = 3

type service struct {
	repo       repositories.TenantRepository
	users      repositories.UserRepository
	audit      audit.Service
	cache      Cache
	txm        repositories.TransactionManager
	baseDomain string
}

// NewService creates the tenant service. cache may be nil.
func NewService(
	repo repositories.TenantRepository,
	users repositories.UserRepository,
	auditSvc audit.Service,
	cache Cache,
	txm repositories.TransactionManager,
	baseDomain string,
) Service {
	if repo == nil {
		panic("tenant repository is required")
	}
	if users == nil {
		panic("user repository is required")
	}
	if auditSvc == nil {
		panic("audit service is required")
	}
	if txm == nil {
		panic("transaction manager is required")
	}
	return &service{
		repo:       repo,
		users:      users,
		audit:      auditSvc,
		cache:      cache,
		txm:        txm,
		baseDomain: baseDomain,
	}
}

// Signup creates a tenant and its first admin operator atomically. The
// caller picked the subdomain, so a subdomain collision surfaces as a
// duplicate; generated API keys retry silently.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*models.Tenant, *models.User, error) {
	if req.Plan == "" {
		req.Plan = models.PlanStarter
	}
	if err := validateSignup(req); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		tenant *models.Tenant
		user   *models.User
	)
	for attempt := 0; attempt < signupRetries; attempt++ {
		apiKey, err := generateAPIKey()
		if err != nil {
			return nil, nil, err
		}

		tenant = &models.Tenant{
			Name:      req.Name,
			Subdomain: req.Subdomain,
			APIKey:    apiKey,
			Status:    models.TenantStatusActive,
		}
		tenant.ApplyPlan(req.Plan)

		err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, tenant); err != nil {
				return err
			}

			user = &models.User{
				TenantID:  tenant.ID,
				Email:     req.AdminEmail,
				Password:  string(hashed),
				FirstName: req.AdminFirstName,
				LastName:  req.AdminLastName,
				Role:      models.RoleAdmin,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return err
			}

			return s.audit.Record(ctx, audit.Entry{
				TenantID:    tenant.ID,
				UserID:      &user.ID,
				Action:      models.AuditActionCreate,
				EntityType:  "tenant",
				EntityID:    strconv.FormatUint(uint64(tenant.ID), 10),
				Description: fmt.Sprintf("tenant %q signed up on %s plan", tenant.Name, tenant.Plan),
				NewValues:   models.JSON{"subdomain": tenant.Subdomain, "plan": tenant.Plan},
			})
		})
		if err == nil {
			return tenant, user, nil
		}
		if !repositories.IsDuplicateKey(err) {
			return nil, nil, err
		}

		// A duplicate can be the chosen subdomain or the generated key.
		// Only the key is retryable.
		if _, lookupErr := s.repo.GetBySubdomain(ctx, req.Subdomain); lookupErr == nil {
			return nil, nil, ErrDuplicateEntity
		}
	}
	return nil, nil, fmt.Errorf("%w: could not allocate api key", ErrDuplicateEntity)
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *service) UpdatePlan(ctx context.Context, tenantID uint, plan string, userID *uint) (*models.Tenant, error) {
	if !validation.IsValidPlan(plan) {
		return nil, validation.NewFieldError("plan", "unknown plan")
	}

	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	oldValues := models.JSON{"plan": tenant.Plan, "max_merchants": tenant.MaxMerchants}
	tenant.ApplyPlan(plan)

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:    tenant.ID,
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			EntityType:  "tenant",
			EntityID:    strconv.FormatUint(uint64(tenant.ID), 10),
			Description: "subscription plan changed",
			OldValues:   oldValues,
			NewValues:   models.JSON{"plan": tenant.Plan, "max_merchants": tenant.MaxMerchants},
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenant)
	return tenant, nil
}

func (s *service) Suspend(ctx context.Context, tenantID uint, reason string, userID *uint) error {
	if reason == "" {
		return validation.NewFieldError("reason", "must not be empty")
	}

	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.Status == models.TenantStatusSuspended {
		return ErrInvalidState
	}

	old := tenant.Status
	tenant.Status = models.TenantStatusSuspended

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:      tenant.ID,
			UserID:        userID,
			Action:        models.AuditActionSuspend,
			Level:         models.AuditLevelWarning,
			EntityType:    "tenant",
			EntityID:      strconv.FormatUint(uint64(tenant.ID), 10),
			Description:   fmt.Sprintf("tenant suspended: %s", reason),
			OldValues:     models.JSON{"status": old},
			NewValues:     models.JSON{"status": tenant.Status, "reason": reason},
			SecurityEvent: true,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, tenant)
	return nil
}

func (s *service) Reactivate(ctx context.Context, tenantID uint, userID *uint) error {
	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.Status != models.TenantStatusSuspended {
		return ErrInvalidState
	}

	old := tenant.Status
	tenant.Status = models.TenantStatusActive

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:      tenant.ID,
			UserID:        userID,
			Action:        models.AuditActionActivate,
			EntityType:    "tenant",
			EntityID:      strconv.FormatUint(uint64(tenant.ID), 10),
			Description:   "tenant reactivated",
			OldValues:     models.JSON{"status": old},
			NewValues:     models.JSON{"status": tenant.Status},
			SecurityEvent: true,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, tenant)
	return nil
}

// RotateAPIKey replaces the tenant's key and returns the new secret. The
// old key stops resolving as soon as its cache entry dies.
func (s *service) RotateAPIKey(ctx context.Context, tenantID uint, userID *uint) (string, error) {
	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	// Invalidate under the old key before the row changes.
	stale := *tenant

	newKey, err := generateAPIKey()
	if err != nil {
		return "", err
	}
	tenant.APIKey = newKey

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:      tenant.ID,
			UserID:        userID,
			Action:        models.AuditActionUpdate,
			EntityType:    "tenant",
			EntityID:      strconv.FormatUint(uint64(tenant.ID), 10),
			Description:   "api key rotated",
			OldValues:     models.JSON{"api_key_prefix": keyPrefix(stale.APIKey)},
			NewValues:     models.JSON{"api_key_prefix": keyPrefix(newKey)},
			SecurityEvent: true,
		})
	})
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, &stale)
	return newKey, nil
}

func (s *service) invalidate(ctx context.Context, tenant *models.Tenant) {
	if s.cache != nil {
		_ = s.cache.InvalidateTenant(ctx, tenant)
	}
}

func generateAPIKey() (string, error) {
	bytes := make([]byte, apiKeyBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return "pk_" + hex.EncodeToString(bytes), nil
}

// keyPrefix keeps only enough of a secret to correlate audit entries.
func keyPrefix(key string) string {
	if len(key) <= 10 {
		return key
	}
	return key[:10]
}

func validateSignup(req SignupRequest) error {
	v := validation.New()
	v.Check(req.Name != "", "name", "must not be empty")
	v.Check(validation.IsValidSubdomain(req.Subdomain), "subdomain",
		"must be 3-40 lowercase letters, digits or hyphens and not reserved")
	v.Check(validation.IsValidPlan(req.Plan), "plan", "unknown plan")
	v.Check(validation.IsValidEmail(req.AdminEmail), "admin_email", "must be a valid email address")
	v.Check(len(req.AdminPassword) >= 8, "admin_password", "must be at least 8 characters")
	if !v.Valid() {
		return v.Err()
	}
	return nil
}
