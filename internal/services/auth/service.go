package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/utils"
	"merx/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginFailures   = 5
	loginFailureWindow = 15 * time.Minute
)

// Service authenticates tenant operators and manages their credentials.
// Login failures are tracked twice: a windowed counter for burst
// detection and a persistent per-user column.
type Service interface {
	Login(ctx context.Context, tenantID uint, email, password, ip string) (*models.User, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, tenantID, userID uint) error
	ChangePassword(ctx context.Context, tenantID, userID uint, oldPassword, newPassword string) error
}

// Counters is the slice of the cache service used for windowed
// login-failure tracking. Nil disables it; the per-user column still
// counts.
type Counters interface {
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)
}

type service struct {
	users    repositories.UserRepository
	tenants  repositories.TenantRepository
	audit    audit.Service
	counters Counters
	txm      repositories.TransactionManager
}

func NewService(
	users repositories.UserRepository,
	tenants repositories.TenantRepository,
	auditSvc audit.Service,
	counters Counters,
	txm repositories.TransactionManager,
) Service {
	if users == nil {
		panic("auth service requires a user repository")
	}
	if tenants == nil {
		panic("auth service requires a tenant repository")
	}
	if auditSvc == nil {
		panic("auth service requires an audit service")
	}
	if txm == nil {
		panic("auth service requires a transaction manager")
	}
	return &service{
		users:    users,
		tenants:  tenants,
		audit:    auditSvc,
		counters: counters,
		txm:      txm,
	}
}

// Login verifies the operator's password within the resolved tenant.
// Unknown email and wrong password intentionally return the same error.
func (s *service) Login(ctx context.Context, tenantID uint, email, password, ip string) (*models.User, string, string, error) {
	user, err := s.users.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.noteLoginFailure(ctx, tenantID, nil, email, ip)
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.noteLoginFailure(ctx, tenantID, user, email, ip)
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := utils.GenerateTokens(claimsFor(user))
	if err != nil {
		return nil, "", "", fmt.Errorf("generating tokens: %w", err)
	}

	if err := s.users.RecordLogin(ctx, tenantID, user.ID, ip, time.Now().UTC()); err != nil {
		return nil, "", "", err
	}
	s.audit.RecordAsync(audit.Entry{
		TenantID:    tenantID,
		UserID:      &user.ID,
		Action:      models.AuditActionLogin,
		EntityType:  "user",
		EntityID:    user.Email,
		Description: "operator logged in",
		IPAddress:   ip,
	})
	return user, access, refresh, nil
}

// Refresh exchanges a valid refresh token for a new pair. The token's
// tenant must still be active and its version must match the user row.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	tenant, err := s.tenants.GetByID(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrTenantNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if tenant.Status != models.TenantStatusActive {
		return "", "", ErrTenantInactive
	}

	user, err := s.users.GetByID(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", err
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrInvalidCredentials
	}

	access, refresh, err := utils.GenerateTokens(claimsFor(user))
	if err != nil {
		return "", "", fmt.Errorf("generating tokens: %w", err)
	}
	return access, refresh, nil
}

// Logout retires every outstanding token for the user by bumping the
// token version.
func (s *service) Logout(ctx context.Context, tenantID, userID uint) error {
	if err := s.users.IncrementTokenVersion(ctx, tenantID, userID); err != nil {
		return err
	}
	s.audit.RecordAsync(audit.Entry{
		TenantID:    tenantID,
		UserID:      &userID,
		Action:      models.AuditActionLogout,
		EntityType:  "user",
		EntityID:    strconv.FormatUint(uint64(userID), 10),
		Description: "operator logged out",
	})
	return nil
}

func (s *service) ChangePassword(ctx context.Context, tenantID, userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	v := validation.New()
	v.MinLength("password", newPassword, validation.MinPasswordLength)
	v.MaxLength("password", newPassword, validation.MaxPasswordLength)
	if !v.Valid() {
		return v.Err()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		user.Password = string(hashed)
		user.TokenVersion++
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:      tenantID,
			UserID:        &user.ID,
			Action:        models.AuditActionUpdate,
			EntityType:    "user",
			EntityID:      user.Email,
			Description:   "password changed",
			SecurityEvent: true,
		})
	})
}

// noteLoginFailure records one failed attempt. Crossing the windowed
// threshold escalates the audit entry to a critical security event.
func (s *service) noteLoginFailure(ctx context.Context, tenantID uint, user *models.User, email, ip string) {
	var windowed int64
	if s.counters != nil {
		key := fmt.Sprintf("login_fail:%d:%s", tenantID, email)
		n, err := s.counters.IncrementCounter(ctx, key, loginFailureWindow)
		if err == nil {
			windowed = n
		}
	}
	if user != nil {
		if err := s.users.IncrementFailedLogins(ctx, tenantID, user.ID); err != nil {
			slog.Warn("failed to record login failure",
				"tenant_id", tenantID, "user_id", user.ID, "error", err)
		}
	}

	entry := audit.Entry{
		TenantID:    tenantID,
		Action:      models.AuditActionLogin,
		Level:       models.AuditLevelWarning,
		EntityType:  "user",
		EntityID:    email,
		Description: "failed login attempt",
		IPAddress:   ip,
	}
	if user != nil {
		entry.UserID = &user.ID
	}
	if windowed >= maxLoginFailures {
		entry.Level = models.AuditLevelCritical
		entry.Description = fmt.Sprintf("repeated failed login attempts (%d in window)", windowed)
		entry.SecurityEvent = true
	}
	s.audit.RecordAsync(entry)
}

func claimsFor(user *models.User) *models.UserClaims {
	return &models.UserClaims{
		UserID:       user.ID,
		TenantID:     user.TenantID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	}
}
