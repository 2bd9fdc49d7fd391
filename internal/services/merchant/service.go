package merchant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/utils"
	"merx/internal/validation"
)

type service struct {
	repo    repositories.MerchantRepository
	tenants repositories.TenantRepository
	audit   audit.Service
	txm     repositories.TransactionManager
}

// NewService creates the merchant lifecycle service.
func NewService(
	repo repositories.MerchantRepository,
	tenants repositories.TenantRepository,
	auditSvc audit.Service,
	txm repositories.TransactionManager,
) Service {
	if repo == nil {
		panic("merchant repository is required")
	}
	if tenants == nil {
		panic("tenant repository is required")
	}
	if auditSvc == nil {
		panic("audit service is required")
	}
	if txm == nil {
		panic("transaction manager is required")
	}
	return &service{
		repo:    repo,
		tenants: tenants,
		audit:   auditSvc,
		txm:     txm,
	}
}

func (s *service) Create(ctx context.Context, tenantID uint, req CreateRequest, userID *uint) (*models.Merchant, error) {
	if req.BusinessType == "" {
		req.BusinessType = models.MerchantTypeIndividual
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	if !tenant.IsActive() {
		return nil, ErrTenantInactive
	}

	for attempt := 0; attempt < createRetries; attempt++ {
		merchantID, err := utils.GenerateMerchantID()
		if err != nil {
			return nil, err
		}
		if exists, err := s.repo.MerchantIDExists(ctx, merchantID); err != nil {
			return nil, err
		} else if exists {
			continue
		}

		m := &models.Merchant{
			MerchantID:   merchantID,
			TenantID:     tenantID,
			Email:        req.Email,
			BusinessName: req.BusinessName,
			BusinessType: req.BusinessType,
			Status:       models.MerchantStatusPending,
			KYCStatus:    models.KYCStatusNotStarted,
		}

		err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
			count, err := s.repo.CountByTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			if count >= int64(tenant.MaxMerchants) {
				return ErrPlanLimitExceeded
			}
			if err := s.repo.Create(ctx, m); err != nil {
				return err
			}
			return s.audit.Record(ctx, audit.Entry{
				TenantID:    tenantID,
				UserID:      userID,
				Action:      models.AuditActionCreate,
				EntityType:  "merchant",
				EntityID:    m.MerchantID,
				Description: fmt.Sprintf("merchant %q onboarded", m.BusinessName),
				NewValues:   models.JSON{"status": m.Status, "kyc_status": m.KYCStatus, "email": m.Email},
			})
		})
		if err == nil {
			return m, nil
		}
		if !repositories.IsDuplicateKey(err) {
			return nil, err
		}

		// Email and merchant id share the unique-violation error; only an
		// id collision is retryable.
		if _, lookupErr := s.repo.GetByEmail(ctx, tenantID, req.Email); lookupErr == nil {
			return nil, ErrDuplicateEntity
		}
	}
	return nil, fmt.Errorf("%w: could not allocate merchant id", ErrDuplicateEntity)
}

func (s *service) Get(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error) {
	return s.getForTenant(ctx, tenantID, merchantID)
}

func (s *service) List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.Merchant, int64, error) {
	return s.repo.List(ctx, tenantID, filter, limit, offset)
}

func (s *service) Delete(ctx context.Context, tenantID uint, merchantID string, userID *uint) error {
	return s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.getForTenant(ctx, tenantID, merchantID)
		if err != nil {
			return err
		}
		if err := s.repo.SoftDelete(ctx, tenantID, m.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			TenantID:    tenantID,
			UserID:      userID,
			Action:      models.AuditActionDelete,
			EntityType:  "merchant",
			EntityID:    m.MerchantID,
			Description: fmt.Sprintf("merchant %q deleted", m.BusinessName),
			OldValues:   stateSnapshot(m),
		})
	})
}

func (s *service) StartKyc(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error) {
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.KYCStatus != models.KYCStatusNotStarted && m.KYCStatus != models.KYCStatusExpired {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		m.KYCStatus = models.KYCStatusInProgress
		if m.Status == models.MerchantStatusPending {
			m.Status = models.MerchantStatusUnderReview
		}
		return audit.Entry{
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			Description: "kyc verification started",
			OldValues:   old,
			NewValues:   stateSnapshot(m),
		}, nil
	})
}

func (s *service) UploadKycDocument(ctx context.Context, tenantID uint, merchantID, docType, reference string, userID *uint) (*models.Merchant, error) {
	v := validation.New()
	v.Required("doc_type", docType)
	v.Required("reference", reference)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		// No uploads once a reviewer has decided.
		if m.KYCStatus == models.KYCStatusApproved || m.KYCStatus == models.KYCStatusRejected {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		if m.KYCDocuments == nil {
			m.KYCDocuments = models.JSON{}
		}
		m.KYCDocuments[docType] = reference
		if m.KYCStatus == models.KYCStatusInProgress && hasAllRequiredDocuments(m) {
			m.KYCStatus = models.KYCStatusPendingReview
		}
		return audit.Entry{
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("kyc document %s uploaded", docType),
			OldValues:   old,
			NewValues:   stateSnapshot(m),
		}, nil
	})
}

func (s *service) ApproveKyc(ctx context.Context, tenantID uint, merchantID string, reviewerID *uint) (*models.Merchant, error) {
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.KYCStatus != models.KYCStatusPendingReview {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		now := time.Now()
		m.KYCStatus = models.KYCStatusApproved
		m.Status = models.MerchantStatusApproved
		m.KYCVerifiedAt = &now
		m.ApprovedAt = &now
		return audit.Entry{
			UserID:        reviewerID,
			Action:        models.AuditActionApprove,
			Description:   "kyc approved",
			OldValues:     old,
			NewValues:     stateSnapshot(m),
			SecurityEvent: true,
		}, nil
	})
}

func (s *service) RejectKyc(ctx context.Context, tenantID uint, merchantID, reason string, reviewerID *uint) (*models.Merchant, error) {
	if reason == "" {
		return nil, validation.NewFieldError("reason", "must not be empty")
	}
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.KYCStatus != models.KYCStatusPendingReview {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		m.KYCStatus = models.KYCStatusRejected
		m.Status = models.MerchantStatusRejected
		m.RejectionReason = reason
		return audit.Entry{
			UserID:        reviewerID,
			Action:        models.AuditActionReject,
			Level:         models.AuditLevelWarning,
			Description:   fmt.Sprintf("kyc rejected: %s", reason),
			OldValues:     old,
			NewValues:     stateSnapshot(m),
			SecurityEvent: true,
		}, nil
	})
}

// ExpireKyc is invoked by an external scheduler when a merchant's
// verification passes its validity window.
func (s *service) ExpireKyc(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error) {
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.KYCStatus != models.KYCStatusApproved {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		m.KYCStatus = models.KYCStatusExpired
		if m.Status == models.MerchantStatusActive {
			m.Status = models.MerchantStatusSuspended
			m.IsActive = false
			m.SuspensionReason = "kyc expired"
		}
		return audit.Entry{
			Action:      models.AuditActionUpdate,
			Level:       models.AuditLevelWarning,
			Description: "kyc expired",
			OldValues:   old,
			NewValues:   stateSnapshot(m),
		}, nil
	})
}

func (s *service) Activate(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error) {
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.KYCStatus != models.KYCStatusApproved {
			return audit.Entry{}, ErrKycNotApproved
		}
		if m.Status != models.MerchantStatusApproved {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		m.Status = models.MerchantStatusActive
		m.IsActive = true
		return audit.Entry{
			UserID:        userID,
			Action:        models.AuditActionActivate,
			Description:   "merchant activated",
			OldValues:     old,
			NewValues:     stateSnapshot(m),
			SecurityEvent: true,
		}, nil
	})
}

func (s *service) Suspend(ctx context.Context, tenantID uint, merchantID, reason string, userID *uint) (*models.Merchant, error) {
	if reason == "" {
		return nil, validation.NewFieldError("reason", "must not be empty")
	}
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.Status != models.MerchantStatusActive {
			return audit.Entry{}, ErrInvalidState
		}
		old := stateSnapshot(m)
		m.Status = models.MerchantStatusSuspended
		m.IsActive = false
		m.SuspensionReason = reason
		return audit.Entry{
			UserID:        userID,
			Action:        models.AuditActionSuspend,
			Level:         models.AuditLevelWarning,
			Description:   fmt.Sprintf("merchant suspended: %s", reason),
			OldValues:     old,
			NewValues:     stateSnapshot(m),
			SecurityEvent: true,
		}, nil
	})
}

func (s *service) Reactivate(ctx context.Context, tenantID uint, merchantID string, userID *uint) (*models.Merchant, error) {
	return s.transition(ctx, tenantID, merchantID, func(m *models.Merchant) (audit.Entry, error) {
		if m.Status != models.MerchantStatusSuspended {
			return audit.Entry{}, ErrInvalidState
		}
		if m.KYCStatus != models.KYCStatusApproved {
			return audit.Entry{}, ErrKycNotApproved
		}
		old := stateSnapshot(m)
		m.Status = models.MerchantStatusActive
		m.IsActive = true
		m.SuspensionReason = ""
		return audit.Entry{
			UserID:        userID,
			Action:        models.AuditActionActivate,
			Description:   "merchant reactivated",
			OldValues:     old,
			NewValues:     stateSnapshot(m),
			SecurityEvent: true,
		}, nil
	})
}

// transition loads the merchant, applies fn, persists and audits, all in
// one storage transaction. fn returns the audit entry for the change;
// returning an error aborts with nothing written.
func (s *service) transition(ctx context.Context, tenantID uint, merchantID string, fn func(m *models.Merchant) (audit.Entry, error)) (*models.Merchant, error) {
	var out *models.Merchant
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.getForTenant(ctx, tenantID, merchantID)
		if err != nil {
			return err
		}
		entry, err := fn(m)
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		entry.TenantID = tenantID
		entry.EntityType = "merchant"
		entry.EntityID = m.MerchantID
		if err := s.audit.Record(ctx, entry); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getForTenant resolves a merchant under the caller's tenant. A scoped
// miss triggers an unscoped probe so that touching another tenant's
// merchant id is distinguishable from a plain miss and leaves a security
// trail. The probe's audit entry is async: it must survive the caller's
// rollback.
func (s *service) getForTenant(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error) {
	m, err := s.repo.GetByMerchantID(ctx, tenantID, merchantID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repositories.ErrMerchantNotFound) {
		return nil, err
	}

	exists, probeErr := s.repo.MerchantIDExists(ctx, merchantID)
	if probeErr != nil {
		return nil, probeErr
	}
	if exists {
		s.audit.RecordAsync(audit.Entry{
			TenantID:      tenantID,
			Action:        models.AuditActionAccess,
			Level:         models.AuditLevelCritical,
			EntityType:    "merchant",
			EntityID:      merchantID,
			Description:   "cross-tenant merchant access attempt",
			SecurityEvent: true,
		})
		return nil, ErrTenantMismatch
	}
	return nil, ErrMerchantNotFound
}

func stateSnapshot(m *models.Merchant) models.JSON {
	return models.JSON{"status": m.Status, "kyc_status": m.KYCStatus}
}

func hasAllRequiredDocuments(m *models.Merchant) bool {
	for _, doc := range requiredKycDocuments {
		if !m.HasKYCDocument(doc) {
			return false
		}
	}
	return true
}

func validateCreate(req CreateRequest) error {
	v := validation.New()
	v.Required("business_name", req.BusinessName)
	v.MaxLength("business_name", req.BusinessName, validation.MaxNameLength)
	v.Check(validation.IsValidMerchantType(req.BusinessType), "business_type", "unknown business type")
	v.Email("email", req.Email)
	return v.Err()
}
