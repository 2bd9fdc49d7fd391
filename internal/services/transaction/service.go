package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/services/risk"
	"merx/internal/utils"
	"merx/internal/validation"
)

type service struct {
	repo      repositories.TransactionRepository
	merchants repositories.MerchantRepository
	tenants   repositories.TenantRepository
	audit     audit.Service
	counters  Counters
	txm       repositories.TransactionManager
	fees      *FeeCalculator
}

// NewService creates the transaction lifecycle service. counters may be
// nil, in which case velocity reads always fall back to storage counts.
func NewService(
	repo repositories.TransactionRepository,
	merchants repositories.MerchantRepository,
	tenants repositories.TenantRepository,
	auditSvc audit.Service,
	counters Counters,
	txm repositories.TransactionManager,
	fees *FeeCalculator,
) Service {
	if repo == nil {
		panic("transaction service requires a transaction repository")
	}
	if merchants == nil {
		panic("transaction service requires a merchant repository")
	}
	if tenants == nil {
		panic("transaction service requires a tenant repository")
	}
	if auditSvc == nil {
		panic("transaction service requires an audit service")
	}
	if txm == nil {
		panic("transaction service requires a transaction manager")
	}
	if fees == nil {
		panic("transaction service requires a fee calculator")
	}
	return &service{
		repo:      repo,
		merchants: merchants,
		tenants:   tenants,
		audit:     auditSvc,
		counters:  counters,
		txm:       txm,
		fees:      fees,
	}
}

// Create runs the full payment pipeline: validation, merchant and plan
// checks, risk scoring, fee calculation and persistence. The risk verdict
// decides the terminal status synchronously; a decline still persists the
// row so the attempt is visible and feeds future velocity and history
// signals.
func (s *service) Create(ctx context.Context, tenantID uint, req CreateRequest, userID *uint) (*models.Transaction, error) {
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodCreditCard
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	merchant, err := s.merchantForTenant(ctx, tenantID, req.MerchantID)
	if err != nil {
		return nil, err
	}
	if merchant.Status != models.MerchantStatusActive || !merchant.IsActive {
		return nil, ErrMerchantNotActive
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	if !tenant.IsActive() {
		return nil, ErrTenantInactive
	}

	now := time.Now().UTC()
	input, err := s.gatherSignals(ctx, tenantID, merchant, req, now)
	if err != nil {
		return nil, fmt.Errorf("gathering risk signals: %w", err)
	}
	assessment := risk.Score(input)
	fee, net := s.fees.Calculate(req.Amount)

	txn := &models.Transaction{
		ExternalTransactionID: req.ExternalTransactionID,
		TenantID:              tenantID,
		MerchantID:            merchant.ID,
		Type:                  models.TransactionTypePayment,
		PaymentMethod:         req.PaymentMethod,
		Amount:                round2(req.Amount),
		Currency:              req.Currency,
		FeeAmount:             fee,
		NetAmount:             net,
		Description:           req.Description,
		RiskScore:             assessment.Score,
		RiskLevel:             assessment.Level,
		RiskRecommendation:    assessment.Recommendation,
		RiskFactors:           models.StringArray(assessment.Factors),
		CustomerEmail:         req.CustomerEmail,
		CustomerCountry:       req.CustomerCountry,
		IPAddress:             req.IPAddress,
		Metadata:              req.Metadata,
	}
	if assessment.Recommendation == risk.RecommendDecline {
		txn.Status = models.TransactionStatusFailed
		txn.FailureCode = FailureCodeRiskDeclined
		txn.FailureReason = fmt.Sprintf("declined by risk assessment (score %d)", assessment.Score)
	} else {
		txn.Status = models.TransactionStatusCompleted
		txn.ProcessedAt = &now
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for attempt := 0; attempt < createRetries; attempt++ {
		transactionID, err := s.newTransactionID(ctx)
		if err != nil {
			return nil, err
		}
		txn.TransactionID = transactionID

		err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
			monthCount, err := s.repo.CountSince(ctx, tenantID, monthStart)
			if err != nil {
				return err
			}
			if monthCount >= int64(tenant.MaxTransactionsPerMonth) {
				return ErrPlanLimitExceeded
			}
			if err := s.repo.Create(ctx, txn); err != nil {
				return err
			}
			if txn.Status == models.TransactionStatusCompleted {
				if err := s.merchants.RecordTransaction(ctx, tenantID, merchant.ID, txn.Amount, now); err != nil {
					return err
				}
			}
			if err := s.audit.Record(ctx, audit.Entry{
				TenantID:    tenantID,
				UserID:      userID,
				Action:      models.AuditActionCreate,
				EntityType:  "transaction",
				EntityID:    txn.TransactionID,
				Description: fmt.Sprintf("%s payment of %.2f %s", txn.Status, txn.Amount, txn.Currency),
				NewValues: models.JSON{
					"merchant_id": merchant.MerchantID,
					"amount":      txn.Amount,
					"currency":    txn.Currency,
					"status":      txn.Status,
				},
			}); err != nil {
				return err
			}
			return s.audit.Record(ctx, riskEntry(txn, assessment))
		})
		if err == nil {
			// Counters only move after the row is committed so a rollback
			// never inflates velocity.
			s.bumpVelocity(ctx, tenantID, req.CustomerEmail, merchant.ID)
			return txn, nil
		}
		// transaction_id carries the only unique constraint on this
		// table, so a duplicate here lost a race with the pre-insert
		// probe. Regenerate and retry.
		if !repositories.IsDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a transaction id", ErrDuplicateEntity)
}

func (s *service) Get(ctx context.Context, tenantID uint, transactionID string) (*models.Transaction, error) {
	return s.getForTenant(ctx, tenantID, transactionID)
}

func (s *service) List(ctx context.Context, tenantID uint, filter Filter, limit, offset int) ([]models.Transaction, int64, error) {
	return s.repo.List(ctx, tenantID, filter, limit, offset)
}

// Refund creates a completed refund child and updates the parent's
// refund accounting, all under a row lock on the parent so concurrent
// refunds cannot overdraw it.
func (s *service) Refund(ctx context.Context, tenantID uint, transactionID string, req RefundRequest, userID *uint) (*models.Transaction, error) {
	amount := round2(req.Amount)
	if amount <= 0 {
		return nil, ErrInvalidRefundAmount
	}

	var refund *models.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		located, err := s.getForTenant(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		parent, err := s.repo.GetByIDForUpdate(ctx, tenantID, located.ID)
		if err != nil {
			return err
		}
		if !parent.IsRefundable() {
			return ErrInvalidState
		}

		refunded, err := s.repo.SumCompletedRefunds(ctx, tenantID, parent.ID)
		if err != nil {
			return err
		}
		remaining := round2(parent.Amount - refunded)
		if amount > remaining {
			return ErrInvalidRefundAmount
		}

		refundID, err := s.newTransactionID(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		refund = &models.Transaction{
			TransactionID:       refundID,
			TenantID:            tenantID,
			MerchantID:          parent.MerchantID,
			Type:                models.TransactionTypeRefund,
			Status:              models.TransactionStatusCompleted,
			PaymentMethod:       parent.PaymentMethod,
			Amount:              amount,
			Currency:            parent.Currency,
			Description:         req.Reason,
			ParentTransactionID: &parent.ID,
			ProcessedAt:         &now,
		}
		if err := s.repo.Create(ctx, refund); err != nil {
			return err
		}

		oldStatus := parent.Status
		parent.RefundedAmount = round2(refunded + amount)
		if parent.RefundedAmount >= parent.Amount {
			parent.Status = models.TransactionStatusRefunded
		} else {
			parent.Status = models.TransactionStatusPartiallyRefunded
		}
		if err := s.repo.Update(ctx, parent); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			TenantID:    tenantID,
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			EntityType:  "transaction",
			EntityID:    parent.TransactionID,
			Description: fmt.Sprintf("refunded %.2f %s", amount, parent.Currency),
			OldValues:   models.JSON{"status": oldStatus, "refunded_amount": refunded},
			NewValues: models.JSON{
				"status":          parent.Status,
				"refunded_amount": parent.RefundedAmount,
				"refund_id":       refund.TransactionID,
				"reason":          req.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// Cancel voids a transaction still waiting to be processed.
func (s *service) Cancel(ctx context.Context, tenantID uint, transactionID, reason string, userID *uint) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.getForTenant(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if txn.Status != models.TransactionStatusPending {
			return ErrInvalidState
		}
		oldStatus := txn.Status
		txn.Status = models.TransactionStatusCancelled
		if reason != "" {
			txn.FailureReason = reason
		}
		if err := s.repo.Update(ctx, txn); err != nil {
			return err
		}
		out = txn
		return s.audit.Record(ctx, audit.Entry{
			TenantID:    tenantID,
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			EntityType:  "transaction",
			EntityID:    txn.TransactionID,
			Description: "transaction cancelled",
			OldValues:   models.JSON{"status": oldStatus},
			NewValues:   models.JSON{"status": txn.Status, "reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies an administrative correction. Only the fields present in
// the request change; a status edit is flagged as a security event since
// it bypasses the lifecycle.
func (s *service) Update(ctx context.Context, tenantID uint, transactionID string, req UpdateRequest, userID *uint) (*models.Transaction, error) {
	if req.Status != nil && !validation.IsValidTransactionStatus(*req.Status) {
		return nil, validation.NewFieldError("status", "unknown transaction status")
	}

	var out *models.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.getForTenant(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}

		oldValues := models.JSON{}
		newValues := models.JSON{}
		statusEdited := false
		if req.Status != nil && *req.Status != txn.Status {
			oldValues["status"] = txn.Status
			txn.Status = *req.Status
			newValues["status"] = txn.Status
			statusEdited = true
		}
		if req.FailureCode != nil && *req.FailureCode != txn.FailureCode {
			oldValues["failure_code"] = txn.FailureCode
			txn.FailureCode = *req.FailureCode
			newValues["failure_code"] = txn.FailureCode
		}
		if req.FailureReason != nil && *req.FailureReason != txn.FailureReason {
			oldValues["failure_reason"] = txn.FailureReason
			txn.FailureReason = *req.FailureReason
			newValues["failure_reason"] = txn.FailureReason
		}
		if req.Metadata != nil {
			oldValues["metadata"] = txn.Metadata
			txn.Metadata = *req.Metadata
			newValues["metadata"] = txn.Metadata
		}
		if len(newValues) == 0 {
			out = txn
			return nil
		}

		if err := s.repo.Update(ctx, txn); err != nil {
			return err
		}
		out = txn

		entry := audit.Entry{
			TenantID:    tenantID,
			UserID:      userID,
			Action:      models.AuditActionUpdate,
			EntityType:  "transaction",
			EntityID:    txn.TransactionID,
			Description: "administrative correction",
			OldValues:   oldValues,
			NewValues:   newValues,
		}
		if statusEdited {
			entry.Level = models.AuditLevelWarning
			entry.SecurityEvent = true
		}
		return s.audit.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkChargeback registers a dispute against a settled payment: a
// completed chargeback child for the full payment amount, a marker in the
// parent's metadata, and a critical security audit entry. The child
// carries the customer email so future scoring sees the chargeback.
func (s *service) MarkChargeback(ctx context.Context, tenantID uint, transactionID, reason string, userID *uint) (*models.Transaction, error) {
	if reason == "" {
		return nil, validation.NewFieldError("reason", "is required")
	}

	var chargeback *models.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		located, err := s.getForTenant(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		parent, err := s.repo.GetByIDForUpdate(ctx, tenantID, located.ID)
		if err != nil {
			return err
		}
		// Same set refunds accept: a settled payment, whether or not
		// money has already gone back.
		if !parent.IsRefundable() {
			return ErrInvalidState
		}

		chargebackID, err := s.newTransactionID(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		chargeback = &models.Transaction{
			TransactionID:       chargebackID,
			TenantID:            tenantID,
			MerchantID:          parent.MerchantID,
			Type:                models.TransactionTypeChargeback,
			Status:              models.TransactionStatusCompleted,
			PaymentMethod:       parent.PaymentMethod,
			Amount:              parent.Amount,
			Currency:            parent.Currency,
			Description:         reason,
			CustomerEmail:       parent.CustomerEmail,
			ParentTransactionID: &parent.ID,
			ProcessedAt:         &now,
		}
		if err := s.repo.Create(ctx, chargeback); err != nil {
			return err
		}

		if parent.Metadata == nil {
			parent.Metadata = models.JSON{}
		}
		parent.Metadata["chargeback_id"] = chargeback.TransactionID
		parent.Metadata["chargeback_at"] = now.Format(time.RFC3339)
		if err := s.repo.Update(ctx, parent); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			TenantID:      tenantID,
			UserID:        userID,
			Action:        models.AuditActionCreate,
			Level:         models.AuditLevelCritical,
			EntityType:    "transaction",
			EntityID:      chargeback.TransactionID,
			Description:   fmt.Sprintf("chargeback against %s: %s", parent.TransactionID, reason),
			SecurityEvent: true,
			NewValues: models.JSON{
				"parent_transaction_id": parent.TransactionID,
				"amount":                chargeback.Amount,
				"reason":                reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return chargeback, nil
}

// getForTenant loads a transaction scoped to the tenant. A scoped miss
// for an id that exists elsewhere is recorded as a security event and
// surfaces as a tenant mismatch, never as a plain miss.
func (s *service) getForTenant(ctx context.Context, tenantID uint, transactionID string) (*models.Transaction, error) {
	txn, err := s.repo.GetByTransactionID(ctx, tenantID, transactionID)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, err
	}
	exists, probeErr := s.repo.TransactionIDExists(ctx, transactionID)
	if probeErr != nil {
		return nil, probeErr
	}
	if exists {
		// Async so the entry survives the caller's rollback.
		s.audit.RecordAsync(audit.Entry{
			TenantID:      tenantID,
			Action:        models.AuditActionAccess,
			Level:         models.AuditLevelCritical,
			EntityType:    "transaction",
			EntityID:      transactionID,
			Description:   "cross-tenant transaction access attempt",
			SecurityEvent: true,
		})
		return nil, ErrTenantMismatch
	}
	return nil, ErrTransactionNotFound
}

// merchantForTenant resolves the target merchant with the same
// cross-tenant probe discipline as transaction lookups.
func (s *service) merchantForTenant(ctx context.Context, tenantID uint, merchantID string) (*models.Merchant, error) {
	m, err := s.merchants.GetByMerchantID(ctx, tenantID, merchantID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repositories.ErrMerchantNotFound) {
		return nil, err
	}
	exists, probeErr := s.merchants.MerchantIDExists(ctx, merchantID)
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

// newTransactionID generates an id that is free at probe time. The
// insert's unique constraint still backstops the race.
func (s *service) newTransactionID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < createRetries; attempt++ {
		id, err := utils.GenerateTransactionID()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.TransactionIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a transaction id", ErrDuplicateEntity)
}

func riskEntry(txn *models.Transaction, a risk.Assessment) audit.Entry {
	level := models.AuditLevelInfo
	if a.Level == risk.LevelHigh {
		level = models.AuditLevelWarning
	}
	return audit.Entry{
		TenantID:    txn.TenantID,
		Action:      models.AuditActionCreate,
		Level:       level,
		EntityType:  "risk_assessment",
		EntityID:    txn.TransactionID,
		Description: fmt.Sprintf("risk score %d (%s), recommendation %s", a.Score, a.Level, a.Recommendation),
		NewValues: models.JSON{
			"score":          a.Score,
			"level":          a.Level,
			"recommendation": a.Recommendation,
			"factors":        a.Factors,
		},
	}
}

func validateCreate(req CreateRequest) error {
	v := validation.New()
	v.Required("merchant_id", req.MerchantID)
	v.Amount("amount", req.Amount)
	v.Currency("currency", req.Currency)
	v.Check(validation.IsValidPaymentMethod(req.PaymentMethod), "payment_method", "must be a supported payment method")
	v.MaxLength("description", req.Description, validation.MaxDescriptionLength)
	if req.CustomerEmail != "" {
		v.Email("customer_email", req.CustomerEmail)
	}
	return v.Err()
}
