package transaction

import "errors"

// Service errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrMerchantNotActive   = errors.New("merchant is not active")
	ErrTenantInactive      = errors.New("tenant is not active")
	ErrTenantMismatch      = errors.New("entity belongs to a different tenant")
	ErrInvalidState        = errors.New("invalid transaction state for this operation")
	ErrInvalidRefundAmount = errors.New("invalid refund amount")
	ErrDuplicateEntity     = errors.New("duplicate entity")
	ErrPlanLimitExceeded   = errors.New("tenant plan limit exceeded")
)
