package merchant

import "errors"

// Service errors
var (
	ErrMerchantNotFound  = errors.New("merchant not found")
	ErrTenantInactive    = errors.New("tenant is not active")
	ErrTenantMismatch    = errors.New("merchant belongs to a different tenant")
	ErrDuplicateEntity   = errors.New("duplicate entity")
	ErrInvalidState      = errors.New("invalid merchant state for this operation")
	ErrKycNotApproved    = errors.New("merchant kyc is not approved")
	ErrPlanLimitExceeded = errors.New("tenant plan limit exceeded")
)
