package tenant

import "errors"

// Service errors
var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantInactive  = errors.New("tenant is not active")
	ErrDuplicateEntity = errors.New("duplicate entity")
	ErrInvalidState    = errors.New("invalid tenant state for this operation")
)
