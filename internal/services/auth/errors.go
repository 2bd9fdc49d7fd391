package auth

import "errors"

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTenantInactive     = errors.New("tenant is not active")
)
