package audit

import "errors"

// Service errors
var (
	ErrInvalidAction     = errors.New("invalid audit action")
	ErrInvalidLevel      = errors.New("invalid audit level")
	ErrRetentionTooShort = errors.New("retention window must be at least one day")
)
