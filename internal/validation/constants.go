package validation

const (
	// Amount limits
	MinTransactionAmount = 0.01
	MaxTransactionAmount = 1000000.00

	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// Subdomain shape
	MinSubdomainLength = 3
	MaxSubdomainLength = 40

	// String lengths
	MaxNameLength        = 120
	MaxDescriptionLength = 500
	MaxReasonLength      = 500
)
