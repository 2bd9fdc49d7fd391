package risk

// Risk levels
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Recommendations
const (
	RecommendApprove = "approve"
	RecommendReview  = "review"
	RecommendDecline = "decline"
)

// Level boundaries
const (
	lowMax    = 20
	mediumMax = 50
)

// Factor tags
const (
	FactorHighAmount              = "HIGH_AMOUNT"
	FactorElevatedAmount          = "ELEVATED_AMOUNT"
	FactorModerateAmount          = "MODERATE_AMOUNT"
	FactorVelocitySpikeHour       = "VELOCITY_SPIKE_HOUR"
	FactorVelocitySpikeDay        = "VELOCITY_SPIKE_DAY"
	FactorMerchantVelocitySpike   = "MERCHANT_VELOCITY_SPIKE"
	FactorHighRiskPaymentMethod   = "HIGH_RISK_PAYMENT_METHOD"
	FactorUnverifiedPaymentMethod = "UNVERIFIED_PAYMENT_METHOD"
	FactorHighRiskCountry         = "HIGH_RISK_COUNTRY"
	FactorVPNDetected             = "VPN_DETECTED"
	FactorCountryMismatch         = "COUNTRY_MISMATCH"
	FactorNewCustomer             = "NEW_CUSTOMER"
	FactorHighFailureRate         = "HIGH_FAILURE_RATE"
	FactorChargebackHistory       = "CHARGEBACK_HISTORY"
	FactorUnusualHour             = "UNUSUAL_HOUR"
	FactorWeekendTransaction      = "WEEKEND_TRANSACTION"
)

// Factor weights
const (
	weightHighAmount              = 30
	weightElevatedAmount          = 15
	weightModerateAmount          = 5
	weightVelocitySpikeHour       = 20
	weightVelocitySpikeDay        = 15
	weightMerchantVelocitySpike   = 10
	weightHighRiskPaymentMethod   = 20
	weightUnverifiedPaymentMethod = 10
	weightHighRiskCountry         = 25
	weightVPNDetected             = 15
	weightCountryMismatch         = 10
	weightNewCustomer             = 15
	weightHighFailureRate         = 20
	weightChargebackHistory       = 25
	weightUnusualHour             = 10
	weightWeekendTransaction      = 5
)

// Trigger thresholds
const (
	highAmountThreshold     = 10000.0
	elevatedAmountThreshold = 5000.0
	moderateAmountThreshold = 1000.0

	customerHourlyVelocityLimit = 5
	customerDailyVelocityLimit  = 20
	merchantHourlyVelocityLimit = 100

	// HIGH_FAILURE_RATE needs a minimum sample so a single failed
	// transaction does not dominate a short history.
	highFailureRate      = 0.30
	failureRateMinSample = 5

	unusualHourBoundary = 6
)
