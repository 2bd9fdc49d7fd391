package transaction

import "time"

// Failure codes recorded on failed transactions.
const (
	FailureCodeRiskDeclined = "RISK_DECLINED"
)

// Sliding windows for velocity counters.
const (
	velocityHourWindow = time.Hour
	velocityDayWindow  = 24 * time.Hour
)

// createRetries bounds transaction id regeneration on unique-collision.
const createRetries = 3
