package risk

import (
	"time"

	"merx/internal/models"
)

// Score evaluates all six factor categories and returns the additive
// assessment. The factor order is fixed, so identical inputs produce
// identical assessments, factor list included.
func Score(input Input) Assessment {
	score := 0
	factors := make([]string, 0, 8)

	categories := []func(Input) (int, []string){
		scoreAmount,
		scoreVelocity,
		scorePaymentMethod,
		scoreGeography,
		scoreCustomerHistory,
		scoreTime,
	}
	for _, category := range categories {
		points, tags := category(input)
		score += points
		factors = append(factors, tags...)
	}

	level := LevelFor(score)
	return Assessment{
		Score:          score,
		Level:          level,
		Recommendation: RecommendationFor(level),
		Factors:        factors,
	}
}

// LevelFor maps a score onto the risk bands.
func LevelFor(score int) string {
	switch {
	case score <= lowMax:
		return LevelLow
	case score <= mediumMax:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// RecommendationFor mirrors the level onto an action.
func RecommendationFor(level string) string {
	switch level {
	case LevelLow:
		return RecommendApprove
	case LevelMedium:
		return RecommendReview
	default:
		return RecommendDecline
	}
}

func scoreAmount(input Input) (int, []string) {
	switch {
	case input.Amount >= highAmountThreshold:
		return weightHighAmount, []string{FactorHighAmount}
	case input.Amount >= elevatedAmountThreshold:
		return weightElevatedAmount, []string{FactorElevatedAmount}
	case input.Amount >= moderateAmountThreshold:
		return weightModerateAmount, []string{FactorModerateAmount}
	}
	return 0, nil
}

func scoreVelocity(input Input) (int, []string) {
	points := 0
	var tags []string
	if input.Velocity.CustomerTxnsLastHour >= customerHourlyVelocityLimit {
		points += weightVelocitySpikeHour
		tags = append(tags, FactorVelocitySpikeHour)
	}
	if input.Velocity.CustomerTxnsLastDay >= customerDailyVelocityLimit {
		points += weightVelocitySpikeDay
		tags = append(tags, FactorVelocitySpikeDay)
	}
	if input.Velocity.MerchantTxnsLastHour >= merchantHourlyVelocityLimit {
		points += weightMerchantVelocitySpike
		tags = append(tags, FactorMerchantVelocitySpike)
	}
	return points, tags
}

func scorePaymentMethod(input Input) (int, []string) {
	switch input.PaymentMethod {
	case models.PaymentMethodCryptocurrency:
		return weightHighRiskPaymentMethod, []string{FactorHighRiskPaymentMethod}
	case models.PaymentMethodDigitalWallet:
		return weightUnverifiedPaymentMethod, []string{FactorUnverifiedPaymentMethod}
	}
	return 0, nil
}

func scoreGeography(input Input) (int, []string) {
	points := 0
	var tags []string
	if isHighRiskCountry(input.Geo.CustomerCountry) {
		points += weightHighRiskCountry
		tags = append(tags, FactorHighRiskCountry)
	}
	if isAnonymizedIP(input.Geo.IPAddress) {
		points += weightVPNDetected
		tags = append(tags, FactorVPNDetected)
	}
	if input.Geo.CustomerCountry != "" && input.Geo.IPCountry != "" &&
		input.Geo.CustomerCountry != input.Geo.IPCountry {
		points += weightCountryMismatch
		tags = append(tags, FactorCountryMismatch)
	}
	return points, tags
}

func scoreCustomerHistory(input Input) (int, []string) {
	points := 0
	var tags []string
	if input.Customer.PreviousTransactions == 0 {
		points += weightNewCustomer
		tags = append(tags, FactorNewCustomer)
	}
	if input.Customer.PreviousTransactions >= failureRateMinSample &&
		input.Customer.FailureRate >= highFailureRate {
		points += weightHighFailureRate
		tags = append(tags, FactorHighFailureRate)
	}
	if input.Customer.ChargebackCount > 0 {
		points += weightChargebackHistory
		tags = append(tags, FactorChargebackHistory)
	}
	return points, tags
}

func scoreTime(input Input) (int, []string) {
	if input.OccurredAt.IsZero() {
		return 0, nil
	}
	points := 0
	var tags []string
	if input.OccurredAt.Hour() < unusualHourBoundary {
		points += weightUnusualHour
		tags = append(tags, FactorUnusualHour)
	}
	switch input.OccurredAt.Weekday() {
	case time.Saturday, time.Sunday:
		points += weightWeekendTransaction
		tags = append(tags, FactorWeekendTransaction)
	}
	return points, tags
}
