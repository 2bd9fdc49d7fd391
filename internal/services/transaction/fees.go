package transaction

import "math"

// FeeCalculator computes the platform fee: a percentage of the amount
// plus a fixed component, both rounded to cents.
type FeeCalculator struct {
	rate  float64
	fixed float64
}

func NewFeeCalculator(rate, fixed float64) *FeeCalculator {
	return &FeeCalculator{rate: rate, fixed: fixed}
}

// Calculate returns the fee and the net amount the merchant receives.
func (fc *FeeCalculator) Calculate(amount float64) (fee, net float64) {
	fee = round2(amount*fc.rate + fc.fixed)
	net = round2(amount - fee)
	return fee, net
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
