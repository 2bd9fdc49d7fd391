package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeCalculator(t *testing.T) {
	fc := NewFeeCalculator(0.029, 0.30)

	tests := []struct {
		name   string
		amount float64
		fee    float64
		net    float64
	}{
		{"round amount", 100, 3.20, 96.80},
		{"small ticket", 0.50, 0.31, 0.19},
		{"mid ticket", 50, 1.75, 48.25},
		{"large ticket", 15000, 435.30, 14564.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := fc.Calculate(tt.amount)

			assert.InDelta(t, tt.fee, fee, 0.001)
			assert.InDelta(t, tt.net, net, 0.001)
			assert.InDelta(t, tt.amount, fee+net, 0.001)
		})
	}
}

func TestFeeCalculatorZeroRates(t *testing.T) {
	fc := NewFeeCalculator(0, 0)

	fee, net := fc.Calculate(42.42)

	assert.Zero(t, fee)
	assert.InDelta(t, 42.42, net, 0.001)
}
