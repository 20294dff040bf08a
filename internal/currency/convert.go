// Package currency holds the USD/NPR money arithmetic used by remittances:
// conversion, transfer fees, delivery estimates and display formatting.
package currency

import (
	"math"

	"github.com/shopspring/decimal"
)

// Currency codes.
const (
	USD = "USD"
	NPR = "NPR"
)

// finite reports whether every value has a decimal form. Infinities and NaN
// pass through the arithmetic below unrounded.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Round2 rounds v to cents, half away from zero.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ConvertUSDToNPR converts a dollar amount at rate rupees per dollar.
func ConvertUSDToNPR(amount, rate float64) float64 {
	if !finite(amount, rate) {
		return amount * rate
	}
	f, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2).Float64()
	return f
}

// ConvertNPRToUSD converts a rupee amount back to dollars. A non-positive rate
// yields 0.
func ConvertNPRToUSD(amount, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	if !finite(amount, rate) {
		return amount / rate
	}
	f, _ := decimal.NewFromFloat(amount).DivRound(decimal.NewFromFloat(rate), 2).Float64()
	return f
}
