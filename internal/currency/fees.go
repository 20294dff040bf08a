package currency

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// feeTier applies Fee to amounts strictly below Below. A zero Below is the
// open-ended last tier.
type feeTier struct {
	Below float64
	Fee   float64
}

type feeSchedule struct {
	Method  string
	Tiers   []feeTier
	Percent float64
}

var feeSchedules = []feeSchedule{
	{Method: domain.MethodWesternUnion, Tiers: []feeTier{{Below: 100, Fee: 5}, {Below: 500, Fee: 10}, {Fee: 15}}},
	{Method: domain.MethodMoneyGram, Tiers: []feeTier{{Below: 100, Fee: 4.5}, {Below: 500, Fee: 9.5}, {Fee: 14}}},
	{Method: domain.MethodBankTransfer, Tiers: []feeTier{{Fee: 25}}},
	{Method: domain.MethodCrypto, Percent: 1},
}

// TransferFee returns the USD fee for sending amount with method. Unknown
// methods cost nothing.
func TransferFee(method string, amount float64) float64 {
	for _, s := range feeSchedules {
		if s.Method != method {
			continue
		}
		if s.Percent > 0 {
			if !finite(amount) {
				return amount * s.Percent / 100
			}
			f, _ := decimal.NewFromFloat(amount).
				Mul(decimal.NewFromFloat(s.Percent)).
				Div(decimal.NewFromInt(100)).
				Round(2).Float64()
			return f
		}
		for _, t := range s.Tiers {
			if t.Below == 0 || amount < t.Below {
				return t.Fee
			}
		}
	}
	return 0
}

// Methods lists the transfer methods with a known fee schedule or delivery
// time.
func Methods() []string {
	return []string{
		domain.MethodWesternUnion,
		domain.MethodMoneyGram,
		domain.MethodBankTransfer,
		domain.MethodCrypto,
		domain.MethodOther,
	}
}
