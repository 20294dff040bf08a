package currency

import (
	"math"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const defaultDeliveryDays = 2.0

var deliveryDays = map[string]float64{
	domain.MethodWesternUnion: 1,
	domain.MethodMoneyGram:    1,
	domain.MethodBankTransfer: 3,
	domain.MethodCrypto:       0.5,
	domain.MethodOther:        2,
}

// DeliveryDays returns the typical transfer time in days for method.
func DeliveryDays(method string) float64 {
	if d, ok := deliveryDays[method]; ok {
		return d
	}
	return defaultDeliveryDays
}

// ExpectedDeliveryDate adds the method's delivery time, rounded up to whole
// days, to now.
func ExpectedDeliveryDate(method string, now time.Time) time.Time {
	return now.AddDate(0, 0, int(math.Ceil(DeliveryDays(method))))
}
