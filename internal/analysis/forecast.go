package analysis

import "github.com/boddenberg/family-finance-go/internal/domain"

const (
	forecastMonths     = 6
	minForecastMonths  = 3
	forecastConfidence = 0.7
	trendBand          = 0.1
)

// PredictNextMonthSpending projects next month's spending as the average of
// the six complete calendar months before the current one.
//
// With fewer than three of those months holding any expense the forecast is
// the zero value {0, 0, stable}.
func (e *Engine) PredictNextMonthSpending(expenses []domain.Expense) domain.Forecast {
	now := e.now()
	current := monthStart(now)
	currentIndex := current.Year()*12 + int(current.Month())

	// totals[0] is last month, totals[5] is six months ago.
	totals := make([]float64, forecastMonths)
	hasData := make([]bool, forecastMonths)
	for _, ex := range expenses {
		d := ex.Date.In(now.Location())
		i := currentIndex - (d.Year()*12 + int(d.Month())) - 1
		if i < 0 || i >= forecastMonths {
			continue
		}
		totals[i] += ex.Amount
		hasData[i] = true
	}

	months := 0
	for _, ok := range hasData {
		if ok {
			months++
		}
	}
	if months < minForecastMonths {
		return domain.Forecast{Predicted: 0, Confidence: 0, Trend: domain.TrendStable}
	}

	var sum float64
	for _, t := range totals {
		sum += t
	}

	recent, oldest := totals[0], totals[forecastMonths-1]
	trend := domain.TrendStable
	switch {
	case recent > oldest*(1+trendBand):
		trend = domain.TrendIncreasing
	case recent < oldest*(1-trendBand):
		trend = domain.TrendDecreasing
	}

	return domain.Forecast{
		Predicted:  sum / forecastMonths,
		Confidence: forecastConfidence,
		Trend:      trend,
	}
}
