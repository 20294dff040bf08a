package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	minComparableExpenses    = 3
	newMerchantMinAmount     = 50.0
	duplicateAmountTolerance = 0.01
	duplicateWindow          = time.Hour
	spikeShortWindow         = 7 * 24 * time.Hour
	spikeLongWindow          = 30 * 24 * time.Hour
)

// DetectAnomalies runs every anomaly rule for candidate against history.
// Rules are independent; one expense can trip several of them. The result is
// never nil.
func (e *Engine) DetectAnomalies(history []domain.Expense, candidate domain.Expense) []domain.Anomaly {
	history = excludeCandidate(history, candidate)
	anomalies := make([]domain.Anomaly, 0)

	if a, ok := unusualAmount(history, candidate); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := frequencySpike(history, candidate, e.now()); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := newMerchant(history, candidate); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := duplicate(history, candidate); ok {
		anomalies = append(anomalies, a)
	}

	return anomalies
}

// excludeCandidate drops the candidate itself when the caller passed the full
// collection it was loaded from.
func excludeCandidate(history []domain.Expense, candidate domain.Expense) []domain.Expense {
	if candidate.ID == "" {
		return history
	}
	out := make([]domain.Expense, 0, len(history))
	for _, h := range history {
		if h.ID != candidate.ID {
			out = append(out, h)
		}
	}
	return out
}

func unusualAmount(history []domain.Expense, candidate domain.Expense) (domain.Anomaly, bool) {
	amounts := make([]float64, 0, len(history))
	for _, h := range history {
		if h.Category == candidate.Category {
			amounts = append(amounts, h.Amount)
		}
	}
	if len(amounts) < minComparableExpenses {
		return domain.Anomaly{}, false
	}

	mean, stdDev := meanStdDev(amounts)
	// A zero baseline has no meaningful "percent above average".
	if mean <= 0 {
		return domain.Anomaly{}, false
	}
	if candidate.Amount <= mean+2*stdDev {
		return domain.Anomaly{}, false
	}

	severity := domain.LevelMedium
	if candidate.Amount > mean+3*stdDev {
		severity = domain.LevelHigh
	}

	return domain.Anomaly{
		Type:     domain.AnomalyUnusualAmount,
		Severity: severity,
		Message: fmt.Sprintf("This %s expense of $%.2f is %.0f%% higher than your average of $%.2f",
			candidate.Category, candidate.Amount, (candidate.Amount/mean-1)*100, mean),
		Expense:        candidate,
		Recommendation: "Verify this transaction is correct and consider if it's within your budget.",
	}, true
}

func frequencySpike(history []domain.Expense, candidate domain.Expense, now time.Time) (domain.Anomaly, bool) {
	var last7, last30 int
	for _, h := range history {
		if h.Category != candidate.Category {
			continue
		}
		age := now.Sub(h.Date)
		if age <= spikeShortWindow {
			last7++
		}
		if age <= spikeLongWindow {
			last30++
		}
	}

	expected7 := float64(last30) / 30 * 7
	if float64(last7) <= 2*expected7 {
		return domain.Anomaly{}, false
	}

	return domain.Anomaly{
		Type:     domain.AnomalyFrequencySpike,
		Severity: domain.LevelMedium,
		Message: fmt.Sprintf("You've had %d %s transactions in the past 7 days, which is unusually high",
			last7, candidate.Category),
		Expense:        candidate,
		Recommendation: "Review if this spending pattern aligns with your goals.",
	}, true
}

func newMerchant(history []domain.Expense, candidate domain.Expense) (domain.Anomaly, bool) {
	if candidate.Amount <= newMerchantMinAmount {
		return domain.Anomaly{}, false
	}
	for _, h := range history {
		if h.Description == candidate.Description {
			return domain.Anomaly{}, false
		}
	}

	return domain.Anomaly{
		Type:           domain.AnomalyNewMerchant,
		Severity:       domain.LevelLow,
		Message:        fmt.Sprintf("First transaction at %s", candidate.Description),
		Expense:        candidate,
		Recommendation: "Save this merchant for quick categorization in the future.",
	}, true
}

func duplicate(history []domain.Expense, candidate domain.Expense) (domain.Anomaly, bool) {
	for _, h := range history {
		if h.Description != candidate.Description {
			continue
		}
		if math.Abs(h.Amount-candidate.Amount) > duplicateAmountTolerance {
			continue
		}
		gap := h.Date.Sub(candidate.Date)
		if gap < 0 {
			gap = -gap
		}
		if gap >= duplicateWindow {
			continue
		}

		return domain.Anomaly{
			Type:           domain.AnomalyDuplicate,
			Severity:       domain.LevelHigh,
			Message:        "Potential duplicate: Similar transaction detected within the past hour",
			Expense:        candidate,
			Recommendation: "Check if this is a duplicate entry and delete if necessary.",
		}, true
	}
	return domain.Anomaly{}, false
}

// meanStdDev returns the mean and population standard deviation of values.
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
