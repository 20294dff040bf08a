package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/boddenberg/family-finance-go/internal/currency"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	extendedRentDays       = 35
	defaultRentWindowDays  = 30
	rentTrendThreshold     = 5.0
	consistentRateSpread   = 5.0
	minRatesForConsistency = 3
	housingIncomeShare     = 30.0
	monthlyCadenceWeeks    = 4.0
	weeklyCadenceWeeks     = 1.5
)

// CalculateRentPeriod counts the days in the inclusive range [start, end].
// Payment date does not affect the result; it is accepted so callers can pass
// the whole rent form through.
func CalculateRentPeriod(paymentDate, startDate, endDate time.Time) domain.RentPeriodResult {
	days := daysBetween(startDate, endDate) + 1
	return domain.RentPeriodResult{
		TotalDays:  days,
		TotalWeeks: float64(days) / 7,
		IsExtended: days > extendedRentDays,
	}
}

// CalculateRentAmount returns weeklyRate × totalWeeks rounded to cents.
func CalculateRentAmount(weeklyRate, totalWeeks float64) float64 {
	return currency.Round2(weeklyRate * totalWeeks)
}

// SuggestRentPeriod proposes the period a new rent payment covers. When the
// previous rent carried a period the suggestion continues from it without
// overlap; otherwise it is the 30 days before payment.
func SuggestRentPeriod(paymentDate time.Time, last *domain.Expense) domain.RentSuggestion {
	end := paymentDate.AddDate(0, 0, -1)
	if last != nil && last.PaymentDetails != nil && last.PaymentDetails.RentPeriod != nil {
		return domain.RentSuggestion{
			StartDate:    last.PaymentDetails.RentPeriod.EndDate.AddDate(0, 0, 1),
			EndDate:      end,
			IsSequential: true,
		}
	}
	return domain.RentSuggestion{
		StartDate:    paymentDate.AddDate(0, 0, -defaultRentWindowDays),
		EndDate:      end,
		IsSequential: false,
	}
}

// ValidateRentData checks a rent entry. Errors block saving; warnings are
// informational.
func ValidateRentData(in domain.RentInput) domain.RentValidation {
	v := domain.RentValidation{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if !in.StartDate.Before(in.PaymentDate) {
		v.Warnings = append(v.Warnings, "Payment date should typically be after the rent period")
	}
	if in.EndDate.Before(in.StartDate) {
		v.Errors = append(v.Errors, "End date must be after start date")
	}

	days := daysBetween(in.StartDate, in.EndDate) + 1
	if days > extendedRentDays {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Extended rent period detected: %d days", days))
	}
	if days < 1 {
		v.Errors = append(v.Errors, "Rent period must be at least 1 day")
	}

	if in.WeeklyRate <= 0 {
		v.Errors = append(v.Errors, "Weekly rate must be greater than 0")
	}
	if in.SavedRate > 0 && in.WeeklyRate > in.SavedRate*2 {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"Rate increased from $%s to $%s. This is more than double the previous rate.",
			formatRate(in.SavedRate), formatRate(in.WeeklyRate)))
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// FormatRentPeriod renders a period as "Jan 2 - Jan 8, 2026".
func FormatRentPeriod(start, end time.Time) string {
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

// RentInsights summarises a user's rent history. monthlyIncome feeds the
// housing-cost ratio; pass 0 when income is unknown and that insight is left
// out.
func RentInsights(rentExpenses []domain.Expense, monthlyIncome float64) domain.RentInsights {
	if len(rentExpenses) == 0 {
		return domain.RentInsights{HasData: false, Insights: make([]string, 0)}
	}

	sorted := make([]domain.Expense, len(rentExpenses))
	copy(sorted, rentExpenses)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	totalPaid := sumAmounts(rentExpenses)
	average := totalPaid / float64(len(rentExpenses))
	insights := make([]string, 0)

	if len(sorted) > 1 && sorted[1].Amount > 0 {
		trend := (sorted[0].Amount - sorted[1].Amount) / sorted[1].Amount * 100
		switch {
		case trend > rentTrendThreshold:
			insights = append(insights, fmt.Sprintf("Your rent increased by %.1f%% from the previous payment", trend))
		case trend < -rentTrendThreshold:
			insights = append(insights, fmt.Sprintf("You saved %.1f%% on your last rent payment", math.Abs(trend)))
		default:
			insights = append(insights, "Your rent has remained stable")
		}
	}

	var rates []float64
	var totalWeeks float64
	for _, ex := range rentExpenses {
		if ex.PaymentDetails == nil {
			continue
		}
		if ex.PaymentDetails.WeeklyRate > 0 {
			rates = append(rates, ex.PaymentDetails.WeeklyRate)
		}
		if ex.PaymentDetails.RentPeriod != nil {
			totalWeeks += ex.PaymentDetails.RentPeriod.TotalWeeks
		}
	}
	if len(rates) >= minRatesForConsistency {
		lo, hi := rates[0], rates[0]
		for _, r := range rates[1:] {
			lo = math.Min(lo, r)
			hi = math.Max(hi, r)
		}
		if spread := hi - lo; spread < consistentRateSpread {
			insights = append(insights, "Your weekly rent rate has been very consistent")
		} else {
			insights = append(insights, fmt.Sprintf("Your weekly rate varies by up to $%.2f", spread))
		}
	}

	var ratio float64
	if monthlyIncome > 0 {
		ratio = average / monthlyIncome * 100
		if ratio <= housingIncomeShare {
			insights = append(insights, fmt.Sprintf("Your rent is %.0f%% of income - within recommended 30%% range", ratio))
		} else {
			insights = append(insights, fmt.Sprintf("Your rent is %.0f%% of income - consider ways to reduce housing costs", ratio))
		}
	}

	avgWeeks := totalWeeks / float64(len(rentExpenses))
	switch {
	case avgWeeks >= monthlyCadenceWeeks:
		insights = append(insights, "You typically pay rent monthly, which helps with budgeting")
	case avgWeeks <= weeklyCadenceWeeks:
		insights = append(insights, "You pay rent weekly - consider if monthly payments would simplify budgeting")
	}

	return domain.RentInsights{
		HasData:  true,
		Insights: insights,
		Stats: &domain.RentStats{
			TotalPaid:         totalPaid,
			AverageRent:       average,
			RentToIncomeRatio: ratio,
			PaymentsCount:     len(rentExpenses),
		},
	}
}

// IsRentExpense reports whether ex was recorded as a room-rent payment.
func IsRentExpense(ex domain.Expense) bool {
	return ex.Category == domain.CategoryHouseExpenses && ex.Subcategory == domain.SubcategoryRoomRent
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
