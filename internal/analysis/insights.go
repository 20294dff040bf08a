package analysis

import (
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	monthChangeThreshold     = 10.0
	monthChangeHighThreshold = 20.0
	budgetAlertPercent       = 90.0
	healthySavingsRate       = 20.0
	lowSavingsRate           = 10.0
	subscriptionReviewTotal  = 100.0
	topCategoryShare         = 0.4

	categoryEntertainment = "Entertainment"
)

var priorityRank = map[string]int{
	domain.LevelHigh:   3,
	domain.LevelMedium: 2,
	domain.LevelLow:    1,
}

// GenerateSmartInsights evaluates the insight rules over the full record sets
// and returns the insights ordered by priority, highest first.
func (e *Engine) GenerateSmartInsights(expenses []domain.Expense, income []domain.Income, budgets []domain.Budget) []domain.Insight {
	now := e.now()
	thisMonthStart := monthStart(now)
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	var thisMonth, lastMonth []domain.Expense
	for _, ex := range expenses {
		switch {
		case !ex.Date.Before(thisMonthStart):
			thisMonth = append(thisMonth, ex)
		case !ex.Date.Before(lastMonthStart):
			lastMonth = append(lastMonth, ex)
		}
	}

	thisMonthTotal := sumAmounts(thisMonth)
	lastMonthTotal := sumAmounts(lastMonth)

	var thisMonthIncome float64
	for _, in := range income {
		if !in.Date.Before(thisMonthStart) {
			thisMonthIncome += in.Amount
		}
	}

	insights := make([]domain.Insight, 0)
	if in, ok := monthOverMonthInsight(thisMonthTotal, lastMonthTotal); ok {
		insights = append(insights, in)
	}
	insights = append(insights, budgetInsights(budgets)...)
	if in, ok := savingsRateInsight(thisMonthIncome, thisMonthTotal); ok {
		insights = append(insights, in)
	}
	if in, ok := subscriptionInsight(expenses); ok {
		insights = append(insights, in)
	}
	if in, ok := topCategoryInsight(thisMonth, thisMonthTotal); ok {
		insights = append(insights, in)
	}

	SortInsights(insights)
	return insights
}

// SortInsights orders insights high > medium > low in place. Insights of equal
// priority keep their relative order.
func SortInsights(insights []domain.Insight) {
	sort.SliceStable(insights, func(i, j int) bool {
		return priorityRank[insights[i].Priority] > priorityRank[insights[j].Priority]
	})
}

func monthOverMonthInsight(thisMonth, lastMonth float64) (domain.Insight, bool) {
	if lastMonth <= 0 {
		return domain.Insight{}, false
	}
	change := (thisMonth - lastMonth) / lastMonth * 100
	if math.Abs(change) <= monthChangeThreshold {
		return domain.Insight{}, false
	}

	priority := domain.LevelMedium
	if math.Abs(change) > monthChangeHighThreshold {
		priority = domain.LevelHigh
	}

	in := domain.Insight{
		Type:        domain.InsightSavings,
		Title:       "Great Progress!",
		Description: fmt.Sprintf("Your spending is %.1f%% lower than last month", math.Abs(change)),
		Priority:    priority,
		Actionable:  true,
		Action:      &domain.InsightAction{Label: "View Details", Target: "/expenses"},
	}
	if change > 0 {
		in.Type = domain.InsightWarning
		in.Title = "Spending Increased"
		in.Description = fmt.Sprintf("Your spending is %.1f%% higher than last month", change)
	}
	return in, true
}

func budgetInsights(budgets []domain.Budget) []domain.Insight {
	var out []domain.Insight
	for _, b := range budgets {
		if b.Amount <= 0 {
			continue
		}
		used := b.Spent / b.Amount * 100
		if used <= budgetAlertPercent {
			continue
		}

		priority := domain.LevelMedium
		if used > 100 {
			priority = domain.LevelHigh
		}
		out = append(out, domain.Insight{
			Type:        domain.InsightWarning,
			Title:       fmt.Sprintf("%s Budget Alert", b.Category),
			Description: fmt.Sprintf("You've used %.0f%% of your %s budget", used, b.Category),
			Priority:    priority,
			Actionable:  true,
			Action:      &domain.InsightAction{Label: "Adjust Budget", Target: "/budgets"},
		})
	}
	return out
}

// savingsRateInsight fires only outside the 10-20% band.
func savingsRateInsight(income, spent float64) (domain.Insight, bool) {
	if income <= 0 {
		return domain.Insight{}, false
	}
	rate := (income - spent) / income * 100

	switch {
	case rate >= healthySavingsRate:
		return domain.Insight{
			Type:        domain.InsightSavings,
			Title:       "Excellent Savings Rate",
			Description: fmt.Sprintf("You're saving %.1f%% of your income this month!", rate),
			Priority:    domain.LevelMedium,
			Actionable:  false,
		}, true
	case rate < lowSavingsRate:
		return domain.Insight{
			Type:        domain.InsightTip,
			Title:       "Consider Increasing Savings",
			Description: fmt.Sprintf("Your current savings rate is %.1f%%. Aim for at least 20%% to build wealth.", rate),
			Priority:    domain.LevelMedium,
			Actionable:  true,
			Action:      &domain.InsightAction{Label: "Create Savings Plan", Target: "/budgets"},
		}, true
	}
	return domain.Insight{}, false
}

func subscriptionInsight(expenses []domain.Expense) (domain.Insight, bool) {
	var total float64
	for _, ex := range expenses {
		if ex.Recurring || ex.Category == categoryEntertainment {
			total += ex.Amount
		}
	}
	if total <= subscriptionReviewTotal {
		return domain.Insight{}, false
	}

	return domain.Insight{
		Type:        domain.InsightTip,
		Title:       "Review Subscriptions",
		Description: fmt.Sprintf("You're spending $%.2f/month on subscriptions. Cancel unused services to save money.", total),
		Priority:    domain.LevelLow,
		Actionable:  true,
		Action: &domain.InsightAction{
			Label:  "View Subscriptions",
			Target: "/expenses?category=" + url.QueryEscape(categoryEntertainment),
		},
	}, true
}

func topCategoryInsight(thisMonth []domain.Expense, total float64) (domain.Insight, bool) {
	totals := make(map[string]float64)
	for _, ex := range thisMonth {
		totals[ex.Category] += ex.Amount
	}

	var top string
	var topTotal float64
	for cat, t := range totals {
		// Ties go to the alphabetically first category so output is stable.
		if top == "" || t > topTotal || (t == topTotal && cat < top) {
			top, topTotal = cat, t
		}
	}
	if top == "" || topTotal <= total*topCategoryShare {
		return domain.Insight{}, false
	}

	return domain.Insight{
		Type:        domain.InsightSpending,
		Title:       fmt.Sprintf("%s is Your Top Expense", top),
		Description: fmt.Sprintf("%s accounts for %.0f%% of your spending this month", top, topTotal/total*100),
		Priority:    domain.LevelLow,
		Actionable:  true,
		Action: &domain.InsightAction{
			Label:  "See Breakdown",
			Target: "/expenses?category=" + url.QueryEscape(top),
		},
	}, true
}
