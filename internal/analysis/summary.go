package analysis

import (
	"sort"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const topExpenseCount = 10

// GenerateFinancialSummary totals income and expenses dated within [from, to].
func GenerateFinancialSummary(expenses []domain.Expense, income []domain.Income, from, to time.Time) domain.FinancialSummary {
	inRange := func(t time.Time) bool { return !t.Before(from) && !t.After(to) }

	summary := domain.FinancialSummary{
		Period:             from.Format("Jan 2, 2006") + " - " + to.Format("Jan 2, 2006"),
		From:               from,
		To:                 to,
		ExpensesByCategory: make(map[string]float64),
		TopExpenses:        make([]domain.TopExpense, 0, topExpenseCount),
	}

	for _, in := range income {
		if inRange(in.Date) {
			summary.TotalIncome += in.Amount
		}
	}

	filtered := make([]domain.Expense, 0, len(expenses))
	for _, ex := range expenses {
		if !inRange(ex.Date) {
			continue
		}
		filtered = append(filtered, ex)
		summary.TotalExpenses += ex.Amount
		summary.ExpensesByCategory[ex.Category] += ex.Amount
	}

	summary.NetSavings = summary.TotalIncome - summary.TotalExpenses
	if summary.TotalIncome > 0 {
		summary.SavingsRate = summary.NetSavings / summary.TotalIncome * 100
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Amount > filtered[j].Amount })
	for i := 0; i < len(filtered) && i < topExpenseCount; i++ {
		summary.TopExpenses = append(summary.TopExpenses, domain.TopExpense{
			Description: filtered[i].Description,
			Amount:      filtered[i].Amount,
			Date:        filtered[i].Date,
		})
	}

	return summary
}
