package analysis

import "github.com/boddenberg/family-finance-go/internal/domain"

const budgetWarningPercent = 80.0

// BudgetStatuses derives usage for each envelope. Budgets with a non-positive
// amount report 0%.
func BudgetStatuses(budgets []domain.Budget) []domain.BudgetStatus {
	out := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		var pct float64
		if b.Amount > 0 {
			pct = b.Spent / b.Amount * 100
		}
		over := pct > 100
		out = append(out, domain.BudgetStatus{
			Budget:     b,
			Percentage: pct,
			Remaining:  b.Amount - b.Spent,
			OverBudget: over,
			Warning:    pct > budgetWarningPercent && !over,
		})
	}
	return out
}
