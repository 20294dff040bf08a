package analysis_test

import (
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

func TestGenerateFinancialSummary(t *testing.T) {
	from := day(time.March, 1)
	to := day(time.March, 31)

	expenses := []domain.Expense{
		expense("Rent", "Housing", 600, day(time.March, 1)),
		expense("Groceries", "Food", 120, day(time.March, 10)),
		expense("Dinner", "Food", 80, day(time.March, 31)),
		expense("Old", "Food", 999, day(time.February, 28)),
	}
	income := []domain.Income{
		{Source: "Salary", Amount: 2000, Date: day(time.March, 5)},
		{Source: "Bonus", Amount: 500, Date: day(time.April, 1)},
	}

	got := analysis.GenerateFinancialSummary(expenses, income, from, to)

	if got.TotalIncome != 2000 {
		t.Errorf("expected income 2000, got %v", got.TotalIncome)
	}
	if got.TotalExpenses != 800 {
		t.Errorf("expected expenses 800, got %v", got.TotalExpenses)
	}
	if got.NetSavings != 1200 || got.SavingsRate != 60 {
		t.Errorf("expected savings 1200 at 60%%, got %v at %v", got.NetSavings, got.SavingsRate)
	}
	if got.ExpensesByCategory["Food"] != 200 || got.ExpensesByCategory["Housing"] != 600 {
		t.Errorf("unexpected categories %+v", got.ExpensesByCategory)
	}
	if len(got.TopExpenses) != 3 || got.TopExpenses[0].Description != "Rent" || got.TopExpenses[2].Description != "Dinner" {
		t.Errorf("unexpected top expenses %+v", got.TopExpenses)
	}
	if got.Period != "Mar 1, 2026 - Mar 31, 2026" {
		t.Errorf("unexpected period %q", got.Period)
	}
	if expenses[0].Description != "Rent" || expenses[3].Description != "Old" {
		t.Error("expected input order to be left untouched")
	}
}

func TestGenerateFinancialSummary_TopTenAndNoIncome(t *testing.T) {
	var expenses []domain.Expense
	for i := 1; i <= 12; i++ {
		expenses = append(expenses, expense("Item", "Misc", float64(i), day(time.March, i)))
	}

	got := analysis.GenerateFinancialSummary(expenses, nil, day(time.March, 1), day(time.March, 31))

	if len(got.TopExpenses) != 10 {
		t.Fatalf("expected 10 top expenses, got %d", len(got.TopExpenses))
	}
	if got.TopExpenses[0].Amount != 12 || got.TopExpenses[9].Amount != 3 {
		t.Errorf("unexpected ordering %+v", got.TopExpenses)
	}
	if got.SavingsRate != 0 {
		t.Errorf("expected savings rate 0 without income, got %v", got.SavingsRate)
	}
}
