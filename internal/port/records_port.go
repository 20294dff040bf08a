package port

import (
	"context"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ExpenseStore persists expenses.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error)
	AddExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	// LatestRentExpense returns the most recent room-rent expense, or nil
	// when the user has none.
	LatestRentExpense(ctx context.Context, userID string) (*domain.Expense, error)
}

// IncomeStore persists income records.
type IncomeStore interface {
	ListIncome(ctx context.Context, userID string) ([]domain.Income, error)
	AddIncome(ctx context.Context, in *domain.Income) (*domain.Income, error)
	DeleteIncome(ctx context.Context, userID, incomeID string) error
}

// BudgetStore persists budget envelopes.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	AddBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)
}

// RemittanceStore persists family recipients and money transfers.
type RemittanceStore interface {
	ListRecipients(ctx context.Context, userID string) ([]domain.Recipient, error)
	AddRecipient(ctx context.Context, r *domain.Recipient) (*domain.Recipient, error)
	ListRemittances(ctx context.Context, userID string) ([]domain.Remittance, error)
	AddRemittance(ctx context.Context, r *domain.Remittance) (*domain.Remittance, error)
}

// RecordStore is the full persistence surface. Implemented by the Supabase
// and SQLite adapters.
type RecordStore interface {
	ExpenseStore
	IncomeStore
	BudgetStore
	RemittanceStore
	HealthChecker
}
