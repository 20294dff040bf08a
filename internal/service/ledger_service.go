package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService records income and budget envelopes.
type LedgerService struct {
	income  port.IncomeStore
	budgets port.BudgetStore
}

// NewLedgerService creates the ledger service.
func NewLedgerService(income port.IncomeStore, budgets port.BudgetStore) *LedgerService {
	return &LedgerService{income: income, budgets: budgets}
}

// ListIncome returns the user's income records, newest first.
func (s *LedgerService) ListIncome(ctx context.Context, userID string) ([]domain.Income, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.income.ListIncome(ctx, userID)
}

// AddIncome validates in and stores it for the user. Recurring income needs a
// frequency.
func (s *LedgerService) AddIncome(ctx context.Context, userID string, in domain.Income) (*domain.Income, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AddIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	in.UserID = userID
	in.Source = strings.TrimSpace(in.Source)
	if in.Source == "" {
		return nil, &domain.ErrValidation{Field: "source", Message: "is required"}
	}
	if in.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if in.Recurring && in.Frequency == "" {
		return nil, &domain.ErrValidation{Field: "frequency", Message: "is required for recurring income"}
	}
	return s.income.AddIncome(ctx, &in)
}

// DeleteIncome removes one of the user's income records.
func (s *LedgerService) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteIncome")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("income.id", incomeID),
	)

	return s.income.DeleteIncome(ctx, userID, incomeID)
}

// ListBudgets returns the user's budget envelopes.
func (s *LedgerService) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.budgets.ListBudgets(ctx, userID)
}

// AddBudget stores a new envelope. A user has at most one budget per
// category and period.
func (s *LedgerService) AddBudget(ctx context.Context, userID string, b domain.Budget) (*domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AddBudget")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	b.UserID = userID
	if b.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than 0"}
	}

	existing, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Category, b.Category) && e.Period == b.Period {
			return nil, &domain.ErrConflict{Message: "a " + b.Period + " budget for " + b.Category + " already exists"}
		}
	}
	return s.budgets.AddBudget(ctx, &b)
}
