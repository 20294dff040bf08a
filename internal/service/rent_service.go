package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var rentTracer = otel.Tracer("service/rent")

// incomeWindowMonths is how many calendar months, the current one included,
// feed the monthly income used by the rent-to-income ratio.
const incomeWindowMonths = 3

// RentService backs the room-rent form and the rent analytics view.
type RentService struct {
	expenses port.ExpenseStore
	income   port.IncomeStore
	engine   *analysis.Engine
	logger   *zap.Logger
}

// NewRentService creates the rent service.
func NewRentService(expenses port.ExpenseStore, income port.IncomeStore, engine *analysis.Engine, logger *zap.Logger) *RentService {
	return &RentService{expenses: expenses, income: income, engine: engine, logger: logger}
}

// Suggest proposes the period a payment made on paymentDate covers.
func (s *RentService) Suggest(ctx context.Context, userID string, paymentDate time.Time) (domain.RentSuggestion, error) {
	ctx, span := rentTracer.Start(ctx, "RentService.Suggest")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	last, err := s.expenses.LatestRentExpense(ctx, userID)
	if err != nil {
		return domain.RentSuggestion{}, fmt.Errorf("load latest rent: %w", err)
	}
	suggestion := analysis.SuggestRentPeriod(paymentDate, last)
	span.SetAttributes(attribute.Bool("rent.sequential", suggestion.IsSequential))
	return suggestion, nil
}

// Validate checks a rent entry. When in carries no saved rate the previous
// rent's weekly rate is used.
func (s *RentService) Validate(ctx context.Context, userID string, in domain.RentInput) (domain.RentValidation, error) {
	ctx, span := rentTracer.Start(ctx, "RentService.Validate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if in.SavedRate == 0 {
		last, err := s.expenses.LatestRentExpense(ctx, userID)
		if err != nil {
			return domain.RentValidation{}, fmt.Errorf("load latest rent: %w", err)
		}
		if last != nil && last.PaymentDetails != nil {
			in.SavedRate = last.PaymentDetails.WeeklyRate
		}
	}
	return analysis.ValidateRentData(in), nil
}

// Calculate validates in and returns the period and amount due. Blocking
// validation errors are returned as *domain.ErrRentInvalid.
func (s *RentService) Calculate(ctx context.Context, userID string, in domain.RentInput) (*domain.RentCalculation, error) {
	ctx, span := rentTracer.Start(ctx, "RentService.Calculate")
	defer span.End()

	v, err := s.Validate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if !v.IsValid {
		return nil, &domain.ErrRentInvalid{Validation: v}
	}

	period := analysis.CalculateRentPeriod(in.PaymentDate, in.StartDate, in.EndDate)
	return &domain.RentCalculation{
		RentPeriodResult: period,
		WeeklyRate:       in.WeeklyRate,
		Amount:           analysis.CalculateRentAmount(in.WeeklyRate, period.TotalWeeks),
		Validation:       v,
	}, nil
}

// Insights summarises the user's rent history against their recent income.
func (s *RentService) Insights(ctx context.Context, userID string) (domain.RentInsights, error) {
	ctx, span := rentTracer.Start(ctx, "RentService.Insights")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	expenses, err := s.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return domain.RentInsights{}, fmt.Errorf("load expenses: %w", err)
	}
	income, err := s.income.ListIncome(ctx, userID)
	if err != nil {
		return domain.RentInsights{}, fmt.Errorf("load income: %w", err)
	}

	rent := make([]domain.Expense, 0)
	for _, e := range expenses {
		if analysis.IsRentExpense(e) {
			rent = append(rent, e)
		}
	}
	return analysis.RentInsights(rent, monthlyIncome(income, s.engine.Now())), nil
}

// monthlyIncome averages income over the months of the trailing window that
// have any. It is 0 when none do.
func monthlyIncome(income []domain.Income, now time.Time) float64 {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	windowStart := current.AddDate(0, -(incomeWindowMonths - 1), 0)

	totals := make(map[time.Month]float64)
	for _, in := range income {
		d := in.Date.In(now.Location())
		if d.Before(windowStart) || !d.Before(current.AddDate(0, 1, 0)) {
			continue
		}
		totals[d.Month()] += in.Amount
	}
	if len(totals) == 0 {
		return 0
	}

	var sum float64
	for _, t := range totals {
		sum += t
	}
	return sum / float64(len(totals))
}
