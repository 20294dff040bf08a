package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var expenseTracer = otel.Tracer("service/expense")

// ExpenseService records expenses and runs the pre-save checks on them.
type ExpenseService struct {
	store   port.ExpenseStore
	engine  *analysis.Engine
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewExpenseService creates the expense service.
func NewExpenseService(store port.ExpenseStore, engine *analysis.Engine, metrics *observability.Metrics, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{store: store, engine: engine, metrics: metrics, logger: logger}
}

// AddExpenseResult is a stored expense together with what the checks found.
type AddExpenseResult struct {
	Expense *domain.Expense     `json:"expense"`
	Check   domain.ExpenseCheck `json:"check"`
}

// List returns the user's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, userID string) ([]domain.Expense, error) {
	ctx, span := expenseTracer.Start(ctx, "ExpenseService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListExpenses(ctx, userID)
}

// Check runs anomaly detection and the similar-expense search for a
// candidate without saving it. Uncategorised candidates get a suggestion.
func (s *ExpenseService) Check(ctx context.Context, userID string, candidate domain.Expense) (domain.ExpenseCheck, error) {
	ctx, span := expenseTracer.Start(ctx, "ExpenseService.Check")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	history, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return domain.ExpenseCheck{}, fmt.Errorf("load expenses: %w", err)
	}
	return s.check(history, candidate), nil
}

// check categorizes an uncategorised candidate first so the category-based
// anomaly rules compare it against the right history.
func (s *ExpenseService) check(history []domain.Expense, candidate domain.Expense) domain.ExpenseCheck {
	var check domain.ExpenseCheck
	if candidate.Category == "" {
		suggestion := s.engine.Categorize(candidate.Description, candidate.Amount)
		check.Suggested = &suggestion
		candidate.Category = suggestion.Category
		candidate.Subcategory = suggestion.Subcategory
	}
	check.Anomalies = s.engine.DetectAnomalies(history, candidate)
	check.Similar = analysis.FindSimilarExpenses(history, candidate)
	return check
}

// Add validates e, fills derived fields and stores it. Missing categories are
// filled from the categorizer; rent details get their period and amount
// computed. Anomalies and similar expenses are reported, not blocking.
func (s *ExpenseService) Add(ctx context.Context, userID string, e domain.Expense) (*AddExpenseResult, error) {
	ctx, span := expenseTracer.Start(ctx, "ExpenseService.Add")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	e.UserID = userID
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "is required"}
	}
	if e.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if e.Date.IsZero() {
		e.Date = s.engine.Now()
	}

	if e.PaymentDetails != nil && e.PaymentDetails.RentPeriod != nil {
		if err := s.applyRent(ctx, &e); err != nil {
			return nil, err
		}
	}

	history, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	check := s.check(history, e)
	if check.Suggested != nil {
		e.Category = check.Suggested.Category
		e.Subcategory = check.Suggested.Subcategory
		s.logger.Debug("auto-categorized expense",
			zap.String("user_id", userID),
			zap.String("category", e.Category),
			zap.Float64("confidence", check.Suggested.Confidence),
		)
	}

	stored, err := s.store.AddExpense(ctx, &e)
	if err != nil {
		s.logger.Error("failed to store expense",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store expense: %w", err)
	}

	s.metrics.RecordAnomalies(check.Anomalies)
	if len(check.Similar) > 0 {
		s.logger.Info("possible duplicate expense stored",
			zap.String("user_id", userID),
			zap.String("expense_id", stored.ID),
			zap.Int("similar", len(check.Similar)),
		)
	}
	return &AddExpenseResult{Expense: stored, Check: check}, nil
}

// applyRent files e as room rent, measures its period and fills the
// calculated amount. The previous rent's weekly rate feeds the
// rate-jump warning.
func (s *ExpenseService) applyRent(ctx context.Context, e *domain.Expense) error {
	details := *e.PaymentDetails
	period := *details.RentPeriod
	details.RentPeriod = &period
	e.PaymentDetails = &details
	d := e.PaymentDetails

	if e.Category == "" {
		e.Category = domain.CategoryHouseExpenses
		e.Subcategory = domain.SubcategoryRoomRent
	}
	if d.PaymentDate.IsZero() {
		d.PaymentDate = e.Date
	}

	in := domain.RentInput{
		PaymentDate: d.PaymentDate,
		StartDate:   d.RentPeriod.StartDate,
		EndDate:     d.RentPeriod.EndDate,
		WeeklyRate:  d.WeeklyRate,
	}
	last, err := s.store.LatestRentExpense(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("load latest rent: %w", err)
	}
	if last != nil && last.PaymentDetails != nil {
		in.SavedRate = last.PaymentDetails.WeeklyRate
	}

	v := analysis.ValidateRentData(in)
	if !v.IsValid {
		return &domain.ErrRentInvalid{Validation: v}
	}
	for _, w := range v.Warnings {
		s.logger.Info("rent warning", zap.String("user_id", e.UserID), zap.String("warning", w))
	}

	measured := analysis.CalculateRentPeriod(in.PaymentDate, in.StartDate, in.EndDate)
	d.RentPeriod.TotalDays = measured.TotalDays
	d.RentPeriod.TotalWeeks = measured.TotalWeeks
	d.CalculatedAmount = analysis.CalculateRentAmount(d.WeeklyRate, measured.TotalWeeks)
	if d.Status == "" {
		d.Status = domain.RentStatusPaid
	}
	if e.Amount == 0 {
		e.Amount = d.CalculatedAmount
	}
	return nil
}

// Delete removes one of the user's expenses.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	ctx, span := expenseTracer.Start(ctx, "ExpenseService.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("expense.id", expenseID),
	)

	return s.store.DeleteExpense(ctx, userID, expenseID)
}

// LearnFromCorrection records that the user re-filed description from one
// category to another. Corrections are logged only; the rule table does not
// change at runtime.
func (s *ExpenseService) LearnFromCorrection(ctx context.Context, userID, description, fromCategory, toCategory string) {
	s.logger.Info("category correction",
		zap.String("user_id", userID),
		zap.String("description", description),
		zap.String("from", fromCategory),
		zap.String("to", toCategory),
	)
}
