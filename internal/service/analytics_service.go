// Package service provides the business logic layer (use cases): it loads
// records through the store ports, runs the analysis engine over them and
// persists what the user adds.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var analyticsTracer = otel.Tracer("service/analytics")

// AnalyticsService runs the analysis engine over a user's stored records.
// A bulkhead caps how many analyses load records at once.
type AnalyticsService struct {
	store    port.RecordStore
	engine   *analysis.Engine
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(
	store port.RecordStore,
	engine *analysis.Engine,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		engine:   engine,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

// userRecords is everything the insight and summary rules read.
type userRecords struct {
	expenses []domain.Expense
	income   []domain.Income
	budgets  []domain.Budget
}

// loadRecords fetches expenses, income and budgets concurrently.
func (s *AnalyticsService) loadRecords(ctx context.Context, userID string) (*userRecords, error) {
	var recs userRecords
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e, err := s.store.ListExpenses(gCtx, userID)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		recs.expenses = e
		return nil
	})
	g.Go(func() error {
		in, err := s.store.ListIncome(gCtx, userID)
		if err != nil {
			return fmt.Errorf("load income: %w", err)
		}
		recs.income = in
		return nil
	})
	g.Go(func() error {
		b, err := s.store.ListBudgets(gCtx, userID)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		recs.budgets = b
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load records",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	return &recs, nil
}

// guard runs fn inside the bulkhead and records its duration under operation.
func (s *AnalyticsService) guard(ctx context.Context, operation string, fn func() error) error {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer s.bulkhead.Release()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration(operation, time.Since(start))
	}()
	return fn()
}

// Anomalies checks one expense against the rest of the user's history. With
// an empty expenseID the most recent expense is checked.
func (s *AnalyticsService) Anomalies(ctx context.Context, userID, expenseID string) ([]domain.Anomaly, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Anomalies")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	anomalies := make([]domain.Anomaly, 0)
	err := s.guard(ctx, "anomalies", func() error {
		expenses, err := s.store.ListExpenses(ctx, userID)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		if len(expenses) == 0 {
			if expenseID != "" {
				return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
			}
			return nil
		}

		candidate, ok := pickCandidate(expenses, expenseID)
		if !ok {
			return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
		}
		anomalies = s.engine.DetectAnomalies(expenses, candidate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAnomalies(anomalies)
	span.SetAttributes(attribute.Int("anomalies.count", len(anomalies)))
	return anomalies, nil
}

// pickCandidate finds expenseID, or the newest expense when it is empty.
func pickCandidate(expenses []domain.Expense, expenseID string) (domain.Expense, bool) {
	if expenseID != "" {
		for _, e := range expenses {
			if e.ID == expenseID {
				return e, true
			}
		}
		return domain.Expense{}, false
	}
	newest := expenses[0]
	for _, e := range expenses[1:] {
		if e.Date.After(newest.Date) {
			newest = e
		}
	}
	return newest, true
}

// Forecast projects next month's spending.
func (s *AnalyticsService) Forecast(ctx context.Context, userID string) (domain.Forecast, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Forecast")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var forecast domain.Forecast
	err := s.guard(ctx, "forecast", func() error {
		expenses, err := s.store.ListExpenses(ctx, userID)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		forecast = s.engine.PredictNextMonthSpending(expenses)
		return nil
	})
	if err != nil {
		return domain.Forecast{}, err
	}
	span.SetAttributes(attribute.String("forecast.trend", forecast.Trend))
	return forecast, nil
}

// Insights generates the prioritised smart insights.
func (s *AnalyticsService) Insights(ctx context.Context, userID string) ([]domain.Insight, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Insights")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var insights []domain.Insight
	err := s.guard(ctx, "insights", func() error {
		recs, err := s.loadRecords(ctx, userID)
		if err != nil {
			return err
		}
		insights = s.engine.GenerateSmartInsights(recs.expenses, recs.income, recs.budgets)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInsights(len(insights))
	return insights, nil
}

// Summary totals income and expenses dated within [from, to].
func (s *AnalyticsService) Summary(ctx context.Context, userID string, from, to time.Time) (domain.FinancialSummary, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if to.Before(from) {
		return domain.FinancialSummary{}, &domain.ErrValidation{Field: "to", Message: "must not be before from"}
	}

	var summary domain.FinancialSummary
	err := s.guard(ctx, "summary", func() error {
		recs, err := s.loadRecords(ctx, userID)
		if err != nil {
			return err
		}
		summary = analysis.GenerateFinancialSummary(recs.expenses, recs.income, from, to)
		return nil
	})
	return summary, err
}

// BudgetStatuses derives usage for each of the user's budgets.
func (s *AnalyticsService) BudgetStatuses(ctx context.Context, userID string) ([]domain.BudgetStatus, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.BudgetStatuses")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	return analysis.BudgetStatuses(budgets), nil
}

// Categorize suggests a category for a description.
func (s *AnalyticsService) Categorize(description string, amount float64) domain.CategorySuggestion {
	return s.engine.Categorize(description, amount)
}

// Now is the engine clock, exposed so handlers default date ranges
// consistently with the rules.
func (s *AnalyticsService) Now() time.Time {
	return s.engine.Now()
}
