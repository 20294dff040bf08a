// Package handler exposes the services over HTTP with chi.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/port"
	"github.com/boddenberg/family-finance-go/internal/service"
)

var tracer = otel.Tracer("handler")

const healthCheckTimeout = 2 * time.Second

// Services are the use cases the router exposes. Health is pinged by the
// health and readiness probes; it may be nil.
type Services struct {
	Analytics  *service.AnalyticsService
	Expenses   *service.ExpenseService
	Rent       *service.RentService
	Remittance *service.RemittanceService
	Ledger     *service.LedgerService
	Export     *service.ExportService
	Health     port.HealthChecker
}

// Options tune the router middleware.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Health))
	r.Get("/readyz", readyzHandler(svc.Health, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimitRPS > 0 && opts.RateLimitBurst > 0 {
			r.Use(RateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst, logger))
		}

		r.Get("/metrics/engine", engineMetricsHandler(metrics))
		r.Post("/categorize", categorizeHandler(svc.Analytics))
		r.Get("/exchange-rate", exchangeRateHandler(svc.Remittance))

		r.Route("/users/{userId}", func(r chi.Router) {
			// Expenses
			r.Get("/expenses", listExpensesHandler(svc.Expenses, logger))
			r.Post("/expenses", addExpenseHandler(svc.Expenses, logger))
			r.Post("/expenses/check", checkExpenseHandler(svc.Expenses, logger))
			r.Post("/expenses/corrections", correctionHandler(svc.Expenses))
			r.Delete("/expenses/{expenseId}", deleteExpenseHandler(svc.Expenses, logger))

			// Income & budgets
			r.Get("/income", listIncomeHandler(svc.Ledger, logger))
			r.Post("/income", addIncomeHandler(svc.Ledger, logger))
			r.Delete("/income/{incomeId}", deleteIncomeHandler(svc.Ledger, logger))
			r.Get("/budgets", listBudgetsHandler(svc.Ledger, logger))
			r.Post("/budgets", addBudgetHandler(svc.Ledger, logger))
			r.Get("/budgets/status", budgetStatusHandler(svc.Analytics, logger))

			// Analysis
			r.Get("/analysis/anomalies", anomaliesHandler(svc.Analytics, logger))
			r.Get("/analysis/forecast", forecastHandler(svc.Analytics, logger))
			r.Get("/analysis/insights", insightsHandler(svc.Analytics, logger))
			r.Get("/analysis/summary", summaryHandler(svc.Analytics, logger))

			// Room rent
			r.Get("/rent/suggest", rentSuggestHandler(svc.Rent, svc.Analytics, logger))
			r.Post("/rent/calculate", rentCalculateHandler(svc.Rent, logger))
			r.Post("/rent/validate", rentValidateHandler(svc.Rent, logger))
			r.Get("/rent/insights", rentInsightsHandler(svc.Rent, logger))

			// Family remittance
			r.Get("/recipients", listRecipientsHandler(svc.Remittance, logger))
			r.Post("/recipients", addRecipientHandler(svc.Remittance, logger))
			r.Get("/remittances", listRemittancesHandler(svc.Remittance, logger))
			r.Post("/remittances", createRemittanceHandler(svc.Remittance, logger))
			r.Post("/remittances/quote", quoteHandler(svc.Remittance, logger))

			// CSV exports
			r.Get("/exports/expenses.csv", exportHandler("expenses", svc.Export.WriteExpensesCSV, logger))
			r.Get("/exports/income.csv", exportHandler("income", svc.Export.WriteIncomeCSV, logger))
			r.Get("/exports/budgets.csv", exportHandler("budgets", svc.Export.WriteBudgetsCSV, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func pingStore(ctx context.Context, health port.HealthChecker) (domain.ServiceHealth, error) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := health.Ping(ctx)
	status := "healthy"
	if err != nil {
		status = "degraded"
	}
	return domain.ServiceHealth{
		Name:        "store",
		Status:      status,
		LatencyMs:   time.Since(start).Milliseconds(),
		LastChecked: time.Now().Format(time.RFC3339),
	}, err
}

func healthzHandler(health port.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "family-finance-api", Status: "healthy", LastChecked: now},
		}
		if health != nil {
			s, _ := pingStore(r.Context(), health)
			services = append(services, s)
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = s.Status
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler(health port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if _, err := pingStore(r.Context(), health); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
