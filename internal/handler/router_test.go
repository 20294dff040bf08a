package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/handler"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/sqlite"
	"github.com/boddenberg/family-finance-go/internal/service"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixedRates struct{}

func (fixedRates) USDToNPR(context.Context) domain.ExchangeRateData {
	return domain.ExchangeRateData{
		USD:         domain.ExchangeRate{Currency: "USD", Buy: 132, Sell: 132.5, Date: "2026-03-15"},
		LastUpdated: fixedNow,
		Source:      domain.RateSourceLive,
	}
}

type failingPing struct{}

func (failingPing) Ping(context.Context) error { return errors.New("database is locked") }

func newTestRouter(t *testing.T, opts handler.Options) (http.Handler, *sqlite.DB) {
	t.Helper()
	logger := zap.NewNop()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return fixedNow }
	metrics := observability.NewMetrics()
	engine := analysis.NewEngine(analysis.WithClock(clock))

	svc := handler.Services{
		Analytics:  service.NewAnalyticsService(store, engine, resilience.NewBulkhead(4), metrics, logger),
		Expenses:   service.NewExpenseService(store, engine, metrics, logger),
		Rent:       service.NewRentService(store, store, engine, logger),
		Remittance: service.NewRemittanceService(store, fixedRates{}, clock, logger),
		Ledger:     service.NewLedgerService(store, store),
		Export:     service.NewExportService(store),
		Health:     store,
	}
	return handler.NewRouter(svc, opts, metrics, logger), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOperationalEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/v1/metrics/engine", "/ping"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, path, "")
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestReadyz_StoreDown(t *testing.T) {
	router := handler.NewRouter(handler.Services{Health: failingPing{}}, handler.Options{}, observability.NewMetrics(), zap.NewNop())

	if rec := do(t, router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz: expected 503, got %d", rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/healthz", "")
	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || health.Status != "degraded" {
		t.Errorf("healthz: %d %+v", rec.Code, health)
	}
}

func TestExpenses_AddListDelete(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	rec := do(t, router, http.MethodPost, "/v1/users/u1/expenses",
		`{"description":"Starbucks","amount":6.75,"date":"2026-03-10T08:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var added service.AddExpenseResult
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}
	if added.Expense.Category != "Food" || added.Expense.ID == "" {
		t.Errorf("expected auto-categorized stored expense, got %+v", added.Expense)
	}

	rec = do(t, router, http.MethodGet, "/v1/users/u1/expenses", "")
	var list domain.ListResponse[domain.Expense]
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || list.Data[0].Description != "Starbucks" {
		t.Errorf("list = %+v", list)
	}

	if rec := do(t, router, http.MethodDelete, "/v1/users/u1/expenses/"+added.Expense.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/v1/users/u1/expenses/"+added.Expense.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestIncome_AddDelete(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	rec := do(t, router, http.MethodPost, "/v1/users/u1/income",
		`{"source":"Employer","type":"salary","amount":4500,"date":"2026-03-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var added domain.Income
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}

	if rec := do(t, router, http.MethodDelete, "/v1/users/u2/income/"+added.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("other user's delete: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/v1/users/u1/income/"+added.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, router, http.MethodGet, "/v1/users/u1/income", "")
	var list domain.ListResponse[domain.Income]
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 0 {
		t.Errorf("expected no income after delete, got %+v", list)
	}
	if rec := do(t, router, http.MethodDelete, "/v1/users/u1/income/"+added.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	// Seed a budget so the duplicate is a conflict.
	if rec := do(t, router, http.MethodPost, "/v1/users/u1/budgets",
		`{"category":"Food","amount":700,"spent":0,"period":"monthly"}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed budget: %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		want     int
		contains string
	}{
		{"malformed json", http.MethodPost, "/v1/users/u1/expenses", `{`, http.StatusBadRequest, "invalid request body"},
		{"missing description", http.MethodPost, "/v1/users/u1/expenses", `{"amount":5,"date":"2026-03-10T00:00:00Z"}`, http.StatusBadRequest, "description"},
		{"duplicate budget", http.MethodPost, "/v1/users/u1/budgets", `{"category":"food","amount":300,"period":"monthly"}`, http.StatusConflict, "already exists"},
		{"bad budget period", http.MethodPost, "/v1/users/u1/budgets", `{"category":"Fun","amount":300,"period":"daily"}`, http.StatusBadRequest, "period"},
		{"unknown anomaly expense", http.MethodGet, "/v1/users/u1/analysis/anomalies?expenseId=nope", "", http.StatusNotFound, "not found"},
		{"bad summary date", http.MethodGet, "/v1/users/u1/analysis/summary?from=03/01/2026", "", http.StatusBadRequest, "from"},
		{"unknown recipient", http.MethodPost, "/v1/users/u1/remittances", `{"recipientId":"nobody","amount":100,"transferMethod":"moneygram"}`, http.StatusNotFound, "recipient"},
		{"bad transfer method", http.MethodPost, "/v1/users/u1/remittances/quote", `{"amount":100,"method":"pigeon"}`, http.StatusBadRequest, "method"},
		{"huge quote amount", http.MethodPost, "/v1/users/u1/remittances/quote", `{"amount":1e308,"method":"western-union"}`, http.StatusBadRequest, "amount"},
		{"huge weekly rate", http.MethodPost, "/v1/users/u1/rent/calculate", `{"paymentDate":"2026-03-15T00:00:00Z","startDate":"2026-03-01T00:00:00Z","endDate":"2026-03-14T00:00:00Z","weeklyRate":1e308}`, http.StatusBadRequest, "weeklyRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %q does not mention %q", rec.Body, tt.contains)
			}
		})
	}
}

func TestRentCalculate(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	rec := do(t, router, http.MethodPost, "/v1/users/u1/rent/calculate",
		`{"paymentDate":"2026-03-15T00:00:00Z","startDate":"2026-03-01T00:00:00Z","endDate":"2026-03-14T00:00:00Z","weeklyRate":140}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var calc domain.RentCalculation
	if err := json.NewDecoder(rec.Body).Decode(&calc); err != nil {
		t.Fatal(err)
	}
	if calc.TotalDays != 14 || calc.Amount != 280 {
		t.Errorf("calculation = %+v", calc)
	}

	rec = do(t, router, http.MethodPost, "/v1/users/u1/rent/calculate",
		`{"paymentDate":"2026-03-15T00:00:00Z","startDate":"2026-03-01T00:00:00Z","endDate":"2026-03-14T00:00:00Z","weeklyRate":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Validation domain.RentValidation `json:"validation"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Validation.IsValid || len(body.Validation.Errors) == 0 {
		t.Errorf("expected blocking errors, got %+v", body.Validation)
	}
}

func TestRemittanceQuoteAndRate(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	rec := do(t, router, http.MethodPost, "/v1/users/u1/remittances/quote", `{"amount":200,"method":"western-union"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var q domain.RemittanceQuote
	if err := json.NewDecoder(rec.Body).Decode(&q); err != nil {
		t.Fatal(err)
	}
	if q.TransferFee != 10 || q.TotalCost != 210 || q.LocalAmount != 26500 {
		t.Errorf("quote = %+v", q)
	}

	rec = do(t, router, http.MethodGet, "/v1/exchange-rate", "")
	var rate domain.ExchangeRateData
	if err := json.NewDecoder(rec.Body).Decode(&rate); err != nil {
		t.Fatal(err)
	}
	if rate.USD.Sell != 132.5 || rate.Source != domain.RateSourceLive {
		t.Errorf("rate = %+v", rate)
	}
}

func TestCategorize(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})

	rec := do(t, router, http.MethodPost, "/v1/categorize", `{"description":"Uber","amount":12}`)
	var s domain.CategorySuggestion
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || s.Category != "Transportation" {
		t.Errorf("got %d %+v", rec.Code, s)
	}
}

func TestSeededAnalysis(t *testing.T) {
	router, store := newTestRouter(t, handler.Options{})
	if err := store.Seed(context.Background(), "demo", fixedNow); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/v1/users/demo/analysis/forecast", "")
	var f domain.Forecast
	if err := json.NewDecoder(rec.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || f.Predicted <= 0 {
		t.Errorf("forecast: %d %+v", rec.Code, f)
	}

	rec = do(t, router, http.MethodGet, "/v1/users/demo/budgets/status", "")
	var statuses domain.ListResponse[domain.BudgetStatus]
	if err := json.NewDecoder(rec.Body).Decode(&statuses); err != nil {
		t.Fatal(err)
	}
	if statuses.Total != 4 {
		t.Errorf("expected 4 budget statuses, got %d", statuses.Total)
	}

	rec = do(t, router, http.MethodGet, "/v1/users/demo/rent/insights", "")
	var ri domain.RentInsights
	if err := json.NewDecoder(rec.Body).Decode(&ri); err != nil {
		t.Fatal(err)
	}
	if !ri.HasData || ri.Stats.PaymentsCount != 6 {
		t.Errorf("rent insights = %+v", ri)
	}
}

func TestExportCSV(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{})
	do(t, router, http.MethodPost, "/v1/users/u1/income",
		`{"source":"Employer","type":"salary","amount":4500,"date":"2026-03-01T00:00:00Z"}`)

	rec := do(t, router, http.MethodGet, "/v1/users/u1/exports/income.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="income.csv"` {
		t.Errorf("content disposition = %q", cd)
	}
	want := "date,source,type,description,amount,recurring,frequency\n2026-03-01,Employer,salary,,4500,No,\n"
	if rec.Body.String() != want {
		t.Errorf("csv = %q", rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	router, _ := newTestRouter(t, handler.Options{RateLimitRPS: 1, RateLimitBurst: 1})

	if rec := do(t, router, http.MethodGet, "/v1/exchange-rate", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	rec := do(t, router, http.MethodGet, "/v1/exchange-rate", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Operational endpoints are not limited.
	if rec := do(t, router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
}
