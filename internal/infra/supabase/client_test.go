package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/supabase"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*supabase.Client, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("supabase-test", zap.NewNop())
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	return supabase.NewClient(srv.Client(), srv.URL, "anon", "service", cb, cfg, metrics, zap.NewNop()), metrics
}

func TestListExpenses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/expenses" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("user_id") != "eq.u1" || q.Get("order") != "date.desc" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[{
			"id": "e1", "user_id": "u1", "amount": 42.5, "category": "Food",
			"description": "Safeway", "date": "2026-03-01T10:00:00Z", "tags": ["weekly"],
			"payment_details": {"paymentDate": "2026-03-01T00:00:00Z", "weeklyRate": 150}
		}]`))
	})

	got, err := client.ListExpenses(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(got))
	}
	e := got[0]
	if e.ID != "e1" || e.UserID != "u1" || e.Amount != 42.5 || e.Category != "Food" {
		t.Errorf("unexpected expense: %+v", e)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "weekly" {
		t.Errorf("tags = %v", e.Tags)
	}
	if e.PaymentDetails == nil || e.PaymentDetails.WeeklyRate != 150 {
		t.Errorf("payment details = %+v", e.PaymentDetails)
	}
}

func TestAddExpense_SendsSnakeCaseRow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q", got)
		}
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if row["id"] == "" || row["id"] == nil {
			t.Error("expected a generated id")
		}
		if row["user_id"] != "u1" || row["payment_method"] != "card" {
			t.Errorf("unexpected row: %v", row)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{row})
	})

	in := &domain.Expense{
		UserID:        "u1",
		Amount:        12,
		Category:      "Food",
		Description:   "Coffee",
		Date:          time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		PaymentMethod: "card",
	}
	got, err := client.AddExpense(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Error("stored expense should carry an id")
	}
	if got.CreatedAt.IsZero() {
		t.Error("stored expense should carry created_at")
	}
	if got.Description != "Coffee" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestDeleteExpense_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("id") != "eq.missing" || q.Get("user_id") != "eq.u1" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[]`))
	})

	err := client.DeleteExpense(context.Background(), "u1", "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestRentExpense(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("category") != "eq.House Expenses" || q.Get("subcategory") != "eq.Room Rent" {
				t.Errorf("query = %v", q)
			}
			if q.Get("limit") != "1" {
				t.Errorf("limit = %q", q.Get("limit"))
			}
			w.Write([]byte(`[]`))
		})

		got, err := client.LatestRentExpense(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": "r1", "category": "House Expenses", "subcategory": "Room Rent", "amount": 600, "date": "2026-02-01T00:00:00Z"}]`))
		})

		got, err := client.LatestRentExpense(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != "r1" {
			t.Errorf("unexpected rent expense: %+v", got)
		}
	})
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListIncome(context.Background(), "u1")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if got := metrics.GetEngineSnapshot().StoreErrors; got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "bad filter"}`))
	})

	_, err := client.ListBudgets(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddRemittance(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/remittances" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if row["transfer_method"] != domain.MethodWesternUnion || row["recipient_id"] != "rc1" {
			t.Errorf("unexpected row: %v", row)
		}
		json.NewEncoder(w).Encode([]map[string]any{row})
	})

	got, err := client.AddRemittance(context.Background(), &domain.Remittance{
		UserID:         "u1",
		RecipientID:    "rc1",
		Amount:         200,
		TransferMethod: domain.MethodWesternUnion,
		Date:           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" || got.Amount != 200 {
		t.Errorf("unexpected remittance: %+v", got)
	}
}

func TestCallerErrorsDoNotOpenBreaker(t *testing.T) {
	var badRequests atomic.Bool
	badRequests.Store(true)
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			w.Write([]byte(`[]`))
		case badRequests.Load():
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "bad filter"}`))
		default:
			w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		err := client.DeleteExpense(ctx, "u1", "missing")
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("delete %d: expected ErrNotFound, got %v", i, err)
		}
		if _, err := client.ListBudgets(ctx, "u1"); err == nil {
			t.Fatalf("list %d: expected an error for a 400 answer", i)
		}
	}
	badRequests.Store(false)

	got, err := client.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("breaker must stay closed after caller errors, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no expenses, got %d", len(got))
	}
	if got := metrics.GetEngineSnapshot().StoreErrors; got != 6 {
		t.Errorf("store errors = %v, want 6 (the 400s only)", got)
	}
}

func TestAddExpense_RetryAfterLostResponseReadsRowBack(t *testing.T) {
	var posts atomic.Int32
	var stored atomic.Value
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var row map[string]any
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				t.Errorf("decode body: %v", err)
				return
			}
			if posts.Add(1) == 1 {
				stored.Store(row)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"code": "23505", "message": "duplicate key value"}`))
		case http.MethodGet:
			row, _ := stored.Load().(map[string]any)
			if row == nil {
				t.Error("read-back before the first insert")
				return
			}
			if got := r.URL.Query().Get("id"); got != "eq."+row["id"].(string) {
				t.Errorf("read-back id filter = %q", got)
			}
			json.NewEncoder(w).Encode([]map[string]any{row})
		}
	})

	got, err := client.AddExpense(context.Background(), &domain.Expense{
		UserID:      "u1",
		Amount:      12,
		Category:    "Food",
		Description: "Coffee",
		Date:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" || got.Description != "Coffee" {
		t.Errorf("unexpected expense: %+v", got)
	}
	if n := posts.Load(); n != 2 {
		t.Errorf("expected 2 inserts, got %d", n)
	}
}

func TestAddBudget_Conflict(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code": "23505"}`))
	})

	_, err := client.AddBudget(context.Background(), &domain.Budget{UserID: "u1", Category: "Food", Amount: 300, Period: "monthly"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestDeleteIncome(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/rest/v1/income" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("user_id") != "eq.u1" {
			t.Errorf("query = %v", q)
		}
		if q.Get("id") == "eq.i1" {
			w.Write([]byte(`[{"id": "i1"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	if err := client.DeleteIncome(ctx, "u1", "i1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := client.DeleteIncome(ctx, "u1", "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
