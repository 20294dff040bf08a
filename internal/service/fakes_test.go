package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// --- In-memory store ---

type memStore struct {
	mu          sync.Mutex
	seq         int
	expenses    []domain.Expense
	income      []domain.Income
	budgets     []domain.Budget
	recipients  []domain.Recipient
	remittances []domain.Remittance
	err         error
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) ListExpenses(_ context.Context, userID string) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Expense, 0)
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) AddExpense(_ context.Context, e *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	stored := *e
	if stored.ID == "" {
		stored.ID = m.nextID("exp")
	}
	m.expenses = append(m.expenses, stored)
	return &stored, nil
}

func (m *memStore) DeleteExpense(_ context.Context, userID, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == expenseID && e.UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}

func (m *memStore) LatestRentExpense(ctx context.Context, userID string) (*domain.Expense, error) {
	all, err := m.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.Category == domain.CategoryHouseExpenses && e.Subcategory == domain.SubcategoryRoomRent {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListIncome(_ context.Context, userID string) ([]domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Income, 0)
	for _, in := range m.income {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memStore) AddIncome(_ context.Context, in *domain.Income) (*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *in
	stored.ID = m.nextID("inc")
	m.income = append(m.income, stored)
	return &stored, nil
}

func (m *memStore) DeleteIncome(_ context.Context, userID, incomeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, in := range m.income {
		if in.ID == incomeID && in.UserID == userID {
			m.income = append(m.income[:i], m.income[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "income", ID: incomeID}
}

func (m *memStore) ListBudgets(_ context.Context, userID string) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Budget, 0)
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) AddBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *b
	stored.ID = m.nextID("bud")
	m.budgets = append(m.budgets, stored)
	return &stored, nil
}

func (m *memStore) ListRecipients(_ context.Context, userID string) ([]domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Recipient, 0)
	for _, r := range m.recipients {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) AddRecipient(_ context.Context, r *domain.Recipient) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *r
	stored.ID = m.nextID("rcp")
	m.recipients = append(m.recipients, stored)
	return &stored, nil
}

func (m *memStore) ListRemittances(_ context.Context, userID string) ([]domain.Remittance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Remittance, 0)
	for _, r := range m.remittances {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) AddRemittance(_ context.Context, r *domain.Remittance) (*domain.Remittance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *r
	stored.ID = m.nextID("rem")
	m.remittances = append(m.remittances, stored)
	return &stored, nil
}

func (m *memStore) Ping(context.Context) error { return m.err }

// --- Rate provider ---

type fixedRates struct {
	buy, sell float64
	source    string
}

func (f fixedRates) USDToNPR(context.Context) domain.ExchangeRateData {
	return domain.ExchangeRateData{
		USD:         domain.ExchangeRate{Currency: "USD", Buy: f.buy, Sell: f.sell, Date: "2026-03-15"},
		LastUpdated: fixedNow,
		Source:      f.source,
	}
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }
