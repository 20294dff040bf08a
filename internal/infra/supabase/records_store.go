package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Expenses, income, budgets
// ============================================================

const (
	tableExpenses = "expenses"
	tableIncome   = "income"
	tableBudgets  = "budgets"
)

// expenseRow maps the expenses table. payment_details is a jsonb column.
type expenseRow struct {
	ID             string                     `json:"id"`
	UserID         string                     `json:"user_id"`
	Amount         float64                    `json:"amount"`
	Category       string                     `json:"category"`
	Subcategory    string                     `json:"subcategory"`
	Description    string                     `json:"description"`
	Date           time.Time                  `json:"date"`
	PaymentMethod  string                     `json:"payment_method"`
	Location       string                     `json:"location"`
	Recurring      bool                       `json:"recurring"`
	Tags           []string                   `json:"tags"`
	PaymentDetails *domain.RentPaymentDetails `json:"payment_details"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func toExpenseRow(e *domain.Expense) expenseRow {
	return expenseRow{
		ID:             e.ID,
		UserID:         e.UserID,
		Amount:         e.Amount,
		Category:       e.Category,
		Subcategory:    e.Subcategory,
		Description:    e.Description,
		Date:           e.Date,
		PaymentMethod:  e.PaymentMethod,
		Location:       e.Location,
		Recurring:      e.Recurring,
		Tags:           e.Tags,
		PaymentDetails: e.PaymentDetails,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r expenseRow) toDomain() domain.Expense {
	return domain.Expense{
		ID:             r.ID,
		UserID:         r.UserID,
		Amount:         r.Amount,
		Category:       r.Category,
		Subcategory:    r.Subcategory,
		Description:    r.Description,
		Date:           r.Date,
		PaymentMethod:  r.PaymentMethod,
		Location:       r.Location,
		Recurring:      r.Recurring,
		Tags:           r.Tags,
		PaymentDetails: r.PaymentDetails,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type incomeRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Source      string    `json:"source"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Recurring   bool      `json:"recurring"`
	Frequency   string    `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type budgetRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Spent     float64   `json:"spent"`
	Period    string    `json:"period"`
	Rollover  bool      `json:"rollover"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// stamp fills the identity and audit columns the caller left empty.
func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}

// ListExpenses returns the user's expenses, newest first.
func (c *Client) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpenses")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("order", "date.desc")
	rows, err := selectRows[expenseRow](ctx, c, "list_expenses", tableExpenses, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]domain.Expense, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	span.SetAttributes(attribute.Int("expenses.count", len(out)))
	return out, nil
}

// AddExpense inserts e and returns the stored record.
func (c *Client) AddExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddExpense")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", e.UserID))

	row := toExpenseRow(e)
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	stored, err := insertRow(ctx, c, "add_expense", tableExpenses, row.ID, row)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := stored.toDomain()
	return &out, nil
}

// DeleteExpense removes one of the user's expenses.
func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteExpense")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("expense.id", expenseID),
	)

	err := deleteRow(ctx, c, "delete_expense", tableExpenses, "expense", userID, expenseID)
	if err != nil {
		recordSpanError(span, err)
	}
	return err
}

// LatestRentExpense returns the user's most recent room-rent expense or nil.
func (c *Client) LatestRentExpense(ctx context.Context, userID string) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LatestRentExpense")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("category", eq(domain.CategoryHouseExpenses))
	q.Set("subcategory", eq(domain.SubcategoryRoomRent))
	q.Set("order", "date.desc")
	q.Set("limit", "1")
	rows, err := selectRows[expenseRow](ctx, c, "latest_rent", tableExpenses, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := rows[0].toDomain()
	return &out, nil
}

// ListIncome returns the user's income records, newest first.
func (c *Client) ListIncome(ctx context.Context, userID string) ([]domain.Income, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("order", "date.desc")
	rows, err := selectRows[incomeRow](ctx, c, "list_income", tableIncome, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]domain.Income, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Income(r))
	}
	return out, nil
}

// AddIncome inserts in and returns the stored record.
func (c *Client) AddIncome(ctx context.Context, in *domain.Income) (*domain.Income, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", in.UserID))

	row := incomeRow(*in)
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	stored, err := insertRow(ctx, c, "add_income", tableIncome, row.ID, row)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := domain.Income(stored)
	return &out, nil
}

// DeleteIncome removes one of the user's income records.
func (c *Client) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteIncome")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("income.id", incomeID),
	)

	err := deleteRow(ctx, c, "delete_income", tableIncome, "income", userID, incomeID)
	if err != nil {
		recordSpanError(span, err)
	}
	return err
}

// ListBudgets returns the user's budget envelopes ordered by category.
func (c *Client) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("order", "category.asc")
	rows, err := selectRows[budgetRow](ctx, c, "list_budgets", tableBudgets, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]domain.Budget, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Budget(r))
	}
	return out, nil
}

// AddBudget inserts b and returns the stored record.
func (c *Client) AddBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddBudget")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", b.UserID))

	row := budgetRow(*b)
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	stored, err := insertRow(ctx, c, "add_budget", tableBudgets, row.ID, row)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := domain.Budget(stored)
	return &out, nil
}
