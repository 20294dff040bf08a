package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ─── Income ─────────────────────────────────────────────────────────────────

const incomeColumns = `id, user_id, amount, source, type, description, date,
	recurring, frequency, created_at, updated_at`

func scanIncome(row rowScanner) (domain.Income, error) {
	var (
		in                     domain.Income
		date, created, updated string
		recurring              int
	)
	err := row.Scan(&in.ID, &in.UserID, &in.Amount, &in.Source, &in.Type, &in.Description, &date,
		&recurring, &in.Frequency, &created, &updated)
	if err != nil {
		return domain.Income{}, err
	}
	in.Recurring = recurring == 1
	if in.Date, err = parseTime(date); err != nil {
		return domain.Income{}, err
	}
	if in.CreatedAt, err = parseTime(created); err != nil {
		return domain.Income{}, err
	}
	if in.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Income{}, err
	}
	return in, nil
}

// ListIncome returns the user's income records, newest first.
func (s *DB) ListIncome(ctx context.Context, userID string) ([]domain.Income, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM income WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Income, 0)
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// AddIncome stores in, assigning an ID and timestamps when missing.
func (s *DB) AddIncome(ctx context.Context, in *domain.Income) (*domain.Income, error) {
	ctx, span := tracer.Start(ctx, "SQLite.AddIncome")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", in.UserID))

	stored := *in
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income (`+incomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.UserID, stored.Amount, stored.Source, stored.Type, stored.Description,
		formatTime(stored.Date), boolInt(stored.Recurring), stored.Frequency,
		formatTime(stored.CreatedAt), formatTime(stored.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert income: %w", err)
	}
	return &stored, nil
}

// DeleteIncome removes one of the user's income records.
func (s *DB) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteIncome")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("income.id", incomeID),
	)

	res, err := s.db.ExecContext(ctx, `DELETE FROM income WHERE id = ? AND user_id = ?`, incomeID, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "income", ID: incomeID}
	}
	return nil
}

// ─── Budgets ────────────────────────────────────────────────────────────────

const budgetColumns = `id, user_id, category, amount, spent, period, rollover,
	color, icon, created_at, updated_at`

func scanBudget(row rowScanner) (domain.Budget, error) {
	var (
		b                domain.Budget
		created, updated string
		rollover         int
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.Spent, &b.Period, &rollover,
		&b.Color, &b.Icon, &created, &updated)
	if err != nil {
		return domain.Budget{}, err
	}
	b.Rollover = rollover == 1
	if b.CreatedAt, err = parseTime(created); err != nil {
		return domain.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Budget{}, err
	}
	return b, nil
}

// ListBudgets returns the user's budget envelopes ordered by category.
func (s *DB) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBudget stores b, assigning an ID and timestamps when missing.
func (s *DB) AddBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.AddBudget")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", b.UserID))

	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.UserID, stored.Category, stored.Amount, stored.Spent, stored.Period,
		boolInt(stored.Rollover), stored.Color, stored.Icon,
		formatTime(stored.CreatedAt), formatTime(stored.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert budget: %w", err)
	}
	return &stored, nil
}
