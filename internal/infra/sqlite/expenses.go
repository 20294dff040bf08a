package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const expenseColumns = `id, user_id, amount, category, subcategory, description, date,
	payment_method, location, recurring, tags, payment_details, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (domain.Expense, error) {
	var (
		e                      domain.Expense
		date, created, updated string
		recurring              int
		tags, paymentDetails   sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Subcategory, &e.Description, &date,
		&e.PaymentMethod, &e.Location, &recurring, &tags, &paymentDetails, &created, &updated)
	if err != nil {
		return domain.Expense{}, err
	}

	e.Recurring = recurring == 1
	if e.Date, err = parseTime(date); err != nil {
		return domain.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return domain.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Expense{}, err
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
			return domain.Expense{}, fmt.Errorf("decode tags of %s: %w", e.ID, err)
		}
	}
	if paymentDetails.Valid {
		e.PaymentDetails = &domain.RentPaymentDetails{}
		if err := json.Unmarshal([]byte(paymentDetails.String), e.PaymentDetails); err != nil {
			return domain.Expense{}, fmt.Errorf("decode payment details of %s: %w", e.ID, err)
		}
	}
	return e, nil
}

// ListExpenses returns the user's expenses, newest first.
func (s *DB) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListExpenses")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddExpense stores e, assigning an ID and timestamps when missing.
func (s *DB) AddExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "SQLite.AddExpense")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", e.UserID))

	stored := *e
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	tags, err := jsonColumn(stored.Tags, stored.Tags == nil)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	details, err := jsonColumn(stored.PaymentDetails, stored.PaymentDetails == nil)
	if err != nil {
		return nil, fmt.Errorf("encode payment details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.UserID, stored.Amount, stored.Category, stored.Subcategory, stored.Description,
		formatTime(stored.Date), stored.PaymentMethod, stored.Location, boolInt(stored.Recurring),
		tags, details, formatTime(stored.CreatedAt), formatTime(stored.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &stored, nil
}

// DeleteExpense removes one of the user's expenses.
func (s *DB) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteExpense")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("expense.id", expenseID),
	)

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
	}
	return nil
}

// LatestRentExpense returns the user's most recent room-rent expense or nil.
func (s *DB) LatestRentExpense(ctx context.Context, userID string) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "SQLite.LatestRentExpense")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := s.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = ? AND category = ? AND subcategory = ?
		ORDER BY date DESC LIMIT 1
	`, userID, domain.CategoryHouseExpenses, domain.SubcategoryRoomRent)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest rent expense: %w", err)
	}
	return &e, nil
}
