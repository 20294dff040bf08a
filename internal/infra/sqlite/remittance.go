package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ─── Recipients ─────────────────────────────────────────────────────────────

const recipientColumns = `id, user_id, name, relationship, phone, email, city, country,
	bank_name, account_name, account_number, preferred_method, notes, created_at`

// ListRecipients returns the user's family recipients ordered by name.
func (s *DB) ListRecipients(ctx context.Context, userID string) ([]domain.Recipient, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListRecipients")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipientColumns+` FROM recipients WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Recipient, 0)
	for rows.Next() {
		var (
			r       domain.Recipient
			created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Relationship, &r.Phone, &r.Email, &r.City,
			&r.Country, &r.BankName, &r.AccountName, &r.AccountNumber, &r.PreferredMethod, &r.Notes,
			&created); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddRecipient stores r, assigning an ID and creation time when missing.
func (s *DB) AddRecipient(ctx context.Context, r *domain.Recipient) (*domain.Recipient, error) {
	ctx, span := tracer.Start(ctx, "SQLite.AddRecipient")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", r.UserID))

	stored := *r
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipients (`+recipientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.UserID, stored.Name, stored.Relationship, stored.Phone, stored.Email,
		stored.City, stored.Country, stored.BankName, stored.AccountName, stored.AccountNumber,
		stored.PreferredMethod, stored.Notes, formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert recipient: %w", err)
	}
	return &stored, nil
}

// ─── Remittances ────────────────────────────────────────────────────────────

const remittanceColumns = `id, user_id, recipient_id, recipient_name, amount, currency,
	exchange_rate, local_amount, local_currency, transfer_method, transfer_fee, total_cost,
	purpose, delivery_option, status, transfer_reference, expected_delivery, notes, date, created_at`

// ListRemittances returns the user's transfers, newest first.
func (s *DB) ListRemittances(ctx context.Context, userID string) ([]domain.Remittance, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListRemittances")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list remittances: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Remittance, 0)
	for rows.Next() {
		var (
			r             domain.Remittance
			date, created string
			expected      sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.RecipientID, &r.RecipientName, &r.Amount, &r.Currency,
			&r.ExchangeRate, &r.LocalAmount, &r.LocalCurrency, &r.TransferMethod, &r.TransferFee,
			&r.TotalCost, &r.Purpose, &r.DeliveryOption, &r.Status, &r.TransferReference, &expected,
			&r.Notes, &date, &created); err != nil {
			return nil, fmt.Errorf("scan remittance: %w", err)
		}
		if r.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if expected.Valid {
			t, err := parseTime(expected.String)
			if err != nil {
				return nil, err
			}
			r.ExpectedDelivery = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddRemittance stores r, assigning an ID and creation time when missing.
func (s *DB) AddRemittance(ctx context.Context, r *domain.Remittance) (*domain.Remittance, error) {
	ctx, span := tracer.Start(ctx, "SQLite.AddRemittance")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", r.UserID),
		attribute.String("remittance.method", r.TransferMethod),
	)

	stored := *r
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	var expected sql.NullString
	if stored.ExpectedDelivery != nil {
		expected = sql.NullString{String: formatTime(*stored.ExpectedDelivery), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remittances (`+remittanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.UserID, stored.RecipientID, stored.RecipientName, stored.Amount, stored.Currency,
		stored.ExchangeRate, stored.LocalAmount, stored.LocalCurrency, stored.TransferMethod,
		stored.TransferFee, stored.TotalCost, stored.Purpose, stored.DeliveryOption, stored.Status,
		stored.TransferReference, expected, stored.Notes, formatTime(stored.Date), formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert remittance: %w", err)
	}
	return &stored, nil
}
