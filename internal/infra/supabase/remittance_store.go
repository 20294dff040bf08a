package supabase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Recipients & remittances
// ============================================================

const (
	tableRecipients  = "recipients"
	tableRemittances = "remittances"
)

type recipientRow struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Relationship    string    `json:"relationship"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	City            string    `json:"city"`
	Country         string    `json:"country"`
	BankName        string    `json:"bank_name"`
	AccountName     string    `json:"account_name"`
	AccountNumber   string    `json:"account_number"`
	PreferredMethod string    `json:"preferred_method"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

type remittanceRow struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	RecipientID       string     `json:"recipient_id"`
	RecipientName     string     `json:"recipient_name"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	ExchangeRate      float64    `json:"exchange_rate"`
	LocalAmount       float64    `json:"local_amount"`
	LocalCurrency     string     `json:"local_currency"`
	TransferMethod    string     `json:"transfer_method"`
	TransferFee       float64    `json:"transfer_fee"`
	TotalCost         float64    `json:"total_cost"`
	Purpose           string     `json:"purpose"`
	DeliveryOption    string     `json:"delivery_option"`
	Status            string     `json:"status"`
	TransferReference string     `json:"transfer_reference"`
	ExpectedDelivery  *time.Time `json:"expected_delivery"`
	Notes             string     `json:"notes"`
	Date              time.Time  `json:"date"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ListRecipients returns the user's family recipients ordered by name.
func (c *Client) ListRecipients(ctx context.Context, userID string) ([]domain.Recipient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecipients")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("order", "name.asc")
	rows, err := selectRows[recipientRow](ctx, c, "list_recipients", tableRecipients, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]domain.Recipient, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Recipient(r))
	}
	return out, nil
}

// AddRecipient inserts r and returns the stored record.
func (c *Client) AddRecipient(ctx context.Context, r *domain.Recipient) (*domain.Recipient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddRecipient")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", r.UserID))

	row := recipientRow(*r)
	stamp(&row.ID, &row.CreatedAt, nil)
	stored, err := insertRow(ctx, c, "add_recipient", tableRecipients, row.ID, row)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := domain.Recipient(stored)
	return &out, nil
}

// ListRemittances returns the user's transfers, newest first.
func (c *Client) ListRemittances(ctx context.Context, userID string) ([]domain.Remittance, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRemittances")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := userFilter(userID)
	q.Set("order", "date.desc")
	rows, err := selectRows[remittanceRow](ctx, c, "list_remittances", tableRemittances, q)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]domain.Remittance, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Remittance(r))
	}
	return out, nil
}

// AddRemittance inserts r and returns the stored record.
func (c *Client) AddRemittance(ctx context.Context, r *domain.Remittance) (*domain.Remittance, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddRemittance")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", r.UserID),
		attribute.String("remittance.method", r.TransferMethod),
	)

	row := remittanceRow(*r)
	stamp(&row.ID, &row.CreatedAt, nil)
	stored, err := insertRow(ctx, c, "add_remittance", tableRemittances, row.ID, row)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := domain.Remittance(stored)
	return &out, nil
}
