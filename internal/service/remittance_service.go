package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/currency"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var remittanceTracer = otel.Tracer("service/remittance")

// RemittanceService prices and records USD→NPR transfers to family members.
// Transfers are converted at the NRB sell rate.
type RemittanceService struct {
	store  port.RemittanceStore
	rates  port.RateProvider
	now    func() time.Time
	logger *zap.Logger
}

// NewRemittanceService creates the remittance service. A nil now uses the
// wall clock.
func NewRemittanceService(store port.RemittanceStore, rates port.RateProvider, now func() time.Time, logger *zap.Logger) *RemittanceService {
	if now == nil {
		now = time.Now
	}
	return &RemittanceService{store: store, rates: rates, now: now, logger: logger}
}

// Rate returns the current USD→NPR rate. It never fails; Source says whether
// the rate is live or the fallback.
func (s *RemittanceService) Rate(ctx context.Context) domain.ExchangeRateData {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.Rate")
	defer span.End()

	rate := s.rates.USDToNPR(ctx)
	span.SetAttributes(attribute.String("rate.source", rate.Source))
	return rate
}

// Quote prices sending amount dollars with method.
func (s *RemittanceService) Quote(ctx context.Context, amount float64, method string) (*domain.RemittanceQuote, error) {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.Quote")
	defer span.End()
	span.SetAttributes(attribute.String("remittance.method", method))

	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than 0"}
	}
	if !knownMethod(method) {
		return nil, &domain.ErrValidation{Field: "method", Message: fmt.Sprintf("unknown transfer method %q", method)}
	}

	rate := s.Rate(ctx)
	return quote(amount, method, rate, s.now()), nil
}

func quote(amount float64, method string, rate domain.ExchangeRateData, now time.Time) *domain.RemittanceQuote {
	fee := currency.TransferFee(method, amount)
	local := currency.ConvertUSDToNPR(amount, rate.USD.Sell)
	total := currency.Round2(amount + fee)
	return &domain.RemittanceQuote{
		Amount:           amount,
		Method:           method,
		ExchangeRate:     rate.USD.Sell,
		RateSource:       rate.Source,
		LocalAmount:      local,
		TransferFee:      fee,
		TotalCost:        total,
		ExpectedDelivery: currency.ExpectedDeliveryDate(method, now),
		Formatted: domain.Formatted{
			Amount:      currency.Format(amount, currency.USD),
			LocalAmount: currency.Format(local, currency.NPR),
			TotalCost:   currency.Format(total, currency.USD),
		},
	}
}

func knownMethod(method string) bool {
	for _, m := range currency.Methods() {
		if m == method {
			return true
		}
	}
	return false
}

// ListRecipients returns the user's family recipients.
func (s *RemittanceService) ListRecipients(ctx context.Context, userID string) ([]domain.Recipient, error) {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.ListRecipients")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListRecipients(ctx, userID)
}

// AddRecipient stores a new family recipient for the user.
func (s *RemittanceService) AddRecipient(ctx context.Context, userID string, r domain.Recipient) (*domain.Recipient, error) {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.AddRecipient")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	r.UserID = userID
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if r.Country == "" {
		r.Country = "Nepal"
	}
	return s.store.AddRecipient(ctx, &r)
}

// ListRemittances returns the user's transfers, newest first.
func (s *RemittanceService) ListRemittances(ctx context.Context, userID string) ([]domain.Remittance, error) {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.ListRemittances")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListRemittances(ctx, userID)
}

// Create records a transfer to one of the user's recipients, pricing it at
// the current rate. Fields the caller did not set (status, date, delivery
// estimate) get their defaults.
func (s *RemittanceService) Create(ctx context.Context, userID string, r domain.Remittance) (*domain.Remittance, error) {
	ctx, span := remittanceTracer.Start(ctx, "RemittanceService.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("remittance.method", r.TransferMethod),
	)

	if r.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than 0"}
	}
	if !knownMethod(r.TransferMethod) {
		return nil, &domain.ErrValidation{Field: "transferMethod", Message: fmt.Sprintf("unknown transfer method %q", r.TransferMethod)}
	}

	recipients, err := s.store.ListRecipients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	var recipient *domain.Recipient
	for i := range recipients {
		if recipients[i].ID == r.RecipientID {
			recipient = &recipients[i]
			break
		}
	}
	if recipient == nil {
		return nil, &domain.ErrNotFound{Resource: "recipient", ID: r.RecipientID}
	}

	now := s.now()
	q := quote(r.Amount, r.TransferMethod, s.Rate(ctx), now)

	r.UserID = userID
	r.RecipientName = recipient.Name
	r.Currency = currency.USD
	r.LocalCurrency = currency.NPR
	r.ExchangeRate = q.ExchangeRate
	r.LocalAmount = q.LocalAmount
	r.TransferFee = q.TransferFee
	r.TotalCost = q.TotalCost
	if r.Status == "" {
		r.Status = domain.RemittancePending
	}
	if r.Date.IsZero() {
		r.Date = now
	}
	if r.ExpectedDelivery == nil {
		d := currency.ExpectedDeliveryDate(r.TransferMethod, r.Date)
		r.ExpectedDelivery = &d
	}

	stored, err := s.store.AddRemittance(ctx, &r)
	if err != nil {
		s.logger.Error("failed to store remittance",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store remittance: %w", err)
	}

	s.logger.Info("remittance recorded",
		zap.String("user_id", userID),
		zap.String("remittance_id", stored.ID),
		zap.String("rate_source", q.RateSource),
		zap.Float64("total_cost", stored.TotalCost),
	)
	return stored, nil
}
