package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"
)

// ============================================================
// Family remittance
// ============================================================

type quoteRequest struct {
	Amount float64 `json:"amount" validate:"gt=0,lte=1000000000"`
	Method string  `json:"method" validate:"required,oneof=western-union moneygram bank-transfer crypto other"`
}

func exchangeRateHandler(svc *service.RemittanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/exchange-rate")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Rate(ctx))
	}
}

func quoteHandler(svc *service.RemittanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/remittances/quote")
		defer span.End()

		var req quoteRequest
		if err := decodeAndValidate(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		q, err := svc.Quote(ctx, req.Amount, req.Method)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func listRecipientsHandler(svc *service.RemittanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/recipients")
		defer span.End()

		recipients, err := svc.ListRecipients(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(recipients))
	}
}

func addRecipientHandler(svc *service.RemittanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/recipients")
		defer span.End()

		var rec domain.Recipient
		if err := decodeAndValidate(r, &rec); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.AddRecipient(ctx, chi.URLParam(r, "userId"), rec)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listRemittancesHandler(svc *service.RemittanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/remittances")
		defer span.End()

		remittances, err := svc.ListRemittances(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(remittances))
	}
}

func createRemittanceHandler(svc *service.RemittanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/remittances")
		defer span.End()

		var rem domain.Remittance
		if err := decodeAndValidate(r, &rem); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.Create(ctx, chi.URLParam(r, "userId"), rem)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}
