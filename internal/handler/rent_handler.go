package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"
)

// ============================================================
// Room rent
// ============================================================

// rentSuggestHandler takes an optional paymentDate (YYYY-MM-DD), today by
// default.
func rentSuggestHandler(svc *service.RentService, analytics *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/rent/suggest")
		defer span.End()

		paymentDate, err := queryDate(r, "paymentDate", analytics.Now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		suggestion, err := svc.Suggest(ctx, chi.URLParam(r, "userId"), paymentDate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, suggestion)
	}
}

func rentCalculateHandler(svc *service.RentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/rent/calculate")
		defer span.End()

		var in domain.RentInput
		if err := decodeAndValidate(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		calc, err := svc.Calculate(ctx, chi.URLParam(r, "userId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, calc)
	}
}

// rentValidateHandler always answers 200; the body says whether the entry is
// valid.
func rentValidateHandler(svc *service.RentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/rent/validate")
		defer span.End()

		var in domain.RentInput
		if err := decodeAndValidate(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		v, err := svc.Validate(ctx, chi.URLParam(r, "userId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func rentInsightsHandler(svc *service.RentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/rent/insights")
		defer span.End()

		insights, err := svc.Insights(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, insights)
	}
}
