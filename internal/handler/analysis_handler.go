package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/service"
)

// ============================================================
// Analysis
// ============================================================

func anomaliesHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/analysis/anomalies")
		defer span.End()

		anomalies, err := svc.Anomalies(ctx, chi.URLParam(r, "userId"), r.URL.Query().Get("expenseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(anomalies))
	}
}

func forecastHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/analysis/forecast")
		defer span.End()

		forecast, err := svc.Forecast(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, forecast)
	}
}

func insightsHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/analysis/insights")
		defer span.End()

		insights, err := svc.Insights(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(insights))
	}
}

// summaryHandler defaults to the current month up to today.
func summaryHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/analysis/summary")
		defer span.End()

		now := svc.Now()
		from, err := queryDate(r, "from", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		to, err := queryDate(r, "to", now)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if r.URL.Query().Get("to") != "" {
			// An explicit end date covers that whole day.
			to = to.Add(24*time.Hour - time.Nanosecond)
		}

		summary, err := svc.Summary(ctx, chi.URLParam(r, "userId"), from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
