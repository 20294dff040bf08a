package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"
)

// ============================================================
// Expenses
// ============================================================

type correctionRequest struct {
	Description  string `json:"description" validate:"required"`
	FromCategory string `json:"fromCategory" validate:"required"`
	ToCategory   string `json:"toCategory" validate:"required,nefield=FromCategory"`
}

type categorizeRequest struct {
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0,lte=1000000000"`
}

func listExpensesHandler(svc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/expenses")
		defer span.End()

		expenses, err := svc.List(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(expenses))
	}
}

func addExpenseHandler(svc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/expenses")
		defer span.End()

		var e domain.Expense
		if err := decodeAndValidate(r, &e); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Add(ctx, chi.URLParam(r, "userId"), e)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("anomalies.count", len(result.Check.Anomalies)))
		writeJSON(w, http.StatusCreated, result)
	}
}

func checkExpenseHandler(svc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/expenses/check")
		defer span.End()

		var e domain.Expense
		if err := decodeAndValidate(r, &e); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		check, err := svc.Check(ctx, chi.URLParam(r, "userId"), e)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, check)
	}
}

func correctionHandler(svc *service.ExpenseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/expenses/corrections")
		defer span.End()

		var req correctionRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		svc.LearnFromCorrection(ctx, chi.URLParam(r, "userId"), req.Description, req.FromCategory, req.ToCategory)
		writeJSON(w, http.StatusAccepted, domain.SuccessResponse{Message: "correction recorded"})
	}
}

func deleteExpenseHandler(svc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}/expenses/{expenseId}")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")
		if err := svc.Delete(ctx, chi.URLParam(r, "userId"), expenseID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "expense deleted", ID: expenseID})
	}
}

func categorizeHandler(svc *service.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categorizeRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, svc.Categorize(req.Description, req.Amount))
	}
}
