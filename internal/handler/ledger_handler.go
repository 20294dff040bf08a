package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"
)

// ============================================================
// Income & budgets
// ============================================================

func listIncomeHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/income")
		defer span.End()

		income, err := svc.ListIncome(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(income))
	}
}

func addIncomeHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/income")
		defer span.End()

		var in domain.Income
		if err := decodeAndValidate(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.AddIncome(ctx, chi.URLParam(r, "userId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteIncomeHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}/income/{incomeId}")
		defer span.End()

		incomeID := chi.URLParam(r, "incomeId")
		if err := svc.DeleteIncome(ctx, chi.URLParam(r, "userId"), incomeID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "income deleted", ID: incomeID})
	}
}

func listBudgetsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/budgets")
		defer span.End()

		budgets, err := svc.ListBudgets(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(budgets))
	}
}

func addBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/budgets")
		defer span.End()

		var b domain.Budget
		if err := decodeAndValidate(r, &b); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.AddBudget(ctx, chi.URLParam(r, "userId"), b)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func budgetStatusHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/budgets/status")
		defer span.End()

		statuses, err := svc.BudgetStatuses(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(statuses))
	}
}
