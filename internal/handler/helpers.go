package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

// rentErrorResponse carries the full rent validation so the form can show
// every message.
type rentErrorResponse struct {
	Error      string                `json:"error"`
	Validation domain.RentValidation `json:"validation"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// Failures come back as *domain.ErrValidation.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &domain.ErrValidation{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			}
		}
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// queryDate parses an optional YYYY-MM-DD query parameter. A missing
// parameter yields fallback.
func queryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: name, Message: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func listResponse[T any](items []T) domain.ListResponse[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return domain.ListResponse[T]{Data: items, Total: len(items)}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var rentInvalid *domain.ErrRentInvalid
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &rentInvalid):
		logger.Debug("rent validation failed", zap.Strings("errors", rentInvalid.Validation.Errors))
		writeJSON(w, http.StatusUnprocessableEntity, rentErrorResponse{
			Error:      err.Error(),
			Validation: rentInvalid.Validation,
		})
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream service error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
