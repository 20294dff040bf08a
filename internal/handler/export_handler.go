package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type csvWriter func(ctx context.Context, userID string, w io.Writer) error

// exportHandler renders the CSV into a buffer first so a store failure can
// still be answered with a JSON error instead of a truncated file.
func exportHandler(kind string, write csvWriter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/exports/"+kind+".csv")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		var buf bytes.Buffer
		if err := write(ctx, userID, &buf); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind+".csv"))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
