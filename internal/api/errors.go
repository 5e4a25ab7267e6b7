package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/theLastOfCats/mylibrary-server/internal/catalog"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSONError writes a JSON error response
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type successResponse struct {
	Success bool   `json:"success"`
	ID      *int64 `json:"id,omitempty"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// writeError maps domain errors to statuses. Unknown errors are logged and
// reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr   *ValidationError
		catErr *catalog.Error
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Message, Errors: verr.Fields})
	case errors.Is(err, db.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		JSONError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, db.ErrAlreadyReserved):
		JSONError(w, "Book already reserved", http.StatusConflict)
	case errors.Is(err, catalog.ErrInvalidISBN):
		JSONError(w, "Invalid ISBN", http.StatusBadRequest)
	case errors.As(err, &catErr):
		logger.Warn("catalog request failed", "path", r.URL.Path, "error", err)
		JSONError(w, "Catalog unavailable", http.StatusBadGateway)
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
