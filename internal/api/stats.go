package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/theLastOfCats/mylibrary-server/internal/db"
)

type StatsHandler struct {
	DB     *db.DB
	Logger *slog.Logger
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	stats, err := h.DB.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetMonthly counts books read per month of ?year=, the current UTC year
// by default.
func (h *StatsHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	year := time.Now().UTC().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			JSONError(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}

	months, err := h.DB.ReadPerMonth(r.Context(), userID, year)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}
