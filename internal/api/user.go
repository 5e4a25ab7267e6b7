package api

import (
	"log/slog"
	"net/http"

	"github.com/theLastOfCats/mylibrary-server/internal/auth"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
)

type UserHandler struct {
	DB        *db.DB
	Validator *Validator
	Logger    *slog.Logger
	// NewToken generates wishlist tokens; auth.NewWishlistToken when nil.
	NewToken func() (string, error)
}

type settingsRequest struct {
	Theme *string `json:"theme" validate:"omitnil,max=64"`
	Goal  *int    `json:"goal" validate:"omitnil,gte=0"`
}

// GetMe signs the caller in: the user row is created on first sight and
// returned with its wishlist link.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	newToken := h.NewToken
	if newToken == nil {
		newToken = auth.NewWishlistToken
	}
	link, err := newToken()
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	user, err := h.DB.EnsureUser(r.Context(), claims.UserID(), claims.Email, link)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req settingsRequest
	if err := h.Validator.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	user, err := h.DB.UpdateUserSettings(r.Context(), userID, req.Theme, req.Goal)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
