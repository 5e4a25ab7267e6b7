package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/mail"
	"github.com/theLastOfCats/mylibrary-server/internal/model"
	"github.com/theLastOfCats/mylibrary-server/internal/templates"
)

// WishlistHandler serves the public side of shared wishlists. Nothing here
// requires a token.
type WishlistHandler struct {
	DB        *db.DB
	Validator *Validator
	Templates *templates.Manager
	Notifier  *mail.Notifier
	Logger    *slog.Logger
}

type reserveRequest struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name" validate:"notblank,max=128"`
}

func (h *WishlistHandler) load(r *http.Request) (*model.User, *model.SharedWishlist, error) {
	owner, err := h.DB.GetUserByWishlistLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		return nil, nil, err
	}
	books, err := h.DB.ListBooks(r.Context(), owner.UserID, db.ShelfWishlist)
	if err != nil {
		return nil, nil, err
	}

	shared := &model.SharedWishlist{
		Owner: model.WishlistOwner{Theme: owner.Theme},
		Books: make([]model.WishlistBook, 0, len(books)),
	}
	for _, b := range books {
		shared.Books = append(shared.Books, model.NewWishlistBook(b))
	}
	return owner, shared, nil
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	_, shared, err := h.load(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

// SharePage renders the wishlist as HTML for people without the app.
func (h *WishlistHandler) SharePage(w http.ResponseWriter, r *http.Request) {
	_, shared, err := h.load(r)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Wishlist not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("load shared wishlist", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	page, err := h.Templates.Render(templates.WishlistPage, shared)
	if err != nil {
		h.Logger.Error("render shared wishlist", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// Reserve claims a wishlist book for a named visitor. The first claim wins.
func (h *WishlistHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := h.Validator.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	name := strings.TrimSpace(req.Name)

	owner, err := h.DB.GetUserByWishlistLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	if err := h.DB.ReserveBook(r.Context(), owner.UserID, req.ID, name); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	h.notify(r, owner, req.ID, name)
	writeSuccess(w)
}

func (h *WishlistHandler) notify(r *http.Request, owner *model.User, bookID int64, name string) {
	if h.Notifier == nil {
		return
	}
	book, err := h.DB.GetBook(r.Context(), owner.UserID, bookID)
	if err != nil {
		h.Logger.Warn("reservation mail skipped", "book_id", bookID, "error", err)
		return
	}
	if err := h.Notifier.BookReserved(owner, book, name); err != nil {
		h.Logger.Warn("reservation mail failed", "book_id", bookID, "error", err)
	}
}
