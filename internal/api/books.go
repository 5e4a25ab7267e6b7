package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/theLastOfCats/mylibrary-server/internal/catalog"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/model"
)

type BookHandler struct {
	DB        *db.DB
	Validator *Validator
	Logger    *slog.Logger
	// ExposeAllBooks enables the cross-user listing.
	ExposeAllBooks bool
}

type addRequest struct {
	// Book is the catalog candidate as the client received it. It is decoded
	// separately because catalog records carry fields we do not model.
	Book   json.RawMessage `json:"book" validate:"required"`
	UserID string          `json:"user_id,omitempty"`
	Read   bool            `json:"read"`
	Owned  bool            `json:"owned"`
}

type updateRequest struct {
	ID       int64          `json:"id" validate:"gt=0"`
	FormData updateFormData `json:"formData"`
}

type updateFormData struct {
	Title  string  `json:"title" validate:"notblank,max=256"`
	Author string  `json:"author" validate:"max=256"`
	Owned  bool    `json:"owned"`
	Read   bool    `json:"read"`
	Rating *int    `json:"rating" validate:"omitnil,gte=0,lte=5"`
	Review *string `json:"review" validate:"omitnil,max=10000"`
}

func (h *BookHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func (h *BookHandler) list(shelf db.Shelf) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.userID(w, r)
		if !ok {
			return
		}
		books, err := h.DB.ListBooks(r.Context(), userID, shelf)
		if err != nil {
			writeError(w, r, h.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, books)
	}
}

// GetBooks lists every book of the caller.
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	h.list(db.ShelfAll)(w, r)
}

func (h *BookHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	h.list(db.ShelfLibrary)(w, r)
}

func (h *BookHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	h.list(db.ShelfWishlist)(w, r)
}

// ListAllBooks lists books across all users when enabled in config.
func (h *BookHandler) ListAllBooks(w http.ResponseWriter, r *http.Request) {
	if !h.ExposeAllBooks {
		JSONError(w, "Not found", http.StatusNotFound)
		return
	}
	books, err := h.DB.ListAllBooks(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}
	book, err := h.DB.GetBook(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}
	if err := h.DB.DeleteBook(r.Context(), userID, id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w)
}

// AddToLibrary stores a confirmed catalog candidate for the caller.
func (h *BookHandler) AddToLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req addRequest
	if err := h.Validator.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		JSONError(w, "Cannot add books for another user", http.StatusForbidden)
		return
	}

	var candidate catalog.Book
	if bytes.Equal(bytes.TrimSpace(req.Book), []byte("null")) {
		writeError(w, r, h.Logger, &ValidationError{Message: "Validation failed", Fields: map[string]string{"book": "is required"}})
		return
	}
	if err := json.Unmarshal(req.Book, &candidate); err != nil {
		writeError(w, r, h.Logger, badRequest("Invalid book: %v", err))
		return
	}
	candidate.Title = strings.TrimSpace(candidate.Title)
	if err := h.Validator.Validate(candidate); err != nil {
		writeError(w, r, h.Logger, prefixFields(err, "book."))
		return
	}

	book := bookFromCandidate(userID, candidate, req.Owned, req.Read)
	if err := h.DB.InsertBook(r.Context(), book); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, ID: &book.ID})
}

// UpdateBook applies the edit form to one of the caller's books.
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := h.Validator.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	f := req.FormData
	err := h.DB.UpdateBook(r.Context(), userID, req.ID, model.BookUpdate{
		Title:  strings.TrimSpace(f.Title),
		Author: f.Author,
		Owned:  f.Owned,
		Read:   f.Read,
		Rating: f.Rating,
		Review: f.Review,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w)
}

func bookIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		JSONError(w, "Invalid book id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func prefixFields(err error, prefix string) error {
	verr, ok := err.(*ValidationError)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verr.Fields))
	for k, v := range verr.Fields {
		fields[prefix+k] = v
	}
	return &ValidationError{Message: verr.Message, Fields: fields}
}

func bookFromCandidate(userID string, c catalog.Book, owned, read bool) *model.Book {
	book := &model.Book{
		UserID:    userID,
		Title:     c.Title,
		Published: optional(string(c.DatePublished)),
		Synopsis:  optional(c.Synopsis),
		Image:     optional(c.Image),
		ISBN:      optional(c.ISBN),
		ISBN13:    optional(c.ISBN13),
		Owned:     owned,
		Read:      read,
	}
	if c.Authors != nil {
		book.Authors = model.StringList(c.Authors)
	}
	if c.Subjects != nil {
		book.Subjects = model.StringList(c.Subjects)
	}
	if c.Pages > 0 {
		pages := c.Pages
		book.Pages = &pages
	}
	return book
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
