package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/theLastOfCats/mylibrary-server/internal/catalog"
)

// Catalog is the external book catalog as the handlers use it.
type Catalog interface {
	LookupByISBN(ctx context.Context, isbn string) (*catalog.Book, error)
	SearchByTitleAuthor(ctx context.Context, title, author string) ([]catalog.Book, error)
	Stats(ctx context.Context) (json.RawMessage, error)
}

type CatalogHandler struct {
	Catalog   Catalog
	Validator *Validator
	Logger    *slog.Logger
}

type searchRequest struct {
	Title  string `json:"title" validate:"max=256"`
	Author string `json:"author" validate:"max=256"`
}

type lookupResponse struct {
	Book *catalog.Book `json:"book"`
}

type searchResponse struct {
	Total int            `json:"total"`
	Data  []catalog.Book `json:"data"`
}

// GetBook looks up one ISBN. The body is the bare ISBN, optionally sent as a
// JSON string.
func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 256))
	if err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	isbn := strings.TrimSpace(string(raw))
	if strings.HasPrefix(isbn, `"`) {
		var s string
		if err := json.Unmarshal([]byte(isbn), &s); err != nil {
			JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		isbn = strings.TrimSpace(s)
	}

	book, err := h.Catalog.LookupByISBN(r.Context(), isbn)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Book: book})
}

// SearchBooks searches the catalog and collapses duplicate editions.
func (h *CatalogHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := h.Validator.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	candidates, err := h.Catalog.SearchByTitleAuthor(r.Context(), req.Title, req.Author)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	books := catalog.Dedupe(candidates)
	writeJSON(w, http.StatusOK, searchResponse{Total: len(books), Data: books})
}

func (h *CatalogHandler) CatalogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Catalog.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stats)
}
