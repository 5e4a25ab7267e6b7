package client

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Fetcher loads the full book list.
type Fetcher interface {
	Books(ctx context.Context) ([]Book, error)
}

// BookStore caches one user's book list. Each instance is independent;
// construct one per session and pass it where it is needed.
type BookStore struct {
	mu         sync.RWMutex
	books      []Book
	loadedAt   time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// NewBookStore returns an empty store whose contents go stale staleAfter
// after the last full load. staleAfter <= 0 means contents never go stale
// once loaded.
func NewBookStore(staleAfter time.Duration) *BookStore {
	return &BookStore{staleAfter: staleAfter, now: time.Now}
}

// SetBooks replaces the cached list.
func (s *BookStore) SetBooks(books []Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = slices.Clone(books)
	s.loadedAt = s.now()
}

// Books returns a copy of the cached list.
func (s *BookStore) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books)
}

// UpdateBook replaces the cached entry with the same id, or prepends b when
// it is not cached yet.
func (s *BookStore) UpdateBook(b Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.IndexFunc(s.books, func(e Book) bool { return e.ID == b.ID }); i >= 0 {
		s.books[i] = b
		return
	}
	s.books = slices.Insert(s.books, 0, b)
}

// RemoveBook drops the entry with id, if cached.
func (s *BookStore) RemoveBook(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = slices.DeleteFunc(s.books, func(e Book) bool { return e.ID == id })
}

// Stale reports whether the store was never loaded or its last load is older
// than the staleness window.
func (s *BookStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadedAt.IsZero() {
		return true
	}
	return s.staleAfter > 0 && s.now().Sub(s.loadedAt) >= s.staleAfter
}

// Invalidate forces the next Load to fetch.
func (s *BookStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedAt = time.Time{}
}

// Load returns the cached list, fetching it first when stale. A failed
// fetch leaves the cache untouched.
func (s *BookStore) Load(ctx context.Context, f Fetcher) ([]Book, error) {
	if !s.Stale() {
		return s.Books(), nil
	}

	books, err := f.Books(ctx)
	if err != nil {
		return nil, err
	}
	s.SetBooks(books)
	return s.Books(), nil
}
