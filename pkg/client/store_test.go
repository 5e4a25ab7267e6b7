package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context) ([]Book, error)

func (f fetcherFunc) Books(ctx context.Context) ([]Book, error) { return f(ctx) }

func countingFetcher(books []Book) (Fetcher, *int) {
	calls := 0
	return fetcherFunc(func(context.Context) ([]Book, error) {
		calls++
		return books, nil
	}), &calls
}

func TestBookStoreInstancesAreIsolated(t *testing.T) {
	a := NewBookStore(time.Minute)
	b := NewBookStore(time.Minute)

	a.SetBooks([]Book{{ID: 1, Title: "Only in A"}})
	assert.Len(t, a.Books(), 1)
	assert.Empty(t, b.Books())
	assert.True(t, b.Stale())
}

func TestBookStoreLoadCachesUntilStale(t *testing.T) {
	s := NewBookStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	fetch, calls := countingFetcher([]Book{{ID: 1, Title: "Dune"}})
	ctx := context.Background()

	books, err := s.Load(ctx, fetch)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 1, *calls)

	now = now.Add(30 * time.Second)
	_, err = s.Load(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls, "fresh cache is served")

	now = now.Add(31 * time.Second)
	assert.True(t, s.Stale())
	_, err = s.Load(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)

	s.Invalidate()
	_, err = s.Load(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestBookStoreNeverStaleWithoutWindow(t *testing.T) {
	s := NewBookStore(0)
	assert.True(t, s.Stale(), "never loaded")

	s.SetBooks(nil)
	assert.False(t, s.Stale())
}

func TestBookStoreFailedLoadKeepsCache(t *testing.T) {
	s := NewBookStore(time.Minute)
	s.SetBooks([]Book{{ID: 1, Title: "Kept"}})
	s.Invalidate()

	_, err := s.Load(context.Background(), fetcherFunc(func(context.Context) ([]Book, error) {
		return nil, errors.New("offline")
	}))
	assert.EqualError(t, err, "offline")
	assert.Equal(t, "Kept", s.Books()[0].Title)
	assert.True(t, s.Stale())
}

func TestBookStoreUpdateAndRemove(t *testing.T) {
	s := NewBookStore(time.Minute)
	s.SetBooks([]Book{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}})

	s.UpdateBook(Book{ID: 2, Title: "Two, read", Read: true})
	s.UpdateBook(Book{ID: 3, Title: "Three"})

	books := s.Books()
	require.Len(t, books, 3)
	assert.Equal(t, int64(3), books[0].ID, "new books go first")
	assert.Equal(t, "Two, read", books[2].Title)

	s.RemoveBook(1)
	s.RemoveBook(42)
	assert.Len(t, s.Books(), 2)
}

func TestBookStoreReturnsCopies(t *testing.T) {
	s := NewBookStore(time.Minute)
	input := []Book{{ID: 1, Title: "Original"}}
	s.SetBooks(input)

	input[0].Title = "Mutated input"
	out := s.Books()
	out[0].Title = "Mutated output"

	assert.Equal(t, "Original", s.Books()[0].Title)
}
