package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/model"
)

func TestMemoryDatabaseSharedAcrossPool(t *testing.T) {
	database, err := db.New(":memory:")
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	// Pin one connection so the next query has to open another.
	held, err := database.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	book := &model.Book{UserID: "u", Title: "Dune"}
	require.NoError(t, database.InsertBook(ctx, book))

	books, err := database.ListBooks(ctx, "u", db.ShelfAll)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	var count int
	require.NoError(t, held.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()

	first, err := db.New(":memory:")
	require.NoError(t, err)
	defer first.Close()
	second, err := db.New(":memory:")
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.InsertBook(ctx, &model.Book{UserID: "u", Title: "Dune"}))

	books, err := second.ListBooks(ctx, "u", db.ShelfAll)
	require.NoError(t, err)
	assert.Empty(t, books)
}
