package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/model"
	"github.com/theLastOfCats/mylibrary-server/internal/testutil"
)

func insertBook(t *testing.T, database *db.DB, userID, title string, owned, read bool) *model.Book {
	t.Helper()

	book := &model.Book{
		UserID:  userID,
		Title:   title,
		Authors: model.StringList{"J.R.R. Tolkien"},
		Owned:   owned,
		Read:    read,
	}
	require.NoError(t, database.InsertBook(context.Background(), book))
	require.NotZero(t, book.ID)
	return book
}

func edit(b *model.Book, read bool) model.BookUpdate {
	return model.BookUpdate{Title: b.Title, Author: b.Authors.First(), Owned: b.Owned, Read: read}
}

func TestInsertAndGetBook(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	pages := 310
	isbn13 := "9780261102217"
	book := &model.Book{
		UserID:   "user-1",
		Title:    "The Hobbit",
		Authors:  model.StringList{"J.R.R. Tolkien"},
		Subjects: model.StringList{"Fantasy", "Dragons"},
		Pages:    &pages,
		ISBN13:   &isbn13,
		Owned:    true,
	}
	require.NoError(t, database.InsertBook(ctx, book))

	got, err := database.GetBook(ctx, "user-1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", got.Title)
	assert.Equal(t, model.StringList{"J.R.R. Tolkien"}, got.Authors)
	assert.Equal(t, model.StringList{"Fantasy", "Dragons"}, got.Subjects)
	assert.Equal(t, 310, *got.Pages)
	assert.Equal(t, isbn13, *got.ISBN13)
	assert.True(t, got.Owned)
	assert.False(t, got.Read)
	assert.Nil(t, got.ReadAt)
	assert.Nil(t, got.ReservedBy)
	assert.Nil(t, got.UpdatedAt)
	assert.NotZero(t, got.CreatedAt)

	_, err = database.GetBook(ctx, "someone-else", book.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestInsertReadBookStampsReadAt(t *testing.T) {
	database := testutil.SetupTestDB(t)
	now := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	testutil.SetNow(database, now)

	book := insertBook(t, database, "user-1", "Dune", true, true)

	got, err := database.GetBook(context.Background(), "user-1", book.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, now.UnixMilli(), *got.ReadAt)
}

func TestNilAuthorsStoredAsNull(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	book := &model.Book{UserID: "user-1", Title: "Anonymous"}
	require.NoError(t, database.InsertBook(ctx, book))

	var raw *string
	require.NoError(t, database.Get(&raw, "SELECT authors FROM books WHERE id = ?", book.ID))
	assert.Nil(t, raw)

	got, err := database.GetBook(ctx, "user-1", book.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Authors)
}

func TestUpdateBookReadTransitions(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)
	t2 := t1.Add(24 * time.Hour)

	t.Run("unread to read stamps now", func(t *testing.T) {
		database := testutil.SetupTestDB(t)
		testutil.SetNow(database, t0)
		book := insertBook(t, database, "u", "Emma", true, false)

		testutil.SetNow(database, t1)
		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))

		got, err := database.GetBook(ctx, "u", book.ID)
		require.NoError(t, err)
		assert.True(t, got.Read)
		require.NotNil(t, got.ReadAt)
		assert.Equal(t, t1.UnixMilli(), *got.ReadAt)
		require.NotNil(t, got.UpdatedAt)
		assert.Equal(t, t1.UnixMilli(), *got.UpdatedAt)
	})

	t.Run("read to read keeps the stamp", func(t *testing.T) {
		database := testutil.SetupTestDB(t)
		testutil.SetNow(database, t0)
		book := insertBook(t, database, "u", "Emma", true, false)

		testutil.SetNow(database, t1)
		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))
		testutil.SetNow(database, t2)
		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))

		got, err := database.GetBook(ctx, "u", book.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReadAt)
		assert.Equal(t, t1.UnixMilli(), *got.ReadAt)
		assert.Equal(t, t2.UnixMilli(), *got.UpdatedAt)
	})

	t.Run("read to unread keeps the stamp", func(t *testing.T) {
		database := testutil.SetupTestDB(t)
		testutil.SetNow(database, t0)
		book := insertBook(t, database, "u", "Emma", true, false)

		testutil.SetNow(database, t1)
		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))
		testutil.SetNow(database, t2)
		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, false)))

		got, err := database.GetBook(ctx, "u", book.ID)
		require.NoError(t, err)
		assert.False(t, got.Read)
		require.NotNil(t, got.ReadAt)
		assert.Equal(t, t1.UnixMilli(), *got.ReadAt)
	})

	t.Run("unread to unread leaves it null", func(t *testing.T) {
		database := testutil.SetupTestDB(t)
		book := insertBook(t, database, "u", "Emma", true, false)

		require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, false)))

		got, err := database.GetBook(ctx, "u", book.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ReadAt)
	})
}

// A client that loaded the book before someone else marked it read still
// sends read=true; the first stamp must survive.
func TestUpdateBookStaleClientKeepsFirstStamp(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	testutil.SetNow(database, t0)
	book := insertBook(t, database, "u", "Persuasion", false, false)
	stale := *book

	testutil.SetNow(database, t0.Add(time.Hour))
	require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))

	testutil.SetNow(database, t0.Add(2*time.Hour))
	require.NoError(t, database.UpdateBook(ctx, "u", stale.ID, edit(&stale, true)))

	got, err := database.GetBook(ctx, "u", book.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour).UnixMilli(), *got.ReadAt)
}

func TestUpdateBookConcurrentReadStampsOnce(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	book := insertBook(t, database, "u", "Middlemarch", true, false)

	var clock sync.Mutex
	tick := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	database.Now = func() time.Time {
		clock.Lock()
		defer clock.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- database.UpdateBook(ctx, "u", book.ID, edit(book, true))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	first, err := database.GetBook(ctx, "u", book.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	require.NoError(t, database.UpdateBook(ctx, "u", book.ID, edit(book, true)))
	again, err := database.GetBook(ctx, "u", book.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.ReadAt, *again.ReadAt)
}

func TestUpdateBookOverwritesFields(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	book := insertBook(t, database, "u", "Old Title", false, false)

	rating := 4
	review := "Lovely"
	require.NoError(t, database.UpdateBook(ctx, "u", book.ID, model.BookUpdate{
		Title:  "New Title",
		Author: "  Jane Austen ",
		Owned:  true,
		Rating: &rating,
		Review: &review,
	}))

	got, err := database.GetBook(ctx, "u", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, model.StringList{"Jane Austen"}, got.Authors)
	assert.True(t, got.Owned)
	assert.Equal(t, 4, *got.Rating)
	assert.Equal(t, "Lovely", *got.Review)

	require.NoError(t, database.UpdateBook(ctx, "u", book.ID, model.BookUpdate{Title: "New Title"}))
	got, err = database.GetBook(ctx, "u", book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{}, got.Authors)
	assert.Nil(t, got.Rating)
	assert.Nil(t, got.Review)
}

func TestUpdateBookNotFound(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	book := insertBook(t, database, "owner", "Mine", true, false)

	err := database.UpdateBook(ctx, "intruder", book.ID, model.BookUpdate{Title: "Theirs"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	err = database.UpdateBook(ctx, "owner", book.ID+100, model.BookUpdate{Title: "Ghost"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	got, err := database.GetBook(ctx, "owner", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
}

func TestListBooksByShelf(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	testutil.SetNow(database, base)
	insertBook(t, database, "u", "Owned Early", true, false)
	testutil.SetNow(database, base.Add(time.Minute))
	insertBook(t, database, "u", "Wanted", false, false)
	testutil.SetNow(database, base.Add(2*time.Minute))
	insertBook(t, database, "u", "Owned Late", true, true)
	insertBook(t, database, "other", "Not Mine", true, false)

	titles := func(books []model.Book) []string {
		out := make([]string, 0, len(books))
		for _, b := range books {
			out = append(out, b.Title)
		}
		return out
	}

	all, err := database.ListBooks(ctx, "u", db.ShelfAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"Owned Late", "Wanted", "Owned Early"}, titles(all))

	library, err := database.ListBooks(ctx, "u", db.ShelfLibrary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Owned Late", "Owned Early"}, titles(library))

	wishlist, err := database.ListBooks(ctx, "u", db.ShelfWishlist)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wanted"}, titles(wishlist))

	empty, err := database.ListBooks(ctx, "nobody", db.ShelfAll)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	everything, err := database.ListAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}

func TestDeleteBook(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	book := insertBook(t, database, "u", "Gone", true, false)

	assert.ErrorIs(t, database.DeleteBook(ctx, "other", book.ID), db.ErrNotFound)
	require.NoError(t, database.DeleteBook(ctx, "u", book.ID))
	assert.ErrorIs(t, database.DeleteBook(ctx, "u", book.ID), db.ErrNotFound)

	_, err := database.GetBook(ctx, "u", book.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestReserveBookOnce(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	wanted := insertBook(t, database, "owner", "Wanted", false, false)
	owned := insertBook(t, database, "owner", "Owned", true, false)

	require.NoError(t, database.ReserveBook(ctx, "owner", wanted.ID, "Alice"))
	assert.ErrorIs(t, database.ReserveBook(ctx, "owner", wanted.ID, "Bob"), db.ErrAlreadyReserved)

	got, err := database.GetBook(ctx, "owner", wanted.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReservedBy)
	assert.Equal(t, "Alice", *got.ReservedBy)

	assert.ErrorIs(t, database.ReserveBook(ctx, "owner", owned.ID, "Alice"), db.ErrNotFound)
	assert.ErrorIs(t, database.ReserveBook(ctx, "other", wanted.ID, "Alice"), db.ErrNotFound)
	assert.ErrorIs(t, database.ReserveBook(ctx, "owner", wanted.ID+100, "Alice"), db.ErrNotFound)
}

func TestReserveBookConcurrentSingleWinner(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	wanted := insertBook(t, database, "owner", "Wanted", false, false)

	const callers = 6
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- database.ReserveBook(ctx, "owner", wanted.ID, string(rune('A'+i)))
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, db.ErrAlreadyReserved)
	}
	assert.Equal(t, 1, wins)
}
