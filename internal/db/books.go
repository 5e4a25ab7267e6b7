package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/theLastOfCats/mylibrary-server/internal/model"
)

const bookColumns = `id, user_id, title, authors, pages, published, synopsis, subjects, image, isbn, isbn13,
	is_owned, is_read, rating, review, read_at, reserved_by, created_at, updated_at`

// Shelf narrows a book listing by ownership.
type Shelf int

const (
	ShelfAll      Shelf = iota
	ShelfLibrary        // owned books
	ShelfWishlist       // books not owned yet
)

func (db *DB) ListBooks(ctx context.Context, userID string, shelf Shelf) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = ?`
	switch shelf {
	case ShelfLibrary:
		query += ` AND is_owned`
	case ShelfWishlist:
		query += ` AND NOT is_owned`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	books := []model.Book{}
	if err := db.SelectContext(ctx, &books, db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListAllBooks returns every stored book regardless of owner.
func (db *DB) ListAllBooks(ctx context.Context) ([]model.Book, error) {
	books := []model.Book{}
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id`
	if err := db.SelectContext(ctx, &books, query); err != nil {
		return nil, fmt.Errorf("list all books: %w", err)
	}
	return books, nil
}

func (db *DB) GetBook(ctx context.Context, userID string, id int64) (*model.Book, error) {
	var book model.Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ? AND user_id = ?`
	err := db.GetContext(ctx, &book, db.Rebind(query), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// InsertBook stores b and fills in its ID and audit fields. A book added as
// already read gets its read_at stamp here.
func (db *DB) InsertBook(ctx context.Context, b *model.Book) error {
	now := db.nowMillis()
	b.CreatedAt = now
	b.UpdatedAt = nil
	b.ReadAt = nil
	if b.Read {
		b.ReadAt = &now
	}

	query := `INSERT INTO books (user_id, title, authors, pages, published, synopsis, subjects, image, isbn, isbn13,
		is_owned, is_read, rating, review, read_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		b.UserID, b.Title, b.Authors, b.Pages, b.Published, b.Synopsis, b.Subjects, b.Image, b.ISBN, b.ISBN13,
		b.Owned, b.Read, b.Rating, b.Review, b.ReadAt, b.CreatedAt,
	}

	if db.Dialect == DialectPostgres {
		if err := db.QueryRowxContext(ctx, db.Rebind(query+` RETURNING id`), args...).Scan(&b.ID); err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		return nil
	}

	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID = id
	return nil
}

// UpdateBook applies an edit in one statement. read_at is stamped only when
// the stored row flips from unread to read; the comparison runs against the
// persisted is_read, not the caller's view of it. The read_at assignment must
// stay ahead of is_read because MySQL evaluates SET left to right.
func (db *DB) UpdateBook(ctx context.Context, userID string, id int64, u model.BookUpdate) error {
	now := db.nowMillis()

	authors := model.StringList{}
	if author := strings.TrimSpace(u.Author); author != "" {
		authors = model.StringList{author}
	}

	query := `UPDATE books SET
		read_at = CASE WHEN NOT is_read AND ? THEN ? ELSE read_at END,
		title = ?, authors = ?, is_owned = ?, is_read = ?, rating = ?, review = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`

	res, err := db.ExecContext(ctx, db.Rebind(query),
		u.Read, now,
		u.Title, authors, u.Owned, u.Read, u.Rating, u.Review, now,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return expectRow(res)
}

func (db *DB) DeleteBook(ctx context.Context, userID string, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM books WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return expectRow(res)
}

// ReserveBook records name against a wishlist book of ownerID. Only the
// first reservation succeeds; the reserved_by IS NULL guard makes the check
// and the write a single statement.
func (db *DB) ReserveBook(ctx context.Context, ownerID string, id int64, name string) error {
	query := `UPDATE books SET reserved_by = ?, updated_at = ?
	WHERE id = ? AND user_id = ? AND NOT is_owned AND reserved_by IS NULL`
	res, err := db.ExecContext(ctx, db.Rebind(query), name, db.nowMillis(), id, ownerID)
	if err != nil {
		return fmt.Errorf("reserve book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve book: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: tell a missing book apart from a taken one.
	var reservedBy sql.NullString
	err = db.QueryRowxContext(ctx,
		db.Rebind(`SELECT reserved_by FROM books WHERE id = ? AND user_id = ? AND NOT is_owned`),
		id, ownerID,
	).Scan(&reservedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reserve book: %w", err)
	}
	return ErrAlreadyReserved
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
