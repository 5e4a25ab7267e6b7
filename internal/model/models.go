package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type User struct {
	UserID       string  `json:"user_id" db:"user_id"`
	Email        *string `json:"email,omitempty" db:"email"`
	Theme        *string `json:"theme" db:"theme"`
	Goal         *int    `json:"goal" db:"goal"`
	WishlistLink string  `json:"wishlist_link" db:"wishlist_link"`
	CreatedAt    int64   `json:"created_at" db:"created_at"`
}

// Book is one copy owned, wishlisted or read by a single user.
// Timestamps are Unix milliseconds.
type Book struct {
	ID         int64      `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Authors    StringList `json:"authors" db:"authors"`
	Pages      *int       `json:"pages" db:"pages"`
	Published  *string    `json:"published" db:"published"`
	Synopsis   *string    `json:"synopsis" db:"synopsis"`
	Subjects   StringList `json:"subjects" db:"subjects"`
	Image      *string    `json:"image" db:"image"`
	ISBN       *string    `json:"isbn" db:"isbn"`
	ISBN13     *string    `json:"isbn13" db:"isbn13"`
	Owned      bool       `json:"owned" db:"is_owned"`
	Read       bool       `json:"read" db:"is_read"`
	Rating     *int       `json:"rating" db:"rating"`
	Review     *string    `json:"review" db:"review"`
	ReadAt     *int64     `json:"read_at" db:"read_at"`
	ReservedBy *string    `json:"reserved_by" db:"reserved_by"`
	CreatedAt  int64      `json:"created_at" db:"created_at"`
	UpdatedAt  *int64     `json:"updated_at" db:"updated_at"`
}

// BookUpdate carries the fields of the edit form. Authors collapse to a
// single name, everything else overwrites the stored value.
type BookUpdate struct {
	Title  string
	Author string
	Owned  bool
	Read   bool
	Rating *int
	Review *string
}

// WishlistBook is the public projection of a Book shown on a shared wishlist.
type WishlistBook struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Authors    StringList `json:"authors"`
	Image      *string    `json:"image"`
	Read       bool       `json:"read"`
	ReservedBy *string    `json:"reserved_by"`
}

func NewWishlistBook(b Book) WishlistBook {
	return WishlistBook{
		ID:         b.ID,
		Title:      b.Title,
		Authors:    b.Authors,
		Image:      b.Image,
		Read:       b.Read,
		ReservedBy: b.ReservedBy,
	}
}

type WishlistOwner struct {
	Theme *string `json:"theme"`
}

type SharedWishlist struct {
	Owner WishlistOwner  `json:"owner"`
	Books []WishlistBook `json:"books"`
}

type Stats struct {
	TotalBooks int `json:"totalBooks" db:"total_books"`
	ReadBooks  int `json:"readBooks" db:"read_books"`
}

type MonthCount struct {
	Month string `json:"month"`
	Books int    `json:"books"`
}

// StringList is an ordered list of strings stored as a JSON text column.
// A nil list is stored as NULL.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan StringList: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan StringList: %w", err)
	}
	*l = out
	return nil
}

// First returns the first entry or "".
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
