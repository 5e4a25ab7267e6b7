package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/theLastOfCats/mylibrary-server/internal/model"
)

const userColumns = `user_id, email, theme, goal, wishlist_link, created_at`

// EnsureUser returns the user row for userID, creating it on first sight.
// wishlistLink is only used when the row is created. A non-empty email
// replaces the stored one.
func (db *DB) EnsureUser(ctx context.Context, userID, email, wishlistLink string) (*model.User, error) {
	var user model.User
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var insert string
		switch db.Dialect {
		case DialectMySQL:
			insert = `INSERT IGNORE INTO users (user_id, email, wishlist_link, created_at) VALUES (?, ?, ?, ?)`
		default:
			insert = `INSERT INTO users (user_id, email, wishlist_link, created_at) VALUES (?, ?, ?, ?)
				ON CONFLICT (user_id) DO NOTHING`
		}

		var emailArg any
		if email != "" {
			emailArg = email
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(insert), userID, emailArg, wishlistLink, db.nowMillis()); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		if email != "" {
			if _, err := tx.ExecContext(ctx,
				tx.Rebind(`UPDATE users SET email = ? WHERE user_id = ? AND (email IS NULL OR email <> ?)`),
				email, userID, email,
			); err != nil {
				return fmt.Errorf("update user email: %w", err)
			}
		}

		return tx.GetContext(ctx, &user, tx.Rebind(`SELECT `+userColumns+` FROM users WHERE user_id = ?`), userID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return db.getUserBy(ctx, "user_id", userID)
}

// GetUserByWishlistLink resolves the owner behind a public wishlist token.
func (db *DB) GetUserByWishlistLink(ctx context.Context, token string) (*model.User, error) {
	return db.getUserBy(ctx, "wishlist_link", token)
}

func (db *DB) getUserBy(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`
	err := db.GetContext(ctx, &user, db.Rebind(query), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateUserSettings overwrites the settings that are non-nil.
func (db *DB) UpdateUserSettings(ctx context.Context, userID string, theme *string, goal *int) (*model.User, error) {
	res, err := db.ExecContext(ctx,
		db.Rebind(`UPDATE users SET theme = COALESCE(?, theme), goal = COALESCE(?, goal) WHERE user_id = ?`),
		theme, goal, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user settings: %w", err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return db.GetUser(ctx, userID)
}
