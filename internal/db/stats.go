package db

import (
	"context"
	"fmt"
	"time"

	"github.com/theLastOfCats/mylibrary-server/internal/model"
)

func (db *DB) Stats(ctx context.Context, userID string) (model.Stats, error) {
	var stats model.Stats
	query := `SELECT COUNT(*) AS total_books,
		COALESCE(SUM(CASE WHEN is_read THEN 1 ELSE 0 END), 0) AS read_books
	FROM books WHERE user_id = ?`
	if err := db.GetContext(ctx, &stats, db.Rebind(query), userID); err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// ReadPerMonth counts books finished in each month of year, January first.
// Months are taken in UTC. Every month is present, zero or not.
func (db *DB) ReadPerMonth(ctx context.Context, userID string, year int) ([]model.MonthCount, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var stamps []int64
	query := `SELECT read_at FROM books
	WHERE user_id = ? AND is_read AND read_at IS NOT NULL AND read_at >= ? AND read_at < ?`
	if err := db.SelectContext(ctx, &stamps, db.Rebind(query), userID, from.UnixMilli(), to.UnixMilli()); err != nil {
		return nil, fmt.Errorf("read per month: %w", err)
	}

	var counts [12]int
	for _, ms := range stamps {
		counts[time.UnixMilli(ms).UTC().Month()-1]++
	}

	out := make([]model.MonthCount, 0, len(counts))
	for i, n := range counts {
		out = append(out, model.MonthCount{Month: time.Month(i + 1).String(), Books: n})
	}
	return out, nil
}
