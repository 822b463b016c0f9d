// Package reviewlog stores one row per verse review. It is local-only and
// feeds the streak and calendar views.
package reviewlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides review log persistence.
type Repo struct {
	db *sql.DB
}

// New creates a new review log repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

const insertSQL = `INSERT INTO review_log (id, verse_key, confidence, quality, reviewed_at) VALUES (?, ?, ?, ?, ?)`

const byPeriodSQL = `
SELECT id, verse_key, confidence, quality, reviewed_at
FROM review_log
WHERE reviewed_at >= ? AND reviewed_at < ?
ORDER BY reviewed_at DESC`

const sinceSQL = `SELECT reviewed_at FROM review_log WHERE reviewed_at >= ? ORDER BY reviewed_at DESC`

// Create appends a review entry.
func (r *Repo) Create(ctx context.Context, e domain.ReviewLogEntry) (domain.ReviewLogEntry, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, err := q.ExecContext(ctx, insertSQL,
		e.ID, e.VerseKey, string(e.Confidence), e.Quality, sqlite.Millis(e.ReviewedAt),
	); err != nil {
		return domain.ReviewLogEntry{}, sqlite.MapError(err, "review_log", e.VerseKey)
	}
	return e, nil
}

// GetByPeriod returns entries with from <= reviewed_at < to, newest first.
func (r *Repo) GetByPeriod(ctx context.Context, from, to time.Time) ([]domain.ReviewLogEntry, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	rows, err := q.QueryContext(ctx, byPeriodSQL, sqlite.Millis(from), sqlite.Millis(to))
	if err != nil {
		return nil, sqlite.MapError(err, "review_log", "*")
	}
	defer rows.Close()

	result := []domain.ReviewLogEntry{}
	for rows.Next() {
		var (
			e          domain.ReviewLogEntry
			confidence string
			reviewedAt int64
		)
		if err := rows.Scan(&e.ID, &e.VerseKey, &confidence, &e.Quality, &reviewedAt); err != nil {
			return nil, sqlite.MapError(err, "review_log", "*")
		}
		e.Confidence = domain.Confidence(confidence)
		e.ReviewedAt = sqlite.FromMillis(reviewedAt)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "review_log", "*")
	}
	return result, nil
}

// ReviewTimesSince returns review timestamps at or after since, newest first.
func (r *Repo) ReviewTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	rows, err := q.QueryContext(ctx, sinceSQL, sqlite.Millis(since))
	if err != nil {
		return nil, fmt.Errorf("review times since: %w", sqlite.MapError(err, "review_log", "*"))
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, sqlite.MapError(err, "review_log", "*")
		}
		result = append(result, sqlite.FromMillis(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "review_log", "*")
	}
	return result, nil
}
