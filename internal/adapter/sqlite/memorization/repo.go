// Package memorization implements the MemorizationProgress repository on the
// local SQLite store.
package memorization

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides memorization progress persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new memorization repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const table = "memorization_progress"

var columns = []string{
	"id", "verse_key", "chapter_id", "verse_number", "confidence",
	"last_reviewed_at", "next_review_at", "review_count", "ease_factor", "interval_days", "streak",
	"created_at", "updated_at", "dirty", "version",
}

const putSQL = `
INSERT INTO memorization_progress (id, verse_key, chapter_id, verse_number, confidence,
                                   last_reviewed_at, next_review_at, review_count, ease_factor, interval_days, streak,
                                   created_at, updated_at, dirty, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    verse_key        = excluded.verse_key,
    chapter_id       = excluded.chapter_id,
    verse_number     = excluded.verse_number,
    confidence       = excluded.confidence,
    last_reviewed_at = excluded.last_reviewed_at,
    next_review_at   = excluded.next_review_at,
    review_count     = excluded.review_count,
    ease_factor      = excluded.ease_factor,
    interval_days    = excluded.interval_days,
    streak           = excluded.streak,
    created_at       = excluded.created_at,
    updated_at       = excluded.updated_at,
    dirty            = excluded.dirty,
    version          = excluded.version`

const countDueSQL = `SELECT COUNT(*) FROM memorization_progress WHERE next_review_at IS NOT NULL AND next_review_at <= ?`

const markCleanSQL = `UPDATE memorization_progress SET dirty = 0 WHERE id = ? AND version = ?`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts p as a new dirty record.
func (r *Repo) Create(ctx context.Context, p domain.MemorizationProgress) (domain.MemorizationProgress, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Dirty = true
	p.Version = 1

	query, args, err := sqlite.Builder().
		Insert(table).
		Columns(columns...).
		Values(rowValues(p)...).
		ToSql()
	if err != nil {
		return domain.MemorizationProgress{}, fmt.Errorf("build insert progress: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return domain.MemorizationProgress{}, sqlite.MapError(err, "memorization", p.VerseKey)
	}
	return p, nil
}

// ApplyReview writes the scheduler output, stamps updated_at, bumps version
// and marks dirty.
func (r *Repo) ApplyReview(ctx context.Context, id string, u domain.ReviewUpdate) (domain.MemorizationProgress, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Update(table).
		SetMap(map[string]any{
			"confidence":       string(u.Confidence),
			"last_reviewed_at": sqlite.Millis(u.LastReviewedAt),
			"next_review_at":   sqlite.Millis(u.NextReviewAt),
			"review_count":     u.ReviewCount,
			"ease_factor":      u.EaseFactor,
			"interval_days":    u.Interval,
			"streak":           u.Streak,
			"updated_at":       sqlite.Millis(r.now()),
			"version":          squirrel.Expr("version + 1"),
			"dirty":            1,
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.MemorizationProgress{}, fmt.Errorf("build update progress: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.MemorizationProgress{}, sqlite.MapError(err, "memorization", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.MemorizationProgress{}, fmt.Errorf("memorization %s: %w", id, domain.ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a progress record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, `DELETE FROM memorization_progress WHERE id = ?`, id)
	if err != nil {
		return sqlite.MapError(err, "memorization", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memorization %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Put writes p verbatim, inserting or replacing by id. Used by sync merge.
func (r *Repo) Put(ctx context.Context, p domain.MemorizationProgress) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, putSQL, rowValues(p)...); err != nil {
		return sqlite.MapError(err, "memorization", p.VerseKey)
	}
	return nil
}

// MarkClean clears the dirty flag if the row still has the given version.
func (r *Repo) MarkClean(ctx context.Context, id string, version int64) (bool, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, markCleanSQL, id, version)
	if err != nil {
		return false, sqlite.MapError(err, "memorization", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a progress record or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.MemorizationProgress, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, id)
}

// GetByVerseKey returns the progress of a verse or domain.ErrNotFound.
func (r *Repo) GetByVerseKey(ctx context.Context, verseKey string) (domain.MemorizationProgress, error) {
	return r.getOne(ctx, squirrel.Eq{"verse_key": verseKey}, verseKey)
}

func (r *Repo) getOne(ctx context.Context, where squirrel.Eq, key string) (domain.MemorizationProgress, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Select(columns...).
		From(table).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.MemorizationProgress{}, fmt.Errorf("build select progress: %w", err)
	}

	p, err := scanProgress(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.MemorizationProgress{}, sqlite.MapError(err, "memorization", key)
	}
	return p, nil
}

// List returns records matching filter. With DueBefore set the result is
// ordered by next_review_at ascending; otherwise by chapter and verse.
func (r *Repo) List(ctx context.Context, filter domain.ProgressFilter) ([]domain.MemorizationProgress, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	sb := sqlite.Builder().Select(columns...).From(table)

	if filter.ChapterID != nil {
		sb = sb.Where(squirrel.Eq{"chapter_id": *filter.ChapterID})
	}
	if filter.DueBefore != nil {
		sb = sb.Where(squirrel.And{
			squirrel.NotEq{"next_review_at": nil},
			squirrel.LtOrEq{"next_review_at": sqlite.Millis(*filter.DueBefore)},
		}).OrderBy("next_review_at ASC", "verse_key")
	} else {
		sb = sb.OrderBy("chapter_id", "verse_number")
	}
	if filter.ReviewedFrom != nil {
		sb = sb.Where(squirrel.GtOrEq{"last_reviewed_at": sqlite.Millis(*filter.ReviewedFrom)})
	}
	if filter.ReviewedTo != nil {
		sb = sb.Where(squirrel.Lt{"last_reviewed_at": sqlite.Millis(*filter.ReviewedTo)})
	}
	if filter.Dirty != nil {
		sb = sb.Where(squirrel.Eq{"dirty": sqlite.BoolInt(*filter.Dirty)})
	}
	if filter.Limit > 0 {
		sb = sb.Limit(uint64(filter.Limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list progress: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "memorization", "*")
	}
	defer rows.Close()

	result := []domain.MemorizationProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "memorization", "*")
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "memorization", "*")
	}
	return result, nil
}

// ListByVerseKeys returns the progress of the given verses. Missing verses
// are simply absent from the result.
func (r *Repo) ListByVerseKeys(ctx context.Context, verseKeys []string) ([]domain.MemorizationProgress, error) {
	if len(verseKeys) == 0 {
		return []domain.MemorizationProgress{}, nil
	}

	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"verse_key": verseKeys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list progress by keys: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "memorization", "*")
	}
	defer rows.Close()

	result := []domain.MemorizationProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "memorization", "*")
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "memorization", "*")
	}
	return result, nil
}

// CountDue returns how many records have next_review_at <= now.
func (r *Repo) CountDue(ctx context.Context, now time.Time) (int, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	var n int
	if err := q.QueryRowContext(ctx, countDueSQL, sqlite.Millis(now)).Scan(&n); err != nil {
		return 0, sqlite.MapError(err, "memorization", "*")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(s scanner) (domain.MemorizationProgress, error) {
	var (
		p                            domain.MemorizationProgress
		confidence                   string
		lastReviewedAt, nextReviewAt sql.NullInt64
		createdAt, updatedAt         int64
		dirty                        int
	)
	if err := s.Scan(&p.ID, &p.VerseKey, &p.ChapterID, &p.VerseNumber, &confidence,
		&lastReviewedAt, &nextReviewAt, &p.ReviewCount, &p.EaseFactor, &p.Interval, &p.Streak,
		&createdAt, &updatedAt, &dirty, &p.Version); err != nil {
		return domain.MemorizationProgress{}, err
	}
	p.Confidence = domain.Confidence(confidence)
	p.LastReviewedAt = sqlite.FromNullMillis(lastReviewedAt)
	p.NextReviewAt = sqlite.FromNullMillis(nextReviewAt)
	p.CreatedAt = sqlite.FromMillis(createdAt)
	p.UpdatedAt = sqlite.FromMillis(updatedAt)
	p.Dirty = dirty != 0
	return p, nil
}

func rowValues(p domain.MemorizationProgress) []any {
	return []any{
		p.ID, p.VerseKey, p.ChapterID, p.VerseNumber, string(p.Confidence),
		sqlite.NullMillis(p.LastReviewedAt), sqlite.NullMillis(p.NextReviewAt),
		p.ReviewCount, p.EaseFactor, p.Interval, p.Streak,
		sqlite.Millis(p.CreatedAt), sqlite.Millis(p.UpdatedAt), sqlite.BoolInt(p.Dirty), p.Version,
	}
}
