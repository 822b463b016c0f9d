// Package reading implements the ReadingHistory repository on the local
// SQLite store. The natural key is the chapter: one row per chapter.
package reading

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides reading history persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new reading history repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const table = "reading_history"

var columns = []string{
	"id", "chapter_id", "verse_number", "mode", "timestamp",
	"created_at", "updated_at", "dirty", "version",
}

const upsertSQL = `
INSERT INTO reading_history (id, chapter_id, verse_number, mode, timestamp, created_at, updated_at, dirty, version)
VALUES (?, ?, ?, ?, ?, ?, ?, 1, 1)
ON CONFLICT (chapter_id) DO UPDATE SET
    verse_number = excluded.verse_number,
    mode         = excluded.mode,
    timestamp    = excluded.timestamp,
    updated_at   = excluded.updated_at,
    dirty        = 1,
    version      = reading_history.version + 1`

const putSQL = `
INSERT INTO reading_history (id, chapter_id, verse_number, mode, timestamp, created_at, updated_at, dirty, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    chapter_id   = excluded.chapter_id,
    verse_number = excluded.verse_number,
    mode         = excluded.mode,
    timestamp    = excluded.timestamp,
    created_at   = excluded.created_at,
    updated_at   = excluded.updated_at,
    dirty        = excluded.dirty,
    version      = excluded.version`

const markCleanSQL = `UPDATE reading_history SET dirty = 0 WHERE id = ? AND version = ?`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert records the position for e.ChapterID, creating the row on first
// visit and updating it afterwards. Either way the row ends up dirty.
func (r *Repo) Upsert(ctx context.Context, e domain.ReadingHistoryEntry) (domain.ReadingHistoryEntry, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	now := sqlite.Millis(r.now())
	if _, err := q.ExecContext(ctx, upsertSQL,
		uuid.NewString(), e.ChapterID, e.VerseNumber, string(e.Mode), sqlite.Millis(e.Timestamp), now, now,
	); err != nil {
		return domain.ReadingHistoryEntry{}, sqlite.MapError(err, "reading", e.VerseKey())
	}

	return r.GetByChapter(ctx, e.ChapterID)
}

// Delete removes an entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, `DELETE FROM reading_history WHERE id = ?`, id)
	if err != nil {
		return sqlite.MapError(err, "reading", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reading %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Put writes e verbatim, inserting or replacing by id. Used by sync merge.
func (r *Repo) Put(ctx context.Context, e domain.ReadingHistoryEntry) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, putSQL,
		e.ID, e.ChapterID, e.VerseNumber, string(e.Mode), sqlite.Millis(e.Timestamp),
		sqlite.Millis(e.CreatedAt), sqlite.Millis(e.UpdatedAt), sqlite.BoolInt(e.Dirty), e.Version,
	); err != nil {
		return sqlite.MapError(err, "reading", e.ID)
	}
	return nil
}

// MarkClean clears the dirty flag if the row still has the given version.
func (r *Repo) MarkClean(ctx context.Context, id string, version int64) (bool, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, markCleanSQL, id, version)
	if err != nil {
		return false, sqlite.MapError(err, "reading", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an entry or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.ReadingHistoryEntry, error) {
	return r.getOne(ctx, sqlite.Builder().Select(columns...).From(table).Where(squirrel.Eq{"id": id}), id)
}

// GetByChapter returns the entry of a chapter or domain.ErrNotFound.
func (r *Repo) GetByChapter(ctx context.Context, chapterID int) (domain.ReadingHistoryEntry, error) {
	return r.getOne(ctx,
		sqlite.Builder().Select(columns...).From(table).Where(squirrel.Eq{"chapter_id": chapterID}),
		fmt.Sprintf("chapter=%d", chapterID))
}

// Latest returns the most recently visited position or domain.ErrNotFound.
func (r *Repo) Latest(ctx context.Context) (domain.ReadingHistoryEntry, error) {
	return r.getOne(ctx,
		sqlite.Builder().Select(columns...).From(table).OrderBy("timestamp DESC"),
		"latest")
}

func (r *Repo) getOne(ctx context.Context, sb squirrel.SelectBuilder, key string) (domain.ReadingHistoryEntry, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sb.Limit(1).ToSql()
	if err != nil {
		return domain.ReadingHistoryEntry{}, fmt.Errorf("build select reading: %w", err)
	}

	e, err := scanEntry(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.ReadingHistoryEntry{}, sqlite.MapError(err, "reading", key)
	}
	return e, nil
}

// List returns entries matching filter, most recent first.
func (r *Repo) List(ctx context.Context, filter domain.ReadingFilter) ([]domain.ReadingHistoryEntry, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	sb := sqlite.Builder().Select(columns...).From(table).OrderBy("timestamp DESC")
	if filter.From != nil {
		sb = sb.Where(squirrel.GtOrEq{"timestamp": sqlite.Millis(*filter.From)})
	}
	if filter.To != nil {
		sb = sb.Where(squirrel.Lt{"timestamp": sqlite.Millis(*filter.To)})
	}
	if filter.Dirty != nil {
		sb = sb.Where(squirrel.Eq{"dirty": sqlite.BoolInt(*filter.Dirty)})
	}
	if filter.Limit > 0 {
		sb = sb.Limit(uint64(filter.Limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reading: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "reading", "*")
	}
	defer rows.Close()

	result := []domain.ReadingHistoryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "reading", "*")
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "reading", "*")
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.ReadingHistoryEntry, error) {
	var (
		e                               domain.ReadingHistoryEntry
		mode                            string
		timestamp, createdAt, updatedAt int64
		dirty                           int
	)
	if err := s.Scan(&e.ID, &e.ChapterID, &e.VerseNumber, &mode, &timestamp,
		&createdAt, &updatedAt, &dirty, &e.Version); err != nil {
		return domain.ReadingHistoryEntry{}, err
	}
	e.Mode = domain.ReadingMode(mode)
	e.Timestamp = sqlite.FromMillis(timestamp)
	e.CreatedAt = sqlite.FromMillis(createdAt)
	e.UpdatedAt = sqlite.FromMillis(updatedAt)
	e.Dirty = dirty != 0
	return e, nil
}
