// Package bookmark implements the Bookmark repository on the local SQLite
// store. Every local write marks the row dirty and bumps its version so the
// sync coordinator can push it and later clear the flag optimistically.
package bookmark

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides bookmark persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new bookmark repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const table = "bookmarks"

var columns = []string{
	"id", "collection_id", "verse_key", "chapter_id", "verse_number", "note",
	"sort_order", "created_at", "updated_at", "dirty", "version",
}

const nextSortOrderSQL = `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM bookmarks WHERE collection_id = ?`

const putSQL = `
INSERT INTO bookmarks (id, collection_id, verse_key, chapter_id, verse_number, note,
                       sort_order, created_at, updated_at, dirty, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    collection_id = excluded.collection_id,
    verse_key     = excluded.verse_key,
    chapter_id    = excluded.chapter_id,
    verse_number  = excluded.verse_number,
    note          = excluded.note,
    sort_order    = excluded.sort_order,
    created_at    = excluded.created_at,
    updated_at    = excluded.updated_at,
    dirty         = excluded.dirty,
    version       = excluded.version`

const markCleanSQL = `UPDATE bookmarks SET dirty = 0 WHERE id = ? AND version = ?`

const countByVerseSQL = `SELECT COUNT(*) FROM bookmarks WHERE chapter_id = ? AND verse_number = ?`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts b as a new dirty record at the end of its collection.
func (r *Repo) Create(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := r.now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Dirty = true
	b.Version = 1

	if err := q.QueryRowContext(ctx, nextSortOrderSQL, b.CollectionID).Scan(&b.SortOrder); err != nil {
		return domain.Bookmark{}, sqlite.MapError(err, "bookmark", b.ID)
	}

	query, args, err := sqlite.Builder().
		Insert(table).
		Columns(columns...).
		Values(rowValues(b)...).
		ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("build insert bookmark: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return domain.Bookmark{}, sqlite.MapError(err, "bookmark", b.ID)
	}
	return b, nil
}

// Update applies patch, stamps updated_at, bumps version and marks dirty.
func (r *Repo) Update(ctx context.Context, id string, patch domain.BookmarkPatch) (domain.Bookmark, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	b := sqlite.Builder().
		Update(table).
		Set("updated_at", sqlite.Millis(r.now())).
		Set("version", squirrel.Expr("version + 1")).
		Set("dirty", 1).
		Where(squirrel.Eq{"id": id})
	switch {
	case patch.ClearNote:
		b = b.Set("note", nil)
	case patch.Note != nil:
		b = b.Set("note", *patch.Note)
	}
	if patch.SortOrder != nil {
		b = b.Set("sort_order", *patch.SortOrder)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("build update bookmark: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Bookmark{}, sqlite.MapError(err, "bookmark", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// SetSortOrders assigns sort_order = position within a collection. Sort
// order is local-only, so this does not mark rows dirty.
func (r *Repo) SetSortOrders(ctx context.Context, collectionID string, ids []string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	for pos, id := range ids {
		res, err := q.ExecContext(ctx,
			`UPDATE bookmarks SET sort_order = ? WHERE id = ? AND collection_id = ?`, pos, id, collectionID)
		if err != nil {
			return sqlite.MapError(err, "bookmark", id)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bookmark %s in collection %s: %w", id, collectionID, domain.ErrNotFound)
		}
	}
	return nil
}

// Delete removes a bookmark.
func (r *Repo) Delete(ctx context.Context, id string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return sqlite.MapError(err, "bookmark", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByCollection removes every bookmark of a collection and returns
// the removed rows.
func (r *Repo) DeleteByCollection(ctx context.Context, collectionID string) ([]domain.Bookmark, error) {
	removed, err := r.List(ctx, domain.BookmarkFilter{CollectionID: &collectionID})
	if err != nil {
		return nil, err
	}

	q := sqlite.QuerierFromCtx(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM bookmarks WHERE collection_id = ?`, collectionID); err != nil {
		return nil, sqlite.MapError(err, "bookmark", "collection="+collectionID)
	}
	return removed, nil
}

// Put writes b verbatim, inserting or replacing by id. Used by sync merge.
func (r *Repo) Put(ctx context.Context, b domain.Bookmark) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, putSQL, rowValues(b)...); err != nil {
		return sqlite.MapError(err, "bookmark", b.ID)
	}
	return nil
}

// MarkClean clears the dirty flag if the row still has the given version.
// Returns false when the row changed (or vanished) since it was read.
func (r *Repo) MarkClean(ctx context.Context, id string, version int64) (bool, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, markCleanSQL, id, version)
	if err != nil {
		return false, sqlite.MapError(err, "bookmark", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a bookmark or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Bookmark, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, id)
}

// GetByCollectionAndVerse returns the bookmark of a verse inside a collection.
func (r *Repo) GetByCollectionAndVerse(ctx context.Context, collectionID, verseKey string) (domain.Bookmark, error) {
	return r.getOne(ctx, squirrel.Eq{"collection_id": collectionID, "verse_key": verseKey}, collectionID+"/"+verseKey)
}

func (r *Repo) getOne(ctx context.Context, where squirrel.Eq, key string) (domain.Bookmark, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sqlite.Builder().
		Select(columns...).
		From(table).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("build select bookmark: %w", err)
	}

	b, err := scanBookmark(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Bookmark{}, sqlite.MapError(err, "bookmark", key)
	}
	return b, nil
}

// List returns bookmarks matching filter, ordered by sort_order.
func (r *Repo) List(ctx context.Context, filter domain.BookmarkFilter) ([]domain.Bookmark, error) {
	sb := sqlite.Builder().
		Select(columns...).
		From(table).
		OrderBy("sort_order", "created_at")

	if filter.CollectionID != nil {
		sb = sb.Where(squirrel.Eq{"collection_id": *filter.CollectionID})
	}
	if filter.VerseKey != nil {
		sb = sb.Where(squirrel.Eq{"verse_key": *filter.VerseKey})
	}
	if filter.ChapterID != nil {
		sb = sb.Where(squirrel.Eq{"chapter_id": *filter.ChapterID})
	}
	if filter.Dirty != nil {
		sb = sb.Where(squirrel.Eq{"dirty": sqlite.BoolInt(*filter.Dirty)})
	}

	return r.query(ctx, sb)
}

// ListByVerseKeys returns every bookmark of the given verses.
func (r *Repo) ListByVerseKeys(ctx context.Context, verseKeys []string) ([]domain.Bookmark, error) {
	if len(verseKeys) == 0 {
		return []domain.Bookmark{}, nil
	}

	sb := sqlite.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"verse_key": verseKeys}).
		OrderBy("verse_key", "sort_order")

	return r.query(ctx, sb)
}

// CountByVerse returns how many collections hold the verse.
func (r *Repo) CountByVerse(ctx context.Context, chapterID, verseNumber int) (int, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	var n int
	if err := q.QueryRowContext(ctx, countByVerseSQL, chapterID, verseNumber).Scan(&n); err != nil {
		return 0, sqlite.MapError(err, "bookmark", domain.VerseKey(chapterID, verseNumber))
	}
	return n, nil
}

func (r *Repo) query(ctx context.Context, sb squirrel.SelectBuilder) ([]domain.Bookmark, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookmarks: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "bookmark", "*")
	}
	defer rows.Close()

	result := []domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, sqlite.MapError(err, "bookmark", "*")
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "bookmark", "*")
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(s scanner) (domain.Bookmark, error) {
	var (
		b                    domain.Bookmark
		note                 sql.NullString
		createdAt, updatedAt int64
		dirty                int
	)
	if err := s.Scan(&b.ID, &b.CollectionID, &b.VerseKey, &b.ChapterID, &b.VerseNumber, &note,
		&b.SortOrder, &createdAt, &updatedAt, &dirty, &b.Version); err != nil {
		return domain.Bookmark{}, err
	}
	b.Note = sqlite.FromNullString(note)
	b.CreatedAt = sqlite.FromMillis(createdAt)
	b.UpdatedAt = sqlite.FromMillis(updatedAt)
	b.Dirty = dirty != 0
	return b, nil
}

func rowValues(b domain.Bookmark) []any {
	return []any{
		b.ID, b.CollectionID, b.VerseKey, b.ChapterID, b.VerseNumber, sqlite.NullString(b.Note),
		b.SortOrder, sqlite.Millis(b.CreatedAt), sqlite.Millis(b.UpdatedAt), sqlite.BoolInt(b.Dirty), b.Version,
	}
}
