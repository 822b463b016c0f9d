// Package outbox stores remote bookmark deletions that still have to be
// sent to the cloud.
package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides pending deletion persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new outbox repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const addSQL = `
INSERT INTO pending_deletions (id, chapter_id, verse_number, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (chapter_id, verse_number) DO NOTHING`

const listSQL = `SELECT id, chapter_id, verse_number, created_at FROM pending_deletions ORDER BY created_at, id`

// Add queues a delete of the verse's cloud bookmark. Adding the same verse
// twice keeps one row.
func (r *Repo) Add(ctx context.Context, chapterID, verseNumber int) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, addSQL,
		uuid.NewString(), chapterID, verseNumber, sqlite.Millis(r.now()),
	); err != nil {
		return sqlite.MapError(err, "pending_deletion", domain.VerseKey(chapterID, verseNumber))
	}
	return nil
}

// RemoveByVerse drops a queued delete, e.g. when the verse is bookmarked again.
func (r *Repo) RemoveByVerse(ctx context.Context, chapterID, verseNumber int) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx,
		`DELETE FROM pending_deletions WHERE chapter_id = ? AND verse_number = ?`, chapterID, verseNumber,
	); err != nil {
		return sqlite.MapError(err, "pending_deletion", domain.VerseKey(chapterID, verseNumber))
	}
	return nil
}

// Remove drops a queued delete by id after the cloud acknowledged it.
func (r *Repo) Remove(ctx context.Context, id string) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, `DELETE FROM pending_deletions WHERE id = ?`, id); err != nil {
		return sqlite.MapError(err, "pending_deletion", id)
	}
	return nil
}

// List returns queued deletes, oldest first.
func (r *Repo) List(ctx context.Context) ([]domain.PendingDeletion, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	rows, err := q.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list pending deletions: %w", sqlite.MapError(err, "pending_deletion", "*"))
	}
	defer rows.Close()

	result := []domain.PendingDeletion{}
	for rows.Next() {
		var (
			d         domain.PendingDeletion
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.ChapterID, &d.VerseNumber, &createdAt); err != nil {
			return nil, sqlite.MapError(err, "pending_deletion", "*")
		}
		d.CreatedAt = sqlite.FromMillis(createdAt)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "pending_deletion", "*")
	}
	return result, nil
}
