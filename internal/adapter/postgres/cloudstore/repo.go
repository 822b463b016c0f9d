// Package cloudstore persists per-user sync state for the cloud backend.
// Every upsert is last-writer-wins on the row's timestamp; ties go to the
// incoming write.
package cloudstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/tilawah/internal/adapter/postgres"
	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
)

// Repo provides cloud state persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new cloud store repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const upsertBookmarkSQL = `
INSERT INTO cloud_bookmarks (user_id, surah_id, ayah_number, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, surah_id, ayah_number) DO UPDATE
SET note = excluded.note, created_at = excluded.created_at, updated_at = excluded.updated_at
WHERE excluded.updated_at >= cloud_bookmarks.updated_at`

const deleteBookmarkSQL = `
DELETE FROM cloud_bookmarks WHERE user_id = $1 AND surah_id = $2 AND ayah_number = $3`

const upsertVerseSQL = `
INSERT INTO cloud_memorization (user_id, surah_id, ayah_number, confidence, ease_factor,
    interval_days, streak, review_count, last_reviewed_at, next_review_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id, surah_id, ayah_number) DO UPDATE
SET confidence = excluded.confidence,
    ease_factor = excluded.ease_factor,
    interval_days = excluded.interval_days,
    streak = excluded.streak,
    review_count = excluded.review_count,
    last_reviewed_at = excluded.last_reviewed_at,
    next_review_at = excluded.next_review_at,
    updated_at = excluded.updated_at
WHERE excluded.updated_at >= cloud_memorization.updated_at`

const upsertMemorizedSQL = `
INSERT INTO cloud_memorized_ayahs (user_id, surah_id, ayahs, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, surah_id) DO UPDATE
SET ayahs = excluded.ayahs, updated_at = excluded.updated_at
WHERE excluded.updated_at >= cloud_memorized_ayahs.updated_at`

const upsertReadingSQL = `
INSERT INTO cloud_reading_progress (user_id, surah_id, ayah_number, reading_mode, ts)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, surah_id) DO UPDATE
SET ayah_number = excluded.ayah_number, reading_mode = excluded.reading_mode, ts = excluded.ts
WHERE excluded.ts >= cloud_reading_progress.ts`

const upsertSettingsSQL = `
INSERT INTO cloud_settings (user_id, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET payload = excluded.payload, updated_at = excluded.updated_at
WHERE excluded.updated_at >= cloud_settings.updated_at`

const selectBookmarksSQL = `
SELECT surah_id, ayah_number, coalesce(note, ''), created_at, updated_at
FROM cloud_bookmarks WHERE user_id = $1
ORDER BY surah_id, ayah_number`

const selectVersesSQL = `
SELECT surah_id, ayah_number, confidence, ease_factor, interval_days, streak,
    review_count, last_reviewed_at, next_review_at, updated_at
FROM cloud_memorization WHERE user_id = $1
ORDER BY surah_id, ayah_number`

const selectMemorizedSQL = `
SELECT surah_id, ayahs, updated_at
FROM cloud_memorized_ayahs WHERE user_id = $1
ORDER BY surah_id`

const selectReadingSQL = `
SELECT surah_id, ayah_number, reading_mode, ts
FROM cloud_reading_progress WHERE user_id = $1
ORDER BY surah_id`

const selectSettingsSQL = `SELECT payload FROM cloud_settings WHERE user_id = $1`

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// UpsertBookmarks stores each bookmark unless a newer one is already held.
func (r *Repo) UpsertBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range bookmarks {
		var note *string
		if b.Note != "" {
			note = &b.Note
		}
		batch.Queue(upsertBookmarkSQL, userID, b.SurahID, b.AyahNumber, note, b.CreatedAt, b.UpdatedAt)
	}

	if err := r.sendBatchExec(ctx, batch); err != nil {
		return postgres.MapError(err, "bookmarks", userID)
	}
	return nil
}

// DeleteBookmark removes the bookmark for a verse. Missing rows are ignored.
func (r *Repo) DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := q.Exec(ctx, deleteBookmarkSQL, userID, surahID, ayahNumber); err != nil {
		return postgres.MapError(err, "bookmark", fmt.Sprintf("%s/%d:%d", userID, surahID, ayahNumber))
	}
	return nil
}

// UpsertMemorization merges chapter aggregates in one transaction: verses are
// LWW per row, the memorized list is LWW on the item's UpdatedAt.
func (r *Repo) UpsertMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		ayahs := item.MemorizedAyahs
		if ayahs == nil {
			ayahs = []int{}
		}
		batch.Queue(upsertMemorizedSQL, userID, item.SurahID, ayahs, item.UpdatedAt)
		for _, v := range item.Verses {
			batch.Queue(upsertVerseSQL,
				userID, item.SurahID, v.AyahNumber, v.Confidence, v.EaseFactor,
				v.Interval, v.Streak, v.ReviewCount, v.LastReviewedAt, v.NextReviewAt, v.UpdatedAt,
			)
		}
	}

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		return r.sendBatchExec(ctx, batch)
	})
	if err != nil {
		return postgres.MapError(err, "memorization", userID)
	}
	return nil
}

// UpsertReadingProgress keeps the latest position per chapter.
func (r *Repo) UpsertReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error {
	if len(progress) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range progress {
		batch.Queue(upsertReadingSQL, userID, p.SurahID, p.AyahNumber, p.ReadingMode, p.Timestamp)
	}

	if err := r.sendBatchExec(ctx, batch); err != nil {
		return postgres.MapError(err, "reading progress", userID)
	}
	return nil
}

// UpsertSettings replaces settings unless the stored copy is newer.
func (r *Repo) UpsertSettings(ctx context.Context, userID string, settings cloud.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := q.Exec(ctx, upsertSettingsSQL, userID, payload, settings.UpdatedAt); err != nil {
		return postgres.MapError(err, "settings", userID)
	}
	return nil
}

func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Snapshot reads the user's full state in one repeatable-read transaction.
// An unknown user gets an empty snapshot.
func (r *Repo) Snapshot(ctx context.Context, userID string) (cloud.Snapshot, error) {
	snap := cloud.Snapshot{
		Bookmarks:       []cloud.Bookmark{},
		Memorization:    []cloud.MemorizationItem{},
		ReadingProgress: []cloud.ReadingProgress{},
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return snap, postgres.MapError(err, "snapshot", userID)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if snap.Bookmarks, err = scanBookmarks(ctx, tx, userID); err != nil {
		return snap, postgres.MapError(err, "snapshot bookmarks", userID)
	}
	if snap.Memorization, err = scanMemorization(ctx, tx, userID); err != nil {
		return snap, postgres.MapError(err, "snapshot memorization", userID)
	}
	if snap.ReadingProgress, err = scanReading(ctx, tx, userID); err != nil {
		return snap, postgres.MapError(err, "snapshot reading", userID)
	}

	var payload []byte
	err = tx.QueryRow(ctx, selectSettingsSQL, userID).Scan(&payload)
	switch {
	case err == nil:
		var s cloud.Settings
		if err := json.Unmarshal(payload, &s); err != nil {
			return snap, fmt.Errorf("unmarshal settings: %w", err)
		}
		snap.Settings = &s
	case !errors.Is(err, pgx.ErrNoRows):
		return snap, postgres.MapError(err, "snapshot settings", userID)
	}

	return snap, nil
}

func scanBookmarks(ctx context.Context, q postgres.Querier, userID string) ([]cloud.Bookmark, error) {
	rows, err := q.Query(ctx, selectBookmarksSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []cloud.Bookmark{}
	for rows.Next() {
		var b cloud.Bookmark
		if err := rows.Scan(&b.SurahID, &b.AyahNumber, &b.Note, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanMemorization(ctx context.Context, q postgres.Querier, userID string) ([]cloud.MemorizationItem, error) {
	bySurah := make(map[int]*cloud.MemorizationItem)
	item := func(surah int) *cloud.MemorizationItem {
		it, ok := bySurah[surah]
		if !ok {
			it = &cloud.MemorizationItem{SurahID: surah, MemorizedAyahs: []int{}, Verses: []cloud.VerseProgress{}}
			bySurah[surah] = it
		}
		return it
	}

	rows, err := q.Query(ctx, selectMemorizedSQL, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			surah     int
			ayahs     []int32
			updatedAt int64
		)
		if err := rows.Scan(&surah, &ayahs, &updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		it := item(surah)
		for _, a := range ayahs {
			it.MemorizedAyahs = append(it.MemorizedAyahs, int(a))
		}
		it.UpdatedAt = updatedAt
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, selectVersesSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			surah int
			v     cloud.VerseProgress
		)
		if err := rows.Scan(&surah, &v.AyahNumber, &v.Confidence, &v.EaseFactor, &v.Interval,
			&v.Streak, &v.ReviewCount, &v.LastReviewedAt, &v.NextReviewAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		it := item(surah)
		it.Verses = append(it.Verses, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]cloud.MemorizationItem, 0, len(bySurah))
	for _, it := range bySurah {
		out = append(out, *it)
	}
	slices.SortFunc(out, func(a, b cloud.MemorizationItem) int { return a.SurahID - b.SurahID })
	return out, nil
}

func scanReading(ctx context.Context, q postgres.Querier, userID string) ([]cloud.ReadingProgress, error) {
	rows, err := q.Query(ctx, selectReadingSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []cloud.ReadingProgress{}
	for rows.Next() {
		var p cloud.ReadingProgress
		if err := rows.Scan(&p.SurahID, &p.AyahNumber, &p.ReadingMode, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
