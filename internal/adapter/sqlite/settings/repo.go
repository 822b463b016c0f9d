// Package settings implements the single-row Settings repository on the
// local SQLite store.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/heartmarshall/tilawah/internal/adapter/sqlite"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Repo provides settings persistence.
type Repo struct {
	db  *sql.DB
	now sqlite.Clock
}

// New creates a new settings repository.
func New(db *sql.DB, now sqlite.Clock) *Repo {
	if now == nil {
		now = sqlite.SystemClock
	}
	return &Repo{db: db, now: now}
}

const selectSQL = `
SELECT arabic_font_size, translation_font_size, reciter_id, playback_speed,
       daily_goal_verses, daily_goal_minutes, theme, language, timezone, translation_id,
       updated_at, dirty, version
FROM settings WHERE id = 1`

const putSQL = `
INSERT INTO settings (id, arabic_font_size, translation_font_size, reciter_id, playback_speed,
                      daily_goal_verses, daily_goal_minutes, theme, language, timezone, translation_id,
                      updated_at, dirty, version)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    arabic_font_size      = excluded.arabic_font_size,
    translation_font_size = excluded.translation_font_size,
    reciter_id            = excluded.reciter_id,
    playback_speed        = excluded.playback_speed,
    daily_goal_verses     = excluded.daily_goal_verses,
    daily_goal_minutes    = excluded.daily_goal_minutes,
    theme                 = excluded.theme,
    language              = excluded.language,
    timezone              = excluded.timezone,
    translation_id        = excluded.translation_id,
    updated_at            = excluded.updated_at,
    dirty                 = excluded.dirty,
    version               = excluded.version`

const markCleanSQL = `UPDATE settings SET dirty = 0 WHERE id = 1 AND version = ?`

// Get returns the stored settings or domain.ErrNotFound when the user
// never changed anything.
func (r *Repo) Get(ctx context.Context) (domain.Settings, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	var (
		s         domain.Settings
		theme     string
		updatedAt int64
		dirty     int
	)
	err := q.QueryRowContext(ctx, selectSQL).Scan(
		&s.ArabicFontSize, &s.TranslationFontSize, &s.ReciterID, &s.PlaybackSpeed,
		&s.DailyGoalVerses, &s.DailyGoalMinutes, &theme, &s.Language, &s.Timezone, &s.TranslationID,
		&updatedAt, &dirty, &s.Version,
	)
	if err != nil {
		return domain.Settings{}, sqlite.MapError(err, "settings", "1")
	}
	s.Theme = domain.Theme(theme)
	s.UpdatedAt = sqlite.FromMillis(updatedAt)
	s.Dirty = dirty != 0
	return s, nil
}

// Update applies patch on top of the stored (or default) settings, stamps
// updated_at, bumps version and marks dirty.
func (r *Repo) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	current, err := r.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		current = domain.DefaultSettings()
	} else if err != nil {
		return domain.Settings{}, err
	}

	next := patch.Apply(current)
	next.UpdatedAt = r.now()
	next.Dirty = true
	next.Version = current.Version + 1

	if err := r.Put(ctx, next); err != nil {
		return domain.Settings{}, err
	}
	return next, nil
}

// Put writes s verbatim. Used by Update and by sync merge.
func (r *Repo) Put(ctx context.Context, s domain.Settings) error {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	if _, err := q.ExecContext(ctx, putSQL,
		s.ArabicFontSize, s.TranslationFontSize, s.ReciterID, s.PlaybackSpeed,
		s.DailyGoalVerses, s.DailyGoalMinutes, string(s.Theme), s.Language, s.Timezone, s.TranslationID,
		sqlite.Millis(s.UpdatedAt), sqlite.BoolInt(s.Dirty), s.Version,
	); err != nil {
		return sqlite.MapError(err, "settings", "1")
	}
	return nil
}

// MarkClean clears the dirty flag if the row still has the given version.
func (r *Repo) MarkClean(ctx context.Context, version int64) (bool, error) {
	q := sqlite.QuerierFromCtx(ctx, r.db)

	res, err := q.ExecContext(ctx, markCleanSQL, version)
	if err != nil {
		return false, fmt.Errorf("mark settings clean: %w", sqlite.MapError(err, "settings", "1"))
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
