// Package cloudsync implements the backend side of the sync RPC surface:
// input validation, last-writer-wins storage and snapshot assembly.
package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/memo"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

// Store persists per-user cloud state. Every upsert is last-writer-wins on
// UpdatedAt (Timestamp for reading progress); ties go to the incoming write.
type Store interface {
	UpsertBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error
	DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error
	UpsertMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error
	UpsertReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error
	UpsertSettings(ctx context.Context, userID string, settings cloud.Settings) error
	Snapshot(ctx context.Context, userID string) (cloud.Snapshot, error)
}

type snapshotCache interface {
	Get(ctx context.Context, userID string) (cloud.Snapshot, bool, error)
	Set(ctx context.Context, userID string, snap cloud.Snapshot) error
	Invalidate(ctx context.Context, userID string) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements cloud.Adapter on top of a Store.
type Service struct {
	store     Store
	cache     snapshotCache
	snapshots *memo.Group[cloud.Snapshot]
	log       *slog.Logger

	// fillMu guards gens and makes the generation check and cache write of
	// a fill atomic with respect to invalidate.
	fillMu sync.Mutex
	gens   map[string]uint64
}

var _ cloud.Adapter = (*Service)(nil)

// NewService creates a new cloudsync service. cache may be nil.
func NewService(log *slog.Logger, store Store, cache snapshotCache) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		snapshots: memo.New[cloud.Snapshot](0),
		log:       log.With("service", "cloudsync"),
		gens:      make(map[string]uint64),
	}
}

// PushBookmarks implements cloud.Adapter.
func (s *Service) PushBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	for i, b := range bookmarks {
		if err := validateVerse(fmt.Sprintf("bookmarks[%d]", i), b.SurahID, b.AyahNumber); err != nil {
			return err
		}
	}
	if len(bookmarks) == 0 {
		return nil
	}

	if err := s.store.UpsertBookmarks(ctx, userID, bookmarks); err != nil {
		return fmt.Errorf("upsert bookmarks: %w", err)
	}
	s.invalidate(ctx, userID)

	s.log.InfoContext(ctx, "bookmarks pushed",
		slog.String("user_id", userID),
		slog.Int("count", len(bookmarks)),
	)
	return nil
}

// DeleteBookmark implements cloud.Adapter. Deleting an absent bookmark
// succeeds.
func (s *Service) DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	if err := validateVerse("bookmark", surahID, ayahNumber); err != nil {
		return err
	}

	if err := s.store.DeleteBookmark(ctx, userID, surahID, ayahNumber); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// PushMemorization implements cloud.Adapter.
func (s *Service) PushMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if err := domain.ValidateChapter(item.SurahID); err != nil {
			return domain.NewValidationError(field+".surahId", "unknown chapter")
		}
		for _, a := range item.MemorizedAyahs {
			if err := domain.ValidateVerse(item.SurahID, a); err != nil {
				return domain.NewValidationError(field+".memorizedAyahs", "verse out of range")
			}
		}
		for j, v := range item.Verses {
			vf := fmt.Sprintf("%s.verses[%d]", field, j)
			if err := domain.ValidateVerse(item.SurahID, v.AyahNumber); err != nil {
				return domain.NewValidationError(vf+".ayahNumber", "verse out of range")
			}
			if !domain.Confidence(v.Confidence).IsValid() {
				return domain.NewValidationError(vf+".confidence", "unknown confidence")
			}
		}
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.store.UpsertMemorization(ctx, userID, items); err != nil {
		return fmt.Errorf("upsert memorization: %w", err)
	}
	s.invalidate(ctx, userID)

	s.log.InfoContext(ctx, "memorization pushed",
		slog.String("user_id", userID),
		slog.Int("chapters", len(items)),
	)
	return nil
}

// PushReadingProgress implements cloud.Adapter.
func (s *Service) PushReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	for i, p := range progress {
		field := fmt.Sprintf("progress[%d]", i)
		if err := validateVerse(field, p.SurahID, p.AyahNumber); err != nil {
			return err
		}
		if !domain.ReadingMode(p.ReadingMode).IsValid() {
			return domain.NewValidationError(field+".readingMode", "unknown reading mode")
		}
	}
	if len(progress) == 0 {
		return nil
	}

	if err := s.store.UpsertReadingProgress(ctx, userID, progress); err != nil {
		return fmt.Errorf("upsert reading progress: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// PushSettings implements cloud.Adapter.
func (s *Service) PushSettings(ctx context.Context, userID string, settings cloud.Settings) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	if !domain.Theme(settings.Theme).IsValid() {
		return domain.NewValidationError("theme", "unknown theme")
	}
	if settings.UpdatedAt <= 0 {
		return domain.NewValidationError("updatedAt", "required")
	}

	if err := s.store.UpsertSettings(ctx, userID, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// FetchSnapshot implements cloud.Adapter. Concurrent fetches for one user
// share a single store read; a configured cache is consulted first.
func (s *Service) FetchSnapshot(ctx context.Context, userID string) (cloud.Snapshot, error) {
	if err := validateUser(userID); err != nil {
		return cloud.Snapshot{}, err
	}

	snap, _, err := s.snapshots.Do(ctx, userID, func(ctx context.Context) (cloud.Snapshot, error) {
		gen := s.generation(userID)
		if s.cache != nil {
			cached, ok, err := s.cache.Get(ctx, userID)
			if err != nil {
				s.log.WarnContext(ctx, "snapshot cache read failed",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			} else if ok {
				return cached, nil
			}
		}

		start := time.Now()
		snap, err := s.store.Snapshot(ctx, userID)
		if err != nil {
			return cloud.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
		}

		s.fill(ctx, userID, gen, snap)

		s.log.DebugContext(ctx, "snapshot loaded",
			slog.String("user_id", userID),
			slog.Int("bookmarks", len(snap.Bookmarks)),
			slog.Int("chapters", len(snap.Memorization)),
			slog.Duration("took", time.Since(start)),
		)
		return snap, nil
	})
	return snap, err
}

func (s *Service) generation(userID string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gens[userID]
}

// fill caches snap unless a write for userID landed after the load began.
func (s *Service) fill(ctx context.Context, userID string, gen uint64, snap cloud.Snapshot) {
	if s.cache == nil {
		return
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	if s.gens[userID] != gen {
		s.log.DebugContext(ctx, "stale snapshot not cached", slog.String("user_id", userID))
		return
	}
	if err := s.cache.Set(ctx, userID, snap); err != nil {
		s.log.WarnContext(ctx, "snapshot cache write failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// invalidate must run after the store write it covers.
func (s *Service) invalidate(ctx context.Context, userID string) {
	s.fillMu.Lock()
	s.gens[userID]++
	s.fillMu.Unlock()

	s.snapshots.Forget(userID)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "snapshot cache invalidate failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

func validateUser(userID string) error {
	if userID == "" {
		return domain.NewValidationError("user_id", "required")
	}
	return nil
}

func validateVerse(field string, surahID, ayahNumber int) error {
	if err := domain.ValidateVerse(surahID, ayahNumber); err != nil {
		return domain.NewValidationError(field, fmt.Sprintf("%d:%d is not a verse", surahID, ayahNumber))
	}
	return nil
}
