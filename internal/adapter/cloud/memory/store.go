// Package memory is an in-process cloud store with the same last-writer-wins
// rules as the Postgres backend. It backs tests and the CLI loopback mode.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
)

type verseRef struct {
	surah int
	ayah  int
}

type chapterState struct {
	memorized []int
	updatedAt int64
	verses    map[int]cloud.VerseProgress
}

type userState struct {
	bookmarks map[verseRef]cloud.Bookmark
	chapters  map[int]*chapterState
	reading   map[int]cloud.ReadingProgress
	settings  *cloud.Settings
}

// Store holds every user's cloud state in memory.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userState
}

// New returns an empty store.
func New() *Store {
	return &Store{users: make(map[string]*userState)}
}

func (s *Store) user(userID string) *userState {
	u, ok := s.users[userID]
	if !ok {
		u = &userState{
			bookmarks: make(map[verseRef]cloud.Bookmark),
			chapters:  make(map[int]*chapterState),
			reading:   make(map[int]cloud.ReadingProgress),
		}
		s.users[userID] = u
	}
	return u
}

// UpsertBookmarks stores each bookmark unless a newer one is already held.
func (s *Store) UpsertBookmarks(_ context.Context, userID string, bookmarks []cloud.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, b := range bookmarks {
		key := verseRef{b.SurahID, b.AyahNumber}
		if cur, ok := u.bookmarks[key]; ok && cur.UpdatedAt > b.UpdatedAt {
			continue
		}
		u.bookmarks[key] = b
	}
	return nil
}

// DeleteBookmark removes the bookmark for a verse. Missing rows are ignored.
func (s *Store) DeleteBookmark(_ context.Context, userID string, surahID, ayahNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.user(userID).bookmarks, verseRef{surahID, ayahNumber})
	return nil
}

// UpsertMemorization merges chapter aggregates: each verse is LWW on its
// own UpdatedAt, the memorized list is LWW on the item's UpdatedAt.
func (s *Store) UpsertMemorization(_ context.Context, userID string, items []cloud.MemorizationItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, item := range items {
		ch, ok := u.chapters[item.SurahID]
		if !ok {
			ch = &chapterState{verses: make(map[int]cloud.VerseProgress)}
			u.chapters[item.SurahID] = ch
		}
		if item.UpdatedAt >= ch.updatedAt {
			ch.memorized = slices.Clone(item.MemorizedAyahs)
			ch.updatedAt = item.UpdatedAt
		}
		for _, v := range item.Verses {
			if cur, ok := ch.verses[v.AyahNumber]; ok && cur.UpdatedAt > v.UpdatedAt {
				continue
			}
			ch.verses[v.AyahNumber] = cloneVerse(v)
		}
	}
	return nil
}

// UpsertReadingProgress keeps the latest position per chapter.
func (s *Store) UpsertReadingProgress(_ context.Context, userID string, progress []cloud.ReadingProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, p := range progress {
		if cur, ok := u.reading[p.SurahID]; ok && cur.Timestamp > p.Timestamp {
			continue
		}
		u.reading[p.SurahID] = p
	}
	return nil
}

// UpsertSettings replaces settings unless the stored copy is newer.
func (s *Store) UpsertSettings(_ context.Context, userID string, settings cloud.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	if u.settings != nil && u.settings.UpdatedAt > settings.UpdatedAt {
		return nil
	}
	u.settings = &settings
	return nil
}

// Snapshot returns a deep copy of the user's state, ordered by surah and ayah.
// An unknown user gets an empty snapshot.
func (s *Store) Snapshot(_ context.Context, userID string) (cloud.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := cloud.Snapshot{
		Bookmarks:       []cloud.Bookmark{},
		Memorization:    []cloud.MemorizationItem{},
		ReadingProgress: []cloud.ReadingProgress{},
	}
	u, ok := s.users[userID]
	if !ok {
		return snap, nil
	}

	for _, b := range u.bookmarks {
		snap.Bookmarks = append(snap.Bookmarks, b)
	}
	slices.SortFunc(snap.Bookmarks, func(a, b cloud.Bookmark) int {
		if a.SurahID != b.SurahID {
			return a.SurahID - b.SurahID
		}
		return a.AyahNumber - b.AyahNumber
	})

	for surah, ch := range u.chapters {
		item := cloud.MemorizationItem{
			SurahID:        surah,
			MemorizedAyahs: slices.Clone(ch.memorized),
			Verses:         make([]cloud.VerseProgress, 0, len(ch.verses)),
			UpdatedAt:      ch.updatedAt,
		}
		if item.MemorizedAyahs == nil {
			item.MemorizedAyahs = []int{}
		}
		for _, v := range ch.verses {
			item.Verses = append(item.Verses, cloneVerse(v))
		}
		slices.SortFunc(item.Verses, func(a, b cloud.VerseProgress) int { return a.AyahNumber - b.AyahNumber })
		snap.Memorization = append(snap.Memorization, item)
	}
	slices.SortFunc(snap.Memorization, func(a, b cloud.MemorizationItem) int { return a.SurahID - b.SurahID })

	for _, p := range u.reading {
		snap.ReadingProgress = append(snap.ReadingProgress, p)
	}
	slices.SortFunc(snap.ReadingProgress, func(a, b cloud.ReadingProgress) int { return a.SurahID - b.SurahID })

	if u.settings != nil {
		settings := *u.settings
		snap.Settings = &settings
	}
	return snap, nil
}

func cloneVerse(v cloud.VerseProgress) cloud.VerseProgress {
	if v.LastReviewedAt != nil {
		t := *v.LastReviewedAt
		v.LastReviewedAt = &t
	}
	if v.NextReviewAt != nil {
		t := *v.NextReviewAt
		v.NextReviewAt = &t
	}
	return v
}
