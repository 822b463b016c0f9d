package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// merge folds the snapshot into the local store and returns how many local
// records changed. Must run inside a transaction.
func (c *Coordinator) merge(ctx context.Context, snap cloud.Snapshot) (int, error) {
	var total int

	n, err := c.mergeBookmarks(ctx, snap.Bookmarks)
	if err != nil {
		return 0, err
	}
	total += n

	n, err = c.mergeMemorization(ctx, snap.Memorization)
	if err != nil {
		return 0, err
	}
	total += n

	n, err = c.mergeReading(ctx, snap.ReadingProgress)
	if err != nil {
		return 0, err
	}
	total += n

	if snap.Settings != nil {
		n, err = c.mergeSettings(ctx, *snap.Settings)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// mergeBookmarks applies the remote bookmark set. Remote verses with no
// local bookmark land in the default collection. Clean local verses the
// remote no longer has were deleted elsewhere and are removed.
func (c *Coordinator) mergeBookmarks(ctx context.Context, remote []cloud.Bookmark) (int, error) {
	all, err := c.stores.Bookmarks.List(ctx, domain.BookmarkFilter{})
	if err != nil {
		return 0, fmt.Errorf("list bookmarks: %w", err)
	}
	pending, err := c.stores.Outbox.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending deletions: %w", err)
	}
	deleting := make(map[verse]bool, len(pending))
	for _, d := range pending {
		deleting[verse{d.ChapterID, d.VerseNumber}] = true
	}

	groups := make(map[verse]bookmarkGroup)
	for _, g := range groupBookmarks(all) {
		groups[g.key] = g
	}

	var (
		changed  int
		seen     = make(map[verse]bool, len(remote))
		fallback *domain.Collection
		nextSort int
	)
	for _, rb := range remote {
		k := verse{rb.SurahID, rb.AyahNumber}
		seen[k] = true
		incoming := bookmarkFromCloud(rb)

		if g, ok := groups[k]; ok {
			for _, local := range g.members {
				m := MergeBookmark(local, incoming)
				if !m.Changed {
					continue
				}
				if err := c.stores.Bookmarks.Put(ctx, m.Value); err != nil {
					return 0, fmt.Errorf("put bookmark: %w", err)
				}
				changed++
			}
			continue
		}
		if deleting[k] {
			continue
		}

		if fallback == nil {
			col, err := c.stores.Collections.EnsureDefaultCollection(ctx)
			if err != nil {
				return 0, err
			}
			fallback = &col
			nextSort = nextSortOrder(all, col.ID)
		}
		incoming.ID = uuid.NewString()
		incoming.CollectionID = fallback.ID
		incoming.SortOrder = nextSort
		incoming.Version = 1
		nextSort++
		if err := c.stores.Bookmarks.Put(ctx, incoming); err != nil {
			return 0, fmt.Errorf("put bookmark: %w", err)
		}
		changed++
	}

	for k, g := range groups {
		if seen[k] || g.dirty() {
			continue
		}
		for _, b := range g.members {
			if err := c.stores.Bookmarks.Delete(ctx, b.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return 0, fmt.Errorf("delete bookmark: %w", err)
			}
			changed++
		}
	}
	return changed, nil
}

func nextSortOrder(bookmarks []domain.Bookmark, collectionID string) int {
	next := 0
	for _, b := range bookmarks {
		if b.CollectionID == collectionID && b.SortOrder >= next {
			next = b.SortOrder + 1
		}
	}
	return next
}

// mergeMemorization merges chapter by chapter. Chapters the remote side
// does not know are left alone; their dirty verses go out next cycle.
func (c *Coordinator) mergeMemorization(ctx context.Context, remote []cloud.MemorizationItem) (int, error) {
	if len(remote) == 0 {
		return 0, nil
	}
	all, err := c.stores.Progress.List(ctx, domain.ProgressFilter{})
	if err != nil {
		return 0, fmt.Errorf("list progress: %w", err)
	}
	byChapter := make(map[int][]domain.MemorizationProgress)
	for _, p := range all {
		byChapter[p.ChapterID] = append(byChapter[p.ChapterID], p)
	}

	var changed int
	for _, item := range remote {
		verses := make([]domain.MemorizationProgress, 0, len(item.Verses))
		for _, v := range item.Verses {
			verses = append(verses, progressFromCloud(item.SurahID, v))
		}

		m := MergeChapter(byChapter[item.SurahID], verses, item.MemorizedAyahs, fromMillis(item.UpdatedAt))
		for _, p := range m.Put {
			if p.ID == "" {
				p.ID = uuid.NewString()
				p.Version = 1
				if p.CreatedAt.IsZero() {
					p.CreatedAt = p.UpdatedAt
				}
			}
			if err := c.stores.Progress.Put(ctx, p); err != nil {
				return 0, fmt.Errorf("put progress: %w", err)
			}
		}
		for _, id := range m.Delete {
			if err := c.stores.Progress.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return 0, fmt.Errorf("delete progress: %w", err)
			}
		}
		changed += m.Changed()
	}
	return changed, nil
}

// mergeReading merges the last position of each chapter. A clean local
// entry the remote side no longer has is removed.
func (c *Coordinator) mergeReading(ctx context.Context, remote []cloud.ReadingProgress) (int, error) {
	all, err := c.stores.Reading.List(ctx, domain.ReadingFilter{})
	if err != nil {
		return 0, fmt.Errorf("list reading: %w", err)
	}
	local := make(map[int]domain.ReadingHistoryEntry, len(all))
	for _, e := range all {
		local[e.ChapterID] = e
	}

	var changed int
	seen := make(map[int]bool, len(remote))
	for _, rp := range remote {
		seen[rp.SurahID] = true
		incoming := readingFromCloud(rp)

		l, ok := local[rp.SurahID]
		if !ok {
			incoming.ID = uuid.NewString()
			incoming.Version = 1
			if err := c.stores.Reading.Put(ctx, incoming); err != nil {
				return 0, fmt.Errorf("put reading: %w", err)
			}
			changed++
			continue
		}
		if m := MergeReading(l, incoming); m.Changed {
			if err := c.stores.Reading.Put(ctx, m.Value); err != nil {
				return 0, fmt.Errorf("put reading: %w", err)
			}
			changed++
		}
	}

	for chapter, e := range local {
		if seen[chapter] || e.Dirty {
			continue
		}
		if err := c.stores.Reading.Delete(ctx, e.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("delete reading: %w", err)
		}
		changed++
	}
	return changed, nil
}

func (c *Coordinator) mergeSettings(ctx context.Context, remote cloud.Settings) (int, error) {
	local, err := c.stores.Settings.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		local = domain.DefaultSettings()
	} else if err != nil {
		return 0, fmt.Errorf("get settings: %w", err)
	}

	m := MergeSettings(local, settingsFromCloud(remote))
	if !m.Changed {
		return 0, nil
	}
	if err := c.stores.Settings.Put(ctx, m.Value); err != nil {
		return 0, fmt.Errorf("put settings: %w", err)
	}
	return 1, nil
}
