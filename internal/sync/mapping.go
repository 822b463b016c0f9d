package sync

import (
	"cmp"
	"slices"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func toNullMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromNullMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}

// verse identifies a bookmark on the cloud side.
type verse struct {
	chapter, number int
}

// bookmarkGroup is every local bookmark of one verse across collections.
type bookmarkGroup struct {
	key     verse
	members []domain.Bookmark
}

func (g bookmarkGroup) newest() domain.Bookmark {
	best := g.members[0]
	for _, b := range g.members[1:] {
		if b.UpdatedAt.After(best.UpdatedAt) {
			best = b
		}
	}
	return best
}

func (g bookmarkGroup) dirty() bool {
	return slices.ContainsFunc(g.members, func(b domain.Bookmark) bool { return b.Dirty })
}

// groupBookmarks groups bookmarks by verse, ordered by chapter and verse.
func groupBookmarks(bookmarks []domain.Bookmark) []bookmarkGroup {
	idx := make(map[verse]int)
	var groups []bookmarkGroup
	for _, b := range bookmarks {
		k := verse{b.ChapterID, b.VerseNumber}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, bookmarkGroup{key: k})
		}
		groups[i].members = append(groups[i].members, b)
	}
	slices.SortFunc(groups, func(a, b bookmarkGroup) int {
		return cmp.Or(cmp.Compare(a.key.chapter, b.key.chapter), cmp.Compare(a.key.number, b.key.number))
	})
	return groups
}

// bookmarkToCloud collapses a verse group into the single cloud bookmark:
// the newest note, the earliest creation and the latest update.
func bookmarkToCloud(g bookmarkGroup) cloud.Bookmark {
	newest := g.newest()
	created := g.members[0].CreatedAt
	for _, b := range g.members[1:] {
		if b.CreatedAt.Before(created) {
			created = b.CreatedAt
		}
	}
	out := cloud.Bookmark{
		SurahID:    g.key.chapter,
		AyahNumber: g.key.number,
		CreatedAt:  toMillis(created),
		UpdatedAt:  toMillis(newest.UpdatedAt),
	}
	if newest.Note != nil {
		out.Note = *newest.Note
	}
	return out
}

func bookmarkFromCloud(b cloud.Bookmark) domain.Bookmark {
	out := domain.Bookmark{
		VerseKey:    domain.VerseKey(b.SurahID, b.AyahNumber),
		ChapterID:   b.SurahID,
		VerseNumber: b.AyahNumber,
		CreatedAt:   fromMillis(b.CreatedAt),
		UpdatedAt:   fromMillis(b.UpdatedAt),
	}
	if b.Note != "" {
		note := b.Note
		out.Note = &note
	}
	return out
}

func progressToCloud(p domain.MemorizationProgress) cloud.VerseProgress {
	return cloud.VerseProgress{
		AyahNumber:     p.VerseNumber,
		Confidence:     string(p.Confidence),
		LastReviewedAt: toNullMillis(p.LastReviewedAt),
		NextReviewAt:   toNullMillis(p.NextReviewAt),
		ReviewCount:    p.ReviewCount,
		EaseFactor:     p.EaseFactor,
		Interval:       p.Interval,
		Streak:         p.Streak,
		UpdatedAt:      toMillis(p.UpdatedAt),
	}
}

func progressFromCloud(chapterID int, v cloud.VerseProgress) domain.MemorizationProgress {
	return domain.MemorizationProgress{
		VerseKey:       domain.VerseKey(chapterID, v.AyahNumber),
		ChapterID:      chapterID,
		VerseNumber:    v.AyahNumber,
		Confidence:     domain.Confidence(v.Confidence),
		LastReviewedAt: fromNullMillis(v.LastReviewedAt),
		NextReviewAt:   fromNullMillis(v.NextReviewAt),
		ReviewCount:    v.ReviewCount,
		EaseFactor:     v.EaseFactor,
		Interval:       v.Interval,
		Streak:         v.Streak,
		UpdatedAt:      fromMillis(v.UpdatedAt),
	}
}

// memorizationItems builds one aggregate per chapter that has a dirty
// verse. Verses carries the dirty verses; MemorizedAyahs and UpdatedAt are
// computed over every local verse of the chapter.
func memorizationItems(dirty, all []domain.MemorizationProgress) []cloud.MemorizationItem {
	byChapter := make(map[int][]domain.MemorizationProgress)
	for _, p := range all {
		byChapter[p.ChapterID] = append(byChapter[p.ChapterID], p)
	}

	idx := make(map[int]int)
	var items []cloud.MemorizationItem
	for _, p := range dirty {
		i, ok := idx[p.ChapterID]
		if !ok {
			i = len(items)
			idx[p.ChapterID] = i
			items = append(items, chapterItem(p.ChapterID, byChapter[p.ChapterID]))
		}
		items[i].Verses = append(items[i].Verses, progressToCloud(p))
	}
	slices.SortFunc(items, func(a, b cloud.MemorizationItem) int { return cmp.Compare(a.SurahID, b.SurahID) })
	return items
}

func chapterItem(chapterID int, verses []domain.MemorizationProgress) cloud.MemorizationItem {
	item := cloud.MemorizationItem{SurahID: chapterID, MemorizedAyahs: []int{}}
	for _, p := range verses {
		if p.Confidence.IsMemorized() {
			item.MemorizedAyahs = append(item.MemorizedAyahs, p.VerseNumber)
		}
		if ms := toMillis(p.UpdatedAt); ms > item.UpdatedAt {
			item.UpdatedAt = ms
		}
	}
	slices.Sort(item.MemorizedAyahs)
	return item
}

func readingToCloud(e domain.ReadingHistoryEntry) cloud.ReadingProgress {
	return cloud.ReadingProgress{
		SurahID:     e.ChapterID,
		AyahNumber:  e.VerseNumber,
		ReadingMode: string(e.Mode),
		Timestamp:   toMillis(e.Timestamp),
	}
}

func readingFromCloud(p cloud.ReadingProgress) domain.ReadingHistoryEntry {
	ts := fromMillis(p.Timestamp)
	return domain.ReadingHistoryEntry{
		ChapterID:   p.SurahID,
		VerseNumber: p.AyahNumber,
		Mode:        domain.ReadingMode(p.ReadingMode),
		Timestamp:   ts,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func settingsToCloud(s domain.Settings) cloud.Settings {
	return cloud.Settings{
		ArabicFontSize:      s.ArabicFontSize,
		TranslationFontSize: s.TranslationFontSize,
		ReciterID:           s.ReciterID,
		PlaybackSpeed:       s.PlaybackSpeed,
		DailyGoalVerses:     s.DailyGoalVerses,
		DailyGoalMinutes:    s.DailyGoalMinutes,
		Theme:               string(s.Theme),
		Language:            s.Language,
		Timezone:            s.Timezone,
		TranslationID:       s.TranslationID,
		UpdatedAt:           toMillis(s.UpdatedAt),
	}
}

func settingsFromCloud(s cloud.Settings) domain.Settings {
	return domain.Settings{
		ArabicFontSize:      s.ArabicFontSize,
		TranslationFontSize: s.TranslationFontSize,
		ReciterID:           s.ReciterID,
		PlaybackSpeed:       s.PlaybackSpeed,
		DailyGoalVerses:     s.DailyGoalVerses,
		DailyGoalMinutes:    s.DailyGoalMinutes,
		Theme:               domain.Theme(s.Theme),
		Language:            s.Language,
		Timezone:            s.Timezone,
		TranslationID:       s.TranslationID,
		UpdatedAt:           fromMillis(s.UpdatedAt),
	}
}
