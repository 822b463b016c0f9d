package sync

import (
	"slices"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// Winner names the side that survives a merge.
type Winner int

const (
	WinnerRemote Winner = iota
	WinnerLocal
)

// Resolve is last-writer-wins on update time. Local must be strictly newer
// to win; a tie goes to the remote side so every device converges.
func Resolve(localUpdatedAt, remoteUpdatedAt time.Time) Winner {
	if localUpdatedAt.After(remoteUpdatedAt) {
		return WinnerLocal
	}
	return WinnerRemote
}

// Merged is the outcome of merging one record. Changed reports whether the
// result differs from the local record.
type Merged[T any] struct {
	Value   T
	Changed bool
}

// MergeBookmark merges the cloud view of a verse into one local bookmark.
// The winner's note and timestamps replace the local ones; identity,
// collection and ordering are local only and always kept.
func MergeBookmark(local domain.Bookmark, remote domain.Bookmark) Merged[domain.Bookmark] {
	if Resolve(local.UpdatedAt, remote.UpdatedAt) == WinnerLocal {
		return Merged[domain.Bookmark]{Value: local}
	}

	out := local
	out.Note = remote.Note
	out.UpdatedAt = remote.UpdatedAt
	if !remote.CreatedAt.IsZero() {
		out.CreatedAt = remote.CreatedAt
	}
	out.Dirty = false

	changed := !equalNote(local.Note, out.Note) ||
		!local.UpdatedAt.Equal(out.UpdatedAt) ||
		!local.CreatedAt.Equal(out.CreatedAt)
	return Merged[domain.Bookmark]{Value: out, Changed: changed}
}

// MergeProgress merges the remote SM-2 state of a verse into the local one.
// The winner replaces every scheduling field; the local id is kept.
func MergeProgress(local, remote domain.MemorizationProgress) Merged[domain.MemorizationProgress] {
	if Resolve(local.UpdatedAt, remote.UpdatedAt) == WinnerLocal {
		return Merged[domain.MemorizationProgress]{Value: local}
	}

	out := remote
	out.ID = local.ID
	out.VerseKey = local.VerseKey
	out.ChapterID = local.ChapterID
	out.VerseNumber = local.VerseNumber
	if out.CreatedAt.IsZero() {
		out.CreatedAt = local.CreatedAt
	}
	out.Dirty = false
	out.Version = local.Version

	return Merged[domain.MemorizationProgress]{Value: out, Changed: !sameProgress(local, out)}
}

// MergeReading merges the remote position of a chapter. Reading entries are
// ordered by their visit timestamp.
func MergeReading(local, remote domain.ReadingHistoryEntry) Merged[domain.ReadingHistoryEntry] {
	if Resolve(local.Timestamp, remote.Timestamp) == WinnerLocal {
		return Merged[domain.ReadingHistoryEntry]{Value: local}
	}

	out := local
	out.VerseNumber = remote.VerseNumber
	out.Mode = remote.Mode
	out.Timestamp = remote.Timestamp
	out.UpdatedAt = remote.Timestamp
	out.Dirty = false

	changed := local.VerseNumber != out.VerseNumber ||
		local.Mode != out.Mode ||
		!local.Timestamp.Equal(out.Timestamp)
	return Merged[domain.ReadingHistoryEntry]{Value: out, Changed: changed}
}

// MergeSettings merges the remote preferences into the local ones.
func MergeSettings(local, remote domain.Settings) Merged[domain.Settings] {
	if Resolve(local.UpdatedAt, remote.UpdatedAt) == WinnerLocal {
		return Merged[domain.Settings]{Value: local}
	}

	out := remote
	out.Dirty = false
	out.Version = local.Version

	return Merged[domain.Settings]{Value: out, Changed: !sameSettings(local, out)}
}

// MergeAyahLists merges the memorized-verse lists of a chapter. When the
// remote side is newer but the local list already holds everything the
// remote one does, the union is kept so verses memorized offline survive.
// Otherwise the winner's list is used. The result is sorted and deduplicated.
func MergeAyahLists(local, remote []int, remoteNewer bool) []int {
	if !remoteNewer {
		return normalize(local)
	}
	if isSuperset(local, remote) {
		return normalize(append(slices.Clone(local), remote...))
	}
	return normalize(remote)
}

// ChapterMerge is the outcome of merging one chapter of memorization.
type ChapterMerge struct {
	// Put holds records to write back. Changed records only.
	Put []domain.MemorizationProgress
	// Delete holds ids of clean local records the remote side dropped.
	Delete []string
	// Memorized is the merged memorized-verse list.
	Memorized []int
}

// Changed reports whether the merge touches the local store.
func (m ChapterMerge) Changed() int { return len(m.Put) + len(m.Delete) }

// MergeChapter merges one chapter: per-verse last-writer-wins for verses
// both sides know, remote-only verses are adopted, and local-only verses
// follow the merged memorized list. A local-only verse inside that list is
// kept and re-marked dirty so the next cycle pushes it; a clean one outside
// it is deleted. Dirty local-only verses are never touched.
//
// remoteUpdatedAt is the chapter aggregate's update time.
func MergeChapter(local []domain.MemorizationProgress, remote []domain.MemorizationProgress, remoteMemorized []int, remoteUpdatedAt time.Time) ChapterMerge {
	var localNewest time.Time
	localMemorized := make([]int, 0, len(local))
	for _, p := range local {
		if p.UpdatedAt.After(localNewest) {
			localNewest = p.UpdatedAt
		}
		if p.Confidence.IsMemorized() {
			localMemorized = append(localMemorized, p.VerseNumber)
		}
	}
	remoteNewer := Resolve(localNewest, remoteUpdatedAt) == WinnerRemote

	var out ChapterMerge
	out.Memorized = MergeAyahLists(localMemorized, remoteMemorized, remoteNewer)

	byVerse := make(map[int]domain.MemorizationProgress, len(local))
	for _, p := range local {
		byVerse[p.VerseNumber] = p
	}

	seen := make(map[int]bool, len(remote))
	for _, r := range remote {
		seen[r.VerseNumber] = true
		l, ok := byVerse[r.VerseNumber]
		if !ok {
			r.Dirty = false
			out.Put = append(out.Put, r)
			continue
		}
		if m := MergeProgress(l, r); m.Changed {
			out.Put = append(out.Put, m.Value)
		}
	}

	for _, l := range local {
		if seen[l.VerseNumber] || l.Dirty {
			continue
		}
		if slices.Contains(out.Memorized, l.VerseNumber) {
			l.Dirty = true
			out.Put = append(out.Put, l)
			continue
		}
		out.Delete = append(out.Delete, l.ID)
	}
	return out
}

func isSuperset(super, sub []int) bool {
	for _, v := range sub {
		if !slices.Contains(super, v) {
			return false
		}
	}
	return true
}

func normalize(v []int) []int {
	out := slices.Clone(v)
	if out == nil {
		out = []int{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func equalNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameProgress(a, b domain.MemorizationProgress) bool {
	return a.Confidence == b.Confidence &&
		equalTime(a.LastReviewedAt, b.LastReviewedAt) &&
		equalTime(a.NextReviewAt, b.NextReviewAt) &&
		a.ReviewCount == b.ReviewCount &&
		a.EaseFactor == b.EaseFactor &&
		a.Interval == b.Interval &&
		a.Streak == b.Streak &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		a.CreatedAt.Equal(b.CreatedAt)
}

// sameSettings compares the synced fields only.
func sameSettings(a, b domain.Settings) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	a.Dirty, b.Dirty = false, false
	a.Version, b.Version = 0, 0
	return a == b
}
