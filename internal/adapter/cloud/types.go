// Package cloud defines the typed RPC surface between the device and the
// cloud backend. All timestamps are epoch milliseconds.
package cloud

import "context"

// Bookmark is the cloud view of a bookmarked verse. The cloud keeps at
// most one bookmark per verse; collections are local only.
type Bookmark struct {
	SurahID    int    `json:"surahId"`
	AyahNumber int    `json:"ayahNumber"`
	Note       string `json:"note,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// VerseProgress is the SM-2 state of one verse.
type VerseProgress struct {
	AyahNumber     int     `json:"ayahNumber"`
	Confidence     string  `json:"confidence"`
	LastReviewedAt *int64  `json:"lastReviewedAt,omitempty"`
	NextReviewAt   *int64  `json:"nextReviewAt,omitempty"`
	ReviewCount    int     `json:"reviewCount"`
	EaseFactor     float64 `json:"easeFactor"`
	Interval       int     `json:"interval"`
	Streak         int     `json:"streak"`
	UpdatedAt      int64   `json:"updatedAt"`
}

// MemorizationItem aggregates a chapter's memorization state.
// MemorizedAyahs lists verses at good or solid confidence.
type MemorizationItem struct {
	SurahID        int             `json:"surahId"`
	MemorizedAyahs []int           `json:"memorizedAyahs"`
	Verses         []VerseProgress `json:"verses"`
	UpdatedAt      int64           `json:"updatedAt"`
}

// ReadingProgress is the last read position in a chapter.
type ReadingProgress struct {
	SurahID     int    `json:"surahId"`
	AyahNumber  int    `json:"ayahNumber"`
	ReadingMode string `json:"readingMode"`
	Timestamp   int64  `json:"timestamp"`
}

// Settings mirrors the local preferences aggregate.
type Settings struct {
	ArabicFontSize      int     `json:"arabicFontSize"`
	TranslationFontSize int     `json:"translationFontSize"`
	ReciterID           int     `json:"reciterId"`
	PlaybackSpeed       float64 `json:"playbackSpeed"`
	DailyGoalVerses     int     `json:"dailyGoalVerses"`
	DailyGoalMinutes    int     `json:"dailyGoalMinutes"`
	Theme               string  `json:"theme"`
	Language            string  `json:"language"`
	Timezone            string  `json:"timezone,omitempty"`
	TranslationID       int     `json:"translationId"`
	UpdatedAt           int64   `json:"updatedAt"`
}

// Snapshot is the full remote state of one user.
type Snapshot struct {
	Bookmarks       []Bookmark         `json:"bookmarks"`
	Memorization    []MemorizationItem `json:"memorization"`
	ReadingProgress []ReadingProgress  `json:"readingProgress"`
	Settings        *Settings          `json:"settings,omitempty"`
}

// Adapter is the typed RPC client used by the sync coordinator.
type Adapter interface {
	PushBookmarks(ctx context.Context, userID string, bookmarks []Bookmark) error
	DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error
	PushMemorization(ctx context.Context, userID string, items []MemorizationItem) error
	PushReadingProgress(ctx context.Context, userID string, progress []ReadingProgress) error
	PushSettings(ctx context.Context, userID string, settings Settings) error
	FetchSnapshot(ctx context.Context, userID string) (Snapshot, error)
}
