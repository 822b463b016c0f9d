package domain

import "time"

// MemorizationProgress is the spaced-repetition state of one verse.
type MemorizationProgress struct {
	ID             string
	VerseKey       string
	ChapterID      int
	VerseNumber    int
	Confidence     Confidence
	LastReviewedAt *time.Time
	NextReviewAt   *time.Time
	ReviewCount    int
	EaseFactor     float64
	Interval       int
	Streak         int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Dirty          bool
	Version        int64
}

// IsDue reports whether the verse should be reviewed at now.
func (p MemorizationProgress) IsDue(now time.Time) bool {
	return p.NextReviewAt != nil && !p.NextReviewAt.After(now)
}

// ReviewUpdate holds the fields written after a scheduler run.
type ReviewUpdate struct {
	Confidence     Confidence
	LastReviewedAt time.Time
	NextReviewAt   time.Time
	ReviewCount    int
	EaseFactor     float64
	Interval       int
	Streak         int
}

// ProgressFilter selects memorization records for List. Nil fields are ignored.
type ProgressFilter struct {
	ChapterID    *int
	DueBefore    *time.Time
	ReviewedFrom *time.Time
	ReviewedTo   *time.Time
	Dirty        *bool
	Limit        int
}

// ReviewLogEntry records a single MarkVerse call.
type ReviewLogEntry struct {
	ID         string
	VerseKey   string
	Confidence Confidence
	Quality    int
	ReviewedAt time.Time
}

// DayReviewCount holds the review count for a specific local date.
type DayReviewCount struct {
	Date  time.Time
	Count int
}

// ConfidenceCounts holds the number of verses per confidence level.
type ConfidenceCounts struct {
	New      int
	Learning int
	Shaky    int
	Good     int
	Solid    int
}

// Add increments the bucket for c.
func (c *ConfidenceCounts) Add(conf Confidence) {
	switch conf {
	case ConfidenceNew:
		c.New++
	case ConfidenceLearning:
		c.Learning++
	case ConfidenceShaky:
		c.Shaky++
	case ConfidenceGood:
		c.Good++
	case ConfidenceSolid:
		c.Solid++
	}
}

// Total is the sum of all buckets.
func (c ConfidenceCounts) Total() int {
	return c.New + c.Learning + c.Shaky + c.Good + c.Solid
}

// Memorized is the number of good or solid verses.
func (c ConfidenceCounts) Memorized() int {
	return c.Good + c.Solid
}

// ProgressStats aggregates memorization progress over all verses.
type ProgressStats struct {
	Tracked      int
	Counts       ConfidenceCounts
	Due          int
	ChaptersSeen int
	// Percent is memorized verses over the whole text, 0..100.
	Percent float64
}

// ChapterProgress aggregates memorization progress for one chapter.
type ChapterProgress struct {
	ChapterID  int
	VerseCount int
	Tracked    int
	Counts     ConfidenceCounts
	Due        int
	Percent    float64
}
