package domain

import "time"

// ReadingHistoryEntry is the last position read in a chapter.
// There is at most one entry per chapter.
type ReadingHistoryEntry struct {
	ID          string
	ChapterID   int
	VerseNumber int
	Mode        ReadingMode
	Timestamp   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Dirty       bool
	Version     int64
}

// VerseKey returns the "chapter:verse" key of the position.
func (e ReadingHistoryEntry) VerseKey() string {
	return VerseKey(e.ChapterID, e.VerseNumber)
}

// ReadingFilter selects history entries for List.
type ReadingFilter struct {
	From  *time.Time
	To    *time.Time
	Dirty *bool
	Limit int
}
