package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChapterCount is the number of chapters (surahs).
const ChapterCount = 114

// TotalVerses is the number of verses across all chapters.
const TotalVerses = 6236

// chapterVerseCounts is indexed by chapter number; index 0 is unused.
var chapterVerseCounts = [ChapterCount + 1]int{
	0,
	7, 286, 200, 176, 120, 165, 206, 75, 129, 109,
	123, 111, 43, 52, 99, 128, 111, 110, 98, 135,
	112, 78, 118, 64, 77, 227, 93, 88, 69, 60,
	34, 30, 73, 54, 45, 83, 182, 88, 75, 85,
	54, 53, 89, 59, 37, 35, 38, 29, 18, 45,
	60, 49, 62, 55, 78, 96, 29, 22, 24, 13,
	14, 11, 11, 18, 12, 12, 30, 52, 52, 44,
	28, 28, 20, 56, 40, 31, 50, 40, 46, 42,
	29, 19, 36, 25, 22, 17, 19, 26, 30, 20,
	15, 21, 11, 8, 8, 19, 5, 8, 8, 11,
	11, 8, 3, 9, 5, 4, 7, 3, 6, 3,
	5, 4, 5, 6,
}

// VerseCount returns the number of verses in a chapter, or 0 for an
// unknown chapter.
func VerseCount(chapterID int) int {
	if chapterID < 1 || chapterID > ChapterCount {
		return 0
	}
	return chapterVerseCounts[chapterID]
}

// VerseKey renders the canonical "chapter:verse" key.
func VerseKey(chapterID, verseNumber int) string {
	return strconv.Itoa(chapterID) + ":" + strconv.Itoa(verseNumber)
}

// ParseVerseKey splits and range-checks a "chapter:verse" key.
func ParseVerseKey(key string) (chapterID, verseNumber int, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok {
		return 0, 0, NewValidationError("verse_key", fmt.Sprintf("%q is not in chapter:verse form", key))
	}

	chapterID, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, NewValidationError("verse_key", fmt.Sprintf("invalid chapter in %q", key))
	}
	verseNumber, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, NewValidationError("verse_key", fmt.Sprintf("invalid verse in %q", key))
	}

	if err := ValidateVerse(chapterID, verseNumber); err != nil {
		return 0, 0, err
	}
	return chapterID, verseNumber, nil
}

// ValidateVerse checks that the chapter exists and the verse is within it.
func ValidateVerse(chapterID, verseNumber int) error {
	count := VerseCount(chapterID)
	if count == 0 {
		return NewValidationError("chapter_id", fmt.Sprintf("must be between 1 and %d", ChapterCount))
	}
	if verseNumber < 1 || verseNumber > count {
		return NewValidationError("verse_number", fmt.Sprintf("chapter %d has verses 1..%d", chapterID, count))
	}
	return nil
}

// ValidateChapter checks that the chapter number exists.
func ValidateChapter(chapterID int) error {
	if VerseCount(chapterID) == 0 {
		return NewValidationError("chapter_id", fmt.Sprintf("must be between 1 and %d", ChapterCount))
	}
	return nil
}
