package memorization

import (
	"github.com/heartmarshall/tilawah/internal/domain"
)

// MarkVerseInput holds the parameters for marking a verse.
type MarkVerseInput struct {
	VerseKey   string
	Confidence domain.Confidence
}

// Validate checks all fields and collects all errors.
func (i *MarkVerseInput) Validate() error {
	var errs []domain.FieldError

	if i.VerseKey == "" {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "required"})
	} else if _, _, err := domain.ParseVerseKey(i.VerseKey); err != nil {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "must be chapter:verse within the text"})
	}
	if !i.Confidence.IsValid() {
		errs = append(errs, domain.FieldError{Field: "confidence", Message: "must be new, learning, shaky, good or solid"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// DueReviewsInput holds the parameters for listing due reviews.
type DueReviewsInput struct {
	// Limit caps the result; 0 means no cap.
	Limit int
}

// Validate checks all fields and collects all errors.
func (i *DueReviewsInput) Validate() error {
	if i.Limit < 0 || i.Limit > domain.TotalVerses {
		return domain.NewValidationError("limit", "must be between 0 and 6236")
	}
	return nil
}

// CalendarInput selects a calendar month.
type CalendarInput struct {
	Year  int
	Month int
}

// Validate checks all fields and collects all errors.
func (i *CalendarInput) Validate() error {
	var errs []domain.FieldError

	if i.Year < 1970 || i.Year > 9999 {
		errs = append(errs, domain.FieldError{Field: "year", Message: "must be between 1970 and 9999"})
	}
	if i.Month < 1 || i.Month > 12 {
		errs = append(errs, domain.FieldError{Field: "month", Message: "must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
