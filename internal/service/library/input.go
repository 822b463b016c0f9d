package library

import (
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/tilawah/internal/domain"
)

const (
	maxNameLength = 100
	maxNoteLength = 2000
)

// CreateCollectionInput holds the parameters for creating a collection.
type CreateCollectionInput struct {
	Name        string
	Description *string
	Color       *string
	Icon        *string
}

// Validate checks all fields and collects all errors.
func (i *CreateCollectionInput) Validate() error {
	var errs []domain.FieldError

	name := strings.TrimSpace(i.Name)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	} else if utf8.RuneCountInString(name) > maxNameLength {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 100 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateCollectionInput holds the parameters for updating a collection.
// Nil fields are left unchanged.
type UpdateCollectionInput struct {
	ID          string
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateCollectionInput) Validate() error {
	var errs []domain.FieldError

	if i.ID == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Name != nil {
		name := strings.TrimSpace(*i.Name)
		if name == "" {
			errs = append(errs, domain.FieldError{Field: "name", Message: "must not be empty"})
		} else if utf8.RuneCountInString(name) > maxNameLength {
			errs = append(errs, domain.FieldError{Field: "name", Message: "max 100 characters"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AddBookmarkInput holds the parameters for bookmarking a verse.
type AddBookmarkInput struct {
	CollectionID string
	VerseKey     string
	Note         *string
}

// Validate checks all fields and collects all errors.
func (i *AddBookmarkInput) Validate() error {
	var errs []domain.FieldError

	if i.CollectionID == "" {
		errs = append(errs, domain.FieldError{Field: "collection_id", Message: "required"})
	}
	if i.VerseKey == "" {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "required"})
	} else if _, _, err := domain.ParseVerseKey(i.VerseKey); err != nil {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "must be chapter:verse within the text"})
	}
	if i.Note != nil && utf8.RuneCountInString(*i.Note) > maxNoteLength {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 2000 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateNoteInput sets or clears (Note == nil) a bookmark note.
type UpdateNoteInput struct {
	BookmarkID string
	Note       *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateNoteInput) Validate() error {
	var errs []domain.FieldError

	if i.BookmarkID == "" {
		errs = append(errs, domain.FieldError{Field: "bookmark_id", Message: "required"})
	}
	if i.Note != nil && utf8.RuneCountInString(*i.Note) > maxNoteLength {
		errs = append(errs, domain.FieldError{Field: "note", Message: "max 2000 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateIDs(field string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return domain.NewValidationError(field, "must not contain empty ids")
		}
		if _, dup := seen[id]; dup {
			return domain.NewValidationError(field, "must not contain duplicates")
		}
		seen[id] = struct{}{}
	}
	return nil
}
