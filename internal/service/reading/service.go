// Package reading tracks the last read position per chapter.
package reading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

type historyRepo interface {
	Upsert(ctx context.Context, e domain.ReadingHistoryEntry) (domain.ReadingHistoryEntry, error)
	GetByChapter(ctx context.Context, chapterID int) (domain.ReadingHistoryEntry, error)
	Latest(ctx context.Context) (domain.ReadingHistoryEntry, error)
	List(ctx context.Context, filter domain.ReadingFilter) ([]domain.ReadingHistoryEntry, error)
}

// Service implements the reading position business logic.
type Service struct {
	history historyRepo
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new reading service. A nil now uses the wall clock.
func NewService(log *slog.Logger, history historyRepo, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
	}
	return &Service{
		history: history,
		log:     log.With("service", "reading"),
		now:     now,
	}
}

// RecordVisitInput holds the parameters for recording a reading position.
type RecordVisitInput struct {
	VerseKey string
	Mode     domain.ReadingMode
}

// Validate checks all fields and collects all errors.
func (i *RecordVisitInput) Validate() error {
	var errs []domain.FieldError

	if i.VerseKey == "" {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "required"})
	} else if _, _, err := domain.ParseVerseKey(i.VerseKey); err != nil {
		errs = append(errs, domain.FieldError{Field: "verse_key", Message: "must be chapter:verse within the text"})
	}
	if i.Mode != "" && !i.Mode.IsValid() {
		errs = append(errs, domain.FieldError{Field: "mode", Message: "must be translation, reading, memorization or listening"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// RecordVisit stores the position as the chapter's last read verse.
func (s *Service) RecordVisit(ctx context.Context, input RecordVisitInput) (domain.ReadingHistoryEntry, error) {
	if err := input.Validate(); err != nil {
		return domain.ReadingHistoryEntry{}, err
	}

	chapterID, verseNumber, _ := domain.ParseVerseKey(input.VerseKey)
	mode := input.Mode
	if mode == "" {
		mode = domain.ReadingModeReading
	}

	e, err := s.history.Upsert(ctx, domain.ReadingHistoryEntry{
		ChapterID:   chapterID,
		VerseNumber: verseNumber,
		Mode:        mode,
		Timestamp:   s.now(),
	})
	if err != nil {
		return domain.ReadingHistoryEntry{}, fmt.Errorf("record visit: %w", err)
	}

	s.log.DebugContext(ctx, "visit recorded",
		slog.String("verse_key", e.VerseKey()),
		slog.String("mode", string(e.Mode)),
	)
	return e, nil
}

// LastRead returns the most recent position or domain.ErrNotFound.
func (s *Service) LastRead(ctx context.Context) (domain.ReadingHistoryEntry, error) {
	return s.history.Latest(ctx)
}

// ChapterPosition returns the last read verse of a chapter or domain.ErrNotFound.
func (s *Service) ChapterPosition(ctx context.Context, chapterID int) (domain.ReadingHistoryEntry, error) {
	if err := domain.ValidateChapter(chapterID); err != nil {
		return domain.ReadingHistoryEntry{}, err
	}
	return s.history.GetByChapter(ctx, chapterID)
}

// History returns positions, most recent first. limit 0 means all.
func (s *Service) History(ctx context.Context, limit int) ([]domain.ReadingHistoryEntry, error) {
	if limit < 0 || limit > domain.ChapterCount {
		return nil, domain.NewValidationError("limit", "must be between 0 and 114")
	}
	list, err := s.history.List(ctx, domain.ReadingFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return list, nil
}
