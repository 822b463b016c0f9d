package memorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/memorization/sm2"
)

// MarkVerse records a review of a verse at the given confidence and
// schedules the next one. The first review of a verse is graded at least
// good, so a fresh entry is due tomorrow rather than treated as forgotten.
func (s *Service) MarkVerse(ctx context.Context, input MarkVerseInput) (domain.MemorizationProgress, error) {
	if err := input.Validate(); err != nil {
		return domain.MemorizationProgress{}, err
	}

	chapterID, verseNumber, _ := domain.ParseVerseKey(input.VerseKey)
	verseKey := domain.VerseKey(chapterID, verseNumber)
	now := s.now()

	var result domain.MemorizationProgress
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.progress.GetByVerseKey(ctx, verseKey)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			quality := max(sm2.QualityFromConfidence(input.Confidence), sm2.QualityGood)
			next := s.sched.Next(quality, s.sched.Initial())
			nextReview := sm2.NextReviewAt(now, next.Interval)

			result, err = s.progress.Create(ctx, domain.MemorizationProgress{
				VerseKey:       verseKey,
				ChapterID:      chapterID,
				VerseNumber:    verseNumber,
				Confidence:     input.Confidence,
				LastReviewedAt: &now,
				NextReviewAt:   &nextReview,
				ReviewCount:    1,
				EaseFactor:     next.EaseFactor,
				Interval:       next.Interval,
				Streak:         next.Streak,
			})
			if err != nil {
				return fmt.Errorf("create progress: %w", err)
			}
			return s.logReview(ctx, verseKey, input.Confidence, quality, now)

		case err != nil:
			return fmt.Errorf("get progress: %w", err)
		}

		quality := sm2.QualityFromConfidence(input.Confidence)
		next := s.sched.Next(quality, sm2.State{
			EaseFactor: existing.EaseFactor,
			Interval:   existing.Interval,
			Streak:     existing.Streak,
		})

		result, err = s.progress.ApplyReview(ctx, existing.ID, domain.ReviewUpdate{
			Confidence:     input.Confidence,
			LastReviewedAt: now,
			NextReviewAt:   sm2.NextReviewAt(now, next.Interval),
			ReviewCount:    existing.ReviewCount + 1,
			EaseFactor:     next.EaseFactor,
			Interval:       next.Interval,
			Streak:         next.Streak,
		})
		if err != nil {
			return fmt.Errorf("apply review: %w", err)
		}
		return s.logReview(ctx, verseKey, input.Confidence, quality, now)
	})
	if err != nil {
		return domain.MemorizationProgress{}, err
	}

	s.log.InfoContext(ctx, "verse marked",
		slog.String("verse_key", verseKey),
		slog.String("confidence", string(input.Confidence)),
		slog.Int("interval", result.Interval),
		slog.Float64("ease", result.EaseFactor),
		slog.Int("review_count", result.ReviewCount),
	)

	return result, nil
}

func (s *Service) logReview(ctx context.Context, verseKey string, c domain.Confidence, q sm2.Quality, at time.Time) error {
	if _, err := s.reviews.Create(ctx, domain.ReviewLogEntry{
		VerseKey:   verseKey,
		Confidence: c,
		Quality:    int(q),
		ReviewedAt: at,
	}); err != nil {
		return fmt.Errorf("create review log: %w", err)
	}
	return nil
}
