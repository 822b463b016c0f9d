package memorization

import (
	"context"
	"fmt"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// GetVerse returns the progress of one verse or domain.ErrNotFound.
func (s *Service) GetVerse(ctx context.Context, verseKey string) (domain.MemorizationProgress, error) {
	chapterID, verseNumber, err := domain.ParseVerseKey(verseKey)
	if err != nil {
		return domain.MemorizationProgress{}, err
	}
	return s.progress.GetByVerseKey(ctx, domain.VerseKey(chapterID, verseNumber))
}

// GetDueReviews returns verses with NextReviewAt <= now, soonest first.
func (s *Service) GetDueReviews(ctx context.Context, input DueReviewsInput) ([]domain.MemorizationProgress, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	due, err := s.progress.List(ctx, domain.ProgressFilter{DueBefore: &now, Limit: input.Limit})
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return due, nil
}

// CountDue returns the number of verses due now.
func (s *Service) CountDue(ctx context.Context) (int, error) {
	n, err := s.progress.CountDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("count due: %w", err)
	}
	return n, nil
}

// GetTotalProgress aggregates progress over every tracked verse.
func (s *Service) GetTotalProgress(ctx context.Context) (domain.ProgressStats, error) {
	all, err := s.progress.List(ctx, domain.ProgressFilter{})
	if err != nil {
		return domain.ProgressStats{}, fmt.Errorf("list progress: %w", err)
	}

	now := s.now()
	stats := domain.ProgressStats{Tracked: len(all)}
	chapters := make(map[int]struct{})
	for _, p := range all {
		stats.Counts.Add(p.Confidence)
		if p.IsDue(now) {
			stats.Due++
		}
		chapters[p.ChapterID] = struct{}{}
	}
	stats.ChaptersSeen = len(chapters)
	stats.Percent = percent(stats.Counts.Memorized(), domain.TotalVerses)

	return stats, nil
}

// GetChapterProgress aggregates progress over one chapter.
func (s *Service) GetChapterProgress(ctx context.Context, chapterID int) (domain.ChapterProgress, error) {
	if err := domain.ValidateChapter(chapterID); err != nil {
		return domain.ChapterProgress{}, err
	}

	list, err := s.progress.List(ctx, domain.ProgressFilter{ChapterID: &chapterID})
	if err != nil {
		return domain.ChapterProgress{}, fmt.Errorf("list chapter progress: %w", err)
	}

	now := s.now()
	cp := domain.ChapterProgress{
		ChapterID:  chapterID,
		VerseCount: domain.VerseCount(chapterID),
		Tracked:    len(list),
	}
	for _, p := range list {
		cp.Counts.Add(p.Confidence)
		if p.IsDue(now) {
			cp.Due++
		}
	}
	cp.Percent = percent(cp.Counts.Memorized(), cp.VerseCount)

	return cp, nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
