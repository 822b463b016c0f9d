package memorization

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// GetStreak returns the number of consecutive local days, ending today or
// yesterday, with at least one review.
func (s *Service) GetStreak(ctx context.Context) (int, error) {
	loc, err := s.location(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve timezone: %w", err)
	}

	times, err := s.reviews.ReviewTimesSince(ctx, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("review times: %w", err)
	}

	// Records pulled from the cloud carry no local review log.
	progress, err := s.progress.List(ctx, domain.ProgressFilter{})
	if err != nil {
		return 0, fmt.Errorf("list progress: %w", err)
	}
	for _, p := range progress {
		if p.LastReviewedAt != nil {
			times = append(times, *p.LastReviewedAt)
		}
	}

	days := groupByDay(times, loc)
	today := DayStart(s.now(), loc).In(loc)
	streak := calculateStreak(days, today)

	s.log.DebugContext(ctx, "streak calculated",
		slog.Int("streak", streak),
		slog.Int("active_days", len(days)),
	)
	return streak, nil
}

// GetReviewCalendar returns one entry per day of the month with the number
// of reviews made that day.
func (s *Service) GetReviewCalendar(ctx context.Context, input CalendarInput) ([]domain.DayReviewCount, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	loc, err := s.location(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	first := time.Date(input.Year, time.Month(input.Month), 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)

	entries, err := s.reviews.GetByPeriod(ctx, first.UTC(), next.UTC())
	if err != nil {
		return nil, fmt.Errorf("review log by period: %w", err)
	}
	from, to := first.UTC(), next.UTC()
	reviewed, err := s.progress.List(ctx, domain.ProgressFilter{ReviewedFrom: &from, ReviewedTo: &to})
	if err != nil {
		return nil, fmt.Errorf("list reviewed: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	counts := make(map[int]int)
	for _, e := range entries {
		seen[fmt.Sprintf("%s@%d", e.VerseKey, e.ReviewedAt.UnixMilli())] = struct{}{}
		counts[e.ReviewedAt.In(loc).Day()]++
	}
	for _, p := range reviewed {
		key := fmt.Sprintf("%s@%d", p.VerseKey, p.LastReviewedAt.UnixMilli())
		if _, ok := seen[key]; ok {
			continue
		}
		counts[p.LastReviewedAt.In(loc).Day()]++
	}

	result := []domain.DayReviewCount{}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		result = append(result, domain.DayReviewCount{Date: d, Count: counts[d.Day()]})
	}
	return result, nil
}

// groupByDay buckets times into local calendar days, most recent first.
func groupByDay(times []time.Time, loc *time.Location) []domain.DayReviewCount {
	byDay := make(map[time.Time]int)
	for _, t := range times {
		local := t.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		byDay[day]++
	}

	days := make([]domain.DayReviewCount, 0, len(byDay))
	for d, n := range byDay {
		days = append(days, domain.DayReviewCount{Date: d, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date) })
	return days
}

// calculateStreak calculates the current review streak in days.
// days must be sorted DESC by date (most recent first).
// Returns the number of consecutive days with reviews, starting from today or yesterday.
func calculateStreak(days []domain.DayReviewCount, today time.Time) int {
	// Clock skew between devices can put a review after today.
	for len(days) > 0 && days[0].Date.After(today) {
		days = days[1:]
	}
	if len(days) == 0 {
		return 0
	}

	streak := 0
	expectedDate := today

	sameDay := func(a, b time.Time) bool {
		return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
	}

	// If today has no reviews, start from yesterday
	if !sameDay(days[0].Date, today) {
		expectedDate = today.AddDate(0, 0, -1)
	}

	for _, d := range days {
		if d.Count == 0 {
			continue
		}
		if sameDay(d.Date, expectedDate) {
			streak++
			expectedDate = expectedDate.AddDate(0, 0, -1)
		} else {
			break
		}
	}

	return streak
}
