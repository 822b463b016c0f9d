package memorization

import (
	"context"
	"errors"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// DayStart returns the start of the current day in tz, converted to UTC.
func DayStart(now time.Time, tz *time.Location) time.Time {
	local := now.In(tz)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	return dayStart.UTC()
}

// NextDayStart returns the start of the next day in tz, converted to UTC.
func NextDayStart(now time.Time, tz *time.Location) time.Time {
	dayStart := DayStart(now, tz)
	// AddDate handles DST correctly, Add(24h) does not
	nextDay := dayStart.In(tz).AddDate(0, 0, 1)
	return time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), 0, 0, 0, 0, tz).UTC()
}

// ParseTimezone parses a timezone string, returning fallback when it is
// empty or unknown.
func ParseTimezone(tz string, fallback *time.Location) *time.Location {
	if tz == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return loc
}

// location resolves the user's timezone: settings first, then the
// configured default.
func (s *Service) location(ctx context.Context) (*time.Location, error) {
	if s.settings == nil {
		return s.loc, nil
	}
	st, err := s.settings.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return s.loc, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseTimezone(st.Timezone, s.loc), nil
}
