package sqlite

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
)

// Clock returns the current time. Repos stamp records with it.
type Clock func() time.Time

// SystemClock is the wall clock truncated to the stored precision.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Builder returns a squirrel statement builder using ? placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// Timestamps are stored as integer epoch milliseconds.

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// NullMillis converts an optional time for a nullable column.
func NullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// FromNullMillis converts a nullable column back to an optional time.
func FromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := FromMillis(v.Int64)
	return &t
}

// NullString converts an optional string for a nullable column.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// FromNullString converts a nullable column back to an optional string.
func FromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// BoolInt stores a bool as 0/1.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
