package domain

import "time"

// Settings is the single user preferences aggregate.
type Settings struct {
	ArabicFontSize      int
	TranslationFontSize int
	ReciterID           int
	PlaybackSpeed       float64
	DailyGoalVerses     int
	DailyGoalMinutes    int
	Theme               Theme
	Language            string
	Timezone            string
	TranslationID       int
	UpdatedAt           time.Time
	Dirty               bool
	Version             int64
}

// DefaultSettings returns the values used before the user changes anything.
// A zero UpdatedAt means "never written", which loses every merge.
func DefaultSettings() Settings {
	return Settings{
		ArabicFontSize:      28,
		TranslationFontSize: 16,
		ReciterID:           7,
		PlaybackSpeed:       1.0,
		DailyGoalVerses:     10,
		DailyGoalMinutes:    15,
		Theme:               ThemeSystem,
		Language:            "en",
		TranslationID:       131,
	}
}

// SettingsPatch carries optional field updates for settings.
type SettingsPatch struct {
	ArabicFontSize      *int
	TranslationFontSize *int
	ReciterID           *int
	PlaybackSpeed       *float64
	DailyGoalVerses     *int
	DailyGoalMinutes    *int
	Theme               *Theme
	Language            *string
	Timezone            *string
	TranslationID       *int
}

// Apply copies every non-nil field of p onto s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.ArabicFontSize != nil {
		s.ArabicFontSize = *p.ArabicFontSize
	}
	if p.TranslationFontSize != nil {
		s.TranslationFontSize = *p.TranslationFontSize
	}
	if p.ReciterID != nil {
		s.ReciterID = *p.ReciterID
	}
	if p.PlaybackSpeed != nil {
		s.PlaybackSpeed = *p.PlaybackSpeed
	}
	if p.DailyGoalVerses != nil {
		s.DailyGoalVerses = *p.DailyGoalVerses
	}
	if p.DailyGoalMinutes != nil {
		s.DailyGoalMinutes = *p.DailyGoalMinutes
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.TranslationID != nil {
		s.TranslationID = *p.TranslationID
	}
	return s
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p == SettingsPatch{}
}
