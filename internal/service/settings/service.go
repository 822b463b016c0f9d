// Package settings exposes the user preferences aggregate.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

type settingsRepo interface {
	Get(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
}

// Service implements the settings business logic.
type Service struct {
	repo settingsRepo
	log  *slog.Logger
}

// NewService creates a new settings service.
func NewService(log *slog.Logger, repo settingsRepo) *Service {
	return &Service{repo: repo, log: log.With("service", "settings")}
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	st, err := s.repo.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// Update validates and applies patch.
func (s *Service) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	if err := ValidatePatch(patch); err != nil {
		return domain.Settings{}, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx)
	}

	st, err := s.repo.Update(ctx, patch)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	s.log.InfoContext(ctx, "settings updated", slog.Int64("version", st.Version))
	return st, nil
}

// ValidatePatch checks every set field and collects all errors.
func ValidatePatch(p domain.SettingsPatch) error {
	var errs []domain.FieldError

	if p.ArabicFontSize != nil && (*p.ArabicFontSize < 12 || *p.ArabicFontSize > 72) {
		errs = append(errs, domain.FieldError{Field: "arabic_font_size", Message: "must be between 12 and 72"})
	}
	if p.TranslationFontSize != nil && (*p.TranslationFontSize < 10 || *p.TranslationFontSize > 48) {
		errs = append(errs, domain.FieldError{Field: "translation_font_size", Message: "must be between 10 and 48"})
	}
	if p.ReciterID != nil && *p.ReciterID <= 0 {
		errs = append(errs, domain.FieldError{Field: "reciter_id", Message: "must be positive"})
	}
	if p.PlaybackSpeed != nil && (*p.PlaybackSpeed < 0.25 || *p.PlaybackSpeed > 3) {
		errs = append(errs, domain.FieldError{Field: "playback_speed", Message: "must be between 0.25 and 3"})
	}
	if p.DailyGoalVerses != nil && (*p.DailyGoalVerses < 0 || *p.DailyGoalVerses > domain.TotalVerses) {
		errs = append(errs, domain.FieldError{Field: "daily_goal_verses", Message: "must be between 0 and 6236"})
	}
	if p.DailyGoalMinutes != nil && (*p.DailyGoalMinutes < 0 || *p.DailyGoalMinutes > 24*60) {
		errs = append(errs, domain.FieldError{Field: "daily_goal_minutes", Message: "must be between 0 and 1440"})
	}
	if p.Theme != nil && !p.Theme.IsValid() {
		errs = append(errs, domain.FieldError{Field: "theme", Message: "must be light, dark, sepia or system"})
	}
	if p.Language != nil && (len(*p.Language) < 2 || len(*p.Language) > 8) {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be a language code"})
	}
	if p.Timezone != nil && *p.Timezone != "" {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			errs = append(errs, domain.FieldError{Field: "timezone", Message: "unknown timezone"})
		}
	}
	if p.TranslationID != nil && *p.TranslationID <= 0 {
		errs = append(errs, domain.FieldError{Field: "translation_id", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
