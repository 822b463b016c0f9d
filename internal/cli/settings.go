package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func newSettingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current preferences",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			st, err := c.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), st, func(w io.Writer) error {
				return writeSettings(w, st)
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <key=value>...",
		Short:   "Change one or more preferences",
		Example: "  tilawah settings set theme=dark daily_goal_verses=5",
		Args:    cobra.MinimumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			patch, err := parsePatch(args)
			if err != nil {
				return err
			}
			st, err := c.Settings.Update(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), st, func(w io.Writer) error {
				return writeSettings(w, st)
			})
		}),
	})

	return cmd
}

func writeSettings(w io.Writer, st domain.Settings) error {
	return table(w, "KEY\tVALUE", func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "arabic_font_size\t%d\n", st.ArabicFontSize)
		fmt.Fprintf(tw, "translation_font_size\t%d\n", st.TranslationFontSize)
		fmt.Fprintf(tw, "reciter_id\t%d\n", st.ReciterID)
		fmt.Fprintf(tw, "playback_speed\t%g\n", st.PlaybackSpeed)
		fmt.Fprintf(tw, "daily_goal_verses\t%d\n", st.DailyGoalVerses)
		fmt.Fprintf(tw, "daily_goal_minutes\t%d\n", st.DailyGoalMinutes)
		fmt.Fprintf(tw, "theme\t%s\n", st.Theme)
		fmt.Fprintf(tw, "language\t%s\n", st.Language)
		fmt.Fprintf(tw, "timezone\t%s\n", st.Timezone)
		fmt.Fprintf(tw, "translation_id\t%d\n", st.TranslationID)
	})
}

// parsePatch turns key=value pairs into a settings patch. Range checks are
// left to the settings service.
func parsePatch(pairs []string) (domain.SettingsPatch, error) {
	var p domain.SettingsPatch
	var errs []domain.FieldError

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = append(errs, domain.FieldError{Field: pair, Message: "must be key=value"})
			continue
		}

		var err error
		switch key {
		case "arabic_font_size":
			p.ArabicFontSize, err = intPtr(value)
		case "translation_font_size":
			p.TranslationFontSize, err = intPtr(value)
		case "reciter_id":
			p.ReciterID, err = intPtr(value)
		case "daily_goal_verses":
			p.DailyGoalVerses, err = intPtr(value)
		case "daily_goal_minutes":
			p.DailyGoalMinutes, err = intPtr(value)
		case "translation_id":
			p.TranslationID, err = intPtr(value)
		case "playback_speed":
			var f float64
			f, err = strconv.ParseFloat(value, 64)
			p.PlaybackSpeed = &f
		case "theme":
			t := domain.Theme(value)
			p.Theme = &t
		case "language":
			p.Language = &value
		case "timezone":
			p.Timezone = &value
		default:
			errs = append(errs, domain.FieldError{Field: key, Message: "unknown setting"})
			continue
		}
		if err != nil {
			errs = append(errs, domain.FieldError{Field: key, Message: "must be a number"})
		}
	}

	if len(errs) > 0 {
		return domain.SettingsPatch{}, domain.NewValidationErrors(errs)
	}
	return p, nil
}

func intPtr(s string) (*int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &n, nil
}
