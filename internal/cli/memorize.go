package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/memorization"
)

func newMarkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <verse> <confidence>",
		Short: "Record a review of a verse",
		Long: `Record how well a verse is memorized and schedule its next review.

Confidence is one of: new, learning, shaky, good, solid.`,
		Example: "  tilawah mark 2:255 good",
		Args:    cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			p, err := c.Memorization.MarkVerse(cmd.Context(), memorization.MarkVerseInput{
				VerseKey:   args[0],
				Confidence: domain.Confidence(strings.ToLower(args[1])),
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s marked %s, next review in %d day(s) (%s)\n",
					p.VerseKey, p.Confidence, p.Interval, formatDate(p.NextReviewAt))
				return err
			})
		}),
	}
}

func newDueCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List verses due for review",
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			due, err := c.Memorization.GetDueReviews(cmd.Context(), memorization.DueReviewsInput{Limit: limit})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), due, func(w io.Writer) error {
				if len(due) == 0 {
					_, err := fmt.Fprintln(w, "Nothing due. Well done.")
					return err
				}
				return table(w, "VERSE\tCONFIDENCE\tDUE\tSTREAK", func(tw *tabwriter.Writer) {
					for _, p := range due {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.VerseKey, p.Confidence, formatDate(p.NextReviewAt), p.Streak)
					}
				})
			})
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of verses (0 for all)")
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	var chapter int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memorization progress",
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			if chapter > 0 {
				p, err := c.Memorization.GetChapterProgress(cmd.Context(), chapter)
				if err != nil {
					return err
				}
				return e.print(cmd.OutOrStdout(), p, func(w io.Writer) error {
					fmt.Fprintf(w, "Chapter %d: %d/%d verses tracked, %.1f%% memorized, %d due\n",
						p.ChapterID, p.Tracked, p.VerseCount, p.Percent, p.Due)
					return writeCounts(w, p.Counts)
				})
			}

			p, err := c.Memorization.GetTotalProgress(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), p, func(w io.Writer) error {
				fmt.Fprintf(w, "%d verses tracked across %d chapters, %.2f%% memorized, %d due\n",
					p.Tracked, p.ChaptersSeen, p.Percent, p.Due)
				return writeCounts(w, p.Counts)
			})
		}),
	}

	cmd.Flags().IntVar(&chapter, "chapter", 0, "limit to one chapter (1-114)")
	return cmd
}

func writeCounts(w io.Writer, c domain.ConfidenceCounts) error {
	return table(w, "CONFIDENCE\tVERSES", func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "new\t%d\n", c.New)
		fmt.Fprintf(tw, "learning\t%d\n", c.Learning)
		fmt.Fprintf(tw, "shaky\t%d\n", c.Shaky)
		fmt.Fprintf(tw, "good\t%d\n", c.Good)
		fmt.Fprintf(tw, "solid\t%d\n", c.Solid)
	})
}

func newStreakCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show consecutive days with at least one review",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			n, err := c.Memorization.GetStreak(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), map[string]int{"streak": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%d day streak\n", n)
				return err
			})
		}),
	}
}

func newCalendarCmd(e *env) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show review counts per day for a month",
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			at := time.Now()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return domain.NewValidationError("month", "must be YYYY-MM")
				}
				at = t
			}

			days, err := c.Memorization.GetReviewCalendar(cmd.Context(), memorization.CalendarInput{
				Year:  at.Year(),
				Month: int(at.Month()),
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), days, func(w io.Writer) error {
				if len(days) == 0 {
					_, err := fmt.Fprintln(w, "No reviews this month.")
					return err
				}
				return table(w, "DATE\tREVIEWS", func(tw *tabwriter.Writer) {
					for _, d := range days {
						fmt.Fprintf(tw, "%s\t%d\n", d.Date.Format(time.DateOnly), d.Count)
					}
				})
			})
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current)")
	return cmd
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}
