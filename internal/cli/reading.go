package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/reading"
)

func newReadCmd(e *env) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "read <verse>",
		Short: "Record the current reading position",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			entry, err := c.Reading.RecordVisit(cmd.Context(), reading.RecordVisitInput{
				VerseKey: args[0],
				Mode:     domain.ReadingMode(mode),
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), entry, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Position saved at %d:%d\n", entry.ChapterID, entry.VerseNumber)
				return err
			})
		}),
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ReadingModeReading), "translation, reading, memorization or listening")
	return cmd
}

func newLastCmd(e *env) *cobra.Command {
	var chapter, history int

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show where reading stopped",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			ctx := cmd.Context()

			if history > 0 {
				list, err := c.Reading.History(ctx, history)
				if err != nil {
					return err
				}
				return e.print(cmd.OutOrStdout(), list, func(w io.Writer) error {
					return table(w, "VERSE\tMODE\tAT", func(tw *tabwriter.Writer) {
						for _, h := range list {
							fmt.Fprintf(tw, "%s\t%s\t%s\n", h.VerseKey(), h.Mode, h.Timestamp.Local().Format(time.DateTime))
						}
					})
				})
			}

			var (
				entry domain.ReadingHistoryEntry
				err   error
			)
			if chapter > 0 {
				entry, err = c.Reading.ChapterPosition(ctx, chapter)
			} else {
				entry, err = c.Reading.LastRead(ctx)
			}
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing read yet.")
				return nil
			}
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), entry, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Last read %s (%s) at %s\n",
					entry.VerseKey(), entry.Mode, entry.Timestamp.Local().Format(time.DateTime))
				return err
			})
		}),
	}

	cmd.Flags().IntVar(&chapter, "chapter", 0, "position within one chapter")
	cmd.Flags().IntVar(&history, "history", 0, "list the N most recent positions instead")
	return cmd
}
