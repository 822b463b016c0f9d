package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/domain"
	"github.com/heartmarshall/tilawah/internal/service/library"
)

// ---------------------------------------------------------------------------
// collection
// ---------------------------------------------------------------------------

func newCollectionCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"coll"},
		Short:   "Manage bookmark collections",
	}

	cmd.AddCommand(newCollectionCreateCmd(e))
	cmd.AddCommand(newCollectionListCmd(e))
	cmd.AddCommand(newCollectionRenameCmd(e))
	cmd.AddCommand(newCollectionDeleteCmd(e))
	cmd.AddCommand(newCollectionReorderCmd(e))

	return cmd
}

func newCollectionCreateCmd(e *env) *cobra.Command {
	var description, color, icon string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			col, err := c.Library.CreateCollection(cmd.Context(), library.CreateCollectionInput{
				Name:        args[0],
				Description: optional(cmd, "description", description),
				Color:       optional(cmd, "color", color),
				Icon:        optional(cmd, "icon", icon),
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), col, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created collection: %s (id: %s)\n", col.Name, col.ID)
				return err
			})
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "collection description")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	return cmd
}

func newCollectionListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			list, err := c.Library.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), list, func(w io.Writer) error {
				return table(w, "ID\tNAME\tBOOKMARKS", func(tw *tabwriter.Writer) {
					for _, col := range list {
						fmt.Fprintf(tw, "%s\t%s\t%d\n", col.ID, col.Name, col.BookmarkCount)
					}
				})
			})
		}),
	}
}

func newCollectionRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			col, err := c.Library.UpdateCollection(cmd.Context(), library.UpdateCollectionInput{
				ID:   args[0],
				Name: &args[1],
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), col, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Renamed collection %s to %s\n", col.ID, col.Name)
				return err
			})
		}),
	}
}

func newCollectionDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection and its bookmarks",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			if err := c.Library.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", args[0])
			return nil
		}),
	}
}

func newCollectionReorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the display order of collections",
		Args:  cobra.MinimumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			return c.Library.ReorderCollections(cmd.Context(), args)
		}),
	}
}

// ---------------------------------------------------------------------------
// bookmark
// ---------------------------------------------------------------------------

func newBookmarkCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmark",
		Aliases: []string{"bm"},
		Short:   "Manage verse bookmarks",
	}

	cmd.AddCommand(newBookmarkAddCmd(e))
	cmd.AddCommand(newBookmarkRemoveCmd(e))
	cmd.AddCommand(newBookmarkListCmd(e))
	cmd.AddCommand(newBookmarkWhereCmd(e))
	cmd.AddCommand(newBookmarkNoteCmd(e))
	cmd.AddCommand(newBookmarkReorderCmd(e))

	return cmd
}

// collectionOrDefault returns id, or the default collection when id is empty.
func collectionOrDefault(ctx context.Context, c *app.Client, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	col, err := c.Library.EnsureDefaultCollection(ctx)
	if err != nil {
		return "", err
	}
	return col.ID, nil
}

func newBookmarkAddCmd(e *env) *cobra.Command {
	var collectionID, note string

	cmd := &cobra.Command{
		Use:     "add <verse>",
		Short:   "Bookmark a verse",
		Example: "  tilawah bookmark add 36:58 --note \"salamun qawlan\"",
		Args:    cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			id, err := collectionOrDefault(cmd.Context(), c, collectionID)
			if err != nil {
				return err
			}
			b, err := c.Library.AddBookmark(cmd.Context(), library.AddBookmarkInput{
				CollectionID: id,
				VerseKey:     args[0],
				Note:         optional(cmd, "note", note),
			})
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), b, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Bookmarked %s (id: %s)\n", b.VerseKey, b.ID)
				return err
			})
		}),
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "collection id (default collection if empty)")
	cmd.Flags().StringVar(&note, "note", "", "note attached to the bookmark")
	return cmd
}

func newBookmarkRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			if err := c.Library.RemoveBookmark(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed bookmark %s\n", args[0])
			return nil
		}),
	}
}

func newBookmarkListCmd(e *env) *cobra.Command {
	var collectionID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the bookmarks of a collection",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			id, err := collectionOrDefault(cmd.Context(), c, collectionID)
			if err != nil {
				return err
			}
			list, err := c.Library.ListBookmarks(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), list, func(w io.Writer) error {
				return table(w, "ID\tVERSE\tNOTE", func(tw *tabwriter.Writer) {
					for _, b := range list {
						note := ""
						if b.Note != nil {
							note = *b.Note
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.VerseKey, note)
					}
				})
			})
		}),
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "collection id (default collection if empty)")
	return cmd
}

// verseCollections is the result row of "bookmark where".
type verseCollections struct {
	VerseKey    string   `json:"verse_key"`
	Collections []string `json:"collections"`
}

func newBookmarkWhereCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "where <verse>...",
		Short: "Show which collections hold each verse",
		Args:  cobra.MinimumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			rows, err := whereBookmarked(c.Scope(cmd.Context()), c, args)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				return table(w, "VERSE\tCOLLECTIONS", func(tw *tabwriter.Writer) {
					for _, r := range rows {
						fmt.Fprintf(tw, "%s\t%s\n", r.VerseKey, strings.Join(r.Collections, ","))
					}
				})
			})
		}),
	}
}

// whereBookmarked resolves all verses concurrently so the scoped loader
// answers them with one query.
func whereBookmarked(ctx context.Context, c *app.Client, verseKeys []string) ([]verseCollections, error) {
	rows := make([]verseCollections, len(verseKeys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range verseKeys {
		g.Go(func() error {
			ids, err := c.Library.GetBookmarkCollections(gctx, key)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			rows[i] = verseCollections{VerseKey: key, Collections: ids}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func newBookmarkNoteCmd(e *env) *cobra.Command {
	var clearNote bool

	cmd := &cobra.Command{
		Use:   "note <id> [text]",
		Short: "Set or clear the note of a bookmark",
		Args:  cobra.RangeArgs(1, 2),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			in := library.UpdateNoteInput{BookmarkID: args[0]}
			switch {
			case clearNote:
			case len(args) == 2:
				in.Note = &args[1]
			default:
				return domain.NewValidationError("note", "give the text or --clear")
			}

			b, err := c.Library.UpdateBookmarkNote(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), b, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated note of %s\n", b.VerseKey)
				return err
			})
		}),
	}

	cmd.Flags().BoolVar(&clearNote, "clear", false, "remove the note")
	return cmd
}

func newBookmarkReorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <collection-id> <bookmark-id>...",
		Short: "Set the display order of bookmarks in a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string, c *app.Client) error {
			return c.Library.ReorderBookmarks(cmd.Context(), args[0], args[1:])
		}),
	}
}

// optional returns &v when the flag was set explicitly.
func optional(cmd *cobra.Command, flag, v string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}
