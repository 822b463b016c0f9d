// Package cli implements the tilawah command line client on top of
// app.Client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud/memory"
	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/service/cloudsync"
)

// env carries the global flags every subcommand reads.
type env struct {
	configPath string
	jsonOut    bool
	loopback   bool
}

// NewRootCmd creates the root command for tilawah.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "tilawah",
		Short: "Track Quran reading, bookmarks and hifz reviews",
		Long: `Offline-first companion for reading and memorizing the Quran.

tilawah keeps everything in a local database and syncs it with a cloud
account when one is configured:
- Mark verses and review them on an SM-2 schedule
- Organize bookmarks into collections
- Remember the last read position per chapter
- Keep preferences in sync across devices`,
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVar(&e.loopback, "offline-loopback", false, "sync against an in-process cloud instead of the configured backend")

	root.AddCommand(newMarkCmd(e))
	root.AddCommand(newDueCmd(e))
	root.AddCommand(newStatsCmd(e))
	root.AddCommand(newStreakCmd(e))
	root.AddCommand(newCalendarCmd(e))
	root.AddCommand(newCollectionCmd(e))
	root.AddCommand(newBookmarkCmd(e))
	root.AddCommand(newReadCmd(e))
	root.AddCommand(newLastCmd(e))
	root.AddCommand(newSettingsCmd(e))
	root.AddCommand(newSyncCmd(e))
	root.AddCommand(newStatusCmd(e))
	root.AddCommand(newDaemonCmd(e))

	return root
}

func (e *env) load() (*config.Config, error) {
	if e.configPath != "" {
		return config.LoadFile(e.configPath)
	}
	return config.Load()
}

// withClient opens the local store for the duration of fn.
func (e *env) withClient(ctx context.Context, fn func(ctx context.Context, c *app.Client) error) (err error) {
	cfg, err := e.load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	var opts []app.ClientOption
	if e.loopback {
		opts = append(opts, app.WithAdapter(cloudsync.NewService(logger, memory.New(), nil)))
	}

	client, err := app.NewClient(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Teardown(); cerr != nil {
			logger.Warn("teardown", slog.String("error", cerr.Error()))
		}
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	return fn(ctx, client)
}

// run adapts fn to a cobra RunE that opens the client first.
func (e *env) run(fn func(cmd *cobra.Command, args []string, c *app.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return e.withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
			cmd.SetContext(ctx)
			return fn(cmd, args, c)
		})
	}
}

// print writes v as indented JSON when --json is set, otherwise calls text.
func (e *env) print(w io.Writer, v any, text func(w io.Writer) error) error {
	if e.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}
