package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/domain"
)

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle with the cloud",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			c.CheckConnectivity(cmd.Context())
			err := c.Sync.SyncNow(cmd.Context())
			st := c.Sync.State()
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			return e.print(cmd.OutOrStdout(), st, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Synced %d item(s)\n", st.ItemsSynced)
				return err
			})
		}),
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the dashboard: due reviews, streak, progress and sync state",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			d, err := c.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), d, func(w io.Writer) error {
				return writeDashboard(w, d)
			})
		}),
	}
}

func writeDashboard(w io.Writer, d domain.Dashboard) error {
	fmt.Fprintf(w, "Due for review:  %d\n", d.DueCount)
	fmt.Fprintf(w, "Streak:          %d day(s)\n", d.Streak)
	fmt.Fprintf(w, "Memorized:       %.2f%% (%d verses tracked)\n", d.Progress.Percent, d.Progress.Tracked)
	if d.LastRead != nil {
		fmt.Fprintf(w, "Last read:       %s\n", d.LastRead.VerseKey())
	}
	_, err := fmt.Fprintf(w, "Sync:            %s\n", d.SyncLabel)
	return err
}

func newDaemonCmd(e *env) *cobra.Command {
	var probeInterval time.Duration

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Keep syncing in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, c *app.Client) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c.CheckConnectivity(ctx)
			if err := c.Start(ctx); err != nil {
				return err
			}
			slog.InfoContext(ctx, "sync daemon started", slog.Duration("probe_interval", probeInterval))

			watchConnectivity(ctx, c, probeInterval)

			slog.Info("sync daemon stopping", slog.String("last_state", c.Sync.State().Label(time.Now())))
			return nil
		}),
	}

	cmd.Flags().DurationVar(&probeInterval, "probe-interval", 30*time.Second, "how often to check backend reachability")
	return cmd
}

// watchConnectivity probes the backend every interval until ctx is done.
func watchConnectivity(ctx context.Context, c *app.Client, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckConnectivity(ctx)
		}
	}
}
