package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostelctl/hostelctl/internal/cli"
	"github.com/hostelctl/hostelctl/internal/stats"
	"github.com/hostelctl/hostelctl/internal/tui"
)

func dashboardCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show collection, expense and occupancy figures",
		Long: `Show the dashboard figures for the selected PG location.

Parts that fail to load are listed as stale; with --watch they keep their
last known values until a later refresh succeeds.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().Duration("watch", 0, "refresh at this interval until interrupted (e.g. 30s)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		interval, _ := cmd.Flags().GetDuration("watch")

		sess, err := env.connect(ctx, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		label := sess.scope.LocationID
		if loc, err := sess.store.SelectedLocation(ctx); err == nil && loc.Name != "" {
			label = loc.Name
		}

		refresher := stats.New(sess.client.Stats, stats.DefaultCounters(sess.client), stats.WithLogger(slog.Default()))

		for {
			summary, err := refresher.Refresh(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil && !summary.HaveStats && len(summary.Totals) == 0 {
				return fmt.Errorf("failed to load dashboard: %w", err)
			}

			fmt.Fprintln(out, tui.RenderDashboard(env.theme(), summary, label))
			if interval <= 0 {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
				fmt.Fprintln(out, cli.SubtleStyle.Render("Refreshing..."))
			}
		}
	}

	return cmd
}
