package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wesm/mediaview/internal/listcache"
	"github.com/wesm/mediaview/internal/scheduler"
)

var (
	warmAll         bool
	warmConcurrency int
	warmWatch       bool
	warmSchedule    string
)

var warmCmd = &cobra.Command{
	Use:   "warm [TAG...]",
	Short: "Fetch tag file lists into the cache",
	Long: `Fetch the file lists of one or more tags from the server and store them in
the local cache, so random navigation can start without a round trip.

With --watch the lists are fetched once and then again on a cron schedule
(--schedule, or cache.refresh_schedule from the config) until interrupted.

Examples:
  mediaview warm vacation family
  mediaview warm --all --concurrency 8
  mediaview warm --all --watch --schedule '@every 10m'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !warmAll && len(args) == 0 {
			return fmt.Errorf("give at least one TAG, or --all")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		cache := openCache(logger)
		defer cache.Close()

		tags := args
		if warmAll {
			tags, err = client.AllTags(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tags: %w", err)
			}
		}

		fetcher := listcache.NewFetcher(client, cache, logger)
		if !warmWatch {
			return warmTags(cmd.Context(), fetcher, tags, warmConcurrency, os.Stdout)
		}

		schedule := warmSchedule
		if schedule == "" {
			schedule = cfg.Cache.RefreshSchedule
		}
		return watchTags(cmd.Context(), fetcher, tags, schedule)
	},
}

// watchTags refreshes tags on schedule until ctx is cancelled. Failed runs
// are logged and retried at the next tick.
func watchTags(ctx context.Context, f *listcache.Fetcher, tags []string, schedule string) error {
	sched, err := scheduler.New(schedule, func(ctx context.Context) error {
		return warmTags(ctx, f, tags, warmConcurrency, io.Discard)
	})
	if err != nil {
		return err
	}
	sched.WithLogger(logger)

	if err := sched.Trigger(); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	sched.Start()
	fmt.Printf("Refreshing %d tags on schedule %q (ctrl+c to stop)\n", len(tags), schedule)

	<-ctx.Done()
	<-sched.Stop().Done()
	if st := sched.Status(); !st.LastRun.IsZero() {
		fmt.Printf("Last successful refresh: %s\n", st.LastRun.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// warmTags fetches every tag and prints one line per tag. It fails if any
// tag failed, after all tags have been attempted.
func warmTags(ctx context.Context, f *listcache.Fetcher, tags []string, limit int, w io.Writer) error {
	results := f.Warm(ctx, tags, limit)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "  %-24s error: %v\n", r.Tag, r.Err)
			continue
		}
		fmt.Fprintf(w, "  %-24s %d files\n", r.Tag, r.Count)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tags failed", failed, len(results))
	}
	fmt.Fprintf(w, "Cached %d tags.\n", len(results))
	return nil
}

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().BoolVar(&warmAll, "all", false, "warm every tag the server knows")
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 4, "maximum concurrent requests")
	warmCmd.Flags().BoolVar(&warmWatch, "watch", false, "keep refreshing on a schedule")
	warmCmd.Flags().StringVar(&warmSchedule, "schedule", "", "cron expression for --watch (default: cache.refresh_schedule)")
}
