package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/calliope/internal/fixture"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/service"
)

func benchCommand() *cobra.Command {
	var (
		count   int
		seed    uint64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Render a generated corpus twice and report timings and cache behaviour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = fixture.Seed()
			}
			if err = svc.SetCacheCapacity(max(count*3, 1)); err != nil { //nolint:mnd // body, summary and image per post
				return err
			}

			entries := toEntries(fixture.Corpus(seed, count))
			logger.InfoContext(cmd.Context(), "rendering corpus",
				slog.Uint64("seed", seed),
				slog.Int("count", len(entries)),
				slog.Int("workers", workers),
			)

			out := cmd.OutOrStdout()
			for pass := 1; pass <= 2; pass++ {
				elapsed, err := renderAll(cmd.Context(), svc, entries, workers)
				if err != nil {
					return err
				}
				stats := svc.CacheStats()
				if _, err = fmt.Fprintf(out,
					"pass %d: %d posts in %s (hits=%d misses=%d shared=%d)\n",
					pass, len(entries), elapsed.Round(time.Microsecond),
					stats.Hits, stats.Misses, stats.Shared,
				); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&count, "count", 500, "number of posts to generate")
	flags.Uint64Var(&seed, "seed", 0, "corpus seed (default from "+fixture.SeedEnv+" or random)")
	flags.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "concurrent renders")
	return cmd
}

func toEntries(posts []fixture.Post) []*service.ContentEntry {
	entries := make([]*service.ContentEntry, len(posts))
	for i, post := range posts {
		entries[i] = &service.ContentEntry{
			Author:     post.Author,
			Permlink:   post.Permlink,
			Body:       post.Body,
			LastUpdate: post.LastUpdate,
			Updated:    post.Updated,
		}
		if post.Image != "" {
			entries[i].JSONMetadata.Image = []string{post.Image}
		}
	}
	return entries
}

// renderAll renders, summarizes and extracts the image of every entry.
func renderAll(ctx context.Context, svc *service.Service, entries []*service.ContentEntry, workers int) (time.Duration, error) {
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(max(workers, 1))

	start := time.Now()
	for _, entry := range entries {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			svc.RenderPostBody(ctx, entry, service.DefaultRenderOptions())
			svc.PostBodySummary(ctx, entry, service.DefaultSummaryLength, service.DefaultPlatform)
			svc.CatchPostImage(ctx, entry, 0, 0, proxy.FormatMatch)
			return nil
		})
	}
	err := grp.Wait()
	return time.Since(start), err
}
