package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/cache"
	"github.com/Sternrassler/pagewindow/pkg/store"
	"github.com/spf13/cobra"
)

func newSeedCommand(a *app) *cobra.Command {
	var (
		count      int
		clearFirst bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write demo records into the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("count must be >= 0 (got %d)", count)
			}

			ctx := cmd.Context()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			_, records := a.paginator(client, 0)
			if clearFirst {
				if err := records.Clear(ctx); err != nil {
					return err
				}
			}

			if err := seedRecords(ctx, records, count, time.Now()); err != nil {
				return err
			}

			// cached totals are stale now
			if _, err := cache.NewManager(client).InvalidateSource(ctx, a.config.Prefix); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to invalidate cached counts")
			}

			a.logger.Info().Int("records", count).Bool("cleared", clearFirst).Str("prefix", a.config.Prefix).Msg("Seed complete")
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "number of records to write")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "remove existing records first")
	return cmd
}

// seedRecords writes records 1..n with ids "000001".. and their sequence
// number as sort score.
func seedRecords(ctx context.Context, records *store.RedisStore[Record], n int, now time.Time) error {
	for i := 1; i <= n; i++ {
		rec := Record{
			ID:        fmt.Sprintf("%06d", i),
			Name:      fmt.Sprintf("record-%d", i),
			Seq:       i,
			CreatedAt: now.Add(time.Duration(i) * time.Second).UTC(),
		}
		if err := records.Put(ctx, rec.ID, float64(i), rec); err != nil {
			return fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return nil
}
