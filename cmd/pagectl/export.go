package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		order     string
		startPage int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record as one JSON line, walking the collection page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			// batch iteration never counts, so the count cache is not needed
			paginator, _ := a.paginator(client, 0)

			total, err := exportRecords(cmd.Context(), paginator, pagination.Options{
				Page:  pagination.IntPtr(startPage),
				Order: order,
			}, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			a.logger.Info().Int("records", total).Str("prefix", a.config.Prefix).Msg("Export complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", pagination.DefaultOrder, `record order ("id" or "-id")`)
	cmd.Flags().IntVar(&startPage, "start-page", 1, "first page to export")
	return cmd
}

// exportRecords encodes every record from opts onwards to w. Encoding
// failures do not stop the walk; the first one is returned at the end.
func exportRecords(ctx context.Context, paginator *pagination.Paginator[Record], opts pagination.Options, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	var encodeErr error

	total, err := paginator.Each(ctx, opts, func(rec Record) {
		if err := enc.Encode(rec); err != nil && encodeErr == nil {
			encodeErr = err
		}
	})
	if err != nil {
		return total, fmt.Errorf("export stopped after %d records: %w", total, err)
	}
	if encodeErr != nil {
		return total, fmt.Errorf("write records: %w", encodeErr)
	}
	return total, nil
}
