package pagination

import (
	"context"
	"time"
)

// Each walks the whole result set one page at a time, calling onRecord for
// every record in page order, and returns the number of records processed.
//
// It accepts the same options as Paginate. Order defaults to "id" and Page
// to 1. Counting is suppressed by fixing TotalEntries at 0, so passing Count
// options fails with ErrMutuallyExclusiveCountOptions. Iteration stops after
// the first page holding fewer than per_page records, which includes an
// empty page.
//
// Pages are independent fetches without snapshot isolation. The caller must
// establish a stable order, and concurrent writes to the source between
// fetches can cause records to be skipped or seen twice.
//
// There is no early exit. A fetch error stops iteration and is returned
// together with the number of records already processed.
func (p *Paginator[T]) Each(ctx context.Context, opts Options, onRecord func(T)) (int, error) {
	if opts.Order == "" {
		opts.Order = DefaultOrder
	}
	if opts.Page == nil {
		opts.Page = IntPtr(1)
	}
	// zero total entries suppresses the per-page count
	opts.TotalEntries = IntPtr(0)
	if _, err := Parse(opts, p.config.PerPage); err != nil {
		return 0, err
	}

	start := time.Now()
	total := 0
	pages := 0

	for {
		page, err := p.paginate(ctx, opts, modeBatch)
		if err != nil {
			p.logger.Warn().
				Err(err).
				Int("pages", pages).
				Int("records", total).
				Msg("Batch iteration aborted")
			return total, err
		}

		for _, record := range page.records {
			onRecord(record)
		}
		total += page.Len()
		pages++
		batchRecordsTotal.Add(float64(page.Len()))

		if page.Len() < page.PerPage() {
			break
		}
		opts.Page = IntPtr(page.Current() + 1)
	}

	p.logger.Info().
		Int("pages", pages).
		Int("records", total).
		Dur("duration", time.Since(start)).
		Msg("Batch iteration complete")

	return total, nil
}

// EachRaw parses a mapping-like options value with ParseOptions and runs Each.
// A missing page key is allowed here and defaults to 1.
func (p *Paginator[T]) EachRaw(ctx context.Context, raw any, onRecord func(T)) (int, error) {
	opts, err := ParseOptions(raw)
	if err != nil {
		return 0, err
	}
	return p.Each(ctx, opts, onRecord)
}
