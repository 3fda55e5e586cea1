package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrCountUnsupported is returned by Funcs when no count function is set.
var ErrCountUnsupported = errors.New("pagination: count not supported by source")

// Source is the data-source collaborator a Paginator pages over.
type Source[T any] interface {
	// Fetch returns at most limit records starting at offset, in the order
	// established by the query.
	Fetch(ctx context.Context, q Query, offset, limit int) ([]T, error)

	// Count returns the number of records matching q, ignoring offset/limit.
	Count(ctx context.Context, q Query) (int, error)
}

// Funcs adapts plain functions to Source.
type Funcs[T any] struct {
	FetchFn func(ctx context.Context, q Query, offset, limit int) ([]T, error)
	CountFn func(ctx context.Context, q Query) (int, error)
}

// Fetch calls FetchFn.
func (f Funcs[T]) Fetch(ctx context.Context, q Query, offset, limit int) ([]T, error) {
	return f.FetchFn(ctx, q, offset, limit)
}

// Count calls CountFn, or returns ErrCountUnsupported when it is nil.
func (f Funcs[T]) Count(ctx context.Context, q Query) (int, error) {
	if f.CountFn == nil {
		return 0, ErrCountUnsupported
	}
	return f.CountFn(ctx, q)
}

// Config holds paginator configuration.
type Config struct {
	// PerPage is the entity default page size (default: DefaultPerPage)
	PerPage int

	// Logger overrides the component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns the default paginator configuration.
func DefaultConfig() Config {
	return Config{
		PerPage: DefaultPerPage,
	}
}

const (
	modePage  = "page"
	modeBatch = "batch"
)

// Paginator pages over one entity's Source.
type Paginator[T any] struct {
	source Source[T]
	config Config
	logger zerolog.Logger
}

// New creates a paginator for source.
func New[T any](source Source[T], config Config) *Paginator[T] {
	if source == nil {
		panic("pagination: source cannot be nil")
	}
	if config.PerPage <= 0 {
		config.PerPage = DefaultPerPage
	}

	logger := log.With().Str("component", "pagination").Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Paginator[T]{
		source: source,
		config: config,
		logger: logger,
	}
}

// PerPage returns the entity default page size.
func (p *Paginator[T]) PerPage() int {
	return p.config.PerPage
}

// Paginate fetches one page described by opts.
//
// The total entry count is taken from opts.TotalEntries when set. Otherwise
// an explicit identifier list (default finder only) supplies it, and failing
// that Source.Count is called once after the fetch.
func (p *Paginator[T]) Paginate(ctx context.Context, opts Options) (*Page[T], error) {
	return p.paginate(ctx, opts, modePage)
}

// PaginateRaw parses a mapping-like options value with ParseOptions and
// paginates with the result.
func (p *Paginator[T]) PaginateRaw(ctx context.Context, raw any) (*Page[T], error) {
	opts, err := ParseOptions(raw)
	if err != nil {
		return nil, err
	}
	return p.Paginate(ctx, opts)
}

func (p *Paginator[T]) paginate(ctx context.Context, opts Options, mode string) (*Page[T], error) {
	req, err := Parse(opts, p.config.PerPage)
	if err != nil {
		return nil, err
	}

	countQuery := opts.Query()
	fetchQuery := countQuery
	fetchQuery.Count = nil

	total := req.TotalEntries
	switch {
	case total != nil && mode == modeBatch:
		countSkippedTotal.WithLabelValues("batch").Inc()
	case total != nil:
		countSkippedTotal.WithLabelValues("supplied").Inc()
	case opts.IDs != nil && opts.IsDefaultFinder():
		total = IntPtr(len(opts.IDs))
		countSkippedTotal.WithLabelValues("ids").Inc()
	}

	populate := func(ctx context.Context, w Window) ([]T, error) {
		start := time.Now()
		records, err := p.source.Fetch(ctx, fetchQuery, w.Offset, w.Limit)
		fetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			collaboratorErrorsTotal.WithLabelValues("fetch").Inc()
		}
		return records, err
	}

	count := func(ctx context.Context) (int, error) {
		countQueriesTotal.Inc()
		n, err := p.source.Count(ctx, countQuery)
		if err != nil {
			collaboratorErrorsTotal.WithLabelValues("count").Inc()
		}
		return n, err
	}

	page, err := Build(ctx, req.Page, req.PerPage, total, populate, count)
	if err != nil {
		p.logger.Debug().
			Err(err).
			Int("page", req.Page).
			Int("per_page", req.PerPage).
			Msg("Page build failed")
		return nil, err
	}

	pagesTotal.WithLabelValues(mode).Inc()

	if e := p.logger.Debug(); e.Enabled() {
		totalEntries, _ := page.TotalEntries()
		e.Str("mode", mode).
			Int("page", page.Current()).
			Int("per_page", page.PerPage()).
			Int("offset", page.Offset()).
			Int("records", page.Len()).
			Int("total_entries", totalEntries).
			Msg("Page built")
	}

	return page, nil
}
