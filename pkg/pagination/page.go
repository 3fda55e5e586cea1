package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// Window is the offset/limit pair used to request one page's records.
type Window struct {
	Page    int
	PerPage int
	Offset  int
	Limit   int
}

// NewWindow computes the window for a 1-based page of perPage records.
func NewWindow(page, perPage int) Window {
	return Window{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
		Limit:   perPage,
	}
}

// PopulateFunc fetches the records for a window.
type PopulateFunc[T any] func(ctx context.Context, w Window) ([]T, error)

// CountFunc resolves the total number of entries across all pages.
type CountFunc func(ctx context.Context) (int, error)

// Page is one bounded window of an ordered result set. It is immutable once
// Build returns it.
type Page[T any] struct {
	window     Window
	records    []T
	total      int
	totalKnown bool
}

// Build constructs a Page. populate is called exactly once with the computed
// window. If totalEntries is nil, count is then called at most once to
// resolve it; a nil count leaves the total unknown. Errors from populate or
// count are returned unchanged.
func Build[T any](ctx context.Context, page, perPage int, totalEntries *int, populate PopulateFunc[T], count CountFunc) (*Page[T], error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}
	if perPage < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPerPage, perPage)
	}
	if totalEntries != nil && *totalEntries < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTotalEntries, *totalEntries)
	}
	if populate == nil {
		return nil, fmt.Errorf("pagination: populate func cannot be nil")
	}

	w := NewWindow(page, perPage)
	records, err := populate(ctx, w)
	if err != nil {
		return nil, err
	}

	p := &Page[T]{
		window:  w,
		records: records,
	}

	switch {
	case totalEntries != nil:
		p.total, p.totalKnown = *totalEntries, true
	case count != nil:
		n, err := count(ctx)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: count returned %d", ErrInvalidTotalEntries, n)
		}
		p.total, p.totalKnown = n, true
	}

	return p, nil
}

// Current returns the 1-based page number.
func (p *Page[T]) Current() int { return p.window.Page }

// PerPage returns the maximum number of records on a page.
func (p *Page[T]) PerPage() int { return p.window.PerPage }

// Offset returns the zero-based position of the first record.
func (p *Page[T]) Offset() int { return p.window.Offset }

// Limit returns the maximum number of records requested.
func (p *Page[T]) Limit() int { return p.window.Limit }

// Window returns the window the page was fetched with.
func (p *Page[T]) Window() Window { return p.window }

// Len returns the number of records on the page.
func (p *Page[T]) Len() int { return len(p.records) }

// Records returns a copy of the page's records in fetch order.
func (p *Page[T]) Records() []T { return slices.Clone(p.records) }

// TotalEntries returns the total number of entries and whether it is known.
func (p *Page[T]) TotalEntries() (int, bool) {
	return p.total, p.totalKnown
}

// TotalPages returns ceil(total_entries / per_page) and whether it is known.
func (p *Page[T]) TotalPages() (int, bool) {
	if !p.totalKnown {
		return 0, false
	}
	return (p.total + p.window.PerPage - 1) / p.window.PerPage, true
}

// OutOfBounds reports whether the page lies beyond the last page. The first
// page of an empty result set is in bounds. An unknown total is never out
// of bounds.
func (p *Page[T]) OutOfBounds() bool {
	pages, ok := p.TotalPages()
	if !ok {
		return false
	}
	if pages == 0 {
		return p.window.Page > 1
	}
	return p.window.Page > pages
}

// PreviousPage returns page-1 when the page is not the first one.
func (p *Page[T]) PreviousPage() (int, bool) {
	if p.window.Page > 1 {
		return p.window.Page - 1, true
	}
	return 0, false
}

// NextPage returns page+1 when a later page exists.
func (p *Page[T]) NextPage() (int, bool) {
	pages, ok := p.TotalPages()
	if ok && p.window.Page < pages {
		return p.window.Page + 1, true
	}
	return 0, false
}

type pageJSON[T any] struct {
	Page         int  `json:"page"`
	PerPage      int  `json:"per_page"`
	Offset       int  `json:"offset"`
	TotalEntries *int `json:"total_entries,omitempty"`
	TotalPages   *int `json:"total_pages,omitempty"`
	OutOfBounds  bool `json:"out_of_bounds"`
	PreviousPage *int `json:"previous_page"`
	NextPage     *int `json:"next_page"`
	Records      []T  `json:"records"`
}

// MarshalJSON renders the page with its derived navigation fields.
func (p *Page[T]) MarshalJSON() ([]byte, error) {
	out := pageJSON[T]{
		Page:        p.window.Page,
		PerPage:     p.window.PerPage,
		Offset:      p.window.Offset,
		OutOfBounds: p.OutOfBounds(),
		Records:     p.records,
	}
	if out.Records == nil {
		out.Records = make([]T, 0)
	}
	if total, ok := p.TotalEntries(); ok {
		out.TotalEntries = IntPtr(total)
	}
	if pages, ok := p.TotalPages(); ok {
		out.TotalPages = IntPtr(pages)
	}
	if prev, ok := p.PreviousPage(); ok {
		out.PreviousPage = IntPtr(prev)
	}
	if next, ok := p.NextPage(); ok {
		out.NextPage = IntPtr(next)
	}
	return json.Marshal(out)
}
