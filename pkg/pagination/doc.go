// Package pagination provides page-based windowing over ordered, finite
// result sets and a batch iterator that walks a whole result set one page at
// a time.
//
// The package never talks to a data store itself. A Source supplies two
// collaborator calls: Fetch(offset, limit) for one page of records and
// Count for the total number of matching records.
//
// Example usage:
//
//	users := pagination.New[User](source, pagination.Config{PerPage: 20})
//
//	page, err := users.Paginate(ctx, pagination.Options{Page: pagination.IntPtr(2)})
//	if err != nil {
//		return err
//	}
//	pages, _ := page.TotalPages()
//
//	// Walk everything without loading it into memory
//	n, err := users.Each(ctx, pagination.Options{}, func(u User) {
//		migrate(u)
//	})
//
// Options can also come from a mapping such as url.Values:
//
//	page, err := users.PaginateRaw(ctx, r.URL.Query())
//
// Counting rules:
//   - TotalEntries supplied by the caller: no count call
//   - explicit IDs with the default finder: total is len(IDs), no count call
//   - otherwise Count is called once, after the fetch
//   - Each never counts
//
// Option errors (ErrMissingPageParameter, ErrMutuallyExclusiveCountOptions,
// ErrInvalidOptionsType, ...) are returned before any collaborator is
// called. Collaborator errors are returned unchanged.
package pagination
