package pagination

import "errors"

// Option errors. They are returned before any collaborator is invoked and
// indicate a caller programming error, so they must not be retried.
var (
	// ErrInvalidOptionsType is returned when the options value does not support key lookup.
	ErrInvalidOptionsType = errors.New("pagination: options mapping expected")

	// ErrMissingPageParameter is returned when the page key is absent entirely.
	ErrMissingPageParameter = errors.New("pagination: page parameter required")

	// ErrMutuallyExclusiveCountOptions is returned when both count options and
	// total entries are supplied.
	ErrMutuallyExclusiveCountOptions = errors.New("pagination: count and total_entries are mutually exclusive")

	// ErrInvalidPage is returned for a page number below 1 or one whose offset
	// does not fit in an int.
	ErrInvalidPage = errors.New("pagination: page must be >= 1")

	// ErrInvalidPerPage is returned for a per-page size below 1.
	ErrInvalidPerPage = errors.New("pagination: per_page must be > 0")

	// ErrInvalidTotalEntries is returned for a negative total entry count.
	ErrInvalidTotalEntries = errors.New("pagination: total_entries must be >= 0")
)

// IsOptionError reports whether err was produced while parsing options.
func IsOptionError(err error) bool {
	return errors.Is(err, ErrInvalidOptionsType) ||
		errors.Is(err, ErrMissingPageParameter) ||
		errors.Is(err, ErrMutuallyExclusiveCountOptions) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidPerPage) ||
		errors.Is(err, ErrInvalidTotalEntries)
}
