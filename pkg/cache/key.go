package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
)

// KeyPrefix starts every count cache key.
const KeyPrefix = "pagewindow:count"

// CountKey identifies a cached count: the source name plus every query
// option that can change the count. Order is left out since it never does.
type CountKey struct {
	// Source names the collection being counted (e.g., "users")
	Source string

	// Query is the count query handed to the source
	Query pagination.Query
}

// String generates a deterministic cache key string.
// Format: pagewindow:count:source:finder=x:ids=a,b:cond.k=v:count.k=v:param.k=v
//
// Example:
//
//	pagewindow:count:users:cond.active=true:count.select=id
func (k CountKey) String() string {
	parts := []string{KeyPrefix}

	if source := strings.Trim(k.Source, ":"); source != "" {
		parts = append(parts, source)
	}

	q := k.Query
	if q.Finder != "" && q.Finder != pagination.DefaultFinder {
		parts = append(parts, "finder="+q.Finder)
	}
	if q.IDs != nil {
		parts = append(parts, "ids="+strings.Join(q.IDs, ","))
	}

	parts = appendSorted(parts, "cond.", q.Conditions)
	parts = appendSorted(parts, "count.", q.Count)
	parts = appendSorted(parts, "param.", q.Params)

	return strings.Join(parts, ":")
}

// SourcePattern returns the SCAN pattern matching every key of source that
// carries query options. The bare source key is CountKey{Source: source}.
func SourcePattern(source string) string {
	return CountKey{Source: source}.String() + ":*"
}

// appendSorted adds prefix+key=value pairs sorted by key for determinism.
func appendSorted(parts []string, prefix string, m map[string]any) []string {
	if len(m) == 0 {
		return parts
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s%s=%v", prefix, key, m[key]))
	}
	return parts
}
