package cache

import (
	"time"
)

// CountEntry is a cached total entry count.
type CountEntry struct {
	// Count is the value returned by the source's count collaborator
	Count int `json:"count"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the count was stored
	CachedAt time.Time `json:"cached_at"`
}

// NewCountEntry creates an entry for count that expires after ttl.
func NewCountEntry(count int, ttl time.Duration) *CountEntry {
	now := time.Now()
	return &CountEntry{
		Count:    count,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the entry has expired.
func (e *CountEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CountEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
