package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a count stays cached when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// CountCache decorates a pagination.Source, serving Count from Redis.
// Fetch always goes to the wrapped source. Cache failures never fail a count:
// they are logged and the wrapped source is asked instead.
type CountCache[T any] struct {
	inner   pagination.Source[T]
	manager *Manager
	name    string
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewCountCache wraps inner. name identifies the collection in cache keys.
func NewCountCache[T any](inner pagination.Source[T], manager *Manager, name string, ttl time.Duration) *CountCache[T] {
	if inner == nil || manager == nil {
		panic("count cache requires a source and a manager")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CountCache[T]{
		inner:   inner,
		manager: manager,
		name:    name,
		ttl:     ttl,
		logger:  log.With().Str("component", "count-cache").Str("source", name).Logger(),
	}
}

// Fetch delegates to the wrapped source.
func (c *CountCache[T]) Fetch(ctx context.Context, q pagination.Query, offset, limit int) ([]T, error) {
	return c.inner.Fetch(ctx, q, offset, limit)
}

// Count returns the cached count for q, resolving and storing it on a miss.
func (c *CountCache[T]) Count(ctx context.Context, q pagination.Query) (int, error) {
	key := CountKey{Source: c.name, Query: q}

	entry, err := c.manager.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug().Str("key", key.String()).Int("count", entry.Count).Msg("Count cache hit")
		return entry.Count, nil
	case errors.Is(err, ErrCacheMiss):
		c.logger.Debug().Str("key", key.String()).Msg("Count cache miss")
	default:
		CacheFallbacks.Inc()
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Count cache get error")
	}

	n, err := c.inner.Count(ctx, q)
	if err != nil {
		return 0, err
	}

	if err := c.manager.Set(ctx, key, NewCountEntry(n, c.ttl)); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache count")
	}

	return n, nil
}

// Invalidate drops every cached count of this source.
func (c *CountCache[T]) Invalidate(ctx context.Context) error {
	removed, err := c.manager.InvalidateSource(ctx, c.name)
	if err != nil {
		return err
	}
	c.logger.Debug().Int("keys", removed).Msg("Count cache invalidated")
	return nil
}
