// Package cache provides a Redis-backed cache for total entry counts.
//
// Counting every matching record is usually the most expensive part of
// serving a page. CountCache wraps any pagination.Source and answers Count
// from Redis while Fetch still goes to the wrapped source.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager and wrap the source
//	manager := cache.NewManager(redisClient)
//	source := cache.NewCountCache[User](userStore, manager, "users", time.Minute)
//
//	users := pagination.New[User](source, pagination.DefaultConfig())
//
//	// After writes, drop stale counts
//	_ = source.Invalidate(ctx)
//
// # Keys
//
// Keys are deterministic: the source name followed by the sorted query
// options that affect a count (finder, ids, conditions, count options and
// pass-through params). Order is not part of the key.
//
//	pagewindow:count:users:cond.active=true:count.select=id
//
// # Failure Handling
//
// A failing cache never fails a count. Get errors fall back to the wrapped
// source and Set errors are only logged. Errors from the wrapped source are
// returned unchanged.
//
// # Metrics
//
//   - pagewindow_count_cache_hits_total - Cache hits
//   - pagewindow_count_cache_misses_total - Cache misses
//   - pagewindow_count_cache_fallbacks_total - Counts served after a cache error
//   - pagewindow_count_cache_errors_total{operation} - Cache operation errors
package cache
