// Package store provides a Redis-backed record store usable as a
// pagination.Source.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for store operations.
var (
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_store_operations_total",
		Help: "Total Redis store operations by operation and result",
	}, []string{"operation", "result"})

	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagewindow_store_operation_duration_seconds",
		Help:    "Redis store operation duration in seconds by operation",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"operation"})
)

var (
	// ErrUnsupportedQuery is returned for query options the store cannot evaluate.
	ErrUnsupportedQuery = errors.New("store: unsupported query")

	// ErrInvalidRecord indicates a stored record could not be decoded.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// RedisStore keeps records of type T in Redis.
//
// Layout:
//
//	<prefix>:index    ZSET  member=id score=sort key
//	<prefix>:records  HASH  field=id value=JSON record
//
// Records are ordered by score, ties broken by id, which gives the stable
// order batch iteration requires.
type RedisStore[T any] struct {
	redis  *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisStore creates a store under the given key prefix.
func NewRedisStore[T any](redisClient *redis.Client, prefix string) *RedisStore[T] {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	prefix = strings.TrimSuffix(prefix, ":")
	return &RedisStore[T]{
		redis:  redisClient,
		prefix: prefix,
		logger: log.With().Str("component", "store").Str("prefix", prefix).Logger(),
	}
}

// IndexKey returns the sorted set key.
func (s *RedisStore[T]) IndexKey() string { return s.prefix + ":index" }

// RecordsKey returns the hash key.
func (s *RedisStore[T]) RecordsKey() string { return s.prefix + ":records" }

// Put stores rec under id with the given sort score, replacing any previous record.
func (s *RedisStore[T]) Put(ctx context.Context, id string, score float64, rec T) error {
	defer observe("put", time.Now())

	data, err := json.Marshal(rec)
	if err != nil {
		storeOperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("marshal record %s: %w", id, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.IndexKey(), redis.Z{Score: score, Member: id})
		pipe.HSet(ctx, s.RecordsKey(), id, data)
		return nil
	})
	if err != nil {
		storeOperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("redis put %s: %w", id, err)
	}

	storeOperationsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

// Delete removes the record with id. Deleting a missing id is not an error.
func (s *RedisStore[T]) Delete(ctx context.Context, id string) error {
	defer observe("delete", time.Now())

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.IndexKey(), id)
		pipe.HDel(ctx, s.RecordsKey(), id)
		return nil
	})
	if err != nil {
		storeOperationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("redis delete %s: %w", id, err)
	}

	storeOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Clear removes every record of the store.
func (s *RedisStore[T]) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.IndexKey(), s.RecordsKey()).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Fetch implements pagination.Source. With q.IDs set the window is applied
// to the identifier list and ids without a record are skipped; otherwise
// the window is applied to the index in the requested order.
//
// Skipped ids shorten the page, and pagination.Paginator.Each stops at the
// first short page. Iterating an ids list that holds missing ids can end
// before the end of the list; Count reports only existing records.
func (s *RedisStore[T]) Fetch(ctx context.Context, q pagination.Query, offset, limit int) ([]T, error) {
	defer observe("fetch", time.Now())

	if len(q.Conditions) > 0 {
		storeOperationsTotal.WithLabelValues("fetch", "error").Inc()
		return nil, fmt.Errorf("%w: conditions are not supported", ErrUnsupportedQuery)
	}
	if offset < 0 || limit <= 0 {
		return nil, nil
	}

	var ids []string
	if q.IDs != nil {
		ids = window(q.IDs, offset, limit)
	} else {
		desc, err := descending(q.Order)
		if err != nil {
			storeOperationsTotal.WithLabelValues("fetch", "error").Inc()
			return nil, err
		}
		ids, err = s.redis.ZRangeArgs(ctx, redis.ZRangeArgs{
			Key:   s.IndexKey(),
			Start: offset,
			Stop:  offset + limit - 1,
			Rev:   desc,
		}).Result()
		if err != nil {
			storeOperationsTotal.WithLabelValues("fetch", "error").Inc()
			return nil, fmt.Errorf("redis zrange: %w", err)
		}
	}

	records, err := s.load(ctx, ids)
	if err != nil {
		storeOperationsTotal.WithLabelValues("fetch", "error").Inc()
		return nil, err
	}

	storeOperationsTotal.WithLabelValues("fetch", "ok").Inc()
	s.logger.Debug().
		Int("offset", offset).
		Int("limit", limit).
		Int("records", len(records)).
		Msg("Fetched records")

	return records, nil
}

// Count implements pagination.Source.
func (s *RedisStore[T]) Count(ctx context.Context, q pagination.Query) (int, error) {
	defer observe("count", time.Now())

	if len(q.Conditions) > 0 {
		storeOperationsTotal.WithLabelValues("count", "error").Inc()
		return 0, fmt.Errorf("%w: conditions are not supported", ErrUnsupportedQuery)
	}

	if q.IDs != nil {
		n, err := s.countExisting(ctx, q.IDs)
		if err != nil {
			storeOperationsTotal.WithLabelValues("count", "error").Inc()
			return 0, err
		}
		storeOperationsTotal.WithLabelValues("count", "ok").Inc()
		return n, nil
	}

	n, err := s.redis.ZCard(ctx, s.IndexKey()).Result()
	if err != nil {
		storeOperationsTotal.WithLabelValues("count", "error").Inc()
		return 0, fmt.Errorf("redis zcard: %w", err)
	}

	storeOperationsTotal.WithLabelValues("count", "ok").Inc()
	return int(n), nil
}

func (s *RedisStore[T]) load(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.redis.HMGet(ctx, s.RecordsKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}

	records := make([]T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id listed but no record stored
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, ids[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore[T]) countExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	values, err := s.redis.HMGet(ctx, s.RecordsKey(), ids...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hmget: %w", err)
	}
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n, nil
}

// descending interprets the order option. The index is keyed by one sort
// score, so only ascending and descending variants of it are accepted.
func descending(order string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "id", "id asc", "score", "score asc", "+id":
		return false, nil
	case "-id", "id desc", "score desc", "-score":
		return true, nil
	}
	return false, fmt.Errorf("%w: order %q", ErrUnsupportedQuery, order)
}

func window(ids []string, offset, limit int) []string {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

func observe(operation string, start time.Time) {
	storeOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
