package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	total  int
	counts int
	err    error
}

func (s *countingSource) Fetch(ctx context.Context, q pagination.Query, offset, limit int) ([]int, error) {
	out := []int{}
	for i := offset; i < s.total && len(out) < limit; i++ {
		out = append(out, i)
	}
	return out, nil
}

func (s *countingSource) Count(ctx context.Context, q pagination.Query) (int, error) {
	s.counts++
	return s.total, s.err
}

// unreachableRedis returns a client whose every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewCountCache_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewCountCache should panic without a manager")
		}
	}()
	NewCountCache[int](&countingSource{}, nil, "users", time.Minute)
}

func TestCountCache_FallsBackWhenRedisFails(t *testing.T) {
	inner := &countingSource{total: 17}
	source := NewCountCache[int](inner, NewManager(unreachableRedis(t)), "users", time.Minute)

	n, err := source.Count(context.Background(), pagination.Query{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 17 {
		t.Errorf("Count() = %d, want 17", n)
	}
	if inner.counts != 1 {
		t.Errorf("inner counts = %d, want 1", inner.counts)
	}
}

func TestCountCache_InnerErrorUnchanged(t *testing.T) {
	countErr := errors.New("database down")
	inner := &countingSource{err: countErr}
	source := NewCountCache[int](inner, NewManager(unreachableRedis(t)), "users", time.Minute)

	if _, err := source.Count(context.Background(), pagination.Query{}); err != countErr {
		t.Errorf("Count() error = %v, want %v", err, countErr)
	}
}

func TestCountCache_FetchDelegates(t *testing.T) {
	inner := &countingSource{total: 5}
	source := NewCountCache[int](inner, NewManager(unreachableRedis(t)), "users", 0)

	records, err := source.Fetch(context.Background(), pagination.Query{}, 3, 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 2 || records[0] != 3 {
		t.Errorf("Fetch() = %v, want [3 4]", records)
	}
	if source.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", source.ttl, DefaultTTL)
	}
}

func TestCountCache_ServesRepeatCountsFromRedis(t *testing.T) {
	client := setupTestRedis(t)
	inner := &countingSource{total: 40}
	source := NewCountCache[int](inner, NewManager(client), "users", time.Minute)
	paginator := pagination.New[int](source, pagination.Config{PerPage: 10})
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		p, err := paginator.Paginate(ctx, pagination.Options{Page: pagination.IntPtr(page)})
		if err != nil {
			t.Fatalf("Paginate(%d) error = %v", page, err)
		}
		if total, _ := p.TotalEntries(); total != 40 {
			t.Errorf("TotalEntries() = %d, want 40", total)
		}
	}
	if inner.counts != 1 {
		t.Errorf("inner counts = %d, want 1", inner.counts)
	}

	if err := source.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := source.Count(ctx, pagination.Query{}); err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if inner.counts != 2 {
		t.Errorf("inner counts after invalidate = %d, want 2", inner.counts)
	}
}
