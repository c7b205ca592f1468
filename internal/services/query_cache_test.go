package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// fakeWarehouse answers statements by matching the FROM table name.
type fakeWarehouse struct {
	mu     sync.Mutex
	tables map[string]*warehouse.Table
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func (f *fakeWarehouse) Query(ctx context.Context, sql string) (*warehouse.Table, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for name, t := range f.tables {
		if strings.Contains(sql, name) {
			return t, nil
		}
	}
	return &warehouse.Table{}, nil
}

func (f *fakeWarehouse) Close() error { return nil }

func (f *fakeWarehouse) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestRunQueryCachesWithinTTL(t *testing.T) {
	wh := &fakeWarehouse{}
	store := NewMemoryCacheStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	svc := NewQueryService(wh, store, QueryServiceConfig{}, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := svc.RunQuery(t.Context(), "SELECT 1"); err != nil {
			t.Fatalf("RunQuery: %v", err)
		}
	}
	if got := wh.calls.Load(); got != 1 {
		t.Fatalf("expected one warehouse call, got %d", got)
	}

	now = now.Add(DefaultQueryCacheTTL - time.Second)
	if _, err := svc.RunQuery(t.Context(), "SELECT 1"); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if got := wh.calls.Load(); got != 1 {
		t.Fatalf("entry should still be live, got %d calls", got)
	}

	now = now.Add(2 * time.Second)
	if _, err := svc.RunQuery(t.Context(), "SELECT 1"); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if got := wh.calls.Load(); got != 2 {
		t.Fatalf("expired entry should re-query, got %d calls", got)
	}
}

func TestRunQueryKeysByStatementText(t *testing.T) {
	wh := &fakeWarehouse{}
	svc := NewQueryService(wh, nil, QueryServiceConfig{}, nil, zap.NewNop())

	_, _ = svc.RunQuery(t.Context(), "SELECT 1")
	_, _ = svc.RunQuery(t.Context(), "SELECT 2")
	if got := wh.calls.Load(); got != 2 {
		t.Fatalf("distinct statements should not share entries, got %d calls", got)
	}
}

func TestRunQueryDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("warehouse down")
	wh := &fakeWarehouse{err: boom}
	store := NewMemoryCacheStore()
	svc := NewQueryService(wh, store, QueryServiceConfig{}, nil, zap.NewNop())

	if _, err := svc.RunQuery(t.Context(), "SELECT 1"); !errors.Is(err, boom) {
		t.Fatalf("expected warehouse error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed query must not be cached")
	}

	wh.setErr(nil)
	if _, err := svc.RunQuery(t.Context(), "SELECT 1"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got := wh.calls.Load(); got != 2 {
		t.Fatalf("expected retry to reach the warehouse, got %d calls", got)
	}
}

func TestRunQueryFreshBypassesRead(t *testing.T) {
	wh := &fakeWarehouse{}
	svc := NewQueryService(wh, nil, QueryServiceConfig{}, nil, zap.NewNop())

	_, _ = svc.RunQuery(t.Context(), "SELECT 1")
	_, _ = svc.RunQueryFresh(t.Context(), "SELECT 1")
	if got := wh.calls.Load(); got != 2 {
		t.Fatalf("fresh query should skip the cache, got %d calls", got)
	}
	_, _ = svc.RunQuery(t.Context(), "SELECT 1")
	if got := wh.calls.Load(); got != 2 {
		t.Fatalf("fresh result should be stored, got %d calls", got)
	}
}

func TestRunQueryCollapsesConcurrentMisses(t *testing.T) {
	wh := &fakeWarehouse{delay: 50 * time.Millisecond}
	svc := NewQueryService(wh, nil, QueryServiceConfig{}, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RunQuery(context.Background(), "SELECT 1"); err != nil {
				t.Errorf("RunQuery: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := wh.calls.Load(); got != 1 {
		t.Fatalf("concurrent misses should share one call, got %d", got)
	}
}

func TestRunQueryCancelledCallerDoesNotFailOthers(t *testing.T) {
	wh := &fakeWarehouse{delay: 100 * time.Millisecond}
	svc := NewQueryService(wh, nil, QueryServiceConfig{}, nil, zap.NewNop())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.RunQuery(leaderCtx, "SELECT 1")
		leaderErr <- err
	}()
	time.AfterFunc(20*time.Millisecond, cancel)

	time.Sleep(10 * time.Millisecond)
	if _, err := svc.RunQuery(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("caller with a live context failed: %v", err)
	}
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should see context.Canceled, got %v", err)
	}

	// The result of the shared call is stored even though its first caller left.
	if _, err := svc.RunQuery(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if got := wh.calls.Load(); got != 1 {
		t.Fatalf("expected one shared warehouse call, got %d", got)
	}
}

// brokenStore fails every read and write, like an unreachable Redis.
type brokenStore struct {
	gets, sets atomic.Int64
}

func (b *brokenStore) Get(context.Context, string) (*warehouse.Table, bool, error) {
	b.gets.Add(1)
	return nil, false, errors.New("dial tcp: connection refused")
}

func (b *brokenStore) Set(context.Context, string, *warehouse.Table, time.Duration) error {
	b.sets.Add(1)
	return errors.New("dial tcp: connection refused")
}

func TestRunQueryCacheFailureIsAMiss(t *testing.T) {
	want := &warehouse.Table{Columns: []warehouse.Column{{Name: "N", Type: warehouse.TypeInteger}}, Rows: [][]any{{int64(1)}}}
	wh := &fakeWarehouse{tables: map[string]*warehouse.Table{"SELECT": want}}
	store := &brokenStore{}
	svc := NewQueryService(wh, store, QueryServiceConfig{}, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		got, err := svc.RunQuery(t.Context(), "SELECT 1")
		if err != nil {
			t.Fatalf("cache failure must not fail the query: %v", err)
		}
		if got != want {
			t.Fatalf("expected the warehouse result, got %+v", got)
		}
	}
	if wh.calls.Load() != 2 || store.gets.Load() != 2 || store.sets.Load() != 2 {
		t.Fatalf("expected every call to reach the warehouse: calls=%d gets=%d sets=%d",
			wh.calls.Load(), store.gets.Load(), store.sets.Load())
	}
}

func TestRunQueryTimeout(t *testing.T) {
	wh := &fakeWarehouse{delay: time.Second}
	svc := NewQueryService(wh, nil, QueryServiceConfig{QueryTimeout: 10 * time.Millisecond}, nil, zap.NewNop())

	if _, err := svc.RunQuery(t.Context(), "SELECT 1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCacheKeyIsStable(t *testing.T) {
	a, b := cacheKey("SELECT 1"), cacheKey("SELECT 1")
	if a != b || !strings.HasPrefix(a, "dashboard:query:") {
		t.Fatalf("unexpected keys %q %q", a, b)
	}
	if cacheKey("SELECT 2") == a {
		t.Fatal("different statements must not collide")
	}
}
