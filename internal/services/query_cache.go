package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/niaga-platform/service-dashboard/internal/telemetry"
	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// DefaultQueryCacheTTL is how long a query result is reused.
const DefaultQueryCacheTTL = 300 * time.Second

// QueryServiceConfig holds cache policy for the query service.
type QueryServiceConfig struct {
	TTL          time.Duration
	QueryTimeout time.Duration // zero means no per-query timeout
}

// QueryService executes warehouse statements and memoizes results per
// statement text.
type QueryService struct {
	client  warehouse.Client
	store   CacheStore
	config  QueryServiceConfig
	group   singleflight.Group
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewQueryService creates a new query service. A nil store gets a fresh
// in-process store.
func NewQueryService(
	client warehouse.Client,
	store CacheStore,
	cfg QueryServiceConfig,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *QueryService {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultQueryCacheTTL
	}
	if store == nil {
		store = NewMemoryCacheStore()
	}
	return &QueryService{
		client:  client,
		store:   store,
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// RunQuery returns the result of sql, from cache when a live entry exists.
// Errors are returned as-is and never cached.
func (s *QueryService) RunQuery(ctx context.Context, sql string) (*warehouse.Table, error) {
	return s.run(ctx, sql, false)
}

// RunQueryFresh skips the cache read but still stores the new result.
func (s *QueryService) RunQueryFresh(ctx context.Context, sql string) (*warehouse.Table, error) {
	return s.run(ctx, sql, true)
}

func (s *QueryService) run(ctx context.Context, sql string, bypass bool) (*warehouse.Table, error) {
	key := cacheKey(sql)

	if bypass {
		s.metrics.CacheResult("bypass")
	} else {
		table, ok, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Warn("failed to get query result from cache", zap.Error(err), zap.String("key", key))
		}
		if ok {
			s.metrics.CacheResult("hit")
			s.logger.Debug("cache hit for query", zap.String("key", key))
			return table, nil
		}
		s.metrics.CacheResult("miss")
	}

	// Concurrent misses for the same statement share one round trip. The
	// shared call outlives any single caller; each caller stops waiting when
	// its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.execute(context.WithoutCancel(ctx), sql, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("shared in-flight query", zap.String("key", key))
		}
		return res.Val.(*warehouse.Table), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs on a context detached from the requesting caller. The query
// timeout bounds the round trip; the cache write uses the detached context.
func (s *QueryService) execute(ctx context.Context, sql, key string) (*warehouse.Table, error) {
	queryCtx := ctx
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	table, err := s.client.Query(queryCtx, sql)
	elapsed := time.Since(start)
	s.metrics.QueryDuration(elapsed, err)
	if err != nil {
		s.logger.Error("warehouse query failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	if err := s.store.Set(ctx, key, table, s.config.TTL); err != nil {
		s.logger.Warn("failed to set query result in cache", zap.Error(err), zap.String("key", key))
	}

	s.logger.Debug("cached query result",
		zap.String("key", key),
		zap.Int("rows", table.Len()),
		zap.Duration("elapsed", elapsed),
		zap.Duration("ttl", s.config.TTL),
	)
	return table, nil
}
