package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/niaga-platform/service-dashboard/internal/warehouse"
)

// CacheStore keeps query results for a bounded time.
type CacheStore interface {
	Get(ctx context.Context, key string) (*warehouse.Table, bool, error)
	Set(ctx context.Context, key string, table *warehouse.Table, ttl time.Duration) error
}

// cacheKey generates a cache key for a statement
func cacheKey(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return "dashboard:query:" + hex.EncodeToString(sum[:])
}

// MemoryCacheStore is a process-wide TTL map.
type MemoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	table     *warehouse.Table
	expiresAt time.Time
}

// NewMemoryCacheStore creates an empty in-process store.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a live entry. Expired entries are evicted on read.
func (s *MemoryCacheStore) Get(_ context.Context, key string) (*warehouse.Table, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.table, true, nil
}

// Set stores a table until now+ttl.
func (s *MemoryCacheStore) Set(_ context.Context, key string, table *warehouse.Table, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{table: table, expiresAt: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries, live or not yet evicted.
func (s *MemoryCacheStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisCacheStore shares query results between service replicas.
type RedisCacheStore struct {
	redis *redis.Client
}

// NewRedisCacheStore wraps a Redis client.
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{redis: client}
}

// Get retrieves and decodes a cached table
func (s *RedisCacheStore) Get(ctx context.Context, key string) (*warehouse.Table, bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var table warehouse.Table
	if err := dec.Decode(&table); err != nil {
		return nil, false, err
	}
	return &table, true, nil
}

// Set encodes and stores a table with the given TTL
func (s *RedisCacheStore) Set(ctx context.Context, key string, table *warehouse.Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}
