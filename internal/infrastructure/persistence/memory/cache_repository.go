// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

const (
	defaultSize = 1024
	defaultTTL  = 10 * time.Minute
)

// cacheItem carries its own expiry so Set can use a shorter TTL than the LRU bound
type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository implements outbound.CacheRepository on a bounded, expiring LRU
type CacheRepository struct {
	lru    *expirable.LRU[string, cacheItem]
	maxTTL time.Duration
	now    func() time.Time
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a cache holding at most size entries, none older than maxTTL
func NewCacheRepository(size int, maxTTL time.Duration) *CacheRepository {
	if size <= 0 {
		size = defaultSize
	}
	if maxTTL <= 0 {
		maxTTL = defaultTTL
	}
	return &CacheRepository{
		lru:    expirable.NewLRU[string, cacheItem](size, nil, maxTTL),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := r.lru.Get(key)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	if !r.now().Before(item.expiresAt) {
		r.lru.Remove(key)
		return nil, outbound.ErrCacheMiss
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a value in cache. A zero ttl or one above the cache bound uses the bound.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > r.maxTTL {
		ttl = r.maxTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	r.lru.Add(key, cacheItem{value: stored, expiresAt: r.now().Add(ttl)})
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.lru.Remove(key)
	return nil
}

// Exists checks if a key exists and has not expired
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	item, ok := r.lru.Peek(key)
	if !ok {
		return false, nil
	}
	return r.now().Before(item.expiresAt), nil
}

// Len returns the number of entries, including ones awaiting expiry
func (r *CacheRepository) Len() int {
	return r.lru.Len()
}
