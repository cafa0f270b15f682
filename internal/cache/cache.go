package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/minecom/minedash/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// PrefixedCache stores JSON encoded values of type T under a key prefix.
// All entries are tagged with the prefix so Clear only drops this cache's
// entries, even on a shared Redis.
type PrefixedCache[T any] struct {
	cache  *cache.Cache[[]byte]
	prefix string
	ttl    time.Duration
}

// NewPrefixedCache creates a new prefixed cache wrapper.
func NewPrefixedCache[T any](c *cache.Cache[[]byte], prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:  c,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (p *PrefixedCache[T]) key(key any) string {
	return p.prefix + fmt.Sprintf("%v", key)
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key any) (T, error) {
	data, err := p.cache.Get(ctx, p.key(key))
	if err != nil {
		return *new(T), err
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return *new(T), err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key any, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	options := []store.Option{store.WithTags([]string{p.prefix})}
	if p.ttl > 0 {
		options = append(options, store.WithExpiration(p.ttl))
	}
	return p.cache.Set(ctx, p.key(key), data, options...)
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key any) error {
	return p.cache.Delete(ctx, p.key(key))
}

// Clear removes all values stored under this cache's prefix.
func (p *PrefixedCache[T]) Clear(ctx context.Context) error {
	return p.cache.Invalidate(ctx, store.WithInvalidateTags([]string{p.prefix}))
}

// GetType returns the cache type.
func (p *PrefixedCache[T]) GetType() string {
	return p.cache.GetType()
}

// GetStats returns the cache statistics.
func (p *PrefixedCache[T]) GetStats() *codec.Stats {
	return p.cache.GetCodec().GetStats()
}

func newCacheInstanceByType(cfg *config.CacheConfig) *cache.Cache[[]byte] {
	switch cfg.Type {
	case config.CacheTypeRedis:
		return newRedisCache[[]byte](cfg)
	default:
		return newMemoryCache[[]byte]()
	}
}

func newMemoryCache[T any]() *cache.Cache[T] {
	// expiration is set per entry, the janitor only reclaims memory
	gocacheClient := gocache.New(gocache.NoExpiration, 10*time.Minute)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return cache.New[T](gocacheStore)
}

func newRedisCache[T any](cfg *config.CacheConfig) *cache.Cache[T] {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	redisStore := redis_store.NewRedis(redisClient)
	return cache.New[T](redisStore)
}
