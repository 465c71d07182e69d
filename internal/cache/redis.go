package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"salesops-backend/internal/config"
)

// Cache keys
const (
	DispatchedKeysKey = "dispatch:keys"
	VerificationKey   = "verification:merged"
	StockKeyPrefix    = "stock:item:"
	OptionsKeyPrefix  = "options:"
)

// TTLs
const (
	StockTTL        = 2 * time.Minute
	DispatchKeysTTL = 30 * time.Second
	OptionsTTL      = 10 * time.Minute
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every helper
// below degrades to a cache miss.
func Init(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}

// Close releases the connection.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// StockKey is the per-item stock cache key.
func StockKey(item string) string {
	return StockKeyPrefix + strings.ToUpper(strings.TrimSpace(item))
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// GetCachedMany fetches several keys in one round-trip. Misses are absent
// from the result.
func GetCachedMany(ctx context.Context, keys []string) map[string][]byte {
	out := make(map[string][]byte)
	if client == nil || len(keys) == 0 {
		return out
	}
	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return out
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateDispatchCaches clears the dispatched-key set.
// Called when: dispatch rows are inserted
func InvalidateDispatchCaches(ctx context.Context) {
	InvalidateKeys(ctx, DispatchedKeysKey)
}

// InvalidateVerificationCaches clears the merged verification list.
// Called when: verification rows are submitted or confirmed
func InvalidateVerificationCaches(ctx context.Context) {
	InvalidateKeys(ctx, VerificationKey)
}

// InvalidateOrderCaches clears caches derived from the orders table.
// Called when: an order is cancelled
func InvalidateOrderCaches(ctx context.Context) {
	InvalidatePattern(ctx, OptionsKeyPrefix+"*")
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// PreWarmKey refills a key in the background after invalidation so the next
// reader does not pay for the miss.
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	if client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			// next request will just fetch from the warehouse
			return
		}

		SetCached(ctx, key, data, ttl)
	}()
}
