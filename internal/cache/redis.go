package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cold-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Singleton and status cache keys.
const (
	APIConfigKey      = "config:api"
	NotifierConfigKey = "config:notifier"
	SyncStatusKey     = "sync:status"
	PickListKey       = "picklist:current"
)

var client *redis.Client

// Init connects to Redis using cfg.Redis. A connection failure degrades gracefully:
// client stays nil and every cache function below becomes a no-op, so the service runs
// without Redis at reduced throughput rather than failing to start.
func Init(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, or nil if Init failed or was never called.
func GetClient() *redis.Client {
	return client
}

// hashCredentials hashes username+password-hash for the login short-circuit cache key.
func hashCredentials(username, passwordHash string) string {
	h := sha256.New()
	h.Write([]byte(username + ":" + passwordHash))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth returns the cached user id for a previously-verified bcrypt comparison,
// letting repeated logins from the same session skip the (deliberately slow) hash
// comparison on every request.
func GetCachedAuth(ctx context.Context, username, passwordHash string) (int64, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(username, passwordHash)
	userID, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches a verified login for 15 minutes.
func CacheAuth(ctx context.Context, username, passwordHash string, userID int64) {
	if client == nil {
		return
	}
	key := hashCredentials(username, passwordHash)
	client.Set(ctx, key, userID, 15*time.Minute)
}

// InvalidateAuth removes a cached login, on password change or account suspension.
func InvalidateAuth(ctx context.Context, username, passwordHash string) {
	if client == nil {
		return
	}
	key := hashCredentials(username, passwordHash)
	client.Del(ctx, key)
}

// GetCached returns cached bytes for a key.
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

// SetCached stores bytes under key with a TTL.
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern.
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys.
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateConfigCaches clears the API/notifier singleton cache.
// Called when: PutAPIConfig, PutNotifierConfig.
func InvalidateConfigCaches(ctx context.Context) {
	InvalidateKeys(ctx, APIConfigKey, NotifierConfigKey)
}

// InvalidatePickListCache clears the aggregated pick-list cache.
// Called when: Pick, MarkShort, RevertPickedItem, Sync.
func InvalidatePickListCache(ctx context.Context) {
	InvalidateKeys(ctx, PickListKey)
}

// InvalidateProductCaches clears per-sku product caches.
// Called when: a sync upserts products.
func InvalidateProductCaches(ctx context.Context) {
	InvalidatePattern(ctx, "product:*")
}

// InvalidateStockExceptionCaches clears the out-of-stock aggregate cache.
// Called when: RecordShortage, Resolve, ToggleOrderedFromCompany, ToggleNaCancel.
func InvalidateStockExceptionCaches(ctx context.Context) {
	InvalidateKeys(ctx, "out_of_stock:aggregate")
}

// InvalidateUserCaches clears cached user lookups.
// Called when: CreateUser, UpdateUser, DeleteUser.
func InvalidateUserCaches(ctx context.Context) {
	InvalidatePattern(ctx, "users:*")
}

// PreWarmCallback populates a cache key.
type PreWarmCallback func(ctx context.Context) ([]byte, error)

var preWarmCallbacks = make(map[string]PreWarmCallback)

// RegisterPreWarm registers a callback to pre-warm a cache key at startup.
func RegisterPreWarm(key string, callback PreWarmCallback) {
	preWarmCallbacks[key] = callback
}

// PreWarmCache runs every registered pre-warm callback once, skipping keys another
// instance already populated.
func PreWarmCache() {
	if client == nil {
		return
	}

	ctx := context.Background()

	for key, callback := range preWarmCallbacks {
		if _, ok := GetCached(ctx, key); ok {
			continue
		}
		data, err := callback(ctx)
		if err != nil {
			continue
		}
		SetCached(ctx, key, data, 10*time.Minute)
	}
}

// IsHealthy reports whether the Redis connection is currently reachable.
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// PreWarmKey refreshes a single cache key in the background after an invalidation, so
// the next request doesn't pay the recompute cost inline.
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	if client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			return
		}
		SetCached(ctx, key, data, ttl)
	}()
}
