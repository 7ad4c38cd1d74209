package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/reviewlens/internal/metrics"
)

const redisKeyPrefix = "reviewlens:sentiment:"

// RedisCache shares model results across runs and processes.
type RedisCache struct {
	c   *redis.Client
	ttl time.Duration
	// namespace separates results of different models.
	namespace string
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, pass string, db int, ttl time.Duration, namespace string) (*RedisCache, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &RedisCache{c: c, ttl: ttl, namespace: namespace}, nil
}

func (r *RedisCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return redisKeyPrefix + r.namespace + ":" + hex.EncodeToString(sum[:])
}

// Get returns a cached result. Redis errors are treated as misses.
func (r *RedisCache) Get(ctx context.Context, key string) (Result, bool) {
	v, err := r.c.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache("redis", "miss")
		return Result{}, false
	}
	if err != nil {
		metrics.ObserveCache("redis", "error")
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(v, &res); err != nil {
		metrics.ObserveCache("redis", "error")
		return Result{}, false
	}
	metrics.ObserveCache("redis", "hit")
	return res, true
}

// Set stores value with the configured TTL. Failures are counted and otherwise ignored.
func (r *RedisCache) Set(ctx context.Context, key string, value Result) {
	b, _ := json.Marshal(value)
	if err := r.c.Set(ctx, r.key(key), b, r.ttl).Err(); err != nil {
		metrics.ObserveCache("redis", "error")
		return
	}
	metrics.ObserveCache("redis", "set")
}

func (r *RedisCache) Close() error { return r.c.Close() }
