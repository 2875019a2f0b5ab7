package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/keylevels"
)

const levelKeyPrefix = "levels:"

// RedisConfig configures the Redis-backed cache.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// RedisCache stores key levels in Redis with a TTL. When Redis becomes
// unavailable it degrades to a miss on every Get, so callers simply
// recompute.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	mu           sync.Mutex
	healthy      bool
	failureCount int
	lastCheck    time.Time
}

const (
	maxFailures   = 3
	checkInterval = 30 * time.Second
)

// NewRedisCache connects to Redis. A failed initial ping returns the cache
// in degraded mode rather than an error.
func NewRedisCache(cfg RedisConfig, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		rc.logger.Warn().Err(err).Str("address", cfg.Address).Msg("redis unavailable, cache degraded")
		return rc
	}

	rc.healthy = true
	rc.logger.Info().Str("address", cfg.Address).Msg("redis connected")
	return rc
}

// IsHealthy reports whether Redis is currently usable. An unhealthy cache
// retries a ping at most once per check interval.
func (rc *RedisCache) IsHealthy() bool {
	rc.mu.Lock()
	if rc.healthy {
		rc.mu.Unlock()
		return true
	}
	if time.Since(rc.lastCheck) < checkInterval {
		rc.mu.Unlock()
		return false
	}
	rc.lastCheck = time.Now()
	rc.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return false
	}

	rc.mu.Lock()
	rc.healthy = true
	rc.failureCount = 0
	rc.mu.Unlock()
	rc.logger.Info().Msg("redis recovered")
	return true
}

// Get returns the cached levels for a symbol. Any Redis error counts as a
// miss.
func (rc *RedisCache) Get(symbol string) (keylevels.Levels, bool) {
	if !rc.IsHealthy() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := rc.client.Get(ctx, levelKeyPrefix+symbol).Bytes()
	if err == redis.Nil {
		rc.recordSuccess()
		return nil, false
	}
	if err != nil {
		rc.recordFailure(err)
		return nil, false
	}
	rc.recordSuccess()

	var levels keylevels.Levels
	if err := json.Unmarshal(data, &levels); err != nil {
		rc.logger.Warn().Err(err).Str("symbol", symbol).Msg("corrupt cache entry")
		return nil, false
	}
	return levels, true
}

// Set stores levels for a symbol with the cache TTL.
func (rc *RedisCache) Set(symbol string, levels keylevels.Levels) {
	if !rc.IsHealthy() {
		return
	}
	data, err := json.Marshal(levels)
	if err != nil {
		rc.logger.Warn().Err(err).Str("symbol", symbol).Msg("marshal levels failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.client.Set(ctx, levelKeyPrefix+symbol, data, rc.ttl).Err(); err != nil {
		rc.recordFailure(err)
		return
	}
	rc.recordSuccess()
}

// Close releases the Redis connection pool.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func (rc *RedisCache) recordFailure(err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount++
	if rc.failureCount >= maxFailures && rc.healthy {
		rc.logger.Warn().Err(err).Int("failures", rc.failureCount).Msg("redis marked unhealthy")
		rc.healthy = false
	}
}

func (rc *RedisCache) recordSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.failureCount = 0
}
