package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Breaker      *CircuitBreakerConfig
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisCache is the read-path cache for letter and notification listings.
// Every operation runs through a circuit breaker; while the breaker is open
// operations return ErrCacheDown immediately and callers fall back to the
// database. The workflow core never reads through this cache.
type RedisCache struct {
	client  *redis.Client
	breaker *CircuitBreaker
	ctx     context.Context
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client:  rdb,
		breaker: NewCircuitBreaker(config.Breaker),
		ctx:     context.Background(),
	}
}

func (r *RedisCache) guard(err error) error {
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return ErrCacheDown
	}
	return err
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.guard(r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		return r.client.Set(ctx, key, data, expiration).Err()
	}))
}

func (r *RedisCache) Get(key string, dest interface{}) error {
	var data string
	err := r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		var getErr error
		data, getErr = r.client.Get(ctx, key).Result()
		if getErr == redis.Nil {
			// A miss is not a backend failure; don't trip the breaker.
			data = ""
			return nil
		}
		return getErr
	})
	if err != nil {
		return r.guard(err)
	}
	if data == "" {
		return ErrCacheMiss
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(key string) error {
	return r.guard(r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		return r.client.Del(ctx, key).Err()
	}))
}

func (r *RedisCache) DeletePattern(pattern string) error {
	return r.guard(r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 10*time.Second)
		defer cancel()

		keys, err := r.client.Keys(ctx, pattern).Result()
		if err != nil {
			return fmt.Errorf("failed to get keys for pattern %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			return r.client.Del(ctx, keys...).Err()
		}
		return nil
	}))
}

func (r *RedisCache) Exists(key string) (bool, error) {
	var found bool
	err := r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		result, err := r.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		found = result > 0
		return nil
	})
	return found, r.guard(err)
}

func (r *RedisCache) Health() error {
	ctx, cancel := context.WithTimeout(r.ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()
	return map[string]interface{}{
		"breaker":       r.breaker.Stats(),
		"pool_hits":     poolStats.Hits,
		"pool_misses":   poolStats.Misses,
		"pool_timeouts": poolStats.Timeouts,
		"pool_total":    poolStats.TotalConns,
		"pool_idle":     poolStats.IdleConns,
		"pool_stale":    poolStats.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
