// Package redis is the short-lived response cache in front of the dataset
// pipeline. Entries are fresh for TTL and kept as a stale fallback for
// StaleTTL. Redis calls run through a CircuitBreaker; while the breaker is
// open, or when no address is configured, an in-process cache serves.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"trendsv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultStaleTTL = 24 * time.Hour
	defaultPrefix   = "trends:resp:"

	fieldAt   = "at"
	fieldBody = "body"
)

// Config configures the response cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"; empty = in-process only
	Password string
	DB       int

	TTL      time.Duration // freshness window
	StaleTTL time.Duration // how long expired entries are kept for fallback
}

// Cache implements model.ResponseCache.
type Cache struct {
	client   *goredis.Client
	cb       *CircuitBreaker
	local    *localCache
	ttl      time.Duration
	staleTTL time.Duration
	now      func() time.Time

	// OnFallback is called when a Redis call fails or is rejected by the
	// breaker and the local cache serves instead (for metrics).
	OnFallback func(op string)
}

var _ model.ResponseCache = (*Cache)(nil)

// New creates a Cache and pings Redis when an address is configured.
func New(cfg Config) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.StaleTTL < cfg.TTL {
		cfg.StaleTTL = max(DefaultStaleTTL, cfg.TTL)
	}
	c := &Cache{
		cb:       NewCircuitBreaker(5, 10*time.Second),
		local:    newLocalCache(defaultLocalEntries, cfg.StaleTTL),
		ttl:      cfg.TTL,
		staleTTL: cfg.StaleTTL,
		now:      time.Now,
	}
	if cfg.Addr == "" {
		slog.Info("redis: no address configured, using in-process response cache")
		return c, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis: connected", "addr", cfg.Addr)
	c.client = client
	return c, nil
}

// Breaker exposes the circuit breaker so callers can observe transitions.
func (c *Cache) Breaker() *CircuitBreaker { return c.cb }

// Client returns the underlying Redis client, nil when running in-process.
func (c *Cache) Client() *goredis.Client { return c.client }

// Get returns the entry under key and whether it is still within TTL.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, bool) {
	if c.client == nil {
		return c.fromLocal(key)
	}

	var vals map[string]string
	err := c.cb.Execute(func() error {
		var err error
		vals, err = c.client.HGetAll(ctx, defaultPrefix+key).Result()
		return err
	})
	if err != nil {
		c.fallback("get", err)
		return c.fromLocal(key)
	}

	body, ok := vals[fieldBody]
	if !ok {
		return nil, false, false
	}
	at, err := strconv.ParseInt(vals[fieldAt], 10, 64)
	if err != nil {
		return nil, false, false
	}
	return []byte(body), c.fresh(time.UnixMilli(at)), true
}

// Set stores data under key. The local copy is always written so it can
// serve if Redis becomes unreachable later.
func (c *Cache) Set(ctx context.Context, key string, data []byte) {
	now := c.now()
	c.local.put(key, data, now)
	if c.client == nil {
		return
	}

	err := c.cb.Execute(func() error {
		_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			k := defaultPrefix + key
			pipe.HSet(ctx, k, fieldAt, now.UnixMilli(), fieldBody, data)
			pipe.Expire(ctx, k, c.staleTTL)
			return nil
		})
		return err
	})
	if err != nil {
		c.fallback("set", err)
	}
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) fromLocal(key string) ([]byte, bool, bool) {
	e, ok := c.local.get(key)
	if !ok || c.now().Sub(e.at) > c.staleTTL {
		return nil, false, false
	}
	return e.data, c.fresh(e.at), true
}

func (c *Cache) fresh(at time.Time) bool {
	return c.now().Sub(at) <= c.ttl
}

func (c *Cache) fallback(op string, err error) {
	slog.Warn("redis: falling back to local cache", "op", op, "error", err)
	if c.OnFallback != nil {
		c.OnFallback(op)
	}
}
