package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/luminex/nursery-backend/internal/platform/logger"
)

// Cache stores JSON-encoded read models under a shared key namespace.
type Cache interface {
	// Get decodes the cached value into dst and reports whether the key was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	// InvalidatePrefix drops every key that starts with prefix inside the namespace.
	InvalidatePrefix(ctx context.Context, prefix string) error
	Client() goredis.UniversalClient
	Close() error
}

type CacheConfig struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	Namespace string
}

type cache struct {
	log       *logger.Logger
	rdb       goredis.UniversalClient
	ttl       time.Duration
	namespace string
}

// NewCache dials redis and pings it once.
func NewCache(log *logger.Logger, cfg CacheConfig) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCacheFromClient(log, rdb, cfg.TTL, cfg.Namespace), nil
}

func NewCacheFromClient(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration, namespace string) Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "nursery"
	}
	return &cache{
		log:       log.With("client", "RedisCache"),
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *cache) key(k string) string {
	return c.namespace + ":" + k
}

func (c *cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

func (c *cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), raw, c.ttl).Err()
}

func (c *cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, c.key(prefix)+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 200 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

func (c *cache) Client() goredis.UniversalClient {
	return c.rdb
}

func (c *cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
