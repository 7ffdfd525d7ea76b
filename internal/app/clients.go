package app

import (
	"fmt"

	"github.com/luminex/nursery-backend/internal/clients/redis"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type Clients struct {
	Cache redis.Cache
}

// wireClients dials the optional analytics cache. Redis is skipped entirely when no address
// is configured and services read straight from the database.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var cache redis.Cache
	if cfg.RedisAddr != "" {
		c, err := redis.NewCache(log, redis.CacheConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			TTL:       cfg.RedisTTL,
			Namespace: cfg.ServiceName,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		cache = c
	} else {
		log.Info("redis.addr not set; analytics cache disabled")
	}

	return Clients{Cache: cache}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
