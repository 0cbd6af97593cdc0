package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/meetus/internal/config"
	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
)

// newTokenStore opens the configured token backend. The cleanup function
// closes any connection it holds.
func newTokenStore(cfg *config.Config) (tokenstore.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return tokenstore.NewFileStore(cfg.Storage.Path), func() {}, nil
	case config.BackendMemory:
		return tokenstore.NewMemoryStore(), func() {}, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Storage.Redis.Addr,
			Password:    cfg.Storage.Redis.Password,
			DB:          cfg.Storage.Redis.DB,
			DialTimeout: cfg.API.Timeout,
		})
		cleanup := func() {
			if err := client.Close(); err != nil {
				log.DefaultLogger().Warn("closing redis client", "error", err)
			}
		}
		return tokenstore.NewRedisStore(client, cfg.Storage.Redis.Key, cfg.Storage.Redis.TTL), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// describeStore names the store location for diagnostics.
func describeStore(cfg *config.Config) string {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return cfg.Storage.Path
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d %s", cfg.Storage.Redis.Addr, cfg.Storage.Redis.DB, cfg.Storage.Redis.Key)
	default:
		return cfg.Storage.Backend
	}
}
