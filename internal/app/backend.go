package app

import (
	"context"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/redis"
	"github.com/MrSnakeDoc/bookmarker/internal/slot"
	"github.com/MrSnakeDoc/bookmarker/internal/slot/memory"
	redisslot "github.com/MrSnakeDoc/bookmarker/internal/slot/redis"
	"github.com/MrSnakeDoc/bookmarker/internal/slot/sqlite"
)

// Backend is the configured persistent slot plus whatever must be closed
// with it.
type Backend struct {
	Slot   slot.Slot
	closer io.Closer
}

// Close releases the underlying connection, if any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend opens the slot selected by cfg.Storage.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("memory storage selected, bookmarks will not survive a restart")
		return &Backend{Slot: memory.New()}, nil

	case config.StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite slot: %w", err)
		}
		log.Info("sqlite slot opened", logger.String("driver", s.Driver()))
		return &Backend{Slot: s, closer: s}, nil

	case config.StorageRedis:
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Slot: redisslot.NewSlot(client), closer: client}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
