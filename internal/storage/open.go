package storage

import (
	"context"
	"fmt"

	"github.com/Domenick1991/skyclient/config"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Open selects the backend for the configured target once, at startup.
// device opens the encrypted badger store, web a shared redis server and
// memory an ephemeral map.
func Open(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (ClosableBackend, error) {
	switch cfg.Target {
	case config.TargetDevice:
		key, err := cfg.EncryptionKeyBytes()
		if err != nil {
			return nil, err
		}
		return OpenBadger(cfg.BadgerDir, key, log)

	case config.TargetWeb:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisBackend(client, cfg.KeyPrefix), nil

	case config.TargetMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown storage target %q", cfg.Target)
}
